package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbriand/linknest/internal/config"
)

func TestLoadConfig_Defaults(t *testing.T) {
	// No configs/ directory in the test working dir: everything comes
	// from the viper defaults.
	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "http://localhost:8080", cfg.Server.BaseURL)
	assert.Equal(t, "linknest.db", cfg.Database.Name)
	assert.Equal(t, 1000, cfg.Analytics.BufferSize)
	assert.Equal(t, 5, cfg.Analytics.WorkerCount)
	assert.Empty(t, cfg.GeoIP.DatabasePath)
	assert.Equal(t, 5, cfg.Monitor.IntervalMinutes)
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DATABASE_NAME", "override.db")

	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "override.db", cfg.Database.Name)
}
