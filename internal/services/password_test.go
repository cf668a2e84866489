package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbriand/linknest/internal/services"
)

func TestBcryptHasher_RoundTrip(t *testing.T) {
	hasher := services.NewBcryptHasher()

	digest, err := hasher.Hash("abcd")
	require.NoError(t, err)
	require.NotEmpty(t, digest)
	require.NotEqual(t, "abcd", digest)

	assert.True(t, hasher.Compare("abcd", digest))
	assert.False(t, hasher.Compare("wrong", digest))
	assert.False(t, hasher.Compare("", digest))
}

func TestBcryptHasher_DistinctDigests(t *testing.T) {
	hasher := services.NewBcryptHasher()

	a, err := hasher.Hash("abcd")
	require.NoError(t, err)
	b, err := hasher.Hash("abcd")
	require.NoError(t, err)

	// bcrypt salts every digest.
	assert.NotEqual(t, a, b)
}
