package api_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mbriand/linknest/internal/api"
	"github.com/mbriand/linknest/internal/models"
	"github.com/mbriand/linknest/internal/repository"
	"github.com/mbriand/linknest/internal/services"
)

const testBaseURL = "http://short.test"

func setupRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()

	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&models.Link{}, &models.Visit{}))

	linkRepo := repository.NewLinkRepository(db)
	visitRepo := repository.NewVisitRepository(db)
	linkService := services.NewLinkService(linkRepo, visitRepo, services.NewBcryptHasher(), nil)

	router := gin.New()
	api.SetupRoutes(router, linkService, testBaseURL)
	return router, db
}

func postJSON(t *testing.T, router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealthCheck(t *testing.T) {
	router, _ := setupRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCreateLink_ReturnsShortURL(t *testing.T) {
	router, _ := setupRouter(t)

	w := postJSON(t, router, "/api/v1/links",
		`{"long_url": "https://example.com", "custom_slug": "promo1"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "promo1", resp["short_slug"])
	assert.Equal(t, "https://example.com", resp["long_url"])
	assert.Equal(t, testBaseURL+"/promo1", resp["full_short_url"])
}

func TestCreateLink_SlugTaken(t *testing.T) {
	router, _ := setupRouter(t)

	w := postJSON(t, router, "/api/v1/links",
		`{"long_url": "https://example.com", "custom_slug": "promo1"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	w = postJSON(t, router, "/api/v1/links",
		`{"long_url": "https://other.example.com", "custom_slug": "promo1"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCreateLink_InvalidInputs(t *testing.T) {
	router, _ := setupRouter(t)

	tests := []struct {
		name string
		body string
	}{
		{"missing url", `{}`},
		{"malformed url", `{"long_url": "notaurl"}`},
		{"slug too short", `{"long_url": "https://example.com", "custom_slug": "ab"}`},
		{"bad expires_at", `{"long_url": "https://example.com", "expires_at": "tomorrow"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(t, router, "/api/v1/links", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestRedirect_Found(t *testing.T) {
	router, _ := setupRouter(t)

	w := postJSON(t, router, "/api/v1/links",
		`{"long_url": "https://example.com", "custom_slug": "promo1"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/promo1", nil)
	w2 := httptest.NewRecorder()
	router.ServeHTTP(w2, req)

	assert.Equal(t, http.StatusFound, w2.Code)
	assert.Equal(t, "https://example.com", w2.Header().Get("Location"))
}

func TestRedirect_NotFound(t *testing.T) {
	router, _ := setupRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/nosuch", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRedirect_ExpiredReturnsGone(t *testing.T) {
	router, db := setupRouter(t)

	past := time.Now().Add(-time.Minute)
	require.NoError(t, db.Create(&models.Link{
		ShortSlug:   "oldone",
		OriginalURL: "https://example.com",
		ExpiresAt:   &past,
	}).Error)

	req := httptest.NewRequest(http.MethodGet, "/oldone", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusGone, w.Code)
}

func TestRedirect_PasswordProtected(t *testing.T) {
	router, _ := setupRouter(t)

	w := postJSON(t, router, "/api/v1/links",
		`{"long_url": "https://example.com", "custom_slug": "locked", "password": "abcd"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	// No password.
	req := httptest.NewRequest(http.MethodGet, "/locked", nil)
	w2 := httptest.NewRecorder()
	router.ServeHTTP(w2, req)
	assert.Equal(t, http.StatusUnauthorized, w2.Code)

	// Wrong password.
	req = httptest.NewRequest(http.MethodGet, "/locked?password=wrong", nil)
	w2 = httptest.NewRecorder()
	router.ServeHTTP(w2, req)
	assert.Equal(t, http.StatusUnauthorized, w2.Code)

	// Correct password.
	req = httptest.NewRequest(http.MethodGet, "/locked?password=abcd", nil)
	w2 = httptest.NewRecorder()
	router.ServeHTTP(w2, req)
	assert.Equal(t, http.StatusFound, w2.Code)
	assert.Equal(t, "https://example.com", w2.Header().Get("Location"))
}

func TestGetLinkStats(t *testing.T) {
	router, _ := setupRouter(t)

	w := postJSON(t, router, "/api/v1/links",
		`{"long_url": "https://example.com", "custom_slug": "stats1"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/links/stats1/stats", nil)
	w2 := httptest.NewRecorder()
	router.ServeHTTP(w2, req)
	require.Equal(t, http.StatusOK, w2.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w2.Body.Bytes(), &resp))
	assert.Equal(t, "stats1", resp["short_slug"])
	assert.EqualValues(t, 0, resp["click_count"])

	req = httptest.NewRequest(http.MethodGet, "/api/v1/links/missing/stats", nil)
	w2 = httptest.NewRecorder()
	router.ServeHTTP(w2, req)
	assert.Equal(t, http.StatusNotFound, w2.Code)
}
