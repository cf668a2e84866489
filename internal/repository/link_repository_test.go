package repository_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	apperrors "github.com/mbriand/linknest/internal/errors"
	"github.com/mbriand/linknest/internal/models"
	"github.com/mbriand/linknest/internal/repository"
)

// newTestDB opens a private in-memory SQLite database migrated with the
// application schema. A single connection keeps the shared in-memory
// database alive and serializes writers, which SQLite does anyway.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

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
	return db
}

func TestCreateLink_EnforcesSlugUniqueness(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewLinkRepository(db)
	ctx := context.Background()

	first := &models.Link{ShortSlug: "promo1", OriginalURL: "https://example.com"}
	require.NoError(t, repo.CreateLink(ctx, first))
	require.NotZero(t, first.ID)

	// Same slug again: the unique index rejects it, regardless of any
	// pre-check the caller did.
	dup := &models.Link{ShortSlug: "promo1", OriginalURL: "https://other.example.com"}
	err := repo.CreateLink(ctx, dup)
	require.ErrorIs(t, err, apperrors.ErrSlugConflict)

	// No second row was inserted.
	var count int64
	require.NoError(t, db.Model(&models.Link{}).Where("short_slug = ?", "promo1").Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestCreateLink_SlugsAreCaseSensitive(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewLinkRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.CreateLink(ctx, &models.Link{ShortSlug: "abc123", OriginalURL: "https://example.com"}))
	require.NoError(t, repo.CreateLink(ctx, &models.Link{ShortSlug: "ABC123", OriginalURL: "https://example.com"}))

	link, err := repo.GetLinkBySlug(ctx, "ABC123")
	require.NoError(t, err)
	assert.Equal(t, "ABC123", link.ShortSlug)
}

func TestGetLinkBySlug_NotFound(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewLinkRepository(db)

	_, err := repo.GetLinkBySlug(context.Background(), "missing")
	require.ErrorIs(t, err, apperrors.ErrLinkNotFound)
}

func TestIncrementClickCount_ReturnsPostIncrementValue(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewLinkRepository(db)
	ctx := context.Background()

	link := &models.Link{ShortSlug: "cnt001", OriginalURL: "https://example.com"}
	require.NoError(t, repo.CreateLink(ctx, link))

	count, err := repo.IncrementClickCount(ctx, link.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	count, err = repo.IncrementClickCount(ctx, link.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestIncrementClickCount_UnknownLink(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewLinkRepository(db)

	_, err := repo.IncrementClickCount(context.Background(), 9999)
	require.ErrorIs(t, err, apperrors.ErrLinkNotFound)
}

func TestIncrementClickCount_ConcurrentIncrementsAreNotLost(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewLinkRepository(db)
	ctx := context.Background()

	link := &models.Link{ShortSlug: "race01", OriginalURL: "https://example.com"}
	require.NoError(t, repo.CreateLink(ctx, link))

	const goroutines = 25
	var wg sync.WaitGroup
	errs := make(chan error, goroutines)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repo.IncrementClickCount(ctx, link.ID); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("concurrent increment failed: %v", err)
	}

	stored, err := repo.GetLinkBySlug(ctx, "race01")
	require.NoError(t, err)
	assert.Equal(t, int64(goroutines), stored.ClickCount)
}

func TestGetAllLinks(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewLinkRepository(db)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.CreateLink(ctx, &models.Link{
			ShortSlug:   fmt.Sprintf("bulk%02d", i),
			OriginalURL: "https://example.com",
		}))
	}

	links, err := repo.GetAllLinks(ctx)
	require.NoError(t, err)
	assert.Len(t, links, 3)
}
