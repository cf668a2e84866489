package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	apperrors "github.com/mbriand/linknest/internal/errors"
	"github.com/mbriand/linknest/internal/models"
	"gorm.io/gorm"
)

// LinkRepository est une interface qui définit les méthodes d'accès aux données
type LinkRepository interface {
	CreateLink(ctx context.Context, link *models.Link) error
	GetLinkBySlug(ctx context.Context, slug string) (*models.Link, error)
	IncrementClickCount(ctx context.Context, linkID uint) (int64, error)
	GetAllLinks(ctx context.Context) ([]models.Link, error)
}

// GormLinkRepository est l'implémentation de LinkRepository utilisant GORM.
type GormLinkRepository struct {
	db *gorm.DB
}

// NewLinkRepository crée et retourne une nouvelle instance de GormLinkRepository.
func NewLinkRepository(db *gorm.DB) *GormLinkRepository {
	return &GormLinkRepository{db: db}
}

// CreateLink insère un nouveau lien dans la base de données.
// The uniqueness of short_slug is enforced here, by the unique index,
// not by the allocator's pre-check: two concurrent creations can race
// past the pre-check, and only one of them wins the insert. The loser
// gets ErrSlugConflict and can retry with a fresh slug.
func (r *GormLinkRepository) CreateLink(ctx context.Context, link *models.Link) error {
	if err := r.db.WithContext(ctx).Create(link).Error; err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrSlugConflict
		}
		return fmt.Errorf("failed to create link: %w", err)
	}
	return nil
}

// GetLinkBySlug récupère un lien de la base de données en utilisant son slug.
func (r *GormLinkRepository) GetLinkBySlug(ctx context.Context, slug string) (*models.Link, error) {
	var link models.Link
	if err := r.db.WithContext(ctx).Where("short_slug = ?", slug).First(&link).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrLinkNotFound
		}
		return nil, fmt.Errorf("failed to get link by slug %q: %w", slug, err)
	}
	return &link, nil
}

// IncrementClickCount incrémente le compteur de clics d'un lien de façon atomique.
// The increment is a single SQL expression, never a read-then-write from
// the application, so N concurrent increments always net +N. The
// post-increment value is read back inside the same transaction, while
// the write lock is still held, so it is exact.
func (r *GormLinkRepository) IncrementClickCount(ctx context.Context, linkID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		count, err = incrementClickCount(tx, linkID)
		return err
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrLinkNotFound) {
			return 0, apperrors.ErrLinkNotFound
		}
		return 0, fmt.Errorf("failed to increment click count for link ID %d: %w", linkID, err)
	}
	return count, nil
}

// GetAllLinks récupère tous les liens de la base de données.
func (r *GormLinkRepository) GetAllLinks(ctx context.Context) ([]models.Link, error) {
	var links []models.Link
	if err := r.db.WithContext(ctx).Find(&links).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve all links: %w", err)
	}
	return links, nil
}

// incrementClickCount applique l'incrément atomique du compteur dans la
// transaction donnée et retourne la valeur après incrément.
// Every click_count mutation in the package goes through here: the
// link repository wraps it in its own transaction, the visit repository
// runs it inside the transaction that also inserts the visit row.
func incrementClickCount(tx *gorm.DB, linkID uint) (int64, error) {
	res := tx.Model(&models.Link{}).
		Where("id = ?", linkID).
		UpdateColumn("click_count", gorm.Expr("click_count + ?", 1))
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, apperrors.ErrLinkNotFound
	}

	var link models.Link
	if err := tx.Select("click_count").First(&link, linkID).Error; err != nil {
		return 0, err
	}
	return link.ClickCount, nil
}

// isUniqueViolation détecte une violation de contrainte d'unicité.
// gorm translates driver errors when TranslateError is enabled; the
// string check covers drivers that don't translate.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
