package repository

import (
	"context"
	"errors"
	"fmt"

	apperrors "github.com/mbriand/linknest/internal/errors"
	"github.com/mbriand/linknest/internal/models"
	"gorm.io/gorm"
)

// VisitRepository est une interface qui définit les méthodes d'accès aux données
type VisitRepository interface {
	RecordVisit(ctx context.Context, visit *models.Visit) error
	CountVisitsByLinkID(ctx context.Context, linkID uint) (int64, error)
}

// GormVisitRepository est l'implémentation de l'interface VisitRepository utilisant GORM.
type GormVisitRepository struct {
	db *gorm.DB
}

// NewVisitRepository crée et retourne une nouvelle instance de GormVisitRepository.
func NewVisitRepository(db *gorm.DB) *GormVisitRepository {
	return &GormVisitRepository{db: db}
}

// RecordVisit insère un enregistrement de visite et incrémente le compteur
// de clics du lien dans une même transaction.
// Invariant: at rest, click_count equals the number of visit rows for
// the link. Running both writes in one transaction means they commit or
// roll back together; the two can never diverge past the single
// in-flight call.
func (r *GormVisitRepository) RecordVisit(ctx context.Context, visit *models.Visit) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := incrementClickCount(tx, visit.LinkID); err != nil {
			return err
		}
		return tx.Create(visit).Error
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrLinkNotFound) {
			return apperrors.ErrLinkNotFound
		}
		return fmt.Errorf("failed to record visit: %w", err)
	}
	return nil
}

// CountVisitsByLinkID compte le nombre total de visites pour un ID de lien donné.
func (r *GormVisitRepository) CountVisitsByLinkID(ctx context.Context, linkID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Visit{}).Where("link_id = ?", linkID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count visits for link ID %d: %w", linkID, err)
	}
	return count, nil
}
