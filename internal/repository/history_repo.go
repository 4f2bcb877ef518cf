package repository

import (
	"context"

	"github.com/atelierfoto/session-service/internal/models"
	"gorm.io/gorm"
)

// HistoryRepository is append-only; history rows are never updated or
// deleted.
type HistoryRepository interface {
	Append(ctx context.Context, tx *gorm.DB, entry *models.SessionStatusHistory) error
	ListBySession(ctx context.Context, sessionID uint) ([]models.SessionStatusHistory, error)
}

type historyRepository struct {
	db *gorm.DB
}

func NewHistoryRepository(db *gorm.DB) HistoryRepository {
	return &historyRepository{db: db}
}

func (r *historyRepository) Append(ctx context.Context, tx *gorm.DB, entry *models.SessionStatusHistory) error {
	return tx.WithContext(ctx).Create(entry).Error
}

func (r *historyRepository) ListBySession(ctx context.Context, sessionID uint) ([]models.SessionStatusHistory, error) {
	var entries []models.SessionStatusHistory
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("id ASC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
