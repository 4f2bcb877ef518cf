package repository

import (
	"context"

	"github.com/atelierfoto/session-service/internal/models"
	"gorm.io/gorm"
)

type DetailRepository interface {
	Create(ctx context.Context, tx *gorm.DB, detail *models.SessionDetail) error
	CreateMany(ctx context.Context, tx *gorm.DB, details []models.SessionDetail) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error
	FindByID(ctx context.Context, tx *gorm.DB, id uint) (*models.SessionDetail, error)
	ListBySession(ctx context.Context, tx *gorm.DB, sessionID uint) ([]models.SessionDetail, error)
}

type detailRepository struct {
	db *gorm.DB
}

func NewDetailRepository(db *gorm.DB) DetailRepository {
	return &detailRepository{db: db}
}

func (r *detailRepository) Create(ctx context.Context, tx *gorm.DB, detail *models.SessionDetail) error {
	return tx.WithContext(ctx).Create(detail).Error
}

func (r *detailRepository) CreateMany(ctx context.Context, tx *gorm.DB, details []models.SessionDetail) error {
	if len(details) == 0 {
		return nil
	}
	return tx.WithContext(ctx).Create(&details).Error
}

func (r *detailRepository) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	return tx.WithContext(ctx).Delete(&models.SessionDetail{}, id).Error
}

func (r *detailRepository) FindByID(ctx context.Context, tx *gorm.DB, id uint) (*models.SessionDetail, error) {
	db := r.db
	if tx != nil {
		db = tx
	}
	var detail models.SessionDetail
	if err := db.WithContext(ctx).First(&detail, id).Error; err != nil {
		return nil, err
	}
	return &detail, nil
}

func (r *detailRepository) ListBySession(ctx context.Context, tx *gorm.DB, sessionID uint) ([]models.SessionDetail, error) {
	db := r.db
	if tx != nil {
		db = tx
	}
	var details []models.SessionDetail
	err := db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("id ASC").
		Find(&details).Error
	if err != nil {
		return nil, err
	}
	return details, nil
}
