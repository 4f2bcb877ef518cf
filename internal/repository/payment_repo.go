package repository

import (
	"context"
	"time"

	"github.com/atelierfoto/session-service/internal/models"
	"gorm.io/gorm"
)

type PaymentRepository interface {
	Create(ctx context.Context, tx *gorm.DB, payment *models.SessionPayment) error
	FindByID(ctx context.Context, tx *gorm.DB, id uint) (*models.SessionPayment, error)
	ListBySession(ctx context.Context, tx *gorm.DB, sessionID uint) ([]models.SessionPayment, error)
	MarkVerified(ctx context.Context, tx *gorm.DB, id uint, verifiedBy uint, at time.Time) error
}

type paymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) Create(ctx context.Context, tx *gorm.DB, payment *models.SessionPayment) error {
	return tx.WithContext(ctx).Create(payment).Error
}

func (r *paymentRepository) FindByID(ctx context.Context, tx *gorm.DB, id uint) (*models.SessionPayment, error) {
	db := r.db
	if tx != nil {
		db = tx
	}
	var payment models.SessionPayment
	if err := db.WithContext(ctx).First(&payment, id).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *paymentRepository) ListBySession(ctx context.Context, tx *gorm.DB, sessionID uint) ([]models.SessionPayment, error) {
	db := r.db
	if tx != nil {
		db = tx
	}
	var payments []models.SessionPayment
	err := db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("id ASC").
		Find(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}

func (r *paymentRepository) MarkVerified(ctx context.Context, tx *gorm.DB, id uint, verifiedBy uint, at time.Time) error {
	return tx.WithContext(ctx).
		Model(&models.SessionPayment{}).
		Where("id = ?", id).
		Updates(map[string]any{"verified": true, "verified_by": verifiedBy, "verified_at": at}).Error
}
