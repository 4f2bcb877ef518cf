package repository

import (
	"context"
	"time"

	"github.com/atelierfoto/session-service/internal/models"
	"gorm.io/gorm"
)

type AssignmentRepository interface {
	Create(ctx context.Context, tx *gorm.DB, assignment *models.SessionPhotographer) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error
	FindByID(ctx context.Context, id uint) (*models.SessionPhotographer, error)
	FindBySessionAndPhotographer(ctx context.Context, tx *gorm.DB, sessionID, photographerID uint) (*models.SessionPhotographer, error)
	ListBySession(ctx context.Context, tx *gorm.DB, sessionID uint) ([]models.SessionPhotographer, error)
	MarkAttended(ctx context.Context, tx *gorm.DB, id uint, at time.Time) error
	CountPhotographerOverlaps(ctx context.Context, tx *gorm.DB, photographerID uint, date time.Time, start, end time.Time, excludingSessionID uint) (int64, error)
}

type assignmentRepository struct {
	db *gorm.DB
}

func NewAssignmentRepository(db *gorm.DB) AssignmentRepository {
	return &assignmentRepository{db: db}
}

func (r *assignmentRepository) Create(ctx context.Context, tx *gorm.DB, assignment *models.SessionPhotographer) error {
	return tx.WithContext(ctx).Create(assignment).Error
}

func (r *assignmentRepository) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	return tx.WithContext(ctx).Delete(&models.SessionPhotographer{}, id).Error
}

func (r *assignmentRepository) FindByID(ctx context.Context, id uint) (*models.SessionPhotographer, error) {
	var assignment models.SessionPhotographer
	if err := r.db.WithContext(ctx).First(&assignment, id).Error; err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (r *assignmentRepository) FindBySessionAndPhotographer(ctx context.Context, tx *gorm.DB, sessionID, photographerID uint) (*models.SessionPhotographer, error) {
	var assignment models.SessionPhotographer
	err := tx.WithContext(ctx).
		Where("session_id = ? AND photographer_id = ?", sessionID, photographerID).
		First(&assignment).Error
	if err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (r *assignmentRepository) ListBySession(ctx context.Context, tx *gorm.DB, sessionID uint) ([]models.SessionPhotographer, error) {
	db := r.db
	if tx != nil {
		db = tx
	}
	var assignments []models.SessionPhotographer
	err := db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("id ASC").
		Find(&assignments).Error
	if err != nil {
		return nil, err
	}
	return assignments, nil
}

func (r *assignmentRepository) MarkAttended(ctx context.Context, tx *gorm.DB, id uint, at time.Time) error {
	return tx.WithContext(ctx).
		Model(&models.SessionPhotographer{}).
		Where("id = ?", id).
		Updates(map[string]any{"attended": true, "attended_at": at}).Error
}

// CountPhotographerOverlaps counts coverage intervals of the photographer on
// the given date, belonging to non-cancelled sessions, that overlap the
// candidate interval. Callers must hold the photographer's user row lock
// for the duration of check+write.
func (r *assignmentRepository) CountPhotographerOverlaps(
	ctx context.Context, tx *gorm.DB,
	photographerID uint, date time.Time, start, end time.Time,
	excludingSessionID uint,
) (int64, error) {
	var count int64
	q := tx.WithContext(ctx).
		Model(&models.SessionPhotographer{}).
		Joins("JOIN sessions ON sessions.id = session_photographers.session_id").
		Where("session_photographers.photographer_id = ?", photographerID).
		Where("sessions.session_date = ? AND sessions.status <> ?", date, models.StatusCanceled).
		Where("session_photographers.coverage_start < ? AND session_photographers.coverage_end > ?", end, start)
	if excludingSessionID != 0 {
		q = q.Where("session_photographers.session_id <> ?", excludingSessionID)
	}
	err := q.Count(&count).Error
	return count, err
}
