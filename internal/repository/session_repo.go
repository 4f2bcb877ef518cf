package repository

import (
	"context"
	"time"

	"github.com/atelierfoto/session-service/internal/models"
	"gorm.io/gorm"
)

// SessionFilter narrows List results. Zero values mean "no filter".
type SessionFilter struct {
	ClientID       uint
	Status         *models.SessionStatus
	StartDate      *time.Time
	EndDate        *time.Time
	PhotographerID uint
	EditorID       uint
	Limit          int
	Offset         int
}

type SessionRepository interface {
	Create(ctx context.Context, tx *gorm.DB, session *models.Session) error
	FindByID(ctx context.Context, id uint) (*models.Session, error)
	FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.Session, error)
	Save(ctx context.Context, tx *gorm.DB, session *models.Session) error
	List(ctx context.Context, filter SessionFilter) ([]models.Session, error)
	CountRoomOverlaps(ctx context.Context, tx *gorm.DB, roomID uint, date time.Time, start, end time.Time, excludingSessionID uint) (int64, error)
	GetDB() *gorm.DB
}

type sessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) GetDB() *gorm.DB {
	return r.db
}

func (r *sessionRepository) Create(ctx context.Context, tx *gorm.DB, session *models.Session) error {
	return tx.WithContext(ctx).Create(session).Error
}

func (r *sessionRepository) FindByID(ctx context.Context, id uint) (*models.Session, error) {
	var session models.Session
	if err := r.db.WithContext(ctx).First(&session, id).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

// FindByIDForUpdate acquires a row-level lock on the session within the
// given transaction, linearizing concurrent transition requests against the
// same session.
func (r *sessionRepository) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.Session, error) {
	var session models.Session
	if err := tx.WithContext(ctx).
		Set("gorm:query_option", "FOR UPDATE").
		First(&session, id).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepository) Save(ctx context.Context, tx *gorm.DB, session *models.Session) error {
	return tx.WithContext(ctx).Save(session).Error
}

func (r *sessionRepository) List(ctx context.Context, filter SessionFilter) ([]models.Session, error) {
	q := r.db.WithContext(ctx).Model(&models.Session{})

	if filter.ClientID != 0 {
		q = q.Where("client_id = ?", filter.ClientID)
	}
	if filter.Status != nil {
		q = q.Where("status = ?", *filter.Status)
	}
	if filter.StartDate != nil {
		q = q.Where("session_date >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		q = q.Where("session_date <= ?", *filter.EndDate)
	}
	if filter.PhotographerID != 0 {
		q = q.Where(
			"id IN (SELECT session_id FROM session_photographers WHERE photographer_id = ?)",
			filter.PhotographerID,
		)
	}
	if filter.EditorID != 0 {
		q = q.Where("editor_id = ?", filter.EditorID)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}

	var sessions []models.Session
	if err := q.Order("session_date ASC, start_time ASC, id ASC").Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}

// CountRoomOverlaps counts non-cancelled sessions booked into the room on
// the given date whose [start,end) interval overlaps the candidate one.
// Callers must hold the room row lock for the duration of check+write.
func (r *sessionRepository) CountRoomOverlaps(
	ctx context.Context, tx *gorm.DB,
	roomID uint, date time.Time, start, end time.Time,
	excludingSessionID uint,
) (int64, error) {
	var count int64
	q := tx.WithContext(ctx).
		Model(&models.Session{}).
		Where("room_id = ? AND session_date = ? AND status <> ?", roomID, date, models.StatusCanceled).
		Where("start_time < ? AND end_time > ?", end, start)
	if excludingSessionID != 0 {
		q = q.Where("id <> ?", excludingSessionID)
	}
	err := q.Count(&count).Error
	return count, err
}
