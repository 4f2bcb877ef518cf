package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/atelierfoto/session-service/internal/models"
	"github.com/atelierfoto/session-service/internal/repository"
	"gorm.io/gorm"
)

type ResourceKind string

const (
	ResourceRoom         ResourceKind = "room"
	ResourcePhotographer ResourceKind = "photographer"
)

// AvailabilityChecker answers whether a resource is free for a time window
// on a date. The transactional variants must be called with the resource's
// row lock already held (they acquire it themselves), so that the check and
// the subsequent booking write form one serialized unit.
type AvailabilityChecker interface {
	CheckAvailable(ctx context.Context, kind ResourceKind, resourceID uint, date time.Time, start, end time.Time, excludingSessionID uint) (bool, error)
	CheckRoomTx(ctx context.Context, tx *gorm.DB, roomID uint, date time.Time, start, end time.Time, excludingSessionID uint) error
	CheckPhotographerTx(ctx context.Context, tx *gorm.DB, photographerID uint, date time.Time, start, end time.Time, excludingSessionID uint) error
}

type availabilityChecker struct {
	sessionRepo    repository.SessionRepository
	assignmentRepo repository.AssignmentRepository
	roomRepo       repository.RoomRepository
	userRepo       repository.UserRepository
}

func NewAvailabilityChecker(
	sessionRepo repository.SessionRepository,
	assignmentRepo repository.AssignmentRepository,
	roomRepo repository.RoomRepository,
	userRepo repository.UserRepository,
) AvailabilityChecker {
	return &availabilityChecker{
		sessionRepo:    sessionRepo,
		assignmentRepo: assignmentRepo,
		roomRepo:       roomRepo,
		userRepo:       userRepo,
	}
}

// intervalsOverlap is the half-open interval test: [aStart,aEnd) and
// [bStart,bEnd) overlap iff aStart < bEnd && bStart < aEnd. Touching
// endpoints (back-to-back bookings) do not conflict.
func intervalsOverlap(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// CheckAvailable is the read-only form used outside a booking write (e.g.
// availability queries). It gives no serialization guarantee; bookings use
// the Tx variants.
func (c *availabilityChecker) CheckAvailable(
	ctx context.Context, kind ResourceKind, resourceID uint,
	date time.Time, start, end time.Time, excludingSessionID uint,
) (bool, error) {
	if !end.After(start) {
		return false, fmt.Errorf("%w: end must be after start", ErrInvalidPayload)
	}
	db := c.sessionRepo.GetDB()
	var (
		count int64
		err   error
	)
	switch kind {
	case ResourceRoom:
		count, err = c.sessionRepo.CountRoomOverlaps(ctx, db, resourceID, date, start, end, excludingSessionID)
	case ResourcePhotographer:
		count, err = c.assignmentRepo.CountPhotographerOverlaps(ctx, db, resourceID, date, start, end, excludingSessionID)
	default:
		return false, fmt.Errorf("%w: unknown resource kind %q", ErrInvalidPayload, kind)
	}
	if err != nil {
		return false, repoErr(err)
	}
	return count == 0, nil
}

// CheckRoomTx locks the room row inside tx, validates the room is usable
// and counts overlapping non-cancelled bookings. The lock is held until tx
// commits, so a conflicting writer blocks and then observes this booking.
func (c *availabilityChecker) CheckRoomTx(
	ctx context.Context, tx *gorm.DB,
	roomID uint, date time.Time, start, end time.Time,
	excludingSessionID uint,
) error {
	room, err := c.roomRepo.FindByIDForUpdate(ctx, tx, roomID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: room %d", ErrMissingResource, roomID)
		}
		return repoErr(err)
	}
	if room.Status != models.ResourceActive {
		return fmt.Errorf("%w: room %q is %s", ErrMissingResource, room.Name, room.Status)
	}

	count, err := c.sessionRepo.CountRoomOverlaps(ctx, tx, roomID, date, start, end, excludingSessionID)
	if err != nil {
		return repoErr(err)
	}
	if count > 0 {
		return fmt.Errorf("%w: room %q on %s", ErrSchedulingConflict, room.Name, date.Format("2006-01-02"))
	}
	return nil
}

// CheckPhotographerTx locks the photographer's user row inside tx and
// counts overlapping coverage intervals on non-cancelled sessions.
func (c *availabilityChecker) CheckPhotographerTx(
	ctx context.Context, tx *gorm.DB,
	photographerID uint, date time.Time, start, end time.Time,
	excludingSessionID uint,
) error {
	user, err := c.userRepo.FindByIDForUpdate(ctx, tx, photographerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: photographer %d", ErrMissingResource, photographerID)
		}
		return repoErr(err)
	}
	if user.Status != models.ResourceActive {
		return fmt.Errorf("%w: photographer %q is %s", ErrMissingResource, user.Name, user.Status)
	}

	count, err := c.assignmentRepo.CountPhotographerOverlaps(ctx, tx, photographerID, date, start, end, excludingSessionID)
	if err != nil {
		return repoErr(err)
	}
	if count > 0 {
		return fmt.Errorf("%w: photographer %q on %s", ErrSchedulingConflict, user.Name, date.Format("2006-01-02"))
	}
	return nil
}
