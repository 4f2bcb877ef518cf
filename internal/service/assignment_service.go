package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/atelierfoto/session-service/internal/auth"
	"github.com/atelierfoto/session-service/internal/cache"
	"github.com/atelierfoto/session-service/internal/models"
	"github.com/atelierfoto/session-service/internal/repository"
	"gorm.io/gorm"
)

type AssignPhotographerInput struct {
	PhotographerID uint
	Role           models.PhotographerRole
	CoverageStart  time.Time
	CoverageEnd    time.Time
	Notes          string
}

type AssignmentService interface {
	AssignPhotographer(ctx context.Context, sessionID uint, actor *auth.Identity, input AssignPhotographerInput) (*models.SessionPhotographer, error)
	RemovePhotographer(ctx context.Context, sessionID, photographerID uint, actor *auth.Identity) error
	ReassignPhotographer(ctx context.Context, sessionID, oldPhotographerID uint, actor *auth.Identity, input AssignPhotographerInput) (*models.SessionPhotographer, error)
	MarkAttended(ctx context.Context, sessionID, photographerID uint, actor *auth.Identity) error
	ListAssignments(ctx context.Context, sessionID uint) ([]models.SessionPhotographer, error)
}

type assignmentService struct {
	sessionRepo    repository.SessionRepository
	assignmentRepo repository.AssignmentRepository
	checker        AvailabilityChecker
	sessions       SessionService
	snapshots      *cache.SessionCache
}

func NewAssignmentService(
	sessionRepo repository.SessionRepository,
	assignmentRepo repository.AssignmentRepository,
	checker AvailabilityChecker,
	sessions SessionService,
	snapshots *cache.SessionCache,
) AssignmentService {
	return &assignmentService{
		sessionRepo:    sessionRepo,
		assignmentRepo: assignmentRepo,
		checker:        checker,
		sessions:       sessions,
		snapshots:      snapshots,
	}
}

// AssignPhotographer books a photographer onto a session. The session row
// lock plus the photographer row lock (taken by the checker) make the
// duplicate check, the overlap count and the insert one serialized unit:
// of two concurrent assignments over the same photographer and slot,
// exactly one commits.
func (s *assignmentService) AssignPhotographer(ctx context.Context, sessionID uint, actor *auth.Identity, input AssignPhotographerInput) (*models.SessionPhotographer, error) {
	if !auth.Authorize(actor, PermSessionAssign, nil) {
		return nil, ErrInsufficientPermission
	}
	if !input.CoverageEnd.After(input.CoverageStart) {
		return nil, fmt.Errorf("%w: coverage_end must be after coverage_start", ErrInvalidPayload)
	}
	role := input.Role
	if role == "" {
		role = models.RoleAssistant
	}

	var assignment *models.SessionPhotographer
	err := s.sessionRepo.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		session, err := s.sessionRepo.FindByIDForUpdate(ctx, tx, sessionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSessionNotFound
			}
			return repoErr(err)
		}
		if session.Status != models.StatusPreScheduled && session.Status != models.StatusConfirmed &&
			session.Status != models.StatusAssigned {
			return fmt.Errorf("%w: photographers are assigned between scheduling and attendance, session is %s", ErrIllegalTransition, session.Status)
		}

		// Coverage must bracket the session interval (travel buffer allowed).
		if input.CoverageStart.After(session.StartTime) || input.CoverageEnd.Before(session.EndTime) {
			return fmt.Errorf("%w: coverage must bracket the session time", ErrInvalidPayload)
		}

		existing, err := s.assignmentRepo.FindBySessionAndPhotographer(ctx, tx, sessionID, input.PhotographerID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return repoErr(err)
		}
		if existing != nil {
			return fmt.Errorf("%w: photographer %d already assigned", ErrInvalidPayload, input.PhotographerID)
		}

		if err := s.checker.CheckPhotographerTx(ctx, tx, input.PhotographerID, session.SessionDate, input.CoverageStart, input.CoverageEnd, session.ID); err != nil {
			return err
		}

		assignment = &models.SessionPhotographer{
			SessionID:      sessionID,
			PhotographerID: input.PhotographerID,
			Role:           role,
			CoverageStart:  input.CoverageStart,
			CoverageEnd:    input.CoverageEnd,
			Notes:          input.Notes,
			AssignedBy:     actor.UserID,
		}
		if err := s.assignmentRepo.Create(ctx, tx, assignment); err != nil {
			return repoErr(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.snapshots.Invalidate(ctx, sessionID)

	// First assignment on a confirmed session moves it to Assigned.
	s.autoAdvance(ctx, sessionID, actor, models.StatusConfirmed, models.StatusAssigned, "Photographer assigned")
	return assignment, nil
}

func (s *assignmentService) RemovePhotographer(ctx context.Context, sessionID, photographerID uint, actor *auth.Identity) error {
	if !auth.Authorize(actor, PermSessionAssign, nil) {
		return ErrInsufficientPermission
	}

	err := s.sessionRepo.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		session, err := s.sessionRepo.FindByIDForUpdate(ctx, tx, sessionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSessionNotFound
			}
			return repoErr(err)
		}
		if session.Status.IsTerminal() || session.Status == models.StatusAttended ||
			session.Status == models.StatusInEditing || session.Status == models.StatusReadyForDelivery {
			return fmt.Errorf("%w: assignments cannot change after attendance", ErrSessionNotEditable)
		}

		assignment, err := s.assignmentRepo.FindBySessionAndPhotographer(ctx, tx, sessionID, photographerID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: photographer %d is not assigned", ErrMissingResource, photographerID)
			}
			return repoErr(err)
		}

		// An Assigned session keeps at least one photographer; swap the
		// last one out via ReassignPhotographer instead.
		if session.Status == models.StatusAssigned {
			assignments, err := s.assignmentRepo.ListBySession(ctx, tx, sessionID)
			if err != nil {
				return repoErr(err)
			}
			if len(assignments) <= 1 {
				return fmt.Errorf("%w: cannot remove the last photographer of an assigned session", ErrMissingResource)
			}
		}

		if err := s.assignmentRepo.Delete(ctx, tx, assignment.ID); err != nil {
			return repoErr(err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.snapshots.Invalidate(ctx, sessionID)
	return nil
}

// ReassignPhotographer swaps one photographer for another atomically: the
// removal and the replacement commit together, so the session never observes
// an intermediate state with the slot half-freed.
func (s *assignmentService) ReassignPhotographer(ctx context.Context, sessionID, oldPhotographerID uint, actor *auth.Identity, input AssignPhotographerInput) (*models.SessionPhotographer, error) {
	if !auth.Authorize(actor, PermSessionAssign, nil) {
		return nil, ErrInsufficientPermission
	}
	if !input.CoverageEnd.After(input.CoverageStart) {
		return nil, fmt.Errorf("%w: coverage_end must be after coverage_start", ErrInvalidPayload)
	}
	role := input.Role
	if role == "" {
		role = models.RoleAssistant
	}

	var assignment *models.SessionPhotographer
	err := s.sessionRepo.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		session, err := s.sessionRepo.FindByIDForUpdate(ctx, tx, sessionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSessionNotFound
			}
			return repoErr(err)
		}
		if session.Status.IsTerminal() || session.Status == models.StatusAttended ||
			session.Status == models.StatusInEditing || session.Status == models.StatusReadyForDelivery {
			return fmt.Errorf("%w: assignments cannot change after attendance", ErrSessionNotEditable)
		}
		if input.CoverageStart.After(session.StartTime) || input.CoverageEnd.Before(session.EndTime) {
			return fmt.Errorf("%w: coverage must bracket the session time", ErrInvalidPayload)
		}

		old, err := s.assignmentRepo.FindBySessionAndPhotographer(ctx, tx, sessionID, oldPhotographerID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: photographer %d is not assigned", ErrMissingResource, oldPhotographerID)
			}
			return repoErr(err)
		}
		if err := s.assignmentRepo.Delete(ctx, tx, old.ID); err != nil {
			return repoErr(err)
		}

		if input.PhotographerID != oldPhotographerID {
			existing, err := s.assignmentRepo.FindBySessionAndPhotographer(ctx, tx, sessionID, input.PhotographerID)
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return repoErr(err)
			}
			if existing != nil {
				return fmt.Errorf("%w: photographer %d already assigned", ErrInvalidPayload, input.PhotographerID)
			}
		}
		if err := s.checker.CheckPhotographerTx(ctx, tx, input.PhotographerID, session.SessionDate, input.CoverageStart, input.CoverageEnd, session.ID); err != nil {
			return err
		}

		assignment = &models.SessionPhotographer{
			SessionID:      sessionID,
			PhotographerID: input.PhotographerID,
			Role:           role,
			CoverageStart:  input.CoverageStart,
			CoverageEnd:    input.CoverageEnd,
			Notes:          input.Notes,
			AssignedBy:     actor.UserID,
		}
		if err := s.assignmentRepo.Create(ctx, tx, assignment); err != nil {
			return repoErr(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.snapshots.Invalidate(ctx, sessionID)
	return assignment, nil
}

// MarkAttended records a photographer's attendance. Photographers may mark
// their own; anyone with the all-scope edit capability may mark others'.
// Once every photographer has attended, the session advances.
func (s *assignmentService) MarkAttended(ctx context.Context, sessionID, photographerID uint, actor *auth.Identity) error {
	if photographerID != actor.UserID && !auth.Authorize(actor, PermSessionEditAll, nil) {
		return ErrInsufficientPermission
	}

	var allAttended bool
	err := s.sessionRepo.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		session, err := s.sessionRepo.FindByIDForUpdate(ctx, tx, sessionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSessionNotFound
			}
			return repoErr(err)
		}
		if session.Status != models.StatusAssigned && session.Status != models.StatusAttended {
			return fmt.Errorf("%w: attendance is recorded once photographers are assigned, session is %s", ErrIllegalTransition, session.Status)
		}

		assignment, err := s.assignmentRepo.FindBySessionAndPhotographer(ctx, tx, sessionID, photographerID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: photographer %d is not assigned", ErrMissingResource, photographerID)
			}
			return repoErr(err)
		}
		if !assignment.Attended {
			if err := s.assignmentRepo.MarkAttended(ctx, tx, assignment.ID, time.Now()); err != nil {
				return repoErr(err)
			}
		}

		assignments, err := s.assignmentRepo.ListBySession(ctx, tx, sessionID)
		if err != nil {
			return repoErr(err)
		}
		allAttended = true
		for _, a := range assignments {
			if a.ID != assignment.ID && !a.Attended {
				allAttended = false
				break
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.snapshots.Invalidate(ctx, sessionID)

	if allAttended {
		s.autoAdvance(ctx, sessionID, actor, models.StatusAssigned, models.StatusAttended, "All photographers attended")
	}
	return nil
}

func (s *assignmentService) ListAssignments(ctx context.Context, sessionID uint) ([]models.SessionPhotographer, error) {
	assignments, err := s.assignmentRepo.ListBySession(ctx, nil, sessionID)
	if err != nil {
		return nil, repoErr(err)
	}
	return assignments, nil
}

// autoAdvance fires a follow-up transition after commit. A racing change is
// benign: the state machine rejects the stale edge and the primary operation
// stands. Any other failure is logged so the stuck session is visible.
func (s *assignmentService) autoAdvance(ctx context.Context, sessionID uint, actor *auth.Identity, from, to models.SessionStatus, reason string) {
	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil || session.Status != from {
		return
	}
	if _, err := s.sessions.RequestTransition(ctx, sessionID, actor, &TransitionRequest{Target: to, Reason: reason}); err != nil && !errors.Is(err, ErrIllegalTransition) {
		log.Printf("[Assignments] auto transition %s -> %s for session %d failed: %v", from, to, sessionID, err)
	}
}
