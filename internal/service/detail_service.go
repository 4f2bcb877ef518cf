package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/atelierfoto/session-service/internal/auth"
	"github.com/atelierfoto/session-service/internal/cache"
	"github.com/atelierfoto/session-service/internal/ledger"
	"github.com/atelierfoto/session-service/internal/models"
	"github.com/atelierfoto/session-service/internal/repository"
	"gorm.io/gorm"
)

type AddItemInput struct {
	CatalogItemID uint
	Quantity      int
}

type DetailService interface {
	AddItem(ctx context.Context, sessionID uint, actor *auth.Identity, input AddItemInput) (*models.SessionDetail, error)
	RemoveDetail(ctx context.Context, sessionID, detailID uint, actor *auth.Identity) error
	ListDetails(ctx context.Context, sessionID uint) ([]models.SessionDetail, error)
}

type detailService struct {
	sessionRepo repository.SessionRepository
	detailRepo  repository.DetailRepository
	paymentRepo repository.PaymentRepository
	catalogRepo repository.CatalogRepository
	snapshots   *cache.SessionCache
}

func NewDetailService(
	sessionRepo repository.SessionRepository,
	detailRepo repository.DetailRepository,
	paymentRepo repository.PaymentRepository,
	catalogRepo repository.CatalogRepository,
	snapshots *cache.SessionCache,
) DetailService {
	return &detailService{
		sessionRepo: sessionRepo,
		detailRepo:  detailRepo,
		paymentRepo: paymentRepo,
		catalogRepo: catalogRepo,
		snapshots:   snapshots,
	}
}

// detailsEditable reports whether line items may still change: only before
// the session is staffed, and only before the changes deadline once one is
// set.
func detailsEditable(session *models.Session, now time.Time) bool {
	switch session.Status {
	case models.StatusRequest, models.StatusNegotiation, models.StatusPreScheduled, models.StatusConfirmed:
	default:
		return false
	}
	if session.ChangesDeadline != nil && now.After(*session.ChangesDeadline) {
		return false
	}
	return true
}

// AddItem freezes a catalog row into a line item and recalculates the
// session's totals in the same transaction. Later catalog price changes
// never affect the frozen copy.
func (s *detailService) AddItem(ctx context.Context, sessionID uint, actor *auth.Identity, input AddItemInput) (*models.SessionDetail, error) {
	if !auth.Authorize(actor, PermSessionEditOwn, &auth.Ownership{OwnerIDs: []uint{actor.UserID}}) {
		return nil, ErrInsufficientPermission
	}
	if input.Quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", ErrInvalidPayload)
	}

	var detail *models.SessionDetail
	err := s.sessionRepo.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		session, err := s.sessionRepo.FindByIDForUpdate(ctx, tx, sessionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSessionNotFound
			}
			return repoErr(err)
		}
		if !detailsEditable(session, time.Now()) {
			return fmt.Errorf("%w: line items are frozen for %s sessions", ErrSessionNotEditable, session.Status)
		}

		item, err := s.catalogRepo.FindByID(ctx, input.CatalogItemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: catalog item %d", ErrMissingResource, input.CatalogItemID)
			}
			return repoErr(err)
		}
		if item.Status != models.ResourceActive {
			return fmt.Errorf("%w: catalog item %q is %s", ErrMissingResource, item.Name, item.Status)
		}

		refID := item.ID
		detail = &models.SessionDetail{
			SessionID:         sessionID,
			ReferenceID:       &refID,
			ReferenceType:     "catalog",
			ItemCode:          item.Code,
			ItemName:          item.Name,
			ItemDescription:   item.Description,
			Quantity:          input.Quantity,
			UnitPriceCents:    item.UnitPriceCents,
			LineSubtotalCents: item.UnitPriceCents * int64(input.Quantity),
			CreatedBy:         actor.UserID,
		}
		if err := s.detailRepo.Create(ctx, tx, detail); err != nil {
			return repoErr(err)
		}

		return s.recalculate(ctx, tx, session)
	})
	if err != nil {
		return nil, err
	}

	s.snapshots.Invalidate(ctx, sessionID)
	return detail, nil
}

func (s *detailService) RemoveDetail(ctx context.Context, sessionID, detailID uint, actor *auth.Identity) error {
	if !auth.Authorize(actor, PermSessionEditOwn, &auth.Ownership{OwnerIDs: []uint{actor.UserID}}) {
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
		if !detailsEditable(session, time.Now()) {
			return fmt.Errorf("%w: line items are frozen for %s sessions", ErrSessionNotEditable, session.Status)
		}

		detail, err := s.detailRepo.FindByID(ctx, tx, detailID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: detail %d", ErrMissingResource, detailID)
			}
			return repoErr(err)
		}
		if detail.SessionID != sessionID {
			return fmt.Errorf("%w: detail %d does not belong to session %d", ErrInvalidPayload, detailID, sessionID)
		}
		if err := s.detailRepo.Delete(ctx, tx, detailID); err != nil {
			return repoErr(err)
		}

		return s.recalculate(ctx, tx, session)
	})
	if err != nil {
		return err
	}

	s.snapshots.Invalidate(ctx, sessionID)
	return nil
}

func (s *detailService) ListDetails(ctx context.Context, sessionID uint) ([]models.SessionDetail, error) {
	details, err := s.detailRepo.ListBySession(ctx, nil, sessionID)
	if err != nil {
		return nil, repoErr(err)
	}
	return details, nil
}

// recalculate rereads the line items and payments inside tx and persists the
// derived totals on the session.
func (s *detailService) recalculate(ctx context.Context, tx *gorm.DB, session *models.Session) error {
	details, err := s.detailRepo.ListBySession(ctx, tx, session.ID)
	if err != nil {
		return repoErr(err)
	}
	payments, err := s.paymentRepo.ListBySession(ctx, tx, session.ID)
	if err != nil {
		return repoErr(err)
	}

	totals, err := ledger.Compute(details, payments, session.TransportCents, session.DiscountCents, session.DepositPercentage)
	if err != nil {
		if errors.Is(err, ledger.ErrNegativeTotal) {
			return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		return err
	}

	session.SubtotalCents = totals.SubtotalCents
	session.TotalCents = totals.TotalCents
	session.DepositCents = totals.DepositCents
	if err := s.sessionRepo.Save(ctx, tx, session); err != nil {
		return repoErr(err)
	}
	return nil
}
