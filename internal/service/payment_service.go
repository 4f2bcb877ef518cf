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
	"github.com/atelierfoto/session-service/pkg/rabbitmq"
	"gorm.io/gorm"
)

type RecordPaymentInput struct {
	Type        models.PaymentType
	Method      string
	AmountCents int64
	PaymentDate time.Time
	Reference   string
	Notes       string
}

type PaymentService interface {
	RecordPayment(ctx context.Context, sessionID uint, actor *auth.Identity, input RecordPaymentInput) (*models.SessionPayment, error)
	VerifyPayment(ctx context.Context, paymentID uint, actor *auth.Identity) (*models.SessionPayment, error)
	ListPayments(ctx context.Context, sessionID uint) ([]models.SessionPayment, error)
	Totals(ctx context.Context, sessionID uint) (ledger.Totals, error)
}

type paymentService struct {
	sessionRepo repository.SessionRepository
	paymentRepo repository.PaymentRepository
	detailRepo  repository.DetailRepository
	publisher   *rabbitmq.Publisher
	snapshots   *cache.SessionCache
}

func NewPaymentService(
	sessionRepo repository.SessionRepository,
	paymentRepo repository.PaymentRepository,
	detailRepo repository.DetailRepository,
	publisher *rabbitmq.Publisher,
	snapshots *cache.SessionCache,
) PaymentService {
	return &paymentService{
		sessionRepo: sessionRepo,
		paymentRepo: paymentRepo,
		detailRepo:  detailRepo,
		publisher:   publisher,
		snapshots:   snapshots,
	}
}

// RecordPayment appends an unverified deposit or balance payment. Refunds
// are never recorded directly; they are produced by the cancellation path.
// A payment that would push net verified+pending receipts above the session
// total is rejected.
func (s *paymentService) RecordPayment(ctx context.Context, sessionID uint, actor *auth.Identity, input RecordPaymentInput) (*models.SessionPayment, error) {
	if !auth.Authorize(actor, PermPaymentRecord, nil) {
		return nil, ErrInsufficientPermission
	}
	if input.Type != models.PaymentDeposit && input.Type != models.PaymentBalance {
		return nil, fmt.Errorf("%w: only deposit and balance payments may be recorded", ErrInvalidPayload)
	}
	if input.AmountCents <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidPayload)
	}
	if input.Method == "" {
		return nil, fmt.Errorf("%w: payment method is required", ErrInvalidPayload)
	}
	paymentDate := input.PaymentDate
	if paymentDate.IsZero() {
		paymentDate = time.Now()
	}

	var payment *models.SessionPayment
	err := s.sessionRepo.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		session, err := s.sessionRepo.FindByIDForUpdate(ctx, tx, sessionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSessionNotFound
			}
			return repoErr(err)
		}
		if session.Status.IsTerminal() {
			return fmt.Errorf("%w: session is %s", ErrSessionNotEditable, session.Status)
		}

		payments, err := s.paymentRepo.ListBySession(ctx, tx, sessionID)
		if err != nil {
			return repoErr(err)
		}
		var pending int64
		for _, p := range payments {
			if !p.Verified && p.Type != models.PaymentRefund {
				pending += p.AmountCents
			}
		}
		if session.TotalCents > 0 && ledger.NetPaid(payments)+pending+input.AmountCents > session.TotalCents {
			return fmt.Errorf("%w: payment of %d cents exceeds outstanding balance", ErrInvalidPayload, input.AmountCents)
		}

		payment = &models.SessionPayment{
			SessionID:   sessionID,
			Type:        input.Type,
			Method:      input.Method,
			AmountCents: input.AmountCents,
			PaymentDate: paymentDate,
			Reference:   input.Reference,
			Notes:       input.Notes,
			CreatedBy:   actor.UserID,
		}
		if err := s.paymentRepo.Create(ctx, tx, payment); err != nil {
			return repoErr(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.snapshots.Invalidate(ctx, sessionID)
	if s.publisher != nil {
		_ = s.publisher.Publish(rabbitmq.KeyPaymentRecorded, payment)
	}
	return payment, nil
}

// VerifyPayment marks a recorded payment verified. Verifying an already
// verified payment is a no-op.
func (s *paymentService) VerifyPayment(ctx context.Context, paymentID uint, actor *auth.Identity) (*models.SessionPayment, error) {
	if !auth.Authorize(actor, PermPaymentVerify, nil) {
		return nil, ErrInsufficientPermission
	}

	var payment *models.SessionPayment
	err := s.sessionRepo.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := s.paymentRepo.FindByID(ctx, tx, paymentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPaymentNotFound
			}
			return repoErr(err)
		}
		if p.Verified {
			payment = p
			return nil
		}

		now := time.Now()
		if err := s.paymentRepo.MarkVerified(ctx, tx, p.ID, actor.UserID, now); err != nil {
			return repoErr(err)
		}
		p.Verified = true
		verifiedBy := actor.UserID
		p.VerifiedBy = &verifiedBy
		p.VerifiedAt = &now
		payment = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.snapshots.Invalidate(ctx, payment.SessionID)
	return payment, nil
}

func (s *paymentService) ListPayments(ctx context.Context, sessionID uint) ([]models.SessionPayment, error) {
	payments, err := s.paymentRepo.ListBySession(ctx, nil, sessionID)
	if err != nil {
		return nil, repoErr(err)
	}
	return payments, nil
}

// Totals recomputes the derived financial view from the stored line items
// and payments.
func (s *paymentService) Totals(ctx context.Context, sessionID uint) (ledger.Totals, error) {
	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ledger.Totals{}, ErrSessionNotFound
		}
		return ledger.Totals{}, repoErr(err)
	}
	details, err := s.detailRepo.ListBySession(ctx, nil, sessionID)
	if err != nil {
		return ledger.Totals{}, repoErr(err)
	}
	payments, err := s.paymentRepo.ListBySession(ctx, nil, sessionID)
	if err != nil {
		return ledger.Totals{}, repoErr(err)
	}
	totals, err := ledger.Compute(details, payments, session.TransportCents, session.DiscountCents, session.DepositPercentage)
	if err != nil {
		return ledger.Totals{}, err
	}
	return totals, nil
}
