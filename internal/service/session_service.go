package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/atelierfoto/session-service/config"
	"github.com/atelierfoto/session-service/internal/auth"
	"github.com/atelierfoto/session-service/internal/cache"
	"github.com/atelierfoto/session-service/internal/ledger"
	"github.com/atelierfoto/session-service/internal/models"
	"github.com/atelierfoto/session-service/internal/repository"
	"github.com/atelierfoto/session-service/pkg/rabbitmq"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TransitionRequest carries one requested status change. Initiator is only
// consulted for cancellations, where it drives the refund policy.
type TransitionRequest struct {
	Target    models.SessionStatus
	Reason    string
	Notes     string
	Initiator models.CancellationInitiator
}

type CreateSessionInput struct {
	ClientID             uint
	Kind                 models.SessionKind
	SessionDate          time.Time
	StartTime            time.Time
	EndTime              time.Time
	Location             string
	RoomID               *uint
	TransportCents       int64
	DiscountCents        int64
	DepositPercentage    *int
	EstimatedEditingDays *int
	ClientRequirements   string
}

type SessionService interface {
	CreateSession(ctx context.Context, actor *auth.Identity, input CreateSessionInput) (*models.Session, error)
	RequestTransition(ctx context.Context, sessionID uint, actor *auth.Identity, req *TransitionRequest) (*models.Session, error)
	CancelSession(ctx context.Context, sessionID uint, actor *auth.Identity, reason string, initiator models.CancellationInitiator, notes string) (*models.Session, error)
	AssignRoom(ctx context.Context, sessionID, roomID uint, actor *auth.Identity) (*models.Session, error)
	AssignEditor(ctx context.Context, sessionID, editorID uint, actor *auth.Identity) (*models.Session, error)
	GetSnapshot(ctx context.Context, sessionID uint) (*models.Session, error)
	ReplayHistory(ctx context.Context, sessionID uint) ([]models.SessionStatusHistory, error)
	ListSessions(ctx context.Context, actor *auth.Identity, filter repository.SessionFilter) ([]models.Session, error)
}

type transitionEdge struct {
	From models.SessionStatus
	To   models.SessionStatus
}

// guardFunc checks the preconditions of one edge inside the transition's
// transaction. Guards may adjust derived session fields (deadlines,
// timestamps); the caller persists the session afterwards. A guard failure
// rolls back the whole transaction.
type guardFunc func(ctx context.Context, tx *gorm.DB, session *models.Session, actor *auth.Identity, req *TransitionRequest) error

type sessionService struct {
	sessionRepo    repository.SessionRepository
	detailRepo     repository.DetailRepository
	assignmentRepo repository.AssignmentRepository
	paymentRepo    repository.PaymentRepository
	historyRepo    repository.HistoryRepository
	userRepo       repository.UserRepository
	checker        AvailabilityChecker
	refundPolicy   RefundPolicy
	cfg            *config.Config
	publisher      *rabbitmq.Publisher
	snapshots      *cache.SessionCache

	guards map[transitionEdge]guardFunc
}

func NewSessionService(
	sessionRepo repository.SessionRepository,
	detailRepo repository.DetailRepository,
	assignmentRepo repository.AssignmentRepository,
	paymentRepo repository.PaymentRepository,
	historyRepo repository.HistoryRepository,
	userRepo repository.UserRepository,
	checker AvailabilityChecker,
	refundPolicy RefundPolicy,
	cfg *config.Config,
	publisher *rabbitmq.Publisher,
	snapshots *cache.SessionCache,
) SessionService {
	s := &sessionService{
		sessionRepo:    sessionRepo,
		detailRepo:     detailRepo,
		assignmentRepo: assignmentRepo,
		paymentRepo:    paymentRepo,
		historyRepo:    historyRepo,
		userRepo:       userRepo,
		checker:        checker,
		refundPolicy:   refundPolicy,
		cfg:            cfg,
		publisher:      publisher,
		snapshots:      snapshots,
	}
	s.guards = s.buildGuardTable()
	return s
}

// buildGuardTable binds a guard to every edge of the adjacency table that
// carries preconditions beyond the base transition permission. Cancellation
// shares one guard across all of its source states.
func (s *sessionService) buildGuardTable() map[transitionEdge]guardFunc {
	guards := map[transitionEdge]guardFunc{
		{models.StatusRequest, models.StatusPreScheduled}:       s.guardPreSchedule,
		{models.StatusNegotiation, models.StatusPreScheduled}:   s.guardPreSchedule,
		{models.StatusPreScheduled, models.StatusConfirmed}:     s.guardConfirm,
		{models.StatusConfirmed, models.StatusAssigned}:         s.guardAssign,
		{models.StatusAssigned, models.StatusAttended}:          s.guardAttend,
		{models.StatusAttended, models.StatusInEditing}:         s.guardStartEditing,
		{models.StatusInEditing, models.StatusReadyForDelivery}: s.guardReadyForDelivery,
		{models.StatusReadyForDelivery, models.StatusCompleted}: s.guardComplete,
	}
	for _, from := range models.AllStatuses {
		if from.CanTransitionTo(models.StatusCanceled) {
			guards[transitionEdge{from, models.StatusCanceled}] = s.guardCancel
		}
	}
	return guards
}

// ==================== CreateSession ====================

func (s *sessionService) CreateSession(ctx context.Context, actor *auth.Identity, input CreateSessionInput) (*models.Session, error) {
	if !auth.Authorize(actor, PermSessionCreate, nil) {
		return nil, ErrInsufficientPermission
	}
	if err := validateCreateInput(&input); err != nil {
		return nil, err
	}

	depositPct := s.cfg.DefaultDepositPercentage
	if input.DepositPercentage != nil {
		depositPct = *input.DepositPercentage
	}
	if depositPct < 0 || depositPct > 100 {
		return nil, fmt.Errorf("%w: deposit percentage %d out of range", ErrInvalidPayload, depositPct)
	}
	editingDays := s.cfg.DefaultEditingDays
	if input.EstimatedEditingDays != nil {
		editingDays = *input.EstimatedEditingDays
	}

	session := &models.Session{
		Code:                 uuid.NewString(),
		ClientID:             input.ClientID,
		Kind:                 input.Kind,
		Status:               models.StatusRequest,
		SessionDate:          input.SessionDate,
		StartTime:            input.StartTime,
		EndTime:              input.EndTime,
		Location:             input.Location,
		RoomID:               input.RoomID,
		TransportCents:       input.TransportCents,
		DiscountCents:        input.DiscountCents,
		DepositPercentage:    depositPct,
		EstimatedEditingDays: editingDays,
		ClientRequirements:   input.ClientRequirements,
		CreatedBy:            actor.UserID,
	}

	err := s.sessionRepo.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.sessionRepo.Create(ctx, tx, session); err != nil {
			return repoErr(err)
		}
		return s.appendHistory(ctx, tx, session.ID, nil, models.StatusRequest, actor.UserID, "Session created", "")
	})
	if err != nil {
		return nil, err
	}

	if s.publisher != nil {
		_ = s.publisher.Publish(rabbitmq.KeySessionCreated, session)
	}
	return session, nil
}

func validateCreateInput(input *CreateSessionInput) error {
	if input.ClientID == 0 {
		return fmt.Errorf("%w: client_id is required", ErrInvalidPayload)
	}
	if input.SessionDate.IsZero() {
		return fmt.Errorf("%w: session_date is required", ErrInvalidPayload)
	}
	if !input.EndTime.After(input.StartTime) {
		return fmt.Errorf("%w: end_time must be after start_time", ErrInvalidPayload)
	}
	if input.TransportCents < 0 || input.DiscountCents < 0 {
		return fmt.Errorf("%w: negative amounts are not allowed", ErrInvalidPayload)
	}
	switch input.Kind {
	case models.KindStudio:
		if input.Location != "" {
			return fmt.Errorf("%w: studio sessions must not carry a location", ErrInvalidPayload)
		}
	case models.KindExternal:
		if input.RoomID != nil {
			return fmt.Errorf("%w: external sessions must not carry a room", ErrInvalidPayload)
		}
		if input.Location == "" {
			return fmt.Errorf("%w: external sessions require a location", ErrInvalidPayload)
		}
	default:
		return fmt.Errorf("%w: unknown session kind %q", ErrInvalidPayload, input.Kind)
	}
	return nil
}

// ==================== RequestTransition ====================

// guardAuthorizesActor reports whether the guard on edges into target
// performs its own actor check. Staffing, attendance, editing, delivery and
// cancellation are driven by the involved party (assigned photographer,
// assigned editor, cancel capability), so the blanket transition permission
// is not required for them.
func guardAuthorizesActor(target models.SessionStatus) bool {
	switch target {
	case models.StatusAssigned, models.StatusAttended, models.StatusInEditing,
		models.StatusReadyForDelivery, models.StatusCanceled:
		return true
	}
	return false
}

// RequestTransition drives the lifecycle state machine. The session row is
// locked for the duration of the transaction, so concurrent requests against
// the same session are linearized: the loser observes the winner's status.
// Status update and history append commit as one unit.
func (s *sessionService) RequestTransition(ctx context.Context, sessionID uint, actor *auth.Identity, req *TransitionRequest) (*models.Session, error) {
	if req == nil || !req.Target.Valid() {
		return nil, fmt.Errorf("%w: unknown target status", ErrInvalidPayload)
	}
	if !guardAuthorizesActor(req.Target) && !auth.Authorize(actor, PermSessionTransition, nil) {
		return nil, ErrInsufficientPermission
	}

	var result *models.Session
	err := s.sessionRepo.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		session, err := s.sessionRepo.FindByIDForUpdate(ctx, tx, sessionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSessionNotFound
			}
			return repoErr(err)
		}

		// Re-entrant request: same target as current status is an
		// idempotent no-op, no history row.
		if session.Status == req.Target {
			result = session
			return nil
		}

		if !session.Status.CanTransitionTo(req.Target) {
			return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, session.Status, req.Target)
		}

		if guard, ok := s.guards[transitionEdge{session.Status, req.Target}]; ok {
			if err := guard(ctx, tx, session, actor, req); err != nil {
				return err
			}
		}

		from := session.Status
		session.Status = req.Target
		if err := s.sessionRepo.Save(ctx, tx, session); err != nil {
			return repoErr(err)
		}
		if err := s.appendHistory(ctx, tx, session.ID, &from, req.Target, actor.UserID, req.Reason, req.Notes); err != nil {
			return err
		}

		result = session
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.snapshots.Invalidate(ctx, sessionID)
	if s.publisher != nil {
		_ = s.publisher.Publish(rabbitmq.KeyStatusChanged, map[string]any{
			"session_id": result.ID,
			"code":       result.Code,
			"status":     result.Status,
			"actor_id":   actor.UserID,
		})
	}
	return result, nil
}

func (s *sessionService) CancelSession(ctx context.Context, sessionID uint, actor *auth.Identity, reason string, initiator models.CancellationInitiator, notes string) (*models.Session, error) {
	return s.RequestTransition(ctx, sessionID, actor, &TransitionRequest{
		Target:    models.StatusCanceled,
		Reason:    reason,
		Notes:     notes,
		Initiator: initiator,
	})
}

// ==================== Guards ====================

func (s *sessionService) guardPreSchedule(ctx context.Context, tx *gorm.DB, session *models.Session, actor *auth.Identity, req *TransitionRequest) error {
	if session.SessionDate.IsZero() || session.StartTime.IsZero() || session.EndTime.IsZero() {
		return fmt.Errorf("%w: date and time must be set before scheduling", ErrMissingResource)
	}
	if session.Kind == models.KindStudio && session.RoomID == nil {
		return fmt.Errorf("%w: studio session requires a room", ErrMissingResource)
	}
	if session.Kind == models.KindExternal && session.Location == "" {
		return fmt.Errorf("%w: external session requires a location", ErrMissingResource)
	}

	paymentDeadline := time.Now().AddDate(0, 0, s.cfg.PaymentDeadlineDays)
	changesDeadline := session.SessionDate.AddDate(0, 0, -s.cfg.ChangesDeadlineDays)
	session.PaymentDeadline = &paymentDeadline
	session.ChangesDeadline = &changesDeadline
	return nil
}

func (s *sessionService) guardConfirm(ctx context.Context, tx *gorm.DB, session *models.Session, actor *auth.Identity, req *TransitionRequest) error {
	if auth.Authorize(actor, PermSessionOverride, nil) {
		return nil
	}
	payments, err := s.paymentRepo.ListBySession(ctx, tx, session.ID)
	if err != nil {
		return repoErr(err)
	}
	if ledger.VerifiedPaid(payments, models.PaymentDeposit) < session.DepositCents {
		return fmt.Errorf("%w: verified deposit below %d cents", ErrUnpaidBalance, session.DepositCents)
	}
	return nil
}

// guardAssign re-validates availability defensively: assignments passed the
// checker when they were created, but a racing booking may have landed
// since. The room and photographer row locks taken here serialize against
// any in-flight assignment for the same resources.
func (s *sessionService) guardAssign(ctx context.Context, tx *gorm.DB, session *models.Session, actor *auth.Identity, req *TransitionRequest) error {
	if !auth.Authorize(actor, PermSessionTransition, nil) && !auth.Authorize(actor, PermSessionAssign, nil) {
		return ErrInsufficientPermission
	}
	assignments, err := s.assignmentRepo.ListBySession(ctx, tx, session.ID)
	if err != nil {
		return repoErr(err)
	}
	if len(assignments) == 0 {
		return fmt.Errorf("%w: no photographer assigned", ErrMissingResource)
	}
	if session.Kind == models.KindStudio {
		if session.RoomID == nil {
			return fmt.Errorf("%w: studio session requires a room", ErrMissingResource)
		}
		if err := s.checker.CheckRoomTx(ctx, tx, *session.RoomID, session.SessionDate, session.StartTime, session.EndTime, session.ID); err != nil {
			return err
		}
	}
	for _, a := range assignments {
		if err := s.checker.CheckPhotographerTx(ctx, tx, a.PhotographerID, session.SessionDate, a.CoverageStart, a.CoverageEnd, session.ID); err != nil {
			return err
		}
	}
	return nil
}

// guardAttend accepts the assigned photographers themselves; staff need the
// transition or all-scope edit capability.
func (s *sessionService) guardAttend(ctx context.Context, tx *gorm.DB, session *models.Session, actor *auth.Identity, req *TransitionRequest) error {
	if auth.Authorize(actor, PermSessionTransition, nil) || auth.Authorize(actor, PermSessionEditAll, nil) {
		return nil
	}
	assignments, err := s.assignmentRepo.ListBySession(ctx, tx, session.ID)
	if err != nil {
		return repoErr(err)
	}
	for _, a := range assignments {
		if a.PhotographerID == actor.UserID {
			return nil
		}
	}
	return fmt.Errorf("%w: only an assigned photographer may mark attendance", ErrInsufficientPermission)
}

func (s *sessionService) guardStartEditing(ctx context.Context, tx *gorm.DB, session *models.Session, actor *auth.Identity, req *TransitionRequest) error {
	if session.EditorID == nil {
		if s.cfg.EditorSelfAssign && actor.HasRole(models.EditorRoleName) {
			editorID := actor.UserID
			session.EditorID = &editorID
		} else {
			return fmt.Errorf("%w: no editor assigned", ErrMissingResource)
		}
	} else if *session.EditorID != actor.UserID &&
		!auth.Authorize(actor, PermSessionTransition, nil) &&
		!auth.Authorize(actor, PermSessionAssign, nil) {
		return fmt.Errorf("%w: only the assigned editor may start editing", ErrInsufficientPermission)
	}

	deliveryDate := time.Now().AddDate(0, 0, s.editingDays(session))
	session.DeliveryDate = &deliveryDate
	if session.EditingStartedAt == nil {
		now := time.Now()
		session.EditingStartedAt = &now
	}
	return nil
}

func (s *sessionService) guardReadyForDelivery(ctx context.Context, tx *gorm.DB, session *models.Session, actor *auth.Identity, req *TransitionRequest) error {
	isAssignedEditor := session.EditorID != nil && *session.EditorID == actor.UserID
	if !isAssignedEditor &&
		!auth.Authorize(actor, PermSessionTransition, nil) &&
		!auth.Authorize(actor, PermSessionEditAll, nil) {
		return fmt.Errorf("%w: only the assigned editor may mark ready for delivery", ErrInsufficientPermission)
	}
	if session.EditingCompletedAt == nil {
		now := time.Now()
		session.EditingCompletedAt = &now
	}
	return nil
}

func (s *sessionService) guardComplete(ctx context.Context, tx *gorm.DB, session *models.Session, actor *auth.Identity, req *TransitionRequest) error {
	if !auth.Authorize(actor, PermSessionOverride, nil) {
		payments, err := s.paymentRepo.ListBySession(ctx, tx, session.ID)
		if err != nil {
			return repoErr(err)
		}
		if ledger.NetPaid(payments) < session.TotalCents {
			return fmt.Errorf("%w: verified payments below total %d cents", ErrUnpaidBalance, session.TotalCents)
		}
	}
	if session.DeliveredAt == nil {
		now := time.Now()
		session.DeliveredAt = &now
	}
	return nil
}

// guardCancel evaluates the refund policy and records the refund inside the
// cancellation transaction. A policy error blocks the cancellation.
func (s *sessionService) guardCancel(ctx context.Context, tx *gorm.DB, session *models.Session, actor *auth.Identity, req *TransitionRequest) error {
	if !auth.Authorize(actor, PermSessionCancel, nil) {
		return ErrInsufficientPermission
	}
	if req.Reason == "" {
		return fmt.Errorf("%w: cancellation requires a reason", ErrInvalidPayload)
	}
	initiator := req.Initiator
	if initiator == "" {
		initiator = models.InitiatorStudio
	}

	payments, err := s.paymentRepo.ListBySession(ctx, tx, session.ID)
	if err != nil {
		return repoErr(err)
	}
	refund, err := s.refundPolicy(session.Status, initiator, ledger.NetPaid(payments))
	if err != nil {
		return err
	}
	if refund > 0 {
		now := time.Now()
		payment := &models.SessionPayment{
			SessionID:   session.ID,
			Type:        models.PaymentRefund,
			Method:      "Refund",
			AmountCents: refund,
			PaymentDate: now,
			Verified:    true,
			VerifiedBy:  &actor.UserID,
			VerifiedAt:  &now,
			Notes:       fmt.Sprintf("Refund for cancellation initiated by %s", initiator),
			CreatedBy:   actor.UserID,
		}
		if err := s.paymentRepo.Create(ctx, tx, payment); err != nil {
			return repoErr(err)
		}
	}

	now := time.Now()
	session.CancellationReason = req.Reason
	session.CanceledAt = &now
	canceledBy := actor.UserID
	session.CanceledBy = &canceledBy
	return nil
}

// ==================== Resource assignment on the session ====================

// AssignRoom books a room for a studio session. The availability check and
// the write share the transaction and the room row lock, so two concurrent
// requests for the same slot cannot both succeed.
func (s *sessionService) AssignRoom(ctx context.Context, sessionID, roomID uint, actor *auth.Identity) (*models.Session, error) {
	if !auth.Authorize(actor, PermSessionAssign, nil) {
		return nil, ErrInsufficientPermission
	}

	var result *models.Session
	err := s.sessionRepo.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		session, err := s.sessionRepo.FindByIDForUpdate(ctx, tx, sessionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSessionNotFound
			}
			return repoErr(err)
		}
		if session.Kind != models.KindStudio {
			return fmt.Errorf("%w: only studio sessions use rooms", ErrInvalidPayload)
		}
		if session.Status.IsTerminal() || session.Status == models.StatusAttended ||
			session.Status == models.StatusInEditing || session.Status == models.StatusReadyForDelivery {
			return fmt.Errorf("%w: room cannot change after attendance", ErrSessionNotEditable)
		}

		if err := s.checker.CheckRoomTx(ctx, tx, roomID, session.SessionDate, session.StartTime, session.EndTime, session.ID); err != nil {
			return err
		}

		session.RoomID = &roomID
		if err := s.sessionRepo.Save(ctx, tx, session); err != nil {
			return repoErr(err)
		}
		result = session
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.snapshots.Invalidate(ctx, sessionID)
	return result, nil
}

// AssignEditor sets the session's editor. Assigning an editor to an
// attended session immediately starts the editing phase.
func (s *sessionService) AssignEditor(ctx context.Context, sessionID, editorID uint, actor *auth.Identity) (*models.Session, error) {
	if !auth.Authorize(actor, PermSessionAssign, nil) {
		return nil, ErrInsufficientPermission
	}

	var result *models.Session
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
		editor, err := s.userRepo.FindByIDForUpdate(ctx, tx, editorID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: editor %d", ErrMissingResource, editorID)
			}
			return repoErr(err)
		}
		if editor.Status != models.ResourceActive {
			return fmt.Errorf("%w: editor %q is %s", ErrMissingResource, editor.Name, editor.Status)
		}

		session.EditorID = &editorID
		if err := s.sessionRepo.Save(ctx, tx, session); err != nil {
			return repoErr(err)
		}
		result = session
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.snapshots.Invalidate(ctx, sessionID)

	// Editor assignment on an attended session starts editing right away.
	if result.Status == models.StatusAttended {
		return s.RequestTransition(ctx, sessionID, actor, &TransitionRequest{
			Target: models.StatusInEditing,
			Reason: "Editor assigned to session",
		})
	}
	return result, nil
}

// ==================== Reads ====================

func (s *sessionService) GetSnapshot(ctx context.Context, sessionID uint) (*models.Session, error) {
	if cached, ok := s.snapshots.Get(ctx, sessionID); ok {
		return cached, nil
	}

	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, repoErr(err)
	}
	if session.Details, err = s.detailRepo.ListBySession(ctx, nil, sessionID); err != nil {
		return nil, repoErr(err)
	}
	if session.Photographers, err = s.assignmentRepo.ListBySession(ctx, nil, sessionID); err != nil {
		return nil, repoErr(err)
	}
	if session.Payments, err = s.paymentRepo.ListBySession(ctx, nil, sessionID); err != nil {
		return nil, repoErr(err)
	}

	s.snapshots.Set(ctx, session)
	return session, nil
}

func (s *sessionService) ReplayHistory(ctx context.Context, sessionID uint) ([]models.SessionStatusHistory, error) {
	if _, err := s.sessionRepo.FindByID(ctx, sessionID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, repoErr(err)
	}
	entries, err := s.historyRepo.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, repoErr(err)
	}
	return entries, nil
}

// ListSessions applies view scoping: holders of the all-scope see
// everything, own-scope holders are pinned to their own assignments.
func (s *sessionService) ListSessions(ctx context.Context, actor *auth.Identity, filter repository.SessionFilter) ([]models.Session, error) {
	switch {
	case auth.Authorize(actor, PermSessionViewAll, nil):
		// unrestricted
	case auth.Authorize(actor, PermSessionViewOwn, &auth.Ownership{OwnerIDs: []uint{actor.UserID}}):
		if actor.HasRole(models.EditorRoleName) {
			filter.EditorID = actor.UserID
			filter.PhotographerID = 0
		} else {
			filter.PhotographerID = actor.UserID
			filter.EditorID = 0
		}
	default:
		return nil, ErrInsufficientPermission
	}

	sessions, err := s.sessionRepo.List(ctx, filter)
	if err != nil {
		return nil, repoErr(err)
	}
	return sessions, nil
}

// ==================== Helpers ====================

func (s *sessionService) editingDays(session *models.Session) int {
	if session.EstimatedEditingDays > 0 {
		return session.EstimatedEditingDays
	}
	return s.cfg.DefaultEditingDays
}

func (s *sessionService) appendHistory(ctx context.Context, tx *gorm.DB, sessionID uint, from *models.SessionStatus, to models.SessionStatus, changedBy uint, reason, notes string) error {
	entry := &models.SessionStatusHistory{
		SessionID:  sessionID,
		FromStatus: from,
		ToStatus:   to,
		Reason:     reason,
		Notes:      notes,
		ChangedBy:  changedBy,
	}
	if err := s.historyRepo.Append(ctx, tx, entry); err != nil {
		return repoErr(err)
	}
	return nil
}

// ReplayStatus folds an ordered history into the status it reconstructs.
// The second return is false for an empty history.
func ReplayStatus(entries []models.SessionStatusHistory) (models.SessionStatus, bool) {
	if len(entries) == 0 {
		return "", false
	}
	return entries[len(entries)-1].ToStatus, true
}
