//go:build integration

package integration

import (
	"sync"
	"testing"
	"time"

	"github.com/atelierfoto/session-service/internal/models"
	"github.com/atelierfoto/session-service/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Walks an external session through the whole pipeline: request, schedule,
// confirm on verified deposit, staff, attend, edit, deliver, complete.
func TestFullLifecycle(t *testing.T) {
	cleanTables()
	svcs := newServices()
	admin := adminIdentity(t)
	coordinator := staffIdentity(t, "coordinator", service.PermSessionTransition)
	photographer := createUser(t, "photographer", models.PhotographerRoleName)
	editor := createUser(t, "editor", models.EditorRoleName)
	item := createCatalogItem(t, "PKG-WEDDING", 100000)

	start, end := slot(10, 12)
	session, err := svcs.sessions.CreateSession(t.Context(), admin, service.CreateSessionInput{
		ClientID:    1,
		Kind:        models.KindExternal,
		SessionDate: testDay,
		StartTime:   start,
		EndTime:     end,
		Location:    "Riverside park",
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusRequest, session.Status)
	assert.NotEmpty(t, session.Code)

	_, err = svcs.details.AddItem(t.Context(), session.ID, admin, service.AddItemInput{
		CatalogItemID: item.ID,
		Quantity:      1,
	})
	require.NoError(t, err)

	session, err = svcs.sessions.GetSnapshot(t.Context(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(100000), session.TotalCents)
	assert.Equal(t, int64(50000), session.DepositCents)

	// Request → Pre-scheduled sets the deadlines.
	session, err = svcs.sessions.RequestTransition(t.Context(), session.ID, admin, &service.TransitionRequest{
		Target: models.StatusPreScheduled,
		Reason: "Date agreed with client",
	})
	require.NoError(t, err)
	require.NotNil(t, session.PaymentDeadline)
	require.NotNil(t, session.ChangesDeadline)
	assert.Equal(t, testDay.AddDate(0, 0, -7), session.ChangesDeadline.UTC())

	// Deposit paid and verified, then confirm.
	payment, err := svcs.payments.RecordPayment(t.Context(), session.ID, admin, service.RecordPaymentInput{
		Type:        models.PaymentDeposit,
		Method:      "Bank transfer",
		AmountCents: 50000,
	})
	require.NoError(t, err)
	assert.False(t, payment.Verified)
	_, err = svcs.payments.VerifyPayment(t.Context(), payment.ID, admin)
	require.NoError(t, err)

	session, err = svcs.sessions.RequestTransition(t.Context(), session.ID, coordinator, &service.TransitionRequest{
		Target: models.StatusConfirmed,
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, session.Status)

	// Staffing a confirmed session advances it to Assigned.
	_, err = svcs.assignments.AssignPhotographer(t.Context(), session.ID, admin, service.AssignPhotographerInput{
		PhotographerID: photographer.ID,
		Role:           models.RoleLead,
		CoverageStart:  start.Add(-time.Hour),
		CoverageEnd:    end.Add(time.Hour),
	})
	require.NoError(t, err)

	session, err = svcs.sessions.GetSnapshot(t.Context(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAssigned, session.Status)

	// Last photographer attending advances the session.
	require.NoError(t, svcs.assignments.MarkAttended(t.Context(), session.ID, photographer.ID, identityFor(photographer)))
	session, err = svcs.sessions.GetSnapshot(t.Context(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAttended, session.Status)

	// Assigning an editor to an attended session starts editing.
	session, err = svcs.sessions.AssignEditor(t.Context(), session.ID, editor.ID, admin)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInEditing, session.Status)
	require.NotNil(t, session.DeliveryDate)
	require.NotNil(t, session.EditingStartedAt)

	session, err = svcs.sessions.RequestTransition(t.Context(), session.ID, identityFor(editor), &service.TransitionRequest{
		Target: models.StatusReadyForDelivery,
	})
	require.NoError(t, err)
	require.NotNil(t, session.EditingCompletedAt)

	// Completion is gated on the full balance. Admins hold the override,
	// so the gate is exercised with the coordinator.
	_, err = svcs.sessions.RequestTransition(t.Context(), session.ID, coordinator, &service.TransitionRequest{
		Target: models.StatusCompleted,
	})
	assert.ErrorIs(t, err, service.ErrUnpaidBalance)

	balance, err := svcs.payments.RecordPayment(t.Context(), session.ID, admin, service.RecordPaymentInput{
		Type:        models.PaymentBalance,
		Method:      "Cash",
		AmountCents: 50000,
	})
	require.NoError(t, err)
	_, err = svcs.payments.VerifyPayment(t.Context(), balance.ID, admin)
	require.NoError(t, err)

	session, err = svcs.sessions.RequestTransition(t.Context(), session.ID, coordinator, &service.TransitionRequest{
		Target: models.StatusCompleted,
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, session.Status)
	require.NotNil(t, session.DeliveredAt)

	// Replaying the audit log reconstructs the final status.
	entries, err := svcs.sessions.ReplayHistory(t.Context(), session.ID)
	require.NoError(t, err)
	replayed, ok := service.ReplayStatus(entries)
	require.True(t, ok)
	assert.Equal(t, models.StatusCompleted, replayed)
	assert.Nil(t, entries[0].FromStatus)
}

// The deposit gate binds everyone below the override: confirmation stays
// refused until a verified deposit covers the required amount.
func TestConfirmRequiresVerifiedDeposit(t *testing.T) {
	cleanTables()
	svcs := newServices()
	admin := adminIdentity(t)
	coordinator := staffIdentity(t, "coordinator", service.PermSessionTransition)
	item := createCatalogItem(t, "PKG-PORTRAIT", 100000)

	start, end := slot(9, 11)
	session, err := svcs.sessions.CreateSession(t.Context(), admin, service.CreateSessionInput{
		ClientID:    2,
		Kind:        models.KindExternal,
		SessionDate: testDay,
		StartTime:   start,
		EndTime:     end,
		Location:    "Old town",
	})
	require.NoError(t, err)

	_, err = svcs.details.AddItem(t.Context(), session.ID, admin, service.AddItemInput{CatalogItemID: item.ID, Quantity: 1})
	require.NoError(t, err)

	_, err = svcs.sessions.RequestTransition(t.Context(), session.ID, admin, &service.TransitionRequest{Target: models.StatusPreScheduled})
	require.NoError(t, err)

	// Unverified deposit does not count.
	payment, err := svcs.payments.RecordPayment(t.Context(), session.ID, admin, service.RecordPaymentInput{
		Type: models.PaymentDeposit, Method: "Bank transfer", AmountCents: 50000,
	})
	require.NoError(t, err)

	_, err = svcs.sessions.RequestTransition(t.Context(), session.ID, coordinator, &service.TransitionRequest{Target: models.StatusConfirmed})
	assert.ErrorIs(t, err, service.ErrUnpaidBalance)

	_, err = svcs.payments.VerifyPayment(t.Context(), payment.ID, admin)
	require.NoError(t, err)

	session, err = svcs.sessions.RequestTransition(t.Context(), session.ID, coordinator, &service.TransitionRequest{Target: models.StatusConfirmed})
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, session.Status)
}

// Admins carry the override and may confirm without any deposit on file.
func TestAdminOverrideSkipsDepositGate(t *testing.T) {
	cleanTables()
	svcs := newServices()
	admin := adminIdentity(t)
	item := createCatalogItem(t, "PKG-CORPORATE", 60000)

	start, end := slot(16, 18)
	session, err := svcs.sessions.CreateSession(t.Context(), admin, service.CreateSessionInput{
		ClientID:    2,
		Kind:        models.KindExternal,
		SessionDate: testDay,
		StartTime:   start,
		EndTime:     end,
		Location:    "Office campus",
	})
	require.NoError(t, err)
	_, err = svcs.details.AddItem(t.Context(), session.ID, admin, service.AddItemInput{CatalogItemID: item.ID, Quantity: 1})
	require.NoError(t, err)
	_, err = svcs.sessions.RequestTransition(t.Context(), session.ID, admin, &service.TransitionRequest{Target: models.StatusPreScheduled})
	require.NoError(t, err)

	session, err = svcs.sessions.RequestTransition(t.Context(), session.ID, admin, &service.TransitionRequest{Target: models.StatusConfirmed})
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, session.Status)
}

func TestIllegalTransitionRejected(t *testing.T) {
	cleanTables()
	svcs := newServices()
	admin := adminIdentity(t)

	start, end := slot(14, 16)
	session, err := svcs.sessions.CreateSession(t.Context(), admin, service.CreateSessionInput{
		ClientID:    3,
		Kind:        models.KindExternal,
		SessionDate: testDay,
		StartTime:   start,
		EndTime:     end,
		Location:    "Beach",
	})
	require.NoError(t, err)

	_, err = svcs.sessions.RequestTransition(t.Context(), session.ID, admin, &service.TransitionRequest{Target: models.StatusCompleted})
	assert.ErrorIs(t, err, service.ErrIllegalTransition)

	// The failed attempt leaves no trace in the audit log.
	entries, err := svcs.sessions.ReplayHistory(t.Context(), session.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

// Concurrent identical transitions: the row lock linearizes them, the losers
// observe the new status and no-op. Exactly one history row is appended.
func TestConcurrentSameTransition(t *testing.T) {
	cleanTables()
	svcs := newServices()
	admin := adminIdentity(t)

	start, end := slot(10, 12)
	session, err := svcs.sessions.CreateSession(t.Context(), admin, service.CreateSessionInput{
		ClientID:    4,
		Kind:        models.KindExternal,
		SessionDate: testDay,
		StartTime:   start,
		EndTime:     end,
		Location:    "Studio annex",
	})
	require.NoError(t, err)

	const workers = 8
	var wg sync.WaitGroup
	wg.Add(workers)
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			_, err := svcs.sessions.RequestTransition(t.Context(), session.ID, admin, &service.TransitionRequest{
				Target: models.StatusPreScheduled,
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}

	var count int64
	testDB.Model(&models.SessionStatusHistory{}).
		Where("session_id = ? AND to_status = ?", session.ID, models.StatusPreScheduled).
		Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestClientCancellationRefund(t *testing.T) {
	cleanTables()
	svcs := newServices()
	admin := adminIdentity(t)
	item := createCatalogItem(t, "PKG-FAMILY", 100000)

	start, end := slot(13, 15)
	session, err := svcs.sessions.CreateSession(t.Context(), admin, service.CreateSessionInput{
		ClientID:    5,
		Kind:        models.KindExternal,
		SessionDate: testDay,
		StartTime:   start,
		EndTime:     end,
		Location:    "Botanical garden",
	})
	require.NoError(t, err)
	_, err = svcs.details.AddItem(t.Context(), session.ID, admin, service.AddItemInput{CatalogItemID: item.ID, Quantity: 1})
	require.NoError(t, err)
	_, err = svcs.sessions.RequestTransition(t.Context(), session.ID, admin, &service.TransitionRequest{Target: models.StatusPreScheduled})
	require.NoError(t, err)

	payment, err := svcs.payments.RecordPayment(t.Context(), session.ID, admin, service.RecordPaymentInput{
		Type: models.PaymentDeposit, Method: "Bank transfer", AmountCents: 50000,
	})
	require.NoError(t, err)
	_, err = svcs.payments.VerifyPayment(t.Context(), payment.ID, admin)
	require.NoError(t, err)

	// Client cancels while Pre-scheduled: half the net paid comes back.
	session, err = svcs.sessions.CancelSession(t.Context(), session.ID, admin, "Client changed plans", models.InitiatorClient, "")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCanceled, session.Status)
	assert.Equal(t, "Client changed plans", session.CancellationReason)
	require.NotNil(t, session.CanceledAt)

	payments, err := svcs.payments.ListPayments(t.Context(), session.ID)
	require.NoError(t, err)
	var refund *models.SessionPayment
	for i := range payments {
		if payments[i].Type == models.PaymentRefund {
			refund = &payments[i]
		}
	}
	require.NotNil(t, refund)
	assert.Equal(t, int64(25000), refund.AmountCents)
	assert.True(t, refund.Verified)

	// Terminal: nothing moves out of Canceled.
	_, err = svcs.sessions.RequestTransition(t.Context(), session.ID, admin, &service.TransitionRequest{Target: models.StatusRequest})
	assert.ErrorIs(t, err, service.ErrIllegalTransition)
}

func TestCancellationRequiresReason(t *testing.T) {
	cleanTables()
	svcs := newServices()
	admin := adminIdentity(t)

	start, end := slot(9, 10)
	session, err := svcs.sessions.CreateSession(t.Context(), admin, service.CreateSessionInput{
		ClientID:    6,
		Kind:        models.KindExternal,
		SessionDate: testDay,
		StartTime:   start,
		EndTime:     end,
		Location:    "Harbor",
	})
	require.NoError(t, err)

	_, err = svcs.sessions.CancelSession(t.Context(), session.ID, admin, "", models.InitiatorClient, "")
	assert.ErrorIs(t, err, service.ErrInvalidPayload)
}

func TestLineItemsFrozenAfterConfirmedWindow(t *testing.T) {
	cleanTables()
	svcs := newServices()
	admin := adminIdentity(t)
	item := createCatalogItem(t, "ADDON-ALBUM", 20000)
	photographer := createUser(t, "photographer", models.PhotographerRoleName)

	start, end := slot(10, 12)
	session, err := svcs.sessions.CreateSession(t.Context(), admin, service.CreateSessionInput{
		ClientID:    7,
		Kind:        models.KindExternal,
		SessionDate: testDay,
		StartTime:   start,
		EndTime:     end,
		Location:    "City hall",
	})
	require.NoError(t, err)
	_, err = svcs.details.AddItem(t.Context(), session.ID, admin, service.AddItemInput{CatalogItemID: item.ID, Quantity: 1})
	require.NoError(t, err)
	_, err = svcs.sessions.RequestTransition(t.Context(), session.ID, admin, &service.TransitionRequest{Target: models.StatusPreScheduled})
	require.NoError(t, err)

	payment, err := svcs.payments.RecordPayment(t.Context(), session.ID, admin, service.RecordPaymentInput{
		Type: models.PaymentDeposit, Method: "Cash", AmountCents: 10000,
	})
	require.NoError(t, err)
	_, err = svcs.payments.VerifyPayment(t.Context(), payment.ID, admin)
	require.NoError(t, err)
	_, err = svcs.sessions.RequestTransition(t.Context(), session.ID, admin, &service.TransitionRequest{Target: models.StatusConfirmed})
	require.NoError(t, err)

	// Still editable while Confirmed.
	_, err = svcs.details.AddItem(t.Context(), session.ID, admin, service.AddItemInput{CatalogItemID: item.ID, Quantity: 1})
	require.NoError(t, err)

	_, err = svcs.assignments.AssignPhotographer(t.Context(), session.ID, admin, service.AssignPhotographerInput{
		PhotographerID: photographer.ID,
		CoverageStart:  start,
		CoverageEnd:    end,
	})
	require.NoError(t, err)

	// Assigned onward the line items are frozen.
	_, err = svcs.details.AddItem(t.Context(), session.ID, admin, service.AddItemInput{CatalogItemID: item.ID, Quantity: 1})
	assert.ErrorIs(t, err, service.ErrSessionNotEditable)
}

func TestFrozenPriceSurvivesCatalogUpdate(t *testing.T) {
	cleanTables()
	svcs := newServices()
	admin := adminIdentity(t)
	item := createCatalogItem(t, "PKG-EVENT", 80000)

	start, end := slot(11, 13)
	session, err := svcs.sessions.CreateSession(t.Context(), admin, service.CreateSessionInput{
		ClientID:    8,
		Kind:        models.KindExternal,
		SessionDate: testDay,
		StartTime:   start,
		EndTime:     end,
		Location:    "Conference centre",
	})
	require.NoError(t, err)
	_, err = svcs.details.AddItem(t.Context(), session.ID, admin, service.AddItemInput{CatalogItemID: item.ID, Quantity: 1})
	require.NoError(t, err)

	// Catalog price changes after the fact.
	require.NoError(t, testDB.Model(item).Update("unit_price_cents", 120000).Error)

	details, err := svcs.details.ListDetails(t.Context(), session.ID)
	require.NoError(t, err)
	require.Len(t, details, 1)
	assert.Equal(t, int64(80000), details[0].LineSubtotalCents)

	totals, err := svcs.payments.Totals(t.Context(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(80000), totals.TotalCents)
}

func TestOverpaymentRejected(t *testing.T) {
	cleanTables()
	svcs := newServices()
	admin := adminIdentity(t)
	item := createCatalogItem(t, "PKG-MINI", 30000)

	start, end := slot(15, 16)
	session, err := svcs.sessions.CreateSession(t.Context(), admin, service.CreateSessionInput{
		ClientID:    9,
		Kind:        models.KindExternal,
		SessionDate: testDay,
		StartTime:   start,
		EndTime:     end,
		Location:    "Rooftop",
	})
	require.NoError(t, err)
	_, err = svcs.details.AddItem(t.Context(), session.ID, admin, service.AddItemInput{CatalogItemID: item.ID, Quantity: 1})
	require.NoError(t, err)

	_, err = svcs.payments.RecordPayment(t.Context(), session.ID, admin, service.RecordPaymentInput{
		Type: models.PaymentDeposit, Method: "Cash", AmountCents: 40000,
	})
	assert.ErrorIs(t, err, service.ErrInvalidPayload)
}

// The involved parties drive their own edges with no blanket transition
// capability: an assigned photographer marks attendance, the assigned editor
// marks ready for delivery. Uninvolved users are refused at the guard.
func TestAssignedActorsDriveTheirEdges(t *testing.T) {
	cleanTables()
	svcs := newServices()
	admin := adminIdentity(t)
	photographer := createUser(t, "photographer", models.PhotographerRoleName)
	editor := createUser(t, "editor", models.EditorRoleName)
	outsider := createUser(t, "outsider")

	start, end := slot(10, 12)
	session, err := svcs.sessions.CreateSession(t.Context(), admin, service.CreateSessionInput{
		ClientID:    10,
		Kind:        models.KindExternal,
		SessionDate: testDay,
		StartTime:   start,
		EndTime:     end,
		Location:    "Vineyard",
	})
	require.NoError(t, err)
	_, err = svcs.sessions.RequestTransition(t.Context(), session.ID, admin, &service.TransitionRequest{Target: models.StatusPreScheduled})
	require.NoError(t, err)
	_, err = svcs.sessions.RequestTransition(t.Context(), session.ID, admin, &service.TransitionRequest{Target: models.StatusConfirmed})
	require.NoError(t, err)
	_, err = svcs.assignments.AssignPhotographer(t.Context(), session.ID, admin, service.AssignPhotographerInput{
		PhotographerID: photographer.ID,
		CoverageStart:  start,
		CoverageEnd:    end,
	})
	require.NoError(t, err)

	_, err = svcs.sessions.RequestTransition(t.Context(), session.ID, identityFor(outsider), &service.TransitionRequest{
		Target: models.StatusAttended,
	})
	assert.ErrorIs(t, err, service.ErrInsufficientPermission)

	session, err = svcs.sessions.RequestTransition(t.Context(), session.ID, identityFor(photographer), &service.TransitionRequest{
		Target: models.StatusAttended,
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusAttended, session.Status)

	session, err = svcs.sessions.AssignEditor(t.Context(), session.ID, editor.ID, admin)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInEditing, session.Status)

	otherEditor := createUser(t, "other-editor", models.EditorRoleName)
	_, err = svcs.sessions.RequestTransition(t.Context(), session.ID, identityFor(otherEditor), &service.TransitionRequest{
		Target: models.StatusReadyForDelivery,
	})
	assert.ErrorIs(t, err, service.ErrInsufficientPermission)

	session, err = svcs.sessions.RequestTransition(t.Context(), session.ID, identityFor(editor), &service.TransitionRequest{
		Target: models.StatusReadyForDelivery,
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusReadyForDelivery, session.Status)
}

// An Assigned session never drops to zero photographers: the last assignment
// is irremovable, but the roster can still grow or be swapped.
func TestAssignedSessionKeepsLastPhotographer(t *testing.T) {
	cleanTables()
	svcs := newServices()
	admin := adminIdentity(t)
	first := createUser(t, "photographer-a", models.PhotographerRoleName)
	second := createUser(t, "photographer-b", models.PhotographerRoleName)

	start, end := slot(13, 15)
	session, err := svcs.sessions.CreateSession(t.Context(), admin, service.CreateSessionInput{
		ClientID:    11,
		Kind:        models.KindExternal,
		SessionDate: testDay,
		StartTime:   start,
		EndTime:     end,
		Location:    "Castle grounds",
	})
	require.NoError(t, err)
	_, err = svcs.sessions.RequestTransition(t.Context(), session.ID, admin, &service.TransitionRequest{Target: models.StatusPreScheduled})
	require.NoError(t, err)
	_, err = svcs.sessions.RequestTransition(t.Context(), session.ID, admin, &service.TransitionRequest{Target: models.StatusConfirmed})
	require.NoError(t, err)
	_, err = svcs.assignments.AssignPhotographer(t.Context(), session.ID, admin, service.AssignPhotographerInput{
		PhotographerID: first.ID,
		CoverageStart:  start,
		CoverageEnd:    end,
	})
	require.NoError(t, err)

	session, err = svcs.sessions.GetSnapshot(t.Context(), session.ID)
	require.NoError(t, err)
	require.Equal(t, models.StatusAssigned, session.Status)

	// Sole photographer cannot be dropped while the session is Assigned.
	err = svcs.assignments.RemovePhotographer(t.Context(), session.ID, first.ID, admin)
	assert.ErrorIs(t, err, service.ErrMissingResource)

	// The roster can still grow after the session reached Assigned.
	_, err = svcs.assignments.AssignPhotographer(t.Context(), session.ID, admin, service.AssignPhotographerInput{
		PhotographerID: second.ID,
		CoverageStart:  start,
		CoverageEnd:    end,
	})
	require.NoError(t, err)

	require.NoError(t, svcs.assignments.RemovePhotographer(t.Context(), session.ID, first.ID, admin))

	assignments, err := svcs.assignments.ListAssignments(t.Context(), session.ID)
	require.NoError(t, err)
	require.Len(t, assignments, 1)
	assert.Equal(t, second.ID, assignments[0].PhotographerID)

	session, err = svcs.sessions.GetSnapshot(t.Context(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAssigned, session.Status)
}
