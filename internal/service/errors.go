package service

import (
	"errors"
	"fmt"
)

// Error taxonomy of the scheduling engine. Every guard failure maps to
// exactly one of these; handlers translate them to HTTP codes with
// errors.Is.
var (
	// ErrIllegalTransition: the requested edge does not exist in the
	// adjacency table. Not retryable.
	ErrIllegalTransition = errors.New("illegal status transition")

	// ErrInsufficientPermission: the actor lacks the capability for the
	// requested operation.
	ErrInsufficientPermission = errors.New("insufficient permission")

	// ErrSchedulingConflict: the room or photographer is already booked for
	// an overlapping interval. The caller may retry with a different slot.
	ErrSchedulingConflict = errors.New("scheduling conflict")

	// ErrMissingResource: a precondition resource (room, photographer,
	// editor, catalog item) is absent or unusable.
	ErrMissingResource = errors.New("missing resource")

	// ErrInvalidPayload: the request payload fails validation.
	ErrInvalidPayload = errors.New("invalid payload")

	// ErrUnpaidBalance: a financial precondition (deposit or balance) is
	// not met by verified payments.
	ErrUnpaidBalance = errors.New("unpaid balance")

	// ErrRepositoryUnavailable: transient infrastructure failure. Safe to
	// retry; nothing was committed.
	ErrRepositoryUnavailable = errors.New("repository unavailable")

	ErrSessionNotFound    = errors.New("session not found")
	ErrPaymentNotFound    = errors.New("payment not found")
	ErrSessionNotEditable = errors.New("session is not editable")
)

// Permission codes consumed by the engine. Scoped codes follow
// module.action.scope; ".all" implies ".own".
const (
	PermSessionCreate     = "session.create"
	PermSessionTransition = "session.transition"
	PermSessionEditAll    = "session.edit.all"
	PermSessionEditOwn    = "session.edit.own"
	PermSessionAssign     = "session.assign"
	PermSessionCancel     = "session.cancel"
	PermSessionOverride   = "session.override"
	PermSessionViewAll    = "session.view.all"
	PermSessionViewOwn    = "session.view.own"
	PermPaymentRecord     = "payment.record"
	PermPaymentVerify     = "payment.verify"
)

// repoErr wraps an infrastructure failure so callers can classify it as
// retryable. Domain sentinels pass through untouched.
func repoErr(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrRepositoryUnavailable, err)
}
