package service

import (
	"fmt"

	"github.com/atelierfoto/session-service/internal/models"
)

// RefundPolicy decides the refund amount for a cancellation given the
// session's status at cancellation time, who initiated it and the net
// amount paid so far. A policy error blocks the cancellation: financial
// consistency wins over availability of the cancel action.
type RefundPolicy func(status models.SessionStatus, initiator models.CancellationInitiator, netPaidCents int64) (int64, error)

// DefaultRefundPolicy implements the studio's refund matrix:
//
//	studio-initiated          → 100% of net paid
//	client, Request           → 100%
//	client, Negotiation or
//	        Pre-scheduled     → 50%
//	client, Confirmed onward  → no refund (deposit forfeited)
func DefaultRefundPolicy(status models.SessionStatus, initiator models.CancellationInitiator, netPaidCents int64) (int64, error) {
	if netPaidCents < 0 {
		return 0, fmt.Errorf("%w: negative net paid amount %d", ErrInvalidPayload, netPaidCents)
	}
	if netPaidCents == 0 {
		return 0, nil
	}

	switch initiator {
	case models.InitiatorStudio:
		return netPaidCents, nil
	case models.InitiatorClient:
		switch status {
		case models.StatusRequest:
			return netPaidCents, nil
		case models.StatusNegotiation, models.StatusPreScheduled:
			return netPaidCents / 2, nil
		default:
			return 0, nil
		}
	default:
		return 0, fmt.Errorf("%w: unknown cancellation initiator %q", ErrInvalidPayload, initiator)
	}
}
