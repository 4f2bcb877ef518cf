// Package ledger computes the derived financial view of a session from its
// frozen line items and recorded payments. All amounts are integer cents;
// the package is pure arithmetic and never touches storage.
package ledger

import (
	"errors"
	"fmt"

	"github.com/atelierfoto/session-service/internal/models"
)

// ErrNegativeTotal flags a configuration error (discount exceeding
// subtotal+transport). It is surfaced, not clamped silently.
var ErrNegativeTotal = errors.New("ledger: total would be negative")

type Totals struct {
	SubtotalCents   int64
	TotalCents      int64
	DepositCents    int64
	BalanceDueCents int64
}

// Compute derives subtotal, total, deposit and balance due.
//
//	subtotal = Σ line_subtotal (frozen at add time)
//	total    = subtotal + transport − discount
//	deposit  = total × depositPercentage / 100, rounded half-up
//	balance  = total − Σ verified deposits/balances + Σ verified refunds
func Compute(
	details []models.SessionDetail,
	payments []models.SessionPayment,
	transportCents, discountCents int64,
	depositPercentage int,
) (Totals, error) {
	if depositPercentage < 0 || depositPercentage > 100 {
		return Totals{}, fmt.Errorf("ledger: deposit percentage %d out of range", depositPercentage)
	}

	var subtotal int64
	for _, d := range details {
		subtotal += d.LineSubtotalCents
	}

	total := subtotal + transportCents - discountCents
	if total < 0 {
		return Totals{}, fmt.Errorf("%w: subtotal=%d transport=%d discount=%d",
			ErrNegativeTotal, subtotal, transportCents, discountCents)
	}

	deposit := roundHalfUp(total*int64(depositPercentage), 100)

	return Totals{
		SubtotalCents:   subtotal,
		TotalCents:      total,
		DepositCents:    deposit,
		BalanceDueCents: total - NetPaid(payments),
	}, nil
}

// NetPaid sums verified deposit and balance payments minus verified refunds.
// Unverified payments never count.
func NetPaid(payments []models.SessionPayment) int64 {
	var net int64
	for _, p := range payments {
		if !p.Verified {
			continue
		}
		switch p.Type {
		case models.PaymentDeposit, models.PaymentBalance:
			net += p.AmountCents
		case models.PaymentRefund:
			net -= p.AmountCents
		}
	}
	return net
}

// VerifiedPaid sums verified payments of the given type.
func VerifiedPaid(payments []models.SessionPayment, typ models.PaymentType) int64 {
	var sum int64
	for _, p := range payments {
		if p.Verified && p.Type == typ {
			sum += p.AmountCents
		}
	}
	return sum
}

// roundHalfUp divides num by den rounding half away from zero upward.
// num is assumed non-negative.
func roundHalfUp(num, den int64) int64 {
	return (num + den/2) / den
}
