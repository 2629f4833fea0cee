// Package policy computes refund entitlements for cancellations. It is pure:
// no clocks, no stores, no side effects.
package policy

import "time"

// RefundComputation is the outcome of applying the cancellation policy.
type RefundComputation struct {
	RefundPercentage  int
	RefundAmountCents int64
	PenaltyCents      int64
	Description       string
}

// Tiered refund schedule by whole days between cancellation and check-in.
const (
	fullRefundDays    = 7
	halfRefundDays    = 3
	quarterRefundDays = 1
)

// ComputeRefund applies the tiered schedule to the original amount.
// RefundAmountCents is floored; penalty is the exact remainder, so
// refund + penalty always equals the original amount.
func ComputeRefund(totalCents int64, checkIn, cancellationTime time.Time) RefundComputation {
	days := wholeDaysUntil(cancellationTime, checkIn)

	var pct int
	var desc string
	switch {
	case days >= fullRefundDays:
		pct = 100
		desc = "free cancellation: 7 or more days before check-in"
	case days >= halfRefundDays:
		pct = 50
		desc = "50% refund: 3-6 days before check-in"
	case days >= quarterRefundDays:
		pct = 25
		desc = "25% refund: 1-2 days before check-in"
	default:
		pct = 0
		desc = "no refund: cancellation on or after check-in day"
	}

	refund := totalCents * int64(pct) / 100
	return RefundComputation{
		RefundPercentage:  pct,
		RefundAmountCents: refund,
		PenaltyCents:      totalCents - refund,
		Description:       desc,
	}
}

// wholeDaysUntil returns the number of complete 24h periods between from and
// to. Negative when from is past to (cancellation after check-in).
func wholeDaysUntil(from, to time.Time) int {
	d := to.Sub(from)
	if d < 0 {
		// Integer division truncates toward zero; force "after check-in"
		// into the zero-refund tier.
		return -1
	}
	return int(d.Hours() / 24)
}
