package policy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var base = time.Date(2026, 6, 1, 14, 0, 0, 0, time.UTC)

func TestComputeRefund_Tiers(t *testing.T) {
	tests := []struct {
		name    string
		days    int
		wantPct int
	}{
		{"ten days before", 10, 100},
		{"exactly seven days", 7, 100},
		{"six days", 6, 50},
		{"five days", 5, 50},
		{"four days", 4, 50},
		{"three days", 3, 50},
		{"two days", 2, 25},
		{"one day", 1, 25},
		{"check-in day", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkIn := base.Add(time.Duration(tt.days) * 24 * time.Hour)
			got := ComputeRefund(50000, checkIn, base)
			assert.Equal(t, tt.wantPct, got.RefundPercentage)
		})
	}
}

func TestComputeRefund_AfterCheckIn(t *testing.T) {
	checkIn := base.Add(-48 * time.Hour)
	got := ComputeRefund(50000, checkIn, base)
	assert.Equal(t, 0, got.RefundPercentage)
	assert.Equal(t, int64(0), got.RefundAmountCents)
	assert.Equal(t, int64(50000), got.PenaltyCents)
}

func TestComputeRefund_RefundPlusPenaltyEqualsTotal(t *testing.T) {
	amounts := []int64{1, 99, 100, 101, 500, 12345, 1000000}
	for days := -2; days <= 10; days++ {
		checkIn := base.Add(time.Duration(days) * 24 * time.Hour)
		for _, amount := range amounts {
			got := ComputeRefund(amount, checkIn, base)
			assert.Equal(t, amount, got.RefundAmountCents+got.PenaltyCents,
				"amount=%d days=%d", amount, days)
			assert.LessOrEqual(t, got.RefundAmountCents, amount)
			assert.GreaterOrEqual(t, got.RefundAmountCents, int64(0))
		}
	}
}

func TestComputeRefund_FloorsOddAmounts(t *testing.T) {
	// 25% of 101 floors to 25, penalty takes the remainder.
	checkIn := base.Add(2 * 24 * time.Hour)
	got := ComputeRefund(101, checkIn, base)
	assert.Equal(t, int64(25), got.RefundAmountCents)
	assert.Equal(t, int64(76), got.PenaltyCents)
}

func TestComputeRefund_Deterministic(t *testing.T) {
	checkIn := base.Add(5 * 24 * time.Hour)
	first := ComputeRefund(77777, checkIn, base)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, ComputeRefund(77777, checkIn, base))
	}
}

func TestComputeRefund_PartialDayRoundsDown(t *testing.T) {
	// 6 days and 23 hours before check-in is still the 50% tier.
	checkIn := base.Add(7*24*time.Hour - time.Hour)
	got := ComputeRefund(1000, checkIn, base)
	assert.Equal(t, 50, got.RefundPercentage)
}
