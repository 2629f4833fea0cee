package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/roamstay/service-booking/internal/domain"
	"github.com/roamstay/service-booking/internal/domain/booking"
)

type memRefundRepo struct {
	refunds []booking.Refund
	saveErr error
}

func (m *memRefundRepo) Save(ctx context.Context, r booking.Refund) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.refunds = append(m.refunds, r)
	return nil
}

func (m *memRefundRepo) SumForBooking(ctx context.Context, bookingID uuid.UUID) (int64, error) {
	var sum int64
	for _, r := range m.refunds {
		if r.BookingID == bookingID && r.Status == booking.RefundSucceeded {
			sum += r.AmountCents
		}
	}
	return sum, nil
}

func (m *memRefundRepo) ListForBooking(ctx context.Context, bookingID uuid.UUID) ([]booking.Refund, error) {
	var out []booking.Refund
	for _, r := range m.refunds {
		if r.BookingID == bookingID {
			out = append(out, r)
		}
	}
	return out, nil
}

type memAuditRepo struct {
	entries   []AuditEntry
	appendErr error
}

func (m *memAuditRepo) Append(ctx context.Context, e AuditEntry) error {
	if m.appendErr != nil {
		return m.appendErr
	}
	m.entries = append(m.entries, e)
	return nil
}

func (m *memAuditRepo) ListForBooking(ctx context.Context, bookingID uuid.UUID) ([]AuditEntry, error) {
	var out []AuditEntry
	for _, e := range m.entries {
		if e.BookingID != nil && *e.BookingID == bookingID {
			out = append(out, e)
		}
	}
	return out, nil
}

func newTestLedger(refunds *memRefundRepo, audits *memAuditRepo) *Ledger {
	return New(nil, refunds, audits, nil, zap.NewNop())
}

func TestSaveRefundCapsAtOriginalPayment(t *testing.T) {
	refunds := &memRefundRepo{}
	l := newTestLedger(refunds, &memAuditRepo{})
	bookingID := uuid.New()

	first := booking.NewRefund(bookingID, "pi_1", 30000, "EUR", booking.RefundSucceeded, "partial", "re_1")
	require.NoError(t, l.SaveRefund(context.Background(), first, 40000))

	// A second refund that would push the total past the original payment is
	// rejected before it reaches the store.
	second := booking.NewRefund(bookingID, "pi_1", 15000, "EUR", booking.RefundSucceeded, "too much", "re_2")
	err := l.SaveRefund(context.Background(), second, 40000)
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Len(t, refunds.refunds, 1)

	// Topping up to exactly the original amount is fine.
	third := booking.NewRefund(bookingID, "pi_1", 10000, "EUR", booking.RefundSucceeded, "remainder", "re_3")
	require.NoError(t, l.SaveRefund(context.Background(), third, 40000))
}

func TestSaveRefundSkippedDoesNotCountTowardCap(t *testing.T) {
	refunds := &memRefundRepo{}
	l := newTestLedger(refunds, &memAuditRepo{})
	bookingID := uuid.New()

	skipped := booking.NewRefund(bookingID, "pi_1", 0, "EUR", booking.RefundSkipped, "inside penalty window", "")
	require.NoError(t, l.SaveRefund(context.Background(), skipped, 40000))

	full := booking.NewRefund(bookingID, "pi_1", 40000, "EUR", booking.RefundSucceeded, "full", "re_1")
	require.NoError(t, l.SaveRefund(context.Background(), full, 40000))
}

func TestAuditNeverPropagatesFailure(t *testing.T) {
	audits := &memAuditRepo{appendErr: errors.New("audit table is gone")}
	l := newTestLedger(&memRefundRepo{}, audits)

	bid := uuid.New()
	// Must not panic or error in any observable way.
	l.Audit(context.Background(), &bid, ActionBook, AuditFailed, map[string]string{"k": "v"}, nil, "PERSISTENCE")
}

func TestAuditSnapshotsRequestAndResponse(t *testing.T) {
	audits := &memAuditRepo{}
	l := newTestLedger(&memRefundRepo{}, audits)

	bid := uuid.New()
	l.Audit(context.Background(), &bid, ActionCancel, AuditSuccess, map[string]string{"reason": "guest"}, map[string]int64{"refund": 100}, "")

	require.Len(t, audits.entries, 1)
	e := audits.entries[0]
	assert.Equal(t, ActionCancel, e.Action)
	assert.Equal(t, AuditSuccess, e.Status)
	assert.JSONEq(t, `{"reason":"guest"}`, string(e.RequestSnapshot))
	assert.JSONEq(t, `{"refund":100}`, string(e.ResponseSnapshot))
	assert.WithinDuration(t, time.Now().UTC(), e.Timestamp, time.Minute)
}
