package reconcile

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/roamstay/service-booking/internal/adapter"
	"github.com/roamstay/service-booking/internal/domain"
	bookingDomain "github.com/roamstay/service-booking/internal/domain/booking"
	"github.com/roamstay/service-booking/internal/ledger"
	"github.com/roamstay/service-booking/internal/payment"
)

type memBookingRepo struct {
	byIntent map[string]*bookingDomain.Booking
}

func (r *memBookingRepo) FindByID(ctx context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	return nil, domain.NewNotFoundError("booking", id.String())
}

func (r *memBookingRepo) FindBySupplierRef(ctx context.Context, ref string) (*bookingDomain.Booking, error) {
	return nil, domain.NewNotFoundError("booking", ref)
}

func (r *memBookingRepo) FindByIntentID(ctx context.Context, intentID string) (*bookingDomain.Booking, error) {
	if b, ok := r.byIntent[intentID]; ok {
		return b, nil
	}
	return nil, domain.NewNotFoundError("booking", intentID)
}

func (r *memBookingRepo) ListAll(ctx context.Context, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	return nil, 0, nil
}

func (r *memBookingRepo) CountByStatus(ctx context.Context) (map[string]int64, error) {
	return nil, nil
}

func (r *memBookingRepo) Save(ctx context.Context, b *bookingDomain.Booking) error   { return nil }
func (r *memBookingRepo) Update(ctx context.Context, b *bookingDomain.Booking) error { return nil }

type memIntentRepo struct {
	mu      sync.Mutex
	records map[string]ledger.IntentRecord
}

func newMemIntentRepo() *memIntentRepo {
	return &memIntentRepo{records: make(map[string]ledger.IntentRecord)}
}

func (r *memIntentRepo) Save(ctx context.Context, rec ledger.IntentRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[rec.IntentID] = rec
	return nil
}

func (r *memIntentRepo) FindByBookingRef(ctx context.Context, bookingRef string) (*ledger.IntentRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.records {
		if rec.BookingRef == bookingRef {
			out := rec
			return &out, nil
		}
	}
	return nil, nil
}

func (r *memIntentRepo) FindByIntentID(ctx context.Context, intentID string) (*ledger.IntentRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec, ok := r.records[intentID]; ok {
		out := rec
		return &out, nil
	}
	return nil, nil
}

func (r *memIntentRepo) MarkBooked(ctx context.Context, intentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec := r.records[intentID]
	rec.Booked = true
	r.records[intentID] = rec
	return nil
}

func (r *memIntentRepo) MarkReconciled(ctx context.Context, intentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec := r.records[intentID]
	rec.Reconciled = true
	r.records[intentID] = rec
	return nil
}

func (r *memIntentRepo) FindOrphaned(ctx context.Context, cutoff time.Time) ([]ledger.IntentRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []ledger.IntentRecord
	for _, rec := range r.records {
		if !rec.Booked && !rec.Reconciled && rec.CreatedAt.Before(cutoff) {
			out = append(out, rec)
		}
	}
	return out, nil
}

type memAuditRepo struct{}

func (memAuditRepo) Append(ctx context.Context, e ledger.AuditEntry) error { return nil }
func (memAuditRepo) ListForBooking(ctx context.Context, bookingID uuid.UUID) ([]ledger.AuditEntry, error) {
	return nil, nil
}

type env struct {
	sweeper   *Sweeper
	processor *adapter.MockProcessorAdapter
	intents   *memIntentRepo
	bookings  *memBookingRepo
}

func newEnv(t *testing.T) *env {
	t.Helper()
	log := zap.NewNop()
	processor := adapter.NewMockProcessorAdapter(log)
	intents := newMemIntentRepo()
	bookings := &memBookingRepo{byIntent: make(map[string]*bookingDomain.Booking)}
	led := ledger.New(bookings, nil, memAuditRepo{}, intents, log)
	payments := payment.NewCoordinator(processor, led, log)
	return &env{
		sweeper:   NewSweeper(payments, led, time.Minute, 10*time.Minute, log),
		processor: processor,
		intents:   intents,
		bookings:  bookings,
	}
}

// orphanIntent creates a processor intent and an aged local record for it.
func orphanIntent(t *testing.T, e *env, capture bool) string {
	t.Helper()
	ctx := context.Background()

	intent, err := e.processor.CreateIntent(ctx, 30000, "EUR", "cus_1", "sess-1", "key-1")
	require.NoError(t, err)
	if capture {
		_, err = e.processor.ConfirmIntent(ctx, intent.ID, "pm_card")
		require.NoError(t, err)
	}

	require.NoError(t, e.intents.Save(ctx, ledger.IntentRecord{
		IntentID:    intent.ID,
		BookingRef:  "sess-1",
		CustomerRef: "cus_1",
		AmountCents: 30000,
		Currency:    "EUR",
		CreatedAt:   time.Now().UTC().Add(-time.Hour),
	}))
	return intent.ID
}

func TestSweepRefundsCapturedOrphan(t *testing.T) {
	e := newEnv(t)
	intentID := orphanIntent(t, e, true)

	require.NoError(t, e.sweeper.SweepOnce(context.Background()))

	require.Len(t, e.processor.RefundCalls, 1)
	assert.Equal(t, int64(30000), e.processor.RefundCalls[0].AmountCents)
	assert.Equal(t, "reconcile-"+intentID, e.processor.RefundCalls[0].IdempotencyKey)

	rec, err := e.intents.FindByIntentID(context.Background(), intentID)
	require.NoError(t, err)
	assert.True(t, rec.Reconciled)
}

func TestSweepCancelsPreCaptureOrphan(t *testing.T) {
	e := newEnv(t)
	intentID := orphanIntent(t, e, false)

	require.NoError(t, e.sweeper.SweepOnce(context.Background()))

	assert.Empty(t, e.processor.RefundCalls)

	snapshot, err := e.processor.RetrieveIntent(context.Background(), intentID)
	require.NoError(t, err)
	assert.Equal(t, adapter.IntentCanceled, snapshot.Status)

	rec, err := e.intents.FindByIntentID(context.Background(), intentID)
	require.NoError(t, err)
	assert.True(t, rec.Reconciled)
}

func TestSweepLeavesCapturedOrphanOpenDuringOutage(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	intentID := orphanIntent(t, e, true)

	e.processor.RetrieveErr = domain.NewPaymentError(domain.PaymentProcessorUnavailable, "processor timeout")
	require.NoError(t, e.sweeper.SweepOnce(ctx))

	assert.Empty(t, e.processor.RefundCalls)
	rec, err := e.intents.FindByIntentID(ctx, intentID)
	require.NoError(t, err)
	assert.False(t, rec.Reconciled, "a captured intent must stay open until the processor answers")

	// Once the processor recovers, the same record is refunded and closed.
	e.processor.RetrieveErr = nil
	require.NoError(t, e.sweeper.SweepOnce(ctx))

	require.Len(t, e.processor.RefundCalls, 1)
	assert.Equal(t, int64(30000), e.processor.RefundCalls[0].AmountCents)
	rec, err = e.intents.FindByIntentID(ctx, intentID)
	require.NoError(t, err)
	assert.True(t, rec.Reconciled)
}

func TestSweepClosesOutDeclinedOrphan(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	intentID := orphanIntent(t, e, false)

	e.processor.ConfirmOutcomes = []adapter.IntentStatus{adapter.IntentFailed}
	_, err := e.processor.ConfirmIntent(ctx, intentID, "pm_bad_card")
	require.NoError(t, err)

	require.NoError(t, e.sweeper.SweepOnce(ctx))

	assert.Empty(t, e.processor.RefundCalls)
	rec, err := e.intents.FindByIntentID(ctx, intentID)
	require.NoError(t, err)
	assert.True(t, rec.Reconciled, "a declined intent holds no money and only needs closing out")
}

func TestSweepMarksBookedWhenBookingExists(t *testing.T) {
	e := newEnv(t)
	intentID := orphanIntent(t, e, true)

	checkIn := time.Now().UTC().AddDate(0, 0, 7)
	b := bookingDomain.NewBooking("htl_1", "rm_1", "FLEX", checkIn, checkIn.AddDate(0, 0, 1), 2,
		bookingDomain.Guest{FirstName: "Ada", LastName: "L", Email: "a@example.com", Phone: "+1"},
		30000, "EUR", intentID)
	require.NoError(t, b.Confirm("sb_existing"))
	e.bookings.byIntent[intentID] = b

	require.NoError(t, e.sweeper.SweepOnce(context.Background()))

	assert.Empty(t, e.processor.RefundCalls, "a booked intent must not be refunded")
	rec, err := e.intents.FindByIntentID(context.Background(), intentID)
	require.NoError(t, err)
	assert.True(t, rec.Booked)
	assert.False(t, rec.Reconciled)
}

func TestSweepSkipsYoungIntents(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	intent, err := e.processor.CreateIntent(ctx, 30000, "EUR", "cus_1", "sess-2", "key-2")
	require.NoError(t, err)
	require.NoError(t, e.intents.Save(ctx, ledger.IntentRecord{
		IntentID:   intent.ID,
		BookingRef: "sess-2",
		CreatedAt:  time.Now().UTC(),
	}))

	require.NoError(t, e.sweeper.SweepOnce(ctx))

	rec, err := e.intents.FindByIntentID(ctx, intent.ID)
	require.NoError(t, err)
	assert.False(t, rec.Reconciled)
}
