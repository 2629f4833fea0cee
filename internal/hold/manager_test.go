package hold

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/roamstay/service-booking/internal/adapter"
	"github.com/roamstay/service-booking/internal/domain"
)

// scriptedSupplier returns pre-scripted quotes, one per Hold call.
type scriptedSupplier struct {
	quotes []adapter.HoldQuote
	calls  int
}

func (s *scriptedSupplier) Hold(ctx context.Context, hotelID, roomID string, checkIn, checkOut time.Time, occupancy int, rateCode string) (adapter.HoldQuote, error) {
	if s.calls >= len(s.quotes) {
		return adapter.HoldQuote{}, errors.New("no scripted quote left")
	}
	q := s.quotes[s.calls]
	s.calls++
	return q, nil
}

func (s *scriptedSupplier) Commit(ctx context.Context, holdToken, idempotencyKey string) (string, error) {
	return "", errors.New("not implemented")
}

func (s *scriptedSupplier) CancelReservation(ctx context.Context, supplierBookingID string) error {
	return nil
}

func validRequest() HoldRequest {
	checkIn := time.Now().UTC().AddDate(0, 0, 14).Truncate(24 * time.Hour)
	return HoldRequest{
		HotelID:   "HTL-1",
		RoomID:    "RM-1",
		RateCode:  "FLEX",
		CheckIn:   checkIn,
		CheckOut:  checkIn.AddDate(0, 0, 2),
		Occupancy: 2,
	}
}

func newTestManager(supplier adapter.SupplierAdapter, grace time.Duration) *Manager {
	return NewManager(supplier, NewMemoryStore(), grace, zap.NewNop())
}

func TestAcquireStoresHold(t *testing.T) {
	supplier := adapter.NewMockSupplierAdapter(30000, "EUR", 30*time.Minute, zap.NewNop())
	m := newTestManager(supplier, time.Minute)

	h, err := m.Acquire(context.Background(), "sess-1", validRequest())
	require.NoError(t, err)
	assert.NotEmpty(t, h.Token)
	assert.Equal(t, int64(30000), h.PriceCents)

	got, err := m.Current(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Equal(t, h.Token, got.Token)
}

func TestAcquireRejectsInvalidStay(t *testing.T) {
	supplier := adapter.NewMockSupplierAdapter(30000, "EUR", 30*time.Minute, zap.NewNop())
	m := newTestManager(supplier, time.Minute)

	req := validRequest()
	req.CheckOut = req.CheckIn
	_, err := m.Acquire(context.Background(), "sess-1", req)
	assert.ErrorIs(t, err, domain.ErrValidation)

	req = validRequest()
	req.CheckIn = time.Now().UTC().AddDate(0, 0, -1)
	req.CheckOut = time.Now().UTC().AddDate(0, 0, 1)
	_, err = m.Acquire(context.Background(), "sess-1", req)
	assert.ErrorIs(t, err, domain.ErrValidation)

	req = validRequest()
	req.Occupancy = 0
	_, err = m.Acquire(context.Background(), "sess-1", req)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestAcquirePriceMismatchRejected(t *testing.T) {
	supplier := adapter.NewMockSupplierAdapter(30000, "EUR", 30*time.Minute, zap.NewNop())
	m := newTestManager(supplier, time.Minute)

	req := validRequest()
	req.DisplayedPriceCents = 25000 // guest saw a stale price

	_, err := m.Acquire(context.Background(), "sess-1", req)
	var se *domain.SupplierError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, domain.SupplierPriceChanged, se.Code)

	// Nothing was locked in.
	_, err = m.Current(context.Background(), "sess-1")
	require.ErrorAs(t, err, &se)
	assert.Equal(t, domain.SupplierHoldExpired, se.Code)
}

func TestCurrentExpiredHold(t *testing.T) {
	supplier := adapter.NewMockSupplierAdapter(30000, "EUR", -time.Minute, zap.NewNop())
	m := newTestManager(supplier, time.Minute)

	_, err := m.Acquire(context.Background(), "sess-1", validRequest())
	require.NoError(t, err)

	_, err = m.Current(context.Background(), "sess-1")
	var se *domain.SupplierError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, domain.SupplierHoldExpired, se.Code)
}

func TestEnsureFreshKeepsFreshHold(t *testing.T) {
	supplier := adapter.NewMockSupplierAdapter(30000, "EUR", 30*time.Minute, zap.NewNop())
	m := newTestManager(supplier, time.Minute)

	h, err := m.Acquire(context.Background(), "sess-1", validRequest())
	require.NoError(t, err)

	fresh, reheld, err := m.EnsureFresh(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.False(t, reheld)
	assert.Equal(t, h.Token, fresh.Token)
}

func TestEnsureFreshReholdsNearExpiry(t *testing.T) {
	now := time.Now().UTC()
	supplier := &scriptedSupplier{quotes: []adapter.HoldQuote{
		{HoldToken: "hold_a", PriceCents: 30000, Currency: "EUR", ExpiresAt: now.Add(30 * time.Second)},
		{HoldToken: "hold_b", PriceCents: 30000, Currency: "EUR", ExpiresAt: now.Add(30 * time.Minute)},
	}}
	m := newTestManager(supplier, time.Minute)

	_, err := m.Acquire(context.Background(), "sess-1", validRequest())
	require.NoError(t, err)

	fresh, reheld, err := m.EnsureFresh(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.True(t, reheld)
	assert.Equal(t, "hold_b", fresh.Token)

	// The re-held hold replaces the stored one.
	got, err := m.Current(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "hold_b", got.Token)
}

func TestEnsureFreshPriceChangedOnRehold(t *testing.T) {
	now := time.Now().UTC()
	supplier := &scriptedSupplier{quotes: []adapter.HoldQuote{
		{HoldToken: "hold_a", PriceCents: 30000, Currency: "EUR", ExpiresAt: now.Add(30 * time.Second)},
		{HoldToken: "hold_b", PriceCents: 35000, Currency: "EUR", ExpiresAt: now.Add(30 * time.Minute)},
	}}
	m := newTestManager(supplier, time.Minute)

	_, err := m.Acquire(context.Background(), "sess-1", validRequest())
	require.NoError(t, err)

	_, _, err = m.EnsureFresh(context.Background(), "sess-1")
	var se *domain.SupplierError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, domain.SupplierPriceChanged, se.Code)
}

func TestReleaseDropsHold(t *testing.T) {
	supplier := adapter.NewMockSupplierAdapter(30000, "EUR", 30*time.Minute, zap.NewNop())
	m := newTestManager(supplier, time.Minute)

	_, err := m.Acquire(context.Background(), "sess-1", validRequest())
	require.NoError(t, err)
	require.NoError(t, m.Release(context.Background(), "sess-1"))

	_, err = m.Current(context.Background(), "sess-1")
	var se *domain.SupplierError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, domain.SupplierHoldExpired, se.Code)
}
