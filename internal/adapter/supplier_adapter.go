package adapter

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/roamstay/service-booking/internal/domain"
)

// HoldQuote is the supplier's answer to a hold request: a time-boxed,
// price-locked option on a room.
type HoldQuote struct {
	HoldToken   string
	PriceCents  int64
	Currency    string
	ExpiresAt   time.Time
	RateCode    string
}

// SupplierAdapter is the Anti-Corruption Layer for the inventory supplier.
// The supplier is the authoritative owner of reservation existence; every
// response is converted into typed results at this boundary.
type SupplierAdapter interface {
	// Hold requests a time-boxed, price-locked hold on a room.
	Hold(ctx context.Context, hotelID, roomID string, checkIn, checkOut time.Time, occupancy int, rateCode string) (HoldQuote, error)

	// Commit converts a hold into a real reservation. The supplier endpoint is
	// not idempotent by construction, so callers pass an idempotency key that
	// is reused across retries of the same logical attempt; a response of
	// "already committed for this key" yields the original booking reference.
	Commit(ctx context.Context, holdToken, idempotencyKey string) (supplierBookingID string, err error)

	// CancelReservation releases a committed reservation. Used only for
	// manual operational compensations, never by the refund flow.
	CancelReservation(ctx context.Context, supplierBookingID string) error
}

// MockSupplierAdapter is a development/testing implementation. It keeps holds
// and commits in memory and honors idempotency keys the way the real supplier
// documents.
type MockSupplierAdapter struct {
	mu         sync.Mutex
	holds      map[string]HoldQuote
	committed  map[string]string // idempotencyKey -> supplierBookingID
	holdTTL    time.Duration
	priceCents int64
	currency   string
	logger     *zap.Logger

	// Failure injection for tests and chaos runs.
	HoldErr   error
	CommitErr error
}

// NewMockSupplierAdapter creates a mock supplier quoting a fixed price.
func NewMockSupplierAdapter(priceCents int64, currency string, holdTTL time.Duration, logger *zap.Logger) *MockSupplierAdapter {
	return &MockSupplierAdapter{
		holds:      make(map[string]HoldQuote),
		committed:  make(map[string]string),
		holdTTL:    holdTTL,
		priceCents: priceCents,
		currency:   currency,
		logger:     logger,
	}
}

// Hold simulates the supplier hold endpoint.
func (m *MockSupplierAdapter) Hold(ctx context.Context, hotelID, roomID string, checkIn, checkOut time.Time, occupancy int, rateCode string) (HoldQuote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.HoldErr != nil {
		return HoldQuote{}, m.HoldErr
	}

	quote := HoldQuote{
		HoldToken:  fmt.Sprintf("hold_%s", uuid.New().String()[:8]),
		PriceCents: m.priceCents,
		Currency:   m.currency,
		ExpiresAt:  time.Now().UTC().Add(m.holdTTL),
		RateCode:   rateCode,
	}
	m.holds[quote.HoldToken] = quote

	m.logger.Info("[MOCK SUPPLIER] hold created",
		zap.String("hold_token", quote.HoldToken),
		zap.String("hotel_id", hotelID),
		zap.String("room_id", roomID),
		zap.Int64("price_cents", quote.PriceCents),
	)
	return quote, nil
}

// Commit simulates the supplier commit endpoint, replaying the original
// booking reference for a repeated idempotency key.
func (m *MockSupplierAdapter) Commit(ctx context.Context, holdToken, idempotencyKey string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.committed[idempotencyKey]; ok {
		m.logger.Info("[MOCK SUPPLIER] commit replayed for idempotency key",
			zap.String("supplier_booking_id", existing),
		)
		return existing, nil
	}

	if m.CommitErr != nil {
		return "", m.CommitErr
	}

	if _, ok := m.holds[holdToken]; !ok {
		return "", domain.NewSupplierError(domain.SupplierHoldExpired, "unknown or expired hold token")
	}

	id := fmt.Sprintf("sb_%s", uuid.New().String()[:12])
	m.committed[idempotencyKey] = id
	delete(m.holds, holdToken)

	m.logger.Info("[MOCK SUPPLIER] reservation committed",
		zap.String("supplier_booking_id", id),
		zap.String("hold_token", holdToken),
	)
	return id, nil
}

// CancelReservation simulates the operational cancel endpoint.
func (m *MockSupplierAdapter) CancelReservation(ctx context.Context, supplierBookingID string) error {
	m.logger.Info("[MOCK SUPPLIER] reservation cancelled",
		zap.String("supplier_booking_id", supplierBookingID),
	)
	return nil
}
