package hold

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/roamstay/service-booking/internal/adapter"
	"github.com/roamstay/service-booking/internal/domain"
)

// HoldRequest carries the stay parameters for a hold.
type HoldRequest struct {
	HotelID             string
	RoomID              string
	RateCode            string
	CheckIn             time.Time
	CheckOut            time.Time
	Occupancy           int
	DisplayedPriceCents int64 // price the guest saw; 0 skips the check
}

// Manager acquires and tracks supplier holds per booking session.
type Manager struct {
	supplier adapter.SupplierAdapter
	store    Store
	grace    time.Duration
	logger   *zap.Logger
}

// NewManager creates a hold manager. grace is the safety margin before
// supplier expiry at which a hold is treated as stale.
func NewManager(supplier adapter.SupplierAdapter, store Store, grace time.Duration, logger *zap.Logger) *Manager {
	return &Manager{supplier: supplier, store: store, grace: grace, logger: logger}
}

// Acquire validates the stay dates, requests a hold from the supplier, and
// stores it under the session key.
func (m *Manager) Acquire(ctx context.Context, sessionID string, req HoldRequest) (Hold, error) {
	if err := validateDates(req.CheckIn, req.CheckOut); err != nil {
		return Hold{}, err
	}
	if req.Occupancy <= 0 {
		return Hold{}, domain.NewValidationError("occupancy must be positive")
	}

	quote, err := m.supplier.Hold(ctx, req.HotelID, req.RoomID, req.CheckIn, req.CheckOut, req.Occupancy, req.RateCode)
	if err != nil {
		return Hold{}, err
	}

	if req.DisplayedPriceCents > 0 && quote.PriceCents != req.DisplayedPriceCents {
		// The guest must re-confirm the new price before we lock anything in.
		return Hold{}, domain.NewSupplierError(domain.SupplierPriceChanged, "quoted price differs from displayed price")
	}

	h := Hold{
		Token:      quote.HoldToken,
		HotelID:    req.HotelID,
		RoomID:     req.RoomID,
		RateCode:   req.RateCode,
		CheckIn:    req.CheckIn,
		CheckOut:   req.CheckOut,
		Occupancy:  req.Occupancy,
		PriceCents: quote.PriceCents,
		Currency:   quote.Currency,
		ExpiresAt:  quote.ExpiresAt,
	}

	if err := m.store.Put(ctx, sessionID, h); err != nil {
		return Hold{}, err
	}

	m.logger.Info("hold acquired",
		zap.String("session_id", sessionID),
		zap.String("hold_token", h.Token),
		zap.Time("expires_at", h.ExpiresAt),
	)
	return h, nil
}

// Current returns the session's hold, failing with HoldExpired when it is
// absent or past its expiry.
func (m *Manager) Current(ctx context.Context, sessionID string) (Hold, error) {
	h, err := m.store.Get(ctx, sessionID)
	if err != nil {
		return Hold{}, err
	}
	if h == nil {
		return Hold{}, domain.NewSupplierError(domain.SupplierHoldExpired, "no active hold for session")
	}
	return *h, nil
}

// EnsureFresh returns a hold safe to confirm against. A hold within the
// expiry grace window is re-acquired from the supplier with the same stay
// parameters; a price change during re-hold surfaces as PriceChanged so the
// guest can re-confirm.
func (m *Manager) EnsureFresh(ctx context.Context, sessionID string) (Hold, bool, error) {
	h, err := m.Current(ctx, sessionID)
	if err != nil {
		return Hold{}, false, err
	}

	now := time.Now().UTC()
	if h.FreshAt(now, m.grace) {
		return h, false, nil
	}

	m.logger.Info("hold near expiry, re-holding",
		zap.String("session_id", sessionID),
		zap.Time("expires_at", h.ExpiresAt),
	)

	quote, err := m.supplier.Hold(ctx, h.HotelID, h.RoomID, h.CheckIn, h.CheckOut, h.Occupancy, h.RateCode)
	if err != nil {
		return Hold{}, false, err
	}
	if quote.PriceCents != h.PriceCents {
		return Hold{}, false, domain.NewSupplierError(domain.SupplierPriceChanged, "price changed while re-holding")
	}

	fresh := h
	fresh.Token = quote.HoldToken
	fresh.ExpiresAt = quote.ExpiresAt
	if err := m.store.Put(ctx, sessionID, fresh); err != nil {
		return Hold{}, false, err
	}
	return fresh, true, nil
}

// Release drops the session's hold.
func (m *Manager) Release(ctx context.Context, sessionID string) error {
	return m.store.Delete(ctx, sessionID)
}

func validateDates(checkIn, checkOut time.Time) error {
	if !checkOut.After(checkIn) {
		return domain.NewValidationError("check-out must be after check-in")
	}
	today := time.Now().UTC().Truncate(24 * time.Hour)
	if checkIn.Before(today) {
		return domain.NewValidationError("check-in must not be in the past")
	}
	return nil
}
