// Package hold manages supplier holds: time-boxed, price-locked reservation
// options acquired before payment. Holds are ephemeral supplier-owned truth
// and live in an externally keyed TTL store, never in the ledger.
package hold

import (
	"context"
	"time"
)

// Hold is a price-locked option on a room, valid until ExpiresAt.
type Hold struct {
	Token      string    `json:"token"`
	HotelID    string    `json:"hotel_id"`
	RoomID     string    `json:"room_id"`
	RateCode   string    `json:"rate_code"`
	CheckIn    time.Time `json:"check_in"`
	CheckOut   time.Time `json:"check_out"`
	Occupancy  int       `json:"occupancy"`
	PriceCents int64     `json:"price_cents"`
	Currency   string    `json:"currency"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// Nights is the length of the held stay.
func (h Hold) Nights() int {
	return int(h.CheckOut.Sub(h.CheckIn).Hours() / 24)
}

// FreshAt reports whether the hold is still usable at t with the given
// safety margin before expiry.
func (h Hold) FreshAt(t time.Time, grace time.Duration) bool {
	return h.ExpiresAt.After(t.Add(grace))
}

// Store keeps holds keyed by booking session, expiring them automatically.
type Store interface {
	// Put stores the hold under the session key until it expires.
	Put(ctx context.Context, sessionID string, h Hold) error

	// Get returns the hold for the session, or nil when absent or expired.
	Get(ctx context.Context, sessionID string) (*Hold, error)

	// Delete removes the hold for the session.
	Delete(ctx context.Context, sessionID string) error
}
