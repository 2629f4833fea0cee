package rateplan

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Well-known rate codes seeded at startup. Suppliers may quote additional
// codes; those are accepted as long as a matching plan row exists.
const (
	CodeFlexible = "FLEX"
	CodeSaver    = "SAVER"
)

// RatePlan is the aggregate root for a bookable rate. The rate code ties a
// supplier quote to the pricing and refund terms shown to the guest.
type RatePlan struct {
	id                uuid.UUID
	code              string
	name              string
	description       string
	nightlyCents      int64
	currency          string
	refundable        bool
	breakfastIncluded bool
	active            bool
	createdAt         time.Time
	updatedAt         time.Time
}

// NewRatePlan creates a new rate plan.
func NewRatePlan(code, name, description string, nightlyCents int64, currency string, refundable, breakfastIncluded bool) (*RatePlan, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, fmt.Errorf("rate code is required")
	}
	if name == "" {
		return nil, fmt.Errorf("rate plan name is required")
	}
	if nightlyCents <= 0 {
		return nil, fmt.Errorf("nightly price must be positive")
	}
	if len(currency) != 3 {
		return nil, fmt.Errorf("currency must be a 3-letter ISO code")
	}

	now := time.Now().UTC()
	return &RatePlan{
		id:                uuid.New(),
		code:              code,
		name:              name,
		description:       description,
		nightlyCents:      nightlyCents,
		currency:          strings.ToUpper(currency),
		refundable:        refundable,
		breakfastIncluded: breakfastIncluded,
		active:            true,
		createdAt:         now,
		updatedAt:         now,
	}, nil
}

// Reconstruct rebuilds a RatePlan from persistence.
func Reconstruct(id uuid.UUID, code, name, description string, nightlyCents int64, currency string, refundable, breakfastIncluded, active bool, createdAt, updatedAt time.Time) *RatePlan {
	return &RatePlan{
		id: id, code: code, name: name, description: description,
		nightlyCents: nightlyCents, currency: currency,
		refundable: refundable, breakfastIncluded: breakfastIncluded,
		active: active, createdAt: createdAt, updatedAt: updatedAt,
	}
}

// UpdatePrice changes the nightly price.
func (r *RatePlan) UpdatePrice(nightlyCents int64) error {
	if nightlyCents <= 0 {
		return fmt.Errorf("nightly price must be positive")
	}
	r.nightlyCents = nightlyCents
	r.updatedAt = time.Now().UTC()
	return nil
}

// Deactivate removes the plan from sale. Existing bookings keep their terms.
func (r *RatePlan) Deactivate() {
	r.active = false
	r.updatedAt = time.Now().UTC()
}

// Activate returns the plan to sale.
func (r *RatePlan) Activate() {
	r.active = true
	r.updatedAt = time.Now().UTC()
}

// Getters.
func (r *RatePlan) ID() uuid.UUID           { return r.id }
func (r *RatePlan) Code() string            { return r.code }
func (r *RatePlan) Name() string            { return r.name }
func (r *RatePlan) Description() string     { return r.description }
func (r *RatePlan) NightlyCents() int64     { return r.nightlyCents }
func (r *RatePlan) Currency() string        { return r.currency }
func (r *RatePlan) Refundable() bool        { return r.refundable }
func (r *RatePlan) BreakfastIncluded() bool { return r.breakfastIncluded }
func (r *RatePlan) Active() bool            { return r.active }
func (r *RatePlan) CreatedAt() time.Time    { return r.createdAt }
func (r *RatePlan) UpdatedAt() time.Time    { return r.updatedAt }
