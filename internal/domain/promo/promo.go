// Package promo implements stay discount codes. A code's constraints are
// expressed against the held stay: its total price, its length in nights and
// its rate code. Discounts are computed from the held price, never from a
// price the guest typed in.
package promo

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DiscountType represents the type of discount.
type DiscountType string

const (
	DiscountTypePercentage DiscountType = "percentage"
	DiscountTypeFixed      DiscountType = "fixed"
)

// Terms are the constraints a held stay must meet for a code to apply, and
// the limits on how far the code stretches.
type Terms struct {
	MinStayTotalCents int64
	MinNights         int
	RateCodes         []string // empty means every rate qualifies
	MaxDiscountCents  int64
	MaxUses           int
	ValidFrom         time.Time
	ValidUntil        time.Time
}

// PromoCode is the aggregate root for stay discount codes.
type PromoCode struct {
	id            uuid.UUID
	code          string
	discountType  DiscountType
	discountValue int64 // percentage (1-100) or fixed amount in cents
	terms         Terms
	currentUses   int
	createdBy     uuid.UUID
	createdAt     time.Time
	updatedAt     time.Time
}

// NewPromoCode creates a new promo code.
func NewPromoCode(code string, discountType DiscountType, discountValue int64, terms Terms, createdBy uuid.UUID) (*PromoCode, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, fmt.Errorf("promo code is required")
	}
	if discountType != DiscountTypePercentage && discountType != DiscountTypeFixed {
		return nil, fmt.Errorf("invalid discount type: %s", discountType)
	}
	if discountValue <= 0 {
		return nil, fmt.Errorf("discount value must be positive")
	}
	if discountType == DiscountTypePercentage && discountValue > 100 {
		return nil, fmt.Errorf("percentage discount cannot exceed 100")
	}
	if terms.MinNights < 0 {
		return nil, fmt.Errorf("minimum nights cannot be negative")
	}
	if terms.ValidUntil.Before(terms.ValidFrom) {
		return nil, fmt.Errorf("valid_until must be after valid_from")
	}
	terms.RateCodes = normalizeRateCodes(terms.RateCodes)

	now := time.Now().UTC()
	return &PromoCode{
		id:            uuid.New(),
		code:          code,
		discountType:  discountType,
		discountValue: discountValue,
		terms:         terms,
		currentUses:   0,
		createdBy:     createdBy,
		createdAt:     now,
		updatedAt:     now,
	}, nil
}

// Reconstruct rebuilds a PromoCode from persistence.
func Reconstruct(id uuid.UUID, code string, discountType DiscountType, discountValue int64, terms Terms, currentUses int, createdBy uuid.UUID, createdAt, updatedAt time.Time) *PromoCode {
	return &PromoCode{
		id: id, code: code, discountType: discountType, discountValue: discountValue,
		terms: terms, currentUses: currentUses,
		createdBy: createdBy, createdAt: createdAt, updatedAt: updatedAt,
	}
}

// IsValid checks if the promo code is currently redeemable.
func (p *PromoCode) IsValid() bool {
	now := time.Now().UTC()
	return now.After(p.terms.ValidFrom) && now.Before(p.terms.ValidUntil) &&
		(p.terms.MaxUses == 0 || p.currentUses < p.terms.MaxUses)
}

// DiscountForStay calculates the discount for a held stay. The stay must meet
// the code's minimum total, minimum length and rate code terms. The result is
// capped at MaxDiscountCents and never exceeds the held total.
func (p *PromoCode) DiscountForStay(stayTotalCents int64, nights int, rateCode string) (int64, error) {
	if !p.IsValid() {
		return 0, fmt.Errorf("promo code is no longer valid")
	}
	if stayTotalCents < p.terms.MinStayTotalCents {
		return 0, fmt.Errorf("stay total of at least %d cents required", p.terms.MinStayTotalCents)
	}
	if nights < p.terms.MinNights {
		return 0, fmt.Errorf("stay of at least %d nights required", p.terms.MinNights)
	}
	if !p.appliesToRate(rateCode) {
		return 0, fmt.Errorf("promo code does not apply to rate %s", rateCode)
	}

	var discount int64
	switch p.discountType {
	case DiscountTypePercentage:
		discount = stayTotalCents * p.discountValue / 100
	case DiscountTypeFixed:
		discount = p.discountValue
	}

	if p.terms.MaxDiscountCents > 0 && discount > p.terms.MaxDiscountCents {
		discount = p.terms.MaxDiscountCents
	}
	if discount > stayTotalCents {
		discount = stayTotalCents
	}

	return discount, nil
}

func (p *PromoCode) appliesToRate(rateCode string) bool {
	if len(p.terms.RateCodes) == 0 {
		return true
	}
	for _, rc := range p.terms.RateCodes {
		if strings.EqualFold(rc, rateCode) {
			return true
		}
	}
	return false
}

// IncrementUses increments the redemption count.
func (p *PromoCode) IncrementUses() {
	p.currentUses++
	p.updatedAt = time.Now().UTC()
}

func normalizeRateCodes(codes []string) []string {
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		c = strings.ToUpper(strings.TrimSpace(c))
		if c != "" {
			out = append(out, c)
		}
	}
	return out
}

// Getters.
func (p *PromoCode) ID() uuid.UUID               { return p.id }
func (p *PromoCode) Code() string                { return p.code }
func (p *PromoCode) DiscountType() DiscountType  { return p.discountType }
func (p *PromoCode) DiscountValue() int64        { return p.discountValue }
func (p *PromoCode) MinStayTotalCents() int64    { return p.terms.MinStayTotalCents }
func (p *PromoCode) MinNights() int              { return p.terms.MinNights }
func (p *PromoCode) RateCodes() []string         { return append([]string(nil), p.terms.RateCodes...) }
func (p *PromoCode) MaxDiscountCents() int64     { return p.terms.MaxDiscountCents }
func (p *PromoCode) MaxUses() int                { return p.terms.MaxUses }
func (p *PromoCode) CurrentUses() int            { return p.currentUses }
func (p *PromoCode) ValidFrom() time.Time        { return p.terms.ValidFrom }
func (p *PromoCode) ValidUntil() time.Time       { return p.terms.ValidUntil }
func (p *PromoCode) CreatedBy() uuid.UUID        { return p.createdBy }
func (p *PromoCode) CreatedAt() time.Time        { return p.createdAt }
func (p *PromoCode) UpdatedAt() time.Time        { return p.updatedAt }
