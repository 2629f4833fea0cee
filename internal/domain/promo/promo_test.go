package promo

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTerms() Terms {
	now := time.Now().UTC()
	return Terms{
		ValidFrom:  now.Add(-time.Hour),
		ValidUntil: now.Add(24 * time.Hour),
	}
}

func mustPromo(t *testing.T, discountType DiscountType, discountValue int64, terms Terms) *PromoCode {
	t.Helper()
	p, err := NewPromoCode("STAYMORE", discountType, discountValue, terms, uuid.New())
	require.NoError(t, err)
	return p
}

func TestNewPromoCodeNormalizesCodeAndRates(t *testing.T) {
	terms := testTerms()
	terms.RateCodes = []string{" flex ", "nonref", ""}

	p, err := NewPromoCode("  winter10 ", DiscountTypePercentage, 10, terms, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, "WINTER10", p.Code())
	assert.Equal(t, []string{"FLEX", "NONREF"}, p.RateCodes())
}

func TestNewPromoCodeRejectsBadInput(t *testing.T) {
	terms := testTerms()
	creator := uuid.New()

	_, err := NewPromoCode("", DiscountTypePercentage, 10, terms, creator)
	assert.Error(t, err)

	_, err = NewPromoCode("X", "bogus", 10, terms, creator)
	assert.Error(t, err)

	_, err = NewPromoCode("X", DiscountTypeFixed, 0, terms, creator)
	assert.Error(t, err)

	_, err = NewPromoCode("X", DiscountTypePercentage, 120, terms, creator)
	assert.Error(t, err)

	badNights := terms
	badNights.MinNights = -1
	_, err = NewPromoCode("X", DiscountTypePercentage, 10, badNights, creator)
	assert.Error(t, err)

	inverted := terms
	inverted.ValidUntil = inverted.ValidFrom.Add(-time.Hour)
	_, err = NewPromoCode("X", DiscountTypePercentage, 10, inverted, creator)
	assert.Error(t, err)
}

func TestDiscountForStayPercentageCapped(t *testing.T) {
	terms := testTerms()
	terms.MaxDiscountCents = 5000

	p := mustPromo(t, DiscountTypePercentage, 20, terms)

	// 20% of 40000 is 8000, capped at 5000.
	discount, err := p.DiscountForStay(40000, 3, "FLEX")
	require.NoError(t, err)
	assert.Equal(t, int64(5000), discount)
}

func TestDiscountForStayFixedNeverExceedsTotal(t *testing.T) {
	p := mustPromo(t, DiscountTypeFixed, 10000, testTerms())

	discount, err := p.DiscountForStay(7500, 1, "FLEX")
	require.NoError(t, err)
	assert.Equal(t, int64(7500), discount)
}

func TestDiscountForStayMinNights(t *testing.T) {
	terms := testTerms()
	terms.MinNights = 3

	p := mustPromo(t, DiscountTypePercentage, 10, terms)

	_, err := p.DiscountForStay(40000, 2, "FLEX")
	require.Error(t, err)

	discount, err := p.DiscountForStay(40000, 3, "FLEX")
	require.NoError(t, err)
	assert.Equal(t, int64(4000), discount)
}

func TestDiscountForStayMinStayTotal(t *testing.T) {
	terms := testTerms()
	terms.MinStayTotalCents = 30000

	p := mustPromo(t, DiscountTypeFixed, 2000, terms)

	_, err := p.DiscountForStay(25000, 2, "FLEX")
	require.Error(t, err)

	discount, err := p.DiscountForStay(30000, 2, "FLEX")
	require.NoError(t, err)
	assert.Equal(t, int64(2000), discount)
}

func TestDiscountForStayRateCodeTerms(t *testing.T) {
	terms := testTerms()
	terms.RateCodes = []string{"FLEX"}

	p := mustPromo(t, DiscountTypePercentage, 10, terms)

	_, err := p.DiscountForStay(40000, 2, "NONREF")
	require.Error(t, err)

	// Matching is case-insensitive.
	discount, err := p.DiscountForStay(40000, 2, "flex")
	require.NoError(t, err)
	assert.Equal(t, int64(4000), discount)

	// An empty rate list applies to every rate.
	open := mustPromo(t, DiscountTypePercentage, 10, testTerms())
	_, err = open.DiscountForStay(40000, 2, "NONREF")
	require.NoError(t, err)
}

func TestPromoValidityWindowAndUses(t *testing.T) {
	expired := testTerms()
	expired.ValidFrom = time.Now().UTC().Add(-48 * time.Hour)
	expired.ValidUntil = time.Now().UTC().Add(-24 * time.Hour)

	p := mustPromo(t, DiscountTypePercentage, 10, expired)
	assert.False(t, p.IsValid())
	_, err := p.DiscountForStay(40000, 2, "FLEX")
	require.Error(t, err)

	limited := testTerms()
	limited.MaxUses = 1
	q := mustPromo(t, DiscountTypePercentage, 10, limited)
	assert.True(t, q.IsValid())
	q.IncrementUses()
	assert.False(t, q.IsValid())
}
