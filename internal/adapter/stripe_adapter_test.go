package adapter

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v80"

	"github.com/roamstay/service-booking/internal/domain"
)

func paymentCode(t *testing.T, err error) domain.PaymentErrorCode {
	t.Helper()
	var pe *domain.PaymentError
	require.ErrorAs(t, err, &pe)
	return pe.Code
}

func TestMapStripeErrCardErrors(t *testing.T) {
	declined := &stripe.Error{
		Type: stripe.ErrorTypeCard,
		Code: stripe.ErrorCodeCardDeclined,
		Msg:  "Your card was declined.",
	}
	err := mapStripeErr(declined)
	assert.Equal(t, domain.PaymentCardDeclined, paymentCode(t, err))

	expired := &stripe.Error{
		Type: stripe.ErrorTypeCard,
		Code: stripe.ErrorCodeExpiredCard,
		Msg:  "Your card has expired.",
	}
	err = mapStripeErr(expired)
	assert.Equal(t, domain.PaymentCardDeclined, paymentCode(t, err))

	var pe *domain.PaymentError
	require.ErrorAs(t, err, &pe)
	assert.False(t, pe.Retryable())
}

func TestMapStripeErrUnexpectedState(t *testing.T) {
	err := mapStripeErr(&stripe.Error{
		Type: stripe.ErrorTypeInvalidRequest,
		Code: stripe.ErrorCodePaymentIntentUnexpectedState,
		Msg:  "This PaymentIntent has already succeeded.",
	})
	assert.Equal(t, domain.PaymentAlreadyCaptured, paymentCode(t, err))
}

func TestMapStripeErrNonCardErrorsRetryable(t *testing.T) {
	cases := []*stripe.Error{
		{Type: stripe.ErrorTypeAPI, HTTPStatusCode: 500, Msg: "internal error"},
		{Type: stripe.ErrorTypeInvalidRequest, HTTPStatusCode: 429, Code: stripe.ErrorCodeRateLimit, Msg: "too many requests"},
		{Type: stripe.ErrorTypeInvalidRequest, HTTPStatusCode: 401, Msg: "invalid API key"},
	}
	for _, stripeErr := range cases {
		err := mapStripeErr(stripeErr)
		assert.Equal(t, domain.PaymentProcessorUnavailable, paymentCode(t, err), "type %s", stripeErr.Type)

		var pe *domain.PaymentError
		require.ErrorAs(t, err, &pe)
		assert.True(t, pe.Retryable())
	}
}

func TestMapStripeErrPassthrough(t *testing.T) {
	err := mapStripeErr(errors.New("connection reset"))
	assert.Equal(t, domain.PaymentProcessorUnavailable, paymentCode(t, err))
}
