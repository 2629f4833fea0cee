package adapter

import (
	"context"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v80"
	"github.com/stripe/stripe-go/v80/customer"
	"github.com/stripe/stripe-go/v80/paymentintent"
	"github.com/stripe/stripe-go/v80/refund"
	"go.uber.org/zap"

	"github.com/roamstay/service-booking/internal/domain"
)

// StripeProcessorAdapter implements ProcessorAdapter against the Stripe API.
type StripeProcessorAdapter struct {
	logger *zap.Logger
}

// NewStripeProcessorAdapter configures the Stripe client and returns the adapter.
func NewStripeProcessorAdapter(secretKey string, logger *zap.Logger) *StripeProcessorAdapter {
	stripe.Key = secretKey
	return &StripeProcessorAdapter{logger: logger}
}

// EnsureCustomer looks up an existing customer by email before creating a new
// one, so retried bookings do not multiply charge targets.
func (a *StripeProcessorAdapter) EnsureCustomer(ctx context.Context, email, name string) (string, error) {
	listParams := &stripe.CustomerListParams{Email: stripe.String(email)}
	listParams.Limit = stripe.Int64(1)
	iter := customer.List(listParams)
	for iter.Next() {
		return iter.Customer().ID, nil
	}
	if err := iter.Err(); err != nil {
		return "", mapStripeErr(err)
	}

	cus, err := customer.New(&stripe.CustomerParams{
		Email: stripe.String(email),
		Name:  stripe.String(name),
	})
	if err != nil {
		return "", mapStripeErr(err)
	}
	return cus.ID, nil
}

// CreateIntent creates a payment intent tagged with the booking reference.
func (a *StripeProcessorAdapter) CreateIntent(ctx context.Context, amountCents int64, currency, customerRef, bookingRef, idempotencyKey string) (Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountCents),
		Currency: stripe.String(currency),
		Customer: stripe.String(customerRef),
	}
	params.AddMetadata("booking_ref", bookingRef)
	params.SetIdempotencyKey(idempotencyKey)

	pi, err := paymentintent.New(params)
	if err != nil {
		return Intent{}, mapStripeErr(err)
	}
	return toIntent(pi), nil
}

// ConfirmIntent confirms with the given payment method. requires_action comes
// back in the snapshot, not as an error.
func (a *StripeProcessorAdapter) ConfirmIntent(ctx context.Context, intentID, paymentMethod string) (Intent, error) {
	params := &stripe.PaymentIntentConfirmParams{
		PaymentMethod: stripe.String(paymentMethod),
	}
	pi, err := paymentintent.Confirm(intentID, params)
	if err != nil {
		return Intent{}, mapStripeErr(err)
	}
	return toIntent(pi), nil
}

// RetrieveIntent fetches the current snapshot.
func (a *StripeProcessorAdapter) RetrieveIntent(ctx context.Context, intentID string) (Intent, error) {
	pi, err := paymentintent.Get(intentID, nil)
	if err != nil {
		return Intent{}, mapStripeErr(err)
	}
	return toIntent(pi), nil
}

// CancelIntent cancels a pre-capture intent.
func (a *StripeProcessorAdapter) CancelIntent(ctx context.Context, intentID string) error {
	if _, err := paymentintent.Cancel(intentID, nil); err != nil {
		return mapStripeErr(err)
	}
	return nil
}

// Refund refunds part of a captured charge.
func (a *StripeProcessorAdapter) Refund(ctx context.Context, chargeRef string, amountCents int64, idempotencyKey string) (string, error) {
	params := &stripe.RefundParams{
		Charge: stripe.String(chargeRef),
		Amount: stripe.Int64(amountCents),
	}
	params.SetIdempotencyKey(idempotencyKey)

	r, err := refund.New(params)
	if err != nil {
		return "", mapStripeErr(err)
	}
	a.logger.Info("stripe refund created",
		zap.String("refund_id", r.ID),
		zap.String("charge", chargeRef),
		zap.Int64("amount_cents", amountCents),
	)
	return r.ID, nil
}

// toIntent converts a Stripe payment intent into the typed boundary snapshot.
func toIntent(pi *stripe.PaymentIntent) Intent {
	intent := Intent{
		ID:          pi.ID,
		Status:      IntentStatus(pi.Status),
		AmountCents: pi.Amount,
		Currency:    string(pi.Currency),
	}
	if pi.Customer != nil {
		intent.CustomerRef = pi.Customer.ID
	}
	if pi.LatestCharge != nil {
		intent.ChargeRef = pi.LatestCharge.ID
	}
	if pi.NextAction != nil && pi.NextAction.RedirectToURL != nil {
		intent.ActionURL = pi.NextAction.RedirectToURL.URL
	}
	return intent
}

// mapStripeErr converts Stripe errors into the service's payment taxonomy.
func mapStripeErr(err error) error {
	var stripeErr *stripe.Error
	if !errors.As(err, &stripeErr) {
		return domain.NewPaymentError(domain.PaymentProcessorUnavailable, err.Error())
	}

	switch {
	case stripeErr.Code == stripe.ErrorCodePaymentIntentUnexpectedState:
		return domain.NewPaymentError(domain.PaymentAlreadyCaptured, stripeErr.Msg)
	case stripeErr.Type == stripe.ErrorTypeCard:
		return domain.NewPaymentError(domain.PaymentCardDeclined, fmt.Sprintf("%s: %s", stripeErr.Code, stripeErr.Msg))
	default:
		// Non-card errors (rate limits, auth failures, 5xx) are
		// processor-side and retryable.
		return domain.NewPaymentError(domain.PaymentProcessorUnavailable, fmt.Sprintf("%s: %s", stripeErr.Code, stripeErr.Msg))
	}
}
