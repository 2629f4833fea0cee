// Package payment mediates between the booking pipeline and the payment
// processor. The processor is the source of truth for intent status; the
// coordinator only records intents locally so the reconciliation sweep can
// find the ones that never became bookings.
package payment

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/roamstay/service-booking/internal/adapter"
	"github.com/roamstay/service-booking/internal/domain"
	"github.com/roamstay/service-booking/internal/ledger"
)

const (
	refundMaxAttempts = 3
	refundBackoffBase = 500 * time.Millisecond
)

// Result is the outcome of a confirm attempt. RequiresAction is a suspension,
// not a failure: the guest must complete step-up authentication at ActionURL
// before the pipeline can resume.
type Result struct {
	IntentID       string
	Status         adapter.IntentStatus
	Succeeded      bool
	RequiresAction bool
	ActionURL      string
	ChargeRef      string
}

// Coordinator owns intent lifecycle against the processor.
type Coordinator struct {
	processor adapter.ProcessorAdapter
	ledger    *ledger.Ledger
	logger    *zap.Logger
}

// NewCoordinator creates a payment Coordinator.
func NewCoordinator(processor adapter.ProcessorAdapter, l *ledger.Ledger, logger *zap.Logger) *Coordinator {
	return &Coordinator{processor: processor, ledger: l, logger: logger}
}

// EnsureIntent returns the payment intent for a booking reference, creating
// one on first call. Repeat calls with the same reference return the existing
// intent rather than charging twice; a cancelled intent is replaced.
func (c *Coordinator) EnsureIntent(ctx context.Context, bookingRef, email, name string, amountCents int64, currency string) (adapter.Intent, error) {
	rec, err := c.ledger.Intents().FindByBookingRef(ctx, bookingRef)
	if err != nil {
		return adapter.Intent{}, &domain.PersistenceError{Op: "find intent record", Err: err}
	}
	if rec != nil {
		intent, err := c.processor.RetrieveIntent(ctx, rec.IntentID)
		if err != nil {
			return adapter.Intent{}, err
		}
		if intent.Status != adapter.IntentCanceled {
			return intent, nil
		}
		c.logger.Warn("recorded intent was cancelled, creating replacement",
			zap.String("booking_ref", bookingRef),
			zap.String("intent_id", rec.IntentID),
		)
	}

	customerRef, err := c.processor.EnsureCustomer(ctx, email, name)
	if err != nil {
		return adapter.Intent{}, err
	}

	// The booking reference doubles as the idempotency key: a crashed and
	// retried create for the same session lands on the same intent.
	intent, err := c.processor.CreateIntent(ctx, amountCents, currency, customerRef, bookingRef, "intent-"+bookingRef)
	if err != nil {
		return adapter.Intent{}, err
	}

	c.ledger.RecordIntent(ctx, ledger.IntentRecord{
		IntentID:    intent.ID,
		BookingRef:  bookingRef,
		CustomerRef: customerRef,
		AmountCents: amountCents,
		Currency:    currency,
		CreatedAt:   time.Now().UTC(),
	})

	c.logger.Info("payment intent created",
		zap.String("booking_ref", bookingRef),
		zap.String("intent_id", intent.ID),
		zap.Int64("amount_cents", amountCents),
	)
	return intent, nil
}

// Confirm attempts to confirm an intent with the given payment method and
// translates the processor's answer into a Result.
func (c *Coordinator) Confirm(ctx context.Context, intentID, paymentMethod string) (Result, error) {
	intent, err := c.processor.ConfirmIntent(ctx, intentID, paymentMethod)
	if err != nil {
		return Result{}, err
	}
	return c.toResult(intent)
}

// Status fetches the current intent snapshot from the processor and maps it
// to a Result. Used to resume a suspended session after step-up completion.
func (c *Coordinator) Status(ctx context.Context, intentID string) (Result, error) {
	intent, err := c.processor.RetrieveIntent(ctx, intentID)
	if err != nil {
		return Result{}, err
	}
	return c.toResult(intent)
}

// Cancel voids a pre-capture intent. An already-captured intent is reported
// so the caller can fall back to a refund.
func (c *Coordinator) Cancel(ctx context.Context, intentID string) error {
	return c.processor.CancelIntent(ctx, intentID)
}

// Refund refunds amountCents of a captured charge, retrying transient
// processor outages with backoff. The idempotency key keeps retries from
// refunding twice.
func (c *Coordinator) Refund(ctx context.Context, chargeRef string, amountCents int64, idempotencyKey string) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= refundMaxAttempts; attempt++ {
		refundRef, err := c.processor.Refund(ctx, chargeRef, amountCents, idempotencyKey)
		if err == nil {
			return refundRef, nil
		}
		lastErr = err

		var pe *domain.PaymentError
		if !errors.As(err, &pe) || !pe.Retryable() {
			return "", err
		}

		c.logger.Warn("refund attempt failed, retrying",
			zap.String("charge_ref", chargeRef),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(refundBackoffBase * time.Duration(1<<(attempt-1))):
		}
	}
	return "", lastErr
}

func (c *Coordinator) toResult(intent adapter.Intent) (Result, error) {
	result := Result{
		IntentID:  intent.ID,
		Status:    intent.Status,
		ChargeRef: intent.ChargeRef,
	}

	switch intent.Status {
	case adapter.IntentSucceeded:
		result.Succeeded = true
		return result, nil
	case adapter.IntentRequiresAction:
		result.RequiresAction = true
		result.ActionURL = intent.ActionURL
		return result, nil
	case adapter.IntentProcessing, adapter.IntentRequiresPaymentMethod:
		return result, nil
	case adapter.IntentFailed:
		return result, domain.NewPaymentError(domain.PaymentCardDeclined, "payment was declined")
	case adapter.IntentCanceled:
		return result, domain.NewInvalidStateError(string(adapter.IntentCanceled), string(adapter.IntentSucceeded))
	default:
		return result, domain.NewPaymentError(domain.PaymentProcessorUnavailable, "unknown intent status "+string(intent.Status))
	}
}
