package booking

import (
	"time"

	"github.com/google/uuid"
)

// RefundStatus is the outcome of a refund attempt against the processor.
type RefundStatus string

const (
	RefundSucceeded RefundStatus = "SUCCEEDED"
	RefundSkipped   RefundStatus = "SKIPPED" // zero-refund tier, no processor call
)

// Refund records money returned to the guest for a cancelled booking.
// Write-once; the sum of refunds for a booking never exceeds the original
// payment amount.
type Refund struct {
	ID              uuid.UUID
	BookingID       uuid.UUID
	PaymentIntentID string
	AmountCents     int64
	Currency        string
	Status          RefundStatus
	Reason          string
	ProcessorRef    string
	CreatedAt       time.Time
}

// NewRefund creates a refund record for a processed (or skipped) refund.
func NewRefund(bookingID uuid.UUID, paymentIntentID string, amountCents int64, currency string, status RefundStatus, reason, processorRef string) Refund {
	return Refund{
		ID:              uuid.New(),
		BookingID:       bookingID,
		PaymentIntentID: paymentIntentID,
		AmountCents:     amountCents,
		Currency:        currency,
		Status:          status,
		Reason:          reason,
		ProcessorRef:    processorRef,
		CreatedAt:       time.Now().UTC(),
	}
}
