// Package events defines the booking service's Kafka topics and event
// payloads, plus the publisher and consumers that move them.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/roamstay/service-booking/internal/pkg/kafka"
)

// Topics.
const (
	TopicBookingEvents      = "booking.events"
	TopicPaymentEvents      = "payment.events"
	TopicNotificationEvents = "notification.events"
)

// Event types carried on the booking topic.
const (
	BookingConfirmed   = "booking.confirmed"
	BookingCancelled   = "booking.cancelled"
	BookingRefundIssue = "booking.refund_failed"
)

// Event types consumed from the payment topic.
const (
	PaymentIntentResolved = "payment.intent.resolved"
)

// Event types on the notification topic.
const (
	NotifyGuestEmail = "notification.guest.email"
)

// EventSource identifies this service in CloudEvent envelopes.
const EventSource = "service-booking"

// BookingConfirmedEvent announces a supplier-committed, paid booking.
type BookingConfirmedEvent struct {
	BookingID         uuid.UUID `json:"booking_id"`
	SupplierBookingID string    `json:"supplier_booking_id"`
	HotelID           string    `json:"hotel_id"`
	GuestEmail        string    `json:"guest_email"`
	CheckIn           time.Time `json:"check_in"`
	CheckOut          time.Time `json:"check_out"`
	TotalCents        int64     `json:"total_cents"`
	Currency          string    `json:"currency"`
	OccurredAt        time.Time `json:"occurred_at"`
}

// BookingCancelledEvent announces a cancellation and its refund outcome.
type BookingCancelledEvent struct {
	BookingID        uuid.UUID `json:"booking_id"`
	GuestEmail       string    `json:"guest_email"`
	RefundCents      int64     `json:"refund_cents"`
	PenaltyCents     int64     `json:"penalty_cents"`
	RefundPercentage int       `json:"refund_percentage"`
	Reason           string    `json:"reason"`
	OccurredAt       time.Time `json:"occurred_at"`
}

// RefundFailedEvent flags a cancellation whose processor refund did not go
// through; the booking stays confirmed and operations must follow up.
type RefundFailedEvent struct {
	BookingID   uuid.UUID `json:"booking_id"`
	RefundCents int64     `json:"refund_cents"`
	Reason      string    `json:"reason"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// PaymentIntentResolvedEvent arrives from the payment topic when a suspended
// intent (step-up authentication) reaches a terminal status out of band.
type PaymentIntentResolvedEvent struct {
	IntentID   string    `json:"intent_id"`
	Status     string    `json:"status"`
	OccurredAt time.Time `json:"occurred_at"`
}

// GuestEmailEvent is the payload for guest-facing notifications.
type GuestEmailEvent struct {
	Email      string    `json:"email"`
	Template   string    `json:"template"`
	BookingID  uuid.UUID `json:"booking_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher wraps the Kafka producer with the CloudEvent envelope.
type Publisher struct {
	producer *kafka.Producer
	logger   *zap.Logger
}

// NewPublisher creates a Publisher.
func NewPublisher(producer *kafka.Producer, logger *zap.Logger) *Publisher {
	return &Publisher{producer: producer, logger: logger}
}

// Publish wraps payload in a CloudEvent and writes it to topic. Failures are
// logged and swallowed: events are notifications, never part of the booking
// transaction.
func (p *Publisher) Publish(ctx context.Context, topic, eventType string, payload any) {
	ce, err := kafka.NewCloudEvent(EventSource, eventType, payload)
	if err != nil {
		p.logger.Error("failed to build cloud event",
			zap.String("type", eventType),
			zap.Error(err),
		)
		return
	}
	if err := p.producer.PublishEvent(ctx, topic, ce); err != nil {
		p.logger.Error("failed to publish event",
			zap.String("topic", topic),
			zap.String("type", eventType),
			zap.Error(err),
		)
	}
}
