package events

import (
	"context"
	"strings"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/roamstay/service-booking/internal/pkg/kafka"
)

// SessionResumer resumes a booking session suspended on step-up
// authentication once its payment intent reaches a terminal status.
type SessionResumer interface {
	ResumeByIntent(ctx context.Context, intentID string) error
}

// PaymentEventConsumer listens to payment events and resumes suspended
// booking sessions.
type PaymentEventConsumer struct {
	consumer *kafka.Consumer
	resumer  SessionResumer
	logger   *zap.Logger
}

// NewPaymentEventConsumer creates a consumer for payment events.
func NewPaymentEventConsumer(brokers []string, groupID string, resumer SessionResumer, logger *zap.Logger) *PaymentEventConsumer {
	consumer := kafka.NewConsumer(brokers, groupID, TopicPaymentEvents, logger)
	return &PaymentEventConsumer{
		consumer: consumer,
		resumer:  resumer,
		logger:   logger,
	}
}

// Start begins consuming payment events. It blocks until the context is cancelled.
func (c *PaymentEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.handleMessage)
}

// handleMessage routes incoming Kafka messages to the appropriate handler.
func (c *PaymentEventConsumer) handleMessage(ctx context.Context, msg kafkago.Message) error {
	cloudEvent, err := kafka.ParseCloudEvent(msg.Value)
	if err != nil {
		c.logger.Error("failed to parse cloud event from payment topic",
			zap.Error(err),
			zap.String("raw", string(msg.Value)),
		)
		return err
	}

	c.logger.Info("received payment event",
		zap.String("type", cloudEvent.Type),
		zap.String("id", cloudEvent.ID),
	)

	switch {
	case strings.EqualFold(cloudEvent.Type, PaymentIntentResolved):
		return c.handleIntentResolved(ctx, cloudEvent)

	default:
		c.logger.Debug("ignoring unhandled payment event type",
			zap.String("type", cloudEvent.Type),
		)
		return nil
	}
}

// handleIntentResolved processes a PaymentIntentResolvedEvent.
func (c *PaymentEventConsumer) handleIntentResolved(ctx context.Context, ce kafka.CloudEvent) error {
	var event PaymentIntentResolvedEvent
	if err := ce.ParseData(&event); err != nil {
		c.logger.Error("failed to parse PaymentIntentResolvedEvent data", zap.Error(err))
		return err
	}

	return c.resumer.ResumeByIntent(ctx, event.IntentID)
}

// Close closes the underlying Kafka consumer.
func (c *PaymentEventConsumer) Close() error {
	return c.consumer.Close()
}
