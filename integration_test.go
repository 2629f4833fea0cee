//go:build integration

package main_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roamstay/service-booking/internal/adapter"
	"github.com/roamstay/service-booking/internal/domain/booking"
	bookingEvents "github.com/roamstay/service-booking/internal/events"
	"github.com/roamstay/service-booking/internal/hold"
	"github.com/roamstay/service-booking/internal/orchestrator"
	"github.com/roamstay/service-booking/internal/repository"
)

// startSession drives a session through hold and guest details.
func startSession(t *testing.T, stack *bookingStack) string {
	t.Helper()
	ctx := context.Background()

	checkIn := time.Now().UTC().AddDate(0, 0, 30).Truncate(24 * time.Hour)
	sess, _, err := stack.Orchestrator.StartHold(ctx, hold.HoldRequest{
		HotelID:   "HTL-LIS-001",
		RoomID:    "DBL-SEA",
		RateCode:  "FLEX",
		CheckIn:   checkIn,
		CheckOut:  checkIn.AddDate(0, 0, 3),
		Occupancy: 2,
	})
	require.NoError(t, err, "failed to start hold")

	guest := booking.Guest{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
		Phone:     "+351911111111",
	}
	_, err = stack.Orchestrator.SubmitGuestDetails(ctx, sess.ID, guest, "", 0)
	require.NoError(t, err, "failed to submit guest details")

	return sess.ID
}

// TestStepUpResolved_ConfirmsBooking verifies the suspended-session path end
// to end: a requires_action confirm suspends the session, and a
// payment.intent.resolved event on Kafka resumes it, commits the supplier,
// writes the booking row, and publishes booking.confirmed.
func TestStepUpResolved_ConfirmsBooking(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupBookingStack(t, infra.DB, infra.KafkaBrokers)
	defer stack.CleanupProducer()
	defer func() { _ = stack.Consumer.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = stack.Consumer.Start(ctx) }()
	time.Sleep(3 * time.Second) // Wait for consumer group join.

	sessionID := startSession(t, stack)

	// The processor demands step-up authentication on the first confirm.
	stack.Processor.ConfirmOutcomes = []adapter.IntentStatus{adapter.IntentRequiresAction}

	outcome, err := stack.Orchestrator.Pay(context.Background(), sessionID, "pm_card_test")
	require.NoError(t, err, "requires_action must not be an error")
	require.True(t, outcome.RequiresAction)
	assert.NotEmpty(t, outcome.ActionURL)

	sess, _, err := stack.Orchestrator.GetState(context.Background(), sessionID)
	require.NoError(t, err)
	require.Equal(t, orchestrator.StateAwaitingAction, sess.State)
	require.NotEmpty(t, sess.IntentID)

	// Guest completes 3DS out of band; the processor reports it via the
	// payment events topic.
	stack.Processor.ResolveAction(sess.IntentID)
	publishTestEvent(t, infra.KafkaBrokers, bookingEvents.TopicPaymentEvents,
		"service-payment-gateway", bookingEvents.PaymentIntentResolved,
		bookingEvents.PaymentIntentResolvedEvent{
			IntentID:   sess.IntentID,
			Status:     "succeeded",
			OccurredAt: time.Now().UTC(),
		})

	// Assert: booking row lands in Postgres as CONFIRMED.
	model := waitForBookingStatus(t, infra.DB, sess.IntentID, "CONFIRMED", 15*time.Second)
	assert.NotEmpty(t, model.SupplierBookingID)
	assert.Equal(t, "ada@example.com", model.GuestEmail)
	assert.Equal(t, int64(testPriceCents), model.TotalCents)

	// Assert: booking.confirmed on booking.events.
	ce := consumeOneEvent(t, infra.KafkaBrokers, bookingEvents.TopicBookingEvents,
		bookingEvents.BookingConfirmed, 15*time.Second)

	var confirmed bookingEvents.BookingConfirmedEvent
	require.NoError(t, ce.ParseData(&confirmed))
	assert.Equal(t, model.ID, confirmed.BookingID)
	assert.Equal(t, model.SupplierBookingID, confirmed.SupplierBookingID)
	assert.Equal(t, testCurrency, confirmed.Currency)
}

// TestCancellation_RefundsAndPublishes verifies that cancelling a confirmed
// booking refunds through the processor, records the refund row, flips the
// booking to CANCELLED, and publishes booking.cancelled.
func TestCancellation_RefundsAndPublishes(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupBookingStack(t, infra.DB, infra.KafkaBrokers)
	defer stack.CleanupProducer()

	sessionID := startSession(t, stack)

	outcome, err := stack.Orchestrator.Pay(context.Background(), sessionID, "pm_card_test")
	require.NoError(t, err)
	require.NotNil(t, outcome.Booking)
	bookingID := outcome.Booking.ID()

	result, err := stack.Refunds.Cancel(context.Background(), bookingID, "change of plans")
	require.NoError(t, err)

	// Check-in is 30 days out: full refund tier.
	assert.Equal(t, 100, result.RefundPercentage)
	assert.Equal(t, int64(testPriceCents), result.RefundCents)
	assert.Equal(t, int64(0), result.PenaltyCents)
	require.Len(t, stack.Processor.RefundCalls, 1)
	assert.Equal(t, int64(testPriceCents), stack.Processor.RefundCalls[0].AmountCents)

	// Assert: DB state.
	var model repository.BookingModel
	require.NoError(t, infra.DB.Where("id = ?", bookingID).First(&model).Error)
	assert.Equal(t, "CANCELLED", model.Status)
	assert.NotNil(t, model.CancelledAt)

	var refundCount int64
	infra.DB.Model(&repository.RefundModel{}).Where("booking_id = ?", bookingID).Count(&refundCount)
	assert.Equal(t, int64(1), refundCount)

	// Assert: booking.cancelled on booking.events.
	ce := consumeOneEvent(t, infra.KafkaBrokers, bookingEvents.TopicBookingEvents,
		bookingEvents.BookingCancelled, 15*time.Second)

	var cancelled bookingEvents.BookingCancelledEvent
	require.NoError(t, ce.ParseData(&cancelled))
	assert.Equal(t, bookingID, cancelled.BookingID)
	assert.Equal(t, int64(testPriceCents), cancelled.RefundCents)
	assert.Equal(t, "change of plans", cancelled.Reason)
}

// TestIntentResolved_UnknownIntent_Skips verifies that a resolution event for
// an intent this service never issued is ignored without errors.
func TestIntentResolved_UnknownIntent_Skips(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupBookingStack(t, infra.DB, infra.KafkaBrokers)
	defer stack.CleanupProducer()
	defer func() { _ = stack.Consumer.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = stack.Consumer.Start(ctx) }()
	time.Sleep(3 * time.Second)

	publishTestEvent(t, infra.KafkaBrokers, bookingEvents.TopicPaymentEvents,
		"service-payment-gateway", bookingEvents.PaymentIntentResolved,
		bookingEvents.PaymentIntentResolvedEvent{
			IntentID:   "pi_unknown_00000000",
			Status:     "succeeded",
			OccurredAt: time.Now().UTC(),
		})

	// Give consumer time to process. No crash expected.
	time.Sleep(5 * time.Second)

	var count int64
	infra.DB.Model(&repository.BookingModel{}).Count(&count)
	assert.Equal(t, int64(0), count, "no booking should exist")
}

// TestPayReplay_SingleBookingRow verifies that replaying the pay call on a
// confirmed session returns the same booking and never writes a second row.
func TestPayReplay_SingleBookingRow(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupBookingStack(t, infra.DB, infra.KafkaBrokers)
	defer stack.CleanupProducer()

	sessionID := startSession(t, stack)

	first, err := stack.Orchestrator.Pay(context.Background(), sessionID, "pm_card_test")
	require.NoError(t, err)
	require.NotNil(t, first.Booking)

	second, err := stack.Orchestrator.Pay(context.Background(), sessionID, "pm_card_test")
	require.NoError(t, err)
	require.NotNil(t, second.Booking)
	assert.Equal(t, first.Booking.ID(), second.Booking.ID())

	var count int64
	infra.DB.Model(&repository.BookingModel{}).Count(&count)
	assert.Equal(t, int64(1), count, "replay must not create a second booking row")
}
