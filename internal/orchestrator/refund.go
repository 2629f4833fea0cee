package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/roamstay/service-booking/internal/domain"
	"github.com/roamstay/service-booking/internal/domain/booking"
	"github.com/roamstay/service-booking/internal/events"
	"github.com/roamstay/service-booking/internal/ledger"
	"github.com/roamstay/service-booking/internal/payment"
	"github.com/roamstay/service-booking/internal/policy"
)

// CancellationResult reports what the guest gets back.
type CancellationResult struct {
	Booking          *booking.Booking
	RefundCents      int64
	PenaltyCents     int64
	RefundPercentage int
	RefundStatus     booking.RefundStatus
	Description      string
}

// RefundCoordinator executes cancellations: policy computation, processor
// refund, local state transition. Order matters: the money moves first, and
// the booking only transitions to CANCELLED once the refund is through. A
// failed refund leaves the booking CONFIRMED so the guest can retry.
type RefundCoordinator struct {
	payments  *payment.Coordinator
	ledger    *ledger.Ledger
	publisher EventPublisher
	notifier  Notifier
	logger    *zap.Logger
	now       func() time.Time
}

// NewRefundCoordinator creates a RefundCoordinator.
func NewRefundCoordinator(payments *payment.Coordinator, l *ledger.Ledger, publisher EventPublisher, notifier Notifier, logger *zap.Logger) *RefundCoordinator {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &RefundCoordinator{
		payments:  payments,
		ledger:    l,
		publisher: publisher,
		notifier:  notifier,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Quote computes what a cancellation right now would refund, without
// executing anything.
func (r *RefundCoordinator) Quote(ctx context.Context, bookingID uuid.UUID) (*booking.Booking, policy.RefundComputation, error) {
	b, err := r.ledger.Bookings().FindByID(ctx, bookingID)
	if err != nil {
		return nil, policy.RefundComputation{}, err
	}
	return b, policy.ComputeRefund(b.TotalCents(), b.CheckIn(), r.now()), nil
}

// Cancel cancels a confirmed booking, refunding per the cancellation policy.
// A zero-refund tier skips the processor entirely and records a SKIPPED
// refund row so the audit trail still shows the decision.
func (r *RefundCoordinator) Cancel(ctx context.Context, bookingID uuid.UUID, reason string) (CancellationResult, error) {
	b, err := r.ledger.Bookings().FindByID(ctx, bookingID)
	if err != nil {
		return CancellationResult{}, err
	}
	bid := b.ID()

	if b.Status() != booking.StatusConfirmed {
		r.ledger.Audit(ctx, &bid, ledger.ActionCancel, ledger.AuditFailed, reason, nil, "INVALID_STATE")
		return CancellationResult{}, domain.ErrInvalidCancellation
	}

	comp := policy.ComputeRefund(b.TotalCents(), b.CheckIn(), r.now())

	status := booking.RefundSkipped
	processorRef := ""
	if comp.RefundAmountCents > 0 {
		intentResult, err := r.payments.Status(ctx, b.PaymentIntentID())
		if err != nil {
			return CancellationResult{}, err
		}

		processorRef, err = r.payments.Refund(ctx, intentResult.ChargeRef, comp.RefundAmountCents, "refund-"+bid.String())
		if err != nil {
			// Booking stays CONFIRMED; the guest keeps their room and can
			// retry the cancellation.
			r.ledger.Audit(ctx, &bid, ledger.ActionCancel, ledger.AuditFailed, reason, nil, errorCode(err))
			r.publisher.Publish(ctx, events.TopicBookingEvents, events.BookingRefundIssue, events.RefundFailedEvent{
				BookingID:   bid,
				RefundCents: comp.RefundAmountCents,
				Reason:      err.Error(),
				OccurredAt:  r.now(),
			})
			return CancellationResult{}, fmt.Errorf("refund failed, booking remains confirmed: %w", err)
		}
		status = booking.RefundSucceeded
	}

	refund := booking.NewRefund(bid, b.PaymentIntentID(), comp.RefundAmountCents, b.Currency(), status, reason, processorRef)
	moneyMoved := status == booking.RefundSucceeded

	if err := r.ledger.SaveRefund(ctx, refund, b.TotalCents()); err != nil {
		if !moneyMoved {
			return CancellationResult{}, err
		}
		// The processor already paid out; record the gap and keep going.
		r.logger.Error("refund executed at processor but not recorded",
			zap.String("booking_id", bid.String()),
			zap.String("processor_ref", processorRef),
			zap.Error(err),
		)
		r.ledger.Audit(ctx, &bid, ledger.ActionCancel, ledger.AuditFailed, reason, processorRef, "PERSISTENCE")
	}

	if err := b.Cancel(reason); err != nil {
		return CancellationResult{}, err
	}
	b.IncrementVersion()
	if err := r.ledger.UpdateBooking(ctx, b); err != nil {
		if !moneyMoved {
			return CancellationResult{}, err
		}
		r.logger.Error("booking refunded but status update failed",
			zap.String("booking_id", bid.String()),
			zap.Error(err),
		)
		r.ledger.Audit(ctx, &bid, ledger.ActionCancel, ledger.AuditFailed, reason, nil, "PERSISTENCE")
	}

	r.ledger.Audit(ctx, &bid, ledger.ActionCancel, ledger.AuditSuccess, reason, comp, "")

	r.publisher.Publish(ctx, events.TopicBookingEvents, events.BookingCancelled, events.BookingCancelledEvent{
		BookingID:        bid,
		GuestEmail:       b.Guest().Email,
		RefundCents:      comp.RefundAmountCents,
		PenaltyCents:     comp.PenaltyCents,
		RefundPercentage: comp.RefundPercentage,
		Reason:           reason,
		OccurredAt:       r.now(),
	})
	r.notifier.EnqueueEmail(b.Guest().Email, "booking_cancelled", bid)

	r.logger.Info("booking cancelled",
		zap.String("booking_id", bid.String()),
		zap.Int64("refund_cents", comp.RefundAmountCents),
		zap.Int64("penalty_cents", comp.PenaltyCents),
		zap.String("refund_status", string(status)),
	)

	return CancellationResult{
		Booking:          b,
		RefundCents:      comp.RefundAmountCents,
		PenaltyCents:     comp.PenaltyCents,
		RefundPercentage: comp.RefundPercentage,
		RefundStatus:     status,
		Description:      comp.Description,
	}, nil
}
