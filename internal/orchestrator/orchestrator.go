// Package orchestrator drives the booking pipeline: hold, guest details,
// payment, supplier commit, local record. Session state lives in an
// externally keyed TTL store; supplier and processor state live with the
// supplier and the processor.
package orchestrator

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/roamstay/service-booking/internal/domain"
	"github.com/roamstay/service-booking/internal/domain/booking"
	"github.com/roamstay/service-booking/internal/events"
	"github.com/roamstay/service-booking/internal/hold"
	"github.com/roamstay/service-booking/internal/ledger"
	"github.com/roamstay/service-booking/internal/payment"
	"github.com/roamstay/service-booking/internal/saga"
)

// EventPublisher publishes lifecycle events. Satisfied by events.Publisher.
type EventPublisher interface {
	Publish(ctx context.Context, topic, eventType string, payload any)
}

// Notifier enqueues guest-facing notifications without blocking the pipeline.
type Notifier interface {
	EnqueueEmail(email, template string, bookingID uuid.UUID)
}

// NopNotifier drops notifications; used when no dispatcher is wired.
type NopNotifier struct{}

func (NopNotifier) EnqueueEmail(string, string, uuid.UUID) {}

// PayOutcome is the result of a payment attempt on a session.
type PayOutcome struct {
	SessionID      string
	State          State
	RequiresAction bool
	ActionURL      string
	Booking        *booking.Booking
}

// errNotCaptured aborts the confirm saga before anything executed when the
// intent did not reach succeeded.
var errNotCaptured = errors.New("payment intent not captured")

// Orchestrator owns the session state machine.
type Orchestrator struct {
	holds     *hold.Manager
	payments  *payment.Coordinator
	ledger    *ledger.Ledger
	confirmer *Confirmer
	sessions  SessionStore
	publisher EventPublisher
	notifier  Notifier
	logger    *zap.Logger
}

// New creates an Orchestrator.
func New(holds *hold.Manager, payments *payment.Coordinator, l *ledger.Ledger, confirmer *Confirmer, sessions SessionStore, publisher EventPublisher, notifier Notifier, logger *zap.Logger) *Orchestrator {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Orchestrator{
		holds:     holds,
		payments:  payments,
		ledger:    l,
		confirmer: confirmer,
		sessions:  sessions,
		publisher: publisher,
		notifier:  notifier,
		logger:    logger,
	}
}

// StartHold opens a new session by acquiring a supplier hold.
func (o *Orchestrator) StartHold(ctx context.Context, req hold.HoldRequest) (*Session, hold.Hold, error) {
	sessionID := uuid.New().String()

	h, err := o.holds.Acquire(ctx, sessionID, req)
	if err != nil {
		o.ledger.Audit(ctx, nil, ledger.ActionPrebook, ledger.AuditFailed, req, nil, errorCode(err))
		return nil, hold.Hold{}, err
	}
	o.ledger.Audit(ctx, nil, ledger.ActionPrebook, ledger.AuditSuccess, req, h, "")

	now := time.Now().UTC()
	sess := &Session{
		ID:        sessionID,
		State:     StateHeld,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := o.sessions.Put(ctx, sess); err != nil {
		return nil, hold.Hold{}, &domain.PersistenceError{Op: "save session", Err: err}
	}
	return sess, h, nil
}

// SubmitGuestDetails attaches guest contact details and any promo discount to
// the session. The hold must still be alive.
func (o *Orchestrator) SubmitGuestDetails(ctx context.Context, sessionID string, guest booking.Guest, promoCode string, discountCents int64) (*Session, error) {
	sess, err := o.loadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.State == StateConfirmed {
		return nil, domain.NewConflictError("session is already confirmed")
	}
	if !guest.Complete() {
		return nil, domain.NewValidationError("guest first name, last name, email and phone are required")
	}
	if discountCents < 0 {
		return nil, domain.NewValidationError("discount cannot be negative")
	}

	h, err := o.holds.Current(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if discountCents >= h.PriceCents {
		return nil, domain.NewValidationError("discount cannot cover the full price")
	}

	sess.Guest = guest
	sess.PromoCode = promoCode
	sess.DiscountCents = discountCents
	sess.State = StateDetails
	sess.UpdatedAt = time.Now().UTC()
	if err := o.sessions.Put(ctx, sess); err != nil {
		return nil, &domain.PersistenceError{Op: "save session", Err: err}
	}
	return sess, nil
}

// Pay runs the paid half of the pipeline: refresh the hold, ensure and
// confirm the payment intent, commit with the supplier, record the booking.
// A requires_action answer suspends the session instead of failing it.
func (o *Orchestrator) Pay(ctx context.Context, sessionID, paymentMethod string) (PayOutcome, error) {
	sess, err := o.loadSession(ctx, sessionID)
	if err != nil {
		return PayOutcome{}, err
	}

	switch sess.State {
	case StateConfirmed:
		// Replay of a finished session: return the recorded outcome.
		return o.confirmedOutcome(ctx, sess)
	case StateHeld:
		return PayOutcome{}, domain.NewValidationError("guest details must be submitted before payment")
	}

	h, _, err := o.holds.EnsureFresh(ctx, sessionID)
	if err != nil {
		return PayOutcome{}, err
	}
	totalCents := h.PriceCents - sess.DiscountCents

	intent, err := o.payments.EnsureIntent(ctx, sess.ID, sess.Guest.Email, sess.Guest.FirstName+" "+sess.Guest.LastName, totalCents, h.Currency)
	if err != nil {
		return PayOutcome{}, err
	}
	sess.IntentID = intent.ID

	result, err := o.payments.Confirm(ctx, intent.ID, paymentMethod)
	if err != nil {
		o.ledger.Audit(ctx, nil, ledger.ActionBook, ledger.AuditFailed, sess.ID, nil, errorCode(err))
		return PayOutcome{}, err
	}

	if result.RequiresAction {
		sess.State = StateAwaitingAction
		sess.ActionURL = result.ActionURL
		sess.UpdatedAt = time.Now().UTC()
		if err := o.sessions.Put(ctx, sess); err != nil {
			return PayOutcome{}, &domain.PersistenceError{Op: "save session", Err: err}
		}
		return PayOutcome{
			SessionID:      sess.ID,
			State:          sess.State,
			RequiresAction: true,
			ActionURL:      result.ActionURL,
		}, nil
	}

	if !result.Succeeded {
		// Processing: the processor has not settled yet. Keep the session
		// where it is; the payment events consumer resumes it.
		sess.UpdatedAt = time.Now().UTC()
		if err := o.sessions.Put(ctx, sess); err != nil {
			return PayOutcome{}, &domain.PersistenceError{Op: "save session", Err: err}
		}
		return PayOutcome{SessionID: sess.ID, State: sess.State}, nil
	}

	return o.finalize(ctx, sess, h, totalCents, result)
}

// ResumeByIntent re-checks a suspended session's intent and finishes the
// pipeline when the guest completed step-up authentication.
func (o *Orchestrator) ResumeByIntent(ctx context.Context, intentID string) error {
	rec, err := o.ledger.Intents().FindByIntentID(ctx, intentID)
	if err != nil {
		return &domain.PersistenceError{Op: "find intent record", Err: err}
	}
	if rec == nil {
		o.logger.Debug("intent resolution for unknown intent", zap.String("intent_id", intentID))
		return nil
	}

	sess, err := o.sessions.Get(ctx, rec.BookingRef)
	if err != nil {
		return err
	}
	if sess == nil || sess.State != StateAwaitingAction {
		return nil
	}

	result, err := o.payments.Status(ctx, intentID)
	if err != nil {
		return err
	}
	if !result.Succeeded {
		o.logger.Info("suspended session not yet resolved",
			zap.String("session_id", sess.ID),
			zap.String("status", string(result.Status)),
		)
		return nil
	}

	h, _, err := o.holds.EnsureFresh(ctx, sess.ID)
	if err != nil {
		return err
	}

	_, err = o.finalize(ctx, sess, h, h.PriceCents-sess.DiscountCents, result)
	return err
}

// GetState returns the session and its hold, if any.
func (o *Orchestrator) GetState(ctx context.Context, sessionID string) (*Session, *hold.Hold, error) {
	sess, err := o.loadSession(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	h, err := o.holds.Current(ctx, sessionID)
	if err != nil {
		// Absent hold is normal for confirmed sessions.
		return sess, nil, nil
	}
	return sess, &h, nil
}

// Abandon releases the session's hold and drops the session. Confirmed
// sessions cannot be abandoned.
func (o *Orchestrator) Abandon(ctx context.Context, sessionID string) error {
	sess, err := o.loadSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if sess.State == StateConfirmed {
		return domain.NewConflictError("confirmed sessions cannot be abandoned")
	}
	if err := o.holds.Release(ctx, sessionID); err != nil {
		return err
	}
	return o.sessions.Delete(ctx, sessionID)
}

// finalize runs the post-capture half as a saga. The capture step is already
// done; it participates so its compensation (a full refund) runs when the
// supplier commit fails. The commit step has no compensation: the supplier
// wins once it has the reservation.
func (o *Orchestrator) finalize(ctx context.Context, sess *Session, h hold.Hold, totalCents int64, result payment.Result) (PayOutcome, error) {
	var b *booking.Booking

	sg := saga.New("confirm_booking", o.logger)
	sg.AddStep(saga.Step{
		Name: "payment_captured",
		Execute: func(ctx context.Context) error {
			if !result.Succeeded {
				return errNotCaptured
			}
			return nil
		},
		Compensate: func(ctx context.Context) error {
			_, err := o.payments.Refund(ctx, result.ChargeRef, totalCents, "compensate-"+sess.ID)
			if err != nil {
				o.publisher.Publish(ctx, events.TopicBookingEvents, events.BookingRefundIssue, events.RefundFailedEvent{
					RefundCents: totalCents,
					Reason:      "compensation after supplier commit failure",
					OccurredAt:  time.Now().UTC(),
				})
			}
			return err
		},
	})
	sg.AddStep(saga.Step{
		Name: "commit_supplier",
		Execute: func(ctx context.Context) error {
			var err error
			b, err = o.confirmer.ConfirmBooking(ctx, sess.ID, h, sess.Guest, totalCents, result.IntentID)
			return err
		},
	})

	if err := sg.Execute(ctx); err != nil {
		return PayOutcome{}, err
	}

	if err := o.holds.Release(ctx, sess.ID); err != nil {
		o.logger.Warn("failed to release hold after confirm",
			zap.String("session_id", sess.ID),
			zap.Error(err),
		)
	}

	bid := b.ID()
	sess.State = StateConfirmed
	sess.BookingID = &bid
	sess.ActionURL = ""
	sess.UpdatedAt = time.Now().UTC()
	if err := o.sessions.Put(ctx, sess); err != nil {
		// The booking exists; a stale session only costs a replayed lookup.
		o.logger.Error("failed to save confirmed session",
			zap.String("session_id", sess.ID),
			zap.Error(err),
		)
	}

	o.publisher.Publish(ctx, events.TopicBookingEvents, events.BookingConfirmed, events.BookingConfirmedEvent{
		BookingID:         bid,
		SupplierBookingID: b.SupplierBookingID(),
		HotelID:           b.HotelID(),
		GuestEmail:        b.Guest().Email,
		CheckIn:           b.CheckIn(),
		CheckOut:          b.CheckOut(),
		TotalCents:        b.TotalCents(),
		Currency:          b.Currency(),
		OccurredAt:        time.Now().UTC(),
	})
	o.notifier.EnqueueEmail(b.Guest().Email, "booking_confirmed", bid)

	return PayOutcome{
		SessionID: sess.ID,
		State:     StateConfirmed,
		Booking:   b,
	}, nil
}

func (o *Orchestrator) confirmedOutcome(ctx context.Context, sess *Session) (PayOutcome, error) {
	outcome := PayOutcome{SessionID: sess.ID, State: StateConfirmed}
	if sess.BookingID != nil {
		if b, err := o.ledger.Bookings().FindByID(ctx, *sess.BookingID); err == nil {
			outcome.Booking = b
		}
	}
	return outcome, nil
}

func (o *Orchestrator) loadSession(ctx context.Context, sessionID string) (*Session, error) {
	sess, err := o.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, domain.NewNotFoundError("session", sessionID)
	}
	return sess, nil
}

func errorCode(err error) string {
	var se *domain.SupplierError
	if errors.As(err, &se) {
		return string(se.Code)
	}
	var pe *domain.PaymentError
	if errors.As(err, &pe) {
		return string(pe.Code)
	}
	return "INTERNAL"
}
