// Package reconcile closes the gap between processor truth and the local
// ledger: payment intents that never became bookings are refunded or voided
// so no guest stays charged for a room they never got.
package reconcile

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/roamstay/service-booking/internal/adapter"
	"github.com/roamstay/service-booking/internal/domain"
	"github.com/roamstay/service-booking/internal/ledger"
	"github.com/roamstay/service-booking/internal/payment"
)

// Sweeper periodically scans for orphaned payment intents.
type Sweeper struct {
	payments *payment.Coordinator
	ledger   *ledger.Ledger
	interval time.Duration
	minAge   time.Duration
	logger   *zap.Logger
}

// NewSweeper creates a Sweeper. minAge keeps the sweep away from intents
// that are still mid-pipeline.
func NewSweeper(payments *payment.Coordinator, l *ledger.Ledger, interval, minAge time.Duration, logger *zap.Logger) *Sweeper {
	return &Sweeper{
		payments: payments,
		ledger:   l,
		interval: interval,
		minAge:   minAge,
		logger:   logger,
	}
}

// Run sweeps on a ticker until the context is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.SweepOnce(ctx); err != nil {
				s.logger.Error("reconciliation sweep failed", zap.Error(err))
			}
		}
	}
}

// SweepOnce reconciles every orphaned intent older than minAge.
func (s *Sweeper) SweepOnce(ctx context.Context) error {
	cutoff := time.Now().UTC().Add(-s.minAge)
	orphans, err := s.ledger.Intents().FindOrphaned(ctx, cutoff)
	if err != nil {
		return &domain.PersistenceError{Op: "find orphaned intents", Err: err}
	}

	for _, rec := range orphans {
		if err := s.reconcile(ctx, rec); err != nil {
			// Keep going; the next sweep retries this intent.
			s.logger.Error("failed to reconcile intent",
				zap.String("intent_id", rec.IntentID),
				zap.Error(err),
			)
		}
	}
	return nil
}

func (s *Sweeper) reconcile(ctx context.Context, rec ledger.IntentRecord) error {
	// A booking row may exist even though the record was never marked: the
	// supplier-wins rule writes the booking but absorbs follow-up failures.
	if b, err := s.ledger.Bookings().FindByIntentID(ctx, rec.IntentID); err == nil && b != nil {
		s.logger.Info("orphan record has a booking, marking booked",
			zap.String("intent_id", rec.IntentID),
			zap.String("booking_id", b.ID().String()),
		)
		return s.ledger.Intents().MarkBooked(ctx, rec.IntentID)
	}

	result, err := s.payments.Status(ctx, rec.IntentID)
	if err != nil {
		// Only close out intents the processor proved moneyless. A failed
		// lookup could be hiding a captured charge, so the record stays open
		// and the next sweep retries it.
		if !terminalWithoutCharge(err) {
			return err
		}
		s.logger.Info("closing out intent with no captured money",
			zap.String("intent_id", rec.IntentID),
			zap.Error(err),
		)
		return s.ledger.Intents().MarkReconciled(ctx, rec.IntentID)
	}

	switch {
	case result.Succeeded:
		// Captured but never booked: give the money back.
		refundRef, err := s.payments.Refund(ctx, result.ChargeRef, rec.AmountCents, "reconcile-"+rec.IntentID)
		if err != nil {
			return err
		}
		s.logger.Warn("refunded orphaned captured intent",
			zap.String("intent_id", rec.IntentID),
			zap.Int64("amount_cents", rec.AmountCents),
			zap.String("refund_ref", refundRef),
		)
		s.ledger.Audit(ctx, nil, ledger.ActionCancel, ledger.AuditSuccess, rec, refundRef, "")

	case result.Status == adapter.IntentRequiresPaymentMethod,
		result.Status == adapter.IntentRequiresAction:
		// Never captured: void it so the guest's authorization lapses.
		if err := s.payments.Cancel(ctx, rec.IntentID); err != nil {
			return err
		}
		s.logger.Info("cancelled orphaned pre-capture intent",
			zap.String("intent_id", rec.IntentID),
		)

	case result.Status == adapter.IntentProcessing:
		// Still settling; revisit next sweep.
		return nil
	}

	return s.ledger.Intents().MarkReconciled(ctx, rec.IntentID)
}

// terminalWithoutCharge reports whether a status lookup error proves the
// intent holds no captured money: a declined intent, a cancelled one, or one
// the processor has no record of. Transient outages do not qualify.
func terminalWithoutCharge(err error) bool {
	var pe *domain.PaymentError
	if errors.As(err, &pe) {
		return !pe.Retryable()
	}
	return errors.Is(err, domain.ErrInvalidState) || errors.Is(err, domain.ErrNotFound)
}
