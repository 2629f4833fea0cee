package orchestrator

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/roamstay/service-booking/internal/adapter"
	"github.com/roamstay/service-booking/internal/domain"
	"github.com/roamstay/service-booking/internal/domain/booking"
	"github.com/roamstay/service-booking/internal/hold"
	"github.com/roamstay/service-booking/internal/ledger"
)

// Confirmer turns a paid hold into a committed reservation. The supplier
// commit is the point of no return: once it succeeds, every local failure is
// absorbed and the guest still gets their confirmation.
type Confirmer struct {
	supplier adapter.SupplierAdapter
	ledger   *ledger.Ledger
	logger   *zap.Logger
}

// NewConfirmer creates a Confirmer.
func NewConfirmer(supplier adapter.SupplierAdapter, l *ledger.Ledger, logger *zap.Logger) *Confirmer {
	return &Confirmer{supplier: supplier, ledger: l, logger: logger}
}

// ConfirmBooking commits the hold with the supplier and records the booking.
// The idempotency key is derived from the session, so a crashed and retried
// confirm replays the same supplier reservation instead of creating a second
// one. Persistence failures after the commit are logged and audited, never
// returned: the reservation exists regardless of what our database thinks.
func (c *Confirmer) ConfirmBooking(ctx context.Context, sessionID string, h hold.Hold, guest booking.Guest, totalCents int64, intentID string) (*booking.Booking, error) {
	supplierBookingID, err := c.supplier.Commit(ctx, h.Token, "commit-"+sessionID)
	if err != nil {
		c.ledger.Audit(ctx, nil, ledger.ActionBook, ledger.AuditFailed, h, nil, supplierErrorCode(err))
		return nil, err
	}

	b := booking.NewBooking(h.HotelID, h.RoomID, h.RateCode, h.CheckIn, h.CheckOut, h.Occupancy, guest, totalCents, h.Currency, intentID)
	if err := b.Confirm(supplierBookingID); err != nil {
		// Unreachable for a fresh aggregate; recorded for completeness.
		return nil, err
	}

	// The supplier commit is recorded before the save attempt so the trail
	// shows it even when persistence fails afterwards.
	bid := b.ID()
	c.ledger.Audit(ctx, &bid, ledger.ActionBook, ledger.AuditSuccess, h, supplierBookingID, "")

	if err := c.ledger.SaveBooking(ctx, b); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			// A replayed commit already produced this row; return the
			// original booking instead of failing.
			existing, findErr := c.ledger.Bookings().FindBySupplierRef(ctx, supplierBookingID)
			if findErr == nil {
				return existing, nil
			}
			c.logger.Error("duplicate booking row lookup failed",
				zap.String("supplier_booking_id", supplierBookingID),
				zap.Error(findErr),
			)
		}

		// Supplier-committed, locally unrecorded. The reconciliation sweep
		// and the audit trail are the safety net; the guest is confirmed.
		c.logger.Error("booking persisted at supplier but not locally",
			zap.String("supplier_booking_id", supplierBookingID),
			zap.String("intent_id", intentID),
			zap.Error(err),
		)
		c.ledger.Audit(ctx, &bid, ledger.ActionBook, ledger.AuditFailed, h, b.SupplierBookingID(), "PERSISTENCE")
		return b, nil
	}

	if err := c.ledger.Intents().MarkBooked(ctx, intentID); err != nil {
		c.logger.Error("failed to mark intent booked",
			zap.String("intent_id", intentID),
			zap.Error(err),
		)
	}

	c.logger.Info("booking confirmed",
		zap.String("booking_id", bid.String()),
		zap.String("supplier_booking_id", supplierBookingID),
		zap.Int64("total_cents", totalCents),
	)
	return b, nil
}

func supplierErrorCode(err error) string {
	var se *domain.SupplierError
	if errors.As(err, &se) {
		return string(se.Code)
	}
	return "SUPPLIER_ERROR"
}
