// Package ledger is the durable local record of booking outcomes. It is a
// cache of supplier and processor truth, never the authority: once the money
// or the room moved externally, a ledger failure is logged and alerted but
// never surfaced as a booking failure.
package ledger

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/roamstay/service-booking/internal/domain"
	"github.com/roamstay/service-booking/internal/domain/booking"
)

// Action identifies the operation an audit entry describes.
type Action string

const (
	ActionSearch      Action = "SEARCH"
	ActionPrebook     Action = "PREBOOK"
	ActionBook        Action = "BOOK"
	ActionCancel      Action = "CANCEL"
	ActionUpdatePrice Action = "UPDATE_PRICE"
)

// AuditStatus is the outcome recorded by an audit entry.
type AuditStatus string

const (
	AuditSuccess AuditStatus = "SUCCESS"
	AuditFailed  AuditStatus = "FAILED"
)

// AuditEntry is one append-only diagnostic record. Writing an entry must
// never propagate an error to the caller.
type AuditEntry struct {
	ID               uuid.UUID
	BookingID        *uuid.UUID
	Action           Action
	Status           AuditStatus
	RequestSnapshot  json.RawMessage
	ResponseSnapshot json.RawMessage
	ErrorCode        string
	Timestamp        time.Time
}

// AuditRepository appends audit entries.
type AuditRepository interface {
	Append(ctx context.Context, e AuditEntry) error
	ListForBooking(ctx context.Context, bookingID uuid.UUID) ([]AuditEntry, error)
}

// IntentRecord tracks a locally created payment intent so the reconciliation
// sweep can find intents that never became bookings.
type IntentRecord struct {
	IntentID    string
	BookingRef  string
	CustomerRef string
	AmountCents int64
	Currency    string
	Booked      bool
	Reconciled  bool
	CreatedAt   time.Time
}

// IntentRepository persists intent records.
type IntentRepository interface {
	Save(ctx context.Context, rec IntentRecord) error
	FindByBookingRef(ctx context.Context, bookingRef string) (*IntentRecord, error)
	FindByIntentID(ctx context.Context, intentID string) (*IntentRecord, error)
	MarkBooked(ctx context.Context, intentID string) error
	MarkReconciled(ctx context.Context, intentID string) error
	// FindOrphaned returns unbooked, unreconciled intents older than cutoff.
	FindOrphaned(ctx context.Context, cutoff time.Time) ([]IntentRecord, error)
}

// Ledger bundles the persistence repositories behind the write-through rules
// of the booking pipeline.
type Ledger struct {
	bookings booking.Repository
	refunds  booking.RefundRepository
	audits   AuditRepository
	intents  IntentRepository
	logger   *zap.Logger
}

// New creates a Ledger.
func New(bookings booking.Repository, refunds booking.RefundRepository, audits AuditRepository, intents IntentRepository, logger *zap.Logger) *Ledger {
	return &Ledger{
		bookings: bookings,
		refunds:  refunds,
		audits:   audits,
		intents:  intents,
		logger:   logger,
	}
}

// Bookings exposes the booking repository.
func (l *Ledger) Bookings() booking.Repository { return l.bookings }

// Refunds exposes the refund repository.
func (l *Ledger) Refunds() booking.RefundRepository { return l.refunds }

// Intents exposes the intent record repository.
func (l *Ledger) Intents() IntentRepository { return l.intents }

// Audits exposes the audit repository for read access.
func (l *Ledger) Audits() AuditRepository { return l.audits }

// SaveBooking persists a new booking row, wrapping failures as persistence
// errors so callers can apply the absorb-after-commit rule.
func (l *Ledger) SaveBooking(ctx context.Context, b *booking.Booking) error {
	if err := l.bookings.Save(ctx, b); err != nil {
		return &domain.PersistenceError{Op: "save booking", Err: err}
	}
	return nil
}

// UpdateBooking persists an updated booking row.
func (l *Ledger) UpdateBooking(ctx context.Context, b *booking.Booking) error {
	if err := l.bookings.Update(ctx, b); err != nil {
		return &domain.PersistenceError{Op: "update booking", Err: err}
	}
	return nil
}

// SaveRefund persists a refund record after verifying the running total never
// exceeds the original payment.
func (l *Ledger) SaveRefund(ctx context.Context, r booking.Refund, originalCents int64) error {
	refunded, err := l.refunds.SumForBooking(ctx, r.BookingID)
	if err != nil {
		return &domain.PersistenceError{Op: "sum refunds", Err: err}
	}
	if refunded+r.AmountCents > originalCents {
		return domain.NewConflictError("refund total would exceed original payment")
	}
	if err := l.refunds.Save(ctx, r); err != nil {
		return &domain.PersistenceError{Op: "save refund", Err: err}
	}
	return nil
}

// Audit appends an audit entry. Failures are logged and swallowed: the audit
// log is diagnostic, not transactional.
func (l *Ledger) Audit(ctx context.Context, bookingID *uuid.UUID, action Action, status AuditStatus, request, response any, errorCode string) {
	entry := AuditEntry{
		ID:        uuid.New(),
		BookingID: bookingID,
		Action:    action,
		Status:    status,
		ErrorCode: errorCode,
		Timestamp: time.Now().UTC(),
	}
	if request != nil {
		if raw, err := json.Marshal(request); err == nil {
			entry.RequestSnapshot = raw
		}
	}
	if response != nil {
		if raw, err := json.Marshal(response); err == nil {
			entry.ResponseSnapshot = raw
		}
	}

	if err := l.audits.Append(ctx, entry); err != nil {
		l.logger.Error("audit append failed",
			zap.String("action", string(action)),
			zap.String("status", string(status)),
			zap.Error(err),
		)
	}
}

// RecordIntent saves an intent record for reconciliation; failure is logged,
// not propagated, since the intent itself already exists at the processor.
func (l *Ledger) RecordIntent(ctx context.Context, rec IntentRecord) {
	if err := l.intents.Save(ctx, rec); err != nil {
		l.logger.Error("intent record save failed",
			zap.String("intent_id", rec.IntentID),
			zap.Error(err),
		)
	}
}
