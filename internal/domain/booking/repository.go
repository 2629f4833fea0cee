package booking

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the persistence contract for Booking aggregates.
type Repository interface {
	// FindByID retrieves a booking by its local ID.
	FindByID(ctx context.Context, id uuid.UUID) (*Booking, error)

	// FindBySupplierRef retrieves a booking by the supplier booking reference.
	FindBySupplierRef(ctx context.Context, supplierBookingID string) (*Booking, error)

	// FindByIntentID retrieves a booking by its payment intent ID.
	FindByIntentID(ctx context.Context, paymentIntentID string) (*Booking, error)

	// ListAll retrieves bookings with pagination (admin).
	ListAll(ctx context.Context, page, limit int) ([]*Booking, int64, error)

	// CountByStatus returns booking counts grouped by status (admin).
	CountByStatus(ctx context.Context) (map[string]int64, error)

	// Save persists a new booking aggregate.
	Save(ctx context.Context, b *Booking) error

	// Update persists changes to an existing booking with optimistic locking.
	Update(ctx context.Context, b *Booking) error
}

// RefundRepository defines the persistence contract for refund records.
type RefundRepository interface {
	// Save persists a refund record.
	Save(ctx context.Context, r Refund) error

	// SumForBooking returns the total refunded amount for a booking.
	SumForBooking(ctx context.Context, bookingID uuid.UUID) (int64, error)

	// ListForBooking returns all refund records for a booking.
	ListForBooking(ctx context.Context, bookingID uuid.UUID) ([]Refund, error)
}
