package booking

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/roamstay/service-booking/internal/domain"
)

// Status represents the lifecycle state of a booking. Transitions are
// monotonic: the only permitted reverse edge is CONFIRMED -> CANCELLED.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusCancelled Status = "CANCELLED"
)

// Guest holds the contact details collected before payment.
type Guest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

// Complete reports whether all required contact fields are present.
func (g Guest) Complete() bool {
	return strings.TrimSpace(g.FirstName) != "" &&
		strings.TrimSpace(g.LastName) != "" &&
		strings.TrimSpace(g.Email) != "" &&
		strings.TrimSpace(g.Phone) != ""
}

// Booking is the aggregate root for a reservation outcome. The supplier owns
// reservation existence and the processor owns money movement; this record is
// the local ledger's cache of both.
type Booking struct {
	id                 uuid.UUID
	supplierBookingID  string
	hotelID            string
	roomID             string
	rateCode           string
	checkIn            time.Time
	checkOut           time.Time
	occupancy          int
	guest              Guest
	totalCents         int64
	currency           string
	paymentIntentID    string
	status             Status
	cancelledAt        *time.Time
	cancellationReason string
	version            int64
	createdAt          time.Time
	updatedAt          time.Time
}

// NewBooking creates a pending booking for a paid, supplier-committed stay.
func NewBooking(hotelID, roomID, rateCode string, checkIn, checkOut time.Time, occupancy int, guest Guest, totalCents int64, currency, paymentIntentID string) *Booking {
	now := time.Now().UTC()
	return &Booking{
		id:              uuid.New(),
		hotelID:         hotelID,
		roomID:          roomID,
		rateCode:        rateCode,
		checkIn:         checkIn,
		checkOut:        checkOut,
		occupancy:       occupancy,
		guest:           guest,
		totalCents:      totalCents,
		currency:        currency,
		paymentIntentID: paymentIntentID,
		status:          StatusPending,
		version:         1,
		createdAt:       now,
		updatedAt:       now,
	}
}

// --- Getters ---

func (b *Booking) ID() uuid.UUID              { return b.id }
func (b *Booking) SupplierBookingID() string  { return b.supplierBookingID }
func (b *Booking) HotelID() string            { return b.hotelID }
func (b *Booking) RoomID() string             { return b.roomID }
func (b *Booking) RateCode() string           { return b.rateCode }
func (b *Booking) CheckIn() time.Time         { return b.checkIn }
func (b *Booking) CheckOut() time.Time        { return b.checkOut }
func (b *Booking) Occupancy() int             { return b.occupancy }
func (b *Booking) Guest() Guest               { return b.guest }
func (b *Booking) TotalCents() int64          { return b.totalCents }
func (b *Booking) Currency() string           { return b.currency }
func (b *Booking) PaymentIntentID() string    { return b.paymentIntentID }
func (b *Booking) Status() Status             { return b.status }
func (b *Booking) CancelledAt() *time.Time    { return b.cancelledAt }
func (b *Booking) CancellationReason() string { return b.cancellationReason }
func (b *Booking) Version() int64             { return b.version }
func (b *Booking) CreatedAt() time.Time       { return b.createdAt }
func (b *Booking) UpdatedAt() time.Time       { return b.updatedAt }

// --- State transitions ---

// Confirm transitions PENDING -> CONFIRMED once the supplier has returned a
// booking reference. A booking may only confirm after exactly one payment
// intent succeeded; the caller enforces that ordering.
func (b *Booking) Confirm(supplierBookingID string) error {
	if b.status != StatusPending {
		return domain.NewInvalidStateError(string(b.status), string(StatusConfirmed))
	}
	if supplierBookingID == "" {
		return domain.NewValidationError("supplier booking reference is required")
	}
	b.status = StatusConfirmed
	b.supplierBookingID = supplierBookingID
	b.updatedAt = time.Now().UTC()
	return nil
}

// Cancel transitions CONFIRMED -> CANCELLED. This is the single permitted
// reverse edge; cancelled bookings never transition again.
func (b *Booking) Cancel(reason string) error {
	if b.status != StatusConfirmed {
		return domain.NewInvalidStateError(string(b.status), string(StatusCancelled))
	}
	now := time.Now().UTC()
	b.status = StatusCancelled
	b.cancelledAt = &now
	b.cancellationReason = reason
	b.updatedAt = now
	return nil
}

// Nights returns the length of stay in whole nights.
func (b *Booking) Nights() int {
	return int(b.checkOut.Sub(b.checkIn).Hours() / 24)
}

// IncrementVersion bumps the version for optimistic locking.
func (b *Booking) IncrementVersion() {
	b.version++
	b.updatedAt = time.Now().UTC()
}

// Reconstitute rebuilds a Booking from persisted data.
func Reconstitute(
	id uuid.UUID,
	supplierBookingID, hotelID, roomID, rateCode string,
	checkIn, checkOut time.Time,
	occupancy int,
	guest Guest,
	totalCents int64,
	currency, paymentIntentID string,
	status Status,
	cancelledAt *time.Time,
	cancellationReason string,
	version int64,
	createdAt, updatedAt time.Time,
) *Booking {
	return &Booking{
		id:                 id,
		supplierBookingID:  supplierBookingID,
		hotelID:            hotelID,
		roomID:             roomID,
		rateCode:           rateCode,
		checkIn:            checkIn,
		checkOut:           checkOut,
		occupancy:          occupancy,
		guest:              guest,
		totalCents:         totalCents,
		currency:           currency,
		paymentIntentID:    paymentIntentID,
		status:             status,
		cancelledAt:        cancelledAt,
		cancellationReason: cancellationReason,
		version:            version,
		createdAt:          createdAt,
		updatedAt:          updatedAt,
	}
}
