package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/roamstay/service-booking/internal/domain"
	bookingDomain "github.com/roamstay/service-booking/internal/domain/booking"
)

// BookingModel is the GORM persistence model for the bookings table.
// supplier_booking_id carries a unique index: it is the idempotency anchor
// that prevents a replayed supplier commit from creating a second row.
type BookingModel struct {
	ID                 uuid.UUID  `gorm:"type:uuid;primaryKey"`
	SupplierBookingID  string     `gorm:"type:varchar(64);uniqueIndex;not null"`
	HotelID            string     `gorm:"type:varchar(64);not null;index"`
	RoomID             string     `gorm:"type:varchar(64);not null"`
	RateCode           string     `gorm:"type:varchar(64)"`
	CheckIn            time.Time  `gorm:"type:date;not null"`
	CheckOut           time.Time  `gorm:"type:date;not null"`
	Occupancy          int        `gorm:"not null;default:1"`
	GuestFirstName     string     `gorm:"type:varchar(100);not null"`
	GuestLastName      string     `gorm:"type:varchar(100);not null"`
	GuestEmail         string     `gorm:"type:varchar(255);not null;index"`
	GuestPhone         string     `gorm:"type:varchar(40)"`
	TotalCents         int64      `gorm:"not null"`
	Currency           string     `gorm:"type:varchar(3);not null"`
	PaymentIntentID    string     `gorm:"type:varchar(255);not null;index"`
	Status             string     `gorm:"type:varchar(20);not null;default:'PENDING'"`
	CancelledAt        *time.Time `gorm:"type:timestamptz"`
	CancellationReason string     `gorm:"type:text"`
	Version            int64      `gorm:"not null;default:1"`
	CreatedAt          time.Time  `gorm:"type:timestamptz;not null;default:now()"`
	UpdatedAt          time.Time  `gorm:"type:timestamptz;not null;default:now()"`
}

// TableName specifies the table name for GORM.
func (BookingModel) TableName() string { return "bookings" }

// BookingRepositoryImpl is the GORM-based implementation of booking.Repository.
type BookingRepositoryImpl struct {
	db *gorm.DB
}

// NewBookingRepository creates a new GORM-based booking repository.
func NewBookingRepository(db *gorm.DB) *BookingRepositoryImpl {
	return &BookingRepositoryImpl{db: db}
}

// FindByID retrieves a booking by its local ID.
func (r *BookingRepositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("booking", id.String())
		}
		return nil, err
	}
	return toBookingDomain(&model), nil
}

// FindBySupplierRef retrieves a booking by its supplier booking reference.
func (r *BookingRepositoryImpl) FindBySupplierRef(ctx context.Context, supplierBookingID string) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := r.db.WithContext(ctx).Where("supplier_booking_id = ?", supplierBookingID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("booking", supplierBookingID)
		}
		return nil, err
	}
	return toBookingDomain(&model), nil
}

// FindByIntentID retrieves a booking by its payment intent ID.
func (r *BookingRepositoryImpl) FindByIntentID(ctx context.Context, paymentIntentID string) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := r.db.WithContext(ctx).Where("payment_intent_id = ?", paymentIntentID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("booking", paymentIntentID)
		}
		return nil, err
	}
	return toBookingDomain(&model), nil
}

// ListAll retrieves bookings with pagination (admin).
func (r *BookingRepositoryImpl) ListAll(ctx context.Context, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	var total int64
	r.db.WithContext(ctx).Model(&BookingModel{}).Count(&total)

	var models []BookingModel
	offset := (page - 1) * limit
	if err := r.db.WithContext(ctx).Order("created_at DESC").Offset(offset).Limit(limit).Find(&models).Error; err != nil {
		return nil, 0, err
	}

	bookings := make([]*bookingDomain.Booking, len(models))
	for i := range models {
		bookings[i] = toBookingDomain(&models[i])
	}
	return bookings, total, nil
}

// CountByStatus returns booking counts grouped by status (admin).
func (r *BookingRepositoryImpl) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type statusCount struct {
		Status string
		Count  int64
	}
	var results []statusCount
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).
		Select("status, count(*) as count").
		Group("status").
		Find(&results).Error; err != nil {
		return nil, err
	}

	counts := make(map[string]int64)
	for _, sc := range results {
		counts[sc.Status] = sc.Count
	}
	return counts, nil
}

// Save persists a new booking aggregate. A duplicate supplier reference is
// reported as a conflict rather than a second row.
func (r *BookingRepositoryImpl) Save(ctx context.Context, b *bookingDomain.Booking) error {
	model := toBookingModel(b)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.NewConflictError("booking already recorded for supplier reference")
		}
		return err
	}
	return nil
}

// Update persists changes to an existing booking with optimistic locking.
func (r *BookingRepositoryImpl) Update(ctx context.Context, b *bookingDomain.Booking) error {
	model := toBookingModel(b)
	previousVersion := b.Version() - 1

	result := r.db.WithContext(ctx).
		Model(&BookingModel{}).
		Where("id = ? AND version = ?", model.ID, previousVersion).
		Updates(model)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("booking was modified by another transaction")
	}
	return nil
}

// toBookingDomain maps a BookingModel to the domain aggregate.
func toBookingDomain(m *BookingModel) *bookingDomain.Booking {
	return bookingDomain.Reconstitute(
		m.ID,
		m.SupplierBookingID,
		m.HotelID,
		m.RoomID,
		m.RateCode,
		m.CheckIn,
		m.CheckOut,
		m.Occupancy,
		bookingDomain.Guest{
			FirstName: m.GuestFirstName,
			LastName:  m.GuestLastName,
			Email:     m.GuestEmail,
			Phone:     m.GuestPhone,
		},
		m.TotalCents,
		m.Currency,
		m.PaymentIntentID,
		bookingDomain.Status(m.Status),
		m.CancelledAt,
		m.CancellationReason,
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
	)
}

// toBookingModel maps a domain aggregate to a BookingModel for persistence.
func toBookingModel(b *bookingDomain.Booking) *BookingModel {
	return &BookingModel{
		ID:                 b.ID(),
		SupplierBookingID:  b.SupplierBookingID(),
		HotelID:            b.HotelID(),
		RoomID:             b.RoomID(),
		RateCode:           b.RateCode(),
		CheckIn:            b.CheckIn(),
		CheckOut:           b.CheckOut(),
		Occupancy:          b.Occupancy(),
		GuestFirstName:     b.Guest().FirstName,
		GuestLastName:      b.Guest().LastName,
		GuestEmail:         b.Guest().Email,
		GuestPhone:         b.Guest().Phone,
		TotalCents:         b.TotalCents(),
		Currency:           b.Currency(),
		PaymentIntentID:    b.PaymentIntentID(),
		Status:             string(b.Status()),
		CancelledAt:        b.CancelledAt(),
		CancellationReason: b.CancellationReason(),
		Version:            b.Version(),
		CreatedAt:          b.CreatedAt(),
		UpdatedAt:          b.UpdatedAt(),
	}
}
