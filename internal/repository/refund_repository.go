package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	bookingDomain "github.com/roamstay/service-booking/internal/domain/booking"
)

// RefundModel is the GORM persistence model for the refunds table.
type RefundModel struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey"`
	BookingID       uuid.UUID `gorm:"type:uuid;not null;index"`
	PaymentIntentID string    `gorm:"type:varchar(255);not null"`
	AmountCents     int64     `gorm:"not null"`
	Currency        string    `gorm:"type:varchar(3);not null"`
	Status          string    `gorm:"type:varchar(20);not null"`
	Reason          string    `gorm:"type:text"`
	ProcessorRef    string    `gorm:"type:varchar(255)"`
	CreatedAt       time.Time `gorm:"type:timestamptz;not null;default:now()"`
}

// TableName specifies the table name for GORM.
func (RefundModel) TableName() string { return "refunds" }

// RefundRepositoryImpl is the GORM-based implementation of booking.RefundRepository.
type RefundRepositoryImpl struct {
	db *gorm.DB
}

// NewRefundRepository creates a new GORM-based refund repository.
func NewRefundRepository(db *gorm.DB) *RefundRepositoryImpl {
	return &RefundRepositoryImpl{db: db}
}

// Save persists a refund record.
func (r *RefundRepositoryImpl) Save(ctx context.Context, refund bookingDomain.Refund) error {
	model := RefundModel{
		ID:              refund.ID,
		BookingID:       refund.BookingID,
		PaymentIntentID: refund.PaymentIntentID,
		AmountCents:     refund.AmountCents,
		Currency:        refund.Currency,
		Status:          string(refund.Status),
		Reason:          refund.Reason,
		ProcessorRef:    refund.ProcessorRef,
		CreatedAt:       refund.CreatedAt,
	}
	return r.db.WithContext(ctx).Create(&model).Error
}

// SumForBooking returns the total refunded amount for a booking.
func (r *RefundRepositoryImpl) SumForBooking(ctx context.Context, bookingID uuid.UUID) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&RefundModel{}).
		Where("booking_id = ?", bookingID).
		Select("COALESCE(SUM(amount_cents), 0)").
		Scan(&total).Error
	return total, err
}

// ListForBooking returns all refund records for a booking.
func (r *RefundRepositoryImpl) ListForBooking(ctx context.Context, bookingID uuid.UUID) ([]bookingDomain.Refund, error) {
	var models []RefundModel
	if err := r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("created_at ASC").
		Find(&models).Error; err != nil {
		return nil, err
	}

	refunds := make([]bookingDomain.Refund, len(models))
	for i, m := range models {
		refunds[i] = bookingDomain.Refund{
			ID:              m.ID,
			BookingID:       m.BookingID,
			PaymentIntentID: m.PaymentIntentID,
			AmountCents:     m.AmountCents,
			Currency:        m.Currency,
			Status:          bookingDomain.RefundStatus(m.Status),
			Reason:          m.Reason,
			ProcessorRef:    m.ProcessorRef,
			CreatedAt:       m.CreatedAt,
		}
	}
	return refunds, nil
}
