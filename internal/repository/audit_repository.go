package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/roamstay/service-booking/internal/ledger"
)

// AuditModel is the GORM persistence model for the append-only audit log.
type AuditModel struct {
	ID               uuid.UUID      `gorm:"type:uuid;primaryKey"`
	BookingID        *uuid.UUID     `gorm:"type:uuid;index"`
	Action           string         `gorm:"type:varchar(20);not null"`
	Status           string         `gorm:"type:varchar(10);not null"`
	RequestSnapshot  []byte     `gorm:"type:jsonb"`
	ResponseSnapshot []byte     `gorm:"type:jsonb"`
	ErrorCode        string     `gorm:"type:varchar(64)"`
	Timestamp        time.Time  `gorm:"type:timestamptz;not null;index"`
}

// TableName specifies the table name for GORM.
func (AuditModel) TableName() string { return "audit_log" }

// AuditRepositoryImpl is the GORM-based implementation of ledger.AuditRepository.
type AuditRepositoryImpl struct {
	db *gorm.DB
}

// NewAuditRepository creates a new GORM-based audit repository.
func NewAuditRepository(db *gorm.DB) *AuditRepositoryImpl {
	return &AuditRepositoryImpl{db: db}
}

// Append inserts an audit entry. Entries are never updated or deleted.
func (r *AuditRepositoryImpl) Append(ctx context.Context, e ledger.AuditEntry) error {
	model := AuditModel{
		ID:               e.ID,
		BookingID:        e.BookingID,
		Action:           string(e.Action),
		Status:           string(e.Status),
		RequestSnapshot:  e.RequestSnapshot,
		ResponseSnapshot: e.ResponseSnapshot,
		ErrorCode:        e.ErrorCode,
		Timestamp:        e.Timestamp,
	}
	return r.db.WithContext(ctx).Create(&model).Error
}

// ListForBooking returns audit entries for a booking, oldest first.
func (r *AuditRepositoryImpl) ListForBooking(ctx context.Context, bookingID uuid.UUID) ([]ledger.AuditEntry, error) {
	var models []AuditModel
	if err := r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("timestamp ASC").
		Find(&models).Error; err != nil {
		return nil, err
	}

	entries := make([]ledger.AuditEntry, len(models))
	for i, m := range models {
		entries[i] = ledger.AuditEntry{
			ID:               m.ID,
			BookingID:        m.BookingID,
			Action:           ledger.Action(m.Action),
			Status:           ledger.AuditStatus(m.Status),
			RequestSnapshot:  m.RequestSnapshot,
			ResponseSnapshot: m.ResponseSnapshot,
			ErrorCode:        m.ErrorCode,
			Timestamp:        m.Timestamp,
		}
	}
	return entries, nil
}
