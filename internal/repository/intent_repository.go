package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/roamstay/service-booking/internal/ledger"
)

// IntentModel is the GORM persistence model for locally recorded payment
// intents. Rows with booked=false older than the sweep cutoff are candidates
// for reconciliation.
type IntentModel struct {
	IntentID    string    `gorm:"type:varchar(255);primaryKey"`
	BookingRef  string    `gorm:"type:varchar(64);uniqueIndex;not null"`
	CustomerRef string    `gorm:"type:varchar(255);not null"`
	AmountCents int64     `gorm:"not null"`
	Currency    string    `gorm:"type:varchar(3);not null"`
	Booked      bool      `gorm:"not null;default:false"`
	Reconciled  bool      `gorm:"not null;default:false"`
	CreatedAt   time.Time `gorm:"type:timestamptz;not null;default:now();index"`
}

// TableName specifies the table name for GORM.
func (IntentModel) TableName() string { return "payment_intents" }

// IntentRepositoryImpl is the GORM-based implementation of ledger.IntentRepository.
type IntentRepositoryImpl struct {
	db *gorm.DB
}

// NewIntentRepository creates a new GORM-based intent record repository.
func NewIntentRepository(db *gorm.DB) *IntentRepositoryImpl {
	return &IntentRepositoryImpl{db: db}
}

// Save persists an intent record.
func (r *IntentRepositoryImpl) Save(ctx context.Context, rec ledger.IntentRecord) error {
	model := IntentModel{
		IntentID:    rec.IntentID,
		BookingRef:  rec.BookingRef,
		CustomerRef: rec.CustomerRef,
		AmountCents: rec.AmountCents,
		Currency:    rec.Currency,
		Booked:      rec.Booked,
		Reconciled:  rec.Reconciled,
		CreatedAt:   rec.CreatedAt,
	}
	return r.db.WithContext(ctx).Create(&model).Error
}

// FindByBookingRef returns the intent record for a booking reference, or nil.
func (r *IntentRepositoryImpl) FindByBookingRef(ctx context.Context, bookingRef string) (*ledger.IntentRecord, error) {
	var model IntentModel
	if err := r.db.WithContext(ctx).Where("booking_ref = ?", bookingRef).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	rec := toIntentRecord(&model)
	return &rec, nil
}

// FindByIntentID returns the record for a processor intent ID, or nil.
func (r *IntentRepositoryImpl) FindByIntentID(ctx context.Context, intentID string) (*ledger.IntentRecord, error) {
	var model IntentModel
	if err := r.db.WithContext(ctx).Where("intent_id = ?", intentID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	rec := toIntentRecord(&model)
	return &rec, nil
}

// MarkBooked flags an intent as attached to a booking.
func (r *IntentRepositoryImpl) MarkBooked(ctx context.Context, intentID string) error {
	return r.db.WithContext(ctx).Model(&IntentModel{}).
		Where("intent_id = ?", intentID).
		Update("booked", true).Error
}

// MarkReconciled flags an intent as handled by the sweep.
func (r *IntentRepositoryImpl) MarkReconciled(ctx context.Context, intentID string) error {
	return r.db.WithContext(ctx).Model(&IntentModel{}).
		Where("intent_id = ?", intentID).
		Update("reconciled", true).Error
}

// FindOrphaned returns unbooked, unreconciled intents created before cutoff.
func (r *IntentRepositoryImpl) FindOrphaned(ctx context.Context, cutoff time.Time) ([]ledger.IntentRecord, error) {
	var models []IntentModel
	if err := r.db.WithContext(ctx).
		Where("booked = false AND reconciled = false AND created_at < ?", cutoff).
		Order("created_at ASC").
		Find(&models).Error; err != nil {
		return nil, err
	}

	records := make([]ledger.IntentRecord, len(models))
	for i := range models {
		records[i] = toIntentRecord(&models[i])
	}
	return records, nil
}

func toIntentRecord(m *IntentModel) ledger.IntentRecord {
	return ledger.IntentRecord{
		IntentID:    m.IntentID,
		BookingRef:  m.BookingRef,
		CustomerRef: m.CustomerRef,
		AmountCents: m.AmountCents,
		Currency:    m.Currency,
		Booked:      m.Booked,
		Reconciled:  m.Reconciled,
		CreatedAt:   m.CreatedAt,
	}
}
