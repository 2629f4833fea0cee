package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/roamstay/service-booking/internal/domain"
	rateplanDomain "github.com/roamstay/service-booking/internal/domain/rateplan"
)

// RatePlanModel is the GORM model for the rate_plans table.
type RatePlanModel struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey"`
	Code              string    `gorm:"type:varchar(50);uniqueIndex;not null"`
	Name              string    `gorm:"type:varchar(100);not null"`
	Description       string    `gorm:"type:text"`
	NightlyCents      int64     `gorm:"not null"`
	Currency          string    `gorm:"type:varchar(3);not null"`
	Refundable        bool      `gorm:"not null;default:true"`
	BreakfastIncluded bool      `gorm:"not null;default:false"`
	Active            bool      `gorm:"not null;default:true;index"`
	CreatedAt         time.Time `gorm:"not null"`
	UpdatedAt         time.Time `gorm:"not null"`
}

// TableName sets the table name.
func (RatePlanModel) TableName() string { return "rate_plans" }

// GormRatePlanRepository implements rateplan.RatePlanRepository using GORM.
type GormRatePlanRepository struct {
	db *gorm.DB
}

// NewGormRatePlanRepository creates a new GormRatePlanRepository.
func NewGormRatePlanRepository(db *gorm.DB) *GormRatePlanRepository {
	return &GormRatePlanRepository{db: db}
}

// Save persists a new rate plan.
func (r *GormRatePlanRepository) Save(ctx context.Context, p *rateplanDomain.RatePlan) error {
	model := toRatePlanModel(p)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.NewConflictError("rate plan code already exists")
		}
		return err
	}
	return nil
}

// Update updates a rate plan.
func (r *GormRatePlanRepository) Update(ctx context.Context, p *rateplanDomain.RatePlan) error {
	model := toRatePlanModel(p)
	return r.db.WithContext(ctx).Save(&model).Error
}

// FindByCode returns a rate plan by its code.
func (r *GormRatePlanRepository) FindByCode(ctx context.Context, code string) (*rateplanDomain.RatePlan, error) {
	var model RatePlanModel
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("rate plan", code)
		}
		return nil, err
	}
	return toRatePlanDomain(&model), nil
}

// FindByID returns a rate plan by ID.
func (r *GormRatePlanRepository) FindByID(ctx context.Context, id uuid.UUID) (*rateplanDomain.RatePlan, error) {
	var model RatePlanModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("rate plan", id.String())
		}
		return nil, err
	}
	return toRatePlanDomain(&model), nil
}

// ListActive returns all rate plans currently on sale.
func (r *GormRatePlanRepository) ListActive(ctx context.Context) ([]*rateplanDomain.RatePlan, error) {
	var models []RatePlanModel
	if err := r.db.WithContext(ctx).
		Where("active = true").
		Order("nightly_cents ASC").
		Find(&models).Error; err != nil {
		return nil, err
	}

	plans := make([]*rateplanDomain.RatePlan, len(models))
	for i := range models {
		plans[i] = toRatePlanDomain(&models[i])
	}
	return plans, nil
}

func toRatePlanModel(p *rateplanDomain.RatePlan) RatePlanModel {
	return RatePlanModel{
		ID:                p.ID(),
		Code:              p.Code(),
		Name:              p.Name(),
		Description:       p.Description(),
		NightlyCents:      p.NightlyCents(),
		Currency:          p.Currency(),
		Refundable:        p.Refundable(),
		BreakfastIncluded: p.BreakfastIncluded(),
		Active:            p.Active(),
		CreatedAt:         p.CreatedAt(),
		UpdatedAt:         p.UpdatedAt(),
	}
}

func toRatePlanDomain(m *RatePlanModel) *rateplanDomain.RatePlan {
	return rateplanDomain.Reconstruct(
		m.ID, m.Code, m.Name, m.Description,
		m.NightlyCents, m.Currency,
		m.Refundable, m.BreakfastIncluded, m.Active,
		m.CreatedAt, m.UpdatedAt,
	)
}
