package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/voltbill/backend/internal/domain/billing"
	"github.com/voltbill/backend/internal/domain/shared"
	"github.com/voltbill/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormUnitRepository implements billing.UnitRepository using GORM
type GormUnitRepository struct {
	db *gorm.DB
}

// NewGormUnitRepository creates a new GormUnitRepository
func NewGormUnitRepository(db *gorm.DB) *GormUnitRepository {
	return &GormUnitRepository{db: db}
}

// FindByID finds a unit by its ID
func (r *GormUnitRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Unit, error) {
	var model models.UnitModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByCode finds a unit by its canonical code
func (r *GormUnitRepository) FindByCode(ctx context.Context, normalizedCode string) (*billing.Unit, error) {
	var model models.UnitModel
	if err := r.db.WithContext(ctx).Where("code = ?", normalizedCode).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ListActiveWithMeters returns every active unit paired with its flat
// meter and the shared motor meter, when present.
func (r *GormUnitRepository) ListActiveWithMeters(ctx context.Context) ([]billing.UnitMeters, error) {
	var unitModels []models.UnitModel
	if err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("code ASC").
		Find(&unitModels).Error; err != nil {
		return nil, err
	}

	result := make([]billing.UnitMeters, 0, len(unitModels))
	for i := range unitModels {
		var meterModels []models.MeterModel
		if err := r.db.WithContext(ctx).
			Where("unit_id = ? AND status = ?", unitModels[i].ID, string(billing.MeterStatusActive)).
			Find(&meterModels).Error; err != nil {
			return nil, err
		}

		um := billing.UnitMeters{Unit: *unitModels[i].ToDomain()}
		for j := range meterModels {
			meter := meterModels[j].ToDomain()
			if meter.IsMotor {
				um.MotorMeter = meter
			} else if um.FlatMeter == nil {
				um.FlatMeter = meter
			}
		}
		result = append(result, um)
	}
	return result, nil
}
