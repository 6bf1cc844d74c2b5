package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/voltbill/backend/internal/domain/billing"
	"github.com/voltbill/backend/internal/infrastructure/persistence/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// GormReadingRepository implements billing.ReadingRepository using GORM
type GormReadingRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewGormReadingRepository creates a new GormReadingRepository
func NewGormReadingRepository(db *gorm.DB, logger *zap.Logger) *GormReadingRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GormReadingRepository{db: db, logger: logger}
}

// Insert stores a reading, deriving its consumption as the delta
// against the meter's previous reading. A value below the previous
// reading is a meter rollback; the consumption floors at zero and the
// anomaly is logged for the operator.
func (r *GormReadingRepository) Insert(ctx context.Context, reading *billing.Reading) error {
	var previous models.ReadingModel
	err := r.db.WithContext(ctx).
		Where("meter_id = ? AND reading_date <= ?", reading.MeterID, reading.ReadingDate).
		Order("reading_date DESC, id DESC").
		First(&previous).Error
	switch {
	case err == nil:
		if reading.Value.LessThan(previous.Value) {
			r.logger.Warn("meter value below previous reading, consumption floored at zero",
				zap.Int64("meter_id", reading.MeterID),
				zap.String("previous_value", previous.Value.String()),
				zap.String("value", reading.Value.String()),
				zap.Time("reading_date", reading.ReadingDate))
		}
		reading.Consumption = billing.ConsumptionBetween(previous.Value, reading.Value)
	case errors.Is(err, gorm.ErrRecordNotFound):
		reading.Consumption = billing.ConsumptionBetween(reading.Value, reading.Value)
	default:
		return err
	}

	if reading.CreatedAt.IsZero() {
		reading.CreatedAt = time.Now()
	}
	model := models.FromDomainReading(reading)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	reading.ID = model.ID
	return nil
}

// RecentByMeter returns up to limit readings for a meter, newest first
func (r *GormReadingRepository) RecentByMeter(ctx context.Context, meterID int64, limit int) ([]*billing.Reading, error) {
	var readingModels []models.ReadingModel
	if err := r.db.WithContext(ctx).
		Where("meter_id = ?", meterID).
		Order("reading_date DESC, id DESC").
		Limit(limit).
		Find(&readingModels).Error; err != nil {
		return nil, err
	}
	return toDomainReadings(readingModels), nil
}

// UnbilledByMeter returns a meter's readings no bill has consumed yet,
// oldest first
func (r *GormReadingRepository) UnbilledByMeter(ctx context.Context, meterID int64) ([]*billing.Reading, error) {
	var readingModels []models.ReadingModel
	if err := r.db.WithContext(ctx).
		Where("meter_id = ? AND is_billed = ?", meterID, false).
		Order("reading_date ASC, id ASC").
		Find(&readingModels).Error; err != nil {
		return nil, err
	}
	return toDomainReadings(readingModels), nil
}

// MarkBilledThrough flags a meter's readings dated on or before
// through as billed
func (r *GormReadingRepository) MarkBilledThrough(ctx context.Context, meterID int64, through time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.ReadingModel{}).
		Where("meter_id = ? AND reading_date <= ? AND is_billed = ?", meterID, through, false).
		Update("is_billed", true)
	return result.RowsAffected, result.Error
}

func toDomainReadings(readingModels []models.ReadingModel) []*billing.Reading {
	readings := make([]*billing.Reading, len(readingModels))
	for i := range readingModels {
		readings[i] = readingModels[i].ToDomain()
	}
	return readings
}
