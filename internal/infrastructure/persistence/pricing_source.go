package persistence

import (
	"context"

	"github.com/voltbill/backend/internal/domain/tariff"
	"github.com/voltbill/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormPricingSource loads the pricing table from the unit_pricing
// table. It implements tariff.Source; the tariff.Resolver owns the
// process-lifetime cache on top of it.
type GormPricingSource struct {
	db *gorm.DB
}

// NewGormPricingSource creates a new GormPricingSource
func NewGormPricingSource(db *gorm.DB) *GormPricingSource {
	return &GormPricingSource{db: db}
}

// LoadTable reads every pricing row keyed by canonical unit code
func (s *GormPricingSource) LoadTable(ctx context.Context) (map[string]tariff.UnitPricing, error) {
	var rows []models.UnitPricingModel
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}
	table := make(map[string]tariff.UnitPricing, len(rows))
	for i := range rows {
		table[rows[i].Code] = tariff.UnitPricing{
			RatePerUnit: rows[i].RatePerUnit,
			FixedCharge: rows[i].FixedCharge,
		}
	}
	return table, nil
}
