package persistence

import (
	"context"

	"github.com/voltbill/backend/internal/domain/billing"
	"github.com/voltbill/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormPaymentEventRepository implements billing.PaymentEventRepository using GORM
type GormPaymentEventRepository struct {
	db *gorm.DB
}

// NewGormPaymentEventRepository creates a new GormPaymentEventRepository
func NewGormPaymentEventRepository(db *gorm.DB) *GormPaymentEventRepository {
	return &GormPaymentEventRepository{db: db}
}

// Insert appends one payment event row
func (r *GormPaymentEventRepository) Insert(ctx context.Context, event *billing.PaymentEvent) error {
	return r.db.WithContext(ctx).Create(models.FromDomainPaymentEvent(event)).Error
}

// ExistsByProviderEventID reports whether a provider event was already
// recorded, used to drop replayed callbacks.
func (r *GormPaymentEventRepository) ExistsByProviderEventID(ctx context.Context, providerEventID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.PaymentEventModel{}).
		Where("provider_event_id = ?", providerEventID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
