package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/voltbill/backend/internal/domain/billing"
	"github.com/voltbill/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormNotificationRepository implements billing.NotificationRepository using GORM
type GormNotificationRepository struct {
	db *gorm.DB
}

// NewGormNotificationRepository creates a new GormNotificationRepository
func NewGormNotificationRepository(db *gorm.DB) *GormNotificationRepository {
	return &GormNotificationRepository{db: db}
}

// Insert appends one notification audit row
func (r *GormNotificationRepository) Insert(ctx context.Context, n *billing.Notification) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	return r.db.WithContext(ctx).Create(models.FromDomainNotification(n)).Error
}
