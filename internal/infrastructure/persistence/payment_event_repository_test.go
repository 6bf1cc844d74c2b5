package persistence

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/voltbill/backend/internal/domain/billing"
	"github.com/voltbill/backend/internal/domain/shared/valueobject"
)

func TestPaymentEventDedup(t *testing.T) {
	ctx := context.Background()
	db := setupBillingDB(t)
	repo := NewGormPaymentEventRepository(db)

	event := billing.NewPaymentEvent(nil, "evt_123", "checkout.session.completed",
		valueobject.NewMoneyINRFromFloat(1500), `{"id":"evt_123"}`)
	require.NoError(t, repo.Insert(ctx, event))

	exists, err := repo.ExistsByProviderEventID(ctx, "evt_123")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsByProviderEventID(ctx, "evt_999")
	require.NoError(t, err)
	assert.False(t, exists)

	// The unique index refuses a second row for the same provider event.
	replay := billing.NewPaymentEvent(nil, "evt_123", "checkout.session.completed",
		valueobject.NewMoneyINRFromFloat(1500), `{"id":"evt_123"}`)
	assert.Error(t, repo.Insert(ctx, replay))
}
