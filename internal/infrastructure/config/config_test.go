package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "voltbill-backend", cfg.App.Name)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 3, cfg.Billing.ReminderWindowDays)
	assert.Equal(t, "2025-11", cfg.Billing.FrozenMonth)
	assert.Equal(t, time.Minute, cfg.Scheduler.TickInterval)
	assert.Equal(t, "inr", cfg.Stripe.Currency)
	assert.False(t, cfg.IsProduction())
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("VOLTBILL_DATABASE_DRIVER", "sqlite")
	t.Setenv("VOLTBILL_DATABASE_PATH", ":memory:")
	t.Setenv("VOLTBILL_BILLING_REMINDER_WINDOW_DAYS", "7")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, ":memory:", cfg.Database.DSN())
	assert.Equal(t, 7, cfg.Billing.ReminderWindowDays)
}

func TestValidateRejectsBadValues(t *testing.T) {
	t.Setenv("VOLTBILL_DATABASE_DRIVER", "oracle")
	_, err := Load()
	assert.Error(t, err)
}

func TestValidateRequiresWebhookSecretWithLiveKey(t *testing.T) {
	t.Setenv("VOLTBILL_STRIPE_API_KEY", "sk_test_abc")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "webhook_secret")

	t.Setenv("VOLTBILL_STRIPE_WEBHOOK_SECRET", "whsec_abc")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "whsec_abc", cfg.Stripe.WebhookSecret)
}

func TestDatabaseDSN(t *testing.T) {
	pg := DatabaseConfig{Driver: "postgres", Host: "db", Port: 5432,
		User: "u", Password: "p", DBName: "voltbill", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=voltbill sslmode=disable", pg.DSN())

	lite := DatabaseConfig{Driver: "sqlite", Path: "billing.db"}
	assert.Equal(t, "billing.db", lite.DSN())
}

func TestFrozenMonthTime(t *testing.T) {
	c := BillingConfig{FrozenMonth: "2025-11"}
	ft := c.FrozenMonthTime()
	assert.Equal(t, 2025, ft.Year())
	assert.Equal(t, time.November, ft.Month())

	assert.True(t, BillingConfig{}.FrozenMonthTime().IsZero())
}
