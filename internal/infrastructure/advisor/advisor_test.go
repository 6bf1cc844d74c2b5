package advisor

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisabledValidateReading(t *testing.T) {
	result, err := NewDisabled().ValidateReading(context.Background(),
		[]decimal.Decimal{decimal.NewFromInt(100)}, decimal.NewFromInt(5000))
	require.NoError(t, err)

	assert.True(t, result.Valid)
	assert.Equal(t, "validation disabled - basic check passed", result.Reason)
	assert.Equal(t, 50, result.Confidence)
}

func TestDisabledGenerateMessage(t *testing.T) {
	a := NewDisabled()
	mc := MessageContext{
		UnitCode:    "B17-FF",
		Amount:      "1500.00",
		DueDate:     "2026-03-31",
		DaysUntil:   2,
		PeriodLabel: "March 2026",
	}

	msg, err := a.GenerateMessage(context.Background(), "payment_reminder", mc)
	require.NoError(t, err)
	assert.Contains(t, msg, "due in 2 days")

	mc.DaysUntil = 0
	msg, err = a.GenerateMessage(context.Background(), "payment_reminder", mc)
	require.NoError(t, err)
	assert.Contains(t, msg, "Urgent")

	msg, err = a.GenerateMessage(context.Background(), "overdue_notice", mc)
	require.NoError(t, err)
	assert.Contains(t, msg, "overdue")
}
