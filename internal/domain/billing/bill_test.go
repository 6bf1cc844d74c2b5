package billing

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/voltbill/backend/internal/domain/shared/valueobject"
)

func newTestBill(t *testing.T) *Bill {
	t.Helper()
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
	bill, err := NewBill(
		uuid.New(), start, end, end,
		decimal.NewFromInt(100), decimal.NewFromInt(25), decimal.NewFromInt(125),
		valueobject.NewMoneyINRFromFloat(1500),
	)
	require.NoError(t, err)
	return bill
}

func TestNewBill(t *testing.T) {
	t.Run("creates pending bill", func(t *testing.T) {
		bill := newTestBill(t)
		assert.Equal(t, BillStatusPending, bill.Status)
		assert.NotEqual(t, uuid.Nil, bill.ID)
		assert.Nil(t, bill.PaymentDate)
	})

	t.Run("rejects nil unit", func(t *testing.T) {
		_, err := NewBill(uuid.Nil, time.Now(), time.Now(), time.Now(),
			decimal.Zero, decimal.Zero, decimal.Zero, valueobject.ZeroINR())
		assert.Error(t, err)
	})

	t.Run("rejects inverted period", func(t *testing.T) {
		start := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
		end := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
		_, err := NewBill(uuid.New(), start, end, end,
			decimal.Zero, decimal.Zero, decimal.Zero, valueobject.ZeroINR())
		assert.Error(t, err)
	})

	t.Run("defaults due date to period end", func(t *testing.T) {
		start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
		end := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
		bill, err := NewBill(uuid.New(), start, end, time.Time{},
			decimal.Zero, decimal.Zero, decimal.Zero, valueobject.ZeroINR())
		require.NoError(t, err)
		assert.True(t, bill.DueDate.Equal(end))
	})
}

func TestBillStatusTransitions(t *testing.T) {
	tests := []struct {
		name    string
		from    BillStatus
		to      BillStatus
		allowed bool
	}{
		{"pending to paid", BillStatusPending, BillStatusPaid, true},
		{"pending to failed", BillStatusPending, BillStatusFailed, true},
		{"pending to cancelled", BillStatusPending, BillStatusCancelled, true},
		{"pending to overdue", BillStatusPending, BillStatusOverdue, true},
		{"overdue to paid", BillStatusOverdue, BillStatusPaid, true},
		{"overdue to cancelled", BillStatusOverdue, BillStatusCancelled, false},
		{"paid to pending", BillStatusPaid, BillStatusPending, false},
		{"paid to overdue", BillStatusPaid, BillStatusOverdue, false},
		{"cancelled to paid", BillStatusCancelled, BillStatusPaid, false},
		{"failed to pending", BillStatusFailed, BillStatusPending, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestBillTransitionTo(t *testing.T) {
	t.Run("paid records payment date", func(t *testing.T) {
		bill := newTestBill(t)
		paidAt := time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC)
		require.NoError(t, bill.MarkPaid(paidAt))
		assert.Equal(t, BillStatusPaid, bill.Status)
		require.NotNil(t, bill.PaymentDate)
		assert.True(t, bill.PaymentDate.Equal(paidAt))
	})

	t.Run("rejects invalid transition", func(t *testing.T) {
		bill := newTestBill(t)
		require.NoError(t, bill.MarkPaid(time.Now()))
		err := bill.TransitionTo(BillStatusPending, nil)
		assert.Error(t, err)
		assert.Equal(t, BillStatusPaid, bill.Status)
	})

	t.Run("rejects unknown status", func(t *testing.T) {
		bill := newTestBill(t)
		assert.Error(t, bill.TransitionTo(BillStatus("refunded"), nil))
	})

	t.Run("overdue then paid", func(t *testing.T) {
		bill := newTestBill(t)
		require.NoError(t, bill.MarkOverdue())
		require.NoError(t, bill.MarkPaid(time.Now()))
		assert.Equal(t, BillStatusPaid, bill.Status)
	})

	t.Run("admin override escapes paid", func(t *testing.T) {
		bill := newTestBill(t)
		require.NoError(t, bill.MarkPaid(time.Now()))
		require.NoError(t, bill.AdminOverrideStatus(BillStatusPending))
		assert.Equal(t, BillStatusPending, bill.Status)
	})
}

func TestBillDueDateQueries(t *testing.T) {
	bill := newTestBill(t)
	due := bill.DueDate

	t.Run("due within window inclusive", func(t *testing.T) {
		assert.True(t, bill.IsDueWithin(3, due.AddDate(0, 0, -3)))
		assert.True(t, bill.IsDueWithin(3, due))
		assert.False(t, bill.IsDueWithin(3, due.AddDate(0, 0, -4)))
		assert.False(t, bill.IsDueWithin(3, due.AddDate(0, 0, 1)))
	})

	t.Run("overdue strictly after due date", func(t *testing.T) {
		assert.False(t, bill.IsOverdue(due))
		assert.True(t, bill.IsOverdue(due.AddDate(0, 0, 1)))
	})

	t.Run("days until due floors at zero", func(t *testing.T) {
		assert.Equal(t, 2, bill.DaysUntilDue(due.AddDate(0, 0, -2)))
		assert.Equal(t, 0, bill.DaysUntilDue(due.AddDate(0, 0, 5)))
	})
}

func TestNormalizeCode(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"5BHK-B17-FF", "B17-FF"},
		{"Tower-A-B17-FF", "B17-FF"},
		{"b17-ff", "B17-FF"},
		{"  B17-FF ", "B17-FF"},
		{"B17", "B17"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeCode(tt.in), "input %q", tt.in)
	}
}

func TestConsumptionBetween(t *testing.T) {
	assert.True(t, decimal.NewFromInt(40).Equal(
		ConsumptionBetween(decimal.NewFromInt(100), decimal.NewFromInt(140))))
	assert.True(t, decimal.Zero.Equal(
		ConsumptionBetween(decimal.NewFromInt(140), decimal.NewFromInt(100))))
	assert.True(t, decimal.Zero.Equal(
		ConsumptionBetween(decimal.NewFromInt(100), decimal.NewFromInt(100))))
}

func TestTierForDaysUntilDue(t *testing.T) {
	assert.Equal(t, TierOverdue, TierForDaysUntilDue(-1))
	assert.Equal(t, TierUrgent, TierForDaysUntilDue(0))
	assert.Equal(t, TierUrgent, TierForDaysUntilDue(1))
	assert.Equal(t, TierSoon, TierForDaysUntilDue(2))
	assert.Equal(t, TierRoutine, TierForDaysUntilDue(3))
	assert.Equal(t, TierRoutine, TierForDaysUntilDue(10))
}
