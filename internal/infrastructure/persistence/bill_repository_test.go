package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/voltbill/backend/internal/domain/billing"
	"github.com/voltbill/backend/internal/domain/shared"
	"github.com/voltbill/backend/internal/domain/shared/valueobject"
	"github.com/voltbill/backend/internal/infrastructure/persistence/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var defaultFrozenMonth = time.Date(2025, time.November, 1, 0, 0, 0, 0, time.UTC)

func setupBillingDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.UnitModel{},
		&models.MeterModel{},
		&models.ReadingModel{},
		&models.BillModel{},
		&models.NotificationModel{},
		&models.PaymentEventModel{},
		&models.UnitPricingModel{},
	)
	require.NoError(t, err)
	return db
}

func seedUnit(t *testing.T, db *gorm.DB, code string) uuid.UUID {
	t.Helper()
	id := uuid.New()
	require.NoError(t, db.Create(&models.UnitModel{
		ID:        id,
		Code:      code,
		Category:  "5BHK",
		IsActive:  true,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}).Error)
	return id
}

func seedMeter(t *testing.T, db *gorm.DB, id int64, serial string, unitID uuid.UUID, motor bool) {
	t.Helper()
	require.NoError(t, db.Create(&models.MeterModel{
		ID:           id,
		SerialNumber: serial,
		UnitID:       unitID,
		IsMotor:      motor,
		Status:       string(billing.MeterStatusActive),
		CreatedAt:    time.Now(),
	}).Error)
}

func billInput(unitID *uuid.UUID, identifier string, start, end time.Time) billing.BillCreateInput {
	return billing.BillCreateInput{
		UnitID:         unitID,
		UnitIdentifier: identifier,
		PeriodStart:    start,
		PeriodEnd:      end,
		DueDate:        end,
		FlatUnits:      decimal.NewFromInt(100),
		MotorUnits:     decimal.NewFromInt(25),
		TotalUnits:     decimal.NewFromInt(125),
		TotalAmount:    valueobject.NewMoneyINRFromFloat(1500),
	}
}

func marchPeriod() (time.Time, time.Time) {
	return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
}

func TestCreateBillIdentifierResolution(t *testing.T) {
	ctx := context.Background()

	t.Run("explicit unit id", func(t *testing.T) {
		db := setupBillingDB(t)
		repo := NewGormBillRepository(db, defaultFrozenMonth)
		unitID := seedUnit(t, db, "B17-FF")

		start, end := marchPeriod()
		bill, err := repo.CreateBill(ctx, billInput(&unitID, "", start, end))
		require.NoError(t, err)
		assert.Equal(t, unitID, bill.UnitID)
		assert.Equal(t, billing.BillStatusPending, bill.Status)
	})

	t.Run("unknown explicit unit id", func(t *testing.T) {
		db := setupBillingDB(t)
		repo := NewGormBillRepository(db, defaultFrozenMonth)
		missing := uuid.New()

		start, end := marchPeriod()
		_, err := repo.CreateBill(ctx, billInput(&missing, "", start, end))
		assert.ErrorIs(t, err, shared.ErrUnresolvedUnit)
	})

	t.Run("meter serial number", func(t *testing.T) {
		db := setupBillingDB(t)
		repo := NewGormBillRepository(db, defaultFrozenMonth)
		unitID := seedUnit(t, db, "B17-FF")
		seedMeter(t, db, 7, "MTR-7001", unitID, false)

		start, end := marchPeriod()
		bill, err := repo.CreateBill(ctx, billInput(nil, "MTR-7001", start, end))
		require.NoError(t, err)
		assert.Equal(t, unitID, bill.UnitID)
	})

	t.Run("numeric meter id fallback", func(t *testing.T) {
		db := setupBillingDB(t)
		repo := NewGormBillRepository(db, defaultFrozenMonth)
		unitID := seedUnit(t, db, "B17-FF")
		seedMeter(t, db, 42, "MTR-7002", unitID, false)

		start, end := marchPeriod()
		bill, err := repo.CreateBill(ctx, billInput(nil, "42", start, end))
		require.NoError(t, err)
		assert.Equal(t, unitID, bill.UnitID)
	})

	t.Run("normalized unit code", func(t *testing.T) {
		db := setupBillingDB(t)
		repo := NewGormBillRepository(db, defaultFrozenMonth)
		unitID := seedUnit(t, db, "B17-FF")

		start, end := marchPeriod()
		bill, err := repo.CreateBill(ctx, billInput(nil, "5BHK-B17-FF", start, end))
		require.NoError(t, err)
		assert.Equal(t, unitID, bill.UnitID)
	})

	t.Run("unresolvable identifier writes nothing", func(t *testing.T) {
		db := setupBillingDB(t)
		repo := NewGormBillRepository(db, defaultFrozenMonth)
		seedUnit(t, db, "B17-FF")

		start, end := marchPeriod()
		_, err := repo.CreateBill(ctx, billInput(nil, "NO-SUCH-UNIT-X9", start, end))
		assert.ErrorIs(t, err, shared.ErrUnresolvedUnit)

		var count int64
		require.NoError(t, db.Model(&models.BillModel{}).Count(&count).Error)
		assert.Zero(t, count)
	})
}

func TestCreateBillDuplicatePeriod(t *testing.T) {
	ctx := context.Background()
	db := setupBillingDB(t)
	repo := NewGormBillRepository(db, defaultFrozenMonth)
	unitID := seedUnit(t, db, "B17-FF")
	start, end := marchPeriod()

	first, err := repo.CreateBill(ctx, billInput(&unitID, "", start, end))
	require.NoError(t, err)

	// Same nominal period: stored under the adjusted start, the later
	// of the period end and one day after the latest existing start.
	second, err := repo.CreateBill(ctx, billInput(&unitID, "", start, end))
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.True(t, second.BillingPeriodStart.Equal(end))

	bills, err := repo.FindByUnit(ctx, unitID)
	require.NoError(t, err)
	require.Len(t, bills, 2)
	assert.False(t, bills[0].BillingPeriodStart.Equal(bills[1].BillingPeriodStart))

	// A third submission lands one day past the latest start, which
	// now exceeds the period end.
	third, err := repo.CreateBill(ctx, billInput(&unitID, "", start, end))
	require.NoError(t, err)
	assert.True(t, third.BillingPeriodStart.Equal(end.AddDate(0, 0, 1)))
}

func TestCreateBillFrozenMonth(t *testing.T) {
	ctx := context.Background()
	db := setupBillingDB(t)
	repo := NewGormBillRepository(db, defaultFrozenMonth)
	unitID := seedUnit(t, db, "B17-FF")

	start := time.Date(2025, 10, 15, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 11, 14, 0, 0, 0, 0, time.UTC)

	_, err := repo.CreateBill(ctx, billInput(&unitID, "", start, end))
	assert.ErrorIs(t, err, shared.ErrLockedPeriod)

	var count int64
	require.NoError(t, db.Model(&models.BillModel{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestAssertPeriodUnlocked(t *testing.T) {
	repo := NewGormBillRepository(setupBillingDB(t), defaultFrozenMonth)

	nov := time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC)
	dec := time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)
	jan := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.ErrorIs(t, repo.AssertPeriodUnlocked(nov, dec), shared.ErrLockedPeriod)
	assert.ErrorIs(t, repo.AssertPeriodUnlocked(nov.AddDate(0, -1, 0), nov), shared.ErrLockedPeriod)
	assert.NoError(t, repo.AssertPeriodUnlocked(dec, jan))
}

func TestFindDueWithinAndOverdue(t *testing.T) {
	ctx := context.Background()
	db := setupBillingDB(t)
	repo := NewGormBillRepository(db, defaultFrozenMonth)
	unitID := seedUnit(t, db, "B17-FF")

	today := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	mkBill := func(start, due time.Time) *billing.Bill {
		input := billInput(&unitID, "", start, due)
		input.DueDate = due
		bill, err := repo.CreateBill(ctx, input)
		require.NoError(t, err)
		return bill
	}

	dueTomorrow := mkBill(today.AddDate(0, -1, 0), today.AddDate(0, 0, 1))
	dueIn3 := mkBill(today.AddDate(0, -1, 1), today.AddDate(0, 0, 3))
	dueIn5 := mkBill(today.AddDate(0, -1, 2), today.AddDate(0, 0, 5))
	pastDue := mkBill(today.AddDate(0, -2, 0), today.AddDate(0, 0, -2))

	// Already flagged overdue; the overdue job owns its notices, so
	// the reminder window must not pick it up again.
	flagged := mkBill(today.AddDate(0, -1, 3), today.AddDate(0, 0, 2))
	_, err := repo.UpdateStatus(ctx, flagged.ID, billing.BillStatusOverdue, nil)
	require.NoError(t, err)

	within, err := repo.FindDueWithin(ctx, 3, today)
	require.NoError(t, err)
	ids := make([]uuid.UUID, 0, len(within))
	for _, b := range within {
		ids = append(ids, b.ID)
	}
	assert.Contains(t, ids, dueTomorrow.ID)
	assert.Contains(t, ids, dueIn3.ID)
	assert.NotContains(t, ids, dueIn5.ID)
	assert.NotContains(t, ids, pastDue.ID)
	assert.NotContains(t, ids, flagged.ID)

	overdue, err := repo.FindOverdue(ctx, today)
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, pastDue.ID, overdue[0].ID)

	// Paid bills drop out of the overdue scan.
	_, err = repo.UpdateStatus(ctx, pastDue.ID, billing.BillStatusPaid, &today)
	require.NoError(t, err)
	overdue, err = repo.FindOverdue(ctx, today)
	require.NoError(t, err)
	assert.Empty(t, overdue)
}

func TestUpdateStatus(t *testing.T) {
	ctx := context.Background()
	db := setupBillingDB(t)
	repo := NewGormBillRepository(db, defaultFrozenMonth)
	unitID := seedUnit(t, db, "B17-FF")
	start, end := marchPeriod()

	bill, err := repo.CreateBill(ctx, billInput(&unitID, "", start, end))
	require.NoError(t, err)

	paidAt := time.Date(2026, 4, 2, 12, 0, 0, 0, time.UTC)
	updated, err := repo.UpdateStatus(ctx, bill.ID, billing.BillStatusPaid, &paidAt)
	require.NoError(t, err)
	assert.Equal(t, billing.BillStatusPaid, updated.Status)

	stored, err := repo.FindByID(ctx, bill.ID)
	require.NoError(t, err)
	assert.Equal(t, billing.BillStatusPaid, stored.Status)
	require.NotNil(t, stored.PaymentDate)

	// Paid is terminal for the automated flow.
	_, err = repo.UpdateStatus(ctx, bill.ID, billing.BillStatusPending, nil)
	assert.Error(t, err)

	_, err = repo.UpdateStatus(ctx, uuid.New(), billing.BillStatusPaid, nil)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestOverrideStatus(t *testing.T) {
	ctx := context.Background()
	db := setupBillingDB(t)
	repo := NewGormBillRepository(db, defaultFrozenMonth)
	unitID := seedUnit(t, db, "B17-FF")
	start, end := marchPeriod()

	bill, err := repo.CreateBill(ctx, billInput(&unitID, "", start, end))
	require.NoError(t, err)

	paidAt := time.Now()
	_, err = repo.UpdateStatus(ctx, bill.ID, billing.BillStatusPaid, &paidAt)
	require.NoError(t, err)

	// The override escapes the terminal paid state.
	reopened, err := repo.OverrideStatus(ctx, bill.ID, billing.BillStatusPending)
	require.NoError(t, err)
	assert.Equal(t, billing.BillStatusPending, reopened.Status)

	stored, err := repo.FindByID(ctx, bill.ID)
	require.NoError(t, err)
	assert.Equal(t, billing.BillStatusPending, stored.Status)

	_, err = repo.OverrideStatus(ctx, bill.ID, billing.BillStatus("bogus"))
	assert.Error(t, err)

	_, err = repo.OverrideStatus(ctx, uuid.New(), billing.BillStatusPaid)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestAttachPaymentLink(t *testing.T) {
	ctx := context.Background()
	db := setupBillingDB(t)
	repo := NewGormBillRepository(db, defaultFrozenMonth)
	unitID := seedUnit(t, db, "B17-FF")
	start, end := marchPeriod()

	bill, err := repo.CreateBill(ctx, billInput(&unitID, "", start, end))
	require.NoError(t, err)

	require.NoError(t, repo.AttachPaymentLink(ctx, bill.ID, "https://pay.example/abc", "plink_123"))

	byLink, err := repo.FindByPaymentLinkID(ctx, "plink_123")
	require.NoError(t, err)
	assert.Equal(t, bill.ID, byLink.ID)
	assert.Equal(t, "https://pay.example/abc", byLink.PaymentLinkURL)

	assert.ErrorIs(t, repo.AttachPaymentLink(ctx, uuid.New(), "u", "l"), shared.ErrNotFound)
}
