package persistence

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/voltbill/backend/internal/domain/billing"
	"github.com/voltbill/backend/internal/domain/shared"
	"github.com/voltbill/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormBillRepository implements billing.BillRepository using GORM.
// FrozenMonth marks a closed reconciliation month whose bills are
// immutable; creations whose period end lands in it are refused.
type GormBillRepository struct {
	db          *gorm.DB
	frozenMonth time.Time
}

// NewGormBillRepository creates a new GormBillRepository. frozenMonth
// only uses its year and month.
func NewGormBillRepository(db *gorm.DB, frozenMonth time.Time) *GormBillRepository {
	return &GormBillRepository{db: db, frozenMonth: frozenMonth}
}

// CreateBill resolves the target unit, enforces the frozen-month
// guard, and inserts the bill. A (unit, period-start) collision is
// retried exactly once under an adjusted start date: the later of the
// requested period end and one day after the unit's most recent
// existing period start. A second collision fails explicitly.
func (r *GormBillRepository) CreateBill(ctx context.Context, input billing.BillCreateInput) (*billing.Bill, error) {
	unitID, err := r.resolveUnit(ctx, input)
	if err != nil {
		return nil, err
	}

	if r.inFrozenMonth(input.PeriodEnd) {
		return nil, shared.ErrLockedPeriod
	}

	bill, err := billing.NewBill(unitID, input.PeriodStart, input.PeriodEnd, input.DueDate,
		input.FlatUnits, input.MotorUnits, input.TotalUnits, input.TotalAmount)
	if err != nil {
		return nil, err
	}

	if err := r.insertUnique(ctx, bill); err == nil {
		return bill, nil
	} else if !errors.Is(err, shared.ErrDuplicatePeriod) {
		return nil, err
	}

	adjusted, err := r.adjustedPeriodStart(ctx, unitID, input.PeriodEnd)
	if err != nil {
		return nil, err
	}
	bill.BillingPeriodStart = adjusted
	if err := r.insertUnique(ctx, bill); err != nil {
		return nil, err
	}
	return bill, nil
}

// AssertPeriodUnlocked refuses bulk-generation periods that touch the
// frozen month with either endpoint.
func (r *GormBillRepository) AssertPeriodUnlocked(periodStart, periodEnd time.Time) error {
	if r.inFrozenMonth(periodStart) || r.inFrozenMonth(periodEnd) {
		return shared.ErrLockedPeriod
	}
	return nil
}

func (r *GormBillRepository) inFrozenMonth(t time.Time) bool {
	return t.Year() == r.frozenMonth.Year() && t.Month() == r.frozenMonth.Month()
}

func (r *GormBillRepository) insertUnique(ctx context.Context, bill *billing.Bill) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.BillModel{}).
		Where("unit_id = ? AND billing_period_start = ?", bill.UnitID, bill.BillingPeriodStart).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return shared.ErrDuplicatePeriod
	}

	if err := r.db.WithContext(ctx).Create(models.FromDomainBill(bill)).Error; err != nil {
		if isDuplicateKey(err) {
			return shared.ErrDuplicatePeriod
		}
		return err
	}
	return nil
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}

func (r *GormBillRepository) adjustedPeriodStart(ctx context.Context, unitID uuid.UUID, periodEnd time.Time) (time.Time, error) {
	var latest models.BillModel
	err := r.db.WithContext(ctx).
		Where("unit_id = ?", unitID).
		Order("billing_period_start DESC").
		First(&latest).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return periodEnd, nil
		}
		return time.Time{}, err
	}

	dayAfterLatest := latest.BillingPeriodStart.AddDate(0, 0, 1)
	if dayAfterLatest.After(periodEnd) {
		return dayAfterLatest, nil
	}
	return periodEnd, nil
}

// resolveUnit applies the identifier resolution order: explicit unit
// id, meter serial number, numeric meter id, normalized unit code.
func (r *GormBillRepository) resolveUnit(ctx context.Context, input billing.BillCreateInput) (uuid.UUID, error) {
	if input.UnitID != nil && *input.UnitID != uuid.Nil {
		var unit models.UnitModel
		if err := r.db.WithContext(ctx).First(&unit, "id = ?", *input.UnitID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return uuid.Nil, shared.ErrUnresolvedUnit
			}
			return uuid.Nil, err
		}
		return unit.ID, nil
	}

	identifier := strings.TrimSpace(input.UnitIdentifier)
	if identifier == "" {
		return uuid.Nil, shared.ErrUnresolvedUnit
	}

	var meter models.MeterModel
	err := r.db.WithContext(ctx).Where("serial_number = ?", identifier).First(&meter).Error
	if err == nil {
		return meter.UnitID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return uuid.Nil, err
	}

	if meterID, parseErr := strconv.ParseInt(identifier, 10, 64); parseErr == nil {
		err = r.db.WithContext(ctx).First(&meter, "id = ?", meterID).Error
		if err == nil {
			return meter.UnitID, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, err
		}
	}

	var unit models.UnitModel
	err = r.db.WithContext(ctx).Where("code = ?", billing.NormalizeCode(identifier)).First(&unit).Error
	if err == nil {
		return unit.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return uuid.Nil, err
	}
	return uuid.Nil, shared.ErrUnresolvedUnit
}

// FindByID finds a bill by its ID
func (r *GormBillRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Bill, error) {
	var model models.BillModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByUnit returns all bills for a unit, newest period first
func (r *GormBillRepository) FindByUnit(ctx context.Context, unitID uuid.UUID) ([]*billing.Bill, error) {
	var billModels []models.BillModel
	if err := r.db.WithContext(ctx).
		Where("unit_id = ?", unitID).
		Order("billing_period_start DESC").
		Find(&billModels).Error; err != nil {
		return nil, err
	}
	return toDomainBills(billModels), nil
}

// FindByStatus returns all bills in a status, newest period first
func (r *GormBillRepository) FindByStatus(ctx context.Context, status billing.BillStatus) ([]*billing.Bill, error) {
	var billModels []models.BillModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", string(status)).
		Order("billing_period_start DESC").
		Find(&billModels).Error; err != nil {
		return nil, err
	}
	return toDomainBills(billModels), nil
}

// FindByPaymentLinkID finds the bill a payment link was issued for
func (r *GormBillRepository) FindByPaymentLinkID(ctx context.Context, linkID string) (*billing.Bill, error) {
	var model models.BillModel
	if err := r.db.WithContext(ctx).Where("payment_link_id = ?", linkID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindDueWithin returns pending bills due inside [today, today+days],
// both days inclusive. Overdue bills are excluded; the overdue job
// sends its own notice.
func (r *GormBillRepository) FindDueWithin(ctx context.Context, days int, today time.Time) ([]*billing.Bill, error) {
	from := startOfDay(today)
	until := from.AddDate(0, 0, days+1)

	var billModels []models.BillModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", string(billing.BillStatusPending)).
		Where("due_date >= ? AND due_date < ?", from, until).
		Order("due_date ASC").
		Find(&billModels).Error; err != nil {
		return nil, err
	}
	return toDomainBills(billModels), nil
}

// FindOverdue returns pending bills whose due date is before today
func (r *GormBillRepository) FindOverdue(ctx context.Context, today time.Time) ([]*billing.Bill, error) {
	var billModels []models.BillModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", string(billing.BillStatusPending)).
		Where("due_date < ?", startOfDay(today)).
		Order("due_date ASC").
		Find(&billModels).Error; err != nil {
		return nil, err
	}
	return toDomainBills(billModels), nil
}

// UpdateStatus applies a validated status transition and persists it
func (r *GormBillRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status billing.BillStatus, paymentDate *time.Time) (*billing.Bill, error) {
	bill, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := bill.TransitionTo(status, paymentDate); err != nil {
		return nil, err
	}

	updates := map[string]any{
		"status":     string(bill.Status),
		"updated_at": bill.UpdatedAt,
	}
	if bill.PaymentDate != nil {
		updates["payment_date"] = bill.PaymentDate
	}
	if err := r.db.WithContext(ctx).Model(&models.BillModel{}).
		Where("id = ?", id).
		Updates(updates).Error; err != nil {
		return nil, err
	}
	return bill, nil
}

// OverrideStatus forces a status outside the automated state machine.
// Administrative corrections only; the frozen-month guard still holds.
func (r *GormBillRepository) OverrideStatus(ctx context.Context, id uuid.UUID, status billing.BillStatus) (*billing.Bill, error) {
	bill, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.inFrozenMonth(bill.BillingPeriodEnd) {
		return nil, shared.ErrLockedPeriod
	}
	if err := bill.AdminOverrideStatus(status); err != nil {
		return nil, err
	}

	if err := r.db.WithContext(ctx).Model(&models.BillModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     string(bill.Status),
			"updated_at": bill.UpdatedAt,
		}).Error; err != nil {
		return nil, err
	}
	return bill, nil
}

// AttachPaymentLink stores the payment link issued for a bill
func (r *GormBillRepository) AttachPaymentLink(ctx context.Context, id uuid.UUID, url, linkID string) error {
	result := r.db.WithContext(ctx).Model(&models.BillModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"payment_link_url": url,
			"payment_link_id":  linkID,
			"updated_at":       time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func toDomainBills(billModels []models.BillModel) []*billing.Bill {
	bills := make([]*billing.Bill, len(billModels))
	for i := range billModels {
		bills[i] = billModels[i].ToDomain()
	}
	return bills
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
