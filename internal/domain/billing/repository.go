package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/voltbill/backend/internal/domain/shared/valueobject"
)

// BillCreateInput carries everything needed to store a new bill.
// Exactly one way of naming the unit must succeed: an explicit UnitID,
// or UnitIdentifier interpreted in order as a meter serial number, a
// numeric meter id, and finally a normalized unit code.
type BillCreateInput struct {
	UnitID         *uuid.UUID
	UnitIdentifier string

	PeriodStart time.Time
	PeriodEnd   time.Time
	DueDate     time.Time

	FlatUnits   decimal.Decimal
	MotorUnits  decimal.Decimal
	TotalUnits  decimal.Decimal
	TotalAmount valueobject.Money
}

// BillRepository persists bills and enforces the storage-level billing
// rules: unit resolution, the frozen-month lock, and duplicate-period
// handling with the single adjusted-start retry.
type BillRepository interface {
	CreateBill(ctx context.Context, input BillCreateInput) (*Bill, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Bill, error)
	FindByUnit(ctx context.Context, unitID uuid.UUID) ([]*Bill, error)
	FindByStatus(ctx context.Context, status BillStatus) ([]*Bill, error)
	FindByPaymentLinkID(ctx context.Context, linkID string) (*Bill, error)

	// FindDueWithin returns pending bills whose due date falls in
	// [today, today+days], both inclusive. Bills already marked
	// overdue are excluded; they get their own notice.
	FindDueWithin(ctx context.Context, days int, today time.Time) ([]*Bill, error)

	// FindOverdue returns pending bills whose due date is strictly
	// before today.
	FindOverdue(ctx context.Context, today time.Time) ([]*Bill, error)

	UpdateStatus(ctx context.Context, id uuid.UUID, status BillStatus, paymentDate *time.Time) (*Bill, error)

	// OverrideStatus forces a status outside the transition rules, for
	// administrative corrections such as reopening a paid bill.
	OverrideStatus(ctx context.Context, id uuid.UUID, status BillStatus) (*Bill, error)

	AttachPaymentLink(ctx context.Context, id uuid.UUID, url, linkID string) error

	// AssertPeriodUnlocked refuses bulk-generation periods that touch
	// the frozen month with either endpoint.
	AssertPeriodUnlocked(periodStart, periodEnd time.Time) error
}

// UnitMeters pairs a unit with its flat meter and optional shared
// motor meter for generation runs.
type UnitMeters struct {
	Unit       Unit
	FlatMeter  *Meter
	MotorMeter *Meter
}

// UnitRepository looks up units and their meters
type UnitRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Unit, error)
	FindByCode(ctx context.Context, normalizedCode string) (*Unit, error)
	ListActiveWithMeters(ctx context.Context) ([]UnitMeters, error)
}

// ReadingRepository stores meter readings. Insert derives and stores
// the consumption delta against the meter's previous reading.
type ReadingRepository interface {
	Insert(ctx context.Context, reading *Reading) error

	// RecentByMeter returns up to limit readings for a meter, newest
	// first by reading date.
	RecentByMeter(ctx context.Context, meterID int64, limit int) ([]*Reading, error)

	// UnbilledByMeter returns a meter's readings no bill has consumed
	// yet, oldest first.
	UnbilledByMeter(ctx context.Context, meterID int64) ([]*Reading, error)

	// MarkBilledThrough flags a meter's readings dated on or before
	// through as billed, reporting how many rows changed.
	MarkBilledThrough(ctx context.Context, meterID int64, through time.Time) (int64, error)
}

// NotificationRepository appends message audit rows
type NotificationRepository interface {
	Insert(ctx context.Context, n *Notification) error
}

// PaymentEventRepository appends provider callback records
type PaymentEventRepository interface {
	Insert(ctx context.Context, event *PaymentEvent) error
	ExistsByProviderEventID(ctx context.Context, providerEventID string) (bool, error)
}
