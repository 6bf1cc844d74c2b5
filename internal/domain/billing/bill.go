package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/voltbill/backend/internal/domain/shared"
	"github.com/voltbill/backend/internal/domain/shared/valueobject"
)

// BillStatus represents the payment lifecycle state of a bill
type BillStatus string

const (
	BillStatusPending   BillStatus = "pending"
	BillStatusPaid      BillStatus = "paid"
	BillStatusFailed    BillStatus = "failed"
	BillStatusCancelled BillStatus = "cancelled"
	BillStatusOverdue   BillStatus = "overdue"
)

// IsValid checks if the status is a valid BillStatus
func (s BillStatus) IsValid() bool {
	switch s {
	case BillStatusPending, BillStatusPaid, BillStatusFailed,
		BillStatusCancelled, BillStatusOverdue:
		return true
	}
	return false
}

// String returns the string representation of BillStatus
func (s BillStatus) String() string {
	return string(s)
}

// IsTerminal returns true if the bill is in a terminal state
func (s BillStatus) IsTerminal() bool {
	return s == BillStatusPaid || s == BillStatusFailed || s == BillStatusCancelled
}

// CanTransitionTo reports whether the automated flow may move a bill
// from s to target. Transitions out of paid require an administrative
// override and are never allowed here.
func (s BillStatus) CanTransitionTo(target BillStatus) bool {
	switch s {
	case BillStatusPending:
		return target == BillStatusPaid || target == BillStatusFailed ||
			target == BillStatusCancelled || target == BillStatusOverdue
	case BillStatusOverdue:
		return target == BillStatusPaid
	}
	return false
}

// Bill is the core billing aggregate: one invoice for one unit and one
// billing period.
type Bill struct {
	ID                 uuid.UUID
	UnitID             uuid.UUID
	BillingPeriodStart time.Time
	BillingPeriodEnd   time.Time
	DueDate            time.Time
	FlatUnits          decimal.Decimal
	MotorUnits         decimal.Decimal
	TotalUnits         decimal.Decimal
	TotalAmount        valueobject.Money
	Status             BillStatus
	PaymentLinkURL     string
	PaymentLinkID      string
	PaymentDate        *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// NewBill creates a pending bill for a unit and billing period
func NewBill(unitID uuid.UUID, periodStart, periodEnd, dueDate time.Time, flatUnits, motorUnits, totalUnits decimal.Decimal, totalAmount valueobject.Money) (*Bill, error) {
	if unitID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "bill requires a unit reference")
	}
	if periodEnd.Before(periodStart) {
		return nil, shared.NewDomainError("INVALID_INPUT", "billing period end must not precede its start")
	}
	if dueDate.IsZero() {
		// The workflow treats the period end as the logical due date.
		dueDate = periodEnd
	}
	now := time.Now()
	return &Bill{
		ID:                 uuid.New(),
		UnitID:             unitID,
		BillingPeriodStart: periodStart,
		BillingPeriodEnd:   periodEnd,
		DueDate:            dueDate,
		FlatUnits:          flatUnits,
		MotorUnits:         motorUnits,
		TotalUnits:         totalUnits,
		TotalAmount:        totalAmount,
		Status:             BillStatusPending,
		CreatedAt:          now,
		UpdatedAt:          now,
	}, nil
}

// TransitionTo applies a status transition, stamping UpdatedAt.
// A payment date may accompany a transition to paid.
func (b *Bill) TransitionTo(target BillStatus, paymentDate *time.Time) error {
	if !target.IsValid() {
		return shared.NewDomainError("INVALID_INPUT", "unknown bill status: "+string(target))
	}
	if !b.Status.CanTransitionTo(target) {
		return shared.NewDomainError("INVALID_STATE",
			"bill cannot move from "+string(b.Status)+" to "+string(target))
	}
	b.Status = target
	if target == BillStatusPaid && paymentDate != nil {
		b.PaymentDate = paymentDate
	}
	b.UpdatedAt = time.Now()
	return nil
}

// MarkPaid transitions the bill to paid with the given payment date
func (b *Bill) MarkPaid(paymentDate time.Time) error {
	return b.TransitionTo(BillStatusPaid, &paymentDate)
}

// MarkOverdue transitions a pending bill to overdue
func (b *Bill) MarkOverdue() error {
	return b.TransitionTo(BillStatusOverdue, nil)
}

// AdminOverrideStatus forces a status outside the automated state
// machine. Reserved for manual corrections; not called by jobs.
func (b *Bill) AdminOverrideStatus(target BillStatus) error {
	if !target.IsValid() {
		return shared.NewDomainError("INVALID_INPUT", "unknown bill status: "+string(target))
	}
	b.Status = target
	b.UpdatedAt = time.Now()
	return nil
}

// AttachPaymentLink records the payment link issued for this bill
func (b *Bill) AttachPaymentLink(url, linkID string) {
	b.PaymentLinkURL = url
	b.PaymentLinkID = linkID
	b.UpdatedAt = time.Now()
}

// IsDueWithin reports whether the bill's due date falls inside
// [today, today+days], both inclusive.
func (b *Bill) IsDueWithin(days int, today time.Time) bool {
	day := date(today)
	due := date(b.DueDate)
	return !due.Before(day) && !due.After(day.AddDate(0, 0, days))
}

// IsOverdue reports whether the due date is strictly before today
func (b *Bill) IsOverdue(today time.Time) bool {
	return date(b.DueDate).Before(date(today))
}

// DaysUntilDue returns the whole days between today and the due date,
// floored at zero.
func (b *Bill) DaysUntilDue(today time.Time) int {
	d := int(date(b.DueDate).Sub(date(today)).Hours() / 24)
	if d < 0 {
		return 0
	}
	return d
}

func date(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
