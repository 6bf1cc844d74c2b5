package billing

import (
	"time"

	"github.com/google/uuid"
)

// NotificationStatus records the delivery outcome of one send attempt
type NotificationStatus string

const (
	NotificationStatusSent   NotificationStatus = "sent"
	NotificationStatusFailed NotificationStatus = "failed"
)

// NotificationKind distinguishes the message types the jobs emit
type NotificationKind string

const (
	NotificationKindBillIssued NotificationKind = "bill_issued"
	NotificationKindReminder   NotificationKind = "payment_reminder"
	NotificationKindOverdue    NotificationKind = "overdue_notice"
)

// Notification is an audit row written for every outbound message
// attempt, successful or not.
type Notification struct {
	ID        uuid.UUID
	BillID    *uuid.UUID
	UnitID    *uuid.UUID
	Kind      NotificationKind
	Channel   string
	Message   string
	Status    NotificationStatus
	SentAt    time.Time
	CreatedAt time.Time
}

// ReminderTier is the urgency bucket for payment reminders
type ReminderTier string

const (
	TierRoutine ReminderTier = "routine"
	TierSoon    ReminderTier = "soon"
	TierUrgent  ReminderTier = "urgent"
	TierOverdue ReminderTier = "overdue"
)

// TierForDaysUntilDue maps days remaining before the due date to an
// urgency tier. Negative days mean the bill is already past due.
func TierForDaysUntilDue(days int) ReminderTier {
	switch {
	case days < 0:
		return TierOverdue
	case days <= 1:
		return TierUrgent
	case days == 2:
		return TierSoon
	default:
		return TierRoutine
	}
}
