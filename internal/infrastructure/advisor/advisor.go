package advisor

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// ValidationResult is the advisor's verdict on a candidate reading
type ValidationResult struct {
	Valid      bool   `json:"valid"`
	Reason     string `json:"reason"`
	Confidence int    `json:"confidence"`
}

// MessageContext carries the fields templated messages draw on
type MessageContext struct {
	UnitCode    string
	Amount      string
	DueDate     string
	DaysUntil   int
	PeriodLabel string
}

// Advisor optionally validates readings and generates notification
// text. The billing engine must work fully with only the disabled
// implementation below.
type Advisor interface {
	ValidateReading(ctx context.Context, history []decimal.Decimal, candidate decimal.Decimal) (*ValidationResult, error)
	GenerateMessage(ctx context.Context, kind string, mc MessageContext) (string, error)
}

// Disabled is the fallback Advisor: every reading passes a fixed
// basic check and messages come from templates.
type Disabled struct{}

// NewDisabled creates the fallback advisor
func NewDisabled() *Disabled {
	return &Disabled{}
}

// ValidateReading returns the fixed pass-through verdict
func (Disabled) ValidateReading(_ context.Context, _ []decimal.Decimal, _ decimal.Decimal) (*ValidationResult, error) {
	return &ValidationResult{
		Valid:      true,
		Reason:     "validation disabled - basic check passed",
		Confidence: 50,
	}, nil
}

// GenerateMessage renders a templated message for the message kind
func (Disabled) GenerateMessage(_ context.Context, kind string, mc MessageContext) (string, error) {
	switch kind {
	case "bill_issued":
		return fmt.Sprintf("Your electricity bill for %s is ready. Amount: ₹%s, due by %s.",
			mc.PeriodLabel, mc.Amount, mc.DueDate), nil
	case "payment_reminder":
		if mc.DaysUntil <= 1 {
			return fmt.Sprintf("Urgent: your electricity bill of ₹%s for %s is due by %s. Please pay today.",
				mc.Amount, mc.UnitCode, mc.DueDate), nil
		}
		return fmt.Sprintf("Reminder: your electricity bill of ₹%s for %s is due in %d days (%s).",
			mc.Amount, mc.UnitCode, mc.DaysUntil, mc.DueDate), nil
	case "overdue_notice":
		return fmt.Sprintf("Your electricity bill of ₹%s for %s is overdue since %s. Please pay at the earliest.",
			mc.Amount, mc.UnitCode, mc.DueDate), nil
	default:
		return fmt.Sprintf("Update on your electricity account %s.", mc.UnitCode), nil
	}
}
