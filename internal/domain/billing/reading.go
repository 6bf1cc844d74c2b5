package billing

import (
	"time"

	"github.com/shopspring/decimal"
)

// Reading is a cumulative meter reading taken on a date. Consumption is
// the delta against the previous reading of the same meter, floored at
// zero, computed at insert time.
type Reading struct {
	ID          int64
	MeterID     int64
	Value       decimal.Decimal
	ReadingDate time.Time
	Consumption decimal.Decimal
	IsBilled    bool
	CreatedAt   time.Time
}

// ConsumptionBetween derives the units consumed between two cumulative
// readings, newest minus previous, floored at zero. A negative delta
// means a meter rollover or a correction and is treated as zero usage.
func ConsumptionBetween(previous, latest decimal.Decimal) decimal.Decimal {
	d := latest.Sub(previous)
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
