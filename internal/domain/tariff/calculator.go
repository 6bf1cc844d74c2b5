package tariff

import (
	"github.com/shopspring/decimal"
)

// BillBreakdown itemizes one bill computation. Every intermediate of
// the formula is carried so callers can render the full breakdown.
type BillBreakdown struct {
	FlatUnits           decimal.Decimal `json:"flat_units"`
	MotorUnits          decimal.Decimal `json:"motor_units"`
	TotalBlockUnits     decimal.Decimal `json:"total_block_units"`
	WaterMotorShare     decimal.Decimal `json:"water_motor_share"`
	TotalUnits          decimal.Decimal `json:"total_units"`
	RatePerUnit         decimal.Decimal `json:"rate_per_unit"`
	FixedCharge         decimal.Decimal `json:"fixed_charge"`
	UsageCharge         decimal.Decimal `json:"usage_charge"`
	PreviousOutstanding decimal.Decimal `json:"previous_outstanding"`
	TotalAmount         decimal.Decimal `json:"total_amount"`
}

// WaterMotorShare apportions the shared motor consumption to one flat:
// (motor / totalBlock) * flat, rounded to 2 decimals. Zero when the
// motor ran no units or no block total is known.
func WaterMotorShare(motorUnits, totalBlockUnits, flatUnits decimal.Decimal) decimal.Decimal {
	if !motorUnits.IsPositive() || !totalBlockUnits.IsPositive() || flatUnits.IsNegative() {
		return decimal.Zero
	}
	return motorUnits.Div(totalBlockUnits).Mul(flatUnits).Round(2)
}

// Compute runs the billing formula:
//
//	total_units  = flat_units + water_motor_share
//	usage_charge = total_units * rate_per_unit
//	total_amount = usage_charge + fixed_charge + previous_outstanding
//
// Inputs are clamped to non-negative, each charge term is rounded to 2
// decimals before summation. Pure and deterministic.
func Compute(flatUnits, motorUnits, totalBlockUnits, ratePerUnit, fixedCharge, previousOutstanding decimal.Decimal) BillBreakdown {
	flat := clampZero(flatUnits)
	motor := clampZero(motorUnits)
	totalBlock := clampZero(totalBlockUnits)
	rate := clampZero(ratePerUnit)
	fixed := clampZero(fixedCharge).Round(2)
	outstanding := clampZero(previousOutstanding).Round(2)

	share := WaterMotorShare(motor, totalBlock, flat)
	totalUnits := flat.Add(share).Round(2)
	usageCharge := totalUnits.Mul(rate).Round(2)
	totalAmount := usageCharge.Add(fixed).Add(outstanding).Round(2)

	return BillBreakdown{
		FlatUnits:           flat.Round(2),
		MotorUnits:          motor.Round(2),
		TotalBlockUnits:     totalBlock.Round(2),
		WaterMotorShare:     share,
		TotalUnits:          totalUnits,
		RatePerUnit:         rate,
		FixedCharge:         fixed,
		UsageCharge:         usageCharge,
		PreviousOutstanding: outstanding,
		TotalAmount:         totalAmount,
	}
}

func clampZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
