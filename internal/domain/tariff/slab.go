package tariff

import (
	"strings"

	"github.com/shopspring/decimal"
)

// TariffClass selects a tiered tariff structure
type TariffClass string

const (
	ClassResidential TariffClass = "residential"
	ClassCommercial  TariffClass = "commercial"
)

// EnergyTier is one consumption slab. Upper is nil for the open-ended
// top slab.
type EnergyTier struct {
	Label string
	Lower decimal.Decimal
	Upper *decimal.Decimal
	Rate  decimal.Decimal
}

// FixedComponents are the flat monthly charges of a tiered tariff
type FixedComponents struct {
	MotorCharges          decimal.Decimal
	CommonAreaMaintenance decimal.Decimal
	GridChargesPerKW      decimal.Decimal
}

// TaxRates are the percentage levies applied on top of charges
type TaxRates struct {
	ElectricityDuty decimal.Decimal // fraction of energy charges
	TaxOnSale       decimal.Decimal // fraction of the subtotal
}

// PaymentTerms describe the settlement conditions of a tariff
type PaymentTerms struct {
	DueDays                 int
	BounceCharge            decimal.Decimal
	LatePaymentInterestRate decimal.Decimal
}

// Tariff is a complete tiered tariff structure. This is the legacy
// calculation path kept alongside the formula-based Compute; callers
// select it explicitly via ComputeTiered.
type Tariff struct {
	ID           string
	Name         string
	Active       bool
	Currency     string
	BillingCycle string
	Fixed        FixedComponents
	Tiers        []EnergyTier
	Taxes        TaxRates
	Terms        PaymentTerms
}

func dec(f float64) decimal.Decimal { return decimal.NewFromFloat(f) }

func upper(f float64) *decimal.Decimal {
	d := decimal.NewFromFloat(f)
	return &d
}

// ResidentialStandard returns the standard residential tiered tariff
func ResidentialStandard() Tariff {
	return Tariff{
		ID:           "TARIFF_RES_001",
		Name:         "Residential Standard Tariff",
		Active:       true,
		Currency:     "INR",
		BillingCycle: "monthly",
		Fixed: FixedComponents{
			MotorCharges:          dec(12.00),
			CommonAreaMaintenance: dec(2954.00),
			GridChargesPerKW:      dec(51.00),
		},
		Tiers: []EnergyTier{
			{Label: "Tier 1 (0-100 kWh)", Lower: dec(0), Upper: upper(100), Rate: dec(4.50)},
			{Label: "Tier 2 (101-300 kWh)", Lower: dec(101), Upper: upper(300), Rate: dec(6.00)},
			{Label: "Tier 3 (301-500 kWh)", Lower: dec(301), Upper: upper(500), Rate: dec(7.50)},
			{Label: "Tier 4 (500+ kWh)", Lower: dec(501), Upper: nil, Rate: dec(9.00)},
		},
		Taxes: TaxRates{ElectricityDuty: dec(0.10), TaxOnSale: dec(0)},
		Terms: PaymentTerms{DueDays: 15, BounceCharge: dec(500.00), LatePaymentInterestRate: dec(0.18)},
	}
}

// CommercialStandard returns the standard commercial tiered tariff
func CommercialStandard() Tariff {
	return Tariff{
		ID:           "TARIFF_COM_001",
		Name:         "Commercial Standard Tariff",
		Active:       true,
		Currency:     "INR",
		BillingCycle: "monthly",
		Fixed: FixedComponents{
			MotorCharges:          dec(20.00),
			CommonAreaMaintenance: dec(5000.00),
			GridChargesPerKW:      dec(75.00),
		},
		Tiers: []EnergyTier{
			{Label: "Tier 1 (0-200 kWh)", Lower: dec(0), Upper: upper(200), Rate: dec(7.00)},
			{Label: "Tier 2 (201-500 kWh)", Lower: dec(201), Upper: upper(500), Rate: dec(8.50)},
			{Label: "Tier 3 (500+ kWh)", Lower: dec(501), Upper: nil, Rate: dec(10.00)},
		},
		Taxes: TaxRates{ElectricityDuty: dec(0.12), TaxOnSale: dec(0.05)},
		Terms: PaymentTerms{DueDays: 15, BounceCharge: dec(1000.00), LatePaymentInterestRate: dec(0.18)},
	}
}

// ByClass returns the tariff for a class name; anything other than
// commercial falls back to residential.
func ByClass(class TariffClass) Tariff {
	if strings.EqualFold(string(class), string(ClassCommercial)) {
		return CommercialStandard()
	}
	return ResidentialStandard()
}

// TierCharge is the billed portion of one slab
type TierCharge struct {
	Tier   string          `json:"tier"`
	KWh    decimal.Decimal `json:"kwh"`
	Rate   decimal.Decimal `json:"rate"`
	Amount decimal.Decimal `json:"amount"`
}

// TieredBreakdown itemizes a tiered-tariff bill
type TieredBreakdown struct {
	ConsumptionKWh  decimal.Decimal `json:"consumption_kwh"`
	ConnectedLoadKW decimal.Decimal `json:"connected_load_kw"`
	TariffID        string          `json:"tariff_id"`
	TariffName      string          `json:"tariff_name"`

	TierBreakdown []TierCharge    `json:"tier_breakdown"`
	EnergyCharges decimal.Decimal `json:"energy_charges"`

	MotorCharges      decimal.Decimal `json:"motor_charges"`
	GridCharges       decimal.Decimal `json:"grid_charges"`
	CommonAreaCharges decimal.Decimal `json:"common_area_charges"`
	FixedTotal        decimal.Decimal `json:"fixed_total"`

	ElectricityDuty decimal.Decimal `json:"electricity_duty"`
	TaxOnSale       decimal.Decimal `json:"tax_on_sale"`

	Subtotal            decimal.Decimal `json:"subtotal"`
	TotalCharges        decimal.Decimal `json:"total_charges"`
	PreviousOutstanding decimal.Decimal `json:"previous_outstanding"`
	AmountPayable       decimal.Decimal `json:"amount_payable"`

	Currency string       `json:"currency"`
	Terms    PaymentTerms `json:"payment_terms"`
}

// EnergyCharges walks consumption through the tariff's slabs and
// returns the per-tier charges plus the energy total.
func EnergyCharges(consumptionKWh decimal.Decimal, t Tariff) ([]TierCharge, decimal.Decimal) {
	one := decimal.NewFromInt(1)
	remaining := consumptionKWh
	total := decimal.Zero
	var charges []TierCharge

	for _, tier := range t.Tiers {
		if !remaining.IsPositive() {
			break
		}
		inTier := remaining
		if tier.Upper != nil {
			capacity := tier.Upper.Sub(tier.Lower).Add(one)
			if remaining.GreaterThan(capacity) {
				inTier = capacity
			}
		}
		amount := inTier.Mul(tier.Rate)
		charges = append(charges, TierCharge{
			Tier:   tier.Label,
			KWh:    inTier.Round(2),
			Rate:   tier.Rate,
			Amount: amount.Round(2),
		})
		total = total.Add(amount)
		remaining = remaining.Sub(inTier)
	}
	return charges, total.Round(2)
}

// ComputeTiered calculates a complete bill under the tiered tariff:
// slab energy charges, fixed components (motor, common area, grid per
// connected kW), electricity duty on energy and sale tax on the
// subtotal, plus any carry-forward outstanding.
func ComputeTiered(consumptionKWh, connectedLoadKW decimal.Decimal, class TariffClass, previousOutstanding decimal.Decimal) TieredBreakdown {
	t := ByClass(class)

	tierCharges, energy := EnergyCharges(clampZero(consumptionKWh), t)

	grid := clampZero(connectedLoadKW).Mul(t.Fixed.GridChargesPerKW)
	fixedTotal := t.Fixed.MotorCharges.Add(grid).Add(t.Fixed.CommonAreaMaintenance)

	subtotal := energy.Add(fixedTotal)
	duty := energy.Mul(t.Taxes.ElectricityDuty)
	saleTax := subtotal.Mul(t.Taxes.TaxOnSale)

	totalCharges := subtotal.Add(duty).Add(saleTax)
	outstanding := clampZero(previousOutstanding)
	payable := totalCharges.Add(outstanding)

	return TieredBreakdown{
		ConsumptionKWh:  clampZero(consumptionKWh).Round(2),
		ConnectedLoadKW: clampZero(connectedLoadKW),
		TariffID:        t.ID,
		TariffName:      t.Name,

		TierBreakdown: tierCharges,
		EnergyCharges: energy,

		MotorCharges:      t.Fixed.MotorCharges.Round(2),
		GridCharges:       grid.Round(2),
		CommonAreaCharges: t.Fixed.CommonAreaMaintenance.Round(2),
		FixedTotal:        fixedTotal.Round(2),

		ElectricityDuty: duty.Round(2),
		TaxOnSale:       saleTax.Round(2),

		Subtotal:            subtotal.Round(2),
		TotalCharges:        totalCharges.Round(2),
		PreviousOutstanding: outstanding.Round(2),
		AmountPayable:       payable.Round(2),

		Currency: t.Currency,
		Terms:    t.Terms,
	}
}
