package tariff

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnergyChargesResidentialSlabs(t *testing.T) {
	charges, total := EnergyCharges(decimal.NewFromInt(250), ResidentialStandard())

	require.Len(t, charges, 2)
	assert.Equal(t, "101", charges[0].KWh.String())
	assert.Equal(t, "454.5", charges[0].Amount.String())
	assert.Equal(t, "149", charges[1].KWh.String())
	assert.Equal(t, "894", charges[1].Amount.String())
	assert.Equal(t, "1348.5", total.String())
}

func TestEnergyChargesZeroConsumption(t *testing.T) {
	charges, total := EnergyCharges(decimal.Zero, ResidentialStandard())
	assert.Empty(t, charges)
	assert.True(t, total.IsZero())
}

func TestEnergyChargesTopSlabUnbounded(t *testing.T) {
	_, total := EnergyCharges(decimal.NewFromInt(10000), CommercialStandard())
	// 201*7 + 300*8.5 + 9499*10
	assert.Equal(t, "98947", total.String())
}

func TestComputeTieredResidential(t *testing.T) {
	b := ComputeTiered(
		decimal.NewFromInt(250),
		decimal.NewFromInt(7),
		ClassResidential,
		decimal.Zero,
	)

	assert.Equal(t, "TARIFF_RES_001", b.TariffID)
	assert.Equal(t, "1348.5", b.EnergyCharges.String())
	assert.Equal(t, "357", b.GridCharges.String())
	assert.Equal(t, "2954", b.CommonAreaCharges.String())
	assert.Equal(t, "3323", b.FixedTotal.String())
	assert.Equal(t, "134.85", b.ElectricityDuty.String())
	assert.True(t, b.TaxOnSale.IsZero())
	assert.Equal(t, "4671.5", b.Subtotal.String())
	assert.Equal(t, "4806.35", b.AmountPayable.String())
	assert.Equal(t, "INR", b.Currency)
	assert.Equal(t, 15, b.Terms.DueDays)
}

func TestComputeTieredCarriesOutstanding(t *testing.T) {
	base := ComputeTiered(decimal.NewFromInt(250), decimal.NewFromInt(7), ClassResidential, decimal.Zero)
	with := ComputeTiered(decimal.NewFromInt(250), decimal.NewFromInt(7), ClassResidential, decimal.NewFromInt(100))
	diff := with.AmountPayable.Sub(base.AmountPayable)
	assert.Equal(t, "100", diff.String())
}

func TestByClassFallsBackToResidential(t *testing.T) {
	assert.Equal(t, "TARIFF_COM_001", ByClass(ClassCommercial).ID)
	assert.Equal(t, "TARIFF_RES_001", ByClass("unknown").ID)
}
