package units

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnergyConversionsRoundTrip(t *testing.T) {
	assert.InDelta(t, 10.0, MJToKWh(KWhToMJ(10)), 1e-12)
	assert.Equal(t, 36.0, KWhToMJ(10))
}

func TestVolumeConversions(t *testing.T) {
	assert.InDelta(t, 1.0, LitersToGallons(LitersPerGallon), 1e-12)
	assert.InDelta(t, 1.0, LitersToBarrels(LitersPerBarrel), 1e-12)
	assert.InDelta(t, 1.25, KgToLiters(1, DefaultFuelDensity), 1e-12)
	assert.Equal(t, 0.0, KgToLiters(1, 0))
}

func TestMassConversions(t *testing.T) {
	assert.Equal(t, 2.5, KgToTon(2500))
	assert.Equal(t, 2500.0, TonToKg(2.5))
}

func TestStoichiometry(t *testing.T) {
	// CO2 -> CO: 44.01 / 28.01
	assert.InDelta(t, 1.5712, StoichiometricMassRatio(MolarMassCO2, MolarMassCO), 1e-4)
	// 13 mol H2 per 12 mol CO in mass terms
	assert.InDelta(t, 0.07797, MolarToMassRatio(13.0/12.0, MolarMassH2, MolarMassCO), 1e-5)
}

func TestParseFunctionalUnit(t *testing.T) {
	for _, s := range []string{"MJ", "kg", "L"} {
		fu, err := ParseFunctionalUnit(s)
		require.NoError(t, err)
		assert.Equal(t, FunctionalUnit(s), fu)
	}

	_, err := ParseFunctionalUnit("gallon")
	assert.Error(t, err)
}

func TestOperatingHours(t *testing.T) {
	assert.InDelta(t, 7884.0, OperatingHours(0.9), 1e-9)
}
