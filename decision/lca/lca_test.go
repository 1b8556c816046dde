package lca

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"efuel-lca/decision/params"
	lcaerrors "efuel-lca/pkg/errors"
	"efuel-lca/pkg/units"
)

func TestNormalizationFactor(t *testing.T) {
	f, err := NormalizationFactor(units.FunctionalUnitEnergy, 43, 0.8)
	require.NoError(t, err)
	assert.Equal(t, 1.0/43, f)

	f, err = NormalizationFactor(units.FunctionalUnitMass, 43, 0.8)
	require.NoError(t, err)
	assert.Equal(t, 1.0, f)

	f, err = NormalizationFactor(units.FunctionalUnitVolume, 43, 0)
	require.NoError(t, err)
	assert.Equal(t, 0.8, f)

	_, err = NormalizationFactor("gal", 43, 0.8)
	assert.ErrorIs(t, err, lcaerrors.ErrInvalidParameter)

	_, err = NormalizationFactor(units.FunctionalUnitEnergy, 0, 0.8)
	assert.ErrorIs(t, err, lcaerrors.ErrInvalidParameter)
}

func TestBreakdownRejectsMixedUnits(t *testing.T) {
	b := NewBreakdown(units.FunctionalUnitEnergy)
	require.NoError(t, b.Add("a", Quantity{Value: 1, Unit: units.FunctionalUnitEnergy}))

	err := b.Add("b", Quantity{Value: 1, Unit: units.FunctionalUnitMass})
	assert.ErrorIs(t, err, lcaerrors.ErrInconsistentCoupling)
	assert.Len(t, b.Stages, 1)
	assert.Equal(t, 1.0, b.Total)
}

func TestAssessReferenceScenario(t *testing.T) {
	a, err := Assess(params.Default(), 0.020)
	require.NoError(t, err)

	assert.InDelta(t, 29.2076, a.Emissions.IntensityGPerMJ, 1e-3)
	assert.InDelta(t, 67.18, a.Emissions.ReductionPct, 1e-2)
	assert.True(t, a.Emissions.MeetsREDII)
	assert.True(t, a.Emissions.MeetsCORSIA)

	// per kg fuel: 0.31 capture, 0.696 electrolysis, 0.2 FT, 0.05 distribution
	capture, ok := a.Emissions.Get(StageCarbonCapture)
	require.True(t, ok)
	assert.InDelta(t, 0.31/43, capture, 1e-12)

	electrolysis, _ := a.Emissions.Get(StageElectrolysis)
	assert.InDelta(t, 0.695929/43, electrolysis, 1e-8)

	use, _ := a.Emissions.Get(StageUsePhase)
	assert.Equal(t, 0.0, use)

	assert.Equal(t, 0.0, a.LandUse)
	assert.InDelta(t, 268.517/43, a.Energy.Total, 1e-3)
	assert.InDelta(t, 66.975/43, a.Water.Total, 1e-9)
}

func TestAssessTotalIsOrderedSum(t *testing.T) {
	a, err := Assess(params.Default(), 0.389)
	require.NoError(t, err)

	for _, b := range []*Breakdown{a.Emissions.Breakdown, a.Energy, a.Water} {
		sum := 0.0
		for _, s := range b.Stages {
			sum += s.Value
		}
		assert.Equal(t, sum, b.Total)
	}

	var names []string
	for _, s := range a.Emissions.Stages {
		names = append(names, s.Stage)
	}
	assert.Equal(t, []string{StageCarbonCapture, StageElectrolysis, StageConversion, StageDistribution, StageUsePhase}, names)
}

func TestAssessUnitBasisInvariance(t *testing.T) {
	base := params.Default()
	ref, err := Assess(base, 0.1)
	require.NoError(t, err)

	for _, fu := range []units.FunctionalUnit{units.FunctionalUnitMass, units.FunctionalUnitVolume} {
		s := base.Clone()
		s.FunctionalUnit = fu
		a, err := Assess(s, 0.1)
		require.NoError(t, err)

		assert.InDelta(t, ref.Emissions.IntensityGPerMJ, a.Emissions.IntensityGPerMJ, 1e-9, string(fu))
		assert.InDelta(t, ref.Emissions.ReductionPct, a.Emissions.ReductionPct, 1e-9, string(fu))

		perKgRef := ref.Emissions.Total / ref.NormalizationFactor
		perKg := a.Emissions.Total / a.NormalizationFactor
		assert.InDelta(t, perKgRef, perKg, 1e-12, string(fu))
	}

	s := base.Clone()
	s.FunctionalUnit = units.FunctionalUnitVolume
	a, err := Assess(s, 0.020)
	require.NoError(t, err)
	assert.InDelta(t, 1.0047430519, a.Emissions.Total, 1e-9)
}

func TestAssessDirtyGridMissesThreshold(t *testing.T) {
	a, err := Assess(params.Default(), 0.820)
	require.NoError(t, err)
	assert.False(t, a.Emissions.MeetsREDII)
	assert.Greater(t, a.Emissions.Share(StageElectrolysis), 90.0)
}

func TestAssessRejectsInvalidInputs(t *testing.T) {
	_, err := Assess(params.Default(), -1)
	assert.ErrorIs(t, err, lcaerrors.ErrInvalidParameter)

	s := params.Default()
	s.CO2Electrolysis.StageEfficiency = 65
	_, err = Assess(s, 0.02)
	assert.ErrorIs(t, err, lcaerrors.ErrInvalidParameter)
}

func TestReductionPercent(t *testing.T) {
	r, err := ReductionPercent(FossilBaselineCORSIA, 29.2076)
	require.NoError(t, err)
	assert.InDelta(t, 67.18, r, 1e-2)

	r, err = ReductionPercent(FossilBaselineREDII, 29.2076)
	require.NoError(t, err)
	assert.InDelta(t, 68.93, r, 1e-2)

	r, err = ReductionPercent(89, 120)
	require.NoError(t, err)
	assert.Less(t, r, 0.0)

	_, err = ReductionPercent(0, 10)
	assert.ErrorIs(t, err, lcaerrors.ErrInvalidParameter)
}

func TestToGramsPerMJ(t *testing.T) {
	g, err := ToGramsPerMJ(1.0, units.FunctionalUnitMass, 43, 0.8)
	require.NoError(t, err)
	assert.InDelta(t, 1000.0/43, g, 1e-12)

	g, err = ToGramsPerMJ(0.8, units.FunctionalUnitVolume, 43, 0.8)
	require.NoError(t, err)
	assert.InDelta(t, 1000.0/43, g, 1e-12)
}

func TestNormalizeVolumeDefaultsFuelDensity(t *testing.T) {
	q, err := Normalize(2, units.FunctionalUnitVolume, 43, 0)
	require.NoError(t, err)
	assert.Equal(t, Quantity{Value: 1.6, Unit: units.FunctionalUnitVolume}, q)

	q, err = Normalize(2, units.FunctionalUnitVolume, 43, 0.75)
	require.NoError(t, err)
	assert.Equal(t, 1.5, q.Value)

	perKg, err := q.PerKg(43, 0.75)
	require.NoError(t, err)
	assert.InDelta(t, 2, perKg, 1e-12)
}

func TestCouple(t *testing.T) {
	set := params.Default()
	plant := []StageEmission{
		{Stage: StageCarbonCapture, Kg: 300},
		{Stage: StageElectrolysis, Kg: 800},
		{Stage: StageElectrolysis, Kg: 400},
		{Stage: StageConversion, Kg: 200},
	}

	c, err := Couple(set, 1000, plant)
	require.NoError(t, err)

	stages := make([]string, 0, len(c.Stages))
	for _, s := range c.Stages {
		stages = append(stages, s.Stage)
	}
	assert.Equal(t, []string{StageCarbonCapture, StageElectrolysis, StageConversion, StageDistribution, StageUsePhase}, stages)

	electrolysis, _ := c.Get(StageElectrolysis)
	assert.InDelta(t, 1.2/43, electrolysis, 1e-12)
	// 0.3 + 1.2 + 0.2 + 0.05 distribution kg per kg fuel
	assert.InDelta(t, 1.75/43*1000, c.IntensityGPerMJ, 1e-9)
	assert.InDelta(t, (89-1.75/43*1000)/89*100, c.ReductionPct, 1e-9)

	// the intensity does not depend on the reporting unit
	set.FunctionalUnit = units.FunctionalUnitVolume
	inL, err := Couple(set, 1000, plant)
	require.NoError(t, err)
	assert.InDelta(t, c.IntensityGPerMJ, inL.IntensityGPerMJ, 1e-9)
	assert.InDelta(t, 1.75*0.8, inL.Total, 1e-12)
}

func TestCoupleRejectsBadInput(t *testing.T) {
	set := params.Default()

	_, err := Couple(set, 0, nil)
	assert.ErrorIs(t, err, lcaerrors.ErrInvalidParameter)

	_, err = Couple(set, 1000, []StageEmission{{Stage: StageDistribution, Kg: 1}})
	assert.ErrorIs(t, err, lcaerrors.ErrInconsistentCoupling)

	_, err = Couple(set, 1000, []StageEmission{{Stage: StageConversion, Kg: -1}})
	assert.ErrorIs(t, err, lcaerrors.ErrInvalidParameter)
}
