package uncertainty

import (
	"context"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"gonum.org/v1/gonum/stat"

	"efuel-lca/decision/integration"
	"efuel-lca/decision/params"
	lcaerrors "efuel-lca/pkg/errors"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func ptr(v float64) *float64 { return &v }

func withUncertainty(u params.Uncertainty) *params.Set {
	s := params.Default()
	s.Uncertainty = u
	return s
}

// directPipeline reports two parameters unchanged, so sampled values can be inspected.
func directPipeline(_ context.Context, s *params.Set) (map[string]float64, error) {
	return map[string]float64{
		"capture_ghg":   s.Capture.GHGFactor,
		"synthesis_ghg": s.Synthesis.GHGFactor,
	}, nil
}

func TestMonteCarloConvergesToDeterministic(t *testing.T) {
	engine := integration.NewEngine(nil)
	base := withUncertainty(params.Uncertainty{
		Distributions: map[string]params.DistributionSpec{
			"distribution.ghg_factor": {Kind: params.DistNormal, Mean: 0.05, Spread: 0.01, Lower: ptr(0)},
		},
	})

	det, err := engine.Evaluate(context.Background(), base)
	require.NoError(t, err)

	// ghg_intensity is linear in the factor: sd = 0.01 kg/kg × 1000 / 43 g/MJ
	sigma := 0.01 * 1000 / 43

	for _, n := range []int{100, 10000} {
		res, err := MonteCarlo{Trials: n, Seed: 42}.Run(context.Background(), base, engine.Evaluate)
		require.NoError(t, err)

		got := res.Metrics[integration.MetricGHGIntensity]
		assert.Equal(t, n, got.Count)
		bound := 4 * sigma / math.Sqrt(float64(n))
		assert.InDelta(t, det[integration.MetricGHGIntensity], got.Mean, bound, "trials=%d", n)
		assert.InDelta(t, sigma, got.StdDev, sigma*0.5, "trials=%d", n)
	}
}

func TestMonteCarloIsReproducibleAcrossWorkerCounts(t *testing.T) {
	base := withUncertainty(params.Uncertainty{
		Distributions: map[string]params.DistributionSpec{
			"capture.ghg_factor":   {Kind: params.DistTriangular, Mean: 0.08, Spread: 0.02},
			"synthesis.ghg_factor": {Kind: params.DistLognormal, Mean: 0.2, Spread: 0.05},
		},
	})

	one, err := MonteCarlo{Trials: 300, Seed: 7, Workers: 1}.Run(context.Background(), base, directPipeline)
	require.NoError(t, err)
	many, err := MonteCarlo{Trials: 300, Seed: 7, Workers: 8}.Run(context.Background(), base, directPipeline)
	require.NoError(t, err)

	assert.Equal(t, one.Metrics, many.Metrics)
	assert.NotEqual(t, one.RunID, many.RunID)
	assert.Equal(t, []string{"capture.ghg_factor", "synthesis.ghg_factor"}, one.Parameters)
}

func TestMonteCarloKeepsSamplesAndLeavesBaseUntouched(t *testing.T) {
	base := withUncertainty(params.Uncertainty{
		Distributions: map[string]params.DistributionSpec{
			"capture.ghg_factor": {Kind: params.DistUniform, Mean: 0.08, Spread: 0.01},
		},
	})

	res, err := MonteCarlo{Trials: 50, Seed: 1, KeepSamples: true}.Run(context.Background(), base, directPipeline)
	require.NoError(t, err)
	require.Len(t, res.Samples, 50)

	for i, s := range res.Samples {
		assert.Equal(t, i, s.Index)
		v := s.Parameters["capture.ghg_factor"]
		assert.GreaterOrEqual(t, v, 0.07)
		assert.LessOrEqual(t, v, 0.09)
		assert.Equal(t, v, s.Metrics["capture_ghg"])
	}
	assert.Equal(t, 0.08, base.Capture.GHGFactor)
}

func TestMonteCarloRespectsBounds(t *testing.T) {
	base := withUncertainty(params.Uncertainty{
		Distributions: map[string]params.DistributionSpec{
			"capture.ghg_factor": {Kind: params.DistNormal, Mean: 0.08, Spread: 0.05, Lower: ptr(0.06), Upper: ptr(0.1)},
		},
	})
	res, err := MonteCarlo{Trials: 500, Seed: 3}.Run(context.Background(), base, directPipeline)
	require.NoError(t, err)

	s := res.Metrics["capture_ghg"]
	assert.GreaterOrEqual(t, s.Min, 0.06)
	assert.LessOrEqual(t, s.Max, 0.1)
}

func TestMonteCarloLognormalMatchesArithmeticMoments(t *testing.T) {
	base := withUncertainty(params.Uncertainty{
		Distributions: map[string]params.DistributionSpec{
			"synthesis.ghg_factor": {Kind: params.DistLognormal, Mean: 0.2, Spread: 0.05},
		},
	})
	res, err := MonteCarlo{Trials: 20000, Seed: 11}.Run(context.Background(), base, directPipeline)
	require.NoError(t, err)

	s := res.Metrics["synthesis_ghg"]
	assert.InDelta(t, 0.2, s.Mean, 0.002)
	assert.InDelta(t, 0.05, s.StdDev, 0.003)
	assert.Greater(t, s.Min, 0.0)
}

func TestMonteCarloCorrelatedDraws(t *testing.T) {
	base := withUncertainty(params.Uncertainty{
		Distributions: map[string]params.DistributionSpec{
			"capture.ghg_factor":   {Kind: params.DistNormal, Mean: 0.08, Spread: 0.01},
			"synthesis.ghg_factor": {Kind: params.DistNormal, Mean: 0.2, Spread: 0.02},
		},
		Correlations: []params.Correlation{{A: "capture.ghg_factor", B: "synthesis.ghg_factor", Rho: 0.8}},
	})

	res, err := MonteCarlo{Trials: 4000, Seed: 5, KeepSamples: true}.Run(context.Background(), base, directPipeline)
	require.NoError(t, err)

	a := make([]float64, len(res.Samples))
	b := make([]float64, len(res.Samples))
	for i, s := range res.Samples {
		a[i] = s.Metrics["capture_ghg"]
		b[i] = s.Metrics["synthesis_ghg"]
	}
	assert.InDelta(t, 0.8, stat.Correlation(a, b, nil), 0.05)
	assert.InDelta(t, 0.08, stat.Mean(a, nil), 0.001)
	assert.InDelta(t, 0.02, stat.StdDev(b, nil), 0.002)
}

func TestSamplerRejectsBadSpecs(t *testing.T) {
	normal := func(mean, sd float64) params.DistributionSpec {
		return params.DistributionSpec{Kind: params.DistNormal, Mean: mean, Spread: sd}
	}

	tests := []struct {
		name string
		u    params.Uncertainty
	}{
		{"negative spread", params.Uncertainty{Distributions: map[string]params.DistributionSpec{
			"capture.ghg_factor": normal(0.08, -0.01),
		}}},
		{"unknown kind", params.Uncertainty{Distributions: map[string]params.DistributionSpec{
			"capture.ghg_factor": {Kind: "cauchy", Mean: 0.08, Spread: 0.01},
		}}},
		{"unknown parameter", params.Uncertainty{Distributions: map[string]params.DistributionSpec{
			"capture.nonsense": normal(1, 0.1),
		}}},
		{"lognormal without positive mean", params.Uncertainty{Distributions: map[string]params.DistributionSpec{
			"capture.ghg_factor": {Kind: params.DistLognormal, Mean: 0, Spread: 0.01},
		}}},
		{"inverted bounds", params.Uncertainty{Distributions: map[string]params.DistributionSpec{
			"capture.ghg_factor": {Kind: params.DistNormal, Mean: 0.08, Spread: 0.01, Lower: ptr(1), Upper: ptr(0)},
		}}},
		{"correlation with undeclared parameter", params.Uncertainty{
			Distributions: map[string]params.DistributionSpec{"capture.ghg_factor": normal(0.08, 0.01)},
			Correlations:  []params.Correlation{{A: "capture.ghg_factor", B: "synthesis.ghg_factor", Rho: 0.5}},
		}},
		{"correlation on uniform parameter", params.Uncertainty{
			Distributions: map[string]params.DistributionSpec{
				"capture.ghg_factor":   normal(0.08, 0.01),
				"synthesis.ghg_factor": {Kind: params.DistUniform, Mean: 0.2, Spread: 0.02},
			},
			Correlations: []params.Correlation{{A: "capture.ghg_factor", B: "synthesis.ghg_factor", Rho: 0.5}},
		}},
		{"correlation out of range", params.Uncertainty{
			Distributions: map[string]params.DistributionSpec{
				"capture.ghg_factor":   normal(0.08, 0.01),
				"synthesis.ghg_factor": normal(0.2, 0.02),
			},
			Correlations: []params.Correlation{{A: "capture.ghg_factor", B: "synthesis.ghg_factor", Rho: 1.5}},
		}},
		{"not positive definite", params.Uncertainty{
			Distributions: map[string]params.DistributionSpec{
				"capture.ghg_factor":      normal(0.08, 0.01),
				"synthesis.ghg_factor":    normal(0.2, 0.02),
				"distribution.ghg_factor": normal(0.05, 0.01),
			},
			Correlations: []params.Correlation{
				{A: "capture.ghg_factor", B: "synthesis.ghg_factor", Rho: 0.9},
				{A: "synthesis.ghg_factor", B: "distribution.ghg_factor", Rho: 0.9},
				{A: "capture.ghg_factor", B: "distribution.ghg_factor", Rho: -0.9},
			},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSampler(tt.u)
			assert.ErrorIs(t, err, lcaerrors.ErrSampling)

			_, err = MonteCarlo{Trials: 10}.Run(context.Background(), withUncertainty(tt.u), directPipeline)
			assert.ErrorIs(t, err, lcaerrors.ErrSampling)
		})
	}
}

func TestSamplerGivesUpOnUnreachableBounds(t *testing.T) {
	s, err := NewSampler(params.Uncertainty{Distributions: map[string]params.DistributionSpec{
		"capture.ghg_factor": {Kind: params.DistNormal, Mean: 0.08, Spread: 0.001, Lower: ptr(10)},
	}})
	require.NoError(t, err)

	_, err = s.Draw(rand.NewPCG(1, 2))
	assert.ErrorIs(t, err, lcaerrors.ErrSampling)
}

func TestSamplerFixedValue(t *testing.T) {
	s, err := NewSampler(params.Uncertainty{Distributions: map[string]params.DistributionSpec{
		"capture.ghg_factor": {Kind: params.DistTriangular, Mean: 0.08},
	}})
	require.NoError(t, err)

	v, err := s.Draw(rand.NewPCG(1, 2))
	require.NoError(t, err)
	assert.Equal(t, 0.08, v["capture.ghg_factor"])
}

func TestMonteCarloRejectsZeroTrials(t *testing.T) {
	_, err := MonteCarlo{}.Run(context.Background(), params.Default(), directPipeline)
	assert.ErrorIs(t, err, lcaerrors.ErrInvalidParameter)
}

func TestMonteCarloFailsFastOnPipelineError(t *testing.T) {
	base := withUncertainty(params.Uncertainty{
		Distributions: map[string]params.DistributionSpec{
			// wide enough that some draws exceed 1
			"capture.capture_efficiency": {Kind: params.DistUniform, Mean: 0.9, Spread: 0.3},
		},
	})
	_, err := MonteCarlo{Trials: 200, Seed: 9}.Run(context.Background(), base, integration.NewEngine(nil).Evaluate)
	assert.ErrorIs(t, err, lcaerrors.ErrInvalidParameter)
}

func TestSensitivityLinearParameter(t *testing.T) {
	engine := integration.NewEngine(nil)
	base := params.Default()

	records, err := Sensitivity{}.Analyze(context.Background(), base,
		[]string{"distribution.ghg_factor"}, []string{integration.MetricGHGIntensity}, engine.Evaluate)
	require.NoError(t, err)
	require.Len(t, records, 1)

	r := records[0]
	assert.Equal(t, 0.05, r.BaseValue)
	assert.Equal(t, 20.0, r.PerturbationPct)
	assert.InDelta(t, 2*0.2*0.05*1000/43, r.MetricDelta, 1e-9)
	// elasticity of a linear term equals its share of the total
	assert.InDelta(t, (0.05*1000/43)/r.BaseMetric, r.Elasticity, 1e-9)
	assert.False(t, r.Undefined)
}

func TestSensitivityDefaultsAndRanking(t *testing.T) {
	engine := integration.NewEngine(nil)
	records, err := Sensitivity{Workers: 4}.Analyze(context.Background(), params.Default(), nil,
		[]string{integration.MetricGHGIntensity, integration.MetricLCOP}, engine.Evaluate)
	require.NoError(t, err)
	require.Len(t, records, len(DefaultParameters)*2)

	byKey := map[string]Record{}
	for _, r := range records {
		byKey[r.Parameter+"/"+r.Metric] = r
	}
	// better electrolyzers lower both cost and emissions
	assert.Less(t, byKey["co2_electrolysis.electrolyzer_efficiency/"+integration.MetricLCOP].Elasticity, 0.0)
	assert.Less(t, byKey["water_electrolysis.stage_efficiency/"+integration.MetricGHGIntensity].Elasticity, 0.0)
	// capex does not touch the inventory
	assert.Equal(t, 0.0, byKey["co2_electrolysis.capex_per_kw/"+integration.MetricGHGIntensity].Elasticity)

	ranked := RankByLeverage(records)
	for i := 1; i < len(ranked); i++ {
		assert.GreaterOrEqual(t, math.Abs(ranked[i-1].Elasticity), math.Abs(ranked[i].Elasticity))
	}
}

func TestSensitivityUndefinedAtZeroMetric(t *testing.T) {
	pipeline := func(_ context.Context, s *params.Set) (map[string]float64, error) {
		return map[string]float64{"zero": 0, "value": s.Capture.GHGFactor}, nil
	}
	records, err := Sensitivity{}.Analyze(context.Background(), params.Default(),
		[]string{"capture.ghg_factor"}, nil, pipeline)
	require.NoError(t, err)
	require.Len(t, records, 2)

	// metrics default to the pipeline's, sorted
	assert.Equal(t, "value", records[0].Metric)
	assert.InDelta(t, 1.0, records[0].Elasticity, 1e-12)
	assert.Equal(t, "zero", records[1].Metric)
	assert.True(t, records[1].Undefined)

	ranked := RankByLeverage(records)
	assert.True(t, ranked[1].Undefined)
}

func TestSensitivityErrors(t *testing.T) {
	ctx := context.Background()
	pipeline := directPipeline

	_, err := Sensitivity{}.Analyze(ctx, params.Default(), []string{"use_phase.combustion_emissions"}, nil, pipeline)
	assert.ErrorIs(t, err, lcaerrors.ErrInvalidParameter)

	_, err = Sensitivity{}.Analyze(ctx, params.Default(), []string{"nope"}, nil, pipeline)
	assert.ErrorIs(t, err, lcaerrors.ErrInvalidParameter)

	_, err = Sensitivity{Delta: 1.5}.Analyze(ctx, params.Default(), nil, nil, pipeline)
	assert.ErrorIs(t, err, lcaerrors.ErrInvalidParameter)

	_, err = Sensitivity{}.Analyze(ctx, params.Default(), []string{"capture.ghg_factor"}, []string{"missing"}, pipeline)
	assert.Error(t, err)
}

func TestMonteCarloOverElectricityIntensity(t *testing.T) {
	engine := integration.NewEngine(nil)
	base := withUncertainty(params.Uncertainty{
		Distributions: map[string]params.DistributionSpec{
			params.CarbonIntensityParam: {Kind: params.DistNormal, Mean: 0.020, Spread: 0.004, Lower: ptr(0)},
		},
	})

	at := func(v float64) map[string]float64 {
		t.Helper()
		m, err := engine.Evaluate(context.Background(), base.WithCarbonIntensity(v))
		require.NoError(t, err)
		return m
	}
	det, lo, hi := at(0.020), at(0.010), at(0.030)

	const n = 2000
	res, err := MonteCarlo{Trials: n, Seed: 3}.Run(context.Background(), base, engine.Evaluate)
	require.NoError(t, err)
	assert.Equal(t, []string{params.CarbonIntensityParam}, res.Parameters)
	assert.Nil(t, base.Electricity.CarbonIntensity)

	// both intensities are linear in the electricity intensity
	for _, metric := range []string{integration.MetricGHGIntensity, integration.MetricCoupledGHGIntensity} {
		slope := (hi[metric] - lo[metric]) / 0.020
		require.Greater(t, slope, 0.0, metric)
		sigma := slope * 0.004

		got := res.Metrics[metric]
		assert.InDelta(t, det[metric], got.Mean, 4*sigma/math.Sqrt(n), metric)
		assert.InDelta(t, sigma, got.StdDev, sigma*0.1, metric)
	}
}

func TestSensitivityCoupledIntensityFollowsEfficiencies(t *testing.T) {
	engine := integration.NewEngine(nil)
	base := params.Default().WithCarbonIntensity(0.020)
	perturb := []string{
		"co2_electrolysis.electrolyzer_efficiency",
		"water_electrolysis.electrolyzer_efficiency",
		"synthesis.saf_selectivity",
		params.CarbonIntensityParam,
	}
	records, err := Sensitivity{}.Analyze(context.Background(), base, perturb,
		[]string{integration.MetricCoupledGHGIntensity}, engine.Evaluate)
	require.NoError(t, err)
	require.Len(t, records, len(perturb))

	for _, r := range records[:3] {
		assert.Less(t, r.Elasticity, 0.0, r.Parameter)
	}
	assert.Equal(t, params.CarbonIntensityParam, records[3].Parameter)
	assert.Greater(t, records[3].Elasticity, 0.0)
}
