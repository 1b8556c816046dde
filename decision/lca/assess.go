package lca

import (
	"efuel-lca/decision/params"
	"efuel-lca/pkg/units"
)

// Life-cycle stages in reporting order.
const (
	StageCarbonCapture = "carbon_capture"
	StageElectrolysis  = "electrolysis"
	StageConversion    = "conversion"
	StageDistribution  = "distribution"
	StageUsePhase      = "use_phase"
)

// Fossil baselines (g CO2e/MJ) and the reduction thresholds they are judged against (%).
const (
	FossilBaselineCORSIA = params.FossilBaselineCORSIA
	FossilBaselineREDII  = params.FossilBaselineREDII

	ThresholdREDII  = 65.0
	ThresholdCORSIA = 10.0
)

// EmissionsResult is the GHG inventory per functional unit (kg CO2e).
type EmissionsResult struct {
	*Breakdown
	IntensityGPerMJ float64 `json:"intensity_g_per_mj"`
	ReductionPct    float64 `json:"reduction_pct"`
	Baseline        float64 `json:"baseline_g_per_mj"`
	MeetsREDII      bool    `json:"meets_red_ii"`
	MeetsCORSIA     bool    `json:"meets_corsia"`

	// Coupled is filled by an integrated run from the sized process flows.
	Coupled *CoupledEmissions `json:"coupled,omitempty"`
}

// Assessment is the full inventory for one scenario.
type Assessment struct {
	FunctionalUnit      units.FunctionalUnit `json:"functional_unit"`
	NormalizationFactor float64              `json:"normalization_factor"` // kg fuel per unit
	Emissions           EmissionsResult      `json:"emissions"`
	Energy              *Breakdown           `json:"energy"` // MJ per unit
	Water               *Breakdown           `json:"water"`  // L per unit
	LandUse             float64              `json:"land_use"`
}

// Assess builds the inventory for set with electricity at intensity kg CO2e/kWh.
func Assess(set *params.Set, intensity float64) (*Assessment, error) {
	if err := set.Validate(); err != nil {
		return nil, err
	}
	if err := params.NonNegative(params.StageElectricity, "carbon_intensity", intensity); err != nil {
		return nil, err
	}

	fu := set.FunctionalUnit
	ed := set.UsePhase.EnergyDensity
	rho := set.UsePhase.Density()
	norm, err := NormalizationFactor(fu, ed, rho)
	if err != nil {
		return nil, err
	}
	q := func(perKg float64) Quantity { return Quantity{Value: perKg * norm, Unit: fu} }

	// Inventory per kg fuel.
	co2Processed := set.Capture.CaptureRate / set.Capture.CaptureEfficiency

	syngas := set.Synthesis.SyngasRequirement
	split := set.Synthesis.COH2MassSplit
	co := syngas * split / (1 + split)
	h2 := syngas / (1 + split)
	coGross := co / set.CO2Electrolysis.StageEfficiency
	h2Gross := h2 / set.WaterElectrolysis.StageEfficiency

	electrolysisMJ := coGross*set.CO2Electrolysis.EnergyInput + h2Gross*set.WaterElectrolysis.EnergyInput
	intensityPerMJ := intensity / units.MJPerKWh

	ghg := NewBreakdown(fu)
	energy := NewBreakdown(fu)
	water := NewBreakdown(fu)

	steps := []struct {
		b     *Breakdown
		stage string
		perKg float64
	}{
		{ghg, StageCarbonCapture, set.Capture.GHGFactor * co2Processed},
		{ghg, StageElectrolysis, electrolysisMJ * intensityPerMJ},
		{ghg, StageConversion, set.Synthesis.GHGFactor},
		{ghg, StageDistribution, set.Distribution.GHGFactor},
		{ghg, StageUsePhase, set.UsePhase.CombustionEmissions},

		{energy, StageCarbonCapture, set.Capture.EnergyRequirement * co2Processed},
		{energy, StageElectrolysis, electrolysisMJ},
		{energy, StageConversion, set.Synthesis.EnergyInput},
		{energy, StageDistribution, set.Distribution.EnergyInput},

		{water, StageCarbonCapture, set.Capture.WaterUsage * co2Processed},
		{water, StageElectrolysis, co*set.CO2Electrolysis.WaterUsage + h2*set.WaterElectrolysis.WaterUsage},
		{water, StageConversion, set.Synthesis.WaterUsage},
	}
	for _, s := range steps {
		if err := s.b.Add(s.stage, q(s.perKg)); err != nil {
			return nil, err
		}
	}

	gPerMJ, err := ToGramsPerMJ(ghg.Total, fu, ed, rho)
	if err != nil {
		return nil, err
	}
	reduction, err := ReductionPercent(set.FossilBaseline, gPerMJ)
	if err != nil {
		return nil, err
	}

	return &Assessment{
		FunctionalUnit:      fu,
		NormalizationFactor: norm,
		Emissions: EmissionsResult{
			Breakdown:       ghg,
			IntensityGPerMJ: gPerMJ,
			ReductionPct:    reduction,
			Baseline:        set.FossilBaseline,
			MeetsREDII:      reduction >= ThresholdREDII,
			MeetsCORSIA:     reduction >= ThresholdCORSIA,
		},
		Energy: energy,
		Water:  water,
	}, nil
}

// ToGramsPerMJ converts a total in kg CO2e per functional unit to g CO2e/MJ.
func ToGramsPerMJ(total float64, fu units.FunctionalUnit, energyDensity, fuelDensity float64) (float64, error) {
	perKg, err := Quantity{Value: total, Unit: fu}.PerKg(energyDensity, fuelDensity)
	if err != nil {
		return 0, err
	}
	if err := params.Positive(params.StageUsePhase, "energy_density", energyDensity); err != nil {
		return 0, err
	}
	return perKg / energyDensity * units.GramsPerKg, nil
}

// ReductionPercent returns the saving against a fossil baseline. Negative
// values mean the fuel emits more than the baseline.
func ReductionPercent(baseline, gPerMJ float64) (float64, error) {
	if err := params.Positive(params.StageScenario, "fossil_baseline", baseline); err != nil {
		return 0, err
	}
	return (baseline - gPerMJ) / baseline * 100, nil
}
