package lca

import (
	"fmt"

	"efuel-lca/decision/params"
	lcaerrors "efuel-lca/pkg/errors"
)

// StageEmission is one plant stage's direct emissions over a production
// period, kg CO2e.
type StageEmission struct {
	Stage string
	Kg    float64
}

// CoupledEmissions is the GHG inventory rebuilt from the sized process
// flows rather than from the per-kg inventory factors.
type CoupledEmissions struct {
	*Breakdown
	IntensityGPerMJ float64 `json:"intensity_g_per_mj"`
	ReductionPct    float64 `json:"reduction_pct"`
}

// plantStages may appear in a coupled inventory, in reporting order.
// Distribution and use phase happen outside the plant.
var plantStages = []string{StageCarbonCapture, StageElectrolysis, StageConversion}

// Couple charges the direct emissions of a plant producing fuelKg to the
// functional unit of set. Several entries for one stage are summed.
// Distribution and use phase are added from the inventory factors.
func Couple(set *params.Set, fuelKg float64, plant []StageEmission) (*CoupledEmissions, error) {
	if err := params.Positive(params.StageFinance, "annual_fuel_output", fuelKg); err != nil {
		return nil, err
	}

	perStage := make(map[string]float64, len(plantStages))
	for _, e := range plant {
		if !isPlantStage(e.Stage) {
			return nil, lcaerrors.NewInconsistentCoupling(e.Stage, "direct_emissions", e.Kg,
				fmt.Sprintf("%q is not a plant stage", e.Stage))
		}
		if err := params.NonNegative(e.Stage, "direct_emissions", e.Kg); err != nil {
			return nil, err
		}
		perStage[e.Stage] += e.Kg
	}

	fu := set.FunctionalUnit
	ed := set.UsePhase.EnergyDensity
	rho := set.UsePhase.Density()

	ghg := NewBreakdown(fu)
	add := func(stage string, perKg float64) error {
		q, err := Normalize(perKg, fu, ed, rho)
		if err != nil {
			return err
		}
		return ghg.Add(stage, q)
	}
	for _, stage := range plantStages {
		if err := add(stage, perStage[stage]/fuelKg); err != nil {
			return nil, err
		}
	}
	if err := add(StageDistribution, set.Distribution.GHGFactor); err != nil {
		return nil, err
	}
	if err := add(StageUsePhase, set.UsePhase.CombustionEmissions); err != nil {
		return nil, err
	}

	gPerMJ, err := ToGramsPerMJ(ghg.Total, fu, ed, rho)
	if err != nil {
		return nil, err
	}
	reduction, err := ReductionPercent(set.FossilBaseline, gPerMJ)
	if err != nil {
		return nil, err
	}
	return &CoupledEmissions{
		Breakdown:       ghg,
		IntensityGPerMJ: gPerMJ,
		ReductionPct:    reduction,
	}, nil
}

func isPlantStage(stage string) bool {
	for _, s := range plantStages {
		if s == stage {
			return true
		}
	}
	return false
}
