// Package lca computes the life-cycle inventory of the fuel per functional unit.
package lca

import (
	"fmt"

	"efuel-lca/decision/params"
	lcaerrors "efuel-lca/pkg/errors"
	"efuel-lca/pkg/units"
)

// NormalizationFactor returns kg of fuel per functional unit.
func NormalizationFactor(fu units.FunctionalUnit, energyDensity, fuelDensity float64) (float64, error) {
	switch fu {
	case units.FunctionalUnitEnergy:
		if err := params.Positive(params.StageUsePhase, "energy_density", energyDensity); err != nil {
			return 0, err
		}
		return 1 / energyDensity, nil
	case units.FunctionalUnitMass:
		return 1, nil
	case units.FunctionalUnitVolume:
		if fuelDensity == 0 {
			fuelDensity = units.DefaultFuelDensity
		}
		if err := params.Positive(params.StageUsePhase, "fuel_density", fuelDensity); err != nil {
			return 0, err
		}
		return fuelDensity, nil
	default:
		return 0, lcaerrors.NewInvalidParameter(params.StageScenario, "functional_unit", 0,
			fmt.Sprintf("unsupported functional unit %q", fu))
	}
}

// Quantity is a value expressed per functional unit.
type Quantity struct {
	Value float64              `json:"value"`
	Unit  units.FunctionalUnit `json:"unit"`
}

// Normalize converts a per-kg-fuel quantity to the functional unit.
func Normalize(perKg float64, fu units.FunctionalUnit, energyDensity, fuelDensity float64) (Quantity, error) {
	f, err := NormalizationFactor(fu, energyDensity, fuelDensity)
	if err != nil {
		return Quantity{}, err
	}
	return Quantity{Value: perKg * f, Unit: fu}, nil
}

// PerKg converts a quantity back to kg fuel basis.
func (q Quantity) PerKg(energyDensity, fuelDensity float64) (float64, error) {
	f, err := NormalizationFactor(q.Unit, energyDensity, fuelDensity)
	if err != nil {
		return 0, err
	}
	return q.Value / f, nil
}

// StageValue is one stage's contribution.
type StageValue struct {
	Stage string  `json:"stage"`
	Value float64 `json:"value"`
}

// Breakdown is an ordered per-stage inventory in a single functional unit.
// Total is the running sum of stages in insertion order.
type Breakdown struct {
	Unit   units.FunctionalUnit `json:"unit"`
	Stages []StageValue         `json:"stages"`
	Total  float64              `json:"total"`
}

// NewBreakdown creates an empty breakdown for unit.
func NewBreakdown(unit units.FunctionalUnit) *Breakdown {
	return &Breakdown{Unit: unit}
}

// Add appends a stage. Quantities in another unit are rejected.
func (b *Breakdown) Add(stage string, q Quantity) error {
	if q.Unit != b.Unit {
		return lcaerrors.NewInconsistentCoupling(stage, "functional_unit", q.Value,
			fmt.Sprintf("cannot add %s quantity to %s breakdown", q.Unit, b.Unit))
	}
	b.Stages = append(b.Stages, StageValue{Stage: stage, Value: q.Value})
	b.Total += q.Value
	return nil
}

// Get returns a stage's value.
func (b *Breakdown) Get(stage string) (float64, bool) {
	for _, s := range b.Stages {
		if s.Stage == stage {
			return s.Value, true
		}
	}
	return 0, false
}

// Share returns a stage's share of the total in percent.
func (b *Breakdown) Share(stage string) float64 {
	v, ok := b.Get(stage)
	if !ok || b.Total == 0 {
		return 0
	}
	return v / b.Total * 100
}
