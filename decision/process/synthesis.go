package process

import (
	"efuel-lca/decision/params"
	"efuel-lca/pkg/units"
)

// Synthesis models Fischer-Tropsch synthesis with upgrading to jet fuel.
type Synthesis struct {
	p params.Synthesis
}

// NewSynthesis binds and validates the synthesis parameters.
func NewSynthesis(p params.Synthesis) (*Synthesis, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Synthesis{p: p}, nil
}

// Stage returns StageSynthesis.
func (s *Synthesis) Stage() Stage { return StageSynthesis }

// SyngasPerFuel returns kg syngas needed per kg fuel after conversion and selectivity losses.
func (s *Synthesis) SyngasPerFuel() float64 {
	return s.p.SyngasRequirement / (s.p.ConversionEfficiency * s.p.C5Selectivity * s.p.SAFSelectivity)
}

// H2PerCO returns the H2:CO mass ratio implied by the molar ratio.
func (s *Synthesis) H2PerCO() float64 {
	return units.MolarToMassRatio(s.p.H2COMolarRatio, units.MolarMassH2, units.MolarMassCO)
}

// ComputeFlows returns the syngas split and utilities for target kg fuel.
func (s *Synthesis) ComputeFlows(target float64) (*FlowResult, error) {
	if err := checkTarget(StageSynthesis, target); err != nil {
		return nil, err
	}

	syngas := target * s.SyngasPerFuel()
	co := syngas / (1 + s.H2PerCO())
	h2 := co * s.H2PerCO()

	return &FlowResult{
		Stage:   StageSynthesis,
		Product: FlowFuel,
		Output:  target,
		Flows: map[Flow]float64{
			FlowFuel:        target,
			FlowSyngas:      syngas,
			FlowCO:          co,
			FlowH2:          h2,
			FlowElectricity: target * s.p.EnergyInput,
			FlowWater:       target * s.p.WaterUsage,
		},
		SpecificEnergy:  units.MJToKWh(s.p.EnergyInput),
		DirectEmissions: target * s.p.GHGFactor,
	}, nil
}
