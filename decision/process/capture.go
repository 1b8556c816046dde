package process

import (
	"efuel-lca/decision/params"
	"efuel-lca/pkg/units"
)

// Capture models CO2 capture. Target is the CO2 delivered to electrolysis;
// energy, water and emissions scale with the CO2 processed upstream.
type Capture struct {
	p params.Capture
}

// NewCapture binds and validates the capture parameters.
func NewCapture(p params.Capture) (*Capture, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Capture{p: p}, nil
}

// Stage returns StageCapture.
func (c *Capture) Stage() Stage { return StageCapture }

// ComputeFlows returns the flows for target kg CO2 delivered.
func (c *Capture) ComputeFlows(target float64) (*FlowResult, error) {
	if err := checkTarget(StageCapture, target); err != nil {
		return nil, err
	}

	processed := c.Processed(target)

	return &FlowResult{
		Stage:   StageCapture,
		Product: FlowCO2,
		Output:  target,
		Flows: map[Flow]float64{
			FlowCO2:         target,
			FlowElectricity: processed * c.p.EnergyRequirement,
			FlowWater:       processed * c.p.WaterUsage,
		},
		SpecificEnergy:  units.MJToKWh(c.p.EnergyRequirement / c.p.CaptureEfficiency),
		DirectEmissions: processed * c.p.GHGFactor,
	}, nil
}

// Processed returns kg CO2 handled upstream to deliver target kg.
func (c *Capture) Processed(target float64) float64 {
	return target / c.p.CaptureEfficiency
}
