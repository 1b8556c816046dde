// Package process computes mass and energy flows for each production stage.
//
// Internal units are kg for mass, MJ for energy and L for water. Models are
// bound to their parameters at construction and are safe for concurrent use.
package process

import (
	lcaerrors "efuel-lca/pkg/errors"
	"efuel-lca/pkg/units"
)

// Stage identifies a production stage.
type Stage string

const (
	StageCapture           Stage = "carbon_capture"
	StageCO2Electrolysis   Stage = "co2_electrolysis"
	StageWaterElectrolysis Stage = "water_electrolysis"
	StageSynthesis         Stage = "ft_synthesis"
)

// Flow names an input or output stream.
type Flow string

const (
	FlowCO2         Flow = "co2"         // kg
	FlowCO          Flow = "co"          // kg
	FlowH2          Flow = "h2"          // kg
	FlowSyngas      Flow = "syngas"      // kg
	FlowFuel        Flow = "fuel"        // kg
	FlowWater       Flow = "water"       // L
	FlowElectricity Flow = "electricity" // MJ
)

// Model computes the flows needed to produce a target output.
type Model interface {
	Stage() Stage
	ComputeFlows(target float64) (*FlowResult, error)
}

// FlowResult is the outcome of one stage for a target output.
type FlowResult struct {
	Stage   Stage            `json:"stage"`
	Product Flow             `json:"product"`
	Output  float64          `json:"output_kg"`
	Flows   map[Flow]float64 `json:"flows"`

	SpecificEnergy  float64 `json:"specific_energy_kwh_per_kg"`
	DirectEmissions float64 `json:"direct_emissions_kg_co2e"`
}

// Flow returns a named flow, zero when absent.
func (r *FlowResult) Flow(f Flow) float64 {
	return r.Flows[f]
}

// ElectricityKWh returns the electricity demand in kWh.
func (r *FlowResult) ElectricityKWh() float64 {
	return units.MJToKWh(r.Flows[FlowElectricity])
}

func checkTarget(stage Stage, target float64) error {
	if !(target >= 0) {
		return lcaerrors.NewInvalidParameter(string(stage), "target", target, "production target must not be negative")
	}
	return nil
}

func checkIntensity(stage Stage, intensity float64) error {
	if !(intensity >= 0) {
		return lcaerrors.NewInvalidParameter(string(stage), "carbon_intensity", intensity, "electricity intensity must not be negative")
	}
	return nil
}
