package process

import (
	"efuel-lca/decision/params"
	"efuel-lca/pkg/units"
)

// Electrolyzer models CO2-to-CO or water-to-H2 electrolysis. Both variants
// share the same flow arithmetic and differ only in constants.
type Electrolyzer struct {
	stage     Stage
	product   Flow
	feed      Flow
	p         params.Electrolysis
	intensity float64
}

// NewCO2Electrolyzer builds the CO2 → CO variant. intensity is kg CO2e/kWh.
func NewCO2Electrolyzer(p params.Electrolysis, intensity float64) (*Electrolyzer, error) {
	return newElectrolyzer(StageCO2Electrolysis, FlowCO, FlowCO2, p, intensity)
}

// NewWaterElectrolyzer builds the H2O → H2 variant. intensity is kg CO2e/kWh.
func NewWaterElectrolyzer(p params.Electrolysis, intensity float64) (*Electrolyzer, error) {
	return newElectrolyzer(StageWaterElectrolysis, FlowH2, FlowWater, p, intensity)
}

func newElectrolyzer(stage Stage, product, feed Flow, p params.Electrolysis, intensity float64) (*Electrolyzer, error) {
	s := string(stage)
	for _, err := range []error{
		params.Positive(s, "theoretical_energy", p.TheoreticalEnergy),
		params.Fraction(s, "electrolyzer_efficiency", p.ElectrolyzerEfficiency),
		params.Fraction(s, "faradaic_efficiency", p.FaradaicEfficiency),
		params.Positive(s, "feed_ratio", p.FeedRatio),
		params.Fraction(s, "feed_conversion", p.FeedConversion),
		params.NonNegative(s, "water_usage", p.WaterUsage),
		checkIntensity(stage, intensity),
	} {
		if err != nil {
			return nil, err
		}
	}
	return &Electrolyzer{stage: stage, product: product, feed: feed, p: p, intensity: intensity}, nil
}

// Stage returns the stage this electrolyzer models.
func (e *Electrolyzer) Stage() Stage { return e.stage }

// SpecificEnergy returns the actual electricity demand in kWh per kg product.
func (e *Electrolyzer) SpecificEnergy() float64 {
	return e.p.TheoreticalEnergy / (e.p.ElectrolyzerEfficiency * e.p.FaradaicEfficiency)
}

// FeedPerProduct returns kg feed consumed per kg product.
func (e *Electrolyzer) FeedPerProduct() float64 {
	return e.p.FeedRatio / e.p.FeedConversion
}

// ComputeFlows returns the flows for target kg of product. For the water
// variant the feed water is added on top of the process water usage.
func (e *Electrolyzer) ComputeFlows(target float64) (*FlowResult, error) {
	if err := checkTarget(e.stage, target); err != nil {
		return nil, err
	}

	se := e.SpecificEnergy()
	kwh := target * se
	feed := target * e.FeedPerProduct()
	water := target * e.p.WaterUsage

	flows := map[Flow]float64{
		e.product:       target,
		FlowElectricity: units.KWhToMJ(kwh),
	}
	if e.feed == FlowWater {
		water += feed
	} else {
		flows[e.feed] = feed
	}
	flows[FlowWater] = water

	return &FlowResult{
		Stage:           e.stage,
		Product:         e.product,
		Output:          target,
		Flows:           flows,
		SpecificEnergy:  se,
		DirectEmissions: kwh * e.intensity,
	}, nil
}
