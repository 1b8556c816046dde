package params

import (
	"errors"
	"fmt"
	"sort"
)

// CarbonIntensityParam addresses the explicit electricity intensity
// override, kg CO2e/kWh.
const CarbonIntensityParam = "electricity.carbon_intensity"

// ErrNoOverride is returned by Lookup for an optional parameter the set
// does not carry.
var ErrNoOverride = errors.New("no value set")

// accessor returns the location of a parameter. Optional fields are
// allocated on first access, so accessors only run on sets being written.
type accessor func(*Set) *float64

// fields maps dotted parameter names to their location in a Set. The names
// are the keys accepted by uncertainty distributions and sensitivity runs.
var fields = map[string]accessor{
	"fossil_baseline":   func(s *Set) *float64 { return &s.FossilBaseline },
	"electricity.price": func(s *Set) *float64 { return &s.Electricity.Price },
	CarbonIntensityParam: func(s *Set) *float64 {
		if s.Electricity.CarbonIntensity == nil {
			s.Electricity.CarbonIntensity = new(float64)
		}
		return s.Electricity.CarbonIntensity
	},

	"capture.capture_efficiency": func(s *Set) *float64 { return &s.Capture.CaptureEfficiency },
	"capture.capture_rate":       func(s *Set) *float64 { return &s.Capture.CaptureRate },
	"capture.energy_requirement": func(s *Set) *float64 { return &s.Capture.EnergyRequirement },
	"capture.ghg_factor":         func(s *Set) *float64 { return &s.Capture.GHGFactor },
	"capture.water_usage":        func(s *Set) *float64 { return &s.Capture.WaterUsage },
	"capture.cost_per_ton":       func(s *Set) *float64 { return &s.Capture.CostPerTon },

	"synthesis.syngas_requirement":    func(s *Set) *float64 { return &s.Synthesis.SyngasRequirement },
	"synthesis.co_h2_mass_split":      func(s *Set) *float64 { return &s.Synthesis.COH2MassSplit },
	"synthesis.h2_co_molar_ratio":     func(s *Set) *float64 { return &s.Synthesis.H2COMolarRatio },
	"synthesis.conversion_efficiency": func(s *Set) *float64 { return &s.Synthesis.ConversionEfficiency },
	"synthesis.c5_selectivity":        func(s *Set) *float64 { return &s.Synthesis.C5Selectivity },
	"synthesis.saf_selectivity":       func(s *Set) *float64 { return &s.Synthesis.SAFSelectivity },
	"synthesis.ghg_factor":            func(s *Set) *float64 { return &s.Synthesis.GHGFactor },
	"synthesis.energy_input":          func(s *Set) *float64 { return &s.Synthesis.EnergyInput },
	"synthesis.water_usage":           func(s *Set) *float64 { return &s.Synthesis.WaterUsage },

	"distribution.ghg_factor":   func(s *Set) *float64 { return &s.Distribution.GHGFactor },
	"distribution.energy_input": func(s *Set) *float64 { return &s.Distribution.EnergyInput },

	"use_phase.combustion_emissions": func(s *Set) *float64 { return &s.UsePhase.CombustionEmissions },
	"use_phase.energy_density":       func(s *Set) *float64 { return &s.UsePhase.EnergyDensity },
	"use_phase.fuel_density":         func(s *Set) *float64 { return &s.UsePhase.FuelDensity },

	"finance.discount_rate":        func(s *Set) *float64 { return &s.Finance.DiscountRate },
	"finance.plant_lifetime_years": func(s *Set) *float64 { return &s.Finance.PlantLifetimeYears },
	"finance.capacity_factor":      func(s *Set) *float64 { return &s.Finance.CapacityFactor },
	"finance.annual_fuel_output":   func(s *Set) *float64 { return &s.Finance.AnnualFuelOutput },
	"finance.water_price":          func(s *Set) *float64 { return &s.Finance.WaterPrice },

	"incentives.fuel_incentive_per_kg":          func(s *Set) *float64 { return &s.Incentives.FuelIncentivePerKg },
	"incentives.carbon_credit_per_ton":          func(s *Set) *float64 { return &s.Incentives.CarbonCreditPerTon },
	"incentives.avoided_emissions_per_ton_fuel": func(s *Set) *float64 { return &s.Incentives.AvoidedEmissionsPerTonFuel },
}

// optional reports whether a set carries a value for fields that may be absent.
var optional = map[string]func(*Set) bool{
	CarbonIntensityParam: func(s *Set) bool { return s.Electricity.CarbonIntensity != nil },
}

func init() {
	registerElectrolysis(StageCO2Electrolysis, func(s *Set) *Electrolysis { return &s.CO2Electrolysis })
	registerElectrolysis(StageWaterElectrolysis, func(s *Set) *Electrolysis { return &s.WaterElectrolysis })
	registerEconomics(StageSynthesis, func(s *Set) *Economics { return &s.Synthesis.Economics })
}

func registerElectrolysis(prefix string, group func(*Set) *Electrolysis) {
	fields[prefix+".theoretical_energy"] = func(s *Set) *float64 { return &group(s).TheoreticalEnergy }
	fields[prefix+".electrolyzer_efficiency"] = func(s *Set) *float64 { return &group(s).ElectrolyzerEfficiency }
	fields[prefix+".faradaic_efficiency"] = func(s *Set) *float64 { return &group(s).FaradaicEfficiency }
	fields[prefix+".feed_ratio"] = func(s *Set) *float64 { return &group(s).FeedRatio }
	fields[prefix+".feed_conversion"] = func(s *Set) *float64 { return &group(s).FeedConversion }
	fields[prefix+".stage_efficiency"] = func(s *Set) *float64 { return &group(s).StageEfficiency }
	fields[prefix+".energy_input"] = func(s *Set) *float64 { return &group(s).EnergyInput }
	fields[prefix+".water_usage"] = func(s *Set) *float64 { return &group(s).WaterUsage }
	registerEconomics(prefix, func(s *Set) *Economics { return &group(s).Economics })
}

func registerEconomics(prefix string, group func(*Set) *Economics) {
	fields[prefix+".capex_per_kw"] = func(s *Set) *float64 { return &group(s).CapexPerKW }
	fields[prefix+".base_cost"] = func(s *Set) *float64 { return &group(s).BaseCost }
	fields[prefix+".reference_capacity"] = func(s *Set) *float64 { return &group(s).ReferenceCapacity }
	fields[prefix+".scaling_factor"] = func(s *Set) *float64 { return &group(s).ScalingFactor }
	fields[prefix+".balance_of_plant"] = func(s *Set) *float64 { return &group(s).BalanceOfPlant }
	fields[prefix+".fixed_om_fraction"] = func(s *Set) *float64 { return &group(s).FixedOMFraction }
	fields[prefix+".component_lifetime_years"] = func(s *Set) *float64 { return &group(s).ComponentLifetimeYears }
	fields[prefix+".component_replacement_fraction"] = func(s *Set) *float64 { return &group(s).ComponentReplacementFraction }
	fields[prefix+".other_variable_cost"] = func(s *Set) *float64 { return &group(s).OtherVariableCost }
}

// Names returns every addressable parameter name in sorted order.
func Names() []string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Known reports whether name addresses a parameter.
func Known(name string) bool {
	_, ok := fields[name]
	return ok
}

// Lookup returns the current value of a named parameter. An optional
// parameter the set does not carry yields ErrNoOverride.
func (s *Set) Lookup(name string) (float64, error) {
	get, ok := fields[name]
	if !ok {
		return 0, fmt.Errorf("unknown parameter %q", name)
	}
	if present, ok := optional[name]; ok && !present(s) {
		return 0, fmt.Errorf("parameter %q: %w", name, ErrNoOverride)
	}
	return *get(s), nil
}

// With returns a copy of the set with one named parameter replaced.
// The receiver is left untouched.
func (s *Set) With(name string, value float64) (*Set, error) {
	return s.WithValues(map[string]float64{name: value})
}

// WithValues returns a copy of the set with several named parameters replaced.
func (s *Set) WithValues(values map[string]float64) (*Set, error) {
	c := s.Clone()
	for name, value := range values {
		get, ok := fields[name]
		if !ok {
			return nil, fmt.Errorf("unknown parameter %q", name)
		}
		*get(c) = value
	}
	return c, nil
}
