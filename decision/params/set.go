// Package params defines the immutable Parameter Set consumed by the calculation engine.
//
// Efficiencies, selectivities and other shares are fractions in (0, 1]. Values
// written as percentages (80 rather than 0.80) are rejected by validation rather
// than reinterpreted.
package params

import (
	"efuel-lca/pkg/units"
)

// CO2 source categories
const (
	CO2SourceDAC        = "DAC"
	CO2SourceBiogenic   = "biogenic"
	CO2SourceIndustrial = "industrial"
)

// Set is one scenario. A Set handed to the engine is a read-only snapshot;
// edits go through Clone or the With* helpers, which return new Sets.
type Set struct {
	Scenario       string               `yaml:"scenario" json:"scenario"`
	FunctionalUnit units.FunctionalUnit `yaml:"functional_unit" json:"functional_unit"`
	CO2Source      string               `yaml:"co2_source" json:"co2_source"`
	FossilBaseline float64              `yaml:"fossil_baseline" json:"fossil_baseline"` // g CO2e/MJ

	Electricity       Electricity  `yaml:"electricity" json:"electricity"`
	Capture           Capture      `yaml:"capture" json:"capture"`
	CO2Electrolysis   Electrolysis `yaml:"co2_electrolysis" json:"co2_electrolysis"`
	WaterElectrolysis Electrolysis `yaml:"water_electrolysis" json:"water_electrolysis"`
	Synthesis         Synthesis    `yaml:"synthesis" json:"synthesis"`
	Distribution      Distribution `yaml:"distribution" json:"distribution"`
	UsePhase          UsePhase     `yaml:"use_phase" json:"use_phase"`
	Finance           Finance      `yaml:"finance" json:"finance"`
	Incentives        Incentives   `yaml:"incentives" json:"incentives"`
	Uncertainty       Uncertainty  `yaml:"uncertainty" json:"uncertainty"`
}

// Electricity selects the power supply for electrolysis and utilities.
type Electricity struct {
	Source string `yaml:"source" json:"source"`
	// CarbonIntensity overrides the source table, kg CO2e/kWh.
	CarbonIntensity *float64 `yaml:"carbon_intensity,omitempty" json:"carbon_intensity,omitempty"`
	Price           float64  `yaml:"price" json:"price"` // currency/kWh
}

// Capture describes CO2 capture (DAC or point source).
type Capture struct {
	CaptureEfficiency float64 `yaml:"capture_efficiency" json:"capture_efficiency"`
	CaptureRate       float64 `yaml:"capture_rate" json:"capture_rate"`             // kg CO2/kg fuel
	EnergyRequirement float64 `yaml:"energy_requirement" json:"energy_requirement"` // MJ/kg CO2
	GHGFactor         float64 `yaml:"ghg_factor" json:"ghg_factor"`                 // kg CO2e/kg CO2
	WaterUsage        float64 `yaml:"water_usage" json:"water_usage"`               // L/kg CO2
	CostPerTon        float64 `yaml:"cost_per_ton" json:"cost_per_ton"`             // currency/t CO2 delivered
}

// Electrolysis describes either electrolysis sub-process. The CO2 and water
// variants share this shape and differ only in their constants.
type Electrolysis struct {
	TheoreticalEnergy      float64 `yaml:"theoretical_energy" json:"theoretical_energy"` // kWh/kg product
	ElectrolyzerEfficiency float64 `yaml:"electrolyzer_efficiency" json:"electrolyzer_efficiency"`
	FaradaicEfficiency     float64 `yaml:"faradaic_efficiency" json:"faradaic_efficiency"`
	FeedRatio              float64 `yaml:"feed_ratio" json:"feed_ratio"` // kg feed/kg product
	FeedConversion         float64 `yaml:"feed_conversion" json:"feed_conversion"`

	// Life-cycle inventory
	StageEfficiency float64 `yaml:"stage_efficiency" json:"stage_efficiency"`
	EnergyInput     float64 `yaml:"energy_input" json:"energy_input"` // MJ/kg product
	WaterUsage      float64 `yaml:"water_usage" json:"water_usage"`   // L/kg product

	Economics Economics `yaml:"economics" json:"economics"`
}

// Synthesis describes Fischer-Tropsch synthesis and upgrading.
type Synthesis struct {
	SyngasRequirement    float64 `yaml:"syngas_requirement" json:"syngas_requirement"` // kg syngas/kg fuel
	COH2MassSplit        float64 `yaml:"co_h2_mass_split" json:"co_h2_mass_split"`
	H2COMolarRatio       float64 `yaml:"h2_co_molar_ratio" json:"h2_co_molar_ratio"`
	ConversionEfficiency float64 `yaml:"conversion_efficiency" json:"conversion_efficiency"`
	C5Selectivity        float64 `yaml:"c5_selectivity" json:"c5_selectivity"`
	SAFSelectivity       float64 `yaml:"saf_selectivity" json:"saf_selectivity"`
	GHGFactor            float64 `yaml:"ghg_factor" json:"ghg_factor"`     // kg CO2e/kg fuel
	EnergyInput          float64 `yaml:"energy_input" json:"energy_input"` // MJ/kg fuel
	WaterUsage           float64 `yaml:"water_usage" json:"water_usage"`   // L/kg fuel

	Economics Economics `yaml:"economics" json:"economics"`
}

// Distribution describes fuel transport to the point of use.
type Distribution struct {
	TransportDistanceKm float64 `yaml:"transport_distance_km" json:"transport_distance_km"`
	TransportMode       string  `yaml:"transport_mode" json:"transport_mode"`
	GHGFactor           float64 `yaml:"ghg_factor" json:"ghg_factor"`     // kg CO2e/kg fuel
	EnergyInput         float64 `yaml:"energy_input" json:"energy_input"` // MJ/kg fuel
}

// UsePhase describes combustion and the physical properties of the fuel.
type UsePhase struct {
	CombustionEmissions float64 `yaml:"combustion_emissions" json:"combustion_emissions"` // kg CO2e/kg fuel
	EnergyDensity       float64 `yaml:"energy_density" json:"energy_density"`             // MJ/kg
	FuelDensity         float64 `yaml:"fuel_density" json:"fuel_density"`                 // kg/L
}

// Economics holds cost factors for one sub-process. Electrolysis scales
// linearly on CapexPerKW; synthesis uses the power-law fields.
type Economics struct {
	CapexPerKW        float64 `yaml:"capex_per_kw" json:"capex_per_kw"`
	BaseCost          float64 `yaml:"base_cost" json:"base_cost"`
	ReferenceCapacity float64 `yaml:"reference_capacity" json:"reference_capacity"` // kg product/yr
	ScalingFactor     float64 `yaml:"scaling_factor" json:"scaling_factor"`

	BalanceOfPlant               float64 `yaml:"balance_of_plant" json:"balance_of_plant"`
	FixedOMFraction              float64 `yaml:"fixed_om_fraction" json:"fixed_om_fraction"`
	ComponentLifetimeYears       float64 `yaml:"component_lifetime_years" json:"component_lifetime_years"`
	ComponentReplacementFraction float64 `yaml:"component_replacement_fraction" json:"component_replacement_fraction"`
	OtherVariableCost            float64 `yaml:"other_variable_cost" json:"other_variable_cost"` // currency/kg product
}

// Finance holds plant-wide financial settings.
type Finance struct {
	DiscountRate       float64 `yaml:"discount_rate" json:"discount_rate"`
	PlantLifetimeYears float64 `yaml:"plant_lifetime_years" json:"plant_lifetime_years"`
	CapacityFactor     float64 `yaml:"capacity_factor" json:"capacity_factor"`
	AnnualFuelOutput   float64 `yaml:"annual_fuel_output" json:"annual_fuel_output"` // kg fuel/yr
	WaterPrice         float64 `yaml:"water_price" json:"water_price"`               // currency/L
}

// Incentives are subtracted from operating cost.
type Incentives struct {
	FuelIncentivePerKg         float64 `yaml:"fuel_incentive_per_kg" json:"fuel_incentive_per_kg"`
	CarbonCreditPerTon         float64 `yaml:"carbon_credit_per_ton" json:"carbon_credit_per_ton"`                   // currency/t CO2
	AvoidedEmissionsPerTonFuel float64 `yaml:"avoided_emissions_per_ton_fuel" json:"avoided_emissions_per_ton_fuel"` // t CO2/t fuel
}

// DistributionKind names a sampling distribution shape.
type DistributionKind string

const (
	DistNormal     DistributionKind = "normal"
	DistUniform    DistributionKind = "uniform"
	DistTriangular DistributionKind = "triangular"
	DistLognormal  DistributionKind = "lognormal"
)

// DistributionSpec declares how one parameter varies. Spread is the standard
// deviation for normal and lognormal, and the half-width for uniform and triangular.
type DistributionSpec struct {
	Kind   DistributionKind `yaml:"kind" json:"kind"`
	Mean   float64          `yaml:"mean" json:"mean"`
	Spread float64          `yaml:"spread" json:"spread"`
	Lower  *float64         `yaml:"lower,omitempty" json:"lower,omitempty"`
	Upper  *float64         `yaml:"upper,omitempty" json:"upper,omitempty"`
}

// Correlation couples two normally distributed parameters.
type Correlation struct {
	A   string  `yaml:"a" json:"a"`
	B   string  `yaml:"b" json:"b"`
	Rho float64 `yaml:"rho" json:"rho"`
}

// Uncertainty declares the distributed parameters of a scenario.
type Uncertainty struct {
	Distributions map[string]DistributionSpec `yaml:"distributions,omitempty" json:"distributions,omitempty"`
	Correlations  []Correlation               `yaml:"correlations,omitempty" json:"correlations,omitempty"`
}

// Clone returns a deep copy of the set.
func (s *Set) Clone() *Set {
	c := *s

	if s.Electricity.CarbonIntensity != nil {
		v := *s.Electricity.CarbonIntensity
		c.Electricity.CarbonIntensity = &v
	}

	if s.Uncertainty.Distributions != nil {
		c.Uncertainty.Distributions = make(map[string]DistributionSpec, len(s.Uncertainty.Distributions))
		for name, spec := range s.Uncertainty.Distributions {
			c.Uncertainty.Distributions[name] = spec.clone()
		}
	}
	if s.Uncertainty.Correlations != nil {
		c.Uncertainty.Correlations = append([]Correlation(nil), s.Uncertainty.Correlations...)
	}
	return &c
}

func (d DistributionSpec) clone() DistributionSpec {
	c := d
	if d.Lower != nil {
		v := *d.Lower
		c.Lower = &v
	}
	if d.Upper != nil {
		v := *d.Upper
		c.Upper = &v
	}
	return c
}

// WithElectricitySource returns a copy using the given source and its table intensity.
func (s *Set) WithElectricitySource(source string) *Set {
	c := s.Clone()
	c.Electricity.Source = source
	c.Electricity.CarbonIntensity = nil
	return c
}

// WithCarbonIntensity returns a copy with an explicit intensity override (kg CO2e/kWh).
func (s *Set) WithCarbonIntensity(kgPerKWh float64) *Set {
	c := s.Clone()
	c.Electricity.CarbonIntensity = &kgPerKWh
	return c
}

// Density returns the configured volumetric density or the representative default.
func (u UsePhase) Density() float64 {
	if u.FuelDensity > 0 {
		return u.FuelDensity
	}
	return units.DefaultFuelDensity
}
