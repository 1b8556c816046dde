package params

import (
	"fmt"
	"math"

	lcaerrors "efuel-lca/pkg/errors"
	"efuel-lca/pkg/units"
)

// Stage names used in error reports.
const (
	StageScenario          = "scenario"
	StageElectricity       = "electricity"
	StageCapture           = "capture"
	StageCO2Electrolysis   = "co2_electrolysis"
	StageWaterElectrolysis = "water_electrolysis"
	StageSynthesis         = "synthesis"
	StageDistribution      = "distribution"
	StageUsePhase          = "use_phase"
	StageFinance           = "finance"
	StageIncentives        = "incentives"
)

// Validate checks every group of the set and returns the first violation.
func (s *Set) Validate() error {
	if _, err := units.ParseFunctionalUnit(string(s.FunctionalUnit)); err != nil {
		return lcaerrors.NewInvalidParameter(StageScenario, "functional_unit", 0, err.Error())
	}
	switch s.CO2Source {
	case "", CO2SourceDAC, CO2SourceBiogenic, CO2SourceIndustrial:
	default:
		return lcaerrors.NewInvalidParameter(StageScenario, "co2_source", 0,
			fmt.Sprintf("unknown CO2 source category %q", s.CO2Source))
	}
	if err := Positive(StageScenario, "fossil_baseline", s.FossilBaseline); err != nil {
		return err
	}

	checks := []func() error{
		s.Electricity.Validate,
		s.Capture.Validate,
		func() error { return s.CO2Electrolysis.Validate(StageCO2Electrolysis) },
		func() error { return s.WaterElectrolysis.Validate(StageWaterElectrolysis) },
		s.Synthesis.Validate,
		s.Distribution.Validate,
		s.UsePhase.Validate,
		s.Finance.Validate,
		s.Incentives.Validate,
	}
	for _, check := range checks {
		if err := check(); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks the electricity settings. Source resolution happens in the carbon store.
func (e Electricity) Validate() error {
	if err := NonNegative(StageElectricity, "price", e.Price); err != nil {
		return err
	}
	if e.CarbonIntensity != nil {
		if err := NonNegative(StageElectricity, "carbon_intensity", *e.CarbonIntensity); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks the capture parameters.
func (c Capture) Validate() error {
	return first(
		Fraction(StageCapture, "capture_efficiency", c.CaptureEfficiency),
		NonNegative(StageCapture, "capture_rate", c.CaptureRate),
		NonNegative(StageCapture, "energy_requirement", c.EnergyRequirement),
		NonNegative(StageCapture, "ghg_factor", c.GHGFactor),
		NonNegative(StageCapture, "water_usage", c.WaterUsage),
		NonNegative(StageCapture, "cost_per_ton", c.CostPerTon),
	)
}

// Validate checks an electrolysis group; stage names the variant in errors.
func (e Electrolysis) Validate(stage string) error {
	if err := first(
		Positive(stage, "theoretical_energy", e.TheoreticalEnergy),
		Fraction(stage, "electrolyzer_efficiency", e.ElectrolyzerEfficiency),
		Fraction(stage, "faradaic_efficiency", e.FaradaicEfficiency),
		Fraction(stage, "feed_conversion", e.FeedConversion),
		Fraction(stage, "stage_efficiency", e.StageEfficiency),
		NonNegative(stage, "energy_input", e.EnergyInput),
		NonNegative(stage, "water_usage", e.WaterUsage),
	); err != nil {
		return err
	}
	if !(e.FeedRatio > 0) {
		return lcaerrors.NewInconsistentCoupling(stage, "feed_ratio", e.FeedRatio,
			"feed-to-product mass ratio must be positive")
	}
	return e.Economics.ValidateLinear(stage)
}

// Validate checks the synthesis parameters.
func (s Synthesis) Validate() error {
	if !(s.H2COMolarRatio > 0) {
		return lcaerrors.NewInconsistentCoupling(StageSynthesis, "h2_co_molar_ratio", s.H2COMolarRatio,
			"H2:CO molar ratio must be positive")
	}
	if !(s.COH2MassSplit > 0) {
		return lcaerrors.NewInconsistentCoupling(StageSynthesis, "co_h2_mass_split", s.COH2MassSplit,
			"CO:H2 mass split must be positive")
	}
	if err := first(
		Positive(StageSynthesis, "syngas_requirement", s.SyngasRequirement),
		Fraction(StageSynthesis, "conversion_efficiency", s.ConversionEfficiency),
		Fraction(StageSynthesis, "c5_selectivity", s.C5Selectivity),
		Fraction(StageSynthesis, "saf_selectivity", s.SAFSelectivity),
		NonNegative(StageSynthesis, "ghg_factor", s.GHGFactor),
		NonNegative(StageSynthesis, "energy_input", s.EnergyInput),
		NonNegative(StageSynthesis, "water_usage", s.WaterUsage),
	); err != nil {
		return err
	}
	return s.Economics.ValidatePowerLaw(StageSynthesis)
}

// Validate checks the distribution parameters.
func (d Distribution) Validate() error {
	return first(
		NonNegative(StageDistribution, "transport_distance_km", d.TransportDistanceKm),
		NonNegative(StageDistribution, "ghg_factor", d.GHGFactor),
		NonNegative(StageDistribution, "energy_input", d.EnergyInput),
	)
}

// Validate checks the use-phase parameters.
func (u UsePhase) Validate() error {
	return first(
		NonNegative(StageUsePhase, "combustion_emissions", u.CombustionEmissions),
		Positive(StageUsePhase, "energy_density", u.EnergyDensity),
		NonNegative(StageUsePhase, "fuel_density", u.FuelDensity),
	)
}

// Validate checks the plant-wide financial settings.
func (f Finance) Validate() error {
	return first(
		NonNegative(StageFinance, "discount_rate", f.DiscountRate),
		Positive(StageFinance, "plant_lifetime_years", f.PlantLifetimeYears),
		Fraction(StageFinance, "capacity_factor", f.CapacityFactor),
		Positive(StageFinance, "annual_fuel_output", f.AnnualFuelOutput),
		NonNegative(StageFinance, "water_price", f.WaterPrice),
	)
}

// Validate checks incentive values.
func (i Incentives) Validate() error {
	return first(
		NonNegative(StageIncentives, "fuel_incentive_per_kg", i.FuelIncentivePerKg),
		NonNegative(StageIncentives, "carbon_credit_per_ton", i.CarbonCreditPerTon),
		NonNegative(StageIncentives, "avoided_emissions_per_ton_fuel", i.AvoidedEmissionsPerTonFuel),
	)
}

// ValidateLinear checks cost factors for equipment priced per kW.
func (e Economics) ValidateLinear(stage string) error {
	return first(
		NonNegative(stage, "capex_per_kw", e.CapexPerKW),
		e.validateCommon(stage),
	)
}

// ValidatePowerLaw checks cost factors for equipment priced by capacity scaling.
func (e Economics) ValidatePowerLaw(stage string) error {
	return first(
		NonNegative(stage, "base_cost", e.BaseCost),
		Positive(stage, "reference_capacity", e.ReferenceCapacity),
		Positive(stage, "scaling_factor", e.ScalingFactor),
		e.validateCommon(stage),
	)
}

func (e Economics) validateCommon(stage string) error {
	if err := first(
		NonNegative(stage, "balance_of_plant", e.BalanceOfPlant),
		Share(stage, "fixed_om_fraction", e.FixedOMFraction),
		Share(stage, "component_replacement_fraction", e.ComponentReplacementFraction),
		NonNegative(stage, "component_lifetime_years", e.ComponentLifetimeYears),
		NonNegative(stage, "other_variable_cost", e.OtherVariableCost),
	); err != nil {
		return err
	}
	if e.ComponentReplacementFraction > 0 && e.ComponentLifetimeYears == 0 {
		return lcaerrors.NewInvalidParameter(stage, "component_lifetime_years", 0,
			"replaceable components need a positive lifetime")
	}
	return nil
}

// Fraction requires v in (0, 1].
func Fraction(stage, name string, v float64) error {
	if !(v > 0 && v <= 1) {
		return lcaerrors.NewInvalidParameter(stage, name, v, "must be a fraction in (0, 1]")
	}
	return nil
}

// Share requires v in [0, 1].
func Share(stage, name string, v float64) error {
	if !(v >= 0 && v <= 1) {
		return lcaerrors.NewInvalidParameter(stage, name, v, "must be a share in [0, 1]")
	}
	return nil
}

// Positive requires a finite v > 0.
func Positive(stage, name string, v float64) error {
	if !(v > 0) || math.IsInf(v, 0) {
		return lcaerrors.NewInvalidParameter(stage, name, v, "must be positive")
	}
	return nil
}

// NonNegative requires a finite v >= 0.
func NonNegative(stage, name string, v float64) error {
	if !(v >= 0) || math.IsInf(v, 0) {
		return lcaerrors.NewInvalidParameter(stage, name, v, "must not be negative")
	}
	return nil
}

func first(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
