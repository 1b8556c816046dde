package params

import "efuel-lca/pkg/units"

// Fossil jet fuel baselines, g CO2e/MJ.
const (
	FossilBaselineCORSIA = 89.0
	FossilBaselineREDII  = 94.0
)

// Default returns the reference DAC → electrolysis → FT scenario.
//
// The life-cycle inventory follows C12H26 as the representative hydrocarbon:
// 12 mol CO2 per mol fuel gives 3.1 kg CO2/kg fuel, and 12 mol CO plus 13 mol H2
// give 2.13 kg syngas/kg fuel.
func Default() *Set {
	return &Set{
		Scenario:       "reference",
		FunctionalUnit: units.FunctionalUnitEnergy,
		CO2Source:      CO2SourceDAC,
		FossilBaseline: FossilBaselineCORSIA,
		Electricity: Electricity{
			Source: "renewable",
			Price:  0.03,
		},
		Capture: Capture{
			CaptureEfficiency: 0.80,
			CaptureRate:       3.1,
			EnergyRequirement: 30.0,
			GHGFactor:         0.08,
			WaterUsage:        5.0,
			CostPerTon:        200.0,
		},
		CO2Electrolysis: Electrolysis{
			TheoreticalEnergy:      units.TheoreticalEnergyCO,
			ElectrolyzerEfficiency: 0.65,
			FaradaicEfficiency:     0.95,
			FeedRatio:              units.StoichiometricMassRatio(units.MolarMassCO2, units.MolarMassCO),
			FeedConversion:         0.90,
			StageEfficiency:        0.65,
			EnergyInput:            28.0,
			WaterUsage:             20.0,
			Economics: Economics{
				CapexPerKW:                   1200,
				BalanceOfPlant:               0.35,
				FixedOMFraction:              0.03,
				ComponentLifetimeYears:       5,
				ComponentReplacementFraction: 0.40,
			},
		},
		WaterElectrolysis: Electrolysis{
			TheoreticalEnergy:      units.TheoreticalEnergyH2,
			ElectrolyzerEfficiency: 0.70,
			FaradaicEfficiency:     0.98,
			FeedRatio:              units.StoichiometricMassRatio(units.MolarMassH2O, units.MolarMassH2),
			FeedConversion:         0.90,
			StageEfficiency:        0.75,
			EnergyInput:            55.0,
			WaterUsage:             20.0,
			Economics: Economics{
				CapexPerKW:                   900,
				BalanceOfPlant:               0.30,
				FixedOMFraction:              0.02,
				ComponentLifetimeYears:       8,
				ComponentReplacementFraction: 0.35,
			},
		},
		Synthesis: Synthesis{
			SyngasRequirement:    2.13,
			COH2MassSplit:        0.923,
			H2COMolarRatio:       13.0 / 12.0,
			ConversionEfficiency: 0.90,
			C5Selectivity:        0.85,
			SAFSelectivity:       0.60,
			GHGFactor:            0.2,
			EnergyInput:          25.0,
			WaterUsage:           5.0,
			Economics: Economics{
				BaseCost:                     150e6,
				ReferenceCapacity:            50e6,
				ScalingFactor:                0.67,
				BalanceOfPlant:               0.25,
				FixedOMFraction:              0.04,
				ComponentLifetimeYears:       4,
				ComponentReplacementFraction: 0.10,
				OtherVariableCost:            0.10,
			},
		},
		Distribution: Distribution{
			TransportDistanceKm: 500,
			TransportMode:       "truck",
			GHGFactor:           0.05,
			EnergyInput:         2.0,
		},
		UsePhase: UsePhase{
			CombustionEmissions: 0,
			EnergyDensity:       43.0,
			FuelDensity:         units.DefaultFuelDensity,
		},
		Finance: Finance{
			DiscountRate:       0.08,
			PlantLifetimeYears: 20,
			CapacityFactor:     0.90,
			AnnualFuelOutput:   50e6,
			WaterPrice:         0.002,
		},
		Incentives: Incentives{
			FuelIncentivePerKg:         0.5,
			CarbonCreditPerTon:         50,
			AvoidedEmissionsPerTonFuel: 3.16,
		},
	}
}
