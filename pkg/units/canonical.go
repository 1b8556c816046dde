// Package units provides the canonical unit system and its boundary conversions.
//
// All engine computation uses kg for mass, MJ for energy and L for volume.
// Other units appear only at formula boundaries through the helpers below.
package units

import "fmt"

// Unit represents a measurable quantity.
type Unit string

const (
	// Canonical units
	UnitKg Unit = "kg"
	UnitMJ Unit = "MJ"
	UnitL  Unit = "L"

	// Boundary units
	UnitKWh    Unit = "kWh"
	UnitTon    Unit = "t"
	UnitGallon Unit = "gal"
	UnitBarrel Unit = "bbl"
)

// FunctionalUnit is the basis to which life-cycle results are normalized.
type FunctionalUnit string

const (
	FunctionalUnitEnergy FunctionalUnit = "MJ"
	FunctionalUnitMass   FunctionalUnit = "kg"
	FunctionalUnitVolume FunctionalUnit = "L"
)

// ParseFunctionalUnit accepts MJ, kg or L.
func ParseFunctionalUnit(s string) (FunctionalUnit, error) {
	switch FunctionalUnit(s) {
	case FunctionalUnitEnergy, FunctionalUnitMass, FunctionalUnitVolume:
		return FunctionalUnit(s), nil
	default:
		return "", fmt.Errorf("unsupported functional unit: %q", s)
	}
}

// Conversion constants
const (
	MJPerKWh        = 3.6
	KgPerTon        = 1000.0
	GramsPerKg      = 1000.0
	LitersPerGallon = 3.785411784
	LitersPerBarrel = 158.987294928
	HoursPerYear    = 8760.0

	// DefaultFuelDensity is the representative jet fuel density in kg/L.
	DefaultFuelDensity = 0.8
)

// Molar masses in g/mol.
const (
	MolarMassCO  = 28.01
	MolarMassCO2 = 44.01
	MolarMassH2  = 2.016
	MolarMassH2O = 18.015
)

// Theoretical specific energies in kWh per kg product, from the standard electrode potentials.
const (
	TheoreticalEnergyCO = 2.78
	TheoreticalEnergyH2 = 39.4
)

// KWhToMJ converts kilowatt-hours to megajoules.
func KWhToMJ(kwh float64) float64 {
	return kwh * MJPerKWh
}

// MJToKWh converts megajoules to kilowatt-hours.
func MJToKWh(mj float64) float64 {
	return mj / MJPerKWh
}

// KgToTon converts kilograms to metric tons.
func KgToTon(kg float64) float64 {
	return kg / KgPerTon
}

// TonToKg converts metric tons to kilograms.
func TonToKg(t float64) float64 {
	return t * KgPerTon
}

// LitersToGallons converts liters to US gallons.
func LitersToGallons(l float64) float64 {
	return l / LitersPerGallon
}

// LitersToBarrels converts liters to oil barrels.
func LitersToBarrels(l float64) float64 {
	return l / LitersPerBarrel
}

// KgToLiters converts a fuel mass to volume at the given density (kg/L).
func KgToLiters(kg, density float64) float64 {
	if density == 0 {
		return 0
	}
	return kg / density
}

// StoichiometricMassRatio returns kg of reactant per kg of product for a 1:1 molar reaction.
func StoichiometricMassRatio(reactantMolarMass, productMolarMass float64) float64 {
	return reactantMolarMass / productMolarMass
}

// MolarToMassRatio converts a molar ratio a:b into a mass ratio.
func MolarToMassRatio(molarRatio, molarMassA, molarMassB float64) float64 {
	return molarRatio * molarMassA / molarMassB
}

// OperatingHours returns annual operating hours at a given capacity factor.
func OperatingHours(capacityFactor float64) float64 {
	return HoursPerYear * capacityFactor
}
