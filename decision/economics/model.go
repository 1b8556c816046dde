// Package economics computes capital cost, operating cost and levelized
// cost of product for one process unit. Money is carried as decimal.
package economics

import (
	"math"

	"github.com/shopspring/decimal"

	"efuel-lca/decision/params"
	lcaerrors "efuel-lca/pkg/errors"
	"efuel-lca/pkg/units"
)

// Scaling selects how equipment cost follows capacity.
type Scaling int

const (
	// LinearPower prices equipment per kW of rated power.
	LinearPower Scaling = iota
	// PowerLaw scales a reference cost by (capacity/reference)^exponent.
	PowerLaw
)

func (s Scaling) String() string {
	switch s {
	case LinearPower:
		return "linear_power"
	case PowerLaw:
		return "power_law"
	default:
		return "unknown"
	}
}

// CapitalRecoveryFactor returns r(1+r)^n / ((1+r)^n - 1), or 1/n at r = 0.
func CapitalRecoveryFactor(rate, years float64) (float64, error) {
	if !(rate >= 0) || math.IsInf(rate, 0) {
		return 0, lcaerrors.NewInvalidParameter(params.StageFinance, "discount_rate", rate, "must not be negative")
	}
	if !(years > 0) {
		return 0, lcaerrors.NewInvalidParameter(params.StageFinance, "plant_lifetime_years", years, "must be positive")
	}
	if rate == 0 {
		return 1 / years, nil
	}
	g := math.Pow(1+rate, years)
	if math.IsInf(g, 1) {
		return rate, nil
	}
	return rate * g / (g - 1), nil
}

// Model prices one process unit.
type Model struct {
	stage   string
	scaling Scaling
	econ    params.Economics
	finance params.Finance
	crf     float64
}

// NewModel validates the cost factors and binds them to a scaling rule.
func NewModel(stage string, scaling Scaling, econ params.Economics, finance params.Finance) (*Model, error) {
	var err error
	switch scaling {
	case LinearPower:
		err = econ.ValidateLinear(stage)
	case PowerLaw:
		err = econ.ValidatePowerLaw(stage)
	default:
		err = lcaerrors.NewInvalidParameter(stage, "scaling", float64(scaling), "unknown scaling rule")
	}
	if err != nil {
		return nil, err
	}
	if err := finance.Validate(); err != nil {
		return nil, err
	}
	crf, err := CapitalRecoveryFactor(finance.DiscountRate, finance.PlantLifetimeYears)
	if err != nil {
		return nil, err
	}
	return &Model{stage: stage, scaling: scaling, econ: econ, finance: finance, crf: crf}, nil
}

// CRF returns the capital recovery factor for the bound finance settings.
func (m *Model) CRF() float64 { return m.crf }

// Capex is the installed capital cost of one unit.
type Capex struct {
	Capacity       float64         `json:"capacity"`
	CapacityUnit   string          `json:"capacity_unit"`
	Equipment      decimal.Decimal `json:"equipment"`
	BalanceOfPlant decimal.Decimal `json:"balance_of_plant"`
	Total          decimal.Decimal `json:"total"`
}

// ComputeCapex prices a unit of the given capacity: kW for LinearPower,
// kg product per year for PowerLaw.
func (m *Model) ComputeCapex(capacity float64) (Capex, error) {
	if err := params.NonNegative(m.stage, "capacity", capacity); err != nil {
		return Capex{}, err
	}

	var equipment float64
	var unit string
	switch m.scaling {
	case LinearPower:
		equipment = m.econ.CapexPerKW * capacity
		unit = "kW"
	case PowerLaw:
		equipment = m.econ.BaseCost * math.Pow(capacity/m.econ.ReferenceCapacity, m.econ.ScalingFactor)
		unit = "kg/yr"
	}

	eq := decimal.NewFromFloat(equipment)
	bop := eq.Mul(decimal.NewFromFloat(m.econ.BalanceOfPlant))
	return Capex{
		Capacity:       capacity,
		CapacityUnit:   unit,
		Equipment:      eq,
		BalanceOfPlant: bop,
		Total:          eq.Add(bop),
	}, nil
}

// OpexInputs are the annual consumption figures of one unit.
type OpexInputs struct {
	Capex Capex

	ElectricityKWh   float64 // kWh/yr
	ElectricityPrice float64 // currency/kWh
	WaterLiters      float64 // L/yr
	WaterPrice       float64 // currency/L
	FeedstockCost    float64 // currency/yr, e.g. purchased CO2
	Production       float64 // kg product/yr, priced at OtherVariableCost
}

// Opex is the annual operating cost of one unit.
type Opex struct {
	Electricity decimal.Decimal `json:"electricity"`
	Water       decimal.Decimal `json:"water"`
	Feedstock   decimal.Decimal `json:"feedstock"`
	Other       decimal.Decimal `json:"other"`
	Variable    decimal.Decimal `json:"variable"`
	FixedOM     decimal.Decimal `json:"fixed_om"`
	Replacement decimal.Decimal `json:"replacement"`
	Total       decimal.Decimal `json:"total"`
}

// ComputeOpex returns variable, fixed and annualized replacement costs.
func (m *Model) ComputeOpex(in OpexInputs) (Opex, error) {
	for _, check := range []struct {
		name string
		v    float64
	}{
		{"electricity_kwh", in.ElectricityKWh},
		{"electricity_price", in.ElectricityPrice},
		{"water_liters", in.WaterLiters},
		{"water_price", in.WaterPrice},
		{"feedstock_cost", in.FeedstockCost},
		{"production", in.Production},
	} {
		if err := params.NonNegative(m.stage, check.name, check.v); err != nil {
			return Opex{}, err
		}
	}

	o := Opex{
		Electricity: decimal.NewFromFloat(in.ElectricityKWh).Mul(decimal.NewFromFloat(in.ElectricityPrice)),
		Water:       decimal.NewFromFloat(in.WaterLiters).Mul(decimal.NewFromFloat(in.WaterPrice)),
		Feedstock:   decimal.NewFromFloat(in.FeedstockCost),
		Other:       decimal.NewFromFloat(in.Production).Mul(decimal.NewFromFloat(m.econ.OtherVariableCost)),
	}
	o.Variable = o.Electricity.Add(o.Water).Add(o.Feedstock).Add(o.Other)
	o.FixedOM = in.Capex.Total.Mul(decimal.NewFromFloat(m.econ.FixedOMFraction))
	o.Replacement = in.Capex.Equipment.Mul(decimal.NewFromFloat(m.replacementFactor()))
	o.Total = o.Variable.Add(o.FixedOM).Add(o.Replacement)
	return o, nil
}

// replacementFactor is fraction × max(floor(L/l) - 1, 0) / L.
func (m *Model) replacementFactor() float64 {
	l := m.econ.ComponentLifetimeYears
	f := m.econ.ComponentReplacementFraction
	if l <= 0 || f == 0 {
		return 0
	}
	life := m.finance.PlantLifetimeYears
	n := math.Max(math.Floor(life/l)-1, 0)
	return f * n / life
}

// ComputeLCOP returns (CAPEX × CRF + OPEX) / annual production.
func (m *Model) ComputeLCOP(capex Capex, opex Opex, annualProduction float64) (decimal.Decimal, error) {
	return LevelizedCost(capex.Total, opex.Total, m.crf, annualProduction, m.stage)
}

// LevelizedCost returns (capex × crf + opex) / annualProduction.
func LevelizedCost(capex, opex decimal.Decimal, crf, annualProduction float64, stage string) (decimal.Decimal, error) {
	if err := params.Positive(stage, "annual_production", annualProduction); err != nil {
		return decimal.Zero, err
	}
	annual := capex.Mul(decimal.NewFromFloat(crf)).Add(opex)
	return annual.Div(decimal.NewFromFloat(annualProduction)), nil
}

// Result is the full economic picture of one unit.
type Result struct {
	Stage           string          `json:"stage"`
	Scaling         string          `json:"scaling"`
	Capex           Capex           `json:"capex"`
	Opex            Opex            `json:"opex"`
	CRF             float64         `json:"crf"`
	AnnualizedCapex decimal.Decimal `json:"annualized_capex"`
	AnnualCost      decimal.Decimal `json:"annual_cost"`
	LCOP            decimal.Decimal `json:"lcop"` // currency/kg product
}

// Evaluate prices a unit end to end. Any Capex on in is replaced by the
// one computed for capacity.
func (m *Model) Evaluate(capacity float64, in OpexInputs, annualProduction float64) (*Result, error) {
	capex, err := m.ComputeCapex(capacity)
	if err != nil {
		return nil, err
	}
	in.Capex = capex
	opex, err := m.ComputeOpex(in)
	if err != nil {
		return nil, err
	}
	lcop, err := m.ComputeLCOP(capex, opex, annualProduction)
	if err != nil {
		return nil, err
	}
	annualized := capex.Total.Mul(decimal.NewFromFloat(m.crf))
	return &Result{
		Stage:           m.stage,
		Scaling:         m.scaling.String(),
		Capex:           capex,
		Opex:            opex,
		CRF:             m.crf,
		AnnualizedCapex: annualized,
		AnnualCost:      annualized.Add(opex.Total),
		LCOP:            lcop,
	}, nil
}

// RequiredPowerKW returns the rated power needed to deliver annualKWh at a capacity factor.
func RequiredPowerKW(annualKWh, capacityFactor float64) (float64, error) {
	if err := params.Fraction(params.StageFinance, "capacity_factor", capacityFactor); err != nil {
		return 0, err
	}
	return annualKWh / units.OperatingHours(capacityFactor), nil
}
