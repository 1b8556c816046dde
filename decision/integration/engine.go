// Package integration couples the process, economic and life-cycle models
// into one calculation over a fixed annual fuel output.
package integration

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"efuel-lca/decision/carbon"
	"efuel-lca/decision/economics"
	"efuel-lca/decision/lca"
	"efuel-lca/decision/params"
	"efuel-lca/decision/process"
	lcaerrors "efuel-lca/pkg/errors"
	"efuel-lca/pkg/units"
)

// Engine runs the integrated calculation. It holds no per-run state and is
// safe for concurrent use.
type Engine struct {
	store   carbon.Store
	logger  zerolog.Logger
	workers int
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithWorkers bounds the parallelism of sweeps.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// NewEngine creates an engine resolving electricity sources through store.
// A nil store falls back to the static table.
func NewEngine(store carbon.Store, opts ...Option) *Engine {
	if store == nil {
		store = carbon.NewStaticStore()
	}
	e := &Engine{
		store:   store,
		logger:  zerolog.Nop(),
		workers: 4,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Coupling summarizes the mass and energy hand-offs between stages, per year.
type Coupling struct {
	FuelKg            float64 `json:"fuel_kg"`
	SyngasKg          float64 `json:"syngas_kg"`
	COKg              float64 `json:"co_kg"`
	H2Kg              float64 `json:"h2_kg"`
	CO2FeedKg         float64 `json:"co2_feed_kg"`
	CO2ProcessedKg    float64 `json:"co2_processed_kg"`
	ElectricityKWh    float64 `json:"electricity_kwh"`
	WaterLiters       float64 `json:"water_liters"`
	CO2ElectrolyzerKW float64 `json:"co2_electrolyzer_kw"`
	H2ElectrolyzerKW  float64 `json:"h2_electrolyzer_kw"`
}

// ProcessResult pairs one stage's flows with its economics. Capture has no
// economics of its own; its cost reaches CO2 electrolysis as feedstock.
type ProcessResult struct {
	Stage     process.Stage       `json:"stage"`
	Flows     *process.FlowResult `json:"flows"`
	PowerKW   float64             `json:"power_kw,omitempty"`
	Economics *economics.Result   `json:"economics,omitempty"`
}

// IntegratedResult is the read-only outcome of one run.
type IntegratedResult struct {
	RunID     uuid.UUID `json:"run_id"`
	Timestamp time.Time `json:"timestamp"`
	Scenario  string    `json:"scenario"`

	ElectricitySource string  `json:"electricity_source"`
	CarbonIntensity   float64 `json:"carbon_intensity"` // kg CO2e/kWh

	Coupling  Coupling        `json:"coupling"`
	Processes []ProcessResult `json:"processes"`

	Capex         decimal.Decimal `json:"capex"`
	Opex          decimal.Decimal `json:"opex"`
	Incentives    decimal.Decimal `json:"incentives"`
	CarbonCredits decimal.Decimal `json:"carbon_credits"`
	NetOpex       decimal.Decimal `json:"net_opex"`
	CRF           float64         `json:"crf"`

	LCOPGross     decimal.Decimal `json:"lcop_gross"` // currency/kg before incentives
	LCOP          decimal.Decimal `json:"lcop"`       // currency/kg
	LCOPPerLiter  decimal.Decimal `json:"lcop_per_liter"`
	LCOPPerGallon decimal.Decimal `json:"lcop_per_gallon"`

	Assessment *lca.Assessment `json:"assessment"`
}

// GHGIntensity returns the life-cycle intensity in g CO2e/MJ.
func (r *IntegratedResult) GHGIntensity() float64 {
	return r.Assessment.Emissions.IntensityGPerMJ
}

// CoupledGHGIntensity returns the intensity in g CO2e/MJ built from the
// direct emissions of the sized process stages.
func (r *IntegratedResult) CoupledGHGIntensity() float64 {
	return r.Assessment.Emissions.Coupled.IntensityGPerMJ
}

// ReductionPct returns the saving against the scenario's fossil baseline.
func (r *IntegratedResult) ReductionPct() float64 {
	return r.Assessment.Emissions.ReductionPct
}

// Process returns the result for a stage.
func (r *IntegratedResult) Process(stage process.Stage) (ProcessResult, bool) {
	for _, p := range r.Processes {
		if p.Stage == stage {
			return p, true
		}
	}
	return ProcessResult{}, false
}

// Run sizes every stage for the annual fuel output and prices the chain.
func (e *Engine) Run(ctx context.Context, set *params.Set) (*IntegratedResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := set.Validate(); err != nil {
		return nil, err
	}
	intensity, err := carbon.Resolve(e.store, set.Electricity)
	if err != nil {
		return nil, err
	}

	result := &IntegratedResult{
		RunID:             uuid.New(),
		Timestamp:         time.Now().UTC(),
		Scenario:          set.Scenario,
		ElectricitySource: set.Electricity.Source,
		CarbonIntensity:   intensity,
	}
	log := e.logger.With().Str("run_id", result.RunID.String()).Logger()
	log.Debug().
		Str("scenario", set.Scenario).
		Str("electricity_source", set.Electricity.Source).
		Float64("carbon_intensity", intensity).
		Msg("integrated run started")

	// =========================================================================
	// MASS AND ENERGY COUPLING
	// =========================================================================

	fuel := set.Finance.AnnualFuelOutput

	ft, err := process.NewSynthesis(set.Synthesis)
	if err != nil {
		return nil, err
	}
	ftFlows, err := ft.ComputeFlows(fuel)
	if err != nil {
		return nil, err
	}

	h2Unit, err := process.NewWaterElectrolyzer(set.WaterElectrolysis, intensity)
	if err != nil {
		return nil, err
	}
	h2Flows, err := h2Unit.ComputeFlows(ftFlows.Flow(process.FlowH2))
	if err != nil {
		return nil, err
	}

	coUnit, err := process.NewCO2Electrolyzer(set.CO2Electrolysis, intensity)
	if err != nil {
		return nil, err
	}
	coFlows, err := coUnit.ComputeFlows(ftFlows.Flow(process.FlowCO))
	if err != nil {
		return nil, err
	}

	capture, err := process.NewCapture(set.Capture)
	if err != nil {
		return nil, err
	}
	captureFlows, err := capture.ComputeFlows(coFlows.Flow(process.FlowCO2))
	if err != nil {
		return nil, err
	}

	if err := checkCoupling(ftFlows, coFlows, h2Flows, captureFlows); err != nil {
		return nil, err
	}

	cf := set.Finance.CapacityFactor
	h2KW, err := economics.RequiredPowerKW(h2Flows.ElectricityKWh(), cf)
	if err != nil {
		return nil, err
	}
	coKW, err := economics.RequiredPowerKW(coFlows.ElectricityKWh(), cf)
	if err != nil {
		return nil, err
	}

	all := []*process.FlowResult{captureFlows, coFlows, h2Flows, ftFlows}
	c := Coupling{
		FuelKg:            fuel,
		SyngasKg:          ftFlows.Flow(process.FlowSyngas),
		COKg:              coFlows.Output,
		H2Kg:              h2Flows.Output,
		CO2FeedKg:         coFlows.Flow(process.FlowCO2),
		CO2ProcessedKg:    capture.Processed(coFlows.Flow(process.FlowCO2)),
		CO2ElectrolyzerKW: coKW,
		H2ElectrolyzerKW:  h2KW,
	}
	for _, f := range all {
		c.ElectricityKWh += f.ElectricityKWh()
		c.WaterLiters += f.Flow(process.FlowWater)
	}
	result.Coupling = c

	// =========================================================================
	// ECONOMICS
	// =========================================================================

	price := set.Electricity.Price
	water := set.Finance.WaterPrice

	coModel, err := economics.NewModel(params.StageCO2Electrolysis, economics.LinearPower, set.CO2Electrolysis.Economics, set.Finance)
	if err != nil {
		return nil, err
	}
	coEcon, err := coModel.Evaluate(coKW, economics.OpexInputs{
		ElectricityKWh:   coFlows.ElectricityKWh(),
		ElectricityPrice: price,
		WaterLiters:      coFlows.Flow(process.FlowWater),
		WaterPrice:       water,
		FeedstockCost:    units.KgToTon(c.CO2FeedKg) * set.Capture.CostPerTon,
		Production:       c.COKg,
	}, c.COKg)
	if err != nil {
		return nil, err
	}

	h2Model, err := economics.NewModel(params.StageWaterElectrolysis, economics.LinearPower, set.WaterElectrolysis.Economics, set.Finance)
	if err != nil {
		return nil, err
	}
	h2Econ, err := h2Model.Evaluate(h2KW, economics.OpexInputs{
		ElectricityKWh:   h2Flows.ElectricityKWh(),
		ElectricityPrice: price,
		WaterLiters:      h2Flows.Flow(process.FlowWater),
		WaterPrice:       water,
		Production:       c.H2Kg,
	}, c.H2Kg)
	if err != nil {
		return nil, err
	}

	ftModel, err := economics.NewModel(params.StageSynthesis, economics.PowerLaw, set.Synthesis.Economics, set.Finance)
	if err != nil {
		return nil, err
	}
	ftEcon, err := ftModel.Evaluate(fuel, economics.OpexInputs{
		ElectricityKWh:   ftFlows.ElectricityKWh(),
		ElectricityPrice: price,
		WaterLiters:      ftFlows.Flow(process.FlowWater),
		WaterPrice:       water,
		Production:       fuel,
	}, fuel)
	if err != nil {
		return nil, err
	}

	result.Processes = []ProcessResult{
		{Stage: process.StageCapture, Flows: captureFlows},
		{Stage: process.StageCO2Electrolysis, Flows: coFlows, PowerKW: coKW, Economics: coEcon},
		{Stage: process.StageWaterElectrolysis, Flows: h2Flows, PowerKW: h2KW, Economics: h2Econ},
		{Stage: process.StageSynthesis, Flows: ftFlows, Economics: ftEcon},
	}

	result.Capex = decimal.Zero
	result.Opex = decimal.Zero
	for _, r := range []*economics.Result{coEcon, h2Econ, ftEcon} {
		result.Capex = result.Capex.Add(r.Capex.Total)
		result.Opex = result.Opex.Add(r.Opex.Total)
	}

	inc := set.Incentives
	result.Incentives = decimal.NewFromFloat(inc.FuelIncentivePerKg).Mul(decimal.NewFromFloat(fuel))
	avoided := units.KgToTon(fuel) * inc.AvoidedEmissionsPerTonFuel
	result.CarbonCredits = decimal.NewFromFloat(inc.CarbonCreditPerTon).Mul(decimal.NewFromFloat(avoided))
	// may go negative when incentives exceed operating cost
	result.NetOpex = result.Opex.Sub(result.Incentives).Sub(result.CarbonCredits)

	result.CRF = ftModel.CRF()
	result.LCOPGross, err = economics.LevelizedCost(result.Capex, result.Opex, result.CRF, fuel, params.StageFinance)
	if err != nil {
		return nil, err
	}
	result.LCOP, err = economics.LevelizedCost(result.Capex, result.NetOpex, result.CRF, fuel, params.StageFinance)
	if err != nil {
		return nil, err
	}
	kgPerLiter := decimal.NewFromFloat(set.UsePhase.Density())
	result.LCOPPerLiter = result.LCOP.Mul(kgPerLiter)
	result.LCOPPerGallon = result.LCOPPerLiter.Mul(decimal.NewFromFloat(units.LitersPerGallon))

	// =========================================================================
	// LIFE CYCLE
	// =========================================================================

	result.Assessment, err = lca.Assess(set, intensity)
	if err != nil {
		return nil, err
	}
	result.Assessment.Emissions.Coupled, err = lca.Couple(set, fuel, []lca.StageEmission{
		{Stage: lca.StageCarbonCapture, Kg: captureFlows.DirectEmissions},
		{Stage: lca.StageElectrolysis, Kg: coFlows.DirectEmissions},
		{Stage: lca.StageElectrolysis, Kg: h2Flows.DirectEmissions},
		{Stage: lca.StageConversion, Kg: ftFlows.DirectEmissions},
	})
	if err != nil {
		return nil, err
	}

	log.Debug().
		Float64("ghg_g_per_mj", result.GHGIntensity()).
		Float64("coupled_ghg_g_per_mj", result.CoupledGHGIntensity()).
		Float64("reduction_pct", result.ReductionPct()).
		Str("lcop", result.LCOP.StringFixed(4)).
		Msg("integrated run finished")

	return result, nil
}

// checkCoupling rejects stages whose flows or emissions went non-finite.
func checkCoupling(stages ...*process.FlowResult) error {
	for _, r := range stages {
		for name, v := range r.Flows {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return lcaerrors.NewInconsistentCoupling(string(r.Stage), string(name), v, "flow is not finite")
			}
		}
		if math.IsNaN(r.DirectEmissions) || math.IsInf(r.DirectEmissions, 0) {
			return lcaerrors.NewInconsistentCoupling(string(r.Stage), "direct_emissions", r.DirectEmissions, "emissions are not finite")
		}
	}
	return nil
}
