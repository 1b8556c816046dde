package integration

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"efuel-lca/decision/carbon"
	"efuel-lca/decision/lca"
	"efuel-lca/decision/params"
)

// Scalar metric names reported by Evaluate.
const (
	MetricGHGIntensity = "ghg_intensity" // g CO2e/MJ
	MetricGHGPerFU     = "ghg_per_fu"    // kg CO2e per functional unit

	MetricCoupledGHGIntensity = "coupled_ghg_intensity" // g CO2e/MJ from the sized plant

	MetricLCOP         = "lcop"       // currency/kg, net of incentives
	MetricLCOPGross    = "lcop_gross" // currency/kg
	MetricReductionPct = "reduction_pct"
	MetricNetOpex      = "net_opex" // currency/yr
)

// Metrics lists every metric Evaluate reports.
func Metrics() []string {
	return []string{
		MetricGHGIntensity, MetricGHGPerFU, MetricCoupledGHGIntensity,
		MetricLCOP, MetricLCOPGross, MetricReductionPct, MetricNetOpex,
	}
}

// Metrics flattens a result into named scalars.
func (r *IntegratedResult) Metrics() map[string]float64 {
	return map[string]float64{
		MetricGHGIntensity:        r.GHGIntensity(),
		MetricGHGPerFU:            r.Assessment.Emissions.Total,
		MetricCoupledGHGIntensity: r.CoupledGHGIntensity(),
		MetricLCOP:                r.LCOP.InexactFloat64(),
		MetricLCOPGross:           r.LCOPGross.InexactFloat64(),
		MetricReductionPct:        r.ReductionPct(),
		MetricNetOpex:             r.NetOpex.InexactFloat64(),
	}
}

// Evaluate runs the chain and returns its scalar metrics. Its signature
// matches the pipeline used by Monte Carlo and sensitivity runs.
func (e *Engine) Evaluate(ctx context.Context, set *params.Set) (map[string]float64, error) {
	r, err := e.Run(ctx, set)
	if err != nil {
		return nil, err
	}
	return r.Metrics(), nil
}

// SweepPoint is the outcome for one electricity source.
type SweepPoint struct {
	Source               string          `json:"source"`
	CarbonIntensity      float64         `json:"carbon_intensity"`
	GHGIntensity         float64         `json:"ghg_intensity"`
	CoupledGHGIntensity  float64         `json:"coupled_ghg_intensity"`
	ReductionPct         float64         `json:"reduction_pct"`
	ElectrolysisSharePct float64         `json:"electrolysis_share_pct"`
	LCOP                 decimal.Decimal `json:"lcop"`
	MeetsREDII           bool            `json:"meets_red_ii"`
}

// SweepElectricitySources evaluates set once per source, in parallel, on
// independent copies. Results keep the order of sources. An empty list
// sweeps the default comparison set.
func (e *Engine) SweepElectricitySources(ctx context.Context, set *params.Set, sources []string) ([]SweepPoint, error) {
	if len(sources) == 0 {
		sources = carbon.DefaultSweepSources()
	}

	points := make([]SweepPoint, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for i, source := range sources {
		variant := set.WithElectricitySource(source)
		g.Go(func() error {
			r, err := e.Run(gctx, variant)
			if err != nil {
				return fmt.Errorf("electricity source %q: %w", source, err)
			}
			points[i] = SweepPoint{
				Source:               source,
				CarbonIntensity:      r.CarbonIntensity,
				GHGIntensity:         r.GHGIntensity(),
				CoupledGHGIntensity:  r.CoupledGHGIntensity(),
				ReductionPct:         r.ReductionPct(),
				ElectrolysisSharePct: r.Assessment.Emissions.Share(lca.StageElectrolysis),
				LCOP:                 r.LCOP,
				MeetsREDII:           r.Assessment.Emissions.MeetsREDII,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	e.logger.Debug().Int("sources", len(sources)).Msg("electricity sweep finished")
	return points, nil
}
