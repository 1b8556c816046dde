package uncertainty

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sort"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"efuel-lca/decision/params"
	lcaerrors "efuel-lca/pkg/errors"
)

// DefaultDelta is the relative perturbation applied in each direction.
const DefaultDelta = 0.20

// DefaultParameters are analyzed when the caller names none. Each stays
// inside its valid range at ±20%.
var DefaultParameters = []string{
	"capture.capture_efficiency",
	"capture.ghg_factor",
	"co2_electrolysis.electrolyzer_efficiency",
	"co2_electrolysis.stage_efficiency",
	"co2_electrolysis.capex_per_kw",
	"water_electrolysis.electrolyzer_efficiency",
	"water_electrolysis.stage_efficiency",
	"water_electrolysis.capex_per_kw",
	"synthesis.saf_selectivity",
	"synthesis.ghg_factor",
	"electricity.price",
	"finance.discount_rate",
}

// Sensitivity configures a one-at-a-time perturbation analysis.
type Sensitivity struct {
	Delta   float64 // fraction, defaults to DefaultDelta
	Workers int
	Logger  *zerolog.Logger
}

// Record is the response of one metric to one parameter.
type Record struct {
	Parameter       string  `json:"parameter"`
	Metric          string  `json:"metric"`
	BaseValue       float64 `json:"base_value"`
	PerturbationPct float64 `json:"perturbation_pct"`
	BaseMetric      float64 `json:"base_metric"`
	LowMetric       float64 `json:"low_metric"`
	HighMetric      float64 `json:"high_metric"`
	MetricDelta     float64 `json:"metric_delta"`
	Elasticity      float64 `json:"elasticity"`
	// Undefined is set when the base metric is zero and no relative change exists.
	Undefined bool `json:"undefined,omitempty"`
}

type perturbation struct {
	low, high map[string]float64
}

// Analyze perturbs each parameter to (1-δ) and (1+δ) of its base value and
// reports the central-difference elasticity of every requested metric.
// Records come back ordered by parameter, then metric.
func (s Sensitivity) Analyze(ctx context.Context, base *params.Set, parameters, metrics []string, pipeline Pipeline) ([]Record, error) {
	delta := s.Delta
	if delta == 0 {
		delta = DefaultDelta
	}
	if !(delta > 0 && delta < 1) {
		return nil, lcaerrors.NewInvalidParameter("sensitivity", "delta", delta, "must lie in (0, 1)")
	}
	if len(parameters) == 0 {
		parameters = DefaultParameters
	}
	workers := s.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	log := zerolog.Nop()
	if s.Logger != nil {
		log = *s.Logger
	}

	baseValues := make([]float64, len(parameters))
	for i, name := range parameters {
		v, err := base.Lookup(name)
		if err != nil {
			return nil, lcaerrors.NewInvalidParameter("sensitivity", name, 0, err.Error())
		}
		if v == 0 {
			return nil, lcaerrors.NewInvalidParameter("sensitivity", name, v, "cannot take a relative perturbation of zero")
		}
		baseValues[i] = v
	}

	baseMetrics, err := pipeline(ctx, base)
	if err != nil {
		return nil, fmt.Errorf("base case: %w", err)
	}
	if len(metrics) == 0 {
		for name := range baseMetrics {
			metrics = append(metrics, name)
		}
		sort.Strings(metrics)
	}
	for _, m := range metrics {
		if _, ok := baseMetrics[m]; !ok {
			return nil, fmt.Errorf("pipeline does not report metric %q", m)
		}
	}

	runs := make([]perturbation, len(parameters))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, name := range parameters {
		for _, side := range []float64{-1, 1} {
			g.Go(func() error {
				set, err := base.With(name, baseValues[i]*(1+side*delta))
				if err != nil {
					return err
				}
				out, err := pipeline(gctx, set)
				if err != nil {
					return fmt.Errorf("%s at %+.0f%%: %w", name, side*delta*100, err)
				}
				if side < 0 {
					runs[i].low = out
				} else {
					runs[i].high = out
				}
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(parameters)*len(metrics))
	for i, name := range parameters {
		for _, m := range metrics {
			r := Record{
				Parameter:       name,
				Metric:          m,
				BaseValue:       baseValues[i],
				PerturbationPct: delta * 100,
				BaseMetric:      baseMetrics[m],
				LowMetric:       runs[i].low[m],
				HighMetric:      runs[i].high[m],
			}
			r.MetricDelta = r.HighMetric - r.LowMetric
			if r.BaseMetric == 0 {
				r.Undefined = true
			} else {
				r.Elasticity = (r.MetricDelta / r.BaseMetric) / (2 * delta)
			}
			records = append(records, r)
		}
	}

	log.Debug().Int("parameters", len(parameters)).Int("records", len(records)).Msg("sensitivity finished")
	return records, nil
}

// RankByLeverage orders records by descending |elasticity|. Undefined
// records sort last. The input is not modified.
func RankByLeverage(records []Record) []Record {
	out := append([]Record(nil), records...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Undefined != out[j].Undefined {
			return !out[i].Undefined
		}
		return math.Abs(out[i].Elasticity) > math.Abs(out[j].Elasticity)
	})
	return out
}
