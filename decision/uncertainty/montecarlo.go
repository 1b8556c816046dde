package uncertainty

import (
	"context"
	"fmt"
	"math/rand/v2"
	"runtime"
	"sort"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"efuel-lca/decision/params"
	lcaerrors "efuel-lca/pkg/errors"
	"efuel-lca/pkg/stats"
)

// Pipeline evaluates one parameter set into named scalar metrics. It must
// not retain or mutate the set.
type Pipeline func(ctx context.Context, set *params.Set) (map[string]float64, error)

// MonteCarlo configures a sampling run.
type MonteCarlo struct {
	Trials      int
	Seed        uint64
	Workers     int       // defaults to GOMAXPROCS
	Percentiles []float64 // defaults to 5, 50, 95
	KeepSamples bool
	Logger      *zerolog.Logger
}

// Sample is one trial: the drawn parameters and the metrics they produced.
type Sample struct {
	Index      int                `json:"index"`
	Parameters map[string]float64 `json:"parameters"`
	Metrics    map[string]float64 `json:"metrics"`
}

// DistributionResult summarizes every metric over all trials.
type DistributionResult struct {
	RunID      uuid.UUID                `json:"run_id"`
	Trials     int                      `json:"trials"`
	Seed       uint64                   `json:"seed"`
	Parameters []string                 `json:"parameters"`
	Metrics    map[string]stats.Summary `json:"metrics"`
	Samples    []Sample                 `json:"samples,omitempty"`
}

// Run draws Trials parameter sets from base.Uncertainty and evaluates each
// through pipeline. Trial i is seeded from (Seed, i), so the result does
// not depend on worker count or scheduling. The first failing trial aborts
// the run.
func (m MonteCarlo) Run(ctx context.Context, base *params.Set, pipeline Pipeline) (*DistributionResult, error) {
	if m.Trials <= 0 {
		return nil, lcaerrors.NewInvalidParameter("montecarlo", "trials", float64(m.Trials), "must be positive")
	}
	for _, p := range m.Percentiles {
		if !(p >= 0 && p <= 100) {
			return nil, lcaerrors.NewInvalidParameter("montecarlo", "percentile", p, "must lie in [0, 100]")
		}
	}
	sampler, err := NewSampler(base.Uncertainty)
	if err != nil {
		return nil, err
	}

	workers := m.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	log := zerolog.Nop()
	if m.Logger != nil {
		log = *m.Logger
	}

	result := &DistributionResult{
		RunID:      uuid.New(),
		Trials:     m.Trials,
		Seed:       m.Seed,
		Parameters: sampler.Parameters(),
	}
	log.Debug().
		Str("run_id", result.RunID.String()).
		Int("trials", m.Trials).
		Int("workers", workers).
		Strs("parameters", result.Parameters).
		Msg("monte carlo started")

	samples := make([]Sample, m.Trials)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := 0; i < m.Trials; i++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			draws, err := sampler.Draw(rand.NewPCG(m.Seed, uint64(i)))
			if err != nil {
				return err
			}
			trial, err := base.WithValues(draws)
			if err != nil {
				return lcaerrors.NewSamplingError("", 0, err.Error())
			}
			metrics, err := pipeline(gctx, trial)
			if err != nil {
				return fmt.Errorf("trial %d: %w", i, err)
			}
			samples[i] = Sample{Index: i, Parameters: draws, Metrics: metrics}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result.Metrics, err = summarize(samples, m.Percentiles)
	if err != nil {
		return nil, err
	}
	if m.KeepSamples {
		result.Samples = samples
	}

	log.Debug().
		Str("run_id", result.RunID.String()).
		Int("metrics", len(result.Metrics)).
		Msg("monte carlo finished")
	return result, nil
}

func summarize(samples []Sample, percentiles []float64) (map[string]stats.Summary, error) {
	names := make([]string, 0, len(samples[0].Metrics))
	for name := range samples[0].Metrics {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make(map[string]stats.Summary, len(names))
	values := make([]float64, len(samples))
	for _, name := range names {
		for i, s := range samples {
			v, ok := s.Metrics[name]
			if !ok {
				return nil, fmt.Errorf("trial %d did not report metric %q", i, name)
			}
			values[i] = v
		}
		summary, err := stats.Summarize(values, percentiles)
		if err != nil {
			return nil, fmt.Errorf("metric %q: %w", name, err)
		}
		out[name] = summary
	}
	return out, nil
}
