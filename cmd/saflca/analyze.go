package main

import (
	"fmt"
	"io"
	"slices"
	"sort"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"efuel-lca/decision/carbon"
	"efuel-lca/decision/integration"
	"efuel-lca/decision/params"
	"efuel-lca/decision/uncertainty"
)

// =============================================================================
// SWEEP COMMAND
// =============================================================================

func sweepCommand() *cli.Command {
	flags := append(scenarioFlags(),
		formatFlag(),
		&cli.StringSliceFlag{
			Name:  "compare",
			Usage: "Electricity sources to compare (default: the reference comparison set)",
		},
	)
	return &cli.Command{
		Name:  "sweep",
		Usage: "Compare electricity sources for one scenario",
		Flags: flags,
		Action: func(c *cli.Context) error {
			s, err := setup(c)
			if err != nil {
				return err
			}
			points, err := s.engine.SweepElectricitySources(c.Context, s.set, c.StringSlice("compare"))
			if err != nil {
				return fmt.Errorf("sweep failed: %w", err)
			}
			if c.String("format") == "json" {
				return writeJSON(c.App.Writer, points)
			}
			return writeSweepTable(c.App.Writer, points)
		},
	}
}

func writeSweepTable(w io.Writer, points []integration.SweepPoint) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SOURCE\tkg CO2e/kWh\tg CO2e/MJ\tCOUPLED g/MJ\tREDUCTION\tELECTROLYSIS SHARE\tLCOP ($/kg)\tRED II")
	for _, p := range points {
		fmt.Fprintf(tw, "%s\t%.3f\t%.2f\t%.2f\t%.1f%%\t%.1f%%\t%s\t%s\n",
			p.Source, p.CarbonIntensity, p.GHGIntensity, p.CoupledGHGIntensity, p.ReductionPct, p.ElectrolysisSharePct,
			p.LCOP.StringFixed(3), yesNo(p.MeetsREDII))
	}
	return tw.Flush()
}

// =============================================================================
// MONTE CARLO COMMAND
// =============================================================================

func monteCarloCommand() *cli.Command {
	flags := append(scenarioFlags(),
		formatFlag(),
		&cli.IntFlag{
			Name:    "trials",
			Aliases: []string{"n"},
			Value:   1000,
			Usage:   "Number of trials",
		},
		&cli.Uint64Flag{
			Name:  "seed",
			Value: 42,
			Usage: "Random seed; equal seeds reproduce equal results",
		},
		&cli.Float64SliceFlag{
			Name:  "percentile",
			Usage: "Percentiles to report (default 5, 50, 95)",
		},
		&cli.BoolFlag{
			Name:  "keep-samples",
			Usage: "Include every trial in JSON output",
		},
	)
	return &cli.Command{
		Name:  "montecarlo",
		Usage: "Propagate the scenario's parameter distributions",
		Flags: flags,
		Action: func(c *cli.Context) error {
			s, err := setup(c)
			if err != nil {
				return err
			}
			mc := uncertainty.MonteCarlo{
				Trials:      c.Int("trials"),
				Seed:        c.Uint64("seed"),
				Workers:     s.cfg.Workers,
				Percentiles: c.Float64Slice("percentile"),
				KeepSamples: c.Bool("keep-samples"),
				Logger:      &s.logger,
			}
			result, err := mc.Run(c.Context, s.set, s.engine.Evaluate)
			if err != nil {
				return fmt.Errorf("monte carlo failed: %w", err)
			}
			if c.String("format") == "json" {
				return writeJSON(c.App.Writer, result)
			}
			return writeDistributionTable(c.App.Writer, result)
		},
	}
}

func writeDistributionTable(w io.Writer, r *uncertainty.DistributionResult) error {
	names := make([]string, 0, len(r.Metrics))
	for name := range r.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Trials:\t%d (seed %d)\n", r.Trials, r.Seed)
	fmt.Fprintf(tw, "Sampled:\t%v\n\n", r.Parameters)

	header := "METRIC\tMEAN\tSTD DEV"
	if len(names) > 0 {
		for _, p := range r.Metrics[names[0]].Percentiles {
			header += fmt.Sprintf("\tP%g", p.P)
		}
	}
	fmt.Fprintln(tw, header)
	for _, name := range names {
		s := r.Metrics[name]
		line := fmt.Sprintf("%s\t%.4g\t%.4g", name, s.Mean, s.StdDev)
		for _, p := range s.Percentiles {
			line += fmt.Sprintf("\t%.4g", p.Value)
		}
		fmt.Fprintln(tw, line)
	}
	return tw.Flush()
}

// =============================================================================
// SENSITIVITY COMMAND
// =============================================================================

func sensitivityCommand() *cli.Command {
	flags := append(scenarioFlags(),
		formatFlag(),
		&cli.StringSliceFlag{
			Name:  "param",
			Usage: "Parameter to perturb (default: the standard set)",
		},
		&cli.StringSliceFlag{
			Name:  "metric",
			Usage: "Metric to report (default: all)",
		},
		&cli.Float64Flag{
			Name:  "delta",
			Value: uncertainty.DefaultDelta,
			Usage: "Relative perturbation in each direction",
		},
		&cli.IntFlag{
			Name:  "top",
			Usage: "Show only the N highest-leverage records",
		},
	)
	return &cli.Command{
		Name:  "sensitivity",
		Usage: "Rank parameters by their leverage on the results",
		Flags: flags,
		Action: func(c *cli.Context) error {
			s, err := setup(c)
			if err != nil {
				return err
			}
			set := s.set
			if slices.Contains(c.StringSlice("param"), params.CarbonIntensityParam) {
				if set, err = carbon.Pin(s.store, set); err != nil {
					return err
				}
			}
			sa := uncertainty.Sensitivity{Delta: c.Float64("delta"), Workers: s.cfg.Workers, Logger: &s.logger}
			records, err := sa.Analyze(c.Context, set, c.StringSlice("param"), c.StringSlice("metric"), s.engine.Evaluate)
			if err != nil {
				return fmt.Errorf("sensitivity failed: %w", err)
			}
			ranked := uncertainty.RankByLeverage(records)
			if n := c.Int("top"); n > 0 && n < len(ranked) {
				ranked = ranked[:n]
			}
			if c.String("format") == "json" {
				return writeJSON(c.App.Writer, ranked)
			}
			return writeSensitivityTable(c.App.Writer, ranked)
		},
	}
}

func writeSensitivityTable(w io.Writer, records []uncertainty.Record) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PARAMETER\tMETRIC\tBASE\tLOW\tHIGH\tELASTICITY")
	for _, r := range records {
		elasticity := fmt.Sprintf("%+.3f", r.Elasticity)
		if r.Undefined {
			elasticity = "n/a"
		}
		fmt.Fprintf(tw, "%s\t%s\t%.4g\t%.4g\t%.4g\t%s\n",
			r.Parameter, r.Metric, r.BaseMetric, r.LowMetric, r.HighMetric, elasticity)
	}
	return tw.Flush()
}
