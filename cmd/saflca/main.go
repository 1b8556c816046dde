// saflca - life-cycle and cost assessment for power-to-liquid jet fuel.
//
// Usage:
//
//	saflca calculate --config scenario.yaml [options]
//	saflca sweep --source wind --source coal
//	saflca montecarlo --trials 5000 --seed 42
//	saflca serve --addr :8080
package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"efuel-lca/decision/carbon"
	"efuel-lca/decision/integration"
	"efuel-lca/decision/params"
	"efuel-lca/internal/config"
	"efuel-lca/pkg/platform"
	"efuel-lca/pkg/units"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// errDenied makes the process exit with status 2 when a policy denies.
var errDenied = errors.New("policy decision: deny")

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if errors.Is(err, errDenied) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "saflca",
		Usage:   "Carbon intensity and levelized cost of electrofuel jet fuel",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),

		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Scenario YAML merged over the reference parameters",
				EnvVars: []string{"SAFLCA_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{config.EnvLogLevel},
			},
			&cli.BoolFlag{
				Name:    "log-pretty",
				Usage:   "Human-readable console logs",
				EnvVars: []string{config.EnvLogPretty},
			},
		},

		Commands: []*cli.Command{
			calculateCommand(),
			sweepCommand(),
			monteCarloCommand(),
			sensitivityCommand(),
			sourcesCommand(),
			parametersCommand(),
			serveCommand(),
		},
	}
}

// =============================================================================
// SHARED FLAGS
// =============================================================================

func scenarioFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "source",
			Aliases: []string{"s"},
			Usage:   "Electricity source (see 'saflca sources')",
		},
		&cli.Float64Flag{
			Name:  "carbon-intensity",
			Usage: "Electricity carbon intensity override (kg CO2e/kWh)",
		},
		&cli.StringSliceFlag{
			Name:  "set",
			Usage: "Override a parameter, e.g. --set capture.capture_efficiency=0.85",
		},
		&cli.StringFlag{
			Name:    "functional-unit",
			Aliases: []string{"u"},
			Usage:   "Functional unit (MJ, kg, L)",
		},
	}
}

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Value:   "table",
		Usage:   "Output format (table, json, markdown)",
	}
}

// =============================================================================
// SETUP
// =============================================================================

type session struct {
	cfg    *config.Config
	set    *params.Set
	store  carbon.Store
	engine *integration.Engine
	logger zerolog.Logger
}

// setup loads the scenario, applies command-line adjustments and builds the engine.
func setup(c *cli.Context) (*session, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	if c.IsSet("log-level") {
		cfg.Log.Level = c.String("log-level")
	}
	if c.IsSet("log-pretty") {
		cfg.Log.Pretty = c.Bool("log-pretty")
	}
	logger := platform.InitLogger(cfg.Log.Level, cfg.Log.Pretty)

	set, err := applyScenarioFlags(c, cfg.Parameters)
	if err != nil {
		return nil, err
	}
	store, err := cfg.Store()
	if err != nil {
		return nil, err
	}

	return &session{
		cfg:    cfg,
		set:    set,
		store:  store,
		engine: integration.NewEngine(store, integration.WithLogger(logger), integration.WithWorkers(cfg.Workers)),
		logger: logger,
	}, nil
}

func applyScenarioFlags(c *cli.Context, set *params.Set) (*params.Set, error) {
	if c.IsSet("source") {
		set = set.WithElectricitySource(c.String("source"))
	}
	if c.IsSet("carbon-intensity") {
		set = set.WithCarbonIntensity(c.Float64("carbon-intensity"))
	}
	if c.IsSet("functional-unit") {
		set = set.Clone()
		set.FunctionalUnit = units.FunctionalUnit(c.String("functional-unit"))
	}
	if overrides := c.StringSlice("set"); len(overrides) > 0 {
		values, err := parseOverrides(overrides)
		if err != nil {
			return nil, err
		}
		if set, err = set.WithValues(values); err != nil {
			return nil, err
		}
	}
	return set, nil
}

// parseOverrides reads name=value pairs.
func parseOverrides(pairs []string) (map[string]float64, error) {
	out := make(map[string]float64, len(pairs))
	for _, pair := range pairs {
		name, raw, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("override %q: expected name=value", pair)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("override %q: %w", pair, err)
		}
		out[strings.TrimSpace(name)] = v
	}
	return out, nil
}
