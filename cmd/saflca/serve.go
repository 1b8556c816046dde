package main

import (
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/urfave/cli/v2"

	"efuel-lca/api"
)

// =============================================================================
// SERVE COMMAND (API SERVER)
// =============================================================================

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the HTTP API server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "addr",
				Usage:   "Listen address (default from config, :8080)",
				EnvVars: []string{"SAFLCA_ADDR"},
			},
			&cli.StringFlag{
				Name:    "cors-origins",
				Value:   "*",
				Usage:   "Comma-separated list of allowed CORS origins",
				EnvVars: []string{"SAFLCA_CORS_ORIGINS"},
			},
			&cli.IntFlag{
				Name:    "max-trials",
				Value:   100000,
				Usage:   "Largest Monte Carlo run a request may ask for",
				EnvVars: []string{"SAFLCA_MAX_TRIALS"},
			},
		},
		Action: runServe,
	}
}

func runServe(c *cli.Context) error {
	s, err := setup(c)
	if err != nil {
		return err
	}
	store, err := s.cfg.Store()
	if err != nil {
		return err
	}
	policies, err := s.cfg.PolicyEngine()
	if err != nil {
		return err
	}

	corsOrigins := strings.Split(c.String("cors-origins"), ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}

	cfg := api.DefaultConfig()
	cfg.Addr = s.cfg.Server.Addr
	if c.IsSet("addr") {
		cfg.Addr = c.String("addr")
	}
	cfg.APIKey = s.cfg.Server.APIKey
	cfg.CORSOrigins = corsOrigins
	cfg.MaxTrials = c.Int("max-trials")
	cfg.Workers = s.cfg.Workers

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return api.NewServer(s.set, store, policies, cfg, s.logger).ListenAndServe(ctx)
}
