package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"efuel-lca/decision/carbon"
	"efuel-lca/decision/params"
)

func sourcesCommand() *cli.Command {
	return &cli.Command{
		Name:  "sources",
		Usage: "List electricity sources and their carbon intensity",
		Action: func(c *cli.Context) error {
			s, err := setup(c)
			if err != nil {
				return err
			}
			store, err := s.cfg.Store()
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(c.App.Writer, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "SOURCE\tkg CO2e/kWh")
			for _, name := range carbon.ListSources(store) {
				v, err := store.Intensity(name)
				if err != nil {
					return err
				}
				fmt.Fprintf(tw, "%s\t%.3f\n", name, v)
			}
			return tw.Flush()
		},
	}
}

func parametersCommand() *cli.Command {
	return &cli.Command{
		Name:  "parameters",
		Usage: "List addressable parameters with their scenario values",
		Flags: scenarioFlags(),
		Action: func(c *cli.Context) error {
			s, err := setup(c)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(c.App.Writer, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "PARAMETER\tVALUE")
			for _, name := range params.Names() {
				v, err := carbon.Lookup(s.store, s.set, name)
				if err != nil {
					return err
				}
				fmt.Fprintf(tw, "%s\t%g\n", name, v)
			}
			return tw.Flush()
		},
	}
}
