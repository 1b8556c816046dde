package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"efuel-lca/decision/integration"
	"efuel-lca/decision/policy"
)

// =============================================================================
// CALCULATE COMMAND
// =============================================================================

func calculateCommand() *cli.Command {
	flags := append(scenarioFlags(),
		formatFlag(),
		&cli.Float64Flag{
			Name:  "max-lcop",
			Usage: "Deny when the net levelized cost exceeds this value (currency/kg)",
		},
		&cli.Float64Flag{
			Name:  "max-ghg",
			Usage: "Deny when the GHG intensity exceeds this value (g CO2e/MJ)",
		},
		&cli.BoolFlag{
			Name:  "skip-policy",
			Usage: "Skip policy evaluation",
		},
	)
	return &cli.Command{
		Name:   "calculate",
		Usage:  "Run the full chain for one scenario",
		Flags:  flags,
		Action: runCalculate,
	}
}

func runCalculate(c *cli.Context) error {
	s, err := setup(c)
	if err != nil {
		return err
	}

	result, err := s.engine.Run(c.Context, s.set)
	if err != nil {
		return fmt.Errorf("calculation failed: %w", err)
	}

	var evaluation *policy.EvaluationResult
	if !c.Bool("skip-policy") {
		engine, err := s.cfg.PolicyEngine()
		if err != nil {
			return err
		}
		var extra []policy.Policy
		if c.IsSet("max-lcop") {
			extra = append(extra, policy.Policy{
				ID:        "cli-max-lcop",
				Name:      "Levelized cost limit",
				Type:      policy.PolicyTypeMaxLCOP,
				Severity:  policy.SeverityError,
				Threshold: c.Float64("max-lcop"),
				Enabled:   true,
			})
		}
		if c.IsSet("max-ghg") {
			extra = append(extra, policy.Policy{
				ID:        "cli-max-ghg",
				Name:      "GHG intensity limit",
				Type:      policy.PolicyTypeMaxGHGIntensity,
				Severity:  policy.SeverityError,
				Threshold: c.Float64("max-ghg"),
				Enabled:   true,
			})
		}
		if evaluation, err = engine.Evaluate(result, extra...); err != nil {
			return fmt.Errorf("policy evaluation failed: %w", err)
		}
	}

	w := c.App.Writer
	switch c.String("format") {
	case "json":
		err = writeJSON(w, calculateOutput{Result: result, Metrics: result.Metrics(), Policy: evaluation})
	case "markdown":
		err = writeCalculateMarkdown(w, result, evaluation)
	default:
		err = writeCalculateTable(w, result, evaluation)
	}
	if err != nil {
		return err
	}

	if evaluation != nil && evaluation.Decision == policy.DecisionDeny {
		return errDenied
	}
	return nil
}

// =============================================================================
// OUTPUT FORMATTERS
// =============================================================================

type calculateOutput struct {
	Result  *integration.IntegratedResult `json:"result"`
	Metrics map[string]float64            `json:"metrics"`
	Policy  *policy.EvaluationResult      `json:"policy,omitempty"`
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeCalculateTable(w io.Writer, r *integration.IntegratedResult, evaluation *policy.EvaluationResult) error {
	em := r.Assessment.Emissions
	fu := r.Assessment.FunctionalUnit

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Scenario:\t%s\n", r.Scenario)
	fmt.Fprintf(tw, "Electricity:\t%s (%.3f kg CO2e/kWh)\n", r.ElectricitySource, r.CarbonIntensity)
	fmt.Fprintf(tw, "GHG intensity:\t%.2f g CO2e/MJ\n", r.GHGIntensity())
	fmt.Fprintf(tw, "Plant-coupled GHG:\t%.2f g CO2e/MJ\n", r.CoupledGHGIntensity())
	fmt.Fprintf(tw, "Reduction:\t%.1f%% vs %.0f g CO2e/MJ\n", r.ReductionPct(), em.Baseline)
	fmt.Fprintf(tw, "RED II / CORSIA:\t%s / %s\n", yesNo(em.MeetsREDII), yesNo(em.MeetsCORSIA))
	fmt.Fprintf(tw, "LCOP:\t$%s/kg (gross $%s/kg, $%s/gal)\n",
		r.LCOP.StringFixed(3), r.LCOPGross.StringFixed(3), r.LCOPPerGallon.StringFixed(2))
	fmt.Fprintf(tw, "CAPEX:\t$%s\n", r.Capex.StringFixed(0))
	fmt.Fprintf(tw, "Net OPEX:\t$%s/yr\n", r.NetOpex.StringFixed(0))
	fmt.Fprintln(tw)

	fmt.Fprintf(tw, "STAGE\tkg CO2e/%s\tSHARE\n", fu)
	for _, sv := range em.Stages {
		fmt.Fprintf(tw, "%s\t%.4f\t%.1f%%\n", sv.Stage, sv.Value, em.Share(sv.Stage))
	}
	fmt.Fprintf(tw, "total\t%.4f\t\n", em.Total)
	fmt.Fprintln(tw)

	fmt.Fprintf(tw, "PROCESS\tPOWER (MW)\tCAPEX\tOPEX/yr\tLCOP ($/kg)\n")
	for _, p := range r.Processes {
		if p.Economics == nil {
			continue
		}
		fmt.Fprintf(tw, "%s\t%.1f\t$%s\t$%s\t%s\n", p.Stage, p.PowerKW/1000,
			p.Economics.Capex.Total.StringFixed(0), p.Economics.Opex.Total.StringFixed(0), p.Economics.LCOP.StringFixed(3))
	}

	if evaluation != nil {
		fmt.Fprintln(tw)
		fmt.Fprintf(tw, "Policy:\t%s\n", decisionLabel(evaluation.Decision))
		for _, v := range evaluation.Violations {
			fmt.Fprintf(tw, "  [%s]\t%s\n", v.Severity, v.Message)
		}
	}
	return tw.Flush()
}

func writeCalculateMarkdown(w io.Writer, r *integration.IntegratedResult, evaluation *policy.EvaluationResult) error {
	em := r.Assessment.Emissions
	fmt.Fprintf(w, "## Assessment: %s\n\n", r.Scenario)
	fmt.Fprintln(w, "| Metric | Value |")
	fmt.Fprintln(w, "|--------|-------|")
	fmt.Fprintf(w, "| **Electricity** | %s (%.3f kg CO2e/kWh) |\n", r.ElectricitySource, r.CarbonIntensity)
	fmt.Fprintf(w, "| **GHG intensity** | %.2f g CO2e/MJ |\n", r.GHGIntensity())
	fmt.Fprintf(w, "| **Plant-coupled GHG** | %.2f g CO2e/MJ |\n", r.CoupledGHGIntensity())
	fmt.Fprintf(w, "| **Reduction** | %.1f%% |\n", r.ReductionPct())
	fmt.Fprintf(w, "| **LCOP** | $%s/kg |\n", r.LCOP.StringFixed(3))
	if evaluation != nil {
		fmt.Fprintf(w, "| **Policy** | %s |\n", evaluation.Decision)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "### Emissions by stage")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "| Stage | kg CO2e/%s | Share |\n", r.Assessment.FunctionalUnit)
	fmt.Fprintln(w, "|-------|-----------|-------|")
	for _, sv := range em.Stages {
		fmt.Fprintf(w, "| %s | %.4f | %.1f%% |\n", sv.Stage, sv.Value, em.Share(sv.Stage))
	}

	if evaluation != nil && len(evaluation.Violations) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "### Policy violations")
		fmt.Fprintln(w)
		for _, v := range evaluation.Violations {
			fmt.Fprintf(w, "- **%s**: %s\n", v.PolicyName, v.Message)
		}
	}
	return nil
}

func decisionLabel(d policy.Decision) string {
	switch d {
	case policy.DecisionPass:
		return "PASS"
	case policy.DecisionWarn:
		return "WARN"
	default:
		return "DENY"
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
