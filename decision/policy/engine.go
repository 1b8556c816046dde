// Package policy evaluates regulatory and economic thresholds against an
// integrated result.
package policy

import (
	"fmt"
	"math"
	"time"

	"efuel-lca/decision/integration"
	"efuel-lca/decision/lca"
	lcaerrors "efuel-lca/pkg/errors"
)

// PolicyType defines the type of policy
type PolicyType string

const (
	PolicyTypeMinReduction    PolicyType = "min_reduction"
	PolicyTypeMaxGHGIntensity PolicyType = "max_ghg_intensity"
	PolicyTypeMaxLCOP         PolicyType = "max_lcop"
)

// Severity defines policy violation severity
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Decision is the policy evaluation outcome
type Decision string

const (
	DecisionPass Decision = "pass"
	DecisionWarn Decision = "warn"
	DecisionDeny Decision = "deny"
)

// Policy is one threshold rule.
//
// For min_reduction the threshold is a percentage and Baseline names the
// fossil comparator in g CO2e/MJ; zero means the scenario's own baseline.
// max_ghg_intensity is in g CO2e/MJ and max_lcop in currency per kg.
type Policy struct {
	ID          string     `json:"id" yaml:"id"`
	Name        string     `json:"name" yaml:"name"`
	Description string     `json:"description,omitempty" yaml:"description"`
	Type        PolicyType `json:"type" yaml:"type"`
	Severity    Severity   `json:"severity" yaml:"severity"`
	Threshold   float64    `json:"threshold" yaml:"threshold"`
	Baseline    float64    `json:"baseline,omitempty" yaml:"baseline"`
	Enabled     bool       `json:"enabled" yaml:"enabled"`
}

// Validate rejects policies that cannot be evaluated.
func (p Policy) Validate() error {
	stage := "policy"
	if p.ID == "" {
		return lcaerrors.NewInvalidParameter(stage, "id", 0, "must not be empty")
	}
	switch p.Type {
	case PolicyTypeMinReduction, PolicyTypeMaxGHGIntensity, PolicyTypeMaxLCOP:
	default:
		return lcaerrors.NewInvalidParameter(stage, p.ID, 0, fmt.Sprintf("unknown policy type %q", p.Type))
	}
	switch p.Severity {
	case SeverityError, SeverityWarning:
	default:
		return lcaerrors.NewInvalidParameter(stage, p.ID, 0, fmt.Sprintf("unknown severity %q", p.Severity))
	}
	if math.IsNaN(p.Threshold) || math.IsInf(p.Threshold, 0) {
		return lcaerrors.NewInvalidParameter(stage, p.ID, p.Threshold, "threshold must be finite")
	}
	if !(p.Baseline >= 0) || math.IsInf(p.Baseline, 0) {
		return lcaerrors.NewInvalidParameter(stage, p.ID, p.Baseline, "baseline must be a finite non-negative value")
	}
	return nil
}

// Violation represents a policy violation
type Violation struct {
	PolicyID   string   `json:"policy_id"`
	PolicyName string   `json:"policy_name"`
	Message    string   `json:"message"`
	Severity   Severity `json:"severity"`
	Observed   float64  `json:"observed"`
	Threshold  float64  `json:"threshold"`
}

// EvaluationResult contains the policy evaluation outcome
type EvaluationResult struct {
	Decision    Decision    `json:"decision"`
	Violations  []Violation `json:"violations"`
	PoliciesRan int         `json:"policies_ran"`
	EvaluatedAt time.Time   `json:"evaluated_at"`
}

// Engine holds the policies applied to every evaluation.
type Engine struct {
	policies []Policy
}

// NewEngine creates an engine loaded with the built-in RED II and CORSIA policies.
func NewEngine() *Engine {
	return &Engine{policies: BuiltinPolicies()}
}

// AddPolicy registers a policy for all later evaluations.
func (e *Engine) AddPolicy(p Policy) error {
	if err := p.Validate(); err != nil {
		return err
	}
	e.policies = append(e.policies, p)
	return nil
}

// Policies returns a copy of the registered policies.
func (e *Engine) Policies() []Policy {
	return append([]Policy(nil), e.policies...)
}

// Evaluate runs the registered policies, then extra, against r. Any failed
// error-severity policy denies; a failed warning-severity policy warns.
func (e *Engine) Evaluate(r *integration.IntegratedResult, extra ...Policy) (*EvaluationResult, error) {
	if r == nil || r.Assessment == nil {
		return nil, fmt.Errorf("policy: result carries no assessment")
	}
	for _, p := range extra {
		if err := p.Validate(); err != nil {
			return nil, err
		}
	}

	result := &EvaluationResult{
		Decision:    DecisionPass,
		Violations:  make([]Violation, 0),
		EvaluatedAt: time.Now(),
	}

	all := make([]Policy, 0, len(e.policies)+len(extra))
	all = append(all, e.policies...)
	all = append(all, extra...)

	for _, p := range all {
		if !p.Enabled {
			continue
		}
		result.PoliciesRan++

		v, err := evaluatePolicy(p, r)
		if err != nil {
			return nil, err
		}
		if v == nil {
			continue
		}
		result.Violations = append(result.Violations, *v)
		if p.Severity == SeverityError {
			result.Decision = DecisionDeny
		} else if result.Decision != DecisionDeny {
			result.Decision = DecisionWarn
		}
	}
	return result, nil
}

func evaluatePolicy(p Policy, r *integration.IntegratedResult) (*Violation, error) {
	violation := func(observed float64, msg string) *Violation {
		return &Violation{
			PolicyID:   p.ID,
			PolicyName: p.Name,
			Message:    msg,
			Severity:   p.Severity,
			Observed:   observed,
			Threshold:  p.Threshold,
		}
	}

	switch p.Type {
	case PolicyTypeMinReduction:
		reduction := r.ReductionPct()
		baseline := r.Assessment.Emissions.Baseline
		if p.Baseline > 0 {
			var err error
			baseline = p.Baseline
			reduction, err = lca.ReductionPercent(p.Baseline, r.GHGIntensity())
			if err != nil {
				return nil, err
			}
		}
		if reduction < p.Threshold {
			return violation(reduction, fmt.Sprintf("GHG reduction (%.1f%% vs %.0f g/MJ) below required %.1f%%",
				reduction, baseline, p.Threshold)), nil
		}

	case PolicyTypeMaxGHGIntensity:
		g := r.GHGIntensity()
		if g > p.Threshold {
			return violation(g, fmt.Sprintf("GHG intensity (%.2f g CO2e/MJ) exceeds limit (%.2f)", g, p.Threshold)), nil
		}

	case PolicyTypeMaxLCOP:
		lcop := r.LCOP.InexactFloat64()
		if lcop > p.Threshold {
			return violation(lcop, fmt.Sprintf("Levelized cost ($%.3f/kg) exceeds limit ($%.3f/kg)", lcop, p.Threshold)), nil
		}
	}
	return nil, nil
}

// BuiltinPolicies returns the regulatory reduction thresholds.
func BuiltinPolicies() []Policy {
	return []Policy{
		{
			ID:          "red-ii",
			Name:        "RED II GHG saving",
			Description: "At least 65% saving against the 94 g CO2e/MJ fossil comparator",
			Type:        PolicyTypeMinReduction,
			Severity:    SeverityError,
			Threshold:   lca.ThresholdREDII,
			Baseline:    lca.FossilBaselineREDII,
			Enabled:     true,
		},
		{
			ID:          "corsia",
			Name:        "CORSIA eligibility",
			Description: "At least 10% saving against the 89 g CO2e/MJ jet fuel baseline",
			Type:        PolicyTypeMinReduction,
			Severity:    SeverityError,
			Threshold:   lca.ThresholdCORSIA,
			Baseline:    lca.FossilBaselineCORSIA,
			Enabled:     true,
		},
	}
}
