package policy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"efuel-lca/decision/integration"
	"efuel-lca/decision/params"
	lcaerrors "efuel-lca/pkg/errors"
)

func run(t *testing.T, set *params.Set) *integration.IntegratedResult {
	t.Helper()
	r, err := integration.NewEngine(nil).Run(context.Background(), set)
	require.NoError(t, err)
	return r
}

func TestBuiltinsPassRenewableScenario(t *testing.T) {
	res, err := NewEngine().Evaluate(run(t, params.Default()))
	require.NoError(t, err)

	assert.Equal(t, DecisionPass, res.Decision)
	assert.Empty(t, res.Violations)
	assert.Equal(t, 2, res.PoliciesRan)
}

func TestBuiltinsDenyCoalGrid(t *testing.T) {
	res, err := NewEngine().Evaluate(run(t, params.Default().WithElectricitySource("coal")))
	require.NoError(t, err)

	assert.Equal(t, DecisionDeny, res.Decision)
	require.NotEmpty(t, res.Violations)
	assert.Equal(t, "red-ii", res.Violations[0].PolicyID)
	assert.Less(t, res.Violations[0].Observed, 65.0)
}

func TestEvaluateThresholds(t *testing.T) {
	r := run(t, params.Default())

	tests := []struct {
		name     string
		policy   Policy
		decision Decision
		observed float64
	}{
		{
			name:     "lcop over limit warns",
			policy:   Policy{ID: "lcop", Type: PolicyTypeMaxLCOP, Severity: SeverityWarning, Threshold: 3, Enabled: true},
			decision: DecisionWarn,
			observed: 4.1966,
		},
		{
			name:     "lcop under limit passes",
			policy:   Policy{ID: "lcop", Type: PolicyTypeMaxLCOP, Severity: SeverityError, Threshold: 5, Enabled: true},
			decision: DecisionPass,
		},
		{
			name:     "intensity over limit denies",
			policy:   Policy{ID: "ghg", Type: PolicyTypeMaxGHGIntensity, Severity: SeverityError, Threshold: 20, Enabled: true},
			decision: DecisionDeny,
			observed: 29.2076,
		},
		{
			name:     "scenario baseline is used when none is given",
			policy:   Policy{ID: "strict", Type: PolicyTypeMinReduction, Severity: SeverityWarning, Threshold: 68, Enabled: true},
			decision: DecisionWarn,
			observed: 67.18,
		},
		{
			name:     "explicit baseline",
			policy:   Policy{ID: "strict-94", Type: PolicyTypeMinReduction, Severity: SeverityWarning, Threshold: 68, Baseline: 94, Enabled: true},
			decision: DecisionPass,
		},
		{
			name:     "disabled policy is skipped",
			policy:   Policy{ID: "off", Type: PolicyTypeMaxLCOP, Severity: SeverityError, Threshold: 0, Enabled: false},
			decision: DecisionPass,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &Engine{}
			res, err := e.Evaluate(r, tt.policy)
			require.NoError(t, err)
			assert.Equal(t, tt.decision, res.Decision)
			if tt.decision == DecisionPass {
				assert.Empty(t, res.Violations)
				return
			}
			require.Len(t, res.Violations, 1)
			assert.Equal(t, tt.policy.ID, res.Violations[0].PolicyID)
			assert.InDelta(t, tt.observed, res.Violations[0].Observed, 1e-2)
		})
	}
}

func TestDenyOutranksWarn(t *testing.T) {
	e := &Engine{}
	require.NoError(t, e.AddPolicy(Policy{ID: "ghg", Type: PolicyTypeMaxGHGIntensity, Severity: SeverityError, Threshold: 1, Enabled: true}))

	res, err := e.Evaluate(run(t, params.Default()),
		Policy{ID: "lcop", Type: PolicyTypeMaxLCOP, Severity: SeverityWarning, Threshold: 1, Enabled: true})
	require.NoError(t, err)
	assert.Equal(t, DecisionDeny, res.Decision)
	assert.Len(t, res.Violations, 2)
	assert.Equal(t, 2, res.PoliciesRan)
}

func TestInvalidPolicies(t *testing.T) {
	bad := []Policy{
		{Type: PolicyTypeMaxLCOP, Severity: SeverityError},
		{ID: "x", Type: "carbon_budget", Severity: SeverityError},
		{ID: "x", Type: PolicyTypeMaxLCOP, Severity: "info"},
		{ID: "x", Type: PolicyTypeMinReduction, Severity: SeverityError, Baseline: -1},
	}
	e := NewEngine()
	for _, p := range bad {
		assert.ErrorIs(t, e.AddPolicy(p), lcaerrors.ErrInvalidParameter)
	}
	assert.Len(t, e.Policies(), 2)

	_, err := e.Evaluate(nil)
	assert.Error(t, err)
}
