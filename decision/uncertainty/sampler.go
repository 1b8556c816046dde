// Package uncertainty propagates parameter uncertainty through the
// calculation pipeline by Monte Carlo sampling and local sensitivity analysis.
package uncertainty

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"
	"gonum.org/v1/gonum/stat/distuv"

	"efuel-lca/decision/params"
	lcaerrors "efuel-lca/pkg/errors"
)

// maxRejections bounds the redraws spent satisfying truncation bounds.
const maxRejections = 1000

// Sampler draws parameter values from declared distributions.
type Sampler struct {
	independent []string
	specs       map[string]params.DistributionSpec
	groups      []*correlatedGroup
}

type correlatedGroup struct {
	names []string
	mu    []float64
	chol  *mat.Cholesky
}

// NewSampler validates u and prepares it for drawing.
func NewSampler(u params.Uncertainty) (*Sampler, error) {
	s := &Sampler{specs: make(map[string]params.DistributionSpec, len(u.Distributions))}

	for name, spec := range u.Distributions {
		if err := checkSpec(name, spec); err != nil {
			return nil, err
		}
		s.specs[name] = spec
	}

	groups, err := groupCorrelations(u, s.specs)
	if err != nil {
		return nil, err
	}
	s.groups = groups

	grouped := make(map[string]bool)
	for _, g := range groups {
		for _, n := range g.names {
			grouped[n] = true
		}
	}
	for name := range s.specs {
		if !grouped[name] {
			s.independent = append(s.independent, name)
		}
	}
	sort.Strings(s.independent)
	return s, nil
}

// Parameters returns the names this sampler draws, sorted.
func (s *Sampler) Parameters() []string {
	out := make([]string, 0, len(s.specs))
	for name := range s.specs {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Draw returns one value per declared parameter. Draws are a deterministic
// function of src.
func (s *Sampler) Draw(src rand.Source) (map[string]float64, error) {
	out := make(map[string]float64, len(s.specs))
	for _, name := range s.independent {
		v, err := drawOne(name, s.specs[name], src)
		if err != nil {
			return nil, err
		}
		out[name] = v
	}
	for _, g := range s.groups {
		if err := s.drawGroup(g, src, out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *Sampler) drawGroup(g *correlatedGroup, src rand.Source, out map[string]float64) error {
	dist := distmv.NewNormalChol(g.mu, g.chol, src)
	x := make([]float64, len(g.names))
	for attempt := 0; attempt < maxRejections; attempt++ {
		dist.Rand(x)
		if s.withinBounds(g.names, x) {
			for i, name := range g.names {
				out[name] = x[i]
			}
			return nil
		}
	}
	return lcaerrors.NewSamplingError(g.names[0], 0, "bounds reject nearly every correlated draw")
}

func (s *Sampler) withinBounds(names []string, x []float64) bool {
	for i, name := range names {
		if !inBounds(s.specs[name], x[i]) {
			return false
		}
	}
	return true
}

func inBounds(spec params.DistributionSpec, v float64) bool {
	if spec.Lower != nil && v < *spec.Lower {
		return false
	}
	if spec.Upper != nil && v > *spec.Upper {
		return false
	}
	return true
}

func drawOne(name string, spec params.DistributionSpec, src rand.Source) (float64, error) {
	if spec.Spread == 0 {
		return spec.Mean, nil
	}

	var dist distuv.Rander
	switch spec.Kind {
	case params.DistNormal:
		dist = distuv.Normal{Mu: spec.Mean, Sigma: spec.Spread, Src: src}
	case params.DistUniform:
		dist = distuv.Uniform{Min: spec.Mean - spec.Spread, Max: spec.Mean + spec.Spread, Src: src}
	case params.DistTriangular:
		dist = distuv.NewTriangle(spec.Mean-spec.Spread, spec.Mean+spec.Spread, spec.Mean, src)
	case params.DistLognormal:
		mu, sigma := lognormalParams(spec.Mean, spec.Spread)
		dist = distuv.LogNormal{Mu: mu, Sigma: sigma, Src: src}
	}

	for attempt := 0; attempt < maxRejections; attempt++ {
		v := dist.Rand()
		if inBounds(spec, v) {
			return v, nil
		}
	}
	return 0, lcaerrors.NewSamplingError(name, spec.Mean, "bounds reject nearly every draw")
}

// lognormalParams converts an arithmetic mean and standard deviation into
// the parameters of the underlying normal.
func lognormalParams(mean, sd float64) (mu, sigma float64) {
	s2 := math.Log(1 + sd*sd/(mean*mean))
	return math.Log(mean) - s2/2, math.Sqrt(s2)
}

func checkSpec(name string, spec params.DistributionSpec) error {
	if !params.Known(name) {
		return lcaerrors.NewSamplingError(name, spec.Mean, "unknown parameter")
	}
	if math.IsNaN(spec.Mean) || math.IsInf(spec.Mean, 0) {
		return lcaerrors.NewSamplingError(name, spec.Mean, "mean must be finite")
	}
	if !(spec.Spread >= 0) || math.IsInf(spec.Spread, 0) {
		return lcaerrors.NewSamplingError(name, spec.Spread, "spread must not be negative")
	}
	switch spec.Kind {
	case params.DistNormal, params.DistUniform, params.DistTriangular:
	case params.DistLognormal:
		if !(spec.Mean > 0) {
			return lcaerrors.NewSamplingError(name, spec.Mean, "lognormal mean must be positive")
		}
	default:
		return lcaerrors.NewSamplingError(name, spec.Mean, fmt.Sprintf("unknown distribution kind %q", spec.Kind))
	}
	if spec.Lower != nil && spec.Upper != nil && *spec.Lower > *spec.Upper {
		return lcaerrors.NewSamplingError(name, *spec.Lower, "lower bound exceeds upper bound")
	}
	if spec.Spread == 0 && !inBounds(spec, spec.Mean) {
		return lcaerrors.NewSamplingError(name, spec.Mean, "fixed value lies outside its bounds")
	}
	return nil
}

// groupCorrelations joins correlated parameters into connected groups and
// builds one covariance matrix per group.
func groupCorrelations(u params.Uncertainty, specs map[string]params.DistributionSpec) ([]*correlatedGroup, error) {
	if len(u.Correlations) == 0 {
		return nil, nil
	}

	parent := make(map[string]string)
	var find func(string) string
	find = func(x string) string {
		if parent[x] != x {
			parent[x] = find(parent[x])
		}
		return parent[x]
	}

	for _, c := range u.Correlations {
		for _, n := range []string{c.A, c.B} {
			spec, ok := specs[n]
			if !ok {
				return nil, lcaerrors.NewSamplingError(n, c.Rho, "correlated parameter has no distribution")
			}
			if spec.Kind != params.DistNormal {
				return nil, lcaerrors.NewSamplingError(n, c.Rho, "only normal parameters can be correlated")
			}
			if spec.Spread == 0 {
				return nil, lcaerrors.NewSamplingError(n, c.Rho, "correlated parameter needs a positive spread")
			}
			if _, seen := parent[n]; !seen {
				parent[n] = n
			}
		}
		if c.A == c.B {
			return nil, lcaerrors.NewSamplingError(c.A, c.Rho, "parameter correlated with itself")
		}
		if !(c.Rho >= -1 && c.Rho <= 1) {
			return nil, lcaerrors.NewSamplingError(c.A, c.Rho, "correlation must lie in [-1, 1]")
		}
		parent[find(c.A)] = find(c.B)
	}

	members := make(map[string][]string)
	for n := range parent {
		root := find(n)
		members[root] = append(members[root], n)
	}

	groups := make([]*correlatedGroup, 0, len(members))
	for _, names := range members {
		sort.Strings(names)
		index := make(map[string]int, len(names))
		g := &correlatedGroup{
			names: names,
			mu:    make([]float64, len(names)),
		}
		cov := mat.NewSymDense(len(names), nil)
		for i, n := range names {
			index[n] = i
			g.mu[i] = specs[n].Mean
			cov.SetSym(i, i, specs[n].Spread*specs[n].Spread)
		}
		for _, c := range u.Correlations {
			i, ok := index[c.A]
			if !ok {
				continue
			}
			j := index[c.B]
			cov.SetSym(i, j, c.Rho*specs[c.A].Spread*specs[c.B].Spread)
		}
		var chol mat.Cholesky
		if ok := chol.Factorize(cov); !ok {
			return nil, lcaerrors.NewSamplingError(names[0], 0, "correlation matrix is not positive definite")
		}
		g.chol = &chol
		groups = append(groups, g)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].names[0] < groups[j].names[0] })
	return groups, nil
}
