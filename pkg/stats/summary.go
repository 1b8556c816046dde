// Package stats provides summary statistics over sampled metric values.
package stats

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// DefaultPercentiles are reported when none are requested.
var DefaultPercentiles = []float64{5, 50, 95}

// Percentile is one requested percentile (0-100) and its value.
type Percentile struct {
	P     float64 `json:"p"`
	Value float64 `json:"value"`
}

// Summary describes a sample of one scalar metric.
type Summary struct {
	Count       int          `json:"count"`
	Mean        float64      `json:"mean"`
	StdDev      float64      `json:"std_dev"`
	Min         float64      `json:"min"`
	Max         float64      `json:"max"`
	Percentiles []Percentile `json:"percentiles"`
}

// At returns the value recorded for percentile p.
func (s Summary) At(p float64) (float64, bool) {
	for _, pc := range s.Percentiles {
		if pc.P == p {
			return pc.Value, true
		}
	}
	return 0, false
}

// Summarize computes mean, sample standard deviation, range and percentiles.
// The input slice is not modified.
func Summarize(values []float64, percentiles []float64) (Summary, error) {
	if len(values) == 0 {
		return Summary{}, fmt.Errorf("no values to summarize")
	}
	if len(percentiles) == 0 {
		percentiles = DefaultPercentiles
	}
	for _, p := range percentiles {
		if p < 0 || p > 100 || math.IsNaN(p) {
			return Summary{}, fmt.Errorf("percentile %g out of range [0, 100]", p)
		}
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	s := Summary{
		Count: len(sorted),
		Mean:  stat.Mean(sorted, nil),
		Min:   sorted[0],
		Max:   sorted[len(sorted)-1],
	}
	if len(sorted) > 1 {
		s.StdDev = stat.StdDev(sorted, nil)
	}

	s.Percentiles = make([]Percentile, 0, len(percentiles))
	for _, p := range percentiles {
		s.Percentiles = append(s.Percentiles, Percentile{
			P:     p,
			Value: stat.Quantile(p/100, stat.LinInterp, sorted, nil),
		})
	}
	return s, nil
}

// RelativeError returns |observed - expected| / |expected|, or |observed| when expected is zero.
func RelativeError(observed, expected float64) float64 {
	if expected == 0 {
		return math.Abs(observed)
	}
	return math.Abs(observed-expected) / math.Abs(expected)
}
