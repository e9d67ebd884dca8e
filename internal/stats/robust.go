// Package stats implements robust mean estimation for repeated latency
// samples. Outliers are detected with an iterative Grubbs' test and removed
// one at a time until no statistically significant outlier remains.
package stats

import (
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// minGrubbsSamples is the smallest sample set Grubbs' test is defined for.
const minGrubbsSamples = 3

// CorrectedMean returns the arithmetic mean of samples after iteratively
// removing statistically significant outliers. significance is the pruning
// threshold (typically 0.95); higher values prune more aggressively.
//
// Each pruned value is passed to onPrune (may be nil) before removal. The
// input slice is never modified.
//
// The second return value is false when no result can be produced: empty
// input, or a significance level for which the underlying t-distribution
// quantile is undefined. Degenerate inputs (all samples identical) are not
// an error; they simply leave nothing to prune.
func CorrectedMean(samples []float64, significance float64, onPrune func(float64)) (float64, bool) {
	cur := append([]float64(nil), samples...)

	for len(cur) >= minGrubbsSamples {
		mean := stat.Mean(cur, nil)
		sd := stat.PopStdDev(cur, nil)
		if sd == 0 {
			// All remaining samples identical; nothing to prune.
			break
		}

		idx := 0
		maxDev := math.Abs(cur[0] - mean)
		for i, v := range cur[1:] {
			if dev := math.Abs(v - mean); dev > maxDev {
				maxDev = dev
				idx = i + 1
			}
		}

		threshold, ok := grubbsThreshold(len(cur), significance)
		if !ok {
			return 0, false
		}
		if maxDev/sd <= threshold {
			break
		}

		if onPrune != nil {
			onPrune(cur[idx])
		}
		cur = append(cur[:idx:idx], cur[idx+1:]...)
	}

	if len(cur) == 0 {
		return 0, false
	}
	return stat.Mean(cur, nil), true
}

// grubbsThreshold computes the two-sided Grubbs critical value for a sample
// of size n at the given significance level. Reports false when the
// t-distribution quantile is undefined for the inputs.
func grubbsThreshold(n int, significance float64) (float64, bool) {
	p := (1 - significance) / (2 * float64(n))
	if p <= 0 || p >= 1 {
		return 0, false
	}
	dof := float64(n - 2)
	t := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: dof}.Quantile(p)
	t2 := t * t
	nf := float64(n)
	return ((nf - 1) / math.Sqrt(nf)) * math.Sqrt(t2/(dof+t2)), true
}
