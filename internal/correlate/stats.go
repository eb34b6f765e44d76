package correlate

import (
	"errors"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// ErrZeroVariance marks a series with no spread; correlation against it is
// structurally undefined.
var ErrZeroVariance = errors.New("zero variance in sample")

// Pearson returns the linear correlation coefficient and its two-tailed
// significance. len(x) == len(y) >= 2 is the caller's contract.
func Pearson(x, y []float64) (r, p float64, err error) {
	if stat.Variance(x, nil) == 0 || stat.Variance(y, nil) == 0 {
		return 0, 0, ErrZeroVariance
	}
	r = stat.Correlation(x, y, nil)
	p = twoTailedP(r, len(x))
	return r, p, nil
}

// Spearman returns the rank correlation coefficient and its two-tailed
// significance, using average ranks for ties.
func Spearman(x, y []float64) (r, p float64, err error) {
	return Pearson(ranks(x), ranks(y))
}

// twoTailedP converts r into a p-value via the t distribution with n-2
// degrees of freedom.
func twoTailedP(r float64, n int) float64 {
	if n <= 2 {
		// two points always correlate perfectly; nothing can be rejected
		return 1
	}
	if math.Abs(r) >= 1 {
		return 0
	}
	df := float64(n - 2)
	t := r * math.Sqrt(df/(1-r*r))
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	p := 2 * dist.CDF(-math.Abs(t))
	if p > 1 {
		p = 1
	}
	return p
}

// ranks maps values to their 1-based ranks, ties getting the average of the
// ranks they span.
func ranks(v []float64) []float64 {
	n := len(v)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return v[idx[a]] < v[idx[b]] })

	out := make([]float64, n)
	for i := 0; i < n; {
		j := i
		for j+1 < n && v[idx[j+1]] == v[idx[i]] {
			j++
		}
		// positions i..j hold equal values
		avg := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			out[idx[k]] = avg
		}
		i = j + 1
	}
	return out
}
