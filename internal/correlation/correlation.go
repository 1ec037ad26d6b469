// Package correlation computes pairwise Pearson correlation matrices over
// the numeric columns of a derived table.
package correlation

import (
	"fmt"
	"math"
	"sort"

	"github.com/KaramelBytes/shortform-signals/internal/metrics"
)

// Status qualifies a matrix cell.
type Status string

const (
	StatusOK           Status = "ok"
	StatusInsufficient Status = "insufficient_data"
	StatusZeroVariance Status = "zero_variance"
)

// Cell is one coefficient. R is defined only when Status is ok; N is the
// number of rows where both metrics were defined.
type Cell struct {
	R      metrics.Value `json:"r"`
	N      int           `json:"n"`
	Status Status        `json:"status"`
}

// Options selects the metrics and the minimum pair count.
type Options struct {
	Metrics    []string
	MinSamples int
}

func DefaultOptions() Options {
	return Options{Metrics: metrics.DefaultCorrelationMetrics(), MinSamples: 2}
}

// Matrix is a symmetric correlation matrix; Cells[i][j] correlates
// Metrics[i] with Metrics[j].
type Matrix struct {
	Metrics    []string `json:"metrics"`
	Cells      [][]Cell `json:"cells"`
	MinSamples int      `json:"min_samples"`
}

// Compute correlates every pair of metrics with pairwise deletion: a row
// missing one metric still contributes to pairs not involving it.
func Compute(t *metrics.Table, opt Options) (*Matrix, error) {
	if t == nil {
		return nil, fmt.Errorf("correlate: nil table")
	}
	if opt.MinSamples < 2 {
		return nil, metrics.Configf("min samples", "must be at least 2, got %d", opt.MinSamples)
	}
	if len(opt.Metrics) < 2 {
		return nil, metrics.Configf("metrics", "at least two metrics are required, got %d", len(opt.Metrics))
	}
	ms, err := metrics.LookupAll(opt.Metrics)
	if err != nil {
		return nil, err
	}
	cols := make([][]metrics.Value, len(ms))
	names := make([]string, len(ms))
	for i, m := range ms {
		names[i] = m.Name
		cols[i], err = t.Column(m.Name)
		if err != nil {
			return nil, err
		}
	}
	n := len(ms)
	cells := make([][]Cell, n)
	for i := range cells {
		cells[i] = make([]Cell, n)
	}
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			c := Pearson(cols[i], cols[j], opt.MinSamples)
			if i == j && c.Status == StatusOK {
				c.R = metrics.Of(1)
			}
			cells[i][j] = c
			cells[j][i] = c
		}
	}
	return &Matrix{Metrics: names, Cells: cells, MinSamples: opt.MinSamples}, nil
}

// Pearson correlates xs and ys over the indexes where both are defined.
func Pearson(xs, ys []metrics.Value, minSamples int) Cell {
	var px, py []float64
	for i := 0; i < len(xs) && i < len(ys); i++ {
		x, okx := xs[i].Get()
		y, oky := ys[i].Get()
		if okx && oky {
			px = append(px, x)
			py = append(py, y)
		}
	}
	c := Cell{N: len(px)}
	if c.N < minSamples || c.N < 2 {
		c.Status = StatusInsufficient
		return c
	}
	if metrics.Constant(px) || metrics.Constant(py) {
		c.Status = StatusZeroVariance
		return c
	}
	mx, my := mean(px), mean(py)
	var sxx, syy, sxy float64
	for i := range px {
		dx, dy := px[i]-mx, py[i]-my
		sxx += dx * dx
		syy += dy * dy
		sxy += dx * dy
	}
	r := sxy / math.Sqrt(sxx*syy)
	if r > 1 {
		r = 1
	} else if r < -1 {
		r = -1
	}
	c.R = metrics.Of(r)
	if !c.R.Defined() {
		c.Status = StatusZeroVariance
		return c
	}
	c.Status = StatusOK
	return c
}

func mean(xs []float64) float64 {
	s := 0.0
	for _, x := range xs {
		s += x
	}
	return s / float64(len(xs))
}

func (m *Matrix) index(name string) int {
	for i, n := range m.Metrics {
		if n == name {
			return i
		}
	}
	return -1
}

// Get returns the cell for metrics a and b.
func (m *Matrix) Get(a, b string) (Cell, bool) {
	i, j := m.index(a), m.index(b)
	if i < 0 || j < 0 {
		return Cell{}, false
	}
	return m.Cells[i][j], true
}

// Pair is one off-diagonal coefficient.
type Pair struct {
	A string  `json:"a"`
	B string  `json:"b"`
	R float64 `json:"r"`
	N int     `json:"n"`
}

// TopPairs returns up to n defined off-diagonal pairs ordered by |r|
// descending, then by metric names. n <= 0 returns all.
func (m *Matrix) TopPairs(n int) []Pair {
	var pairs []Pair
	for i := range m.Metrics {
		for j := i + 1; j < len(m.Metrics); j++ {
			c := m.Cells[i][j]
			r, ok := c.R.Get()
			if !ok {
				continue
			}
			pairs = append(pairs, Pair{A: m.Metrics[i], B: m.Metrics[j], R: r, N: c.N})
		}
	}
	sort.SliceStable(pairs, func(i, j int) bool {
		ai, aj := math.Abs(pairs[i].R), math.Abs(pairs[j].R)
		if ai != aj {
			return ai > aj
		}
		if pairs[i].A != pairs[j].A {
			return pairs[i].A < pairs[j].A
		}
		return pairs[i].B < pairs[j].B
	})
	if n > 0 && len(pairs) > n {
		pairs = pairs[:n]
	}
	return pairs
}

// Guards summarizes cells that could not be computed, one guard per status.
func (m *Matrix) Guards() []metrics.ComputationGuard {
	var insufficient, zeroVar int
	for i := range m.Metrics {
		for j := i; j < len(m.Metrics); j++ {
			switch m.Cells[i][j].Status {
			case StatusInsufficient:
				insufficient++
			case StatusZeroVariance:
				zeroVar++
			}
		}
	}
	var out []metrics.ComputationGuard
	if insufficient > 0 {
		out = append(out, metrics.ComputationGuard{
			Kind:    metrics.GuardInsufficientData,
			Subject: "correlation",
			Count:   insufficient,
			Detail:  fmt.Sprintf("%d metric pair(s) have fewer than %d samples", insufficient, m.MinSamples),
		})
	}
	if zeroVar > 0 {
		out = append(out, metrics.ComputationGuard{
			Kind:    metrics.GuardZeroVariance,
			Subject: "correlation",
			Count:   zeroVar,
			Detail:  fmt.Sprintf("%d metric pair(s) involve a constant column", zeroVar),
		})
	}
	return out
}
