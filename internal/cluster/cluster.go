// Package cluster partitions videos with seeded k-means over z-score
// standardized metrics.
package cluster

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/KaramelBytes/shortform-signals/internal/metrics"
)

// Options configures a clustering run.
type Options struct {
	K        int
	Seed     uint64
	MaxIter  int
	Features []string
}

func DefaultOptions() Options {
	return Options{K: 4, Seed: 42, MaxIter: 300, Features: metrics.DefaultClusterFeatures()}
}

// Assignment places one video in a cluster. Cluster ids are only stable
// within a single run.
type Assignment struct {
	VideoID   string `json:"video_id"`
	ClusterID int    `json:"cluster_id"`
}

// Summary describes one cluster. Means are in raw units and follow
// Result.Requested; Centroid is in standardized units and follows
// Result.Features.
type Summary struct {
	ClusterID int             `json:"cluster_id"`
	Size      int             `json:"size"`
	Means     []metrics.Value `json:"means"`
	Centroid  []float64       `json:"centroid"`
}

// Result is the outcome of one run.
type Result struct {
	K         int      `json:"k"`
	Seed      uint64   `json:"seed"`
	Requested []string `json:"requested"`
	// Features used for distance; Excluded had zero variance.
	Features    []string                   `json:"features"`
	Excluded    []string                   `json:"excluded"`
	Skipped     []string                   `json:"skipped"`
	Assignments []Assignment               `json:"assignments"`
	Summaries   []Summary                  `json:"summaries"`
	Iterations  int                        `json:"iterations"`
	Converged   bool                       `json:"converged"`
	Inertia     float64                    `json:"inertia"`
	Guards      []metrics.ComputationGuard `json:"guards"`
}

// Run clusters the rows of t. Videos with any requested feature undefined
// are skipped and listed. Zero-variance features are excluded before
// standardization and reported as a guard; if every feature is constant the
// guard is returned as the error. k above the number of clusterable videos
// is a *metrics.ConfigurationError.
func Run(t *metrics.Table, opt Options) (*Result, error) {
	if t == nil {
		return nil, fmt.Errorf("cluster: nil table")
	}
	if opt.K < 1 {
		return nil, metrics.Configf("k", "must be at least 1, got %d", opt.K)
	}
	if opt.MaxIter < 1 {
		return nil, metrics.Configf("max iterations", "must be at least 1, got %d", opt.MaxIter)
	}
	if len(opt.Features) == 0 {
		return nil, metrics.Configf("features", "at least one feature is required")
	}
	ms, err := metrics.LookupAll(opt.Features)
	if err != nil {
		return nil, err
	}

	res := &Result{K: opt.K, Seed: opt.Seed}
	for _, m := range ms {
		res.Requested = append(res.Requested, m.Name)
	}

	// rows with every requested feature defined
	var ids []string
	var raw [][]float64
	for _, r := range t.Rows() {
		vec := make([]float64, len(ms))
		ok := true
		for j, m := range ms {
			f, def := m.Of(r).Get()
			if !def {
				ok = false
				break
			}
			vec[j] = f
		}
		if !ok {
			res.Skipped = append(res.Skipped, r.Video.VideoID)
			continue
		}
		ids = append(ids, r.Video.VideoID)
		raw = append(raw, vec)
	}
	if len(res.Skipped) > 0 {
		res.Guards = append(res.Guards, metrics.ComputationGuard{
			Kind:    metrics.GuardZeroDenominator,
			Subject: "cluster features",
			Count:   len(res.Skipped),
			Detail:  fmt.Sprintf("%d video(s) skipped with an undefined feature", len(res.Skipped)),
		})
	}
	if opt.K > len(raw) {
		return nil, metrics.Configf("k", "k=%d exceeds the number of clusterable videos (%d)", opt.K, len(raw))
	}

	points, used := standardize(raw)
	for j, m := range ms {
		if used[j] {
			res.Features = append(res.Features, m.Name)
		} else {
			res.Excluded = append(res.Excluded, m.Name)
		}
	}
	if len(res.Excluded) > 0 {
		g := metrics.ComputationGuard{
			Kind:    metrics.GuardZeroVariance,
			Subject: "cluster features",
			Count:   len(res.Excluded),
			Detail:  fmt.Sprintf("excluded constant feature(s) %v", res.Excluded),
		}
		if len(res.Features) == 0 {
			return nil, &g
		}
		res.Guards = append(res.Guards, g)
	}
	if d := distinct(points); d < opt.K {
		return nil, metrics.Configf("k", "k=%d exceeds the number of distinct feature vectors (%d)", opt.K, d)
	}

	rng := rand.New(rand.NewPCG(opt.Seed, opt.Seed^0x9e3779b97f4a7c15))
	centroids := seedCentroids(points, opt.K, rng)
	assign := make([]int, len(points))
	for i := range assign {
		assign[i] = -1
	}
	for it := 1; it <= opt.MaxIter; it++ {
		res.Iterations = it
		changed := false
		for i, p := range points {
			c := nearest(p, centroids)
			if c != assign[i] {
				assign[i] = c
				changed = true
			}
		}
		if !changed {
			res.Converged = true
			break
		}
		centroids = recompute(points, assign, centroids)
	}

	for i, p := range points {
		res.Inertia += sqDist(p, centroids[assign[i]])
		res.Assignments = append(res.Assignments, Assignment{VideoID: ids[i], ClusterID: assign[i]})
	}
	res.Summaries = summarize(raw, assign, centroids)
	if g := emptyClusters(res.Summaries); g != nil {
		res.Guards = append(res.Guards, *g)
	}
	return res, nil
}

// standardize z-scores each column with the population standard deviation
// and drops constant columns. used[j] reports whether column j was kept.
func standardize(raw [][]float64) ([][]float64, []bool) {
	n := len(raw)
	if n == 0 {
		return nil, nil
	}
	dims := len(raw[0])
	mean := make([]float64, dims)
	std := make([]float64, dims)
	for _, v := range raw {
		for j, x := range v {
			mean[j] += x
		}
	}
	for j := range mean {
		mean[j] /= float64(n)
	}
	for _, v := range raw {
		for j, x := range v {
			d := x - mean[j]
			std[j] += d * d
		}
	}
	used := make([]bool, dims)
	col := make([]float64, n)
	for j := range std {
		std[j] = math.Sqrt(std[j] / float64(n))
		for i, v := range raw {
			col[i] = v[j]
		}
		used[j] = !metrics.Constant(col) && std[j] > 0
	}
	out := make([][]float64, n)
	for i, v := range raw {
		p := make([]float64, 0, dims)
		for j, x := range v {
			if used[j] {
				p = append(p, (x-mean[j])/std[j])
			}
		}
		out[i] = p
	}
	return out, used
}

func distinct(points [][]float64) int {
	seen := make(map[string]bool, len(points))
	for _, p := range points {
		seen[fmt.Sprint(p)] = true
	}
	return len(seen)
}

// seedCentroids picks k starting centroids with k-means++: the first
// uniformly, each next one with probability proportional to its squared
// distance from the nearest chosen centroid.
func seedCentroids(points [][]float64, k int, rng *rand.Rand) [][]float64 {
	centroids := make([][]float64, 0, k)
	centroids = append(centroids, clone(points[rng.IntN(len(points))]))
	d2 := make([]float64, len(points))
	for len(centroids) < k {
		total := 0.0
		for i, p := range points {
			d2[i] = sqDist(p, centroids[nearest(p, centroids)])
			total += d2[i]
		}
		r := rng.Float64() * total
		pick := -1
		cum := 0.0
		for i, d := range d2 {
			if d == 0 {
				continue
			}
			pick = i
			cum += d
			if cum > r {
				break
			}
		}
		centroids = append(centroids, clone(points[pick]))
	}
	return centroids
}

// nearest returns the closest centroid; ties go to the lowest index.
func nearest(p []float64, centroids [][]float64) int {
	best, bestD := 0, math.Inf(1)
	for c, ctr := range centroids {
		if d := sqDist(p, ctr); d < bestD {
			best, bestD = c, d
		}
	}
	return best
}

// recompute moves each centroid to the mean of its members. An empty
// cluster keeps its previous centroid.
func recompute(points [][]float64, assign []int, prev [][]float64) [][]float64 {
	k := len(prev)
	dims := len(prev[0])
	sums := make([][]float64, k)
	counts := make([]int, k)
	for c := range sums {
		sums[c] = make([]float64, dims)
	}
	for i, p := range points {
		c := assign[i]
		counts[c]++
		for j, x := range p {
			sums[c][j] += x
		}
	}
	out := make([][]float64, k)
	for c := range out {
		if counts[c] == 0 {
			out[c] = clone(prev[c])
			continue
		}
		for j := range sums[c] {
			sums[c][j] /= float64(counts[c])
		}
		out[c] = sums[c]
	}
	return out
}

func summarize(raw [][]float64, assign []int, centroids [][]float64) []Summary {
	k := len(centroids)
	dims := 0
	if len(raw) > 0 {
		dims = len(raw[0])
	}
	out := make([]Summary, k)
	sums := make([][]float64, k)
	for c := range out {
		out[c] = Summary{ClusterID: c, Centroid: clone(centroids[c]), Means: make([]metrics.Value, dims)}
		sums[c] = make([]float64, dims)
	}
	for i, v := range raw {
		c := assign[i]
		out[c].Size++
		for j, x := range v {
			sums[c][j] += x
		}
	}
	for c := range out {
		for j := range sums[c] {
			out[c].Means[j] = metrics.Ratio(sums[c][j], float64(out[c].Size))
		}
	}
	return out
}

// emptyClusters flags clusters that ended without members, so a run that
// populated fewer than k clusters says so.
func emptyClusters(sums []Summary) *metrics.ComputationGuard {
	var empty []int
	for _, sm := range sums {
		if sm.Size == 0 {
			empty = append(empty, sm.ClusterID)
		}
	}
	if len(empty) == 0 {
		return nil
	}
	return &metrics.ComputationGuard{
		Kind:    metrics.GuardEmptyCluster,
		Subject: "clusters",
		Count:   len(empty),
		Detail:  fmt.Sprintf("cluster(s) %v ended with no members; %d of %d populated", empty, len(sums)-len(empty), len(sums)),
	}
}

func sqDist(a, b []float64) float64 {
	s := 0.0
	for i := range a {
		d := a[i] - b[i]
		s += d * d
	}
	return s
}

func clone(p []float64) []float64 { return append([]float64(nil), p...) }
