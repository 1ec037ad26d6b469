package metrics

import (
	"math"
	"sort"
)

// Stat summarizes the defined entries of a column. N is the number of
// defined values; undefined entries never contribute.
type Stat struct {
	N      int   `json:"n"`
	Mean   Value `json:"mean"`
	Median Value `json:"median"`
	Std    Value `json:"std"`
	Min    Value `json:"min"`
	Max    Value `json:"max"`
}

// Constant reports whether every value in xs is identical. Variance is
// zero exactly when this holds; a computed sum of squared deviations can
// carry rounding residue for values like 0.1 and must not be used instead.
func Constant(xs []float64) bool {
	for i := 1; i < len(xs); i++ {
		if xs[i] != xs[0] {
			return false
		}
	}
	return true
}

// Summarize computes N, mean, median, sample standard deviation, min and
// max over the defined values. Std needs at least two values.
func Summarize(vals []Value) Stat {
	xs := make([]float64, 0, len(vals))
	for _, v := range vals {
		if f, ok := v.Get(); ok {
			xs = append(xs, f)
		}
	}
	st := Stat{N: len(xs)}
	if len(xs) == 0 {
		return st
	}
	sort.Float64s(xs)
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	mean := sum / float64(len(xs))
	st.Mean = Of(mean)
	st.Min = Of(xs[0])
	st.Max = Of(xs[len(xs)-1])
	if mid := len(xs) / 2; len(xs)%2 == 1 {
		st.Median = Of(xs[mid])
	} else {
		st.Median = Of((xs[mid-1] + xs[mid]) / 2)
	}
	if len(xs) > 1 {
		ss := 0.0
		for _, x := range xs {
			d := x - mean
			ss += d * d
		}
		st.Std = Of(math.Sqrt(ss / float64(len(xs)-1)))
	}
	return st
}

// Dimension is a categorical attribute rows can be grouped by.
type Dimension string

const (
	ByCreator        Dimension = "creator"
	ByNiche          Dimension = "niche"
	ByFormat         Dimension = "format"
	ByPlatform       Dimension = "platform"
	ByHookBucket     Dimension = "hook_bucket"
	ByDurationBucket Dimension = "duration_bucket"
)

// Dimensions lists every grouping dimension.
func Dimensions() []Dimension {
	return []Dimension{ByCreator, ByNiche, ByFormat, ByPlatform, ByHookBucket, ByDurationBucket}
}

// ParseDimension resolves a dimension name.
func ParseDimension(s string) (Dimension, error) {
	for _, d := range Dimensions() {
		if string(d) == s {
			return d, nil
		}
	}
	return "", Configf("dimension", "unknown dimension %q", s)
}

// Key returns the group key of r, or "" when r has no value for d.
func (d Dimension) Key(r Row) string {
	switch d {
	case ByCreator:
		return r.Creator.CreatorID
	case ByNiche:
		return r.Creator.Niche
	case ByFormat:
		return r.Video.FormatType
	case ByPlatform:
		return r.Video.Platform
	case ByHookBucket:
		return string(r.Derived.HookBucket)
	case ByDurationBucket:
		return r.Derived.DurationBucket
	}
	return ""
}

// Group is the rows sharing one key, in row order.
type Group struct {
	Key  string
	Rows []Row
}

// GroupBy partitions rows by d. Free-form keys are sorted ascending; bucket
// dimensions follow bucket order and list every bucket, empty or not. Rows
// without a key (untagged platform) are left out.
func (t *Table) GroupBy(d Dimension) ([]Group, error) {
	var order []string
	switch d {
	case ByHookBucket:
		for _, b := range HookBuckets() {
			order = append(order, string(b))
		}
	case ByDurationBucket:
		for _, b := range t.opt.DurationBuckets() {
			order = append(order, b.Label)
		}
	case ByCreator, ByNiche, ByFormat, ByPlatform:
	default:
		return nil, Configf("dimension", "unknown dimension %q", d)
	}
	idx := make(map[string]int, len(order))
	groups := make([]Group, 0, len(order))
	for _, k := range order {
		idx[k] = len(groups)
		groups = append(groups, Group{Key: k})
	}
	for _, r := range t.rows {
		k := d.Key(r)
		if k == "" {
			continue
		}
		i, ok := idx[k]
		if !ok {
			i = len(groups)
			idx[k] = i
			groups = append(groups, Group{Key: k})
		}
		groups[i].Rows = append(groups[i].Rows, r)
	}
	if order == nil {
		sort.SliceStable(groups, func(i, j int) bool { return groups[i].Key < groups[j].Key })
	}
	return groups, nil
}

// Aggregate is the mean retention and engagement of one group. Videos is
// the group size; each Stat's N counts only videos where it is defined.
type Aggregate struct {
	Dimension  Dimension `json:"dimension"`
	Key        string    `json:"key"`
	Videos     int       `json:"videos"`
	Retention  Stat      `json:"retention"`
	Engagement Stat      `json:"engagement"`
	Empty      bool      `json:"empty"`
}

// Aggregate computes per-group retention and engagement for d.
func (t *Table) Aggregate(d Dimension) ([]Aggregate, error) {
	groups, err := t.GroupBy(d)
	if err != nil {
		return nil, err
	}
	out := make([]Aggregate, 0, len(groups))
	for _, g := range groups {
		out = append(out, Aggregate{
			Dimension:  d,
			Key:        g.Key,
			Videos:     len(g.Rows),
			Retention:  Summarize(Collect(g.Rows, func(r Row) Value { return r.Derived.RetentionRate })),
			Engagement: Summarize(Collect(g.Rows, func(r Row) Value { return r.Derived.EngagementRate })),
			Empty:      len(g.Rows) == 0,
		})
	}
	return out, nil
}

// Collect maps rows to values.
func Collect(rows []Row, f func(Row) Value) []Value {
	out := make([]Value, len(rows))
	for i, r := range rows {
		out[i] = f(r)
	}
	return out
}

// Summary is the headline description of a derived table.
type Summary struct {
	Videos         int   `json:"videos"`
	Creators       int   `json:"creators"`
	Platforms      int   `json:"platforms"`
	FormatTypes    int   `json:"format_types"`
	Niches         int   `json:"niches"`
	ZeroViewVideos int   `json:"zero_view_videos"`
	MeanViews      Value `json:"mean_views"`
	MeanRetention  Value `json:"mean_retention"`
	MeanEngagement Value `json:"mean_engagement"`
}

// Summary reports totals and undefined-skipping means.
func (t *Table) Summary() Summary {
	formats := map[string]bool{}
	niches := map[string]bool{}
	s := Summary{Videos: len(t.rows), Creators: t.numCreators, Platforms: t.numPlatforms}
	for _, r := range t.rows {
		formats[r.Video.FormatType] = true
		niches[r.Creator.Niche] = true
		if r.Video.Views == 0 {
			s.ZeroViewVideos++
		}
	}
	s.FormatTypes = len(formats)
	s.Niches = len(niches)
	s.MeanViews = Summarize(Collect(t.rows, func(r Row) Value { return Of(float64(r.Video.Views)) })).Mean
	s.MeanRetention = Summarize(Collect(t.rows, func(r Row) Value { return r.Derived.RetentionRate })).Mean
	s.MeanEngagement = Summarize(Collect(t.rows, func(r Row) Value { return r.Derived.EngagementRate })).Mean
	return s
}
