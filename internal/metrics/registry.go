package metrics

import (
	"sort"
	"strings"
)

// Metric is a named numeric column of the derived table.
type Metric struct {
	Name    string
	Derived bool
	get     func(Row) Value
}

// Of reads the metric from a row.
func (m Metric) Of(r Row) Value { return m.get(r) }

func raw(f func(Row) int64) func(Row) Value {
	return func(r Row) Value { return Of(float64(f(r))) }
}

var registry = []Metric{
	{Name: "views", get: raw(func(r Row) int64 { return r.Video.Views })},
	{Name: "likes", get: raw(func(r Row) int64 { return r.Video.Likes })},
	{Name: "comments", get: raw(func(r Row) int64 { return r.Video.Comments })},
	{Name: "shares", get: raw(func(r Row) int64 { return r.Video.Shares })},
	{Name: "watch_time", get: raw(func(r Row) int64 { return r.Video.WatchTime })},
	{Name: "full_views", get: raw(func(r Row) int64 { return r.Video.FullViews })},
	{Name: "duration_sec", get: raw(func(r Row) int64 { return r.Video.DurationSec })},
	{Name: "followers", get: raw(func(r Row) int64 { return r.Creator.Followers })},
	{Name: "hook_watch_rate", get: func(r Row) Value { return Of(r.Video.HookWatchRate) }},
	{Name: "retention_rate", Derived: true, get: func(r Row) Value { return r.Derived.RetentionRate }},
	{Name: "engagement_rate", Derived: true, get: func(r Row) Value { return r.Derived.EngagementRate }},
	{Name: "avg_watch_time_per_view", Derived: true, get: func(r Row) Value { return r.Derived.AvgWatchTimePerView }},
	{Name: "like_to_view_ratio", Derived: true, get: func(r Row) Value { return r.Derived.LikeToViewRatio }},
	{Name: "share_to_view_ratio", Derived: true, get: func(r Row) Value { return r.Derived.ShareToViewRatio }},
}

var byName = func() map[string]Metric {
	m := make(map[string]Metric, len(registry))
	for _, x := range registry {
		m[x.Name] = x
	}
	return m
}()

// Names lists every known metric in registry order.
func Names() []string {
	out := make([]string, len(registry))
	for i, m := range registry {
		out[i] = m.Name
	}
	return out
}

// Lookup resolves a metric name, case-insensitively.
func Lookup(name string) (Metric, error) {
	m, ok := byName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		known := Names()
		sort.Strings(known)
		return Metric{}, Configf("metric", "unknown metric %q (known: %s)", name, strings.Join(known, ", "))
	}
	return m, nil
}

// LookupAll resolves names in order, rejecting unknown and repeated names.
func LookupAll(names []string) ([]Metric, error) {
	out := make([]Metric, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		m, err := Lookup(n)
		if err != nil {
			return nil, err
		}
		if seen[m.Name] {
			return nil, Configf("metric", "%q listed more than once", m.Name)
		}
		seen[m.Name] = true
		out = append(out, m)
	}
	return out, nil
}

// DefaultCorrelationMetrics is the default correlation set.
func DefaultCorrelationMetrics() []string {
	return []string{
		"views", "likes", "comments", "shares", "watch_time", "full_views",
		"hook_watch_rate", "retention_rate", "engagement_rate",
		"avg_watch_time_per_view", "like_to_view_ratio", "share_to_view_ratio",
	}
}

// DefaultClusterFeatures is the default clustering feature set.
func DefaultClusterFeatures() []string {
	return []string{"views", "likes", "shares", "retention_rate", "engagement_rate"}
}
