// Package ranking produces deterministic rankings and grouped comparisons
// over a derived table. Every aggregate carries its sample size.
package ranking

import (
	"sort"

	"github.com/KaramelBytes/shortform-signals/internal/metrics"
)

type Options struct {
	TopN           int
	TopVideos      int
	TopVideoMetric string
	CompareMetrics []string
}

func DefaultOptions() Options {
	return Options{
		TopN:           10,
		TopVideos:      20,
		TopVideoMetric: "retention_rate",
		CompareMetrics: []string{"retention_rate", "engagement_rate", "hook_watch_rate", "views", "likes", "comments", "shares"},
	}
}

// CreatorRank is one creator's standing. Videos is the creator's video
// count; Retention.N counts the videos with a defined retention rate.
type CreatorRank struct {
	Rank        int          `json:"rank"`
	CreatorID   string       `json:"creator_id"`
	CreatorName string       `json:"creator_name"`
	Niche       string       `json:"niche"`
	Followers   int64        `json:"followers"`
	Videos      int          `json:"videos"`
	Retention   metrics.Stat `json:"retention"`
	Engagement  metrics.Stat `json:"engagement"`
}

// CreatorRanking holds the top creators and those that could not be
// ranked because no video had a defined retention rate.
type CreatorRanking struct {
	Ranked   []CreatorRank `json:"ranked"`
	Unranked []CreatorRank `json:"unranked"`
}

// TopCreators ranks creators by mean retention descending; ties break by
// followers descending, then creator_id ascending.
func TopCreators(t *metrics.Table, n int) (*CreatorRanking, error) {
	if n < 1 {
		return nil, metrics.Configf("top n", "must be at least 1, got %d", n)
	}
	groups, err := t.GroupBy(metrics.ByCreator)
	if err != nil {
		return nil, err
	}
	out := &CreatorRanking{}
	var ranked []CreatorRank
	for _, g := range groups {
		c := g.Rows[0].Creator
		cr := CreatorRank{
			CreatorID:   c.CreatorID,
			CreatorName: c.CreatorName,
			Niche:       c.Niche,
			Followers:   c.Followers,
			Videos:      len(g.Rows),
			Retention:   metrics.Summarize(metrics.Collect(g.Rows, retention)),
			Engagement:  metrics.Summarize(metrics.Collect(g.Rows, engagement)),
		}
		if cr.Retention.Mean.Defined() {
			ranked = append(ranked, cr)
		} else {
			out.Unranked = append(out.Unranked, cr)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		ra, rb := a.Retention.Mean.Or(0), b.Retention.Mean.Or(0)
		if ra != rb {
			return ra > rb
		}
		if a.Followers != b.Followers {
			return a.Followers > b.Followers
		}
		return a.CreatorID < b.CreatorID
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	out.Ranked = ranked
	return out, nil
}

func retention(r metrics.Row) metrics.Value  { return r.Derived.RetentionRate }
func engagement(r metrics.Row) metrics.Value { return r.Derived.EngagementRate }

// GroupStat is one group of a comparison; Stats follow Comparison.Metrics.
type GroupStat struct {
	Key    string         `json:"key"`
	Videos int            `json:"videos"`
	Empty  bool           `json:"empty"`
	Stats  []metrics.Stat `json:"stats"`
}

// Comparison summarizes several metrics across the groups of a dimension.
type Comparison struct {
	Dimension metrics.Dimension `json:"dimension"`
	Metrics   []string          `json:"metrics"`
	Groups    []GroupStat       `json:"groups"`
}

// Compare reports mean and median of each metric per group. Bucket
// dimensions keep bucket order with empty buckets flagged; other
// dimensions are ordered by the first metric's mean descending, groups
// without a defined mean last, ties by key.
func Compare(t *metrics.Table, dim metrics.Dimension, metricNames []string) (*Comparison, error) {
	if len(metricNames) == 0 {
		return nil, metrics.Configf("metrics", "at least one metric is required")
	}
	ms, err := metrics.LookupAll(metricNames)
	if err != nil {
		return nil, err
	}
	groups, err := t.GroupBy(dim)
	if err != nil {
		return nil, err
	}
	cmp := &Comparison{Dimension: dim}
	for _, m := range ms {
		cmp.Metrics = append(cmp.Metrics, m.Name)
	}
	for _, g := range groups {
		gs := GroupStat{Key: g.Key, Videos: len(g.Rows), Empty: len(g.Rows) == 0}
		for _, m := range ms {
			gs.Stats = append(gs.Stats, metrics.Summarize(metrics.Collect(g.Rows, m.Of)))
		}
		cmp.Groups = append(cmp.Groups, gs)
	}
	if dim != metrics.ByHookBucket && dim != metrics.ByDurationBucket {
		sort.SliceStable(cmp.Groups, func(i, j int) bool {
			a, aok := cmp.Groups[i].Stats[0].Mean.Get()
			b, bok := cmp.Groups[j].Stats[0].Mean.Get()
			if aok != bok {
				return aok
			}
			if aok && a != b {
				return a > b
			}
			return cmp.Groups[i].Key < cmp.Groups[j].Key
		})
	}
	return cmp, nil
}

// DurationSummary compares metrics across every duration bucket.
func DurationSummary(t *metrics.Table, metricNames []string) (*Comparison, error) {
	return Compare(t, metrics.ByDurationBucket, metricNames)
}

// VideoRank is one row of the top-videos table.
type VideoRank struct {
	Rank           int           `json:"rank"`
	VideoID        string        `json:"video_id"`
	CreatorName    string        `json:"creator_name"`
	FormatType     string        `json:"format_type"`
	Niche          string        `json:"niche"`
	DurationSec    int64         `json:"duration_sec"`
	Views          int64         `json:"views"`
	Likes          int64         `json:"likes"`
	Shares         int64         `json:"shares"`
	HookWatchRate  float64       `json:"hook_watch_rate"`
	RetentionRate  metrics.Value `json:"retention_rate"`
	EngagementRate metrics.Value `json:"engagement_rate"`
	Score          metrics.Value `json:"score"`
}

// TopVideos ranks videos by metric descending, ties by video_id. Videos
// where the metric is undefined are not ranked.
func TopVideos(t *metrics.Table, metric string, n int) ([]VideoRank, error) {
	if n < 1 {
		return nil, metrics.Configf("top videos", "must be at least 1, got %d", n)
	}
	m, err := metrics.Lookup(metric)
	if err != nil {
		return nil, err
	}
	var out []VideoRank
	for _, r := range t.Rows() {
		score := m.Of(r)
		if !score.Defined() {
			continue
		}
		out = append(out, VideoRank{
			VideoID:        r.Video.VideoID,
			CreatorName:    r.Creator.CreatorName,
			FormatType:     r.Video.FormatType,
			Niche:          r.Creator.Niche,
			DurationSec:    r.Video.DurationSec,
			Views:          r.Video.Views,
			Likes:          r.Video.Likes,
			Shares:         r.Video.Shares,
			HookWatchRate:  r.Video.HookWatchRate,
			RetentionRate:  r.Derived.RetentionRate,
			EngagementRate: r.Derived.EngagementRate,
			Score:          score,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Score.Or(0), out[j].Score.Or(0)
		if a != b {
			return a > b
		}
		return out[i].VideoID < out[j].VideoID
	})
	if len(out) > n {
		out = out[:n]
	}
	for i := range out {
		out[i].Rank = i + 1
	}
	return out, nil
}
