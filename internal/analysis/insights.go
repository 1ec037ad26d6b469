package analysis

import (
	"fmt"

	"github.com/KaramelBytes/shortform-signals/internal/metrics"
)

// Insight is one headline finding.
type Insight struct {
	Topic   string `json:"topic"`
	Subject string `json:"subject"`
	Detail  string `json:"detail"`
}

// best returns the aggregate with the largest defined value; ties keep the
// earlier entry, which is key order.
func best(aggs []metrics.Aggregate, val func(metrics.Aggregate) metrics.Value) (metrics.Aggregate, float64, bool) {
	var (
		out   metrics.Aggregate
		max   float64
		found bool
	)
	for _, a := range aggs {
		v, ok := val(a).Get()
		if !ok {
			continue
		}
		if !found || v > max {
			out, max, found = a, v, true
		}
	}
	return out, max, found
}

func meanRetention(a metrics.Aggregate) metrics.Value  { return a.Retention.Mean }
func meanEngagement(a metrics.Aggregate) metrics.Value { return a.Engagement.Mean }

// Insights derives headline findings from a finished run. Findings whose
// inputs are missing or undefined are left out.
func (p *Pipeline) Insights(res *Result) []Insight {
	var out []Insight
	groupBest := func(topic string, dim metrics.Dimension, val func(metrics.Aggregate) metrics.Value, what string) {
		aggs, err := p.Table.Aggregate(dim)
		if err != nil {
			return
		}
		if a, v, ok := best(aggs, val); ok {
			out = append(out, Insight{Topic: topic, Subject: a.Key,
				Detail: fmt.Sprintf("highest mean %s (%.4g over %d videos)", what, v, a.Videos)})
		}
	}
	groupBest("best_format", metrics.ByFormat, meanRetention, "retention rate")

	if res.Rankings != nil && res.Rankings.Creators != nil && len(res.Rankings.Creators.Ranked) > 0 {
		c := res.Rankings.Creators.Ranked[0]
		out = append(out, Insight{Topic: "top_creator", Subject: c.CreatorName,
			Detail: fmt.Sprintf("leads in mean retention rate (%.4g over %d videos)", c.Retention.Mean.Or(0), c.Retention.N)})
	}

	groupBest("most_engaging_niche", metrics.ByNiche, meanEngagement, "engagement rate")
	groupBest("optimal_duration", metrics.ByDurationBucket, meanRetention, "retention rate")
	groupBest("best_hook_bucket", metrics.ByHookBucket, meanRetention, "retention rate")

	if res.Correlation != nil {
		if top := res.Correlation.TopPairs(1); len(top) == 1 {
			out = append(out, Insight{Topic: "strongest_correlation", Subject: top[0].A + " ~ " + top[0].B,
				Detail: fmt.Sprintf("r=%.3f over %d videos", top[0].R, top[0].N)})
		}
	}

	if res.Clusters != nil && len(res.Clusters.Summaries) > 0 {
		big := res.Clusters.Summaries[0]
		for _, s := range res.Clusters.Summaries[1:] {
			if s.Size > big.Size {
				big = s
			}
		}
		out = append(out, Insight{Topic: "largest_cluster", Subject: fmt.Sprintf("cluster %d", big.ClusterID),
			Detail: fmt.Sprintf("%d of %d clustered videos", big.Size, len(res.Clusters.Assignments))})
	}
	return out
}
