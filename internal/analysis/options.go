package analysis

import (
	"github.com/KaramelBytes/shortform-signals/internal/cluster"
	"github.com/KaramelBytes/shortform-signals/internal/config"
	"github.com/KaramelBytes/shortform-signals/internal/correlation"
	"github.com/KaramelBytes/shortform-signals/internal/metrics"
	"github.com/KaramelBytes/shortform-signals/internal/ranking"
)

// Options bundles the parameters of every stage. It is passed explicitly
// so tests can inject alternate thresholds and seeds.
type Options struct {
	Metrics     metrics.Options
	Correlation correlation.Options
	Cluster     cluster.Options
	Ranking     ranking.Options
}

func DefaultOptions() Options {
	return Options{
		Metrics:     metrics.DefaultOptions(),
		Correlation: correlation.DefaultOptions(),
		Cluster:     cluster.DefaultOptions(),
		Ranking:     ranking.DefaultOptions(),
	}
}

// FromConfig overlays configured values on the defaults; zero values keep
// the default. The cluster seed is copied as is since 0 is a valid seed and
// config loading already supplies the default.
func FromConfig(a config.Analysis) Options {
	o := DefaultOptions()
	if a.HookLowMax != 0 || a.HookHighMin != 0 {
		o.Metrics.HookLowMax = a.HookLowMax
		o.Metrics.HookHighMin = a.HookHighMin
	}
	if len(a.DurationEdges) > 0 {
		o.Metrics.DurationEdges = append([]int64(nil), a.DurationEdges...)
	}
	if len(a.CorrelationMetrics) > 0 {
		o.Correlation.Metrics = append([]string(nil), a.CorrelationMetrics...)
	}
	if a.CorrelationMinSamples != 0 {
		o.Correlation.MinSamples = a.CorrelationMinSamples
	}
	if a.ClusterK != 0 {
		o.Cluster.K = a.ClusterK
	}
	o.Cluster.Seed = a.ClusterSeed
	if a.ClusterMaxIter != 0 {
		o.Cluster.MaxIter = a.ClusterMaxIter
	}
	if len(a.ClusterFeatures) > 0 {
		o.Cluster.Features = append([]string(nil), a.ClusterFeatures...)
	}
	if a.TopN != 0 {
		o.Ranking.TopN = a.TopN
	}
	if a.TopVideos != 0 {
		o.Ranking.TopVideos = a.TopVideos
	}
	if a.TopVideoMetric != "" {
		o.Ranking.TopVideoMetric = a.TopVideoMetric
	}
	return o
}
