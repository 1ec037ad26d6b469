package analysis

import (
	"strconv"

	"github.com/KaramelBytes/shortform-signals/internal/cluster"
	"github.com/KaramelBytes/shortform-signals/internal/correlation"
	"github.com/KaramelBytes/shortform-signals/internal/dataset"
	"github.com/KaramelBytes/shortform-signals/internal/metrics"
	"github.com/KaramelBytes/shortform-signals/internal/ranking"
	"github.com/KaramelBytes/shortform-signals/internal/report"
)

// Table names of the output surface.
const (
	TableValidationSummary  = "validation_summary"
	TableValidationIssues   = "validation_issues"
	TableJoined             = "videos_joined"
	TableDerived            = "derived_metrics"
	TableDataSummary        = "data_summary"
	TableCorrelationMatrix  = "correlation_matrix"
	TableCorrelationPairs   = "correlation_pairs"
	TableClusterAssignments = "cluster_assignments"
	TableClusterSummaries   = "cluster_summaries"
	TableCreatorRanking     = "creator_ranking"
	TableUnrankedCreators   = "unranked_creators"
	TableFormatComparison   = "format_comparison"
	TableNicheComparison    = "niche_comparison"
	TablePlatformComparison = "platform_comparison"
	TableHookComparison     = "hook_comparison"
	TableDurationSummary    = "duration_summary"
	TableTopVideos          = "top_videos"
	TableGuards             = "computation_guards"
	TableInsights           = "insights"
	TableAnalysisErrors     = "analysis_errors"
)

func itoa(i int) string     { return strconv.Itoa(i) }
func i64(i int64) string    { return strconv.FormatInt(i, 10) }
func ftoa(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

// ValidationTables renders the load report.
func ValidationTables(rep *dataset.Report) []*report.Table {
	sum := &report.Table{Name: TableValidationSummary, Columns: []string{"table", "origin", "read", "accepted", "rejected"}}
	for _, s := range rep.Tables {
		sum.Append(s.Table, s.Origin, itoa(s.Read), itoa(s.Accepted), itoa(s.Rejected))
	}
	issues := &report.Table{Name: TableValidationIssues, Columns: []string{"table", "row", "key", "column", "kind", "severity", "message"}}
	for _, is := range rep.Issues {
		row := ""
		if is.Row > 0 {
			row = itoa(is.Row)
		}
		issues.Append(is.Table, row, is.Key, is.Column, string(is.Kind), string(is.Severity), is.Message)
	}
	return []*report.Table{sum, issues}
}

// JoinedTable renders videos joined with their creators.
func JoinedTable(t *metrics.Table) *report.Table {
	out := &report.Table{Name: TableJoined, Columns: []string{
		"video_id", "creator_id", "format_type", "duration_sec", "views", "likes", "comments", "shares",
		"watch_time", "full_views", "hook_watch_rate", "platform", "creator_name", "niche", "followers",
	}}
	for _, r := range t.Rows() {
		v, c := r.Video, r.Creator
		out.Append(v.VideoID, v.CreatorID, v.FormatType, i64(v.DurationSec), i64(v.Views), i64(v.Likes),
			i64(v.Comments), i64(v.Shares), i64(v.WatchTime), i64(v.FullViews), ftoa(v.HookWatchRate),
			v.Platform, c.CreatorName, c.Niche, i64(c.Followers))
	}
	return out
}

// DerivedTable renders the per-video derived metrics. Undefined values
// are empty cells.
func DerivedTable(t *metrics.Table) *report.Table {
	out := &report.Table{Name: TableDerived, Columns: []string{
		"video_id", "retention_rate", "engagement_rate", "avg_watch_time_per_view",
		"like_to_view_ratio", "share_to_view_ratio", "hook_bucket", "duration_bucket",
	}}
	for _, r := range t.Rows() {
		d := r.Derived
		out.Append(d.VideoID, d.RetentionRate.String(), d.EngagementRate.String(), d.AvgWatchTimePerView.String(),
			d.LikeToViewRatio.String(), d.ShareToViewRatio.String(), string(d.HookBucket), d.DurationBucket)
	}
	return out
}

// SummaryTable renders the data summary as metric/value pairs.
func SummaryTable(s metrics.Summary) *report.Table {
	out := &report.Table{Name: TableDataSummary, Columns: []string{"metric", "value"}}
	out.Append("total_videos", itoa(s.Videos))
	out.Append("total_creators", itoa(s.Creators))
	out.Append("total_platforms", itoa(s.Platforms))
	out.Append("format_types", itoa(s.FormatTypes))
	out.Append("niches", itoa(s.Niches))
	out.Append("zero_view_videos", itoa(s.ZeroViewVideos))
	out.Append("mean_views", s.MeanViews.String())
	out.Append("mean_retention_rate", s.MeanRetention.String())
	out.Append("mean_engagement_rate", s.MeanEngagement.String())
	return out
}

// CorrelationTables renders the matrix in wide form and every pair in long
// form with its sample count and status. Cells without a coefficient carry
// their status in the wide form.
func CorrelationTables(m *correlation.Matrix) []*report.Table {
	wide := &report.Table{Name: TableCorrelationMatrix, Columns: append([]string{"metric"}, m.Metrics...)}
	for i, name := range m.Metrics {
		row := []string{name}
		for j := range m.Metrics {
			c := m.Cells[i][j]
			if c.Status != correlation.StatusOK {
				row = append(row, string(c.Status))
				continue
			}
			row = append(row, c.R.String())
		}
		wide.Append(row...)
	}
	long := &report.Table{Name: TableCorrelationPairs, Columns: []string{"metric_a", "metric_b", "r", "n", "status"}}
	for i := range m.Metrics {
		for j := i + 1; j < len(m.Metrics); j++ {
			c := m.Cells[i][j]
			long.Append(m.Metrics[i], m.Metrics[j], c.R.String(), itoa(c.N), string(c.Status))
		}
	}
	return []*report.Table{wide, long}
}

// ClusterTables renders assignments and per-cluster summaries.
func ClusterTables(res *cluster.Result) []*report.Table {
	assign := &report.Table{Name: TableClusterAssignments, Columns: []string{"video_id", "cluster_id"}}
	for _, a := range res.Assignments {
		assign.Append(a.VideoID, itoa(a.ClusterID))
	}
	cols := []string{"cluster_id", "size"}
	for _, f := range res.Requested {
		cols = append(cols, "mean_"+f)
	}
	sums := &report.Table{Name: TableClusterSummaries, Columns: cols}
	for _, s := range res.Summaries {
		row := []string{itoa(s.ClusterID), itoa(s.Size)}
		for _, m := range s.Means {
			row = append(row, m.String())
		}
		sums.Append(row...)
	}
	return []*report.Table{assign, sums}
}

func creatorTable(name string, ranks []ranking.CreatorRank) *report.Table {
	out := &report.Table{Name: name, Columns: []string{
		"rank", "creator_id", "creator_name", "niche", "followers", "videos",
		"retention_n", "mean_retention_rate", "median_retention_rate", "mean_engagement_rate",
	}}
	for _, c := range ranks {
		rank := ""
		if c.Rank > 0 {
			rank = itoa(c.Rank)
		}
		out.Append(rank, c.CreatorID, c.CreatorName, c.Niche, i64(c.Followers), itoa(c.Videos),
			itoa(c.Retention.N), c.Retention.Mean.String(), c.Retention.Median.String(), c.Engagement.Mean.String())
	}
	return out
}

// ComparisonTable renders one grouped comparison. Each metric contributes
// n, mean, median and std columns.
func ComparisonTable(name string, c *ranking.Comparison) *report.Table {
	cols := []string{string(c.Dimension), "videos", "empty"}
	for _, m := range c.Metrics {
		cols = append(cols, m+"_n", m+"_mean", m+"_median", m+"_std")
	}
	out := &report.Table{Name: name, Columns: cols}
	for _, g := range c.Groups {
		row := []string{g.Key, itoa(g.Videos), strconv.FormatBool(g.Empty)}
		for _, s := range g.Stats {
			row = append(row, itoa(s.N), s.Mean.String(), s.Median.String(), s.Std.String())
		}
		out.Append(row...)
	}
	return out
}

// TopVideosTable renders the top-videos ranking.
func TopVideosTable(metric string, vs []ranking.VideoRank) *report.Table {
	out := &report.Table{Name: TableTopVideos, Columns: []string{
		"rank", "video_id", "creator_name", "format_type", "niche", "duration_sec", "views", "likes", "shares",
		"retention_rate", "engagement_rate", "hook_watch_rate", "score_metric", "score",
	}}
	for _, v := range vs {
		out.Append(itoa(v.Rank), v.VideoID, v.CreatorName, v.FormatType, v.Niche, i64(v.DurationSec), i64(v.Views),
			i64(v.Likes), i64(v.Shares), v.RetentionRate.String(), v.EngagementRate.String(), ftoa(v.HookWatchRate), metric, v.Score.String())
	}
	return out
}

// RankingTables renders every ranking and comparison.
func RankingTables(r *Rankings, topMetric string) []*report.Table {
	out := []*report.Table{
		creatorTable(TableCreatorRanking, r.Creators.Ranked),
		creatorTable(TableUnrankedCreators, r.Creators.Unranked),
		ComparisonTable(TableFormatComparison, r.Formats),
		ComparisonTable(TableNicheComparison, r.Niches),
		ComparisonTable(TablePlatformComparison, r.Platforms),
		ComparisonTable(TableHookComparison, r.HookRates),
		ComparisonTable(TableDurationSummary, r.Durations),
		TopVideosTable(topMetric, r.TopVideos),
	}
	return out
}

// GuardsTable lists every computation guard raised in the run.
func GuardsTable(gs []metrics.ComputationGuard) *report.Table {
	out := &report.Table{Name: TableGuards, Columns: []string{"kind", "subject", "count", "detail"}}
	for _, g := range gs {
		out.Append(string(g.Kind), g.Subject, itoa(g.Count), g.Detail)
	}
	return out
}

// InsightsTable lists the headline findings.
func InsightsTable(ins []Insight) *report.Table {
	out := &report.Table{Name: TableInsights, Columns: []string{"topic", "subject", "detail"}}
	for _, i := range ins {
		out.Append(i.Topic, i.Subject, i.Detail)
	}
	return out
}

// Tables assembles the full output surface of a run. Analyses that failed
// contribute a row to analysis_errors instead of their tables.
func (p *Pipeline) Tables(res *Result) *report.Set {
	var set report.Set
	set.Add(ValidationTables(p.Report)...)
	set.Add(JoinedTable(p.Table), DerivedTable(p.Table), SummaryTable(res.Summary))
	if res.Correlation != nil {
		set.Add(CorrelationTables(res.Correlation)...)
	}
	if res.Clusters != nil {
		set.Add(ClusterTables(res.Clusters)...)
	}
	if res.Rankings != nil {
		set.Add(RankingTables(res.Rankings, p.opt.Ranking.TopVideoMetric)...)
	}
	set.Add(GuardsTable(res.Guards), InsightsTable(res.Insights))

	errs := &report.Table{Name: TableAnalysisErrors, Columns: []string{"analysis", "error"}}
	for _, e := range []struct {
		name string
		err  error
	}{{"correlation", res.CorrelationErr}, {"cluster", res.ClusterErr}, {"ranking", res.RankingErr}} {
		if e.err != nil {
			errs.Append(e.name, e.err.Error())
		}
	}
	set.Add(errs)
	return &set
}
