// Package analysis wires the stages together: load, derive, then the
// independent correlation, clustering and ranking analyses over one
// immutable derived table.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/KaramelBytes/shortform-signals/internal/cluster"
	"github.com/KaramelBytes/shortform-signals/internal/correlation"
	"github.com/KaramelBytes/shortform-signals/internal/dataset"
	"github.com/KaramelBytes/shortform-signals/internal/logger"
	"github.com/KaramelBytes/shortform-signals/internal/metrics"
	"github.com/KaramelBytes/shortform-signals/internal/ranking"
)

// Pipeline holds the validated dataset, its load report and the derived
// table. None of them change after construction.
type Pipeline struct {
	Dataset *dataset.Dataset
	Report  *dataset.Report
	Table   *metrics.Table

	opt Options
	log *logger.Logger
}

// Load reads and validates the sources, then derives metrics. A schema
// error aborts; rejected rows are only reported.
func Load(ctx context.Context, src dataset.Sources, opt Options, log *logger.Logger) (*Pipeline, error) {
	log = logger.OrNop(log)
	start := time.Now()
	ds, rep, err := dataset.NewLoader(log.With("stage", "load")).Load(ctx, src)
	if err != nil {
		return nil, err
	}
	log.Debug("stage finished", "stage", "load", "elapsed", time.Since(start))
	return New(ds, rep, opt, log)
}

// New derives metrics for an already loaded dataset.
func New(ds *dataset.Dataset, rep *dataset.Report, opt Options, log *logger.Logger) (*Pipeline, error) {
	log = logger.OrNop(log)
	if rep == nil {
		rep = &dataset.Report{}
	}
	start := time.Now()
	tbl, err := metrics.Derive(ds, opt.Metrics)
	if err != nil {
		return nil, fmt.Errorf("derive metrics: %w", err)
	}
	for _, g := range tbl.Guards() {
		log.Warn("computation guard", "kind", g.Kind, "subject", g.Subject, "count", g.Count)
	}
	log.Debug("stage finished", "stage", "derive", "videos", tbl.Len(), "elapsed", time.Since(start))
	return &Pipeline{Dataset: ds, Report: rep, Table: tbl, opt: opt, log: log}, nil
}

func (p *Pipeline) Options() Options { return p.opt }

// Correlate computes the correlation matrix.
func (p *Pipeline) Correlate() (*correlation.Matrix, error) {
	return correlation.Compute(p.Table, p.opt.Correlation)
}

// Cluster runs k-means over the configured features.
func (p *Pipeline) Cluster() (*cluster.Result, error) {
	return cluster.Run(p.Table, p.opt.Cluster)
}

// Rankings groups the ranking and comparison outputs.
type Rankings struct {
	Creators  *ranking.CreatorRanking `json:"creators"`
	Formats   *ranking.Comparison     `json:"formats"`
	Niches    *ranking.Comparison     `json:"niches"`
	Platforms *ranking.Comparison     `json:"platforms"`
	HookRates *ranking.Comparison     `json:"hook_rates"`
	Durations *ranking.Comparison     `json:"durations"`
	TopVideos []ranking.VideoRank     `json:"top_videos"`
}

// Rank builds every ranking and comparison. The first failure aborts.
func (p *Pipeline) Rank() (*Rankings, error) {
	o := p.opt.Ranking
	var (
		r   Rankings
		err error
	)
	if r.Creators, err = ranking.TopCreators(p.Table, o.TopN); err != nil {
		return nil, err
	}
	for _, c := range []struct {
		dim metrics.Dimension
		dst **ranking.Comparison
	}{
		{metrics.ByFormat, &r.Formats},
		{metrics.ByNiche, &r.Niches},
		{metrics.ByPlatform, &r.Platforms},
		{metrics.ByHookBucket, &r.HookRates},
	} {
		if *c.dst, err = ranking.Compare(p.Table, c.dim, o.CompareMetrics); err != nil {
			return nil, fmt.Errorf("compare by %s: %w", c.dim, err)
		}
	}
	if r.Durations, err = ranking.DurationSummary(p.Table, o.CompareMetrics); err != nil {
		return nil, fmt.Errorf("duration summary: %w", err)
	}
	if r.TopVideos, err = ranking.TopVideos(p.Table, o.TopVideoMetric, o.TopVideos); err != nil {
		return nil, err
	}
	return &r, nil
}

// Result collects the outcome of RunAll. A failed analysis leaves its
// output nil and records its error; the others still run.
type Result struct {
	Summary     metrics.Summary            `json:"summary"`
	Correlation *correlation.Matrix        `json:"correlation,omitempty"`
	Clusters    *cluster.Result            `json:"clusters,omitempty"`
	Rankings    *Rankings                  `json:"rankings,omitempty"`
	Guards      []metrics.ComputationGuard `json:"guards"`
	Insights    []Insight                  `json:"insights"`

	CorrelationErr error `json:"-"`
	ClusterErr     error `json:"-"`
	RankingErr     error `json:"-"`
}

// Err joins the per-analysis errors.
func (r *Result) Err() error {
	return errors.Join(r.CorrelationErr, r.ClusterErr, r.RankingErr)
}

// RunAll runs the three analyses concurrently over the shared read-only
// table. Analysis errors are captured in the result; only cancellation is
// returned.
func (p *Pipeline) RunAll(ctx context.Context) (*Result, error) {
	res := &Result{Summary: p.Table.Summary()}
	g, ctx := errgroup.WithContext(ctx)
	timed := func(stage string, f func()) func() error {
		return func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			f()
			p.log.Debug("stage finished", "stage", stage, "elapsed", time.Since(start))
			return nil
		}
	}
	g.Go(timed("correlate", func() { res.Correlation, res.CorrelationErr = p.Correlate() }))
	g.Go(timed("cluster", func() { res.Clusters, res.ClusterErr = p.Cluster() }))
	g.Go(timed("rank", func() { res.Rankings, res.RankingErr = p.Rank() }))
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res.Guards = append(res.Guards, p.Table.Guards()...)
	if res.Correlation != nil {
		res.Guards = append(res.Guards, res.Correlation.Guards()...)
	}
	if res.Clusters != nil {
		res.Guards = append(res.Guards, res.Clusters.Guards...)
	}
	for name, err := range map[string]error{"correlation": res.CorrelationErr, "cluster": res.ClusterErr, "ranking": res.RankingErr} {
		if err != nil {
			p.log.Error("analysis failed", "analysis", name, "error", err)
		}
	}
	res.Insights = p.Insights(res)
	return res, nil
}
