package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/KaramelBytes/shortform-signals/internal/analysis"
	"github.com/KaramelBytes/shortform-signals/internal/dataset"
	"github.com/KaramelBytes/shortform-signals/internal/source"
	"github.com/KaramelBytes/shortform-signals/internal/store"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// input flags shared by every command that reads the three tables
var (
	inVideos    string
	inCreators  string
	inPlatforms string
	inDelimiter string
	inSheet     string
	inDBDriver  string
	inDBDSN     string
)

func addInputFlags(c *cobra.Command) {
	f := c.Flags()
	f.StringVar(&inVideos, "videos", "", "videos table (CSV/TSV/XLSX, 'book.xlsx#Sheet' selects a sheet)")
	f.StringVar(&inCreators, "creators", "", "creators table (CSV/TSV/XLSX)")
	f.StringVar(&inPlatforms, "platforms", "", "platforms table (CSV/TSV/XLSX)")
	f.StringVar(&inDelimiter, "delimiter", "", "delimiter for flat files: ',' | ';' | '|' | 'tab' (default by extension)")
	f.StringVar(&inSheet, "sheet", "", "XLSX: sheet name (default first sheet)")
	f.StringVar(&inDBDriver, "db-driver", "", "relational store driver: sqlite|postgres (overrides config)")
	f.StringVar(&inDBDSN, "db-dsn", "", "relational store DSN; used when no table files are given")
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func parseDelimiter(s string) (rune, error) {
	switch s {
	case "":
		return 0, nil
	case ",", ";", "|":
		return rune(s[0]), nil
	case "\t", "tab", "\\t":
		return '\t', nil
	}
	return 0, fmt.Errorf("unsupported --delimiter: %s", s)
}

// inputs is an opened set of table sources and a description for the run
// manifest.
type inputs struct {
	sources  dataset.Sources
	describe map[string]string
	close    func() error
}

// fileInputs resolves the three table files from flags and config. ok is
// false when none are set.
func fileInputs() (dataset.Sources, map[string]string, bool, error) {
	videos := firstNonEmpty(inVideos, cfg.VideosFile)
	creators := firstNonEmpty(inCreators, cfg.CreatorsFile)
	platforms := firstNonEmpty(inPlatforms, cfg.PlatformsFile)
	if videos == "" && creators == "" && platforms == "" {
		return dataset.Sources{}, nil, false, nil
	}
	if videos == "" || creators == "" || platforms == "" {
		return dataset.Sources{}, nil, true, fmt.Errorf("--videos, --creators and --platforms are all required when reading files")
	}
	delim, err := parseDelimiter(firstNonEmpty(inDelimiter, cfg.Delimiter))
	if err != nil {
		return dataset.Sources{}, nil, true, err
	}
	opt := source.Options{Delimiter: delim, Sheet: firstNonEmpty(inSheet, cfg.Sheet)}
	var src dataset.Sources
	for _, in := range []struct {
		path string
		dst  *source.Source
	}{{videos, &src.Videos}, {creators, &src.Creators}, {platforms, &src.Platforms}} {
		s, err := source.Open(in.path, opt)
		if err != nil {
			return dataset.Sources{}, nil, true, err
		}
		*in.dst = s
	}
	return src, map[string]string{"videos": videos, "creators": creators, "platforms": platforms}, true, nil
}

func openStore(ctx context.Context) (*store.Store, error) {
	driver, err := store.ParseDriver(firstNonEmpty(inDBDriver, cfg.DBDriver))
	if err != nil {
		return nil, err
	}
	dsn := firstNonEmpty(inDBDSN, cfg.DBDSN)
	if dsn == "" {
		return nil, fmt.Errorf("no database configured: pass --db-dsn or set db_dsn")
	}
	return store.Open(ctx, driver, dsn, appLog.With("component", "store"))
}

// openInputs prefers table files and falls back to the relational store.
func openInputs(ctx context.Context) (*inputs, error) {
	src, desc, ok, err := fileInputs()
	if err != nil {
		return nil, err
	}
	if ok {
		return &inputs{sources: src, describe: desc, close: func() error { return nil }}, nil
	}
	if firstNonEmpty(inDBDSN, cfg.DBDSN) == "" {
		return nil, fmt.Errorf("no input: pass --videos/--creators/--platforms or configure a database (--db-dsn)")
	}
	st, err := openStore(ctx)
	if err != nil {
		return nil, err
	}
	return &inputs{
		sources:  st.Sources(),
		describe: map[string]string{"db_driver": string(st.Driver())},
		close:    st.Close,
	}, nil
}

// analysis flags; each command registers the subset it uses
var (
	anK          int
	anSeed       uint64
	anMaxIter    int
	anFeatures   []string
	anMetrics    []string
	anMinSamples int
	anTop        int
	anTopVideos  int
	anTopMetric  string
)

func addClusterFlags(f *pflag.FlagSet) {
	f.IntVar(&anK, "k", 0, "number of clusters (overrides config)")
	f.Uint64Var(&anSeed, "seed", 0, "random seed for centroid initialization (overrides config)")
	f.IntVar(&anMaxIter, "max-iter", 0, "maximum k-means iterations (overrides config)")
	f.StringSliceVar(&anFeatures, "features", nil, "clustering features (comma-separated metric names)")
}

func addCorrelationFlags(f *pflag.FlagSet) {
	f.StringSliceVar(&anMetrics, "metrics", nil, "metrics to correlate (comma-separated)")
	f.IntVar(&anMinSamples, "min-samples", 0, "minimum pair count per coefficient (overrides config)")
}

func addRankingFlags(f *pflag.FlagSet) {
	f.IntVar(&anTop, "top", 0, "number of creators to rank (overrides config)")
	f.IntVar(&anTopVideos, "top-videos", 0, "number of top videos to list (overrides config)")
	f.StringVar(&anTopMetric, "top-metric", "", "metric ranking the top videos (overrides config)")
}

// analysisOptions starts from config and applies any changed flags.
func analysisOptions(cmd *cobra.Command) analysis.Options {
	o := analysis.FromConfig(cfg.Analysis)
	changed := func(name string) bool {
		fl := cmd.Flags().Lookup(name)
		return fl != nil && fl.Changed
	}
	if changed("k") {
		o.Cluster.K = anK
	}
	if changed("seed") {
		o.Cluster.Seed = anSeed
	}
	if changed("max-iter") {
		o.Cluster.MaxIter = anMaxIter
	}
	if changed("features") {
		o.Cluster.Features = anFeatures
	}
	if changed("metrics") {
		o.Correlation.Metrics = anMetrics
	}
	if changed("min-samples") {
		o.Correlation.MinSamples = anMinSamples
	}
	if changed("top") {
		o.Ranking.TopN = anTop
	}
	if changed("top-videos") {
		o.Ranking.TopVideos = anTopVideos
	}
	if changed("top-metric") {
		o.Ranking.TopVideoMetric = anTopMetric
	}
	return o
}

// loadPipeline opens the inputs and builds the pipeline.
func loadPipeline(cmd *cobra.Command) (*analysis.Pipeline, map[string]string, error) {
	ctx := cmdContext(cmd)
	in, err := openInputs(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer in.close()
	p, err := analysis.Load(ctx, in.sources, analysisOptions(cmd), appLog)
	if err != nil {
		return nil, nil, err
	}
	return p, in.describe, nil
}
