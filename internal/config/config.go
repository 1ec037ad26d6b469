package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	// Input tables; each may be a CSV/TSV file or an XLSX workbook
	// ("book.xlsx#Sheet").
	VideosFile    string `mapstructure:"videos_file" yaml:"videos_file"`
	CreatorsFile  string `mapstructure:"creators_file" yaml:"creators_file"`
	PlatformsFile string `mapstructure:"platforms_file" yaml:"platforms_file"`
	Delimiter     string `mapstructure:"delimiter" yaml:"delimiter"`
	Sheet         string `mapstructure:"sheet" yaml:"sheet"`

	// Relational store, used when no files are given
	DBDriver string `mapstructure:"db_driver" yaml:"db_driver"`
	DBDSN    string `mapstructure:"db_dsn" yaml:"db_dsn"`

	OutputDir    string `mapstructure:"output_dir" yaml:"output_dir"`
	OutputFormat string `mapstructure:"output_format" yaml:"output_format"`
	LogMode      string `mapstructure:"log_mode" yaml:"log_mode"`
	ServeAddr    string `mapstructure:"serve_addr" yaml:"serve_addr"`

	Analysis Analysis `mapstructure:"analysis" yaml:"analysis"`
}

// Analysis holds the thresholds and parameters passed to each analysis.
type Analysis struct {
	HookLowMax            float64  `mapstructure:"hook_low_max" yaml:"hook_low_max"`
	HookHighMin           float64  `mapstructure:"hook_high_min" yaml:"hook_high_min"`
	DurationEdges         []int64  `mapstructure:"duration_edges" yaml:"duration_edges"`
	ClusterK              int      `mapstructure:"cluster_k" yaml:"cluster_k"`
	ClusterSeed           uint64   `mapstructure:"cluster_seed" yaml:"cluster_seed"`
	ClusterMaxIter        int      `mapstructure:"cluster_max_iter" yaml:"cluster_max_iter"`
	ClusterFeatures       []string `mapstructure:"cluster_features" yaml:"cluster_features"`
	CorrelationMetrics    []string `mapstructure:"correlation_metrics" yaml:"correlation_metrics"`
	CorrelationMinSamples int      `mapstructure:"correlation_min_samples" yaml:"correlation_min_samples"`
	TopN                  int      `mapstructure:"top_n" yaml:"top_n"`
	TopVideos             int      `mapstructure:"top_videos" yaml:"top_videos"`
	TopVideoMetric        string   `mapstructure:"top_video_metric" yaml:"top_video_metric"`
}

// Dir is the default configuration directory, ~/.shortform-signals.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".shortform-signals"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.shortform-signals/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := Dir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	// every key needs a default so AutomaticEnv can see it during Unmarshal
	v.SetDefault("videos_file", "")
	v.SetDefault("creators_file", "")
	v.SetDefault("platforms_file", "")
	v.SetDefault("sheet", "")
	v.SetDefault("delimiter", "")
	v.SetDefault("db_driver", "sqlite")
	v.SetDefault("db_dsn", "")
	v.SetDefault("output_dir", "signals-out")
	v.SetDefault("output_format", "csv")
	v.SetDefault("log_mode", "prod")
	v.SetDefault("serve_addr", "127.0.0.1:8080")

	v.SetDefault("analysis.hook_low_max", 0.3)
	v.SetDefault("analysis.hook_high_min", 0.7)
	v.SetDefault("analysis.duration_edges", []int64{15, 30, 45, 60})
	v.SetDefault("analysis.cluster_k", 4)
	v.SetDefault("analysis.cluster_seed", 42)
	v.SetDefault("analysis.cluster_max_iter", 300)
	v.SetDefault("analysis.cluster_features", []string{"views", "likes", "shares", "retention_rate", "engagement_rate"})
	v.SetDefault("analysis.correlation_metrics", []string{
		"views", "likes", "comments", "shares", "watch_time", "full_views",
		"hook_watch_rate", "retention_rate", "engagement_rate",
		"avg_watch_time_per_view", "like_to_view_ratio", "share_to_view_ratio",
	})
	v.SetDefault("analysis.correlation_min_samples", 2)
	v.SetDefault("analysis.top_n", 10)
	v.SetDefault("analysis.top_videos", 20)
	v.SetDefault("analysis.top_video_metric", "retention_rate")
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("SIGNALS")
	// SIGNALS_ANALYSIS_CLUSTER_K maps to analysis.cluster_k
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		// a missing file is fine; a broken one is not
		var nf viper.ConfigFileNotFoundError
		if !errors.As(err, &nf) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}
