package cmd

import (
	"fmt"
	"strconv"
	"strings"

	cfgpkg "github.com/KaramelBytes/shortform-signals/internal/config"
	"github.com/KaramelBytes/shortform-signals/internal/report"
	"github.com/KaramelBytes/shortform-signals/internal/store"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set signals configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if cfg == nil {
			fmt.Fprintln(out, "No config loaded")
			return nil
		}
		fmt.Fprintf(out, "videos_file: %s\n", cfg.VideosFile)
		fmt.Fprintf(out, "creators_file: %s\n", cfg.CreatorsFile)
		fmt.Fprintf(out, "platforms_file: %s\n", cfg.PlatformsFile)
		if cfg.Delimiter != "" {
			fmt.Fprintf(out, "delimiter: %q\n", cfg.Delimiter)
		}
		if cfg.Sheet != "" {
			fmt.Fprintf(out, "sheet: %s\n", cfg.Sheet)
		}
		fmt.Fprintf(out, "db_driver: %s\n", cfg.DBDriver)
		fmt.Fprintf(out, "db_dsn: %s\n", mask(cfg.DBDSN))
		fmt.Fprintf(out, "output_dir: %s\n", cfg.OutputDir)
		fmt.Fprintf(out, "output_format: %s\n", cfg.OutputFormat)
		fmt.Fprintf(out, "log_mode: %s\n", cfg.LogMode)
		fmt.Fprintf(out, "serve_addr: %s\n", cfg.ServeAddr)
		a := cfg.Analysis
		fmt.Fprintf(out, "analysis.hook_low_max: %.3f\n", a.HookLowMax)
		fmt.Fprintf(out, "analysis.hook_high_min: %.3f\n", a.HookHighMin)
		fmt.Fprintf(out, "analysis.duration_edges: %v\n", a.DurationEdges)
		fmt.Fprintf(out, "analysis.cluster_k: %d\n", a.ClusterK)
		fmt.Fprintf(out, "analysis.cluster_seed: %d\n", a.ClusterSeed)
		fmt.Fprintf(out, "analysis.cluster_max_iter: %d\n", a.ClusterMaxIter)
		fmt.Fprintf(out, "analysis.cluster_features: %s\n", strings.Join(a.ClusterFeatures, ","))
		fmt.Fprintf(out, "analysis.correlation_metrics: %s\n", strings.Join(a.CorrelationMetrics, ","))
		fmt.Fprintf(out, "analysis.correlation_min_samples: %d\n", a.CorrelationMinSamples)
		fmt.Fprintf(out, "analysis.top_n: %d\n", a.TopN)
		fmt.Fprintf(out, "analysis.top_videos: %d\n", a.TopVideos)
		fmt.Fprintf(out, "analysis.top_video_metric: %s\n", a.TopVideoMetric)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		if cfg == nil {
			c, err := cfgpkg.Load(cfgFile)
			if err != nil {
				return err
			}
			cfg = c
		}
		if err := setConfigKey(cfg, key, val); err != nil {
			return err
		}
		if err := cfgpkg.Save(cfg, cfgFile); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

func setConfigKey(c *cfgpkg.Global, key, val string) error {
	a := &c.Analysis
	switch strings.TrimPrefix(key, "analysis.") {
	case "videos_file":
		c.VideosFile = val
	case "creators_file":
		c.CreatorsFile = val
	case "platforms_file":
		c.PlatformsFile = val
	case "delimiter":
		if _, err := parseDelimiter(val); err != nil {
			return err
		}
		c.Delimiter = val
	case "sheet":
		c.Sheet = val
	case "db_driver":
		d, err := store.ParseDriver(val)
		if err != nil {
			return err
		}
		c.DBDriver = string(d)
	case "db_dsn":
		c.DBDSN = val
	case "output_dir":
		c.OutputDir = val
	case "output_format":
		f, err := report.ParseFormat(val)
		if err != nil {
			return err
		}
		c.OutputFormat = string(f)
	case "log_mode":
		switch strings.ToLower(val) {
		case "prod", "production", "dev", "development":
			c.LogMode = strings.ToLower(val)
		default:
			return fmt.Errorf("invalid log_mode: %s (use prod or dev)", val)
		}
	case "serve_addr":
		c.ServeAddr = val
	case "hook_low_max":
		return setFloat(&a.HookLowMax, key, val)
	case "hook_high_min":
		return setFloat(&a.HookHighMin, key, val)
	case "duration_edges":
		var edges []int64
		for _, part := range splitList(val) {
			e, err := strconv.ParseInt(part, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid int list for %s: %v", key, val)
			}
			edges = append(edges, e)
		}
		a.DurationEdges = edges
	case "cluster_k":
		return setPositiveInt(&a.ClusterK, key, val)
	case "cluster_seed":
		s, err := strconv.ParseUint(val, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid uint for %s: %v", key, val)
		}
		a.ClusterSeed = s
	case "cluster_max_iter":
		return setPositiveInt(&a.ClusterMaxIter, key, val)
	case "cluster_features":
		a.ClusterFeatures = splitList(val)
	case "correlation_metrics":
		a.CorrelationMetrics = splitList(val)
	case "correlation_min_samples":
		return setPositiveInt(&a.CorrelationMinSamples, key, val)
	case "top_n":
		return setPositiveInt(&a.TopN, key, val)
	case "top_videos":
		return setPositiveInt(&a.TopVideos, key, val)
	case "top_video_metric":
		a.TopVideoMetric = val
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return nil
}

func setFloat(dst *float64, key, val string) error {
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return fmt.Errorf("invalid float for %s: %w", key, err)
	}
	*dst = f
	return nil
}

func setPositiveInt(dst *int, key, val string) error {
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return fmt.Errorf("invalid positive int for %s: %v", key, val)
	}
	*dst = i
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 6 {
		return "******"
	}
	return s[:3] + "****" + s[len(s)-3:]
}
