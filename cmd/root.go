package cmd

import (
	"fmt"
	"os"

	cfgpkg "github.com/KaramelBytes/shortform-signals/internal/config"
	"github.com/KaramelBytes/shortform-signals/internal/logger"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	debug   bool
	logMode string

	// Loaded configuration and logger, set before every command runs
	cfg    *cfgpkg.Global
	appLog *logger.Logger
)

var rootCmd = &cobra.Command{
	Use:   "signals",
	Short: "Shortform video analytics: validate, derive, correlate, cluster and rank",
	Long: `signals loads the shortform video, creator and platform tables from delimited
files, XLSX workbooks or a relational store, validates and joins them, derives
retention and engagement metrics and produces correlation, clustering and
ranking tables for visualization.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if appLog != nil {
			appLog.Sync()
		}
	},
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	// Persistent global flags available to all subcommands
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.shortform-signals/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging (development encoder)")
	rootCmd.PersistentFlags().StringVar(&logMode, "log-mode", "", "log mode: prod|dev (overrides config)")
}

func setup(cmd *cobra.Command, args []string) error {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		return err
	}
	cfg = c
	mode := cfg.LogMode
	if logMode != "" {
		mode = logMode
	}
	if debug {
		mode = "dev"
	}
	l, err := logger.New(mode)
	if err != nil {
		return err
	}
	appLog = l
	return nil
}
