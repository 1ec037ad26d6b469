package cmd

import (
	"fmt"

	"github.com/KaramelBytes/shortform-signals/internal/report"
	"github.com/spf13/cobra"
)

var (
	anaOutputDir string
	anaFormat    string
	anaQuiet     bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run validation, correlation, clustering and ranking and write every table",
	Long: `analyze loads and validates the three tables, derives metrics and runs the
correlation, clustering and ranking analyses concurrently. Every output table is
written to --output in --format (csv, json, md or xlsx) together with a
manifest.json; a Markdown report is printed to stdout.

An analysis that cannot run (for example k larger than the number of videos)
is reported in analysis_errors while the other outputs are still written.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := report.ParseFormat(firstNonEmpty(anaFormat, cfg.OutputFormat))
		if err != nil {
			return err
		}
		p, inputs, err := loadPipeline(cmd)
		if err != nil {
			return err
		}
		res, err := p.RunAll(cmdContext(cmd))
		if err != nil {
			return err
		}
		if aerr := res.Err(); aerr != nil {
			appLog.Warn("analysis incomplete", "error", aerr.Error())
		}

		dir := firstNonEmpty(anaOutputDir, cfg.OutputDir)
		m, err := report.Save(dir, format, p.Tables(res).Tables(), inputs)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if !anaQuiet {
			fmt.Fprintln(out, p.Markdown(res))
		}
		fmt.Fprintf(out, "✓ Wrote %d tables to %s (run %s)\n", len(m.Files), dir, m.RunID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	addInputFlags(analyzeCmd)
	addClusterFlags(analyzeCmd.Flags())
	addCorrelationFlags(analyzeCmd.Flags())
	addRankingFlags(analyzeCmd.Flags())
	analyzeCmd.Flags().StringVarP(&anaOutputDir, "output", "o", "", "output directory (default from config: signals-out)")
	analyzeCmd.Flags().StringVarP(&anaFormat, "format", "f", "", "output format: csv|json|md|xlsx (default from config)")
	analyzeCmd.Flags().BoolVarP(&anaQuiet, "quiet", "q", false, "do not print the Markdown report")
}
