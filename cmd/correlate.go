package cmd

import (
	"fmt"
	"strconv"

	"github.com/KaramelBytes/shortform-signals/internal/analysis"
	"github.com/KaramelBytes/shortform-signals/internal/report"
	"github.com/spf13/cobra"
)

var corPairs int

var correlateCmd = &cobra.Command{
	Use:   "correlate",
	Short: "Compute the pairwise Pearson correlation matrix over the derived table",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, _, err := loadPipeline(cmd)
		if err != nil {
			return err
		}
		m, err := p.Correlate()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		report.Render(out, analysis.CorrelationTables(m)[0])
		fmt.Fprintln(out)

		top := &report.Table{Name: "strongest_pairs", Columns: []string{"metric_a", "metric_b", "r", "n"}}
		for _, pr := range m.TopPairs(corPairs) {
			top.Append(pr.A, pr.B, strconv.FormatFloat(pr.R, 'f', 4, 64), strconv.Itoa(pr.N))
		}
		report.Render(out, top)
		for _, g := range m.Guards() {
			appLog.Warn("correlation guard", "kind", string(g.Kind), "subject", g.Subject, "count", g.Count)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(correlateCmd)
	addInputFlags(correlateCmd)
	addCorrelationFlags(correlateCmd.Flags())
	correlateCmd.Flags().IntVar(&corPairs, "pairs", 10, "number of strongest pairs to print (0 = all)")
}
