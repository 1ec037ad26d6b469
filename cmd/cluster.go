package cmd

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/shortform-signals/internal/analysis"
	"github.com/KaramelBytes/shortform-signals/internal/report"
	"github.com/spf13/cobra"
)

var cluAssignments bool

var clusterCmd = &cobra.Command{
	Use:   "cluster",
	Short: "Segment videos with seeded k-means over standardized features",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, _, err := loadPipeline(cmd)
		if err != nil {
			return err
		}
		res, err := p.Cluster()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "k=%d seed=%d iterations=%d converged=%t inertia=%.4f\n",
			res.K, res.Seed, res.Iterations, res.Converged, res.Inertia)
		fmt.Fprintf(out, "features: %s\n", strings.Join(res.Features, ", "))
		if len(res.Excluded) > 0 {
			fmt.Fprintf(out, "excluded (zero variance): %s\n", strings.Join(res.Excluded, ", "))
		}
		if len(res.Skipped) > 0 {
			fmt.Fprintf(out, "skipped videos (undefined feature): %d\n", len(res.Skipped))
		}
		tables := analysis.ClusterTables(res)
		report.Render(out, tables[1])
		if cluAssignments {
			fmt.Fprintln(out)
			report.Render(out, tables[0])
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(clusterCmd)
	addInputFlags(clusterCmd)
	addClusterFlags(clusterCmd.Flags())
	clusterCmd.Flags().BoolVar(&cluAssignments, "assignments", false, "also print the per-video cluster assignments")
}
