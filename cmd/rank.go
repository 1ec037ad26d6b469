package cmd

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/shortform-signals/internal/analysis"
	"github.com/KaramelBytes/shortform-signals/internal/report"
	"github.com/spf13/cobra"
)

// rank views and the tables each prints
var rankViews = map[string][]string{
	"creators":  {analysis.TableCreatorRanking, analysis.TableUnrankedCreators},
	"formats":   {analysis.TableFormatComparison},
	"niches":    {analysis.TableNicheComparison},
	"platforms": {analysis.TablePlatformComparison},
	"hooks":     {analysis.TableHookComparison},
	"durations": {analysis.TableDurationSummary},
	"videos":    {analysis.TableTopVideos},
}

var rankViewOrder = []string{"creators", "formats", "niches", "platforms", "hooks", "durations", "videos"}

var rankCmd = &cobra.Command{
	Use:       "rank [creators|formats|niches|platforms|hooks|durations|videos]",
	Short:     "Rank creators and compare formats, niches, platforms, hook and duration buckets",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: rankViewOrder,
	RunE: func(cmd *cobra.Command, args []string) error {
		views := rankViewOrder
		if len(args) == 1 {
			v := strings.ToLower(args[0])
			if _, ok := rankViews[v]; !ok {
				return fmt.Errorf("unknown ranking %q (use one of %s)", args[0], strings.Join(rankViewOrder, ", "))
			}
			views = []string{v}
		}
		p, _, err := loadPipeline(cmd)
		if err != nil {
			return err
		}
		r, err := p.Rank()
		if err != nil {
			return err
		}
		byName := map[string]*report.Table{}
		for _, t := range analysis.RankingTables(r, p.Options().Ranking.TopVideoMetric) {
			byName[t.Name] = t
		}
		out := cmd.OutOrStdout()
		for i, v := range views {
			for _, name := range rankViews[v] {
				t := byName[name]
				if name == analysis.TableUnrankedCreators && len(t.Rows) == 0 {
					continue
				}
				if i > 0 || name != rankViews[v][0] {
					fmt.Fprintln(out)
				}
				report.Render(out, t)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(rankCmd)
	addInputFlags(rankCmd)
	addRankingFlags(rankCmd.Flags())
}
