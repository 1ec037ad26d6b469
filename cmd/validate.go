package cmd

import (
	"fmt"

	"github.com/KaramelBytes/shortform-signals/internal/analysis"
	"github.com/KaramelBytes/shortform-signals/internal/dataset"
	"github.com/KaramelBytes/shortform-signals/internal/report"
	"github.com/KaramelBytes/shortform-signals/internal/utils"
	"github.com/spf13/cobra"
)

var (
	valStrict bool
	valOutput string
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Load, validate and join the input tables and print the validation report",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := openInputs(cmdContext(cmd))
		if err != nil {
			return err
		}
		defer in.close()
		ds, rep, err := dataset.NewLoader(appLog.With("component", "loader")).Load(cmdContext(cmd), in.sources)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, t := range analysis.ValidationTables(rep) {
			report.Render(out, t)
			fmt.Fprintln(out)
		}
		fmt.Fprintf(out, "videos=%d creators=%d platforms=%d issues=%d\n",
			ds.NumVideos(), ds.NumCreators(), ds.NumPlatforms(), len(rep.Issues))
		if valOutput != "" {
			b, err := utils.PrettyJSON(rep)
			if err != nil {
				return fmt.Errorf("marshal report: %w", err)
			}
			if err := utils.SafeWriteFile(valOutput, b); err != nil {
				return err
			}
			fmt.Fprintf(out, "✓ Wrote validation report to %s\n", valOutput)
		}
		if valStrict {
			return rep.Err()
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	addInputFlags(validateCmd)
	validateCmd.Flags().BoolVar(&valStrict, "strict", false, "fail when any row was rejected")
	validateCmd.Flags().StringVarP(&valOutput, "output", "o", "", "optional path to write the report as JSON")
}
