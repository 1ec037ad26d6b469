package cmd

import (
	"fmt"

	"github.com/KaramelBytes/shortform-signals/internal/dataset"
	"github.com/spf13/cobra"
)

var dbStrict bool

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the relational store holding the three tables",
}

var dbInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the videos, creators and platforms tables if missing",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmdContext(cmd))
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.InitSchema(cmdContext(cmd)); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Initialized %s schema\n", st.Driver())
		return nil
	},
}

var dbLoadCmd = &cobra.Command{
	Use:   "load",
	Short: "Validate table files and replace the store contents with the accepted rows",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		src, _, ok, err := fileInputs()
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("db load needs --videos, --creators and --platforms")
		}
		ds, rep, err := dataset.NewLoader(appLog.With("component", "loader")).Load(cmdContext(cmd), src)
		if err != nil {
			return err
		}
		if dbStrict {
			if err := rep.Err(); err != nil {
				return err
			}
		}
		st, err := openStore(cmdContext(cmd))
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.Replace(cmdContext(cmd), ds); err != nil {
			return err
		}
		counts, err := st.Counts(cmdContext(cmd))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Loaded %d videos, %d creators, %d platforms (%d issues)\n",
			counts[dataset.TableVideos], counts[dataset.TableCreators], counts[dataset.TablePlatforms], len(rep.Issues))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dbCmd)
	dbCmd.AddCommand(dbInitCmd)
	dbCmd.AddCommand(dbLoadCmd)
	addInputFlags(dbInitCmd)
	addInputFlags(dbLoadCmd)
	dbLoadCmd.Flags().BoolVar(&dbStrict, "strict", false, "refuse to load when any row was rejected")
}
