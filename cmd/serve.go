package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/KaramelBytes/shortform-signals/internal/httpapi"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run every analysis once and serve the result tables as JSON over HTTP",
	Long: `serve computes the same tables as analyze and exposes them read-only:

  GET /healthz              status, run id and table count
  GET /tables               table names with columns and row counts
  GET /tables/{name}        one table (columns + rows)
  GET /tables/{name}?shape=records   one table as an array of objects`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmdContext(cmd), os.Interrupt, syscall.SIGTERM)
		defer stop()

		p, _, err := loadPipeline(cmd)
		if err != nil {
			return err
		}
		res, err := p.RunAll(ctx)
		if err != nil {
			return err
		}
		if aerr := res.Err(); aerr != nil {
			appLog.Warn("analysis incomplete", "error", aerr.Error())
		}
		runID := uuid.NewString()
		log := appLog.With("component", "http", "run_id", runID)
		h := httpapi.NewRouter(p.Tables(res), runID, log)
		return httpapi.Serve(ctx, firstNonEmpty(serveAddr, cfg.ServeAddr), h, log)
	},
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func init() {
	rootCmd.AddCommand(serveCmd)
	addInputFlags(serveCmd)
	addClusterFlags(serveCmd.Flags())
	addCorrelationFlags(serveCmd.Flags())
	addRankingFlags(serveCmd.Flags())
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config: 127.0.0.1:8080)")
}
