package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kiranshivaraju/recruitai/internal/batch"
	"github.com/kiranshivaraju/recruitai/internal/mcpserver"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the recruitment tools over MCP on stdin/stdout",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		a, err := newApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		s := mcpserver.New(mcpserver.Deps{
			Recruiter:  a.service,
			Runner:     a.newRunner(batch.NopRecorder{}, batch.WithPace(0)),
			Thresholds: a.thresholds(),
			Version:    version,
			Logger:     a.log,
		})
		a.zap.Info("mcp server listening on stdio")
		return mcpserver.ServeStdio(ctx, s, os.Stdin, os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
