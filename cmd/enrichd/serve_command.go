package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"enrichd/internal/server"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the webhook and export HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, cleanup, err := ctx.buildRuntime()
			if err != nil {
				return err
			}
			defer cleanup()

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			srv := server.New(rt.cfg, rt.store, rt.reconciler, rt.resolver, rt.media, rt.aristote, rt.logger)
			return srv.ListenAndServe(runCtx)
		},
	}
}
