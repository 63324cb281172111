package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"cropchain/internal/platform/httpserver"
)

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := loadRuntime()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := buildApp(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer a.Close()

			g, gctx := errgroup.WithContext(ctx)
			srv := httpserver.New(cfg.Server.Addr, a.handler)
			g.Go(func() error {
				return httpserver.Run(gctx, srv, cfg.Server.ShutdownTimeout, log)
			})
			for _, task := range a.background {
				g.Go(func() error { return task(gctx) })
			}
			if err := g.Wait(); err != nil && err != context.Canceled {
				return err
			}
			log.Info("shutdown complete")
			return nil
		},
	}
}
