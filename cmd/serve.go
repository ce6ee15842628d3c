package main

import (
	"os"
	"os/signal"
	"syscall"

	srv "github.com/mohammad-safakhou/verisearch/internal/server"
	"github.com/spf13/cobra"
)

func serveCMD(cfgPath *string) *cobra.Command {
	var serveAddr string
	var serve = &cobra.Command{
		Use:   "serve",
		Short: "Run HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, *cfgPath)
			if err != nil {
				return err
			}
			defer a.close()

			serverCfg := a.cfg.Server
			if serveAddr != "" {
				serverCfg.Address = serveAddr
			}
			return srv.New(serverCfg, a.pipeline, a.cfg.Research.Bullets, a.metrics, a.logger).Run(ctx)
		},
	}
	serve.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides server.address)")

	return serve
}
