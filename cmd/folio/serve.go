package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/folio/internal/api"
)

func addServe(topLevel *cobra.Command, g *globalOptions) {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve documents over HTTP.",
		Example: `
folio serve
folio serve --addr :9000
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := g.load(ctx, true)
			if err != nil {
				return err
			}
			defer a.Config.Close()

			if addr == "" {
				addr = a.Config.Settings().Server.Addr
			}
			srv := api.NewServer(a, a.Logger)
			defer srv.Close()

			httpServer := &http.Server{
				Addr:         addr,
				Handler:      srv,
				ReadTimeout:  30 * time.Second,
				WriteTimeout: 120 * time.Second,
				IdleTimeout:  60 * time.Second,
			}

			go func() {
				<-ctx.Done()
				a.Logger.Info("shutting down...")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				httpServer.Shutdown(shutdownCtx)
			}()

			a.Logger.Info("starting folio", "addr", addr, "data", a.Store.BasePath())
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default server.addr).")
	topLevel.AddCommand(cmd)
}
