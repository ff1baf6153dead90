package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/sigilchat/client-go/internal/api"
	"github.com/sigilchat/client-go/internal/keyserver"
	"github.com/sigilchat/client-go/internal/metrics"
)

func (a *app) keyserverCmd() *cobra.Command {
	var (
		addr      string
		seedUsers []string
	)

	cmd := &cobra.Command{
		Use:   "keyserver",
		Short: "Run an in-memory development key-distribution server",
		Long: "Run an in-memory development key-distribution server. Callers are\n" +
			"identified by their bearer token without authentication; never expose\n" +
			"it beyond a development machine.",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

			users := make([]api.User, 0, len(seedUsers))
			for _, id := range seedUsers {
				users = append(users, api.User{ID: id})
			}

			srv := &http.Server{
				Addr: addr,
				Handler: keyserver.New(
					keyserver.WithLogger(a.logger),
					keyserver.WithMetrics(metrics.New(reg)),
					keyserver.WithMetricsEndpoint(reg),
					keyserver.WithUsers(users...),
				),
				ReadHeaderTimeout: 10 * time.Second,
			}
			return serve(cmd.Context(), srv, a)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")
	cmd.Flags().StringSliceVar(&seedUsers, "user", nil, "user ids to seed the directory with")
	return cmd
}

func serve(ctx context.Context, srv *http.Server, a *app) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.WithField("addr", srv.Addr).Warn("development key server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
