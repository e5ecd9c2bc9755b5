// cmd/safetails/serve.go

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"safetails/internal/adapter/events"
	"safetails/internal/metrics"
	"safetails/internal/server"
	"safetails/internal/service/feed"
	proximitysvc "safetails/internal/service/proximity"
)

func serveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, NATS responder and live alert feed",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	stores, closeStores, err := a.openStores(ctx)
	if err != nil {
		return fmt.Errorf("failed to open stores: %w", err)
	}
	defer closeStores()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	svc := proximitysvc.NewService(stores, a.cfg.Proximity, a.logger, m)
	hub := feed.NewHub(a.logger, m)
	defer hub.Close()

	if a.cfg.NATS.Enabled {
		nc, err := events.Connect(a.cfg.NATS, a.logger)
		if err != nil {
			return err
		}
		defer nc.Close()

		responder := events.NewResponder(nc, a.cfg.NATS.SubjectPrefix, svc, a.cfg.Proximity.QueryTimeout, a.logger)
		if err := responder.Start(); err != nil {
			return fmt.Errorf("failed to start NATS responder: %w", err)
		}
		defer responder.Stop()

		alertFeed := events.NewAlertFeed(nc, a.cfg.NATS.SubjectPrefix, hub, a.logger)
		if err := alertFeed.Start(); err != nil {
			return fmt.Errorf("failed to start alert feed: %w", err)
		}
		defer alertFeed.Stop()
	}

	httpServer := server.NewServer(a.cfg.Server, server.Dependencies{
		Proximity: svc,
		Hub:       hub,
		Gatherer:  reg,
		Logger:    a.logger,
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info("starting HTTP server",
			zap.String("host", a.cfg.Server.Host),
			zap.Int("port", a.cfg.Server.Port),
			zap.String("store", a.cfg.Store.Driver),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("HTTP server shutdown error", zap.Error(err))
			return err
		}
		return nil
	})

	err = g.Wait()
	a.logger.Info("shutdown complete")
	return err
}
