package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/organizador/platform/internal/config"
	"github.com/organizador/platform/internal/domain/campaign"
	"github.com/organizador/platform/internal/httpapi"
	"github.com/organizador/platform/internal/logger"
	"github.com/organizador/platform/internal/seed"
	"github.com/organizador/platform/internal/server"
	"github.com/organizador/platform/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	logr := logger.New(cfg.Env)
	if err := run(cfg, logr); err != nil {
		logr.Error("campaign api stopped", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logr *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backend, err := storage.Open(ctx, cfg, logr)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := backend.Close(); cerr != nil {
			logr.Error("error closing database", "err", cerr)
		}
	}()

	service := campaign.NewService(backend.Campaign(), nil)
	if cfg.SeedSampleData {
		members, err := service.ListMembers(ctx, campaign.MemberFilter{})
		if err != nil {
			return err
		}
		if len(members) == 0 {
			summary, err := seed.Campaign(ctx, service, time.Now())
			if err != nil {
				return err
			}
			logr.Info("seeded campaign data", "members", summary.Members, "events", summary.Events)
		}
	}

	var registry *prometheus.Registry
	if cfg.MetricsEnabled {
		registry = prometheus.NewRegistry()
	}
	srv := server.New(cfg, cfg.CampaignHTTPPort, logr, registry)
	httpapi.RegisterCampaign(srv.Mux(), logr, service)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Run)
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
