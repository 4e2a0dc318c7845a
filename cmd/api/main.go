package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/organizador/platform/internal/config"
	"github.com/organizador/platform/internal/domain"
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
		logr.Error("tracker api stopped", "err", err)
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

	services, err := domain.New(backend.Options(nil))
	if err != nil {
		return err
	}
	if err := prepareUsers(ctx, cfg, logr, services); err != nil {
		return err
	}

	srv := server.New(cfg, cfg.HTTPPort, logr, newRegistry(cfg))
	httpapi.Register(srv.Mux(), logr, services, httpapi.Options{
		DefaultUserID: cfg.DefaultUserID,
		Backend:       backend.Name,
		Persistent:    backend.Persistent,
	})

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

// prepareUsers ensures the default users exist and, when asked, gives each
// one without categories the sample profile.
func prepareUsers(ctx context.Context, cfg config.Config, logr *slog.Logger, services domain.Container) error {
	defaults, err := services.Users.EnsureDefaults(ctx)
	if err != nil {
		return err
	}
	if !cfg.SeedSampleData {
		return nil
	}
	for _, u := range defaults {
		existing, err := services.Categories.List(ctx, u.ID)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			continue
		}
		summary, err := seed.Tracker(ctx, services, u.ID, seed.ProfileSample)
		if err != nil {
			return err
		}
		logr.Info("seeded sample data", "user_id", u.ID, "activities", summary.Activities)
	}
	return nil
}

func newRegistry(cfg config.Config) *prometheus.Registry {
	if !cfg.MetricsEnabled {
		return nil
	}
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return registry
}
