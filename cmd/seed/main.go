package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"log/slog"

	"github.com/spf13/cobra"

	"github.com/organizador/platform/internal/config"
	"github.com/organizador/platform/internal/database"
	"github.com/organizador/platform/internal/domain"
	"github.com/organizador/platform/internal/domain/campaign"
	"github.com/organizador/platform/internal/logger"
	"github.com/organizador/platform/internal/seed"
	"github.com/organizador/platform/internal/storage"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

type env struct {
	cfg    config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	e := &env{}
	root := &cobra.Command{
		Use:          "seed",
		Short:        "Migrate and load sample data into the organizador database",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if !cfg.UsesDatabase() {
				return fmt.Errorf("seed requires DATA_BACKEND=postgres or sqlite, got %s", cfg.DataBackend)
			}
			e.cfg = cfg
			e.logger = logger.NewWithWriter(cmd.ErrOrStderr(), cfg.Env)
			return nil
		},
	}
	root.AddCommand(newMigrateCmd(e), newTrackerCmd(e), newCampaignCmd(e))
	return root
}

func newMigrateCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			db, err := storage.Connect(ctx, e.cfg, e.logger)
			if err != nil {
				return err
			}
			defer db.Close()
			return db.RunMigrations(ctx, database.NewEmbeddedMigrator(db, e.logger))
		},
	}
}

func newTrackerCmd(e *env) *cobra.Command {
	var (
		userID  int64
		profile string
		reset   bool
	)
	cmd := &cobra.Command{
		Use:   "tracker",
		Short: "Load a tracker profile for a user",
		Long: `Load a tracker profile for a user.

Profiles:
  sample  - categories, activities and a reward
  starter - categories only

With --reset the user's tracker data is removed first.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			backend, err := storage.Open(ctx, e.cfg, e.logger)
			if err != nil {
				return err
			}
			defer backend.Close()

			services, err := domain.New(backend.Options(nil))
			if err != nil {
				return err
			}
			if _, err := services.Users.EnsureDefaults(ctx); err != nil {
				return err
			}
			if _, err := services.Users.Get(ctx, userID); err != nil {
				return fmt.Errorf("user %d: %w", userID, err)
			}

			load := seed.Tracker
			if reset {
				load = seed.ResetUser
			}
			summary, err := load(ctx, services, userID, profile)
			if err != nil {
				return err
			}
			e.logger.Info("tracker data loaded",
				"user_id", userID,
				"profile", profile,
				"reset", reset,
				"categories", summary.Categories,
				"activities", summary.Activities,
				"rewards", summary.Rewards,
			)
			return nil
		},
	}
	cmd.Flags().Int64Var(&userID, "user", 1, "user id to load data for")
	cmd.Flags().StringVar(&profile, "profile", seed.ProfileSample, "profile to load (sample|starter)")
	cmd.Flags().BoolVar(&reset, "reset", false, "purge the user's tracker data first")
	return cmd
}

func newCampaignCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "campaign",
		Short: "Load sample campaign members, events, goals and messages",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			backend, err := storage.Open(ctx, e.cfg, e.logger)
			if err != nil {
				return err
			}
			defer backend.Close()

			summary, err := seed.Campaign(ctx, campaign.NewService(backend.Campaign(), nil), time.Now())
			if err != nil {
				return err
			}
			e.logger.Info("campaign data loaded",
				"members", summary.Members,
				"events", summary.Events,
				"goals", summary.Goals,
				"messages", summary.Messages,
			)
			return nil
		},
	}
}
