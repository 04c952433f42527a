package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/talgya/pubsim/internal/api"
	"github.com/talgya/pubsim/internal/config"
	"github.com/talgya/pubsim/internal/engine"
	"github.com/talgya/pubsim/internal/events"
)

func newServeCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the pub in real time behind the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
	cmd.Flags().StringVar(&cfg.APIAddr, "addr", cfg.APIAddr, "API listen address (PUBSIM_API_ADDR)")
	cmd.Flags().StringVar(&cfg.AdminKey, "admin-key", cfg.AdminKey, "bearer token for admin endpoints (PUBSIM_ADMIN_KEY)")
	cmd.Flags().DurationVar(&cfg.RoundInterval, "interval", cfg.RoundInterval, "wall-clock time per round (PUBSIM_ROUND_INTERVAL)")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	sess, err := newSession(cfg, cfg.RoundInterval, events.SlogSink{})
	if err != nil {
		return err
	}
	defer sess.close()

	if cfg.AdminKey == "" {
		slog.Warn("PUBSIM_ADMIN_KEY not set, admin endpoints will be disabled")
	}
	sess.eng.OnWeek = func(sim *engine.Simulation, week int) {
		if w := sim.LastWeek; w != nil {
			slog.Info("week closed", "week", week, "profit", money(w.Profit), "cash", money(w.Cash), "reputation", w.Reputation)
		}
	}

	srv := &api.Server{
		Eng:      sess.eng,
		DB:       sess.db,
		RunID:    sess.runID,
		AdminKey: cfg.AdminKey,
	}

	// The engine stopping (game over) does not stop the API; the final state
	// stays readable until the process is signalled.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := sess.eng.Run(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error { return srv.ListenAndServe(gctx, cfg.APIAddr) })

	err = g.Wait()
	sess.eng.Do(func(sim *engine.Simulation) { printSummary(os.Stdout, sim, sess.eng.Steps) })
	return err
}
