package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/talgya/pubsim/internal/config"
	"github.com/talgya/pubsim/internal/engine"
)

func newRunCmd(cfg *config.Config) *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the pub headless for a number of weeks",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runHeadless(ctx, cfg, verbose)
		},
	}
	cmd.Flags().IntVar(&cfg.Weeks, "weeks", cfg.Weeks, "weeks to simulate (PUBSIM_WEEKS)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print every event")
	return cmd
}

// runHeadless steps the engine as fast as it will go until the weeks are up,
// the licence is lost, or ctx is cancelled.
func runHeadless(ctx context.Context, cfg *config.Config, verbose bool) error {
	sess, err := newSession(cfg, 0, consoleSink{out: os.Stdout, verbose: verbose})
	if err != nil {
		return err
	}
	defer sess.close()

	sess.eng.OnWeek = func(sim *engine.Simulation, _ int) { printWeek(os.Stdout, sim.LastWeek) }

	lastWeek := cfg.Weeks + 1
	for ctx.Err() == nil {
		done := false
		sess.eng.Do(func(sim *engine.Simulation) { done = sim.Week >= lastWeek })
		if done || !sess.eng.Step() {
			break
		}
	}

	sess.eng.Do(func(sim *engine.Simulation) { printSummary(os.Stdout, sim, sess.eng.Steps) })
	if err := ctx.Err(); err != nil && err != context.Canceled {
		return err
	}
	return nil
}
