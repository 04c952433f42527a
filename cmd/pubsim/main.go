// Command pubsim runs the pub simulation, either headless for a fixed number
// of weeks or as a long-running server with an HTTP API.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/talgya/pubsim/internal/autopilot"
	"github.com/talgya/pubsim/internal/config"
	"github.com/talgya/pubsim/internal/engine"
	"github.com/talgya/pubsim/internal/entropy"
	"github.com/talgya/pubsim/internal/events"
	"github.com/talgya/pubsim/internal/persistence"
)

func main() {
	cfg := config.Load()

	root := &cobra.Command{
		Use:          "pubsim",
		Short:        "Pub management simulation engine",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogger(cfg)
		},
	}

	flags := root.PersistentFlags()
	flags.Uint64Var(&cfg.Seed, "seed", cfg.Seed, "RNG seed, 0 for a random one (PUBSIM_SEED)")
	flags.StringVar(&cfg.DBPath, "db", cfg.DBPath, "run journal path, empty to disable (PUBSIM_DB_PATH)")
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error (PUBSIM_LOG_LEVEL)")
	flags.BoolVar(&cfg.LogJSON, "json", cfg.LogJSON, "log as JSON (PUBSIM_LOG_JSON)")
	flags.BoolVar(&cfg.Autopilot, "autopilot", cfg.Autopilot, "let the autopilot run the pub (PUBSIM_AUTOPILOT)")
	flags.BoolVar(&cfg.Seasons, "seasons", cfg.Seasons, "run the seasonal calendar (PUBSIM_SEASONS)")
	flags.BoolVar(&cfg.Rivals, "rivals", cfg.Rivals, "let rival pubs compete for footfall (PUBSIM_RIVALS)")

	root.AddCommand(
		newRunCmd(&cfg),
		newServeCmd(&cfg),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func setupLogger(cfg config.Config) {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	var handler slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if cfg.LogJSON {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// session is one simulation run with its engine, autopilot and journal.
type session struct {
	sim   *engine.Simulation
	eng   *engine.Engine
	pilot *autopilot.Pilot
	db    *persistence.DB
	runID string
	sink  events.Sink
}

// newSession builds the simulation and wires the engine hooks. Records are
// drained to the sink and the journal every time a night closes.
func newSession(cfg *config.Config, interval time.Duration, sink events.Sink) (*session, error) {
	if cfg.Seed == 0 {
		cfg.Seed = entropy.Seed()
		slog.Info("no seed given, picked one", "seed", cfg.Seed)
	}
	sim := engine.NewSimulation(engine.Options{Seed: cfg.Seed, Seasons: cfg.Seasons, Rivals: cfg.Rivals})
	s := &session{
		sim:  sim,
		eng:  engine.NewEngine(sim, interval),
		sink: sink,
	}

	if cfg.DBPath != "" {
		if dir := filepath.Dir(cfg.DBPath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create data dir: %w", err)
			}
		}
		db, err := persistence.Open(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		runID, err := db.StartRun(sim.Seed, sim.PubName)
		if err != nil {
			db.Close()
			return nil, err
		}
		s.db, s.runID = db, runID
		slog.Info("journal opened", "path", cfg.DBPath, "run", runID)
	}

	if cfg.Autopilot {
		s.pilot = autopilot.New()
		s.eng.BeforeNight = s.pilot.BeforeNight
		s.eng.OnRound = s.pilot.OnRound
	}
	s.eng.OnNightClose = func(sim *engine.Simulation) { s.flush(sim) }
	return s, nil
}

func (s *session) flush(sim *engine.Simulation) {
	records := sim.Log.Drain()
	events.Dispatch(s.sink, records)
	if s.db == nil {
		return
	}
	if err := s.db.SaveRun(s.runID, sim, records); err != nil {
		slog.Error("journal save failed", "error", err)
	}
}

func (s *session) close() {
	s.eng.Do(s.flush)
	if s.db != nil {
		s.db.Close()
	}
}
