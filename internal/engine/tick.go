package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// DefaultInterval is the wall-clock time between rounds in serve mode.
const DefaultInterval = 500 * time.Millisecond

// Engine drives a Simulation forward on a ticker. It owns the lock every
// other goroutine (the HTTP API) must take through Do.
type Engine struct {
	mu       sync.Mutex
	sim      *Simulation
	Speed    float64       // Multiplier: 1.0 = real-time, 0 = paused
	Interval time.Duration // Base round interval
	Steps    uint64        // Rounds and night transitions driven so far

	// Callbacks run under the lock after the matching transition.
	BeforeNight  func(sim *Simulation) // Between nights, before the doors open
	OnRound      func(sim *Simulation)
	OnNightClose func(sim *Simulation)
	OnWeek       func(sim *Simulation, week int)
	OnGameOver   func(sim *Simulation)
}

// NewEngine wraps a simulation. A zero interval uses DefaultInterval.
func NewEngine(sim *Simulation, interval time.Duration) *Engine {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Engine{sim: sim, Speed: 1.0, Interval: interval}
}

// Do runs fn with exclusive access to the simulation.
func (e *Engine) Do(fn func(sim *Simulation)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(e.sim)
}

// SetSpeed changes the speed multiplier; zero pauses.
func (e *Engine) SetSpeed(speed float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Speed = max(0, speed)
}

func (e *Engine) speed() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.Speed
}

// Step advances one round, opening the doors first when the pub is closed.
// It reports false once the licence is gone.
func (e *Engine) Step() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.step()
}

func (e *Engine) step() bool {
	s := e.sim
	if s.GameOver {
		return false
	}
	e.Steps++

	if !s.NightOpen {
		if e.BeforeNight != nil {
			e.BeforeNight(s)
		}
		s.OpenNight()
		return true
	}

	week := s.Week
	s.PlayRound()
	if e.OnRound != nil {
		e.OnRound(s)
	}
	if !s.NightOpen && e.OnNightClose != nil {
		e.OnNightClose(s)
	}
	if s.Week != week && e.OnWeek != nil {
		e.OnWeek(s, week)
	}
	if s.GameOver {
		if e.OnGameOver != nil {
			e.OnGameOver(s)
		}
		return false
	}
	return true
}

// Run drives the simulation until ctx is cancelled or the game ends.
func (e *Engine) Run(ctx context.Context) error {
	slog.Info("simulation engine started", "interval", e.Interval, "speed", e.speed())
	defer func() {
		e.Do(func(s *Simulation) {
			slog.Info("simulation engine stopped", "steps", e.Steps, "at", SimTime(s))
		})
	}()

	for {
		wait := e.Interval
		speed := e.speed()
		if speed > 0 {
			wait = time.Duration(float64(e.Interval) / speed)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		if speed <= 0 {
			continue
		}
		if !e.Step() {
			return nil
		}
	}
}

var dayNames = [DaysPerWeek]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// SimTime renders the simulation clock, e.g. "Week 2 Fri R7".
func SimTime(s *Simulation) string {
	day := dayNames[s.DayIndex%DaysPerWeek]
	if !s.NightOpen {
		return fmt.Sprintf("Week %d %s (closed)", s.Week, day)
	}
	return fmt.Sprintf("Week %d %s R%d", s.Week, day, s.Round)
}
