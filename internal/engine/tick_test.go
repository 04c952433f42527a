package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_StepOpensThenPlays(t *testing.T) {
	e := NewEngine(NewSimulation(Options{Seed: 3}), 0)
	assert.Equal(t, DefaultInterval, e.Interval)

	before := 0
	e.BeforeNight = func(*Simulation) { before++ }

	require.True(t, e.Step())
	e.Do(func(s *Simulation) {
		assert.True(t, s.NightOpen)
		assert.Zero(t, s.Round)
	})
	assert.Equal(t, 1, before)

	require.True(t, e.Step())
	e.Do(func(s *Simulation) { assert.Equal(t, 1, s.Round) })
}

func TestEngine_CallbacksFireOnTransitions(t *testing.T) {
	e := NewEngine(NewSimulation(Options{Seed: 3}), time.Millisecond)
	rounds, closes, weeks := 0, 0, 0
	e.OnRound = func(*Simulation) { rounds++ }
	e.OnNightClose = func(*Simulation) { closes++ }
	e.OnWeek = func(_ *Simulation, week int) {
		weeks++
		assert.Equal(t, 1, week)
	}

	for closes < DaysPerWeek && e.Step() {
	}

	e.Do(func(s *Simulation) {
		if s.GameOver {
			t.Skip("licence lost before the week ended")
		}
		assert.Equal(t, 2, s.Week)
	})
	assert.Equal(t, DaysPerWeek, closes)
	assert.Equal(t, DaysPerWeek*ClosingRound, rounds)
	assert.Equal(t, 1, weeks)
}

func TestEngine_StopsOnGameOver(t *testing.T) {
	e := NewEngine(NewSimulation(Options{Seed: 3}), time.Millisecond)
	e.Do(func(s *Simulation) { s.GameOver = true })

	assert.False(t, e.Step())
	assert.NoError(t, e.Run(context.Background()))
}

func TestEngine_RunStopsOnCancel(t *testing.T) {
	// At most three steps fit before the deadline: the opening and two
	// rounds, which is short of the three rounds a licence loss needs.
	e := NewEngine(NewSimulation(Options{Seed: 3}), 30*time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := e.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	e.Do(func(s *Simulation) {
		assert.NotZero(t, e.Steps)
		assert.LessOrEqual(t, e.Steps, uint64(3))
		assert.False(t, s.GameOver)
	})
}

func TestEngine_PausedDoesNotStep(t *testing.T) {
	e := NewEngine(NewSimulation(Options{Seed: 3}), time.Millisecond)
	e.SetSpeed(0)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_ = e.Run(ctx)
	e.Do(func(*Simulation) { assert.Zero(t, e.Steps) })
}

func TestSimTime(t *testing.T) {
	s := NewSimulation(Options{Seed: 1})
	assert.Equal(t, "Week 1 Mon (closed)", SimTime(s))

	s.NightOpen, s.Round, s.DayIndex = true, 7, 4
	assert.Equal(t, "Week 1 Fri R7", SimTime(s))
}
