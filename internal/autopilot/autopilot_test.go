package autopilot

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/pubsim/internal/engine"
	"github.com/talgya/pubsim/internal/staff"
)

func kinds(actions []Action) []string {
	out := make([]string, len(actions))
	for i, a := range actions {
		out[i] = a.Kind
	}
	return out
}

func TestDecide_FreshPubRestocksAndHires(t *testing.T) {
	s := engine.NewSimulation(engine.Options{Seed: 5})
	p := DefaultPolicy()

	snap := Observe(s)
	h := p.Triage(snap)
	assert.Equal(t, LevelHealthy, h.Level)
	assert.Equal(t, 5, h.WineShort)
	assert.True(t, h.Understaff)

	actions := p.Decide(snap, h)
	assert.Equal(t, []string{ActRestockWine, ActRestockWine, ActRestockWine, ActHire}, kinds(actions))

	total := 0
	for _, a := range actions[:3] {
		total += a.Qty
	}
	assert.Equal(t, 5, total)
	assert.Equal(t, staff.RoleTrainee, actions[3].Role)
}

func TestBeforeNight_AppliesActions(t *testing.T) {
	s := engine.NewSimulation(engine.Options{Seed: 5})
	p := New()

	p.BeforeNight(s)
	for _, r := range p.Last {
		assert.NoError(t, r.Err, r.Action.Kind)
	}
	assert.Equal(t, 30, s.Wine.Count())
	assert.Equal(t, 1, s.Staff.Count())
	assert.Positive(t, s.Credit.Wine.Balance)
}

func TestDecide_PaysSuppliersFirst(t *testing.T) {
	p := DefaultPolicy()
	snap := Snapshot{Cash: 300, WineOwed: 100, WineDue: 35, SupplierCap: 1000, Bartenders: 1}

	actions := p.Decide(snap, p.Triage(snap))
	require.NotEmpty(t, actions)
	assert.Equal(t, ActPaySupplier, actions[0].Kind)
	assert.Equal(t, engine.SupplierWine, actions[0].Supplier)
	assert.InDelta(t, 100, actions[0].Amount, 1e-9)
}

func TestDecide_ShortOfCashOpensLine(t *testing.T) {
	p := DefaultPolicy()
	snap := Snapshot{Cash: 10, WagesOwed: 50, SupplierCap: 1000}

	h := p.Triage(snap)
	assert.Equal(t, LevelWarning, h.Level)

	got := kinds(p.Decide(snap, h))
	assert.Contains(t, got, ActOpenLine)
	assert.NotContains(t, got, ActHire)
	assert.NotContains(t, got, ActPaySupplier)
}

func TestDecide_WeekendBooksActivity(t *testing.T) {
	p := DefaultPolicy()
	snap := Snapshot{Cash: 300, Weekend: true, Reputation: 10, Bartenders: 1, SupplierCap: 1000}

	actions := p.Decide(snap, p.Triage(snap))
	require.Contains(t, kinds(actions), ActSchedule)
	for _, a := range actions {
		if a.Kind == ActSchedule {
			assert.Equal(t, engine.ActivityQuiz, a.Activity)
		}
	}

	snap.Scheduled = true
	assert.NotContains(t, kinds(p.Decide(snap, p.Triage(snap))), ActSchedule)
}

func TestDecideRound_BouncerOnChaos(t *testing.T) {
	p := DefaultPolicy()

	assert.Len(t, p.DecideRound(Snapshot{Chaos: 60, BouncersFree: 1, Cash: 200}), 1)
	assert.Empty(t, p.DecideRound(Snapshot{Chaos: 10, BouncersFree: 1, Cash: 200}))
	assert.Empty(t, p.DecideRound(Snapshot{Chaos: 60, BouncersFree: 0, Cash: 200}))
}

func TestWineMix_SumsAndCapsCheapWine(t *testing.T) {
	for _, qty := range []int{1, 2, 5, 17, 30} {
		for _, rep := range []int{0, 25} {
			mix := wineMix(rep, qty)
			total := 0
			for _, m := range mix {
				total += m.qty
				if m.name == "Crisp & Fruity Blanco" {
					assert.LessOrEqual(t, m.qty, qty/2)
				}
			}
			assert.Equal(t, qty, total, "qty=%d rep=%d", qty, rep)
		}
	}
}

func TestAct_RefusalDoesNotStopTheRest(t *testing.T) {
	s := engine.NewSimulation(engine.Options{Seed: 5})

	results := Act(s, []Action{
		{Kind: ActRestockWine, Item: "Bathtub Gin", Qty: 2},
		{Kind: ActHire, Role: staff.RoleTrainee},
		{Kind: "dance"},
	})
	require.Len(t, results, 3)
	assert.ErrorIs(t, results[0].Err, engine.ErrUnknownItem)
	assert.NoError(t, results[1].Err)
	assert.Error(t, results[2].Err)
	assert.Equal(t, 1, s.Staff.Count())
}

func TestPilot_DrivesEngineForTwoWeeks(t *testing.T) {
	sim := engine.NewSimulation(engine.Options{Seed: 9})
	e := engine.NewEngine(sim, 0)
	p := New()
	e.BeforeNight = p.BeforeNight
	e.OnRound = p.OnRound

	nights := 0
	e.OnNightClose = func(*engine.Simulation) { nights++ }
	for nights < 2*engine.DaysPerWeek && e.Step() {
	}

	e.Do(func(s *engine.Simulation) {
		assert.False(t, math.IsNaN(s.Cash))
		if !s.GameOver {
			assert.Equal(t, 3, s.Week)
		}
	})
}
