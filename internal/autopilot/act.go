package autopilot

import (
	"fmt"
	"log/slog"

	"github.com/talgya/pubsim/internal/credit"
	"github.com/talgya/pubsim/internal/engine"
)

// Result is the outcome of one action.
type Result struct {
	Action Action `json:"action"`
	Err    error  `json:"-"`
}

// Pilot applies a Policy to a simulation.
type Pilot struct {
	Policy Policy

	// Last holds the most recent pre-night results.
	Last []Result
}

// New creates a Pilot with the default policy.
func New() *Pilot {
	return &Pilot{Policy: DefaultPolicy()}
}

// BeforeNight runs the pre-opening routine. It matches engine.Engine's
// BeforeNight hook.
func (p *Pilot) BeforeNight(s *engine.Simulation) {
	snap := Observe(s)
	h := p.Policy.Triage(snap)
	actions := p.Policy.Decide(snap, h)
	p.Last = Act(s, actions)

	failed := 0
	for _, r := range p.Last {
		if r.Err != nil {
			failed++
		}
	}
	slog.Debug("autopilot", "health", h.Level, "actions", len(actions), "refused", failed)
}

// OnRound runs the in-night check. It matches engine.Engine's OnRound hook.
func (p *Pilot) OnRound(s *engine.Simulation) {
	if !s.NightOpen {
		return
	}
	Act(s, p.Policy.DecideRound(Observe(s)))
}

// Act applies actions in order. Rule refusals are recorded and do not stop
// the remaining actions.
func Act(s *engine.Simulation, actions []Action) []Result {
	results := make([]Result, 0, len(actions))
	for _, a := range actions {
		err := apply(s, a)
		if err != nil && !engine.IsRuleError(err) {
			slog.Warn("autopilot action failed", "kind", a.Kind, "error", err)
		}
		results = append(results, Result{Action: a, Err: err})
	}
	return results
}

func apply(s *engine.Simulation, a Action) error {
	switch a.Kind {
	case ActRestockWine:
		_, err := s.BuyWine(a.Item, a.Qty)
		return err
	case ActRestockFood:
		_, err := s.BuyFood(a.Item, a.Qty)
		return err
	case ActPaySupplier:
		_, err := s.PaySupplier(a.Supplier, a.Amount, credit.SourceCash)
		return err
	case ActHire:
		_, err := s.Hire(a.Role)
		return err
	case ActSchedule:
		return s.ScheduleActivity(a.Activity)
	case ActOpenLine:
		_, err := s.OpenCreditLine(a.Bank)
		return err
	case ActSetPrice:
		return s.SetPrice(a.Amount)
	case ActBouncer:
		_, err := s.HireBouncer()
		return err
	default:
		return fmt.Errorf("unknown action %q", a.Kind)
	}
}
