// Package autopilot is a headless landlord. Before each night it observes
// the pub, decides on a handful of routine actions, and applies them through
// the same entry points a player would use.
package autopilot

import (
	"github.com/talgya/pubsim/internal/engine"
	"github.com/talgya/pubsim/internal/staff"
)

// Snapshot is what the landlord looks at before opening.
type Snapshot struct {
	Day         int
	Weekend     bool
	Cash        float64
	Debt        float64
	Reputation  int
	Chaos       float64
	PubLevel    int
	CreditScore int

	WineStock int
	WineFree  int
	FoodStock int
	FoodFree  int
	Kitchen   bool

	Bartenders int
	Chefs      int
	WagesOwed  float64

	WineOwed     float64
	WineDue      float64
	FoodOwed     float64
	FoodDue      float64
	SupplierCap  float64
	CreditLines  int
	Scheduled    bool
	BouncersFree int
}

// Observe collects a Snapshot. It does not change the simulation.
func Observe(s *engine.Simulation) Snapshot {
	snap := Snapshot{
		Day:         s.DayIndex,
		Weekend:     s.Weekend(),
		Cash:        s.Cash,
		Debt:        s.TotalDebt(),
		Reputation:  s.Reputation,
		Chaos:       s.Chaos,
		PubLevel:    s.PubLevel,
		CreditScore: s.Credit.Score,
		WineStock:   s.Wine.Count(),
		WineFree:    s.Wine.Free(),
		FoodStock:   s.Food.Count(),
		FoodFree:    s.Food.Free(),
		Kitchen:     s.KitchenOpen(),
		WineOwed:    s.Credit.Wine.Balance,
		WineDue:     s.Credit.Wine.MinimumDue(),
		FoodOwed:    s.Credit.Food.Balance,
		FoodDue:     s.Credit.Food.MinimumDue(),
		SupplierCap: s.Credit.SupplierCap(s.PubLevel),
		CreditLines: len(s.Credit.Lines),
		Scheduled:   s.Scheduled != nil,
	}
	if s.NightOpen {
		snap.BouncersFree = max(0, s.BouncerCap()-s.Bouncers.Hired)
	}

	for _, m := range s.Staff.Members {
		snap.WagesOwed += m.Accrued
		switch {
		case m.Role.IsKitchen():
			snap.Chefs++
		case m.Role.IsManager():
		default:
			snap.Bartenders++
		}
	}
	return snap
}

// bartenderRole picks who to hire at the bar for a given reputation.
func bartenderRole(rep int) staff.Role {
	if rep >= 25 {
		return staff.RoleExperienced
	}
	return staff.RoleTrainee
}
