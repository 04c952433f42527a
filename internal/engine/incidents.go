package engine

import (
	"math"

	"github.com/talgya/pubsim/internal/entropy"
	"github.com/talgya/pubsim/internal/staff"
)

const (
	baseEventChance  = 12
	forceEventRounds = 5
)

// maybeRoundEvent rolls for a mid-night incident. A run of quiet rounds
// forces one.
func (s *Simulation) maybeRoundEvent(fx Effects) {
	s.QuietRounds++
	chance := baseEventChance + fx.TotalEventBonus() + s.Identity.EventBonus() + int(math.Round(s.Chaos/100*10))
	if s.Reputation <= -40 {
		chance += 6
	}
	if s.Reputation >= 60 {
		chance += 3
	}
	chance = int(math.Round(float64(chance) * s.seasonalRoundEvents()))
	if s.QuietRounds < forceEventRounds && s.RNG.IntN(100) >= chance {
		return
	}
	s.QuietRounds = 0
	s.Window.Events++

	pos := int(math.Round(50 + float64(s.Reputation)/2 + s.Identity.EventBias()*30 - s.Chaos/100*20))
	pos = max(5, min(95, pos))
	if s.RNG.IntN(100) < pos {
		s.positiveEvent(fx)
		return
	}
	s.negativeEvent(fx)
}

func (s *Simulation) positiveEvent(fx Effects) {
	s.Weekly.PosEvents++
	roll := s.RNG.IntN(100)
	if s.Reputation >= 60 {
		roll -= 10
	}
	if s.PubLevel < 2 && roll < 22 {
		roll += 18
	}

	switch {
	case roll < 10:
		s.applyRep(6, "celebrity")
		s.Log.Popup("event", "Celebrity", "A local celebrity pops in and posts about the pub.")
	case roll < 22:
		s.applyRep(4, "tv crew")
		s.earn(10, 0)
		s.Log.Pos("event", "A TV crew films a segment at the bar.")
	case roll < 36:
		s.applyRep(6, "influencer")
		s.Log.Pos("event", "An influencer raves about the place.")
	case roll < 52:
		cash := entropy.Between(s.RNG, 40, 70)
		s.earn(cash, 0)
		s.applyRep(1, "corporate booking")
		s.Log.Pos("event", "Corporate group books a table: +%.2f.", cash)
	case roll < 66:
		cash := entropy.Between(s.RNG, 15, 30)
		s.earn(cash, 0)
		s.applyRep(2, "regulars")
		s.Log.Pos("event", "The regulars buy a round for the house: +%.2f.", cash)
	case roll < 78:
		cash := entropy.Between(s.RNG, 12, 20)
		s.earn(cash, 0)
		s.applyRep(5, "brewery")
		s.Log.Pos("event", "A local brewery runs a tasting: +%.2f.", cash)
	case roll < 88 && fx.Kitchen:
		cash := entropy.Between(s.RNG, 8, 17)
		s.earn(cash, 0)
		s.applyRep(4, "food review")
		s.Rumours.Add(RumourSundayRoast, 4)
		s.Log.Pos("event", "A food blogger loves the menu: +%.2f.", cash)
	case roll < 90:
		added := s.Wine.AddN(s.WineCatalog[1], 2, s.DayCounter)
		s.Log.Pos("event", "The supplier drops off %d free bottle(s) of %s.", added, s.WineCatalog[1].Name)
	default:
		s.applyRep(5, "atmosphere")
		s.Rumours.Add(RumourAtmosphere, 3)
		s.Log.Pos("event", "The whole room is singing. Great atmosphere tonight.")
	}
}

func (s *Simulation) negativeEvent(fx Effects) {
	s.Weekly.NegEvents++
	s.Nightly.Events++
	s.tally.Events++

	roll := s.RNG.IntN(100)
	if s.Reputation <= -40 {
		roll += 15
	}
	if s.PubLevel < 2 && roll > 95 {
		roll = 85
	}
	red := 0.0
	if s.Bouncers.Door().Intervenes(s.RNG) {
		red = s.Bouncers.NegReduction
	}
	hit := func(base float64, floor int) int {
		return s.mitigate(-max(floor, int(math.Round(base*(1-red)))), fx)
	}

	switch {
	case roll < 10:
		s.resolveFight("brawl at the bar", 0, fx)
	case roll < 20:
		s.applyRep(hit(7, 3), "police")
		s.Log.Neg("event", "Police called after a disturbance outside.")
	case roll < 30:
		s.applyRep(hit(6, 3), "table collapse")
		s.PayOrDebt(math.Max(4, 8*(1-red)), "table repair")
		s.Log.Neg("event", "A table collapses mid-round.")
	case roll < 42:
		s.applyRep(hit(8, 4), "bad reviews")
		s.Log.Neg("event", "A run of bad online reviews.")
	case roll < 52 && fx.Kitchen:
		s.applyRep(hit(7, 4), "food scare")
		s.PayOrDebt(entropy.Between(s.RNG, 12, 29), "food scare refunds")
		s.Rumours.Add(RumourFoodPoisoning, 6)
		s.Log.Neg("event", "A food scare at table six. Refunds all round.")
	case roll < 62:
		s.applyRep(hit(5, 2), "glassware")
		s.PayOrDebt(math.Max(5, 12*(1-red)), "broken glassware")
		s.Log.Neg("event", "A tray of glasses goes over.")
	case roll < 72:
		s.resolveFight("stag do", 0, fx)
		s.applyRep(s.mitigate(-2, fx), "stag do")
		s.Log.Neg("event", "A stag do gets out of hand.")
	case roll < 80:
		s.applyRep(hit(5, 2), "teen trouble")
		if s.RNG.IntN(100) < 35 {
			s.resolveFight("teenagers", 0, fx)
		}
		s.Log.Neg("event", "Underage drinkers cause trouble.")
	case roll < 90:
		s.applyRep(s.mitigate(-2, fx), "supplier no-show")
		lost := 0
		for range 1 + s.RNG.IntN(2) {
			if w, ok := s.Wine.Random(s.RNG); ok && s.Wine.Remove(w.Name) {
				lost++
			}
		}
		s.Log.Neg("event", "Supplier no-show. %d bottle(s) written off.", lost)
	case roll < 96:
		s.applyRep(hit(4, 2), "staff argument")
		s.tally.StaffIncident = true
		s.Log.Neg("event", "Staff argue in front of customers.")
	default:
		s.applyRep(hit(9, 5), "influencer backlash")
		s.Log.Popup("event", "Backlash", "An influencer posts a scathing video about the pub.")
	}
}

// nightIncident is a between-nights event. Rep and cost are scaled by
// security and reputation.
type nightIncident struct {
	name      string
	base      float64
	secEffect float64
	rep       int
	costMin   float64
	costMax   float64
	stockMin  int
	stockMax  int
	kitchen   bool
}

var nightIncidents = []nightIncident{
	{name: "Vandalism", base: 10, secEffect: 0.90, rep: -2, costMin: 20, costMax: 45},
	{name: "Egging", base: 9, secEffect: 0.85, rep: -2, costMin: 15, costMax: 35},
	{name: "Glass breakage", base: 12, secEffect: 0.80, rep: -1, costMin: 10, costMax: 22},
	{name: "Graffiti", base: 8, secEffect: 0.88, rep: -1, costMin: 8, costMax: 18},
	{name: "Noise complaint fine", base: 7, secEffect: 0.90, rep: -2, costMin: 12, costMax: 25},
	{name: "Pest control", base: 5, secEffect: 0.85, rep: -2, costMin: 20, costMax: 40},
	{name: "Rubbish strike", base: 6, secEffect: 0.90, rep: -1, costMin: 10, costMax: 22},
	{name: "Delivery delay", base: 6, secEffect: 0.90, rep: -1, costMin: 5, costMax: 15, stockMin: 1, stockMax: 3},
	{name: "Licence audit", base: 4, secEffect: 0.85, rep: -1, costMin: 18, costMax: 35},
	{name: "Kitchen inspection", base: 6, secEffect: 0.85, rep: -2, costMin: 15, costMax: 30, kitchen: true},
	{name: "Burglary", base: 4, secEffect: 0.75, rep: -4, costMin: 80, costMax: 160, stockMin: 3, stockMax: 6},
	{name: "Power trip", base: 10, secEffect: 0.95, rep: -1, costMin: 15, costMax: 30},
	{name: "Health inspection", base: 7, secEffect: 0.80, rep: -3, costMin: 10, costMax: 25},
}

const (
	shoutoutBase          = 6
	betweenNightChaosStep = 3
	maxBetweenNightChaos  = 15
)

// betweenNightEvents rolls the overnight incidents. Security lowers both the
// chance and the damage; a bad reputation and a chaotic night raise them.
func (s *Simulation) betweenNightEvents(fx Effects) {
	sec := float64(s.EffectiveSecurity(fx))
	chanceMult := math.Max(0.2, 1-0.08*sec) * fx.IncidentMult
	dmgMult := math.Max(0.25, math.Max(0.35, 1-0.06*sec)*(1-fx.EventDamage))
	switch {
	case s.Reputation >= 60:
		chanceMult *= 0.85
		dmgMult *= 0.9
	case s.Reputation <= -40:
		chanceMult *= 1.2
		dmgMult *= 1.15
	}
	chaosMult := 1 + s.Chaos/100*0.35
	chanceMult *= chaosMult * s.seasonalOvernightEvents()
	dmgMult *= chaosMult

	if s.Reputation >= 60 && s.rollPercent(shoutoutBase) {
		cash := entropy.Between(s.RNG, 6, 12)
		s.earn(cash, 0)
		s.applyRep(2, "community shoutout")
		s.Log.Pos("overnight", "The local paper gives the pub a shoutout: +%.2f.", cash)
	}

	hasManager := s.Staff.Has(staff.RoleManager)
	for _, inc := range nightIncidents {
		if inc.kitchen && !fx.Kitchen {
			continue
		}
		chance := math.Max(1, math.Min(95, inc.base*chanceMult*inc.secEffect))
		if !s.rollPercent(chance) {
			continue
		}
		base := inc.rep
		if inc.name == "Health inspection" && (sec >= 6 || hasManager) {
			base = -1
		}
		rep := int(math.Round(float64(base) * dmgMult))
		rep = s.mitigate(rep, fx)
		if rep == 0 {
			rep = -1
		}
		cost := math.Max(1, entropy.Between(s.RNG, inc.costMin, inc.costMax)*dmgMult)

		s.applyRep(rep, inc.name)
		s.PayOrDebt(cost, inc.name)
		lost := 0
		if inc.stockMax > 0 {
			for range entropy.IntRange(s.RNG, inc.stockMin, inc.stockMax) {
				if w, ok := s.Wine.Random(s.RNG); ok && s.Wine.Remove(w.Name) {
					lost++
				}
			}
		}
		s.BetweenNightChaos = math.Min(maxBetweenNightChaos, s.BetweenNightChaos+betweenNightChaosStep)
		s.Weekly.NegEvents++
		s.Window.Events++
		if lost > 0 {
			s.Log.Neg("overnight", "%s: rep %d, cost %.2f, %d bottle(s) lost.", inc.name, rep, cost, lost)
		} else {
			s.Log.Neg("overnight", "%s: rep %d, cost %.2f.", inc.name, rep, cost)
		}
	}
}

// rollPercent rolls a percentage chance at hundredths precision.
func (s *Simulation) rollPercent(pct float64) bool {
	return s.RNG.IntN(10000) < int(math.Round(pct*100))
}
