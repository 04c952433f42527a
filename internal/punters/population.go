package punters

import (
	"math"
	"math/rand/v2"
	"slices"
)

// Population is tonight's roster. It is discarded when the night closes.
type Population struct {
	Punters      []*Punter `json:"punters"`
	MaxOccupancy int       `json:"max_occupancy"`
}

// Seed replaces the roster with a fresh pool.
func (pop *Population) Seed(s *Spawner, n int, b Bias) {
	pop.Punters = s.SpawnN(n, b)
}

// Reset drops everyone.
func (pop *Population) Reset() {
	pop.Punters = nil
}

// InBar returns the punters still present, in roster order.
func (pop *Population) InBar() []*Punter {
	out := make([]*Punter, 0, len(pop.Punters))
	for _, p := range pop.Punters {
		if p.Active() {
			out = append(out, p)
		}
	}
	return out
}

// InBarShuffled returns the punters still present in a seeded random order.
func (pop *Population) InBarShuffled(rng *rand.Rand) []*Punter {
	out := pop.InBar()
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// Space is how many more punters fit before the bar is full.
func (pop *Population) Space() int {
	return max(0, pop.MaxOccupancy-len(pop.Punters))
}

// AddArrivals spawns up to requested new punters within occupancy and returns
// how many came in.
func (pop *Population) AddArrivals(s *Spawner, requested int, b Bias) int {
	add := min(requested, pop.Space())
	if add <= 0 {
		return 0
	}
	pop.Punters = append(pop.Punters, s.SpawnN(add, b)...)
	return add
}

// DepartureChance is the per-punter chance of heading home this round. It
// rises with a crowded bar and as the night wears on.
func DepartureChance(count, round int) float64 {
	occupancy := math.Min(0.04, float64(count)*0.002)
	lateNight := math.Min(0.03, float64(max(0, round-3))*0.002)
	return math.Min(0.09, 0.015+occupancy+lateNight)
}

// NaturalDepartures lets some punters leave to keep the room turning over.
func (pop *Population) NaturalDepartures(rng *rand.Rand, round int) int {
	chance := DepartureChance(len(pop.Punters), round)
	left := 0
	for _, p := range pop.Punters {
		if !p.Active() {
			continue
		}
		if rng.Float64() < chance {
			p.Leave()
			left++
		}
	}
	return left
}

// Cleanup removes everyone who left or was kicked out.
func (pop *Population) Cleanup() int {
	before := len(pop.Punters)
	pop.Punters = slices.DeleteFunc(pop.Punters, func(p *Punter) bool { return !p.Active() })
	return before - len(pop.Punters)
}

// ChaosSum totals the chaos contribution of everyone present.
func (pop *Population) ChaosSum(reputation int) int {
	sum := 0
	for _, p := range pop.Punters {
		if p.Active() {
			sum += p.Contribution(reputation)
		}
	}
	return sum
}

// TickFood advances every food cooldown by a round.
func (pop *Population) TickFood() {
	for _, p := range pop.Punters {
		p.TickFood()
	}
}

// Find returns the punter with the given id.
func (pop *Population) Find(id ID) (*Punter, bool) {
	for _, p := range pop.Punters {
		if p.ID == id {
			return p, true
		}
	}
	return nil, false
}

// Count returns the roster size, including anyone not yet cleaned up.
func (pop *Population) Count() int { return len(pop.Punters) }
