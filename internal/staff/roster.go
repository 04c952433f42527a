package staff

import (
	"math"
	"math/rand/v2"
	"slices"
)

// landlordService is what the landlord serves alone with no staff.
const landlordService = 1

// defaultMorale is reported when nobody is employed.
const defaultMorale = 70.0

// Roster is everyone on the payroll. It persists across nights.
type Roster struct {
	Members []*Member `json:"members"`
	NextID  ID        `json:"next_id"`
}

// NewRoster creates an empty roster.
func NewRoster() *Roster {
	return &Roster{NextID: 1}
}

// Hire rolls a candidate for role and adds them to the payroll.
func (r *Roster) Hire(role Role, rng *rand.Rand, week, reputation int) *Member {
	t := CandidateTemplate(role, rng, week, reputation)
	m := &Member{
		ID:     r.NextID,
		Name:   RandomName(rng),
		Role:   role,
		Morale: t.Morale,
	}
	m.apply(t)
	r.NextID++
	r.Members = append(r.Members, m)
	return m
}

// Add puts an existing member on the roster.
func (r *Roster) Add(m *Member) {
	if m.ID == 0 {
		m.ID = r.NextID
	}
	r.NextID = max(r.NextID, m.ID+1)
	r.Members = append(r.Members, m)
}

// Fire removes a member and returns them so their accrued wages can be paid.
func (r *Roster) Fire(id ID) (*Member, bool) {
	for i, m := range r.Members {
		if m.ID == id {
			r.Members = slices.Delete(r.Members, i, i+1)
			return m, true
		}
	}
	return nil, false
}

// Get returns a member by id.
func (r *Roster) Get(id ID) (*Member, bool) {
	for _, m := range r.Members {
		if m.ID == id {
			return m, true
		}
	}
	return nil, false
}

// Count returns the headcount.
func (r *Roster) Count() int { return len(r.Members) }

// CountRole returns how many members hold role.
func (r *Roster) CountRole(role Role) int {
	n := 0
	for _, m := range r.Members {
		if m.Role == role {
			n++
		}
	}
	return n
}

// Has reports whether anyone holds role.
func (r *Roster) Has(role Role) bool { return r.CountRole(role) > 0 }

func (r *Roster) frontOfHouse() []*Member {
	var out []*Member
	for _, m := range r.Members {
		if !m.Role.IsKitchen() && !m.Role.IsManager() {
			out = append(out, m)
		}
	}
	return out
}

func (r *Roster) kitchen() []*Member {
	var out []*Member
	for _, m := range r.Members {
		if m.Role.IsKitchen() {
			out = append(out, m)
		}
	}
	return out
}

func (r *Roster) managers() []*Member {
	var out []*Member
	for _, m := range r.Members {
		if m.Role.IsManager() {
			out = append(out, m)
		}
	}
	return out
}

func (r *Roster) managerMultiplier() float64 {
	mult := 1.0
	for _, m := range r.managers() {
		mult += m.CapacityMult - 1
	}
	return mult
}

// ServeCapacity is how many punters the bar can serve per round before
// activity, upgrade and pub level bonuses.
func (r *Roster) ServeCapacity() int {
	base := landlordService
	for _, m := range r.frontOfHouse() {
		base += m.ServeCapacity()
	}
	return max(1, int(math.Floor(float64(base)*r.managerMultiplier())))
}

// KitchenCapacity is how many plates per round the kitchen can send out.
func (r *Roster) KitchenCapacity() int {
	plates := 0
	for _, m := range r.kitchen() {
		plates += m.Role.KitchenCapacity()
	}
	return max(0, int(math.Floor(float64(plates)*r.managerMultiplier())))
}

// KitchenSkill is the mean skill of the kitchen team.
func (r *Roster) KitchenSkill() float64 {
	k := r.kitchen()
	if len(k) == 0 {
		return 0
	}
	sum := 0
	for _, m := range k {
		sum += m.Skill()
	}
	return float64(sum) / float64(len(k))
}

// TipRate is the share of each sale added as tips.
func (r *Roster) TipRate() float64 {
	rate := 0.0
	for _, m := range r.Members {
		if m.Role.IsManager() {
			rate += m.TipRate
		} else if !m.Role.IsKitchen() {
			rate += m.TipBonus
		}
	}
	return rate
}

// SecurityBonus is the staff's contribution to the security level.
func (r *Roster) SecurityBonus() int {
	sec := 0
	for _, m := range r.Members {
		sec += m.SecurityBonus
	}
	return sec
}

// ChaosTolerance is the skill-weighted mean tolerance of bar staff and
// managers, zero when there are none.
func (r *Roster) ChaosTolerance() float64 {
	var total, weight float64
	for _, m := range r.Members {
		if m.Role.IsKitchen() {
			continue
		}
		w := m.weight()
		total += float64(m.ChaosTolerance) * w
		weight += w
	}
	if weight <= 0 {
		return 0
	}
	return total / weight
}

// RepDelta sums each member's reputation roll for a round.
func (r *Roster) RepDelta(rng *rand.Rand) int {
	delta := 0
	for _, m := range r.Members {
		delta += m.RepRoll(rng)
	}
	return delta
}

// OperatingCost is the per-round cost of keeping the lights on.
func (r *Roster) OperatingCost(occupancy int) float64 {
	skill := 0.0
	for _, m := range r.Members {
		if m.Role.IsManager() {
			skill += float64(m.Skill()) * 0.6
		} else {
			skill += float64(m.Skill())
		}
	}
	return math.Max(0, 0.35+0.20*float64(len(r.Members))+0.02*skill+0.05*float64(max(0, occupancy)))
}

// AccrueDailyWages adds a day's pay for everyone.
func (r *Roster) AccrueDailyWages() {
	for _, m := range r.Members {
		m.AccrueDailyWage()
	}
}

// WagesDue is the total accrued this week, less any wage efficiency.
func (r *Roster) WagesDue(efficiency float64) float64 {
	sum := 0.0
	for _, m := range r.Members {
		sum += m.Accrued
	}
	return sum * (1 - math.Max(0, efficiency))
}

// ResetAccrual zeroes everyone's accrued wages after payday.
func (r *Roster) ResetAccrual() {
	for _, m := range r.Members {
		m.CashOut()
	}
}

// AdjustAll shifts every member's morale.
func (r *Roster) AdjustAll(delta int) {
	for _, m := range r.Members {
		m.AdjustMorale(delta)
	}
}

func poolMorale(pool []*Member) float64 {
	if len(pool) == 0 {
		return defaultMorale
	}
	var total, weight float64
	for _, m := range pool {
		w := m.weight()
		total += float64(m.Morale) * w
		weight += w
	}
	return total / weight
}

// TeamMorale is the headcount-weighted mean of the bar, kitchen and manager
// pools, each skill-weighted.
func (r *Roster) TeamMorale() float64 {
	foh, boh, gm := r.frontOfHouse(), r.kitchen(), r.managers()
	n := len(foh) + len(boh) + len(gm)
	if n == 0 {
		return defaultMorale
	}
	total := poolMorale(foh)*float64(len(foh)) + poolMorale(boh)*float64(len(boh)) + poolMorale(gm)*float64(len(gm))
	return total / float64(n)
}

// RoundMood is what the staff felt during a round.
type RoundMood struct {
	Unserved   int
	Events     int
	Reputation int
	TipRate    float64
	Security   int
	Chaos      float64
}

// MoraleDelta computes the per-round morale change. Security damps losses.
func MoraleDelta(in RoundMood) int {
	delta := 0
	if in.Unserved > 0 {
		delta -= min(6, 1+in.Unserved/2)
	}
	if in.Events > 0 {
		delta -= min(6, 2*in.Events)
	}
	if in.Reputation >= 40 {
		delta++
	}
	if in.Reputation <= -20 {
		delta--
	}
	if in.TipRate >= 0.03 {
		delta++
	}
	if in.TipRate <= 0.005 {
		delta--
	}
	delta -= int(math.Floor(in.Chaos / 40))

	if delta < 0 && in.Security > 0 {
		damp := math.Min(0.35, float64(in.Security)*0.03)
		delta = int(math.Round(float64(delta) * (1 - damp)))
	}
	return delta
}

// AfterRound applies a round's morale change to everyone and returns it.
func (r *Roster) AfterRound(in RoundMood) int {
	if len(r.Members) == 0 {
		return 0
	}
	delta := MoraleDelta(in)
	r.AdjustAll(delta)
	return delta
}

func quitMultiplier(morale float64) float64 {
	switch {
	case morale >= 80:
		return 0.2
	case morale >= 65:
		return 0.6
	case morale >= 50:
		return 1.0
	case morale >= 30:
		return 1.5
	default:
		return 2.0
	}
}

// Departure is a member who quit and what they were still owed.
type Departure struct {
	Member   *Member
	WagesDue float64
	RepDelta int
}

// WeeklyQuits rolls who walks out after a rough week. Bar staff quit on the
// fight count, kitchen staff when their own morale is low, and managers only
// after two or more fights.
func (r *Roster) WeeklyQuits(fights int, rng *rand.Rand) []Departure {
	base := 0
	if fights > 0 {
		base = min(45, 6+fights*8)
	}
	mult := quitMultiplier(r.TeamMorale())
	chance := int(math.Round(float64(base) * mult))
	if chance <= 0 {
		return nil
	}
	managerChance := int(math.Round(math.Min(35, float64(6+fights*5)) * mult))

	var gone []Departure
	for i := len(r.Members) - 1; i >= 0; i-- {
		m := r.Members[i]
		quits, rep := false, 0
		switch {
		case m.Role.IsManager():
			quits, rep = fights >= 2 && rng.IntN(100) < managerChance, -2
		case m.Role.IsKitchen():
			quits, rep = m.Morale < 35 && rng.IntN(100) < max(12, chance), -2
		default:
			quits, rep = rng.IntN(100) < chance, -1
		}
		if quits {
			gone = append(gone, Departure{Member: m, WagesDue: m.CashOut(), RepDelta: rep})
		}
	}
	r.Members = slices.DeleteFunc(r.Members, func(m *Member) bool {
		return slices.ContainsFunc(gone, func(d Departure) bool { return d.Member == m })
	})
	return gone
}

// LevelUp records one member's weekly progress.
type LevelUp struct {
	Member   *Member
	Levels   int
	Promoted bool
}

// WeeklyLevelUps advances everyone's experience. A volatile week can add or
// cost a level. Managers level but are never promoted.
func (r *Roster) WeeklyLevelUps(rng *rand.Rand, chaos float64) []LevelUp {
	volatility := math.Min(0.45, chaos/200)
	out := make([]LevelUp, 0, len(r.Members))
	for _, m := range r.Members {
		m.WeeksEmployed++
		levels := 1
		if rng.Float64() < volatility && rng.IntN(2) == 0 {
			levels++
		}
		if rng.Float64() < volatility*0.35 {
			levels = max(0, levels-1)
		}
		m.Level += levels
		promoted := false
		if !m.Role.IsManager() {
			promoted = m.Promote(rng)
		}
		out = append(out, LevelUp{Member: m, Levels: levels, Promoted: promoted})
	}
	return out
}
