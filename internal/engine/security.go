package engine

import (
	"math"

	"github.com/talgya/pubsim/internal/punters"
	"github.com/talgya/pubsim/internal/staff"
)

// BouncerQuality is how good tonight's best door hire is.
type BouncerQuality uint8

const (
	BouncerNone BouncerQuality = iota
	BouncerLow
	BouncerMedium
	BouncerHigh
)

func (q BouncerQuality) String() string {
	switch q {
	case BouncerLow:
		return "low"
	case BouncerMedium:
		return "medium"
	case BouncerHigh:
		return "high"
	default:
		return "none"
	}
}

// Mitigation is the chance a bouncer of this quality steps in.
func (q BouncerQuality) Mitigation() float64 {
	switch q {
	case BouncerLow:
		return 0.35
	case BouncerMedium:
		return 0.60
	case BouncerHigh:
		return 0.85
	default:
		return 0
	}
}

const (
	maxBouncerReduction   = 0.75
	securityUpkeepPerDay  = 1.575
	maxFightReduction     = 0.75
	managerSecurityBonus  = 1
	bouncerSecurityWeight = 2
)

// Bouncers are tonight's door hires. They go home when the night closes.
type Bouncers struct {
	Hired          int            `json:"hired"`
	Best           BouncerQuality `json:"best"`
	TheftReduction float64        `json:"theft_reduction"`
	NegReduction   float64        `json:"neg_reduction"`
	FightReduction float64        `json:"fight_reduction"`
}

// Door converts tonight's hires for the bar.
func (b Bouncers) Door() punters.Door {
	return punters.Door{
		Hired:          b.Hired,
		Mitigation:     b.Best.Mitigation(),
		TheftReduction: b.TheftReduction,
		NegReduction:   b.NegReduction,
		FightReduction: b.FightReduction,
	}
}

// BouncerCap is how many bouncers can work tonight.
func (s *Simulation) BouncerCap() int {
	return max(1, 1+s.Effects().BouncerCap+max(0, s.PubLevel-1))
}

// bouncerPay rolls what the next hire costs.
func (s *Simulation) bouncerPay() float64 {
	return float64(33+s.RNG.IntN(34)) * (1 + 0.1*float64(s.Bouncers.Hired))
}

// HireBouncer puts someone on the door for the rest of the night.
func (s *Simulation) HireBouncer() (BouncerQuality, error) {
	if err := s.guardOpen(); err != nil {
		return BouncerNone, err
	}
	if s.Bouncers.Hired >= s.BouncerCap() {
		s.Log.Neg("security", "No more bouncers available tonight.")
		return BouncerNone, ErrBouncerCap
	}
	pay := s.bouncerPay()
	if s.Cash+1e-9 < pay {
		s.Log.Neg("security", "Can't afford a bouncer (%.2f).", pay)
		return BouncerNone, ErrInsufficientCash
	}
	s.spend(pay)

	roll := s.RNG.IntN(100)
	q := BouncerHigh
	switch {
	case roll < 35:
		q = BouncerLow
	case roll < 70:
		q = BouncerMedium
	}
	b := &s.Bouncers
	b.Hired++
	b.Best = max(b.Best, q)
	b.TheftReduction = math.Min(maxBouncerReduction, b.TheftReduction+0.10+float64(s.RNG.IntN(31))/100)
	b.NegReduction = math.Min(maxBouncerReduction, b.NegReduction+0.10+float64(s.RNG.IntN(31))/100)
	b.FightReduction = math.Min(maxBouncerReduction, b.FightReduction+0.10+float64(s.RNG.IntN(31))/100)
	s.Log.Info("security", "Hired a %s-quality bouncer for %.2f.", q, pay)
	return q, nil
}

// EffectiveSecurity is the pub's security for tonight.
func (s *Simulation) EffectiveSecurity(fx Effects) int {
	sec := s.BaseSecurityLevel + fx.Security + bouncerSecurityWeight*s.Bouncers.Hired + s.Staff.SecurityBonus()
	if s.Staff.Has(staff.RoleManager) {
		sec += managerSecurityBonus
	}
	return sec
}

// repMultiplier scales reputation losses. Bouncers, CCTV and fit-outs each
// shave a share off, never below half.
func (s *Simulation) repMultiplier(fx Effects) float64 {
	m := 1.0
	if s.Bouncers.Hired > 0 {
		m = math.Max(0.65, 0.9-0.05*float64(min(3, s.Bouncers.Hired)))
	}
	m *= 1 - fx.CCTV
	m *= 1 - fx.RepMitigation
	return math.Max(0.5, m)
}

// SecurityUpgradeCost is the price of the next base security level.
func SecurityUpgradeCost(level int) float64 {
	return 22 + 5*float64(level) + 12*math.Pow(1.14, float64(level))
}

// UpgradeSecurity buys one base security level. Each level adds daily upkeep.
func (s *Simulation) UpgradeSecurity() error {
	if s.GameOver {
		return ErrGameOver
	}
	cost := SecurityUpgradeCost(s.BaseSecurityLevel)
	if s.Cash+1e-9 < cost {
		s.Log.Neg("security", "Security upgrade costs %.2f.", cost)
		return ErrInsufficientCash
	}
	s.spend(cost)
	s.BaseSecurityLevel++
	s.Log.Pos("security", "Security raised to level %d for %.2f.", s.BaseSecurityLevel, cost)
	return nil
}

// resolveFight settles a brawl: reputation hit and damages, both reduced by
// the door.
func (s *Simulation) resolveFight(cause string, reduction float64, fx Effects) {
	red := reduction
	if s.Bouncers.Door().Intervenes(s.RNG) {
		red = math.Min(maxFightReduction, red+s.Bouncers.FightReduction)
	}
	hit := max(3, int(math.Round(10*(1-red))))
	damage := math.Max(4, 12*(1-red))

	s.applyRep(s.mitigate(-hit, fx), "fight")
	s.PayOrDebt(damage, "fight damages")
	s.tally.Fights++
	s.Nightly.Fights++
	s.Weekly.Fights++
	s.Window.Events++
	s.Log.Popup("fight", "Fight", "Fight (%s). Damages %.2f.", cause, damage)
}
