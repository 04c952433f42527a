package engine

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/talgya/pubsim/internal/economy"
)

// The pub's first night. DayCounter counts days from here.
var calendarStart = time.Date(1989, time.January, 16, 0, 0, 0, 0, time.UTC)

// Season is a recurring stretch of the year that shifts who comes in.
type Season uint8

const (
	SeasonTouristWave Season = iota
	SeasonExams
	SeasonWinterSlump
	SeasonDerbyWeek
)

func (s Season) String() string {
	switch s {
	case SeasonTouristWave:
		return "Tourist Wave"
	case SeasonExams:
		return "Exam Season"
	case SeasonWinterSlump:
		return "Winter Slump"
	case SeasonDerbyWeek:
		return "Derby Week"
	default:
		return "Unknown"
	}
}

// MarshalText lets season lists encode as names rather than bytes.
func (s Season) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// seasonPeriod spans (month, week of month) to (month, week of month),
// inclusive. A start after the end wraps over the new year.
type seasonPeriod struct {
	season     Season
	startMonth int
	startWeek  int
	endMonth   int
	endWeek    int
}

var seasonPeriods = []seasonPeriod{
	{SeasonTouristWave, 6, 1, 8, 4},
	{SeasonExams, 5, 2, 6, 2},
	{SeasonWinterSlump, 11, 3, 1, 2},
	{SeasonDerbyWeek, 3, 3, 3, 3},
}

func (p seasonPeriod) active(d time.Time) bool {
	key := int(d.Month())*10 + (d.Day()-1)/7 + 1
	start, end := p.startMonth*10+p.startWeek, p.endMonth*10+p.endWeek
	if start <= end {
		return key >= start && key <= end
	}
	return key >= start || key <= end
}

// SeasonsOn returns the seasons running on a calendar date.
func SeasonsOn(d time.Time) []Season {
	var out []Season
	for _, p := range seasonPeriods {
		if p.active(d) {
			out = append(out, p.season)
		}
	}
	return out
}

// Date is the in-game calendar date for today.
func (s *Simulation) Date() time.Time {
	return calendarStart.AddDate(0, 0, s.DayCounter)
}

// ActiveSeasons returns today's seasons, or none when seasons are off.
func (s *Simulation) ActiveSeasons() []Season {
	if !s.SeasonsEnabled {
		return nil
	}
	return SeasonsOn(s.Date())
}

// seasonMult multiplies one factor per active season.
func (s *Simulation) seasonMult(factor func(Season) float64) float64 {
	m := 1.0
	for _, season := range s.ActiveSeasons() {
		m *= factor(season)
	}
	return m
}

func (s *Simulation) seasonalSupplierPrice() float64 {
	return s.seasonMult(func(season Season) float64 {
		switch season {
		case SeasonTouristWave:
			return 1.02
		case SeasonWinterSlump:
			return 0.98
		default:
			return 1.01
		}
	})
}

func (s *Simulation) seasonalRoundEvents() float64 {
	return s.seasonMult(func(season Season) float64 {
		switch season {
		case SeasonTouristWave:
			return 1.05
		case SeasonWinterSlump:
			return 0.95
		case SeasonDerbyWeek:
			return 1.08
		default:
			return 1
		}
	})
}

func (s *Simulation) seasonalOvernightEvents() float64 {
	return s.seasonMult(func(season Season) float64 {
		switch season {
		case SeasonTouristWave:
			return 1.06
		case SeasonWinterSlump:
			return 0.94
		case SeasonDerbyWeek:
			return 1.10
		default:
			return 1
		}
	})
}

// seasonalTierWeight scales a spending tier's share of new arrivals.
func (s *Simulation) seasonalTierWeight(t economy.Tier) float64 {
	return s.seasonMult(func(season Season) float64 {
		switch season {
		case SeasonTouristWave:
			switch t {
			case economy.TierBigSpender:
				return 1.08
			case economy.TierDecent:
				return 1.05
			case economy.TierLowlife:
				return 0.94
			}
		case SeasonExams:
			switch t {
			case economy.TierDecent:
				return 1.08
			case economy.TierRegular:
				return 1.04
			case economy.TierBigSpender:
				return 0.96
			}
		case SeasonWinterSlump:
			switch t {
			case economy.TierBigSpender:
				return 0.92
			case economy.TierDecent:
				return 0.96
			case economy.TierLowlife:
				return 1.08
			}
		case SeasonDerbyWeek:
			switch t {
			case economy.TierRegular:
				return 1.05
			case economy.TierLowlife:
				return 1.12
			case economy.TierBigSpender:
				return 0.95
			}
		}
		return 1
	})
}

// Stance is what a rival pub did this week.
type Stance uint8

const (
	StancePriceWar Stance = iota
	StanceQualityPush
	StanceEventSpam
	StanceLayLow
	StanceChaosRecovery
	stanceCount
)

func (st Stance) String() string {
	switch st {
	case StancePriceWar:
		return "price war"
	case StanceQualityPush:
		return "quality push"
	case StanceEventSpam:
		return "event spam"
	case StanceLayLow:
		return "lay low"
	case StanceChaosRecovery:
		return "chaos recovery"
	default:
		return "unknown"
	}
}

// Rival is a competing pub in the district. Traits run 0..2.
type Rival struct {
	Name            string `json:"name"`
	PriceAggression int    `json:"price_aggression"`
	QualityFocus    int    `json:"quality_focus"`
	ChaosTolerance  int    `json:"chaos_tolerance"`
	Vibe            string `json:"vibe"`
}

// DistrictRivals are the pubs competing for the same street.
func DistrictRivals() []Rival {
	return []Rival{
		{Name: "The Copper Fox", PriceAggression: 2, QualityFocus: 1, ChaosTolerance: 1, Vibe: "noisy"},
		{Name: "Pearl Street Tap", PriceAggression: 0, QualityFocus: 2, ChaosTolerance: 2, Vibe: "upscale"},
		{Name: "North Lane Inn", PriceAggression: 1, QualityFocus: 1, ChaosTolerance: 0, Vibe: "mixed"},
	}
}

func trait(v int) int { return max(0, min(2, v)) }

// pickStance rolls one rival's week, weighted by its traits.
func (r Rival) pickStance(rng *rand.Rand) Stance {
	price, quality, tol := trait(r.PriceAggression), trait(r.QualityFocus), trait(r.ChaosTolerance)
	weights := [stanceCount]int{
		StancePriceWar:      10 + price*8 + (2-quality)*2,
		StanceQualityPush:   10 + quality*8 + (2-price)*2,
		StanceEventSpam:     8 + (2-tol)*6 + (price+quality)*2,
		StanceLayLow:        10 + tol*4 + (2-price)*3,
		StanceChaosRecovery: 6 + (2-tol)*9,
	}
	total := 0
	for _, w := range weights {
		total += w
	}
	roll := rng.IntN(total)
	for st, w := range weights {
		if roll < w {
			return Stance(st)
		}
		roll -= w
	}
	return StanceChaosRecovery
}

// MarketPressure is the district's week: how many rivals took each stance.
type MarketPressure struct {
	Rivals int              `json:"rivals"`
	Counts [stanceCount]int `json:"counts"`
}

// RunRivals rolls every rival's stance for the week.
func RunRivals(rivals []Rival, rng *rand.Rand) MarketPressure {
	p := MarketPressure{Rivals: len(rivals)}
	for _, r := range rivals {
		p.Counts[r.pickStance(rng)]++
	}
	return p
}

func clampRange(v, lo, hi float64) float64 { return math.Max(lo, math.Min(hi, v)) }

// DemandMult is the rivals' pull on footfall, 1 in a quiet week.
func (p MarketPressure) DemandMult() float64 {
	if p.Rivals == 0 {
		return 1
	}
	c := p.Counts
	return clampRange(1-
		0.03*float64(c[StancePriceWar])-
		0.02*float64(c[StanceEventSpam])+
		0.01*float64(c[StanceLayLow])+
		0.01*float64(c[StanceChaosRecovery]), 0.90, 1.06)
}

// MixBias nudges new arrivals toward richer (positive) or poorer wallets.
func (p MarketPressure) MixBias() float64 {
	c := p.Counts
	return clampRange(0.06*float64(c[StanceQualityPush])-
		0.05*float64(c[StancePriceWar])-
		0.03*float64(c[StanceEventSpam]), -0.20, 0.20)
}

// RumourBias sours (positive) or sweetens the town's talk about the pub.
func (p MarketPressure) RumourBias() float64 {
	c := p.Counts
	return clampRange(0.18*float64(c[StancePriceWar])+
		0.14*float64(c[StanceEventSpam])-
		0.12*float64(c[StanceQualityPush])-
		0.08*float64(c[StanceLayLow]), -0.50, 0.60)
}

// Dominant is the most common stance; ties go to the earlier stance.
func (p MarketPressure) Dominant() Stance {
	best := StanceLayLow
	count := -1
	for st, n := range p.Counts {
		if n > count {
			best, count = Stance(st), n
		}
	}
	return best
}

// districtWeek rolls the rivals for the coming week.
func (s *Simulation) districtWeek() {
	if !s.RivalsEnabled {
		s.Market = MarketPressure{}
		return
	}
	s.Market = RunRivals(DistrictRivals(), s.RNG)
	s.Log.Info("district", "%s", s.Market.Summary())
}

// Summary is a one-line district update.
func (p MarketPressure) Summary() string {
	if p.Rivals == 0 {
		return "District update: quiet week."
	}
	return fmt.Sprintf("District: rivals leaned %s this week (traffic x%.2f, mix %+.2f, rumours %+.2f).",
		p.Dominant(), p.DemandMult(), p.MixBias(), p.RumourBias())
}
