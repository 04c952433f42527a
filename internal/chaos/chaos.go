// Package chaos computes the pub's chaos signal: how close the room is to
// boiling over. Raw pressure is built from the round's counters and the crowd,
// blended with the previous value, then pushed up or down by a streak ramp
// depending on how the round went.
package chaos

import "math"

// Streak ramp constants.
const (
	BaseRise = 3.0
	BaseFall = 4.0
	NegRamp  = 0.55
	PosRamp  = 0.65

	// BetweenNightDecay is how much carried-over chaos fades per round.
	BetweenNightDecay = 1.5

	badUnservedMin    = 4
	badFoodMissesMin  = 2
	goodUnservedMax   = 1
	smoothingPrevious = 0.35
	smoothingRaw      = 0.65
)

// Clamp keeps a chaos value inside [0, 100].
func Clamp(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}

// Signals is everything that feeds raw chaos pressure for one round.
type Signals struct {
	PunterSum         float64 // Sum of active punter contributions
	Unserved          int
	Fights            int
	Refunds           int
	Events            int
	TeamMorale        float64
	WeeklyRepDeltaAbs int
	BarCount          int
	MaxOccupancy      int
	ActivityRunning   bool
	ActivityRisk      float64
	BetweenNight      float64 // Carry-over from between-night events
}

// Breakdown is raw pressure split by source.
type Breakdown struct {
	Punters      float64 `json:"punters"`
	Unserved     float64 `json:"unserved"`
	Fights       float64 `json:"fights"`
	Refunds      float64 `json:"refunds"`
	Morale       float64 `json:"morale"`
	RepSwing     float64 `json:"rep_swing"`
	Overcrowd    float64 `json:"overcrowd"`
	Events       float64 `json:"events"`
	Activity     float64 `json:"activity"`
	BetweenNight float64 `json:"between_night"`
}

// Total sums every source.
func (b Breakdown) Total() float64 {
	return b.Punters + b.Unserved + b.Fights + b.Refunds + b.Morale +
		b.RepSwing + b.Overcrowd + b.Events + b.Activity + b.BetweenNight
}

// Break splits the signals into their pressure terms.
func Break(s Signals) Breakdown {
	occupancy := math.Max(0, float64(s.BarCount)/float64(max(1, s.MaxOccupancy)))
	b := Breakdown{
		Punters:      s.PunterSum,
		Unserved:     float64(s.Unserved) * 1.2,
		Fights:       float64(s.Fights) * 4.0,
		Refunds:      float64(s.Refunds) * 1.5,
		Morale:       math.Max(0, 60-s.TeamMorale) / 6,
		RepSwing:     math.Min(10, float64(s.WeeklyRepDeltaAbs)*0.15),
		Overcrowd:    math.Max(0, occupancy-0.85) * 20,
		Events:       float64(s.Events) * 1.2,
		BetweenNight: s.BetweenNight,
	}
	if s.ActivityRunning {
		b.Activity = 2 + s.ActivityRisk*18
	}
	return b
}

// Raw is the unsmoothed chaos pressure.
func Raw(s Signals) float64 {
	return Break(s).Total()
}

// Blend smooths raw pressure against the previous chaos value.
func Blend(prev, raw float64) float64 {
	return Clamp(prev*smoothingPrevious + raw*smoothingRaw)
}

// Decay fades between-night carry-over by one round.
func Decay(betweenNight float64) float64 {
	return math.Max(0, betweenNight-BetweenNightDecay)
}

// Classification is how a round went.
type Classification uint8

const (
	Neutral Classification = iota
	StronglyNegative
	MostlyPositive
)

func (c Classification) String() string {
	switch c {
	case StronglyNegative:
		return "Strongly negative"
	case MostlyPositive:
		return "Mostly positive"
	default:
		return "Neutral"
	}
}

// Counters are the round tallies classification looks at.
type Counters struct {
	Unserved       int
	Events         int
	Fights         int
	Refunds        int
	FoodMisses     int
	StaffIncident  bool
	HappyHourCheat bool
}

// Classify buckets a round. Any trouble makes it strongly negative; a clean
// round with at most one unserved punter is mostly positive.
func Classify(c Counters) Classification {
	if c.Events > 0 || c.Fights > 0 || c.Refunds > 0 ||
		c.Unserved >= badUnservedMin || c.FoodMisses >= badFoodMissesMin ||
		c.StaffIncident || c.HappyHourCheat {
		return StronglyNegative
	}
	if c.Unserved <= goodUnservedMax && c.FoodMisses <= 0 {
		return MostlyPositive
	}
	return Neutral
}

// Streak tracks consecutive round classifications.
type Streak struct {
	Negative int            `json:"negative"`
	Positive int            `json:"positive"`
	Last     Classification `json:"last"`
	Delta    float64        `json:"delta"`
	Base     float64        `json:"base"`
}

// Reset clears both streaks at the start of a night.
func (s *Streak) Reset() {
	*s = Streak{}
}

// Apply records a classification and returns the chaos delta it produces.
// Runs of the same classification ramp the delta.
func (s *Streak) Apply(c Classification) float64 {
	s.Base, s.Delta = 0, 0
	switch c {
	case StronglyNegative:
		s.Negative++
		s.Positive = 0
		s.Base = BaseRise
		s.Delta = BaseRise + BaseRise*float64(s.Negative)*NegRamp
	case MostlyPositive:
		s.Positive++
		s.Negative = 0
		s.Base = -BaseFall
		s.Delta = -BaseFall - BaseFall*float64(s.Positive)*PosRamp
	default:
		s.Negative, s.Positive = 0, 0
	}
	s.Last = c
	return s.Delta
}

// Step applies a classification to the current chaos value.
func (s *Streak) Step(current float64, c Classification) float64 {
	return Clamp(current + s.Apply(c))
}

// NightDecay is how far chaos settles overnight. Rough nights settle less.
func NightDecay(fights, unserved int) float64 {
	if fights > 0 || unserved > 6 {
		return 1
	}
	return 2
}

// Label names a chaos level for reports.
func Label(v float64) string {
	switch {
	case v <= 15:
		return "Calm"
	case v <= 30:
		return "Tense"
	case v <= 50:
		return "Volatile"
	case v <= 70:
		return "Unstable"
	default:
		return "Explosive"
	}
}
