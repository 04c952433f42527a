package engine

import (
	"math"
	"slices"

	"github.com/talgya/pubsim/internal/entropy"
)

// IdentityKind is the character the pub has earned.
type IdentityKind uint8

const (
	IdentityNeutral IdentityKind = iota
	IdentityRespectable
	IdentityRowdy
	IdentityArtsy
	IdentityShady
	IdentityFamily
	IdentityUnderground
	identityCount
)

var identityNames = [identityCount]string{
	"Neutral", "Respectable", "Rowdy", "Artsy", "Shady", "Family Friendly", "Underground",
}

func (k IdentityKind) String() string {
	if k >= identityCount {
		return "Unknown"
	}
	return identityNames[k]
}

// identityTraits are the per-identity pulls on the night.
type identityTraits struct {
	traffic    float64
	eventBonus int
	eventBias  float64 // Shift in the positive event share
	wealth     float64
	mood       float64
}

var traits = [identityCount]identityTraits{
	IdentityNeutral:     {traffic: 1.00},
	IdentityRespectable: {traffic: 1.06, eventBonus: 2, eventBias: 0.10, wealth: 0.20, mood: 0.18},
	IdentityRowdy:       {traffic: 1.08, eventBonus: 4, eventBias: -0.10, wealth: -0.10, mood: -0.20},
	IdentityArtsy:       {traffic: 1.04, eventBonus: 2, eventBias: 0.05, wealth: 0.16},
	IdentityShady:       {traffic: 0.94, eventBonus: 4, eventBias: -0.15, wealth: -0.20, mood: -0.18},
	IdentityFamily:      {traffic: 1.05, eventBonus: 2, eventBias: 0.10, wealth: 0.05, mood: 0.18},
	IdentityUnderground: {traffic: 1.00, eventBonus: 4, eventBias: -0.05, wealth: -0.16, mood: -0.10},
}

const (
	identityDecay     = 0.85
	identityThreshold = 3.0
)

// Identity holds the weekly scores and the identity they currently add up to.
type Identity struct {
	Current IdentityKind           `json:"current"`
	Scores  [identityCount]float64 `json:"scores"`
}

// NewIdentity starts neutral.
func NewIdentity() Identity {
	return Identity{Current: IdentityNeutral}
}

func (id Identity) traits() identityTraits { return traits[id.Current] }

// TrafficMult is the identity's pull on footfall.
func (id Identity) TrafficMult() float64 { return id.traits().traffic }

// EventBonus is added to the round event chance.
func (id Identity) EventBonus() int { return id.traits().eventBonus }

// EventBias shifts the share of positive events.
func (id Identity) EventBias() float64 { return id.traits().eventBias }

// WealthBias feeds the spawner's tier nudge.
func (id Identity) WealthBias() float64 { return id.traits().wealth }

// MoodBias feeds the spawner's mood nudge.
func (id Identity) MoodBias() float64 { return id.traits().mood }

// WeekSignals is the week's record as identity and rumours see it.
type WeekSignals struct {
	Profit         float64
	Fights         int
	Unserved       int
	Refunds        int
	NegEvents      int
	AvgChaos       float64
	RepNet         int
	FoodQuality    float64
	AvgPrice       float64
	ActivityNights int
	SharkBalance   bool
}

// Update decays the scores, adds the week's evidence and re-derives the
// identity. It reports whether the identity changed.
func (id *Identity) Update(w WeekSignals) bool {
	for i := range id.Scores {
		id.Scores[i] *= identityDecay
	}
	add := func(k IdentityKind, v float64) { id.Scores[k] += v }

	switch {
	case w.Profit > 0:
		add(IdentityRespectable, 1.2)
		add(IdentityFamily, 0.6)
	case w.Profit < 0:
		add(IdentityShady, 0.8)
	}
	if w.Fights == 0 {
		add(IdentityRespectable, 1)
		add(IdentityFamily, 1)
	} else if w.Fights >= 3 {
		add(IdentityRowdy, 1.6)
	}
	if w.Unserved >= 8 {
		add(IdentityRowdy, 0.8)
	}
	if w.AvgChaos < 18 {
		add(IdentityRespectable, 0.8)
	} else if w.AvgChaos > 40 {
		add(IdentityRowdy, 1.1)
		add(IdentityUnderground, 0.9)
	}
	if w.RepNet > 0 {
		add(IdentityRespectable, 0.8)
		add(IdentityArtsy, 0.4)
	} else if w.RepNet < 0 {
		add(IdentityShady, 0.9)
	}
	if w.FoodQuality >= 2.6 && w.Refunds < 6 {
		add(IdentityFamily, 1)
		add(IdentityRespectable, 0.6)
	}
	if w.Refunds > 12 {
		add(IdentityShady, 0.8)
	}
	add(IdentityArtsy, 1.1*float64(w.ActivityNights))
	if w.SharkBalance {
		add(IdentityShady, 0.6)
	}

	best, score := IdentityNeutral, identityThreshold
	for k := IdentityRespectable; k < identityCount; k++ {
		if id.Scores[k] > score {
			best, score = k, id.Scores[k]
		}
	}
	changed := best != id.Current
	id.Current = best
	return changed
}

// Rumour is a story going round town about the pub.
type Rumour string

const (
	RumourWateredDown   Rumour = "WATERED_DOWN_DRINKS"
	RumourFights        Rumour = "FIGHTS_EVERY_WEEKEND"
	RumourSundayRoast   Rumour = "BEST_SUNDAY_ROAST"
	RumourFoodPoisoning Rumour = "FOOD_POISONING_SCARE"
	RumourSlowService   Rumour = "SLOW_SERVICE"
	RumourFriendlyStaff Rumour = "FRIENDLY_STAFF"
	RumourAtmosphere    Rumour = "GREAT_ATMOSPHERE"
	RumourStaffStealing Rumour = "STAFF_STEALING"
	RumourLiveMusic     Rumour = "LIVE_MUSIC_SCENE"
	RumourDodgyNights   Rumour = "DODGY_LATE_NIGHTS"
)

const maxRumourHeat = 100

var (
	goodRumours = []Rumour{RumourFriendlyStaff, RumourAtmosphere, RumourSundayRoast}
	badRumours  = []Rumour{RumourSlowService, RumourWateredDown, RumourStaffStealing}
)

// Rumours is heat per topic, 0..100.
type Rumours map[Rumour]int

// Heat returns a topic's heat.
func (r Rumours) Heat(t Rumour) int { return r[t] }

// Add raises a topic's heat.
func (r Rumours) Add(t Rumour, heat int) {
	r[t] = max(0, min(maxRumourHeat, r[t]+heat))
}

// Decay cools every topic and forgets the cold ones.
func (r Rumours) Decay(amount int) {
	for t, h := range r {
		if h-amount <= 0 {
			delete(r, t)
			continue
		}
		r[t] = h - amount
	}
}

// TrafficMult is the word-of-mouth pull on footfall.
func (r Rumours) TrafficMult() float64 {
	m := 1 -
		0.002*float64(r[RumourWateredDown]) -
		0.0025*float64(r[RumourFights]) +
		0.002*float64(r[RumourSundayRoast]) -
		0.002*float64(r[RumourFoodPoisoning]) -
		0.002*float64(r[RumourSlowService]) +
		0.002*float64(r[RumourFriendlyStaff]) +
		0.002*float64(r[RumourAtmosphere])
	return math.Max(0.8, math.Min(1.2, m))
}

// MoodBias is how the stories colour the moods of new arrivals.
func (r Rumours) MoodBias() float64 {
	v := float64(r[RumourFriendlyStaff]+r[RumourAtmosphere]-r[RumourFights]-r[RumourDodgyNights]) / 400
	return math.Max(-0.25, math.Min(0.25, v))
}

// FoodBias is how the stories pull on food orders.
func (r Rumours) FoodBias() float64 {
	v := 1 + float64(r[RumourSundayRoast]-r[RumourFoodPoisoning])/200
	return math.Max(0.5, math.Min(1.5, v))
}

// Hottest returns the topic with the most heat, by name on ties.
func (r Rumours) Hottest() (Rumour, int) {
	topics := make([]Rumour, 0, len(r))
	for t := range r {
		topics = append(topics, t)
	}
	slices.Sort(topics)
	var best Rumour
	heat := 0
	for _, t := range topics {
		if r[t] > heat {
			best, heat = t, r[t]
		}
	}
	return best, heat
}

// weeklyRumours cools the rumour mill and adds the week's stories.
func (s *Simulation) weeklyRumours(w WeekSignals) {
	decay := 6
	if w.Unserved <= 2 && w.Fights == 0 {
		decay = 8
	}
	s.Rumours.Decay(decay)

	if w.Refunds > 10 || (w.FoodQuality > 0 && w.FoodQuality < 2) {
		s.Rumours.Add(RumourFoodPoisoning, 18)
	}
	if w.FoodQuality >= 3 && w.Refunds < 6 {
		s.Rumours.Add(RumourSundayRoast, 14)
	}
	if w.Fights >= 2 || w.NegEvents >= 3 {
		s.Rumours.Add(RumourFights, 16)
	}
	if w.AvgChaos > 35 {
		s.Rumours.Add(RumourFights, 6)
	}
	if w.AvgPrice >= 1.35 {
		s.Rumours.Add(RumourWateredDown, 12)
	}
}

// roundRumours feeds one round's trouble to the rumour mill.
func (s *Simulation) roundRumours() {
	if s.tally.Fights > 0 {
		s.Rumours.Add(RumourFights, 4*s.tally.Fights)
	}
	if s.tally.Unserved >= 6 {
		s.Rumours.Add(RumourWateredDown, 3)
	}
	if s.Chaos > 60 && s.RNG.IntN(100) < 20 {
		s.Rumours.Add(RumourDodgyNights, 4)
	}
}

// nightlyRumour may start a new story after closing. Staff morale sets the tone.
func (s *Simulation) nightlyRumour() {
	chance := 0.10
	if s.Nightly.Unserved >= 6 {
		chance += 0.04
	}
	if s.Nightly.Refunds > 0 {
		chance += 0.03
	}
	if s.Nightly.Fights > 0 {
		chance += 0.03
	}
	if s.Chaos > 55 {
		chance += 0.03
	}
	if s.Nightly.Fights == 0 && s.Nightly.Unserved <= 2 && s.Nightly.Events == 0 {
		chance -= 0.03
	}
	chance = math.Max(0.04, math.Min(0.25, chance))
	if s.RNG.Float64() >= chance {
		return
	}

	morale := s.Staff.TeamMorale() - s.Market.RumourBias()*10
	var pool []Rumour
	switch {
	case morale <= 40:
		pool = badRumours
	case morale >= 70:
		pool = goodRumours
	default:
		pool = append(slices.Clone(goodRumours), badRumours...)
	}
	topic := pool[s.RNG.IntN(len(pool))]
	if topic == RumourSundayRoast && !s.KitchenOpen() {
		topic = RumourAtmosphere
	}
	heat := entropy.IntRange(s.RNG, 8, 16)
	s.Rumours.Add(topic, heat)
	s.Log.Info("rumour", "Word around town: %s (+%d).", topic, heat)
}
