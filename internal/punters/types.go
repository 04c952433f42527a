// Package punters provides the customers who come through the door each
// night: their data model, a seeded spawner, the service behaviour that turns
// a round at the bar into sales and trouble, and the nightly population.
package punters

import (
	"fmt"
	"strings"

	"github.com/talgya/pubsim/internal/economy"
)

// ID is a unique identifier for a punter within a run.
type ID uint64

// Tier is the punter's spending class.
type Tier = economy.Tier

// Mood is a punter's temper. It only ever moves toward Menace during a visit.
type Mood uint8

const (
	MoodChill Mood = iota
	MoodRowdy
	MoodMenace // Escalating again starts a fight
)

func (m Mood) String() string {
	switch m {
	case MoodRowdy:
		return "rowdy"
	case MoodMenace:
		return "MENACE"
	default:
		return "chill"
	}
}

// escalation is the closed transition table for Escalate. Menace has no entry.
var escalation = map[Mood]Mood{
	MoodChill: MoodRowdy,
	MoodRowdy: MoodMenace,
}

// moodChaos is each mood's contribution to chaos pressure.
var moodChaos = map[Mood]int{
	MoodChill:  -1,
	MoodRowdy:  1,
	MoodMenace: 2,
}

// DescriptorCategory groups descriptors for weighted assignment.
type DescriptorCategory uint8

const (
	CategoryPersonality DescriptorCategory = iota
	CategorySocial
	CategoryPhysical
)

// Descriptor is a flavour trait that nudges chaos pressure.
type Descriptor uint8

const (
	Calm Descriptor = iota
	Loud
	Shifty
	Dodgy
	Friendly
	Volatile
	Reserved
	Impulsive
	Fancy
	Artsy
	Underground
	Corporate
	PartyHard
	LowKey
	WellDressed
	Scruffy
	Intimidating
	Gorgeous
	BabyFaced
	Distinctive
)

type descriptorInfo struct {
	name     string
	category DescriptorCategory
	chaos    int
	weight   int
}

var descriptors = [...]descriptorInfo{
	Calm:         {"calm", CategoryPersonality, -1, 14},
	Loud:         {"loud", CategoryPersonality, 1, 12},
	Shifty:       {"shifty", CategoryPersonality, 1, 10},
	Dodgy:        {"dodgy", CategoryPersonality, 2, 8},
	Friendly:     {"friendly", CategoryPersonality, -1, 12},
	Volatile:     {"volatile", CategoryPersonality, 2, 7},
	Reserved:     {"reserved", CategoryPersonality, -1, 10},
	Impulsive:    {"impulsive", CategoryPersonality, 1, 9},
	Fancy:        {"fancy", CategorySocial, -1, 10},
	Artsy:        {"artsy", CategorySocial, -1, 9},
	Underground:  {"underground", CategorySocial, 1, 8},
	Corporate:    {"corporate", CategorySocial, -1, 8},
	PartyHard:    {"party hard", CategorySocial, 1, 10},
	LowKey:       {"low key", CategorySocial, -1, 10},
	WellDressed:  {"well dressed", CategoryPhysical, -1, 8},
	Scruffy:      {"scruffy", CategoryPhysical, 1, 9},
	Intimidating: {"intimidating", CategoryPhysical, 1, 6},
	Gorgeous:     {"gorgeous", CategoryPhysical, -1, 5},
	BabyFaced:    {"baby faced", CategoryPhysical, 0, 6},
	Distinctive:  {"distinctive", CategoryPhysical, 0, 7},
}

func (d Descriptor) String() string { return descriptors[d].name }

// Category returns the descriptor's group.
func (d Descriptor) Category() DescriptorCategory { return descriptors[d].category }

// ChaosDelta returns the descriptor's pull on chaos.
func (d Descriptor) ChaosDelta() int { return descriptors[d].chaos }

// Weight returns the descriptor's assignment weight within its category.
func (d Descriptor) Weight() int { return descriptors[d].weight }

// Punter is one customer for one night.
type Punter struct {
	ID      ID      `json:"id"`
	Name    string  `json:"name"`
	Age     int     `json:"age"`
	Tier    Tier    `json:"tier"`
	Mood    Mood    `json:"mood"`
	Wallet  float64 `json:"wallet"`
	Trouble int     `json:"trouble"` // 0..2

	Descriptors []Descriptor `json:"descriptors"`

	NoBuyStreak  int  `json:"no_buy_streak"`
	Banned       bool `json:"banned"`
	Left         bool `json:"left"`
	FoodCooldown int  `json:"food_cooldown"`
	FoodAttempts int  `json:"food_attempts"`
	OrderedFood  bool `json:"ordered_food"`
	DrinksBought int  `json:"drinks_bought"`
}

// noBuyBanThreshold is how many rounds without a purchase gets a punter
// thrown out.
const noBuyBanThreshold = 3

// Active reports whether the punter is still in the bar.
func (p *Punter) Active() bool { return !p.Banned && !p.Left }

// CanDrink reports whether the punter is of legal drinking age.
func (p *Punter) CanDrink() bool { return p.Age >= 18 }

// Spend takes money out of the wallet, never below zero.
func (p *Punter) Spend(amount float64) {
	p.Wallet = max(0, p.Wallet-amount)
}

// Leave marks the punter as gone for the night.
func (p *Punter) Leave() { p.Left = true }

// KickOut bans the punter and removes them.
func (p *Punter) KickOut() {
	p.Banned = true
	p.Left = true
}

// MissedRound records a round without a purchase. The third in a row bans.
func (p *Punter) MissedRound() {
	p.NoBuyStreak++
	if p.NoBuyStreak >= noBuyBanThreshold {
		p.KickOut()
	}
}

// Escalate moves the mood one step toward Menace. It reports true when the
// punter was already at Menace, which means a fight.
func (p *Punter) Escalate() bool {
	next, ok := escalation[p.Mood]
	if !ok {
		return true
	}
	p.Mood = next
	return false
}

// calm moves the mood one step back. Used only at creation.
func (p *Punter) calm() {
	switch p.Mood {
	case MoodMenace:
		p.Mood = MoodRowdy
	case MoodRowdy:
		p.Mood = MoodChill
	}
}

// TickFood counts down the food cooldown.
func (p *Punter) TickFood() {
	if p.FoodCooldown > 0 {
		p.FoodCooldown--
	}
}

// Contribution is the punter's share of chaos pressure, clamped to [-2, 3].
func (p *Punter) Contribution(reputation int) int {
	chaos := 0
	for _, d := range p.Descriptors {
		chaos += d.ChaosDelta()
	}
	chaos += moodChaos[p.Mood]
	chaos += p.Trouble
	if p.NoBuyStreak >= 2 {
		chaos++
	}
	if p.NoBuyStreak >= 3 {
		chaos++
	}
	if reputation >= 60 {
		chaos--
	}
	if reputation <= -40 {
		chaos++
	}
	return max(-2, min(3, chaos))
}

func (p *Punter) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s | age %d | wallet %.2f | %s | %s", p.Name, p.Age, p.Wallet, strings.ToLower(p.Tier.String()), p.Mood)
	if len(p.Descriptors) > 0 {
		names := make([]string, len(p.Descriptors))
		for i, d := range p.Descriptors {
			names[i] = d.String()
		}
		b.WriteString(" | " + strings.Join(names, ", "))
	}
	if p.Banned {
		b.WriteString(" (KICKED OUT)")
	} else if p.Left {
		b.WriteString(" (LEFT)")
	}
	return b.String()
}
