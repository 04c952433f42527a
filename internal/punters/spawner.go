package punters

import (
	"math/rand/v2"

	"github.com/talgya/pubsim/internal/economy"
)

// Bias shapes who walks in. Wealth and mood biases come from the pub's
// identity and rumours; positive values mean richer and calmer punters.
type Bias struct {
	Reputation int
	PubLevel   int
	WealthBias float64
	MoodBias   float64
	TierWeight func(Tier) float64 // Seasonal scaling of tier weights; nil leaves them
}

// Spawner creates punters for the simulation.
type Spawner struct {
	rng    *rand.Rand
	nextID ID
}

// NewSpawner creates a spawner drawing from the simulation's generator.
func NewSpawner(rng *rand.Rand) *Spawner {
	return &Spawner{rng: rng, nextID: 1}
}

// NextID returns the id the next punter will get.
func (s *Spawner) NextID() ID { return s.nextID }

// SpawnN creates a batch of punters.
func (s *Spawner) SpawnN(n int, b Bias) []*Punter {
	out := make([]*Punter, 0, max(0, n))
	for range n {
		out = append(out, s.Spawn(b))
	}
	return out
}

// Spawn creates one punter.
func (s *Spawner) Spawn(b Bias) *Punter {
	id := s.nextID
	s.nextID++

	tier := s.adjustTier(s.rollTier(b), b)
	trouble := s.rollTrouble(tier)

	p := &Punter{
		ID:      id,
		Name:    s.generateName(),
		Age:     16 + s.rng.IntN(35),
		Tier:    tier,
		Wallet:  s.startingWallet(tier),
		Trouble: trouble,
	}
	if trouble == 1 && s.rng.IntN(100) < 30 {
		p.Mood = MoodRowdy
	}
	if trouble == 2 && s.rng.IntN(100) < 25 {
		p.Mood = MoodMenace
	}

	p.Descriptors = s.pickDescriptors()
	s.applyReputationBias(p, b.Reputation)
	s.applyMoodBias(p, b.MoodBias)
	return p
}

// Tier weights by reputation band, richest first.
func tierWeights(rep int) (big, decent, regular, low float64) {
	switch {
	case rep >= 70:
		return 20, 45, 30, 5
	case rep >= 40:
		return 12, 38, 35, 15
	case rep >= 0:
		return 6, 29, 40, 25
	default:
		return 3, 17, 35, 45
	}
}

func (s *Spawner) rollTier(b Bias) Tier {
	big, decent, regular, low := tierWeights(b.Reputation)
	shift := float64(max(0, b.PubLevel) * 2)
	big += shift
	low = max(1, low-shift)
	if b.TierWeight != nil {
		big *= b.TierWeight(economy.TierBigSpender)
		decent *= b.TierWeight(economy.TierDecent)
		regular *= b.TierWeight(economy.TierRegular)
		low *= b.TierWeight(economy.TierLowlife)
	}

	roll := s.rng.Float64() * (big + decent + regular + low)
	if roll < big {
		return economy.TierBigSpender
	}
	roll -= big
	if roll < decent {
		return economy.TierDecent
	}
	roll -= decent
	if roll < regular {
		return economy.TierRegular
	}
	return economy.TierLowlife
}

// adjustTier nudges the rolled tier one step with the pub's pull on wallets.
func (s *Spawner) adjustTier(t Tier, b Bias) Tier {
	bias := b.WealthBias + float64(b.PubLevel)*0.06
	if bias > 0.15 && s.rng.IntN(100) < 35 && t < economy.TierBigSpender {
		return t + 1
	}
	if bias < -0.15 && s.rng.IntN(100) < 30 && t > economy.TierLowlife {
		return t - 1
	}
	return t
}

func (s *Spawner) rollTrouble(t Tier) int {
	base := 55
	switch t {
	case economy.TierRegular:
		base = 70
	case economy.TierDecent:
		base = 80
	case economy.TierBigSpender:
		base = 88
	}
	roll := s.rng.IntN(100)
	switch {
	case roll < base:
		return 0
	case roll < 92:
		return 1
	default:
		return 2
	}
}

func (s *Spawner) startingWallet(t Tier) float64 {
	switch t {
	case economy.TierRegular:
		return 8 + s.rng.Float64()*50
	case economy.TierDecent:
		return 18 + s.rng.Float64()*90
	case economy.TierBigSpender:
		return 35 + s.rng.Float64()*140
	default:
		return 3 + s.rng.Float64()*22
	}
}

// pickDescriptors assigns 1..3 distinct descriptors: a category is chosen
// 50/30/20 (personality, social, physical), then a descriptor by weight.
func (s *Spawner) pickDescriptors() []Descriptor {
	want := 1 + s.rng.IntN(3)
	picked := make([]Descriptor, 0, want)
	taken := make(map[Descriptor]bool, want)

	for attempt := 0; len(picked) < want && attempt < 12; attempt++ {
		cat := CategoryPhysical
		switch roll := s.rng.IntN(100); {
		case roll < 50:
			cat = CategoryPersonality
		case roll < 80:
			cat = CategorySocial
		}
		if d, ok := s.pickFromCategory(cat, taken); ok {
			picked = append(picked, d)
			taken[d] = true
		}
	}
	return picked
}

func (s *Spawner) pickFromCategory(cat DescriptorCategory, taken map[Descriptor]bool) (Descriptor, bool) {
	total := 0
	for i := range descriptors {
		d := Descriptor(i)
		if d.Category() == cat && !taken[d] {
			total += d.Weight()
		}
	}
	if total <= 0 {
		return 0, false
	}
	roll := s.rng.IntN(total)
	for i := range descriptors {
		d := Descriptor(i)
		if d.Category() != cat || taken[d] {
			continue
		}
		if roll < d.Weight() {
			return d, true
		}
		roll -= d.Weight()
	}
	return 0, false
}

// applyReputationBias softens moods at a well-liked pub and sours them at a
// disliked one. Creation time only.
func (s *Spawner) applyReputationBias(p *Punter, rep int) {
	switch {
	case rep > 50:
		if p.Mood == MoodRowdy && s.rng.IntN(100) < 40 {
			p.calm()
		} else if p.Mood == MoodMenace && s.rng.IntN(100) < 35 {
			p.calm()
		}
	case rep < 0:
		if p.Mood == MoodChill && s.rng.IntN(100) < 25 {
			p.Escalate()
		} else if p.Mood == MoodRowdy && s.rng.IntN(100) < 20 {
			p.Escalate()
		}
	}
}

func (s *Spawner) applyMoodBias(p *Punter, bias float64) {
	if bias > 0.15 && p.Mood != MoodChill && s.rng.IntN(100) < 35 {
		p.Mood = MoodChill
		return
	}
	if bias < -0.15 {
		if p.Mood == MoodChill && s.rng.IntN(100) < 30 {
			p.Escalate()
		} else if p.Mood == MoodRowdy && s.rng.IntN(100) < 20 {
			p.Escalate()
		}
	}
}

func (s *Spawner) generateName() string {
	first := firstNames[s.rng.IntN(len(firstNames))]
	last := lastNames[s.rng.IntN(len(lastNames))]
	return first + " " + last
}

var firstNames = []string{
	"Alfie", "Barry", "Callum", "Dean", "Eddie", "Frankie", "Gaz",
	"Harry", "Ian", "Jack", "Kev", "Liam", "Mick", "Nige", "Ollie",
	"Pete", "Ronnie", "Stan", "Terry", "Vince", "Wayne", "Amber",
	"Bev", "Chantelle", "Dot", "Eileen", "Fran", "Gemma", "Hayley",
	"Imogen", "Jackie", "Kerry", "Lorraine", "Maureen", "Nicola",
	"Pauline", "Rita", "Sharon", "Tracey", "Val",
}

var lastNames = []string{
	"Abbott", "Barker", "Clarke", "Dawson", "Ellis", "Fletcher",
	"Gibbs", "Hughes", "Ingram", "Jenkins", "Kemp", "Lawson", "Moss",
	"Norris", "Owens", "Parry", "Quigley", "Reeves", "Stokes", "Turner",
	"Underwood", "Vickers", "Walsh", "Yates", "Bishop", "Cooper",
	"Fowler", "Harper", "Mercer", "Thatcher", "Ward", "Wyatt",
}
