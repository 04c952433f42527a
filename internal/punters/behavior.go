package punters

import (
	"math"
	"math/rand/v2"
	"slices"

	"github.com/talgya/pubsim/internal/economy"
	"github.com/talgya/pubsim/internal/events"
)

// Door describes tonight's hired bouncers.
type Door struct {
	Hired          int
	Mitigation     float64 // Chance a bouncer steps in
	TheftReduction float64
	NegReduction   float64
	FightReduction float64
}

// Intervenes rolls whether a bouncer steps in.
func (d Door) Intervenes(rng *rand.Rand) bool {
	return d.Hired > 0 && rng.Float64() < d.Mitigation
}

// Conditions is the read-only state of the bar for one round.
type Conditions struct {
	Reputation     int
	PriceMult      float64 // Effective multiplier after happy hour and activities
	HappyHour      bool
	RiskyWeekend   bool
	Security       int
	TipRate        float64
	ChaosTolerance float64 // Staff chaos capacity
	ActivityRisk   float64
	RiskReduction  float64 // Upgrade theft/incident reduction
	RepMultiplier  float64 // Security mitigation applied to rep losses
	Door           Door

	KitchenOpen  bool
	KitchenBonus int // Kitchen quality bonus from upgrades
	PrepRounds   int
	Round        int
	FoodBias     float64 // Identity and rumour pull on food orders
}

// FightCause names what set a fight off.
type FightCause string

// Fight is a fight the scheduler still has to resolve.
type Fight struct {
	Punter    ID
	Cause     FightCause
	Reduction float64 // Base reduction before bouncer effects
}

// Outcome accumulates what happened at the bar during one round.
type Outcome struct {
	Revenue     float64             `json:"revenue"`
	Tips        float64             `json:"tips"`
	Sales       int                 `json:"sales"`
	Sold        map[string]int      `json:"sold"`
	RepDelta    int                 `json:"rep_delta"`
	Fights      []Fight             `json:"fights"`
	Unserved    int                 `json:"unserved"`
	Refused     int                 `json:"refused"`
	KickedOut   int                 `json:"kicked_out"`
	Thefts      int                 `json:"thefts"`
	Caught      int                 `json:"caught"`
	Complaints  int                 `json:"complaints"`
	Defused     int                 `json:"defused"`
	WalkOuts    int                 `json:"walk_outs"`
	FoodOrders  []economy.FoodOrder `json:"food_orders"`
	FoodSold    int                 `json:"food_sold"`
	FoodMisses  int                 `json:"food_misses"`
	FoodQuality []int               `json:"food_quality"`
	Cheated     bool                `json:"happy_hour_cheat"`
}

// NewOutcome creates an empty outcome.
func NewOutcome() *Outcome {
	return &Outcome{Sold: make(map[string]int)}
}

// Mitigate scales a negative reputation change by the security multiplier.
// A loss never rounds away entirely.
func Mitigate(delta int, mult float64) int {
	if delta >= 0 || mult <= 0 {
		return delta
	}
	scaled := int(math.Round(float64(delta) * mult))
	if scaled == 0 {
		return -1
	}
	return scaled
}

// Bar resolves service for one round. The caller applies Out to the world.
type Bar struct {
	RNG   *rand.Rand
	Log   *events.Log
	Wine  *economy.WineRack
	Food  *economy.FoodRack
	Crowd []*Punter // Everyone in tonight, for knock-on departures
	Cond  Conditions
	Out   *Outcome

	cheatNoted bool
}

// NewBar prepares a round of service.
func NewBar(rng *rand.Rand, log *events.Log, wine *economy.WineRack, food *economy.FoodRack, crowd []*Punter, cond Conditions) *Bar {
	return &Bar{RNG: rng, Log: log, Wine: wine, Food: food, Crowd: crowd, Cond: cond, Out: NewOutcome()}
}

func (b *Bar) rep() int {
	return max(-100, min(100, b.Cond.Reputation+b.Out.RepDelta))
}

func (b *Bar) applyRep(delta int) {
	b.Out.RepDelta += delta
}

// chaosReduction is how much the staff's composure shaves off trouble.
func (b *Bar) chaosReduction() float64 {
	return math.Max(0.60, 1-math.Min(0.25, b.Cond.ChaosTolerance/200))
}

func (b *Bar) staffDefuses() bool {
	return b.RNG.Float64() < math.Min(0.35, b.Cond.ChaosTolerance/200)
}

// Serve runs one punter's turn at the bar.
func (b *Bar) Serve(p *Punter) {
	if !p.Active() {
		return
	}
	mult := b.Cond.PriceMult

	if !p.CanDrink() {
		b.Log.Neg("punter", "%s is underage. Refused.", p.Name)
		b.Out.Refused++
		p.MissedRound()
		if p.Banned {
			b.kickOut(p, -4, "underage trouble")
		}
		return
	}

	if p.Wallet < 3 {
		b.Log.Neg("punter", "%s is skint and leaves early.", p.Name)
		b.applyRep(-1)
		p.Leave()
		return
	}

	cheapest, ok := economy.CheapestWine(b.Wine)
	if !ok {
		b.Log.Neg("punter", "%s finds no stock.", p.Name)
		b.cannotBuy(p, -3)
		return
	}

	if cheapest.Price*mult > p.Wallet {
		b.Log.Neg("punter", "%s can't afford the cheapest bottle (%.2f).", p.Name, cheapest.Price*mult)
		b.priceComplaint(p, cheapest)
		b.cannotBuy(p, -3)
		b.maybeTheft(p)
		return
	}

	for range b.desiredDrinks(p) {
		if !b.purchase(p) || !p.Active() {
			return
		}
	}
	b.maybeOrderFood(p)
}

// cannotBuy records a round without a purchase and lets the mood slide.
func (b *Bar) cannotBuy(p *Punter, repDelta int) {
	if repDelta != 0 {
		b.applyRep(repDelta)
	}
	p.MissedRound()

	if p.Escalate() {
		if b.staffDefuses() {
			b.Log.Info("punter", "Staff de-escalate %s.", p.Name)
			b.Out.Defused++
			p.Leave()
		} else {
			b.Log.Popup("punter", "Fight", "%s snaps after going without.", p.Name)
			b.fight(p, "no-buy menace", b.negReduction())
		}
	} else if p.Active() {
		b.Log.Info("punter", "%s turns %s.", p.Name, p.Mood)
	}

	if p.Banned {
		b.kickOut(p, 0, "3 rounds without a drink")
	}
}

func (b *Bar) negReduction() float64 {
	if b.Cond.Door.Intervenes(b.RNG) {
		return b.Cond.Door.NegReduction
	}
	return 0
}

func (b *Bar) fight(p *Punter, cause FightCause, reduction float64) {
	b.Out.Fights = append(b.Out.Fights, Fight{Punter: p.ID, Cause: cause, Reduction: reduction})
}

func (b *Bar) kickOut(p *Punter, repDelta int, reason string) {
	b.Out.KickedOut++
	b.Log.Neg("punter", "%s KICKED OUT (%s).", p.Name, reason)
	if repDelta != 0 {
		b.applyRep(repDelta)
	}
	p.KickOut()
}

func (b *Bar) desiredDrinks(p *Punter) int {
	switch p.Tier {
	case economy.TierBigSpender:
		roll := b.RNG.IntN(100)
		if roll < 20 {
			return 3
		}
		if roll < 55 {
			return 2
		}
	case economy.TierDecent:
		if b.RNG.IntN(100) < 25 {
			return 2
		}
	}
	return 1
}

// purchase tries to sell one bottle, trading down when the first choice is too
// dear. It reports false when the punter stops drinking this round.
func (b *Bar) purchase(p *Punter) bool {
	mult := b.Cond.PriceMult
	chosen, ok := economy.WineForTier(b.Wine, p.Tier, b.RNG)
	if !ok {
		return false
	}
	lastPrice := chosen.Price * mult

	for range 12 {
		price := chosen.Price * mult
		if price <= p.Wallet {
			b.sell(p, chosen, price)
			return true
		}
		cheaper, ok := economy.CheaperThan(b.Wine, lastPrice, mult, b.RNG)
		if !ok {
			b.Log.Neg("punter", "%s can't afford what's left.", p.Name)
			b.cannotBuy(p, 0)
			b.maybeTheft(p)
			return false
		}
		chosen = cheaper
		lastPrice = chosen.Price * mult
	}

	b.Log.Neg("punter", "%s gives up.", p.Name)
	b.cannotBuy(p, 0)
	return false
}

func (b *Bar) sell(p *Punter, w economy.Wine, price float64) {
	b.Wine.Remove(w.Name)
	b.Out.Revenue += price
	b.Out.Sales++
	b.Out.Sold["Wine: "+w.Name]++
	p.NoBuyStreak = 0
	p.DrinksBought++

	tipMult := tipMultiplier(price, w.Price, p.Tier)
	if b.Cond.HappyHour && price > w.Price {
		tipMult *= 0.6
		if !b.cheatNoted {
			b.applyRep(-1)
			b.cheatNoted = true
			b.Out.Cheated = true
			b.Log.Popup("punter", "Happy Hour backlash", "Punters expected a bargain. They got maths.")
		}
		if b.RNG.IntN(100) < 25 {
			b.Log.Neg("punter", "%s feels cheated and leaves.", p.Name)
			p.Leave()
		}
	}

	b.overpricing(p, w.Sensitivity, price/w.Price)

	tips := price * b.Cond.TipRate * tipMult
	if tips > 0 {
		b.Out.Tips += tips
	}
	p.Spend(price)
	b.Log.Pos("punter", "%s buys %s for %.2f.", p.Name, w.Name, price)

	if b.Cond.PriceMult <= 1.10 {
		b.applyRep(1)
	}
}

func tipMultiplier(price, base float64, tier Tier) float64 {
	if base <= 0 {
		return 1
	}
	ratio := price / base
	mult := 0.40
	switch {
	case ratio <= 1.2:
		mult = 1.0
	case ratio <= 1.6:
		mult = 0.85
	case ratio <= 2.2:
		mult = 0.65
	}
	switch tier {
	case economy.TierBigSpender:
		mult *= 0.95
	case economy.TierLowlife:
		mult *= 0.85
	}
	return math.Max(0.2, mult)
}

func (b *Bar) overpricing(p *Punter, sensitivity, ratio float64) {
	if ratio <= 1.2 {
		return
	}
	worse := 0
	if b.rep() < 0 {
		worse = 1
	}
	var chance float64
	var loss int
	switch {
	case ratio <= 1.6:
		chance, loss = 0.10, 1
	case ratio <= 2.2:
		chance, loss = 0.20, 1+worse
	default:
		chance, loss = 0.35, 2+worse
	}
	switch p.Tier {
	case economy.TierBigSpender:
		chance += 0.05
	case economy.TierLowlife:
		chance += 0.10
	}
	chance *= sensitivity
	loss = max(1, int(math.Round(float64(loss)*sensitivity)))

	if b.RNG.Float64() < chance {
		b.applyRep(-loss)
		if b.RNG.IntN(100) < 35 {
			b.Log.Neg("punter", "%s storms out over prices.", p.Name)
			p.Leave()
		}
	}
}

// priceComplaint fires when a punter could have paid list price but not the
// marked-up one. They leave and take someone with them.
func (b *Bar) priceComplaint(p *Punter, cheapest economy.Wine) {
	mult := b.Cond.PriceMult
	if mult <= 1 || p.Wallet < cheapest.Price {
		return
	}
	over := mult - 1
	if over <= 0.02 {
		return
	}

	band := 1.0
	rep := b.rep()
	switch {
	case rep > 85:
		band = 0.7
	case rep < 0:
		band = 1.25
	}
	chance := math.Min(0.85, (0.20+over*0.45)*band) * b.chaosReduction() * cheapest.Sensitivity
	if b.RNG.IntN(10000) >= int(math.Round(chance*10000)) {
		return
	}

	loss := 1 + int(math.Round(over*4))
	if rep < 0 {
		loss++
	}
	if rep > 85 {
		loss = max(1, loss-1)
	}
	loss = max(1, int(math.Round(float64(loss)*cheapest.Sensitivity)))

	b.applyRep(-loss)
	b.Out.Complaints++
	p.Leave()
	b.Log.Neg("punter", "Price complaint: %q felt %d%% overpriced. Rep -%d and they leave.",
		cheapest.Name, int(math.Round(over*100)), loss)
	b.knockOnDeparture(p)
}

func (b *Bar) knockOnDeparture(complainant *Punter) {
	if len(b.Crowd) <= 1 {
		return
	}
	for range 5 {
		other := b.Crowd[b.RNG.IntN(len(b.Crowd))]
		if other != complainant && other.Active() {
			other.Leave()
			b.Log.Info("punter", "The mood dips; %s heads out.", other.Name)
			return
		}
	}
}

// theftBonus shifts theft odds by reputation.
func theftBonus(rep int) int {
	switch {
	case rep >= 60:
		return -10
	case rep >= 20:
		return -4
	case rep >= -20:
		return 0
	case rep >= -60:
		return 8
	default:
		return 14
	}
}

func (b *Bar) maybeTheft(p *Punter) {
	chance := float64(10 + theftBonus(b.rep()))
	if b.Cond.PriceMult > 1.30 {
		chance += 6
	}
	if b.Cond.RiskyWeekend {
		chance += 6
	}
	if b.Cond.Door.Intervenes(b.RNG) {
		chance = math.Round(chance * (1 - b.Cond.Door.TheftReduction))
	}
	chance = math.Round(chance * b.chaosReduction())
	chance = math.Round(chance * math.Max(0.30, 1+b.Cond.ActivityRisk-b.Cond.RiskReduction))

	if float64(b.RNG.IntN(100)) < math.Max(0, chance) {
		b.attemptTheft(p)
	}
}

func (b *Bar) attemptTheft(p *Punter) {
	stolen, ok := b.Wine.Random(b.RNG)
	if !ok {
		return
	}
	b.Log.Neg("punter", "%s tries to lift a %s.", p.Name, stolen.Name)

	caught := float64(45 + b.Cond.Security*10 - max(0, theftBonus(b.rep())))
	if b.Cond.Door.Intervenes(b.RNG) {
		caught = math.Round(caught * (1 + b.Cond.Door.TheftReduction))
	}
	caught = math.Max(15, math.Min(95, caught))

	if float64(b.RNG.IntN(100)) < caught {
		b.Out.Caught++
		b.applyRep(2)
		b.Log.Pos("punter", "Caught! %s hands it back.", p.Name)
	} else {
		b.Out.Thefts++
		b.Wine.Remove(stolen.Name)
		hit := Mitigate(-7, b.Cond.RepMultiplier)
		b.applyRep(hit)
		b.Log.Neg("punter", "Bottle stolen. Rep %d.", hit)
	}
	p.MissedRound()
	if p.Banned {
		b.kickOut(p, 0, "3 rounds without a drink")
	}
}

func (b *Bar) foodChance(t Tier) float64 {
	chance := 0.10
	switch t {
	case economy.TierBigSpender:
		chance = 0.45
	case economy.TierDecent:
		chance = 0.30
	case economy.TierRegular:
		chance = 0.18
	}
	return chance + b.Cond.FoodBias
}

func (b *Bar) maybeOrderFood(p *Punter) {
	if !b.Cond.KitchenOpen || b.Food == nil || p.OrderedFood || p.FoodCooldown > 0 || !p.Active() {
		return
	}
	if b.RNG.Float64() > b.foodChance(p.Tier) {
		return
	}

	if b.Food.Empty() {
		if b.Cond.KitchenBonus >= 2 && b.RNG.IntN(100) < 35 {
			p.FoodCooldown = 1
			return
		}
		p.FoodAttempts++
		p.FoodCooldown = 2
		if p.Mood == MoodChill {
			p.Mood = MoodRowdy
		} else if p.Mood == MoodRowdy && p.FoodAttempts >= 2 {
			p.Mood = MoodMenace
		}
		if p.FoodAttempts >= 2 {
			b.Out.FoodMisses++
			if b.RNG.IntN(100) < 35 {
				b.applyRep(-1)
			}
		}
		b.Log.Neg("punter", "%s wanted food but the kitchen is empty.", p.Name)
		return
	}

	food, _ := b.Food.Random(b.RNG)
	price := food.SellPrice(b.Cond.KitchenBonus)
	if p.Wallet < price {
		return
	}
	b.Food.Remove(food.Name)
	prep := max(1, b.Cond.PrepRounds)
	b.Out.FoodOrders = append(b.Out.FoodOrders, economy.FoodOrder{
		PunterID: uint64(p.ID),
		Punter:   p.Name,
		Food:     food,
		Price:    price,
		Round:    b.Cond.Round + prep,
	})
	p.OrderedFood = true
	b.recordFoodSale(p, food, price)
	b.foodOverpricing(p, food, price)
	b.Log.Info("punter", "%s orders %s (ready in %d rounds).", p.Name, food.Name, prep)
}

func (b *Bar) recordFoodSale(p *Punter, f economy.Food, price float64) {
	b.Out.Revenue += price
	b.Out.Sales++
	b.Out.FoodSold++
	b.Out.Sold["Food: "+f.Name]++
	b.Out.FoodQuality = append(b.Out.FoodQuality, f.Quality)
	p.Spend(price)
}

func (b *Bar) foodOverpricing(p *Punter, f economy.Food, price float64) {
	if f.Price <= 0 {
		return
	}
	ratio := price / f.Price
	if ratio <= 1.15 {
		return
	}
	chance, loss := 0.10, 1
	if ratio > 1.5 {
		chance, loss = 0.22, 2
	}
	chance *= f.Sensitivity
	loss = max(1, int(math.Round(float64(loss)*f.Sensitivity)))
	if b.RNG.Float64() < chance {
		b.applyRep(-loss)
		if b.RNG.IntN(100) < 25 {
			b.Log.Neg("punter", "%s grumbles about food pricing and leaves.", p.Name)
			p.Leave()
		}
	}
}

// Unserved applies the consequences for punters the staff could not reach.
func (b *Bar) Unserved(ps []*Punter) {
	ps = slices.DeleteFunc(slices.Clone(ps), func(p *Punter) bool { return !p.Active() })
	if len(ps) == 0 {
		return
	}
	b.Out.Unserved += len(ps)
	b.Log.Neg("service", "%d punter(s) not served this round.", len(ps))
	b.applyRep(-min(6, max(1, len(ps)/2)))

	for _, p := range ps {
		p.MissedRound()
		fight := p.Escalate()

		switch {
		case fight && b.Cond.Door.Intervenes(b.RNG):
			b.Out.WalkOuts++
			b.Log.Info("service", "%s storms out (bouncer prevents a fight).", p.Name)
			p.Leave()
			continue
		case fight && b.staffDefuses():
			b.Out.Defused++
			b.Log.Info("service", "Staff defuse %s before it escalates.", p.Name)
			p.Leave()
			continue
		case fight:
			b.Log.Popup("service", "Fight", "%s snaps after repeated neglect.", p.Name)
			b.fight(p, "unserved menace", b.negReduction())
		default:
			b.Log.Info("service", "%s escalates to %s (no-buy %d).", p.Name, p.Mood, p.NoBuyStreak)
		}

		if p.Banned {
			b.kickOut(p, 0, "3 rounds without service")
		}
	}
}

// WalkInFood sells plates to the room outside the punter-by-punter queue,
// bounded by kitchen capacity. Walk-in orders carry no punter id.
func (b *Bar) WalkInFood(barCount, kitchenCap int) {
	if !b.Cond.KitchenOpen || b.Food == nil || b.Food.Empty() {
		return
	}
	if kitchenCap <= 0 {
		b.Log.Info("kitchen", "Kitchen idle: no kitchen staff available.")
		return
	}
	maxBuyers := min(barCount, b.Food.Count(), kitchenCap)
	buyers := min(maxBuyers, max(0, int(math.Round(float64(barCount)*0.30+float64(b.RNG.IntN(3)-1)))))
	prep := max(1, b.Cond.PrepRounds)

	for range buyers {
		food, ok := b.Food.Random(b.RNG)
		if !ok {
			return
		}
		price := food.SellPrice(b.Cond.KitchenBonus)
		b.Food.Remove(food.Name)
		b.Out.FoodOrders = append(b.Out.FoodOrders, economy.FoodOrder{
			Punter: "Walk-in",
			Food:   food,
			Price:  price,
			Round:  b.Cond.Round + prep,
		})
		b.Out.Revenue += price
		b.Out.Sales++
		b.Out.FoodSold++
		b.Out.Sold["Food: "+food.Name]++
		b.Out.FoodQuality = append(b.Out.FoodQuality, food.Quality)
	}
}
