package economy

import (
	"math"
	"math/rand/v2"
)

// Kitchen defaults.
const (
	FoodRackCapacity = 30
	FoodSpoilDays    = 3
	BaseFoodPrep     = 3
)

// FoodOrder is a meal paid for and waiting on the kitchen.
type FoodOrder struct {
	PunterID uint64  `json:"punter_id"`
	Punter   string  `json:"punter"`
	Food     Food    `json:"food"`
	Price    float64 `json:"price"`
	Round    int     `json:"round"` // Round the plate goes out
}

// KitchenState is what the pass looks like when an order comes due.
type KitchenState struct {
	ChefSkill       float64 // Mean skill of kitchen staff
	HeadChefs       int
	QualityBonus    int
	Security        int
	RefundReduction float64 // From upgrades, 0..1
}

// RefundChance is the probability a plate is sent back.
func (k KitchenState) RefundChance(f Food) float64 {
	chance := 0.18 + float64(f.Quality)*0.05 - k.ChefSkill*0.02
	chance *= 1 - k.RefundReduction
	chance *= 1 - math.Min(0.25, float64(k.QualityBonus)*0.03)
	chance *= 1 - math.Min(0.25, float64(max(0, k.Security))*0.03)
	chance *= 1 - math.Min(0.25, float64(k.HeadChefs)*0.08)
	return math.Max(0.04, math.Min(0.75, chance))
}

// Resolve decides whether the order is refunded and how much goes back.
func (k KitchenState) Resolve(o FoodOrder, rng *rand.Rand) (refunded bool, amount float64) {
	if rng.Float64() >= k.RefundChance(o.Food) {
		return false, 0
	}
	return true, o.Price * (0.25 + rng.Float64()*0.75)
}

// PrepRounds is how long a plate takes after kitchen upgrades.
func PrepRounds(speedBonus int) int {
	return max(1, BaseFoodPrep-speedBonus)
}
