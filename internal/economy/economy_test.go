package economy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/pubsim/internal/entropy"
)

func TestRack_CapacityAndSpoilage(t *testing.T) {
	catalog := WineCatalog()
	rack := NewRack[Wine](5, 3)

	assert.Equal(t, 3, rack.AddN(catalog[0], 3, 10)) // Blanco spoils after 2 days
	assert.Equal(t, 2, rack.AddN(catalog[1], 4, 10)) // House White after 3
	assert.Zero(t, rack.Free())
	assert.False(t, rack.Add(catalog[2], 10))

	assert.Zero(t, rack.RemoveSpoiled(11))
	assert.Equal(t, 3, rack.RemoveSpoiled(12))
	assert.Equal(t, map[string]int{"House White": 2}, rack.Counts())
	assert.Equal(t, 2, rack.RemoveSpoiled(13))
	assert.True(t, rack.Empty())
}

func TestRack_RemoveByName(t *testing.T) {
	catalog := FoodCatalog()
	rack := NewRack[Food](10, FoodSpoilDays)
	rack.Add(catalog[0], 0)
	rack.Add(catalog[3], 0)

	assert.True(t, rack.Remove("Sunday Roast"))
	assert.False(t, rack.Remove("Sunday Roast"))
	assert.Equal(t, 1, rack.Count())
}

func TestRack_SpoilBonusExtendsShelfLife(t *testing.T) {
	rack := NewRack[Food](10, FoodSpoilDays)
	rack.SpoilBonus = 2
	rack.Add(FoodCatalog()[0], 0)

	assert.Zero(t, rack.RemoveSpoiled(3))
	assert.Equal(t, 1, rack.RemoveSpoiled(4))
}

func TestCheapestWine(t *testing.T) {
	catalog := WineCatalog()
	rack := NewRack[Wine](10, 3)
	_, ok := CheapestWine(rack)
	assert.False(t, ok)

	rack.Add(catalog[4], 0)
	rack.Add(catalog[1], 0)
	rack.Add(catalog[9], 0)
	w, ok := CheapestWine(rack)
	require.True(t, ok)
	assert.Equal(t, "House White", w.Name)
}

func TestWineForTier_OnlyPicksStock(t *testing.T) {
	catalog := WineCatalog()
	rack := NewRack[Wine](10, 3)
	rack.Add(catalog[0], 0)
	rack.Add(catalog[8], 0)
	rng := entropy.New(5)

	for range 50 {
		w, ok := WineForTier(rack, TierBigSpender, rng)
		require.True(t, ok)
		assert.Contains(t, []string{catalog[0].Name, catalog[8].Name}, w.Name)
	}
}

func TestCheaperThan(t *testing.T) {
	catalog := WineCatalog()
	rack := NewRack[Wine](10, 3)
	rack.Add(catalog[0], 0)
	rack.Add(catalog[7], 0)
	rng := entropy.New(9)

	w, ok := CheaperThan(rack, 10, 1.0, rng)
	require.True(t, ok)
	assert.Equal(t, catalog[0].Name, w.Name)

	_, ok = CheaperThan(rack, 1, 1.0, rng)
	assert.False(t, ok)
}

func TestRollDeal_Bounds(t *testing.T) {
	rng := entropy.New(21)
	catalog := WineCatalog()
	seen := map[DealKind]bool{}

	for range 300 {
		d := RollDeal(rng, catalog)
		seen[d.Kind] = true
		switch d.Kind {
		case DealDiscount:
			assert.GreaterOrEqual(t, d.Multiplier, 0.40)
			assert.LessOrEqual(t, d.Multiplier, 0.60+1e-9)
		case DealShortage:
			assert.GreaterOrEqual(t, d.Multiplier, 1.20)
			assert.LessOrEqual(t, d.Multiplier, 1.70+1e-9)
		default:
			assert.Equal(t, 1.0, d.Multiplier)
		}
	}
	assert.Len(t, seen, 3)
}

func TestQuoteWine(t *testing.T) {
	w := WineCatalog()[1]
	deal := Deal{Kind: DealDiscount, Wine: w.Name, Multiplier: 0.5}

	q := QuoteWine(w, 10, 0, deal, 1.0)
	assert.True(t, q.Deal)
	assert.InDelta(t, 1.5, q.Unit, 1e-9)
	assert.InDelta(t, 15*(1-0.025), q.Total, 1e-9)

	q = QuoteWine(w, 1, 40, NoDeal(), 1.08)
	assert.InDelta(t, 3*0.9*1.08, q.Total, 1e-9)
}

func TestEmergencyQuotes(t *testing.T) {
	w := WineCatalog()[1]
	assert.InDelta(t, 3*1.3*2, EmergencyWineQuote(w, 2, 1, false).Total, 1e-9)
	assert.InDelta(t, 3*1.7*2, EmergencyWineQuote(w, 2, 1, true).Total, 1e-9)

	f := FoodCatalog()[0]
	assert.InDelta(t, 1.5*5*0.98*1.4, EmergencyFoodQuote(f, 5, 1, false).Total, 1e-9)
}

func TestRepCostMultiplier_Clamped(t *testing.T) {
	assert.InDelta(t, 1.0, RepCostMultiplier(0), 1e-9)
	assert.InDelta(t, 0.75, RepCostMultiplier(100), 1e-9)
	assert.InDelta(t, 1.3, RepCostMultiplier(-100), 1e-9)
}

func TestDueDeliveries(t *testing.T) {
	w := WineCatalog()[0]
	pending := []Delivery[Wine]{{Item: w, Qty: 2, Round: 3}, {Item: w, Qty: 1, Round: 5}}

	due, waiting := DueDeliveries(pending, 4)
	assert.Len(t, due, 1)
	assert.Len(t, waiting, 1)
	assert.Equal(t, 5, waiting[0].Round)
}

func TestKitchen_RefundChanceBounded(t *testing.T) {
	lamb := FoodCatalog()[7]
	worst := KitchenState{}
	best := KitchenState{ChefSkill: 12, HeadChefs: 3, QualityBonus: 9, Security: 10, RefundReduction: 0.5}

	assert.InDelta(t, 0.38, worst.RefundChance(lamb), 1e-9)
	assert.InDelta(t, 0.04, best.RefundChance(lamb), 1e-9)
	assert.Equal(t, 1, PrepRounds(5))
}

func TestFoodSellPrice(t *testing.T) {
	lamb := FoodCatalog()[7]
	assert.InDelta(t, 19.5*1.15, lamb.SellPrice(0), 1e-9)
	assert.InDelta(t, 19.5*1.15*1.04, lamb.SellPrice(2), 1e-9)
}
