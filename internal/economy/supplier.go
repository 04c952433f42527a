package economy

import (
	"fmt"
	"math"
	"math/rand/v2"
)

// DealKind is the supplier's offer of the day.
type DealKind uint8

const (
	DealNone DealKind = iota
	DealDiscount
	DealShortage
)

// Deal adjusts the supplier cost of a single wine until the next night closes.
type Deal struct {
	Kind       DealKind `json:"kind"`
	Wine       string   `json:"wine,omitempty"`
	Multiplier float64  `json:"multiplier"`
}

// NoDeal leaves every price alone.
func NoDeal() Deal {
	return Deal{Kind: DealNone, Multiplier: 1}
}

// RollDeal draws the supplier's offer: a 35% chance of nothing, otherwise an
// even split between a 40..60% discount and a 20..70% shortage markup.
func RollDeal(rng *rand.Rand, catalog []Wine) Deal {
	if len(catalog) == 0 || rng.IntN(100) < 35 {
		return NoDeal()
	}
	target := catalog[rng.IntN(len(catalog))].Name
	if rng.IntN(100) < 50 {
		return Deal{Kind: DealDiscount, Wine: target, Multiplier: 0.40 + float64(rng.IntN(21))/100}
	}
	return Deal{Kind: DealShortage, Wine: target, Multiplier: 1.20 + float64(rng.IntN(51))/100}
}

// AppliesTo reports whether the deal changes this wine's cost.
func (d Deal) AppliesTo(w Wine) bool {
	return d.Kind != DealNone && d.Wine == w.Name
}

// Apply scales a base cost when the deal covers the wine.
func (d Deal) Apply(w Wine, cost float64) float64 {
	if !d.AppliesTo(w) {
		return cost
	}
	return cost * d.Multiplier
}

func (d Deal) String() string {
	switch d.Kind {
	case DealDiscount:
		return fmt.Sprintf("DEAL: %s is %d%% off", d.Wine, int(math.Round((1-d.Multiplier)*100)))
	case DealShortage:
		return fmt.Sprintf("SHORTAGE: %s costs +%d%%", d.Wine, int(math.Round((d.Multiplier-1)*100)))
	default:
		return "No supplier deal today"
	}
}

// WineBulkDiscount returns the basket discount for a wine order.
func WineBulkDiscount(qty int) float64 {
	switch {
	case qty >= 50:
		return 0.06
	case qty >= 25:
		return 0.04
	case qty >= 10:
		return 0.025
	case qty >= 5:
		return 0.015
	default:
		return 0
	}
}

// FoodBulkDiscount returns the basket discount for a food order.
func FoodBulkDiscount(qty int) float64 {
	switch {
	case qty >= 25:
		return 0.08
	case qty >= 10:
		return 0.04
	case qty >= 5:
		return 0.02
	default:
		return 0
	}
}

// RepCostMultiplier maps reputation to a supplier price multiplier: a good name
// gets cheaper stock, a bad one pays a premium.
func RepCostMultiplier(rep int) float64 {
	var mult float64
	if rep <= 0 {
		mult = 1 + float64(-rep)*0.003
	} else {
		mult = 1 - float64(rep)*0.0025
	}
	return math.Max(0.65, math.Min(1.60, mult))
}

// Quote is the priced result of a prospective order.
type Quote struct {
	Qty      int     `json:"qty"`
	Unit     float64 `json:"unit"`
	Discount float64 `json:"discount"`
	Total    float64 `json:"total"`
	Deal     bool    `json:"deal"`
}

// QuoteWine prices a between-nights wine order. trust is the credit portfolio's
// invoice multiplier.
func QuoteWine(w Wine, qty, rep int, deal Deal, trust float64) Quote {
	qty = max(1, qty)
	unit := deal.Apply(w, w.Cost*RepCostMultiplier(rep)) * trust
	disc := WineBulkDiscount(qty)
	return Quote{
		Qty:      qty,
		Unit:     unit,
		Discount: disc,
		Total:    math.Max(0, unit*float64(qty)*(1-disc)),
		Deal:     deal.AppliesTo(w),
	}
}

// QuoteFood prices a between-nights food order.
func QuoteFood(f Food, qty int, trust float64) Quote {
	qty = max(1, qty)
	unit := f.Cost * trust
	disc := FoodBulkDiscount(qty)
	return Quote{
		Qty:      qty,
		Unit:     unit,
		Discount: disc,
		Total:    math.Max(0, unit*float64(qty)*(1-disc)),
	}
}

// Emergency restock terms while the pub is open.
const (
	EmergencyWineMarkup       = 1.3
	EmergencyFoodMarkup       = 1.4
	EmergencyWeekendMarkup    = 1.7
	EmergencyWineDelay        = 3
	EmergencyFoodDelay        = 3
	EmergencyFoodWeekendDelay = 4
)

// EmergencyWineQuote prices a mid-night order: no deal, no rep pricing, no
// bulk discount, marked up.
func EmergencyWineQuote(w Wine, qty int, trust float64, weekend bool) Quote {
	qty = max(1, qty)
	markup := EmergencyWineMarkup
	if weekend {
		markup = EmergencyWeekendMarkup
	}
	unit := w.Cost * trust * markup
	return Quote{Qty: qty, Unit: unit, Total: unit * float64(qty)}
}

// EmergencyFoodQuote prices a mid-night food order.
func EmergencyFoodQuote(f Food, qty int, trust float64, weekend bool) Quote {
	q := QuoteFood(f, qty, trust)
	markup := EmergencyFoodMarkup
	if weekend {
		markup = EmergencyWeekendMarkup
	}
	q.Unit *= markup
	q.Total *= markup
	return q
}

// Delivery is stock ordered mid-night that lands on a later round.
type Delivery[T Item] struct {
	Item  T       `json:"item"`
	Qty   int     `json:"qty"`
	Round int     `json:"round"` // Round in the night the stock arrives
	Cost  float64 `json:"cost"`
}

// DueDeliveries splits pending deliveries into those that arrive by round and
// those still on the road.
func DueDeliveries[T Item](pending []Delivery[T], round int) (due, waiting []Delivery[T]) {
	for _, d := range pending {
		if d.Round <= round {
			due = append(due, d)
		} else {
			waiting = append(waiting, d)
		}
	}
	return due, waiting
}
