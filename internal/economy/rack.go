package economy

import (
	"math/rand/v2"
	"slices"
)

// Item is anything a rack can hold.
type Item interface {
	StockName() string
	ShelfLife() int
}

// Entry is one unit on a rack with the absolute day it arrived.
type Entry[T Item] struct {
	Item       T   `json:"item"`
	DayAdded   int `json:"day_added"`
	SpoilAfter int `json:"spoil_after"`
}

// Rack is bounded stock that goes off after a number of days.
type Rack[T Item] struct {
	Capacity     int        `json:"capacity"`
	DefaultSpoil int        `json:"default_spoil"`
	SpoilBonus   int        `json:"spoil_bonus"` // Extra days from kitchen upgrades
	Entries      []Entry[T] `json:"entries"`
}

// WineRack holds bottles behind the bar.
type WineRack = Rack[Wine]

// FoodRack holds the kitchen's prepared stock.
type FoodRack = Rack[Food]

// NewRack creates an empty rack.
func NewRack[T Item](capacity, defaultSpoil int) *Rack[T] {
	return &Rack[T]{Capacity: max(1, capacity), DefaultSpoil: max(1, defaultSpoil)}
}

// Count returns the number of units in stock.
func (r *Rack[T]) Count() int { return len(r.Entries) }

// Empty reports whether nothing is in stock.
func (r *Rack[T]) Empty() bool { return len(r.Entries) == 0 }

// Free returns the remaining space.
func (r *Rack[T]) Free() int { return max(0, r.Capacity-len(r.Entries)) }

// SetCapacity resizes the rack. Stock above the new capacity stays until sold.
func (r *Rack[T]) SetCapacity(capacity int) { r.Capacity = max(1, capacity) }

// Add stocks one unit. It fails when the rack is full.
func (r *Rack[T]) Add(item T, day int) bool {
	if len(r.Entries) >= r.Capacity {
		return false
	}
	spoil := item.ShelfLife()
	if spoil <= 0 {
		spoil = r.DefaultSpoil
	}
	r.Entries = append(r.Entries, Entry[T]{Item: item, DayAdded: day, SpoilAfter: spoil + r.SpoilBonus})
	return true
}

// AddN stocks up to qty units and returns how many fit.
func (r *Rack[T]) AddN(item T, qty, day int) int {
	added := 0
	for range qty {
		if !r.Add(item, day) {
			break
		}
		added++
	}
	return added
}

// Remove takes the first unit with the given name off the rack.
func (r *Rack[T]) Remove(name string) bool {
	for i, e := range r.Entries {
		if e.Item.StockName() == name {
			r.Entries = slices.Delete(r.Entries, i, i+1)
			return true
		}
	}
	return false
}

// Random picks a unit without removing it.
func (r *Rack[T]) Random(rng *rand.Rand) (T, bool) {
	if len(r.Entries) == 0 {
		var zero T
		return zero, false
	}
	return r.Entries[rng.IntN(len(r.Entries))].Item, true
}

// Items returns one value per unit in stock.
func (r *Rack[T]) Items() []T {
	out := make([]T, len(r.Entries))
	for i, e := range r.Entries {
		out[i] = e.Item
	}
	return out
}

// Counts groups stock by name.
func (r *Rack[T]) Counts() map[string]int {
	counts := make(map[string]int)
	for _, e := range r.Entries {
		counts[e.Item.StockName()]++
	}
	return counts
}

// RemoveSpoiled drops every unit that has been in stock for its shelf life.
func (r *Rack[T]) RemoveSpoiled(today int) int {
	before := len(r.Entries)
	r.Entries = slices.DeleteFunc(r.Entries, func(e Entry[T]) bool {
		return today-e.DayAdded >= e.SpoilAfter
	})
	return before - len(r.Entries)
}

// AtRisk counts units that spoil within a day.
func (r *Rack[T]) AtRisk(today int) int {
	n := 0
	for _, e := range r.Entries {
		if e.SpoilAfter-(today-e.DayAdded) <= 1 {
			n++
		}
	}
	return n
}

// CheapestWine returns the lowest-priced bottle in stock.
func CheapestWine(r *WineRack) (Wine, bool) {
	var best Wine
	found := false
	for _, e := range r.Entries {
		if !found || e.Item.Price < best.Price {
			best = e.Item
			found = true
		}
	}
	return best, found
}

// WineForTier picks a bottle weighted toward the punter's tier: matching
// bottles count four times, and premium or budget bottles get extra weight for
// the richest and poorest customers.
func WineForTier(r *WineRack, tier Tier, rng *rand.Rand) (Wine, bool) {
	if r.Empty() {
		return Wine{}, false
	}
	weights := make([]int, len(r.Entries))
	total := 0
	for i, e := range r.Entries {
		w := 1
		if e.Item.Target == tier {
			w += 3
		}
		if tier == TierBigSpender && e.Item.Price > 25 {
			w += 2
		}
		if tier == TierLowlife && e.Item.Price < 10 {
			w += 2
		}
		weights[i] = w
		total += w
	}
	roll := rng.IntN(total)
	for i, w := range weights {
		if roll < w {
			return r.Entries[i].Item, true
		}
		roll -= w
	}
	return r.Entries[len(r.Entries)-1].Item, true
}

// CheaperThan picks a random bottle whose sell price is below ceiling.
func CheaperThan(r *WineRack, ceiling, priceMult float64, rng *rand.Rand) (Wine, bool) {
	var cheaper []Wine
	for _, e := range r.Entries {
		if e.Item.Price*priceMult < ceiling {
			cheaper = append(cheaper, e.Item)
		}
	}
	if len(cheaper) == 0 {
		return Wine{}, false
	}
	return cheaper[rng.IntN(len(cheaper))], true
}
