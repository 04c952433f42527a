// Package economy provides the pub's stock catalog, racks, supplier deals and
// pending deliveries.
package economy

// Tier is the kind of customer a product is aimed at. Punters carry the same
// tier so the bar can match bottles to wallets.
type Tier uint8

const (
	TierLowlife Tier = iota
	TierRegular
	TierDecent
	TierBigSpender
)

// Tiers lists every tier from cheapest to richest.
var Tiers = []Tier{TierLowlife, TierRegular, TierDecent, TierBigSpender}

func (t Tier) String() string {
	switch t {
	case TierLowlife:
		return "Lowlife"
	case TierRegular:
		return "Regular"
	case TierDecent:
		return "Decent"
	case TierBigSpender:
		return "Big Spender"
	default:
		return "Unknown"
	}
}

// Wine is a bottle the supplier sells and the bar pours.
type Wine struct {
	Name      string  `json:"name"`
	Year      int     `json:"year"`
	Region    string  `json:"region"`
	Cost      float64 `json:"cost"`  // Supplier unit cost
	Price     float64 `json:"price"` // Base bar price before the price multiplier
	Target    Tier    `json:"target"`
	SpoilDays int     `json:"spoil_days"`

	// Sensitivity scales how strongly punters react to overpricing (0.4..1.6).
	Sensitivity float64 `json:"sensitivity"`
}

// Food is a dish the kitchen can stock and serve.
type Food struct {
	Name        string  `json:"name"`
	Cost        float64 `json:"cost"`
	Price       float64 `json:"price"`
	Quality     int     `json:"quality"` // 1 (bar snack) .. 4 (premium)
	SpoilDays   int     `json:"spoil_days"`
	Sensitivity float64 `json:"sensitivity"`
}

// StockName implements Item.
func (w Wine) StockName() string { return w.Name }

// ShelfLife implements Item.
func (w Wine) ShelfLife() int { return w.SpoilDays }

// StockName implements Item.
func (f Food) StockName() string { return f.Name }

// ShelfLife implements Item.
func (f Food) ShelfLife() int { return f.SpoilDays }

// SellPrice is the menu price for a dish, lifted by quality and kitchen bonus.
func (f Food) SellPrice(kitchenBonus int) float64 {
	quality := 1 + 0.05*float64(max(0, f.Quality-1))
	bonus := 1 + 0.02*float64(max(0, kitchenBonus))
	return f.Price * quality * bonus
}

// WineCatalog returns the supplier's wine list, cheapest first.
func WineCatalog() []Wine {
	return []Wine{
		{Name: "Crisp & Fruity Blanco", Year: 2024, Region: "England", Cost: 0.90, Price: 3.00, Target: TierLowlife, SpoilDays: 2, Sensitivity: 1.30},
		{Name: "House White", Year: 2021, Region: "Italy", Cost: 3.00, Price: 7.00, Target: TierRegular, SpoilDays: 3, Sensitivity: 1.25},
		{Name: "Cheap Table Red", Year: 2020, Region: "Spain", Cost: 3.50, Price: 8.50, Target: TierRegular, SpoilDays: 3, Sensitivity: 1.20},
		{Name: "Mineral Riesling", Year: 2022, Region: "Germany", Cost: 4.80, Price: 11.00, Target: TierDecent, SpoilDays: 3, Sensitivity: 1.05},
		{Name: "Mid-range Merlot", Year: 2018, Region: "France", Cost: 7.00, Price: 18.00, Target: TierDecent, SpoilDays: 4, Sensitivity: 0.95},
		{Name: "Rioja Reserva", Year: 2017, Region: "Spain", Cost: 8.50, Price: 21.00, Target: TierDecent, SpoilDays: 4, Sensitivity: 0.95},
		{Name: "Orange Skin-Contact", Year: 2021, Region: "Georgia", Cost: 9.50, Price: 24.00, Target: TierDecent, SpoilDays: 4, Sensitivity: 0.90},
		{Name: "Penfolds Grange", Year: 2010, Region: "Australia", Cost: 70.00, Price: 180.00, Target: TierBigSpender, SpoilDays: 5, Sensitivity: 0.60},
		{Name: "Chateau Margaux", Year: 2015, Region: "Bordeaux", Cost: 45.00, Price: 120.00, Target: TierBigSpender, SpoilDays: 5, Sensitivity: 0.65},
		{Name: "Screaming Eagle", Year: 2012, Region: "Napa Valley", Cost: 95.00, Price: 250.00, Target: TierBigSpender, SpoilDays: 5, Sensitivity: 0.55},
	}
}

// FoodCatalog returns the food supplier's menu.
func FoodCatalog() []Food {
	return []Food{
		{Name: "Pub Chips", Cost: 1.50, Price: 4.50, Quality: 1, SpoilDays: 2, Sensitivity: 1.25},
		{Name: "Loaded Nachos", Cost: 2.10, Price: 6.50, Quality: 1, SpoilDays: 2, Sensitivity: 1.20},
		{Name: "Fish & Chips", Cost: 3.50, Price: 9.50, Quality: 2, SpoilDays: 3, Sensitivity: 0.95},
		{Name: "Sunday Roast", Cost: 4.00, Price: 12.00, Quality: 2, SpoilDays: 3, Sensitivity: 0.90},
		{Name: "Steak Pie", Cost: 4.50, Price: 13.00, Quality: 3, SpoilDays: 3, Sensitivity: 0.90},
		{Name: "Veggie Curry", Cost: 3.20, Price: 10.00, Quality: 2, SpoilDays: 3, Sensitivity: 0.95},
		{Name: "Truffle Mac", Cost: 5.80, Price: 16.00, Quality: 3, SpoilDays: 4, Sensitivity: 0.70},
		{Name: "Charred Lamb Plate", Cost: 7.20, Price: 19.50, Quality: 4, SpoilDays: 4, Sensitivity: 0.65},
	}
}

// FindWine looks up a wine by name.
func FindWine(catalog []Wine, name string) (Wine, bool) {
	for _, w := range catalog {
		if w.Name == name {
			return w, true
		}
	}
	return Wine{}, false
}

// FindFood looks up a dish by name.
func FindFood(catalog []Food, name string) (Food, bool) {
	for _, f := range catalog {
		if f.Name == name {
			return f, true
		}
	}
	return Food{}, false
}
