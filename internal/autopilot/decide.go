package autopilot

import (
	"math"

	"github.com/talgya/pubsim/internal/credit"
	"github.com/talgya/pubsim/internal/engine"
	"github.com/talgya/pubsim/internal/staff"
)

// Health levels, worst first.
const (
	LevelCritical = "CRITICAL"
	LevelWarning  = "WARNING"
	LevelWatch    = "WATCH"
	LevelHealthy  = "HEALTHY"
)

// Action kinds.
const (
	ActRestockWine = "restock_wine"
	ActRestockFood = "restock_food"
	ActPaySupplier = "pay_supplier"
	ActHire        = "hire"
	ActSchedule    = "schedule"
	ActOpenLine    = "open_line"
	ActSetPrice    = "set_price"
	ActBouncer     = "bouncer"
)

// Action is one thing the landlord intends to do.
type Action struct {
	Kind     string            `json:"kind"`
	Item     string            `json:"item,omitempty"`
	Qty      int               `json:"qty,omitempty"`
	Amount   float64           `json:"amount,omitempty"`
	Supplier engine.Supplier   `json:"supplier,omitempty"`
	Role     staff.Role        `json:"role,omitempty"`
	Activity engine.ActivityID `json:"activity,omitempty"`
	Bank     credit.Bank       `json:"bank,omitempty"`
}

// Policy holds the landlord's thresholds.
type Policy struct {
	CashReserve   float64 // Cash kept back for payday
	WineFill      float64 // Fraction of the wine rack to keep stocked
	FoodFill      float64 // Fraction of the food rack to keep stocked
	SupplierLimit float64 // Fraction of the supplier cap the landlord will use
	BouncerChaos  float64 // Chaos at which a bouncer goes on the door
	MaxBartenders int
}

// DefaultPolicy is a cautious landlord.
func DefaultPolicy() Policy {
	return Policy{
		CashReserve:   80,
		WineFill:      0.6,
		FoodFill:      0.5,
		SupplierLimit: 0.8,
		BouncerChaos:  55,
		MaxBartenders: 4,
	}
}

// Health is the landlord's read of the pub.
type Health struct {
	Level      string  `json:"level"`
	CashCover  float64 `json:"cash_cover"` // Cash over what is due at payday
	WineShort  int     `json:"wine_short"`
	FoodShort  int     `json:"food_short"`
	Understaff bool    `json:"understaff"`
}

// Triage derives Health from a snapshot.
func (p Policy) Triage(snap Snapshot) Health {
	due := snap.WagesOwed + snap.WineDue + snap.FoodDue
	h := Health{CashCover: snap.Cash - due}

	wineCap := snap.WineStock + snap.WineFree
	h.WineShort = max(0, int(math.Round(float64(wineCap)*p.WineFill))-snap.WineStock)
	if snap.Kitchen {
		foodCap := snap.FoodStock + snap.FoodFree
		h.FoodShort = max(0, int(math.Round(float64(foodCap)*p.FoodFill))-snap.FoodStock)
	}
	h.Understaff = snap.Bartenders < min(p.MaxBartenders, 1+snap.PubLevel)

	switch {
	case snap.Reputation <= engine.MinReputation/2:
		h.Level = LevelCritical
	case h.CashCover < 0:
		h.Level = LevelWarning
	case snap.Debt > snap.Cash*3:
		h.Level = LevelWatch
	default:
		h.Level = LevelHealthy
	}
	return h
}

// Decide returns tonight's actions in the order they should run. Bills come
// before spending.
func (p Policy) Decide(snap Snapshot, h Health) []Action {
	var out []Action
	spare := snap.Cash - p.CashReserve

	if spare > 0 {
		for _, acct := range []struct {
			sup       engine.Supplier
			owed, due float64
		}{
			{engine.SupplierWine, snap.WineOwed, snap.WineDue},
			{engine.SupplierFood, snap.FoodOwed, snap.FoodDue},
		} {
			if acct.owed <= 0 || spare <= 0 {
				continue
			}
			pay := math.Min(acct.owed, math.Max(acct.due, spare/2))
			pay = math.Min(pay, spare)
			if pay > 0 {
				out = append(out, Action{Kind: ActPaySupplier, Supplier: acct.sup, Amount: pay})
				spare -= pay
			}
		}
	}

	if h.Level == LevelWarning && snap.CreditLines == 0 {
		out = append(out, Action{Kind: ActOpenLine, Bank: credit.BankTownland})
	}

	headroom := snap.SupplierCap*p.SupplierLimit - snap.WineOwed
	if h.WineShort > 0 && headroom > 0 {
		for _, pick := range wineMix(snap.Reputation, h.WineShort) {
			out = append(out, Action{Kind: ActRestockWine, Item: pick.name, Qty: pick.qty})
		}
	}
	if h.FoodShort > 0 && snap.SupplierCap*p.SupplierLimit-snap.FoodOwed > 0 {
		out = append(out, Action{Kind: ActRestockFood, Item: foodPick(snap.Reputation), Qty: h.FoodShort})
	}

	if h.Understaff && h.Level == LevelHealthy && spare > 0 {
		out = append(out, Action{Kind: ActHire, Role: bartenderRole(snap.Reputation)})
	}
	if snap.Kitchen && snap.Chefs == 0 && h.Level == LevelHealthy {
		out = append(out, Action{Kind: ActHire, Role: staff.RoleChef})
	}

	if snap.Weekend && !snap.Scheduled && h.Level == LevelHealthy {
		act := engine.ActivityQuiz
		if snap.Reputation >= 30 {
			act = engine.ActivityLiveBand
		}
		if a, ok := engine.FindActivity(act); ok && spare > a.Cost {
			out = append(out, Action{Kind: ActSchedule, Activity: act})
		}
	}

	switch {
	case snap.Reputation < 0:
		out = append(out, Action{Kind: ActSetPrice, Amount: 1.0})
	case snap.Reputation >= 40:
		out = append(out, Action{Kind: ActSetPrice, Amount: 1.25})
	}

	return out
}

// DecideRound is the in-night check: a bouncer when chaos runs high.
func (p Policy) DecideRound(snap Snapshot) []Action {
	if snap.BouncersFree > 0 && snap.Chaos >= p.BouncerChaos && snap.Cash > p.CashReserve {
		return []Action{{Kind: ActBouncer}}
	}
	return nil
}

type wineOrder struct {
	name string
	qty  int
}

// wineMix splits an order across the bottles the crowd at this reputation
// drinks. Cheap wine spoils fastest so it never takes more than half.
func wineMix(rep, qty int) []wineOrder {
	names := []string{"Crisp & Fruity Blanco", "House White", "Cheap Table Red"}
	if rep >= 20 {
		names = []string{"House White", "Cheap Table Red", "Mineral Riesling", "Mid-range Merlot"}
	}

	var out []wineOrder
	left := qty
	for i, name := range names {
		n := left / (len(names) - i)
		if i == 0 {
			n = min(n, qty/2)
		}
		if n <= 0 {
			continue
		}
		out = append(out, wineOrder{name: name, qty: n})
		left -= n
	}
	if left > 0 && len(out) > 0 {
		out[len(out)-1].qty += left
	}
	return out
}

func foodPick(rep int) string {
	switch {
	case rep >= 30:
		return "Steak Pie"
	case rep >= 10:
		return "Fish & Chips"
	default:
		return "Pub Chips"
	}
}
