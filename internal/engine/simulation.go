// Package engine holds the pub's world state and the scheduler that moves it
// through rounds, nights and weeks.
package engine

import (
	"cmp"
	"errors"
	"log/slog"
	"math"
	"math/rand/v2"

	"github.com/talgya/pubsim/internal/chaos"
	"github.com/talgya/pubsim/internal/credit"
	"github.com/talgya/pubsim/internal/economy"
	"github.com/talgya/pubsim/internal/entropy"
	"github.com/talgya/pubsim/internal/events"
	"github.com/talgya/pubsim/internal/punters"
	"github.com/talgya/pubsim/internal/staff"
)

// Calendar and starting values.
const (
	ClosingRound   = 20
	DaysPerWeek    = 7
	WeeksPerReport = 4

	StartingCash       = 100.0
	StartingReputation = 10
	DefaultPriceMult   = 1.10
	WineRackCapacity   = 50
	FoodRackCapacity   = 20
	WeeklyRent         = 420.0

	MinReputation = -100
	MaxReputation = 100

	// Rounds at rock-bottom reputation before the licence goes.
	licenceRounds = 3

	DefaultPubName = "The Crooked Corkscrew"
)

// Close reasons.
const (
	ReasonClosingTime     = "closing time"
	ReasonLicenceRevoked  = "licence revoked"
	ReasonLandlordDecided = "landlord called time"
)

var (
	ErrNightOpen        = errors.New("the pub is open")
	ErrNightClosed      = errors.New("the pub is closed")
	ErrGameOver         = errors.New("the licence has been revoked")
	ErrRackFull         = errors.New("no room on the rack")
	ErrSupplierCap      = credit.ErrSupplierCap
	ErrInsufficientCash = credit.ErrInsufficientCash
	ErrUnknownItem      = errors.New("not in the catalog")
	ErrNoEmergencyStaff = errors.New("emergency restock needs the right staff on")
	ErrUnknownUpgrade   = errors.New("unknown upgrade")
	ErrAlreadyOwned     = errors.New("upgrade already owned or being installed")
	ErrPrerequisite     = errors.New("upgrade prerequisite missing")
	ErrUnknownActivity  = errors.New("unknown activity")
	ErrAlreadyScheduled = errors.New("an activity is already booked")
	ErrBouncerCap       = errors.New("no more bouncers allowed tonight")
	ErrUnknownStaff     = errors.New("unknown staff member")
	ErrInvalidPrice     = errors.New("price multiplier out of range")
)

// Options configures a new simulation.
type Options struct {
	Seed    uint64
	PubName string
	Seasons bool // Calendar seasons shift the crowd, prices and incidents
	Rivals  bool // Rival pubs roll a weekly market pressure
}

// NightStats are tonight's tallies.
type NightStats struct {
	Revenue  float64 `json:"revenue"`
	Costs    float64 `json:"costs"`
	Sales    int     `json:"sales"`
	Fights   int     `json:"fights"`
	Unserved int     `json:"unserved"`
	Events   int     `json:"events"`
	Refunds  int     `json:"refunds"`
	Thefts   int     `json:"thefts"`
}

// WeekStats are the running weekly accumulators.
type WeekStats struct {
	Revenue        float64 `json:"revenue"`
	Costs          float64 `json:"costs"`
	Tips           float64 `json:"tips"`
	Sales          int     `json:"sales"`
	Fights         int     `json:"fights"`
	Unserved       int     `json:"unserved"`
	Refunds        int     `json:"refunds"`
	PosEvents      int     `json:"pos_events"`
	NegEvents      int     `json:"neg_events"`
	Thefts         int     `json:"thefts"`
	ChaosSum       float64 `json:"chaos_sum"`
	ChaosRounds    int     `json:"chaos_rounds"`
	RepDeltaAbs    int     `json:"rep_delta_abs"`
	RepNet         int     `json:"rep_net"`
	PriceSum       float64 `json:"price_sum"`
	PriceSamples   int     `json:"price_samples"`
	FoodQuality    int     `json:"food_quality"`
	FoodServed     int     `json:"food_served"`
	ActivityNights int     `json:"activity_nights"`
}

// AvgChaos is the mean chaos over the week's rounds.
func (w WeekStats) AvgChaos() float64 {
	if w.ChaosRounds == 0 {
		return 0
	}
	return w.ChaosSum / float64(w.ChaosRounds)
}

// AvgPrice is the mean effective price multiplier.
func (w WeekStats) AvgPrice() float64 {
	if w.PriceSamples == 0 {
		return 0
	}
	return w.PriceSum / float64(w.PriceSamples)
}

// AvgFoodQuality is the mean quality of plates sold.
func (w WeekStats) AvgFoodQuality() float64 {
	if w.FoodServed == 0 {
		return 0
	}
	return float64(w.FoodQuality) / float64(w.FoodServed)
}

// Profit is revenue less costs.
func (w WeekStats) Profit() float64 { return w.Revenue - w.Costs }

// ReportStats accumulate over a four-week report window.
type ReportStats struct {
	Revenue   float64 `json:"revenue"`
	Costs     float64 `json:"costs"`
	Sales     int     `json:"sales"`
	Events    int     `json:"events"`
	StartCash float64 `json:"start_cash"`
	StartDebt float64 `json:"start_debt"`
}

// Accrued bills wait for payday.
type Accrued struct {
	Rent     float64 `json:"rent"`
	Security float64 `json:"security"`
}

// Simulation is the pub's complete world state. Every entry point is a
// bounded, synchronous state transition; all randomness comes from RNG.
type Simulation struct {
	PubName string      `json:"pub_name"`
	Seed    uint64      `json:"seed"`
	RNG     *rand.Rand  `json:"-"`
	Log     *events.Log `json:"-"`

	DayIndex        int  `json:"day_index"` // 0 = Monday
	DayCounter      int  `json:"day_counter"`
	Round           int  `json:"round"`
	Week            int  `json:"week"`
	ReportIndex     int  `json:"report_index"`
	WeeksIntoReport int  `json:"weeks_into_report"`
	NightOpen       bool `json:"night_open"`

	Cash              float64 `json:"cash"`
	Debt              float64 `json:"debt"`
	Reputation        int     `json:"reputation"`
	Chaos             float64 `json:"chaos"`
	BetweenNightChaos float64 `json:"between_night_chaos"`
	PriceMultiplier   float64 `json:"price_multiplier"`
	HappyHour         bool    `json:"happy_hour"`
	PubLevel          int     `json:"pub_level"`
	LevelProgress     int     `json:"level_progress"`
	BaseSecurityLevel int     `json:"base_security_level"`

	WineCatalog    []economy.Wine                   `json:"-"`
	FoodCatalog    []economy.Food                   `json:"-"`
	Wine           *economy.WineRack                `json:"wine"`
	Food           *economy.FoodRack                `json:"food"`
	Deal           economy.Deal                     `json:"deal"`
	WineDeliveries []economy.Delivery[economy.Wine] `json:"wine_deliveries"`
	FoodDeliveries []economy.Delivery[economy.Food] `json:"food_deliveries"`
	FoodOrders     []economy.FoodOrder              `json:"food_orders"`

	Crowd   *punters.Population `json:"crowd"`
	Spawner *punters.Spawner    `json:"-"`
	Staff   *staff.Roster       `json:"staff"`
	Credit  *credit.Portfolio   `json:"credit"`

	Owned     []UpgradeID `json:"owned"`
	Installs  []Install   `json:"installs"`
	Activity  *Activity   `json:"activity,omitempty"`  // Tonight
	Scheduled *Activity   `json:"scheduled,omitempty"` // Next night
	Bouncers  Bouncers    `json:"bouncers"`
	Identity  Identity    `json:"identity"`
	Rumours   Rumours     `json:"rumours"`

	SeasonsEnabled bool           `json:"seasons_enabled"`
	RivalsEnabled  bool           `json:"rivals_enabled"`
	Market         MarketPressure `json:"market"`

	Streak         chaos.Streak `json:"streak"`
	QuietRounds    int          `json:"quiet_rounds"`
	Neg100Rounds   int          `json:"neg100_rounds"`
	WageStreak     int          `json:"wage_streak"`
	ProfitStreak   int          `json:"profit_streak"`
	TrafficBase    float64      `json:"traffic_base"`
	HappyHourBoost bool         `json:"happy_hour_boost"`

	Nightly NightStats  `json:"nightly"`
	Weekly  WeekStats   `json:"weekly"`
	Window  ReportStats `json:"window"`
	Accrued Accrued     `json:"accrued"`

	LastWeek   *WeekSummary   `json:"last_week,omitempty"`
	LastReport *ReportSummary `json:"last_report,omitempty"`

	GameOver       bool   `json:"game_over"`
	GameOverReason string `json:"game_over_reason,omitempty"`

	tally roundTally
}

// roundTally is reset at the start of every round.
type roundTally struct {
	Unserved      int
	Events        int
	Fights        int
	Refunds       int
	FoodMisses    int
	StaffIncident bool
	Cheated       bool
}

// NewSimulation builds the starting pub.
func NewSimulation(opts Options) *Simulation {
	rng := entropy.New(opts.Seed)
	s := &Simulation{
		PubName:         cmp.Or(opts.PubName, DefaultPubName),
		Seed:            opts.Seed,
		RNG:             rng,
		Week:            1,
		ReportIndex:     1,
		Cash:            StartingCash,
		Reputation:      StartingReputation,
		PriceMultiplier: DefaultPriceMult,
		WineCatalog:     economy.WineCatalog(),
		FoodCatalog:     economy.FoodCatalog(),
		Wine:            economy.NewRack[economy.Wine](WineRackCapacity, 3),
		Food:            economy.NewRack[economy.Food](FoodRackCapacity, economy.FoodSpoilDays),
		Crowd:           &punters.Population{},
		Spawner:         punters.NewSpawner(rng),
		Staff:           staff.NewRoster(),
		Credit:          credit.NewPortfolio(),
		Identity:        NewIdentity(),
		Rumours:         Rumours{},
		TrafficBase:     1,
		SeasonsEnabled:  opts.Seasons,
		RivalsEnabled:   opts.Rivals,
	}
	s.Log = events.NewLog(s.clock)

	s.Wine.AddN(s.WineCatalog[0], 10, 0)
	s.Wine.AddN(s.WineCatalog[1], 10, 0)
	s.Wine.AddN(s.WineCatalog[2], 5, 0)
	s.Deal = economy.RollDeal(rng, s.WineCatalog)
	s.Window = ReportStats{StartCash: s.Cash, StartDebt: s.TotalDebt()}
	return s
}

func (s *Simulation) clock() (week, day, round int) {
	return s.Week, s.DayIndex, s.Round
}

// Weekend reports whether today is Friday, Saturday or Sunday.
func (s *Simulation) Weekend() bool { return s.DayIndex >= 4 }

// AbsoluteRound is the round count since the pub first opened.
func (s *Simulation) AbsoluteRound() int { return s.DayCounter*ClosingRound + s.Round }

// KitchenOpen reports whether food can be served.
func (s *Simulation) KitchenOpen() bool {
	return s.Effects().Kitchen
}

// TotalDebt is informal debt plus every credit and supplier balance.
func (s *Simulation) TotalDebt() float64 {
	return s.Debt + s.Credit.TotalBalance() + s.Credit.Wine.Balance + s.Credit.Food.Balance
}

func (s *Simulation) guardOpen() error {
	if s.GameOver {
		return ErrGameOver
	}
	if !s.NightOpen {
		return ErrNightClosed
	}
	return nil
}

func (s *Simulation) guardClosed() error {
	if s.GameOver {
		return ErrGameOver
	}
	if s.NightOpen {
		return ErrNightOpen
	}
	return nil
}

func (s *Simulation) recordRevenue(amount float64, sales int) {
	s.Nightly.Revenue += amount
	s.Nightly.Sales += sales
	s.Weekly.Revenue += amount
	s.Weekly.Sales += sales
	s.Window.Revenue += amount
	s.Window.Sales += sales
}

func (s *Simulation) recordCost(amount float64) {
	s.Nightly.Costs += amount
	s.Weekly.Costs += amount
	s.Window.Costs += amount
}

// earn adds takings to the till.
func (s *Simulation) earn(amount float64, sales int) {
	if amount <= 0 {
		return
	}
	s.Cash += amount
	s.recordRevenue(amount, sales)
}

// spend takes a cost the caller has already checked the till covers.
func (s *Simulation) spend(amount float64) {
	if amount <= 0 {
		return
	}
	s.Cash = math.Max(0, s.Cash-amount)
	s.recordCost(amount)
}

// PayOrDebt pays from cash; any shortfall becomes informal debt.
func (s *Simulation) PayOrDebt(amount float64, label string) {
	if amount <= 0 {
		return
	}
	s.recordCost(amount)
	if s.Cash+1e-9 >= amount {
		s.Cash = math.Max(0, s.Cash-amount)
		return
	}
	short := amount - s.Cash
	s.Cash = 0
	s.Debt += short
	s.Log.Neg("cash", "Couldn't cover %s: %.2f added to debt.", label, short)
}

// settle pays a bill from cash, then a credit line, then informal debt. It
// reports whether the bill was covered without falling into informal debt.
func (s *Simulation) settle(amount float64, label string) bool {
	if amount <= 0 {
		return true
	}
	s.recordCost(amount)
	if s.Cash+1e-9 >= amount {
		s.Cash = math.Max(0, s.Cash-amount)
		return true
	}
	short := amount - s.Cash
	if line, ok := s.Credit.ApplyCredit(short, ""); ok && line != nil {
		s.Cash = 0
		if line.Predatory {
			s.Credit.AdjustScore(sharkDrawScoreHit)
		}
		s.Log.Info("credit", "%s: %.2f put on %s.", label, short, line.Lender)
		return true
	}
	s.Cash = 0
	s.Debt += short
	s.Log.Neg("cash", "Couldn't cover %s: %.2f added to debt.", label, short)
	return false
}

const sharkDrawScoreHit = -10

func levelRepMultiplier(level int) float64 {
	switch {
	case level >= 3:
		return 1.10
	case level == 2:
		return 1.05
	case level == 1:
		return 1.02
	default:
		return 1
	}
}

// applyRep scales a reputation change by pub level, clamps, and feeds the
// weekly swing counters. It returns the change actually applied.
func (s *Simulation) applyRep(delta int, reason string) int {
	if delta == 0 {
		return 0
	}
	scaled := int(math.Round(float64(delta) * levelRepMultiplier(s.PubLevel)))
	if scaled == 0 {
		scaled = 1
		if delta < 0 {
			scaled = -1
		}
	}
	before := s.Reputation
	s.Reputation = max(MinReputation, min(MaxReputation, before+scaled))
	applied := s.Reputation - before
	s.Weekly.RepDeltaAbs += abs(applied)
	s.Weekly.RepNet += applied
	if applied != 0 {
		slog.Debug("reputation", "delta", applied, "reason", reason, "reputation", s.Reputation)
	}
	return applied
}

// mitigate scales a reputation loss by tonight's security multiplier.
func (s *Simulation) mitigate(delta int, fx Effects) int {
	return punters.Mitigate(delta, s.repMultiplier(fx))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
