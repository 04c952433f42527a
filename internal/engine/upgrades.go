package engine

import (
	"fmt"
	"math"
	"slices"
)

// UpgradeID names a permanent fit-out.
type UpgradeID string

const (
	UpgradePoolTable        UpgradeID = "POOL_TABLE"
	UpgradeDarts            UpgradeID = "DARTS"
	UpgradeTVs              UpgradeID = "TVS"
	UpgradeBeerGarden       UpgradeID = "BEER_GARDEN"
	UpgradeKitchenSetup     UpgradeID = "KITCHEN_SETUP"
	UpgradeKitchen          UpgradeID = "KITCHEN"
	UpgradeExtendedBar      UpgradeID = "EXTENDED_BAR"
	UpgradeWineCellar       UpgradeID = "WINE_CELLAR"
	UpgradeCCTV             UpgradeID = "CCTV"
	UpgradeCCTVPackage      UpgradeID = "CCTV_PACKAGE"
	UpgradeDoorI            UpgradeID = "REINFORCED_DOOR_I"
	UpgradeDoorII           UpgradeID = "REINFORCED_DOOR_II"
	UpgradeDoorIII          UpgradeID = "REINFORCED_DOOR_III"
	UpgradeLightingI        UpgradeID = "LIGHTING_I"
	UpgradeLightingII       UpgradeID = "LIGHTING_II"
	UpgradeLightingIII      UpgradeID = "LIGHTING_III"
	UpgradeBurglarAlarmI    UpgradeID = "BURGLAR_ALARM_I"
	UpgradeStaffTrainingI   UpgradeID = "STAFF_TRAINING_I"
	UpgradeFasterTapsI      UpgradeID = "FASTER_TAPS_I"
	UpgradeBetterGlasswareI UpgradeID = "BETTER_GLASSWARE_I"
	UpgradeSoundproofingI   UpgradeID = "SOUNDPROOFING_I"
)

// Upgrade is one entry in the fit-out catalog. Zero fields have no effect.
type Upgrade struct {
	ID       UpgradeID `json:"id"`
	Name     string    `json:"name"`
	Cost     float64   `json:"cost"`
	Requires UpgradeID `json:"requires,omitempty"`

	Traffic         float64 `json:"traffic,omitempty"`
	RepDrift        int     `json:"rep_drift,omitempty"`
	EventBonus      int     `json:"event_bonus,omitempty"`
	BarCap          int     `json:"bar_cap,omitempty"`
	ServeCap        int     `json:"serve_cap,omitempty"`
	RackCap         int     `json:"rack_cap,omitempty"`
	FoodRackCap     int     `json:"food_rack_cap,omitempty"`
	Security        int     `json:"security,omitempty"`
	BouncerCap      int     `json:"bouncer_cap,omitempty"`
	KitchenQuality  int     `json:"kitchen_quality,omitempty"`
	Kitchen         bool    `json:"kitchen,omitempty"`
	RefundReduction float64 `json:"refund_reduction,omitempty"`
	WageEfficiency  float64 `json:"wage_efficiency,omitempty"`
	TipBonus        float64 `json:"tip_bonus,omitempty"`
	EventDamage     float64 `json:"event_damage,omitempty"`
	RiskReduction   float64 `json:"risk_reduction,omitempty"`
	RepMitigation   float64 `json:"rep_mitigation,omitempty"`
	CCTV            float64 `json:"cctv,omitempty"`
	IncidentMult    float64 `json:"incident_mult,omitempty"` // Between-night chance multiplier
}

var upgradeCatalog = []Upgrade{
	{ID: UpgradePoolTable, Name: "Pool Table", Cost: 180, Traffic: 0.08, RepDrift: 1, EventBonus: 1, BarCap: 2},
	{ID: UpgradeDarts, Name: "Darts Board", Cost: 120, Traffic: 0.05, RepDrift: 1, EventBonus: 1, BarCap: 1},
	{ID: UpgradeTVs, Name: "Big TVs", Cost: 240, Traffic: 0.10, EventBonus: 2, BarCap: 2},
	{ID: UpgradeBeerGarden, Name: "Beer Garden", Cost: 320, Traffic: 0.12, RepDrift: 1, EventBonus: 1, BarCap: 4},
	{ID: UpgradeKitchenSetup, Name: "Kitchen Base", Cost: 450, Traffic: 0.02, FoodRackCap: 10, Kitchen: true},
	{ID: UpgradeKitchen, Name: "Kitchen Upgrade I", Cost: 600, Requires: UpgradeKitchenSetup, Traffic: 0.10, RepDrift: 1, EventBonus: 2,
		BarCap: 2, FoodRackCap: 10, Security: 1, KitchenQuality: 1, WageEfficiency: 0.03},
	{ID: UpgradeExtendedBar, Name: "Extended Bar", Cost: 50, Traffic: 0.06, EventBonus: 1, BarCap: 6},
	{ID: UpgradeWineCellar, Name: "Wine Cellar", Cost: 520, Traffic: 0.04, EventBonus: 1, RackCap: 50},
	{ID: UpgradeCCTV, Name: "CCTV System", Cost: 260, EventBonus: 1, Security: 1, CCTV: 0.06},
	{ID: UpgradeCCTVPackage, Name: "CCTV Package", Cost: 340, Requires: UpgradeCCTV, Security: 1, EventDamage: 0.06, CCTV: 0.10},
	{ID: UpgradeDoorI, Name: "Reinforced Door I", Cost: 220, Security: 1, EventDamage: 0.02, IncidentMult: 0.98},
	{ID: UpgradeDoorII, Name: "Reinforced Door II", Cost: 360, Requires: UpgradeDoorI, Security: 2, EventDamage: 0.04, IncidentMult: 0.95, RepMitigation: 0.03},
	{ID: UpgradeDoorIII, Name: "Reinforced Door III", Cost: 520, Requires: UpgradeDoorII, Security: 3, EventDamage: 0.06, IncidentMult: 0.92, RepMitigation: 0.06},
	{ID: UpgradeLightingI, Name: "Lighting I", Cost: 200, Traffic: 0.01, RepDrift: 1, Security: 1, IncidentMult: 0.99},
	{ID: UpgradeLightingII, Name: "Lighting II", Cost: 320, Requires: UpgradeLightingI, Traffic: 0.01, RepDrift: 1, Security: 1, IncidentMult: 0.97, RepMitigation: 0.02},
	{ID: UpgradeLightingIII, Name: "Lighting III", Cost: 480, Requires: UpgradeLightingII, Traffic: 0.01, RepDrift: 1, Security: 2, IncidentMult: 0.95, RepMitigation: 0.04},
	{ID: UpgradeBurglarAlarmI, Name: "Burglar Alarm I", Cost: 260, EventDamage: 0.04, RiskReduction: 0.03},
	{ID: UpgradeStaffTrainingI, Name: "Staff Training I", Cost: 380, Traffic: 0.03, RepDrift: 1, EventBonus: 1, ServeCap: 1, WageEfficiency: 0.04},
	{ID: UpgradeFasterTapsI, Name: "Faster Pour Taps I", Cost: 260, Traffic: 0.02, EventBonus: 1, ServeCap: 1},
	{ID: UpgradeBetterGlasswareI, Name: "Better Glassware I", Cost: 140, RepDrift: 1, TipBonus: 0.01},
	{ID: UpgradeSoundproofingI, Name: "Soundproofing I", Cost: 280, RiskReduction: 0.06},
}

// Upgrades returns the fit-out catalog.
func Upgrades() []Upgrade {
	return slices.Clone(upgradeCatalog)
}

// FindUpgrade looks up a catalog entry.
func FindUpgrade(id UpgradeID) (Upgrade, bool) {
	for _, u := range upgradeCatalog {
		if u.ID == id {
			return u, true
		}
	}
	return Upgrade{}, false
}

// Install is an upgrade paid for and waiting on the builders.
type Install struct {
	ID         UpgradeID `json:"id"`
	NightsLeft int       `json:"nights_left"`
}

// ActivityID names a one-night event.
type ActivityID string

const (
	ActivityLiveBand     ActivityID = "LIVE_BAND"
	ActivityQuiz         ActivityID = "QUIZ_NIGHT"
	ActivityAcoustic     ActivityID = "LIVE_ACOUSTIC"
	ActivityKaraoke      ActivityID = "KARAOKE"
	ActivityLadiesNight  ActivityID = "LADIES_NIGHT"
	ActivityCharityNight ActivityID = "CHARITY_NIGHT"
)

// Activity is a scheduled night's entertainment.
type Activity struct {
	ID         ActivityID `json:"id"`
	Name       string     `json:"name"`
	Cost       float64    `json:"cost"`
	Traffic    float64    `json:"traffic"`
	Capacity   int        `json:"capacity"`
	RepInstant int        `json:"rep_instant"`
	EventBonus int        `json:"event_bonus"`
	Risk       float64    `json:"risk"`
	TipBonus   float64    `json:"tip_bonus"`
	PricePct   float64    `json:"price_pct"`
}

var activityCatalog = []Activity{
	{ID: ActivityLiveBand, Name: "Live Band", Cost: 120, Traffic: 0.18, Capacity: 6, RepInstant: 1, EventBonus: 10, Risk: 0.10, TipBonus: 0.02},
	{ID: ActivityQuiz, Name: "Quiz Night", Cost: 60, Traffic: 0.08, Capacity: 4, RepInstant: 3, EventBonus: 2, Risk: -0.04, TipBonus: 0.01},
	{ID: ActivityAcoustic, Name: "Live Acoustic", Cost: 70, Traffic: 0.09, Capacity: 4, RepInstant: 2, EventBonus: 3, Risk: 0.01, TipBonus: 0.02},
	{ID: ActivityKaraoke, Name: "Karaoke", Cost: 75, Traffic: 0.12, Capacity: 5, RepInstant: -1, EventBonus: 8, Risk: 0.06, TipBonus: 0.01},
	{ID: ActivityLadiesNight, Name: "Ladies Night", Cost: 90, Traffic: 0.14, Capacity: 5, RepInstant: 1, EventBonus: 6, Risk: 0.05, TipBonus: 0.02, PricePct: -0.05},
	{ID: ActivityCharityNight, Name: "Charity Night", Cost: 70, Traffic: 0.04, Capacity: 2, RepInstant: 4, EventBonus: 1, Risk: -0.05},
}

// Activities returns the activity catalog.
func Activities() []Activity {
	return slices.Clone(activityCatalog)
}

// FindActivity looks up a catalog entry.
func FindActivity(id ActivityID) (Activity, bool) {
	for _, a := range activityCatalog {
		if a.ID == id {
			return a, true
		}
	}
	return Activity{}, false
}

// Effect caps.
const (
	maxRefundReduction = 0.40
	maxWageEfficiency  = 0.25
	maxTipBonus        = 0.35
	maxEventDamage     = 0.35
	maxRiskReduction   = 0.35
	maxRepMitigation   = 0.20
	minIncidentMult    = 0.70
)

// Effects is the aggregate of every installed upgrade plus tonight's
// activity. The scheduler reads nothing else from the upgrade set.
type Effects struct {
	Traffic         float64 `json:"traffic"`
	RepDrift        int     `json:"rep_drift"`
	EventBonus      int     `json:"event_bonus"`
	BarCap          int     `json:"bar_cap"`
	ServeCap        int     `json:"serve_cap"`
	RackCap         int     `json:"rack_cap"`
	FoodRackCap     int     `json:"food_rack_cap"`
	Security        int     `json:"security"`
	BouncerCap      int     `json:"bouncer_cap"`
	KitchenQuality  int     `json:"kitchen_quality"`
	Kitchen         bool    `json:"kitchen"`
	RefundReduction float64 `json:"refund_reduction"`
	WageEfficiency  float64 `json:"wage_efficiency"`
	TipBonus        float64 `json:"tip_bonus"`
	EventDamage     float64 `json:"event_damage"`
	RiskReduction   float64 `json:"risk_reduction"`
	RepMitigation   float64 `json:"rep_mitigation"`
	CCTV            float64 `json:"cctv"`
	IncidentMult    float64 `json:"incident_mult"`

	Activity *Activity `json:"activity,omitempty"`
}

// EffectsOf folds a set of owned upgrades and an optional activity.
func EffectsOf(owned []UpgradeID, activity *Activity) Effects {
	fx := Effects{IncidentMult: 1, Activity: activity}
	for _, id := range owned {
		u, ok := FindUpgrade(id)
		if !ok {
			continue
		}
		fx.Traffic += u.Traffic
		fx.RepDrift += u.RepDrift
		fx.EventBonus += u.EventBonus
		fx.BarCap += u.BarCap
		fx.ServeCap += u.ServeCap
		fx.RackCap += u.RackCap
		fx.FoodRackCap += u.FoodRackCap
		fx.Security += u.Security
		fx.BouncerCap += u.BouncerCap
		fx.KitchenQuality += u.KitchenQuality
		fx.Kitchen = fx.Kitchen || u.Kitchen
		fx.RefundReduction += u.RefundReduction
		fx.WageEfficiency += u.WageEfficiency
		fx.TipBonus += u.TipBonus
		fx.EventDamage += u.EventDamage
		fx.RiskReduction += u.RiskReduction
		fx.RepMitigation += u.RepMitigation
		fx.CCTV = math.Max(fx.CCTV, u.CCTV)
		if u.IncidentMult > 0 {
			fx.IncidentMult *= u.IncidentMult
		}
	}
	fx.RefundReduction = math.Min(maxRefundReduction, fx.RefundReduction)
	fx.WageEfficiency = math.Min(maxWageEfficiency, fx.WageEfficiency)
	fx.TipBonus = math.Min(maxTipBonus, fx.TipBonus)
	fx.EventDamage = math.Min(maxEventDamage, fx.EventDamage)
	fx.RiskReduction = math.Min(maxRiskReduction, fx.RiskReduction)
	fx.RepMitigation = math.Min(maxRepMitigation, fx.RepMitigation)
	fx.IncidentMult = math.Max(minIncidentMult, fx.IncidentMult)
	return fx
}

// TrafficMult is the upgrade and activity pull on footfall.
func (fx Effects) TrafficMult() float64 {
	m := 1 + fx.Traffic
	if fx.Activity != nil {
		m *= 1 + fx.Activity.Traffic
	}
	return m
}

// ActivityRisk is tonight's activity risk, 0 without one.
func (fx Effects) ActivityRisk() float64 {
	if fx.Activity == nil {
		return 0
	}
	return fx.Activity.Risk
}

// TotalEventBonus adds the activity's event bonus to the upgrades'.
func (fx Effects) TotalEventBonus() int {
	if fx.Activity == nil {
		return fx.EventBonus
	}
	return fx.EventBonus + fx.Activity.EventBonus
}

// Effects aggregates the pub's installed upgrades and tonight's activity.
func (s *Simulation) Effects() Effects {
	return EffectsOf(s.Owned, s.Activity)
}

// Owns reports whether an upgrade is installed.
func (s *Simulation) Owns(id UpgradeID) bool {
	return slices.Contains(s.Owned, id)
}

func (s *Simulation) installing(id UpgradeID) bool {
	return slices.ContainsFunc(s.Installs, func(in Install) bool { return in.ID == id })
}

// BuyUpgrade pays for a fit-out. Builders only work while the pub is closed
// and take one to four nights.
func (s *Simulation) BuyUpgrade(id UpgradeID) error {
	if err := s.guardClosed(); err != nil {
		return err
	}
	u, ok := FindUpgrade(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownUpgrade, id)
	}
	if s.Owns(id) || s.installing(id) {
		return ErrAlreadyOwned
	}
	if u.Requires != "" && !s.Owns(u.Requires) {
		return fmt.Errorf("%w: needs %s", ErrPrerequisite, u.Requires)
	}
	if s.Cash+1e-9 < u.Cost {
		s.Log.Neg("upgrade", "Can't afford %s (%.2f).", u.Name, u.Cost)
		return ErrInsufficientCash
	}
	s.spend(u.Cost)
	nights := 1 + s.RNG.IntN(4)
	s.Installs = append(s.Installs, Install{ID: id, NightsLeft: nights})
	s.applyRep(2, "upgrade hype")
	s.Log.Pos("upgrade", "Bought %s for %.2f. Ready in %d night(s).", u.Name, u.Cost, nights)
	return nil
}

// progressInstalls counts down pending installs by one night.
func (s *Simulation) progressInstalls() {
	if len(s.Installs) == 0 {
		return
	}
	waiting := s.Installs[:0]
	for _, in := range s.Installs {
		in.NightsLeft--
		if in.NightsLeft > 0 {
			waiting = append(waiting, in)
			continue
		}
		s.Owned = append(s.Owned, in.ID)
		u, _ := FindUpgrade(in.ID)
		s.Log.Pos("upgrade", "%s is installed.", u.Name)
	}
	s.Installs = waiting
	s.applyCapacities()
}

// applyCapacities resizes the racks after an install or level change.
func (s *Simulation) applyCapacities() {
	fx := s.Effects()
	s.Wine.SetCapacity(WineRackCapacity + fx.RackCap)
	s.Food.SetCapacity(FoodRackCapacity + fx.FoodRackCap)
}

// ScheduleActivity books tomorrow night's entertainment. The fee is paid
// now; the activity takes effect when the night opens.
func (s *Simulation) ScheduleActivity(id ActivityID) error {
	if err := s.guardClosed(); err != nil {
		return err
	}
	a, ok := FindActivity(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownActivity, id)
	}
	if s.Scheduled != nil {
		return ErrAlreadyScheduled
	}
	if s.Cash+1e-9 < a.Cost {
		s.Log.Neg("activity", "Can't afford %s (%.2f).", a.Name, a.Cost)
		return ErrInsufficientCash
	}
	s.spend(a.Cost)
	s.Scheduled = &a
	s.Log.Info("activity", "%s booked for the next night.", a.Name)
	return nil
}
