package engine

import (
	"log/slog"
	"math"

	"github.com/talgya/pubsim/internal/chaos"
	"github.com/talgya/pubsim/internal/credit"
	"github.com/talgya/pubsim/internal/economy"
	"github.com/talgya/pubsim/internal/entropy"
	"github.com/talgya/pubsim/internal/punters"
	"github.com/talgya/pubsim/internal/staff"
)

const (
	minPool        = 5
	maxPool        = 28
	minOccupancy   = 5
	happyHourPrice = 0.5
	minPrice       = 0.5
	maxPrice       = 2.5
	happyHourBoost = 1.15
	rentPerRound   = WeeklyRent / DaysPerWeek / ClosingRound
)

// OpenNight opens the doors. It is a logged no-op when the pub is already
// open or the licence is gone.
func (s *Simulation) OpenNight() bool {
	if s.GameOver {
		s.Log.Neg("night", "The licence is gone. The doors stay shut.")
		return false
	}
	if s.NightOpen {
		s.Log.Info("night", "The pub is already open.")
		return false
	}

	s.NightOpen = true
	s.Round = 0
	s.Nightly = NightStats{}
	s.Bouncers = Bouncers{}
	s.Streak.Reset()
	s.QuietRounds = 0
	s.Neg100Rounds = 0

	if s.Scheduled != nil {
		s.Activity, s.Scheduled = s.Scheduled, nil
		s.Weekly.ActivityNights++
		s.applyRep(s.Activity.RepInstant, s.Activity.Name)
		if s.Activity.Traffic >= 0.10 {
			s.Rumours.Add(RumourLiveMusic, 6)
		}
		if s.Activity.Risk >= 0.08 {
			s.Rumours.Add(RumourDodgyNights, 4)
		}
		s.Log.Event("activity", "Tonight: %s.", s.Activity.Name)
	}

	fx := s.Effects()
	s.TrafficBase = s.baseTraffic()
	pool := max(minPool, min(maxPool, int(math.Round(5*s.TrafficBase))))
	occupancy := pool + fx.BarCap + 2*s.PubLevel
	if s.Activity != nil {
		occupancy += s.Activity.Capacity
	}
	s.Crowd.Reset()
	s.Crowd.MaxOccupancy = max(minOccupancy, occupancy)
	s.Crowd.Seed(s.Spawner, pool, s.spawnBias())

	s.Log.Info("night", "%s opens: %d in, room for %d. %s", s.PubName, pool, s.Crowd.MaxOccupancy, s.Deal)
	return true
}

// baseTraffic is tonight's footfall before upgrades, activities and rumours.
func (s *Simulation) baseTraffic() float64 {
	rep := s.Reputation
	m := 0.72
	switch {
	case rep >= 70:
		m = 1.28
	case rep >= 40:
		m = 1.14
	case rep >= -20:
		m = 1.00
	case rep >= -60:
		m = 0.86
	}
	switch {
	case rep > 70:
		m += 0.08
	case rep > 40:
		m += 0.04
	case rep < -60:
		m -= 0.08
	case rep < -20:
		m -= 0.04
	}
	if s.Weekend() {
		m *= 1.20
	} else {
		m *= 0.92 + s.RNG.Float64()*0.16
	}
	return m * s.Identity.TrafficMult() * (1 + 0.05*float64(s.PubLevel))
}

func (s *Simulation) spawnBias() punters.Bias {
	return punters.Bias{
		Reputation: s.Reputation,
		PubLevel:   s.PubLevel,
		WealthBias: s.Identity.WealthBias() + s.Market.MixBias(),
		MoodBias:   s.Identity.MoodBias() + s.Rumours.MoodBias(),
		TierWeight: s.seasonalTierWeight,
	}
}

// EffectivePrice is the price multiplier punters see this round.
func (s *Simulation) EffectivePrice(fx Effects) float64 {
	p := s.PriceMultiplier
	if s.HappyHour {
		p *= happyHourPrice
	}
	if fx.Activity != nil {
		p *= 1 + fx.Activity.PricePct
	}
	return math.Max(minPrice, math.Min(maxPrice, p))
}

// ServeCapacity is how many punters the bar can serve this round.
func (s *Simulation) ServeCapacity(fx Effects) int {
	c := s.Staff.ServeCapacity() + fx.ServeCap + s.PubLevel
	if fx.Activity != nil {
		c += fx.Activity.Capacity / 2
	}
	return max(1, c)
}

// roundTraffic multiplies tonight's base by the upgrades, the activity, the
// rumour mill and the rivals down the street.
func (s *Simulation) roundTraffic(fx Effects) float64 {
	return s.TrafficBase * fx.TrafficMult() * s.Rumours.TrafficMult() * s.Market.DemandMult()
}

func (s *Simulation) tipRate(fx Effects) float64 {
	r := s.Staff.TipRate() + fx.TipBonus
	if fx.Activity != nil {
		r += fx.Activity.TipBonus
	}
	return r
}

// PlayRound runs one round of the night in a fixed order. It returns false
// when the pub is closed or the game is over.
func (s *Simulation) PlayRound() bool {
	if s.GameOver {
		s.Log.Neg("night", "The licence is gone.")
		return false
	}
	if !s.NightOpen {
		s.Log.Info("night", "The pub is closed. Open up first.")
		return false
	}
	s.Round++
	s.tally = roundTally{}
	fx := s.Effects()
	sec := s.EffectiveSecurity(fx)

	// 1. Deliveries and plates coming out of the kitchen.
	s.processDeliveries()
	s.processFoodOrders(fx, sec)
	s.Crowd.TickFood()

	// 2. Running costs.
	s.Accrued.Rent += rentPerRound
	s.PayOrDebt(s.Staff.OperatingCost(s.Crowd.Count()), "operating costs")

	// 3. Atmosphere.
	s.applyRep(s.Staff.RepDelta(s.RNG)+fx.RepDrift, "atmosphere")

	// 4. Price.
	price := s.EffectivePrice(fx)

	// 5. Capacity and traffic.
	serveCap := s.ServeCapacity(fx)
	traffic := s.roundTraffic(fx)
	s.HappyHourBoost = false
	if s.HappyHour {
		chance := 35
		if s.DayIndex == 4 || s.DayIndex == 5 {
			chance += 10
		}
		if s.RNG.IntN(100) < chance {
			traffic *= happyHourBoost
			s.HappyHourBoost = true
		}
	}

	// 6. Arrivals and departures.
	expected := 1.9
	if s.Weekend() {
		expected = 2.8
	}
	expected *= math.Max(0.65, math.Min(1.60, traffic))
	arrivals := max(0, int(math.Round(expected+entropy.Between(s.RNG, -1, 1))))
	s.Crowd.AddArrivals(s.Spawner, arrivals, s.spawnBias())
	s.Crowd.NaturalDepartures(s.RNG, s.Round)

	// 7. Incidents.
	s.maybeRoundEvent(fx)

	// 8. Service.
	bar := s.Crowd.InBarShuffled(s.RNG)
	demand := min(len(bar), max(1, int(math.Round(float64(len(bar))*traffic))))
	served := min(serveCap, demand)
	kitchenOpen := fx.Kitchen && s.Staff.KitchenCapacity() > 0
	b := punters.NewBar(s.RNG, s.Log, s.Wine, s.Food, s.Crowd.Punters, punters.Conditions{
		Reputation:     s.Reputation,
		PriceMult:      price,
		HappyHour:      s.HappyHour,
		RiskyWeekend:   s.Weekend(),
		Security:       sec,
		TipRate:        s.tipRate(fx),
		ChaosTolerance: s.Staff.ChaosTolerance(),
		ActivityRisk:   fx.ActivityRisk(),
		RiskReduction:  fx.RiskReduction,
		RepMultiplier:  s.repMultiplier(fx),
		Door:           s.Bouncers.Door(),
		KitchenOpen:    kitchenOpen,
		KitchenBonus:   fx.KitchenQuality,
		PrepRounds:     economy.PrepRounds(fx.KitchenQuality),
		Round:          s.Round,
		FoodBias:       s.Rumours.FoodBias(),
	})
	for _, p := range bar[:served] {
		b.Serve(p)
	}
	b.Unserved(bar[served:demand])

	// 9. Food sales to the rest of the room.
	if kitchenOpen {
		b.WalkInFood(len(s.Crowd.InBar()), s.Staff.KitchenCapacity())
	}
	s.applyOutcome(b.Out, fx)

	// 10. Cleanup.
	s.Crowd.Cleanup()

	// 11. Chaos.
	s.Chaos = chaos.Blend(s.Chaos, chaos.Raw(chaos.Signals{
		PunterSum:         float64(s.Crowd.ChaosSum(s.Reputation)),
		Unserved:          s.tally.Unserved,
		Fights:            s.tally.Fights,
		Refunds:           s.tally.Refunds,
		Events:            s.tally.Events,
		TeamMorale:        s.Staff.TeamMorale(),
		WeeklyRepDeltaAbs: s.Weekly.RepDeltaAbs,
		BarCount:          s.Crowd.Count(),
		MaxOccupancy:      s.Crowd.MaxOccupancy,
		ActivityRunning:   fx.Activity != nil,
		ActivityRisk:      fx.ActivityRisk(),
		BetweenNight:      s.BetweenNightChaos,
	}))
	class := chaos.Classify(chaos.Counters{
		Unserved:       s.tally.Unserved,
		Events:         s.tally.Events,
		Fights:         s.tally.Fights,
		Refunds:        s.tally.Refunds,
		FoodMisses:     s.tally.FoodMisses,
		StaffIncident:  s.tally.StaffIncident,
		HappyHourCheat: s.tally.Cheated,
	})
	s.Chaos = s.Streak.Step(s.Chaos, class)
	s.BetweenNightChaos = chaos.Decay(s.BetweenNightChaos)

	// 12. Staff morale.
	s.Staff.AfterRound(staff.RoundMood{
		Unserved:   s.tally.Unserved,
		Events:     s.tally.Events,
		Reputation: s.Reputation,
		TipRate:    s.tipRate(fx),
		Security:   sec,
		Chaos:      s.Chaos,
	})

	// 13. Weekly accumulators.
	s.Weekly.ChaosSum += s.Chaos
	s.Weekly.ChaosRounds++
	s.Weekly.PriceSum += price
	s.Weekly.PriceSamples++
	s.roundRumours()

	// 14. Licence.
	if s.checkLicence() {
		return true
	}

	// 15. Closing time.
	if s.Round >= ClosingRound {
		s.CloseNight(ReasonClosingTime)
	}
	return true
}

// checkLicence counts consecutive rounds at rock-bottom reputation and
// revokes the licence on the third.
func (s *Simulation) checkLicence() bool {
	if s.Reputation > MinReputation {
		s.Neg100Rounds = 0
		return false
	}
	s.Neg100Rounds++
	if s.Neg100Rounds < licenceRounds {
		s.Log.Neg("licence", "The council is watching (%d/%d).", s.Neg100Rounds, licenceRounds)
		return false
	}
	s.GameOver = true
	s.GameOverReason = ReasonLicenceRevoked
	s.CloseNight(ReasonLicenceRevoked)
	return true
}

func (s *Simulation) processDeliveries() {
	var due []economy.Delivery[economy.Wine]
	due, s.WineDeliveries = economy.DueDeliveries(s.WineDeliveries, s.Round)
	for _, d := range due {
		added := s.Wine.AddN(d.Item, d.Qty, s.DayCounter)
		s.Log.Info("delivery", "Delivery: %d x %s arrived.", added, d.Item.Name)
	}
	var food []economy.Delivery[economy.Food]
	food, s.FoodDeliveries = economy.DueDeliveries(s.FoodDeliveries, s.Round)
	for _, d := range food {
		added := s.Food.AddN(d.Item, d.Qty, s.DayCounter)
		s.Log.Info("delivery", "Kitchen delivery: %d x %s arrived.", added, d.Item.Name)
	}
}

func (s *Simulation) processFoodOrders(fx Effects, sec int) {
	if len(s.FoodOrders) == 0 {
		return
	}
	kitchen := economy.KitchenState{
		ChefSkill:       s.Staff.KitchenSkill(),
		HeadChefs:       s.Staff.CountRole(staff.RoleHeadChef),
		QualityBonus:    fx.KitchenQuality,
		Security:        sec,
		RefundReduction: fx.RefundReduction,
	}
	waiting := s.FoodOrders[:0]
	for _, o := range s.FoodOrders {
		if o.Round > s.Round {
			waiting = append(waiting, o)
			continue
		}
		refunded, amount := kitchen.Resolve(o, s.RNG)
		if !refunded {
			continue
		}
		s.PayOrDebt(amount, "refund")
		s.tally.Refunds++
		s.Nightly.Refunds++
		s.Weekly.Refunds++
		s.applyRep(-1, "refund")
		s.Log.Neg("kitchen", "%s sends back the %s: refunded %.2f.", o.Punter, o.Food.Name, amount)
	}
	s.FoodOrders = waiting
}

// applyOutcome writes a round of service back to the world.
func (s *Simulation) applyOutcome(out *punters.Outcome, fx Effects) {
	s.earn(out.Revenue, out.Sales)
	if out.Tips > 0 {
		s.Cash += out.Tips
		s.Weekly.Tips += out.Tips
	}
	s.applyRep(out.RepDelta, "service")
	for _, f := range out.Fights {
		s.resolveFight(string(f.Cause), f.Reduction, fx)
	}
	s.FoodOrders = append(s.FoodOrders, out.FoodOrders...)
	for _, q := range out.FoodQuality {
		s.Weekly.FoodQuality += q
		s.Weekly.FoodServed++
	}

	s.tally.Unserved += out.Unserved
	s.tally.FoodMisses += out.FoodMisses
	s.tally.Cheated = s.tally.Cheated || out.Cheated
	s.Nightly.Unserved += out.Unserved
	s.Weekly.Unserved += out.Unserved
	s.Nightly.Thefts += out.Thefts
	s.Weekly.Thefts += out.Thefts
}

// CloseNight ends the night. Closing before the last round costs reputation.
func (s *Simulation) CloseNight(reason string) bool {
	if !s.NightOpen {
		s.Log.Info("night", "The pub is already closed.")
		return false
	}
	remaining := ClosingRound - s.Round
	if reason != ReasonClosingTime && reason != ReasonLicenceRevoked && remaining > 0 {
		penalty := max(1, int(math.Ceil(float64(remaining)/3)))
		s.applyRep(-penalty, "early close")
		s.Log.Neg("night", "Closed early (%s): rep -%d.", reason, penalty)
	}

	fx := s.Effects()
	s.NightOpen = false
	s.flushDeliveries()
	s.FoodOrders = nil
	s.Crowd.Reset()

	slog.Info("night closed",
		"week", s.Week,
		"day", s.DayIndex,
		"rounds", s.Round,
		"reason", reason,
		"revenue", math.Round(s.Nightly.Revenue*100)/100,
		"fights", s.Nightly.Fights,
		"unserved", s.Nightly.Unserved,
		"reputation", s.Reputation,
		"chaos", math.Round(s.Chaos*10)/10,
		"cash", math.Round(s.Cash*100)/100,
	)

	if s.GameOver {
		s.Log.Popup("licence", "Licence revoked", "%s has lost its licence. Reputation hit rock bottom.", s.PubName)
		s.Activity = nil
		s.Bouncers = Bouncers{}
		return true
	}

	s.Round = 0
	s.DayIndex = (s.DayIndex + 1) % DaysPerWeek
	s.DayCounter++
	s.Accrued.Security += securityUpkeepPerDay * float64(s.BaseSecurityLevel)

	s.betweenNightEvents(fx)
	if spoiled := s.Wine.RemoveSpoiled(s.DayCounter) + s.Food.RemoveSpoiled(s.DayCounter); spoiled > 0 {
		s.applyRep(-1, "spoilage")
		s.Log.Neg("stock", "%d item(s) went off and were binned.", spoiled)
	}
	s.Staff.AccrueDailyWages()
	s.progressInstalls()
	s.Chaos = chaos.Clamp(s.Chaos - chaos.NightDecay(s.Nightly.Fights, s.Nightly.Unserved))
	s.Deal = economy.RollDeal(s.RNG, s.WineCatalog)
	s.nightlyRumour()
	s.Activity = nil
	s.Bouncers = Bouncers{}

	if s.DayIndex == 0 {
		s.endOfWeek()
	}
	return true
}

// flushDeliveries lands anything still on the road at closing.
func (s *Simulation) flushDeliveries() {
	for _, d := range s.WineDeliveries {
		s.Wine.AddN(d.Item, d.Qty, s.DayCounter)
	}
	for _, d := range s.FoodDeliveries {
		s.Food.AddN(d.Item, d.Qty, s.DayCounter)
	}
	s.WineDeliveries, s.FoodDeliveries = nil, nil
}

// endOfWeek runs the weekly cycle after the seventh night.
func (s *Simulation) endOfWeek() {
	if added, capped := s.Credit.ApplyWeeklyInterest(); added > 0 || capped > 0 {
		s.Log.Neg("credit", "Weekly interest on credit lines: %.2f.", added)
		if capped > 0 {
			s.Log.Info("credit", "%.2f of interest fell past the limits and was waived.", capped)
		}
	}
	s.Credit.Wine.ClearLateFees()
	s.Credit.Food.ClearLateFees()
	if penalty := s.Credit.AccrueSupplierPenalties(); penalty > 0 {
		s.Log.Neg("credit", "Supplier penalty interest: %.2f.", penalty)
	}

	for _, d := range s.Staff.WeeklyQuits(s.Weekly.Fights, s.RNG) {
		s.settle(d.WagesDue, "final wages")
		s.applyRep(d.RepDelta, "staff quit")
		s.Log.Neg("staff", "%s quit after a rough week.", d.Member.Name)
	}
	for _, up := range s.Staff.WeeklyLevelUps(s.RNG, s.Weekly.AvgChaos()) {
		if up.Promoted {
			s.Log.Pos("staff", "%s promoted to %s.", up.Member.Name, up.Member.Role)
		}
	}

	s.payday(s.Effects())

	shark := s.Credit.Shark()
	signals := WeekSignals{
		Profit:         s.Weekly.Profit(),
		Fights:         s.Weekly.Fights,
		Unserved:       s.Weekly.Unserved,
		Refunds:        s.Weekly.Refunds,
		NegEvents:      s.Weekly.NegEvents,
		AvgChaos:       s.Weekly.AvgChaos(),
		RepNet:         s.Weekly.RepNet,
		FoodQuality:    s.Weekly.AvgFoodQuality(),
		AvgPrice:       s.Weekly.AvgPrice(),
		ActivityNights: s.Weekly.ActivityNights,
		SharkBalance:   shark != nil && shark.Balance > 0,
	}
	if s.Identity.Update(signals) {
		s.Log.Event("identity", "The pub is now known as %s.", s.Identity.Current)
	}
	s.weeklyRumours(signals)
	s.districtWeek()
	s.progressLevel()

	summary := s.weekSummary()
	s.LastWeek = &summary
	slog.Info("weekly report",
		"week", summary.Week,
		"revenue", math.Round(summary.Revenue*100)/100,
		"costs", math.Round(summary.Costs*100)/100,
		"profit", math.Round(summary.Profit*100)/100,
		"reputation", summary.Reputation,
		"chaos", summary.ChaosLabel,
		"credit_score", summary.CreditScore,
		"identity", summary.Identity,
	)

	s.WeeksIntoReport++
	if s.WeeksIntoReport >= WeeksPerReport {
		s.rollReport()
	}
	s.Weekly = WeekStats{}
	s.Week++
}

const (
	wageStreakScoreBonus = 3
	wagesPaidTrustRelief = -0.01
	wagesMissedMorale    = -6
	wagesMissedRep       = -3
	tipsPayoutShare      = 0.5
)

// payday settles every weekly bill in the scheduled context.
func (s *Simulation) payday(fx Effects) {
	wages := s.Staff.WagesDue(fx.WageEfficiency)
	tips := s.Weekly.Tips * tipsPayoutShare
	if wages+tips > 0 {
		if s.settle(wages+tips, "wages") {
			s.WageStreak++
			if s.WageStreak >= 2 {
				s.Credit.AdjustScore(wageStreakScoreBonus)
			}
			s.Credit.AdjustTrust(wagesPaidTrustRelief)
			s.Log.Info("payday", "Wages paid: %.2f (tips %.2f).", wages, tips)
		} else {
			s.WageStreak = 0
			s.Staff.AdjustAll(wagesMissedMorale)
			s.applyRep(wagesMissedRep, "wages missed")
			s.Log.Popup("payday", "Wages missed", "Couldn't make payroll. The staff are furious.")
		}
		s.Staff.ResetAccrual()
	}
	if s.Staff.Count() > 0 {
		switch {
		case s.Weekly.Tips >= 60:
			s.Staff.AdjustAll(3)
		case s.Weekly.Tips >= 25:
			s.Staff.AdjustAll(2)
		case s.Weekly.Tips < 10:
			s.Staff.AdjustAll(-1)
		}
	}

	s.settle(s.Accrued.Rent, "rent")
	s.settle(s.Accrued.Security, "security upkeep")
	s.Accrued = Accrued{}

	for _, acct := range []*credit.SupplierAccount{s.Credit.Wine, s.Credit.Food} {
		r := s.Credit.SettleSupplier(acct, s.Cash)
		s.payOut(r.CashSpent)
		if !r.MetMinimum {
			s.Staff.AdjustAll(r.MoraleDelta)
			s.Log.Neg("credit", "%s minimum missed: late fee %.2f.", acct.Name, r.LateFee)
		}
	}

	res := s.Credit.ProcessWeek(s.Cash)
	s.payOut(res.CashSpent)
	s.applyRep(res.RepDelta, "missed credit payment")
	for _, l := range res.Lines {
		if l.Missed {
			s.Log.Neg("credit", "Missed the %s payment: late fee %.2f.", l.Lender, l.LateFee)
		}
	}

	if s.Debt > 0 && s.Cash > 0 {
		paid := math.Min(s.Cash, s.Debt)
		s.payOut(paid)
		s.Debt -= paid
		s.Log.Info("payday", "Paid %.2f off the tab.", paid)
	}
}

// payOut moves cash to settle something already booked as a cost.
func (s *Simulation) payOut(amount float64) {
	if amount <= 0 {
		return
	}
	s.Cash = math.Max(0, s.Cash-amount)
}

// rollReport closes the four-week report window and opens the next one.
func (s *Simulation) rollReport() {
	r := s.Report()
	r.Closed = true
	s.LastReport = &r
	slog.Info("report closed", "report", r.Index, "profit", math.Round(r.Profit*100)/100, "sales", r.Sales, "events", r.Events)
	s.Log.Popup("report", "Report", "Report %d closed: profit %.2f over %d weeks.", r.Index, r.Profit, r.Weeks)

	s.ReportIndex++
	s.WeeksIntoReport = 0
	s.Window = ReportStats{StartCash: s.Cash, StartDebt: s.TotalDebt()}
}
