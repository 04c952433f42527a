package engine

import (
	"github.com/talgya/pubsim/internal/chaos"
)

// WeekSummary is the closing record of one week.
type WeekSummary struct {
	Week        int     `json:"week"`
	Revenue     float64 `json:"revenue"`
	Costs       float64 `json:"costs"`
	Profit      float64 `json:"profit"`
	Tips        float64 `json:"tips"`
	Sales       int     `json:"sales"`
	Fights      int     `json:"fights"`
	Unserved    int     `json:"unserved"`
	Refunds     int     `json:"refunds"`
	Thefts      int     `json:"thefts"`
	PosEvents   int     `json:"pos_events"`
	NegEvents   int     `json:"neg_events"`
	AvgChaos    float64 `json:"avg_chaos"`
	ChaosLabel  string  `json:"chaos_label"`
	RepNet      int     `json:"rep_net"`
	Reputation  int     `json:"reputation"`
	Cash        float64 `json:"cash"`
	Debt        float64 `json:"debt"`
	CreditScore int     `json:"credit_score"`
	Identity    string  `json:"identity"`
	PubLevel    int     `json:"pub_level"`
	Rumour      string  `json:"rumour,omitempty"`
}

// ReportSummary covers a four-week report window. While the window is still
// open it is a running total.
type ReportSummary struct {
	Index       int     `json:"index"`
	Weeks       int     `json:"weeks"`
	Revenue     float64 `json:"revenue"`
	Costs       float64 `json:"costs"`
	Profit      float64 `json:"profit"`
	Sales       int     `json:"sales"`
	Events      int     `json:"events"`
	StartCash   float64 `json:"start_cash"`
	StartDebt   float64 `json:"start_debt"`
	Cash        float64 `json:"cash"`
	Debt        float64 `json:"debt"`
	Reputation  int     `json:"reputation"`
	CreditScore int     `json:"credit_score"`
	Identity    string  `json:"identity"`
	Closed      bool    `json:"closed"`
}

// Report returns the current report window so far.
func (s *Simulation) Report() ReportSummary {
	w := s.Window
	return ReportSummary{
		Index:       s.ReportIndex,
		Weeks:       s.WeeksIntoReport,
		Revenue:     w.Revenue,
		Costs:       w.Costs,
		Profit:      w.Revenue - w.Costs,
		Sales:       w.Sales,
		Events:      w.Events,
		StartCash:   w.StartCash,
		StartDebt:   w.StartDebt,
		Cash:        s.Cash,
		Debt:        s.TotalDebt(),
		Reputation:  s.Reputation,
		CreditScore: s.Credit.Score,
		Identity:    s.Identity.Current.String(),
	}
}

func (s *Simulation) weekSummary() WeekSummary {
	w := s.Weekly
	rumour, _ := s.Rumours.Hottest()
	return WeekSummary{
		Week:        s.Week,
		Revenue:     w.Revenue,
		Costs:       w.Costs,
		Profit:      w.Profit(),
		Tips:        w.Tips,
		Sales:       w.Sales,
		Fights:      w.Fights,
		Unserved:    w.Unserved,
		Refunds:     w.Refunds,
		Thefts:      w.Thefts,
		PosEvents:   w.PosEvents,
		NegEvents:   w.NegEvents,
		AvgChaos:    w.AvgChaos(),
		ChaosLabel:  chaos.Label(w.AvgChaos()),
		RepNet:      w.RepNet,
		Reputation:  s.Reputation,
		Cash:        s.Cash,
		Debt:        s.TotalDebt(),
		CreditScore: s.Credit.Score,
		Identity:    s.Identity.Current.String(),
		PubLevel:    s.PubLevel,
		Rumour:      string(rumour),
	}
}

// MaxPubLevel caps pub progression.
const MaxPubLevel = 5

// levelThresholds is the cumulative progress needed for each level.
var levelThresholds = [MaxPubLevel]int{4, 10, 18, 28, 40}

// progressLevel scores the week towards the next pub level: a profitable week
// earns a point, a run of them another, and a good name a third.
func (s *Simulation) progressLevel() {
	if s.Weekly.Profit() > 0 {
		s.ProfitStreak++
		s.LevelProgress++
		if s.ProfitStreak >= 3 {
			s.LevelProgress++
		}
	} else {
		s.ProfitStreak = 0
	}
	if s.Reputation >= 30 {
		s.LevelProgress++
	}
	if s.PubLevel >= MaxPubLevel || s.LevelProgress < levelThresholds[s.PubLevel] {
		return
	}
	s.PubLevel++
	s.applyCapacities()
	s.Log.Popup("level", "Level up", "%s is now a level %d pub.", s.PubName, s.PubLevel)
}
