package credit

import (
	"math"

	"github.com/google/uuid"
)

// Weekly payment schedule. Predatory lines carry a higher floor and share.
const (
	standardMinPayment = 25.0
	standardPaymentPct = 0.05
	sharkMinPayment    = 60.0
	sharkPaymentPct    = 0.08

	weeksPerYear = 52.0
	epsilon      = 0.01
)

// Missed scheduled payment consequences.
const (
	standardLateFeeMin   = 5.0
	standardLateFeePct   = 0.10
	standardPenaltyStep  = 0.015
	standardPenaltyCap   = 0.25
	standardMissScoreHit = -30
	standardMissRepHit   = -2

	sharkLateFeeMin   = 8.0
	sharkLateFeePct   = 0.12
	sharkPenaltyStep  = 0.03
	sharkPenaltyCap   = 0.35
	sharkMissScoreHit = -60
	sharkMissRepHit   = -5
)

// Line is one borrowing facility. Balance stays within [0, Limit].
type Line struct {
	ID        string  `json:"id"`
	Lender    string  `json:"lender"`
	Bank      Bank    `json:"bank"`
	Predatory bool    `json:"predatory"`
	Limit     float64 `json:"limit"`
	Balance   float64 `json:"balance"`
	BaseAPR   float64 `json:"base_apr"`
	Enabled   bool    `json:"enabled"`

	WeeklyPayment float64 `json:"weekly_payment"`
	Penalty

	MissedPayments      int  `json:"missed_payments"`
	ConsecutiveMissed   int  `json:"consecutive_missed"`
	WeeksInGoodStanding int  `json:"weeks_in_good_standing"`
	PaidOnTimeThisWeek  bool `json:"paid_on_time_this_week"`
}

// NewLine creates an enabled, empty line.
func NewLine(lender string, bank Bank, limit, apr float64, predatory bool) *Line {
	l := &Line{
		ID:        uuid.NewString(),
		Lender:    lender,
		Bank:      bank,
		Predatory: predatory,
		Limit:     math.Max(0, limit),
		BaseAPR:   math.Max(0, apr),
		Enabled:   true,
	}
	l.recomputePayment()
	return l
}

// EffectiveAPR is the base APR plus any penalty add-on.
func (l *Line) EffectiveAPR() float64 {
	return l.BaseAPR + l.AddOnAPR
}

// Available returns the unused part of the limit.
func (l *Line) Available() float64 {
	return math.Max(0, l.Limit-l.Balance)
}

// CanCover reports whether the line is usable for a draw of amount.
func (l *Line) CanCover(amount float64) bool {
	return l.Enabled && l.Available()+1e-9 >= amount
}

// MinimumDue is the scheduled payment that avoids the missed-payment path.
func (l *Line) MinimumDue() float64 {
	if l.Balance <= 0 {
		return 0
	}
	return math.Min(l.WeeklyPayment, l.Balance)
}

func (l *Line) recomputePayment() {
	if l.Balance <= 0 {
		l.WeeklyPayment = 0
		return
	}
	if l.Predatory {
		l.WeeklyPayment = math.Max(sharkMinPayment, l.Balance*sharkPaymentPct)
		return
	}
	l.WeeklyPayment = math.Max(standardMinPayment, l.Balance*standardPaymentPct)
}

// borrow draws amount against the limit. Fails without change when it cannot.
func (l *Line) borrow(amount float64) bool {
	if amount <= 0 || !l.CanCover(amount) {
		return false
	}
	l.Balance = math.Min(l.Limit, l.Balance+amount)
	l.recomputePayment()
	return true
}

// repay reduces the balance and returns the amount actually applied.
func (l *Line) repay(amount float64) float64 {
	if amount <= 0 || l.Balance <= 0 {
		return 0
	}
	applied := math.Min(amount, l.Balance)
	l.Balance -= applied
	if l.Balance < epsilon {
		l.Balance = 0
	}
	l.recomputePayment()
	return applied
}

// charge adds interest or fees, never past the limit. Returns the amount
// added and the amount that did not fit.
func (l *Line) charge(amount float64) (added, capped float64) {
	if amount <= 0 {
		return 0, 0
	}
	added = math.Min(amount, l.Available())
	l.Balance += added
	l.recomputePayment()
	return added, amount - added
}

// AccrueInterest adds one week of interest at the effective APR. Cash is
// never touched and the balance never decreases.
func (l *Line) AccrueInterest() (added, capped float64) {
	if !l.Enabled || l.Balance <= 0 {
		return 0, 0
	}
	return l.charge(l.Balance * l.EffectiveAPR() / weeksPerYear)
}

// lateFee returns the fee charged for a scheduled shortfall.
func (l *Line) lateFee(shortfall float64) float64 {
	if l.Predatory {
		return math.Max(sharkLateFeeMin, shortfall*sharkLateFeePct)
	}
	return math.Max(standardLateFeeMin, shortfall*standardLateFeePct)
}

// markMissed applies the missed-payment path and returns the fee charged.
func (l *Line) markMissed(shortfall float64) float64 {
	l.MissedPayments++
	l.ConsecutiveMissed++
	l.WeeksInGoodStanding = 0
	l.PaidOnTimeThisWeek = false

	fee, _ := l.charge(l.lateFee(shortfall))
	if l.Predatory {
		l.Escalate(sharkPenaltyStep, sharkPenaltyCap)
	} else {
		l.Escalate(standardPenaltyStep, standardPenaltyCap)
	}
	return fee
}

// markPaid records an on-time full scheduled payment.
func (l *Line) markPaid() bool {
	l.ConsecutiveMissed = 0
	l.WeeksInGoodStanding++
	l.PaidOnTimeThisWeek = true
	return l.RecordFullPayment()
}

func (l *Line) missPenalties() (score, rep int) {
	if l.Predatory {
		return sharkMissScoreHit, sharkMissRepHit
	}
	return standardMissScoreHit, standardMissRepHit
}
