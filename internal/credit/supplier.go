package credit

import "math"

// Supplier trade credit rules.
const (
	supplierMinDueFloor = 35.0
	supplierMinDuePct   = 0.12

	supplierLateFeeMin   = 6.0
	supplierLateFeePct   = 0.08
	supplierPenaltyStep  = 0.02
	supplierPenaltyCap   = 0.20
	supplierMissScoreHit = -6
	supplierTrustHit     = 0.02
	supplierMoraleHit    = -2
)

// SupplierAccount is trade credit with a single counterparty. It carries no
// base interest; only an active penalty add-on accrues weekly.
//
// The supplier cap gates new purchases only. Late fees and penalty interest
// are owed in full and may leave the balance above the cap, as may a cap that
// shrinks with the credit score; Charge refuses stock until it is paid down.
type SupplierAccount struct {
	Name             string  `json:"name"`
	Balance          float64 `json:"balance"`
	LateFeesThisWeek float64 `json:"late_fees_this_week"`
	Penalty
}

// NewSupplierAccount creates an empty account.
func NewSupplierAccount(name string) *SupplierAccount {
	return &SupplierAccount{Name: name}
}

// MinimumDue is the smallest scheduled payment that avoids late fees.
func (a *SupplierAccount) MinimumDue() float64 {
	if a.Balance <= 0 {
		return 0
	}
	return math.Min(a.Balance, math.Max(supplierMinDueFloor, a.Balance*supplierMinDuePct))
}

// Headroom returns how much more can be charged before cap.
func (a *SupplierAccount) Headroom(limit float64) float64 {
	return math.Max(0, limit-a.Balance)
}

// Charge adds a stock purchase to the balance. It fails without change when
// the purchase would take the balance over cap.
func (a *SupplierAccount) Charge(amount, limit float64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if a.Balance+amount > limit+1e-9 {
		return ErrSupplierCap
	}
	a.Balance += amount
	return nil
}

func (a *SupplierAccount) reduce(amount float64) float64 {
	applied := math.Min(amount, a.Balance)
	a.Balance -= applied
	if a.Balance < epsilon {
		a.Balance = 0
	}
	return applied
}

// AccruePenaltyInterest adds a week of the penalty add-on to the balance.
func (a *SupplierAccount) AccruePenaltyInterest() float64 {
	if a.Balance <= 0 || a.AddOnAPR <= 0 {
		return 0
	}
	interest := a.Balance * a.AddOnAPR / weeksPerYear
	a.Balance += interest
	return interest
}

// ClearLateFees resets the weekly late-fee tally.
func (a *SupplierAccount) ClearLateFees() {
	a.LateFeesThisWeek = 0
}

func (a *SupplierAccount) markShortfall(shortfall float64) float64 {
	fee := math.Max(supplierLateFeeMin, shortfall*supplierLateFeePct)
	a.Balance += fee
	a.LateFeesThisWeek += fee
	a.Escalate(supplierPenaltyStep, supplierPenaltyCap)
	return fee
}

// TrustLevel is how suppliers rate the pub, derived from the credit score.
type TrustLevel uint8

const (
	TrustVeryPoor TrustLevel = iota
	TrustPoor
	TrustNeutral
	TrustGood
)

// TrustFromScore maps a credit score to a supplier trust band.
func TrustFromScore(score int) TrustLevel {
	switch {
	case score >= 700:
		return TrustGood
	case score >= 550:
		return TrustNeutral
	case score >= 450:
		return TrustPoor
	default:
		return TrustVeryPoor
	}
}

// InvoiceMultiplier scales supplier prices for this trust band.
func (t TrustLevel) InvoiceMultiplier() float64 {
	switch t {
	case TrustGood:
		return 0.98
	case TrustNeutral:
		return 1.0
	case TrustPoor:
		return 1.03
	default:
		return 1.08
	}
}

func (t TrustLevel) String() string {
	switch t {
	case TrustGood:
		return "Good"
	case TrustNeutral:
		return "Neutral"
	case TrustPoor:
		return "Poor"
	default:
		return "Very Poor"
	}
}

// supplierCapBase returns the trade credit cap before trust and level scaling.
func supplierCapBase(score int) float64 {
	switch {
	case score >= 700:
		return 3200
	case score >= 600:
		return 2500
	case score >= 500:
		return 1800
	default:
		return 1200
	}
}
