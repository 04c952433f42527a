package credit

import "errors"

// PaymentContext says which entry point a payment came through. Only
// scheduled payments are checked against the minimum due.
type PaymentContext uint8

const (
	// AdHoc payments can be made at any time and never incur late fees.
	AdHoc PaymentContext = iota
	// Scheduled payments are the weekly payday cycle.
	Scheduled
)

func (c PaymentContext) String() string {
	if c == Scheduled {
		return "scheduled"
	}
	return "ad-hoc"
}

// SourceCash pays from the till. Any other source is a credit line id.
const SourceCash = "CASH"

var (
	ErrInvalidAmount      = errors.New("amount must be positive")
	ErrNothingOwed        = errors.New("nothing owed")
	ErrOverpayment        = errors.New("payment exceeds balance")
	ErrInsufficientCash   = errors.New("insufficient cash")
	ErrCreditUnavailable  = errors.New("source line cannot cover payment")
	ErrUnknownSource      = errors.New("unknown payment source")
	ErrUnknownLine        = errors.New("unknown credit line")
	ErrSelfTransfer       = errors.New("cannot pay a line from itself")
	ErrSupplierCap        = errors.New("supplier credit cap reached")
	ErrSupplierNotAccount = errors.New("unknown supplier account")
)

// Receipt describes the effects of one payment. The caller deducts CashSpent.
type Receipt struct {
	Target      string         `json:"target"`
	Source      string         `json:"source"`
	Context     PaymentContext `json:"context"`
	Amount      float64        `json:"amount"`
	CashSpent   float64        `json:"cash_spent"`
	MinimumDue  float64        `json:"minimum_due"`
	MetMinimum  bool           `json:"met_minimum"`
	LateFee     float64        `json:"late_fee"`
	ScoreDelta  int            `json:"score_delta"`
	RepDelta    int            `json:"rep_delta"`
	MoraleDelta int            `json:"morale_delta"`
	Recovered   bool           `json:"recovered"` // Penalty add-on stepped down
}
