// Package credit provides borrowing facilities (bank and predatory lines),
// supplier trade accounts, and the portfolio policy that routes borrowing and
// payments across them.
package credit

// Bank identifies a high-street lender.
type Bank uint8

const (
	BankTownland Bank = iota
	BankSantnere
	BankBoydMSG
	BankHalifix
	BankRoyalPound
	BankUnionAlbion
)

// BankTerms are the ranges a new line from a lender is rolled within.
type BankTerms struct {
	Name     string  `json:"name"`
	LimitMin int     `json:"limit_min"`
	LimitMax int     `json:"limit_max"`
	APRMin   float64 `json:"apr_min"`
	APRMax   float64 `json:"apr_max"`
	MinScore int     `json:"min_score"` // Credit score required to open
}

var bankTerms = [...]BankTerms{
	BankTownland:    {Name: "Bank of Townland", LimitMin: 1500, LimitMax: 3000, APRMin: 0.05, APRMax: 0.08},
	BankSantnere:    {Name: "Santnere", LimitMin: 2000, LimitMax: 4000, APRMin: 0.07, APRMax: 0.10},
	BankBoydMSG:     {Name: "Boyd MSG", LimitMin: 3500, LimitMax: 6000, APRMin: 0.06, APRMax: 0.09, MinScore: 580},
	BankHalifix:     {Name: "Halifix", LimitMin: 4000, LimitMax: 8000, APRMin: 0.05, APRMax: 0.07, MinScore: 620},
	BankRoyalPound:  {Name: "Royal Pound", LimitMin: 6000, LimitMax: 12000, APRMin: 0.04, APRMax: 0.06, MinScore: 680},
	BankUnionAlbion: {Name: "Union Albion", LimitMin: 10000, LimitMax: 20000, APRMin: 0.03, APRMax: 0.05, MinScore: 740},
}

// Terms returns the lending terms for the bank.
func (b Bank) Terms() BankTerms {
	if int(b) >= len(bankTerms) {
		return BankTerms{}
	}
	return bankTerms[b]
}

// String returns the lender's display name.
func (b Bank) String() string {
	return b.Terms().Name
}

// Banks lists every lender in catalog order.
func Banks() []Bank {
	out := make([]Bank, len(bankTerms))
	for i := range bankTerms {
		out[i] = Bank(i)
	}
	return out
}

// SharkLender is the lender label used for the predatory line.
const SharkLender = "Loan Shark"

// Predatory line opening terms.
const (
	sharkLimitMin  = 2000
	sharkLimitSpan = 4000
	sharkAPRMin    = 0.18
	sharkAPRSpan   = 0.17
	sharkScoreHit  = -50
)
