package credit

import (
	"math"
	"math/rand/v2"
)

// Credit score bounds and weekly adjustments.
const (
	StartingScore = 540
	MinScore      = 300
	MaxScore      = 850

	highUtilization      = 0.80
	highUtilizationHit   = -5
	predatoryBalanceHit  = -5
	allPaidOnTimeBonus   = 4
	zeroBalanceBonus     = 1
	maxNoDebtStreakBonus = 3

	maxTrustPenalty = 0.5
)

// Supplier account names.
const (
	WineSupplier = "Wine supplier"
	FoodSupplier = "Food supplier"
)

// Portfolio owns every credit line, the supplier accounts, and the credit
// score that gates lending.
type Portfolio struct {
	Lines          []*Line          `json:"lines"`
	Score          int              `json:"credit_score"`
	TrustPenalty   float64          `json:"supplier_trust_penalty"`
	NoDebtWeeks    int              `json:"no_debt_weeks"`
	OpenedThisWeek int              `json:"opened_this_week"`
	Wine           *SupplierAccount `json:"wine_supplier"`
	Food           *SupplierAccount `json:"food_supplier"`
}

// NewPortfolio creates a portfolio with no lines and empty supplier accounts.
func NewPortfolio() *Portfolio {
	return &Portfolio{
		Score: StartingScore,
		Wine:  NewSupplierAccount(WineSupplier),
		Food:  NewSupplierAccount(FoodSupplier),
	}
}

// Line looks up a line by id.
func (p *Portfolio) Line(id string) *Line {
	for _, l := range p.Lines {
		if l.ID == id {
			return l
		}
	}
	return nil
}

// LineByLender looks up a line by lender label.
func (p *Portfolio) LineByLender(lender string) *Line {
	for _, l := range p.Lines {
		if l.Lender == lender {
			return l
		}
	}
	return nil
}

// Shark returns the predatory line, if one is open.
func (p *Portfolio) Shark() *Line {
	for _, l := range p.Lines {
		if l.Predatory {
			return l
		}
	}
	return nil
}

// AddLine adds an existing line. One line per lender.
func (p *Portfolio) AddLine(l *Line) bool {
	if l == nil || p.LineByLender(l.Lender) != nil {
		return false
	}
	p.Lines = append(p.Lines, l)
	p.OpenedThisWeek++
	return true
}

// OpenLine opens a line with a bank using rolled terms. It fails when a line
// from that lender already exists or the score is below the bank's minimum.
func (p *Portfolio) OpenLine(bank Bank, rng *rand.Rand) (*Line, bool) {
	terms := bank.Terms()
	if terms.Name == "" || p.LineByLender(terms.Name) != nil {
		return nil, false
	}
	if p.Score < terms.MinScore {
		return nil, false
	}

	limit := float64(terms.LimitMin + rng.IntN(terms.LimitMax-terms.LimitMin+1))
	apr := terms.APRMin + rng.Float64()*(terms.APRMax-terms.APRMin)
	line := NewLine(terms.Name, bank, limit, apr, false)
	p.AddLine(line)
	return line, true
}

// OpenShark opens the predatory line. Opening it costs credit score.
func (p *Portfolio) OpenShark(rng *rand.Rand) (*Line, bool) {
	if p.Shark() != nil || p.LineByLender(SharkLender) != nil {
		return nil, false
	}
	limit := float64(sharkLimitMin + rng.IntN(sharkLimitSpan+1))
	apr := sharkAPRMin + rng.Float64()*sharkAPRSpan
	line := NewLine(SharkLender, 0, limit, apr, true)
	p.AddLine(line)
	p.AdjustScore(sharkScoreHit)
	return line, true
}

// SetEnabled turns a line on or off for borrowing and weekly processing.
func (p *Portfolio) SetEnabled(id string, enabled bool) bool {
	l := p.Line(id)
	if l == nil {
		return false
	}
	l.Enabled = enabled
	return true
}

// ApplyCredit borrows amount. The preferred line is used when it is enabled
// and can cover the amount; otherwise the enabled line with the lowest
// effective APR that can cover it, ties going to the most available credit.
// A non-positive amount succeeds without touching any line.
func (p *Portfolio) ApplyCredit(amount float64, preferredID string) (*Line, bool) {
	if amount <= 0 {
		return nil, true
	}
	line := p.selectLine(amount, preferredID)
	if line == nil || !line.borrow(amount) {
		return nil, false
	}
	return line, true
}

func (p *Portfolio) selectLine(amount float64, preferredID string) *Line {
	if preferredID != "" {
		if l := p.Line(preferredID); l != nil && l.CanCover(amount) {
			return l
		}
	}

	var best *Line
	for _, l := range p.Lines {
		if !l.CanCover(amount) {
			continue
		}
		if best == nil {
			best = l
			continue
		}
		diff := l.EffectiveAPR() - best.EffectiveAPR()
		if diff < -1e-12 || (math.Abs(diff) <= 1e-12 && l.Available() > best.Available()) {
			best = l
		}
	}
	return best
}

// TotalBalance sums every line's balance.
func (p *Portfolio) TotalBalance() float64 {
	total := 0.0
	for _, l := range p.Lines {
		total += l.Balance
	}
	return total
}

// TotalLimit sums the limits of enabled lines.
func (p *Portfolio) TotalLimit() float64 {
	total := 0.0
	for _, l := range p.Lines {
		if l.Enabled {
			total += l.Limit
		}
	}
	return total
}

// Available sums unused credit across enabled lines.
func (p *Portfolio) Available() float64 {
	total := 0.0
	for _, l := range p.Lines {
		if l.Enabled {
			total += l.Available()
		}
	}
	return total
}

// Utilization is balance over limit across enabled lines.
func (p *Portfolio) Utilization() float64 {
	limit := p.TotalLimit()
	if limit <= 0 {
		return 0
	}
	balance := 0.0
	for _, l := range p.Lines {
		if l.Enabled {
			balance += l.Balance
		}
	}
	return balance / limit
}

// WeeklyDue sums the minimum due across enabled lines.
func (p *Portfolio) WeeklyDue() float64 {
	total := 0.0
	for _, l := range p.Lines {
		if l.Enabled {
			total += l.MinimumDue()
		}
	}
	return total
}

// AdjustScore moves the credit score within bounds.
func (p *Portfolio) AdjustScore(delta int) {
	p.Score += delta
	if p.Score < MinScore {
		p.Score = MinScore
	}
	if p.Score > MaxScore {
		p.Score = MaxScore
	}
}

// AdjustTrust moves the supplier trust penalty within bounds.
func (p *Portfolio) AdjustTrust(delta float64) {
	p.TrustPenalty = math.Max(0, math.Min(maxTrustPenalty, p.TrustPenalty+delta))
}

// Trust is the supplier trust band for the current score.
func (p *Portfolio) Trust() TrustLevel {
	return TrustFromScore(p.Score)
}

// SupplierPriceMultiplier scales every supplier invoice.
func (p *Portfolio) SupplierPriceMultiplier() float64 {
	return p.Trust().InvoiceMultiplier() * (1 + p.TrustPenalty)
}

// SupplierCap is the trade credit cap for each supplier account.
func (p *Portfolio) SupplierCap(pubLevel int) float64 {
	trust := math.Max(0.6, 1-p.TrustPenalty*3)
	level := 1 + 0.08*float64(pubLevel)
	return supplierCapBase(p.Score) * trust * level
}

// ChargeSupplier puts a stock purchase on a supplier account.
func (p *Portfolio) ChargeSupplier(acct *SupplierAccount, amount float64, pubLevel int) error {
	if acct == nil {
		return ErrSupplierNotAccount
	}
	return acct.Charge(amount, p.SupplierCap(pubLevel))
}

// ApplyWeeklyInterest accrues a week of interest on every enabled line.
// It never moves cash and never reduces a balance.
func (p *Portfolio) ApplyWeeklyInterest() (added, capped float64) {
	for _, l := range p.Lines {
		a, c := l.AccrueInterest()
		added += a
		capped += c
	}
	return added, capped
}

// AccrueSupplierPenalties adds penalty interest on both supplier accounts.
func (p *Portfolio) AccrueSupplierPenalties() float64 {
	return p.Wine.AccruePenaltyInterest() + p.Food.AccruePenaltyInterest()
}

// LineOutcome is what happened to one line during weekly processing.
type LineOutcome struct {
	Lender    string  `json:"lender"`
	Paid      float64 `json:"paid"`
	Missed    bool    `json:"missed"`
	LateFee   float64 `json:"late_fee"`
	Recovered bool    `json:"recovered"`
	Predatory bool    `json:"predatory"`
}

// WeekResult summarizes weekly processing. The caller deducts CashSpent and
// applies RepDelta.
type WeekResult struct {
	Lines      []LineOutcome `json:"lines"`
	CashSpent  float64       `json:"cash_spent"`
	RepDelta   int           `json:"rep_delta"`
	ScoreDelta int           `json:"score_delta"`
}

// ProcessWeek runs the scheduled payments over enabled lines: the minimum due
// is paid from cash when cash covers it, otherwise the line is marked missed.
// Score adjustments follow the pass. Interest is not accrued here; callers run
// ApplyWeeklyInterest once beforehand.
func (p *Portfolio) ProcessWeek(cash float64) WeekResult {
	var res WeekResult
	startScore := p.Score
	remaining := math.Max(0, cash)
	withBalance, onTime := 0, 0

	for _, l := range p.Lines {
		l.PaidOnTimeThisWeek = false
		if !l.Enabled || l.Balance <= 0 {
			continue
		}
		out := LineOutcome{Lender: l.Lender, Predatory: l.Predatory}
		withBalance++

		due := l.MinimumDue()
		if remaining+1e-9 >= due {
			paid := l.repay(due)
			remaining -= paid
			res.CashSpent += paid
			out.Paid = paid
			out.Recovered = l.markPaid()
			onTime++
		} else {
			out.Missed = true
			out.LateFee = l.markMissed(due)
			score, rep := l.missPenalties()
			p.AdjustScore(score)
			res.RepDelta += rep
		}
		res.Lines = append(res.Lines, out)
	}

	if p.Utilization() > highUtilization {
		p.AdjustScore(highUtilizationHit)
	}
	if shark := p.Shark(); shark != nil && shark.Balance > 0 {
		p.AdjustScore(predatoryBalanceHit)
	}
	if withBalance > 0 && onTime == withBalance {
		p.AdjustScore(allPaidOnTimeBonus)
	}

	if len(p.Lines) > 0 && p.TotalBalance() <= 0 {
		p.AdjustScore(zeroBalanceBonus)
		p.NoDebtWeeks++
		if p.NoDebtWeeks >= 2 {
			p.AdjustScore(min(maxNoDebtStreakBonus, p.NoDebtWeeks-1))
		}
	} else {
		p.NoDebtWeeks = 0
	}

	p.OpenedThisWeek = 0
	res.ScoreDelta = p.Score - startScore
	return res
}

// fund moves amount out of the named source: cash is checked against the
// till, a line id borrows from that line. Nothing changes on failure.
func (p *Portfolio) fund(amount float64, source, targetLineID string, cash float64, r *Receipt) error {
	if source == "" || source == SourceCash {
		if cash+1e-9 < amount {
			return ErrInsufficientCash
		}
		r.Source = SourceCash
		r.CashSpent = amount
		return nil
	}
	if source == targetLineID {
		return ErrSelfTransfer
	}
	line := p.Line(source)
	if line == nil {
		return ErrUnknownSource
	}
	if !line.borrow(amount) {
		return ErrCreditUnavailable
	}
	r.Source = line.ID
	return nil
}

// PayLine pays down a line from cash or another line. Scheduled payments
// below the minimum due take the missed-payment path; ad-hoc ones never do.
func (p *Portfolio) PayLine(id string, amount float64, ctx PaymentContext, source string, cash float64) (Receipt, error) {
	line := p.Line(id)
	if line == nil {
		return Receipt{}, ErrUnknownLine
	}
	if line.Balance <= 0 {
		return Receipt{}, ErrNothingOwed
	}
	if amount <= 0 {
		return Receipt{}, ErrInvalidAmount
	}
	if amount > line.Balance+epsilon {
		return Receipt{}, ErrOverpayment
	}
	amount = math.Min(amount, line.Balance)

	r := Receipt{Target: line.Lender, Context: ctx, Amount: amount, MinimumDue: line.MinimumDue()}
	if err := p.fund(amount, source, line.ID, cash, &r); err != nil {
		return Receipt{}, err
	}
	line.repay(amount)

	if ctx != Scheduled {
		r.MetMinimum = amount+epsilon >= r.MinimumDue
		return r, nil
	}
	if amount+epsilon >= r.MinimumDue {
		r.MetMinimum = true
		r.Recovered = line.markPaid()
		return r, nil
	}
	r.LateFee = line.markMissed(r.MinimumDue - amount)
	score, rep := line.missPenalties()
	before := p.Score
	p.AdjustScore(score)
	r.ScoreDelta = p.Score - before
	r.RepDelta = rep
	return r, nil
}

// RepayInFull clears a line from cash.
func (p *Portfolio) RepayInFull(id string, cash float64) (Receipt, error) {
	line := p.Line(id)
	if line == nil {
		return Receipt{}, ErrUnknownLine
	}
	return p.PayLine(id, line.Balance, AdHoc, SourceCash, cash)
}

// PaySupplier pays a supplier account from cash or a credit line. Only the
// scheduled context is checked against the minimum due.
func (p *Portfolio) PaySupplier(acct *SupplierAccount, amount float64, ctx PaymentContext, source string, cash float64) (Receipt, error) {
	if acct == nil {
		return Receipt{}, ErrSupplierNotAccount
	}
	if acct.Balance <= 0 {
		return Receipt{}, ErrNothingOwed
	}
	if amount <= 0 {
		return Receipt{}, ErrInvalidAmount
	}
	if amount > acct.Balance+epsilon {
		return Receipt{}, ErrOverpayment
	}
	amount = math.Min(amount, acct.Balance)

	r := Receipt{Target: acct.Name, Context: ctx, Amount: amount, MinimumDue: acct.MinimumDue()}
	if err := p.fund(amount, source, "", cash, &r); err != nil {
		return Receipt{}, err
	}
	acct.reduce(amount)

	if ctx == Scheduled {
		p.checkSupplierMinimum(acct, amount, &r)
	} else {
		r.MetMinimum = amount+epsilon >= r.MinimumDue
	}
	return r, nil
}

// SettleSupplier is the payday cycle for one supplier account: it pays as
// much of the minimum due as cash allows and applies the shortfall rules.
func (p *Portfolio) SettleSupplier(acct *SupplierAccount, cash float64) Receipt {
	r := Receipt{Target: acct.Name, Source: SourceCash, Context: Scheduled, MinimumDue: acct.MinimumDue()}
	if r.MinimumDue <= 0 {
		r.MetMinimum = true
		return r
	}
	pay := math.Min(math.Max(0, cash), r.MinimumDue)
	if pay > 0 {
		pay = acct.reduce(pay)
		r.Amount = pay
		r.CashSpent = pay
	}
	p.checkSupplierMinimum(acct, pay, &r)
	return r
}

func (p *Portfolio) checkSupplierMinimum(acct *SupplierAccount, paid float64, r *Receipt) {
	if paid+epsilon >= r.MinimumDue {
		r.MetMinimum = true
		r.Recovered = acct.RecordFullPayment()
		return
	}
	r.LateFee = acct.markShortfall(r.MinimumDue - paid)
	before := p.Score
	p.AdjustScore(supplierMissScoreHit)
	r.ScoreDelta = p.Score - before
	p.AdjustTrust(supplierTrustHit)
	r.MoraleDelta = supplierMoraleHit
}
