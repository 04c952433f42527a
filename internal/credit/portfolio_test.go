package credit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/pubsim/internal/entropy"
)

func twoLines(t *testing.T) (*Portfolio, *Line, *Line) {
	t.Helper()
	p := NewPortfolio()
	a := NewLine("Lender A", BankTownland, 1000, 0.05, false)
	b := NewLine("Lender B", BankSantnere, 1000, 0.05, false)
	require.True(t, p.AddLine(a))
	require.True(t, p.AddLine(b))
	return p, a, b
}

func TestApplyCredit_PreferredLineIsUsed(t *testing.T) {
	p, a, b := twoLines(t)

	line, ok := p.ApplyCredit(120, b.ID)
	require.True(t, ok)
	assert.Equal(t, b.ID, line.ID)
	assert.InDelta(t, 120, b.Balance, 1e-9)
	assert.Zero(t, a.Balance)
}

func TestApplyCredit_FallbackPicksLowestEffectiveAPR(t *testing.T) {
	p := NewPortfolio()
	penalized := NewLine("Lender A", BankTownland, 1000, 0.05, false)
	penalized.AddOnAPR = 0.25
	clean := NewLine("Lender B", BankSantnere, 1000, 0.05, false)
	require.True(t, p.AddLine(penalized))
	require.True(t, p.AddLine(clean))

	line, ok := p.ApplyCredit(75, "missing-id")
	require.True(t, ok)
	assert.Equal(t, clean.ID, line.ID)
	assert.GreaterOrEqual(t, clean.Balance, 75.0)
	assert.Zero(t, penalized.Balance)
}

func TestApplyCredit_PreferredCannotCoverFallsBack(t *testing.T) {
	p, a, b := twoLines(t)
	b.Limit = 50

	line, ok := p.ApplyCredit(100, b.ID)
	require.True(t, ok)
	assert.Equal(t, a.ID, line.ID)
	assert.Zero(t, b.Balance)
}

func TestApplyCredit_TieBreaksOnAvailable(t *testing.T) {
	p := NewPortfolio()
	small := NewLine("Small", BankTownland, 500, 0.06, false)
	large := NewLine("Large", BankSantnere, 2000, 0.06, false)
	require.True(t, p.AddLine(small))
	require.True(t, p.AddLine(large))

	line, ok := p.ApplyCredit(100, "")
	require.True(t, ok)
	assert.Equal(t, large.ID, line.ID)
}

func TestApplyCredit_NonPositiveAmountSucceedsWithoutChange(t *testing.T) {
	p, a, b := twoLines(t)

	line, ok := p.ApplyCredit(0, a.ID)
	assert.True(t, ok)
	assert.Nil(t, line)
	assert.Zero(t, a.Balance+b.Balance)
}

func TestApplyCredit_NoLineCanCover(t *testing.T) {
	p, a, b := twoLines(t)
	b.Enabled = false

	_, ok := p.ApplyCredit(5000, "")
	assert.False(t, ok)
	assert.Zero(t, a.Balance)
	assert.Zero(t, b.Balance)
}

func TestOpenLine_OnePerLender(t *testing.T) {
	p := NewPortfolio()
	rng := entropy.New(7)

	line, ok := p.OpenLine(BankTownland, rng)
	require.True(t, ok)
	terms := BankTownland.Terms()
	assert.GreaterOrEqual(t, line.Limit, float64(terms.LimitMin))
	assert.LessOrEqual(t, line.Limit, float64(terms.LimitMax))
	assert.GreaterOrEqual(t, line.BaseAPR, terms.APRMin)
	assert.LessOrEqual(t, line.BaseAPR, terms.APRMax)

	_, ok = p.OpenLine(BankTownland, rng)
	assert.False(t, ok)
	assert.Len(t, p.Lines, 1)
}

func TestOpenLine_ScoreGate(t *testing.T) {
	p := NewPortfolio()
	p.Score = 600

	_, ok := p.OpenLine(BankUnionAlbion, entropy.New(1))
	assert.False(t, ok)
	assert.Empty(t, p.Lines)
}

func TestOpenLine_DoesNotTouchSupplierBalances(t *testing.T) {
	p := NewPortfolio()
	p.Wine.Balance = 200
	p.Food.Balance = 40

	_, ok := p.OpenLine(BankSantnere, entropy.New(3))
	require.True(t, ok)
	_, ok = p.OpenShark(entropy.New(3))
	require.True(t, ok)

	assert.InDelta(t, 200, p.Wine.Balance, 1e-9)
	assert.InDelta(t, 40, p.Food.Balance, 1e-9)
}

func TestOpenShark_CostsScore(t *testing.T) {
	p := NewPortfolio()

	line, ok := p.OpenShark(entropy.New(11))
	require.True(t, ok)
	assert.True(t, line.Predatory)
	assert.Equal(t, StartingScore-50, p.Score)

	_, ok = p.OpenShark(entropy.New(11))
	assert.False(t, ok)
}

func TestPaySupplier_CashEndToEnd(t *testing.T) {
	p := NewPortfolio()
	cash := 500.0
	p.Wine.Balance = 200

	r, err := p.PaySupplier(p.Wine, 80, AdHoc, SourceCash, cash)
	require.NoError(t, err)
	cash -= r.CashSpent

	assert.InDelta(t, 420, cash, 1e-9)
	assert.InDelta(t, 120, p.Wine.Balance, 1e-9)
	assert.Zero(t, p.Wine.AddOnAPR)
	assert.Zero(t, p.Wine.LateFeesThisWeek)
	assert.Zero(t, r.LateFee)
}

func TestPaySupplier_AdHocBelowMinimumHasNoPenalty(t *testing.T) {
	p := NewPortfolio()
	p.Wine.Balance = 1000
	score := p.Score

	r, err := p.PaySupplier(p.Wine, 5, AdHoc, SourceCash, 100)
	require.NoError(t, err)
	assert.False(t, r.MetMinimum)
	assert.Zero(t, r.LateFee)
	assert.Zero(t, p.Wine.AddOnAPR)
	assert.Zero(t, p.Wine.LateFeesThisWeek)
	assert.InDelta(t, 995, p.Wine.Balance, 1e-9)
	assert.Equal(t, score, p.Score)
}

func TestPaySupplier_ScheduledBelowMinimumEscalates(t *testing.T) {
	p := NewPortfolio()
	p.Wine.Balance = 1000

	r, err := p.PaySupplier(p.Wine, 5, Scheduled, SourceCash, 100)
	require.NoError(t, err)
	assert.Greater(t, r.LateFee, 0.0)
	assert.InDelta(t, 0.02, p.Wine.AddOnAPR, 1e-9)
	assert.Equal(t, -6, r.ScoreDelta)
	assert.Equal(t, -2, r.MoraleDelta)
	assert.InDelta(t, 0.02, p.TrustPenalty, 1e-9)
}

func TestPaySupplier_Errors(t *testing.T) {
	p := NewPortfolio()

	_, err := p.PaySupplier(p.Wine, 10, AdHoc, SourceCash, 100)
	assert.ErrorIs(t, err, ErrNothingOwed)

	p.Wine.Balance = 50
	_, err = p.PaySupplier(p.Wine, 0, AdHoc, SourceCash, 100)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = p.PaySupplier(p.Wine, 60, AdHoc, SourceCash, 100)
	assert.ErrorIs(t, err, ErrOverpayment)

	_, err = p.PaySupplier(p.Wine, 40, AdHoc, SourceCash, 10)
	assert.ErrorIs(t, err, ErrInsufficientCash)

	_, err = p.PaySupplier(p.Wine, 40, AdHoc, "no-such-line", 100)
	assert.ErrorIs(t, err, ErrUnknownSource)

	assert.InDelta(t, 50, p.Wine.Balance, 1e-9)
}

func TestPaySupplier_FromCreditLine(t *testing.T) {
	p, a, _ := twoLines(t)
	p.Wine.Balance = 300

	r, err := p.PaySupplier(p.Wine, 300, AdHoc, a.ID, 0)
	require.NoError(t, err)
	assert.Zero(t, r.CashSpent)
	assert.Zero(t, p.Wine.Balance)
	assert.InDelta(t, 300, a.Balance, 1e-9)
}

func TestPayLine_BalanceTransfer(t *testing.T) {
	p, a, b := twoLines(t)
	_, ok := p.ApplyCredit(200, a.ID)
	require.True(t, ok)

	r, err := p.PayLine(a.ID, 200, AdHoc, b.ID, 0)
	require.NoError(t, err)
	assert.Zero(t, r.CashSpent)
	assert.Zero(t, a.Balance)
	assert.InDelta(t, 200, b.Balance, 1e-9)

	_, err = p.PayLine(b.ID, 10, AdHoc, b.ID, 0)
	assert.ErrorIs(t, err, ErrSelfTransfer)
}

func TestPayLine_ScheduledShortfallMisses(t *testing.T) {
	p, a, _ := twoLines(t)
	_, ok := p.ApplyCredit(400, a.ID)
	require.True(t, ok)

	r, err := p.PayLine(a.ID, 1, Scheduled, SourceCash, 100)
	require.NoError(t, err)
	assert.False(t, r.MetMinimum)
	assert.Equal(t, -30, r.ScoreDelta)
	assert.Equal(t, -2, r.RepDelta)
	assert.Equal(t, 1, a.MissedPayments)
	assert.InDelta(t, 0.015, a.AddOnAPR, 1e-9)
}

func TestSupplierCap_BlocksAndReenables(t *testing.T) {
	p := NewPortfolio()
	limit := p.SupplierCap(0)
	require.NoError(t, p.ChargeSupplier(p.Wine, limit, 0))

	err := p.ChargeSupplier(p.Wine, 10, 0)
	assert.ErrorIs(t, err, ErrSupplierCap)
	assert.InDelta(t, limit, p.Wine.Balance, 1e-9)

	_, err = p.PaySupplier(p.Wine, 100, AdHoc, SourceCash, 1000)
	require.NoError(t, err)
	assert.NoError(t, p.ChargeSupplier(p.Wine, 10, 0))
}

func TestSupplierCap_FeesOwedPastCapBlockStock(t *testing.T) {
	p := NewPortfolio()
	require.NoError(t, p.ChargeSupplier(p.Wine, p.SupplierCap(0), 0))

	r := p.SettleSupplier(p.Wine, 0)
	require.False(t, r.MetMinimum)
	limit := p.SupplierCap(0)
	assert.Greater(t, p.Wine.Balance, limit)
	assert.Zero(t, p.Wine.Headroom(limit))
	assert.ErrorIs(t, p.ChargeSupplier(p.Wine, 1, 0), ErrSupplierCap)

	_, err := p.PaySupplier(p.Wine, p.Wine.Balance-limit+20, AdHoc, SourceCash, 10000)
	require.NoError(t, err)
	assert.NoError(t, p.ChargeSupplier(p.Wine, 10, 0))
}

func TestSupplierCap_ShrinksWithTrustPenalty(t *testing.T) {
	p := NewPortfolio()
	clean := p.SupplierCap(0)
	p.AdjustTrust(0.1)
	assert.Less(t, p.SupplierCap(0), clean)
	assert.Greater(t, p.SupplierCap(2), p.SupplierCap(0))
}

func TestSettleSupplier(t *testing.T) {
	p := NewPortfolio()
	p.Food.Balance = 500

	r := p.SettleSupplier(p.Food, 1000)
	assert.True(t, r.MetMinimum)
	assert.InDelta(t, 60, r.CashSpent, 1e-9)
	assert.InDelta(t, 440, p.Food.Balance, 1e-9)

	r = p.SettleSupplier(p.Food, 10)
	assert.False(t, r.MetMinimum)
	assert.InDelta(t, 10, r.CashSpent, 1e-9)
	assert.Greater(t, p.Food.LateFeesThisWeek, 0.0)
}

func TestApplyWeeklyInterest_NeverPaysOrReduces(t *testing.T) {
	p, a, b := twoLines(t)
	_, ok := p.ApplyCredit(300, a.ID)
	require.True(t, ok)
	_, ok = p.ApplyCredit(100, b.ID)
	require.True(t, ok)
	cash := 500.0

	for range 10 {
		beforeA, beforeB := a.Balance, b.Balance
		p.ApplyWeeklyInterest()
		assert.GreaterOrEqual(t, a.Balance, beforeA)
		assert.GreaterOrEqual(t, b.Balance, beforeB)
	}
	assert.InDelta(t, 500, cash, 1e-9)
}

func TestProcessWeek_PaysMinimumAndRewards(t *testing.T) {
	p, a, _ := twoLines(t)
	_, ok := p.ApplyCredit(200, a.ID)
	require.True(t, ok)
	score := p.Score

	res := p.ProcessWeek(1000)
	require.Len(t, res.Lines, 1)
	assert.False(t, res.Lines[0].Missed)
	assert.Greater(t, res.CashSpent, 0.0)
	assert.True(t, a.PaidOnTimeThisWeek)
	assert.Equal(t, score+4, p.Score)
	assert.Equal(t, 4, res.ScoreDelta)
}

func TestProcessWeek_MissLeavesBalance(t *testing.T) {
	p := NewPortfolio()
	shark := NewLine(SharkLender, 0, 1000, 0.2, true)
	require.True(t, p.AddLine(shark))
	_, ok := p.ApplyCredit(500, shark.ID)
	require.True(t, ok)

	res := p.ProcessWeek(0)
	require.Len(t, res.Lines, 1)
	assert.True(t, res.Lines[0].Missed)
	assert.Zero(t, res.CashSpent)
	assert.Equal(t, -5, res.RepDelta)
	// No interest here: only the late fee, max(8, 12% of the 60 due).
	assert.InDelta(t, 508, shark.Balance, 1e-9)
	// -60 for the miss, -5 for carrying a predatory balance.
	assert.Equal(t, StartingScore-65, p.Score)
}

func TestProcessWeek_NoDebtStreak(t *testing.T) {
	p, _, _ := twoLines(t)

	p.ProcessWeek(0)
	assert.Equal(t, StartingScore+1, p.Score)
	p.ProcessWeek(0)
	assert.Equal(t, StartingScore+1+2, p.Score)
	assert.Equal(t, 2, p.NoDebtWeeks)
}

func TestProcessWeek_SkipsDisabledLines(t *testing.T) {
	p, a, b := twoLines(t)
	_, ok := p.ApplyCredit(200, a.ID)
	require.True(t, ok)
	require.True(t, p.SetEnabled(a.ID, false))

	res := p.ProcessWeek(1000)
	assert.Empty(t, res.Lines)
	assert.InDelta(t, 200, a.Balance, 1e-9)
	assert.Zero(t, b.Balance)
}

func TestAdjustScore_Clamped(t *testing.T) {
	p := NewPortfolio()
	p.AdjustScore(-1000)
	assert.Equal(t, MinScore, p.Score)
	p.AdjustScore(5000)
	assert.Equal(t, MaxScore, p.Score)
}
