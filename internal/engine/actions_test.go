package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/pubsim/internal/credit"
	"github.com/talgya/pubsim/internal/economy"
	"github.com/talgya/pubsim/internal/staff"
)

func TestPaySupplier_CashEndToEnd(t *testing.T) {
	s := newSim(t)
	s.Cash = 500
	s.Credit.Wine.Balance = 200

	r, err := s.PaySupplier(SupplierWine, 80, credit.SourceCash)
	require.NoError(t, err)

	assert.InDelta(t, 420, s.Cash, 1e-9)
	assert.InDelta(t, 120, s.Credit.Wine.Balance, 1e-9)
	assert.InDelta(t, 80, r.CashSpent, 1e-9)
	assert.Zero(t, r.LateFee)
}

func TestPaySupplier_FailureLeavesState(t *testing.T) {
	s := newSim(t)
	s.Cash = 50
	s.Credit.Food.Balance = 200

	_, err := s.PaySupplier(SupplierFood, 80, credit.SourceCash)
	assert.ErrorIs(t, err, credit.ErrInsufficientCash)
	assert.InDelta(t, 50, s.Cash, 1e-9)
	assert.InDelta(t, 200, s.Credit.Food.Balance, 1e-9)

	_, err = s.PaySupplier("beer", 10, credit.SourceCash)
	assert.ErrorIs(t, err, credit.ErrSupplierNotAccount)
}

func TestBuyWine_ClosedGoesOnAccount(t *testing.T) {
	s := newSim(t)

	q, err := s.BuyWine("House White", 5)
	require.NoError(t, err)

	assert.Equal(t, 30, s.Wine.Count())
	assert.InDelta(t, q.Total, s.Credit.Wine.Balance, 1e-9)
	assert.InDelta(t, q.Total, s.Weekly.Costs, 1e-9)
	assert.Equal(t, StartingCash, s.Cash)
}

func TestBuyWine_Refusals(t *testing.T) {
	s := newSim(t)

	_, err := s.BuyWine("Bathtub Gin", 1)
	assert.ErrorIs(t, err, ErrUnknownItem)

	_, err = s.BuyWine("House White", 0)
	assert.ErrorIs(t, err, credit.ErrInvalidAmount)

	_, err = s.BuyWine("House White", WineRackCapacity)
	assert.ErrorIs(t, err, ErrRackFull)
	assert.Equal(t, 25, s.Wine.Count())
}

func TestBuyWine_SupplierCapBlocksThenPaymentReenables(t *testing.T) {
	s := newSim(t)
	limit := s.Credit.SupplierCap(s.PubLevel)
	s.Credit.Wine.Balance = limit - 1
	s.Cash = 1000

	_, err := s.BuyWine("House White", 5)
	require.ErrorIs(t, err, ErrSupplierCap)
	assert.Equal(t, 25, s.Wine.Count())

	_, err = s.PaySupplier(SupplierWine, 200, credit.SourceCash)
	require.NoError(t, err)
	_, err = s.BuyWine("House White", 5)
	assert.NoError(t, err)
}

func TestBuyWine_EmergencyNeedsManagers(t *testing.T) {
	s := newSim(t)
	require.True(t, s.OpenNight())

	_, err := s.BuyWine("House White", 2)
	require.ErrorIs(t, err, ErrNoEmergencyStaff)

	_, err = s.Hire(staff.RoleManager)
	require.NoError(t, err)
	_, err = s.Hire(staff.RoleAssistantManager)
	require.NoError(t, err)

	cash := s.Cash
	q, err := s.BuyWine("House White", 2)
	require.NoError(t, err)
	assert.InDelta(t, cash-q.Total, s.Cash, 1e-9)
	require.Len(t, s.WineDeliveries, 1)
	assert.Equal(t, s.Round+economy.EmergencyWineDelay, s.WineDeliveries[0].Round)

	for range economy.EmergencyWineDelay {
		require.True(t, s.PlayRound())
	}
	assert.Empty(t, s.WineDeliveries)
}

func TestBuyFood_EmergencyNeedsHeadChef(t *testing.T) {
	s := newSim(t)
	require.True(t, s.OpenNight())

	_, err := s.BuyFood(s.FoodCatalog[0].Name, 2)
	assert.ErrorIs(t, err, ErrNoEmergencyStaff)
	assert.Empty(t, s.FoodDeliveries)
}

func TestBuyFood_ClosedGoesOnAccount(t *testing.T) {
	s := newSim(t)
	f := s.FoodCatalog[0]

	q, err := s.BuyFood(f.Name, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, s.Food.Count())
	assert.InDelta(t, q.Total, s.Credit.Food.Balance, 1e-9)
}

func TestOpenCreditLine_ScoreGate(t *testing.T) {
	s := newSim(t)

	line, err := s.OpenCreditLine(credit.BankTownland)
	require.NoError(t, err)
	assert.Equal(t, "Bank of Townland", line.Lender)

	_, err = s.OpenCreditLine(credit.BankTownland)
	assert.ErrorIs(t, err, credit.ErrCreditUnavailable)

	_, err = s.OpenCreditLine(credit.BankUnionAlbion)
	assert.ErrorIs(t, err, credit.ErrCreditUnavailable)
}

func TestPayLine_AndRepay(t *testing.T) {
	s := newSim(t)
	line, err := s.OpenCreditLine(credit.BankTownland)
	require.NoError(t, err)
	_, ok := s.Credit.ApplyCredit(100, line.ID)
	require.True(t, ok)
	s.Cash = 500

	_, err = s.PayLine(line.ID, 40, credit.SourceCash)
	require.NoError(t, err)
	assert.InDelta(t, 60, line.Balance, 1e-9)
	assert.InDelta(t, 460, s.Cash, 1e-9)

	_, err = s.RepayLine(line.ID)
	require.NoError(t, err)
	assert.Zero(t, line.Balance)
	assert.InDelta(t, 400, s.Cash, 1e-9)

	_, err = s.RepayLine("nope")
	assert.ErrorIs(t, err, credit.ErrUnknownLine)
}

func TestOpenShark_OnlyOnce(t *testing.T) {
	s := newSim(t)

	line, err := s.OpenShark()
	require.NoError(t, err)
	assert.True(t, line.Predatory)
	assert.Less(t, s.Credit.Score, credit.StartingScore)

	_, err = s.OpenShark()
	assert.ErrorIs(t, err, credit.ErrCreditUnavailable)
}

func TestSetLineEnabled(t *testing.T) {
	s := newSim(t)
	line, err := s.OpenCreditLine(credit.BankSantnere)
	require.NoError(t, err)

	require.NoError(t, s.SetLineEnabled(line.ID, false))
	assert.False(t, line.Enabled)
	assert.ErrorIs(t, s.SetLineEnabled("nope", true), credit.ErrUnknownLine)
}

func TestFire_PaysAccruedWages(t *testing.T) {
	s := newSim(t)
	m, err := s.Hire(staff.RoleTrainee)
	require.NoError(t, err)
	m.Accrued = 30

	require.NoError(t, s.Fire(m.ID))
	assert.InDelta(t, StartingCash-30, s.Cash, 1e-9)
	assert.Zero(t, s.Staff.Count())
	assert.ErrorIs(t, s.Fire(m.ID), ErrUnknownStaff)
}

func TestSetPrice(t *testing.T) {
	s := newSim(t)

	require.NoError(t, s.SetPrice(1.5))
	assert.InDelta(t, 1.5, s.PriceMultiplier, 1e-9)
	assert.ErrorIs(t, s.SetPrice(3), ErrInvalidPrice)
	assert.ErrorIs(t, s.SetPrice(0.1), ErrInvalidPrice)
	assert.InDelta(t, 1.5, s.PriceMultiplier, 1e-9)
}

func TestIsRuleError(t *testing.T) {
	assert.True(t, IsRuleError(ErrRackFull))
	assert.True(t, IsRuleError(credit.ErrOverpayment))
	assert.False(t, IsRuleError(assert.AnError))
}
