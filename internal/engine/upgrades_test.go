package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuyUpgrade_InstallsOverNights(t *testing.T) {
	s := newSim(t)
	s.Cash = 1000

	require.NoError(t, s.BuyUpgrade(UpgradeExtendedBar))
	assert.InDelta(t, 950, s.Cash, 1e-9)
	require.Len(t, s.Installs, 1)
	assert.False(t, s.Owns(UpgradeExtendedBar))
	assert.ErrorIs(t, s.BuyUpgrade(UpgradeExtendedBar), ErrAlreadyOwned)

	for range 4 {
		if s.Owns(UpgradeExtendedBar) {
			break
		}
		skipNight(t, s)
	}
	assert.True(t, s.Owns(UpgradeExtendedBar))
	assert.Empty(t, s.Installs)
	assert.Equal(t, 6, s.Effects().BarCap)
}

func TestBuyUpgrade_Refusals(t *testing.T) {
	s := newSim(t)
	s.Cash = 1000

	assert.ErrorIs(t, s.BuyUpgrade("GOLD_TAPS"), ErrUnknownUpgrade)
	assert.ErrorIs(t, s.BuyUpgrade(UpgradeKitchen), ErrPrerequisite)

	s.Cash = 10
	assert.ErrorIs(t, s.BuyUpgrade(UpgradeBeerGarden), ErrInsufficientCash)
	assert.InDelta(t, 10, s.Cash, 1e-9)

	require.True(t, s.OpenNight())
	assert.ErrorIs(t, s.BuyUpgrade(UpgradeDarts), ErrNightOpen)
}

func TestWineCellar_RaisesRackCapacity(t *testing.T) {
	s := newSim(t)
	s.Owned = append(s.Owned, UpgradeWineCellar, UpgradeKitchenSetup)

	s.applyCapacities()
	assert.Equal(t, WineRackCapacity+50, s.Wine.Capacity)
	assert.Equal(t, FoodRackCapacity+10, s.Food.Capacity)
	assert.True(t, s.KitchenOpen())
}

func TestEffectsOf_Caps(t *testing.T) {
	owned := make([]UpgradeID, 0, 10)
	for range 10 {
		owned = append(owned, UpgradeDoorIII)
	}

	fx := EffectsOf(owned, nil)
	assert.InDelta(t, minIncidentMult, fx.IncidentMult, 1e-9)
	assert.InDelta(t, maxRepMitigation, fx.RepMitigation, 1e-9)
	assert.InDelta(t, maxEventDamage, fx.EventDamage, 1e-9)
	assert.Equal(t, 30, fx.Security)
}

func TestEffectsOf_CCTVTakesBest(t *testing.T) {
	fx := EffectsOf([]UpgradeID{UpgradeCCTV, UpgradeCCTVPackage}, nil)
	assert.InDelta(t, 0.10, fx.CCTV, 1e-9)
}

func TestEffectsOf_Activity(t *testing.T) {
	band, ok := FindActivity(ActivityLiveBand)
	require.True(t, ok)

	fx := EffectsOf([]UpgradeID{UpgradeTVs}, &band)
	assert.InDelta(t, 1.10*1.18, fx.TrafficMult(), 1e-9)
	assert.InDelta(t, band.Risk, fx.ActivityRisk(), 1e-9)
	assert.Equal(t, 2+band.EventBonus, fx.TotalEventBonus())

	none := EffectsOf(nil, nil)
	assert.InDelta(t, 1, none.TrafficMult(), 1e-9)
	assert.Zero(t, none.ActivityRisk())
	assert.InDelta(t, 1, none.IncidentMult, 1e-9)
}

func TestScheduleActivity_RunsNextNight(t *testing.T) {
	s := newSim(t)
	s.Cash = 500

	require.NoError(t, s.ScheduleActivity(ActivityQuiz))
	assert.InDelta(t, 440, s.Cash, 1e-9)
	assert.ErrorIs(t, s.ScheduleActivity(ActivityKaraoke), ErrAlreadyScheduled)
	assert.ErrorIs(t, s.ScheduleActivity("BINGO"), ErrUnknownActivity)

	require.True(t, s.OpenNight())
	require.NotNil(t, s.Activity)
	assert.Equal(t, ActivityQuiz, s.Activity.ID)
	assert.Nil(t, s.Scheduled)
	assert.Equal(t, 1, s.Weekly.ActivityNights)

	require.True(t, s.CloseNight(ReasonClosingTime))
	assert.Nil(t, s.Activity)
}

func TestSecurityUpgradeCost(t *testing.T) {
	assert.InDelta(t, 34, SecurityUpgradeCost(0), 1e-9)
	assert.Greater(t, SecurityUpgradeCost(5), SecurityUpgradeCost(4))
}

func TestUpgradeSecurity(t *testing.T) {
	s := newSim(t)

	require.NoError(t, s.UpgradeSecurity())
	assert.Equal(t, 1, s.BaseSecurityLevel)
	assert.InDelta(t, StartingCash-34, s.Cash, 1e-9)

	s.Cash = 1
	assert.ErrorIs(t, s.UpgradeSecurity(), ErrInsufficientCash)
	assert.Equal(t, 1, s.BaseSecurityLevel)
}

func TestHireBouncer(t *testing.T) {
	s := newSim(t)
	_, err := s.HireBouncer()
	require.ErrorIs(t, err, ErrNightClosed)

	require.True(t, s.OpenNight())
	s.Cash = 1000
	q, err := s.HireBouncer()
	require.NoError(t, err)
	assert.NotEqual(t, BouncerNone, q)
	assert.Equal(t, 1, s.Bouncers.Hired)
	assert.LessOrEqual(t, s.Bouncers.FightReduction, maxBouncerReduction)
	assert.GreaterOrEqual(t, s.Bouncers.FightReduction, 0.10)

	_, err = s.HireBouncer()
	assert.ErrorIs(t, err, ErrBouncerCap)

	require.True(t, s.CloseNight(ReasonClosingTime))
	assert.Zero(t, s.Bouncers.Hired)
}

func TestBouncerQuality_Mitigation(t *testing.T) {
	assert.Zero(t, BouncerNone.Mitigation())
	assert.Less(t, BouncerLow.Mitigation(), BouncerMedium.Mitigation())
	assert.Less(t, BouncerMedium.Mitigation(), BouncerHigh.Mitigation())
	assert.Equal(t, "medium", BouncerMedium.String())
}

func TestRepMultiplier_NeverBelowHalf(t *testing.T) {
	s := newSim(t)
	s.Bouncers.Hired = 3
	fx := Effects{CCTV: 0.10, RepMitigation: 0.20, IncidentMult: 1}
	assert.InDelta(t, 0.75*0.9*0.8, s.repMultiplier(fx), 1e-9)

	assert.InDelta(t, 0.5, s.repMultiplier(Effects{CCTV: 0.5}), 1e-9)
	s.Bouncers.Hired = 0
	assert.InDelta(t, 1, s.repMultiplier(Effects{}), 1e-9)
}
