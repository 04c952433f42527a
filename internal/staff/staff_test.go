package staff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/pubsim/internal/entropy"
)

func member(role Role, capacity, skill int) *Member {
	return &Member{Role: role, BaseCapacity: capacity, BaseSkill: skill, CapacityMult: 1, Morale: 70, ChaosTolerance: 50}
}

func TestRoster_ServeCapacityWithManagers(t *testing.T) {
	r := NewRoster()
	assert.Equal(t, 1, r.ServeCapacity(), "the landlord serves alone")

	r.Add(member(RoleTrainee, 2, 3))
	r.Add(member(RoleExperienced, 3, 5))
	assert.Equal(t, 6, r.ServeCapacity())

	gm := member(RoleManager, 0, 8)
	gm.CapacityMult = 1.20
	am := member(RoleAssistantManager, 0, 6)
	am.CapacityMult = 1.10
	r.Add(gm)
	r.Add(am)
	assert.Equal(t, 7, r.ServeCapacity(), "floor(6 * 1.30)")
}

func TestRoster_KitchenCapacity(t *testing.T) {
	r := NewRoster()
	assert.Zero(t, r.KitchenCapacity())

	r.Add(member(RoleHeadChef, 0, 10))
	r.Add(member(RoleChef, 0, 6))
	r.Add(member(RoleKitchenAssistant, 0, 4))
	assert.Equal(t, 7, r.KitchenCapacity())
	assert.InDelta(t, 20.0/3, r.KitchenSkill(), 1e-9)
}

func TestRoster_TipRateAndSecurity(t *testing.T) {
	r := NewRoster()
	charm := member(RoleCharisma, 2, 5)
	charm.TipBonus = 0.02
	gm := member(RoleManager, 0, 7)
	gm.TipRate = 0.04
	bouncer := member(RoleSecurity, 1, 5)
	bouncer.SecurityBonus = 1
	chef := member(RoleChef, 0, 5)
	chef.TipBonus = 0.5 // kitchen bonuses never reach the bar
	r.Add(charm)
	r.Add(gm)
	r.Add(bouncer)
	r.Add(chef)

	assert.InDelta(t, 0.06, r.TipRate(), 1e-9)
	assert.Equal(t, 1, r.SecurityBonus())
}

func TestRoster_ChaosToleranceSkillWeighted(t *testing.T) {
	r := NewRoster()
	assert.Zero(t, r.ChaosTolerance())

	a := member(RoleTrainee, 1, 6) // weight 2
	a.ChaosTolerance = 40
	b := member(RoleSecurity, 1, 12) // weight 3
	b.ChaosTolerance = 80
	chef := member(RoleHeadChef, 0, 12)
	chef.ChaosTolerance = 0
	r.Add(a)
	r.Add(b)
	r.Add(chef)

	assert.InDelta(t, (40*2+80*3)/5.0, r.ChaosTolerance(), 1e-9)
}

func TestMember_LevelBonuses(t *testing.T) {
	m := member(RoleSpeed, 5, 6)
	m.Level = 9
	assert.Equal(t, 7, m.ServeCapacity())
	assert.Equal(t, 11, m.Skill())

	m.Level = 40
	assert.Equal(t, 9, m.ServeCapacity())
	assert.Equal(t, 12, m.Skill())
}

func TestMember_PromotionEveryFourthLevel(t *testing.T) {
	rng := entropy.New(3)
	m := member(RoleTrainee, 1, 2)
	m.Level = 3
	assert.False(t, m.Promote(rng))

	m.Level = 4
	require.True(t, m.Promote(rng))
	assert.Equal(t, RoleExperienced, m.Role)

	gm := member(RoleManager, 0, 8)
	gm.Level = 8
	assert.False(t, gm.Promote(rng))
}

func TestMoraleDelta(t *testing.T) {
	assert.Equal(t, 2, MoraleDelta(RoundMood{Reputation: 50, TipRate: 0.04}))
	assert.Equal(t, -1, MoraleDelta(RoundMood{TipRate: 0.01, Chaos: 45}))
	assert.Equal(t, -10, MoraleDelta(RoundMood{Unserved: 10, Events: 2, TipRate: 0.01}))
	assert.Equal(t, -7, MoraleDelta(RoundMood{Unserved: 10, Events: 2, TipRate: 0.01, Security: 10}))
}

func TestRoster_TeamMoraleDefaults(t *testing.T) {
	r := NewRoster()
	assert.InDelta(t, 70, r.TeamMorale(), 1e-9)
	assert.Zero(t, r.AfterRound(RoundMood{Unserved: 10}))

	m := member(RoleTrainee, 1, 6)
	m.Morale = 100
	r.Add(m)
	assert.Equal(t, -6, r.AfterRound(RoundMood{Unserved: 10, TipRate: 0.01}))
	assert.Equal(t, 94, m.Morale)
}

func TestRoster_WagesAccrueAndReset(t *testing.T) {
	r := NewRoster()
	m := member(RoleTrainee, 1, 2)
	m.WeeklyWage = 70
	r.Add(m)

	for range 7 {
		r.AccrueDailyWages()
	}
	assert.InDelta(t, 70, r.WagesDue(0), 1e-9)
	assert.InDelta(t, 63, r.WagesDue(0.1), 1e-9)
	r.ResetAccrual()
	assert.Zero(t, r.WagesDue(0))
}

func TestRoster_NoQuitsWithoutFights(t *testing.T) {
	r := NewRoster()
	r.Add(member(RoleTrainee, 1, 2))
	assert.Empty(t, r.WeeklyQuits(0, entropy.New(1)))
	assert.Equal(t, 1, r.Count())
}

func TestRoster_MiserableStaffQuitAfterBrawls(t *testing.T) {
	r := NewRoster()
	rng := entropy.New(8)
	for range 30 {
		m := member(RoleTrainee, 1, 2)
		m.Morale = 0
		m.Accrued = 10
		r.Add(m)
	}

	gone := r.WeeklyQuits(10, rng)
	require.NotEmpty(t, gone)
	assert.Equal(t, 30, r.Count()+len(gone))
	for _, d := range gone {
		assert.InDelta(t, 10, d.WagesDue, 1e-9)
		assert.Equal(t, -1, d.RepDelta)
		_, still := r.Get(d.Member.ID)
		assert.False(t, still)
	}
}

func TestRoster_HireIsSeeded(t *testing.T) {
	a := NewRoster().Hire(RoleManager, entropy.New(4), 10, 30)
	b := NewRoster().Hire(RoleManager, entropy.New(4), 10, 30)
	assert.Equal(t, a, b)
	assert.Equal(t, ID(1), a.ID)
	assert.GreaterOrEqual(t, a.CapacityMult, 1.10)
	assert.GreaterOrEqual(t, a.WeeklyWage, 18.0)
	assert.GreaterOrEqual(t, a.ChaosTolerance, 20)
}

func TestRoster_WeeklyLevelUpsCalmWeek(t *testing.T) {
	r := NewRoster()
	m := member(RoleChef, 0, 5)
	m.Level = 3
	r.Add(m)

	ups := r.WeeklyLevelUps(entropy.New(2), 0)
	require.Len(t, ups, 1)
	assert.Equal(t, 1, ups[0].Levels)
	assert.True(t, ups[0].Promoted)
	assert.Equal(t, RoleSousChef, m.Role)
	assert.Equal(t, 1, m.WeeksEmployed)
}

func TestParseRole(t *testing.T) {
	r, ok := ParseRole("head_chef")
	require.True(t, ok)
	assert.Equal(t, RoleHeadChef, r)
	_, ok = ParseRole("sommelier")
	assert.False(t, ok)
}
