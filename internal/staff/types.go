// Package staff provides the pub's employees and the capacity, tip, security,
// chaos tolerance and morale figures the scheduler reads from them each round.
package staff

import (
	"fmt"
	"math"
	"math/rand/v2"
)

// ID is a unique identifier for a staff member within a run.
type ID uint64

// Role is a staff member's job.
type Role uint8

const (
	RoleTrainee Role = iota
	RoleExperienced
	RoleSpeed
	RoleCharisma
	RoleSecurity
	RoleChef
	RoleSousChef
	RoleHeadChef
	RoleKitchenAssistant
	RoleKitchenPorter
	RoleAssistantManager
	RoleManager
)

// Roles lists every role in hiring order.
var Roles = []Role{
	RoleTrainee, RoleExperienced, RoleSpeed, RoleCharisma, RoleSecurity,
	RoleChef, RoleSousChef, RoleHeadChef, RoleKitchenAssistant, RoleKitchenPorter,
	RoleAssistantManager, RoleManager,
}

var roleNames = [...]string{
	RoleTrainee:          "Trainee Bartender",
	RoleExperienced:      "Experienced Bartender",
	RoleSpeed:            "Speed Demon Bartender",
	RoleCharisma:         "Charisma Bartender",
	RoleSecurity:         "Security Bartender",
	RoleChef:             "Chef",
	RoleSousChef:         "Sous Chef",
	RoleHeadChef:         "Head Chef",
	RoleKitchenAssistant: "Kitchen Assistant",
	RoleKitchenPorter:    "Kitchen Porter",
	RoleAssistantManager: "Assistant Manager",
	RoleManager:          "General Manager",
}

func (r Role) String() string {
	if int(r) < len(roleNames) {
		return roleNames[r]
	}
	return fmt.Sprintf("Role(%d)", r)
}

// ParseRole looks a role up by its display name or a short key.
func ParseRole(s string) (Role, bool) {
	for _, r := range Roles {
		if r.String() == s || r.Key() == s {
			return r, true
		}
	}
	return 0, false
}

var roleKeys = [...]string{
	RoleTrainee:          "trainee",
	RoleExperienced:      "experienced",
	RoleSpeed:            "speed",
	RoleCharisma:         "charisma",
	RoleSecurity:         "security",
	RoleChef:             "chef",
	RoleSousChef:         "sous_chef",
	RoleHeadChef:         "head_chef",
	RoleKitchenAssistant: "kitchen_assistant",
	RoleKitchenPorter:    "kitchen_porter",
	RoleAssistantManager: "assistant_manager",
	RoleManager:          "manager",
}

// Key returns the short machine name used by the API.
func (r Role) Key() string {
	if int(r) < len(roleKeys) {
		return roleKeys[r]
	}
	return ""
}

// IsKitchen reports whether the role works back of house.
func (r Role) IsKitchen() bool {
	switch r {
	case RoleChef, RoleSousChef, RoleHeadChef, RoleKitchenAssistant, RoleKitchenPorter:
		return true
	}
	return false
}

// IsManager reports whether the role multiplies capacity and earns tips.
func (r Role) IsManager() bool {
	return r == RoleManager || r == RoleAssistantManager
}

// KitchenCapacity is how many plates per round the role can push out.
func (r Role) KitchenCapacity() int {
	switch r {
	case RoleHeadChef:
		return 4
	case RoleSousChef:
		return 3
	case RoleChef:
		return 2
	case RoleKitchenAssistant, RoleKitchenPorter:
		return 1
	}
	return 0
}

// promotions maps a role to the one it is promoted into every fourth level.
var promotions = map[Role]Role{
	RoleTrainee:          RoleExperienced,
	RoleExperienced:      RoleSpeed,
	RoleSpeed:            RoleCharisma,
	RoleChef:             RoleSousChef,
	RoleSousChef:         RoleHeadChef,
	RoleKitchenPorter:    RoleKitchenAssistant,
	RoleKitchenAssistant: RoleChef,
	RoleAssistantManager: RoleManager,
}

// Template is the stat block a new hire is rolled from.
type Template struct {
	Capacity       int
	Skill          int
	RepMin, RepMax int
	WeeklyWage     float64
	CapacityMult   float64 // Managers only
	TipRate        float64 // Managers only
	TipBonus       float64
	SecurityBonus  int
	ChaosTolerance int
	Morale         int
}

// WageMultiplier is applied to every base wage.
const WageMultiplier = 1.20

func baseTemplate(r Role, rng *rand.Rand) Template {
	switch r {
	case RoleExperienced:
		return Template{2 + rng.IntN(3), 5 + rng.IntN(3), -2, 4, float64(55 + rng.IntN(31)), 1, 0, 0, 0, 55, 70}
	case RoleSpeed:
		return Template{5 + rng.IntN(4), 6 + rng.IntN(4), -6, 2, float64(110 + rng.IntN(71)), 1, 0, 0, 0, 50, 64}
	case RoleCharisma:
		return Template{2 + rng.IntN(2), 5 + rng.IntN(3), 1, 5, float64(70 + rng.IntN(36)), 1, 0, 0.02, 0, 52, 72}
	case RoleSecurity:
		return Template{1 + rng.IntN(2), 5 + rng.IntN(3), -2, 2, float64(75 + rng.IntN(36)), 1, 0, 0, 1, 70, 70}
	case RoleChef:
		return Template{0, 5 + rng.IntN(4), -1, 3, float64(80 + rng.IntN(61)), 1, 0, 0, 0, 55, 68}
	case RoleSousChef:
		return Template{0, 8 + rng.IntN(4), 0, 3, float64(110 + rng.IntN(61)), 1, 0, 0, 0, 58, 74}
	case RoleHeadChef:
		return Template{0, 9 + rng.IntN(4), 1, 4, float64(140 + rng.IntN(71)), 1, 0, 0, 0, 60, 78}
	case RoleKitchenAssistant:
		return Template{0, 4 + rng.IntN(3), -1, 1, float64(70 + rng.IntN(41)), 1, 0, 0, 0, 52, 70}
	case RoleKitchenPorter:
		return Template{0, 3 + rng.IntN(2), -2, 1, float64(55 + rng.IntN(31)), 1, 0, 0, 0, 50, 68}
	case RoleAssistantManager:
		return Template{0, 6 + rng.IntN(4), -2, 4, float64(65 + rng.IntN(51)),
			1.05 + float64(rng.IntN(11))/100, 0.01 + float64(rng.IntN(3))/100, 0, 0, 60, 74}
	case RoleManager:
		return Template{0, 7 + rng.IntN(4), -3, 5, float64(90 + rng.IntN(71)),
			1.10 + float64(rng.IntN(26))/100, 0.02 + float64(rng.IntN(6))/100, 0, 0, 65, 76}
	default:
		return Template{1 + rng.IntN(2), 2 + rng.IntN(3), -1, 3, float64(30 + rng.IntN(16)), 1, 0, 0, 0, 45, 68}
	}
}

// NewTemplate rolls the base stat block for a role with wages marked up.
func NewTemplate(r Role, rng *rand.Rand) Template {
	t := baseTemplate(r, rng)
	t.WeeklyWage *= WageMultiplier
	return t
}

// CandidateTemplate rolls a hire whose quality improves with the week and the
// pub's reputation. Some candidates trade speed for polish or the reverse.
func CandidateTemplate(r Role, rng *rand.Rand, week, reputation int) Template {
	base := NewTemplate(r, rng)
	weekFactor := clamp01(float64(max(1, week)-1) / 36)
	repFactor := clamp01((float64(reputation) + 40) / 140)
	progression := clamp01(weekFactor*0.6 + repFactor*0.4)

	t := base
	if rng.Float64() < progression*0.65 {
		t.Capacity += rng.IntN(2)
		t.Skill += rng.IntN(2)
		t.ChaosTolerance += rng.IntN(4)
		t.RepMax += rng.IntN(2)
	}
	if rng.Float64() < 0.28 {
		if rng.IntN(2) == 0 {
			t.Capacity += 2
			t.Skill = max(1, t.Skill-1)
			t.RepMin--
		} else {
			t.Skill += 2
			t.Capacity = max(0, t.Capacity-1)
			t.ChaosTolerance += 2
		}
	}

	power := float64(t.Capacity)*6 + float64(t.Skill)*5 + float64(max(0, t.RepMax))*3 +
		float64(t.ChaosTolerance)*0.35 + float64(base.SecurityBonus)*8 + base.TipBonus*220 +
		base.TipRate*260 + (base.CapacityMult-1)*320
	premium := power*(0.015+progression*0.010) + math.Max(0, progression*14)
	t.WeeklyWage = math.Max(18, base.WeeklyWage+premium)

	t.Capacity = max(0, t.Capacity)
	t.Skill = max(1, t.Skill)
	t.RepMin, t.RepMax = min(t.RepMin, t.RepMax), max(t.RepMin, t.RepMax)
	t.ChaosTolerance = max(20, min(100, t.ChaosTolerance))
	return t
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// Member is one employee.
type Member struct {
	ID             ID      `json:"id"`
	Name           string  `json:"name"`
	Role           Role    `json:"role"`
	BaseCapacity   int     `json:"base_capacity"`
	BaseSkill      int     `json:"base_skill"`
	RepMin         int     `json:"rep_min"`
	RepMax         int     `json:"rep_max"`
	WeeklyWage     float64 `json:"weekly_wage"`
	CapacityMult   float64 `json:"capacity_mult"`
	TipRate        float64 `json:"tip_rate"`
	TipBonus       float64 `json:"tip_bonus"`
	SecurityBonus  int     `json:"security_bonus"`
	ChaosTolerance int     `json:"chaos_tolerance"`
	Morale         int     `json:"morale"`
	Level          int     `json:"level"`
	WeeksEmployed  int     `json:"weeks_employed"`
	Accrued        float64 `json:"accrued"` // Wages owed this week
}

func (m *Member) apply(t Template) {
	m.BaseCapacity = t.Capacity
	m.BaseSkill = t.Skill
	m.RepMin, m.RepMax = t.RepMin, t.RepMax
	m.WeeklyWage = t.WeeklyWage
	m.CapacityMult = t.CapacityMult
	m.TipRate = t.TipRate
	m.TipBonus = t.TipBonus
	m.SecurityBonus = t.SecurityBonus
	m.ChaosTolerance = t.ChaosTolerance
}

// ServeCapacity is how many punters the member can serve per round.
func (m *Member) ServeCapacity() int {
	return max(0, m.BaseCapacity+min(4, m.Level/4))
}

// Skill grows with level, up to six points over base.
func (m *Member) Skill() int {
	return max(1, m.BaseSkill+min(6, int(math.Floor(float64(m.Level)*0.6))))
}

// weight is the member's say in skill-weighted averages.
func (m *Member) weight() float64 {
	return 1 + float64(m.Skill())/6
}

// AccrueDailyWage adds a day's pay to what is owed.
func (m *Member) AccrueDailyWage() {
	m.Accrued += m.WeeklyWage / 7
}

// CashOut returns the accrued wages and zeroes them.
func (m *Member) CashOut() float64 {
	due := m.Accrued
	m.Accrued = 0
	return due
}

// AdjustMorale shifts morale within 0..100.
func (m *Member) AdjustMorale(delta int) {
	m.Morale = max(0, min(100, m.Morale+delta))
}

// RepRoll is the member's reputation effect for one round.
func (m *Member) RepRoll(rng *rand.Rand) int {
	if m.RepMin == m.RepMax {
		return m.RepMin
	}
	lo, hi := min(m.RepMin, m.RepMax), max(m.RepMin, m.RepMax)
	return lo + rng.IntN(hi-lo+1)
}

// Promote moves the member up a role every fourth level and rerolls their
// stats from the new role's template.
func (m *Member) Promote(rng *rand.Rand) bool {
	if m.Level == 0 || m.Level%4 != 0 {
		return false
	}
	next, ok := promotions[m.Role]
	if !ok {
		return false
	}
	m.Role = next
	m.apply(NewTemplate(next, rng))
	return true
}

func (m *Member) String() string {
	return fmt.Sprintf("#%d %s | %s | lvl %d | morale %d | wage %.2f/wk", m.ID, m.Name, m.Role, m.Level, m.Morale, m.WeeklyWage)
}
