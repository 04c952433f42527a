package chaos

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRaw_SumsPressure(t *testing.T) {
	s := Signals{
		PunterSum:         5,
		Unserved:          2,
		Fights:            1,
		Refunds:           2,
		Events:            1,
		TeamMorale:        48,
		WeeklyRepDeltaAbs: 20,
		BarCount:          19,
		MaxOccupancy:      20,
		ActivityRunning:   true,
		ActivityRisk:      0.1,
		BetweenNight:      1.5,
	}
	want := 5 + 2.4 + 4 + 3 + 2 + 3 + 2 + 1.2 + 3.8 + 1.5
	assert.InDelta(t, want, Raw(s), 1e-9)
}

func TestRaw_QuietRoomIsCalm(t *testing.T) {
	assert.InDelta(t, 0, Raw(Signals{TeamMorale: 70, MaxOccupancy: 10, BarCount: 3}), 1e-9)
	assert.InDelta(t, 10, Break(Signals{TeamMorale: 70, WeeklyRepDeltaAbs: 500}).RepSwing, 1e-9)
}

func TestBlend_Clamped(t *testing.T) {
	assert.InDelta(t, 0.35*20+0.65*40, Blend(20, 40), 1e-9)
	assert.Equal(t, 100.0, Blend(100, 400))
	assert.Equal(t, 0.0, Blend(0, -30))
}

func TestDecay(t *testing.T) {
	assert.InDelta(t, 1.0, Decay(2.5), 1e-9)
	assert.Zero(t, Decay(1))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		in   Counters
		want Classification
	}{
		{"clean", Counters{}, MostlyPositive},
		{"one unserved", Counters{Unserved: 1}, MostlyPositive},
		{"a few unserved", Counters{Unserved: 2}, Neutral},
		{"one food miss", Counters{FoodMisses: 1}, Neutral},
		{"crowd left waiting", Counters{Unserved: 4}, StronglyNegative},
		{"fight", Counters{Fights: 1}, StronglyNegative},
		{"refund", Counters{Refunds: 1}, StronglyNegative},
		{"incident", Counters{Events: 1}, StronglyNegative},
		{"kitchen fell over", Counters{FoodMisses: 2}, StronglyNegative},
		{"staff incident", Counters{StaffIncident: true}, StronglyNegative},
		{"happy hour cheat", Counters{HappyHourCheat: true}, StronglyNegative},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.in))
			assert.Equal(t, tt.want, Classify(tt.in), "same counters, same class")
		})
	}
}

func TestStreak_NegativeRamp(t *testing.T) {
	var s Streak
	assert.InDelta(t, 3+3*0.55, s.Apply(StronglyNegative), 1e-9)
	assert.InDelta(t, 3+3*2*0.55, s.Apply(StronglyNegative), 1e-9)
	assert.Equal(t, 2, s.Negative)

	assert.InDelta(t, -4-4*0.65, s.Apply(MostlyPositive), 1e-9)
	assert.Zero(t, s.Negative)
	assert.Equal(t, 1, s.Positive)

	assert.Zero(t, s.Apply(Neutral))
	assert.Zero(t, s.Positive)
	assert.Equal(t, Neutral, s.Last)
}

func TestStreak_StepClamps(t *testing.T) {
	var s Streak
	assert.Equal(t, 0.0, s.Step(2, MostlyPositive))
	s.Reset()
	for range 10 {
		s.Step(99, StronglyNegative)
	}
	require.Equal(t, 10, s.Negative)
	assert.Equal(t, 100.0, s.Step(99, StronglyNegative))
}

func TestNightDecay(t *testing.T) {
	assert.Equal(t, 2.0, NightDecay(0, 6))
	assert.Equal(t, 1.0, NightDecay(1, 0))
	assert.Equal(t, 1.0, NightDecay(0, 7))
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "Calm", Label(15))
	assert.Equal(t, "Volatile", Label(31))
	assert.Equal(t, "Explosive", Label(71))
}
