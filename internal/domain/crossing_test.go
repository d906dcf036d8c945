package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func level(v float64) *float64 { return &v }

var metreLadder = ThresholdSet{1.0, 2.0, 3.0}

func TestEvaluate_Quiet(t *testing.T) {
	next, crossings := Evaluate(level(0.4), metreLadder, LevelNone, 0)
	assert.Equal(t, LevelNone, next)
	assert.Empty(t, crossings)
}

func TestEvaluate_SingleCrossing(t *testing.T) {
	next, crossings := Evaluate(level(1.3), metreLadder, LevelNone, 0)
	assert.Equal(t, Level1, next)
	require.Len(t, crossings, 1)
	assert.Equal(t, Crossing{Level: Level1, Threshold: 1.0}, crossings[0])
}

func TestEvaluate_ExactThresholdCounts(t *testing.T) {
	next, crossings := Evaluate(level(2.0), metreLadder, Level1, 0)
	assert.Equal(t, Level2, next)
	require.Len(t, crossings, 1)
	assert.Equal(t, Level2, crossings[0].Level)
}

func TestEvaluate_JumpToTop(t *testing.T) {
	tests := []struct {
		name string
		prev AlertLevel
		want []Crossing
	}{
		{"from baseline", LevelNone, []Crossing{
			{Level: Level1, Threshold: 1.0},
			{Level: Level2, Threshold: 2.0},
			{Level: Level3, Threshold: 3.0},
		}},
		{"from level 1", Level1, []Crossing{
			{Level: Level2, Threshold: 2.0},
			{Level: Level3, Threshold: 3.0},
		}},
		{"from level 2", Level2, []Crossing{
			{Level: Level3, Threshold: 3.0},
		}},
		{"already at top", Level3, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, crossings := Evaluate(level(3.6), metreLadder, tt.prev, 0)
			assert.Equal(t, Level3, next)
			assert.Equal(t, tt.want, crossings)
		})
	}
}

func TestEvaluate_AbsentReadingIsNoOp(t *testing.T) {
	for _, prev := range []AlertLevel{LevelNone, Level1, Level2, Level3} {
		next, crossings := Evaluate(nil, metreLadder, prev, 0.05)
		assert.Equal(t, prev, next)
		assert.Empty(t, crossings)
	}
}

func TestEvaluate_HysteresisHoldsLevel(t *testing.T) {
	tests := []struct {
		name    string
		reading float64
		want    AlertLevel
	}{
		{"well below the margin", 2.90, Level2},
		{"exactly at threshold minus margin", 2.95, Level3},
		{"inside the margin", 2.96, Level3},
		{"just under threshold", 2.97, Level3},
		{"at threshold", 3.0, Level3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, crossings := Evaluate(level(tt.reading), metreLadder, Level3, 0.05)
			assert.Equal(t, tt.want, next)
			assert.Empty(t, crossings, "rearming is silent")
		})
	}
}

func TestEvaluate_HysteresisNeverShiftsRaises(t *testing.T) {
	// 1.97 is within the margin of T2 but has not met it; no raise.
	next, crossings := Evaluate(level(1.97), metreLadder, Level1, 0.05)
	assert.Equal(t, Level1, next)
	assert.Empty(t, crossings)
}

func TestEvaluate_CascadingRearm(t *testing.T) {
	next, crossings := Evaluate(level(0.5), metreLadder, Level3, 0)
	assert.Equal(t, LevelNone, next)
	assert.Empty(t, crossings)
}

func TestEvaluate_RearmStopsMidLadder(t *testing.T) {
	// 2.5 is below T3 but still at or above T2: one step down, no further.
	next, crossings := Evaluate(level(2.5), metreLadder, Level3, 0)
	assert.Equal(t, Level2, next)
	assert.Empty(t, crossings)
}

func TestEvaluate_ReRaiseAfterRearm(t *testing.T) {
	// Cycle 1: the river drops from a full alert to nothing.
	next, crossings := Evaluate(level(0.5), metreLadder, Level3, 0)
	require.Equal(t, LevelNone, next)
	require.Empty(t, crossings)

	// Cycle 2: it rises again; levels 1 and 2 must alert afresh.
	next, crossings = Evaluate(level(2.5), metreLadder, next, 0)
	assert.Equal(t, Level2, next)
	assert.Equal(t, []Crossing{
		{Level: Level1, Threshold: 1.0},
		{Level: Level2, Threshold: 2.0},
	}, crossings)
}

func TestEvaluate_RepeatReadingIsIdempotent(t *testing.T) {
	next, crossings := Evaluate(level(2.2), metreLadder, LevelNone, 0.05)
	require.Equal(t, Level2, next)
	require.Len(t, crossings, 2)

	next, crossings = Evaluate(level(2.2), metreLadder, next, 0.05)
	assert.Equal(t, Level2, next)
	assert.Empty(t, crossings, "unchanged reading must not re-alert")
}

func TestEvaluate_EqualThresholds(t *testing.T) {
	// A degenerate ladder where two levels share a threshold: one reading
	// crosses both at once.
	flat := ThresholdSet{1.0, 1.0, 3.0}
	next, crossings := Evaluate(level(1.0), flat, LevelNone, 0)
	assert.Equal(t, Level2, next)
	assert.Equal(t, []Crossing{
		{Level: Level1, Threshold: 1.0},
		{Level: Level2, Threshold: 1.0},
	}, crossings)
}

func TestEvaluate_RearmAndRaiseSameReading(t *testing.T) {
	// From level 3, a reading between T1 and T2 rearms down to 1 silently;
	// the raise pass finds nothing new above it.
	next, crossings := Evaluate(level(1.5), metreLadder, Level3, 0.05)
	assert.Equal(t, Level1, next)
	assert.Empty(t, crossings)
}
