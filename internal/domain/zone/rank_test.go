package zone

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRanker_CapsEachSide(t *testing.T) {
	r := NewRanker(5)

	// Seven resistance zones; only the strongest five stay visible.
	var zones []*Zone
	for i := 0; i < 7; i++ {
		z := makeZone(110+float64(i), 1, 1, i, false)
		z.Strength = float64(10 * (i + 1))
		zones = append(zones, z)
	}

	result := r.Rank(zones)
	assert.Empty(t, result.Supports)
	require.Len(t, result.Resistances, 5)
	require.Len(t, result.Evicted, 2)

	assert.InDelta(t, 70, result.Resistances[0].Strength, 1e-9)
	assert.InDelta(t, 30, result.Resistances[4].Strength, 1e-9)
	assert.InDelta(t, 20, result.Evicted[0].Strength, 1e-9)
	assert.InDelta(t, 10, result.Evicted[1].Strength, 1e-9)
}

func TestRanker_OrdersByStrengthThenTouchesThenAge(t *testing.T) {
	r := NewRanker(5)

	strong := makeZone(100, 1, 2, 9, true)
	strong.Strength = 90
	moreTouches := makeZone(101, 1, 5, 9, true)
	moreTouches.Strength = 50
	fewerTouches := makeZone(102, 1, 2, 9, true)
	fewerTouches.Strength = 50
	younger := makeZone(103, 1, 2, 1, true)
	younger.Strength = 50

	result := r.Rank([]*Zone{fewerTouches, younger, moreTouches, strong})
	require.Len(t, result.Supports, 4)
	assert.Equal(t, strong.ID, result.Supports[0].ID)
	assert.Equal(t, moreTouches.ID, result.Supports[1].ID, "more touches wins the strength tie")
	assert.Equal(t, younger.ID, result.Supports[2].ID, "lower age wins the touches tie")
	assert.Equal(t, fewerTouches.ID, result.Supports[3].ID)
	assert.Empty(t, result.Evicted)
}

func TestRanker_PartitionsBySide(t *testing.T) {
	r := NewRanker(2)
	zones := []*Zone{
		makeZone(100, 1, 1, 0, true),
		makeZone(101, 1, 1, 0, false),
		makeZone(102, 1, 1, 0, true),
		makeZone(103, 1, 1, 0, false),
		makeZone(104, 1, 1, 0, true),
	}

	result := r.Rank(zones)
	assert.Len(t, result.Supports, 2)
	assert.Len(t, result.Resistances, 2)
	assert.Len(t, result.Evicted, 1)
	assert.True(t, result.Evicted[0].IsSupport, "only the over-cap support side evicts")
}
