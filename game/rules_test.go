package game

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresetRulesValidate(t *testing.T) {
	for name := range presets {
		r, err := PresetRules(name)
		require.NoError(t, err)
		assert.NoError(t, r.Validate(), name)
	}
	_, err := PresetRules("blackout")
	assert.ErrorIs(t, err, ErrInvalidRules)
}

func TestRulesValidate(t *testing.T) {
	assert.ErrorIs(t, Rules{}.Validate(), ErrInvalidRules)

	noPattern := Rules{Prizes: []Prize{{Name: "x", Share: one}}}
	assert.ErrorIs(t, noPattern.Validate(), ErrInvalidRules)

	tooMuch := Rules{Prizes: []Prize{
		{Name: "a", Patterns: AnyLine, Share: decimal.RequireFromString("0.6")},
		{Name: "b", Patterns: Set(FullHouse), Share: decimal.RequireFromString("0.6")},
	}}
	assert.ErrorIs(t, tooMuch.Validate(), ErrInvalidRules)

	zeroShare := Rules{Prizes: []Prize{{Name: "a", Patterns: AnyLine}}}
	assert.ErrorIs(t, zeroShare.Validate(), ErrInvalidRules)
}

func TestPrizeAmountFloors(t *testing.T) {
	r, err := PresetRules("line-then-house")
	require.NoError(t, err)
	assert.Equal(t, int64(29), r.PrizeAmount(99, 1))
	assert.Equal(t, int64(69), r.PrizeAmount(99, 2))
	assert.Equal(t, int64(0), r.PrizeAmount(99, 3))
}

func TestPrizeSatisfied(t *testing.T) {
	line := Prize{Name: "line", Patterns: AnyLine, Share: one}
	_, ok := line.Satisfied(Set(FourCorners))
	assert.False(t, ok)
	p, ok := line.Satisfied(Set(Row2, Col4))
	assert.True(t, ok)
	assert.Equal(t, Col4, p)

	x := Prize{Name: "x", Patterns: Diagonals, MatchAll: true, Share: one}
	_, ok = x.Satisfied(Set(Diagonal1))
	assert.False(t, ok)
	_, ok = x.Satisfied(Set(Diagonal1, Diagonal2, Row1))
	assert.True(t, ok)
}

func TestContribution(t *testing.T) {
	r := DefaultRules()
	assert.Equal(t, int64(0), r.Contribution(40))
	r.PoolContribution = decimal.RequireFromString("0.8")
	assert.Equal(t, int64(21), r.Contribution(27))
}
