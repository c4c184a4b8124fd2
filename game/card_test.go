package game

import (
	"testing"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testCard has the lowest five numbers of every column, top to bottom.
func testCard() Card {
	c := Card{ID: "fixed", Theme: "classic"}
	for col := 0; col < Size; col++ {
		lo, _ := ColumnRange(col)
		for r := 0; r < Size; r++ {
			c.Grid[r][col] = lo + r
		}
	}
	c.Grid[center][center] = Free
	return c
}

func TestGenerateCardInvariants(t *testing.T) {
	gen := NewGenerator(NewRand(42), clock.NewMock())
	ids := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		c := gen.Generate()
		require.NoError(t, c.Validate())
		assert.Equal(t, Free, c.Grid[2][2])
		assert.Len(t, c.Numbers(), 24)
		assert.Contains(t, Themes, c.Theme)

		seen := make(map[int]bool)
		for _, n := range c.Numbers() {
			assert.False(t, seen[n], "card %s repeats %d", c.ID, n)
			seen[n] = true
		}
		assert.False(t, ids[c.ID])
		ids[c.ID] = true
	}
}

func TestGenerateCoversColumnRanges(t *testing.T) {
	gen := NewGenerator(NewRand(7), nil)
	hits := make(map[int]bool)
	for i := 0; i < 500; i++ {
		for _, n := range gen.Generate().Numbers() {
			hits[n] = true
		}
	}
	// 500 cards are plenty to see every number at least once.
	assert.Len(t, hits, MaxNumber)
}

func TestValidateRejectsBadCards(t *testing.T) {
	require.NoError(t, testCard().Validate())

	c := testCard()
	c.Grid[2][2] = 33
	assert.Error(t, c.Validate(), "center must be free")

	c = testCard()
	c.Grid[0][0] = Free
	assert.Error(t, c.Validate(), "only the center is free")

	c = testCard()
	c.Grid[1][0] = c.Grid[0][0]
	assert.Error(t, c.Validate(), "column repeats")

	c = testCard()
	c.Grid[0][1] = 3
	assert.Error(t, c.Validate(), "number outside column range")
}

func TestLabelAndContains(t *testing.T) {
	assert.Equal(t, "B-7", Label(7))
	assert.Equal(t, "I-16", Label(16))
	assert.Equal(t, "N-45", Label(45))
	assert.Equal(t, "O-75", Label(75))

	c := testCard()
	assert.True(t, c.Contains(1))
	assert.True(t, c.Contains(65))
	assert.False(t, c.Contains(33), "center is free")
	assert.False(t, c.Contains(0))
	assert.False(t, c.Contains(76))
}
