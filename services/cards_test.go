package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bellapacxx/bingo-engine/game"
	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cardsJSON = `[
  {"card_id": 1, "B": [1, 2, 3, 4, 5], "I": [16, 17, 18, 19, 20], "N": [31, 32, 0, 34, 35], "G": [46, 47, 48, 49, 50], "O": [61, 62, 63, 64, 65]},
  {"card_id": 2, "B": [15, 14, 13, 12, 11], "I": [30, 29, 28, 27, 26], "N": [45, 44, 43, 42], "G": [60, 59, 58, 57, 56], "O": [75, 74, 73, 72, 71]}
]`

func TestImportCards(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryCards(nil)
	n, err := ImportCards(ctx, strings.NewReader(cardsJSON), store, clock.NewMock())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	one, err := store.FindByID(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, [game.Size]int{31, 32, game.Free, 34, 35}, columnOf(one, 2))

	two, err := store.FindByID(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, [game.Size]int{45, 44, game.Free, 43, 42}, columnOf(two, 2))
	assert.True(t, two.Contains(75))
}

func TestImportCardsRejectsWholeFile(t *testing.T) {
	cases := map[string]string{
		"not json":     `{"card_id": 1}`,
		"out of range": `[{"card_id": 1, "B": [1, 2, 3, 4, 16], "I": [16, 17, 18, 19, 20], "N": [31, 32, 0, 34, 35], "G": [46, 47, 48, 49, 50], "O": [61, 62, 63, 64, 65]}]`,
		"short column": `[{"card_id": 1, "B": [1, 2, 3], "I": [16, 17, 18, 19, 20], "N": [31, 32, 0, 34, 35], "G": [46, 47, 48, 49, 50], "O": [61, 62, 63, 64, 65]}]`,
		"no free":      `[{"card_id": 1, "B": [1, 2, 3, 4, 5], "I": [16, 17, 18, 19, 20], "N": [31, 32, 33, 34, 35], "G": [46, 47, 48, 49, 50], "O": [61, 62, 63, 64, 65]}]`,
		"duplicate":    strings.Replace(cardsJSON, `"card_id": 2`, `"card_id": 1`, 1),
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			store := NewMemoryCards(nil)
			_, err := ImportCards(context.Background(), strings.NewReader(doc), store, nil)
			assert.Error(t, err)
			_, total, _ := store.List(context.Background(), 1, 10)
			assert.Zero(t, total)
		})
	}
}

func TestLoadCardsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cards.json")
	require.NoError(t, os.WriteFile(path, []byte(cardsJSON), 0o600))
	store := NewMemoryCards(nil)
	n, err := LoadCards(context.Background(), path, store, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = LoadCards(context.Background(), filepath.Join(t.TempDir(), "none.json"), store, nil)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestColumnsOfRoundTrips(t *testing.T) {
	c := generated(t, 1)[0]
	c.ID = "77"
	back, err := ColumnsOf(c).Card()
	require.NoError(t, err)
	assert.Equal(t, c.Grid, back.Grid)
	assert.Equal(t, "77", back.ID)
	assert.Equal(t, 0, ColumnsOf(game.Card{ID: "abc"}).CardID)
}

func columnOf(c game.Card, col int) [game.Size]int {
	var out [game.Size]int
	for r := 0; r < game.Size; r++ {
		out[r] = c.Grid[r][col]
	}
	return out
}

type countingCards struct {
	*MemoryCards
	finds int
}

func (c *countingCards) FindByID(ctx context.Context, id string) (game.Card, error) {
	c.finds++
	return c.MemoryCards.FindByID(ctx, id)
}

func TestCachedCards(t *testing.T) {
	ctx := context.Background()
	backing := &countingCards{MemoryCards: NewMemoryCards(nil)}
	cards := generated(t, 3)
	for _, c := range cards[:2] {
		require.NoError(t, backing.Save(ctx, c))
	}
	cache, err := NewCachedCards(backing, 2)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		got, err := cache.FindByID(ctx, cards[0].ID)
		require.NoError(t, err)
		assert.Equal(t, cards[0].ID, got.ID)
	}
	assert.Equal(t, 1, backing.finds)

	require.NoError(t, cache.Save(ctx, cards[2]))
	_, err = cache.FindByID(ctx, cards[2].ID)
	require.NoError(t, err)
	assert.Equal(t, 1, backing.finds, "saved cards are cached")
	assert.Equal(t, 2, cache.Len())

	_, err = cache.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, game.ErrNotFound)
	assert.Equal(t, 2, cache.Len())

	_, total, err := cache.List(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)

	_, err = NewCachedCards(backing, 0)
	assert.Error(t, err)
}
