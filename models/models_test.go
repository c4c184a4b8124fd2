package models

import (
	"testing"
	"time"

	"github.com/bellapacxx/bingo-engine/game"
	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestCardRow(t *testing.T) {
	c := game.NewGenerator(game.NewRand(4), clock.NewMock()).Generate()
	row, err := NewCard(c)
	require.NoError(t, err)
	assert.True(t, row.Active)

	back, err := row.Game()
	require.NoError(t, err)
	assert.Equal(t, c, back)

	row.Grid = datatypes.JSON(`[[1,2,3,4,5],[1,2,3,4,5],[1,2,0,4,5],[1,2,3,4,5],[1,2,3,4,5]]`)
	_, err = row.Game()
	assert.Error(t, err)
}

func TestGameRow(t *testing.T) {
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	s := &game.Session{
		ID:        "g1",
		Name:      "Friday",
		Status:    game.StatusActive,
		Drawn:     []int{7, 42},
		Rules:     game.DefaultRules(),
		StartTime: now,
		Version:   3,
		CreatedAt: now,
		UpdatedAt: now,
	}
	row, err := NewGame(s)
	require.NoError(t, err)
	assert.Equal(t, "active", row.Status)
	assert.Equal(t, int64(3), row.Version)

	// The column wins over whatever the document says.
	row.Version = 4
	back, err := row.Session()
	require.NoError(t, err)
	assert.Equal(t, int64(4), back.Version)
	assert.Equal(t, []int{7, 42}, back.Drawn)
	assert.Equal(t, game.FullHouse, back.Rules.Prizes[0].Patterns.Kinds()[0])
}
