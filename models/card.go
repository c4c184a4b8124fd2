package models

import (
	"encoding/json"
	"time"

	"github.com/bellapacxx/bingo-engine/game"
	"gorm.io/datatypes"
)

// Card is a stored bingo card. Grid holds the 5x5 numbers row by row with
// 0 in the free center.
type Card struct {
	ID        string         `gorm:"primaryKey;size:64" json:"id"`
	Grid      datatypes.JSON `json:"grid"`
	Theme     string         `gorm:"size:32" json:"theme"`
	Active    bool           `gorm:"index;default:true" json:"active"`
	CreatedAt time.Time      `json:"created_at"`
}

// NewCard converts an engine card for storage.
func NewCard(c game.Card) (Card, error) {
	grid, err := json.Marshal(c.Grid)
	if err != nil {
		return Card{}, err
	}
	return Card{ID: c.ID, Grid: datatypes.JSON(grid), Theme: c.Theme, Active: true, CreatedAt: c.CreatedAt}, nil
}

// Game converts the row back and checks the grid is a valid card.
func (c Card) Game() (game.Card, error) {
	out := game.Card{ID: c.ID, Theme: c.Theme, CreatedAt: c.CreatedAt}
	if err := json.Unmarshal(c.Grid, &out.Grid); err != nil {
		return game.Card{}, err
	}
	if err := out.Validate(); err != nil {
		return game.Card{}, err
	}
	return out, nil
}
