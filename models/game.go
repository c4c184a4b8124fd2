package models

import (
	"encoding/json"
	"time"

	"github.com/bellapacxx/bingo-engine/game"
	"gorm.io/datatypes"
)

// Game is a stored session. The full session lives in Document; the
// other columns are copies kept for filtering and the version check.
type Game struct {
	ID        string         `gorm:"primaryKey;size:64"`
	Name      string         `gorm:"size:128"`
	Status    string         `gorm:"index;size:16"`
	StartTime time.Time      `gorm:"index"`
	Document  datatypes.JSON // game.Session as JSON
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewGame converts a session for storage.
func NewGame(s *game.Session) (Game, error) {
	doc, err := json.Marshal(s)
	if err != nil {
		return Game{}, err
	}
	return Game{
		ID:        s.ID,
		Name:      s.Name,
		Status:    string(s.Status),
		StartTime: s.StartTime,
		Document:  datatypes.JSON(doc),
		Version:   s.Version,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}, nil
}

// Session decodes the stored document.
func (g Game) Session() (*game.Session, error) {
	var s game.Session
	if err := json.Unmarshal(g.Document, &s); err != nil {
		return nil, err
	}
	s.Version = g.Version
	return &s, nil
}
