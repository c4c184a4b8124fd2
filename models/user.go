package models

import "time"

// User is a player account. Coins is the spendable balance.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PlayerID  string    `gorm:"uniqueIndex;size:64" json:"player_id"`
	Name      string    `json:"name"`
	Coins     int64     `gorm:"not null;default:0" json:"coins"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
