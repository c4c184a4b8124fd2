package models

import (
	"time"

	"gorm.io/datatypes"
)

// Transaction is one ledger movement. Amount is signed: debits are
// negative. OperationID is unique, which is what makes replays no-ops.
type Transaction struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	OperationID  string         `gorm:"uniqueIndex;size:128" json:"operation_id"`
	PlayerID     string         `gorm:"index;size:64" json:"player_id"`
	Kind         string         `gorm:"size:16" json:"kind"`
	Amount       int64          `json:"amount"`
	BalanceAfter int64          `json:"balance_after"`
	GameID       string         `gorm:"index;size:64" json:"game_id,omitempty"`
	CardIDs      datatypes.JSON `json:"card_ids,omitempty"`
	Description  string         `json:"description"`
	CreatedAt    time.Time      `json:"created_at"`
}
