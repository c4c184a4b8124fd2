package game

import (
	"context"
	"time"
)

// CardStore persists generated cards.
type CardStore interface {
	Save(ctx context.Context, card Card) error
	// FindByID returns ErrNotFound for unknown ids.
	FindByID(ctx context.Context, id string) (Card, error)
	// Sample returns n distinct active cards whose ids are not in exclude,
	// or ErrCardUnavailable if the pool is too small.
	Sample(ctx context.Context, n int, exclude []string) ([]Card, error)
}

// GameStore persists session documents.
type GameStore interface {
	// Save writes s if the stored version equals s.Version (zero for a new
	// session) and then increments s.Version. A mismatch is ErrConflict.
	Save(ctx context.Context, s *Session) error
	// FindByID returns ErrNotFound for unknown ids.
	FindByID(ctx context.Context, id string) (*Session, error)
	// List returns sessions in any of statuses, or all when none is given,
	// newest first.
	List(ctx context.Context, statuses ...Status) ([]*Session, error)
}

// Entry is one ledger movement. OperationID makes Debit and Credit
// idempotent: replaying an id that already succeeded is a no-op.
type Entry struct {
	OperationID string
	PlayerID    string
	Amount      int64
	Kind        string
	GameID      string
	CardIDs     []string
	Description string
}

// Ledger entry kinds.
const (
	KindPurchase = "purchase"
	KindWin      = "win"
	KindRefund   = "refund"
	KindBonus    = "bonus"
	KindWithdraw = "withdraw"
)

// Ledger moves coins in and out of player balances.
type Ledger interface {
	// Debit fails with ErrInsufficientFunds, without side effects, when the
	// balance is below the amount.
	Debit(ctx context.Context, e Entry) error
	Credit(ctx context.Context, e Entry) error
	// Applied reports whether an entry with operationID has been applied.
	Applied(ctx context.Context, operationID string) (bool, error)
}

// Notifier delivers events to a player. It must not block.
type Notifier interface {
	Notify(playerID string, ev Event)
}

// EventType names what happened in a session.
type EventType string

const (
	EventGameCreated      EventType = "game_created"
	EventGameStarted      EventType = "game_started"
	EventStartRescheduled EventType = "start_rescheduled"
	EventCardsPurchased   EventType = "cards_purchased"
	EventNumberDrawn      EventType = "number_drawn"
	EventWinner           EventType = "winner"
	EventPrizePaid        EventType = "prize_paid"
	EventGameCompleted    EventType = "game_completed"
	EventGameCancelled    EventType = "game_cancelled"
)

// Event is published to subscribers and the notifier after a change has
// been persisted.
type Event struct {
	Type      EventType `json:"type"`
	GameID    string    `json:"game_id"`
	Status    Status    `json:"status"`
	Number    int       `json:"number,omitempty"`
	Label     string    `json:"label,omitempty"`
	DrawCount int       `json:"draw_count,omitempty"`
	PlayerID  string    `json:"player_id,omitempty"`
	CardIDs   []string  `json:"card_ids,omitempty"`
	Winner    *Winner   `json:"winner,omitempty"`
	Players   int       `json:"players"`
	PrizePool int64     `json:"prize_pool"`
	StartTime time.Time `json:"start_time,omitempty"`
	At        time.Time `json:"at"`
}

type nopNotifier struct{}

func (nopNotifier) Notify(string, Event) {}
