package services

import (
	"context"

	"github.com/bellapacxx/bingo-engine/game"
	"github.com/bellapacxx/bingo-engine/models"
)

// Accounts is a ledger that also knows the players it holds balances for.
type Accounts interface {
	game.Ledger
	// Register creates the player with the starting balance, or returns
	// the existing account unchanged.
	Register(ctx context.Context, playerID, name string) (models.User, error)
	User(ctx context.Context, playerID string) (models.User, error)
	// Transactions lists the player's movements, newest first.
	Transactions(ctx context.Context, playerID string, limit int) ([]models.Transaction, error)
}

// CardCatalog is a card store that can be browsed page by page.
type CardCatalog interface {
	game.CardStore
	// List returns page (1-based) of limit cards, oldest first, and the
	// total number of active cards.
	List(ctx context.Context, page, limit int) ([]game.Card, int64, error)
}

func signupOperation(playerID string) string {
	return "signup:" + playerID
}
