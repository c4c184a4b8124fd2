package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/bellapacxx/bingo-engine/game"
	"github.com/benbjohnson/clock"
)

// LoadCards reads cards in the cards.json format from path and saves them.
func LoadCards(ctx context.Context, path string, store game.CardStore, clk clock.Clock) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return ImportCards(ctx, f, store, clk)
}

// ImportCards validates every card before saving any of them, so a bad
// file leaves the store untouched.
func ImportCards(ctx context.Context, r io.Reader, store game.CardStore, clk clock.Clock) (int, error) {
	if clk == nil {
		clk = clock.New()
	}
	var raw []BingoCard
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return 0, fmt.Errorf("decode cards: %w", err)
	}
	seen := make(map[int]bool, len(raw))
	cards := make([]game.Card, 0, len(raw))
	for _, b := range raw {
		if seen[b.CardID] {
			return 0, fmt.Errorf("card %d appears twice", b.CardID)
		}
		seen[b.CardID] = true
		c, err := b.Card()
		if err != nil {
			return 0, err
		}
		c.CreatedAt = clk.Now().UTC()
		cards = append(cards, c)
	}
	for i, c := range cards {
		if err := store.Save(ctx, c); err != nil {
			return i, fmt.Errorf("save card %s: %w", c.ID, err)
		}
	}
	return len(cards), nil
}
