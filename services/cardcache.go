package services

import (
	"context"

	"github.com/bellapacxx/bingo-engine/game"
	lru "github.com/hashicorp/golang-lru"
)

// CachedCards keeps recently used cards in memory in front of a catalog.
// Cards never change once saved, so entries need no invalidation.
type CachedCards struct {
	CardCatalog
	cache *lru.Cache
}

func NewCachedCards(next CardCatalog, size int) (*CachedCards, error) {
	cache, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &CachedCards{CardCatalog: next, cache: cache}, nil
}

func (c *CachedCards) Save(ctx context.Context, card game.Card) error {
	if err := c.CardCatalog.Save(ctx, card); err != nil {
		return err
	}
	c.cache.Add(card.ID, card)
	return nil
}

func (c *CachedCards) FindByID(ctx context.Context, id string) (game.Card, error) {
	if v, ok := c.cache.Get(id); ok {
		return v.(game.Card), nil
	}
	card, err := c.CardCatalog.FindByID(ctx, id)
	if err != nil {
		return game.Card{}, err
	}
	c.cache.Add(id, card)
	return card, nil
}

// Len is the number of cached cards.
func (c *CachedCards) Len() int {
	return c.cache.Len()
}
