package game

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Source says where purchased cards come from when no ids are given.
type Source int

const (
	// SourceGenerate mints fresh cards.
	SourceGenerate Source = iota
	// SourceSample draws existing cards from the card store.
	SourceSample
)

// PurchaseRequest buys cards for a player. Exactly one of Count, CardIDs
// or Bundle decides the card count. OperationID makes the ledger debit
// idempotent; an empty one is generated.
type PurchaseRequest struct {
	GameID      string
	PlayerID    string
	Count       int
	CardIDs     []string
	Bundle      string
	Source      Source
	OperationID string
}

// Receipt is a completed purchase.
type Receipt struct {
	GameID      string   `json:"game_id"`
	PlayerID    string   `json:"player_id"`
	OperationID string   `json:"operation_id"`
	CardIDs     []string `json:"card_ids"`
	Cards       []Card   `json:"cards"`
	Price       int64    `json:"price"`
	Discount    int      `json:"discount"`
	PrizePool   int64    `json:"prize_pool"`
	Replayed    bool     `json:"replayed,omitempty"`
}

// Purchase charges the player and attaches cards to the session. The debit
// and card lookup happen with a seat held in the lobby, outside of it; a
// commit that fails afterwards refunds the debit. Repeating a committed
// OperationID returns the original receipt, and one that was refunded is
// rejected with ErrConflict.
func (e *Engine) Purchase(ctx context.Context, req PurchaseRequest) (Receipt, error) {
	start := e.clock.Now()
	rec, err := e.purchase(ctx, req)
	e.metrics.PurchaseTime.Update(e.clock.Since(start))
	if err != nil {
		e.metrics.PurchaseFailures.Inc(1)
		return Receipt{}, err
	}
	if rec.Replayed {
		return rec, nil
	}
	e.metrics.Purchases.Inc(1)
	e.metrics.CardsSold.Inc(int64(len(rec.CardIDs)))
	e.log.Infof("[Game %s] player %s bought %d cards for %d coins", rec.GameID, rec.PlayerID, len(rec.CardIDs), rec.Price)
	return rec, nil
}

func (e *Engine) purchase(ctx context.Context, req PurchaseRequest) (Receipt, error) {
	if req.PlayerID == "" {
		return Receipt{}, fmt.Errorf("%w: player id required", ErrNotFound)
	}
	count, err := purchaseCount(req)
	if err != nil {
		return Receipt{}, err
	}
	price, err := e.prices.Price(count)
	if err != nil {
		return Receipt{}, err
	}
	discount, _ := e.prices.Discount(count)
	if req.OperationID == "" {
		req.OperationID = uuid.NewString()
	}
	op := req.OperationID
	if !e.claimOp(op) {
		return Receipt{}, fmt.Errorf("%w: purchase %s already in progress", ErrConflict, op)
	}
	release := true
	defer func() {
		if release {
			e.releaseOp(op)
		}
	}()

	// Phase one: hold a seat, unless op already bought cards here.
	var (
		l      *Lobby
		r      reservation
		used   []string
		replay *Receipt
	)
	err = e.with(ctx, req.GameID, func(lb *Lobby) error {
		if err := lb.view(ctx, func(s *Session) error {
			owner, rec := s.Purchase(op)
			if rec == nil {
				return nil
			}
			if owner != req.PlayerID {
				return fmt.Errorf("%w: operation %s belongs to another player", ErrConflict, op)
			}
			replay = lb.receipt(s, owner, rec)
			return nil
		}); err != nil || replay != nil {
			return err
		}
		res, err := lb.reserve(ctx, req.PlayerID)
		if err != nil {
			return err
		}
		l, r = lb, res
		return nil
	})
	if err != nil {
		return Receipt{}, err
	}
	if replay != nil {
		e.log.Infof("[Game %s] purchase %s replayed for %s", req.GameID, op, req.PlayerID)
		return *replay, nil
	}
	if err := l.view(ctx, func(s *Session) error {
		used = s.CardIDs()
		return nil
	}); err != nil {
		l.release(ctx, r)
		return Receipt{}, err
	}
	refunded, err := e.ledger.Applied(ctx, RefundOperationID(op))
	if err == nil && refunded {
		err = fmt.Errorf("%w: purchase %s was refunded, retry with a new operation id", ErrConflict, op)
	}
	if err != nil {
		l.release(ctx, r)
		return Receipt{}, err
	}

	// Phase two: charge and find the cards.
	entry := Entry{
		OperationID: op,
		PlayerID:    req.PlayerID,
		Amount:      price,
		Kind:        KindPurchase,
		GameID:      req.GameID,
		Description: fmt.Sprintf("Purchased %d cards for game %s", count, req.GameID),
	}
	if err := e.ledger.Debit(ctx, entry); err != nil {
		l.release(ctx, r)
		return Receipt{}, err
	}
	cards, err := e.obtainCards(ctx, req, count, used)
	if err != nil {
		l.release(ctx, r)
		release = false
		e.refund(entry, err)
		return Receipt{}, err
	}

	// Phase three: commit.
	ids := make([]string, len(cards))
	for i, c := range cards {
		ids[i] = c.ID
	}
	committed := false
	snap, err := l.do(context.WithoutCancel(ctx), func(s *Session) ([]Event, error) {
		l.releaseLocked(r)
		if _, rec := s.Purchase(op); rec != nil {
			committed = true
			return nil, fmt.Errorf("%w: purchase %s already committed", ErrConflict, op)
		}
		if err := s.CanPurchase(); err != nil {
			return nil, err
		}
		if s.Player(req.PlayerID) == nil && s.CurrentPlayers >= s.MaxPlayers {
			return nil, ErrCapacityExceeded
		}
		for _, id := range ids {
			if s.HasCard(id) {
				return nil, fmt.Errorf("%w: card %s already in game", ErrCardUnavailable, id)
			}
		}
		for _, c := range cards {
			l.cards[c.ID] = c
		}
		now := e.clock.Now().UTC()
		s.attach(req.PlayerID, cards, price, now)
		p := s.Player(req.PlayerID)
		p.Purchases = append(p.Purchases, PurchaseRecord{
			OperationID: op,
			CardIDs:     ids,
			Price:       price,
			Discount:    discount,
			At:          now,
		})
		ev := e.event(EventCardsPurchased, s)
		ev.PlayerID = req.PlayerID
		ev.CardIDs = ids
		return []Event{ev}, nil
	})
	if err != nil {
		// A commit another process made under op keeps its debit.
		if !committed {
			release = false
			e.refund(entry, err)
		}
		return Receipt{}, err
	}
	return Receipt{
		GameID:      req.GameID,
		PlayerID:    req.PlayerID,
		OperationID: op,
		CardIDs:     ids,
		Cards:       cards,
		Price:       price,
		Discount:    discount,
		PrizePool:   snap.PrizePool,
	}, nil
}

// receipt rebuilds the receipt of a committed purchase. It runs on the
// lobby goroutine.
func (l *Lobby) receipt(s *Session, playerID string, rec *PurchaseRecord) *Receipt {
	cards := make([]Card, 0, len(rec.CardIDs))
	for _, id := range rec.CardIDs {
		if c, ok := l.cards[id]; ok {
			cards = append(cards, c)
		}
	}
	return &Receipt{
		GameID:      s.ID,
		PlayerID:    playerID,
		OperationID: rec.OperationID,
		CardIDs:     append([]string(nil), rec.CardIDs...),
		Cards:       cards,
		Price:       rec.Price,
		Discount:    rec.Discount,
		PrizePool:   s.PrizePool,
		Replayed:    true,
	}
}

func purchaseCount(req PurchaseRequest) (int, error) {
	switch {
	case len(req.CardIDs) > 0:
		if req.Count != 0 && req.Count != len(req.CardIDs) {
			return 0, fmt.Errorf("%w: count %d does not match %d card ids", ErrInvalidCardCount, req.Count, len(req.CardIDs))
		}
		return len(req.CardIDs), nil
	case req.Bundle != "":
		n, ok := BundleCount(req.Bundle)
		if !ok {
			return 0, fmt.Errorf("%w: unknown bundle %q", ErrInvalidCardCount, req.Bundle)
		}
		return n, nil
	default:
		return req.Count, nil
	}
}

// obtainCards resolves the cards for a purchase. used lists cards already
// in the session, which a purchase may not take again.
func (e *Engine) obtainCards(ctx context.Context, req PurchaseRequest, count int, used []string) ([]Card, error) {
	if len(req.CardIDs) > 0 {
		taken := make(map[string]bool, len(used)+len(req.CardIDs))
		for _, id := range used {
			taken[id] = true
		}
		cards := make([]Card, 0, len(req.CardIDs))
		for _, id := range req.CardIDs {
			if taken[id] {
				return nil, fmt.Errorf("%w: card %s already taken", ErrCardUnavailable, id)
			}
			c, err := e.cards.FindByID(ctx, id)
			if errors.Is(err, ErrNotFound) {
				return nil, fmt.Errorf("%w: card %s does not exist", ErrCardUnavailable, id)
			}
			if err != nil {
				return nil, err
			}
			taken[id] = true
			cards = append(cards, c)
		}
		return cards, nil
	}
	if req.Source == SourceSample {
		return e.cards.Sample(ctx, count, used)
	}
	return e.GenerateCards(ctx, count)
}

// PriceQuote is what a purchase of Count cards costs.
type PriceQuote struct {
	Count     int   `json:"count"`
	Price     int64 `json:"price"`
	Discount  int   `json:"discount"`
	UnitPrice int64 `json:"unit_price"`
	Savings   int64 `json:"savings"`
}

// Quote prices count cards without buying them.
func (e *Engine) Quote(count int) (PriceQuote, error) {
	price, err := e.prices.Price(count)
	if err != nil {
		return PriceQuote{}, err
	}
	discount, _ := e.prices.Discount(count)
	return PriceQuote{
		Count:     count,
		Price:     price,
		Discount:  discount,
		UnitPrice: e.prices.UnitPrice,
		Savings:   e.prices.UnitPrice*int64(count) - price,
	}, nil
}

// Selection is a quick-select offer: cards sampled from the store and what
// they would cost. Nothing is reserved.
type Selection struct {
	GameID   string `json:"game_id"`
	Cards    []Card `json:"cards"`
	Price    int64  `json:"price"`
	Discount int    `json:"discount"`
}

// QuickSelect samples count existing cards not yet in the game. Count must
// be one of QuickSelectCounts.
func (e *Engine) QuickSelect(ctx context.Context, gameID string, count int) (Selection, error) {
	allowed := false
	for _, n := range QuickSelectCounts {
		allowed = allowed || n == count
	}
	if !allowed {
		return Selection{}, fmt.Errorf("%w: quick select offers %v cards", ErrInvalidCardCount, QuickSelectCounts)
	}
	s, err := e.Game(ctx, gameID)
	if err != nil {
		return Selection{}, err
	}
	if err := s.CanPurchase(); err != nil {
		return Selection{}, err
	}
	cards, err := e.cards.Sample(ctx, count, s.CardIDs())
	if err != nil {
		return Selection{}, err
	}
	price, err := e.prices.Price(count)
	if err != nil {
		return Selection{}, err
	}
	discount, _ := e.prices.Discount(count)
	return Selection{GameID: gameID, Cards: cards, Price: price, Discount: discount}, nil
}
