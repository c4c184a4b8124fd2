package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/bellapacxx/bingo-engine/game"
	"github.com/bellapacxx/bingo-engine/models"
	"github.com/benbjohnson/clock"
	"gorm.io/datatypes"
)

// MemoryCards keeps cards in process. It backs STORE=memory and the tests.
type MemoryCards struct {
	mu    sync.RWMutex
	rng   game.Rand
	cards map[string]game.Card
	order []string
}

func NewMemoryCards(rng game.Rand) *MemoryCards {
	if rng == nil {
		rng = game.NewRand(1)
	}
	return &MemoryCards{rng: rng, cards: make(map[string]game.Card)}
}

func (m *MemoryCards) Save(_ context.Context, c game.Card) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.cards[c.ID]; !ok {
		m.order = append(m.order, c.ID)
	}
	m.cards[c.ID] = c
	return nil
}

func (m *MemoryCards) FindByID(_ context.Context, id string) (game.Card, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.cards[id]
	if !ok {
		return game.Card{}, fmt.Errorf("card %s: %w", id, game.ErrNotFound)
	}
	return c, nil
}

func (m *MemoryCards) Sample(_ context.Context, n int, exclude []string) ([]game.Card, error) {
	skip := make(map[string]bool, len(exclude))
	for _, id := range exclude {
		skip[id] = true
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	free := make([]string, 0, len(m.order))
	for _, id := range m.order {
		if !skip[id] {
			free = append(free, id)
		}
	}
	if len(free) < n {
		return nil, fmt.Errorf("%w: %d cards left, %d wanted", game.ErrCardUnavailable, len(free), n)
	}
	out := make([]game.Card, 0, n)
	for i := 0; i < n; i++ {
		j := i + m.rng.Intn(len(free)-i)
		free[i], free[j] = free[j], free[i]
		out = append(out, m.cards[free[i]])
	}
	return out, nil
}

func (m *MemoryCards) List(_ context.Context, page, limit int) ([]game.Card, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	page, limit = clampPage(page, limit)
	total := int64(len(m.order))
	from := (page - 1) * limit
	if from >= len(m.order) {
		return []game.Card{}, total, nil
	}
	to := from + limit
	if to > len(m.order) {
		to = len(m.order)
	}
	out := make([]game.Card, 0, to-from)
	for _, id := range m.order[from:to] {
		out = append(out, m.cards[id])
	}
	return out, total, nil
}

// MemoryGames keeps session documents in process, with the same version
// check as the database store.
type MemoryGames struct {
	mu    sync.RWMutex
	games map[string]*game.Session
}

func NewMemoryGames() *MemoryGames {
	return &MemoryGames{games: make(map[string]*game.Session)}
}

func (m *MemoryGames) Save(_ context.Context, s *game.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var stored int64
	if cur, ok := m.games[s.ID]; ok {
		stored = cur.Version
	}
	if stored != s.Version {
		return fmt.Errorf("game %s at version %d, saving %d: %w", s.ID, stored, s.Version, game.ErrConflict)
	}
	s.Version++
	m.games[s.ID] = s.Clone()
	return nil
}

func (m *MemoryGames) FindByID(_ context.Context, id string) (*game.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.games[id]
	if !ok {
		return nil, fmt.Errorf("game %s: %w", id, game.ErrNotFound)
	}
	return s.Clone(), nil
}

func (m *MemoryGames) List(_ context.Context, statuses ...game.Status) ([]*game.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*game.Session, 0, len(m.games))
	for _, s := range m.games {
		if matchStatus(s.Status, statuses) {
			out = append(out, s.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func matchStatus(st game.Status, statuses []game.Status) bool {
	if len(statuses) == 0 {
		return true
	}
	for _, want := range statuses {
		if st == want {
			return true
		}
	}
	return false
}

// MemoryLedger holds balances and the transaction log in process.
type MemoryLedger struct {
	mu       sync.Mutex
	clock    clock.Clock
	starting int64
	users    map[string]*models.User
	ops      map[string]bool
	txs      []models.Transaction
}

// NewMemoryLedger gives every registered player starting coins.
func NewMemoryLedger(clk clock.Clock, starting int64) *MemoryLedger {
	if clk == nil {
		clk = clock.New()
	}
	return &MemoryLedger{
		clock:    clk,
		starting: starting,
		users:    make(map[string]*models.User),
		ops:      make(map[string]bool),
	}
}

func (m *MemoryLedger) Register(_ context.Context, playerID, name string) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[playerID]; ok {
		return *u, nil
	}
	now := m.clock.Now().UTC()
	u := &models.User{ID: uint(len(m.users) + 1), PlayerID: playerID, Name: name, CreatedAt: now, UpdatedAt: now}
	m.users[playerID] = u
	if m.starting > 0 {
		m.apply(u, game.Entry{
			OperationID: signupOperation(playerID),
			PlayerID:    playerID,
			Amount:      m.starting,
			Kind:        game.KindBonus,
			Description: "Starting coins",
		}, m.starting)
	}
	return *u, nil
}

func (m *MemoryLedger) User(_ context.Context, playerID string) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[playerID]
	if !ok {
		return models.User{}, fmt.Errorf("player %s: %w", playerID, game.ErrNotFound)
	}
	return *u, nil
}

func (m *MemoryLedger) Debit(_ context.Context, e game.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ops[e.OperationID] {
		return nil
	}
	u, ok := m.users[e.PlayerID]
	if !ok {
		return fmt.Errorf("player %s: %w", e.PlayerID, game.ErrNotFound)
	}
	if u.Coins < e.Amount {
		return fmt.Errorf("%w: balance %d, need %d", game.ErrInsufficientFunds, u.Coins, e.Amount)
	}
	m.apply(u, e, -e.Amount)
	return nil
}

func (m *MemoryLedger) Credit(_ context.Context, e game.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ops[e.OperationID] {
		return nil
	}
	u, ok := m.users[e.PlayerID]
	if !ok {
		return fmt.Errorf("player %s: %w", e.PlayerID, game.ErrNotFound)
	}
	m.apply(u, e, e.Amount)
	return nil
}

func (m *MemoryLedger) Applied(_ context.Context, operationID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ops[operationID], nil
}

func (m *MemoryLedger) apply(u *models.User, e game.Entry, delta int64) {
	now := m.clock.Now().UTC()
	u.Coins += delta
	u.UpdatedAt = now
	m.ops[e.OperationID] = true
	m.txs = append(m.txs, transaction(e, delta, u.Coins, now))
	m.txs[len(m.txs)-1].ID = uint(len(m.txs))
}

func (m *MemoryLedger) Transactions(_ context.Context, playerID string, limit int) ([]models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Transaction
	for i := len(m.txs) - 1; i >= 0; i-- {
		if m.txs[i].PlayerID != playerID {
			continue
		}
		out = append(out, m.txs[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// transaction builds the log row for an applied entry.
func transaction(e game.Entry, delta, balance int64, now time.Time) models.Transaction {
	var cards datatypes.JSON
	if len(e.CardIDs) > 0 {
		if b, err := json.Marshal(e.CardIDs); err == nil {
			cards = datatypes.JSON(b)
		}
	}
	return models.Transaction{
		OperationID:  e.OperationID,
		PlayerID:     e.PlayerID,
		Kind:         e.Kind,
		Amount:       delta,
		BalanceAfter: balance,
		GameID:       e.GameID,
		CardIDs:      cards,
		Description:  e.Description,
		CreatedAt:    now,
	}
}

func clampPage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}
