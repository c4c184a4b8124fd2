package game

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Options are the collaborators an Engine is built from. Cards, Games and
// Ledger are required.
type Options struct {
	Cards    CardStore
	Games    GameStore
	Ledger   Ledger
	Notifier Notifier
	Clock    clock.Clock
	// Rand seeds card generation and draws. Nil uses a crypto seed.
	Rand    Rand
	Prices  *PriceTable
	Logger  *zap.SugaredLogger
	Metrics *Metrics

	PayoutAttempts int
	PayoutBackoff  time.Duration
}

// Engine runs bingo sessions. Each loaded session gets its own Lobby
// goroutine; separate sessions share nothing but the stores.
type Engine struct {
	cards    CardStore
	games    GameStore
	ledger   Ledger
	notifier Notifier
	clock    clock.Clock
	gen      *Generator
	seq      *Sequencer
	prices   PriceTable
	log      *zap.SugaredLogger
	metrics  *Metrics

	payoutAttempts int
	payoutBackoff  time.Duration

	mu      sync.Mutex
	lobbies map[string]*Lobby
	subs    map[string]map[chan Event]struct{}
	ops     map[string]struct{}
	closing bool
	closed  bool
	payouts sync.WaitGroup
}

// New builds an engine.
func New(opts Options) (*Engine, error) {
	if opts.Cards == nil || opts.Games == nil || opts.Ledger == nil {
		return nil, errors.New("engine: card store, game store and ledger are required")
	}
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.Rand == nil {
		seed, err := NewSeed()
		if err != nil {
			return nil, err
		}
		opts.Rand = NewRand(seed)
	}
	prices := DefaultPriceTable()
	if opts.Prices != nil {
		prices = *opts.Prices
	}
	if err := prices.Validate(); err != nil {
		return nil, err
	}
	if opts.Notifier == nil {
		opts.Notifier = nopNotifier{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}
	if opts.Metrics == nil {
		opts.Metrics = NewMetrics(nil)
	}
	if opts.PayoutAttempts < 1 {
		opts.PayoutAttempts = 5
	}
	if opts.PayoutBackoff <= 0 {
		opts.PayoutBackoff = time.Second
	}
	return &Engine{
		cards:          opts.Cards,
		games:          opts.Games,
		ledger:         opts.Ledger,
		notifier:       opts.Notifier,
		clock:          opts.Clock,
		gen:            NewGenerator(opts.Rand, opts.Clock),
		seq:            NewSequencer(opts.Rand),
		prices:         prices,
		log:            opts.Logger,
		metrics:        opts.Metrics,
		payoutAttempts: opts.PayoutAttempts,
		payoutBackoff:  opts.PayoutBackoff,
		lobbies:        make(map[string]*Lobby),
		subs:           make(map[string]map[chan Event]struct{}),
		ops:            make(map[string]struct{}),
	}, nil
}

// Prices is the table purchases are charged from.
func (e *Engine) Prices() PriceTable { return e.prices }

// Metrics exposes the engine counters.
func (e *Engine) Metrics() *Metrics { return e.metrics }

// GameSpec describes a new session. Zero fields take the defaults: 100
// players, entry fee 10, a pool of 80% of fee times players, start in one
// hour and the classic full-house rules.
type GameSpec struct {
	ID         string
	Name       string
	EntryFee   int64
	MaxPlayers int
	PrizePool  int64
	StartTime  time.Time
	Rules      *Rules
}

// CreateGame persists a new waiting session.
func (e *Engine) CreateGame(ctx context.Context, spec GameSpec) (*Session, error) {
	now := e.clock.Now().UTC()
	if spec.MaxPlayers < 0 || spec.EntryFee < 0 || spec.PrizePool < 0 {
		return nil, fmt.Errorf("%w: negative game settings", ErrInvalidRules)
	}
	if spec.ID == "" {
		spec.ID = uuid.NewString()
	}
	if spec.Name == "" {
		spec.Name = "BINGO Game " + now.Format("2006-01-02")
	}
	if spec.MaxPlayers == 0 {
		spec.MaxPlayers = 100
	}
	if spec.EntryFee == 0 {
		spec.EntryFee = 10
	}
	if spec.PrizePool == 0 {
		spec.PrizePool = spec.EntryFee * int64(spec.MaxPlayers) * 8 / 10
	}
	if spec.StartTime.IsZero() {
		spec.StartTime = now.Add(time.Hour)
	}
	rules := DefaultRules()
	if spec.Rules != nil {
		rules = *spec.Rules
	}
	if err := rules.Validate(); err != nil {
		return nil, err
	}

	s := &Session{
		ID:         spec.ID,
		Name:       spec.Name,
		Status:     StatusWaiting,
		EntryFee:   spec.EntryFee,
		MaxPlayers: spec.MaxPlayers,
		PrizePool:  spec.PrizePool,
		Drawn:      []int{},
		Calls:      []Call{},
		Players:    []Player{},
		Winners:    []Winner{},
		Rules:      rules,
		StartTime:  spec.StartTime.UTC(),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := e.games.Save(ctx, s); err != nil {
		return nil, fmt.Errorf("save game: %w", err)
	}
	e.log.Infof("[Game %s] created %q: max %d players, pool %d", s.ID, s.Name, s.MaxPlayers, s.PrizePool)
	snap := s.Clone()
	e.publish(snap, []Event{e.event(EventGameCreated, snap)})
	return snap, nil
}

// Game returns a snapshot of the session.
func (e *Engine) Game(ctx context.Context, id string) (*Session, error) {
	e.mu.Lock()
	l := e.lobbies[id]
	e.mu.Unlock()
	if l != nil {
		var snap *Session
		err := l.view(ctx, func(s *Session) error {
			snap = s.Clone()
			return nil
		})
		if err == nil {
			return snap, nil
		}
		if !errors.Is(err, errRetired) {
			return nil, err
		}
	}
	return e.games.FindByID(ctx, id)
}

// List returns persisted sessions filtered by status.
func (e *Engine) List(ctx context.Context, statuses ...Status) ([]*Session, error) {
	return e.games.List(ctx, statuses...)
}

// Start moves a waiting session to active.
func (e *Engine) Start(ctx context.Context, id string) (*Session, error) {
	var snap *Session
	err := e.with(ctx, id, func(l *Lobby) (err error) {
		snap, err = l.do(ctx, func(s *Session) ([]Event, error) {
			if err := s.Start(e.clock.Now().UTC()); err != nil {
				return nil, err
			}
			return []Event{e.event(EventGameStarted, s)}, nil
		})
		return err
	})
	if err == nil {
		e.log.Infof("[Game %s] started with %d players", id, snap.CurrentPlayers)
	}
	return snap, err
}

// Cancel stops a waiting or active session for good.
func (e *Engine) Cancel(ctx context.Context, id string) (*Session, error) {
	var snap *Session
	err := e.with(ctx, id, func(l *Lobby) (err error) {
		snap, err = l.do(ctx, func(s *Session) ([]Event, error) {
			if err := s.Cancel(e.clock.Now().UTC()); err != nil {
				return nil, err
			}
			return []Event{e.event(EventGameCancelled, s)}, nil
		})
		return err
	})
	if err == nil {
		e.log.Infof("[Game %s] cancelled after %d draws", id, len(snap.Drawn))
	}
	return snap, err
}

// Reschedule moves the start time of a waiting session.
func (e *Engine) Reschedule(ctx context.Context, id string, start time.Time) (*Session, error) {
	var snap *Session
	err := e.with(ctx, id, func(l *Lobby) (err error) {
		snap, err = l.do(ctx, func(s *Session) ([]Event, error) {
			if s.Status != StatusWaiting {
				return nil, fmt.Errorf("%w: cannot reschedule %s game", ErrInvalidTransition, s.Status)
			}
			s.StartTime = start.UTC()
			return []Event{e.event(EventStartRescheduled, s)}, nil
		})
		return err
	})
	return snap, err
}

// DrawResult is the outcome of one draw.
type DrawResult struct {
	Number    int      `json:"number"`
	Label     string   `json:"label"`
	DrawCount int      `json:"draw_count"`
	Winners   []Winner `json:"winners"`
	Status    Status   `json:"status"`
}

// Draw reveals the next number, starting a waiting session first, and
// records any winners it produces. by names the caller for the call log.
func (e *Engine) Draw(ctx context.Context, id, by string) (DrawResult, error) {
	var res DrawResult
	err := e.with(ctx, id, func(l *Lobby) error {
		_, err := l.do(ctx, func(s *Session) ([]Event, error) {
			now := e.clock.Now().UTC()
			var events []Event
			if s.Status == StatusWaiting {
				if err := s.Start(now); err != nil {
					return nil, err
				}
				events = append(events, e.event(EventGameStarted, s))
			}
			n, err := e.seq.DrawNext(s)
			if err != nil {
				return nil, err
			}
			winners := s.record(n, by, now, l.cards)

			drawn := e.event(EventNumberDrawn, s)
			drawn.Number = n
			drawn.Label = Label(n)
			events = append(events, drawn)
			for i := range winners {
				ev := e.event(EventWinner, s)
				w := winners[i]
				ev.Winner = &w
				ev.PlayerID = w.PlayerID
				events = append(events, ev)
			}
			if s.Status == StatusCompleted {
				events = append(events, e.event(EventGameCompleted, s))
			}
			res = DrawResult{Number: n, Label: Label(n), DrawCount: len(s.Drawn), Winners: winners, Status: s.Status}
			return events, nil
		})
		return err
	})
	if err != nil {
		return DrawResult{}, err
	}

	e.metrics.Draws.Inc(1)
	e.log.Debugf("[Game %s] drew %s (%d/%d)", id, res.Label, res.DrawCount, MaxNumber)
	for _, w := range res.Winners {
		e.metrics.Winners.Inc(1)
		e.log.Infof("[Game %s] player %s wins position %d with %s on card %s: %d coins",
			id, w.PlayerID, w.Position, w.Pattern, w.CardID, w.Prize)
		e.schedulePayout(id, w)
	}
	if res.Status == StatusCompleted {
		e.log.Infof("[Game %s] completed after %d draws", id, res.DrawCount)
	}
	return res, nil
}

// GenerateCards adds n fresh cards to the card store.
func (e *Engine) GenerateCards(ctx context.Context, n int) ([]Card, error) {
	cards := make([]Card, 0, n)
	for i := 0; i < n; i++ {
		c := e.gen.Generate()
		if err := e.cards.Save(ctx, c); err != nil {
			return cards, fmt.Errorf("save card: %w", err)
		}
		cards = append(cards, c)
	}
	return cards, nil
}

// Subscribe streams the events of one session. Slow subscribers miss
// events rather than holding the session up. Call cancel when done.
func (e *Engine) Subscribe(gameID string) (<-chan Event, func()) {
	ch := make(chan Event, 32)
	e.mu.Lock()
	group := e.subs[gameID]
	if group == nil {
		group = make(map[chan Event]struct{})
		e.subs[gameID] = group
	}
	group[ch] = struct{}{}
	e.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			e.mu.Lock()
			defer e.mu.Unlock()
			delete(e.subs[gameID], ch)
			if len(e.subs[gameID]) == 0 {
				delete(e.subs, gameID)
			}
			close(ch)
		})
	}
}

// Close waits for pending payouts and refunds and stops every lobby. No
// new background credit starts once it has begun.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closing {
		e.mu.Unlock()
		return nil
	}
	e.closing = true
	e.mu.Unlock()

	e.payouts.Wait()

	e.mu.Lock()
	e.closed = true
	lobbies := make([]*Lobby, 0, len(e.lobbies))
	for _, l := range e.lobbies {
		lobbies = append(lobbies, l)
	}
	e.lobbies = make(map[string]*Lobby)
	e.mu.Unlock()

	for _, l := range lobbies {
		close(l.stop)
		<-l.done
	}
	e.metrics.Lobbies.Update(0)
	return nil
}

func (e *Engine) event(t EventType, s *Session) Event {
	return Event{
		Type:      t,
		GameID:    s.ID,
		Status:    s.Status,
		DrawCount: len(s.Drawn),
		Players:   s.CurrentPlayers,
		PrizePool: s.PrizePool,
		StartTime: s.StartTime,
		At:        e.clock.Now().UTC(),
	}
}

// publish hands events to subscribers and the notifier. Neither may block
// the lobby, so full subscriber buffers drop and notifier panics are logged.
func (e *Engine) publish(s *Session, events []Event) {
	if len(events) == 0 {
		return
	}
	e.mu.Lock()
	for _, ev := range events {
		for ch := range e.subs[s.ID] {
			select {
			case ch <- ev:
			default:
				e.log.Debugf("[Game %s] dropping %s for slow subscriber", s.ID, ev.Type)
			}
		}
	}
	e.mu.Unlock()

	for _, ev := range events {
		if ev.Type == EventCardsPurchased || ev.Type == EventPrizePaid {
			e.notify(ev.PlayerID, ev)
			continue
		}
		for _, p := range s.Players {
			e.notify(p.ID, ev)
		}
	}
}

func (e *Engine) notify(playerID string, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Errorf("[Game %s] notify %s failed: %v", ev.GameID, playerID, r)
		}
	}()
	e.notifier.Notify(playerID, ev)
}

// with runs fn against the lobby for id, loading it when needed, and
// retries when the lobby retired between lookup and submit.
func (e *Engine) with(ctx context.Context, id string, fn func(l *Lobby) error) error {
	return e.withLobby(ctx, id, false, fn)
}

func (e *Engine) withLobby(ctx context.Context, id string, internal bool, fn func(l *Lobby) error) error {
	for attempt := 0; ; attempt++ {
		l, err := e.lobby(ctx, id, internal)
		if err != nil {
			return err
		}
		err = fn(l)
		if errors.Is(err, errRetired) && attempt < 3 {
			continue
		}
		return err
	}
}

func (e *Engine) lobby(ctx context.Context, id string, internal bool) (*Lobby, error) {
	e.mu.Lock()
	if e.closed || (e.closing && !internal) {
		e.mu.Unlock()
		return nil, ErrClosed
	}
	if l, ok := e.lobbies[id]; ok {
		e.mu.Unlock()
		return l, nil
	}
	e.mu.Unlock()

	s, err := e.games.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	cards := make(map[string]Card)
	if err := e.loadCards(ctx, s, cards); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, ErrClosed
	}
	if l, ok := e.lobbies[id]; ok {
		return l, nil
	}
	l := newLobby(e, s, cards)
	e.lobbies[id] = l
	e.metrics.Lobbies.Update(int64(len(e.lobbies)))
	go l.run()
	return l, nil
}

func (e *Engine) forget(l *Lobby) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.lobbies[l.session.ID] == l {
		delete(e.lobbies, l.session.ID)
		e.metrics.Lobbies.Update(int64(len(e.lobbies)))
	}
}

func (e *Engine) loadCards(ctx context.Context, s *Session, into map[string]Card) error {
	for _, id := range s.CardIDs() {
		if _, ok := into[id]; ok {
			continue
		}
		c, err := e.cards.FindByID(ctx, id)
		if err != nil {
			return fmt.Errorf("load card %s of game %s: %w", id, s.ID, err)
		}
		into[id] = c
	}
	return nil
}
