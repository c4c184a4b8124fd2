package game

import (
	"context"
	"errors"
)

// errRetired tells the engine the lobby stopped before taking the request;
// the caller loads a fresh one and retries.
var errRetired = errors.New("lobby retired")

// Lobby owns one session. Every change runs on its goroutine, in the order
// requests arrive, so draws, purchases and cancellation never interleave.
type Lobby struct {
	engine  *Engine
	session *Session
	cards   map[string]Card

	// Seats reserved by purchases still talking to the ledger. Only the
	// lobby goroutine touches them.
	pending map[string]int
	seats   int

	reqs chan func()
	stop chan struct{}
	done chan struct{}
}

type reservation struct {
	playerID string
	seat     bool
}

func newLobby(e *Engine, s *Session, cards map[string]Card) *Lobby {
	return &Lobby{
		engine:  e,
		session: s,
		cards:   cards,
		pending: make(map[string]int),
		reqs:    make(chan func()),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

func (l *Lobby) run() {
	defer close(l.done)
	for {
		select {
		case req := <-l.reqs:
			req()
			if l.session.Finished() && len(l.pending) == 0 {
				l.engine.forget(l)
				return
			}
		case <-l.stop:
			return
		}
	}
}

func (l *Lobby) submit(ctx context.Context, req func()) error {
	select {
	case l.reqs <- req:
		return nil
	case <-l.done:
		return errRetired
	case <-ctx.Done():
		return ctx.Err()
	}
}

// do applies fn to a copy of the session and persists the copy. The copy
// replaces the lobby state only once saved, so a failing fn or store leaves
// nothing half applied. Events returned by fn are published afterwards.
func (l *Lobby) do(ctx context.Context, fn func(s *Session) ([]Event, error)) (*Session, error) {
	type result struct {
		s   *Session
		err error
	}
	reply := make(chan result, 1)
	err := l.submit(ctx, func() {
		next := l.session.Clone()
		events, err := fn(next)
		if err != nil {
			reply <- result{err: err}
			return
		}
		next.UpdatedAt = l.engine.clock.Now().UTC()
		if err := l.engine.games.Save(ctx, next); err != nil {
			if errors.Is(err, ErrConflict) {
				l.reload(ctx)
			}
			reply <- result{err: err}
			return
		}
		l.session = next
		snap := next.Clone()
		reply <- result{s: snap}
		l.engine.publish(snap, events)
	})
	if err != nil {
		return nil, err
	}
	r := <-reply
	return r.s, r.err
}

// view runs fn against the live session without saving. fn must not change
// the session document.
func (l *Lobby) view(ctx context.Context, fn func(s *Session) error) error {
	reply := make(chan error, 1)
	if err := l.submit(ctx, func() { reply <- fn(l.session) }); err != nil {
		return err
	}
	return <-reply
}

func (l *Lobby) reload(ctx context.Context) {
	fresh, err := l.engine.games.FindByID(ctx, l.session.ID)
	if err != nil {
		l.engine.log.Errorf("[Game %s] reload after conflict failed: %v", l.session.ID, err)
		return
	}
	if err := l.engine.loadCards(ctx, fresh, l.cards); err != nil {
		l.engine.log.Errorf("[Game %s] reload cards failed: %v", l.session.ID, err)
		return
	}
	l.session = fresh
}

// reserve holds a seat for playerID while their debit is in flight. A
// player already in the session, or already reserving, needs no new seat.
func (l *Lobby) reserve(ctx context.Context, playerID string) (reservation, error) {
	var r reservation
	err := l.view(ctx, func(s *Session) error {
		if err := s.CanPurchase(); err != nil {
			return err
		}
		r = reservation{playerID: playerID}
		if s.Player(playerID) == nil && l.pending[playerID] == 0 {
			if s.CurrentPlayers+l.seats >= s.MaxPlayers {
				return ErrCapacityExceeded
			}
			r.seat = true
			l.seats++
		}
		l.pending[playerID]++
		return nil
	})
	return r, err
}

// releaseLocked drops a reservation. It must run on the lobby goroutine.
func (l *Lobby) releaseLocked(r reservation) {
	l.pending[r.playerID]--
	if l.pending[r.playerID] <= 0 {
		delete(l.pending, r.playerID)
	}
	if r.seat {
		l.seats--
	}
}

func (l *Lobby) release(ctx context.Context, r reservation) {
	_ = l.view(context.WithoutCancel(ctx), func(*Session) error {
		l.releaseLocked(r)
		return nil
	})
}
