package game

import (
	"context"
	"fmt"
)

// claimOp marks op as running in this engine. It reports false when op is
// already running.
func (e *Engine) claimOp(op string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.ops[op]; ok {
		return false
	}
	e.ops[op] = struct{}{}
	return true
}

func (e *Engine) releaseOp(op string) {
	e.mu.Lock()
	delete(e.ops, op)
	e.mu.Unlock()
}

// spawn runs fn in the background under op, and Close waits for it. It
// reports false without running fn when the engine is closing or op is
// already running.
func (e *Engine) spawn(op string, fn func()) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closing {
		return false
	}
	if _, ok := e.ops[op]; ok {
		return false
	}
	e.ops[op] = struct{}{}
	e.payouts.Add(1)
	go func() {
		defer e.payouts.Done()
		defer e.releaseOp(op)
		fn()
	}()
	return true
}

func (e *Engine) schedulePayout(gameID string, w Winner) bool {
	op := PrizeOperationID(gameID, w.Position)
	ok := e.spawn(op, func() {
		e.payout(context.Background(), gameID, w)
	})
	if !ok {
		e.log.Debugf("[Game %s] prize %s not scheduled, already running or closing", gameID, op)
	}
	return ok
}

// PrizeOperationID is the ledger operation id of a prize credit. It is
// stable per game and position so retried credits apply once.
func PrizeOperationID(gameID string, position int) string {
	return fmt.Sprintf("prize:%s:%d", gameID, position)
}

// RefundOperationID is the ledger operation id of the refund of purchase op.
func RefundOperationID(op string) string {
	return op + ":refund"
}

// ResumePayouts schedules every recorded prize that has not been marked
// paid, for instance after credits gave up or the process stopped before
// paying. It returns how many were scheduled.
func (e *Engine) ResumePayouts(ctx context.Context) (int, error) {
	e.mu.Lock()
	closing := e.closing
	e.mu.Unlock()
	if closing {
		return 0, ErrClosed
	}
	games, err := e.games.List(ctx, StatusActive, StatusCompleted, StatusCancelled)
	if err != nil {
		return 0, fmt.Errorf("list games: %w", err)
	}
	n := 0
	for _, s := range games {
		for _, w := range s.Winners {
			if !w.Paid && e.schedulePayout(s.ID, w) {
				n++
			}
		}
	}
	return n, nil
}

// credit applies entry, retrying with a doubling backoff until it succeeds
// or payoutAttempts run out.
func (e *Engine) credit(ctx context.Context, entry Entry) error {
	for attempt := 1; ; attempt++ {
		err := e.ledger.Credit(ctx, entry)
		if err == nil {
			return nil
		}
		if attempt >= e.payoutAttempts {
			return fmt.Errorf("credit %s after %d attempts: %w", entry.OperationID, attempt, err)
		}
		e.log.Warnf("[Game %s] credit %s failed, attempt %d: %v", entry.GameID, entry.OperationID, attempt, err)
		e.clock.Sleep(e.payoutBackoff * (1 << (attempt - 1)))
	}
}

// payout credits the winner, then marks the position paid. A prize that
// cannot be credited stays unpaid for ResumePayouts.
func (e *Engine) payout(ctx context.Context, gameID string, w Winner) {
	entry := Entry{
		OperationID: PrizeOperationID(gameID, w.Position),
		PlayerID:    w.PlayerID,
		Amount:      w.Prize,
		Kind:        KindWin,
		GameID:      gameID,
		CardIDs:     []string{w.CardID},
		Description: fmt.Sprintf("Prize %d (%s) in game %s", w.Position, w.PrizeName, gameID),
	}
	if w.Prize > 0 {
		if err := e.credit(ctx, entry); err != nil {
			e.metrics.PayoutFailures.Inc(1)
			e.log.Errorf("[Game %s] giving up on prize for %s for now: %v", gameID, w.PlayerID, err)
			return
		}
	}
	e.metrics.Payouts.Inc(1)

	err := e.withLobby(ctx, gameID, true, func(l *Lobby) error {
		_, err := l.do(ctx, func(s *Session) ([]Event, error) {
			if w.Position > len(s.Winners) || s.Winners[w.Position-1].Paid {
				return nil, nil
			}
			s.Winners[w.Position-1].Paid = true
			paid := s.Winners[w.Position-1]
			ev := e.event(EventPrizePaid, s)
			ev.PlayerID = paid.PlayerID
			ev.Winner = &paid
			return []Event{ev}, nil
		})
		return err
	})
	if err != nil {
		e.log.Errorf("[Game %s] prize %s credited but not marked paid: %v", gameID, entry.OperationID, err)
	}
}

// refund returns a purchase debit in the background, then releases the
// purchase operation id. It runs inline when the engine is closing.
func (e *Engine) refund(debit Entry, cause error) {
	credit := debit
	credit.OperationID = RefundOperationID(debit.OperationID)
	credit.Kind = KindRefund
	credit.Description = fmt.Sprintf("Refund for game %s: %v", debit.GameID, cause)
	run := func() {
		defer e.releaseOp(debit.OperationID)
		if err := e.credit(context.Background(), credit); err != nil {
			e.metrics.RefundFailures.Inc(1)
			e.log.Errorf("[Game %s] refund to %s failed: %v", debit.GameID, debit.PlayerID, err)
			return
		}
		e.metrics.Refunds.Inc(1)
	}
	if !e.spawn(credit.OperationID, run) {
		run()
	}
}
