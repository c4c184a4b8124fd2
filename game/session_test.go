package game

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestSession(rules Rules) *Session {
	return &Session{ID: "g1", Status: StatusWaiting, MaxPlayers: 10, PrizePool: 100, Rules: rules}
}

// shifted returns testCard with every number moved down a row, so it shares
// no rows with testCard.
func shifted(id string) Card {
	c := testCard()
	c.ID = id
	for col := 0; col < Size; col++ {
		lo, _ := ColumnRange(col)
		for r := 0; r < Size; r++ {
			c.Grid[r][col] = lo + 5 + r
		}
	}
	c.Grid[center][center] = Free
	return c
}

func TestSessionTransitions(t *testing.T) {
	s := newTestSession(DefaultRules())
	require.NoError(t, s.Start(t0))
	assert.Equal(t, StatusActive, s.Status)
	assert.ErrorIs(t, s.Start(t0), ErrInvalidTransition)

	require.NoError(t, s.Cancel(t0))
	assert.Equal(t, StatusCancelled, s.Status)
	assert.ErrorIs(t, s.Cancel(t0), ErrInvalidTransition)
	assert.ErrorIs(t, s.Start(t0), ErrGameNotActive)
	assert.ErrorIs(t, s.CanPurchase(), ErrGameNotActive)
}

func TestCloseAtStart(t *testing.T) {
	rules := DefaultRules()
	rules.CloseAtStart = true
	s := newTestSession(rules)
	assert.NoError(t, s.CanPurchase())
	require.NoError(t, s.Start(t0))
	assert.ErrorIs(t, s.CanPurchase(), ErrGameNotActive)
}

func TestAttachCountsPlayersOnce(t *testing.T) {
	s := newTestSession(DefaultRules())
	s.attach("p1", []Card{testCard()}, 10, t0)
	s.attach("p1", []Card{shifted("c2")}, 10, t0)
	s.attach("p2", []Card{shifted("c3")}, 10, t0)
	assert.Equal(t, 2, s.CurrentPlayers)
	assert.Equal(t, []string{"fixed", "c2"}, s.Player("p1").Cards)
	assert.Equal(t, int64(20), s.Player("p1").Spent)
	assert.True(t, s.HasCard("c3"))
}

func TestAttachAddsPoolContribution(t *testing.T) {
	rules := DefaultRules()
	rules.PoolContribution = decimal.RequireFromString("0.5")
	s := newTestSession(rules)
	s.attach("p1", []Card{testCard()}, 27, t0)
	assert.Equal(t, int64(113), s.PrizePool)
}

func TestRecordSettlesPositionsInOrder(t *testing.T) {
	rules, err := PresetRules("line-then-house")
	require.NoError(t, err)
	s := newTestSession(rules)
	a, b := testCard(), shifted("b")
	cards := map[string]Card{a.ID: a, b.ID: b}
	s.attach("pa", []Card{a}, 0, t0)
	s.attach("pb", []Card{b}, 0, t0)
	require.NoError(t, s.Start(t0))

	draw := func(n int) []Winner {
		s.Drawn = append(s.Drawn, n)
		return s.record(n, "test", t0, cards)
	}

	var won []Winner
	for _, n := range a.Grid[0] {
		won = append(won, draw(n)...)
	}
	require.Len(t, won, 1)
	assert.Equal(t, Winner{Position: 1, PlayerID: "pa", CardID: "fixed", PrizeName: "line", Pattern: Row1, Prize: 30, DrawCount: 5}, won[0])
	assert.True(t, s.Player("pa").HasWon)
	assert.Equal(t, StatusActive, s.Status)

	// Card a completes first but pa already won, so the house goes to pb.
	won = nil
	for _, n := range append(a.Numbers(), b.Numbers()...) {
		if !contains(s.Drawn, n) {
			won = append(won, draw(n)...)
		}
	}
	require.Len(t, won, 1)
	assert.Equal(t, "pb", won[0].PlayerID)
	assert.Equal(t, 2, won[0].Position)
	assert.Equal(t, int64(70), won[0].Prize)
	assert.Equal(t, StatusCompleted, s.Status)
	assert.NotNil(t, s.EndedAt)
	assert.Len(t, s.Calls, len(s.Drawn))
}

func TestSettleClaimsSeveralPositionsAtOnce(t *testing.T) {
	rules, err := PresetRules("line-then-house")
	require.NoError(t, err)
	s := newTestSession(rules)
	a, b := testCard(), shifted("b")
	s.attach("pa", []Card{a}, 0, t0)
	s.attach("pb", []Card{b}, 0, t0)
	require.NoError(t, s.Start(t0))

	s.Drawn = append(a.Numbers(), b.Numbers()...)
	for i := range s.Players {
		m := &s.Players[i].Matches[0]
		if m.CardID == a.ID {
			m.Patterns = Evaluate(a, s.Drawn)
		} else {
			m.Patterns = Evaluate(b, s.Drawn)
		}
	}

	// Both cards are full. The line goes to the first player in list order
	// and the house to the next one.
	won := s.settle()
	require.Len(t, won, 2)
	assert.Equal(t, "pa", won[0].PlayerID)
	assert.Equal(t, "line", won[0].PrizeName)
	assert.Equal(t, "pb", won[1].PlayerID)
	assert.Equal(t, FullHouse, won[1].Pattern)
	assert.Zero(t, s.OpenPositions())
}

func TestCompletesWhenNumbersRunOut(t *testing.T) {
	s := newTestSession(DefaultRules())
	require.NoError(t, s.Start(t0))
	seq := NewSequencer(NewRand(3))
	for i := 0; i < MaxNumber; i++ {
		n, err := seq.DrawNext(s)
		require.NoError(t, err)
		s.record(n, "", t0, nil)
	}
	assert.Equal(t, StatusCompleted, s.Status)
	assert.Empty(t, s.Winners)
}

func TestCloneIsDeep(t *testing.T) {
	s := newTestSession(DefaultRules())
	s.attach("p1", []Card{testCard()}, 10, t0)
	require.NoError(t, s.Start(t0))
	c := s.Clone()
	c.Players[0].Cards[0] = "changed"
	c.Players[0].Matches[0].Matched = append(c.Players[0].Matches[0].Matched, 1)
	c.Drawn = append(c.Drawn, 5)
	*c.StartedAt = t0.Add(time.Hour)

	assert.Equal(t, "fixed", s.Players[0].Cards[0])
	assert.Empty(t, s.Players[0].Matches[0].Matched)
	assert.Empty(t, s.Drawn)
	assert.Equal(t, t0, *s.StartedAt)
}

func contains(xs []int, n int) bool {
	for _, x := range xs {
		if x == n {
			return true
		}
	}
	return false
}
