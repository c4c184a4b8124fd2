package services

import (
	"context"
	"testing"
	"time"

	"github.com/bellapacxx/bingo-engine/config"
	"github.com/bellapacxx/bingo-engine/game"
	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lobbyFixture struct {
	clock   *clock.Mock
	engine  *game.Engine
	ledger  *MemoryLedger
	games   *MemoryGames
	lobbies *LobbyService
}

func newLobbyFixture(t *testing.T, presets ...config.Preset) *lobbyFixture {
	t.Helper()
	clk := clock.NewMock()
	clk.Set(time.Date(2024, 6, 1, 18, 0, 0, 0, time.UTC))
	rng := game.NewRand(9)
	ledger := NewMemoryLedger(clk, 100)
	games := NewMemoryGames()
	engine, err := game.New(game.Options{
		Cards:  NewMemoryCards(rng),
		Games:  games,
		Ledger: ledger,
		Clock:  clk,
		Rand:   rng,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = engine.Close() })

	svc, err := NewLobbyService(engine, presets, LobbySettings{
		Countdown:    30 * time.Second,
		DrawInterval: 5 * time.Second,
		RoundPause:   7 * time.Second,
	}, clk, nil)
	require.NoError(t, err)
	return &lobbyFixture{clock: clk, engine: engine, ledger: ledger, games: games, lobbies: svc}
}

func (f *lobbyFixture) tick(d time.Duration) LobbyView {
	f.clock.Add(d)
	f.lobbies.Tick(context.Background())
	return f.lobbies.Lobbies(context.Background())[0]
}

func TestLobbyRounds(t *testing.T) {
	f := newLobbyFixture(t, config.Preset{Name: "stake-10", EntryFee: 10, MaxPlayers: 10})
	ctx := context.Background()

	v := f.tick(0)
	require.NotEmpty(t, v.GameID)
	assert.Equal(t, 1, v.Round)
	assert.Equal(t, game.StatusWaiting, v.Status)
	assert.Equal(t, 30, v.Countdown)
	assert.Equal(t, int64(80), v.PrizePool)
	first := v.GameID

	// Nobody joined: the countdown starts over.
	v = f.tick(30 * time.Second)
	assert.Equal(t, game.StatusWaiting, v.Status)
	assert.Equal(t, 30, v.Countdown)
	assert.Equal(t, first, v.GameID)

	_, err := f.ledger.Register(ctx, "p1", "")
	require.NoError(t, err)
	_, err = f.engine.Purchase(ctx, game.PurchaseRequest{GameID: first, PlayerID: "p1", Count: 5})
	require.NoError(t, err)

	v = f.tick(30 * time.Second)
	assert.Equal(t, game.StatusActive, v.Status)
	assert.Equal(t, 1, v.Players)
	assert.Zero(t, v.Drawn)

	v = f.tick(time.Second)
	assert.Zero(t, v.Drawn, "draws wait for the interval")
	v = f.tick(4 * time.Second)
	assert.Equal(t, 1, v.Drawn)

	for i := 0; i < game.MaxNumber && v.GameID != ""; i++ {
		v = f.tick(5 * time.Second)
	}
	require.Empty(t, v.GameID, "round finished")
	done, err := f.engine.Game(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, game.StatusCompleted, done.Status)
	require.Len(t, done.Winners, 1)
	assert.Equal(t, "lobby:stake-10", done.Calls[0].CalledBy)

	v = f.tick(time.Second)
	assert.Empty(t, v.GameID, "paused between rounds")
	v = f.tick(6 * time.Second)
	assert.Equal(t, 2, v.Round)
	assert.NotEqual(t, first, v.GameID)
}

func TestLobbiesSortedByFee(t *testing.T) {
	f := newLobbyFixture(t,
		config.Preset{Name: "high", EntryFee: 100, MaxPlayers: 5},
		config.Preset{Name: "low", EntryFee: 5, MaxPlayers: 5, Rules: "any-line"},
	)
	f.lobbies.Tick(context.Background())
	views := f.lobbies.Lobbies(context.Background())
	require.Len(t, views, 2)
	assert.Equal(t, "low", views[0].Name)
	assert.Equal(t, "high", views[1].Name)
}

func TestLobbyRejectsUnknownRules(t *testing.T) {
	_, err := NewLobbyService(nil, []config.Preset{{Name: "odd", Rules: "zigzag"}}, LobbySettings{}, nil, nil)
	assert.ErrorIs(t, err, game.ErrInvalidRules)
}

func TestScheduledGamesStart(t *testing.T) {
	f := newLobbyFixture(t)
	ctx := context.Background()
	s, err := f.engine.CreateGame(ctx, game.GameSpec{ID: "evening", StartTime: f.clock.Now().Add(10 * time.Second)})
	require.NoError(t, err)

	f.clock.Add(5 * time.Second)
	f.lobbies.Tick(ctx)
	got, err := f.engine.Game(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, game.StatusWaiting, got.Status)

	f.clock.Add(5 * time.Second)
	f.lobbies.Tick(ctx)
	got, err = f.engine.Game(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, game.StatusActive, got.Status)
}

func TestTickRetriesUnpaidPrizes(t *testing.T) {
	f := newLobbyFixture(t)
	ctx := context.Background()
	_, err := f.ledger.Register(ctx, "p1", "")
	require.NoError(t, err)
	require.NoError(t, f.games.Save(ctx, &game.Session{
		ID:      "old",
		Status:  game.StatusCompleted,
		Rules:   game.DefaultRules(),
		Winners: []game.Winner{{Position: 1, PlayerID: "p1", Prize: 25}},
	}))

	f.lobbies.Tick(ctx)
	require.NoError(t, f.engine.Close())

	s, err := f.games.FindByID(ctx, "old")
	require.NoError(t, err)
	assert.True(t, s.Winners[0].Paid)
	u, err := f.ledger.User(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(125), u.Coins)
}
