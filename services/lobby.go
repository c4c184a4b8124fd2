package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/bellapacxx/bingo-engine/config"
	"github.com/bellapacxx/bingo-engine/game"
	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
)

// LobbySettings are the timings of auto-calling lobbies. PayoutSweep is
// how often unpaid prizes are retried; zero means every minute.
type LobbySettings struct {
	Countdown    time.Duration
	DrawInterval time.Duration
	RoundPause   time.Duration
	PayoutSweep  time.Duration
}

// LobbyService runs one endless series of rounds per preset: a new game
// counts down, starts once someone holds a card (otherwise the countdown
// restarts), is called on an interval until it completes, and after a
// pause the next round opens. It also starts any other waiting game whose
// start time has passed.
type LobbyService struct {
	engine   *game.Engine
	clock    clock.Clock
	log      *zap.SugaredLogger
	settings LobbySettings

	mu        sync.Mutex
	rounds    []*round
	lastSweep time.Time
}

type round struct {
	preset   config.Preset
	rules    game.Rules
	number   int
	gameID   string
	nextDraw time.Time
	resumeAt time.Time
}

func NewLobbyService(engine *game.Engine, presets []config.Preset, settings LobbySettings, clk clock.Clock, log *zap.SugaredLogger) (*LobbyService, error) {
	if clk == nil {
		clk = clock.New()
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if settings.PayoutSweep <= 0 {
		settings.PayoutSweep = time.Minute
	}
	svc := &LobbyService{engine: engine, clock: clk, log: log, settings: settings}
	for _, p := range presets {
		rules, err := config.RulesFor(p)
		if err != nil {
			return nil, fmt.Errorf("lobby %s: %w", p.Name, err)
		}
		svc.rounds = append(svc.rounds, &round{preset: p, rules: rules})
	}
	return svc, nil
}

// Run ticks every second until ctx is done.
func (l *LobbyService) Run(ctx context.Context) {
	ticker := l.clock.Ticker(time.Second)
	defer ticker.Stop()
	l.log.Infof("[Init] Started %d lobbies", len(l.rounds))
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Tick(ctx)
		}
	}
}

// Tick advances every lobby by whatever is due now.
func (l *LobbyService) Tick(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.clock.Now().UTC()
	owned := make(map[string]bool, len(l.rounds))
	for _, r := range l.rounds {
		if err := l.advance(ctx, r, now); err != nil {
			if errors.Is(err, game.ErrClosed) || errors.Is(err, context.Canceled) {
				return
			}
			l.log.Errorf("[Lobby %s] round %d: %v", r.preset.Name, r.number, err)
		}
		if r.gameID != "" {
			owned[r.gameID] = true
		}
	}
	l.startDue(ctx, now, owned)
	l.sweepPayouts(ctx, now)
}

func (l *LobbyService) sweepPayouts(ctx context.Context, now time.Time) {
	if !l.lastSweep.IsZero() && now.Sub(l.lastSweep) < l.settings.PayoutSweep {
		return
	}
	l.lastSweep = now
	n, err := l.engine.ResumePayouts(ctx)
	if err != nil {
		if !errors.Is(err, game.ErrClosed) {
			l.log.Errorf("[Lobby] payout sweep: %v", err)
		}
		return
	}
	if n > 0 {
		l.log.Infof("[Lobby] retrying %d unpaid prizes", n)
	}
}

func (l *LobbyService) advance(ctx context.Context, r *round, now time.Time) error {
	if r.gameID == "" {
		if now.Before(r.resumeAt) {
			return nil
		}
		return l.open(ctx, r, now)
	}

	s, err := l.engine.Game(ctx, r.gameID)
	if err != nil {
		return err
	}
	switch s.Status {
	case game.StatusWaiting:
		if now.Before(s.StartTime) {
			return nil
		}
		if s.CurrentPlayers == 0 {
			_, err := l.engine.Reschedule(ctx, s.ID, now.Add(l.settings.Countdown))
			l.log.Debugf("[Lobby %s] no players, restarting countdown", r.preset.Name)
			return err
		}
		if _, err := l.engine.Start(ctx, s.ID); err != nil {
			return err
		}
		r.nextDraw = now.Add(l.settings.DrawInterval)
		l.log.Infof("[Lobby %s] round %d started with %d players", r.preset.Name, r.number, s.CurrentPlayers)
	case game.StatusActive:
		if now.Before(r.nextDraw) {
			return nil
		}
		res, err := l.engine.Draw(ctx, s.ID, "lobby:"+r.preset.Name)
		switch {
		case errors.Is(err, game.ErrNumbersExhausted), errors.Is(err, game.ErrGameNotActive):
			l.finish(r, now)
			return nil
		case err != nil:
			return err
		}
		r.nextDraw = now.Add(l.settings.DrawInterval)
		if res.Status != game.StatusActive {
			l.finish(r, now)
		}
	default:
		l.finish(r, now)
	}
	return nil
}

func (l *LobbyService) open(ctx context.Context, r *round, now time.Time) error {
	rules := r.rules
	s, err := l.engine.CreateGame(ctx, game.GameSpec{
		Name:       fmt.Sprintf("%s round %d", r.preset.Name, r.number+1),
		EntryFee:   r.preset.EntryFee,
		MaxPlayers: r.preset.MaxPlayers,
		PrizePool:  r.preset.PrizePool,
		StartTime:  now.Add(l.settings.Countdown),
		Rules:      &rules,
	})
	if err != nil {
		return err
	}
	r.number++
	r.gameID = s.ID
	l.log.Infof("[Lobby %s] round %d open as game %s", r.preset.Name, r.number, s.ID)
	return nil
}

func (l *LobbyService) finish(r *round, now time.Time) {
	l.log.Infof("[Lobby %s] round %d over", r.preset.Name, r.number)
	r.gameID = ""
	r.resumeAt = now.Add(l.settings.RoundPause)
}

// startDue starts waiting games outside the lobbies once their start time
// has passed.
func (l *LobbyService) startDue(ctx context.Context, now time.Time, owned map[string]bool) {
	waiting, err := l.engine.List(ctx, game.StatusWaiting)
	if err != nil {
		l.log.Errorf("[Lobby] list waiting games: %v", err)
		return
	}
	for _, s := range waiting {
		if owned[s.ID] || now.Before(s.StartTime) {
			continue
		}
		if _, err := l.engine.Start(ctx, s.ID); err != nil && !errors.Is(err, game.ErrInvalidTransition) {
			l.log.Errorf("[Game %s] scheduled start: %v", s.ID, err)
			continue
		}
		l.log.Infof("[Game %s] start time reached", s.ID)
	}
}

// LobbyView is the public state of one lobby.
type LobbyView struct {
	Name       string      `json:"name"`
	EntryFee   int64       `json:"entry_fee"`
	MaxPlayers int         `json:"max_players"`
	Round      int         `json:"round"`
	GameID     string      `json:"game_id,omitempty"`
	Status     game.Status `json:"status"`
	Players    int         `json:"players"`
	PrizePool  int64       `json:"prize_pool"`
	Drawn      int         `json:"drawn"`
	Countdown  int         `json:"countdown"`
}

// Lobbies lists every lobby with its current round, ordered by entry fee.
func (l *LobbyService) Lobbies(ctx context.Context) []LobbyView {
	l.mu.Lock()
	rounds := make([]round, len(l.rounds))
	for i, r := range l.rounds {
		rounds[i] = *r
	}
	l.mu.Unlock()

	now := l.clock.Now().UTC()
	out := make([]LobbyView, 0, len(rounds))
	for _, r := range rounds {
		v := LobbyView{
			Name:       r.preset.Name,
			EntryFee:   r.preset.EntryFee,
			MaxPlayers: r.preset.MaxPlayers,
			Round:      r.number,
			Status:     game.StatusCompleted,
		}
		if r.gameID != "" {
			if s, err := l.engine.Game(ctx, r.gameID); err == nil {
				v.GameID = s.ID
				v.Status = s.Status
				v.Players = s.CurrentPlayers
				v.PrizePool = s.PrizePool
				v.Drawn = len(s.Drawn)
				v.MaxPlayers = s.MaxPlayers
				if s.Status == game.StatusWaiting && s.StartTime.After(now) {
					v.Countdown = int(s.StartTime.Sub(now).Round(time.Second) / time.Second)
				}
			}
		}
		out = append(out, v)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].EntryFee < out[j].EntryFee })
	return out
}
