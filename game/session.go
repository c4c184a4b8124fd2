package game

import (
	"fmt"
	"time"
)

// Status is the lifecycle state of a session.
type Status string

const (
	StatusWaiting   Status = "waiting"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Call is one drawn number with when and by whom it was called.
type Call struct {
	Number   int       `json:"number"`
	CalledAt time.Time `json:"called_at"`
	CalledBy string    `json:"called_by,omitempty"`
}

// CardMatch is the running match state of one card in one session.
type CardMatch struct {
	CardID   string     `json:"card_id"`
	Matched  []int      `json:"matched"`
	Patterns PatternSet `json:"patterns"`
}

// Player is a participant and the cards they hold in the session.
// Purchases lists what they bought, by operation id.
type Player struct {
	ID        string           `json:"id"`
	Cards     []string         `json:"cards"`
	Matches   []CardMatch      `json:"matches"`
	HasWon    bool             `json:"has_won"`
	WinAmount int64            `json:"win_amount,omitempty"`
	Spent     int64            `json:"spent"`
	JoinedAt  time.Time        `json:"joined_at"`
	Purchases []PurchaseRecord `json:"purchases,omitempty"`
}

// PurchaseRecord is one committed purchase as the player was charged for it.
type PurchaseRecord struct {
	OperationID string    `json:"operation_id"`
	CardIDs     []string  `json:"card_ids"`
	Price       int64     `json:"price"`
	Discount    int       `json:"discount,omitempty"`
	At          time.Time `json:"at"`
}

// Winner records who claimed a prize position and with what.
type Winner struct {
	Position  int     `json:"position"`
	PlayerID  string  `json:"player_id"`
	CardID    string  `json:"card_id"`
	PrizeName string  `json:"prize_name"`
	Pattern   Pattern `json:"pattern"`
	Prize     int64   `json:"prize"`
	DrawCount int     `json:"draw_count"`
	Paid      bool    `json:"paid"`
}

// Session is one bingo game from creation to completion. It is a plain
// document; the Lobby actor serializes every change to it.
type Session struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Status         Status     `json:"status"`
	EntryFee       int64      `json:"entry_fee"`
	MaxPlayers     int        `json:"max_players"`
	CurrentPlayers int        `json:"current_players"`
	PrizePool      int64      `json:"prize_pool"`
	Drawn          []int      `json:"drawn_numbers"`
	Calls          []Call     `json:"calls"`
	Players        []Player   `json:"players"`
	Winners        []Winner   `json:"winners"`
	Rules          Rules      `json:"rules"`
	StartTime      time.Time  `json:"start_time"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	EndedAt        *time.Time `json:"ended_at,omitempty"`
	Version        int64      `json:"version"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Clone returns a deep copy.
func (s *Session) Clone() *Session {
	c := *s
	c.Drawn = append([]int(nil), s.Drawn...)
	c.Calls = append([]Call(nil), s.Calls...)
	c.Winners = append([]Winner(nil), s.Winners...)
	c.Rules.Prizes = append([]Prize(nil), s.Rules.Prizes...)
	c.Players = make([]Player, len(s.Players))
	for i, p := range s.Players {
		p.Cards = append([]string(nil), p.Cards...)
		matches := make([]CardMatch, len(p.Matches))
		for j, m := range p.Matches {
			m.Matched = append([]int(nil), m.Matched...)
			matches[j] = m
		}
		p.Matches = matches
		if p.Purchases != nil {
			purchases := make([]PurchaseRecord, len(p.Purchases))
			for j, r := range p.Purchases {
				r.CardIDs = append([]string(nil), r.CardIDs...)
				purchases[j] = r
			}
			p.Purchases = purchases
		}
		c.Players[i] = p
	}
	if s.StartedAt != nil {
		t := *s.StartedAt
		c.StartedAt = &t
	}
	if s.EndedAt != nil {
		t := *s.EndedAt
		c.EndedAt = &t
	}
	return &c
}

// Player returns the player with id, or nil.
func (s *Session) Player(id string) *Player {
	for i := range s.Players {
		if s.Players[i].ID == id {
			return &s.Players[i]
		}
	}
	return nil
}

// HasCard reports whether any player in the session holds cardID.
func (s *Session) HasCard(cardID string) bool {
	for _, p := range s.Players {
		for _, id := range p.Cards {
			if id == cardID {
				return true
			}
		}
	}
	return false
}

// Purchase returns the committed purchase with operationID, or nil.
func (s *Session) Purchase(operationID string) (string, *PurchaseRecord) {
	for i := range s.Players {
		p := &s.Players[i]
		for j := range p.Purchases {
			if p.Purchases[j].OperationID == operationID {
				return p.ID, &p.Purchases[j]
			}
		}
	}
	return "", nil
}

// CardIDs lists every card attached to the session.
func (s *Session) CardIDs() []string {
	var out []string
	for _, p := range s.Players {
		out = append(out, p.Cards...)
	}
	return out
}

// OpenPositions is how many prize positions are still unclaimed.
func (s *Session) OpenPositions() int {
	return len(s.Rules.Prizes) - len(s.Winners)
}

// Finished reports whether the session is completed or cancelled.
func (s *Session) Finished() bool {
	return s.Status == StatusCompleted || s.Status == StatusCancelled
}

// CanPurchase reports whether cards may be bought in the current status.
func (s *Session) CanPurchase() error {
	switch s.Status {
	case StatusWaiting:
		return nil
	case StatusActive:
		if s.Rules.CloseAtStart {
			return fmt.Errorf("%w: purchases closed once started", ErrGameNotActive)
		}
		return nil
	default:
		return fmt.Errorf("%w: status %s", ErrGameNotActive, s.Status)
	}
}

// Start moves a waiting session to active.
func (s *Session) Start(now time.Time) error {
	switch s.Status {
	case StatusWaiting:
	case StatusActive:
		return fmt.Errorf("%w: already active", ErrInvalidTransition)
	default:
		return fmt.Errorf("%w: status %s", ErrGameNotActive, s.Status)
	}
	s.Status = StatusActive
	s.StartedAt = &now
	return nil
}

// Cancel ends a waiting or active session without further draws.
func (s *Session) Cancel(now time.Time) error {
	if s.Finished() {
		return fmt.Errorf("%w: cannot cancel %s game", ErrInvalidTransition, s.Status)
	}
	s.Status = StatusCancelled
	s.EndedAt = &now
	return nil
}

func (s *Session) complete(now time.Time) {
	s.Status = StatusCompleted
	s.EndedAt = &now
}

// attach gives playerID the cards, with match state against the numbers
// drawn so far. A player's first attach counts toward CurrentPlayers.
func (s *Session) attach(playerID string, cards []Card, price int64, now time.Time) {
	p := s.Player(playerID)
	if p == nil {
		s.Players = append(s.Players, Player{ID: playerID, JoinedAt: now})
		s.CurrentPlayers++
		p = &s.Players[len(s.Players)-1]
	}
	for _, card := range cards {
		p.Cards = append(p.Cards, card.ID)
		m := CardMatch{CardID: card.ID, Matched: []int{}, Patterns: Evaluate(card, s.Drawn)}
		for _, n := range s.Drawn {
			if card.Contains(n) {
				m.Matched = append(m.Matched, n)
			}
		}
		p.Matches = append(p.Matches, m)
	}
	p.Spent += price
	s.PrizePool += s.Rules.Contribution(price)
}

// record applies the effects of the number the sequencer just appended:
// the call log, per-card match state, winners, and completion.
func (s *Session) record(n int, by string, now time.Time, cards map[string]Card) []Winner {
	s.Calls = append(s.Calls, Call{Number: n, CalledAt: now, CalledBy: by})
	for i := range s.Players {
		p := &s.Players[i]
		for j := range p.Matches {
			m := &p.Matches[j]
			card, ok := cards[m.CardID]
			if !ok || !card.Contains(n) {
				continue
			}
			m.Matched = append(m.Matched, n)
			m.Patterns = Evaluate(card, s.Drawn)
		}
	}

	won := s.settle()
	if s.OpenPositions() == 0 || len(s.Drawn) >= MaxNumber {
		s.complete(now)
	}
	return won
}

// settle awards open prize positions in order. For each position the first
// player in list order holding a qualifying card wins; winners take no part
// in later positions.
func (s *Session) settle() []Winner {
	var won []Winner
	for s.OpenPositions() > 0 {
		position := len(s.Winners) + 1
		prize := s.Rules.Prizes[position-1]
		w, ok := s.claim(position, prize)
		if !ok {
			break
		}
		s.Winners = append(s.Winners, w)
		won = append(won, w)
	}
	return won
}

func (s *Session) claim(position int, prize Prize) (Winner, bool) {
	for i := range s.Players {
		p := &s.Players[i]
		if p.HasWon {
			continue
		}
		for _, m := range p.Matches {
			pattern, ok := prize.Satisfied(m.Patterns)
			if !ok {
				continue
			}
			amount := s.Rules.PrizeAmount(s.PrizePool, position)
			p.HasWon = true
			p.WinAmount = amount
			return Winner{
				Position:  position,
				PlayerID:  p.ID,
				CardID:    m.CardID,
				PrizeName: prize.Name,
				Pattern:   pattern,
				Prize:     amount,
				DrawCount: len(s.Drawn),
			}, true
		}
	}
	return Winner{}, false
}
