package services

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/bellapacxx/bingo-engine/game"
	"go.uber.org/zap"
)

// Hub tracks websocket clients by player and delivers personal
// notifications. It is the engine's Notifier.
type Hub struct {
	log *zap.SugaredLogger

	mu      sync.RWMutex
	clients map[string]map[*Client]struct{}
}

func NewHub(log *zap.SugaredLogger) *Hub {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Hub{log: log, clients: make(map[string]map[*Client]struct{})}
}

type notification struct {
	Type    string     `json:"type"`
	Message string     `json:"message"`
	Event   game.Event `json:"event"`
}

// Notify implements game.Notifier. Full client buffers drop the message.
func (h *Hub) Notify(playerID string, ev game.Event) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients[playerID]))
	for c := range h.clients[playerID] {
		clients = append(clients, c)
	}
	h.mu.RUnlock()
	if len(clients) == 0 {
		return
	}

	b, err := json.Marshal(notification{Type: "notification", Message: describe(playerID, ev), Event: ev})
	if err != nil {
		h.log.Errorf("[Hub] encode %s for %s: %v", ev.Type, playerID, err)
		return
	}
	for _, c := range clients {
		if !c.trySend(b) {
			h.log.Debugf("[Hub] dropping %s to player %s", ev.Type, playerID)
		}
	}
}

// Connected is how many clients playerID has open.
func (h *Hub) Connected(playerID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[playerID])
}

func (h *Hub) add(c *Client) {
	h.mu.Lock()
	group := h.clients[c.playerID]
	if group == nil {
		group = make(map[*Client]struct{})
		h.clients[c.playerID] = group
	}
	group[c] = struct{}{}
	n := len(group)
	h.mu.Unlock()
	h.log.Infof("[Hub] player %s connected to game %s (%d open)", c.playerID, c.gameID, n)
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	delete(h.clients[c.playerID], c)
	if len(h.clients[c.playerID]) == 0 {
		delete(h.clients, c.playerID)
	}
	h.mu.Unlock()
	h.log.Infof("[Hub] player %s left game %s", c.playerID, c.gameID)
}

func describe(playerID string, ev game.Event) string {
	switch ev.Type {
	case game.EventCardsPurchased:
		return fmt.Sprintf("You bought %d cards.", len(ev.CardIDs))
	case game.EventWinner:
		if ev.Winner != nil && ev.Winner.PlayerID == playerID {
			return fmt.Sprintf("You won %s! Prize: %d", ev.Winner.PrizeName, ev.Winner.Prize)
		}
		if ev.Winner != nil {
			return fmt.Sprintf("%s was won by %s.", ev.Winner.PrizeName, ev.Winner.PlayerID)
		}
	case game.EventPrizePaid:
		if ev.Winner != nil {
			return fmt.Sprintf("%d coins were added to your balance.", ev.Winner.Prize)
		}
	case game.EventNumberDrawn:
		return ev.Label
	case game.EventGameStarted:
		return "The game has started."
	case game.EventGameCompleted:
		return "The game is over."
	case game.EventGameCancelled:
		return "The game was cancelled."
	case game.EventStartRescheduled:
		return "Start moved to " + ev.StartTime.Format("15:04:05") + "."
	}
	return string(ev.Type)
}
