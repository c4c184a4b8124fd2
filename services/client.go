package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/bellapacxx/bingo-engine/game"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// Client is one websocket connection of a player watching a game.
type Client struct {
	playerID string
	gameID   string
	conn     *websocket.Conn
	engine   *game.Engine
	hub      *Hub
	log      *zap.SugaredLogger
	send     chan []byte

	mu     sync.Mutex
	closed bool
}

// Close stops the write pump and closes the connection. Safe to repeat.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
	c.conn.Close()
}

func (c *Client) trySend(b []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- b:
		return true
	default:
		return false
	}
}

type clientMessage struct {
	Action  string   `json:"action"`
	CardID  string   `json:"card_id"`
	CardIDs []string `json:"card_ids"`
	Count   int      `json:"count"`
	Bundle  string   `json:"bundle"`
}

type replyMessage struct {
	Type    string        `json:"type"`
	Error   string        `json:"error,omitempty"`
	Game    *game.Session `json:"game,omitempty"`
	Receipt *game.Receipt `json:"receipt,omitempty"`
	Event   *game.Event   `json:"event,omitempty"`
}

func (c *Client) reply(m replyMessage) {
	b, err := json.Marshal(m)
	if err != nil {
		c.log.Errorf("[Client %s] encode %s: %v", c.playerID, m.Type, err)
		return
	}
	if !c.trySend(b) {
		c.log.Debugf("[Client %s] dropping %s", c.playerID, m.Type)
	}
}

// readPump handles player actions until the connection drops.
func (c *Client) readPump() {
	defer func() {
		c.hub.remove(c)
		c.Close()
	}()

	c.conn.SetReadLimit(4096)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.log.Infof("[Client %s] disconnected normally", c.playerID)
			} else {
				c.log.Warnf("[Client %s] read error: %v", c.playerID, err)
			}
			return
		}
		c.handle(message)
	}
}

func (c *Client) handle(msg []byte) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Errorf("[Client %s] recovered from panic: %v", c.playerID, r)
		}
	}()

	var m clientMessage
	if err := json.Unmarshal(msg, &m); err != nil {
		c.reply(replyMessage{Type: "error", Error: "invalid message"})
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), writeWait)
	defer cancel()

	switch m.Action {
	case "state":
		s, err := c.engine.Game(ctx, c.gameID)
		if err != nil {
			c.reply(replyMessage{Type: "error", Error: err.Error()})
			return
		}
		c.reply(replyMessage{Type: "state", Game: s})
	case "select_card", "buy":
		req := game.PurchaseRequest{
			GameID:   c.gameID,
			PlayerID: c.playerID,
			Count:    m.Count,
			CardIDs:  m.CardIDs,
			Bundle:   m.Bundle,
		}
		if m.CardID != "" {
			req.CardIDs = append(req.CardIDs, m.CardID)
		}
		rec, err := c.engine.Purchase(ctx, req)
		if err != nil {
			c.log.Infof("[Client %s] purchase in game %s failed: %v", c.playerID, c.gameID, err)
			c.reply(replyMessage{Type: "error", Error: err.Error()})
			return
		}
		c.reply(replyMessage{Type: "receipt", Receipt: &rec})
	default:
		c.log.Debugf("[Client %s] unknown action: %q", c.playerID, m.Action)
		c.reply(replyMessage{Type: "error", Error: "unknown action"})
	}
}

// writePump forwards game events and queued replies to the socket.
func (c *Client) writePump(events <-chan game.Event, unsubscribe func()) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		unsubscribe()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.write(websocket.TextMessage, msg); err != nil {
				c.log.Warnf("[Client %s] write error: %v", c.playerID, err)
				return
			}
		case ev, ok := <-events:
			if !ok {
				return
			}
			b, err := json.Marshal(replyMessage{Type: "event", Event: &ev})
			if err != nil {
				continue
			}
			if err := c.write(websocket.TextMessage, b); err != nil {
				c.log.Warnf("[Client %s] write error: %v", c.playerID, err)
				return
			}
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) write(kind int, b []byte) error {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(kind, b)
}
