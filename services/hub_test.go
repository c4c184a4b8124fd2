package services

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/bellapacxx/bingo-engine/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubNotify(t *testing.T) {
	hub := NewHub(nil)
	c := &Client{playerID: "p1", gameID: "g1", send: make(chan []byte, 1)}
	hub.add(c)
	assert.Equal(t, 1, hub.Connected("p1"))

	w := game.Winner{Position: 1, PlayerID: "p1", PrizeName: "full-house", Prize: 80}
	hub.Notify("p1", game.Event{Type: game.EventWinner, GameID: "g1", Winner: &w})
	hub.Notify("p1", game.Event{Type: game.EventNumberDrawn, Label: "B-1"})
	hub.Notify("p2", game.Event{Type: game.EventNumberDrawn, Label: "B-1"})

	require.Len(t, c.send, 1)
	var got struct {
		Type    string     `json:"type"`
		Message string     `json:"message"`
		Event   game.Event `json:"event"`
	}
	require.NoError(t, json.Unmarshal(<-c.send, &got))
	assert.Equal(t, "notification", got.Type)
	assert.Equal(t, "You won full-house! Prize: 80", got.Message)
	assert.Equal(t, game.EventWinner, got.Event.Type)

	hub.remove(c)
	assert.Zero(t, hub.Connected("p1"))
	hub.Notify("p1", game.Event{Type: game.EventGameStarted})
	assert.Empty(t, c.send)
}

func TestDescribe(t *testing.T) {
	w := &game.Winner{PlayerID: "p2", PrizeName: "line", Prize: 30}
	assert.Equal(t, "line was won by p2.", describe("p1", game.Event{Type: game.EventWinner, Winner: w}))
	assert.Equal(t, "30 coins were added to your balance.", describe("p2", game.Event{Type: game.EventPrizePaid, Winner: w}))
	assert.Equal(t, "You bought 3 cards.", describe("p1", game.Event{Type: game.EventCardsPurchased, CardIDs: []string{"a", "b", "c"}}))
	assert.Equal(t, "G-50", describe("p1", game.Event{Type: game.EventNumberDrawn, Label: "G-50"}))
	assert.Equal(t, "game_created", describe("p1", game.Event{Type: game.EventGameCreated}))
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"https://play.example"})
	req := httptest.NewRequest("GET", "/ws/games/g1", nil)
	assert.True(t, check(req))
	req.Header.Set("Origin", "https://play.example")
	assert.True(t, check(req))
	req.Header.Set("Origin", "https://evil.example")
	assert.False(t, check(req))
	assert.True(t, originChecker([]string{"*"})(req))
}
