package services

import (
	"net/http"

	"github.com/bellapacxx/bingo-engine/game"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// WebSocketHandler upgrades GET /ws/games/:id?player_id=... and streams
// the game's events to the player.
func WebSocketHandler(engine *game.Engine, hub *Hub, accounts Accounts, allowed []string, log *zap.SugaredLogger) gin.HandlerFunc {
	upgrader := websocket.Upgrader{CheckOrigin: originChecker(allowed)}
	return func(c *gin.Context) {
		gameID := c.Param("id")
		playerID := c.Query("player_id")
		if playerID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "player_id is required"})
			return
		}
		if _, err := accounts.User(c.Request.Context(), playerID); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "player not found"})
			return
		}
		if _, err := engine.Game(c.Request.Context(), gameID); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "game not found"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Warnf("[WS] upgrade error: %v", err)
			return
		}
		client := &Client{
			playerID: playerID,
			gameID:   gameID,
			conn:     conn,
			engine:   engine,
			hub:      hub,
			log:      log,
			send:     make(chan []byte, 32),
		}
		events, unsubscribe := engine.Subscribe(gameID)
		hub.add(client)
		go client.writePump(events, unsubscribe)
		go client.readPump()
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, a := range allowed {
			if a == "*" || a == origin {
				return true
			}
		}
		return false
	}
}
