package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ListLobbies shows every auto-calling lobby and its current round.
func (h *Handler) ListLobbies(c *gin.Context) {
	if h.lobbies == nil {
		c.JSON(http.StatusOK, gin.H{"lobbies": []any{}})
		return
	}
	c.JSON(http.StatusOK, gin.H{"lobbies": h.lobbies.Lobbies(c.Request.Context())})
}
