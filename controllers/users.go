package controllers

import (
	"errors"
	"net/http"

	"github.com/bellapacxx/bingo-engine/game"
	"github.com/gin-gonic/gin"
)

// RegisterUser creates a player account with the starting coins.
func (h *Handler) RegisterUser(c *gin.Context) {
	var req struct {
		PlayerID string `json:"player_id" binding:"required"`
		Name     string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	if _, err := h.accounts.User(ctx, req.PlayerID); err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "User already exists"})
		return
	} else if !errors.Is(err, game.ErrNotFound) {
		h.fail(c, err)
		return
	}

	user, err := h.accounts.Register(ctx, req.PlayerID, req.Name)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

// GetUser fetches a user by player id.
func (h *Handler) GetUser(c *gin.Context) {
	user, err := h.accounts.User(c.Request.Context(), c.Param("player_id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) Balance(c *gin.Context) {
	user, err := h.accounts.User(c.Request.Context(), c.Param("player_id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"player_id": user.PlayerID, "coins": user.Coins})
}
