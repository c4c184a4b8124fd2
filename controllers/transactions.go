package controllers

import (
	"net/http"
	"strconv"

	"github.com/bellapacxx/bingo-engine/game"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// movementRequest is a deposit or withdrawal. Reference makes retries of
// the same request apply once.
type movementRequest struct {
	Amount    int64  `json:"amount" binding:"required,gt=0"`
	Reference string `json:"reference"`
}

// Deposit adds bonus coins to a player.
func (h *Handler) Deposit(c *gin.Context) {
	h.move(c, game.KindBonus, "deposit")
}

// Withdraw takes coins out of a player's balance.
func (h *Handler) Withdraw(c *gin.Context) {
	h.move(c, game.KindWithdraw, "withdraw")
}

func (h *Handler) move(c *gin.Context, kind, prefix string) {
	var req movementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if req.Reference == "" {
		req.Reference = uuid.NewString()
	}

	ctx := c.Request.Context()
	playerID := c.Param("player_id")
	entry := game.Entry{
		OperationID: prefix + ":" + req.Reference,
		PlayerID:    playerID,
		Amount:      req.Amount,
		Kind:        kind,
		Description: prefix,
	}
	var err error
	if kind == game.KindWithdraw {
		err = h.accounts.Debit(ctx, entry)
	} else {
		err = h.accounts.Credit(ctx, entry)
	}
	if err != nil {
		h.fail(c, err)
		return
	}

	user, err := h.accounts.User(ctx, playerID)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.log.Infof("[API] %s of %d for %s, balance %d", prefix, req.Amount, playerID, user.Coins)
	c.JSON(http.StatusCreated, gin.H{
		"operation_id": entry.OperationID,
		"amount":       req.Amount,
		"coins":        user.Coins,
	})
}

// Transactions lists a player's ledger movements, newest first.
func (h *Handler) Transactions(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 1 {
		badRequest(c, "invalid limit")
		return
	}
	ctx := c.Request.Context()
	playerID := c.Param("player_id")
	if _, err := h.accounts.User(ctx, playerID); err != nil {
		h.fail(c, err)
		return
	}
	txs, err := h.accounts.Transactions(ctx, playerID, limit)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": txs})
}
