package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/bellapacxx/bingo-engine/game"
	"github.com/gin-gonic/gin"
)

type createGameRequest struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	EntryFee   int64       `json:"entry_fee"`
	MaxPlayers int         `json:"max_players"`
	PrizePool  int64       `json:"prize_pool"`
	StartTime  time.Time   `json:"start_time"`
	Preset     string      `json:"preset"`
	Rules      *game.Rules `json:"rules"`
}

// CreateGame opens a waiting game. Rules come from a named preset or are
// given in full; classic is the default.
func (h *Handler) CreateGame(c *gin.Context) {
	var req createGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	spec := game.GameSpec{
		ID:         req.ID,
		Name:       req.Name,
		EntryFee:   req.EntryFee,
		MaxPlayers: req.MaxPlayers,
		PrizePool:  req.PrizePool,
		StartTime:  req.StartTime,
		Rules:      req.Rules,
	}
	if req.Preset != "" {
		rules, err := game.PresetRules(req.Preset)
		if err != nil {
			h.fail(c, err)
			return
		}
		spec.Rules = &rules
	}
	s, err := h.engine.CreateGame(c.Request.Context(), spec)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, s)
}

// ListGames returns games, optionally filtered with ?status=.
func (h *Handler) ListGames(c *gin.Context) {
	var statuses []game.Status
	for _, st := range c.QueryArray("status") {
		statuses = append(statuses, game.Status(st))
	}
	games, err := h.engine.List(c.Request.Context(), statuses...)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"games": games})
}

func (h *Handler) GetGame(c *gin.Context) {
	s, err := h.engine.Game(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *Handler) StartGame(c *gin.Context) {
	s, err := h.engine.Start(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *Handler) CancelGame(c *gin.Context) {
	s, err := h.engine.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

// DrawNumber calls the next number.
func (h *Handler) DrawNumber(c *gin.Context) {
	var req struct {
		CalledBy string `json:"called_by"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
	}
	res, err := h.engine.Draw(c.Request.Context(), c.Param("id"), req.CalledBy)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type purchaseRequest struct {
	PlayerID    string   `json:"player_id" binding:"required"`
	Count       int      `json:"count"`
	CardIDs     []string `json:"card_ids"`
	Bundle      string   `json:"bundle"`
	Source      string   `json:"source"`
	OperationID string   `json:"operation_id"`
}

// Purchase buys cards for a player in the game.
func (h *Handler) Purchase(c *gin.Context) {
	var req purchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	pr := game.PurchaseRequest{
		GameID:      c.Param("id"),
		PlayerID:    req.PlayerID,
		Count:       req.Count,
		CardIDs:     req.CardIDs,
		Bundle:      req.Bundle,
		OperationID: req.OperationID,
	}
	switch req.Source {
	case "", "generate":
	case "pool":
		pr.Source = game.SourceSample
	default:
		badRequest(c, "source must be generate or pool")
		return
	}
	if _, err := h.accounts.User(c.Request.Context(), req.PlayerID); err != nil {
		h.fail(c, err)
		return
	}
	rec, err := h.engine.Purchase(c.Request.Context(), pr)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

// QuickSelect offers 1, 3 or 5 pool cards with their price.
func (h *Handler) QuickSelect(c *gin.Context) {
	count, err := strconv.Atoi(c.DefaultQuery("count", "1"))
	if err != nil {
		badRequest(c, "count must be a number")
		return
	}
	sel, err := h.engine.QuickSelect(c.Request.Context(), c.Param("id"), count)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sel)
}
