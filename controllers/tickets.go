package controllers

import (
	"net/http"
	"strconv"

	"github.com/bellapacxx/bingo-engine/game"
	"github.com/gin-gonic/gin"
)

const maxGenerate = 500

// ListCards pages through the card pool.
func (h *Handler) ListCards(c *gin.Context) {
	page, err1 := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, err2 := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err1 != nil || err2 != nil {
		badRequest(c, "invalid page or limit")
		return
	}
	cards, total, err := h.cards.List(c.Request.Context(), page, limit)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cards": cards, "total": total, "page": page})
}

func (h *Handler) GetCard(c *gin.Context) {
	card, err := h.cards.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, card)
}

// GenerateCards adds fresh cards to the pool.
func (h *Handler) GenerateCards(c *gin.Context) {
	var req struct {
		Count int `json:"count" binding:"required,gt=0"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if req.Count > maxGenerate {
		badRequest(c, "at most 500 cards per request")
		return
	}
	cards, err := h.engine.GenerateCards(c.Request.Context(), req.Count)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"cards": cards})
}

// QuotePrice prices a card count without buying.
func (h *Handler) QuotePrice(c *gin.Context) {
	count, err := strconv.Atoi(c.Query("count"))
	if err != nil {
		badRequest(c, "count must be a number")
		return
	}
	q, err := h.engine.Quote(count)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

// Bundles lists the named bundles with their prices.
func (h *Handler) Bundles(c *gin.Context) {
	type bundle struct {
		Name     string `json:"name"`
		Count    int    `json:"count"`
		Price    int64  `json:"price"`
		Discount int    `json:"discount"`
		Savings  int64  `json:"savings"`
	}
	out := make([]bundle, 0, len(game.Bundles))
	for _, b := range game.Bundles {
		q, err := h.engine.Quote(b.Count)
		if err != nil {
			continue
		}
		out = append(out, bundle{Name: b.Name, Count: b.Count, Price: q.Price, Discount: q.Discount, Savings: q.Savings})
	}
	c.JSON(http.StatusOK, gin.H{"bundles": out, "prices": h.engine.Prices()})
}
