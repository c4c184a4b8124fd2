package controllers

import (
	"errors"
	"net/http"

	"github.com/bellapacxx/bingo-engine/game"
	"github.com/bellapacxx/bingo-engine/services"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler serves the REST API on top of the engine.
type Handler struct {
	engine   *game.Engine
	accounts services.Accounts
	cards    services.CardCatalog
	lobbies  *services.LobbyService
	log      *zap.SugaredLogger
}

func New(engine *game.Engine, accounts services.Accounts, cards services.CardCatalog, lobbies *services.LobbyService, log *zap.SugaredLogger) *Handler {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Handler{engine: engine, accounts: accounts, cards: cards, lobbies: lobbies, log: log}
}

// statusFor maps engine errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, game.ErrInvalidCardCount), errors.Is(err, game.ErrInvalidRules):
		return http.StatusBadRequest
	case errors.Is(err, game.ErrInsufficientFunds):
		return http.StatusPaymentRequired
	case errors.Is(err, game.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, game.ErrGameNotActive),
		errors.Is(err, game.ErrNumbersExhausted),
		errors.Is(err, game.ErrCapacityExceeded),
		errors.Is(err, game.ErrConflict),
		errors.Is(err, game.ErrCardUnavailable),
		errors.Is(err, game.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, game.ErrClosed):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (h *Handler) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.log.Errorf("[API] %s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}
