package routes

import (
	"github.com/bellapacxx/bingo-engine/controllers"
	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine, h *controllers.Handler) {
	api := r.Group("/api")

	// ----------------------
	// User routes
	// ----------------------
	api.POST("/users", h.RegisterUser)
	api.GET("/users/:player_id", h.GetUser)
	api.GET("/users/:player_id/balance", h.Balance)
	api.GET("/users/:player_id/transactions", h.Transactions)
	api.POST("/users/:player_id/deposit", h.Deposit)
	api.POST("/users/:player_id/withdraw", h.Withdraw)

	// ----------------------
	// Card routes
	// ----------------------
	api.GET("/cards", h.ListCards)
	api.POST("/cards/generate", h.GenerateCards)
	api.GET("/cards/:id", h.GetCard)

	// ----------------------
	// Pricing routes
	// ----------------------
	api.GET("/pricing/quote", h.QuotePrice)
	api.GET("/pricing/bundles", h.Bundles)

	// ----------------------
	// Game routes
	// ----------------------
	api.POST("/games", h.CreateGame)
	api.GET("/games", h.ListGames)
	api.GET("/games/:id", h.GetGame)
	api.POST("/games/:id/start", h.StartGame)
	api.POST("/games/:id/draw", h.DrawNumber)
	api.POST("/games/:id/cancel", h.CancelGame)
	api.POST("/games/:id/purchase", h.Purchase)
	api.GET("/games/:id/quick-select", h.QuickSelect)

	api.GET("/lobbies", h.ListLobbies)
}
