package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bellapacxx/bingo-engine/config"
	"github.com/bellapacxx/bingo-engine/controllers"
	"github.com/bellapacxx/bingo-engine/game"
	"github.com/bellapacxx/bingo-engine/routes"
	"github.com/bellapacxx/bingo-engine/services"
	"github.com/bellapacxx/bingo-engine/utils/logger"
	"github.com/benbjohnson/clock"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	metrics "github.com/rcrowley/go-metrics"
	"go.uber.org/zap"
)

type stores struct {
	cards    services.CardCatalog
	games    game.GameStore
	accounts services.Accounts
}

// openStores builds the card, game and account stores for cfg.Store.
func openStores(cfg config.Config, clk clock.Clock, rng game.Rand) (stores, error) {
	if cfg.Store == "memory" {
		return stores{
			cards:    services.NewMemoryCards(rng),
			games:    services.NewMemoryGames(),
			accounts: services.NewMemoryLedger(clk, cfg.StartingCoins),
		}, nil
	}
	db, err := config.SetupDatabase(cfg.DatabaseURL)
	if err != nil {
		return stores{}, err
	}
	return stores{
		cards:    services.NewCardStore(db),
		games:    services.NewGameStore(db),
		accounts: services.NewLedger(db, clk, cfg.StartingCoins),
	}, nil
}

// setupRouter initializes Gin routes and middleware
func setupRouter(cfg config.Config, h *controllers.Handler, ws gin.HandlerFunc, registry metrics.Registry) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.SetupRoutes(r, h)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now()})
	})
	r.GET("/metrics", func(c *gin.Context) {
		c.Header("Content-Type", "application/json")
		metrics.WriteJSONOnce(registry, c.Writer)
	})
	r.GET("/ws/games/:id", ws)
	return r
}

func run(cfg config.Config, log *zap.SugaredLogger) error {
	presets, err := config.LoadPresets(cfg.PresetsFile)
	if err != nil {
		return err
	}
	seed := cfg.Seed
	if seed == 0 {
		if seed, err = game.NewSeed(); err != nil {
			return err
		}
	}
	clk := clock.New()
	rng := game.NewRand(seed)

	st, err := openStores(cfg, clk, rng)
	if err != nil {
		return err
	}
	cards, err := services.NewCachedCards(st.cards, cfg.CardCacheSize)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.CardsFile != "" {
		n, err := services.LoadCards(ctx, cfg.CardsFile, cards, clk)
		if err != nil {
			return err
		}
		log.Infof("[Init] Loaded %d bingo cards", n)
	}

	registry := metrics.NewRegistry()
	hub := services.NewHub(log)
	engine, err := game.New(game.Options{
		Cards:    cards,
		Games:    st.games,
		Ledger:   st.accounts,
		Notifier: hub,
		Clock:    clk,
		Rand:     rng,
		Prices:   presets.Prices,
		Logger:   log,
		Metrics:  game.NewMetrics(registry),
	})
	if err != nil {
		return err
	}
	defer engine.Close()
	if n, err := engine.ResumePayouts(ctx); err != nil {
		log.Errorf("[Init] resume payouts: %v", err)
	} else if n > 0 {
		log.Infof("[Init] Resumed %d unpaid prizes", n)
	}

	lobbies, err := services.NewLobbyService(engine, presets.Lobbies, services.LobbySettings{
		Countdown:    cfg.Countdown,
		DrawInterval: cfg.DrawInterval,
		RoundPause:   cfg.RoundPause,
		PayoutSweep:  cfg.PayoutSweep,
	}, clk, log)
	if err != nil {
		return err
	}
	go lobbies.Run(ctx)

	h := controllers.New(engine, st.accounts, cards, lobbies, log)
	ws := services.WebSocketHandler(engine, hub, st.accounts, cfg.AllowedOrigins, log)
	srv := &http.Server{Addr: ":" + cfg.Port, Handler: setupRouter(cfg, h, ws, registry)}

	errc := make(chan error, 1)
	go func() {
		log.Infof("🚀 Bingo server starting on port %s (store %s)", cfg.Port, cfg.Store)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		log.Info("shutting down")
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatalf("[FATAL] %v", err)
	}
	if err := logger.Setup(cfg.LogLevel, cfg.LogFile); err != nil {
		logger.Log.Fatalf("[FATAL] logger: %v", err)
	}
	defer logger.Sync()
	if !cfg.DotEnv {
		logger.Info("[INFO] No .env file found, reading environment variables")
	}

	if err := run(cfg, logger.Log); err != nil {
		logger.Errorf("[FATAL] %v", err)
		logger.Sync()
		os.Exit(1)
	}
}
