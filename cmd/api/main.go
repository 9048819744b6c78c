package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/iamasit07/4-in-a-row-duel/backend/internal/config"
	"github.com/iamasit07/4-in-a-row-duel/backend/internal/repository/postgres"
	"github.com/iamasit07/4-in-a-row-duel/backend/internal/repository/redis"
	"github.com/iamasit07/4-in-a-row-duel/backend/internal/service/advisor"
	"github.com/iamasit07/4-in-a-row-duel/backend/internal/service/bot"
	"github.com/iamasit07/4-in-a-row-duel/backend/internal/service/cleanup"
	"github.com/iamasit07/4-in-a-row-duel/backend/internal/service/game"
	"github.com/iamasit07/4-in-a-row-duel/backend/internal/service/player"
	"github.com/iamasit07/4-in-a-row-duel/backend/internal/service/watch"
	transportHttp "github.com/iamasit07/4-in-a-row-duel/backend/internal/transport/http"
	"github.com/iamasit07/4-in-a-row-duel/backend/internal/transport/websocket"
	"github.com/iamasit07/4-in-a-row-duel/backend/pkg/auth"
	"github.com/iamasit07/4-in-a-row-duel/backend/pkg/logging"
)

const driverMemory = "memory"

func main() {
	cfg := config.LoadConfig()

	logger, err := logging.New(cfg.LogLevel, cfg.Environment)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()
	config.SetLogger(logger)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()

	// 1. Persistence
	var (
		store   game.Store
		players player.Repository
		db      *postgres.DB
	)
	if cfg.DBDriver == driverMemory {
		logger.Warn("using in-memory storage, state is lost on restart")
		store = game.NewMemoryStore()
		players = player.NewMemoryRepository()
	} else {
		db, err = postgres.Open(ctx, postgres.Options{
			Driver:          cfg.DBDriver,
			DSN:             cfg.DatabaseURL,
			MaxOpenConns:    cfg.DBMaxOpenConns,
			MaxIdleConns:    cfg.DBMaxIdleConns,
			ConnMaxLifetime: time.Duration(cfg.DBConnMaxLifetimeMin) * time.Minute,
		}, logger)
		if err != nil {
			logger.Fatal("database unavailable", zap.Error(err))
		}
		store = postgres.NewSessionRepo(db)
		players = postgres.NewPlayerRepo(db)
	}

	// 2. Advisor, optionally cached in Redis
	openAI := advisor.NewOpenAIAdvisor(advisor.Config{
		APIKey:  cfg.OpenAIKey,
		Model:   cfg.OpenAIModel,
		BaseURL: cfg.OpenAIBaseURL,
		Timeout: cfg.AdvisorTimeout,
	}, logger)

	redisClient, err := redis.Connect(ctx, redis.Options{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, logger)
	if err != nil {
		logger.Warn("continuing without redis", zap.Error(err))
	}

	var suggester bot.Advisor
	var chat transportHttp.Chatter
	if openAI != nil {
		suggester = openAI
		chat = openAI
		if redisClient != nil {
			suggester = advisor.NewCachedAdvisor(openAI, redis.NewRedisCache(redisClient), cfg.AdviceCacheTTL, logger)
		}
	} else {
		logger.Info("no OPENAI_API_KEY, computer moves use the built-in engine only")
	}

	// 3. Services
	engine := bot.NewEngine(nil, cfg.EasyBlockChance)
	opponent := bot.NewOpponent(engine, suggester, cfg.AdvisorTimeout, logger)
	playerService := player.NewService(players, store, logger)
	gameService := game.NewService(store, opponent, playerService, logger)
	poller := watch.NewPoller(gameService, cfg.PollInterval, logger)

	// 4. Background workers
	cleanupWorker := cleanup.NewWorker(gameService, cfg.CleanupSchedule, cfg.WaitingTTL, cfg.ActiveTTL, logger)
	if err := cleanupWorker.Start(); err != nil {
		logger.Fatal("failed to start cleanup worker", zap.Error(err))
	}

	// 5. Transport
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)
	playerHandler := transportHttp.NewPlayerHandler(playerService, tokens, cfg.TokenTTL, cfg.IsProduction())
	gameHandler := transportHttp.NewGameHandler(gameService, chat, logger)
	connManager := websocket.NewConnectionManager()
	wsHandler := websocket.NewHandler(connManager, gameService, poller, tokens, cfg.AllowedOrigins, logger)

	router := transportHttp.NewRouter(transportHttp.RouterConfig{
		AllowedOrigins: cfg.AllowedOrigins,
		Tokens:         tokens,
		Logger:         logger,
	}, playerHandler, gameHandler, wsHandler.HandleGameStream)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("server starting", zap.String("port", cfg.Port), zap.String("storage", cfg.DBDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	logger.Info("server is shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	connManager.CloseAll("server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}
	cleanupWorker.Stop(shutdownCtx)

	if redisClient != nil {
		redisClient.Close()
	}
	if db != nil {
		db.Close()
	}

	logger.Info("server exited gracefully")
}
