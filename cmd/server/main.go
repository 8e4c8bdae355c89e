package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/codeopoly/codeopoly-server-go/internal/board"
	"github.com/codeopoly/codeopoly-server-go/internal/config"
	"github.com/codeopoly/codeopoly-server-go/internal/game"
	"github.com/codeopoly/codeopoly-server-go/internal/judge"
	"github.com/codeopoly/codeopoly-server-go/internal/repository"
	"github.com/codeopoly/codeopoly-server-go/internal/room"
	"github.com/codeopoly/codeopoly-server-go/internal/server"
	"github.com/codeopoly/codeopoly-server-go/internal/session"
)

var (
	configPath = flag.String("config", "config/config.yaml", "path to configuration file")
	version    = "dev" // set via ldflags during build
)

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := initLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting codeopoly server",
		zap.String("version", version),
		zap.String("config", *configPath),
	)

	// Create context that listens for termination signals
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Initialize session manager
	sessionMgr := session.NewManager(cfg.Server.LeasePeriod, logger)
	sessionMgr.SetMaxSessions(cfg.Server.MaxSessions)
	logger.Info("session manager initialized",
		zap.Duration("lease_period", cfg.Server.LeasePeriod),
		zap.Int("max_sessions", cfg.Server.MaxSessions),
	)

	// Start session cleanup goroutine
	go sessionMgr.CleanupExpiredSessions(ctx)

	// Initialize room manager
	roomMgr := room.NewManager(logger)
	logger.Info("room manager initialized")

	// Initialize board and the turn engine
	registry := board.NewRegistry()
	engine := game.NewEngine(registry, game.Options{
		DuelTimeLimit:      cfg.Game.DuelTimeLimit,
		MatchDurationLimit: cfg.Game.MatchDurationLimit,
		DecisionTimeout:    cfg.Game.DecisionTimeout,
	}, logger)
	logger.Info("turn engine initialized",
		zap.Int("starting_cash", cfg.Game.StartingCash),
		zap.Duration("duel_time_limit", cfg.Game.DuelTimeLimit),
	)

	// Initialize the code checker client
	checker := judge.NewHTTPJudge(cfg.Judge.URL, cfg.Judge.Timeout, logger)
	logger.Info("judge client initialized", zap.String("url", cfg.Judge.URL))

	// Match persistence is optional; without a database the server
	// runs in-memory only.
	var matchRepo *repository.MatchRepository
	if cfg.Database.URL != "" {
		db, dbErr := repository.NewDB(ctx, cfg.Database, logger)
		if dbErr != nil {
			logger.Fatal("failed to connect to database", zap.Error(dbErr))
		}
		defer db.Close()

		stats := db.Stats()
		logger.Info("database connection pool initialized",
			zap.Int32("total_conns", stats.TotalConns()),
			zap.Int32("idle_conns", stats.IdleConns()),
		)

		matchRepo = repository.NewMatchRepository(db)
		if schemaErr := matchRepo.EnsureSchema(ctx); schemaErr != nil {
			logger.Fatal("failed to ensure match schema", zap.Error(schemaErr))
		}
	} else {
		logger.Warn("no database configured; match snapshots disabled")
	}

	gateway := server.NewGateway(cfg.Server, cfg.Game, engine, roomMgr, sessionMgr, checker, matchRepo, logger)
	go gateway.Run(ctx)

	if matchRepo != nil {
		restoreActiveMatches(ctx, matchRepo, engine, gateway, logger)
	}

	// Start WebSocket server
	go func() {
		if wsErr := server.StartWebSocketServer(cfg.Server, gateway, logger); wsErr != nil {
			logger.Error("WebSocket server error", zap.Error(wsErr))
		}
	}()

	logger.Info("codeopoly server initialized",
		zap.String("version", version),
		zap.String("websocket_address", cfg.Server.WebSocket.Address),
		zap.Int("max_sessions", cfg.Server.MaxSessions),
	)

	// Wait for termination signal
	sig := <-sigChan
	logger.Info("received shutdown signal", zap.String("signal", sig.String()))

	// Graceful shutdown
	logger.Info("shutting down gracefully...")
	cancel()

	// Close all active sessions
	sessionMgr.CloseAll()

	logger.Info("codeopoly server stopped")
}

// restoreActiveMatches reloads every persisted in-progress match so a
// restart does not forfeit running games.
func restoreActiveMatches(ctx context.Context, repo *repository.MatchRepository, engine *game.Engine, gateway *server.Gateway, logger *zap.Logger) {
	records, err := repo.LoadActiveSnapshots(ctx)
	if err != nil {
		logger.Error("failed to load match snapshots", zap.Error(err))
		return
	}
	restored := 0
	for _, record := range records {
		if restoreErr := engine.RestoreMatch(record); restoreErr != nil {
			logger.Error("failed to restore match",
				zap.String("match_id", record.MatchID),
				zap.Error(restoreErr),
			)
			continue
		}
		if attachErr := gateway.AttachMatch(record.MatchID); attachErr != nil {
			logger.Warn("failed to attach fanout for restored match",
				zap.String("match_id", record.MatchID),
				zap.Error(attachErr),
			)
		}
		restored++
	}
	if restored > 0 {
		logger.Info("restored active matches", zap.Int("count", restored))
	}
}

// initLogger initializes the zap logger based on configuration
func initLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
