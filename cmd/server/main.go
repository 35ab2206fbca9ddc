package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomaszsb/Code2027-sub004/internal/config"
	"github.com/tomaszsb/Code2027-sub004/internal/data"
	"github.com/tomaszsb/Code2027-sub004/internal/game"
	"github.com/tomaszsb/Code2027-sub004/internal/repository"
	"github.com/tomaszsb/Code2027-sub004/internal/server"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	configPath = flag.String("config", "", "path to configuration file")
	version    = "dev" // set via ldflags during build
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := initLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting game server",
		zap.String("version", version),
		zap.String("config", *configPath),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Board and card tables. The built-in fixture serves until an external
	// data loader is wired in front of the engine.
	dataSvc := data.Fixture()
	logger.Info("game data loaded",
		zap.Int("spaces", len(dataSvc.AllSpaceConfigs())),
		zap.String("starting_space", dataSvc.StartingSpace()),
	)

	var repo game.Repository
	if cfg.Database.Enabled {
		pool, err := repository.Connect(ctx, cfg.Database.URL, logger)
		if err != nil {
			logger.Fatal("failed to connect to database", zap.Error(err))
		}
		defer pool.Close()
		if err := repository.Migrate(ctx, pool); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
		repo = repository.NewGameRepository(pool, logger)
		logger.Info("session persistence enabled")
	}

	manager := game.NewManager(dataSvc, repo, game.Settings{
		StartingMoney: cfg.Game.StartingMoney,
		MaxPlayers:    cfg.Game.MaxPlayers,
	}, logger)
	logger.Info("game manager initialized",
		zap.Int("starting_money", cfg.Game.StartingMoney),
		zap.Int("max_players", cfg.Game.MaxPlayers),
	)

	gateway := server.NewGateway(manager, logger)
	mux := http.NewServeMux()
	mux.Handle("/ws", gateway)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	httpServer := &http.Server{Addr: cfg.Server.Address, Handler: mux}
	go func() {
		logger.Info("listening", zap.String("address", cfg.Server.Address))
		if serveErr := httpServer.ListenAndServe(); serveErr != nil && serveErr != http.ErrServerClosed {
			logger.Error("server error", zap.Error(serveErr))
		}
	}()

	sig := <-sigChan
	logger.Info("received shutdown signal", zap.String("signal", sig.String()))
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}
	logger.Info("game server stopped")
}

// initLogger initializes the zap logger based on configuration.
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
