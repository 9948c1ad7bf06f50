// Package main runs the battle server: Telnet and WebSocket frontends over a
// shared battle handler, with a gRPC health endpoint.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/cory-johannsen/tallgrass/internal/config"
	"github.com/cory-johannsen/tallgrass/internal/frontend/handlers"
	"github.com/cory-johannsen/tallgrass/internal/frontend/telnet"
	"github.com/cory-johannsen/tallgrass/internal/frontend/ws"
	"github.com/cory-johannsen/tallgrass/internal/game/catalog"
	"github.com/cory-johannsen/tallgrass/internal/game/combat"
	"github.com/cory-johannsen/tallgrass/internal/game/encounter"
	"github.com/cory-johannsen/tallgrass/internal/game/history"
	"github.com/cory-johannsen/tallgrass/internal/game/session"
	"github.com/cory-johannsen/tallgrass/internal/gameserver"
	"github.com/cory-johannsen/tallgrass/internal/observability"
	"github.com/cory-johannsen/tallgrass/internal/server"
	"github.com/cory-johannsen/tallgrass/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	contentDir := flag.String("content", "content", "directory holding moves/ and species/")
	encountersDir := flag.String("encounters", "content/encounters", "directory of encounter table YAML files")
	shutdownTimeout := flag.Duration("shutdown-timeout", server.DefaultShutdownTimeout, "time allowed for graceful shutdown")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Fatalf("loading .env: %v", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()

	tp, shutdownTracing, err := observability.NewTracerProvider(ctx, cfg.Tracing)
	if err != nil {
		logger.Fatal("initializing tracing", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), *shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			logger.Warn("flushing traces", zap.Error(err))
		}
	}()

	contentStart := time.Now()
	reg, err := catalog.Load(*contentDir)
	if err != nil {
		logger.Fatal("loading catalog", zap.Error(err))
	}
	tables, err := encounter.LoadDirectory(*encountersDir, reg)
	if err != nil {
		logger.Fatal("loading encounter tables", zap.Error(err))
	}
	if _, ok := tables.Get(cfg.Battle.EncounterTable); !ok {
		logger.Fatal("default encounter table not found", zap.String("table", cfg.Battle.EncounterTable))
	}
	logger.Info("content loaded",
		zap.Int("moves", reg.MoveCount()),
		zap.Int("species", len(reg.AllSpecies())),
		zap.Int("starters", len(reg.Starters())),
		zap.Strings("tables", tables.IDs()),
		zap.Duration("elapsed", time.Since(contentStart)),
	)

	var store history.Store = history.NewMemoryStore()
	if cfg.Database.Enabled {
		dbStart := time.Now()
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			logger.Fatal("connecting to database", zap.Error(err))
		}
		defer pool.Close()
		store = postgres.NewBattleRecordRepository(pool.DB())
		logger.Info("database connected",
			zap.String("host", cfg.Database.Host),
			zap.Duration("elapsed", time.Since(dbStart)),
		)
	} else {
		logger.Info("database disabled, battle history kept in memory")
	}

	battles := gameserver.NewBattleHandler(reg, tables, combat.NewEngine(), session.NewManager(), store, cfg.Battle,
		gameserver.WithHandlerLogger(logger),
		gameserver.WithHandlerTracer(observability.Tracer(tp, "gameserver")),
	)

	lifecycle := server.NewLifecycle(logger, server.WithShutdownTimeout(*shutdownTimeout))

	admin := gameserver.NewAdminServer(cfg.Admin, logger)
	lifecycle.Add("admin", &server.FuncService{
		StartFn: admin.ListenAndServe,
		StopFn:  admin.Stop,
	})

	acceptor := telnet.NewAcceptor(cfg.Telnet,
		handlers.NewBattleSessionHandler(battles, cfg.Battle.NarrationDelay, logger), logger)
	lifecycle.Add("telnet", &server.FuncService{
		StartFn: acceptor.ListenAndServe,
		StopFn: func(context.Context) error {
			acceptor.Stop()
			return nil
		},
	})

	if cfg.WebSocket.Enabled {
		wsServer := ws.NewServer(cfg.WebSocket, ws.NewHandler(battles, logger), logger)
		lifecycle.Add("websocket", &server.FuncService{
			StartFn: wsServer.ListenAndServe,
			StopFn:  wsServer.Stop,
		})
	}

	admin.SetServing(true)
	lifecycle.OnShutdown(func() { admin.SetServing(false) })

	logger.Info("battle server ready",
		zap.String("telnet_addr", cfg.Telnet.Addr()),
		zap.Bool("websocket", cfg.WebSocket.Enabled),
		zap.String("admin_addr", cfg.Admin.Addr()),
		zap.Int("player_level", cfg.Battle.PlayerLevel),
		zap.Duration("startup", time.Since(start)),
	)

	if err := lifecycle.Run(ctx); err != nil {
		logger.Error("battle server stopped with errors", zap.Error(err))
		os.Exit(1)
	}
}
