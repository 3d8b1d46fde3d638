package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/connectx-game/server/internal/auth"
	"github.com/connectx-game/server/internal/config"
	"github.com/connectx-game/server/internal/database"
	"github.com/connectx-game/server/internal/events"
	"github.com/connectx-game/server/internal/handlers"
	"github.com/connectx-game/server/internal/jobs"
	"github.com/connectx-game/server/internal/middleware"
	"github.com/connectx-game/server/internal/repository"
	"github.com/connectx-game/server/internal/repository/memory"
	"github.com/connectx-game/server/internal/repository/redisrepo"
	"github.com/connectx-game/server/internal/scheduler"
	"github.com/connectx-game/server/internal/service"
)

func main() {
	cfg := config.Load()

	logger := logrus.New()
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}

	if err := auth.Init(cfg.TokenTTL); err != nil {
		logger.WithError(err).Fatal("initializing auth keys")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Redis when configured, in-process store otherwise.
	var (
		rooms   repository.RoomRepository
		history repository.GameHistoryRepository
		users   repository.UserRepository
	)
	if cfg.RedisAddr != "" {
		client, err := redisrepo.Connect(ctx, cfg.RedisAddr, cfg.RedisDB)
		if err != nil {
			logger.WithError(err).Fatal("connecting to redis")
		}
		opts := redisrepo.DefaultOptions()
		opts.RoomTTL = cfg.RoomTTL
		opts.SessionTTL = cfg.SessionTTL
		store := redisrepo.New(client, opts)
		rooms = store.Rooms()
		history = store.Histories()
		users = store.Users()
		logger.WithField("addr", cfg.RedisAddr).Info("using redis store")
	} else {
		rooms = memory.NewRoomStore()
		history = memory.NewHistoryStore()
		users = memory.NewUserStore()
		logger.Info("using in-memory store")
	}

	bus := events.NewBus(logger)
	clock := scheduler.New(logger)
	locks := service.NewRoomLocks()

	matchSvc := service.NewMatchService(rooms, history, clock, bus, locks, logger)
	roomSvc := service.NewRoomService(rooms, bus, locks, logger)
	userSvc := service.NewUserService(users, logger)

	if cfg.DatabaseURL != "" {
		db, err := database.Connect(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			logger.WithError(err).Fatal("connecting to postgres")
		}
		defer db.Close()
		if err := db.EnsureSchema(ctx); err != nil {
			logger.WithError(err).Fatal("ensuring archive schema")
		}
		matchSvc.Archive = db
	}

	server := handlers.NewServer(roomSvc, matchSvc, userSvc, history, logger)
	server.SubscribeEvents(bus)

	go jobs.NewHeartbeat(matchSvc, cfg.HeartbeatInterval, logger).Run(ctx)

	mux := http.NewServeMux()
	server.RegisterRoutes(mux)

	// The websocket route skips the logging wrapper; the upgrade needs
	// the raw ResponseWriter.
	wrapped := http.NewServeMux()
	wrapped.Handle("/ws", mux)
	wrapped.Handle("/", middleware.LogMiddleware(logger)(mux))

	httpServer := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     wrapped,
		ReadTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.WithField("addr", httpServer.Addr).Info("listening")
		errc <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errc:
		logger.WithError(err).Error("server exited")
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Warn("shutdown incomplete")
		}
	}
}
