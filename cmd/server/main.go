package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/mentora/booking_backend/internal/app"
	"github.com/mentora/booking_backend/internal/clock"
	"github.com/mentora/booking_backend/internal/config"
	httpctrl "github.com/mentora/booking_backend/internal/controller/http"
	"github.com/mentora/booking_backend/internal/repository"
	"github.com/mentora/booking_backend/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment)
	defer logger.Sync()

	loc, err := cfg.Location()
	if err != nil {
		logger.Fatal("Failed to load timezone", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		logger.Fatal("Failed to create connection pool", zap.Error(err))
	}
	defer pool.Close()

	// Миграции применяются на старте
	migrator, err := app.NewMigrator(pool, cfg.MigrationsPath, logger)
	if err != nil {
		logger.Fatal("Failed to create migrator", zap.Error(err))
	}
	if err := migrator.Run(ctx); err != nil {
		logger.Fatal("Failed to apply migrations", zap.Error(err))
	}
	migrator.Close()

	clk := clock.NewSystem(loc)

	// Репозитории
	txManager := repository.NewTxManager(pool)
	slotRepo := repository.NewSlotRepository(pool)
	reservationRepo := repository.NewReservationRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	sessionRepo := repository.NewSessionRepository(pool)
	problemRepo := repository.NewProblemRepository(pool)
	userRepo := repository.NewUserRepository(pool)

	// Сервисы
	queue := service.NewQueueResolver(reservationRepo)
	reservationService := service.NewReservationService(
		txManager, slotRepo, reservationRepo, ticketRepo, userRepo, clk, logger,
	)
	sessionService := service.NewSessionService(
		txManager, reservationRepo, slotRepo, sessionRepo, problemRepo, userRepo,
		queue, clk, cfg.SessionDuration(), logger,
	)

	// Фоновая зачистка просроченных сессий
	watcher := app.NewSessionWatcher(sessionService, time.Minute, logger)
	watcher.Start(ctx)
	defer watcher.Stop()

	// HTTP
	router := httpctrl.NewRouter(
		logger,
		cfg.JWTSecret,
		httpctrl.NewReservationHandler(reservationService),
		httpctrl.NewSessionHandler(sessionService),
	)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", cfg.HTTPAddr))
		if err := router.Listen(cfg.HTTPAddr); err != nil {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// Ждём сигнал остановки
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("Shutting down")
	if err := router.Shutdown(); err != nil {
		logger.Error("HTTP shutdown failed", zap.Error(err))
	}
}
