package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/mentora/booking_backend/internal/service"
)

// SessionWatcher фоновая зачистка: закрывает просроченные сессии,
// даже если их статус никто не опрашивает
type SessionWatcher struct {
	sessionService *service.SessionService
	interval       time.Duration
	logger         *zap.Logger
	stopChan       chan struct{}
}

// NewSessionWatcher создаёт новый наблюдатель сессий
func NewSessionWatcher(sessionService *service.SessionService, interval time.Duration, logger *zap.Logger) *SessionWatcher {
	if interval <= 0 {
		interval = time.Minute
	}
	return &SessionWatcher{
		sessionService: sessionService,
		interval:       interval,
		logger:         logger,
		stopChan:       make(chan struct{}),
	}
}

// Start запускает фоновую задачу
func (w *SessionWatcher) Start(ctx context.Context) {
	w.logger.Info("Starting session watcher")

	go w.run(ctx)
}

// Stop останавливает фоновую задачу
func (w *SessionWatcher) Stop() {
	w.logger.Info("Stopping session watcher")
	close(w.stopChan)
}

// run периодически завершает просроченные сессии
func (w *SessionWatcher) run(ctx context.Context) {
	// Первый проход сразу при старте
	w.sweep(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.sweep(ctx)
		case <-w.stopChan:
			w.logger.Info("Session watcher stopped")
			return
		case <-ctx.Done():
			w.logger.Info("Session watcher cancelled")
			return
		}
	}
}

// sweep один проход зачистки.
// Закрытие идемпотентно, гонка с опросом статуса безопасна.
func (w *SessionWatcher) sweep(ctx context.Context) {
	closed, err := w.sessionService.CompleteOverdue(ctx)
	if err != nil {
		w.logger.Error("Failed to complete overdue sessions", zap.Error(err))
		return
	}

	if closed > 0 {
		w.logger.Info("Overdue sessions completed", zap.Int64("count", closed))
	}
}
