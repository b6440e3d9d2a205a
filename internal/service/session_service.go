package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/mentora/booking_backend/internal/clock"
	"github.com/mentora/booking_backend/internal/model"
)

// SessionService выбор задачи и расчёт окна видимости сессии
type SessionService struct {
	tx              TxRunner
	reservationRepo ReservationStore
	slotRepo        SlotStore
	sessionRepo     SessionStore
	problemRepo     ProblemStore
	userRepo        UserStore
	queue           *QueueResolver
	clk             clock.Clock
	defaultDuration time.Duration
	logger          *zap.Logger
}

func NewSessionService(
	tx TxRunner,
	reservationRepo ReservationStore,
	slotRepo SlotStore,
	sessionRepo SessionStore,
	problemRepo ProblemStore,
	userRepo UserStore,
	queue *QueueResolver,
	clk clock.Clock,
	defaultDuration time.Duration,
	logger *zap.Logger,
) *SessionService {
	return &SessionService{
		tx:              tx,
		reservationRepo: reservationRepo,
		slotRepo:        slotRepo,
		sessionRepo:     sessionRepo,
		problemRepo:     problemRepo,
		userRepo:        userRepo,
		queue:           queue,
		clk:             clk,
		defaultDuration: defaultDuration,
		logger:          logger,
	}
}

// SelectProblem создаёт сессию: студент выбирает задачу для своей
// активной брони на сегодня. Не больше одной сессии на бронь.
func (s *SessionService) SelectProblem(ctx context.Context, studentID, reservationID, problemID int64) (*model.Session, error) {
	var session *model.Session

	err := s.tx.Serializable(ctx, func(ctx context.Context) error {
		reservation, err := s.reservationRepo.GetByIDForUpdate(ctx, reservationID)
		if err != nil {
			return err
		}
		if reservation == nil {
			return ErrReservationNotFound
		}
		if reservation.StudentID != studentID {
			return ErrInsufficientPermission
		}
		if reservation.Status != model.ReservationStatusActive {
			return ErrReservationNotActive
		}

		slot, err := s.slotRepo.GetByID(ctx, reservation.SlotID)
		if err != nil {
			return err
		}
		if slot == nil {
			return ErrSlotNotFound
		}

		// Задачу можно выбрать только в день сессии
		now := s.clk.Now()
		if !clock.SameDay(now, midnightOf(slot.SlotDate, now.Location())) {
			return ErrReservationNotToday
		}

		problem, err := s.problemRepo.GetByID(ctx, problemID)
		if err != nil {
			return err
		}
		if problem == nil {
			return ErrProblemNotFound
		}
		if !problem.IsActive {
			return ErrProblemNotActive
		}

		existing, err := s.sessionRepo.GetByReservationID(ctx, reservationID)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrSessionExists
		}

		position, err := s.queue.Resolve(ctx, reservation.SlotID, reservationID)
		if err != nil {
			return err
		}
		startAt := ScheduledStartAt(slot.NominalTime, position, s.sessionDuration(problem))

		session = &model.Session{
			ReservationID: reservationID,
			ProblemID:     problemID,
			Status:        model.SessionStatusActive,
			StartedAt:     startAt,
		}
		if err := s.sessionRepo.Create(ctx, session); err != nil {
			return err
		}

		return s.reservationRepo.SetProblemSelected(ctx, reservationID)
	})

	if err != nil {
		return nil, err
	}

	s.logger.Info("Problem selected",
		zap.Int64("reservation_id", reservationID),
		zap.Int64("problem_id", problemID),
		zap.Time("scheduled_start_at", session.StartedAt),
	)

	return session, nil
}

// SessionStatus позиция в очереди, расчётный старт и состояние видимости
type SessionStatus struct {
	QueuePosition    int            `json:"queue_position"`
	ScheduledStartAt time.Time      `json:"scheduled_start_at"`
	Visibility       Visibility     `json:"visibility"`
	Session          *model.Session `json:"session,omitempty"`
}

// Status вычисляет текущее состояние сессии для брони.
// При закрытии окна сессия идемпотентно завершается (compare-and-set):
// повторные вызовы после закрытия эффект не повторяют.
func (s *SessionService) Status(ctx context.Context, studentID, reservationID int64) (*SessionStatus, error) {
	reservation, err := s.reservationRepo.GetByID(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if reservation == nil {
		return nil, ErrReservationNotFound
	}
	if reservation.StudentID != studentID {
		if err := s.checkAdmin(ctx, studentID); err != nil {
			return nil, err
		}
	}
	if reservation.Status == model.ReservationStatusCancelled {
		return nil, ErrReservationNotActive
	}

	slot, err := s.slotRepo.GetByID(ctx, reservation.SlotID)
	if err != nil {
		return nil, err
	}
	if slot == nil {
		return nil, ErrSlotNotFound
	}

	// Позиция выводится заново на каждый запрос: отмены сдвигают очередь
	position, err := s.queue.Resolve(ctx, reservation.SlotID, reservationID)
	if err != nil {
		return nil, err
	}

	// До выбора задачи превью нет, длительность — по умолчанию
	var previewLead time.Duration
	duration := s.defaultDuration

	session, err := s.sessionRepo.GetByReservationID(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if session != nil {
		problem, err := s.problemRepo.GetByID(ctx, session.ProblemID)
		if err != nil {
			return nil, err
		}
		if problem != nil {
			previewLead = time.Duration(problem.PreviewLeadMinutes) * time.Minute
			duration = s.sessionDuration(problem)
		}
	}

	startAt := ScheduledStartAt(slot.NominalTime, position, duration)
	visibility := ComputeVisibility(startAt, previewLead, duration, s.clk.Now())

	if visibility.State == StateSessionClosed && session != nil && session.Status != model.SessionStatusCompleted {
		closedAt := startAt.Add(duration)
		done, err := s.sessionRepo.Complete(ctx, session.ID, closedAt)
		if err != nil {
			return nil, err
		}
		if done {
			session.Status = model.SessionStatusCompleted
			session.CompletedAt = &closedAt
			s.logger.Info("Session auto-completed",
				zap.Int64("session_id", session.ID),
				zap.Time("completed_at", closedAt),
			)
		}
	}

	return &SessionStatus{
		QueuePosition:    position,
		ScheduledStartAt: startAt,
		Visibility:       visibility,
		Session:          session,
	}, nil
}

// QueuePosition позиция брони в очереди её слота.
// Доступна владельцу брони и админу, как и Status.
func (s *SessionService) QueuePosition(ctx context.Context, requesterID, reservationID int64) (int, error) {
	reservation, err := s.reservationRepo.GetByID(ctx, reservationID)
	if err != nil {
		return 0, err
	}
	if reservation == nil {
		return 0, ErrReservationNotFound
	}
	if reservation.StudentID != requesterID {
		if err := s.checkAdmin(ctx, requesterID); err != nil {
			return 0, err
		}
	}

	return s.queue.Resolve(ctx, reservation.SlotID, reservationID)
}

// CompleteOverdue завершает просроченные сессии (фоновая зачистка)
func (s *SessionService) CompleteOverdue(ctx context.Context) (int64, error) {
	return s.sessionRepo.CompleteOverdue(ctx, s.clk.Now())
}

// sessionDuration длительность сессии по задаче, иначе дефолт
func (s *SessionService) sessionDuration(problem *model.Problem) time.Duration {
	if problem.LimitMinutes > 0 {
		return time.Duration(problem.LimitMinutes) * time.Minute
	}
	return s.defaultDuration
}

func (s *SessionService) checkAdmin(ctx context.Context, userID int64) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil || !user.IsAdmin() {
		return ErrInsufficientPermission
	}
	return nil
}
