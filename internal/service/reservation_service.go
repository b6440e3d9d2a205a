package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mentora/booking_backend/internal/clock"
	"github.com/mentora/booking_backend/internal/model"
)

// ReservationService атомарный менеджер броней: создание, перенос, отмена.
// Каждая операция — одна serializable-транзакция: проверки вместимости и
// лимитов действительны на момент коммита, а не только на момент чтения.
type ReservationService struct {
	tx              TxRunner
	slotRepo        SlotStore
	reservationRepo ReservationStore
	ticketRepo      TicketStore
	userRepo        UserStore
	clk             clock.Clock
	logger          *zap.Logger
}

func NewReservationService(
	tx TxRunner,
	slotRepo SlotStore,
	reservationRepo ReservationStore,
	ticketRepo TicketStore,
	userRepo UserStore,
	clk clock.Clock,
	logger *zap.Logger,
) *ReservationService {
	return &ReservationService{
		tx:              tx,
		slotRepo:        slotRepo,
		reservationRepo: reservationRepo,
		ticketRepo:      ticketRepo,
		userRepo:        userRepo,
		clk:             clk,
		logger:          logger,
	}
}

// ReservationResult бронь вместе с балансом билетов после операции
type ReservationResult struct {
	Reservation   *model.Reservation `json:"reservation"`
	TicketBalance int                `json:"ticket_balance"`
}

// Create создаёт бронь: занимает место в слоте, списывает билет,
// записывает бронь — всё атомарно или ничего
func (s *ReservationService) Create(ctx context.Context, studentID, slotID int64) (*ReservationResult, error) {
	var result ReservationResult

	err := s.tx.Serializable(ctx, func(ctx context.Context) error {
		// Слот под блокировкой: проверка вместимости и инкремент
		// должны быть одной атомарной единицей
		slot, err := s.slotRepo.GetByIDForUpdate(ctx, slotID)
		if err != nil {
			return err
		}
		if slot == nil {
			return ErrSlotNotFound
		}
		if !slot.HasFreeSeat() {
			return fmt.Errorf("%w: %d of %d seats taken", ErrSlotFull, slot.ReservedCount, slot.MaxCapacity)
		}
		if !slot.IsAvailable {
			return ErrSlotUnavailable
		}

		// Баланс билетов тоже под блокировкой
		account, err := s.ticketRepo.GetByStudentIDForUpdate(ctx, studentID)
		if err != nil {
			return err
		}
		if account == nil {
			return ErrStudentNotFound
		}
		if account.Balance <= 0 {
			return ErrInsufficientTickets
		}

		// Правила бронирования по активным броням на дату слота
		existing, err := s.reservationRepo.GetActiveByStudentAndDate(ctx, studentID, slot.SlotDate)
		if err != nil {
			return err
		}
		for _, r := range existing {
			if r.SlotID == slotID {
				return ErrDuplicateReservation
			}
		}

		verdict := EvaluateBookingRules(RuleCandidate{
			TeacherID:   slot.TeacherID,
			SessionHalf: slot.SessionHalf,
		}, existing)
		if err := s.verdictErr(verdict); err != nil {
			return err
		}

		// Все четыре мутации коммитятся вместе
		if err := s.slotRepo.IncrementReserved(ctx, slotID); err != nil {
			return err
		}
		if err := s.ticketRepo.Debit(ctx, studentID); err != nil {
			return err
		}

		reservation := &model.Reservation{
			StudentID: studentID,
			SlotID:    slotID,
			Status:    model.ReservationStatusActive,
		}
		if err := s.reservationRepo.Create(ctx, reservation); err != nil {
			return err
		}

		reservation.Slot = slot
		result.Reservation = reservation
		result.TicketBalance = account.Balance - 1
		return nil
	})

	if err != nil {
		return nil, err
	}

	s.logger.Info("Reservation created",
		zap.Int64("reservation_id", result.Reservation.ID),
		zap.Int64("student_id", studentID),
		zap.Int64("slot_id", slotID),
		zap.Int("ticket_balance", result.TicketBalance),
	)

	return &result, nil
}

// Modify переносит активную бронь на другой слот.
// Билеты не двигаются: перенос — это не отмена с новым созданием.
func (s *ReservationService) Modify(ctx context.Context, reservationID, newSlotID, requesterID int64) (*ReservationResult, error) {
	var result ReservationResult

	err := s.tx.Serializable(ctx, func(ctx context.Context) error {
		reservation, err := s.reservationRepo.GetByIDForUpdate(ctx, reservationID)
		if err != nil {
			return err
		}
		if reservation == nil {
			return ErrReservationNotFound
		}
		if reservation.Status != model.ReservationStatusActive {
			return ErrReservationNotActive
		}

		if err := s.checkPermission(ctx, reservation, requesterID); err != nil {
			return err
		}

		currentSlot, err := s.slotRepo.GetByID(ctx, reservation.SlotID)
		if err != nil {
			return err
		}
		if currentSlot == nil {
			return ErrSlotNotFound
		}

		// Перенос закрыт с полуночи даты текущего слота:
		// последний разрешённый момент — 23:59:59 накануне
		now := s.clk.Now()
		if !now.Before(midnightOf(currentSlot.SlotDate, now.Location())) {
			return ErrModifyWindowClosed
		}

		if newSlotID == reservation.SlotID {
			account, err := s.ticketRepo.GetByStudentID(ctx, reservation.StudentID)
			if err != nil {
				return err
			}

			reservation.Slot = currentSlot
			result.Reservation = reservation
			if account != nil {
				result.TicketBalance = account.Balance
			}
			return nil
		}

		newSlot, err := s.slotRepo.GetByIDForUpdate(ctx, newSlotID)
		if err != nil {
			return err
		}
		if newSlot == nil {
			return ErrSlotNotFound
		}
		if !newSlot.HasFreeSeat() {
			return fmt.Errorf("%w: %d of %d seats taken", ErrSlotFull, newSlot.ReservedCount, newSlot.MaxCapacity)
		}
		if !newSlot.IsAvailable {
			return ErrSlotUnavailable
		}

		// Правила на дату нового слота; собственная бронь исключается
		// из подсчётов, чтобы не блокировать саму себя
		existing, err := s.reservationRepo.GetActiveByStudentAndDate(ctx, reservation.StudentID, newSlot.SlotDate)
		if err != nil {
			return err
		}
		for _, r := range existing {
			if r.ID != reservation.ID && r.SlotID == newSlotID {
				return ErrDuplicateReservation
			}
		}

		verdict := EvaluateBookingRules(RuleCandidate{
			TeacherID:            newSlot.TeacherID,
			SessionHalf:          newSlot.SessionHalf,
			ExcludeReservationID: reservation.ID,
		}, existing)
		if err := s.verdictErr(verdict); err != nil {
			return err
		}

		if err := s.slotRepo.DecrementReserved(ctx, reservation.SlotID); err != nil {
			return err
		}
		if err := s.slotRepo.IncrementReserved(ctx, newSlotID); err != nil {
			return err
		}
		if err := s.reservationRepo.UpdateSlot(ctx, reservationID, newSlotID); err != nil {
			return err
		}

		account, err := s.ticketRepo.GetByStudentID(ctx, reservation.StudentID)
		if err != nil {
			return err
		}

		reservation.SlotID = newSlotID
		reservation.Slot = newSlot
		result.Reservation = reservation
		if account != nil {
			result.TicketBalance = account.Balance
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	s.logger.Info("Reservation moved",
		zap.Int64("reservation_id", reservationID),
		zap.Int64("new_slot_id", newSlotID),
		zap.Int64("requester_id", requesterID),
	)

	return &result, nil
}

// CancelResult результат отмены
type CancelResult struct {
	TicketsRefunded int `json:"tickets_refunded"`
	TicketBalance   int `json:"ticket_balance"`
}

// Cancel отменяет активную бронь: освобождает место и возвращает билет
// (с обрезкой по потолку)
func (s *ReservationService) Cancel(ctx context.Context, reservationID, requesterID int64) (*CancelResult, error) {
	var result CancelResult

	err := s.tx.Serializable(ctx, func(ctx context.Context) error {
		reservation, err := s.reservationRepo.GetByIDForUpdate(ctx, reservationID)
		if err != nil {
			return err
		}
		if reservation == nil {
			return ErrReservationNotFound
		}
		if reservation.Status != model.ReservationStatusActive {
			return ErrReservationNotActive
		}

		if err := s.checkPermission(ctx, reservation, requesterID); err != nil {
			return err
		}

		if err := s.reservationRepo.UpdateStatus(ctx, reservationID, model.ReservationStatusCancelled); err != nil {
			return err
		}
		if err := s.slotRepo.DecrementReserved(ctx, reservation.SlotID); err != nil {
			return err
		}
		if err := s.ticketRepo.Credit(ctx, reservation.StudentID); err != nil {
			return err
		}

		account, err := s.ticketRepo.GetByStudentID(ctx, reservation.StudentID)
		if err != nil {
			return err
		}

		result.TicketsRefunded = 1
		if account != nil {
			result.TicketBalance = account.Balance
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	s.logger.Info("Reservation cancelled",
		zap.Int64("reservation_id", reservationID),
		zap.Int64("requester_id", requesterID),
	)

	return &result, nil
}

// Get получает бронь с проверкой прав доступа
func (s *ReservationService) Get(ctx context.Context, reservationID, requesterID int64) (*model.Reservation, error) {
	reservation, err := s.reservationRepo.GetByID(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if reservation == nil {
		return nil, ErrReservationNotFound
	}

	if err := s.checkPermission(ctx, reservation, requesterID); err != nil {
		return nil, err
	}

	return reservation, nil
}

// ListByStudent получает все брони студента
func (s *ReservationService) ListByStudent(ctx context.Context, studentID int64) ([]*model.Reservation, error) {
	return s.reservationRepo.GetByStudentID(ctx, studentID)
}

// ListSlots получает слоты на дату
func (s *ReservationService) ListSlots(ctx context.Context, date time.Time) ([]*model.Slot, error) {
	return s.slotRepo.GetByDate(ctx, date)
}

// TicketBalance получает баланс билетов студента
func (s *ReservationService) TicketBalance(ctx context.Context, studentID int64) (int, error) {
	account, err := s.ticketRepo.GetByStudentID(ctx, studentID)
	if err != nil {
		return 0, err
	}
	if account == nil {
		return 0, ErrStudentNotFound
	}
	return account.Balance, nil
}

// checkPermission проверяет что запрос делает владелец брони или админ
func (s *ReservationService) checkPermission(ctx context.Context, reservation *model.Reservation, requesterID int64) error {
	if reservation.StudentID == requesterID {
		return nil
	}

	requester, err := s.userRepo.GetByID(ctx, requesterID)
	if err != nil {
		return err
	}
	if requester == nil || !requester.IsAdmin() {
		return ErrInsufficientPermission
	}

	return nil
}

// verdictErr превращает вердикт правил в ошибку с подсчётами
func (s *ReservationService) verdictErr(verdict RuleVerdict) error {
	switch {
	case !verdict.DailyOK:
		return fmt.Errorf("%w: %d active reservations for the date", ErrDailyLimitExceeded, verdict.DailyCount)
	case !verdict.HalfOK:
		return fmt.Errorf("%w: %d reservations in the other half", ErrCrossSessionViolation, verdict.OtherHalfCount)
	case !verdict.TeacherOK:
		return fmt.Errorf("%w: %d reservations with this teacher", ErrTeacherLimitExceeded, verdict.TeacherCount)
	}
	return nil
}

// midnightOf полночь civil-даты date в таймзоне loc
func midnightOf(date time.Time, loc *time.Location) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
