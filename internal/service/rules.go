package service

import (
	"github.com/mentora/booking_backend/internal/model"
)

// Лимиты правил бронирования
const (
	// DailyReservationLimit максимум активных броней студента на одну дату
	DailyReservationLimit = 3
	// TeacherReservationLimit максимум активных броней студента у одного учителя на дату
	TeacherReservationLimit = 2
)

// RuleCandidate кандидат на бронирование: куда студент хочет записаться
type RuleCandidate struct {
	TeacherID   int64
	SessionHalf model.SessionHalf
	// ExcludeReservationID бронь, исключаемая из подсчётов (при переносе
	// бронь не должна блокировать сама себя). 0 — ничего не исключать.
	ExcludeReservationID int64
}

// RuleVerdict результат проверки правил с подсчётами по каждому правилу.
// Подсчёты нужны вызывающим для точных сообщений об отказе.
type RuleVerdict struct {
	DailyCount     int  // Сколько активных броней уже есть на эту дату
	DailyOK        bool // Дневной лимит не превышен
	OtherHalfCount int  // Сколько броней в противоположной половине дня
	HalfOK         bool // Эксклюзивность AM/PM не нарушена
	TeacherCount   int  // Сколько броней у того же учителя на эту дату
	TeacherOK      bool // Лимит по учителю не превышен
}

// Allowed проверяет что все три правила прошли
func (v RuleVerdict) Allowed() bool {
	return v.DailyOK && v.HalfOK && v.TeacherOK
}

// Err возвращает ошибку первого нарушенного правила
// в порядке: дневной лимит, эксклюзивность половины дня, лимит учителя
func (v RuleVerdict) Err() error {
	switch {
	case !v.DailyOK:
		return ErrDailyLimitExceeded
	case !v.HalfOK:
		return ErrCrossSessionViolation
	case !v.TeacherOK:
		return ErrTeacherLimitExceeded
	}
	return nil
}

// EvaluateBookingRules проверяет правила бронирования для кандидата.
// Чистая функция: existing — активные брони студента на дату кандидата
// (со слотами), никакого скрытого состояния. Первая бронь дня фиксирует
// половину дня для всей даты.
func EvaluateBookingRules(candidate RuleCandidate, existing []*model.Reservation) RuleVerdict {
	var verdict RuleVerdict

	for _, reservation := range existing {
		if candidate.ExcludeReservationID != 0 && reservation.ID == candidate.ExcludeReservationID {
			continue
		}
		if reservation.Status != model.ReservationStatusActive || reservation.Slot == nil {
			continue
		}

		verdict.DailyCount++

		if reservation.Slot.SessionHalf != candidate.SessionHalf {
			verdict.OtherHalfCount++
		}

		if reservation.Slot.TeacherID == candidate.TeacherID {
			verdict.TeacherCount++
		}
	}

	verdict.DailyOK = verdict.DailyCount+1 <= DailyReservationLimit
	verdict.HalfOK = verdict.OtherHalfCount == 0
	verdict.TeacherOK = verdict.TeacherCount+1 <= TeacherReservationLimit

	return verdict
}
