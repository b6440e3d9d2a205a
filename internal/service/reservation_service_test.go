package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mentora/booking_backend/internal/model"
)

func TestCreateReservation(t *testing.T) {
	env := newTestEnv(t)
	env.addStudent(1, 5)
	env.addSlot(10, 100, testDate, model.SessionHalfAM, nominalAt(10, 0), 3)

	result, err := env.reservations.Create(context.Background(), 1, 10)
	require.NoError(t, err)

	assert.Equal(t, model.ReservationStatusActive, result.Reservation.Status)
	assert.Equal(t, int64(10), result.Reservation.SlotID)
	assert.Equal(t, 4, result.TicketBalance)

	// Счётчик слота и баланс действительно изменились в хранилище
	assert.Equal(t, 1, env.store.slots[10].ReservedCount)
	assert.Equal(t, 4, env.store.tickets[1].Balance)
}

func TestCreateReservationSlotNotFound(t *testing.T) {
	env := newTestEnv(t)
	env.addStudent(1, 5)

	_, err := env.reservations.Create(context.Background(), 1, 99)
	assert.ErrorIs(t, err, ErrSlotNotFound)
}

func TestCreateReservationSlotFull(t *testing.T) {
	env := newTestEnv(t)
	env.addStudent(1, 5)
	env.addStudent(2, 5)
	env.addSlot(10, 100, testDate, model.SessionHalfAM, nominalAt(10, 0), 1)

	env.mustCreate(t, 1, 10)

	_, err := env.reservations.Create(context.Background(), 2, 10)
	assert.ErrorIs(t, err, ErrSlotFull)

	// Отказ ничего не мутирует
	assert.Equal(t, 5, env.store.tickets[2].Balance)
	assert.Equal(t, 1, env.store.slots[10].ReservedCount)
}

func TestCreateReservationSlotUnavailable(t *testing.T) {
	env := newTestEnv(t)
	env.addStudent(1, 5)
	env.addSlot(10, 100, testDate, model.SessionHalfAM, nominalAt(10, 0), 3)
	env.store.slots[10].IsAvailable = false

	_, err := env.reservations.Create(context.Background(), 1, 10)
	assert.ErrorIs(t, err, ErrSlotUnavailable)
}

func TestCreateReservationInsufficientTickets(t *testing.T) {
	env := newTestEnv(t)
	env.addStudent(1, 0)
	env.addSlot(10, 100, testDate, model.SessionHalfAM, nominalAt(10, 0), 3)

	_, err := env.reservations.Create(context.Background(), 1, 10)
	assert.ErrorIs(t, err, ErrInsufficientTickets)
	assert.Equal(t, 0, env.store.slots[10].ReservedCount)
}

func TestCreateReservationUnknownStudent(t *testing.T) {
	env := newTestEnv(t)
	env.addSlot(10, 100, testDate, model.SessionHalfAM, nominalAt(10, 0), 3)

	_, err := env.reservations.Create(context.Background(), 42, 10)
	assert.ErrorIs(t, err, ErrStudentNotFound)
}

func TestCreateReservationDuplicateSlot(t *testing.T) {
	env := newTestEnv(t)
	env.addStudent(1, 5)
	env.addSlot(10, 100, testDate, model.SessionHalfAM, nominalAt(10, 0), 3)

	env.mustCreate(t, 1, 10)

	_, err := env.reservations.Create(context.Background(), 1, 10)
	assert.ErrorIs(t, err, ErrDuplicateReservation)
}

func TestCreateReservationDailyLimit(t *testing.T) {
	env := newTestEnv(t)
	env.addStudent(1, 10)
	for i := int64(1); i <= 4; i++ {
		env.addSlot(i, 100+i, testDate, model.SessionHalfAM, nominalAt(9+int(i), 0), 3)
	}
	// Слот на следующий день
	env.addSlot(5, 105, testDate.AddDate(0, 0, 1), model.SessionHalfAM, nominalAt(10, 0).AddDate(0, 0, 1), 3)

	env.mustCreate(t, 1, 1)
	env.mustCreate(t, 1, 2)
	env.mustCreate(t, 1, 3)

	_, err := env.reservations.Create(context.Background(), 1, 4)
	assert.ErrorIs(t, err, ErrDailyLimitExceeded)

	// На другую дату лимит не действует
	_, err = env.reservations.Create(context.Background(), 1, 5)
	assert.NoError(t, err)
}

func TestCreateReservationCrossSession(t *testing.T) {
	env := newTestEnv(t)
	env.addStudent(1, 10)
	env.addSlot(1, 101, testDate, model.SessionHalfAM, nominalAt(10, 0), 3)
	env.addSlot(2, 102, testDate, model.SessionHalfPM, nominalAt(15, 0), 3)
	env.addSlot(3, 103, testDate, model.SessionHalfAM, nominalAt(11, 0), 3)

	env.mustCreate(t, 1, 1)

	_, err := env.reservations.Create(context.Background(), 1, 2)
	assert.ErrorIs(t, err, ErrCrossSessionViolation)

	// Вторая бронь в той же половине дня проходит
	_, err = env.reservations.Create(context.Background(), 1, 3)
	assert.NoError(t, err)
}

func TestCreateReservationTeacherLimit(t *testing.T) {
	env := newTestEnv(t)
	env.addStudent(1, 10)
	env.addSlot(1, 100, testDate, model.SessionHalfAM, nominalAt(9, 0), 3)
	env.addSlot(2, 100, testDate, model.SessionHalfAM, nominalAt(10, 0), 3)
	env.addSlot(3, 100, testDate, model.SessionHalfAM, nominalAt(11, 0), 3)
	env.addSlot(4, 200, testDate, model.SessionHalfAM, nominalAt(11, 0), 3)

	env.mustCreate(t, 1, 1)
	env.mustCreate(t, 1, 2)

	_, err := env.reservations.Create(context.Background(), 1, 3)
	assert.ErrorIs(t, err, ErrTeacherLimitExceeded)

	// С другим учителем проходит
	_, err = env.reservations.Create(context.Background(), 1, 4)
	assert.NoError(t, err)
}

func TestCancelReservationRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	env.addStudent(1, 5)
	env.addSlot(10, 100, testDate, model.SessionHalfAM, nominalAt(10, 0), 3)

	reservation := env.mustCreate(t, 1, 10)
	require.Equal(t, 4, env.store.tickets[1].Balance)

	result, err := env.reservations.Cancel(context.Background(), reservation.ID, 1)
	require.NoError(t, err)

	// Создание и отмена возвращают ровно исходный баланс
	assert.Equal(t, 1, result.TicketsRefunded)
	assert.Equal(t, 5, result.TicketBalance)
	assert.Equal(t, 0, env.store.slots[10].ReservedCount)
	assert.Equal(t, model.ReservationStatusCancelled, env.store.reservations[reservation.ID].Status)
}

func TestCancelRefundClampedAtCeiling(t *testing.T) {
	env := newTestEnv(t)
	env.addStudent(1, 10)
	env.addSlot(10, 100, testDate, model.SessionHalfAM, nominalAt(10, 0), 3)

	reservation := env.mustCreate(t, 1, 10)
	// Внешнее начисление вернуло баланс на потолок
	env.store.tickets[1].Balance = model.MaxTickets

	result, err := env.reservations.Cancel(context.Background(), reservation.ID, 1)
	require.NoError(t, err)

	assert.Equal(t, model.MaxTickets, result.TicketBalance)
}

func TestCancelPermissions(t *testing.T) {
	env := newTestEnv(t)
	env.addStudent(1, 5)
	env.addStudent(2, 5)
	env.addAdmin(99)
	env.addSlot(10, 100, testDate, model.SessionHalfAM, nominalAt(10, 0), 3)

	reservation := env.mustCreate(t, 1, 10)

	// Чужой студент не может отменить
	_, err := env.reservations.Cancel(context.Background(), reservation.ID, 2)
	assert.ErrorIs(t, err, ErrInsufficientPermission)

	// Админ может
	_, err = env.reservations.Cancel(context.Background(), reservation.ID, 99)
	assert.NoError(t, err)

	// Повторная отмена — уже не активна
	_, err = env.reservations.Cancel(context.Background(), reservation.ID, 1)
	assert.ErrorIs(t, err, ErrReservationNotActive)
}

func TestCancelNotFound(t *testing.T) {
	env := newTestEnv(t)
	env.addStudent(1, 5)

	_, err := env.reservations.Cancel(context.Background(), 404, 1)
	assert.ErrorIs(t, err, ErrReservationNotFound)
}

func TestModifyReservation(t *testing.T) {
	env := newTestEnv(t)
	env.addStudent(1, 5)
	env.addSlot(10, 100, testDate, model.SessionHalfAM, nominalAt(10, 0), 3)
	env.addSlot(20, 100, testDate, model.SessionHalfAM, nominalAt(11, 0), 3)

	reservation := env.mustCreate(t, 1, 10)
	balanceAfterCreate := env.store.tickets[1].Balance

	result, err := env.reservations.Modify(context.Background(), reservation.ID, 20, 1)
	require.NoError(t, err)

	assert.Equal(t, int64(20), result.Reservation.SlotID)
	assert.Equal(t, 0, env.store.slots[10].ReservedCount)
	assert.Equal(t, 1, env.store.slots[20].ReservedCount)
	// Перенос не двигает билеты
	assert.Equal(t, balanceAfterCreate, env.store.tickets[1].Balance)
}

func TestModifyDoesNotSelfBlock(t *testing.T) {
	env := newTestEnv(t)
	env.addStudent(1, 5)
	// Единственная бронь дня — перенос AM→PM не должен спотыкаться
	// об эксклюзивность половин из-за самой переносимой брони
	env.addSlot(10, 100, testDate, model.SessionHalfAM, nominalAt(10, 0), 3)
	env.addSlot(20, 100, testDate, model.SessionHalfPM, nominalAt(15, 0), 3)

	reservation := env.mustCreate(t, 1, 10)

	result, err := env.reservations.Modify(context.Background(), reservation.ID, 20, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(20), result.Reservation.SlotID)
}

func TestModifySameSlotReportsBalance(t *testing.T) {
	env := newTestEnv(t)
	env.addStudent(1, 5)
	env.addSlot(10, 100, testDate, model.SessionHalfAM, nominalAt(10, 0), 3)

	reservation := env.mustCreate(t, 1, 10)

	// Перенос на тот же слот — no-op, но баланс в ответе настоящий
	result, err := env.reservations.Modify(context.Background(), reservation.ID, 10, 1)
	require.NoError(t, err)

	assert.Equal(t, int64(10), result.Reservation.SlotID)
	assert.Equal(t, 4, result.TicketBalance)
	assert.Equal(t, 1, env.store.slots[10].ReservedCount)
}

func TestModifyWindowClosed(t *testing.T) {
	env := newTestEnv(t)
	env.addStudent(1, 5)
	env.addSlot(10, 100, testDate, model.SessionHalfAM, nominalAt(10, 0), 3)
	env.addSlot(20, 100, testDate, model.SessionHalfAM, nominalAt(11, 0), 3)

	reservation := env.mustCreate(t, 1, 10)

	// Полночь даты слота: окно переноса уже закрыто
	env.clk.Set(time.Date(2026, 4, 6, 0, 0, 0, 0, testLoc))

	_, err := env.reservations.Modify(context.Background(), reservation.ID, 20, 1)
	assert.ErrorIs(t, err, ErrModifyWindowClosed)

	// За секунду до полуночи — ещё можно
	env.clk.Set(time.Date(2026, 4, 5, 23, 59, 59, 0, testLoc))
	_, err = env.reservations.Modify(context.Background(), reservation.ID, 20, 1)
	assert.NoError(t, err)
}

func TestModifyToFullSlot(t *testing.T) {
	env := newTestEnv(t)
	env.addStudent(1, 5)
	env.addStudent(2, 5)
	env.addSlot(10, 100, testDate, model.SessionHalfAM, nominalAt(10, 0), 3)
	env.addSlot(20, 100, testDate, model.SessionHalfAM, nominalAt(11, 0), 1)

	env.mustCreate(t, 2, 20)
	reservation := env.mustCreate(t, 1, 10)

	_, err := env.reservations.Modify(context.Background(), reservation.ID, 20, 1)
	assert.ErrorIs(t, err, ErrSlotFull)

	// Исходный слот не тронут
	assert.Equal(t, 1, env.store.slots[10].ReservedCount)
}

func TestConcurrentCreateLastSeat(t *testing.T) {
	env := newTestEnv(t)
	env.addSlot(10, 100, testDate, model.SessionHalfAM, nominalAt(10, 0), 1)

	const bookers = 8
	for i := int64(1); i <= bookers; i++ {
		env.addStudent(i, 5)
	}

	var wg sync.WaitGroup
	errs := make([]error, bookers)

	for i := 0; i < bookers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.reservations.Create(context.Background(), int64(i+1), 10)
		}(i)
	}
	wg.Wait()

	// Ровно один успех, остальные — SlotFull
	var successes, fulls int
	for _, err := range errs {
		switch {
		case err == nil:
			successes++
		default:
			assert.ErrorIs(t, err, ErrSlotFull)
			fulls++
		}
	}

	assert.Equal(t, 1, successes)
	assert.Equal(t, bookers-1, fulls)
	assert.Equal(t, 1, env.store.slots[10].ReservedCount)

	// Билет списан только у победителя
	var debited int
	for i := int64(1); i <= bookers; i++ {
		if env.store.tickets[i].Balance == 4 {
			debited++
		} else {
			assert.Equal(t, 5, env.store.tickets[i].Balance)
		}
	}
	assert.Equal(t, 1, debited)
}
