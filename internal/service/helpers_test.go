package service

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/mentora/booking_backend/internal/clock"
	"github.com/mentora/booking_backend/internal/model"
)

// Civil-таймзона тестов
var testLoc = time.FixedZone("KST", 9*60*60)

// baseTestTime отправная точка для created_at в memStore
var baseTestTime = time.Date(2026, 4, 1, 0, 0, 0, 0, testLoc)

// testDate дата слотов в большинстве тестов
var testDate = time.Date(2026, 4, 6, 0, 0, 0, 0, time.UTC)

// testNow канун testDate: брони ещё можно создавать и переносить
var testNow = time.Date(2026, 4, 5, 12, 0, 0, 0, testLoc)

type testEnv struct {
	store        *memStore
	clk          *clock.Fixed
	reservations *ReservationService
	sessions     *SessionService
	queue        *QueueResolver
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := newMemStore()
	clk := clock.NewFixed(testNow)
	queue := NewQueueResolver(store.reservationRepo())

	reservations := NewReservationService(
		store, store, store.reservationRepo(), store.ticketRepo(), store.userRepo(), clk, zap.NewNop(),
	)
	sessions := NewSessionService(
		store, store.reservationRepo(), store, store.sessionRepo(), store.problemRepo(), store.userRepo(),
		queue, clk, 10*time.Minute, zap.NewNop(),
	)

	return &testEnv{
		store:        store,
		clk:          clk,
		reservations: reservations,
		sessions:     sessions,
		queue:        queue,
	}
}

func (e *testEnv) addStudent(id int64, balance int) {
	e.store.users[id] = &model.User{ID: id, Name: "student", Role: model.UserRoleStudent}
	e.store.tickets[id] = &model.TicketAccount{StudentID: id, Balance: balance}
}

func (e *testEnv) addAdmin(id int64) {
	e.store.users[id] = &model.User{ID: id, Name: "admin", Role: model.UserRoleAdmin}
}

func (e *testEnv) addSlot(id, teacherID int64, date time.Time, half model.SessionHalf, nominal time.Time, capacity int) {
	e.store.slots[id] = &model.Slot{
		ID:          id,
		TeacherID:   teacherID,
		SlotDate:    date,
		SessionHalf: half,
		NominalTime: nominal,
		MaxCapacity: capacity,
		IsAvailable: true,
	}
}

func (e *testEnv) addProblem(id int64, leadMinutes, limitMinutes int) {
	e.store.problems[id] = &model.Problem{
		ID:                 id,
		Title:              "problem",
		PreviewLeadMinutes: leadMinutes,
		LimitMinutes:       limitMinutes,
		IsActive:           true,
	}
}

// nominalAt номинальное время на testDate в civil-таймзоне
func nominalAt(hour, minute int) time.Time {
	return time.Date(2026, 4, 6, hour, minute, 0, 0, testLoc)
}

func (e *testEnv) mustCreate(t *testing.T, studentID, slotID int64) *model.Reservation {
	t.Helper()

	result, err := e.reservations.Create(context.Background(), studentID, slotID)
	if err != nil {
		t.Fatalf("create reservation: %v", err)
	}
	return result.Reservation
}
