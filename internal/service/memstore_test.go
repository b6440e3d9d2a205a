package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mentora/booking_backend/internal/model"
)

// memStore реализация хранилища в памяти для тестов сервисов.
// Serializable держит общий мьютекс (сериализация конкурентных операций)
// и откатывает снимок состояния при ошибке — атомарность как у БД.
type memStore struct {
	mu sync.Mutex

	slots        map[int64]*model.Slot
	reservations map[int64]*model.Reservation
	tickets      map[int64]*model.TicketAccount
	sessions     map[int64]*model.Session
	problems     map[int64]*model.Problem
	users        map[int64]*model.User

	nextReservationID int64
	nextSessionID     int64

	// Монотонный счётчик для created_at: порядок вставки = порядок очереди
	seq int64
}

func newMemStore() *memStore {
	return &memStore{
		slots:        make(map[int64]*model.Slot),
		reservations: make(map[int64]*model.Reservation),
		tickets:      make(map[int64]*model.TicketAccount),
		sessions:     make(map[int64]*model.Session),
		problems:     make(map[int64]*model.Problem),
		users:        make(map[int64]*model.User),
	}
}

// Serializable — TxRunner поверх общего мьютекса со снимком-откатом
func (m *memStore) Serializable(ctx context.Context, fn func(ctx context.Context) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.snapshot()
	if err := fn(ctx); err != nil {
		m.restore(snapshot)
		return err
	}
	return nil
}

type memSnapshot struct {
	slots        map[int64]*model.Slot
	reservations map[int64]*model.Reservation
	tickets      map[int64]*model.TicketAccount
	sessions     map[int64]*model.Session
}

func (m *memStore) snapshot() memSnapshot {
	s := memSnapshot{
		slots:        make(map[int64]*model.Slot, len(m.slots)),
		reservations: make(map[int64]*model.Reservation, len(m.reservations)),
		tickets:      make(map[int64]*model.TicketAccount, len(m.tickets)),
		sessions:     make(map[int64]*model.Session, len(m.sessions)),
	}
	for id, slot := range m.slots {
		c := *slot
		s.slots[id] = &c
	}
	for id, r := range m.reservations {
		c := *r
		c.Slot = nil
		s.reservations[id] = &c
	}
	for id, t := range m.tickets {
		c := *t
		s.tickets[id] = &c
	}
	for id, sess := range m.sessions {
		c := *sess
		s.sessions[id] = &c
	}
	return s
}

func (m *memStore) restore(s memSnapshot) {
	m.slots = s.slots
	m.reservations = s.reservations
	m.tickets = s.tickets
	m.sessions = s.sessions
}

// --- SlotStore ---

func (m *memStore) GetByID(ctx context.Context, id int64) (*model.Slot, error) {
	slot, ok := m.slots[id]
	if !ok {
		return nil, nil
	}
	c := *slot
	return &c, nil
}

func (m *memStore) GetByIDForUpdate(ctx context.Context, id int64) (*model.Slot, error) {
	return m.GetByID(ctx, id)
}

func (m *memStore) GetByDate(ctx context.Context, date time.Time) ([]*model.Slot, error) {
	var slots []*model.Slot
	for _, slot := range m.slots {
		if sameDate(slot.SlotDate, date) {
			c := *slot
			slots = append(slots, &c)
		}
	}
	return slots, nil
}

func (m *memStore) IncrementReserved(ctx context.Context, slotID int64) error {
	slot, ok := m.slots[slotID]
	if !ok {
		return fmt.Errorf("slot not found")
	}
	if slot.ReservedCount >= slot.MaxCapacity || !slot.IsAvailable {
		return fmt.Errorf("slot is full or unavailable")
	}
	slot.ReservedCount++
	return nil
}

func (m *memStore) DecrementReserved(ctx context.Context, slotID int64) error {
	slot, ok := m.slots[slotID]
	if !ok || slot.ReservedCount <= 0 {
		return fmt.Errorf("slot not found or empty")
	}
	slot.ReservedCount--
	return nil
}

// --- ReservationStore ---

// reservationStore отдельный тип: имена методов SlotStore и
// ReservationStore пересекаются (GetByID)
type reservationStore struct{ *memStore }

func (m *memStore) reservationRepo() *reservationStore { return &reservationStore{m} }

func (r *reservationStore) Create(ctx context.Context, reservation *model.Reservation) error {
	r.nextReservationID++
	r.seq++
	reservation.ID = r.nextReservationID
	reservation.CreatedAt = baseTestTime.Add(time.Duration(r.seq) * time.Millisecond)
	reservation.UpdatedAt = reservation.CreatedAt

	c := *reservation
	c.Slot = nil
	r.reservations[c.ID] = &c
	return nil
}

func (r *reservationStore) GetByID(ctx context.Context, id int64) (*model.Reservation, error) {
	reservation, ok := r.reservations[id]
	if !ok {
		return nil, nil
	}
	c := *reservation
	return &c, nil
}

func (r *reservationStore) GetByIDForUpdate(ctx context.Context, id int64) (*model.Reservation, error) {
	return r.GetByID(ctx, id)
}

func (r *reservationStore) GetActiveByStudentAndDate(ctx context.Context, studentID int64, date time.Time) ([]*model.Reservation, error) {
	var out []*model.Reservation
	for _, reservation := range r.reservations {
		if reservation.StudentID != studentID || reservation.Status != model.ReservationStatusActive {
			continue
		}
		slot, ok := r.slots[reservation.SlotID]
		if !ok || !sameDate(slot.SlotDate, date) {
			continue
		}
		c := *reservation
		slotCopy := *slot
		c.Slot = &slotCopy
		out = append(out, &c)
	}
	return out, nil
}

func (r *reservationStore) GetActiveBySlot(ctx context.Context, slotID int64) ([]*model.Reservation, error) {
	var out []*model.Reservation
	for _, reservation := range r.reservations {
		if reservation.SlotID != slotID || reservation.Status != model.ReservationStatusActive {
			continue
		}
		c := *reservation
		out = append(out, &c)
	}
	// Порядок очереди: created_at, затем id
	for i := 1; i < len(out); i++ {
		for j := i; j > 0; j-- {
			a, b := out[j-1], out[j]
			if a.CreatedAt.After(b.CreatedAt) || (a.CreatedAt.Equal(b.CreatedAt) && a.ID > b.ID) {
				out[j-1], out[j] = b, a
			}
		}
	}
	return out, nil
}

func (r *reservationStore) GetByStudentID(ctx context.Context, studentID int64) ([]*model.Reservation, error) {
	var out []*model.Reservation
	for _, reservation := range r.reservations {
		if reservation.StudentID == studentID {
			c := *reservation
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *reservationStore) UpdateStatus(ctx context.Context, id int64, status model.ReservationStatus) error {
	reservation, ok := r.reservations[id]
	if !ok {
		return fmt.Errorf("reservation not found")
	}
	reservation.Status = status
	return nil
}

func (r *reservationStore) UpdateSlot(ctx context.Context, id, newSlotID int64) error {
	reservation, ok := r.reservations[id]
	if !ok {
		return fmt.Errorf("reservation not found")
	}
	reservation.SlotID = newSlotID
	return nil
}

func (r *reservationStore) SetProblemSelected(ctx context.Context, id int64) error {
	reservation, ok := r.reservations[id]
	if !ok {
		return fmt.Errorf("reservation not found")
	}
	reservation.ProblemSelected = true
	return nil
}

// --- TicketStore ---

type ticketStore struct{ *memStore }

func (m *memStore) ticketRepo() *ticketStore { return &ticketStore{m} }

func (t *ticketStore) GetByStudentID(ctx context.Context, studentID int64) (*model.TicketAccount, error) {
	account, ok := t.tickets[studentID]
	if !ok {
		return nil, nil
	}
	c := *account
	return &c, nil
}

func (t *ticketStore) GetByStudentIDForUpdate(ctx context.Context, studentID int64) (*model.TicketAccount, error) {
	return t.GetByStudentID(ctx, studentID)
}

func (t *ticketStore) Debit(ctx context.Context, studentID int64) error {
	account, ok := t.tickets[studentID]
	if !ok || account.Balance <= 0 {
		return fmt.Errorf("insufficient ticket balance")
	}
	account.Balance--
	return nil
}

func (t *ticketStore) Credit(ctx context.Context, studentID int64) error {
	account, ok := t.tickets[studentID]
	if !ok {
		return fmt.Errorf("ticket account not found")
	}
	if account.Balance < model.MaxTickets {
		account.Balance++
	}
	return nil
}

// --- SessionStore ---

type sessionStore struct{ *memStore }

func (m *memStore) sessionRepo() *sessionStore { return &sessionStore{m} }

func (s *sessionStore) Create(ctx context.Context, session *model.Session) error {
	for _, existing := range s.sessions {
		if existing.ReservationID == session.ReservationID {
			return fmt.Errorf("session already exists")
		}
	}
	s.nextSessionID++
	session.ID = s.nextSessionID
	c := *session
	s.sessions[c.ID] = &c
	return nil
}

func (s *sessionStore) GetByReservationID(ctx context.Context, reservationID int64) (*model.Session, error) {
	for _, session := range s.sessions {
		if session.ReservationID == reservationID {
			c := *session
			return &c, nil
		}
	}
	return nil, nil
}

func (s *sessionStore) Complete(ctx context.Context, id int64, completedAt time.Time) (bool, error) {
	session, ok := s.sessions[id]
	if !ok {
		return false, fmt.Errorf("session not found")
	}
	if session.Status == model.SessionStatusCompleted {
		return false, nil
	}
	session.Status = model.SessionStatusCompleted
	at := completedAt
	session.CompletedAt = &at
	return true, nil
}

func (s *sessionStore) CompleteOverdue(ctx context.Context, now time.Time) (int64, error) {
	var closed int64
	for _, session := range s.sessions {
		if session.Status == model.SessionStatusCompleted {
			continue
		}
		problem, ok := s.problems[session.ProblemID]
		if !ok {
			continue
		}
		end := session.StartedAt.Add(time.Duration(problem.LimitMinutes) * time.Minute)
		if !end.After(now) {
			session.Status = model.SessionStatusCompleted
			at := end
			session.CompletedAt = &at
			closed++
		}
	}
	return closed, nil
}

// --- ProblemStore ---

type problemStore struct{ *memStore }

func (m *memStore) problemRepo() *problemStore { return &problemStore{m} }

func (p *problemStore) GetByID(ctx context.Context, id int64) (*model.Problem, error) {
	problem, ok := p.problems[id]
	if !ok {
		return nil, nil
	}
	c := *problem
	return &c, nil
}

func (p *problemStore) GetActive(ctx context.Context) ([]*model.Problem, error) {
	var out []*model.Problem
	for _, problem := range p.problems {
		if problem.IsActive {
			c := *problem
			out = append(out, &c)
		}
	}
	return out, nil
}

// --- UserStore ---

type userStore struct{ *memStore }

func (m *memStore) userRepo() *userStore { return &userStore{m} }

func (u *userStore) GetByID(ctx context.Context, id int64) (*model.User, error) {
	user, ok := u.users[id]
	if !ok {
		return nil, nil
	}
	c := *user
	return &c, nil
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
