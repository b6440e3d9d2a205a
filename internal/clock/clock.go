package clock

import (
	"sync"
	"time"
)

// Clock источник текущего времени. Внедряется зависимостью,
// чтобы все временные границы были детерминированно тестируемы.
type Clock interface {
	Now() time.Time
}

// System системные часы, привязанные к фиксированной civil-таймзоне
type System struct {
	loc *time.Location
}

// NewSystem создаёт системные часы в указанной таймзоне
func NewSystem(loc *time.Location) *System {
	if loc == nil {
		loc = time.Local
	}
	return &System{loc: loc}
}

// Now возвращает текущее время в civil-таймзоне
func (c *System) Now() time.Time {
	return time.Now().In(c.loc)
}

// Fixed управляемые часы для тестов
type Fixed struct {
	mu  sync.Mutex
	now time.Time
}

// NewFixed создаёт часы, остановленные на указанном моменте
func NewFixed(t time.Time) *Fixed {
	return &Fixed{now: t}
}

// Now возвращает установленный момент
func (c *Fixed) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set переводит часы на указанный момент
func (c *Fixed) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

// Advance сдвигает часы вперёд на указанную длительность
func (c *Fixed) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// Midnight обрезает момент до полуночи его civil-даты
func Midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// SameDay проверяет что два момента приходятся на одну civil-дату
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
