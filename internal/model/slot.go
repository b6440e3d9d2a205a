package model

import "time"

type SessionHalf string

const (
	SessionHalfAM SessionHalf = "AM" // Утренняя половина дня
	SessionHalfPM SessionHalf = "PM" // Вечерняя половина дня
)

// Other возвращает противоположную половину дня
func (h SessionHalf) Other() SessionHalf {
	if h == SessionHalfAM {
		return SessionHalfPM
	}
	return SessionHalfAM
}

type Slot struct {
	ID            int64       `json:"id"`
	TeacherID     int64       `json:"teacher_id"`
	SlotDate      time.Time   `json:"slot_date"`      // Дата (только день, civil time)
	SessionHalf   SessionHalf `json:"session_half"`   // AM или PM
	NominalTime   time.Time   `json:"nominal_time"`   // Номинальное время начала сессии
	MaxCapacity   int         `json:"max_capacity"`   // Максимум студентов в слоте
	ReservedCount int         `json:"reserved_count"` // Текущее количество активных броней
	IsAvailable   bool        `json:"is_available"`   // Учитель может закрыть слот (перерыв)
	CreatedAt     time.Time   `json:"created_at"`
}

// HasFreeSeat проверяет есть ли свободное место в слоте
func (s *Slot) HasFreeSeat() bool {
	return s.ReservedCount < s.MaxCapacity
}
