package model

import "time"

type Problem struct {
	ID                 int64     `json:"id"`
	Title              string    `json:"title"`
	PreviewLeadMinutes int       `json:"preview_lead_minutes"` // За сколько минут до начала открывается превью (0 = без превью)
	LimitMinutes       int       `json:"limit_minutes"`        // Длительность сессии по этой задаче
	IsActive           bool      `json:"is_active"`
	CreatedAt          time.Time `json:"created_at"`
}
