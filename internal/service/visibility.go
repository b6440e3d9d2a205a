package service

import "time"

// VisibilityState дискретная фаза показа задачи вокруг расчётного старта.
// Переходы только вперёд: время не движется назад, внешней отмены нет.
type VisibilityState string

const (
	StateBeforePreview  VisibilityState = "before_preview"  // До открытия превью
	StatePreviewOpen    VisibilityState = "preview_open"    // Превью открыто
	StateWaitingRoom    VisibilityState = "waiting_room"    // Зал ожидания, задача снова скрыта
	StateInterviewReady VisibilityState = "interview_ready" // Сессия идёт
	StateSessionClosed  VisibilityState = "session_closed"  // Окно закрыто
)

// WaitingRoomWindow за сколько минут до старта задача скрывается снова.
// Окно скрытия перед самым началом мешает делиться задачей в живой очереди.
const WaitingRoomWindow = 5 * time.Minute

// Visibility состояние машины и флаг показа содержимого задачи
type Visibility struct {
	State          VisibilityState `json:"state"`
	CanShowProblem bool            `json:"can_show_problem"`
}

// ComputeVisibility вычисляет состояние видимости на момент now.
// Правила проверяются по порядку, срабатывает первое подходящее —
// прямое сравнение интервалов, никакого деления на ширину окна.
// При previewLead = 0 превью не настроено вовсе: граница before_preview
// отодвигается к началу зала ожидания, последние пять минут перед
// стартом всё равно проходят через waiting_room.
func ComputeVisibility(scheduledStartAt time.Time, previewLead, sessionDuration time.Duration, now time.Time) Visibility {
	previewOpensAt := scheduledStartAt.Add(-previewLead)
	if previewLead == 0 {
		previewOpensAt = scheduledStartAt.Add(-WaitingRoomWindow)
	}

	var state VisibilityState

	switch {
	case !now.Before(scheduledStartAt.Add(sessionDuration)):
		state = StateSessionClosed
	case now.Before(previewOpensAt):
		state = StateBeforePreview
	case now.Before(scheduledStartAt.Add(-WaitingRoomWindow)):
		state = StatePreviewOpen
	case now.Before(scheduledStartAt):
		state = StateWaitingRoom
	default:
		state = StateInterviewReady
	}

	return Visibility{
		State:          state,
		CanShowProblem: canShow(state),
	}
}

func canShow(state VisibilityState) bool {
	switch state {
	case StatePreviewOpen, StateInterviewReady, StateSessionClosed:
		return true
	}
	return false
}

// ScheduledStartAt расчётный персональный старт: номинальное время слота
// плюс смещение по позиции в очереди
func ScheduledStartAt(nominalTime time.Time, queuePosition int, sessionDuration time.Duration) time.Time {
	return nominalTime.Add(time.Duration(queuePosition-1) * sessionDuration)
}
