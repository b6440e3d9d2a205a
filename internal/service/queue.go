package service

import "context"

// QueueResolver вычисляет позицию брони в очереди слота.
// Позиция никогда не хранится: отмены сдвигают её, поэтому
// она выводится заново при каждом обращении.
type QueueResolver struct {
	reservationRepo ReservationStore
}

// NewQueueResolver создаёт новый резолвер очереди
func NewQueueResolver(reservationRepo ReservationStore) *QueueResolver {
	return &QueueResolver{reservationRepo: reservationRepo}
}

// Resolve возвращает позицию брони (с единицы) среди активных броней
// слота в порядке создания. Отсутствие в очереди — ErrNotInQueue.
func (q *QueueResolver) Resolve(ctx context.Context, slotID, reservationID int64) (int, error) {
	reservations, err := q.reservationRepo.GetActiveBySlot(ctx, slotID)
	if err != nil {
		return 0, err
	}

	for i, reservation := range reservations {
		if reservation.ID == reservationID {
			return i + 1, nil
		}
	}

	return 0, ErrNotInQueue
}
