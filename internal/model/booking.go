package model

import "time"

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "PENDING"   // Ожидает решения менеджера
	BookingStatusConfirmed BookingStatus = "CONFIRMED" // Подтверждено
	BookingStatusRejected  BookingStatus = "REJECTED"  // Отклонено менеджером
	BookingStatusCancelled BookingStatus = "CANCELLED" // Отменено заявителем
	BookingStatusCompleted BookingStatus = "COMPLETED" // Завершено
)

// Valid проверяет что статус известен
func (s BookingStatus) Valid() bool {
	_, ok := transitions[s]
	return ok
}

type BookingType string

const (
	BookingTypeMatch   BookingType = "MATCH_BOOKING"
	BookingTypePrivate BookingType = "PRIVATE_BOOKING"
)

// Valid проверяет что тип известен
func (t BookingType) Valid() bool {
	return t == BookingTypeMatch || t == BookingTypePrivate
}

// transitions таблица допустимых переходов
var transitions = map[BookingStatus][]BookingStatus{
	BookingStatusPending:   {BookingStatusConfirmed, BookingStatusRejected, BookingStatusCancelled},
	BookingStatusConfirmed: {BookingStatusCancelled, BookingStatusCompleted},
	BookingStatusRejected:  nil,
	BookingStatusCancelled: nil,
	BookingStatusCompleted: nil,
}

// CanTransition проверяет переход по таблице состояний
func CanTransition(from, to BookingStatus) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Booking заявка на бронирование поля.
// Статус меняется только через TransitionTo; HydrateStatus используют репозитории
// при восстановлении сущности из хранилища.
type Booking struct {
	ID                int64
	FieldID           int64
	RequesterUsername string
	Date              time.Time
	StartTime         Clock
	EndTime           Clock
	Type              BookingType
	TotalPrice        *float64
	RequestedAt       time.Time
	ConfirmedAt       *time.Time
	RejectionReason   *string

	status BookingStatus
}

// NewBooking создаёт заявку в статусе PENDING
func NewBooking(fieldID int64, requester string, date time.Time, start, end Clock, bookingType BookingType, requestedAt time.Time) *Booking {
	return &Booking{
		FieldID:           fieldID,
		RequesterUsername: requester,
		Date:              DateOf(date),
		StartTime:         start,
		EndTime:           end,
		Type:              bookingType,
		RequestedAt:       requestedAt,
		status:            BookingStatusPending,
	}
}

// Status текущий статус бронирования
func (b *Booking) Status() BookingStatus {
	return b.status
}

// IsNew сообщает что бронирование ещё не сохранялось
func (b *Booking) IsNew() bool {
	return b.ID == 0
}

// CanTransitionTo проверяет переход из текущего статуса
func (b *Booking) CanTransitionTo(to BookingStatus) bool {
	return CanTransition(b.status, to)
}

// TransitionTo выполняет переход. Вход в CONFIRMED проставляет ConfirmedAt.
func (b *Booking) TransitionTo(to BookingStatus, now time.Time) error {
	if !b.CanTransitionTo(to) {
		return &TransitionError{From: b.status, To: to}
	}

	b.status = to
	if to == BookingStatusConfirmed {
		confirmedAt := now
		b.ConfirmedAt = &confirmedAt
	}
	return nil
}

// HydrateStatus выставляет статус без проверки истории.
// Только для слоя хранения: загрузка не является переходом.
func (b *Booking) HydrateStatus(status BookingStatus) {
	b.status = status
}

// IsCancellable можно ли отменить бронирование
func (b *Booking) IsCancellable() bool {
	return b.status == BookingStatusPending || b.status == BookingStatusConfirmed
}

// IsPending ожидает ли бронирование решения
func (b *Booking) IsPending() bool {
	return b.status == BookingStatusPending
}

// DurationHours длительность в часах
func (b *Booking) DurationHours() float64 {
	return b.EndTime.Sub(b.StartTime).Hours()
}

// ApplyRate рассчитывает итоговую стоимость по почасовой ставке
func (b *Booking) ApplyRate(pricePerHour float64) {
	total := pricePerHour * b.DurationHours()
	b.TotalPrice = &total
}

// EndsAt момент окончания бронирования
func (b *Booking) EndsAt() time.Time {
	return b.EndTime.On(b.Date)
}

// Clone возвращает независимую копию
func (b *Booking) Clone() *Booking {
	c := *b
	if b.TotalPrice != nil {
		v := *b.TotalPrice
		c.TotalPrice = &v
	}
	if b.ConfirmedAt != nil {
		v := *b.ConfirmedAt
		c.ConfirmedAt = &v
	}
	if b.RejectionReason != nil {
		v := *b.RejectionReason
		c.RejectionReason = &v
	}
	return &c
}
