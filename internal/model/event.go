package model

import "time"

// EventKind тип события жизненного цикла бронирования
type EventKind string

const (
	EventRequested EventKind = "REQUESTED"
	EventApproved  EventKind = "APPROVED"
	EventRejected  EventKind = "REJECTED"
	EventCancelled EventKind = "CANCELLED"
)

// BookingEvent событие, рассылаемое наблюдателям
type BookingEvent struct {
	ID         string
	Kind       EventKind
	Booking    *Booking
	FieldName  string
	OccurredAt time.Time
}
