package model

import "time"

type SlotStatus string

const (
	SlotStatusAvailable SlotStatus = "AVAILABLE"
	SlotStatusBooked    SlotStatus = "BOOKED"
	SlotStatusBlocked   SlotStatus = "BLOCKED"
)

// TimeSlot окно доступности поля.
// Шаблон недельного расписания: BookingDate == nil, задан DayOfWeek.
// Конкретное вхождение: BookingDate задан, DayOfWeek совпадает с днём недели даты.
type TimeSlot struct {
	ID          int64
	FieldID     int64
	DayOfWeek   time.Weekday
	BookingDate *time.Time
	StartTime   Clock
	EndTime     Clock
	Status      SlotStatus
	BookingID   *int64
}

// NewWeeklySlot создаёт свободный шаблонный слот
func NewWeeklySlot(fieldID int64, day time.Weekday, start, end Clock) *TimeSlot {
	return &TimeSlot{
		FieldID:   fieldID,
		DayOfWeek: day,
		StartTime: start,
		EndTime:   end,
		Status:    SlotStatusAvailable,
	}
}

// NewDatedSlot создаёт конкретный слот на дату
func NewDatedSlot(fieldID int64, date time.Time, start, end Clock, status SlotStatus) *TimeSlot {
	d := DateOf(date)
	return &TimeSlot{
		FieldID:     fieldID,
		DayOfWeek:   d.Weekday(),
		BookingDate: &d,
		StartTime:   start,
		EndTime:     end,
		Status:      status,
	}
}

// SetBookingID привязывает бронирование; статус выводится из наличия ID
func (s *TimeSlot) SetBookingID(bookingID *int64) {
	s.BookingID = bookingID
	if bookingID != nil {
		s.Status = SlotStatusBooked
	} else {
		s.Status = SlotStatusAvailable
	}
}

// IsTemplate является ли слот шаблоном недельного расписания
func (s *TimeSlot) IsTemplate() bool {
	return s.BookingDate == nil
}

// IsAvailable свободен ли слот
func (s *TimeSlot) IsAvailable() bool {
	return s.Status == SlotStatusAvailable
}

// AppliesTo относится ли слот к указанной дате
func (s *TimeSlot) AppliesTo(date time.Time) bool {
	d := DateOf(date)
	if s.BookingDate == nil {
		return s.DayOfWeek == d.Weekday()
	}
	return s.BookingDate.Equal(d)
}

// Clone возвращает независимую копию
func (s *TimeSlot) Clone() *TimeSlot {
	c := *s
	if s.BookingDate != nil {
		v := *s.BookingDate
		c.BookingDate = &v
	}
	if s.BookingID != nil {
		v := *s.BookingID
		c.BookingID = &v
	}
	return &c
}
