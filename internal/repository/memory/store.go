// Package memory хранилище в памяти процесса. Используется, когда DB_DSN не задан, и в тестах.
package memory

import (
	"sort"
	"sync"

	"github.com/Freeeeeet/fieldbook/internal/model"
)

// Store общее состояние трёх репозиториев. Наружу отдаются только копии.
type Store struct {
	mu sync.RWMutex

	fields   map[int64]*model.Field
	bookings map[int64]*model.Booking
	slots    map[int64]*model.TimeSlot

	nextFieldID   int64
	nextBookingID int64
	nextSlotID    int64
}

func NewStore() *Store {
	return &Store{
		fields:   make(map[int64]*model.Field),
		bookings: make(map[int64]*model.Booking),
		slots:    make(map[int64]*model.TimeSlot),
	}
}

// Bookings репозиторий бронирований поверх хранилища
func (s *Store) Bookings() *BookingRepository {
	return &BookingRepository{store: s}
}

// Fields репозиторий полей поверх хранилища
func (s *Store) Fields() *FieldRepository {
	return &FieldRepository{store: s}
}

// Slots репозиторий слотов поверх хранилища
func (s *Store) Slots() *SlotRepository {
	return &SlotRepository{store: s}
}

func sortBookings(bookings []*model.Booking) {
	sort.Slice(bookings, func(i, j int) bool {
		a, b := bookings[i], bookings[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.StartTime != b.StartTime {
			return a.StartTime < b.StartTime
		}
		return a.ID < b.ID
	})
}

func sortSlots(slots []*model.TimeSlot) {
	sort.Slice(slots, func(i, j int) bool {
		a, b := slots[i], slots[j]
		if a.DayOfWeek != b.DayOfWeek {
			return a.DayOfWeek < b.DayOfWeek
		}
		if a.StartTime != b.StartTime {
			return a.StartTime < b.StartTime
		}
		return a.ID < b.ID
	})
}
