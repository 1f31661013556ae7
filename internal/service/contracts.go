package service

import (
	"context"
	"time"

	"github.com/Freeeeeet/fieldbook/internal/model"
)

// Репозитории возвращают (nil, nil), если запись не найдена.

// BookingRepository хранилище бронирований
type BookingRepository interface {
	// Save вставляет новое бронирование (ID == 0, присваивает ID) или перезаписывает существующее
	Save(ctx context.Context, booking *model.Booking) error
	FindByID(ctx context.Context, id int64) (*model.Booking, error)
	FindByFieldID(ctx context.Context, fieldID int64) ([]*model.Booking, error)
	FindByRequester(ctx context.Context, username string) ([]*model.Booking, error)
	FindPendingByManager(ctx context.Context, manager string) ([]*model.Booking, error)
	FindByStatus(ctx context.Context, status model.BookingStatus) ([]*model.Booking, error)
	// UpdateStatus записывает статус и связанные поля, только если в хранилище всё ещё expected.
	// Иначе возвращает model.ErrStaleStatus.
	UpdateStatus(ctx context.Context, booking *model.Booking, expected model.BookingStatus) error
	Delete(ctx context.Context, id int64) error
}

// FieldRepository справочник полей (только чтение со стороны движка)
type FieldRepository interface {
	FindByID(ctx context.Context, id int64) (*model.Field, error)
}

// SlotRepository хранилище слотов расписания
type SlotRepository interface {
	Save(ctx context.Context, slot *model.TimeSlot) error
	FindByID(ctx context.Context, id int64) (*model.TimeSlot, error)
	FindByFieldID(ctx context.Context, fieldID int64) ([]*model.TimeSlot, error)
	FindByBookingID(ctx context.Context, bookingID int64) (*model.TimeSlot, error)
	// FindForDate шаблоны на день недели даты и конкретные слоты этой даты, по времени начала
	FindForDate(ctx context.Context, fieldID int64, date time.Time) ([]*model.TimeSlot, error)
	FindAvailableSlots(ctx context.Context, fieldID int64, day time.Weekday) ([]*model.TimeSlot, error)
	// FindConflicting занятые (не AVAILABLE) слоты даты, пересекающие [start, end)
	FindConflicting(ctx context.Context, fieldID int64, date time.Time, start, end model.Clock) ([]*model.TimeSlot, error)
	UpdateStatus(ctx context.Context, slotID int64, status model.SlotStatus) error
	// ReplaceWeeklySchedule атомарно заменяет шаблоны поля; конкретные слоты сохраняются
	ReplaceWeeklySchedule(ctx context.Context, fieldID int64, slots []*model.TimeSlot) error
	Delete(ctx context.Context, id int64) error
	DeleteByFieldID(ctx context.Context, fieldID int64) error
}

// EventPublisher рассылает события жизненного цикла
type EventPublisher interface {
	Publish(ctx context.Context, event model.BookingEvent)
}
