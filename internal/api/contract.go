package api

import (
	"context"
	"time"

	"github.com/Freeeeeet/fieldbook/internal/model"
	"github.com/Freeeeeet/fieldbook/internal/notification"
	"github.com/Freeeeeet/fieldbook/internal/service"
)

type BookingService interface {
	RequestBooking(ctx context.Context, req service.BookingRequest) (*service.BookingView, error)
	ApproveBooking(ctx context.Context, bookingID int64, manager string) (*service.BookingView, error)
	RejectBooking(ctx context.Context, bookingID int64, manager, reason string) (*service.BookingView, error)
	CancelBooking(ctx context.Context, bookingID int64, requester string) (*service.BookingView, error)
	GetBooking(ctx context.Context, bookingID int64) (*service.BookingView, error)
	GetUserBookings(ctx context.Context, username string) ([]*service.BookingView, error)
	GetPendingBookingsForManager(ctx context.Context, manager string) ([]*service.BookingView, error)
	GetFieldBookings(ctx context.Context, fieldID int64) ([]*service.BookingView, error)
}

type AvailabilityService interface {
	SetWeeklySchedule(ctx context.Context, fieldID int64, input []service.WeeklySlotInput) ([]*model.TimeSlot, error)
	GetAvailableSlots(ctx context.Context, fieldID int64, date time.Time) ([]*model.TimeSlot, error)
	HasConflict(ctx context.Context, fieldID int64, date time.Time, start, end model.Clock) (bool, error)
	SuggestAlternatives(ctx context.Context, fieldID int64, preferredDate time.Time) ([]service.Suggestion, error)
	BlockSlot(ctx context.Context, fieldID int64, date time.Time, start, end model.Clock) ([]*model.TimeSlot, error)
	UnblockSlot(ctx context.Context, slotID int64) error
	GetWeek(ctx context.Context, fieldID int64, date time.Time) (*model.Field, []service.DaySlots, error)
}

type FieldFinder interface {
	FindByID(ctx context.Context, id int64) (*model.Field, error)
}

type SlotFinder interface {
	FindByID(ctx context.Context, id int64) (*model.TimeSlot, error)
}

type Inbox interface {
	Inbox(username string) []notification.Notification
}
