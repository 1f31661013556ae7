package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Freeeeeet/fieldbook/internal/interval"
	"github.com/Freeeeeet/fieldbook/internal/model"
	"github.com/Freeeeeet/fieldbook/internal/repository/memory"
)

var (
	monday   = time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC) // понедельник
	fixedNow = time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC)
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []model.BookingEvent
}

func (p *recordingPublisher) Publish(_ context.Context, event model.BookingEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *recordingPublisher) kinds() []model.EventKind {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]model.EventKind, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Kind)
	}
	return out
}

type fixture struct {
	store        *memory.Store
	field        *model.Field
	availability *AvailabilityService
	bookings     *BookingService
	events       *recordingPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.NewStore()
	field := &model.Field{Name: "Central Arena", SportType: "football", City: "Kazan", ManagerID: "manager", PricePerHour: 40}
	require.NoError(t, store.Fields().Save(context.Background(), field))

	logger := zap.NewNop()
	locker := NewFieldLocker()
	events := &recordingPublisher{}

	availability := NewAvailabilityService(store.Fields(), store.Slots(), locker, logger)
	bookings := NewBookingService(store.Bookings(), store.Fields(), store.Slots(), availability, locker, events, logger)
	bookings.now = func() time.Time { return fixedNow }

	return &fixture{
		store:        store,
		field:        field,
		availability: availability,
		bookings:     bookings,
		events:       events,
	}
}

func (f *fixture) request(t *testing.T, requester, start, end string) *BookingView {
	t.Helper()
	view, err := f.bookings.RequestBooking(context.Background(), BookingRequest{
		FieldID:           f.field.ID,
		RequesterUsername: requester,
		Date:              monday,
		StartTime:         model.MustParseClock(start),
		EndTime:           model.MustParseClock(end),
		Type:              model.BookingTypeMatch,
	})
	require.NoError(t, err)
	return view
}

func (f *fixture) status(t *testing.T, bookingID int64) model.BookingStatus {
	t.Helper()
	booking, err := f.store.Bookings().FindByID(context.Background(), bookingID)
	require.NoError(t, err)
	require.NotNil(t, booking)
	return booking.Status()
}

func weekly(day time.Weekday, start, end string) WeeklySlotInput {
	return WeeklySlotInput{DayOfWeek: day, StartTime: model.MustParseClock(start), EndTime: model.MustParseClock(end)}
}

// requireNoOverlap проверяет, что занятые и заблокированные слоты даты не пересекаются
func (f *fixture) requireNoOverlap(t *testing.T, date time.Time) {
	t.Helper()
	slots, err := f.store.Slots().FindForDate(context.Background(), f.field.ID, date)
	require.NoError(t, err)

	var occupied []*model.TimeSlot
	for _, s := range slots {
		if !s.IsAvailable() {
			occupied = append(occupied, s)
		}
	}
	for i := range occupied {
		for j := i + 1; j < len(occupied); j++ {
			a, b := occupied[i], occupied[j]
			require.False(t, interval.SlotsOverlap(a, b), "%s-%s %s overlaps %s-%s %s",
				a.StartTime, a.EndTime, a.Status, b.StartTime, b.EndTime, b.Status)
		}
	}
}
