package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/Freeeeeet/fieldbook/internal/model"
)

func testEvent(kind model.EventKind) model.BookingEvent {
	day := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
	b := model.NewBooking(1, "p1", day, model.MustParseClock("18:00"), model.MustParseClock("20:00"), model.BookingTypeMatch, day)
	b.ID = 42
	return model.BookingEvent{ID: "evt-1", Kind: kind, Booking: b, FieldName: "Central", OccurredAt: day}
}

func TestDispatcher_FanOutInOrder(t *testing.T) {
	d := NewDispatcher(zap.NewNop())

	var got []string
	d.Subscribe("a", ObserverFunc(func(ctx context.Context, e model.BookingEvent) error {
		got = append(got, "a:"+string(e.Kind))
		return nil
	}))
	d.Subscribe("b", ObserverFunc(func(ctx context.Context, e model.BookingEvent) error {
		got = append(got, "b:"+string(e.Kind))
		return nil
	}))

	d.Publish(context.Background(), testEvent(model.EventRequested))

	assert.Equal(t, []string{"a:REQUESTED", "b:REQUESTED"}, got)
}

func TestDispatcher_IsolatesFailures(t *testing.T) {
	d := NewDispatcher(zap.NewNop())

	calls := 0
	d.Subscribe("failing", ObserverFunc(func(ctx context.Context, e model.BookingEvent) error {
		return errors.New("mailbox down")
	}))
	d.Subscribe("panicking", ObserverFunc(func(ctx context.Context, e model.BookingEvent) error {
		panic("boom")
	}))
	d.Subscribe("healthy", ObserverFunc(func(ctx context.Context, e model.BookingEvent) error {
		calls++
		return nil
	}))

	assert.NotPanics(t, func() {
		d.Publish(context.Background(), testEvent(model.EventApproved))
	})
	assert.Equal(t, 1, calls)
}

func TestDispatcher_FailureWithoutBooking(t *testing.T) {
	d := NewDispatcher(zap.NewNop())

	delivered := 0
	d.Subscribe("broken", ObserverFunc(func(context.Context, model.BookingEvent) error {
		return errors.New("boom")
	}))
	d.Subscribe("healthy", ObserverFunc(func(context.Context, model.BookingEvent) error {
		delivered++
		return nil
	}))

	event := testEvent(model.EventRequested)
	event.Booking = nil

	assert.NotPanics(t, func() { d.Publish(context.Background(), event) })
	assert.Equal(t, 1, delivered)
}

func TestDispatcher_Unsubscribe(t *testing.T) {
	d := NewDispatcher(zap.NewNop())

	calls := 0
	d.Subscribe("counter", ObserverFunc(func(ctx context.Context, e model.BookingEvent) error {
		calls++
		return nil
	}))

	d.Publish(context.Background(), testEvent(model.EventRequested))
	assert.True(t, d.Unsubscribe("counter"))
	assert.False(t, d.Unsubscribe("counter"))
	d.Publish(context.Background(), testEvent(model.EventCancelled))

	assert.Equal(t, 1, calls)
}

func TestDispatcher_SubscribeReplacesSameName(t *testing.T) {
	d := NewDispatcher(zap.NewNop())

	var got []string
	d.Subscribe("x", ObserverFunc(func(ctx context.Context, e model.BookingEvent) error {
		got = append(got, "old")
		return nil
	}))
	d.Subscribe("x", ObserverFunc(func(ctx context.Context, e model.BookingEvent) error {
		got = append(got, "new")
		return nil
	}))

	d.Publish(context.Background(), testEvent(model.EventRejected))
	assert.Equal(t, []string{"new"}, got)
}
