package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Freeeeeet/fieldbook/internal/model"
)

func TestMessagePublisher_PublishesToKindTopic(t *testing.T) {
	pubSub := NewGoChannel(NewZapLoggerAdapter(zap.NewNop()))
	defer pubSub.Close()

	publisher := NewMessagePublisher(pubSub, "booking.")
	assert.Equal(t, "booking.approved", publisher.Topic(model.EventApproved))

	messages, err := pubSub.Subscribe(context.Background(), "booking.approved")
	require.NoError(t, err)

	date := time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC)
	booking := model.NewBooking(3, "alice", date, model.MustParseClock("10:00"), model.MustParseClock("12:00"),
		model.BookingTypeMatch, date)
	booking.ID = 42
	booking.ApplyRate(40)
	require.NoError(t, booking.TransitionTo(model.BookingStatusConfirmed, date))

	event := model.BookingEvent{
		ID:         "3f1c7a8e-0d7a-4f52-8d8f-0a3c1c8e2b11",
		Kind:       model.EventApproved,
		Booking:    booking,
		FieldName:  "Arena",
		OccurredAt: date,
	}
	require.NoError(t, publisher.OnBookingEvent(context.Background(), event))

	select {
	case msg := <-messages:
		msg.Ack()
		assert.Equal(t, event.ID, msg.UUID)
		assert.Equal(t, "APPROVED", msg.Metadata.Get("kind"))

		var payload BookingPayload
		require.NoError(t, json.Unmarshal(msg.Payload, &payload))
		assert.Equal(t, int64(42), payload.BookingID)
		assert.Equal(t, "Arena", payload.FieldName)
		assert.Equal(t, "2026-05-04", payload.Date)
		assert.Equal(t, "10:00", payload.StartTime)
		assert.Equal(t, "CONFIRMED", payload.Status)
		require.NotNil(t, payload.TotalPrice)
		assert.InDelta(t, 80.0, *payload.TotalPrice, 1e-9)
	case <-time.After(time.Second):
		t.Fatal("message was not delivered")
	}
}

func TestMessagePublisher_RejectsEmptyEvent(t *testing.T) {
	pubSub := NewGoChannel(NewZapLoggerAdapter(zap.NewNop()))
	defer pubSub.Close()

	err := NewMessagePublisher(pubSub, "booking.").OnBookingEvent(context.Background(), model.BookingEvent{ID: "x"})
	assert.Error(t, err)
}
