package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"

	"github.com/Freeeeeet/fieldbook/internal/model"
)

// BookingPayload сообщение о событии бронирования
type BookingPayload struct {
	EventID           string    `json:"event_id"`
	Kind              string    `json:"kind"`
	OccurredAt        time.Time `json:"occurred_at"`
	BookingID         int64     `json:"booking_id"`
	FieldID           int64     `json:"field_id"`
	FieldName         string    `json:"field_name"`
	RequesterUsername string    `json:"requester_username"`
	Date              string    `json:"date"`
	StartTime         string    `json:"start_time"`
	EndTime           string    `json:"end_time"`
	Status            string    `json:"status"`
	TotalPrice        *float64  `json:"total_price,omitempty"`
	RejectionReason   *string   `json:"rejection_reason,omitempty"`
}

// NewBookingPayload сериализуемое представление события
func NewBookingPayload(event model.BookingEvent) BookingPayload {
	b := event.Booking
	return BookingPayload{
		EventID:           event.ID,
		Kind:              string(event.Kind),
		OccurredAt:        event.OccurredAt,
		BookingID:         b.ID,
		FieldID:           b.FieldID,
		FieldName:         event.FieldName,
		RequesterUsername: b.RequesterUsername,
		Date:              b.Date.Format(model.DateFormat),
		StartTime:         b.StartTime.String(),
		EndTime:           b.EndTime.String(),
		Status:            string(b.Status()),
		TotalPrice:        b.TotalPrice,
		RejectionReason:   b.RejectionReason,
	}
}

// MessagePublisher наблюдатель, пересылающий события в watermill
type MessagePublisher struct {
	publisher   message.Publisher
	topicPrefix string
}

func NewMessagePublisher(publisher message.Publisher, topicPrefix string) *MessagePublisher {
	return &MessagePublisher{publisher: publisher, topicPrefix: topicPrefix}
}

// Topic тема для вида события, например booking.approved
func (p *MessagePublisher) Topic(kind model.EventKind) string {
	return p.topicPrefix + strings.ToLower(string(kind))
}

func (p *MessagePublisher) OnBookingEvent(ctx context.Context, event model.BookingEvent) error {
	if event.Booking == nil {
		return fmt.Errorf("event %s has no booking", event.ID)
	}

	payload, err := json.Marshal(NewBookingPayload(event))
	if err != nil {
		return fmt.Errorf("marshal booking event: %w", err)
	}

	msgID := event.ID
	if msgID == "" {
		msgID = watermill.NewUUID()
	}
	msg := message.NewMessage(msgID, payload)
	msg.Metadata.Set("kind", string(event.Kind))
	msg.SetContext(ctx)

	if err := p.publisher.Publish(p.Topic(event.Kind), msg); err != nil {
		return fmt.Errorf("publish %s: %w", event.Kind, err)
	}
	return nil
}

// NewGoChannel pub/sub внутри процесса
func NewGoChannel(logger watermill.LoggerAdapter) *gochannel.GoChannel {
	return gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64}, logger)
}

// NewRedisPublisher публикация в Redis Streams
func NewRedisPublisher(rdb redis.UniversalClient, logger watermill.LoggerAdapter) (message.Publisher, error) {
	publisher, err := redisstream.NewPublisher(redisstream.PublisherConfig{
		Client: rdb,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create redis publisher: %w", err)
	}
	return publisher, nil
}
