package notification

import (
	"context"
	"sync"
	"time"

	"github.com/Freeeeeet/fieldbook/internal/model"
)

// Notification сообщение во входящих пользователя
type Notification struct {
	EventID   string          `json:"event_id"`
	Kind      model.EventKind `json:"kind"`
	BookingID int64           `json:"booking_id"`
	Text      string          `json:"text"`
	CreatedAt time.Time       `json:"created_at"`
}

// Mailbox хранит уведомления в памяти процесса по username
type Mailbox struct {
	fields FieldFinder

	mu      sync.RWMutex
	inboxes map[string][]Notification
}

func NewMailbox(fields FieldFinder) *Mailbox {
	return &Mailbox{
		fields:  fields,
		inboxes: make(map[string][]Notification),
	}
}

func (m *Mailbox) OnBookingEvent(ctx context.Context, event model.BookingEvent) error {
	recipient, err := Recipient(ctx, m.fields, event)
	if err != nil {
		return err
	}

	n := Notification{
		EventID:   event.ID,
		Kind:      event.Kind,
		BookingID: event.Booking.ID,
		Text:      FormatEvent(event),
		CreatedAt: event.OccurredAt,
	}

	m.mu.Lock()
	m.inboxes[recipient] = append(m.inboxes[recipient], n)
	m.mu.Unlock()
	return nil
}

// Inbox уведомления пользователя от старых к новым
func (m *Mailbox) Inbox(username string) []Notification {
	m.mu.RLock()
	defer m.mu.RUnlock()

	inbox := m.inboxes[username]
	out := make([]Notification, len(inbox))
	copy(out, inbox)
	return out
}

// Clear очищает входящие пользователя
func (m *Mailbox) Clear(username string) {
	m.mu.Lock()
	delete(m.inboxes, username)
	m.mu.Unlock()
}
