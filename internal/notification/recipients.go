package notification

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/fieldbook/internal/model"
)

// FieldFinder источник менеджера поля
type FieldFinder interface {
	FindByID(ctx context.Context, id int64) (*model.Field, error)
}

// Recipient кому адресовать событие: менеджеру о новых заявках и отменах, автору о решениях
func Recipient(ctx context.Context, fields FieldFinder, event model.BookingEvent) (string, error) {
	switch event.Kind {
	case model.EventApproved, model.EventRejected:
		return event.Booking.RequesterUsername, nil
	case model.EventRequested, model.EventCancelled:
		field, err := fields.FindByID(ctx, event.Booking.FieldID)
		if err != nil {
			return "", fmt.Errorf("get field: %w", err)
		}
		if field == nil {
			return "", fmt.Errorf("%w: field %d", model.ErrNotFound, event.Booking.FieldID)
		}
		return field.ManagerID, nil
	default:
		return "", fmt.Errorf("unknown event kind %q", event.Kind)
	}
}
