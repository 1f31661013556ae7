package notification

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/Freeeeeet/fieldbook/internal/model"
)

// MessageSender часть *bot.Bot, нужная для отправки
type MessageSender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// TelegramNotifier отправляет события в чаты Telegram
type TelegramNotifier struct {
	sender MessageSender
	fields FieldFinder
	chats  map[string]int64
	logger *zap.Logger
}

func NewTelegramNotifier(sender MessageSender, fields FieldFinder, chats map[string]int64, logger *zap.Logger) *TelegramNotifier {
	return &TelegramNotifier{
		sender: sender,
		fields: fields,
		chats:  chats,
		logger: logger,
	}
}

// NewBot создаёт клиента Telegram; получение обновлений не запускается
func NewBot(token string) (*bot.Bot, error) {
	b, err := bot.New(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return b, nil
}

func (n *TelegramNotifier) OnBookingEvent(ctx context.Context, event model.BookingEvent) error {
	recipient, err := Recipient(ctx, n.fields, event)
	if err != nil {
		return err
	}

	chatID, ok := n.chats[recipient]
	if !ok {
		n.logger.Debug("No telegram chat for user",
			zap.String("user", recipient),
			zap.String("event_id", event.ID),
		)
		return nil
	}

	_, err = n.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      FormatEvent(event),
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		return fmt.Errorf("send telegram message to %s: %w", recipient, err)
	}

	n.logger.Debug("Telegram notification sent",
		zap.String("user", recipient),
		zap.String("kind", string(event.Kind)),
		zap.Int64("booking_id", event.Booking.ID),
	)
	return nil
}
