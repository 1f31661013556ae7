package notification

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/Freeeeeet/fieldbook/internal/model"
)

// StatusDisplay отображение статуса бронирования
type StatusDisplay struct {
	Emoji string
	Text  string
}

// GetStatusDisplay возвращает emoji и текст для статуса бронирования
func GetStatusDisplay(status model.BookingStatus) StatusDisplay {
	displays := map[model.BookingStatus]StatusDisplay{
		model.BookingStatusPending:   {"⏳", "Ожидает подтверждения"},
		model.BookingStatusConfirmed: {"✅", "Подтверждено"},
		model.BookingStatusCompleted: {"✔️", "Завершено"},
		model.BookingStatusCancelled: {"❌", "Отменено"},
		model.BookingStatusRejected:  {"🚫", "Отклонено"},
	}

	if display, ok := displays[status]; ok {
		return display
	}

	return StatusDisplay{"❓", "Неизвестно"}
}

// FormatPrice цена без копеек, если они равны 0
func FormatPrice(price float64) string {
	if price == float64(int64(price)) {
		return fmt.Sprintf("%.0f ₽", price)
	}
	return fmt.Sprintf("%.2f ₽", price)
}

// FormatDate дата с коротким днём недели
func FormatDate(t time.Time) string {
	return fmt.Sprintf("%s, %s", weekdayShort(t.Weekday()), t.Format("02.01.2006"))
}

func weekdayShort(day time.Weekday) string {
	names := []string{"Вс", "Пн", "Вт", "Ср", "Чт", "Пт", "Сб"}
	if day >= 0 && int(day) < len(names) {
		return names[day]
	}
	return "?"
}

var headlines = map[model.EventKind]string{
	model.EventRequested: "Новая заявка на бронирование",
	model.EventApproved:  "Бронирование подтверждено",
	model.EventRejected:  "Заявка отклонена",
	model.EventCancelled: "Бронирование отменено",
}

// FormatEvent текст уведомления в HTML-разметке Telegram
func FormatEvent(event model.BookingEvent) string {
	b := event.Booking
	status := GetStatusDisplay(b.Status())

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s <b>%s</b>\n\n", status.Emoji, headlines[event.Kind])
	fmt.Fprintf(&sb, "🏟 %s\n", html.EscapeString(event.FieldName))
	fmt.Fprintf(&sb, "📅 %s, %s-%s\n", FormatDate(b.Date), b.StartTime, b.EndTime)
	fmt.Fprintf(&sb, "👤 %s\n", html.EscapeString(b.RequesterUsername))
	if b.TotalPrice != nil {
		fmt.Fprintf(&sb, "💰 %s\n", FormatPrice(*b.TotalPrice))
	}
	if event.Kind == model.EventRejected && b.RejectionReason != nil && *b.RejectionReason != "" {
		fmt.Fprintf(&sb, "\nПричина: %s\n", html.EscapeString(*b.RejectionReason))
	}
	return sb.String()
}
