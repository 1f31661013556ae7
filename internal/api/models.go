package api

import (
	"time"

	"github.com/Freeeeeet/fieldbook/internal/model"
	"github.com/Freeeeeet/fieldbook/internal/service"
)

type CreateBookingRequest struct {
	FieldID   int64             `json:"field_id"`
	Date      string            `json:"date"`
	StartTime *model.Clock      `json:"start_time"`
	EndTime   *model.Clock      `json:"end_time"`
	Type      model.BookingType `json:"type"`
}

type RejectBookingRequest struct {
	Reason string `json:"reason"`
}

type WeeklySlotRequest struct {
	Day       string      `json:"day"`
	StartTime *model.Clock `json:"start_time"`
	EndTime   *model.Clock `json:"end_time"`
}

type SetScheduleRequest struct {
	Slots []WeeklySlotRequest `json:"slots"`
}

type BlockSlotRequest struct {
	Date      string      `json:"date"`
	StartTime *model.Clock `json:"start_time"`
	EndTime   *model.Clock `json:"end_time"`
}

type BookingResponse struct {
	ID                int64      `json:"id"`
	FieldID           int64      `json:"field_id"`
	FieldName         string     `json:"field_name"`
	RequesterUsername string     `json:"requester_username"`
	Date              string     `json:"date"`
	StartTime         string     `json:"start_time"`
	EndTime           string     `json:"end_time"`
	Type              string     `json:"type"`
	Status            string     `json:"status"`
	TotalPrice        *float64   `json:"total_price,omitempty"`
	RequestedAt       time.Time  `json:"requested_at"`
	ConfirmedAt       *time.Time `json:"confirmed_at,omitempty"`
	RejectionReason   *string    `json:"rejection_reason,omitempty"`
}

type SlotResponse struct {
	ID        int64   `json:"id"`
	FieldID   int64   `json:"field_id"`
	DayOfWeek string  `json:"day_of_week"`
	Date      *string `json:"date,omitempty"`
	StartTime string  `json:"start_time"`
	EndTime   string  `json:"end_time"`
	Status    string  `json:"status"`
	BookingID *int64  `json:"booking_id,omitempty"`
}

type SuggestionResponse struct {
	Date string       `json:"date"`
	Slot SlotResponse `json:"slot"`
}

type ConflictResponse struct {
	Conflict bool `json:"conflict"`
}

func FromBookingView(v *service.BookingView) BookingResponse {
	return BookingResponse{
		ID:                v.ID,
		FieldID:           v.FieldID,
		FieldName:         v.FieldName,
		RequesterUsername: v.RequesterUsername,
		Date:              v.Date.Format(model.DateFormat),
		StartTime:         v.StartTime.String(),
		EndTime:           v.EndTime.String(),
		Type:              string(v.Type),
		Status:            string(v.Status()),
		TotalPrice:        v.TotalPrice,
		RequestedAt:       v.RequestedAt,
		ConfirmedAt:       v.ConfirmedAt,
		RejectionReason:   v.RejectionReason,
	}
}

func FromBookingViews(views []*service.BookingView) []BookingResponse {
	out := make([]BookingResponse, 0, len(views))
	for _, v := range views {
		out = append(out, FromBookingView(v))
	}
	return out
}

func FromSlot(s *model.TimeSlot) SlotResponse {
	resp := SlotResponse{
		ID:        s.ID,
		FieldID:   s.FieldID,
		DayOfWeek: s.DayOfWeek.String(),
		StartTime: s.StartTime.String(),
		EndTime:   s.EndTime.String(),
		Status:    string(s.Status),
		BookingID: s.BookingID,
	}
	if s.BookingDate != nil {
		d := s.BookingDate.Format(model.DateFormat)
		resp.Date = &d
	}
	return resp
}

func FromSlots(slots []*model.TimeSlot) []SlotResponse {
	out := make([]SlotResponse, 0, len(slots))
	for _, s := range slots {
		out = append(out, FromSlot(s))
	}
	return out
}
