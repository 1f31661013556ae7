package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Freeeeeet/fieldbook/internal/model"
	"github.com/Freeeeeet/fieldbook/internal/render"
	"github.com/Freeeeeet/fieldbook/internal/service"
)

// setSchedule PUT /api/v1/fields/{fieldId}/schedule
func (s *Server) setSchedule(w http.ResponseWriter, r *http.Request) {
	fieldID, err := s.managedField(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	var req SetScheduleRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	input := make([]service.WeeklySlotInput, 0, len(req.Slots))
	for _, slot := range req.Slots {
		day, err := model.ParseWeekday(slot.Day)
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		start, end, err := clockRange(slot.StartTime, slot.EndTime)
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		input = append(input, service.WeeklySlotInput{DayOfWeek: day, StartTime: start, EndTime: end})
	}

	slots, err := s.availability.SetWeeklySchedule(r.Context(), fieldID, input)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, FromSlots(slots))
}

// getAvailableSlots GET /api/v1/fields/{fieldId}/available-slots?date=YYYY-MM-DD
func (s *Server) getAvailableSlots(w http.ResponseWriter, r *http.Request) {
	fieldID, err := pathID(r, "fieldId")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	date, err := model.ParseDate(r.URL.Query().Get("date"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	slots, err := s.availability.GetAvailableSlots(r.Context(), fieldID, date)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, FromSlots(slots))
}

// getConflicts GET /api/v1/fields/{fieldId}/conflicts?date=&start=&end=
func (s *Server) getConflicts(w http.ResponseWriter, r *http.Request) {
	fieldID, err := pathID(r, "fieldId")
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	q := r.URL.Query()
	date, err := model.ParseDate(q.Get("date"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	start, err := model.ParseClock(q.Get("start"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	end, err := model.ParseClock(q.Get("end"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	conflict, err := s.availability.HasConflict(r.Context(), fieldID, date, start, end)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, ConflictResponse{Conflict: conflict})
}

// getSuggestions GET /api/v1/fields/{fieldId}/suggestions?date=YYYY-MM-DD
func (s *Server) getSuggestions(w http.ResponseWriter, r *http.Request) {
	fieldID, err := pathID(r, "fieldId")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	date, err := model.ParseDate(r.URL.Query().Get("date"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	suggestions, err := s.availability.SuggestAlternatives(r.Context(), fieldID, date)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	out := make([]SuggestionResponse, 0, len(suggestions))
	for _, sg := range suggestions {
		out = append(out, SuggestionResponse{Date: sg.Date.Format(model.DateFormat), Slot: FromSlot(sg.Slot)})
	}
	respondJSON(w, http.StatusOK, out)
}

// blockSlot POST /api/v1/fields/{fieldId}/blocks
func (s *Server) blockSlot(w http.ResponseWriter, r *http.Request) {
	fieldID, err := s.managedField(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	var req BlockSlotRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	date, err := model.ParseDate(req.Date)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	start, end, err := clockRange(req.StartTime, req.EndTime)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	slots, err := s.availability.BlockSlot(r.Context(), fieldID, date, start, end)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, FromSlots(slots))
}

// unblockSlot DELETE /api/v1/slots/{slotId}/block
func (s *Server) unblockSlot(w http.ResponseWriter, r *http.Request) {
	slotID, err := pathID(r, "slotId")
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	slot, err := s.slots.FindByID(r.Context(), slotID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if slot == nil {
		s.respondError(w, r, fmt.Errorf("%w: slot %d", model.ErrNotFound, slotID))
		return
	}
	if err := s.requireManager(r.Context(), slot.FieldID, actor(r)); err != nil {
		s.respondError(w, r, err)
		return
	}

	if err := s.availability.UnblockSlot(r.Context(), slotID); err != nil {
		s.respondError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// managedField ID поля из пути, если им управляет автор запроса
func (s *Server) managedField(r *http.Request) (int64, error) {
	fieldID, err := pathID(r, "fieldId")
	if err != nil {
		return 0, err
	}
	if err := s.requireManager(r.Context(), fieldID, actor(r)); err != nil {
		return 0, err
	}
	return fieldID, nil
}

func (s *Server) requireManager(ctx context.Context, fieldID int64, user string) error {
	field, err := s.fields.FindByID(ctx, fieldID)
	if err != nil {
		return fmt.Errorf("get field: %w", err)
	}
	if field == nil {
		return fmt.Errorf("%w: field %d", model.ErrNotFound, fieldID)
	}
	if !field.IsManagedBy(user) {
		return fmt.Errorf("%w: %s does not manage field %d", model.ErrUnauthorized, user, fieldID)
	}
	return nil
}

// getWeekImage GET /api/v1/fields/{fieldId}/week.png?date=YYYY-MM-DD
// Без date рисуется текущая неделя.
func (s *Server) getWeekImage(w http.ResponseWriter, r *http.Request) {
	fieldID, err := pathID(r, "fieldId")
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	now := time.Now().UTC()
	date := now
	if raw := r.URL.Query().Get("date"); raw != "" {
		if date, err = model.ParseDate(raw); err != nil {
			s.respondError(w, r, err)
			return
		}
	}

	field, week, err := s.availability.GetWeek(r.Context(), fieldID, date)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	days := make([]render.Day, 0, len(week))
	for _, d := range week {
		days = append(days, render.Day{Date: d.Date, Slots: append(d.Free, d.Occupied...)})
	}

	img, err := render.WeekImage(field.Name, days, now)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(img)
}
