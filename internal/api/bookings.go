package api

import (
	"net/http"

	"github.com/Freeeeeet/fieldbook/internal/model"
	"github.com/Freeeeeet/fieldbook/internal/service"
)

// createBooking POST /api/v1/bookings
func (s *Server) createBooking(w http.ResponseWriter, r *http.Request) {
	var req CreateBookingRequest
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

	view, err := s.bookings.RequestBooking(r.Context(), service.BookingRequest{
		FieldID:           req.FieldID,
		RequesterUsername: actor(r),
		Date:              date,
		StartTime:         start,
		EndTime:           end,
		Type:              req.Type,
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, FromBookingView(view))
}

// getBooking GET /api/v1/bookings/{bookingId}
func (s *Server) getBooking(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "bookingId")
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	view, err := s.bookings.GetBooking(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, FromBookingView(view))
}

// approveBooking POST /api/v1/bookings/{bookingId}/approve
func (s *Server) approveBooking(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "bookingId")
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	view, err := s.bookings.ApproveBooking(r.Context(), id, actor(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, FromBookingView(view))
}

// rejectBooking POST /api/v1/bookings/{bookingId}/reject
func (s *Server) rejectBooking(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "bookingId")
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	var req RejectBookingRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			s.respondError(w, r, err)
			return
		}
	}

	view, err := s.bookings.RejectBooking(r.Context(), id, actor(r), req.Reason)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, FromBookingView(view))
}

// cancelBooking POST /api/v1/bookings/{bookingId}/cancel
func (s *Server) cancelBooking(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "bookingId")
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	view, err := s.bookings.CancelBooking(r.Context(), id, actor(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, FromBookingView(view))
}

// getMyBookings GET /api/v1/me/bookings
func (s *Server) getMyBookings(w http.ResponseWriter, r *http.Request) {
	views, err := s.bookings.GetUserBookings(r.Context(), actor(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, FromBookingViews(views))
}

// getPendingBookings GET /api/v1/me/pending-bookings
func (s *Server) getPendingBookings(w http.ResponseWriter, r *http.Request) {
	views, err := s.bookings.GetPendingBookingsForManager(r.Context(), actor(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, FromBookingViews(views))
}

// getFieldBookings GET /api/v1/fields/{fieldId}/bookings
func (s *Server) getFieldBookings(w http.ResponseWriter, r *http.Request) {
	fieldID, err := pathID(r, "fieldId")
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	views, err := s.bookings.GetFieldBookings(r.Context(), fieldID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, FromBookingViews(views))
}

// getNotifications GET /api/v1/me/notifications
func (s *Server) getNotifications(w http.ResponseWriter, r *http.Request) {
	if s.inbox == nil {
		respondJSON(w, http.StatusOK, []any{})
		return
	}
	respondJSON(w, http.StatusOK, s.inbox.Inbox(actor(r)))
}
