package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// UserHeader заголовок с именем пользователя, от которого выполняется запрос
const UserHeader = "X-User"

type actorKey struct{}

type Server struct {
	bookings     BookingService
	availability AvailabilityService
	fields       FieldFinder
	slots        SlotFinder
	inbox        Inbox
	logger       *zap.Logger
}

func NewServer(
	bookings BookingService,
	availability AvailabilityService,
	fields FieldFinder,
	slots SlotFinder,
	inbox Inbox,
	logger *zap.Logger,
) *Server {
	return &Server{
		bookings:     bookings,
		availability: availability,
		fields:       fields,
		slots:        slots,
		inbox:        inbox,
		logger:       logger,
	}
}

// Router собирает маршруты. middleware применяются ко всем запросам, gatherer обслуживает /metrics.
func (s *Server) Router(gatherer prometheus.Gatherer, middleware ...mux.MiddlewareFunc) *mux.Router {
	r := mux.NewRouter()
	for _, mw := range middleware {
		r.Use(mw)
	}

	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	api := r.PathPrefix("/api/v1").Subrouter()

	// Публичные маршруты
	api.HandleFunc("/bookings/{bookingId}", s.getBooking).Methods(http.MethodGet)
	api.HandleFunc("/fields/{fieldId}/bookings", s.getFieldBookings).Methods(http.MethodGet)
	api.HandleFunc("/fields/{fieldId}/available-slots", s.getAvailableSlots).Methods(http.MethodGet)
	api.HandleFunc("/fields/{fieldId}/conflicts", s.getConflicts).Methods(http.MethodGet)
	api.HandleFunc("/fields/{fieldId}/suggestions", s.getSuggestions).Methods(http.MethodGet)
	api.HandleFunc("/fields/{fieldId}/week.png", s.getWeekImage).Methods(http.MethodGet)

	// Маршруты, требующие X-User
	protected := api.NewRoute().Subrouter()
	protected.Use(s.requireActor)

	protected.HandleFunc("/bookings", s.createBooking).Methods(http.MethodPost)
	protected.HandleFunc("/bookings/{bookingId}/approve", s.approveBooking).Methods(http.MethodPost)
	protected.HandleFunc("/bookings/{bookingId}/reject", s.rejectBooking).Methods(http.MethodPost)
	protected.HandleFunc("/bookings/{bookingId}/cancel", s.cancelBooking).Methods(http.MethodPost)
	protected.HandleFunc("/me/bookings", s.getMyBookings).Methods(http.MethodGet)
	protected.HandleFunc("/me/pending-bookings", s.getPendingBookings).Methods(http.MethodGet)
	protected.HandleFunc("/me/notifications", s.getNotifications).Methods(http.MethodGet)
	protected.HandleFunc("/fields/{fieldId}/schedule", s.setSchedule).Methods(http.MethodPut)
	protected.HandleFunc("/fields/{fieldId}/blocks", s.blockSlot).Methods(http.MethodPost)
	protected.HandleFunc("/slots/{slotId}/block", s.unblockSlot).Methods(http.MethodDelete)

	return r
}

func (s *Server) requireActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := strings.TrimSpace(r.Header.Get(UserHeader))
		if user == "" {
			respondMessage(w, http.StatusUnauthorized, "X-User header is required")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), actorKey{}, user)))
	})
}

func actor(r *http.Request) string {
	user, _ := r.Context().Value(actorKey{}).(string)
	return user
}
