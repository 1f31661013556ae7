package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Freeeeeet/fieldbook/internal/model"
)

func TestOnBookingEvent(t *testing.T) {
	m := New(prometheus.NewRegistry())

	for _, kind := range []model.EventKind{model.EventRequested, model.EventRequested, model.EventApproved} {
		require.NoError(t, m.OnBookingEvent(context.Background(), model.BookingEvent{Kind: kind}))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.BookingEvents.WithLabelValues("REQUESTED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BookingEvents.WithLabelValues("APPROVED")))
}

func TestObserveCompletion(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveCompletion(3)
	m.ObserveCompletion(0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.CompletedRuns))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.CompletedTotal))
}

func TestMiddleware(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	router := mux.NewRouter()
	router.Use(m.Middleware)
	router.HandleFunc("/bookings/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}).Methods(http.MethodGet)

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/bookings/42", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/bookings/{id}", "404")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.HTTPDuration))
}
