package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Freeeeeet/fieldbook/internal/events"
	"github.com/Freeeeeet/fieldbook/internal/metrics"
	"github.com/Freeeeeet/fieldbook/internal/model"
	"github.com/Freeeeeet/fieldbook/internal/notification"
	"github.com/Freeeeeet/fieldbook/internal/repository/memory"
	"github.com/Freeeeeet/fieldbook/internal/service"
)

type testServer struct {
	*httptest.Server
	field *model.Field
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := zap.NewNop()
	store := memory.NewStore()
	field := &model.Field{Name: "Central Arena", ManagerID: "manager", PricePerHour: 40}
	require.NoError(t, store.Fields().Save(context.Background(), field))

	mailbox := notification.NewMailbox(store.Fields())
	dispatcher := events.NewDispatcher(logger)
	dispatcher.Subscribe("mailbox", mailbox)

	locker := service.NewFieldLocker()
	availability := service.NewAvailabilityService(store.Fields(), store.Slots(), locker, logger)
	bookings := service.NewBookingService(store.Bookings(), store.Fields(), store.Slots(), availability, locker, dispatcher, logger)

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	srv := NewServer(bookings, availability, store.Fields(), store.Slots(), mailbox, logger)
	ts := httptest.NewServer(srv.Router(reg, m.Middleware))
	t.Cleanup(ts.Close)

	return &testServer{Server: ts, field: field}
}

func (ts *testServer) do(t *testing.T, method, path, user string, body any) *http.Response {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, ts.URL+path, reader)
	require.NoError(t, err)
	if user != "" {
		req.Header.Set(UserHeader, user)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func clock(s string) *model.Clock {
	c := model.MustParseClock(s)
	return &c
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func (ts *testServer) createBooking(t *testing.T, user, start, end string) BookingResponse {
	t.Helper()
	resp := ts.do(t, http.MethodPost, "/api/v1/bookings", user, map[string]any{
		"field_id":   ts.field.ID,
		"date":       "2026-05-04",
		"start_time": start,
		"end_time":   end,
		"type":       "MATCH_BOOKING",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[BookingResponse](t, resp)
}

func TestBookingLifecycle(t *testing.T) {
	ts := newTestServer(t)

	created := ts.createBooking(t, "alice", "10:00", "12:00")
	assert.Equal(t, "PENDING", created.Status)
	assert.Equal(t, "Central Arena", created.FieldName)
	assert.Equal(t, "alice", created.RequesterUsername)
	require.NotNil(t, created.TotalPrice)
	assert.InDelta(t, 80.0, *created.TotalPrice, 1e-9)

	competing := ts.createBooking(t, "bob", "11:00", "13:00")

	resp := ts.do(t, http.MethodPost, fmt.Sprintf("/api/v1/bookings/%d/approve", created.ID), "alice", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = ts.do(t, http.MethodPost, fmt.Sprintf("/api/v1/bookings/%d/approve", created.ID), "manager", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	approved := decode[BookingResponse](t, resp)
	assert.Equal(t, "CONFIRMED", approved.Status)
	assert.NotNil(t, approved.ConfirmedAt)

	resp = ts.do(t, http.MethodGet, fmt.Sprintf("/api/v1/bookings/%d", competing.ID), "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	loser := decode[BookingResponse](t, resp)
	assert.Equal(t, "REJECTED", loser.Status)

	resp = ts.do(t, http.MethodPost, fmt.Sprintf("/api/v1/bookings/%d/approve", created.ID), "manager", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = ts.do(t, http.MethodGet, fmt.Sprintf("/api/v1/fields/%d/conflicts?date=2026-05-04&start=11:00&end=11:30", ts.field.ID), "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, decode[ConflictResponse](t, resp).Conflict)

	resp = ts.do(t, http.MethodPost, fmt.Sprintf("/api/v1/bookings/%d/cancel", created.ID), "bob", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = ts.do(t, http.MethodPost, fmt.Sprintf("/api/v1/bookings/%d/cancel", created.ID), "alice", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "CANCELLED", decode[BookingResponse](t, resp).Status)

	resp = ts.do(t, http.MethodGet, "/api/v1/me/bookings", "alice", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]BookingResponse](t, resp), 1)

	resp = ts.do(t, http.MethodGet, "/api/v1/me/notifications", "alice", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	inbox := decode[[]notification.Notification](t, resp)
	require.Len(t, inbox, 1)
	assert.Equal(t, model.EventApproved, inbox[0].Kind)

	resp = ts.do(t, http.MethodGet, "/api/v1/me/notifications", "manager", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]notification.Notification](t, resp), 3)
}

func TestRejectBooking(t *testing.T) {
	ts := newTestServer(t)
	created := ts.createBooking(t, "alice", "10:00", "12:00")

	resp := ts.do(t, http.MethodGet, "/api/v1/me/pending-bookings", "manager", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]BookingResponse](t, resp), 1)

	resp = ts.do(t, http.MethodPost, fmt.Sprintf("/api/v1/bookings/%d/reject", created.ID), "manager",
		RejectBookingRequest{Reason: "maintenance"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	rejected := decode[BookingResponse](t, resp)
	assert.Equal(t, "REJECTED", rejected.Status)
	require.NotNil(t, rejected.RejectionReason)
	assert.Equal(t, "maintenance", *rejected.RejectionReason)

	resp = ts.do(t, http.MethodGet, fmt.Sprintf("/api/v1/fields/%d/bookings", ts.field.ID), "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]BookingResponse](t, resp), 1)
}

func TestScheduleEndpoints(t *testing.T) {
	ts := newTestServer(t)
	schedulePath := fmt.Sprintf("/api/v1/fields/%d/schedule", ts.field.ID)

	schedule := SetScheduleRequest{Slots: []WeeklySlotRequest{
		{Day: "monday", StartTime: clock("08:00"), EndTime: clock("10:00")},
		{Day: "monday", StartTime: clock("10:00"), EndTime: clock("12:00")},
	}}

	resp := ts.do(t, http.MethodPut, schedulePath, "alice", schedule)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = ts.do(t, http.MethodPut, schedulePath, "manager", schedule)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]SlotResponse](t, resp), 2)

	overlapping := SetScheduleRequest{Slots: []WeeklySlotRequest{
		{Day: "monday", StartTime: clock("08:00"), EndTime: clock("10:00")},
		{Day: "mon", StartTime: clock("09:00"), EndTime: clock("11:00")},
	}}
	resp = ts.do(t, http.MethodPut, schedulePath, "manager", overlapping)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = ts.do(t, http.MethodPost, fmt.Sprintf("/api/v1/fields/%d/blocks", ts.field.ID), "manager", map[string]any{
		"date": "2026-05-04", "start_time": "08:00", "end_time": "09:00",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	blocked := decode[[]SlotResponse](t, resp)
	require.Len(t, blocked, 1)
	assert.Equal(t, "BLOCKED", blocked[0].Status)

	resp = ts.do(t, http.MethodGet, fmt.Sprintf("/api/v1/fields/%d/available-slots?date=2026-05-04", ts.field.ID), "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	available := decode[[]SlotResponse](t, resp)
	require.Len(t, available, 1)
	assert.Equal(t, "10:00", available[0].StartTime)

	resp = ts.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/slots/%d/block", blocked[0].ID), "alice", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = ts.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/slots/%d/block", blocked[0].ID), "manager", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = ts.do(t, http.MethodGet, fmt.Sprintf("/api/v1/fields/%d/suggestions?date=2026-05-04", ts.field.ID), "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	suggestions := decode[[]SuggestionResponse](t, resp)
	require.Len(t, suggestions, 2)
	assert.Equal(t, "2026-05-04", suggestions[0].Date)
	assert.Equal(t, "08:00", suggestions[0].Slot.StartTime)
}

func TestRequestValidation(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		user   string
		body   any
		want   int
	}{
		{"missing user", http.MethodPost, "/api/v1/bookings", "", map[string]any{}, http.StatusUnauthorized},
		{"bad clock", http.MethodPost, "/api/v1/bookings", "alice", map[string]any{
			"field_id": ts.field.ID, "date": "2026-05-04", "start_time": "25:00", "end_time": "26:00", "type": "MATCH_BOOKING",
		}, http.StatusBadRequest},
		{"bad date", http.MethodPost, "/api/v1/bookings", "alice", map[string]any{
			"field_id": ts.field.ID, "date": "04.05.2026", "start_time": "10:00", "end_time": "11:00", "type": "MATCH_BOOKING",
		}, http.StatusBadRequest},
		{"unknown field", http.MethodPost, "/api/v1/bookings", "alice", map[string]any{
			"field_id": 999, "date": "2026-05-04", "start_time": "10:00", "end_time": "11:00", "type": "MATCH_BOOKING",
		}, http.StatusNotFound},
		{"unknown booking", http.MethodGet, "/api/v1/bookings/999", "", nil, http.StatusNotFound},
		{"bad id", http.MethodGet, "/api/v1/bookings/abc", "", nil, http.StatusBadRequest},
		{"missing date", http.MethodGet, fmt.Sprintf("/api/v1/fields/%d/available-slots", ts.field.ID), "", nil, http.StatusBadRequest},
		{"missing start", http.MethodPost, "/api/v1/bookings", "alice", map[string]any{
			"field_id": ts.field.ID, "date": "2026-05-04", "end_time": "11:00", "type": "MATCH_BOOKING",
		}, http.StatusBadRequest},
		{"missing schedule end", http.MethodPut, fmt.Sprintf("/api/v1/fields/%d/schedule", ts.field.ID), "manager", map[string]any{
			"slots": []map[string]any{{"day": "monday", "start_time": "08:00"}},
		}, http.StatusBadRequest},
		{"missing block end", http.MethodPost, fmt.Sprintf("/api/v1/fields/%d/blocks", ts.field.ID), "manager", map[string]any{
			"date": "2026-05-04", "start_time": "08:00",
		}, http.StatusBadRequest},
		{"reversed range", http.MethodGet, fmt.Sprintf("/api/v1/fields/%d/conflicts?date=2026-05-04&start=12:00&end=10:00", ts.field.ID), "", nil, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.do(t, tt.method, tt.path, tt.user, tt.body)
			assert.Equal(t, tt.want, resp.StatusCode)
			assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t)
	ts.createBooking(t, "alice", "10:00", "12:00")

	resp := ts.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `fieldbook_http_requests_total{code="201",method="POST",route="/api/v1/bookings"} 1`)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("wrap: %w", model.ErrNotFound), http.StatusNotFound},
		{model.ErrUnauthorized, http.StatusForbidden},
		{&model.TransitionError{From: model.BookingStatusRejected, To: model.BookingStatusConfirmed}, http.StatusConflict},
		{&model.ScheduleConflictError{}, http.StatusConflict},
		{model.ErrSlotAlreadyBooked, http.StatusConflict},
		{model.ErrInvalidInput, http.StatusBadRequest},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusFor(tt.err), tt.err.Error())
	}
}

func TestWeekImage(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, http.MethodGet, fmt.Sprintf("/api/v1/fields/%d/week.png?date=2026-05-06", ts.field.ID), "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))

	resp = ts.do(t, http.MethodGet, "/api/v1/fields/999/week.png", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
