package interval

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Freeeeeet/fieldbook/internal/model"
)

func TestOverlaps(t *testing.T) {
	c := model.MustParseClock

	tests := []struct {
		name   string
		s1, e1 model.Clock
		s2, e2 model.Clock
		want   bool
	}{
		{"partial overlap", c("18:00"), c("20:00"), c("19:00"), c("21:00"), true},
		{"touching end", c("18:00"), c("20:00"), c("20:00"), c("21:00"), false},
		{"touching start", c("18:00"), c("20:00"), c("17:00"), c("18:00"), false},
		{"contained", c("08:00"), c("12:00"), c("09:00"), c("10:00"), true},
		{"containing", c("09:00"), c("10:00"), c("08:00"), c("12:00"), true},
		{"identical", c("09:00"), c("10:00"), c("09:00"), c("10:00"), true},
		{"disjoint", c("09:00"), c("10:00"), c("11:00"), c("12:00"), false},
		{"end of day", c("23:00"), c("24:00"), c("23:30"), c("24:00"), true},
		{"missing start", model.NoClock, c("10:00"), c("09:00"), c("10:00"), false},
		{"missing end", c("09:00"), c("10:00"), c("09:00"), model.NoClock, false},
		{"out of range", c("09:00"), model.Clock(2000), c("09:00"), c("10:00"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Overlaps(tt.s1, tt.e1, tt.s2, tt.e2))
			assert.Equal(t, tt.want, Overlaps(tt.s2, tt.e2, tt.s1, tt.e1), "symmetry")
		})
	}
}

func TestSlotsOverlap(t *testing.T) {
	a := model.NewWeeklySlot(1, time.Monday, model.MustParseClock("18:00"), model.MustParseClock("20:00"))
	b := model.NewWeeklySlot(1, time.Monday, model.MustParseClock("19:30"), model.MustParseClock("20:30"))

	assert.True(t, SlotsOverlap(a, b))
	assert.False(t, SlotsOverlap(a, nil))
}

func TestBookingsOverlap_DifferentDates(t *testing.T) {
	day := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
	start, end := model.MustParseClock("18:00"), model.MustParseClock("20:00")

	a := model.NewBooking(1, "p1", day, start, end, model.BookingTypePrivate, day)
	b := model.NewBooking(1, "p2", day.AddDate(0, 0, 7), start, end, model.BookingTypePrivate, day)
	c := model.NewBooking(1, "p3", day, model.MustParseClock("19:00"), model.MustParseClock("21:00"), model.BookingTypeMatch, day)

	assert.False(t, BookingsOverlap(a, b))
	assert.True(t, BookingsOverlap(a, c))
}

func TestSubtract(t *testing.T) {
	c := model.MustParseClock
	span := Span{Start: c("09:00"), End: c("12:00")}

	tests := []struct {
		name string
		cuts []Span
		want []Span
	}{
		{"no cuts", nil, []Span{span}},
		{"disjoint cut", []Span{{c("12:00"), c("13:00")}}, []Span{span}},
		{"head cut", []Span{{c("08:00"), c("10:00")}}, []Span{{c("10:00"), c("12:00")}}},
		{"tail cut", []Span{{c("11:00"), c("12:00")}}, []Span{{c("09:00"), c("11:00")}}},
		{"middle cut", []Span{{c("10:00"), c("10:30")}}, []Span{{c("09:00"), c("10:00")}, {c("10:30"), c("12:00")}}},
		{"fully covered", []Span{{c("09:00"), c("10:30")}, {c("10:00"), c("12:00")}}, []Span{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Subtract(span, tt.cuts))
		})
	}
}
