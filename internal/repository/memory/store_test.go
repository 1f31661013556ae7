package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Freeeeeet/fieldbook/internal/model"
)

var day = time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC) // понедельник

func newBooking(fieldID int64, requester string, start, end string) *model.Booking {
	return model.NewBooking(fieldID, requester, day, model.MustParseClock(start), model.MustParseClock(end),
		model.BookingTypeMatch, day.Add(-24*time.Hour))
}

func TestBookingRepository_RehydratesStatus(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().Bookings()

	booking := newBooking(1, "alice", "10:00", "12:00")
	require.NoError(t, booking.TransitionTo(model.BookingStatusConfirmed, day))
	require.NoError(t, repo.Save(ctx, booking))
	require.NotZero(t, booking.ID)

	loaded, err := repo.FindByID(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusConfirmed, loaded.Status())
	assert.Equal(t, booking.ConfirmedAt, loaded.ConfirmedAt)

	// повторная загрузка не меняет ничего
	again, err := repo.FindByID(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, loaded, again)
}

func TestBookingRepository_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().Bookings()

	booking := newBooking(1, "alice", "10:00", "12:00")
	require.NoError(t, repo.Save(ctx, booking))

	loaded, err := repo.FindByID(ctx, booking.ID)
	require.NoError(t, err)
	require.NoError(t, loaded.TransitionTo(model.BookingStatusRejected, day))

	stored, err := repo.FindByID(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusPending, stored.Status())
}

func TestBookingRepository_FindByIDMissing(t *testing.T) {
	booking, err := NewStore().Bookings().FindByID(context.Background(), 42)
	require.NoError(t, err)
	assert.Nil(t, booking)
}

func TestBookingRepository_UpdateStatusCompareAndSwap(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().Bookings()

	booking := newBooking(1, "alice", "10:00", "12:00")
	require.NoError(t, repo.Save(ctx, booking))

	first, err := repo.FindByID(ctx, booking.ID)
	require.NoError(t, err)
	second, err := repo.FindByID(ctx, booking.ID)
	require.NoError(t, err)

	require.NoError(t, first.TransitionTo(model.BookingStatusConfirmed, day))
	require.NoError(t, repo.UpdateStatus(ctx, first, model.BookingStatusPending))

	require.NoError(t, second.TransitionTo(model.BookingStatusRejected, day))
	err = repo.UpdateStatus(ctx, second, model.BookingStatusPending)
	assert.ErrorIs(t, err, model.ErrStaleStatus)

	stored, err := repo.FindByID(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusConfirmed, stored.Status())
}

func TestBookingRepository_Queries(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	fields := store.Fields()
	repo := store.Bookings()

	mine := &model.Field{Name: "Arena", ManagerID: "manager"}
	other := &model.Field{Name: "Park", ManagerID: "someone"}
	require.NoError(t, fields.Save(ctx, mine))
	require.NoError(t, fields.Save(ctx, other))

	late := newBooking(mine.ID, "alice", "18:00", "19:00")
	early := newBooking(mine.ID, "bob", "08:00", "09:00")
	foreign := newBooking(other.ID, "alice", "10:00", "11:00")
	confirmed := newBooking(mine.ID, "carol", "12:00", "13:00")
	require.NoError(t, confirmed.TransitionTo(model.BookingStatusConfirmed, day))
	for _, b := range []*model.Booking{late, early, foreign, confirmed} {
		require.NoError(t, repo.Save(ctx, b))
	}

	byField, err := repo.FindByFieldID(ctx, mine.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{early.ID, confirmed.ID, late.ID}, ids(byField))

	byRequester, err := repo.FindByRequester(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []int64{foreign.ID, late.ID}, ids(byRequester))

	pending, err := repo.FindPendingByManager(ctx, "manager")
	require.NoError(t, err)
	assert.Equal(t, []int64{early.ID, late.ID}, ids(pending))

	byStatus, err := repo.FindByStatus(ctx, model.BookingStatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, []int64{confirmed.ID}, ids(byStatus))

	require.NoError(t, repo.Delete(ctx, late.ID))
	gone, err := repo.FindByID(ctx, late.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestSlotRepository_ReplaceWeeklyScheduleKeepsDatedSlots(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().Slots()

	old := model.NewWeeklySlot(1, time.Monday, model.MustParseClock("08:00"), model.MustParseClock("10:00"))
	blocked := model.NewDatedSlot(1, day, model.MustParseClock("12:00"), model.MustParseClock("13:00"), model.SlotStatusBlocked)
	foreign := model.NewWeeklySlot(2, time.Monday, model.MustParseClock("08:00"), model.MustParseClock("10:00"))
	for _, s := range []*model.TimeSlot{old, blocked, foreign} {
		require.NoError(t, repo.Save(ctx, s))
	}

	replacement := []*model.TimeSlot{
		model.NewWeeklySlot(1, time.Monday, model.MustParseClock("18:00"), model.MustParseClock("20:00")),
	}
	require.NoError(t, repo.ReplaceWeeklySchedule(ctx, 1, replacement))

	slots, err := repo.FindByFieldID(ctx, 1)
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.Equal(t, blocked.ID, slots[0].ID)
	assert.Equal(t, model.MustParseClock("18:00"), slots[1].StartTime)

	others, err := repo.FindByFieldID(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, others, 1)
}

func TestSlotRepository_DateQueries(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().Slots()

	template := model.NewWeeklySlot(1, time.Monday, model.MustParseClock("08:00"), model.MustParseClock("10:00"))
	tuesday := model.NewWeeklySlot(1, time.Tuesday, model.MustParseClock("08:00"), model.MustParseClock("10:00"))
	bookingID := int64(7)
	booked := model.NewDatedSlot(1, day, model.MustParseClock("09:00"), model.MustParseClock("11:00"), model.SlotStatusAvailable)
	booked.SetBookingID(&bookingID)
	nextWeek := model.NewDatedSlot(1, day.AddDate(0, 0, 7), model.MustParseClock("09:00"), model.MustParseClock("11:00"), model.SlotStatusBlocked)
	for _, s := range []*model.TimeSlot{template, tuesday, booked, nextWeek} {
		require.NoError(t, repo.Save(ctx, s))
	}

	forDate, err := repo.FindForDate(ctx, 1, day)
	require.NoError(t, err)
	assert.Equal(t, []int64{template.ID, booked.ID}, slotIDs(forDate))

	available, err := repo.FindAvailableSlots(ctx, 1, time.Monday)
	require.NoError(t, err)
	assert.Equal(t, []int64{template.ID}, slotIDs(available))

	conflicting, err := repo.FindConflicting(ctx, 1, day, model.MustParseClock("10:30"), model.MustParseClock("12:00"))
	require.NoError(t, err)
	assert.Equal(t, []int64{booked.ID}, slotIDs(conflicting))

	// граница не считается пересечением
	touching, err := repo.FindConflicting(ctx, 1, day, model.MustParseClock("11:00"), model.MustParseClock("12:00"))
	require.NoError(t, err)
	assert.Empty(t, touching)

	byBooking, err := repo.FindByBookingID(ctx, bookingID)
	require.NoError(t, err)
	require.NotNil(t, byBooking)
	assert.Equal(t, booked.ID, byBooking.ID)

	require.NoError(t, repo.UpdateStatus(ctx, template.ID, model.SlotStatusBlocked))
	reloaded, err := repo.FindByID(ctx, template.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SlotStatusBlocked, reloaded.Status)

	assert.ErrorIs(t, repo.UpdateStatus(ctx, 999, model.SlotStatusBlocked), model.ErrNotFound)

	require.NoError(t, repo.DeleteByFieldID(ctx, 1))
	all, err := repo.FindByFieldID(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestFieldRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().Fields()

	assert.ErrorIs(t, repo.Save(ctx, &model.Field{}), model.ErrInvalidInput)

	seeded := &model.Field{ID: 10, Name: "Arena", ManagerID: "manager"}
	require.NoError(t, repo.Save(ctx, seeded))
	next := &model.Field{Name: "Park", ManagerID: "manager"}
	require.NoError(t, repo.Save(ctx, next))
	assert.Equal(t, int64(11), next.ID)

	managed, err := repo.FindByManager(ctx, "manager")
	require.NoError(t, err)
	assert.Len(t, managed, 2)

	missing, err := repo.FindByID(ctx, 99)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func ids(bookings []*model.Booking) []int64 {
	out := make([]int64, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, b.ID)
	}
	return out
}

func slotIDs(slots []*model.TimeSlot) []int64 {
	out := make([]int64, 0, len(slots))
	for _, s := range slots {
		out = append(out, s.ID)
	}
	return out
}
