package memory

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/fieldbook/internal/model"
)

type BookingRepository struct {
	store *Store
}

func (r *BookingRepository) Save(_ context.Context, booking *model.Booking) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if booking.IsNew() {
		r.store.nextBookingID++
		booking.ID = r.store.nextBookingID
	} else if _, ok := r.store.bookings[booking.ID]; !ok {
		return fmt.Errorf("%w: booking %d", model.ErrNotFound, booking.ID)
	}

	r.store.bookings[booking.ID] = booking.Clone()
	return nil
}

func (r *BookingRepository) FindByID(_ context.Context, id int64) (*model.Booking, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	booking, ok := r.store.bookings[id]
	if !ok {
		return nil, nil
	}
	return booking.Clone(), nil
}

func (r *BookingRepository) FindByFieldID(_ context.Context, fieldID int64) ([]*model.Booking, error) {
	return r.filter(func(b *model.Booking) bool {
		return b.FieldID == fieldID
	}), nil
}

func (r *BookingRepository) FindByRequester(_ context.Context, username string) ([]*model.Booking, error) {
	return r.filter(func(b *model.Booking) bool {
		return b.RequesterUsername == username
	}), nil
}

func (r *BookingRepository) FindPendingByManager(_ context.Context, manager string) ([]*model.Booking, error) {
	r.store.mu.RLock()
	managed := make(map[int64]bool)
	for id, field := range r.store.fields {
		if field.ManagerID == manager {
			managed[id] = true
		}
	}
	r.store.mu.RUnlock()

	return r.filter(func(b *model.Booking) bool {
		return b.IsPending() && managed[b.FieldID]
	}), nil
}

func (r *BookingRepository) FindByStatus(_ context.Context, status model.BookingStatus) ([]*model.Booking, error) {
	return r.filter(func(b *model.Booking) bool {
		return b.Status() == status
	}), nil
}

// UpdateStatus сравнивает статус в хранилище с expected и записывает изменение атомарно
func (r *BookingRepository) UpdateStatus(_ context.Context, booking *model.Booking, expected model.BookingStatus) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	stored, ok := r.store.bookings[booking.ID]
	if !ok {
		return fmt.Errorf("%w: booking %d", model.ErrNotFound, booking.ID)
	}
	if stored.Status() != expected {
		return fmt.Errorf("%w: booking %d is %s, expected %s", model.ErrStaleStatus, booking.ID, stored.Status(), expected)
	}

	r.store.bookings[booking.ID] = booking.Clone()
	return nil
}

func (r *BookingRepository) Delete(_ context.Context, id int64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	delete(r.store.bookings, id)
	return nil
}

func (r *BookingRepository) filter(keep func(*model.Booking) bool) []*model.Booking {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var result []*model.Booking
	for _, b := range r.store.bookings {
		if keep(b) {
			result = append(result, b.Clone())
		}
	}
	sortBookings(result)
	return result
}
