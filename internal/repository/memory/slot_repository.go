package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/fieldbook/internal/interval"
	"github.com/Freeeeeet/fieldbook/internal/model"
)

type SlotRepository struct {
	store *Store
}

func (r *SlotRepository) Save(_ context.Context, slot *model.TimeSlot) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	r.saveLocked(slot)
	return nil
}

func (r *SlotRepository) saveLocked(slot *model.TimeSlot) {
	if slot.ID == 0 {
		r.store.nextSlotID++
		slot.ID = r.store.nextSlotID
	}
	r.store.slots[slot.ID] = slot.Clone()
}

func (r *SlotRepository) FindByID(_ context.Context, id int64) (*model.TimeSlot, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	slot, ok := r.store.slots[id]
	if !ok {
		return nil, nil
	}
	return slot.Clone(), nil
}

func (r *SlotRepository) FindByFieldID(_ context.Context, fieldID int64) ([]*model.TimeSlot, error) {
	return r.filter(func(s *model.TimeSlot) bool {
		return s.FieldID == fieldID
	}), nil
}

func (r *SlotRepository) FindByBookingID(_ context.Context, bookingID int64) (*model.TimeSlot, error) {
	found := r.filter(func(s *model.TimeSlot) bool {
		return s.BookingID != nil && *s.BookingID == bookingID
	})
	if len(found) == 0 {
		return nil, nil
	}
	return found[0], nil
}

func (r *SlotRepository) FindForDate(_ context.Context, fieldID int64, date time.Time) ([]*model.TimeSlot, error) {
	return r.filter(func(s *model.TimeSlot) bool {
		return s.FieldID == fieldID && s.AppliesTo(date)
	}), nil
}

func (r *SlotRepository) FindAvailableSlots(_ context.Context, fieldID int64, day time.Weekday) ([]*model.TimeSlot, error) {
	return r.filter(func(s *model.TimeSlot) bool {
		return s.FieldID == fieldID && s.IsTemplate() && s.DayOfWeek == day && s.IsAvailable()
	}), nil
}

func (r *SlotRepository) FindConflicting(_ context.Context, fieldID int64, date time.Time, start, end model.Clock) ([]*model.TimeSlot, error) {
	return r.filter(func(s *model.TimeSlot) bool {
		return s.FieldID == fieldID &&
			!s.IsAvailable() &&
			s.AppliesTo(date) &&
			interval.Overlaps(s.StartTime, s.EndTime, start, end)
	}), nil
}

func (r *SlotRepository) UpdateStatus(_ context.Context, slotID int64, status model.SlotStatus) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	slot, ok := r.store.slots[slotID]
	if !ok {
		return fmt.Errorf("%w: slot %d", model.ErrNotFound, slotID)
	}
	slot.Status = status
	return nil
}

// ReplaceWeeklySchedule заменяет шаблоны поля под одной блокировкой хранилища
func (r *SlotRepository) ReplaceWeeklySchedule(_ context.Context, fieldID int64, slots []*model.TimeSlot) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for id, slot := range r.store.slots {
		if slot.FieldID == fieldID && slot.IsTemplate() {
			delete(r.store.slots, id)
		}
	}
	for _, slot := range slots {
		slot.ID = 0
		r.saveLocked(slot)
	}
	return nil
}

func (r *SlotRepository) Delete(_ context.Context, id int64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	delete(r.store.slots, id)
	return nil
}

func (r *SlotRepository) DeleteByFieldID(_ context.Context, fieldID int64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for id, slot := range r.store.slots {
		if slot.FieldID == fieldID {
			delete(r.store.slots, id)
		}
	}
	return nil
}

func (r *SlotRepository) filter(keep func(*model.TimeSlot) bool) []*model.TimeSlot {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var result []*model.TimeSlot
	for _, s := range r.store.slots {
		if keep(s) {
			result = append(result, s.Clone())
		}
	}
	sortSlots(result)
	return result
}
