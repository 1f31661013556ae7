package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/Freeeeeet/fieldbook/internal/model"
	"github.com/Freeeeeet/fieldbook/internal/repository/base"
)

var slotColumns = []string{"id", "field_id", "day_of_week", "booking_date", "start_minute", "end_minute", "status", "booking_id"}

type SlotRepository struct {
	*base.Repository
	logger *zap.Logger
}

func NewSlotRepository(pool *pgxpool.Pool, logger *zap.Logger) *SlotRepository {
	return &SlotRepository{
		Repository: base.NewRepository(pool),
		logger:     logger,
	}
}

// Save создаёт новый слот или обновляет существующий
func (r *SlotRepository) Save(ctx context.Context, slot *model.TimeSlot) error {
	if slot.ID != 0 {
		_, err := r.ExecAffected(ctx, base.Psql.Update("time_slots").
			SetMap(map[string]any{
				"field_id":     slot.FieldID,
				"day_of_week":  int(slot.DayOfWeek),
				"booking_date": slot.BookingDate,
				"start_minute": int(slot.StartTime),
				"end_minute":   int(slot.EndTime),
				"status":       string(slot.Status),
				"booking_id":   slot.BookingID,
			}).
			Where(squirrel.Eq{"id": slot.ID}))
		if err != nil {
			return fmt.Errorf("update slot: %w", err)
		}
		return nil
	}

	row, err := r.QueryRow(ctx, base.Psql.Insert("time_slots").
		Columns(slotColumns[1:]...).
		Values(
			slot.FieldID,
			int(slot.DayOfWeek),
			slot.BookingDate,
			int(slot.StartTime),
			int(slot.EndTime),
			string(slot.Status),
			slot.BookingID,
		).
		Suffix("RETURNING id"))
	if err != nil {
		return err
	}

	if err := row.Scan(&slot.ID); err != nil {
		return fmt.Errorf("create slot: %w", err)
	}
	return nil
}

// FindByID получает слот по ID
func (r *SlotRepository) FindByID(ctx context.Context, id int64) (*model.TimeSlot, error) {
	return r.one(ctx, squirrel.Eq{"id": id})
}

// FindByBookingID получает слот, занятый бронированием
func (r *SlotRepository) FindByBookingID(ctx context.Context, bookingID int64) (*model.TimeSlot, error) {
	return r.one(ctx, squirrel.Eq{"booking_id": bookingID})
}

// FindByFieldID получает все слоты поля
func (r *SlotRepository) FindByFieldID(ctx context.Context, fieldID int64) ([]*model.TimeSlot, error) {
	return r.list(ctx, squirrel.Eq{"field_id": fieldID})
}

// FindForDate шаблоны дня недели и конкретные слоты даты
func (r *SlotRepository) FindForDate(ctx context.Context, fieldID int64, date time.Time) ([]*model.TimeSlot, error) {
	return r.list(ctx, squirrel.And{
		squirrel.Eq{"field_id": fieldID},
		forDate(date),
	})
}

// FindAvailableSlots свободные шаблоны дня недели
func (r *SlotRepository) FindAvailableSlots(ctx context.Context, fieldID int64, day time.Weekday) ([]*model.TimeSlot, error) {
	return r.list(ctx, squirrel.Eq{
		"field_id":     fieldID,
		"day_of_week":  int(day),
		"booking_date": nil,
		"status":       string(model.SlotStatusAvailable),
	})
}

// FindConflicting занятые слоты даты, пересекающие [start, end)
func (r *SlotRepository) FindConflicting(ctx context.Context, fieldID int64, date time.Time, start, end model.Clock) ([]*model.TimeSlot, error) {
	return r.list(ctx, squirrel.And{
		squirrel.Eq{"field_id": fieldID},
		squirrel.NotEq{"status": string(model.SlotStatusAvailable)},
		forDate(date),
		squirrel.Lt{"start_minute": int(end)},
		squirrel.Gt{"end_minute": int(start)},
	})
}

// UpdateStatus обновляет статус слота
func (r *SlotRepository) UpdateStatus(ctx context.Context, slotID int64, status model.SlotStatus) error {
	affected, err := r.ExecAffected(ctx, base.Psql.Update("time_slots").
		Set("status", string(status)).
		Where(squirrel.Eq{"id": slotID}))
	if err != nil {
		return fmt.Errorf("update slot status: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: slot %d", model.ErrNotFound, slotID)
	}
	return nil
}

// ReplaceWeeklySchedule в одной транзакции удаляет шаблоны поля и вставляет новые
func (r *SlotRepository) ReplaceWeeklySchedule(ctx context.Context, fieldID int64, slots []*model.TimeSlot) error {
	return r.WithTx(ctx, func(ctx context.Context) error {
		deleted, err := r.ExecAffected(ctx, base.Psql.Delete("time_slots").
			Where(squirrel.Eq{"field_id": fieldID, "booking_date": nil}))
		if err != nil {
			return fmt.Errorf("delete weekly slots: %w", err)
		}

		for _, slot := range slots {
			slot.ID = 0
			if err := r.Save(ctx, slot); err != nil {
				return err
			}
		}

		r.logger.Debug("Weekly slots replaced",
			zap.Int64("field_id", fieldID),
			zap.Int64("deleted", deleted),
			zap.Int("inserted", len(slots)),
		)
		return nil
	})
}

// Delete удаляет слот
func (r *SlotRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.ExecAffected(ctx, base.Psql.Delete("time_slots").Where(squirrel.Eq{"id": id})); err != nil {
		return fmt.Errorf("delete slot: %w", err)
	}
	return nil
}

// DeleteByFieldID удаляет все слоты поля
func (r *SlotRepository) DeleteByFieldID(ctx context.Context, fieldID int64) error {
	if _, err := r.ExecAffected(ctx, base.Psql.Delete("time_slots").Where(squirrel.Eq{"field_id": fieldID})); err != nil {
		return fmt.Errorf("delete field slots: %w", err)
	}
	return nil
}

func forDate(date time.Time) squirrel.Sqlizer {
	d := model.DateOf(date)
	return squirrel.Or{
		squirrel.Eq{"booking_date": nil, "day_of_week": int(d.Weekday())},
		squirrel.Eq{"booking_date": d},
	}
}

func (r *SlotRepository) one(ctx context.Context, where squirrel.Sqlizer) (*model.TimeSlot, error) {
	row, err := r.QueryRow(ctx, base.Psql.Select(slotColumns...).
		From("time_slots").
		Where(where).
		Limit(1))
	if err != nil {
		return nil, err
	}

	slot, err := scanSlot(row)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get slot: %w", err)
	}
	return slot, nil
}

func (r *SlotRepository) list(ctx context.Context, where squirrel.Sqlizer) ([]*model.TimeSlot, error) {
	rows, err := r.Query(ctx, base.Psql.Select(slotColumns...).
		From("time_slots").
		Where(where).
		OrderBy("day_of_week", "start_minute", "id"))
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	defer rows.Close()

	var slots []*model.TimeSlot
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan slot: %w", err)
		}
		slots = append(slots, slot)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate slots: %w", err)
	}

	return slots, nil
}

func scanSlot(row base.RowScanner) (*model.TimeSlot, error) {
	var (
		slot       model.TimeSlot
		day        int16
		date       *time.Time
		start, end int
		status     string
	)

	err := row.Scan(&slot.ID, &slot.FieldID, &day, &date, &start, &end, &status, &slot.BookingID)
	if err != nil {
		return nil, err
	}

	slot.DayOfWeek = time.Weekday(day)
	if date != nil {
		d := model.DateOf(*date)
		slot.BookingDate = &d
	}
	slot.StartTime = model.Clock(start)
	slot.EndTime = model.Clock(end)
	slot.Status = model.SlotStatus(status)

	return &slot, nil
}
