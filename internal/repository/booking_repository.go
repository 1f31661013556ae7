package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Freeeeeet/fieldbook/internal/model"
	"github.com/Freeeeeet/fieldbook/internal/repository/base"
)

var bookingColumns = []string{
	"id",
	"field_id",
	"requester_username",
	"booking_date",
	"start_minute",
	"end_minute",
	"booking_type",
	"status",
	"total_price",
	"requested_at",
	"confirmed_at",
	"rejection_reason",
}

type BookingRepository struct {
	*base.Repository
}

func NewBookingRepository(pool *pgxpool.Pool) *BookingRepository {
	return &BookingRepository{Repository: base.NewRepository(pool)}
}

// Save вставляет новое бронирование или перезаписывает существующее
func (r *BookingRepository) Save(ctx context.Context, booking *model.Booking) error {
	if booking.IsNew() {
		return r.insert(ctx, booking)
	}

	affected, err := r.ExecAffected(ctx, base.Psql.Update("bookings").
		SetMap(map[string]any{
			"field_id":           booking.FieldID,
			"requester_username": booking.RequesterUsername,
			"booking_date":       booking.Date,
			"start_minute":       int(booking.StartTime),
			"end_minute":         int(booking.EndTime),
			"booking_type":       string(booking.Type),
			"status":             string(booking.Status()),
			"total_price":        booking.TotalPrice,
			"requested_at":       booking.RequestedAt,
			"confirmed_at":       booking.ConfirmedAt,
			"rejection_reason":   booking.RejectionReason,
		}).
		Where(squirrel.Eq{"id": booking.ID}))
	if err != nil {
		return fmt.Errorf("update booking: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: booking %d", model.ErrNotFound, booking.ID)
	}
	return nil
}

func (r *BookingRepository) insert(ctx context.Context, booking *model.Booking) error {
	row, err := r.QueryRow(ctx, base.Psql.Insert("bookings").
		Columns(bookingColumns[1:]...).
		Values(
			booking.FieldID,
			booking.RequesterUsername,
			booking.Date,
			int(booking.StartTime),
			int(booking.EndTime),
			string(booking.Type),
			string(booking.Status()),
			booking.TotalPrice,
			booking.RequestedAt,
			booking.ConfirmedAt,
			booking.RejectionReason,
		).
		Suffix("RETURNING id"))
	if err != nil {
		return err
	}

	if err := row.Scan(&booking.ID); err != nil {
		return fmt.Errorf("create booking: %w", err)
	}
	return nil
}

// FindByID получает бронирование по ID
func (r *BookingRepository) FindByID(ctx context.Context, id int64) (*model.Booking, error) {
	row, err := r.QueryRow(ctx, base.Psql.Select(bookingColumns...).
		From("bookings").
		Where(squirrel.Eq{"id": id}))
	if err != nil {
		return nil, err
	}

	booking, err := scanBooking(row)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get booking by id: %w", err)
	}
	return booking, nil
}

// FindByFieldID получает все бронирования поля
func (r *BookingRepository) FindByFieldID(ctx context.Context, fieldID int64) ([]*model.Booking, error) {
	return r.list(ctx, squirrel.Eq{"field_id": fieldID})
}

// FindByRequester получает все бронирования пользователя
func (r *BookingRepository) FindByRequester(ctx context.Context, username string) ([]*model.Booking, error) {
	return r.list(ctx, squirrel.Eq{"requester_username": username})
}

// FindByStatus получает бронирования в статусе
func (r *BookingRepository) FindByStatus(ctx context.Context, status model.BookingStatus) ([]*model.Booking, error) {
	return r.list(ctx, squirrel.Eq{"status": string(status)})
}

// FindPendingByManager получает ожидающие заявки на поля менеджера
func (r *BookingRepository) FindPendingByManager(ctx context.Context, manager string) ([]*model.Booking, error) {
	return r.list(ctx, squirrel.And{
		squirrel.Eq{"status": string(model.BookingStatusPending)},
		squirrel.Expr("field_id IN (SELECT id FROM fields WHERE manager_id = ?)", manager),
	})
}

// UpdateStatus обновляет статус, если в базе всё ещё expected
func (r *BookingRepository) UpdateStatus(ctx context.Context, booking *model.Booking, expected model.BookingStatus) error {
	affected, err := r.ExecAffected(ctx, base.Psql.Update("bookings").
		Set("status", string(booking.Status())).
		Set("confirmed_at", booking.ConfirmedAt).
		Set("rejection_reason", booking.RejectionReason).
		Where(squirrel.Eq{"id": booking.ID, "status": string(expected)}))
	if err != nil {
		return fmt.Errorf("update booking status: %w", err)
	}
	if affected > 0 {
		return nil
	}

	stored, err := r.FindByID(ctx, booking.ID)
	if err != nil {
		return err
	}
	if stored == nil {
		return fmt.Errorf("%w: booking %d", model.ErrNotFound, booking.ID)
	}
	return fmt.Errorf("%w: booking %d is %s, expected %s", model.ErrStaleStatus, booking.ID, stored.Status(), expected)
}

// Delete удаляет бронирование
func (r *BookingRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.ExecAffected(ctx, base.Psql.Delete("bookings").Where(squirrel.Eq{"id": id})); err != nil {
		return fmt.Errorf("delete booking: %w", err)
	}
	return nil
}

func (r *BookingRepository) list(ctx context.Context, where squirrel.Sqlizer) ([]*model.Booking, error) {
	rows, err := r.Query(ctx, base.Psql.Select(bookingColumns...).
		From("bookings").
		Where(where).
		OrderBy("booking_date", "start_minute", "id"))
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*model.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, booking)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bookings: %w", err)
	}

	return bookings, nil
}

// scanBooking восстанавливает сущность; статус выставляется без проверки переходов
func scanBooking(row base.RowScanner) (*model.Booking, error) {
	var (
		booking     model.Booking
		date        time.Time
		start, end  int
		bookingType string
		status      string
	)

	err := row.Scan(
		&booking.ID,
		&booking.FieldID,
		&booking.RequesterUsername,
		&date,
		&start,
		&end,
		&bookingType,
		&status,
		&booking.TotalPrice,
		&booking.RequestedAt,
		&booking.ConfirmedAt,
		&booking.RejectionReason,
	)
	if err != nil {
		return nil, err
	}

	booking.Date = model.DateOf(date)
	booking.StartTime = model.Clock(start)
	booking.EndTime = model.Clock(end)
	booking.Type = model.BookingType(bookingType)
	booking.HydrateStatus(model.BookingStatus(status))

	return &booking, nil
}
