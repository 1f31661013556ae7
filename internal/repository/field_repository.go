package repository

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Freeeeeet/fieldbook/internal/model"
	"github.com/Freeeeeet/fieldbook/internal/repository/base"
)

var fieldColumns = []string{"id", "name", "sport_type", "city", "manager_id", "price_per_hour", "created_at"}

type FieldRepository struct {
	*base.Repository
}

func NewFieldRepository(pool *pgxpool.Pool) *FieldRepository {
	return &FieldRepository{Repository: base.NewRepository(pool)}
}

// Save создаёт поле или обновляет его по ID. Поле с заданным ID сдвигает последовательность.
func (r *FieldRepository) Save(ctx context.Context, field *model.Field) error {
	if field.ID == 0 {
		row, err := r.QueryRow(ctx, base.Psql.Insert("fields").
			Columns("name", "sport_type", "city", "manager_id", "price_per_hour").
			Values(field.Name, field.SportType, field.City, field.ManagerID, field.PricePerHour).
			Suffix("RETURNING id, created_at"))
		if err != nil {
			return err
		}
		if err := row.Scan(&field.ID, &field.CreatedAt); err != nil {
			return fmt.Errorf("create field: %w", err)
		}
		return nil
	}

	return r.WithTx(ctx, func(ctx context.Context) error {
		row, err := r.QueryRow(ctx, base.Psql.Insert("fields").
			Columns("id", "name", "sport_type", "city", "manager_id", "price_per_hour").
			Values(field.ID, field.Name, field.SportType, field.City, field.ManagerID, field.PricePerHour).
			Suffix(`ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name,
				sport_type = EXCLUDED.sport_type,
				city = EXCLUDED.city,
				manager_id = EXCLUDED.manager_id,
				price_per_hour = EXCLUDED.price_per_hour
			RETURNING created_at`))
		if err != nil {
			return err
		}
		if err := row.Scan(&field.CreatedAt); err != nil {
			return fmt.Errorf("upsert field: %w", err)
		}

		_, err = r.ExecAffected(ctx, squirrel.Expr(
			"SELECT setval(pg_get_serial_sequence('fields', 'id'), (SELECT MAX(id) FROM fields))"))
		if err != nil {
			return fmt.Errorf("sync fields sequence: %w", err)
		}
		return nil
	})
}

// FindByID получает поле по ID
func (r *FieldRepository) FindByID(ctx context.Context, id int64) (*model.Field, error) {
	row, err := r.QueryRow(ctx, base.Psql.Select(fieldColumns...).
		From("fields").
		Where(squirrel.Eq{"id": id}))
	if err != nil {
		return nil, err
	}

	field, err := scanField(row)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get field by id: %w", err)
	}
	return field, nil
}

// FindByManager получает поля менеджера
func (r *FieldRepository) FindByManager(ctx context.Context, manager string) ([]*model.Field, error) {
	rows, err := r.Query(ctx, base.Psql.Select(fieldColumns...).
		From("fields").
		Where(squirrel.Eq{"manager_id": manager}).
		OrderBy("id"))
	if err != nil {
		return nil, fmt.Errorf("get fields by manager: %w", err)
	}
	defer rows.Close()

	var fields []*model.Field
	for rows.Next() {
		field, err := scanField(rows)
		if err != nil {
			return nil, fmt.Errorf("scan field: %w", err)
		}
		fields = append(fields, field)
	}

	return fields, rows.Err()
}

func scanField(row base.RowScanner) (*model.Field, error) {
	var field model.Field
	err := row.Scan(
		&field.ID,
		&field.Name,
		&field.SportType,
		&field.City,
		&field.ManagerID,
		&field.PricePerHour,
		&field.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &field, nil
}
