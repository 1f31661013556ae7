// Package seed загружает демонстрационные поля и недельное расписание из TOML.
package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap"

	"github.com/Freeeeeet/fieldbook/internal/model"
	"github.com/Freeeeeet/fieldbook/internal/service"
)

// File содержимое файла с демо-данными
type File struct {
	Fields []FieldEntry `toml:"fields"`
}

type FieldEntry struct {
	ID           int64           `toml:"id"`
	Name         string          `toml:"name"`
	SportType    string          `toml:"sport_type"`
	City         string          `toml:"city"`
	Manager      string          `toml:"manager"`
	PricePerHour float64         `toml:"price_per_hour"`
	Schedule     []ScheduleEntry `toml:"schedule"`
}

type ScheduleEntry struct {
	Day   string      `toml:"day"`
	Start model.Clock `toml:"start"`
	End   model.Clock `toml:"end"`
}

// FieldSaver хранилище, в которое заносятся поля
type FieldSaver interface {
	Save(ctx context.Context, field *model.Field) error
}

// ScheduleSetter сервис, устанавливающий расписание
type ScheduleSetter interface {
	SetWeeklySchedule(ctx context.Context, fieldID int64, input []service.WeeklySlotInput) ([]*model.TimeSlot, error)
}

// Load читает файл
func Load(path string) (*File, error) {
	var f File
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return nil, fmt.Errorf("decode seed file %s: %w", path, err)
	}
	return &f, nil
}

// Parse читает данные из строки
func Parse(data string) (*File, error) {
	var f File
	if _, err := toml.Decode(data, &f); err != nil {
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	return &f, nil
}

// Apply сохраняет поля и их расписание
func Apply(ctx context.Context, f *File, fields FieldSaver, schedules ScheduleSetter, logger *zap.Logger) error {
	for _, entry := range f.Fields {
		input, err := entry.weeklyInput()
		if err != nil {
			return fmt.Errorf("field %q: %w", entry.Name, err)
		}

		field := &model.Field{
			ID:           entry.ID,
			Name:         entry.Name,
			SportType:    entry.SportType,
			City:         entry.City,
			ManagerID:    entry.Manager,
			PricePerHour: entry.PricePerHour,
			CreatedAt:    time.Now().UTC(),
		}
		if err := fields.Save(ctx, field); err != nil {
			return fmt.Errorf("save field %q: %w", entry.Name, err)
		}

		if len(input) > 0 {
			if _, err := schedules.SetWeeklySchedule(ctx, field.ID, input); err != nil {
				return fmt.Errorf("schedule of field %q: %w", entry.Name, err)
			}
		}

		logger.Info("Field seeded",
			zap.Int64("field_id", field.ID),
			zap.String("name", field.Name),
			zap.String("manager", field.ManagerID),
			zap.Int("slots", len(input)),
		)
	}
	return nil
}

func (e FieldEntry) weeklyInput() ([]service.WeeklySlotInput, error) {
	input := make([]service.WeeklySlotInput, 0, len(e.Schedule))
	for _, s := range e.Schedule {
		day, err := model.ParseWeekday(s.Day)
		if err != nil {
			return nil, err
		}
		input = append(input, service.WeeklySlotInput{DayOfWeek: day, StartTime: s.Start, EndTime: s.End})
	}
	return input, nil
}
