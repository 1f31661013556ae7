package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/Freeeeeet/fieldbook/internal/interval"
	"github.com/Freeeeeet/fieldbook/internal/model"
)

const (
	// SuggestionLimit максимум альтернатив
	SuggestionLimit = 5
	// SuggestionHorizonDays сколько дней просматривается начиная с желаемой даты
	SuggestionHorizonDays = 7
)

// WeeklySlotInput слот недельного расписания, заданный менеджером
type WeeklySlotInput struct {
	DayOfWeek time.Weekday
	StartTime model.Clock
	EndTime   model.Clock
}

// Suggestion свободный слот на конкретную дату
type Suggestion struct {
	Date time.Time
	Slot *model.TimeSlot
}

type AvailabilityService struct {
	fieldRepo FieldRepository
	slotRepo  SlotRepository
	locker    *FieldLocker
	logger    *zap.Logger
}

func NewAvailabilityService(
	fieldRepo FieldRepository,
	slotRepo SlotRepository,
	locker *FieldLocker,
	logger *zap.Logger,
) *AvailabilityService {
	return &AvailabilityService{
		fieldRepo: fieldRepo,
		slotRepo:  slotRepo,
		locker:    locker,
		logger:    logger,
	}
}

// SetWeeklySchedule заменяет недельное расписание поля.
// Слоты одного дня недели не должны пересекаться.
func (s *AvailabilityService) SetWeeklySchedule(ctx context.Context, fieldID int64, input []WeeklySlotInput) ([]*model.TimeSlot, error) {
	if _, err := s.requireField(ctx, fieldID); err != nil {
		return nil, err
	}

	for _, in := range input {
		if in.DayOfWeek < time.Sunday || in.DayOfWeek > time.Saturday {
			return nil, fmt.Errorf("%w: day of week %d", model.ErrInvalidInput, in.DayOfWeek)
		}
		if err := validateRange(in.StartTime, in.EndTime); err != nil {
			return nil, err
		}
	}

	if err := checkScheduleConflicts(input); err != nil {
		s.logger.Warn("Weekly schedule rejected",
			zap.Int64("field_id", fieldID),
			zap.Error(err),
		)
		return nil, err
	}

	slots := lo.Map(input, func(in WeeklySlotInput, _ int) *model.TimeSlot {
		return model.NewWeeklySlot(fieldID, in.DayOfWeek, in.StartTime, in.EndTime)
	})

	unlock := s.locker.Lock(fieldID)
	defer unlock()

	if err := s.slotRepo.ReplaceWeeklySchedule(ctx, fieldID, slots); err != nil {
		s.logger.Error("Failed to replace weekly schedule",
			zap.Int64("field_id", fieldID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("replace weekly schedule: %w", err)
	}

	s.logger.Info("Weekly schedule replaced",
		zap.Int64("field_id", fieldID),
		zap.Int("slots", len(slots)),
	)

	return slots, nil
}

// checkScheduleConflicts попарно сравнивает слоты одного дня недели
func checkScheduleConflicts(input []WeeklySlotInput) error {
	byDay := lo.GroupBy(input, func(in WeeklySlotInput) time.Weekday {
		return in.DayOfWeek
	})

	for day := time.Sunday; day <= time.Saturday; day++ {
		daySlots := byDay[day]
		for i := 0; i < len(daySlots); i++ {
			for j := i + 1; j < len(daySlots); j++ {
				a, b := daySlots[i], daySlots[j]
				if interval.Overlaps(a.StartTime, a.EndTime, b.StartTime, b.EndTime) {
					return &model.ScheduleConflictError{Day: day}
				}
			}
		}
	}
	return nil
}

// GetSchedule возвращает все слоты поля
func (s *AvailabilityService) GetSchedule(ctx context.Context, fieldID int64) ([]*model.TimeSlot, error) {
	if _, err := s.requireField(ctx, fieldID); err != nil {
		return nil, err
	}
	return s.slotRepo.FindByFieldID(ctx, fieldID)
}

// GetAvailableSlots возвращает свободные слоты поля на дату.
// Шаблон дня недели исключается, если на эту дату его перекрывает занятый или заблокированный слот.
func (s *AvailabilityService) GetAvailableSlots(ctx context.Context, fieldID int64, date time.Time) ([]*model.TimeSlot, error) {
	if _, err := s.requireField(ctx, fieldID); err != nil {
		return nil, err
	}
	return s.availableOn(ctx, fieldID, date)
}

func (s *AvailabilityService) availableOn(ctx context.Context, fieldID int64, date time.Time) ([]*model.TimeSlot, error) {
	slots, err := s.slotRepo.FindForDate(ctx, fieldID, model.DateOf(date))
	if err != nil {
		return nil, fmt.Errorf("find slots for date: %w", err)
	}

	free, _ := splitDay(slots)
	return free, nil
}

// splitDay делит слоты даты на свободные шаблоны и занятые или заблокированные слоты
func splitDay(slots []*model.TimeSlot) (free, occupied []*model.TimeSlot) {
	occupied = lo.Filter(slots, func(slot *model.TimeSlot, _ int) bool {
		return !slot.IsAvailable()
	})

	free = lo.Filter(slots, func(slot *model.TimeSlot, _ int) bool {
		if !slot.IsTemplate() || !slot.IsAvailable() {
			return false
		}
		return !lo.ContainsBy(occupied, func(o *model.TimeSlot) bool {
			return interval.SlotsOverlap(slot, o)
		})
	})

	sortByStart(free)
	sortByStart(occupied)
	return free, occupied
}

func sortByStart(slots []*model.TimeSlot) {
	sort.SliceStable(slots, func(i, j int) bool {
		return slots[i].StartTime < slots[j].StartTime
	})
}

// HasConflict проверяет пересечение диапазона с занятыми слотами поля на дату
func (s *AvailabilityService) HasConflict(ctx context.Context, fieldID int64, date time.Time, start, end model.Clock) (bool, error) {
	if err := validateRange(start, end); err != nil {
		return false, err
	}

	conflicting, err := s.slotRepo.FindConflicting(ctx, fieldID, model.DateOf(date), start, end)
	if err != nil {
		return false, fmt.Errorf("find conflicting slots: %w", err)
	}

	return len(conflicting) > 0, nil
}

// SuggestAlternatives ищет свободные слоты начиная с желаемой даты.
// Поиск ограничен SuggestionHorizonDays днями и останавливается на SuggestionLimit результатах.
func (s *AvailabilityService) SuggestAlternatives(ctx context.Context, fieldID int64, preferredDate time.Time) ([]Suggestion, error) {
	if _, err := s.requireField(ctx, fieldID); err != nil {
		return nil, err
	}

	start := model.DateOf(preferredDate)
	suggestions := make([]Suggestion, 0, SuggestionLimit)

	for day := 0; day < SuggestionHorizonDays && len(suggestions) < SuggestionLimit; day++ {
		date := start.AddDate(0, 0, day)

		slots, err := s.availableOn(ctx, fieldID, date)
		if err != nil {
			return nil, err
		}

		for _, slot := range slots {
			if len(suggestions) == SuggestionLimit {
				break
			}
			suggestions = append(suggestions, Suggestion{Date: date, Slot: slot})
		}
	}

	s.logger.Debug("Alternatives suggested",
		zap.Int64("field_id", fieldID),
		zap.Time("preferred_date", start),
		zap.Int("count", len(suggestions)),
	)

	return suggestions, nil
}

// DaySlots картина одного дня: свободные шаблоны и занятые слоты
type DaySlots struct {
	Date     time.Time
	Free     []*model.TimeSlot
	Occupied []*model.TimeSlot
}

// GetWeek собирает неделю (Пн-Вс), в которую попадает date
func (s *AvailabilityService) GetWeek(ctx context.Context, fieldID int64, date time.Time) (*model.Field, []DaySlots, error) {
	field, err := s.requireField(ctx, fieldID)
	if err != nil {
		return nil, nil, err
	}

	day := model.DateOf(date)
	monday := day.AddDate(0, 0, -((int(day.Weekday()) + 6) % 7))

	week := make([]DaySlots, 0, 7)
	for i := 0; i < 7; i++ {
		d := monday.AddDate(0, 0, i)
		slots, err := s.slotRepo.FindForDate(ctx, fieldID, d)
		if err != nil {
			return nil, nil, fmt.Errorf("find slots for date: %w", err)
		}
		free, occupied := splitDay(slots)
		week = append(week, DaySlots{Date: d, Free: free, Occupied: occupied})
	}

	return field, week, nil
}

// BlockSlot блокирует время на дату.
// Шаблоны, попавшие в диапазон, блокируются только на эту дату конкретными слотами,
// покрывающими ту часть шаблона, которая ещё не занята или не заблокирована.
// Если в диапазоне нет шаблонов, блокируется незанятая часть указанного диапазона.
func (s *AvailabilityService) BlockSlot(ctx context.Context, fieldID int64, date time.Time, start, end model.Clock) ([]*model.TimeSlot, error) {
	if _, err := s.requireField(ctx, fieldID); err != nil {
		return nil, err
	}
	if err := validateRange(start, end); err != nil {
		return nil, err
	}

	day := model.DateOf(date)

	unlock := s.locker.Lock(fieldID)
	defer unlock()

	slots, err := s.slotRepo.FindForDate(ctx, fieldID, day)
	if err != nil {
		return nil, fmt.Errorf("find slots for date: %w", err)
	}

	matching := lo.Filter(slots, func(slot *model.TimeSlot, _ int) bool {
		return interval.Overlaps(slot.StartTime, slot.EndTime, start, end)
	})

	if booked, ok := lo.Find(matching, func(slot *model.TimeSlot) bool {
		return slot.Status == model.SlotStatusBooked
	}); ok {
		s.logger.Warn("Cannot block booked slot",
			zap.Int64("field_id", fieldID),
			zap.Int64("slot_id", booked.ID),
		)
		return nil, fmt.Errorf("%w: slot %d %s-%s", model.ErrSlotAlreadyBooked, booked.ID, booked.StartTime, booked.EndTime)
	}

	// без шаблона в диапазоне блокируется сам диапазон
	if !lo.ContainsBy(matching, (*model.TimeSlot).IsTemplate) {
		matching = append(matching, &model.TimeSlot{FieldID: fieldID, StartTime: start, EndTime: end, Status: model.SlotStatusAvailable})
	}

	// занятое на эту дату время: шаблон блокируется только за его пределами
	taken := lo.FilterMap(slots, func(slot *model.TimeSlot, _ int) (interval.Span, bool) {
		return interval.Span{Start: slot.StartTime, End: slot.EndTime}, !slot.IsAvailable()
	})

	blocked := make([]*model.TimeSlot, 0, len(matching))
	for _, slot := range matching {
		switch {
		case slot.Status == model.SlotStatusBlocked:
			blocked = append(blocked, slot)

		case slot.IsTemplate():
			rest := interval.Subtract(interval.Span{Start: slot.StartTime, End: slot.EndTime}, taken)
			for _, part := range rest {
				occurrence := model.NewDatedSlot(fieldID, day, part.Start, part.End, model.SlotStatusBlocked)
				if err := s.slotRepo.Save(ctx, occurrence); err != nil {
					return nil, fmt.Errorf("save blocked slot: %w", err)
				}
				taken = append(taken, part)
				blocked = append(blocked, occurrence)
			}

		default:
			if err := s.slotRepo.UpdateStatus(ctx, slot.ID, model.SlotStatusBlocked); err != nil {
				return nil, fmt.Errorf("block slot: %w", err)
			}
			slot.Status = model.SlotStatusBlocked
			blocked = append(blocked, slot)
		}
	}

	s.logger.Info("Slots blocked",
		zap.Int64("field_id", fieldID),
		zap.Time("date", day),
		zap.Stringer("start", start),
		zap.Stringer("end", end),
		zap.Int("count", len(blocked)),
	)

	return blocked, nil
}

// UnblockSlot возвращает слот в AVAILABLE. Конкретный слот даты удаляется.
func (s *AvailabilityService) UnblockSlot(ctx context.Context, slotID int64) error {
	slot, err := s.slotRepo.FindByID(ctx, slotID)
	if err != nil {
		return fmt.Errorf("get slot: %w", err)
	}
	if slot == nil {
		return fmt.Errorf("%w: slot %d", model.ErrNotFound, slotID)
	}

	unlock := s.locker.Lock(slot.FieldID)
	defer unlock()

	if slot.Status == model.SlotStatusBooked {
		s.logger.Warn("Unblocking booked slot",
			zap.Int64("slot_id", slotID),
			zap.Int64p("booking_id", slot.BookingID),
		)
	}

	if slot.IsTemplate() {
		err = s.slotRepo.UpdateStatus(ctx, slotID, model.SlotStatusAvailable)
	} else {
		err = s.slotRepo.Delete(ctx, slotID)
	}
	if err != nil {
		return fmt.Errorf("unblock slot: %w", err)
	}

	s.logger.Info("Slot unblocked",
		zap.Int64("slot_id", slotID),
		zap.Int64("field_id", slot.FieldID),
	)

	return nil
}

func (s *AvailabilityService) requireField(ctx context.Context, fieldID int64) (*model.Field, error) {
	field, err := s.fieldRepo.FindByID(ctx, fieldID)
	if err != nil {
		return nil, fmt.Errorf("get field: %w", err)
	}
	if field == nil {
		return nil, fmt.Errorf("%w: field %d", model.ErrNotFound, fieldID)
	}
	return field, nil
}

func validateRange(start, end model.Clock) error {
	if !start.Valid() || !end.Valid() {
		return fmt.Errorf("%w: time range %s-%s", model.ErrInvalidInput, start, end)
	}
	if end <= start {
		return fmt.Errorf("%w: end %s must be after start %s", model.ErrInvalidInput, end, start)
	}
	return nil
}
