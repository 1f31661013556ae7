package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/Freeeeeet/fieldbook/internal/interval"
	"github.com/Freeeeeet/fieldbook/internal/model"
)

// AutoRejectReason причина для заявок, проигравших подтверждённой на то же время
const AutoRejectReason = "time slot taken"

// BookingView бронирование с названием поля для отображения
type BookingView struct {
	*model.Booking
	FieldName string
}

// BookingRequest параметры новой заявки
type BookingRequest struct {
	FieldID           int64
	RequesterUsername string
	Date              time.Time
	StartTime         model.Clock
	EndTime           model.Clock
	Type              model.BookingType
}

type BookingService struct {
	bookingRepo  BookingRepository
	fieldRepo    FieldRepository
	slotRepo     SlotRepository
	availability *AvailabilityService
	locker       *FieldLocker
	publisher    EventPublisher
	logger       *zap.Logger
	now          func() time.Time
}

func NewBookingService(
	bookingRepo BookingRepository,
	fieldRepo FieldRepository,
	slotRepo SlotRepository,
	availability *AvailabilityService,
	locker *FieldLocker,
	publisher EventPublisher,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		bookingRepo:  bookingRepo,
		fieldRepo:    fieldRepo,
		slotRepo:     slotRepo,
		availability: availability,
		locker:       locker,
		publisher:    publisher,
		logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// RequestBooking создаёт заявку в статусе PENDING и рассчитывает стоимость.
// Пересечения здесь не проверяются: конфликт разрешается при подтверждении.
func (s *BookingService) RequestBooking(ctx context.Context, req BookingRequest) (*BookingView, error) {
	if strings.TrimSpace(req.RequesterUsername) == "" {
		return nil, fmt.Errorf("%w: requester is required", model.ErrInvalidInput)
	}
	if !req.Type.Valid() {
		return nil, fmt.Errorf("%w: booking type %q", model.ErrInvalidInput, req.Type)
	}
	if err := validateRange(req.StartTime, req.EndTime); err != nil {
		return nil, err
	}

	field, err := s.fieldRepo.FindByID(ctx, req.FieldID)
	if err != nil {
		return nil, fmt.Errorf("get field: %w", err)
	}
	if field == nil {
		return nil, fmt.Errorf("%w: field %d", model.ErrNotFound, req.FieldID)
	}

	booking := model.NewBooking(req.FieldID, req.RequesterUsername, req.Date, req.StartTime, req.EndTime, req.Type, s.now())
	booking.ApplyRate(field.PricePerHour)

	if err := s.bookingRepo.Save(ctx, booking); err != nil {
		s.logger.Error("Failed to save booking",
			zap.Int64("field_id", req.FieldID),
			zap.String("requester", req.RequesterUsername),
			zap.Error(err),
		)
		return nil, fmt.Errorf("save booking: %w", err)
	}

	s.logger.Info("Booking requested",
		zap.Int64("booking_id", booking.ID),
		zap.Int64("field_id", field.ID),
		zap.String("requester", booking.RequesterUsername),
		zap.Time("date", booking.Date),
		zap.Stringer("start", booking.StartTime),
		zap.Stringer("end", booking.EndTime),
		zap.Float64("total_price", *booking.TotalPrice),
	)

	s.emit(ctx, model.EventRequested, booking, field.Name)

	return &BookingView{Booking: booking, FieldName: field.Name}, nil
}

// ApproveBooking подтверждает заявку менеджером поля.
// При успехе создаёт занятый слот и отклоняет пересекающиеся ожидающие заявки.
func (s *BookingService) ApproveBooking(ctx context.Context, bookingID int64, managerUsername string) (*BookingView, error) {
	booking, field, err := s.loadForManager(ctx, bookingID, managerUsername)
	if err != nil {
		return nil, err
	}

	unlock := s.locker.Lock(field.ID)
	approved, losers, err := s.approveLocked(ctx, booking, field)
	unlock()
	if err != nil {
		return nil, err
	}

	s.logger.Info("Booking approved",
		zap.Int64("booking_id", approved.ID),
		zap.String("manager", managerUsername),
		zap.Int("auto_rejected", len(losers)),
	)

	s.emit(ctx, model.EventApproved, approved, field.Name)
	for _, loser := range losers {
		s.emit(ctx, model.EventRejected, loser, field.Name)
	}

	return &BookingView{Booking: approved, FieldName: field.Name}, nil
}

func (s *BookingService) approveLocked(ctx context.Context, stale *model.Booking, field *model.Field) (*model.Booking, []*model.Booking, error) {
	// перечитываем под блокировкой поля
	booking, err := s.bookingRepo.FindByID(ctx, stale.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("get booking: %w", err)
	}
	if booking == nil {
		return nil, nil, fmt.Errorf("%w: booking %d", model.ErrNotFound, stale.ID)
	}
	if !booking.IsPending() {
		return nil, nil, fmt.Errorf("%w: booking %d is %s", model.ErrInvalidState, booking.ID, booking.Status())
	}

	conflict, err := s.availability.HasConflict(ctx, field.ID, booking.Date, booking.StartTime, booking.EndTime)
	if err != nil {
		return nil, nil, err
	}
	if conflict {
		s.logger.Warn("Approval blocked by existing slot",
			zap.Int64("booking_id", booking.ID),
			zap.Int64("field_id", field.ID),
		)
		return nil, nil, fmt.Errorf("%w: %s %s-%s on field %d", model.ErrSlotAlreadyBooked,
			booking.Date.Format(model.DateFormat), booking.StartTime, booking.EndTime, field.ID)
	}

	if err := booking.TransitionTo(model.BookingStatusConfirmed, s.now()); err != nil {
		return nil, nil, err
	}

	slot := model.NewDatedSlot(field.ID, booking.Date, booking.StartTime, booking.EndTime, model.SlotStatusAvailable)
	slot.SetBookingID(&booking.ID)
	if err := s.slotRepo.Save(ctx, slot); err != nil {
		return nil, nil, fmt.Errorf("save booked slot: %w", err)
	}

	if err := s.bookingRepo.UpdateStatus(ctx, booking, model.BookingStatusPending); err != nil {
		if delErr := s.slotRepo.Delete(ctx, slot.ID); delErr != nil {
			s.logger.Error("Failed to release slot after lost approval",
				zap.Int64("slot_id", slot.ID),
				zap.Error(delErr),
			)
		}
		return nil, nil, s.statusUpdateError(booking.ID, err)
	}

	losers, err := s.rejectCompeting(ctx, booking)
	if err != nil {
		// подтверждение уже состоялось
		s.logger.Error("Failed to reject competing bookings",
			zap.Int64("booking_id", booking.ID),
			zap.Error(err),
		)
	}

	return booking, losers, nil
}

// rejectCompeting отклоняет ожидающие заявки, пересекающиеся с подтверждённой
func (s *BookingService) rejectCompeting(ctx context.Context, winner *model.Booking) ([]*model.Booking, error) {
	bookings, err := s.bookingRepo.FindByFieldID(ctx, winner.FieldID)
	if err != nil {
		return nil, fmt.Errorf("get field bookings: %w", err)
	}

	competing := lo.Filter(bookings, func(b *model.Booking, _ int) bool {
		return b.ID != winner.ID && b.IsPending() && interval.BookingsOverlap(b, winner)
	})

	rejected := make([]*model.Booking, 0, len(competing))
	for _, b := range competing {
		reason := AutoRejectReason
		if err := b.TransitionTo(model.BookingStatusRejected, s.now()); err != nil {
			continue
		}
		b.RejectionReason = &reason

		if err := s.bookingRepo.UpdateStatus(ctx, b, model.BookingStatusPending); err != nil {
			s.logger.Warn("Competing booking changed before auto-reject",
				zap.Int64("booking_id", b.ID),
				zap.Error(err),
			)
			continue
		}
		rejected = append(rejected, b)
	}

	return rejected, nil
}

// RejectBooking отклоняет заявку менеджером поля
func (s *BookingService) RejectBooking(ctx context.Context, bookingID int64, managerUsername, reason string) (*BookingView, error) {
	booking, field, err := s.loadForManager(ctx, bookingID, managerUsername)
	if err != nil {
		return nil, err
	}

	if !booking.IsPending() {
		return nil, fmt.Errorf("%w: booking %d is %s", model.ErrInvalidState, booking.ID, booking.Status())
	}

	if err := booking.TransitionTo(model.BookingStatusRejected, s.now()); err != nil {
		return nil, err
	}
	booking.RejectionReason = &reason

	if err := s.bookingRepo.UpdateStatus(ctx, booking, model.BookingStatusPending); err != nil {
		return nil, s.statusUpdateError(booking.ID, err)
	}

	s.logger.Info("Booking rejected",
		zap.Int64("booking_id", booking.ID),
		zap.String("manager", managerUsername),
		zap.String("reason", reason),
	)

	s.emit(ctx, model.EventRejected, booking, field.Name)

	return &BookingView{Booking: booking, FieldName: field.Name}, nil
}

// CancelBooking отменяет заявку её автором. Для подтверждённой освобождается слот.
func (s *BookingService) CancelBooking(ctx context.Context, bookingID int64, requesterUsername string) (*BookingView, error) {
	booking, err := s.requireBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if booking.RequesterUsername != requesterUsername {
		s.logger.Warn("Cancel denied",
			zap.Int64("booking_id", bookingID),
			zap.String("user", requesterUsername),
		)
		return nil, fmt.Errorf("%w: %s is not the requester of booking %d", model.ErrUnauthorized, requesterUsername, bookingID)
	}

	if !booking.IsCancellable() {
		return nil, fmt.Errorf("%w: booking %d is %s", model.ErrInvalidState, booking.ID, booking.Status())
	}

	unlock := s.locker.Lock(booking.FieldID)
	err = s.cancelLocked(ctx, booking)
	unlock()
	if err != nil {
		return nil, err
	}

	s.logger.Info("Booking cancelled",
		zap.Int64("booking_id", booking.ID),
		zap.String("requester", requesterUsername),
	)

	fieldName := s.fieldName(ctx, booking.FieldID)
	s.emit(ctx, model.EventCancelled, booking, fieldName)

	return &BookingView{Booking: booking, FieldName: fieldName}, nil
}

func (s *BookingService) cancelLocked(ctx context.Context, booking *model.Booking) error {
	previous := booking.Status()
	if err := booking.TransitionTo(model.BookingStatusCancelled, s.now()); err != nil {
		return err
	}

	if err := s.bookingRepo.UpdateStatus(ctx, booking, previous); err != nil {
		return s.statusUpdateError(booking.ID, err)
	}

	if previous == model.BookingStatusConfirmed {
		if err := s.releaseSlot(ctx, booking.ID); err != nil {
			s.logger.Error("Failed to release slot of cancelled booking",
				zap.Int64("booking_id", booking.ID),
				zap.Error(err),
			)
		}
	}
	return nil
}

// CompleteFinished переводит подтверждённые бронирования, время которых прошло, в COMPLETED
func (s *BookingService) CompleteFinished(ctx context.Context) (int, error) {
	confirmed, err := s.bookingRepo.FindByStatus(ctx, model.BookingStatusConfirmed)
	if err != nil {
		return 0, fmt.Errorf("get confirmed bookings: %w", err)
	}

	now := s.now()
	count := 0
	for _, booking := range confirmed {
		if booking.EndsAt().After(now) {
			continue
		}
		if err := booking.TransitionTo(model.BookingStatusCompleted, now); err != nil {
			continue
		}
		if err := s.bookingRepo.UpdateStatus(ctx, booking, model.BookingStatusConfirmed); err != nil {
			s.logger.Warn("Failed to complete booking",
				zap.Int64("booking_id", booking.ID),
				zap.Error(err),
			)
			continue
		}
		count++
	}

	if count > 0 {
		s.logger.Info("Finished bookings completed", zap.Int("count", count))
	}

	return count, nil
}

// DeleteBooking административное удаление в обход машины состояний
func (s *BookingService) DeleteBooking(ctx context.Context, bookingID int64) error {
	booking, err := s.requireBooking(ctx, bookingID)
	if err != nil {
		return err
	}

	unlock := s.locker.Lock(booking.FieldID)
	defer unlock()

	if err := s.releaseSlot(ctx, booking.ID); err != nil {
		return err
	}
	if err := s.bookingRepo.Delete(ctx, booking.ID); err != nil {
		return fmt.Errorf("delete booking: %w", err)
	}

	s.logger.Info("Booking deleted",
		zap.Int64("booking_id", booking.ID),
		zap.String("status", string(booking.Status())),
	)

	return nil
}

// GetBooking получает бронирование по ID
func (s *BookingService) GetBooking(ctx context.Context, bookingID int64) (*BookingView, error) {
	booking, err := s.requireBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	return &BookingView{Booking: booking, FieldName: s.fieldName(ctx, booking.FieldID)}, nil
}

// GetUserBookings бронирования пользователя
func (s *BookingService) GetUserBookings(ctx context.Context, username string) ([]*BookingView, error) {
	bookings, err := s.bookingRepo.FindByRequester(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("get bookings by requester: %w", err)
	}
	return s.enrich(ctx, bookings)
}

// GetPendingBookingsForManager ожидающие заявки на поля менеджера
func (s *BookingService) GetPendingBookingsForManager(ctx context.Context, manager string) ([]*BookingView, error) {
	bookings, err := s.bookingRepo.FindPendingByManager(ctx, manager)
	if err != nil {
		return nil, fmt.Errorf("get pending bookings by manager: %w", err)
	}
	return s.enrich(ctx, bookings)
}

// GetFieldBookings все бронирования поля
func (s *BookingService) GetFieldBookings(ctx context.Context, fieldID int64) ([]*BookingView, error) {
	bookings, err := s.bookingRepo.FindByFieldID(ctx, fieldID)
	if err != nil {
		return nil, fmt.Errorf("get bookings by field: %w", err)
	}
	return s.enrich(ctx, bookings)
}

func (s *BookingService) enrich(ctx context.Context, bookings []*model.Booking) ([]*BookingView, error) {
	fieldIDs := lo.Uniq(lo.Map(bookings, func(b *model.Booking, _ int) int64 {
		return b.FieldID
	}))

	names := make(map[int64]string, len(fieldIDs))
	for _, id := range fieldIDs {
		field, err := s.fieldRepo.FindByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("get field: %w", err)
		}
		if field != nil {
			names[id] = field.Name
		}
	}

	return lo.Map(bookings, func(b *model.Booking, _ int) *BookingView {
		return &BookingView{Booking: b, FieldName: names[b.FieldID]}
	}), nil
}

func (s *BookingService) loadForManager(ctx context.Context, bookingID int64, manager string) (*model.Booking, *model.Field, error) {
	booking, err := s.requireBooking(ctx, bookingID)
	if err != nil {
		return nil, nil, err
	}

	field, err := s.fieldRepo.FindByID(ctx, booking.FieldID)
	if err != nil {
		return nil, nil, fmt.Errorf("get field: %w", err)
	}
	if field == nil {
		return nil, nil, fmt.Errorf("%w: field %d", model.ErrNotFound, booking.FieldID)
	}

	if !field.IsManagedBy(manager) {
		s.logger.Warn("Manager action denied",
			zap.Int64("booking_id", bookingID),
			zap.Int64("field_id", field.ID),
			zap.String("user", manager),
		)
		return nil, nil, fmt.Errorf("%w: %s does not manage field %d", model.ErrUnauthorized, manager, field.ID)
	}

	return booking, field, nil
}

func (s *BookingService) requireBooking(ctx context.Context, bookingID int64) (*model.Booking, error) {
	booking, err := s.bookingRepo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("get booking: %w", err)
	}
	if booking == nil {
		return nil, fmt.Errorf("%w: booking %d", model.ErrNotFound, bookingID)
	}
	return booking, nil
}

func (s *BookingService) releaseSlot(ctx context.Context, bookingID int64) error {
	slot, err := s.slotRepo.FindByBookingID(ctx, bookingID)
	if err != nil {
		return fmt.Errorf("get booking slot: %w", err)
	}
	if slot == nil {
		return nil
	}
	if err := s.slotRepo.Delete(ctx, slot.ID); err != nil {
		return fmt.Errorf("delete booking slot: %w", err)
	}
	return nil
}

func (s *BookingService) fieldName(ctx context.Context, fieldID int64) string {
	field, err := s.fieldRepo.FindByID(ctx, fieldID)
	if err != nil || field == nil {
		return ""
	}
	return field.Name
}

func (s *BookingService) statusUpdateError(bookingID int64, err error) error {
	if errors.Is(err, model.ErrStaleStatus) {
		s.logger.Warn("Booking status changed concurrently", zap.Int64("booking_id", bookingID))
		return fmt.Errorf("%w: booking %d: %w", model.ErrInvalidState, bookingID, err)
	}
	return fmt.Errorf("update booking status: %w", err)
}

func (s *BookingService) emit(ctx context.Context, kind model.EventKind, booking *model.Booking, fieldName string) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(ctx, model.BookingEvent{
		ID:         uuid.NewString(),
		Kind:       kind,
		Booking:    booking.Clone(),
		FieldName:  fieldName,
		OccurredAt: s.now(),
	})
}
