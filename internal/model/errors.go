package model

import (
	"errors"
	"fmt"
	"time"
)

// Виды доменных ошибок движка бронирований
var (
	ErrNotFound          = errors.New("not found")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrInvalidState      = errors.New("invalid state")
	ErrScheduleConflict  = errors.New("schedule conflict")
	ErrSlotAlreadyBooked = errors.New("slot already booked")
	ErrInvalidInput      = errors.New("invalid input")

	// ErrStaleStatus статус в хранилище изменился между чтением и записью
	ErrStaleStatus = errors.New("booking status changed concurrently")
)

// TransitionError недопустимый переход состояния бронирования
type TransitionError struct {
	From BookingStatus
	To   BookingStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid state transition %s -> %s", e.From, e.To)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidState
}

// ScheduleConflictError пересечение слотов внутри недельного расписания
type ScheduleConflictError struct {
	Day time.Weekday
}

func (e *ScheduleConflictError) Error() string {
	return fmt.Sprintf("schedule conflict: overlapping slots on %s", e.Day)
}

func (e *ScheduleConflictError) Unwrap() error {
	return ErrScheduleConflict
}
