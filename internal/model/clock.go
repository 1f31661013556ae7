package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Clock время суток в минутах от полуночи (00:00 .. 24:00)
type Clock int

const (
	// NoClock отсутствующая граница интервала
	NoClock Clock = -1

	MinutesPerDay = 24 * 60

	ClockFormat = "15:04"
	DateFormat  = "2006-01-02"
)

// NewClock создаёт Clock из часов и минут
func NewClock(hour, minute int) Clock {
	return Clock(hour*60 + minute)
}

// ParseClock разбирает строку формата HH:MM. "24:00" допустимо как конец дня.
func ParseClock(s string) (Clock, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 || len(parts[0]) == 0 || len(parts[1]) != 2 {
		return NoClock, fmt.Errorf("%w: time %q must be HH:MM", ErrInvalidInput, s)
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return NoClock, fmt.Errorf("%w: time %q: bad hour", ErrInvalidInput, s)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return NoClock, fmt.Errorf("%w: time %q: bad minute", ErrInvalidInput, s)
	}

	if hour < 0 || hour > 24 || minute < 0 || minute > 59 || (hour == 24 && minute != 0) {
		return NoClock, fmt.Errorf("%w: time %q out of range", ErrInvalidInput, s)
	}

	return NewClock(hour, minute), nil
}

// MustParseClock как ParseClock, но паникует. Для тестов и констант.
func MustParseClock(s string) Clock {
	c, err := ParseClock(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Valid проверяет что значение лежит внутри суток
func (c Clock) Valid() bool {
	return c >= 0 && c <= MinutesPerDay
}

// Hour возвращает час
func (c Clock) Hour() int {
	return int(c) / 60
}

// Minute возвращает минуты
func (c Clock) Minute() int {
	return int(c) % 60
}

// Sub возвращает длительность между двумя моментами одного дня
func (c Clock) Sub(other Clock) time.Duration {
	return time.Duration(int(c)-int(other)) * time.Minute
}

// On возвращает момент времени на указанную дату
func (c Clock) On(date time.Time) time.Time {
	d := DateOf(date)
	return d.Add(time.Duration(c) * time.Minute)
}

func (c Clock) String() string {
	if !c.Valid() {
		return "--:--"
	}
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

// MarshalText реализует encoding.TextMarshaler
func (c Clock) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: clock %d out of range", ErrInvalidInput, int(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText реализует encoding.TextUnmarshaler
func (c *Clock) UnmarshalText(text []byte) error {
	parsed, err := ParseClock(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// DateOf отбрасывает время, оставляя календарную дату в UTC
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate разбирает дату формата YYYY-MM-DD
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateFormat, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q must be YYYY-MM-DD", ErrInvalidInput, s)
	}
	return d, nil
}

// ParseWeekday принимает английское название дня, полное или из трёх букв
func ParseWeekday(s string) (time.Weekday, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for day := time.Sunday; day <= time.Saturday; day++ {
		full := strings.ToLower(day.String())
		if name == full || name == full[:3] {
			return day, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown weekday %q", ErrInvalidInput, s)
}
