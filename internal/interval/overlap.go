// Package interval решает пересекаются ли полуоткрытые интервалы одного дня.
package interval

import "github.com/Freeeeeet/fieldbook/internal/model"

// Overlaps возвращает true, если [start1,end1) и [start2,end2) пересекаются.
// Соприкасающиеся границы пересечением не считаются.
// Отсутствующая или некорректная граница даёт false.
func Overlaps(start1, end1, start2, end2 model.Clock) bool {
	if !start1.Valid() || !end1.Valid() || !start2.Valid() || !end2.Valid() {
		return false
	}
	return start1 < end2 && end1 > start2
}

// SlotsOverlap сравнивает два слота
func SlotsOverlap(a, b *model.TimeSlot) bool {
	if a == nil || b == nil {
		return false
	}
	return Overlaps(a.StartTime, a.EndTime, b.StartTime, b.EndTime)
}

// BookingsOverlap сравнивает два бронирования одной даты
func BookingsOverlap(a, b *model.Booking) bool {
	if a == nil || b == nil || !a.Date.Equal(b.Date) {
		return false
	}
	return Overlaps(a.StartTime, a.EndTime, b.StartTime, b.EndTime)
}

// Span полуоткрытый интервал [Start, End) внутри дня
type Span struct {
	Start model.Clock
	End   model.Clock
}

// Subtract возвращает части span, не покрытые ни одним из cuts, по возрастанию начала
func Subtract(span Span, cuts []Span) []Span {
	rest := []Span{span}
	for _, cut := range cuts {
		next := make([]Span, 0, len(rest)+1)
		for _, r := range rest {
			if !Overlaps(r.Start, r.End, cut.Start, cut.End) {
				next = append(next, r)
				continue
			}
			if r.Start < cut.Start {
				next = append(next, Span{Start: r.Start, End: cut.Start})
			}
			if cut.End < r.End {
				next = append(next, Span{Start: cut.End, End: r.End})
			}
		}
		rest = next
	}
	return rest
}
