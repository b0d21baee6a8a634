package availability

import (
	"time"

	"freecal/internal/model"
)

// Compute returns the free intervals of day's working window given busy
// intervals sorted ascending by start. Overlapping or contained busy
// intervals are absorbed; zero-length gaps are never emitted.
//
// busy may cover many days: the scan stops at the first interval starting at
// or after the window end.
func Compute(busy []model.Interval, day time.Time, w WorkingWindow) []model.Interval {
	dayStart, dayEnd := w.Bounds(day)

	cursor := dayStart
	free := make([]model.Interval, 0)

	for _, b := range busy {
		if !cursor.Before(dayEnd) || !b.Start.Before(dayEnd) {
			break
		}
		if cursor.Before(b.Start) {
			free = append(free, model.Interval{Start: cursor, End: b.Start})
		}
		if b.End.After(cursor) {
			cursor = b.End
		}
	}

	if cursor.Before(dayEnd) {
		free = append(free, model.Interval{Start: cursor, End: dayEnd})
	}

	return free
}

// ComputeDays runs Compute for each day.
func ComputeDays(busy []model.Interval, days []time.Time, w WorkingWindow) []model.DayAvailability {
	out := make([]model.DayAvailability, 0, len(days))
	for _, day := range days {
		out = append(out, model.DayAvailability{
			Date: day,
			Free: Compute(busy, day, w),
		})
	}
	return out
}
