package availability

import "time"

// NextWeekdays walks forward from start's civil date and returns the first
// count Monday-Friday dates, each at midnight in start's location.
func NextWeekdays(start time.Time, count int) []time.Time {
	days := make([]time.Time, 0, max(count, 0))
	y, m, d := start.Date()
	loc := start.Location()

	for i := 0; len(days) < count; i++ {
		day := time.Date(y, m, d+i, 0, 0, 0, 0, loc)
		if wd := day.Weekday(); wd != time.Saturday && wd != time.Sunday {
			days = append(days, day)
		}
	}
	return days
}
