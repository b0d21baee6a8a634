package availability

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// TimeOfDay represents a clock time without a date component.
type TimeOfDay struct {
	Hour   int // 0-23
	Minute int // 0-59
}

// String returns TimeOfDay in "HH:MM" format.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

func (t TimeOfDay) minutes() int {
	return t.Hour*60 + t.Minute
}

var (
	// 14:00, 9:30
	time24h = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)
	// 9am, 5:30pm
	timeAMPM = regexp.MustCompile(`^(\d{1,2})(?::(\d{2}))?\s*(am|pm)$`)
)

// ParseTimeOfDay parses "HH:MM" (24-hour) or "9am" / "5:30pm" style clock times.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	s = strings.TrimSpace(strings.ToLower(s))

	if m := time24h.FindStringSubmatch(s); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		if hour > 23 {
			return TimeOfDay{}, fmt.Errorf("hour %d out of range", hour)
		}
		if minute > 59 {
			return TimeOfDay{}, fmt.Errorf("minute %d out of range", minute)
		}
		return TimeOfDay{Hour: hour, Minute: minute}, nil
	}

	if m := timeAMPM.FindStringSubmatch(s); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute := 0
		if m[2] != "" {
			minute, _ = strconv.Atoi(m[2])
		}
		if hour < 1 || hour > 12 {
			return TimeOfDay{}, fmt.Errorf("hour %d out of range for 12-hour format", hour)
		}
		if minute > 59 {
			return TimeOfDay{}, fmt.Errorf("minute %d out of range", minute)
		}
		if hour == 12 {
			hour = 0
		}
		if m[3] == "pm" {
			hour += 12
		}
		return TimeOfDay{Hour: hour, Minute: minute}, nil
	}

	return TimeOfDay{}, fmt.Errorf("unrecognized time format %q", s)
}

// WorkingWindow is the civil-time span applied identically to every day.
type WorkingWindow struct {
	DayStart TimeOfDay
	DayEnd   TimeOfDay
	Location *time.Location
}

// DefaultWorkingWindow returns 09:00-18:00 in America/Chicago.
func DefaultWorkingWindow() (WorkingWindow, error) {
	loc, err := time.LoadLocation("America/Chicago")
	if err != nil {
		return WorkingWindow{}, err
	}
	return WorkingWindow{
		DayStart: TimeOfDay{Hour: 9},
		DayEnd:   TimeOfDay{Hour: 18},
		Location: loc,
	}, nil
}

// Validate checks that the window has a location and ends after it starts.
func (w WorkingWindow) Validate() error {
	if w.Location == nil {
		return errors.New("working window: location is nil")
	}
	if w.DayEnd.minutes() <= w.DayStart.minutes() {
		return fmt.Errorf("working window: end %s is not after start %s", w.DayEnd, w.DayStart)
	}
	return nil
}

// Bounds returns the window on the civil date day falls on in the window's
// location. Any instant of that date selects the same window.
func (w WorkingWindow) Bounds(day time.Time) (time.Time, time.Time) {
	y, m, d := day.In(w.Location).Date()
	start := time.Date(y, m, d, w.DayStart.Hour, w.DayStart.Minute, 0, 0, w.Location)
	end := time.Date(y, m, d, w.DayEnd.Hour, w.DayEnd.Minute, 0, 0, w.Location)
	return start, end
}

func (w WorkingWindow) String() string {
	return w.DayStart.String() + "-" + w.DayEnd.String() + " " + w.Location.String()
}
