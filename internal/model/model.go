package model

import (
	"fmt"
	"time"
)

// RawEvent is a single calendar entry as produced by the ICS parser, before
// recurrence expansion. Recurring events appear once with their rule attached.
type RawEvent struct {
	UID     string
	Summary string

	// Start carries an explicit location; floating times are normalized by
	// the parser before a RawEvent is built.
	Start    time.Time
	Duration time.Duration

	// RRule is the raw recurrence rule text (without the "RRULE:" prefix),
	// empty for one-off events.
	RRule   string
	ExDates []time.Time

	AllDay bool
}

// End returns the end instant of the base occurrence.
func (e RawEvent) End() time.Time {
	return e.Start.Add(e.Duration)
}

// Interval is a busy or free span [Start, End].
type Interval struct {
	Start time.Time
	End   time.Time
}

// NewInterval builds an Interval, rejecting end before start.
func NewInterval(start, end time.Time) (Interval, error) {
	if end.Before(start) {
		return Interval{}, &InvalidIntervalError{Start: start, End: end}
	}
	return Interval{Start: start, End: end}, nil
}

// In returns the same interval expressed in loc.
func (iv Interval) In(loc *time.Location) Interval {
	return Interval{Start: iv.Start.In(loc), End: iv.End.In(loc)}
}

func (iv Interval) String() string {
	return iv.Start.Format(time.RFC3339) + "/" + iv.End.Format(time.RFC3339)
}

// DayAvailability holds the free intervals computed for one calendar day.
type DayAvailability struct {
	Date time.Time
	Free []Interval
}

// InvalidIntervalError reports an interval whose end precedes its start.
// It indicates an upstream parsing defect.
type InvalidIntervalError struct {
	Start time.Time
	End   time.Time
}

func (e *InvalidIntervalError) Error() string {
	return fmt.Sprintf("invalid interval: end %s is before start %s",
		e.End.Format(time.RFC3339), e.Start.Format(time.RFC3339))
}
