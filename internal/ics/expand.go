package ics

import (
	"fmt"
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	"freecal/internal/model"
)

const (
	defaultMaxOccurrencesPerEvent = 5000
)

// RecurrenceRuleError reports an RRULE that could not be parsed. Only the
// recurring occurrences of that event are lost; its base occurrence is kept.
type RecurrenceRuleError struct {
	UID  string
	Rule string
	Err  error
}

func (e *RecurrenceRuleError) Error() string {
	return fmt.Sprintf("event %q: invalid RRULE %q: %v", e.UID, e.Rule, e.Err)
}

func (e *RecurrenceRuleError) Unwrap() error {
	return e.Err
}

// Expand returns the busy intervals generated by ev within
// [rangeStart, rangeEnd].
//
// The base occurrence (ev.Start, ev.Start+ev.Duration) is always the first
// interval, whatever the range. For recurring events every rule occurrence o
// with rangeStart <= o <= rangeEnd is added as (o, o+ev.Duration) on top of
// the base occurrence, so the anchor date may appear twice.
//
// A malformed rule yields the base interval together with a
// *RecurrenceRuleError. An event ending before it starts yields a
// *model.InvalidIntervalError and no intervals.
func Expand(ev model.RawEvent, rangeStart, rangeEnd time.Time) ([]model.Interval, error) {
	out, _, err := expandEvent(ev, rangeStart, rangeEnd, defaultMaxOccurrencesPerEvent)
	return out, err
}

// expandEvent is Expand with an explicit occurrence cap; the boolean result
// reports whether an in-range occurrence was dropped because of the cap.
func expandEvent(ev model.RawEvent, rangeStart, rangeEnd time.Time, maxOccurrences int) ([]model.Interval, bool, error) {
	base, err := model.NewInterval(ev.Start, ev.End())
	if err != nil {
		return nil, false, err
	}
	out := []model.Interval{base}

	if ev.RRule == "" {
		return out, false, nil
	}

	set, err := ruleSet(ev)
	if err != nil {
		return out, false, &RecurrenceRuleError{UID: ev.UID, Rule: ev.RRule, Err: err}
	}

	// The cap ends the walk itself.
	next := set.Iterator()
	expanded := 0
	for {
		occ, ok := next()
		if !ok || occ.After(rangeEnd) {
			return out, false, nil
		}
		if occ.Before(rangeStart) {
			continue
		}
		if expanded == maxOccurrences {
			return out, true, nil
		}
		out = append(out, model.Interval{Start: occ, End: occ.Add(ev.Duration)})
		expanded++
	}
}

// ruleSet builds the recurrence set for ev anchored at ev.Start, with EXDATEs
// applied.
func ruleSet(ev model.RawEvent) (*rrule.Set, error) {
	text := strings.TrimSpace(ev.RRule)
	if len(text) >= len("RRULE:") && strings.EqualFold(text[:len("RRULE:")], "RRULE:") {
		text = text[len("RRULE:"):]
	}

	r, err := rrule.StrToRRule(text)
	if err != nil {
		return nil, err
	}
	r.DTStart(ev.Start)

	set := &rrule.Set{}
	set.RRule(r)
	for _, ex := range ev.ExDates {
		set.ExDate(ex.In(ev.Start.Location()))
	}
	return set, nil
}
