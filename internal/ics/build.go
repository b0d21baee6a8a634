package ics

import (
	"errors"
	"sort"
	"time"

	appLog "freecal/internal/log"
	"freecal/internal/model"
)

// DefaultRangeDays is the expansion range length used when the caller does
// not specify an end.
const DefaultRangeDays = 30

// BuildOptions controls the busy-interval build.
type BuildOptions struct {
	// RangeStart / RangeEnd bound recurrence expansion (inclusive). A zero
	// RangeStart means now; a zero RangeEnd means RangeStart+DefaultRangeDays.
	RangeStart time.Time
	RangeEnd   time.Time

	// MaxOccurrencesPerEvent caps each event's expansion. If zero,
	// defaultMaxOccurrencesPerEvent is used.
	MaxOccurrencesPerEvent int

	// Now is used for the default range. If nil, time.Now is used.
	Now func() time.Time
}

// BuildResult holds the sorted busy intervals and the per-event problems
// that did not abort the build.
type BuildResult struct {
	Busy       []model.Interval
	RangeStart time.Time
	RangeEnd   time.Time

	// RuleErrors holds one *RecurrenceRuleError per event whose RRULE
	// could not be parsed.
	RuleErrors []error
	// TruncatedEvents records UIDs that hit the occurrence cap.
	TruncatedEvents []string
}

// BuildBusy expands every event and returns all resulting intervals sorted
// ascending by start. The sort is stable, so intervals with equal starts keep
// their emission order. Overlaps are not merged.
//
// Malformed recurrence rules are collected in BuildResult.RuleErrors. An
// event ending before it starts aborts the build with
// *model.InvalidIntervalError.
func BuildBusy(events []model.RawEvent, opts BuildOptions) (BuildResult, error) {
	var result BuildResult

	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.RangeStart.IsZero() {
		opts.RangeStart = opts.Now()
	}
	if opts.RangeEnd.IsZero() {
		opts.RangeEnd = opts.RangeStart.AddDate(0, 0, DefaultRangeDays)
	}
	if opts.RangeEnd.Before(opts.RangeStart) {
		return result, errors.New("build: RangeEnd is before RangeStart")
	}
	if opts.MaxOccurrencesPerEvent <= 0 {
		opts.MaxOccurrencesPerEvent = defaultMaxOccurrencesPerEvent
	}

	result.RangeStart = opts.RangeStart
	result.RangeEnd = opts.RangeEnd
	result.Busy = make([]model.Interval, 0, len(events))

	for _, ev := range events {
		intervals, hitCap, err := expandEvent(ev, opts.RangeStart, opts.RangeEnd, opts.MaxOccurrencesPerEvent)
		if err != nil {
			var ruleErr *RecurrenceRuleError
			if !errors.As(err, &ruleErr) {
				return BuildResult{}, err
			}
			result.RuleErrors = append(result.RuleErrors, err)
			appLog.Error("build: failed to parse RRULE; keeping base occurrence", err, "uid", ev.UID, "rrule", ev.RRule)
		}
		if hitCap {
			result.TruncatedEvents = append(result.TruncatedEvents, ev.UID)
			appLog.Error("build: truncated occurrences for UID due to cap",
				errors.New("max occurrences reached"),
				"uid", ev.UID,
				"cap", opts.MaxOccurrencesPerEvent,
			)
		}
		result.Busy = append(result.Busy, intervals...)
	}

	sort.SliceStable(result.Busy, func(i, j int) bool {
		return result.Busy[i].Start.Before(result.Busy[j].Start)
	})

	appLog.Debug("build: busy intervals ready",
		"events", len(events),
		"intervals", len(result.Busy),
		"range_start", opts.RangeStart.Format(time.RFC3339),
		"range_end", opts.RangeEnd.Format(time.RFC3339),
	)
	return result, nil
}
