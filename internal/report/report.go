// Package report runs the fetch, parse, build and sweep steps that turn a
// calendar feed into per-day availability.
package report

import (
	"context"
	"errors"
	"time"

	"freecal/internal/availability"
	"freecal/internal/config"
	"freecal/internal/ics"
	appLog "freecal/internal/log"
	"freecal/internal/model"
)

// Options configures a single report run.
type Options struct {
	Source  ics.Source
	Fetcher *ics.Fetcher

	Window  availability.WorkingWindow
	Aliases ics.TimezoneAliases

	SkipCancelled   bool
	SkipTransparent bool

	// RangeDays is the recurrence expansion horizon counted from the first
	// reported day. It is extended when Weekdays reach past it.
	RangeDays int
	Weekdays  int
	// Start is the first candidate day; zero means today in the window's
	// location.
	Start time.Time

	MaxOccurrencesPerEvent int

	Now func() time.Time
}

// Report is the outcome of one run.
type Report struct {
	Days   []model.DayAvailability
	Window availability.WorkingWindow

	RangeStart time.Time
	RangeEnd   time.Time

	EventCount       int
	BusyCount        int
	RuleErrors       []error
	UnknownTimezones []string
	TruncatedEvents  []string
	FromCache        bool

	GeneratedAt time.Time
}

// OptionsFromConfig builds run options from the loaded configuration.
// baseDir resolves a relative URL file.
func OptionsFromConfig(cfg *config.Config, baseDir string) (Options, error) {
	window, err := cfg.WorkingWindow()
	if err != nil {
		return Options{}, err
	}
	url, err := cfg.ResolveURL(baseDir)
	if err != nil {
		return Options{}, err
	}

	return Options{
		Source:                 ics.Source{ID: "calendar", URL: url},
		Fetcher:                ics.NewFetcher(cfg.CacheDir),
		Window:                 window,
		Aliases:                ics.TimezoneAliases(cfg.TimezoneAliases),
		SkipCancelled:          cfg.SkipCancelled,
		SkipTransparent:        cfg.SkipTransparent,
		RangeDays:              cfg.RangeDays,
		Weekdays:               cfg.Weekdays,
		MaxOccurrencesPerEvent: cfg.MaxOccurrencesPerEvent,
	}, nil
}

// Generate fetches the feed and computes availability for the next
// opts.Weekdays weekdays. Fetch and parse failures abort the run; malformed
// recurrence rules are reported in Report.RuleErrors.
func Generate(ctx context.Context, opts Options) (*Report, error) {
	if opts.Fetcher == nil {
		opts.Fetcher = ics.NewFetcher("")
	}

	res, err := opts.Fetcher.Fetch(ctx, opts.Source)
	if err != nil {
		return nil, err
	}

	rep, err := FromICS(opts, res.Body)
	if err != nil {
		return nil, err
	}
	rep.FromCache = res.FromCache
	return rep, nil
}

// FromICS computes the report from an already fetched ICS payload.
func FromICS(opts Options, body []byte) (*Report, error) {
	if err := opts.Window.Validate(); err != nil {
		return nil, err
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Weekdays <= 0 {
		return nil, errors.New("report: weekdays must be positive")
	}
	if opts.RangeDays <= 0 {
		opts.RangeDays = ics.DefaultRangeDays
	}

	loc := opts.Window.Location
	now := opts.Now()
	start := opts.Start
	if start.IsZero() {
		start = now.In(loc)
	}
	days := availability.NextWeekdays(start, opts.Weekdays)

	rangeStart := days[0]
	rangeEnd := rangeStart.AddDate(0, 0, opts.RangeDays)
	if lastEnd := days[len(days)-1].AddDate(0, 0, 1); lastEnd.After(rangeEnd) {
		rangeEnd = lastEnd
	}

	parsed, err := ics.ParseICS(opts.Source, body, ics.ParseOptions{
		Location:        loc,
		Aliases:         opts.Aliases,
		SkipCancelled:   opts.SkipCancelled,
		SkipTransparent: opts.SkipTransparent,
	})
	if err != nil {
		return nil, err
	}

	built, err := ics.BuildBusy(parsed.Events, ics.BuildOptions{
		RangeStart:             rangeStart,
		RangeEnd:               rangeEnd,
		MaxOccurrencesPerEvent: opts.MaxOccurrencesPerEvent,
	})
	if err != nil {
		return nil, err
	}

	rep := &Report{
		Days:             availability.ComputeDays(built.Busy, days, opts.Window),
		Window:           opts.Window,
		RangeStart:       rangeStart,
		RangeEnd:         rangeEnd,
		EventCount:       len(parsed.Events),
		BusyCount:        len(built.Busy),
		RuleErrors:       built.RuleErrors,
		UnknownTimezones: parsed.UnknownTimezones,
		TruncatedEvents:  built.TruncatedEvents,
		GeneratedAt:      now,
	}

	appLog.Info("report generated",
		"events", rep.EventCount,
		"busy_intervals", rep.BusyCount,
		"days", len(rep.Days),
		"rule_errors", len(rep.RuleErrors),
		"window", opts.Window.String(),
	)
	return rep, nil
}
