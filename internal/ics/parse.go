package ics

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "freecal/internal/log"
	"freecal/internal/model"
)

// ParseOptions controls how VEVENTs are normalized into raw events.
type ParseOptions struct {
	// Location is the reference zone used for floating date-times, all-day
	// dates and TZIDs that cannot be resolved. If nil, time.UTC is used.
	Location *time.Location

	// Aliases rewrites non-IANA TZIDs before any time value is read.
	// If nil, DefaultTimezoneAliases is used.
	Aliases TimezoneAliases

	// SkipCancelled drops events with STATUS:CANCELLED.
	SkipCancelled bool
	// SkipTransparent drops events with TRANSP:TRANSPARENT (they do not
	// block time).
	SkipTransparent bool
}

// ParseResult is the outcome of parsing one ICS payload.
type ParseResult struct {
	Events []model.RawEvent
	// UnknownTimezones lists TZIDs that were neither aliased nor loadable;
	// their values were read in the reference location.
	UnknownTimezones []string
	Skipped          int
}

// ParseICS parses a single ICS payload into raw events.
//
//   - TZIDs are rewritten through the alias table on the parsed properties.
//   - Floating date-times and all-day dates are pinned to opts.Location, so
//     every returned instant carries an explicit zone.
//   - RRULE/EXDATE are recorded but not expanded; see Expand.
func ParseICS(src Source, body []byte, opts ParseOptions) (ParseResult, error) {
	var result ParseResult

	if err := validateICalFormat(body); err != nil {
		return result, err
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Aliases == nil {
		opts.Aliases = DefaultTimezoneAliases()
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		appLog.Error("ics parse failed", err, "id", src.ID, "url", redactURL(src.URL))
		return result, err
	}

	result.UnknownTimezones = opts.Aliases.NormalizeCalendar(cal)
	if len(result.UnknownTimezones) > 0 {
		appLog.Warn("ics contains unknown timezones; reading them as reference time",
			"id", src.ID,
			"timezones", result.UnknownTimezones,
			"reference", opts.Location.String(),
		)
	}

	result.Events = make([]model.RawEvent, 0)
	for _, ve := range cal.Events() {
		if skip, reason := shouldSkip(ve, opts); skip {
			result.Skipped++
			appLog.Debug("ics vevent skipped", "id", src.ID, "uid", propValue(ve, ical.ComponentPropertyUniqueId), "reason", reason)
			continue
		}

		ev, perr := parseVEvent(ve, opts.Location)
		if perr != nil {
			// Log and skip this event, but keep parsing others.
			result.Skipped++
			appLog.Error("ics vevent parse failed", perr, "id", src.ID, "url", redactURL(src.URL))
			continue
		}
		result.Events = append(result.Events, ev)
	}

	appLog.Info("ics parse completed", "id", src.ID, "event_count", len(result.Events), "skipped", result.Skipped)
	return result, nil
}

// validateICalFormat rejects bodies that are obviously not iCalendar data,
// such as an HTML login page served instead of the feed.
func validateICalFormat(body []byte) error {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return errors.New("empty ICS body")
	}

	upper := bytes.ToUpper(trimmed)
	if bytes.HasPrefix(upper, []byte("<!DOCTYPE")) || bytes.HasPrefix(upper, []byte("<HTML")) {
		return errors.New("received HTML instead of iCalendar data - check if URL requires authentication")
	}
	if !bytes.HasPrefix(upper, []byte("BEGIN:VCALENDAR")) {
		preview := trimmed
		if len(preview) > 64 {
			preview = preview[:64]
		}
		return fmt.Errorf("invalid iCalendar format - expected BEGIN:VCALENDAR, got: %q", preview)
	}
	return nil
}

func shouldSkip(ve *ical.VEvent, opts ParseOptions) (bool, string) {
	if opts.SkipCancelled && strings.EqualFold(propValue(ve, ical.ComponentPropertyStatus), "CANCELLED") {
		return true, "cancelled"
	}
	if opts.SkipTransparent && strings.EqualFold(propValue(ve, ical.ComponentProperty("TRANSP")), "TRANSPARENT") {
		return true, "transparent"
	}
	return false, ""
}

func parseVEvent(ve *ical.VEvent, loc *time.Location) (model.RawEvent, error) {
	var out model.RawEvent

	out.UID = propValue(ve, ical.ComponentPropertyUniqueId)
	out.Summary = propValue(ve, ical.ComponentPropertySummary)

	dtStart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtStart == nil {
		return out, fmt.Errorf("event %q: missing DTSTART", out.UID)
	}
	start, allDay, err := propTime(dtStart, loc)
	if err != nil {
		return out, fmt.Errorf("event %q: DTSTART: %w", out.UID, err)
	}
	out.Start = start
	out.AllDay = allDay

	if out.UID == "" {
		out.UID = start.Format(time.RFC3339) + "-" + out.Summary
	}

	switch {
	case ve.GetProperty(ical.ComponentPropertyDtEnd) != nil:
		end, _, err := propTime(ve.GetProperty(ical.ComponentPropertyDtEnd), loc)
		if err != nil {
			return out, fmt.Errorf("event %q: DTEND: %w", out.UID, err)
		}
		out.Duration = end.Sub(start)
	case ve.GetProperty(ical.ComponentProperty("DURATION")) != nil:
		d, err := parseDuration(ve.GetProperty(ical.ComponentProperty("DURATION")).Value)
		if err != nil {
			return out, fmt.Errorf("event %q: DURATION: %w", out.UID, err)
		}
		out.Duration = d
	case allDay:
		out.Duration = 24 * time.Hour
	}

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		out.RRule = strings.TrimSpace(p.Value)
	}

	// EXDATE can appear multiple times, each with a comma separated list.
	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		exLoc := propLocation(&p.BaseProperty, loc)
		for _, part := range strings.Split(p.Value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if t, _, err := parseICSTime(part, exLoc); err == nil {
				out.ExDates = append(out.ExDates, t)
			}
		}
	}

	return out, nil
}

func propValue(ve *ical.VEvent, name ical.ComponentProperty) string {
	if p := ve.GetProperty(name); p != nil {
		return strings.TrimSpace(p.Value)
	}
	return ""
}

// propTime reads a DATE or DATE-TIME property. The boolean result reports a
// DATE (all-day) value.
func propTime(p *ical.IANAProperty, loc *time.Location) (time.Time, bool, error) {
	t, allDay, err := parseICSTime(p.Value, propLocation(&p.BaseProperty, loc))
	if err != nil {
		return t, false, err
	}
	if vs, ok := p.ICalParameters["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		allDay = true
	}
	return t, allDay, nil
}

// propLocation returns the location named by the property's TZID, or the
// reference location when the TZID is absent or cannot be loaded. TZIDs are
// expected to have been normalized by NormalizeCalendar already.
func propLocation(p *ical.BaseProperty, ref *time.Location) *time.Location {
	tzids, ok := p.ICalParameters[tzidParam]
	if !ok || len(tzids) == 0 {
		return ref
	}
	loc, err := time.LoadLocation(strings.Trim(tzids[0], `"`))
	if err != nil {
		return ref
	}
	return loc
}

// parseICSTime parses a DATE or DATE-TIME value. UTC values ("Z" suffix)
// ignore loc; floating values and dates are interpreted in loc.
func parseICSTime(v string, loc *time.Location) (time.Time, bool, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, false, errors.New("empty time value")
	}

	// UTC form, e.g., 20250101T090000Z
	if strings.HasSuffix(v, "Z") {
		t, err := time.Parse("20060102T150405Z", v)
		return t, false, err
	}

	// Local date-time, e.g., 20250101T090000
	if strings.Contains(v, "T") {
		t, err := time.ParseInLocation("20060102T150405", v, loc)
		return t, false, err
	}

	// Date-only (all-day), e.g., 20250101
	t, err := time.ParseInLocation("20060102", v, loc)
	return t, true, err
}
