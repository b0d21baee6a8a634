package ics

import (
	"sort"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
)

const tzidParam = "TZID"

// TimezoneAliases maps TZID values that are not IANA zone names (typically
// Windows names emitted by Exchange/Outlook feeds) to IANA zone names.
type TimezoneAliases map[string]string

// DefaultTimezoneAliases returns the built-in alias table.
func DefaultTimezoneAliases() TimezoneAliases {
	return TimezoneAliases{
		"India Standard Time":          "Asia/Kolkata",
		"Central Standard Time":        "America/Chicago",
		"Eastern Standard Time":        "America/New_York",
		"Pacific Standard Time":        "America/Los_Angeles",
		"Mountain Standard Time":       "America/Denver",
		"US Mountain Standard Time":    "America/Phoenix",
		"Alaskan Standard Time":        "America/Anchorage",
		"Hawaiian Standard Time":       "Pacific/Honolulu",
		"Atlantic Standard Time":       "America/Halifax",
		"GMT Standard Time":            "Europe/London",
		"W. Europe Standard Time":      "Europe/Berlin",
		"Central Europe Standard Time": "Europe/Budapest",
		"Romance Standard Time":        "Europe/Paris",
		"China Standard Time":          "Asia/Shanghai",
		"Tokyo Standard Time":          "Asia/Tokyo",
		"Korea Standard Time":          "Asia/Seoul",
		"AUS Eastern Standard Time":    "Australia/Sydney",
		"UTC":                          "UTC",
	}
}

// Resolve returns the IANA name for tzid. Names that are already loadable
// zone names resolve to themselves.
func (a TimezoneAliases) Resolve(tzid string) (string, bool) {
	tzid = strings.Trim(strings.TrimSpace(tzid), `"`)
	if tzid == "" {
		return "", false
	}
	if iana, ok := a[tzid]; ok {
		return iana, true
	}
	if _, err := time.LoadLocation(tzid); err == nil {
		return tzid, true
	}
	return "", false
}

// NormalizeCalendar rewrites the TZID parameter of every event property to
// its IANA name and returns the TZIDs that could not be resolved, sorted.
func (a TimezoneAliases) NormalizeCalendar(cal *ical.Calendar) []string {
	unknown := make(map[string]struct{})

	for _, ev := range cal.Events() {
		for i := range ev.Properties {
			params := ev.Properties[i].ICalParameters
			if params == nil {
				continue
			}
			tzids, ok := params[tzidParam]
			if !ok || len(tzids) == 0 {
				continue
			}
			iana, ok := a.Resolve(tzids[0])
			if !ok {
				unknown[tzids[0]] = struct{}{}
				continue
			}
			params[tzidParam] = []string{iana}
		}
	}

	out := make([]string, 0, len(unknown))
	for tz := range unknown {
		out = append(out, tz)
	}
	sort.Strings(out)
	return out
}
