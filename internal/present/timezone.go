package present

import (
	"fmt"
	"strings"
	"time"
)

// ZoneNames maps IANA zone names to the short labels printed next to
// converted times.
type ZoneNames map[string]string

// DefaultZoneNames returns the built-in label table.
func DefaultZoneNames() ZoneNames {
	return ZoneNames{
		"Asia/Kolkata":        "IST",
		"US/Central":          "CT",
		"America/Chicago":     "CT",
		"US/Eastern":          "ET",
		"America/New_York":    "ET",
		"US/Pacific":          "PT",
		"America/Los_Angeles": "PT",
		"US/Mountain":         "MT",
		"America/Denver":      "MT",
	}
}

// Label returns the configured label for loc, or the zone abbreviation in
// effect at instant at (e.g. "CET", "JST").
func (z ZoneNames) Label(loc *time.Location, at time.Time) string {
	if label, ok := z[loc.String()]; ok {
		return label
	}
	abbr, _ := at.In(loc).Zone()
	return abbr
}

// commonTimezones is the sample offered when a display timezone is unknown.
var commonTimezones = []string{
	"Africa/Cairo",
	"Africa/Johannesburg",
	"Africa/Lagos",
	"America/Anchorage",
	"America/Chicago",
	"America/Denver",
	"America/Los_Angeles",
	"America/Mexico_City",
	"America/New_York",
	"America/Phoenix",
	"America/Sao_Paulo",
	"America/Toronto",
	"Asia/Dubai",
	"Asia/Kolkata",
	"Asia/Seoul",
	"Asia/Shanghai",
	"Asia/Singapore",
	"Asia/Tokyo",
	"Australia/Sydney",
	"Europe/Berlin",
	"Europe/London",
	"Europe/Madrid",
	"Europe/Paris",
	"Pacific/Auckland",
	"Pacific/Honolulu",
	"UTC",
}

const maxSuggestions = 10

// UnknownTimezoneError reports a display timezone that is not in the tz
// database.
type UnknownTimezoneError struct {
	Name        string
	Suggestions []string
}

func (e *UnknownTimezoneError) Error() string {
	return fmt.Sprintf("invalid timezone: %s (try one of: %s, ...)", e.Name, strings.Join(e.Suggestions, ", "))
}

// TimezoneCheck is the result of validating a display timezone name.
// Exactly one of Location and Err is set.
type TimezoneCheck struct {
	Name     string
	Location *time.Location
	Err      *UnknownTimezoneError
}

// Valid reports whether the name resolved to a location.
func (c TimezoneCheck) Valid() bool {
	return c.Err == nil && c.Location != nil
}

// CheckTimezone validates name against the tz database. Unknown names come
// back with suggestions: common zones containing the input, or a fixed
// sample when nothing matches.
func CheckTimezone(name string) TimezoneCheck {
	name = strings.TrimSpace(name)
	check := TimezoneCheck{Name: name}

	if name != "" && !strings.EqualFold(name, "local") {
		if loc, err := time.LoadLocation(name); err == nil {
			check.Location = loc
			return check
		}
	}

	check.Err = &UnknownTimezoneError{Name: name, Suggestions: suggestTimezones(name)}
	return check
}

func suggestTimezones(name string) []string {
	needle := strings.ToLower(strings.TrimSpace(name))
	out := make([]string, 0, maxSuggestions)
	if needle != "" {
		for _, tz := range commonTimezones {
			if strings.Contains(strings.ToLower(tz), needle) {
				out = append(out, tz)
			}
			if len(out) == maxSuggestions {
				break
			}
		}
	}
	if len(out) > 0 {
		return out
	}
	return append(out, commonTimezones[:maxSuggestions]...)
}
