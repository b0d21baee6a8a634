package ics

import (
	"bytes"
	"testing"

	ical "github.com/arran4/golang-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimezoneAliasesResolve(t *testing.T) {
	aliases := DefaultTimezoneAliases()

	tests := []struct {
		tzid   string
		want   string
		wantOK bool
	}{
		{tzid: "Central Standard Time", want: "America/Chicago", wantOK: true},
		{tzid: `"India Standard Time"`, want: "Asia/Kolkata", wantOK: true},
		{tzid: "Europe/Berlin", want: "Europe/Berlin", wantOK: true},
		{tzid: "US/Central", want: "US/Central", wantOK: true},
		{tzid: "Mars Standard Time", wantOK: false},
		{tzid: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.tzid, func(t *testing.T) {
			got, ok := aliases.Resolve(tt.tzid)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTimezoneAliasesCustomTable(t *testing.T) {
	aliases := TimezoneAliases{"Company HQ": "Europe/Oslo"}

	got, ok := aliases.Resolve("Company HQ")
	require.True(t, ok)
	assert.Equal(t, "Europe/Oslo", got)

	_, ok = aliases.Resolve("Central Standard Time")
	assert.False(t, ok, "custom table replaces the defaults")
}

func TestNormalizeCalendarRewritesOnlyTZIDParameters(t *testing.T) {
	// The summary mentions a zone name; only the TZID parameters change.
	body := crlf(`
BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//freecal//test//EN
BEGIN:VEVENT
UID:a@test
SUMMARY:TZID=Eastern Standard Time: planning
DTSTART;TZID=Eastern Standard Time:20260303T100000
DTEND;TZID=Eastern Standard Time:20260303T110000
EXDATE;TZID=Nowhere Time:20260310T100000
END:VEVENT
END:VCALENDAR
`)
	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	require.NoError(t, err)

	unknown := DefaultTimezoneAliases().NormalizeCalendar(cal)

	assert.Equal(t, []string{"Nowhere Time"}, unknown)
	ev := cal.Events()[0]
	assert.Equal(t, []string{"America/New_York"}, ev.GetProperty(ical.ComponentPropertyDtStart).ICalParameters["TZID"])
	assert.Equal(t, []string{"America/New_York"}, ev.GetProperty(ical.ComponentPropertyDtEnd).ICalParameters["TZID"])
	assert.Equal(t, "TZID=Eastern Standard Time: planning", ev.GetProperty(ical.ComponentPropertySummary).Value)
}
