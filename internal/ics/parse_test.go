package ics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"freecal/internal/model"
)

func loadLocation(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	require.NoError(t, err)
	return loc
}

func eventsByUID(events []model.RawEvent) map[string]model.RawEvent {
	out := make(map[string]model.RawEvent, len(events))
	for _, ev := range events {
		out[ev.UID] = ev
	}
	return out
}

func TestParseICS(t *testing.T) {
	chicago := loadLocation(t, "America/Chicago")
	newYork := loadLocation(t, "America/New_York")

	res, err := ParseICS(Source{ID: "test"}, sampleCalendar, ParseOptions{
		Location:        chicago,
		SkipCancelled:   true,
		SkipTransparent: true,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"Mars Standard Time"}, res.UnknownTimezones)
	// cancelled, transparent and the event without DTSTART.
	assert.Equal(t, 3, res.Skipped)

	byUID := eventsByUID(res.Events)
	require.Len(t, byUID, 6)

	t.Run("windows timezone is aliased", func(t *testing.T) {
		ev := byUID["windows-tz@test"]
		assert.True(t, ev.Start.Equal(time.Date(2026, 3, 3, 10, 0, 0, 0, chicago)))
		assert.Equal(t, "America/Chicago", ev.Start.Location().String())
		assert.Equal(t, time.Hour, ev.Duration)
		assert.Equal(t, "Design review", ev.Summary)
	})

	t.Run("recurring event keeps rule and exdates", func(t *testing.T) {
		ev := byUID["weekly@test"]
		assert.Equal(t, "FREQ=WEEKLY;COUNT=3", ev.RRule)
		assert.Equal(t, 30*time.Minute, ev.Duration)
		require.Len(t, ev.ExDates, 1)
		assert.True(t, ev.ExDates[0].Equal(time.Date(2026, 3, 9, 15, 0, 0, 0, time.UTC)))
	})

	t.Run("floating time is pinned to the reference zone", func(t *testing.T) {
		ev := byUID["floating@test"]
		assert.True(t, ev.Start.Equal(time.Date(2026, 3, 3, 12, 0, 0, 0, chicago)))
	})

	t.Run("all-day event spans one day", func(t *testing.T) {
		ev := byUID["allday@test"]
		assert.True(t, ev.AllDay)
		assert.True(t, ev.Start.Equal(time.Date(2026, 3, 4, 0, 0, 0, 0, chicago)))
		assert.Equal(t, 24*time.Hour, ev.Duration)
	})

	t.Run("duration property", func(t *testing.T) {
		ev := byUID["duration@test"]
		assert.True(t, ev.Start.Equal(time.Date(2026, 3, 5, 9, 0, 0, 0, newYork)))
		assert.Equal(t, 45*time.Minute, ev.Duration)
	})

	t.Run("unknown timezone falls back to reference zone", func(t *testing.T) {
		ev := byUID["unknown-tz@test"]
		assert.True(t, ev.Start.Equal(time.Date(2026, 3, 6, 8, 0, 0, 0, chicago)))
		assert.Equal(t, 30*time.Minute, ev.Duration)
	})
}

func TestParseICSKeepsCancelledWhenAsked(t *testing.T) {
	res, err := ParseICS(Source{ID: "test"}, sampleCalendar, ParseOptions{Location: time.UTC})
	require.NoError(t, err)

	byUID := eventsByUID(res.Events)
	assert.Contains(t, byUID, "cancelled@test")
	assert.Contains(t, byUID, "transparent@test")
	assert.Equal(t, 1, res.Skipped)
}

func TestParseICSRejectsNonCalendar(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "empty", body: "  \n", want: "empty ICS body"},
		{name: "html", body: "<!DOCTYPE html><html><body>login</body></html>", want: "received HTML"},
		{name: "garbage", body: "hello world", want: "expected BEGIN:VCALENDAR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseICS(Source{ID: "test"}, []byte(tt.body), ParseOptions{})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseICSTime(t *testing.T) {
	chicago := loadLocation(t, "America/Chicago")

	got, allDay, err := parseICSTime("20260303T150000Z", chicago)
	require.NoError(t, err)
	assert.False(t, allDay)
	assert.Equal(t, time.UTC, got.Location())

	got, allDay, err = parseICSTime("20260303T090000", chicago)
	require.NoError(t, err)
	assert.False(t, allDay)
	assert.True(t, got.Equal(time.Date(2026, 3, 3, 15, 0, 0, 0, time.UTC)))

	got, allDay, err = parseICSTime("20260303", chicago)
	require.NoError(t, err)
	assert.True(t, allDay)
	assert.Equal(t, 0, got.Hour())

	_, _, err = parseICSTime("", chicago)
	assert.Error(t, err)
	_, _, err = parseICSTime("2026-03-03", chicago)
	assert.Error(t, err)
}
