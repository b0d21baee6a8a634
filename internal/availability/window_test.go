package availability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    TimeOfDay
		wantErr bool
	}{
		{name: "09:00", input: "09:00", want: TimeOfDay{Hour: 9}},
		{name: "18:00", input: "18:00", want: TimeOfDay{Hour: 18}},
		{name: "9:30", input: "9:30", want: TimeOfDay{Hour: 9, Minute: 30}},
		{name: "23:59", input: "23:59", want: TimeOfDay{Hour: 23, Minute: 59}},
		{name: "9am", input: "9am", want: TimeOfDay{Hour: 9}},
		{name: "5:30pm", input: "5:30pm", want: TimeOfDay{Hour: 17, Minute: 30}},
		{name: "12am", input: "12am", want: TimeOfDay{Hour: 0}},
		{name: "12pm", input: "12 PM", want: TimeOfDay{Hour: 12}},

		{name: "empty", input: "", wantErr: true},
		{name: "hour 24", input: "24:00", wantErr: true},
		{name: "minute 60", input: "09:60", wantErr: true},
		{name: "13pm", input: "13pm", wantErr: true},
		{name: "garbage", input: "noon", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTimeOfDay(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTimeOfDayString(t *testing.T) {
	assert.Equal(t, "09:05", TimeOfDay{Hour: 9, Minute: 5}.String())
	assert.Equal(t, "18:00", TimeOfDay{Hour: 18}.String())
}

func TestWorkingWindowValidate(t *testing.T) {
	w := testWindow(t)
	assert.NoError(t, w.Validate())

	inverted := w
	inverted.DayStart, inverted.DayEnd = w.DayEnd, w.DayStart
	assert.Error(t, inverted.Validate())

	noLoc := w
	noLoc.Location = nil
	assert.Error(t, noLoc.Validate())
}

func TestWorkingWindowBounds(t *testing.T) {
	w := testWindow(t)
	loc := chicago(t)

	tests := []struct {
		name string
		day  time.Time
		want time.Time
	}{
		{name: "local midnight", day: time.Date(2026, 3, 3, 0, 0, 0, 0, loc), want: time.Date(2026, 3, 3, 0, 0, 0, 0, loc)},
		{name: "utc same date", day: time.Date(2026, 3, 3, 23, 0, 0, 0, time.UTC), want: time.Date(2026, 3, 3, 0, 0, 0, 0, loc)},
		// 03:00 UTC on 3 March is 21:00 CST on 2 March.
		{name: "utc previous local date", day: time.Date(2026, 3, 3, 3, 0, 0, 0, time.UTC), want: time.Date(2026, 3, 2, 0, 0, 0, 0, loc)},
		{name: "tokyo next date", day: time.Date(2026, 3, 4, 8, 0, 0, 0, time.FixedZone("JST", 9*3600)), want: time.Date(2026, 3, 3, 0, 0, 0, 0, loc)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := w.Bounds(tt.day)

			assert.True(t, start.Equal(clock(loc, tt.want, 9, 0)), "start %s", start)
			assert.True(t, end.Equal(clock(loc, tt.want, 18, 0)), "end %s", end)
			assert.Equal(t, "America/Chicago", start.Location().String())
		})
	}
	assert.Equal(t, "09:00-18:00 America/Chicago", w.String())
}
