package present

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckTimezone(t *testing.T) {
	check := CheckTimezone("Europe/Berlin")
	require.True(t, check.Valid())
	assert.Equal(t, "Europe/Berlin", check.Location.String())
	assert.Nil(t, check.Err)

	check = CheckTimezone(" US/Central ")
	require.True(t, check.Valid())
	assert.Equal(t, "US/Central", check.Name)
}

func TestCheckTimezoneUnknown(t *testing.T) {
	tests := []struct {
		name            string
		input           string
		wantSuggestions []string
	}{
		{
			name:            "partial match",
			input:           "Tokyo",
			wantSuggestions: []string{"Asia/Tokyo"},
		},
		{
			name:            "no match",
			input:           "Mars/Olympus",
			wantSuggestions: commonTimezones[:maxSuggestions],
		},
		{
			name:            "empty",
			input:           "",
			wantSuggestions: commonTimezones[:maxSuggestions],
		},
		{
			name:            "local is not a display timezone",
			input:           "Local",
			wantSuggestions: commonTimezones[:maxSuggestions],
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			check := CheckTimezone(tt.input)
			assert.False(t, check.Valid())
			assert.Nil(t, check.Location)
			require.NotNil(t, check.Err)
			assert.Equal(t, tt.wantSuggestions, check.Err.Suggestions)
			assert.Contains(t, check.Err.Error(), "invalid timezone")
		})
	}
}

func TestZoneNamesLabel(t *testing.T) {
	names := DefaultZoneNames()
	at := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)

	chicago, err := time.LoadLocation("America/Chicago")
	require.NoError(t, err)
	assert.Equal(t, "CT", names.Label(chicago, at))

	london, err := time.LoadLocation("Europe/London")
	require.NoError(t, err)
	assert.Equal(t, "BST", names.Label(london, at))
}
