package ics

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// P15DT5H0M20S, PT1H30M, P7W, -PT15M
var durationPattern = regexp.MustCompile(`^([+-])?P(?:(\d+)W)?(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?)?$`)

// parseDuration parses an RFC 5545 DURATION value. Days and weeks are
// treated as exact multiples of 24 hours.
func parseDuration(v string) (time.Duration, error) {
	v = strings.ToUpper(strings.TrimSpace(v))
	m := durationPattern.FindStringSubmatch(v)
	if m == nil || strings.HasSuffix(v, "T") {
		return 0, fmt.Errorf("invalid duration %q", v)
	}

	units := []time.Duration{7 * 24 * time.Hour, 24 * time.Hour, time.Hour, time.Minute, time.Second}
	var d time.Duration
	seen := false
	for i, unit := range units {
		s := m[i+2]
		if s == "" {
			continue
		}
		seen = true
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q: %w", v, err)
		}
		d += time.Duration(n) * unit
	}

	if !seen {
		return 0, fmt.Errorf("invalid duration %q", v)
	}
	if m[1] == "-" {
		d = -d
	}
	return d, nil
}
