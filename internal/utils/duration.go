package utils

import (
	"fmt"
	"strings"
)

// FormatDuration renders a millisecond count as a compact human-readable
// string: "1s", "1m 30s", "1h 0m 30s", "1d 1h 1m". Units below the largest
// one are included only when a smaller non-zero unit follows, so "1h" stays
// "1h" but 1h30s renders "1h 0m 30s". Negative input renders "0s".
func FormatDuration(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	totalSeconds := ms / 1000

	days := totalSeconds / 86400
	hours := (totalSeconds % 86400) / 3600
	minutes := (totalSeconds % 3600) / 60
	seconds := totalSeconds % 60

	type unit struct {
		value int64
		label string
	}
	units := []unit{
		{days, "d"},
		{hours, "h"},
		{minutes, "m"},
		{seconds, "s"},
	}

	// Trim leading zero units, then trailing zero units; everything in
	// between is kept so interior zeros are explicit ("1h 0m 30s").
	start := 0
	for start < len(units)-1 && units[start].value == 0 {
		start++
	}
	end := len(units) - 1
	for end > start && units[end].value == 0 {
		end--
	}

	parts := make([]string, 0, 4)
	for _, u := range units[start : end+1] {
		parts = append(parts, fmt.Sprintf("%d%s", u.value, u.label))
	}
	return strings.Join(parts, " ")
}
