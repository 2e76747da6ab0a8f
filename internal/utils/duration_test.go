package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		name string
		ms   int64
		want string
	}{
		{name: "one second", ms: 1000, want: "1s"},
		{name: "one minute", ms: 60_000, want: "1m"},
		{name: "minute and seconds", ms: 90_000, want: "1m 30s"},
		{name: "exact hour", ms: 3_600_000, want: "1h"},
		{name: "hour and minute", ms: 3_660_000, want: "1h 1m"},
		{name: "interior zero kept", ms: 3_630_000, want: "1h 0m 30s"},
		{name: "exact day", ms: 86_400_000, want: "1d"},
		{name: "day hour minute", ms: 90_060_000, want: "1d 1h 1m"},
		{name: "zero", ms: 0, want: "0s"},
		{name: "sub-second truncates", ms: 999, want: "0s"},
		{name: "negative clamps to zero", ms: -5000, want: "0s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatDuration(tt.ms))
		})
	}
}
