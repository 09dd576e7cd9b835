package projector

import (
	"strings"
	"testing"
)

func TestFormatRemaining(t *testing.T) {
	tests := []struct {
		seconds int64
		want    string
	}{
		{0, "Complete"},
		{-5, "Complete"},
		{1, "1s"},
		{59, "59s"},
		{60, "1m 0s"},
		{3600, "1h 0m 0s"},
		{3661, "1h 1m 1s"},
		{86400 + 330, "1d 0h 5m 30s"},
		{90061, "1d 1h 1m 1s"},
		{2592000, "30d 0h 0m 0s"},
	}
	for _, tt := range tests {
		if got := FormatRemaining(tt.seconds); got != tt.want {
			t.Errorf("FormatRemaining(%d): expected %q, got %q", tt.seconds, tt.want, got)
		}
	}
}

func TestFormatRemaining_UnitOrder(t *testing.T) {
	s := FormatRemaining(90061)
	last := -1
	for _, unit := range []string{"1d", "1h", "1m", "1s"} {
		i := strings.Index(s, unit)
		if i <= last {
			t.Fatalf("%q: expected %s after position %d", s, unit, last)
		}
		last = i
	}
}

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		v        float64
		decimals int
		want     string
	}{
		{50, 2, "50.00"},
		{100, 0, "100"},
		{0.00011574074074074075, 6, "0.000116"},
		{12.3456, -1, "12"},
	}
	for _, tt := range tests {
		if got := FormatAmount(tt.v, tt.decimals); got != tt.want {
			t.Errorf("FormatAmount(%v, %d): expected %q, got %q", tt.v, tt.decimals, tt.want, got)
		}
	}
}
