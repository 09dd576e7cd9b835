package projector

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// CompleteLabel is shown in place of a countdown once a term has ended.
const CompleteLabel = "Complete"

// FormatRemaining renders a countdown like "1d 0h 5m 30s".
// Leading zero units are dropped, inner zero units are kept and seconds are always shown.
func FormatRemaining(seconds int64) string {
	if seconds <= 0 {
		return CompleteLabel
	}
	days := seconds / 86400
	hours := seconds % 86400 / 3600
	minutes := seconds % 3600 / 60
	secs := seconds % 60

	parts := make([]string, 0, 4)
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 || len(parts) > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 || len(parts) > 0 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}
	parts = append(parts, fmt.Sprintf("%ds", secs))
	return strings.Join(parts, " ")
}

// FormatAmount renders v with a fixed number of decimal places.
func FormatAmount(v float64, decimals int) string {
	if decimals < 0 {
		decimals = 0
	}
	return decimal.NewFromFloat(v).StringFixed(int32(decimals))
}
