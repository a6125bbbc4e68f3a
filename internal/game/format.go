package game

import (
	"fmt"
	"math"
	"time"
)

// FormatElapsed formats d as zero padded MM:SS, flooring to whole seconds. Minutes are not capped at 59.
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60) //nolint:mnd // seconds per minute
}

// Percent returns the rounded completion percentage.
func Percent(collected, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(collected) / float64(total) * 100)) //nolint:mnd // percent
}
