// Package reading tracks reading sessions: one opened article, its
// annotations, and how far the reader has scrolled.
package reading

import (
	"math"
	"time"
)

// Progress converts a scroll position into a percentage in [0, 100].
// A document that cannot scroll counts as fully read.
func Progress(scrollTop, scrollableHeight float64) float64 {
	if math.IsNaN(scrollableHeight) || scrollableHeight <= 0 {
		return 100
	}
	p := scrollTop / scrollableHeight * 100
	if math.IsNaN(p) {
		return 0
	}
	return math.Max(0, math.Min(100, p))
}

// Remaining estimates the reading time left given the total estimate and the
// current progress, rounded up to whole minutes.
func Remaining(estimate time.Duration, progressPercent float64) time.Duration {
	left := float64(estimate) * (1 - progressPercent/100)
	if left <= 0 {
		return 0
	}
	return time.Duration(math.Ceil(left/float64(time.Minute))) * time.Minute
}
