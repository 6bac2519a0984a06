package utils

import "time"

// IsWindowExpired reports whether a rolling window that started at start has
// elapsed by now. A window that never started counts as expired.
func IsWindowExpired(start *time.Time, now time.Time, window time.Duration) bool {
	if start == nil || start.IsZero() {
		return true
	}
	return now.Sub(*start) >= window
}

// WindowRemaining returns how long until the window that started at start ends
func WindowRemaining(start *time.Time, now time.Time, window time.Duration) time.Duration {
	if IsWindowExpired(start, now, window) {
		return 0
	}
	return window - now.Sub(*start)
}
