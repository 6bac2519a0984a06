package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsWindowExpired(t *testing.T) {
	now := time.Date(2024, 11, 20, 12, 0, 0, 0, time.UTC)
	window := 24 * time.Hour

	at := func(d time.Duration) *time.Time {
		ts := now.Add(-d)
		return &ts
	}

	tests := []struct {
		name     string
		start    *time.Time
		expected bool
	}{
		{"never started", nil, true},
		{"zero time", &time.Time{}, true},
		{"just started", at(0), false},
		{"one second before the boundary", at(window - time.Second), false},
		{"exactly at the boundary", at(window), true},
		{"long ago", at(72 * time.Hour), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsWindowExpired(tt.start, now, window))
		})
	}
}

func TestWindowRemaining(t *testing.T) {
	now := time.Date(2024, 11, 20, 12, 0, 0, 0, time.UTC)
	start := now.Add(-20 * time.Hour)

	assert.Equal(t, 4*time.Hour, WindowRemaining(&start, now, 24*time.Hour))
	assert.Equal(t, time.Duration(0), WindowRemaining(nil, now, 24*time.Hour))
}
