package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatElapsed(t *testing.T) {
	assert.Equal(t, "00:00:000", FormatElapsed(0))
	assert.Equal(t, "00:01:000", FormatElapsed(time.Second))
	assert.Equal(t, "00:02:200", FormatElapsed(2200*time.Millisecond))
	assert.Equal(t, "01:05:007", FormatElapsed(65007*time.Millisecond))
	assert.Equal(t, "123:00:999", FormatElapsed(123*time.Minute+999*time.Millisecond+400*time.Microsecond))
	assert.Equal(t, "00:00:000", FormatElapsed(-time.Second))
}

func TestFormatClock(t *testing.T) {
	assert.Equal(t, "00:00", FormatClock(999*time.Millisecond))
	assert.Equal(t, "02:05", FormatClock(125*time.Second+500*time.Millisecond))
}

func TestFormatTimestamp(t *testing.T) {
	ts := time.Date(2026, 3, 4, 5, 6, 7, 89_000_000, time.FixedZone("X", 3600))
	assert.Equal(t, "2026-03-04T04:06:07.089Z", FormatTimestamp(ts))
}

func TestToFixed(t *testing.T) {
	tests := []struct {
		v      float64
		digits int
		want   string
	}{
		{500.12, 2, "500.12"},
		{300.4, 2, "300.40"},
		{710, 2, "710.00"},
		{0.125, 2, "0.13"},
		{0.375, 2, "0.38"},
		{-0.125, 2, "-0.13"},
		{1.005, 2, "1.00"},
		{0.25, 1, "0.3"},
		{712.75, 1, "712.8"},
		{2.5, 0, "3"},
		{0, 2, "0.00"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ToFixed(tt.v, tt.digits), "ToFixed(%v, %d)", tt.v, tt.digits)
	}
}

func TestPreview(t *testing.T) {
	e := LogEntry{Time: "00:03:000", GSRA: 512.25, GSRB: 400, GSRC: 699.94}
	assert.Equal(t, "00:03:000 | A:512.3 B:400.0 C:699.9", e.Preview())
}
