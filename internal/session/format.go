package session

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// FormatElapsed renders d as MM:SS:mmm, the time column of a log entry.
func FormatElapsed(d time.Duration) string {
	ms := d.Milliseconds()
	if ms < 0 {
		ms = 0
	}
	return fmt.Sprintf("%02d:%02d:%03d", ms/60000, (ms/1000)%60, ms%1000)
}

// FormatClock renders d as MM:SS for the session time display.
func FormatClock(d time.Duration) string {
	sec := int64(d / time.Second)
	if sec < 0 {
		sec = 0
	}
	return fmt.Sprintf("%02d:%02d", sec/60, sec%60)
}

// FormatTimestamp is the wall clock format of sessionStarted and sessionEnded.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}

// ToFixed formats v with the given number of decimals, rounding exact halves away
// from zero. strconv rounds those to even, which would make 0.125 print as 0.12.
func ToFixed(v float64, digits int) string {
	if v == 0 {
		v = 0
	}

	a := math.Abs(v)
	// a decimal half at this precision is only representable as odd/2^(digits+1)
	if t := a * math.Pow(2, float64(digits+1)); t == math.Trunc(t) && math.Mod(t, 2) == 1 {
		scale := math.Pow10(digits)
		a = (math.Floor(a*scale) + 1) / scale
		if v < 0 {
			a = -a
		}
		return strconv.FormatFloat(a, 'f', digits, 64)
	}

	return strconv.FormatFloat(v, 'f', digits, 64)
}
