package processing

import (
	"bytes"
	"strconv"
	"strings"
)

const NumChannels = 3

// Separator splits the channel fields of a line.
const Separator = ","

// MaxLineLength bounds how much unterminated input is kept between chunks.
const MaxLineLength = 256

// Reading is the parse result of one channel field. Valid is false when the field
// carried no integer.
type Reading struct {
	Value int
	Valid bool
}

// RawSample is the last successfully parsed triplet, channels A, B, C.
type RawSample [NumChannels]Reading

// NewRawSample builds a fully valid sample.
func NewRawSample(a, b, c int) RawSample {
	return RawSample{{Value: a, Valid: true}, {Value: b, Valid: true}, {Value: c, Valid: true}}
}

// LineParser turns stream chunks into lines. Lines may span chunk boundaries.
// Not safe for concurrent use.
type LineParser struct {
	pending []byte
}

// Parse consumes chunk and returns the triplets of every complete, well formed line
// it finished, oldest first. Malformed lines are dropped.
func (lp *LineParser) Parse(chunk []byte) []RawSample {
	var samples []RawSample

	lp.pending = append(lp.pending, chunk...)
	for {
		idx := bytes.IndexByte(lp.pending, '\n')
		if idx < 0 {
			break
		}

		if sample, ok := ParseLine(string(lp.pending[:idx])); ok {
			samples = append(samples, sample)
		}
		lp.pending = lp.pending[idx+1:]
	}

	// a sender that never terminates its lines would otherwise grow this forever
	if len(lp.pending) > MaxLineLength {
		lp.pending = nil
	}
	if len(lp.pending) == 0 {
		lp.pending = nil
	}

	return samples
}

// Flush parses whatever unterminated input is left, e.g. when the stream closes.
func (lp *LineParser) Flush() (RawSample, bool) {
	line := string(lp.pending)
	lp.pending = nil
	return ParseLine(line)
}

// ParseLine accepts a line only if it contains the separator and splits into exactly
// three fields. Fields that are not integers still count, as invalid readings.
func ParseLine(line string) (RawSample, bool) {
	line = strings.TrimSpace(line)
	if !strings.Contains(line, Separator) {
		return RawSample{}, false
	}

	fields := strings.Split(line, Separator)
	if len(fields) != NumChannels {
		return RawSample{}, false
	}

	var sample RawSample
	for i, field := range fields {
		sample[i] = parseReading(field)
	}
	return sample, true
}

// parseReading takes an optional sign and the leading run of digits, so "12.7" reads
// as 12 and "abc" is invalid.
func parseReading(field string) Reading {
	s := strings.TrimSpace(field)

	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digitsStart := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digitsStart {
		return Reading{}
	}

	value, err := strconv.Atoi(s[:end])
	if err != nil {
		return Reading{}
	}
	return Reading{Value: value, Valid: true}
}
