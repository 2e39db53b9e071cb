package processing

import "math"

const (
	SmoothingFactor = 0.1
	SpikeThreshold  = 30.0

	// NeutralValue replaces any non-finite reading or smoothing state.
	NeutralValue = 700.0
)

type Triplet [NumChannels]float64

type SpikeFlags [NumChannels]bool

// FilterOutput is what one update cycle produces. Raw holds the sanitized inputs the
// smoothing and spike detection actually used.
type FilterOutput struct {
	Raw      Triplet
	Smoothed Triplet
	Spikes   SpikeFlags
}

// ChannelFilter keeps one exponential moving average per channel.
type ChannelFilter struct {
	smoothed Triplet
}

// NewChannelFilter returns an unseeded filter; the first update seeds every channel
// from its raw value.
func NewChannelFilter() *ChannelFilter {
	f := &ChannelFilter{}
	f.Reset()
	return f
}

func (f *ChannelFilter) Reset() {
	for i := range f.smoothed {
		f.smoothed[i] = math.NaN()
	}
}

func (f *ChannelFilter) Smoothed() Triplet {
	return f.smoothed
}

// Sanitize maps a parsed sample to numbers, invalid channels becoming NeutralValue.
func Sanitize(raw RawSample) Triplet {
	var out Triplet
	for i, reading := range raw {
		if reading.Valid {
			out[i] = float64(reading.Value)
		} else {
			out[i] = NeutralValue
		}
	}
	return out
}

func (f *ChannelFilter) Update(raw RawSample) FilterOutput {
	return f.UpdateValues(Sanitize(raw))
}

// UpdateValues runs one cycle over already numeric inputs. Non-finite inputs are
// replaced by NeutralValue before they can reach the smoothing state.
func (f *ChannelFilter) UpdateValues(raw Triplet) FilterOutput {
	var out FilterOutput

	for i := range raw {
		value := raw[i]
		if !IsFinite(value) {
			value = NeutralValue
		}

		if !IsFinite(f.smoothed[i]) {
			f.smoothed[i] = value
		} else {
			f.smoothed[i] = f.smoothed[i] + SmoothingFactor*(value-f.smoothed[i])
		}

		out.Raw[i] = value
		out.Smoothed[i] = f.smoothed[i]
		out.Spikes[i] = IsSpike(f.smoothed[i], value)
	}

	return out
}

// IsSpike reports whether raw strays from its smoothed value by more than
// SpikeThreshold. A deviation of exactly the threshold is not a spike.
func IsSpike(smoothed, raw float64) bool {
	return math.Abs(smoothed-raw) > SpikeThreshold
}

func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
