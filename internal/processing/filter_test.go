package processing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFirstUpdateSeedsFromRaw(t *testing.T) {
	f := NewChannelFilter()

	out := f.Update(NewRawSample(100, 400, 600))
	require.Equal(t, Triplet{100, 400, 600}, out.Smoothed)
	require.Equal(t, SpikeFlags{}, out.Spikes)
}

func TestSmoothingFormula(t *testing.T) {
	for _, r := range []int{0, 650, 700, 1023} {
		f := NewChannelFilter()
		f.Update(NewRawSample(700, 700, 700))

		out := f.Update(NewRawSample(r, r, r))
		want := 700 + 0.1*(float64(r)-700)
		for i := 0; i < NumChannels; i++ {
			require.InDelta(t, want, out.Smoothed[i], 1e-9)
		}
	}
}

func TestInvalidReadingsFallBackToNeutral(t *testing.T) {
	f := NewChannelFilter()

	out := f.Update(RawSample{{}, {Value: 10, Valid: true}, {}})
	require.Equal(t, Triplet{NeutralValue, 10, NeutralValue}, out.Raw)
	require.Equal(t, Triplet{NeutralValue, 10, NeutralValue}, out.Smoothed)
}

func TestNonFiniteInputsNeverReachState(t *testing.T) {
	f := NewChannelFilter()
	f.UpdateValues(Triplet{500, 500, 500})

	out := f.UpdateValues(Triplet{math.NaN(), math.Inf(1), math.Inf(-1)})
	want := 500 + 0.1*(NeutralValue-500)
	for i := 0; i < NumChannels; i++ {
		require.Equal(t, NeutralValue, out.Raw[i])
		require.InDelta(t, want, out.Smoothed[i], 1e-9)
	}
}

func TestSmoothedStaysFinite(t *testing.T) {
	f := NewChannelFilter()

	inputs := []int{0, 1023, -1023, math.MaxInt32, math.MinInt32, 5, 700}
	for cycle := 0; cycle < 200; cycle++ {
		r := inputs[cycle%len(inputs)]
		out := f.Update(NewRawSample(r, -r, r/2))
		for i := 0; i < NumChannels; i++ {
			require.True(t, IsFinite(out.Smoothed[i]), "cycle %d channel %d", cycle, i)
		}
	}
}

func TestIsSpikeBoundary(t *testing.T) {
	require.False(t, IsSpike(700, 730))
	require.False(t, IsSpike(730, 700))
	require.True(t, IsSpike(700, 730.5))
	require.True(t, IsSpike(700, 669))
	require.False(t, IsSpike(700, 700))
}

func TestSpikeFlagsPerChannel(t *testing.T) {
	f := NewChannelFilter()
	f.UpdateValues(Triplet{700, 700, 700})

	// one step moves smoothed a tenth of the way, leaving 0.9 of the jump as deviation
	out := f.UpdateValues(Triplet{800, 700, 660})
	require.InDelta(t, 710.0, out.Smoothed[0], 1e-9)
	require.InDelta(t, 696.0, out.Smoothed[2], 1e-9)
	require.Equal(t, SpikeFlags{true, false, true}, out.Spikes)

	// a small step stays under the threshold
	f = NewChannelFilter()
	f.UpdateValues(Triplet{700, 700, 700})
	out = f.UpdateValues(Triplet{720, 680, 700})
	require.Equal(t, SpikeFlags{}, out.Spikes)
}

func TestFilterIsDeterministic(t *testing.T) {
	run := func() []Triplet {
		f := NewChannelFilter()
		var history []Triplet
		for i := 0; i < 50; i++ {
			history = append(history, f.Update(NewRawSample(i*7, 1000-i, 600)).Smoothed)
		}
		return history
	}

	require.Equal(t, run(), run())
}
