package processing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDataSampleStoreLastValueWins(t *testing.T) {
	store := NewDataSampleStore(NewRawSample(100, 400, 600))

	sample, updates := store.GetReadingFromSampleStore()
	require.Equal(t, NewRawSample(100, 400, 600), sample)
	require.Zero(t, updates)

	store.UpdateSampleStore(NewRawSample(1, 2, 3))
	store.UpdateSampleStore(NewRawSample(4, 5, 6))

	sample, updates = store.GetReadingFromSampleStore()
	require.Equal(t, NewRawSample(4, 5, 6), sample)
	require.Equal(t, uint64(2), updates)
}

func TestProcessChunkLeavesStoreOnMalformedInput(t *testing.T) {
	store := NewDataSampleStore(NewRawSample(100, 400, 600))
	p := NewProcessor(zap.NewNop(), store)

	require.Zero(t, p.ProcessChunk([]byte("1,2\n1,2,3,4\nhello\n")))
	sample, _ := store.GetReadingFromSampleStore()
	require.Equal(t, NewRawSample(100, 400, 600), sample)

	require.Equal(t, 2, p.ProcessChunk([]byte("10,20,30\n40,50,60\n")))
	sample, _ = store.GetReadingFromSampleStore()
	require.Equal(t, NewRawSample(40, 50, 60), sample)
}

func TestProcessorRunFlushesOnClose(t *testing.T) {
	store := NewDataSampleStore(RawSample{})
	p := NewProcessor(zap.NewNop(), store)

	queue := make(chan []byte, 3)
	queue <- []byte("7,8,9\n")
	queue <- []byte("11,12,")
	queue <- []byte("13")
	close(queue)

	p.Run(context.Background(), queue)

	sample, updates := store.GetReadingFromSampleStore()
	require.Equal(t, NewRawSample(11, 12, 13), sample)
	require.Equal(t, uint64(2), updates)
}

func TestProcessorRunStopsOnCancel(t *testing.T) {
	p := NewProcessor(zap.NewNop(), NewDataSampleStore(RawSample{}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		p.Run(ctx, make(chan []byte))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("processor did not stop")
	}
}

func TestSamplerCallsTickForEveryTick(t *testing.T) {
	var seen []time.Time
	s := NewSampler(time.Millisecond, func(now time.Time) { seen = append(seen, now) }, zap.NewNop())

	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	ticks := make(chan time.Time, 3)
	ticks <- base
	ticks <- base.Add(16 * time.Millisecond)
	ticks <- base.Add(32 * time.Millisecond)
	close(ticks)

	s.RunWithTicks(context.Background(), ticks)
	require.Equal(t, []time.Time{base, base.Add(16 * time.Millisecond), base.Add(32 * time.Millisecond)}, seen)
}
