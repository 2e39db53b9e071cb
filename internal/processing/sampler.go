package processing

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type TickFunc func(now time.Time)

// Sampler drives the update cycle at a fixed rate, independent of data arrival.
type Sampler struct {
	samplingPeriod time.Duration
	onTick         TickFunc
	logger         *zap.Logger
}

func NewSampler(samplingPeriod time.Duration, onTick TickFunc, logger *zap.Logger) *Sampler {
	return &Sampler{
		samplingPeriod: samplingPeriod,
		onTick:         onTick,
		logger:         logger,
	}
}

func (s *Sampler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.samplingPeriod)
	defer ticker.Stop()

	s.logger.Info("[sampler] started", zap.Duration("period", s.samplingPeriod))
	s.RunWithTicks(ctx, ticker.C)
}

// RunWithTicks calls onTick for every value received on ticks.
func (s *Sampler) RunWithTicks(ctx context.Context, ticks <-chan time.Time) {
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("[sampler] received shutdown signal")
			return
		case now, ok := <-ticks:
			if !ok {
				return
			}
			s.onTick(now)
		}
	}
}
