package processing

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

const DEFAULT_QUEUE_SIZE = 20

// Processor turns chunks coming off the stream into triplets in the sample store.
type Processor struct {
	logger    *zap.Logger
	dataStore *DataSampleStore
	parser    LineParser
	mutex     sync.Mutex
}

func NewProcessor(logger *zap.Logger, dataStore *DataSampleStore) *Processor {
	return &Processor{
		logger:    logger,
		dataStore: dataStore,
	}
}

// Run drains messageQueue until it is closed or ctx is cancelled.
func (p *Processor) Run(ctx context.Context, messageQueue <-chan []byte) {
	for {
		select {
		case chunk, ok := <-messageQueue:
			if !ok {
				p.flush()
				p.logger.Info("[processor] message queue closed")
				return
			}
			p.ProcessChunk(chunk)
		case <-ctx.Done():
			p.logger.Info("[processor] received shutdown signal")
			return
		}
	}
}

// ProcessChunk parses chunk and stores every accepted triplet, last one wins. It
// returns how many triplets were accepted.
func (p *Processor) ProcessChunk(chunk []byte) int {
	p.mutex.Lock()
	samples := p.parser.Parse(chunk)
	p.mutex.Unlock()

	for _, sample := range samples {
		p.dataStore.UpdateSampleStore(sample)
	}
	return len(samples)
}

func (p *Processor) flush() {
	p.mutex.Lock()
	sample, ok := p.parser.Flush()
	p.mutex.Unlock()

	if ok {
		p.dataStore.UpdateSampleStore(sample)
	}
}
