package telemetry

import "sync"

// FakeSink records what it is sent, for tests.
type FakeSink struct {
	mu      sync.Mutex
	records []Record

	// SendError, if set, is returned by Send.
	SendError error
	Closed    bool
}

func NewFakeSink() *FakeSink {
	return &FakeSink{}
}

func (f *FakeSink) Name() string {
	return "fake"
}

func (f *FakeSink) Send(record Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.SendError != nil {
		return f.SendError
	}
	f.records = append(f.records, record)
	return nil
}

func (f *FakeSink) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Closed = true
	return nil
}

func (f *FakeSink) Records() []Record {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]Record(nil), f.records...)
}

func (f *FakeSink) IsClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.Closed
}
