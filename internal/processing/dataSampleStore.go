package processing

import (
	"sync"
)

// DataSampleStore is the single slot mailbox between the read loop and the update
// cycle. Every update replaces the whole triplet, so readers never see a torn sample.
type DataSampleStore struct {
	latest          RawSample
	updates         uint64
	rawReadingMutex sync.Mutex
}

func NewDataSampleStore(initial RawSample) *DataSampleStore {
	return &DataSampleStore{latest: initial}
}

func (d *DataSampleStore) UpdateSampleStore(sample RawSample) {
	d.rawReadingMutex.Lock()
	defer d.rawReadingMutex.Unlock()

	d.latest = sample
	d.updates++
}

// GetReadingFromSampleStore returns the latest triplet and how many updates the store
// has received so far.
func (d *DataSampleStore) GetReadingFromSampleStore() (RawSample, uint64) {
	d.rawReadingMutex.Lock()
	defer d.rawReadingMutex.Unlock()

	return d.latest, d.updates
}
