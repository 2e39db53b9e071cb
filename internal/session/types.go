package session

import "fmt"

// DefaultBaseline is written into every session log.
const DefaultBaseline = 700.0

// LogEntry is one committed sample. It is a value and never changes once created.
type LogEntry struct {
	Time string  `json:"time"`
	GSRA float64 `json:"gsrA"`
	GSRB float64 `json:"gsrB"`
	GSRC float64 `json:"gsrC"`
}

// Values returns the channels in A, B, C order.
func (e LogEntry) Values() [3]float64 {
	return [3]float64{e.GSRA, e.GSRB, e.GSRC}
}

// Preview is the one line form used by live viewers.
func (e LogEntry) Preview() string {
	return fmt.Sprintf("%s | A:%s B:%s C:%s", e.Time, ToFixed(e.GSRA, 1), ToFixed(e.GSRB, 1), ToFixed(e.GSRC, 1))
}

// SessionLog is the structured log. Field order is the serialized order.
type SessionLog struct {
	SessionStarted string     `json:"sessionStarted"`
	SessionEnded   string     `json:"sessionEnded"`
	Baseline       float64    `json:"baseline"`
	Data           []LogEntry `json:"data"`
}
