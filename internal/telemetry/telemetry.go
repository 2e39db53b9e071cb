// Package telemetry forwards committed log entries to live consumers outside the process.
package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"sleepywoodpecker/gsr-logger/internal/session"
)

const MeasurementName = "gsr"

const DEFAULT_QUEUE_SIZE = 64

// Record is one committed entry plus the session it belongs to.
type Record struct {
	SessionStarted string
	Entry          session.LogEntry
	Timestamp      time.Time
}

// Sink delivers records somewhere. Errors are logged by the Publisher, never fatal.
type Sink interface {
	Name() string
	Send(record Record) error
	Close() error
}

// FormatInflux renders record as an influx line protocol point.
func FormatInflux(record Record) string {
	tag := strings.NewReplacer(",", `\,`, " ", `\ `, "=", `\=`).Replace(record.SessionStarted)
	if tag == "" {
		tag = "none"
	}
	return fmt.Sprintf("%s,session=%s gsrA=%s,gsrB=%s,gsrC=%s %d",
		MeasurementName,
		tag,
		session.ToFixed(record.Entry.GSRA, 2),
		session.ToFixed(record.Entry.GSRB, 2),
		session.ToFixed(record.Entry.GSRC, 2),
		record.Timestamp.UnixNano(),
	)
}

type payload struct {
	SessionStarted string           `json:"sessionStarted"`
	Timestamp      string           `json:"timestamp"`
	Entry          session.LogEntry `json:"entry"`
}

// FormatJSON renders record as the MQTT message body.
func FormatJSON(record Record) ([]byte, error) {
	return json.Marshal(payload{
		SessionStarted: record.SessionStarted,
		Timestamp:      session.FormatTimestamp(record.Timestamp),
		Entry:          record.Entry,
	})
}

// Publisher fans records out to every sink from its own goroutine, so a slow sink
// never holds up the update cycle. Records are dropped when the queue is full.
type Publisher struct {
	sinks  []Sink
	queue  chan Record
	logger *zap.Logger
}

func NewPublisher(logger *zap.Logger, sinks ...Sink) *Publisher {
	return &Publisher{
		sinks:  sinks,
		queue:  make(chan Record, DEFAULT_QUEUE_SIZE),
		logger: logger,
	}
}

// Enqueue never blocks. It reports whether the record was queued.
func (p *Publisher) Enqueue(record Record) bool {
	if len(p.sinks) == 0 {
		return false
	}

	select {
	case p.queue <- record:
		return true
	default:
		p.logger.Warn("[telemetry] queue full, dropping record", zap.String("time", record.Entry.Time))
		return false
	}
}

func (p *Publisher) Run(ctx context.Context) {
	for {
		select {
		case record := <-p.queue:
			p.deliver(record)
		case <-ctx.Done():
			p.logger.Info("[telemetry] received shutdown signal")
			for _, sink := range p.sinks {
				if err := sink.Close(); err != nil {
					p.logger.Warn("[telemetry] error closing sink", zap.Error(err), zap.String("sink", sink.Name()))
				}
			}
			return
		}
	}
}

func (p *Publisher) deliver(record Record) {
	for _, sink := range p.sinks {
		if err := sink.Send(record); err != nil {
			p.logger.Warn("[telemetry] error sending record", zap.Error(err), zap.String("sink", sink.Name()))
		}
	}
}
