// Package pipeline wires acquisition, filtering, the session and its exports into one
// context object. Data enters through OnData, time through OnTick; everything a
// renderer needs comes back out of Snapshot.
package pipeline

import (
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"sleepywoodpecker/gsr-logger/internal/export"
	"sleepywoodpecker/gsr-logger/internal/processing"
	rserial "sleepywoodpecker/gsr-logger/internal/rSerial"
	"sleepywoodpecker/gsr-logger/internal/session"
	"sleepywoodpecker/gsr-logger/internal/telemetry"
)

// SimulatedReadings stand in for the sensors until a stream delivers a line.
var SimulatedReadings = processing.NewRawSample(100, 400, 600)

var ChannelLabels = [processing.NumChannels]string{
	"Participant (GSR A)",
	"Observer 1 (GSR B)",
	"Observer 2 (GSR C)",
}

// Smoothed values are mapped onto [0, 1] between these bounds for display.
const (
	LevelLow  = 600.0
	LevelHigh = 850.0
)

type Options struct {
	PortName   string
	BaudRate   int
	TickPeriod time.Duration
	Open       rserial.OpenFunc // defaults to rserial.OpenSerial
	Sinks      []telemetry.Sink
}

// Snapshot is a copy of everything a renderer shows for one cycle.
type Snapshot struct {
	Raw            processing.Triplet
	Smoothed       processing.Triplet
	Spikes         processing.SpikeFlags
	Levels         processing.Triplet
	Elapsed        time.Duration
	Recording      bool
	Connected      bool // a stream has been attached at least once
	Streaming      bool // the read loop is running right now
	SessionStarted string
	SessionEnded   string
	Recent         []session.LogEntry
}

type Pipeline struct {
	options   Options
	logger    *zap.Logger
	store     *processing.DataSampleStore
	processor *processing.Processor // stream read loop
	direct    *processing.Processor // OnData, parsed separately so partial lines never mix
	publisher *telemetry.Publisher

	mutex   sync.Mutex
	filter  *processing.ChannelFilter
	session *session.Session
	last    processing.FilterOutput

	connected  atomic.Bool
	connecting atomic.Bool // a Connect is opening the port or running its read loop
	streaming  atomic.Bool
}

func New(options Options, logger *zap.Logger) *Pipeline {
	if options.Open == nil {
		options.Open = rserial.OpenSerial
	}

	store := processing.NewDataSampleStore(SimulatedReadings)
	initial := processing.Sanitize(SimulatedReadings)

	return &Pipeline{
		options:   options,
		logger:    logger,
		store:     store,
		processor: processing.NewProcessor(logger, store),
		direct:    processing.NewProcessor(logger, store),
		publisher: telemetry.NewPublisher(logger, options.Sinks...),
		filter:    processing.NewChannelFilter(),
		session:   session.New(),
		last:      processing.FilterOutput{Raw: initial, Smoothed: initial},
	}
}

// Run drives the update cycle and the telemetry publisher until ctx is cancelled.
func (p *Pipeline) Run(ctx context.Context) {
	go p.publisher.Run(ctx)

	sampler := processing.NewSampler(p.options.TickPeriod, func(now time.Time) { p.OnTick(now) }, p.logger)
	sampler.Run(ctx)
}

// OnData feeds a chunk of stream bytes to the line parser. It keeps its own line
// buffer, apart from the one an attached stream uses; both write the same mailbox.
func (p *Pipeline) OnData(chunk []byte) int {
	return p.direct.ProcessChunk(chunk)
}

// OnTick runs one update cycle: filter the latest triplet, advance the session clock
// and commit an entry if the rate gate is open.
func (p *Pipeline) OnTick(now time.Time) (session.LogEntry, bool) {
	raw, _ := p.store.GetReadingFromSampleStore()

	p.mutex.Lock()
	out := p.filter.Update(raw)
	p.last = out
	p.session.Tick(now)
	entry, ok := p.session.MaybeLog(now, out.Smoothed, out.Raw)
	started := p.session.Started()
	p.mutex.Unlock()

	if ok {
		p.publisher.Enqueue(telemetry.Record{SessionStarted: started, Entry: entry, Timestamp: now})
	}
	return entry, ok
}

// Connect opens the configured port and runs the read loop in the background. Failures
// are logged, never returned. The returned channel closes when the loop has ended.
func (p *Pipeline) Connect(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})

	if p.options.PortName == "" {
		p.logger.Warn("[pipeline] no serial port configured, staying on simulated readings")
		close(done)
		return done
	}
	if !p.connecting.CompareAndSwap(false, true) {
		p.logger.Info("[pipeline] already connected", zap.String("portName", p.options.PortName))
		close(done)
		return done
	}

	go func() {
		defer close(done)
		defer p.connecting.Store(false)

		port, err := p.options.Open(p.options.PortName, p.options.BaudRate)
		if err != nil {
			p.logger.Warn("[pipeline] serial connection error", zap.Error(err), zap.String("portName", p.options.PortName))
			return
		}
		p.connected.Store(true)
		p.streaming.Store(true)
		defer p.streaming.Store(false)
		p.logger.Info("[pipeline] connected", zap.String("portName", p.options.PortName), zap.Int("baudRate", p.options.BaudRate))

		queue := make(chan []byte, processing.DEFAULT_QUEUE_SIZE)
		reader := rserial.NewRSerial(port, p.options.PortName, queue, p.logger, rserial.DefaultChunkSize)

		processorDone := make(chan struct{})
		go func() {
			p.processor.Run(ctx, queue)
			close(processorDone)
		}()

		err = reader.Run(ctx)
		<-processorDone

		var closedErr *rserial.StreamClosedError
		if errors.As(err, &closedErr) {
			p.logger.Warn("[pipeline] stream ended, continuing on last values", zap.Error(closedErr.Err), zap.String("portName", closedErr.PortName))
		}
	}()

	return done
}

func (p *Pipeline) Start(now time.Time) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.session.Start(now)
	p.logger.Info("[pipeline] session started", zap.String("sessionStarted", session.FormatTimestamp(now)))
}

func (p *Pipeline) Stop(now time.Time) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.session.Stop(now)
	p.logger.Info("[pipeline] session stopped", zap.Duration("elapsed", p.session.Elapsed()))
}

func (p *Pipeline) Reset(now time.Time) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.session.Reset(now)
	p.logger.Info("[pipeline] session clock reset", zap.Bool("recording", p.session.Recording()))
}

// ExportCSV renders the row log. ok is false when nothing has been recorded.
func (p *Pipeline) ExportCSV() (f export.File, ok bool, err error) {
	p.mutex.Lock()
	rows := p.session.RowLog()
	p.mutex.Unlock()

	return export.CSVFile(rows)
}

func (p *Pipeline) ExportJSON() (export.File, error) {
	p.mutex.Lock()
	log := p.session.SessionLog()
	p.mutex.Unlock()

	return export.JSONFile(log)
}

// SaveCSV writes the CSV export into dir. Nothing is written for an empty log.
func (p *Pipeline) SaveCSV(dir string) (string, bool, error) {
	f, ok, err := p.ExportCSV()
	if err != nil || !ok {
		return "", ok, err
	}

	path, replaced, err := export.WriteFile(dir, f)
	if err != nil {
		return "", false, err
	}
	if replaced {
		p.logger.Warn("[pipeline] replacing previous export", zap.String("path", path))
	}
	p.logger.Info("[pipeline] exported csv", zap.String("path", path))
	return path, true, nil
}

func (p *Pipeline) SaveJSON(dir string) (string, error) {
	f, err := p.ExportJSON()
	if err != nil {
		return "", err
	}

	path, replaced, err := export.WriteFile(dir, f)
	if err != nil {
		return "", err
	}
	if replaced {
		p.logger.Warn("[pipeline] replacing previous export", zap.String("path", path))
	}
	p.logger.Info("[pipeline] exported json", zap.String("path", path))
	return path, nil
}

func (p *Pipeline) Snapshot() Snapshot {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	log := p.session.SessionLog()
	snap := Snapshot{
		Raw:            p.last.Raw,
		Smoothed:       p.last.Smoothed,
		Spikes:         p.last.Spikes,
		Elapsed:        p.session.Elapsed(),
		Recording:      p.session.Recording(),
		Connected:      p.connected.Load(),
		Streaming:      p.streaming.Load(),
		SessionStarted: log.SessionStarted,
		SessionEnded:   log.SessionEnded,
		Recent:         p.session.Recent(session.PreviewRows),
	}
	for i, v := range snap.Smoothed {
		snap.Levels[i] = Level(v)
	}
	return snap
}

// Level maps a smoothed value onto [0, 1] for colour ramps.
func Level(v float64) float64 {
	if !processing.IsFinite(v) {
		v = processing.NeutralValue
	}
	return math.Max(0, math.Min(1, (v-LevelLow)/(LevelHigh-LevelLow)))
}
