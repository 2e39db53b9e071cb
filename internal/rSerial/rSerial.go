// r in rserial stands for "robust"
package rserial

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.bug.st/serial"
	"go.uber.org/zap"
)

const DefaultChunkSize = 64

// a short timeout keeps Read returning so cancellation is noticed promptly
const readTimeout = 50 * time.Millisecond

// Port is the part of a serial port the reader needs. serial.Port satisfies it.
type Port interface {
	io.ReadCloser
}

// OpenFunc opens a port by name.
type OpenFunc func(portName string, baudrate int) (Port, error)

// OpenSerial opens a real serial device.
func OpenSerial(portName string, baudrate int) (Port, error) {
	mode := &serial.Mode{
		BaudRate: baudrate,
	}

	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", portName, err)
	}

	if err := port.SetReadTimeout(readTimeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("set read timeout on %s: %w", portName, err)
	}
	if err := port.ResetInputBuffer(); err != nil {
		port.Close()
		return nil, fmt.Errorf("reset input buffer on %s: %w", portName, err)
	}

	return port, nil
}

// ListPorts returns the serial devices present on this machine.
func ListPorts() ([]string, error) {
	return serial.GetPortsList()
}

type RSerial struct {
	port         Port
	MessageQueue chan<- []byte
	tempBuff     []byte
	logger       *zap.Logger
	portName     string
}

// StreamClosedError ends a read loop: the port reported EOF or failed.
type StreamClosedError struct {
	PortName string
	Err      error
}

func (e *StreamClosedError) Error() string {
	return fmt.Sprintf("[rserial] stream %s closed: %v", e.PortName, e.Err)
}

func (e *StreamClosedError) Unwrap() error {
	return e.Err
}

func NewRSerial(port Port, portName string, messageQueue chan<- []byte, logger *zap.Logger, chunkSize int) *RSerial {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	return &RSerial{
		port:         port,
		MessageQueue: messageQueue,
		tempBuff:     make([]byte, chunkSize),
		logger:       logger,
		portName:     portName,
	}
}

// Run reads chunks onto MessageQueue until ctx is cancelled or the stream ends. The
// queue is closed and the port released on return. A nil return means cancellation.
func (r *RSerial) Run(ctx context.Context) error {
	defer close(r.MessageQueue)
	defer r.Close()

	if err := r.sync(ctx); err != nil {
		r.logger.Warn("[rserial] stream closed while syncing", zap.Error(err), zap.String("portName", r.portName))
		return err
	}

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("[rserial] exiting from rserial read loop", zap.String("portName", r.portName))
			return nil
		default:
			if err := r.ReadChunk(ctx); err != nil {
				r.logger.Warn("[rserial] error while reading from stream", zap.Error(err), zap.String("portName", r.portName))
				return err
			}
		}
	}
}

// ReadChunk performs one read and forwards whatever arrived. A timed out read with
// no data is not an error.
func (r *RSerial) ReadChunk(ctx context.Context) error {
	n, err := r.port.Read(r.tempBuff)
	if n > 0 {
		chunk := make([]byte, n)
		copy(chunk, r.tempBuff[:n])

		select {
		case r.MessageQueue <- chunk:
		case <-ctx.Done():
			return nil
		}
	}
	if err != nil {
		return &StreamClosedError{PortName: r.portName, Err: err}
	}
	return nil
}

func (r *RSerial) Close() error {
	return r.port.Close()
}

// sync drops everything up to the first newline, so parsing starts on a line boundary.
func (r *RSerial) sync(ctx context.Context) error {
	r.logger.Info("[rserial] syncing to line boundary", zap.String("portName", r.portName))
	onebyte := make([]byte, 1)

	for {
		if ctx.Err() != nil {
			return nil
		}

		n, err := r.port.Read(onebyte)
		if n == 1 && onebyte[0] == '\n' {
			return nil
		}
		if err != nil {
			return &StreamClosedError{PortName: r.portName, Err: err}
		}
	}
}
