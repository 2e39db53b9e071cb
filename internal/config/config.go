package config

import (
	"errors"
	"fmt"
	"time"
)

const (
	DefaultBaudRate   = 9600
	DefaultTickPeriod = 16 * time.Millisecond
	DefaultLogFile    = "gsr.logs"
	DefaultMQTTTopic  = "gsr/session/entries"
)

// Config is everything the gsr-logger command needs to wire a pipeline.
type Config struct {
	// serial device; empty keeps the simulated readings
	PortName     string
	BaudRate     int
	TickPeriod   time.Duration // update cycle period
	OutputDir    string        // where exports are written
	HTTPAddr     string        // empty disables the web surface
	TelegrafAddr string        // UDP influx endpoint, empty disables
	MQTTBroker   string        // empty disables
	MQTTTopic    string
	LogFile      string
	Headless     bool
	AutoConnect  bool
}

func Default() Config {
	return Config{
		BaudRate:   DefaultBaudRate,
		TickPeriod: DefaultTickPeriod,
		OutputDir:  ".",
		HTTPAddr:   ":8080",
		MQTTTopic:  DefaultMQTTTopic,
		LogFile:    DefaultLogFile,
	}
}

func (c Config) Validate() error {
	if c.BaudRate <= 0 {
		return fmt.Errorf("invalid baud rate %d", c.BaudRate)
	}
	if c.TickPeriod <= 0 {
		return fmt.Errorf("invalid tick period %v", c.TickPeriod)
	}
	if c.OutputDir == "" {
		return errors.New("output directory must not be empty")
	}
	if c.LogFile == "" {
		return errors.New("log file must not be empty")
	}
	if c.AutoConnect && c.PortName == "" {
		return errors.New("auto-connect needs a serial port")
	}
	return nil
}
