package web

import (
	"sleepywoodpecker/gsr-logger/internal/pipeline"
	"sleepywoodpecker/gsr-logger/internal/session"
)

// StatusJSON is the wire form of a pipeline snapshot.
type StatusJSON struct {
	Labels         [3]string          `json:"labels"`
	Raw            [3]float64         `json:"raw"`
	Smoothed       [3]float64         `json:"smoothed"`
	Spikes         [3]bool            `json:"spikes"`
	Levels         [3]float64         `json:"levels"`
	Elapsed        string             `json:"elapsed"`
	ElapsedMs      int64              `json:"elapsed_ms"`
	Recording      bool               `json:"recording"`
	Connected      bool               `json:"connected"`
	Streaming      bool               `json:"streaming"`
	SessionStarted string             `json:"session_started"`
	SessionEnded   string             `json:"session_ended"`
	Recent         []session.LogEntry `json:"recent"`
	Preview        []string           `json:"preview"`
}

func formatStatus(snap pipeline.Snapshot) StatusJSON {
	status := StatusJSON{
		Labels:         pipeline.ChannelLabels,
		Raw:            snap.Raw,
		Smoothed:       snap.Smoothed,
		Spikes:         snap.Spikes,
		Levels:         snap.Levels,
		Elapsed:        session.FormatClock(snap.Elapsed),
		ElapsedMs:      snap.Elapsed.Milliseconds(),
		Recording:      snap.Recording,
		Connected:      snap.Connected,
		Streaming:      snap.Streaming,
		SessionStarted: snap.SessionStarted,
		SessionEnded:   snap.SessionEnded,
		Recent:         snap.Recent,
		Preview:        []string{},
	}
	if status.Recent == nil {
		status.Recent = []session.LogEntry{}
	}
	for _, entry := range snap.Recent {
		status.Preview = append(status.Preview, entry.Preview())
	}
	return status
}

// CommandJSON is what websocket clients send.
type CommandJSON struct {
	Command string `json:"command"`
}
