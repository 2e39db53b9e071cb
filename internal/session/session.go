// Package session owns the recording state of one acquisition session: its clock,
// the 1 Hz rate gate and the two logs every committed sample goes to.
package session

import (
	"time"

	"sleepywoodpecker/gsr-logger/internal/processing"
)

// LogInterval is the minimum spacing between committed entries.
const LogInterval = time.Second

// PreviewRows is how many recent entries live viewers get.
const PreviewRows = 10

type Session struct {
	clock       Clock
	lastLogTime time.Time
	rowLog      []LogEntry
	sessionLog  SessionLog
}

func New() *Session {
	return &Session{
		sessionLog: SessionLog{
			Baseline: DefaultBaseline,
			Data:     []LogEntry{},
		},
	}
}

// Start begins a new session at now, clearing both logs.
func (s *Session) Start(now time.Time) {
	s.clock.Start(now)
	s.lastLogTime = time.Time{}
	s.rowLog = nil
	s.sessionLog.SessionStarted = FormatTimestamp(now)
	s.sessionLog.SessionEnded = ""
	s.sessionLog.Data = []LogEntry{}
}

func (s *Session) Stop(now time.Time) {
	s.clock.Stop()
	s.sessionLog.SessionEnded = FormatTimestamp(now)
}

func (s *Session) Reset(now time.Time) {
	s.clock.Reset(now)
}

func (s *Session) Tick(now time.Time) time.Duration {
	return s.clock.Tick(now)
}

// MaybeLog commits an entry built from smoothed when a session is recording and at
// least LogInterval has passed since the previous entry. Non-finite smoothed channels
// are replaced by their raw value. The same entry is appended to both logs.
func (s *Session) MaybeLog(now time.Time, smoothed, raw processing.Triplet) (LogEntry, bool) {
	if !s.clock.Recording() {
		return LogEntry{}, false
	}
	if !s.lastLogTime.IsZero() && now.Sub(s.lastLogTime) < LogInterval {
		return LogEntry{}, false
	}
	s.lastLogTime = now

	var values processing.Triplet
	for i := range smoothed {
		if processing.IsFinite(smoothed[i]) {
			values[i] = smoothed[i]
		} else {
			values[i] = raw[i]
		}
	}

	entry := LogEntry{
		Time: FormatElapsed(s.clock.Elapsed()),
		GSRA: values[0],
		GSRB: values[1],
		GSRC: values[2],
	}
	s.rowLog = append(s.rowLog, entry)
	s.sessionLog.Data = append(s.sessionLog.Data, entry)

	return entry, true
}

// Started is the sessionStarted stamp of the current session, empty before the first.
func (s *Session) Started() string {
	return s.sessionLog.SessionStarted
}

func (s *Session) Recording() bool {
	return s.clock.Recording()
}

func (s *Session) Elapsed() time.Duration {
	return s.clock.Elapsed()
}

// RowLog returns a copy of the flat row log.
func (s *Session) RowLog() []LogEntry {
	return append([]LogEntry(nil), s.rowLog...)
}

// SessionLog returns a copy of the structured log.
func (s *Session) SessionLog() SessionLog {
	out := s.sessionLog
	out.Data = append([]LogEntry{}, s.sessionLog.Data...)
	return out
}

// Recent returns up to n of the newest entries, oldest first.
func (s *Session) Recent(n int) []LogEntry {
	data := s.sessionLog.Data
	if len(data) > n {
		data = data[len(data)-n:]
	}
	return append([]LogEntry(nil), data...)
}
