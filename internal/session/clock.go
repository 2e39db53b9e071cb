package session

import "time"

// Clock tracks whether a session is recording and for how long.
type Clock struct {
	recording      bool
	startTimestamp time.Time
	elapsed        time.Duration
}

func (c *Clock) Start(now time.Time) {
	c.recording = true
	c.startTimestamp = now
}

// Stop freezes elapsed at the value of the last tick.
func (c *Clock) Stop() {
	c.recording = false
}

// Reset zeroes elapsed. A running session keeps running, counting from now.
func (c *Clock) Reset(now time.Time) {
	c.elapsed = 0
	if c.recording {
		c.startTimestamp = now
	}
}

func (c *Clock) Tick(now time.Time) time.Duration {
	if c.recording {
		c.elapsed = now.Sub(c.startTimestamp)
	}
	return c.elapsed
}

func (c *Clock) Recording() bool {
	return c.recording
}

func (c *Clock) Elapsed() time.Duration {
	return c.elapsed
}
