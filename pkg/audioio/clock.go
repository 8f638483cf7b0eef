package audioio

import "time"

// PlaybackClock is the scheduling cursor for sequential output buffers.
// Each buffer starts at max(next, now) and advances next by its duration,
// so buffers play back to back without overlap regardless of arrival jitter.
// The zero value is ready to use. It is not safe for concurrent use.
type PlaybackClock struct {
	next time.Duration
}

// Schedule returns the start time for a buffer of duration d arriving at now.
func (c *PlaybackClock) Schedule(now, d time.Duration) time.Duration {
	start := c.next
	if now > start {
		start = now
	}
	c.next = start + d
	return start
}

// Next returns the time at which the next buffer would start.
func (c *PlaybackClock) Next() time.Duration {
	return c.next
}

// Reset rewinds the cursor to 0.
func (c *PlaybackClock) Reset() {
	c.next = 0
}
