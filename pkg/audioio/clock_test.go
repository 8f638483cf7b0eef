package audioio

import (
	"testing"
	"time"
)

func TestPlaybackClock_BackToBack(t *testing.T) {
	var c PlaybackClock
	t0 := 100 * time.Millisecond
	d1, d2 := 40*time.Millisecond, 25*time.Millisecond

	s1 := c.Schedule(t0, d1)
	// second buffer arrives early, before the first finished
	s2 := c.Schedule(t0+5*time.Millisecond, d2)

	if s1 != t0 {
		t.Errorf("first start = %v, want %v", s1, t0)
	}
	if s2 != t0+d1 {
		t.Errorf("second start = %v, want %v", s2, t0+d1)
	}
	if c.Next() != t0+d1+d2 {
		t.Errorf("Next() = %v", c.Next())
	}
}

func TestPlaybackClock_Jitter(t *testing.T) {
	arrivals := []time.Duration{0, 1, 3, 50, 51, 52, 200}
	d := 20 * time.Millisecond

	var c PlaybackClock
	var prevEnd time.Duration
	for i, a := range arrivals {
		now := a * time.Millisecond
		start := c.Schedule(now, d)
		if start < now {
			t.Errorf("buffer %d starts in the past: %v < %v", i, start, now)
		}
		if start < prevEnd {
			t.Errorf("buffer %d overlaps previous: %v < %v", i, start, prevEnd)
		}
		prevEnd = start + d
	}
}

func TestPlaybackClock_LateArrivalLeavesGap(t *testing.T) {
	var c PlaybackClock
	c.Schedule(0, 10*time.Millisecond)
	if got := c.Schedule(time.Second, 10*time.Millisecond); got != time.Second {
		t.Errorf("late buffer start = %v, want now", got)
	}
}

func TestPlaybackClock_Reset(t *testing.T) {
	var c PlaybackClock
	c.Schedule(time.Second, time.Second)
	c.Reset()
	if c.Next() != 0 {
		t.Errorf("Next() after Reset = %v", c.Next())
	}
}
