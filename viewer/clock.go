package viewer

import (
	"sync"
	"time"
)

// TimeSource is where a PlayClock reads wall time from.
type TimeSource interface {
	Now() time.Time
}

type SystemTime struct{}

func (SystemTime) Now() time.Time { return time.Now() }

// PlayClock maps wall time to replay milliseconds at a speed, and can be
// paused and moved.
type PlayClock struct {
	mu sync.Mutex

	src    TimeSource
	anchor time.Time // wall time when at was last set
	at     int64     // replay ms at anchor
	speed  float64
	paused bool
}

func NewPlayClock(src TimeSource, start int64, speed float64) *PlayClock {
	if speed <= 0 {
		speed = 1
	}
	return &PlayClock{src: src, anchor: src.Now(), at: start, speed: speed}
}

// Time is the current replay time in ms.
func (c *PlayClock) Time() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.timeLocked()
}

func (c *PlayClock) timeLocked() int64 {
	if c.paused {
		return c.at
	}
	elapsed := c.src.Now().Sub(c.anchor)
	return c.at + int64(float64(elapsed.Milliseconds())*c.speed)
}

// rebase folds elapsed time into at so later changes start from now.
func (c *PlayClock) rebase() {
	c.at = c.timeLocked()
	c.anchor = c.src.Now()
}

func (c *PlayClock) Speed() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.speed
}

func (c *PlayClock) SetSpeed(speed float64) {
	if speed <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rebase()
	c.speed = speed
}

func (c *PlayClock) Paused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.paused
}

func (c *PlayClock) SetPaused(paused bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.paused == paused {
		return
	}
	c.rebase()
	c.paused = paused
}

// Jump moves the clock to replay time t.
func (c *PlayClock) Jump(t int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.at = t
	c.anchor = c.src.Now()
}

// Pace is how long a loop waits before the sample at next is due when the
// clock reads now, at speed.
func Pace(next, now int64, speed float64) time.Duration {
	if next <= now || speed <= 0 {
		return 0
	}
	return time.Duration(float64(next-now) / speed * float64(time.Millisecond))
}
