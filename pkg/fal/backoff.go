package fal

import (
	"math"
	"time"
)

// Backoff computes the delay between queue polls. The schedule is purely a
// function of the attempt number; wall-clock deadlines are enforced
// independently by the caller.
type Backoff struct {
	Base   time.Duration
	Growth float64
	Cap    time.Duration
}

// DefaultBackoff polls eagerly at first and settles at one probe every five
// seconds for long renders.
func DefaultBackoff() Backoff {
	return Backoff{
		Base:   500 * time.Millisecond,
		Growth: 1.5,
		Cap:    5 * time.Second,
	}
}

// Delay returns base * growth^attempt, capped. Attempts count from zero.
func (b Backoff) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}

	delay := time.Duration(float64(b.Base) * math.Pow(b.Growth, float64(attempt)))
	if delay > b.Cap || delay < 0 {
		return b.Cap
	}

	return delay
}
