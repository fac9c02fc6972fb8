package backoff

import (
	"math"
	"math/rand"
	"time"
)

// Strategy calculates the delay inserted before a retry attempt.
// Implementations must be safe for concurrent use.
type Strategy interface {
	// NextInterval returns the backoff duration for the given attempt.
	// Attempt starts at 1 for the first retry.
	NextInterval(attempt int) time.Duration
}

// Exponential implements exponential backoff with optional jitter.
// Jitter spreads retry times so simultaneous failures don't retry in lockstep.
type Exponential struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
	JitterFactor    float64
}

// NextInterval returns min(InitialInterval * Multiplier^(attempt-1) * (1 ± JitterFactor), MaxInterval).
func (e Exponential) NextInterval(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}

	initial := e.InitialInterval
	if initial == 0 {
		initial = time.Second
	}

	max := e.MaxInterval
	if max == 0 {
		max = 30 * time.Second
	}

	multiplier := e.Multiplier
	if multiplier == 0 {
		multiplier = 2
	}

	interval := float64(initial) * math.Pow(multiplier, float64(attempt-1))

	// Zero jitter keeps the schedule deterministic, which the notification
	// processor relies on for its persisted retry timestamps.
	if e.JitterFactor > 0 {
		randomJitter := (rand.Float64()*2 - 1) * e.JitterFactor
		interval = interval * (1 + randomJitter)
	}

	if interval > float64(max) {
		interval = float64(max)
	}

	return time.Duration(interval)
}

// Linear implements linearly increasing backoff without jitter.
type Linear struct {
	Interval    time.Duration
	MaxInterval time.Duration
}

// NextInterval returns min(Interval * attempt, MaxInterval).
func (l Linear) NextInterval(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}

	interval := l.Interval
	if interval == 0 {
		interval = time.Second
	}

	max := l.MaxInterval
	if max == 0 {
		max = 30 * time.Second
	}

	delay := interval * time.Duration(attempt)
	if delay > max {
		delay = max
	}

	return delay
}

// Fixed implements a constant delay between retries.
type Fixed struct {
	Interval time.Duration
}

// NextInterval always returns the same interval regardless of attempt number.
func (f Fixed) NextInterval(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	return f.Interval
}
