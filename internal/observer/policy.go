package observer

import (
	"time"

	"github.com/cenkalti/backoff"
)

// Policy is the reconnection schedule shared by every observer.
type Policy struct {
	Initial    time.Duration
	Max        time.Duration
	Multiplier float64
	// Jitter is the randomization factor applied to each wait (0.2 = ±20%).
	Jitter float64
	// MaxAttempts bounds consecutive failed reconnects before giving up.
	MaxAttempts uint64
}

// DefaultPolicy waits 1s, 2s, 4s, then 5s per attempt (each ±20%) and gives
// up after 10 consecutive failures.
func DefaultPolicy() Policy {
	return Policy{
		Initial:     time.Second,
		Max:         5 * time.Second,
		Multiplier:  2,
		Jitter:      0.2,
		MaxAttempts: 10,
	}
}

// NewBackOff builds a fresh schedule. NextBackOff returns backoff.Stop once
// MaxAttempts waits have been handed out; Reset starts over.
func (p Policy) NewBackOff() backoff.BackOff {
	exp := &backoff.ExponentialBackOff{
		InitialInterval:     p.Initial,
		RandomizationFactor: p.Jitter,
		Multiplier:          p.Multiplier,
		MaxInterval:         p.Max,
		MaxElapsedTime:      0,
		Clock:               backoff.SystemClock,
	}
	exp.Reset()
	return backoff.WithMaxRetries(exp, p.MaxAttempts)
}
