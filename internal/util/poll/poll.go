// Package poll provides bounded polling with an additive backoff schedule.
//
// Backend mutations may leave a resource in an in-progress state for a
// while. Callers poll with a small fixed attempt budget and waits that grow
// by a constant step (1s, 3s, 5s, ...). The sleep function is injectable so
// tests can observe the schedule without real delays.
package poll

import (
	"errors"
	"time"
)

// ErrExhausted is returned when the attempt budget runs out before the
// condition is observed.
var ErrExhausted = errors.New("poll: attempt budget exhausted")

// Sleeper blocks for the given duration. time.Sleep satisfies it.
type Sleeper func(time.Duration)

// Config holds polling configuration.
type Config struct {
	MaxAttempts int
	Interval    time.Duration
	Sleep       Sleeper
}

// Option is a functional option for polling configuration.
type Option func(*Config)

// WithMaxAttempts sets the attempt budget.
func WithMaxAttempts(n int) Option {
	return func(c *Config) {
		c.MaxAttempts = n
	}
}

// WithInterval sets the base unit of the additive wait schedule.
func WithInterval(d time.Duration) Option {
	return func(c *Config) {
		c.Interval = d
	}
}

// WithSleep replaces the sleep function. Intended for tests.
func WithSleep(s Sleeper) Option {
	return func(c *Config) {
		c.Sleep = s
	}
}

// Until repeatedly invokes check until it reports done or the attempt
// budget is exhausted. Before attempt n (zero-based) it sleeps
// (2n+1)*Interval, so the default schedule is 1s, 3s, 5s, 7s, 9s.
//
// A non-nil error from check stops polling immediately and is returned
// as-is. Exhausting the budget returns ErrExhausted.
func Until(check func() (bool, error), opts ...Option) error {
	cfg := &Config{
		MaxAttempts: 5,
		Interval:    time.Second,
		Sleep:       time.Sleep,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		cfg.Sleep(time.Duration(2*attempt+1) * cfg.Interval)

		done, err := check()
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}

	return ErrExhausted
}
