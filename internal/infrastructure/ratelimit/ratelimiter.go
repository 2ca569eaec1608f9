package ratelimit

import "time"

// Limits bounds how often a single account may attempt to log in.
// A zero limit disables that window.
type Limits struct {
	AttemptsPerMinute int
	AttemptsPerHour   int
}

type RateLimiter interface {
	Allow(key string, limits Limits) (bool, error)
	GetRemaining(key string, window time.Duration) (int64, error)
	Reset(key string) error
}
