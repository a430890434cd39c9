// Package ratelimit implements the sliding-window admission limiter and
// per-call timeout timers (spec §4.10), backed by github.com/go-redis/redis
// (v6 client, matching the teacher's internal/database.NewRedis pin).
package ratelimit

import (
	"fmt"
	"time"

	"github.com/go-redis/redis"
)

// DefaultMaxCalls and DefaultWindow are the spec's normative sliding-window
// constants (spec §4.10, §6 env vars RATE_LIMIT_CALLS_PER_MINUTE /
// RATE_LIMIT_WINDOW_MS).
const (
	DefaultMaxCalls = 10
	DefaultWindow   = 60 * time.Second
)

// Result is the admission decision returned by Check.
type Result struct {
	Allowed     bool
	Remaining   int
	ResetTimeMs int64
}

// Limiter is a Redis sorted-set sliding window keyed by user ID: each call
// to Record appends the current timestamp as a member scored by itself;
// Check trims entries older than the window and counts what remains.
type Limiter struct {
	client   *redis.Client
	maxCalls int
	window   time.Duration
}

// New builds a Limiter against an already-connected client.
func New(client *redis.Client, maxCalls int, window time.Duration) *Limiter {
	if maxCalls <= 0 {
		maxCalls = DefaultMaxCalls
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &Limiter{client: client, maxCalls: maxCalls, window: window}
}

func (l *Limiter) key(userID string) string {
	return fmt.Sprintf("voicebridge:ratelimit:%s", userID)
}

// Check reports whether userID may place another call right now, without
// recording one (spec §4.10: "check() returns {allowed, remaining,
// resetTimeMs}").
func (l *Limiter) Check(userID string, now time.Time) (Result, error) {
	key := l.key(userID)
	windowStart := now.Add(-l.window)

	if err := l.client.ZRemRangeByScore(key, "0", fmt.Sprintf("%d", windowStart.UnixNano())).Err(); err != nil {
		return Result{}, fmt.Errorf("ratelimit: trim window: %w", err)
	}

	count, err := l.client.ZCard(key).Result()
	if err != nil {
		return Result{}, fmt.Errorf("ratelimit: count window: %w", err)
	}

	remaining := l.maxCalls - int(count)
	if remaining < 0 {
		remaining = 0
	}

	return Result{
		Allowed:     int(count) < l.maxCalls,
		Remaining:   remaining,
		ResetTimeMs: now.Add(l.window).UnixMilli(),
	}, nil
}

// Record appends the current timestamp to userID's window (spec §4.10:
// "record() appends the current timestamp").
func (l *Limiter) Record(userID string, now time.Time) error {
	key := l.key(userID)
	member := redis.Z{Score: float64(now.UnixNano()), Member: now.UnixNano()}
	if err := l.client.ZAdd(key, member).Err(); err != nil {
		return fmt.Errorf("ratelimit: record: %w", err)
	}
	l.client.Expire(key, l.window*2)
	return nil
}
