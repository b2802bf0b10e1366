// Package ratelimit enforces the per-user sliding-window cap on
// AI-triggering actions. Window state lives in the persistence layer, not
// process memory, because every request is handled by a stateless
// invocation and near-simultaneous sends must coordinate through atomic
// store operations.
package ratelimit

import (
	"context"
	"errors"
	"time"
)

// Window is the durable per-user counter record.
type Window struct {
	UserID        string
	WindowStartAt time.Time
	Count         int
}

// WindowStore is the atomic persistence contract the limiter runs on.
// TryReset and TryIncrement are compare-and-swap operations: they return
// false (with no mutation) when another invocation won the race.
type WindowStore interface {
	// Get returns the user's window, or a zero Window when none exists.
	Get(ctx context.Context, userID string) (Window, error)
	// TryReset starts a new window with count=1, but only if the stored
	// window still begins at oldStart (zero oldStart means "no window").
	TryReset(ctx context.Context, userID string, oldStart, newStart time.Time) (bool, error)
	// TryIncrement bumps the counter, but only if the window still begins
	// at windowStart and the count is below max.
	TryIncrement(ctx context.Context, userID string, windowStart time.Time, max int) (bool, error)
}

// Decision is the outcome of TryAcquire. Denied is a normal result, not an
// error: callers surface RetryAfter as a user-visible cooldown and must not
// retry automatically.
type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
}

// ErrContention is returned when repeated CAS attempts keep losing races
// against concurrent requests for the same user.
var ErrContention = errors.New("ratelimit: window update contention")

const casAttempts = 4

type Limiter struct {
	store  WindowStore
	max    int
	window time.Duration
	now    func() time.Time
}

// New builds a limiter allowing max acquisitions per rolling window.
func New(store WindowStore, max int, window time.Duration) *Limiter {
	return &Limiter{store: store, max: max, window: window, now: time.Now}
}

// TryAcquire consumes one slot of the user's window, or reports how long the
// user must wait. A denied acquire consumes no capacity.
func (l *Limiter) TryAcquire(ctx context.Context, userID string) (Decision, error) {
	for attempt := 0; attempt < casAttempts; attempt++ {
		w, err := l.store.Get(ctx, userID)
		if err != nil {
			return Decision{}, err
		}
		now := l.now()

		if w.WindowStartAt.IsZero() || now.Sub(w.WindowStartAt) >= l.window {
			ok, err := l.store.TryReset(ctx, userID, w.WindowStartAt, now)
			if err != nil {
				return Decision{}, err
			}
			if ok {
				return Decision{Allowed: true}, nil
			}
			continue // lost the reset race, re-read
		}

		if w.Count < l.max {
			ok, err := l.store.TryIncrement(ctx, userID, w.WindowStartAt, l.max)
			if err != nil {
				return Decision{}, err
			}
			if ok {
				return Decision{Allowed: true}, nil
			}
			continue // window rolled or filled underneath us
		}

		return Decision{RetryAfter: w.WindowStartAt.Add(l.window).Sub(now)}, nil
	}
	return Decision{}, ErrContention
}
