// Package budget turns the search quota counters reported with every reverse
// search into a pacing decision for the scan loop.
package budget

import (
	"context"
	"log/slog"
	"time"

	"imgsauce/internal/logging"
)

// Decision is what the scan loop does after a search.
type Decision int

const (
	// Proceed continues with the next file immediately.
	Proceed Decision = iota
	// Cooldown waits out the short window before continuing.
	Cooldown
	// Stop ends the run; the daily allowance is spent.
	Stop
)

func (d Decision) String() string {
	switch d {
	case Cooldown:
		return "cooldown"
	case Stop:
		return "stop"
	default:
		return "proceed"
	}
}

// DefaultCooldown matches the provider's short window.
const DefaultCooldown = 30 * time.Second

// Evaluate maps the remaining counters onto a decision. The long window wins
// over the short one.
func Evaluate(shortRemaining, longRemaining int) Decision {
	switch {
	case longRemaining <= 0:
		return Stop
	case shortRemaining <= 0:
		return Cooldown
	default:
		return Proceed
	}
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Sleep is the default Sleeper.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Tracker applies decisions, sleeping through cooldowns. Counters are never
// cached between calls.
type Tracker struct {
	cooldown time.Duration
	sleep    Sleeper
	logger   *slog.Logger

	searches  int
	cooldowns int
}

// Option customizes a Tracker.
type Option func(*Tracker)

// WithSleeper overrides how cooldown sleeps are performed (useful for tests).
func WithSleeper(s Sleeper) Option {
	return func(t *Tracker) {
		if s != nil {
			t.sleep = s
		}
	}
}

// WithLogger attaches a logger for cooldown and stop events.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Tracker) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// NewTracker builds a tracker. A non-positive cooldown falls back to
// DefaultCooldown.
func NewTracker(cooldown time.Duration, opts ...Option) *Tracker {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	t := &Tracker{
		cooldown: cooldown,
		sleep:    Sleep,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Observe records one search response and acts on its counters. It returns
// after any cooldown has elapsed. A cancelled context aborts the wait.
func (t *Tracker) Observe(ctx context.Context, shortRemaining, longRemaining int) (Decision, error) {
	t.searches++
	decision := Evaluate(shortRemaining, longRemaining)
	switch decision {
	case Stop:
		t.logger.Info("search quota exhausted",
			logging.String(logging.FieldEventType, "quota_stop"),
			logging.Int("long_remaining", longRemaining),
			logging.Int("searches", t.searches),
		)
	case Cooldown:
		t.cooldowns++
		t.logger.Info("search window spent, cooling down",
			logging.String(logging.FieldEventType, "quota_cooldown"),
			logging.Duration("cooldown", t.cooldown),
			logging.Int("long_remaining", longRemaining),
		)
		if err := t.sleep(ctx, t.cooldown); err != nil {
			return decision, err
		}
	}
	return decision, nil
}

// Searches returns how many responses were observed.
func (t *Tracker) Searches() int { return t.searches }

// Cooldowns returns how many cooldowns were applied.
func (t *Tracker) Cooldowns() int { return t.cooldowns }
