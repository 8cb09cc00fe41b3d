package service

import (
	"context"
	"log/slog"
	"time"
)

// effectsRunner executes secondary effects (reward rolls, leaderboard
// refresh, notifications) decoupled from the transaction that produced them.
// Effects are retried with a fixed interval; a completion that committed must
// eventually be reflected downstream even if delayed.
type effectsRunner struct {
	ch       chan effect
	retries  int
	interval time.Duration
}

type effect struct {
	name string
	fn   func(ctx context.Context) error
}

func newEffectsRunner(buffer, retries int, interval time.Duration) *effectsRunner {
	if buffer <= 0 {
		buffer = 256
	}
	if retries <= 0 {
		retries = 3
	}
	if interval <= 0 {
		interval = time.Second
	}

	return &effectsRunner{
		ch:       make(chan effect, buffer),
		retries:  retries,
		interval: interval,
	}
}

// Run drains the queue until ctx is cancelled.
func (r *effectsRunner) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case e := <-r.ch:
			r.attempt(ctx, e)
		}
	}
}

func (r *effectsRunner) attempt(ctx context.Context, e effect) {
	var err error
	for i := 0; i < r.retries; i++ {
		if err = e.fn(ctx); err == nil {
			return
		}
		if ctx.Err() != nil {
			return
		}

		slog.Warn("secondary effect failed", "effect", e.name, "attempt", i+1, "error", err)
		select {
		case <-ctx.Done():
			return
		case <-time.After(r.interval):
		}
	}

	slog.Error("secondary effect gave up", "effect", e.name, "retries", r.retries, "error", err)
}

// Enqueue never blocks the caller. On overflow the effect is dropped with a
// log line; aggregates self-heal on the next refresh.
func (r *effectsRunner) Enqueue(name string, fn func(ctx context.Context) error) {
	select {
	case r.ch <- effect{name: name, fn: fn}:
	default:
		slog.Error("effects queue full, dropping", "effect", name)
	}
}

func (s *PhrasesService) notifyAsync(playerID, event string, payload any) {
	s.effects.Enqueue("notify:"+event, func(ctx context.Context) error {
		return s.notifier.Notify(ctx, playerID, event, payload)
	})
}
