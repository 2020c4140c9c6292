// Package rate paces outbound provider calls so we stay inside Gmail and
// classifier rate limits.
package rate

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Limiter gates an outbound API call.
type Limiter interface {
	Wait(ctx context.Context) error
}

// None is a pass-through limiter for tests and unthrottled runs.
type None struct{}

func (None) Wait(context.Context) error { return nil }

type pacer struct {
	interval time.Duration

	mu   sync.Mutex
	next time.Time
}

// PerSecond returns a limiter that admits rps calls per second, spacing
// them evenly. Callers from multiple goroutines share one schedule.
func PerSecond(rps int) Limiter {
	if rps <= 0 {
		return None{}
	}
	return &pacer{interval: time.Second / time.Duration(rps)}
}

func (p *pacer) Wait(ctx context.Context) error {
	p.mu.Lock()
	now := time.Now()
	if p.next.Before(now) {
		p.next = now
	}
	wait := p.next.Sub(now)
	p.next = p.next.Add(p.interval)
	p.mu.Unlock()

	if wait <= 0 {
		return nil
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("rate wait canceled: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}
