package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter decides whether a client may make another subscribe attempt.
// Reset clears all limiter state (dev escape hatch).
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	Reset(ctx context.Context) error
}

type entry struct {
	count   int
	resetAt time.Time
}

// FixedWindow is an in-process fixed-window counter keyed by client id.
// A client can spend its full quota just before a window boundary and
// again just after it; that burst characteristic is intentional.
type FixedWindow struct {
	mu      sync.Mutex
	entries map[string]*entry

	maxAttempts int
	window      time.Duration

	now func() time.Time
}

func NewFixedWindow(maxAttempts int, window time.Duration) *FixedWindow {
	if maxAttempts <= 0 {
		maxAttempts = 10
	}
	if window <= 0 {
		window = time.Hour
	}
	return &FixedWindow{
		entries:     make(map[string]*entry),
		maxAttempts: maxAttempts,
		window:      window,
		now:         time.Now,
	}
}

var _ Limiter = (*FixedWindow)(nil)

func (l *FixedWindow) Allow(_ context.Context, key string) (bool, error) {
	if key == "" {
		key = "unknown"
	}
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[key]
	if !ok || now.After(e.resetAt) {
		l.entries[key] = &entry{count: 1, resetAt: now.Add(l.window)}
		return true, nil
	}
	if e.count >= l.maxAttempts {
		// denied attempts do not consume quota
		return false, nil
	}
	e.count++
	return true, nil
}

func (l *FixedWindow) Reset(context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = make(map[string]*entry)
	return nil
}

// Sweep drops entries whose window has passed so the map cannot grow
// without bound. Invisible to any client still inside its own window.
func (l *FixedWindow) Sweep() {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()
	for key, e := range l.entries {
		if now.After(e.resetAt) {
			delete(l.entries, key)
		}
	}
}

// Run sweeps on interval until ctx is done.
func (l *FixedWindow) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	tick := time.NewTicker(interval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			l.Sweep()
		}
	}
}

func (l *FixedWindow) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
