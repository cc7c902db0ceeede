package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func allow(t *testing.T, l Limiter, key string) bool {
	t.Helper()
	ok, err := l.Allow(context.Background(), key)
	require.NoError(t, err)
	return ok
}

func TestFixedWindowQuota(t *testing.T) {
	l := NewFixedWindow(10, time.Hour)

	for i := 0; i < 10; i++ {
		require.True(t, allow(t, l, "ip1"), "attempt %d should pass", i+1)
	}
	require.False(t, allow(t, l, "ip1"), "11th attempt should be denied")

	// other clients are unaffected
	require.True(t, allow(t, l, "ip2"))
}

func TestFixedWindowExpiry(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	l := NewFixedWindow(10, time.Hour)
	l.now = func() time.Time { return now }

	for i := 0; i < 10; i++ {
		require.True(t, allow(t, l, "ip1"))
	}
	require.False(t, allow(t, l, "ip1"))

	// still inside the window
	now = now.Add(59 * time.Minute)
	require.False(t, allow(t, l, "ip1"))

	// window passed, full quota again
	now = now.Add(2 * time.Minute)
	for i := 0; i < 10; i++ {
		require.True(t, allow(t, l, "ip1"), "attempt %d after expiry should pass", i+1)
	}
	require.False(t, allow(t, l, "ip1"))
}

func TestFixedWindowReset(t *testing.T) {
	l := NewFixedWindow(2, time.Hour)

	require.True(t, allow(t, l, "ip1"))
	require.True(t, allow(t, l, "ip1"))
	require.False(t, allow(t, l, "ip1"))

	require.NoError(t, l.Reset(context.Background()))
	require.True(t, allow(t, l, "ip1"))
}

func TestFixedWindowEmptyKey(t *testing.T) {
	l := NewFixedWindow(2, time.Hour)

	// empty keys share the "unknown" bucket
	require.True(t, allow(t, l, ""))
	require.True(t, allow(t, l, "unknown"))
	require.False(t, allow(t, l, ""))
}

func TestFixedWindowSweep(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	l := NewFixedWindow(10, time.Hour)
	l.now = func() time.Time { return now }

	require.True(t, allow(t, l, "ip1"))
	require.True(t, allow(t, l, "ip2"))
	require.Equal(t, 2, l.size())

	// nothing expired yet
	l.Sweep()
	require.Equal(t, 2, l.size())

	now = now.Add(time.Hour + time.Minute)
	require.True(t, allow(t, l, "ip3"))
	l.Sweep()
	require.Equal(t, 1, l.size(), "expired entries should be dropped, fresh one kept")
}

func TestFixedWindowDefaults(t *testing.T) {
	l := NewFixedWindow(0, 0)
	require.Equal(t, 10, l.maxAttempts)
	require.Equal(t, time.Hour, l.window)
}
