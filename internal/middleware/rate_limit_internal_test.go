package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLimiter_WindowResets(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	l := newLimiter(2, time.Minute)
	l.now = func() time.Time { return now }

	_, _, ok := l.allow("a")
	assert.True(t, ok)
	remaining, _, ok := l.allow("a")
	assert.True(t, ok)
	assert.Equal(t, 0, remaining)
	_, _, ok = l.allow("a")
	assert.False(t, ok)

	now = now.Add(61 * time.Second)
	remaining, _, ok = l.allow("a")
	assert.True(t, ok)
	assert.Equal(t, 1, remaining)
}

func TestLimiter_SweepDropsExpired(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	l := newLimiter(5, time.Minute)
	l.now = func() time.Time { return now }

	for _, ip := range []string{"a", "b", "c"} {
		l.allow(ip)
	}
	assert.Len(t, l.clients, 3)

	now = now.Add(2 * time.Minute)
	l.allow("d")
	assert.Len(t, l.clients, 1)
	assert.Contains(t, l.clients, "d")
}
