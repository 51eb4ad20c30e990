package ratelimit

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLimiter_AllowWithinBudget(t *testing.T) {
	l := NewMemoryLimiter(Config{Enabled: true, Requests: 3, Window: time.Minute})
	defer l.(Stoppable).Stop()

	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow("client-a"), "request %d", i)
	}
	assert.False(t, l.Allow("client-a"))

	// Another key has its own bucket.
	assert.True(t, l.Allow("client-b"))
}

func TestMemoryLimiter_Refill(t *testing.T) {
	// 60 requests per minute refills one token per second.
	l := NewMemoryLimiter(Config{Enabled: true, Requests: 60, Window: time.Minute})
	defer l.(Stoppable).Stop()

	for i := 0; i < 60; i++ {
		require.True(t, l.Allow("k"))
	}
	require.False(t, l.Allow("k"))

	time.Sleep(1100 * time.Millisecond)
	assert.True(t, l.Allow("k"))
	assert.False(t, l.Allow("k"))
}

func TestMemoryLimiter_Reset(t *testing.T) {
	l := NewMemoryLimiter(Config{Enabled: true, Requests: 1, Window: time.Minute})
	defer l.(Stoppable).Stop()

	require.True(t, l.Allow("k"))
	require.False(t, l.Allow("k"))

	l.Reset("k")
	assert.True(t, l.Allow("k"))
}

func TestMemoryLimiter_Disabled(t *testing.T) {
	l := NewMemoryLimiter(Config{Enabled: false, Requests: 1, Window: time.Minute})
	defer l.(Stoppable).Stop()

	for i := 0; i < 10; i++ {
		assert.True(t, l.Allow("k"))
	}
}

func TestGetClientIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "192.0.2.7:1234"
	assert.Equal(t, "192.0.2.7", GetClientIP(r))

	r.Header.Set("X-Real-IP", "198.51.100.9")
	assert.Equal(t, "198.51.100.9", GetClientIP(r))

	r.Header.Set("X-Forwarded-For", "203.0.113.4, 10.0.0.1")
	assert.Equal(t, "203.0.113.4", GetClientIP(r))
}
