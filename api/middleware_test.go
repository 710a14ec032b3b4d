package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoginRateLimiter_PerClient(t *testing.T) {
	l := NewLoginRateLimiter(2)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("a"))
	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))
	assert.True(t, l.Allow("b"), "other clients have their own bucket")

	now = now.Add(30 * time.Second)
	assert.True(t, l.Allow("a"), "one token refills every 30s")
	assert.False(t, l.Allow("a"))
}

func TestLoginRateLimiter_EvictsIdleClients(t *testing.T) {
	l := NewLoginRateLimiter(1)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	l.Allow("a")
	now = now.Add(time.Minute)
	l.Allow("b")
	assert.Len(t, l.limiters, 2)

	now = now.Add(11 * time.Minute)
	l.Allow("c")
	assert.Len(t, l.limiters, 1)
	assert.Contains(t, l.limiters, "c")
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.1:5555"
	assert.Equal(t, "10.0.0.1", clientIP(r))

	r.RemoteAddr = "10.0.0.2"
	assert.Equal(t, "10.0.0.2", clientIP(r))
}
