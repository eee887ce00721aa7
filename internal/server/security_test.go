package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestConnLimiter_Allow(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{t: time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)}
	cl := NewConnLimiter(6) // one token every 10s, burst 6
	cl.now = clock.now

	for i := 0; i < 6; i++ {
		assert.True(t, cl.Allow("10.0.0.1"), "connection %d", i)
	}
	assert.False(t, cl.Allow("10.0.0.1"))
	assert.True(t, cl.Allow("10.0.0.2"), "other IPs have their own bucket")

	clock.advance(10 * time.Second)
	assert.True(t, cl.Allow("10.0.0.1"))
	assert.False(t, cl.Allow("10.0.0.1"))
}

func TestConnLimiter_Prune(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{t: time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)}
	cl := NewConnLimiter(60)
	cl.now = clock.now

	cl.Allow("10.0.0.1")
	clock.advance(5 * time.Minute)
	cl.Allow("10.0.0.2")
	clock.advance(6 * time.Minute)

	assert.Equal(t, 1, cl.Prune(10*time.Minute))
	assert.Len(t, cl.limiters, 1)
	assert.Contains(t, cl.limiters, "10.0.0.2")
}

func TestOriginChecker(t *testing.T) {
	t.Parallel()

	withOrigin := func(origin string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/ws", nil)
		if origin != "" {
			r.Header.Set("Origin", origin)
		}
		return r
	}

	oc := NewOriginChecker([]string{"https://Example.com"})
	assert.True(t, oc.Check(withOrigin("https://example.com")))
	assert.False(t, oc.Check(withOrigin("https://evil.com")))
	assert.True(t, oc.Check(withOrigin("")), "non-browser clients send no origin")

	all := NewOriginChecker([]string{"*"})
	assert.True(t, all.Check(withOrigin("https://evil.com")))
}

func TestIPFilter(t *testing.T) {
	t.Parallel()

	f := NewIPFilter([]string{"1.2.3.4"})
	assert.False(t, f.IsAllowed("1.2.3.4"))
	assert.True(t, f.IsAllowed("5.6.7.8"))

	f.Block("5.6.7.8")
	assert.False(t, f.IsAllowed("5.6.7.8"))
	f.Unblock("1.2.3.4")
	assert.True(t, f.IsAllowed("1.2.3.4"))
}

func TestGetClientIP(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest(http.MethodGet, "/ws", nil)
	r.RemoteAddr = "192.168.1.9:5555"
	assert.Equal(t, "192.168.1.9", GetClientIP(r))

	r.Header.Set("X-Real-IP", "10.1.1.1")
	assert.Equal(t, "10.1.1.1", GetClientIP(r))

	r.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	assert.Equal(t, "203.0.113.7", GetClientIP(r))
}

func TestMessageLimiter(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
	ml := newMessageLimiter(1, 2)

	for i := 0; i < 2; i++ {
		allowed, drop := ml.allow(now)
		assert.True(t, allowed)
		assert.False(t, drop)
	}

	for i := 1; i <= maxRateWarnings; i++ {
		allowed, drop := ml.allow(now)
		assert.False(t, allowed)
		assert.False(t, drop, "warning %d", i)
	}
	_, drop := ml.allow(now)
	assert.True(t, drop)

	allowed, _ := ml.allow(now.Add(time.Second))
	assert.True(t, allowed, "the bucket refills")
}
