package server

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ConnLimiter limits new connections per IP with a token bucket each.
type ConnLimiter struct {
	mu       sync.Mutex
	limiters map[string]*ipLimiter
	limit    rate.Limit
	burst    int
	now      func() time.Time
}

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewConnLimiter allows maxPerMinute connections per IP, all of which may arrive at once.
func NewConnLimiter(maxPerMinute int) *ConnLimiter {
	if maxPerMinute < 1 {
		maxPerMinute = 1
	}
	return &ConnLimiter{
		limiters: make(map[string]*ipLimiter),
		limit:    rate.Every(time.Minute / time.Duration(maxPerMinute)),
		burst:    maxPerMinute,
		now:      time.Now,
	}
}

// Allow takes one token for ip.
func (cl *ConnLimiter) Allow(ip string) bool {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	now := cl.now()
	l, ok := cl.limiters[ip]
	if !ok {
		l = &ipLimiter{limiter: rate.NewLimiter(cl.limit, cl.burst)}
		cl.limiters[ip] = l
	}
	l.lastSeen = now
	return l.limiter.AllowN(now, 1)
}

// Prune forgets IPs idle for longer than idle.
func (cl *ConnLimiter) Prune(idle time.Duration) int {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	removed := 0
	cutoff := cl.now().Add(-idle)
	for ip, l := range cl.limiters {
		if l.lastSeen.Before(cutoff) {
			delete(cl.limiters, ip)
			removed++
		}
	}
	return removed
}

// --- origin check ---

// OriginChecker validates the Origin header of upgrade requests.
type OriginChecker struct {
	allowedOrigins map[string]bool
	allowAll       bool
}

// NewOriginChecker accepts the listed origins; "*" accepts any.
func NewOriginChecker(origins []string) *OriginChecker {
	oc := &OriginChecker{allowedOrigins: make(map[string]bool)}
	for _, origin := range origins {
		if origin == "*" {
			oc.allowAll = true
			return oc
		}
		oc.allowedOrigins[strings.ToLower(origin)] = true
	}
	return oc
}

// Check reports whether r may connect.
func (oc *OriginChecker) Check(r *http.Request) bool {
	if oc.allowAll {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		// same-origin page or a non-browser client
		return true
	}
	return oc.allowedOrigins[strings.ToLower(origin)]
}

// --- ip filter ---

// IPFilter blocks listed addresses.
type IPFilter struct {
	mu        sync.RWMutex
	blacklist map[string]bool
}

// NewIPFilter creates a filter blocking ips.
func NewIPFilter(ips []string) *IPFilter {
	f := &IPFilter{blacklist: make(map[string]bool)}
	for _, ip := range ips {
		f.blacklist[strings.TrimSpace(ip)] = true
	}
	return f
}

// Block adds ip to the blacklist.
func (f *IPFilter) Block(ip string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blacklist[ip] = true
}

// Unblock removes ip from the blacklist.
func (f *IPFilter) Unblock(ip string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.blacklist, ip)
}

// IsAllowed reports whether ip may connect.
func (f *IPFilter) IsAllowed(ip string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return !f.blacklist[ip]
}

// GetClientIP returns the caller address, preferring proxy headers.
func GetClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		// first hop is the original client
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// --- per-connection message limit ---

// maxRateWarnings is how many throttled frames a connection may send before it is dropped.
const maxRateWarnings = 5

// messageLimiter throttles frames from one connection.
type messageLimiter struct {
	limiter  *rate.Limiter
	warnings int
}

func newMessageLimiter(perSecond float64, burst int) *messageLimiter {
	if burst < 1 {
		burst = 1
	}
	return &messageLimiter{limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

// allow reports whether the next frame may be handled and whether the
// connection exhausted its warnings. Only the read pump calls it.
func (m *messageLimiter) allow(now time.Time) (allowed, drop bool) {
	if m.limiter.AllowN(now, 1) {
		return true, false
	}
	m.warnings++
	return false, m.warnings > maxRateWarnings
}
