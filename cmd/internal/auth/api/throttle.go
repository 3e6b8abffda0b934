package authapi

import (
	"net/http"
	"strconv"
	"sync"
	"time"
)

// loginThrottle is a per-IP sliding-window limiter for login attempts.
// State is in-process: good enough for a single instance, and it fails open
// rather than adding a store dependency to the hot path.
type loginThrottle struct {
	mu        sync.Mutex
	byIP      map[string][]time.Time
	limit     int
	window    time.Duration
	lastSweep time.Time
}

func newLoginThrottle(limit int, window time.Duration) *loginThrottle {
	return &loginThrottle{
		byIP:   make(map[string][]time.Time),
		limit:  limit,
		window: window,
	}
}

// allow reports whether a login attempt from ip at time "now" should proceed.
func (t *loginThrottle) allow(ip string, now time.Time) bool {
	if t == nil || t.limit <= 0 || ip == "" {
		return true
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	cut := now.Add(-t.window)
	t.sweepLocked(cut, now)

	dst := t.byIP[ip][:0]
	for _, ts := range t.byIP[ip] {
		if ts.After(cut) {
			dst = append(dst, ts)
		}
	}

	if len(dst) >= t.limit {
		t.byIP[ip] = dst
		return false
	}
	t.byIP[ip] = append(dst, now)
	return true
}

// sweepLocked drops IPs whose attempts all fell out of the window, at most
// once per window, so the map does not grow with every client ever seen.
func (t *loginThrottle) sweepLocked(cut, now time.Time) {
	if now.Sub(t.lastSweep) < t.window {
		return
	}
	t.lastSweep = now

	for ip, stamps := range t.byIP {
		if len(stamps) == 0 || !stamps[len(stamps)-1].After(cut) {
			delete(t.byIP, ip)
		}
	}
}

func writeRateLimited(w http.ResponseWriter, retryAfter time.Duration) {
	if retryAfter > 0 {
		w.Header().Set("Retry-After", strconv.FormatInt(int64(retryAfter.Seconds()), 10))
	}
	writeError(w, http.StatusTooManyRequests, "rate_limited", "too many attempts")
}
