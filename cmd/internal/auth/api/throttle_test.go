package authapi

import (
	"testing"
	"time"
)

func TestLoginThrottleSlidingWindow(t *testing.T) {
	t.Parallel()

	th := newLoginThrottle(3, time.Minute)
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	for i := range 3 {
		if !th.allow("203.0.113.9", base.Add(time.Duration(i)*time.Second)) {
			t.Fatalf("attempt %d should be allowed", i+1)
		}
	}
	if th.allow("203.0.113.9", base.Add(3*time.Second)) {
		t.Fatalf("attempt over the limit should be rejected")
	}

	// Other IPs have independent budgets.
	if !th.allow("198.51.100.7", base.Add(3*time.Second)) {
		t.Fatalf("other IP should be allowed")
	}

	// Once the earliest attempts fall out of the window, capacity returns.
	if !th.allow("203.0.113.9", base.Add(time.Minute+2*time.Second)) {
		t.Fatalf("attempt after the window should be allowed")
	}
}

func TestLoginThrottleSweepsIdleIPs(t *testing.T) {
	t.Parallel()

	th := newLoginThrottle(3, time.Minute)
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	for _, ip := range []string{"203.0.113.1", "203.0.113.2", "203.0.113.3"} {
		if !th.allow(ip, base) {
			t.Fatalf("ip %s should be allowed", ip)
		}
	}

	// After a full window of silence the old IPs must be forgotten, not just
	// left behind as empty entries.
	if !th.allow("198.51.100.7", base.Add(2*time.Minute)) {
		t.Fatalf("fresh ip should be allowed")
	}

	th.mu.Lock()
	defer th.mu.Unlock()
	if len(th.byIP) != 1 {
		t.Fatalf("idle ips not swept, map holds %d entries", len(th.byIP))
	}
	if _, ok := th.byIP["198.51.100.7"]; !ok {
		t.Fatalf("fresh ip missing after sweep")
	}
}

func TestLoginThrottleFailsOpen(t *testing.T) {
	t.Parallel()

	now := time.Now()

	var nilThrottle *loginThrottle
	if !nilThrottle.allow("203.0.113.9", now) {
		t.Fatalf("nil throttle must allow")
	}
	if !newLoginThrottle(0, time.Minute).allow("203.0.113.9", now) {
		t.Fatalf("zero limit must allow")
	}
	if !newLoginThrottle(1, time.Minute).allow("", now) {
		t.Fatalf("unknown client IP must allow")
	}
}
