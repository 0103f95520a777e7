package ratelimit

import (
	"testing"
	"time"
)

func TestAllow(t *testing.T) {
	now := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	l := NewLimiter(2, time.Minute, clock)

	ok, resetAt := l.Allow("u1")
	if !ok {
		t.Fatal("first request denied")
	}
	if want := now.Add(time.Minute); !resetAt.Equal(want) {
		t.Errorf("resetAt = %v, want %v", resetAt, want)
	}
	if ok, _ = l.Allow("u1"); !ok {
		t.Fatal("second request denied")
	}
	if ok, _ = l.Allow("u1"); ok {
		t.Fatal("third request allowed past the limit")
	}

	// Other keys have their own window.
	if ok, _ = l.Allow("u2"); !ok {
		t.Fatal("fresh key denied")
	}
}

func TestAllowResetsAfterWindow(t *testing.T) {
	now := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	l := NewLimiter(1, time.Minute, func() time.Time { return clock() })

	if ok, _ := l.Allow("u1"); !ok {
		t.Fatal("first request denied")
	}
	if ok, _ := l.Allow("u1"); ok {
		t.Fatal("second request allowed within the window")
	}

	now = now.Add(time.Minute)
	if ok, _ := l.Allow("u1"); !ok {
		t.Fatal("request denied after the window reset")
	}
}

func TestCleanup(t *testing.T) {
	now := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	l := NewLimiter(5, time.Minute, func() time.Time { return clock() })

	l.Allow("a")
	l.Allow("b")
	if len(l.state) != 2 {
		t.Fatalf("tracked keys = %d, want 2", len(l.state))
	}

	l.Cleanup()
	if len(l.state) != 2 {
		t.Errorf("Cleanup() dropped live windows")
	}

	now = now.Add(2 * time.Minute)
	l.Cleanup()
	if len(l.state) != 0 {
		t.Errorf("tracked keys after expiry = %d, want 0", len(l.state))
	}
}
