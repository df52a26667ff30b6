package api

import (
	"testing"
	"time"
)

func TestRateLimiterAllow(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	defer rl.Stop()

	if !rl.Allow("a") || !rl.Allow("a") {
		t.Fatal("First two requests should be allowed")
	}
	if rl.Allow("a") {
		t.Error("Third request within the window should be denied")
	}
	if !rl.Allow("b") {
		t.Error("A different key should not be throttled")
	}
}

func TestRateLimiterWindowExpiry(t *testing.T) {
	rl := NewRateLimiter(1, 20*time.Millisecond)
	defer rl.Stop()

	if !rl.Allow("a") {
		t.Fatal("First request should be allowed")
	}
	if rl.Allow("a") {
		t.Fatal("Second immediate request should be denied")
	}

	time.Sleep(30 * time.Millisecond)
	if !rl.Allow("a") {
		t.Error("Request after the window should be allowed again")
	}
}
