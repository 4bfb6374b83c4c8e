package api

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func testStatus() Status {
	return Status{Map: "arena_test", ServerState: "game", ServerTime: 1500}
}

func TestStatusEndpoint(t *testing.T) {
	r := NewRouter(RouterConfig{StatusFunc: testStatus})

	req := httptest.NewRequest("GET", "/api/status", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != 200 {
		t.Fatalf("status = %d", w.Code)
	}
	var got Status
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	if got.Map != "arena_test" || got.ServerTime != 1500 {
		t.Fatalf("payload = %+v", got)
	}
}

func TestConsoleEndpoint(t *testing.T) {
	var lines []string
	r := NewRouter(RouterConfig{
		StatusFunc:  testStatus,
		ConsoleFunc: func(line string) { lines = append(lines, line) },
	})

	req := httptest.NewRequest("POST", "/api/console", strings.NewReader(`{"command":"map q3dm17"}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != 202 {
		t.Fatalf("status = %d", w.Code)
	}
	if len(lines) != 1 || lines[0] != "map q3dm17" {
		t.Fatalf("lines = %v", lines)
	}

	req = httptest.NewRequest("POST", "/api/console", strings.NewReader(`{}`))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != 400 {
		t.Fatalf("empty command accepted: %d", w.Code)
	}
}

func TestRateLimiterRejects(t *testing.T) {
	rl := NewIPRateLimiter(RateLimitConfig{
		RequestsPerSecond: 1,
		Burst:             2,
		CleanupInterval:   time.Minute,
	})
	defer rl.Stop()

	if !rl.Allow("10.0.0.1") || !rl.Allow("10.0.0.1") {
		t.Fatal("burst rejected")
	}
	if rl.Allow("10.0.0.1") {
		t.Fatal("over-burst allowed")
	}
	// other IPs have their own bucket
	if !rl.Allow("10.0.0.2") {
		t.Fatal("unrelated ip throttled")
	}

	stats := rl.GetStats()
	if stats["rejected"] != 1 {
		t.Fatalf("stats = %v", stats)
	}
}

func TestViewEndpointWithoutWorld(t *testing.T) {
	r := NewRouter(RouterConfig{
		StatusFunc: testStatus,
		ViewFunc:   func() []byte { return nil },
	})
	req := httptest.NewRequest("GET", "/debug/view.png", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != 503 {
		t.Fatalf("status = %d, want 503 with no world", w.Code)
	}
}
