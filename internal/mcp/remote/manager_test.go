package remote

import (
	"context"
	"errors"
	"testing"
	"time"
)

// fakeManager builds a Manager whose discovery and clock are controlled by
// the test. calls counts discoveries; connected mirrors a populated cache.
func fakeManager(ttl time.Duration, calls *int, fail *bool, clock *time.Time) *Manager {
	m := NewManager(NewClient(Config{Endpoint: "http://127.0.0.1:1/mcp"}), ttl)
	m.now = func() time.Time { return *clock }
	m.discover = func(context.Context) ([]DiscoveredTool, error) {
		if *fail {
			return nil, errors.New("discovery down")
		}
		*calls++
		return []DiscoveredTool{{Name: "echo"}}, nil
	}
	m.connected = func() bool { return *calls > 0 }
	return m
}

func TestManagerDiscoversOnceWithinTTL(t *testing.T) {
	t.Parallel()

	var calls int
	fail := false
	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m := fakeManager(5*time.Minute, &calls, &fail, &clock)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := m.Client(ctx, false); err != nil {
			t.Fatalf("Client() #%d error = %v", i, err)
		}
	}
	if calls != 1 {
		t.Fatalf("discover called %d times within TTL, want 1", calls)
	}
}

func TestManagerRefreshesWhenStale(t *testing.T) {
	t.Parallel()

	var calls int
	fail := false
	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m := fakeManager(5*time.Minute, &calls, &fail, &clock)
	ctx := context.Background()

	if _, err := m.Client(ctx, false); err != nil {
		t.Fatalf("Client() error = %v", err)
	}
	clock = clock.Add(5 * time.Minute)
	if _, err := m.Client(ctx, false); err != nil {
		t.Fatalf("Client() after TTL error = %v", err)
	}
	if calls != 2 {
		t.Fatalf("discover called %d times across TTL boundary, want 2", calls)
	}
}

func TestManagerForcedRefresh(t *testing.T) {
	t.Parallel()

	var calls int
	fail := false
	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m := fakeManager(5*time.Minute, &calls, &fail, &clock)
	ctx := context.Background()

	if _, err := m.Client(ctx, false); err != nil {
		t.Fatalf("Client() error = %v", err)
	}
	if _, err := m.Client(ctx, true); err != nil {
		t.Fatalf("Client(refresh) error = %v", err)
	}
	if calls != 2 {
		t.Fatalf("discover called %d times with forced refresh, want 2", calls)
	}
}

func TestManagerDiscoveryFailurePropagates(t *testing.T) {
	t.Parallel()

	var calls int
	fail := true
	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m := fakeManager(5*time.Minute, &calls, &fail, &clock)
	ctx := context.Background()

	if _, err := m.Client(ctx, false); err == nil {
		t.Fatal("Client() succeeded with failing discovery, want error")
	}
	if !m.LastDiscovery().IsZero() {
		t.Error("LastDiscovery() set despite discovery failure")
	}

	// Recovery: once discovery works again the cache timestamp is recorded.
	fail = false
	if _, err := m.Client(ctx, false); err != nil {
		t.Fatalf("Client() after recovery error = %v", err)
	}
	if m.LastDiscovery().IsZero() {
		t.Error("LastDiscovery() still zero after successful discovery")
	}
}

func TestManagerRefreshToolsReturnsFreshSet(t *testing.T) {
	t.Parallel()

	var calls int
	fail := false
	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m := fakeManager(time.Minute, &calls, &fail, &clock)

	tools, err := m.RefreshTools(context.Background())
	if err != nil {
		t.Fatalf("RefreshTools() error = %v", err)
	}
	if len(tools) != 1 || tools[0].Name != "echo" {
		t.Fatalf("RefreshTools() = %+v, want one echo tool", tools)
	}
	if calls != 1 {
		t.Errorf("discover called %d times, want 1", calls)
	}
}
