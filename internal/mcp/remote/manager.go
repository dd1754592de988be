package remote

import (
	"context"
	"sync"
	"time"
)

// Manager caches a Client's discovered tool set for a TTL and refreshes it
// lazily on access. Concurrent accessors serialize on one mutex, so an
// expired cache triggers exactly one discovery; the rest observe the
// refreshed result.
type Manager struct {
	client *Client
	ttl    time.Duration

	// Overridable in tests.
	now       func() time.Time
	discover  func(ctx context.Context) ([]DiscoveredTool, error)
	connected func() bool

	mu            sync.Mutex
	lastDiscovery time.Time
}

// NewManager wraps a client with TTL-based discovery caching. A zero ttl
// uses DefaultCacheTTL.
func NewManager(client *Client, ttl time.Duration) *Manager {
	if ttl == 0 {
		ttl = DefaultCacheTTL
	}
	return &Manager{
		client:    client,
		ttl:       ttl,
		now:       time.Now,
		discover:  client.Discover,
		connected: client.Connected,
	}
}

// Client returns the managed client, discovering first when the cached tool
// set is stale, missing, or a refresh is forced. On discovery failure the
// error is returned and the client keeps its previous tool set.
func (m *Manager) Client(ctx context.Context, refresh bool) (*Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stale := m.lastDiscovery.IsZero() || m.now().Sub(m.lastDiscovery) >= m.ttl
	if !refresh && !stale && m.connected() {
		return m.client, nil
	}
	if _, err := m.discover(ctx); err != nil {
		return nil, err
	}
	m.lastDiscovery = m.now()
	return m.client, nil
}

// RefreshTools forces a discovery and returns the fresh tool set.
func (m *Manager) RefreshTools(ctx context.Context) ([]DiscoveredTool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tools, err := m.discover(ctx)
	if err != nil {
		return nil, err
	}
	m.lastDiscovery = m.now()
	return tools, nil
}

// LastDiscovery reports when the cached tool set was last refreshed
// (zero time if never).
func (m *Manager) LastDiscovery() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastDiscovery
}
