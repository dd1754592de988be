// Package remote bridges to a real MCP tool server over streamable HTTP.
// Every discovery and every invocation opens a fresh transport connection and
// session; nothing is pooled or reused across calls. Failures are classified
// as connection-level (dial/timeout, retryable by the caller) or server-level
// (everything else). No retry is implemented in this layer.
package remote

import (
	"net"
	"net/http"
	"time"
)

// Defaults applied by NewClient when the corresponding field is zero.
const (
	DefaultConnectTimeout = 30 * time.Second
	// DefaultReadTimeout is deliberately large: streamed responses can hold
	// the connection open for minutes.
	DefaultReadTimeout = 5 * time.Minute
	// DefaultCacheTTL is the freshness window of the discovered tool set.
	DefaultCacheTTL = 5 * time.Minute
)

// Config holds the connection settings for one remote MCP server.
type Config struct {
	// Endpoint is the streamable-HTTP MCP URL, e.g. "http://localhost:45345/mcp".
	Endpoint string
	// BearerToken, when non-empty, is sent as "Authorization: Bearer <token>"
	// on every request. No other custom headers are attached.
	BearerToken string
	// ConnectTimeout bounds connection establishment.
	ConnectTimeout time.Duration
	// ReadTimeout bounds the full request/response exchange, including
	// long-lived streaming reads.
	ReadTimeout time.Duration
}

// withDefaults returns a copy with zero timeouts replaced by defaults.
func (c Config) withDefaults() Config {
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = DefaultConnectTimeout
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = DefaultReadTimeout
	}
	return c
}

// httpClient builds the HTTP client used by the streamable transport:
// dial bounded by ConnectTimeout, overall exchange bounded by ReadTimeout,
// bearer header injected when configured.
func (c Config) httpClient() *http.Client {
	base := &http.Transport{
		DialContext: (&net.Dialer{Timeout: c.ConnectTimeout}).DialContext,
	}
	var rt http.RoundTripper = base
	if c.BearerToken != "" {
		rt = &bearerRoundTripper{token: c.BearerToken, base: base}
	}
	return &http.Client{
		Transport: rt,
		Timeout:   c.ReadTimeout,
	}
}

// bearerRoundTripper injects the Authorization header on every request.
type bearerRoundTripper struct {
	token string
	base  http.RoundTripper
}

func (b *bearerRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	clone.Header.Set("Authorization", "Bearer "+b.token)
	return b.base.RoundTrip(clone)
}
