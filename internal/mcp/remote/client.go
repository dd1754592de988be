package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"
	"sort"
	"sync"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/matiasleandrokruk/mfgops/internal/mcp"
)

// ServerName is how the remote backend identifies itself in listings.
const ServerName = "remote"

var (
	// ErrConnection marks dial/timeout failures. Callers may retry.
	ErrConnection = errors.New("connection failed")

	// ErrServer marks failures reported by a reachable server (protocol
	// errors, HTTP error statuses). Not retried.
	ErrServer = errors.New("server error")
)

// DiscoveredTool is one tool advertised by the remote server, captured at
// discovery time together with its input schema.
type DiscoveredTool struct {
	Name         string
	Description  string
	Schema       mcp.Schema
	DiscoveredAt time.Time
}

// ContentItem is one element of a remote tool result, flattened from the
// MCP content union into a single tagged struct.
type ContentItem struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	Data     []byte `json:"data,omitempty"`
	MIMEType string `json:"mime_type,omitempty"`
	URI      string `json:"uri,omitempty"`
}

// Client talks to one remote MCP server. The discovered tool set is the only
// mutable state; it is replaced atomically on successful discovery and kept
// as-is when a refresh fails, so callers always see the last known good set.
type Client struct {
	cfg  Config
	impl *sdk.Implementation

	mu    sync.RWMutex
	tools []DiscoveredTool
}

// NewClient builds a remote client. No connection is attempted until
// Discover or CallTool is invoked.
func NewClient(cfg Config) *Client {
	return &Client{
		cfg:  cfg.withDefaults(),
		impl: &sdk.Implementation{Name: "mfgops", Version: "1.0"},
	}
}

// connect opens a fresh streamable-HTTP session. The caller owns the session
// and must Close it.
func (c *Client) connect(ctx context.Context) (*sdk.ClientSession, error) {
	transport := &sdk.StreamableClientTransport{
		Endpoint:   c.cfg.Endpoint,
		HTTPClient: c.cfg.httpClient(),
	}
	session, err := sdk.NewClient(c.impl, nil).Connect(ctx, transport, nil)
	if err != nil {
		return nil, classify(err)
	}
	return session, nil
}

// Discover lists the remote server's tools and replaces the cached set.
// On failure the previous set is retained and the error returned.
func (c *Client) Discover(ctx context.Context) ([]DiscoveredTool, error) {
	session, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer session.Close()

	listed, err := session.ListTools(ctx, nil)
	if err != nil {
		return nil, classify(err)
	}

	now := time.Now()
	tools := make([]DiscoveredTool, 0, len(listed.Tools))
	for _, t := range listed.Tools {
		schema, err := convertSchema(t.InputSchema)
		if err != nil {
			return nil, fmt.Errorf("%w: tool %q schema: %v", ErrServer, t.Name, err)
		}
		tools = append(tools, DiscoveredTool{
			Name:         t.Name,
			Description:  t.Description,
			Schema:       schema,
			DiscoveredAt: now,
		})
	}

	c.mu.Lock()
	c.tools = tools
	c.mu.Unlock()
	return tools, nil
}

// Tools returns the currently cached tool set (possibly empty if no discovery
// has succeeded yet).
func (c *Client) Tools() []DiscoveredTool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]DiscoveredTool, len(c.tools))
	copy(out, c.tools)
	return out
}

// Connected reports whether at least one discovery has succeeded.
func (c *Client) Connected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tools != nil
}

func (c *Client) lookup(name string) (DiscoveredTool, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, t := range c.tools {
		if t.Name == name {
			return t, true
		}
	}
	return DiscoveredTool{}, false
}

// Name implements mcp.Backend.
func (c *Client) Name() string { return ServerName }

// Info implements mcp.Backend.
func (c *Client) Info() mcp.ServerInfo {
	tools := c.Tools()
	names := make([]string, 0, len(tools))
	for _, t := range tools {
		names = append(names, t.Name)
	}
	sort.Strings(names)
	return mcp.ServerInfo{
		Name:            ServerName,
		Description:     fmt.Sprintf("remote MCP server at %s", c.cfg.Endpoint),
		Tools:           names,
		ProtocolVersion: mcp.ProtocolVersion,
	}
}

// ListTools implements mcp.Backend using the cached discovery snapshot.
func (c *Client) ListTools() []mcp.Definition {
	tools := c.Tools()
	defs := make([]mcp.Definition, 0, len(tools))
	for _, t := range tools {
		defs = append(defs, mcp.Definition{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: t.Schema,
		})
	}
	return defs
}

// CallTool invokes a remote tool over a fresh connection. The tool must be
// present in the cached discovery set: unknown names fail locally before any
// network traffic. Connection and server failures are returned as errors;
// tool-level failures reported by the server come back as a failed Result.
func (c *Client) CallTool(ctx context.Context, name string, args map[string]any) (*mcp.Result, error) {
	if _, ok := c.lookup(name); !ok {
		return nil, fmt.Errorf("%w: %q on remote server", mcp.ErrToolNotFound, name)
	}

	session, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer session.Close()

	res, err := session.CallTool(ctx, &sdk.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		return nil, classify(err)
	}

	items := make([]ContentItem, 0, len(res.Content))
	for _, content := range res.Content {
		items = append(items, convertContent(content))
	}
	if res.IsError {
		msg := "remote tool reported an error"
		if len(items) > 0 && items[0].Text != "" {
			msg = items[0].Text
		}
		return &mcp.Result{Success: false, Error: msg, ErrorKind: mcp.ErrorKindServer}, nil
	}
	return &mcp.Result{Success: true, Data: items}, nil
}

// convertContent flattens the SDK content union into a ContentItem.
func convertContent(content sdk.Content) ContentItem {
	switch c := content.(type) {
	case *sdk.TextContent:
		return ContentItem{Type: "text", Text: c.Text}
	case *sdk.ImageContent:
		return ContentItem{Type: "image", Data: c.Data, MIMEType: c.MIMEType}
	case *sdk.AudioContent:
		return ContentItem{Type: "audio", Data: c.Data, MIMEType: c.MIMEType}
	case *sdk.EmbeddedResource:
		item := ContentItem{Type: "resource"}
		if c.Resource != nil {
			item.URI = c.Resource.URI
			item.MIMEType = c.Resource.MIMEType
			item.Text = c.Resource.Text
			item.Data = c.Resource.Blob
		}
		return item
	default:
		// Unknown content kinds degrade to their JSON form rather than being
		// dropped.
		raw, err := json.Marshal(content)
		if err != nil {
			return ContentItem{Type: "unknown"}
		}
		return ContentItem{Type: "unknown", Text: string(raw)}
	}
}

// convertSchema maps the SDK's JSON-schema type into the local Schema subset
// via a JSON round trip. A nil input yields an empty object schema.
func convertSchema(in any) (mcp.Schema, error) {
	if in == nil {
		return mcp.ObjectSchema(), nil
	}
	raw, err := json.Marshal(in)
	if err != nil {
		return mcp.Schema{}, err
	}
	var out mcp.Schema
	if err := json.Unmarshal(raw, &out); err != nil {
		return mcp.Schema{}, err
	}
	if out.Type == "" {
		out.Type = "object"
	}
	return out, nil
}

// classify splits transport failures from server failures. Timeouts and
// anything carrying a net-level error are connection failures; the rest are
// attributed to the server.
func classify(err error) error {
	if errors.Is(err, ErrConnection) || errors.Is(err, ErrServer) {
		return err
	}
	var netErr net.Error
	var urlErr *url.Error
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.As(err, &netErr) ||
		errors.As(err, &urlErr) {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}
	return fmt.Errorf("%w: %v", ErrServer, err)
}
