package mcp

import (
	"context"
	"errors"
	"fmt"
)

// ErrServerNotFound is returned when a server name is not part of the
// aggregated set.
var ErrServerNotFound = errors.New("server not found")

// Client aggregates several backends behind one surface: tools can be listed
// per server, selected by name across servers, and invoked without the caller
// knowing which backend owns them. Backend order is the construction order.
type Client struct {
	order    []string
	backends map[string]Backend
}

// NewClient aggregates the given backends. Later backends with a duplicate
// name replace earlier ones.
func NewClient(backends ...Backend) *Client {
	c := &Client{backends: make(map[string]Backend, len(backends))}
	for _, b := range backends {
		if _, exists := c.backends[b.Name()]; !exists {
			c.order = append(c.order, b.Name())
		}
		c.backends[b.Name()] = b
	}
	return c
}

// ServerNames returns the aggregated server names in construction order.
func (c *Client) ServerNames() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Backend returns the named backend.
func (c *Client) Backend(name string) (Backend, bool) {
	b, ok := c.backends[name]
	return b, ok
}

// ServerInfo returns metadata for one server.
func (c *Client) ServerInfo(name string) (ServerInfo, error) {
	b, ok := c.backends[name]
	if !ok {
		return ServerInfo{}, fmt.Errorf("%w: %q (available: %v)", ErrServerNotFound, name, c.order)
	}
	return b.Info(), nil
}

// AllTools returns every tool of every server, grouped in server order.
func (c *Client) AllTools() []Definition {
	var out []Definition
	for _, name := range c.order {
		out = append(out, c.backends[name].ListTools()...)
	}
	return out
}

// ToolsForServer returns the tool definitions of one server.
func (c *Client) ToolsForServer(name string) ([]Definition, error) {
	b, ok := c.backends[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %v)", ErrServerNotFound, name, c.order)
	}
	return b.ListTools(), nil
}

// ToolsByNames selects tools by exact name across all servers, preserving the
// order of the requested names. Unknown names are skipped silently.
func (c *Client) ToolsByNames(names []string) []Definition {
	index := make(map[string]Definition)
	for _, def := range c.AllTools() {
		if _, seen := index[def.Name]; !seen {
			index[def.Name] = def
		}
	}
	out := make([]Definition, 0, len(names))
	for _, name := range names {
		if def, ok := index[name]; ok {
			out = append(out, def)
		}
	}
	return out
}

// Owner returns the backend that lists the named tool, searching servers in
// construction order.
func (c *Client) Owner(tool string) (Backend, bool) {
	for _, name := range c.order {
		b := c.backends[name]
		for _, def := range b.ListTools() {
			if def.Name == tool {
				return b, true
			}
		}
	}
	return nil, false
}

// CallTool routes an invocation to whichever server owns the tool.
func (c *Client) CallTool(ctx context.Context, tool string, args map[string]any) (*Result, error) {
	b, ok := c.Owner(tool)
	if !ok {
		return nil, fmt.Errorf("%w: %q on any server (servers: %v)", ErrToolNotFound, tool, c.order)
	}
	return b.CallTool(ctx, tool, args)
}
