package mcp

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

// Registry owns the tool set of one logical backend. Tools are registered at
// construction time and never removed; List() preserves registration order.
// A Registry is not safe for concurrent registration, but concurrent Invoke
// is fine once construction has finished.
type Registry struct {
	name        string
	description string
	tools       map[string]*Tool
	order       []string
}

// NewRegistry creates an empty registry for a backend.
func NewRegistry(name, description string) *Registry {
	return &Registry{
		name:        name,
		description: description,
		tools:       make(map[string]*Tool),
	}
}

// Register inserts a tool. Re-registering an existing name overwrites the
// previous tool in place (last registration wins) without disturbing order.
func (r *Registry) Register(name, description string, schema Schema, handler Handler) {
	if _, exists := r.tools[name]; !exists {
		r.order = append(r.order, name)
	}
	r.tools[name] = &Tool{
		Name:        name,
		Description: description,
		Schema:      schema,
		Handler:     handler,
	}
}

// Name returns the backend identifier.
func (r *Registry) Name() string { return r.name }

// ListTools returns all tool definitions in registration order.
func (r *Registry) ListTools() []Definition {
	out := make([]Definition, 0, len(r.order))
	for _, name := range r.order {
		t := r.tools[name]
		out = append(out, Definition{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: t.Schema,
		})
	}
	return out
}

// Invoke looks up and executes a tool. Unknown names return an error wrapping
// ErrToolNotFound that enumerates the registered names. Handler failures and
// panics are converted into a failed Result so a malformed call can never
// crash the registry.
func (r *Registry) Invoke(ctx context.Context, name string, args map[string]any) (res *Result, err error) {
	tool, ok := r.tools[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %v)", ErrToolNotFound, name, r.order)
	}

	defer func() {
		if rec := recover(); rec != nil {
			res = &Result{
				Success:   false,
				Error:     fmt.Sprintf("tool %s panicked: %v", name, rec),
				ErrorKind: ErrorKindInternal,
			}
			err = nil
		}
	}()

	if args == nil {
		args = map[string]any{}
	}

	data, handlerErr := tool.Handler(ctx, args)
	if handlerErr != nil {
		return &Result{
			Success:   false,
			Error:     handlerErr.Error(),
			ErrorKind: classifyHandlerErr(handlerErr),
		}, nil
	}
	return &Result{Success: true, Data: data}, nil
}

// CallTool makes Registry satisfy the Backend interface.
func (r *Registry) CallTool(ctx context.Context, name string, args map[string]any) (*Result, error) {
	return r.Invoke(ctx, name, args)
}

// Info returns backend metadata with the tool name list in registration order.
func (r *Registry) Info() ServerInfo {
	tools := make([]string, len(r.order))
	copy(tools, r.order)
	return ServerInfo{
		Name:            r.name,
		Description:     r.description,
		Tools:           tools,
		ProtocolVersion: ProtocolVersion,
	}
}

// classifyHandlerErr maps a handler error to a Result error kind.
func classifyHandlerErr(err error) string {
	if errors.Is(err, ErrValidation) {
		return ErrorKindValidation
	}
	return ErrorKindInternal
}

// SortedToolNames returns the tool names of a backend sorted lexicographically.
// Used by handlers and prompts that need a stable rendering independent of
// registration order.
func SortedToolNames(b Backend) []string {
	defs := b.ListTools()
	names := make([]string, len(defs))
	for i, d := range defs {
		names[i] = d.Name
	}
	sort.Strings(names)
	return names
}
