// Package bridge turns backend tools into plain callables for the agent
// layer: every invocation returns a string and never propagates a panic or an
// error, so a tool call can be dropped into a prompt loop without wrapping.
package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/matiasleandrokruk/mfgops/internal/mcp"
)

// Param is one derived input parameter of a bridged tool.
type Param struct {
	Name        string
	Type        string
	Description string
	Required    bool
	Default     json.RawMessage
}

// schemaTypes maps JSON-schema type names onto the parameter types the agent
// layer understands. Anything not listed degrades to "string".
var schemaTypes = map[string]string{
	"string":  "string",
	"integer": "integer",
	"number":  "number",
	"boolean": "boolean",
	"array":   "array",
	"object":  "object",
}

// Derive flattens a tool input schema into an ordered parameter list:
// required parameters first, each group alphabetical. Unknown schema types
// fall back to "string" rather than failing.
func Derive(schema mcp.Schema) []Param {
	params := make([]Param, 0, len(schema.Properties))
	required := make(map[string]bool, len(schema.Required))
	for _, name := range schema.Required {
		required[name] = true
	}
	for name, prop := range schema.Properties {
		typ, ok := schemaTypes[prop.Type]
		if !ok {
			typ = "string"
		}
		params = append(params, Param{
			Name:        name,
			Type:        typ,
			Description: prop.Description,
			Required:    required[name],
			Default:     prop.Default,
		})
	}
	sort.Slice(params, func(i, j int) bool {
		if params[i].Required != params[j].Required {
			return params[i].Required
		}
		return params[i].Name < params[j].Name
	})
	return params
}

// Tool is a bridged backend tool. Call always returns a string: pretty JSON
// on success, an "Error: "-prefixed message on any failure.
type Tool struct {
	Name        string
	Description string
	Params      []Param

	backend mcp.Backend
}

// New bridges one named tool of a backend. The tool must appear in the
// backend's current listing.
func New(backend mcp.Backend, name string) (*Tool, error) {
	for _, def := range backend.ListTools() {
		if def.Name == name {
			return &Tool{
				Name:        def.Name,
				Description: def.Description,
				Params:      Derive(def.InputSchema),
				backend:     backend,
			}, nil
		}
	}
	return nil, fmt.Errorf("%w: %q on backend %q", mcp.ErrToolNotFound, name, backend.Name())
}

// FromBackend bridges every tool the backend currently lists.
func FromBackend(backend mcp.Backend) []*Tool {
	defs := backend.ListTools()
	tools := make([]*Tool, 0, len(defs))
	for _, def := range defs {
		tools = append(tools, &Tool{
			Name:        def.Name,
			Description: def.Description,
			Params:      Derive(def.InputSchema),
			backend:     backend,
		})
	}
	return tools
}

// Call invokes the bridged tool. Missing arguments with schema defaults are
// filled in before the call. The returned string is either the indented JSON
// of the result data or an "Error: " message; Call never panics.
func (t *Tool) Call(ctx context.Context, args map[string]any) (out string) {
	defer func() {
		if r := recover(); r != nil {
			out = fmt.Sprintf("Error: internal failure in tool %s: %v", t.Name, r)
		}
	}()

	merged := make(map[string]any, len(args)+len(t.Params))
	for k, v := range args {
		merged[k] = v
	}
	for _, p := range t.Params {
		if _, present := merged[p.Name]; present || p.Default == nil {
			continue
		}
		var v any
		if err := json.Unmarshal(p.Default, &v); err == nil {
			merged[p.Name] = v
		}
	}

	res, err := t.backend.CallTool(ctx, t.Name, merged)
	if err != nil {
		return "Error: " + err.Error()
	}
	if !res.Success {
		return "Error: " + res.Error
	}
	data, err := json.MarshalIndent(res.Data, "", "  ")
	if err != nil {
		return fmt.Sprintf("Error: could not encode result of %s: %v", t.Name, err)
	}
	return string(data)
}
