// Package mcp defines the tool-backend contract shared by every data source:
// the in-process mock servers, the remote streamable-HTTP client, and the
// retrieval toolset all expose named tools through the same Backend interface.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
)

// ProtocolVersion is reported by every backend in its ServerInfo.
const ProtocolVersion = "1.0"

var (
	// ErrToolNotFound is returned by Invoke/CallTool when the requested tool
	// name is not registered (or not discovered). Never retried.
	ErrToolNotFound = errors.New("tool not found")

	// ErrValidation marks handler failures caused by bad arguments
	// (unknown equipment id, unparseable timestamp, ...). Handlers wrap it
	// with %w so the registry can classify the failure.
	ErrValidation = errors.New("validation failed")
)

// Error kind classifications carried in Result.ErrorKind.
const (
	ErrorKindValidation = "validation"
	ErrorKindInternal   = "internal"
	ErrorKindNotFound   = "not_found"
	ErrorKindConnection = "connection"
	ErrorKindServer     = "server"
)

// Property describes a single schema property of a tool input.
type Property struct {
	Type        string          `json:"type,omitempty"`
	Description string          `json:"description,omitempty"`
	Default     json.RawMessage `json:"default,omitempty"`
}

// Schema is the JSON-schema-like input description attached to every tool.
// Only the object/properties/required subset of JSON schema is modeled; that
// is all the bridge derives parameters from.
type Schema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties,omitempty"`
	Required   []string            `json:"required,omitempty"`
}

// ObjectSchema returns an empty object schema (tools with no arguments).
func ObjectSchema() Schema {
	return Schema{Type: "object", Properties: map[string]Property{}}
}

// Handler implements a tool. Argument validation failures must be returned
// wrapped in ErrValidation; any other error is classified as internal.
type Handler func(ctx context.Context, args map[string]any) (any, error)

// Tool is a named unit of capability owned by exactly one registry.
type Tool struct {
	Name        string
	Description string
	Schema      Schema
	Handler     Handler
}

// Definition is the MCP-compatible listing shape of a tool.
type Definition struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	InputSchema Schema `json:"inputSchema"`
}

// Result is the tagged outcome of a tool invocation. Either Success with
// Data, or failure with Error + ErrorKind. There is no partial success.
type Result struct {
	Success   bool   `json:"success"`
	Data      any    `json:"data,omitempty"`
	Error     string `json:"error,omitempty"`
	ErrorKind string `json:"error_kind,omitempty"`
}

// ServerInfo is backend metadata returned by Info().
type ServerInfo struct {
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	Tools           []string `json:"tools"`
	ProtocolVersion string   `json:"protocol_version"`
}

// Backend is the capability contract every tool source satisfies.
// CallTool returns ErrToolNotFound (wrapped) for unknown names; handler-level
// failures are carried inside the Result, not as errors.
type Backend interface {
	Name() string
	Info() ServerInfo
	ListTools() []Definition
	CallTool(ctx context.Context, name string, args map[string]any) (*Result, error)
}
