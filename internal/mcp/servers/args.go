// Package servers provides the in-process mock tool backends: equipment
// telemetry, production analytics, and transactional maintenance data.
// Each backend is an mcp.Registry populated at construction time with
// handlers that generate schema-consistent synthetic data. Outputs are
// randomized per call; nothing here is seeded.
package servers

import (
	"encoding/json"
	"fmt"

	"github.com/matiasleandrokruk/mfgops/internal/mcp"
)

// stringArg reads a required string argument, wrapping ErrValidation on
// absence or wrong type.
func stringArg(args map[string]any, key string) (string, error) {
	v, ok := args[key]
	if !ok {
		return "", fmt.Errorf("%w: missing required argument %q", mcp.ErrValidation, key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: argument %q must be a string", mcp.ErrValidation, key)
	}
	return s, nil
}

// optionalString reads an optional string argument, returning fallback when
// absent or empty.
func optionalString(args map[string]any, key, fallback string) string {
	if v, ok := args[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

// optionalInt reads an optional integer argument. JSON decoding delivers
// numbers as float64; both int and float64 are accepted.
func optionalInt(args map[string]any, key string, fallback int) int {
	switch v := args[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n)
		}
	}
	return fallback
}

// optionalBool reads an optional boolean argument.
func optionalBool(args map[string]any, key string, fallback bool) bool {
	if v, ok := args[key].(bool); ok {
		return v
	}
	return fallback
}

// rawDefault marshals a schema default value, panicking on marshal failure.
// Only used with literals at registration time.
func rawDefault(v any) json.RawMessage {
	raw, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return raw
}
