package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/matiasleandrokruk/mfgops/internal/mcp"
)

func TestDeriveOrdersAndTypes(t *testing.T) {
	t.Parallel()

	schema := mcp.Schema{
		Type: "object",
		Properties: map[string]mcp.Property{
			"b": {Type: "integer", Default: json.RawMessage("5")},
			"a": {Type: "string", Description: "first"},
			"c": {Type: "frobnicator"},
			"z": {Type: "boolean"},
		},
		Required: []string{"z", "a"},
	}
	params := Derive(schema)
	if len(params) != 4 {
		t.Fatalf("Derive() returned %d params, want 4", len(params))
	}
	// Required first (alphabetical), then optional (alphabetical).
	wantOrder := []string{"a", "z", "b", "c"}
	for i, name := range wantOrder {
		if params[i].Name != name {
			t.Fatalf("params[%d].Name = %q, want %q (all: %+v)", i, params[i].Name, name, params)
		}
	}
	if params[0].Type != "string" || !params[0].Required {
		t.Errorf("param a = %+v, want required string", params[0])
	}
	if params[3].Type != "string" {
		t.Errorf("unknown schema type mapped to %q, want string fallback", params[3].Type)
	}
	if string(params[2].Default) != "5" {
		t.Errorf("param b default = %s, want 5", params[2].Default)
	}
}

// addBackend exposes a single "add" tool with a defaulted operand.
func addBackend(t *testing.T) *mcp.Registry {
	t.Helper()
	reg := mcp.NewRegistry("calc", "test backend")
	reg.Register("add", "adds a and b",
		mcp.Schema{
			Type: "object",
			Properties: map[string]mcp.Property{
				"a": {Type: "number"},
				"b": {Type: "number", Default: json.RawMessage("5")},
			},
			Required: []string{"a"},
		},
		func(_ context.Context, args map[string]any) (any, error) {
			a, ok := args["a"].(float64)
			if !ok {
				return nil, errors.New("a must be a number")
			}
			b, ok := args["b"].(float64)
			if !ok {
				return nil, errors.New("b must be a number")
			}
			return map[string]any{"sum": a + b}, nil
		})
	return reg
}

func TestCallFillsDefaultsAndReturnsJSON(t *testing.T) {
	t.Parallel()

	tool, err := New(addBackend(t), "add")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	out := tool.Call(context.Background(), map[string]any{"a": 2.0})
	if strings.HasPrefix(out, "Error:") {
		t.Fatalf("Call() = %q, want success", out)
	}
	var decoded map[string]any
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("Call() output is not JSON: %v\n%s", err, out)
	}
	if decoded["sum"] != 7.0 {
		t.Errorf("sum = %v, want 7 (default b=5 applied)", decoded["sum"])
	}
	if !strings.Contains(out, "\n") {
		t.Error("Call() output is not indented")
	}
}

func TestCallFailuresBecomeErrorStrings(t *testing.T) {
	t.Parallel()

	tool, err := New(addBackend(t), "add")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	out := tool.Call(context.Background(), map[string]any{"a": "not-a-number"})
	if !strings.HasPrefix(out, "Error:") {
		t.Fatalf("Call() with bad args = %q, want Error prefix", out)
	}
}

func TestNewUnknownTool(t *testing.T) {
	t.Parallel()

	if _, err := New(addBackend(t), "subtract"); !errors.Is(err, mcp.ErrToolNotFound) {
		t.Fatalf("New(subtract) error = %v, want ErrToolNotFound", err)
	}
}

// panicBackend panics inside CallTool itself, past the registry's recovery.
type panicBackend struct{}

func (panicBackend) Name() string        { return "panicky" }
func (panicBackend) Info() mcp.ServerInfo { return mcp.ServerInfo{Name: "panicky"} }
func (panicBackend) ListTools() []mcp.Definition {
	return []mcp.Definition{{Name: "explode", InputSchema: mcp.ObjectSchema()}}
}
func (panicBackend) CallTool(context.Context, string, map[string]any) (*mcp.Result, error) {
	panic("wiring fault")
}

func TestCallRecoversPanics(t *testing.T) {
	t.Parallel()

	tool, err := New(panicBackend{}, "explode")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	out := tool.Call(context.Background(), nil)
	if !strings.HasPrefix(out, "Error:") || !strings.Contains(out, "wiring fault") {
		t.Fatalf("Call() after panic = %q, want Error mentioning the panic", out)
	}
}

func TestFromBackendBridgesAllTools(t *testing.T) {
	t.Parallel()

	tools := FromBackend(addBackend(t))
	if len(tools) != 1 || tools[0].Name != "add" {
		t.Fatalf("FromBackend() = %+v, want single add tool", tools)
	}
	if len(tools[0].Params) != 2 {
		t.Errorf("add has %d params, want 2", len(tools[0].Params))
	}
}
