package mcp

import (
	"context"
	"errors"
	"testing"
)

func testBackend(t *testing.T, server string, tools ...string) *Registry {
	t.Helper()
	reg := NewRegistry(server, server+" test backend")
	for _, name := range tools {
		tool := name
		reg.Register(tool, "tool "+tool, ObjectSchema(),
			func(context.Context, map[string]any) (any, error) {
				return map[string]any{"from": server, "tool": tool}, nil
			})
	}
	return reg
}

func TestClientServerNamesAndTools(t *testing.T) {
	t.Parallel()

	client := NewClient(
		testBackend(t, "alpha", "alpha_one", "alpha_two"),
		testBackend(t, "beta", "beta_one"),
	)

	names := client.ServerNames()
	if len(names) != 2 || names[0] != "alpha" || names[1] != "beta" {
		t.Fatalf("ServerNames() = %v, want [alpha beta]", names)
	}

	all := client.AllTools()
	if len(all) != 3 {
		t.Fatalf("AllTools() returned %d tools, want 3", len(all))
	}
	if all[0].Name != "alpha_one" || all[2].Name != "beta_one" {
		t.Errorf("AllTools() order = %v", all)
	}

	alpha, err := client.ToolsForServer("alpha")
	if err != nil {
		t.Fatalf("ToolsForServer(alpha) error = %v", err)
	}
	if len(alpha) != 2 {
		t.Errorf("ToolsForServer(alpha) = %d tools, want 2", len(alpha))
	}

	if _, err := client.ToolsForServer("gamma"); !errors.Is(err, ErrServerNotFound) {
		t.Errorf("ToolsForServer(gamma) error = %v, want ErrServerNotFound", err)
	}
}

func TestClientToolsByNames(t *testing.T) {
	t.Parallel()

	client := NewClient(
		testBackend(t, "alpha", "alpha_one", "alpha_two"),
		testBackend(t, "beta", "beta_one"),
	)

	defs := client.ToolsByNames([]string{"beta_one", "missing", "alpha_one"})
	if len(defs) != 2 {
		t.Fatalf("ToolsByNames() = %d tools, want 2 (unknown skipped)", len(defs))
	}
	if defs[0].Name != "beta_one" || defs[1].Name != "alpha_one" {
		t.Errorf("ToolsByNames() order = %v, want request order", defs)
	}
}

func TestClientCallToolRoutes(t *testing.T) {
	t.Parallel()

	client := NewClient(
		testBackend(t, "alpha", "alpha_one"),
		testBackend(t, "beta", "beta_one"),
	)

	res, err := client.CallTool(context.Background(), "beta_one", nil)
	if err != nil {
		t.Fatalf("CallTool(beta_one) error = %v", err)
	}
	if !res.Success {
		t.Fatalf("CallTool(beta_one) failed: %+v", res)
	}
	data := res.Data.(map[string]any)
	if data["from"] != "beta" {
		t.Errorf("tool routed to %v, want beta", data["from"])
	}

	if _, err := client.CallTool(context.Background(), "nowhere", nil); !errors.Is(err, ErrToolNotFound) {
		t.Errorf("CallTool(nowhere) error = %v, want ErrToolNotFound", err)
	}
}

func TestClientServerInfo(t *testing.T) {
	t.Parallel()

	client := NewClient(testBackend(t, "alpha", "alpha_one"))
	info, err := client.ServerInfo("alpha")
	if err != nil {
		t.Fatalf("ServerInfo(alpha) error = %v", err)
	}
	if info.Name != "alpha" || len(info.Tools) != 1 {
		t.Errorf("ServerInfo(alpha) = %+v", info)
	}
	if info.ProtocolVersion != ProtocolVersion {
		t.Errorf("ProtocolVersion = %q, want %q", info.ProtocolVersion, ProtocolVersion)
	}
}
