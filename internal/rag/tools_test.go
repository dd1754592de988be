package rag

import (
	"context"
	"testing"

	"github.com/matiasleandrokruk/mfgops/internal/mcp"
)

func TestToolServerListsBothTools(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	srv := NewToolServer(NewSearcher(store, nil, nil))

	defs := srv.ListTools()
	if len(defs) != 2 {
		t.Fatalf("ListTools() = %d tools, want 2", len(defs))
	}
	if defs[0].Name != "search_manufacturing_docs" || defs[1].Name != "search_maintenance_history" {
		t.Errorf("tool order = %v", defs)
	}
	if srv.Name() != ToolsServerName {
		t.Errorf("Name() = %q, want %q", srv.Name(), ToolsServerName)
	}
}

func TestToolServerSearch(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	provider := newFakeProvider()
	seedSearchCorpus(t, store, provider)
	srv := NewToolServer(NewSearcher(store, provider, nil))

	res, err := srv.CallTool(context.Background(), "search_maintenance_history",
		map[string]any{"query": "spindle bearing"})
	if err != nil {
		t.Fatalf("CallTool() error = %v", err)
	}
	if !res.Success {
		t.Fatalf("CallTool() failed: %+v", res)
	}
	data := res.Data.(map[string]any)
	if data["collection"] != CollectionMaintenance {
		t.Errorf("collection = %v", data["collection"])
	}
	results := data["results"].([]SearchResult)
	if len(results) == 0 || results[0].Path != "maintenance/log.md" {
		t.Errorf("results = %+v, want maintenance log first", results)
	}
}

func TestToolServerMissingQuery(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	srv := NewToolServer(NewSearcher(store, nil, nil))

	res, err := srv.CallTool(context.Background(), "search_manufacturing_docs", nil)
	if err != nil {
		t.Fatalf("CallTool() error = %v", err)
	}
	if res.Success {
		t.Fatal("CallTool() without query succeeded")
	}
	if res.ErrorKind != mcp.ErrorKindValidation {
		t.Errorf("ErrorKind = %q, want validation", res.ErrorKind)
	}
}
