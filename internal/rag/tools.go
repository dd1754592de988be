package rag

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/matiasleandrokruk/mfgops/internal/mcp"
)

// ToolsServerName identifies the retrieval backend in listings.
const ToolsServerName = "retrieval"

// ToolServer exposes the searcher as a tool backend so agents reach plant
// documentation through the same interface as every other data source.
type ToolServer struct {
	*mcp.Registry
	searcher *Searcher
}

// NewToolServer registers the two retrieval tools over a searcher.
func NewToolServer(searcher *Searcher) *ToolServer {
	s := &ToolServer{
		Registry: mcp.NewRegistry(ToolsServerName, "Search over plant documentation and maintenance history"),
		searcher: searcher,
	}

	querySchema := mcp.Schema{
		Type: "object",
		Properties: map[string]mcp.Property{
			"query": {Type: "string", Description: "Search query"},
			"limit": {
				Type:        "integer",
				Description: "Maximum number of results",
				Default:     json.RawMessage("5"),
			},
		},
		Required: []string{"query"},
	}

	s.Register("search_manufacturing_docs",
		"Search SOPs, equipment manuals, and process documentation",
		querySchema, s.searchIn(CollectionDocs))
	s.Register("search_maintenance_history",
		"Search historical maintenance and repair records",
		querySchema, s.searchIn(CollectionMaintenance))
	return s
}

// searchIn binds one collection to the shared search handler.
func (s *ToolServer) searchIn(collection string) mcp.Handler {
	return func(ctx context.Context, args map[string]any) (any, error) {
		query, ok := args["query"].(string)
		if !ok || query == "" {
			return nil, fmt.Errorf("%w: query must be a non-empty string", mcp.ErrValidation)
		}
		limit := DefaultSearchLimit
		switch v := args["limit"].(type) {
		case int:
			limit = v
		case float64:
			limit = int(v)
		}

		results, err := s.searcher.Search(ctx, collection, query, limit)
		if err != nil {
			return nil, fmt.Errorf("search %s: %w", collection, err)
		}
		if results == nil {
			results = []SearchResult{}
		}
		return map[string]any{
			"collection": collection,
			"query":      query,
			"results":    results,
		}, nil
	}
}
