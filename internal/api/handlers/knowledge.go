// HTTP handlers for document ingestion and retrieval search.
package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/matiasleandrokruk/mfgops/internal/rag"
)

// KnowledgeHandler exposes the document pipeline over HTTP.
type KnowledgeHandler struct {
	ingestor *rag.Ingestor
	searcher *rag.Searcher
	docsDir  string
}

// NewKnowledgeHandler creates a new KnowledgeHandler. docsDir is the default
// ingestion root used when a request doesn't name one.
func NewKnowledgeHandler(ingestor *rag.Ingestor, searcher *rag.Searcher, docsDir string) *KnowledgeHandler {
	return &KnowledgeHandler{ingestor: ingestor, searcher: searcher, docsDir: docsDir}
}

// IngestRequest is the request body for POST /api/v1/ingest.
type IngestRequest struct {
	Dir string `json:"dir,omitempty"`
}

// SearchRequest is the request body for POST /api/v1/search.
type SearchRequest struct {
	Query      string `json:"query"`
	Collection string `json:"collection,omitempty"`
	Limit      int    `json:"limit,omitempty"`
}

// SearchResponse is the response body for POST /api/v1/search.
type SearchResponse struct {
	Results []rag.SearchResult `json:"results"`
	Total   int                `json:"total"`
}

// Ingest handles POST /api/v1/ingest. An empty body reingests the configured
// docs directory; unchanged files are skipped by content hash.
func (h *KnowledgeHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	req := IngestRequest{}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	dir := req.Dir
	if dir == "" {
		dir = h.docsDir
	}

	stats, err := h.ingestor.IngestDir(r.Context(), dir)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "ingestion failed")
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// Search handles POST /api/v1/search.
//
// Response codes:
//   - 200 OK: search completed (possibly zero hits)
//   - 400 Bad Request: invalid JSON, empty query, or unknown collection
func (h *KnowledgeHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	collection := req.Collection
	if collection == "" {
		collection = rag.CollectionDocs
	}
	if collection != rag.CollectionDocs && collection != rag.CollectionMaintenance {
		writeError(w, http.StatusBadRequest, "unknown collection")
		return
	}

	limit := req.Limit
	if limit <= 0 {
		limit = rag.DefaultSearchLimit
	}

	results, err := h.searcher.Search(r.Context(), collection, req.Query, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}

	writeJSON(w, http.StatusOK, SearchResponse{Results: results, Total: len(results)})
}
