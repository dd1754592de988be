// HTTP handlers for agent queries and run history.
package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/matiasleandrokruk/mfgops/internal/agent"
)

// QueryHandler routes natural-language questions to the orchestrator and
// exposes past runs.
type QueryHandler struct {
	orchestrator *agent.Orchestrator
	runs         *agent.RunStore
}

// NewQueryHandler creates a new QueryHandler.
func NewQueryHandler(orchestrator *agent.Orchestrator, runs *agent.RunStore) *QueryHandler {
	return &QueryHandler{orchestrator: orchestrator, runs: runs}
}

// QueryRequest is the request body for POST /api/v1/query.
type QueryRequest struct {
	Question string `json:"question"`
}

// ListRunsResponse is the response body for GET /api/v1/runs.
type ListRunsResponse struct {
	Runs  []agent.Run `json:"runs"`
	Total int         `json:"total"`
}

// Query handles POST /api/v1/query.
//
// Response codes:
//   - 200 OK: question answered (even when the agent gave up on tools)
//   - 400 Bad Request: invalid JSON or empty question
//   - 502 Bad Gateway: LLM provider unreachable
func (h *QueryHandler) Query(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(req.Question) == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}

	answer, err := h.orchestrator.Ask(r.Context(), req.Question)
	if err != nil {
		writeError(w, http.StatusBadGateway, "agent failed to answer")
		return
	}

	writeJSON(w, http.StatusOK, answer)
}

// ListRuns handles GET /api/v1/runs.
func (h *QueryHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	if h.runs == nil {
		writeError(w, http.StatusNotFound, "run history is not enabled")
		return
	}

	runs, err := h.runs.Recent(r.Context(), parseLimit(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read run history")
		return
	}

	writeJSON(w, http.StatusOK, ListRunsResponse{Runs: runs, Total: len(runs)})
}
