// HTTP handlers for tool and server introspection endpoints.
package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/matiasleandrokruk/mfgops/internal/mcp"
	"github.com/matiasleandrokruk/mfgops/internal/mcp/remote"
)

// ToolsHandler exposes the aggregated tool surface over HTTP.
// The remote manager is nil when the remote backend is disabled.
type ToolsHandler struct {
	client  *mcp.Client
	manager *remote.Manager
}

// NewToolsHandler creates a new ToolsHandler.
func NewToolsHandler(client *mcp.Client, manager *remote.Manager) *ToolsHandler {
	return &ToolsHandler{client: client, manager: manager}
}

// ToolsResponse is the response body for GET /api/v1/tools.
type ToolsResponse struct {
	Tools []mcp.Definition `json:"tools"`
	Total int              `json:"total"`
}

// ServersResponse is the response body for GET /api/v1/servers.
type ServersResponse struct {
	Servers []mcp.ServerInfo `json:"servers"`
}

// RefreshResponse is the response body for POST /api/v1/servers/remote/refresh.
type RefreshResponse struct {
	Tools         []string  `json:"tools"`
	LastDiscovery time.Time `json:"lastDiscovery"`
}

// ListTools handles GET /api/v1/tools.
func (h *ToolsHandler) ListTools(w http.ResponseWriter, r *http.Request) {
	tools := h.client.AllTools()
	writeJSON(w, http.StatusOK, ToolsResponse{Tools: tools, Total: len(tools)})
}

// ListServers handles GET /api/v1/servers.
func (h *ToolsHandler) ListServers(w http.ResponseWriter, r *http.Request) {
	names := h.client.ServerNames()
	servers := make([]mcp.ServerInfo, 0, len(names))
	for _, name := range names {
		info, err := h.client.ServerInfo(name)
		if err != nil {
			continue
		}
		servers = append(servers, info)
	}
	writeJSON(w, http.StatusOK, ServersResponse{Servers: servers})
}

// GetServer handles GET /api/v1/servers/{name}.
func (h *ToolsHandler) GetServer(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	info, err := h.client.ServerInfo(name)
	if err != nil {
		if errors.Is(err, mcp.ErrServerNotFound) {
			writeError(w, http.StatusNotFound, "server not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to read server info")
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// RefreshRemote handles POST /api/v1/servers/remote/refresh.
// Forces tool rediscovery on the remote backend, bypassing the cache TTL.
func (h *ToolsHandler) RefreshRemote(w http.ResponseWriter, r *http.Request) {
	if h.manager == nil {
		writeError(w, http.StatusNotFound, "remote backend is not enabled")
		return
	}

	discovered, err := h.manager.RefreshTools(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, "remote discovery failed")
		return
	}

	names := make([]string, 0, len(discovered))
	for _, tool := range discovered {
		names = append(names, tool.Name)
	}
	writeJSON(w, http.StatusOK, RefreshResponse{
		Tools:         names,
		LastDiscovery: h.manager.LastDiscovery(),
	})
}
