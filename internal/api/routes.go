// Route registration and go-chi router setup.
// Public routes (/health, /api/v1/auth/login) vs JWT-protected routes (/api/v1/*).
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/matiasleandrokruk/mfgops/internal/agent"
	"github.com/matiasleandrokruk/mfgops/internal/api/handlers"
	apmiddleware "github.com/matiasleandrokruk/mfgops/internal/api/middleware"
	"github.com/matiasleandrokruk/mfgops/internal/mcp"
	"github.com/matiasleandrokruk/mfgops/internal/mcp/remote"
	"github.com/matiasleandrokruk/mfgops/internal/rag"
)

// Deps carries the wired services the router exposes. Manager and Runs may be
// nil when the corresponding feature is disabled.
type Deps struct {
	Logger       *slog.Logger
	Client       *mcp.Client
	Manager      *remote.Manager
	Orchestrator *agent.Orchestrator
	Runs         *agent.RunStore
	Ingestor     *rag.Ingestor
	Searcher     *rag.Searcher
	DocsDir      string
	Credentials  map[string]handlers.Credential
}

// NewRouter creates and configures a new chi router with all routes.
func NewRouter(deps Deps) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware (runs on all routes)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// ===== PUBLIC ROUTES (no auth required) =====

	// Health check — unauthenticated, used by load balancers and health probes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`)) //nolint:errcheck
	})

	authHandler := handlers.NewAuthHandler(deps.Credentials)
	r.Post("/api/v1/auth/login", authHandler.Login)

	// ===== PROTECTED ROUTES (JWT required via AuthMiddleware) =====

	// AuthMiddleware validates the token and injects UserID + Role into context.
	toolsHandler := handlers.NewToolsHandler(deps.Client, deps.Manager)
	queryHandler := handlers.NewQueryHandler(deps.Orchestrator, deps.Runs)
	knowledgeHandler := handlers.NewKnowledgeHandler(deps.Ingestor, deps.Searcher, deps.DocsDir)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(apmiddleware.AuthMiddleware)
		r.Use(apmiddleware.AuditMiddleware(deps.Logger))

		r.Get("/tools", toolsHandler.ListTools) // GET /api/v1/tools

		r.Route("/servers", func(r chi.Router) {
			r.Get("/", toolsHandler.ListServers)                  // GET /api/v1/servers
			r.Post("/remote/refresh", toolsHandler.RefreshRemote) // POST /api/v1/servers/remote/refresh
			r.Get("/{name}", toolsHandler.GetServer)              // GET /api/v1/servers/{name}
		})

		r.Post("/query", queryHandler.Query)  // POST /api/v1/query
		r.Get("/runs", queryHandler.ListRuns) // GET /api/v1/runs

		r.Post("/ingest", knowledgeHandler.Ingest) // POST /api/v1/ingest
		r.Post("/search", knowledgeHandler.Search) // POST /api/v1/search
	})

	return r
}
