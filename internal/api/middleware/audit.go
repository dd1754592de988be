// HTTP audit middleware for protected routes.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/matiasleandrokruk/mfgops/internal/api/ctxkeys"
)

// AuditMiddleware logs protected HTTP requests as structured audit records.
// Expected order in router: AuthMiddleware -> AuditMiddleware -> handlers.
func AuditMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if logger == nil {
				next.ServeHTTP(w, r)
				return
			}

			userID, ok := getStringContext(r.Context(), ctxkeys.UserID)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			role, _ := getStringContext(r.Context(), ctxkeys.Role)

			recorder := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
			start := time.Now()
			next.ServeHTTP(recorder, r)

			action, resource := actionFromRequest(r.Method, r.URL.Path)
			logger.InfoContext(r.Context(), "audit",
				slog.String("action", action),
				slog.String("resource", resource),
				slog.String("user_id", userID),
				slog.String("role", role),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status_code", recorder.statusCode),
				slog.String("outcome", outcomeFromStatus(recorder.statusCode)),
				slog.Int64("duration_ms", time.Since(start).Milliseconds()),
			)
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func getStringContext(ctx context.Context, key ctxkeys.Key) (string, bool) {
	v, ok := ctx.Value(key).(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

func outcomeFromStatus(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return "success"
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return "denied"
	default:
		return "error"
	}
}

// actionFromRequest derives a semantic (action, resource) pair from the route.
// Falls back to "<method>_request" for paths outside /api/v1.
func actionFromRequest(method, path string) (string, string) {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	if len(segments) < 3 || segments[0] != "api" || segments[1] != "v1" {
		return strings.ToLower(method) + "_request", ""
	}

	resource := knownResource(segments[2])
	if resource == "" {
		return strings.ToLower(method) + "_request", ""
	}

	if len(segments) == 3 {
		return actionForCollection(method, resource), resource
	}

	// Nested path: /api/v1/servers/{name} or /api/v1/servers/remote/refresh.
	return actionForEntity(method, resource), resource + "/" + strings.Join(segments[3:], "/")
}

func knownResource(segment string) string {
	known := map[string]string{
		"servers": "server",
		"tools":   "tool",
		"query":   "query",
		"ingest":  "ingest",
		"search":  "search",
		"runs":    "run",
	}

	if value, ok := known[segment]; ok {
		return value
	}
	return ""
}

func actionForCollection(method, resource string) string {
	if method == http.MethodPost {
		return "create_" + resource
	}
	if method == http.MethodGet {
		return "list_" + resource
	}
	return strings.ToLower(method) + "_" + resource
}

func actionForEntity(method, resource string) string {
	if method == http.MethodGet {
		return "get_" + resource
	}
	if method == http.MethodPost {
		return "create_" + resource
	}
	if method == http.MethodDelete {
		return "delete_" + resource
	}
	return strings.ToLower(method) + "_" + resource
}
