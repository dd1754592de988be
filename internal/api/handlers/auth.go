// HTTP handler for login (public endpoint — no AuthMiddleware).
// Verifies credentials against configured bcrypt hashes and issues a JWT.
package handlers

import (
	"encoding/json"
	"net/http"

	pkgauth "github.com/matiasleandrokruk/mfgops/pkg/auth"
)

// Credential is a configured login identity. The password is stored as a
// bcrypt hash; plaintext never touches configuration.
type Credential struct {
	PasswordHash string
	Role         string
}

// AuthHandler handles authentication HTTP requests.
type AuthHandler struct {
	creds map[string]Credential
}

// NewAuthHandler creates a new AuthHandler with the given credential set.
// An empty set means every login attempt fails with 401.
func NewAuthHandler(creds map[string]Credential) *AuthHandler {
	return &AuthHandler{creds: creds}
}

// LoginRequest is the request body for POST /api/v1/auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is the response body returned after successful login.
type LoginResponse struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
	Role   string `json:"role"`
}

// Login handles POST /api/v1/auth/login.
//
// Response codes:
//   - 200 OK: login successful
//   - 400 Bad Request: invalid JSON or missing required fields
//   - 401 Unauthorized: invalid credentials (generic — doesn't reveal if user exists)
//   - 500 Internal Server Error: token signing failure
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	cred, ok := h.creds[req.Username]
	if !ok || !pkgauth.VerifyPassword(cred.PasswordHash, req.Password) {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := pkgauth.GenerateJWT(req.Username, cred.Role)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{
		Token:  token,
		UserID: req.Username,
		Role:   cred.Role,
	})
}
