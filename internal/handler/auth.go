package handler

import (
	"net/http"

	"github.com/msomdec/mtaabiz/internal/service"
)

// AuthHandler handles authentication-related HTTP requests.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// HandleRegister processes a JSON registration request.
// POST /api/auth/register
// Request:  {"username":"...","email":"...","password":"..."}
// Response: 201 {"user": {...}, "token": "..."}
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeServiceError(w, r, "decode register request", err)
		return
	}

	user, token, err := h.auth.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, "register user", err)
		return
	}

	loggerFrom(r.Context()).Info("user registered", "user_id", user.ID)
	writeJSON(w, http.StatusCreated, AuthResponseDTO{User: toUserDTO(user), Token: token})
}

// HandleLogin processes a JSON login request.
// POST /api/auth/login
// Request:  {"username":"...","password":"..."}
// Response: {"user": {...}, "token": "..."}
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeServiceError(w, r, "decode login request", err)
		return
	}

	user, token, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeServiceError(w, r, "login user", err)
		return
	}

	writeJSON(w, http.StatusOK, AuthResponseDTO{User: toUserDTO(user), Token: token})
}

// HandleUser returns the currently authenticated user.
// GET /api/auth/user
func (h *AuthHandler) HandleUser(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
		return
	}
	writeJSON(w, http.StatusOK, toUserDTO(user))
}

// HandleLogout revokes the caller's token. It answers 204 even when the
// token is missing, malformed or already revoked.
// POST /api/auth/logout
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if token := bearerToken(r); token != "" {
		if err := h.auth.Logout(r.Context(), token); err != nil {
			loggerFrom(r.Context()).Warn("revoke token", "error", err)
		}
	}
	w.WriteHeader(http.StatusNoContent)
}
