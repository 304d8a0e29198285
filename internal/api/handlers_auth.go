package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/tsunayoshi21/Labeling-app/internal/model"
	"github.com/tsunayoshi21/Labeling-app/internal/store"
)

type AuthHandler struct {
	users       *store.UserStore
	tokens      *store.TokenStore
	annotations *store.AnnotationStore
	logger      *slog.Logger
}

func NewAuthHandler(users *store.UserStore, tokens *store.TokenStore, annotations *store.AnnotationStore, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens, annotations: annotations, logger: logger}
}

type tokenResponse struct {
	Success      bool        `json:"success"`
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	User         *model.User `json:"user"`
	ExpiresIn    int         `json:"expires_in"`
}

func newTokenResponse(u *model.User, pair store.TokenPair) tokenResponse {
	return tokenResponse{
		Success:      true,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		User:         u,
		ExpiresIn:    int(pair.ExpiresIn.Seconds()),
	}
}

// Login handles POST /login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	user, err := h.users.Authenticate(req.Username, req.Password)
	if err != nil {
		h.logger.Error("authenticate", "error", err)
		writeError(w, http.StatusInternalServerError, "Authentication failed")
		return
	}
	if user == nil {
		h.logger.Warn("login failed", "username", req.Username)
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	pair, err := h.tokens.Issue(user.ID)
	if err != nil {
		h.logger.Error("issue tokens", "error", err)
		writeError(w, http.StatusInternalServerError, "Authentication failed")
		return
	}

	h.logger.Info("login", "user_id", user.ID, "username", user.Username, "role", user.Role)
	writeJSON(w, http.StatusOK, newTokenResponse(user, pair))
}

// Refresh handles POST /refresh
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.RefreshToken == "" {
		writeError(w, http.StatusBadRequest, "refresh_token is required")
		return
	}

	user, pair, err := h.tokens.Refresh(req.RefreshToken)
	if err != nil {
		h.logger.Error("refresh tokens", "error", err)
		writeError(w, http.StatusInternalServerError, "Token refresh failed")
		return
	}
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Invalid or expired refresh token")
		return
	}

	writeJSON(w, http.StatusOK, newTokenResponse(user, pair))
}

// Logout handles POST /logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.tokens.Revoke(currentToken(r)); err != nil {
		h.logger.Error("revoke token", "error", err)
		writeError(w, http.StatusInternalServerError, "Logout failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Logged out successfully"})
}

// Me handles GET /me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	stats, err := h.annotations.Stats(user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": user, "stats": stats})
}
