package api

import (
	"log/slog"
	"net/http"

	"github.com/erazemk/najdeno/internal/auth"
	"github.com/erazemk/najdeno/internal/model"
)

// AuthHandler handles session endpoints.
type AuthHandler struct {
	Provider *auth.Provider
}

type meResponse struct {
	User  *model.User  `json:"user"`
	Roles []model.Role `json:"roles"`
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	s := GetSession(r.Context())
	jsonResponse(w, http.StatusOK, meResponse{User: s.User, Roles: s.Identity.Roles.Slice()})
}

// Logout handles POST /api/auth/logout by revoking the token's JTI.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	s := GetSession(r.Context())

	if err := h.Provider.Revoke(r.Context(), s); err != nil {
		slog.Error("failed to revoke token", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to logout")
		return
	}

	slog.Info("user logged out", "user", s.User.ID)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "logged out"})
}
