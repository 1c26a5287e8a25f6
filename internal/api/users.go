package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strings"

	"github.com/erazemk/najdeno/internal/auth"
	"github.com/erazemk/najdeno/internal/model"
	"github.com/erazemk/najdeno/internal/store"
)

// UsersHandler handles user management endpoints (admin only).
type UsersHandler struct {
	DB        *sql.DB
	JWTSecret string
}

type createUserRequest struct {
	UniversityID string   `json:"university_id"`
	Name         string   `json:"name"`
	ContactInfo  string   `json:"contact_info"`
	PhoneNumber  string   `json:"phone_number"`
	Roles        []string `json:"roles"`
}

type setRolesRequest struct {
	Roles []string `json:"roles"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// parseRoles converts role names, rejecting anything that is not a role.
func parseRoles(names []string) ([]model.Role, bool) {
	roles := make([]model.Role, 0, len(names))
	for _, n := range names {
		r, ok := model.ParseRole(n)
		if !ok {
			return nil, false
		}
		roles = append(roles, r)
	}
	return roles, true
}

// List handles GET /api/users.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := store.ListUsers(r.Context(), h.DB)
	if err != nil {
		slog.Error("failed to list users", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list users")
		return
	}
	if users == nil {
		users = []model.User{}
	}
	jsonResponse(w, http.StatusOK, users)
}

// Create handles POST /api/users.
func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.UniversityID = strings.TrimSpace(req.UniversityID)
	req.Name = strings.TrimSpace(req.Name)
	if req.UniversityID == "" || req.Name == "" {
		jsonError(w, http.StatusBadRequest, "university_id and name required")
		return
	}

	roles, ok := parseRoles(req.Roles)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid role")
		return
	}

	existing, err := store.GetUserByUniversityID(r.Context(), h.DB, req.UniversityID)
	if err != nil {
		slog.Error("failed to look up user", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to create user")
		return
	}
	if existing != nil {
		jsonError(w, http.StatusConflict, "university id already registered")
		return
	}

	user, err := store.CreateUser(r.Context(), h.DB, &model.User{
		UniversityID: req.UniversityID,
		Name:         req.Name,
		ContactInfo:  strings.TrimSpace(req.ContactInfo),
		PhoneNumber:  strings.TrimSpace(req.PhoneNumber),
		Roles:        roles,
	})
	if err != nil {
		slog.Error("failed to create user", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	slog.Info("user created", "actor", identityFrom(r).ID, "user", user.ID, "university_id", user.UniversityID, "roles", user.Roles)
	jsonResponse(w, http.StatusCreated, user)
}

// SetRoles handles PUT /api/users/{id}/roles.
func (h *UsersHandler) SetRoles(w http.ResponseWriter, r *http.Request) {
	var req setRolesRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	roles, ok := parseRoles(req.Roles)
	if !ok || len(roles) == 0 {
		jsonError(w, http.StatusBadRequest, "roles must be a non-empty list of USER or ADMIN")
		return
	}

	id := r.PathValue("id")
	found, err := store.SetUserRoles(r.Context(), h.DB, id, roles)
	if err != nil {
		slog.Error("failed to update roles", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to update roles")
		return
	}
	if !found {
		jsonError(w, http.StatusNotFound, "user not found")
		return
	}

	user, err := store.GetUser(r.Context(), h.DB, id)
	if err != nil {
		slog.Error("failed to get user", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get user")
		return
	}

	slog.Info("user roles changed", "actor", identityFrom(r).ID, "user", id, "roles", user.Roles)
	jsonResponse(w, http.StatusOK, user)
}

// IssueToken handles POST /api/users/{id}/token. Credential checks happen
// outside this service; an admin hands the resulting token to the user.
func (h *UsersHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	user, err := store.GetUser(r.Context(), h.DB, r.PathValue("id"))
	if err != nil {
		slog.Error("failed to get user", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get user")
		return
	}
	if user == nil {
		jsonError(w, http.StatusNotFound, "user not found")
		return
	}

	token, err := auth.GenerateToken(h.JWTSecret, user.ID)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}

	slog.Info("token issued", "actor", identityFrom(r).ID, "user", user.ID)
	jsonResponse(w, http.StatusOK, tokenResponse{Token: token})
}
