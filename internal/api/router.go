package api

import (
	"database/sql"
	"net/http"

	"github.com/erazemk/najdeno/internal/auth"
	"github.com/erazemk/najdeno/internal/lifecycle"
	"github.com/erazemk/najdeno/internal/match"
	"github.com/erazemk/najdeno/internal/policy"
	"github.com/erazemk/najdeno/internal/store"
)

// Deps are the collaborators the API is built from.
type Deps struct {
	DB        *sql.DB
	JWTSecret string
	Authz     *policy.Authorizer
	Matcher   match.Matcher
}

// NewRouter creates the API router with all endpoints registered.
func NewRouter(d Deps) http.Handler {
	mux := http.NewServeMux()

	items := store.NewItems(d.DB)
	matcher := d.Matcher
	if matcher == nil {
		matcher = match.NoopMatcher{}
	}

	provider := &auth.Provider{DB: d.DB, Secret: d.JWTSecret}
	authHandler := &AuthHandler{Provider: provider}
	usersHandler := &UsersHandler{DB: d.DB, JWTSecret: d.JWTSecret}
	itemsHandler := &ItemsHandler{
		Engine:   lifecycle.New(items, d.Authz, nil),
		Authz:    d.Authz,
		Items:    items,
		Surfacer: match.NewSurfacer(matcher, d.Authz, nil),
	}

	manageUsers := RequirePolicy(d.Authz, policy.ActionManageUsers)

	mux.HandleFunc("GET /api/health", func(w http.ResponseWriter, r *http.Request) {
		jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Session.
	mux.Handle("GET /api/auth/me", RequireAuth(http.HandlerFunc(authHandler.Me)))
	mux.Handle("POST /api/auth/logout", RequireAuth(http.HandlerFunc(authHandler.Logout)))

	// Users (admin only).
	mux.Handle("GET /api/users", manageUsers(http.HandlerFunc(usersHandler.List)))
	mux.Handle("POST /api/users", manageUsers(http.HandlerFunc(usersHandler.Create)))
	mux.Handle("PUT /api/users/{id}/roles", manageUsers(http.HandlerFunc(usersHandler.SetRoles)))
	mux.Handle("POST /api/users/{id}/token", manageUsers(http.HandlerFunc(usersHandler.IssueToken)))

	// Items: reads are open and projected; mutations are authorized per item.
	mux.HandleFunc("GET /api/items", itemsHandler.List)
	mux.HandleFunc("GET /api/items/stats", itemsHandler.Stats)
	mux.HandleFunc("POST /api/items", itemsHandler.Create)
	mux.HandleFunc("GET /api/items/{id}", itemsHandler.Get)
	mux.HandleFunc("GET /api/items/{id}/{view}", itemsHandler.Subresource)
	mux.HandleFunc("PUT /api/items/{id}/status", itemsHandler.UpdateStatus)
	mux.HandleFunc("DELETE /api/items/{id}", itemsHandler.Delete)

	return AuthMiddleware(provider)(mux)
}
