package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/erazemk/najdeno/internal/apperror"
	"github.com/erazemk/najdeno/internal/model"
)

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("error encoding response", "error", err)
		}
	}
}

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error  string   `json:"error"`
	Code   string   `json:"code,omitempty"`
	Fields []string `json:"fields,omitempty"`
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, errorBody{Error: message})
}

// writeError maps err to a response. Domain errors keep their code; a denial
// for an anonymous caller becomes 401 so clients know to sign in. Anything
// else is logged and reported as an internal error.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	appErr, ok := apperror.As(err)
	if !ok {
		slog.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}

	status := appErr.HTTPStatus()
	if appErr.Code == apperror.CodeUnauthorized && !model.Authenticated(identityFrom(r)) {
		status = http.StatusUnauthorized
	}
	if appErr.Code == apperror.CodeCollaboratorUnavailable {
		slog.ErrorContext(r.Context(), "collaborator unavailable", "path", r.URL.Path, "error", err)
	}

	body := errorBody{Error: appErr.Error(), Code: string(appErr.Code)}
	if appErr.Code == apperror.CodeCollaboratorUnavailable {
		body.Error = appErr.Message
	}
	if fields := appErr.Metadata["fields"]; fields != "" {
		body.Fields = strings.Split(fields, ",")
	}
	jsonResponse(w, status, body)
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(target)
}
