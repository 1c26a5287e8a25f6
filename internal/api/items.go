package api

import (
	"context"
	"mime"
	"net/http"
	"strings"

	"github.com/erazemk/najdeno/internal/apperror"
	"github.com/erazemk/najdeno/internal/lifecycle"
	"github.com/erazemk/najdeno/internal/match"
	"github.com/erazemk/najdeno/internal/model"
	"github.com/erazemk/najdeno/internal/policy"
)

// ItemReader is the read side of the item store used by the handlers.
type ItemReader interface {
	History(ctx context.Context, id string) ([]model.StatusChange, error)
	Stats(ctx context.Context) (*model.ItemStats, error)
}

// ItemsHandler handles item endpoints. Every item leaves through Authz.Project.
type ItemsHandler struct {
	Engine   *lifecycle.Engine
	Authz    *policy.Authorizer
	Items    ItemReader
	Surfacer *match.Surfacer
}

type createItemRequest struct {
	Type        string  `json:"type"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Location    string  `json:"location"`
	ImageRef    string  `json:"image_ref"`
	ContactInfo *string `json:"contact_info"`
}

type statusRequest struct {
	Status string `json:"status"`
}

// List handles GET /api/items with optional status and type filters.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	var filter model.ItemFilter

	if s := r.URL.Query().Get("status"); s != "" {
		status, ok := model.ParseItemStatus(s)
		if !ok {
			jsonError(w, http.StatusBadRequest, "invalid status")
			return
		}
		filter.Status = status
	}
	if s := r.URL.Query().Get("type"); s != "" {
		t, ok := model.ParseItemType(s)
		if !ok {
			jsonError(w, http.StatusBadRequest, "invalid type")
			return
		}
		filter.Type = t
	}

	h.list(w, r, filter)
}

// Subresource handles GET /api/items/{id}/{view}: /type/{type}, /{id}/matches
// and /{id}/history. They share one pattern because ServeMux rejects
// /api/items/type/{type} next to /api/items/{id}/matches as conflicting.
func (h *ItemsHandler) Subresource(w http.ResponseWriter, r *http.Request) {
	first, view := r.PathValue("id"), r.PathValue("view")
	switch {
	case first == "type":
		h.listByType(w, r, view)
	case view == "matches":
		h.Matches(w, r)
	case view == "history":
		h.History(w, r)
	default:
		jsonError(w, http.StatusNotFound, "not found")
	}
}

// listByType serves GET /api/items/type/{type}.
func (h *ItemsHandler) listByType(w http.ResponseWriter, r *http.Request, raw string) {
	t, ok := model.ParseItemType(raw)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid type")
		return
	}
	h.list(w, r, model.ItemFilter{Type: t})
}

func (h *ItemsHandler) list(w http.ResponseWriter, r *http.Request, filter model.ItemFilter) {
	items, err := h.Engine.List(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, h.Authz.ProjectAll(r.Context(), identityFrom(r), items))
}

// Create handles POST /api/items. The body is JSON or a form; a missing
// contact falls back to the poster's profile contact.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, err := parseCreateRequest(w, r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	draft := model.ItemDraft{
		Type:        model.ItemType(strings.ToUpper(strings.TrimSpace(req.Type))),
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Category:    strings.TrimSpace(req.Category),
		Location:    strings.TrimSpace(req.Location),
		ImageRef:    strings.TrimSpace(req.ImageRef),
		ContactInfo: req.ContactInfo,
	}
	if draft.ContactInfo == nil {
		if s := GetSession(r.Context()); s != nil && s.User.ContactInfo != "" {
			contact := s.User.ContactInfo
			draft.ContactInfo = &contact
		}
	}

	id := identityFrom(r)
	item, err := h.Engine.Create(r.Context(), id, draft)
	if err != nil {
		writeError(w, r, err)
		return
	}

	jsonResponse(w, http.StatusCreated, h.Authz.Project(r.Context(), id, item))
}

func parseCreateRequest(w http.ResponseWriter, r *http.Request) (createItemRequest, error) {
	var req createItemRequest

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "multipart/form-data", "application/x-www-form-urlencoded":
		r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		if err := r.ParseMultipartForm(1 << 20); err != nil && err != http.ErrNotMultipart {
			return req, err
		}
		req.Type = r.FormValue("type")
		req.Title = r.FormValue("title")
		req.Description = r.FormValue("description")
		req.Category = r.FormValue("category")
		req.Location = r.FormValue("location")
		req.ImageRef = r.FormValue("image_ref")
		if r.Form.Has("contact_info") {
			contact := r.FormValue("contact_info")
			req.ContactInfo = &contact
		}
		return req, nil
	}

	err := decodeJSON(r, &req)
	return req, err
}

// Get handles GET /api/items/{id}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	item, err := h.Engine.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, h.Authz.Project(r.Context(), identityFrom(r), item))
}

// UpdateStatus handles PUT /api/items/{id}/status. The target comes from the
// status query parameter or a JSON body.
func (h *ItemsHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("status")
	if raw == "" && r.ContentLength != 0 {
		var req statusRequest
		if err := decodeJSON(r, &req); err != nil {
			jsonError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		raw = req.Status
	}

	target, ok := model.ParseItemStatus(raw)
	if !ok {
		writeError(w, r, apperror.Validation("status must be one of OPEN, RECEIVED_BY_ADMIN, CLAIMED, RESOLVED", "status"))
		return
	}

	id := identityFrom(r)
	item, err := h.Engine.Transition(r.Context(), id, r.PathValue("id"), target)
	if err != nil {
		writeError(w, r, err)
		return
	}

	jsonResponse(w, http.StatusOK, h.Authz.Project(r.Context(), id, item))
}

// Delete handles DELETE /api/items/{id}.
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Engine.Delete(r.Context(), identityFrom(r), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "item deleted"})
}

// Matches handles GET /api/items/{id}/matches.
func (h *ItemsHandler) Matches(w http.ResponseWriter, r *http.Request) {
	item, err := h.Engine.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	matches, err := h.Surfacer.GetMatches(r.Context(), identityFrom(r), item)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, matches)
}

// History handles GET /api/items/{id}/history (owner or admin).
func (h *ItemsHandler) History(w http.ResponseWriter, r *http.Request) {
	item, err := h.Engine.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.Authz.Authorize(r.Context(), identityFrom(r), item, policy.ActionReadHistory); err != nil {
		writeError(w, r, err)
		return
	}

	history, err := h.Items.History(r.Context(), item.ID)
	if err != nil {
		writeError(w, r, apperror.Unavailable("item store", err))
		return
	}
	if history == nil {
		history = []model.StatusChange{}
	}
	jsonResponse(w, http.StatusOK, history)
}

// Stats handles GET /api/items/stats (admin).
func (h *ItemsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	if err := h.Authz.Authorize(r.Context(), identityFrom(r), nil, policy.ActionViewStats); err != nil {
		writeError(w, r, err)
		return
	}

	stats, err := h.Items.Stats(r.Context())
	if err != nil {
		writeError(w, r, apperror.Unavailable("item store", err))
		return
	}
	jsonResponse(w, http.StatusOK, stats)
}
