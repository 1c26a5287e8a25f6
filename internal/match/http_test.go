package match

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/najdeno/internal/apperror"
	"github.com/erazemk/najdeno/internal/model"
)

type mapItems map[string]*model.Item

func (m mapItems) Get(_ context.Context, id string) (*model.Item, error) {
	if it, ok := m[id]; ok {
		return it, nil
	}
	return nil, apperror.NotFound("item", id)
}

func TestHTTPMatcherResolvesCandidates(t *testing.T) {
	var got candidateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/candidates", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[{"id":"f1","score":0.9},{"id":"gone","score":0.8},{"id":"f2","score":0.3}]}`))
	}))
	defer srv.Close()

	items := mapItems{
		"f1": item("f1", model.ItemTypeFound, "u2"),
		"f2": item("f2", model.ItemTypeFound, "u3"),
	}
	m := NewHTTPMatcher(srv.URL+"/", items, time.Second)

	lost := item("q", model.ItemTypeLost, "u1")
	candidates, err := m.FindCandidates(context.Background(), lost)
	require.NoError(t, err)

	require.Len(t, candidates, 2)
	assert.Equal(t, "f1", candidates[0].Item.ID)
	assert.Equal(t, 0.9, candidates[0].Score)
	assert.Equal(t, "f2", candidates[1].Item.ID)

	assert.Equal(t, "q", got.ID)
	assert.Equal(t, model.ItemTypeFound, got.Want)
}

func TestHTTPMatcherDoesNotSendContact(t *testing.T) {
	var raw map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&raw)
		w.Write([]byte(`{"candidates":[]}`))
	}))
	defer srv.Close()

	m := NewHTTPMatcher(srv.URL, mapItems{}, time.Second)
	_, err := m.FindCandidates(context.Background(), item("q", model.ItemTypeLost, "u1"))
	require.NoError(t, err)

	assert.NotContains(t, raw, "contact_info")
	assert.NotContains(t, raw, "posted_by")
}

func TestHTTPMatcherErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	m := NewHTTPMatcher(srv.URL, mapItems{}, time.Second)
	_, err := m.FindCandidates(context.Background(), item("q", model.ItemTypeLost, "u1"))
	require.ErrorIs(t, err, apperror.ErrCollaboratorUnavailable)
	assert.Contains(t, err.Error(), "overloaded")
}

func TestHTTPMatcherTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer srv.Close()

	m := NewHTTPMatcher(srv.URL, mapItems{}, 20*time.Millisecond)
	_, err := m.FindCandidates(context.Background(), item("q", model.ItemTypeLost, "u1"))
	assert.ErrorIs(t, err, apperror.ErrCollaboratorUnavailable)
}
