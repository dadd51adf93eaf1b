// Copyright (C) 2025 CardinalHQ, Inc
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, version 3.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

package content

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contentAPIServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/contentpush/entities", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "node", r.URL.Query().Get("entity_type"))
		assert.Equal(t, "article,page", r.URL.Query().Get("bundles"))
		_ = json.NewEncoder(w).Encode(map[string]any{"ids": []int64{1, 2, 3}})
	})
	mux.HandleFunc("/contentpush/uuid", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("entity_id") == "404" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"uuid": "0e3f0b2e-9f44-4d26-9c3a-25c4f0e0a001"})
	})
	mux.HandleFunc("/contentpush/entity", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"entity_type_id": "node",
			"entity_id":      7,
			"entity_uuid":    "0e3f0b2e-9f44-4d26-9c3a-25c4f0e0a001",
			"bundle":         "article",
			"langcodes":      []string{"en"},
			"labels":         map[string]string{"en": "Hello"},
			"url":            "/articles/hello",
		})
	})
	mux.HandleFunc("/contentpush/render", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "teaser", r.URL.Query().Get("view_mode"))
		assert.Equal(t, "anonymous", r.URL.Query().Get("render_role"))
		_ = json.NewEncoder(w).Encode(map[string]string{"html": "<p>Hello</p>"})
	})
	mux.HandleFunc("/contentpush/relations", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{"field": "field_tags", "terms": []string{"6a1e51f0-46a6-4ae2-8d1e-25c4f0e0a002"}},
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPSourceListEntityIDs(t *testing.T) {
	srv := contentAPIServer(t)
	s := NewHTTPSource(srv.URL, "key", 0)

	ids, err := s.ListEntityIDs(context.Background(), "node", []string{"article", "page"})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, ids)
}

func TestHTTPSourceResolveUUID(t *testing.T) {
	srv := contentAPIServer(t)
	s := NewHTTPSource(srv.URL, "key", 0)

	id, err := s.ResolveUUID(context.Background(), "node", 7)
	require.NoError(t, err)
	assert.Equal(t, "0e3f0b2e-9f44-4d26-9c3a-25c4f0e0a001", id.String())

	_, err = s.ResolveUUID(context.Background(), "node", 404)
	assert.ErrorIs(t, err, ErrEntityNotFound)
}

func TestHTTPSourceLoadEntity(t *testing.T) {
	srv := contentAPIServer(t)
	s := NewHTTPSource(srv.URL, "key", 0)

	e, err := s.LoadEntity(context.Background(), "node", 7)
	require.NoError(t, err)
	assert.Equal(t, "node", e.EntityType)
	assert.Equal(t, int64(7), e.EntityID)
	assert.Equal(t, "article", e.Bundle)
	assert.Equal(t, "Hello", e.Label("en"))
	assert.Equal(t, "/articles/hello", e.URL)
}

func TestHTTPSourceRenderView(t *testing.T) {
	srv := contentAPIServer(t)
	s := NewHTTPSource(srv.URL, "key", 0)

	html, err := s.RenderView(context.Background(), EntityRef{EntityType: "node", EntityID: 7}, "teaser", "en", "anonymous")
	require.NoError(t, err)
	assert.Equal(t, "<p>Hello</p>", html)
}

func TestHTTPSourceTaxonomyRelations(t *testing.T) {
	srv := contentAPIServer(t)
	s := NewHTTPSource(srv.URL, "key", 0)

	rels, err := s.TaxonomyRelations(context.Background(), EntityRef{EntityType: "node", EntityID: 7}, []string{"tags"})
	require.NoError(t, err)
	require.Len(t, rels, 1)
	assert.Equal(t, "field_tags", rels[0].Field)
	assert.Equal(t, []uuid.UUID{uuid.MustParse("6a1e51f0-46a6-4ae2-8d1e-25c4f0e0a002")}, rels[0].Terms)
}

func TestHTTPSourceServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()
	s := NewHTTPSource(srv.URL, "key", 0)

	_, err := s.ListEntityIDs(context.Background(), "node", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}
