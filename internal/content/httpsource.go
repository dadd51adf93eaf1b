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
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// HTTPSource implements Source against the host CMS content API. The
// host exposes read-only endpoints under a common prefix; rendering and
// access control stay on the host side.
type HTTPSource struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
}

var _ Source = (*HTTPSource)(nil)

// NewHTTPSource builds a source for the content API at endpoint. timeout
// zero or negative selects a 30s default.
func NewHTTPSource(endpoint, apiKey string, timeout time.Duration) *HTTPSource {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPSource{
		httpClient: &http.Client{Timeout: timeout},
		endpoint:   strings.TrimRight(endpoint, "/"),
		apiKey:     apiKey,
	}
}

func (s *HTTPSource) ListEntityIDs(ctx context.Context, entityType string, bundles []string) ([]int64, error) {
	q := url.Values{}
	q.Set("entity_type", entityType)
	if len(bundles) > 0 {
		q.Set("bundles", strings.Join(bundles, ","))
	}
	var out struct {
		IDs []int64 `json:"ids"`
	}
	if err := s.get(ctx, "/entities", q, &out); err != nil {
		return nil, err
	}
	return out.IDs, nil
}

func (s *HTTPSource) ResolveUUID(ctx context.Context, entityType string, entityID int64) (uuid.UUID, error) {
	q := url.Values{}
	q.Set("entity_type", entityType)
	q.Set("entity_id", strconv.FormatInt(entityID, 10))
	var out struct {
		UUID uuid.UUID `json:"uuid"`
	}
	if err := s.get(ctx, "/uuid", q, &out); err != nil {
		return uuid.Nil, err
	}
	return out.UUID, nil
}

func (s *HTTPSource) LoadEntity(ctx context.Context, entityType string, entityID int64) (*Entity, error) {
	q := url.Values{}
	q.Set("entity_type", entityType)
	q.Set("entity_id", strconv.FormatInt(entityID, 10))
	var out Entity
	if err := s.get(ctx, "/entity", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *HTTPSource) RenderView(ctx context.Context, ref EntityRef, viewMode, langcode, renderRole string) (string, error) {
	q := url.Values{}
	q.Set("entity_type", ref.EntityType)
	q.Set("entity_id", strconv.FormatInt(ref.EntityID, 10))
	q.Set("view_mode", viewMode)
	q.Set("langcode", langcode)
	if renderRole != "" {
		q.Set("render_role", renderRole)
	}
	var out struct {
		HTML string `json:"html"`
	}
	if err := s.get(ctx, "/render", q, &out); err != nil {
		return "", err
	}
	return out.HTML, nil
}

func (s *HTTPSource) TaxonomyRelations(ctx context.Context, ref EntityRef, taxonomyBundles []string) ([]Relation, error) {
	q := url.Values{}
	q.Set("entity_type", ref.EntityType)
	q.Set("entity_id", strconv.FormatInt(ref.EntityID, 10))
	if len(taxonomyBundles) > 0 {
		q.Set("bundles", strings.Join(taxonomyBundles, ","))
	}
	var out []struct {
		Field string      `json:"field"`
		Terms []uuid.UUID `json:"terms"`
	}
	if err := s.get(ctx, "/relations", q, &out); err != nil {
		return nil, err
	}
	rels := make([]Relation, 0, len(out))
	for _, r := range out {
		rels = append(rels, Relation{Field: r.Field, Terms: r.Terms})
	}
	return rels, nil
}

func (s *HTTPSource) get(ctx context.Context, path string, q url.Values, out any) error {
	u := fmt.Sprintf("%s/contentpush%s?%s", s.endpoint, path, q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("content API request failed: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode == http.StatusNotFound {
		return ErrEntityNotFound
	}
	if resp.StatusCode >= http.StatusBadRequest {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("content API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
