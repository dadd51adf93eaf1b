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

package snapshot

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardinalhq/contentpush/config"
	"github.com/cardinalhq/contentpush/internal/content"
)

type fakeSource struct {
	entity    *content.Entity
	loadErr   error
	rendered  map[string]string // "viewMode/langcode" -> html
	renderErr error
	relations []content.Relation
}

func (s *fakeSource) ListEntityIDs(context.Context, string, []string) ([]int64, error) {
	return nil, nil
}

func (s *fakeSource) ResolveUUID(context.Context, string, int64) (uuid.UUID, error) {
	return uuid.Nil, content.ErrEntityNotFound
}

func (s *fakeSource) LoadEntity(context.Context, string, int64) (*content.Entity, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return s.entity, nil
}

func (s *fakeSource) RenderView(_ context.Context, _ content.EntityRef, viewMode, langcode, _ string) (string, error) {
	if s.renderErr != nil {
		return "", s.renderErr
	}
	return s.rendered[viewMode+"/"+langcode], nil
}

func (s *fakeSource) TaxonomyRelations(context.Context, content.EntityRef, []string) ([]content.Relation, error) {
	return s.relations, nil
}

func fixedNow() time.Time {
	return time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
}

func articleEntity() *content.Entity {
	return &content.Entity{
		EntityRef: content.EntityRef{
			EntityType: "node",
			EntityID:   7,
			EntityUUID: uuid.MustParse("0e3f0b2e-9f44-4d26-9c3a-25c4f0e0a001"),
		},
		Bundle:    "article",
		Langcodes: []string{"en", "de"},
		Labels:    map[string]string{"en": "Hello", "de": "Hallo"},
		FieldValues: map[string]string{
			"field_cta_label": "Click me",
			"field_teaser":    "https://cdn.example.com/teaser.png",
		},
		URL: "/articles/hello",
	}
}

func articleMap() config.EntityMap {
	return config.EntityMap{
		"node": {
			"article": {
				"default": {RenderRole: "anonymous"},
				"teaser": {
					RenderRole:                "anonymous",
					PersonalizationLabelField: "field_cta_label",
					PreviewImageField:         "field_teaser",
				},
			},
		},
	}
}

func newTestBuilder(source content.Source, entities config.EntityMap) *Builder {
	site := config.SiteConfig{BaseURL: "https://example.com"}
	return NewBuilder(slog.Default(), source, entities, site, fixedNow)
}

func TestVariationsViewModesByTranslations(t *testing.T) {
	entity := articleEntity()
	source := &fakeSource{
		entity: entity,
		rendered: map[string]string{
			"default/en": "<article>Hello</article>",
			"default/de": "<article>Hallo</article>",
			"teaser/en":  "<p>Hello</p>",
			"teaser/de":  "<p>Hallo</p>",
		},
	}
	b := newTestBuilder(source, articleMap())

	variations, err := b.Variations(context.Background(), entity.EntityRef, content.LangAll)
	require.NoError(t, err)
	require.Len(t, variations, 4)

	seen := make(map[string]bool)
	for _, v := range variations {
		seen[v.ViewMode+"/"+v.Language] = true
		assert.Equal(t, entity.EntityUUID.String(), v.ContentUUID)
		assert.Equal(t, "article", v.ContentType)
		assert.Equal(t, "https://example.com", v.BaseURL)
		assert.Equal(t, "/articles/hello", v.URL)
		assert.Equal(t, "2025-03-14T09:26:53", v.Updated)
	}
	for _, key := range []string{"default/en", "default/de", "teaser/en", "teaser/de"} {
		assert.True(t, seen[key], key)
	}
}

func TestVariationsSingleLanguage(t *testing.T) {
	entity := articleEntity()
	source := &fakeSource{
		entity: entity,
		rendered: map[string]string{
			"default/de": "<article>Hallo</article>",
			"teaser/de":  "<p>Hallo</p>",
		},
	}
	b := newTestBuilder(source, articleMap())

	variations, err := b.Variations(context.Background(), entity.EntityRef, "de")
	require.NoError(t, err)
	require.Len(t, variations, 2)
	for _, v := range variations {
		assert.Equal(t, "de", v.Language)
	}
}

func TestVariationsLabelOverrideAndPreviewImage(t *testing.T) {
	entity := articleEntity()
	source := &fakeSource{
		entity: entity,
		rendered: map[string]string{
			"default/en": "<article/>",
			"teaser/en":  "<p/>",
		},
	}
	b := newTestBuilder(source, articleMap())

	variations, err := b.Variations(context.Background(), entity.EntityRef, "en")
	require.NoError(t, err)
	require.Len(t, variations, 2)

	byMode := make(map[string]int)
	for i, v := range variations {
		byMode[v.ViewMode] = i
	}
	assert.Equal(t, "Hello", variations[byMode["default"]].Label)
	assert.Empty(t, variations[byMode["default"]].PreviewImage)
	assert.Equal(t, "Click me", variations[byMode["teaser"]].Label)
	assert.Equal(t, "https://cdn.example.com/teaser.png", variations[byMode["teaser"]].PreviewImage)
}

func TestVariationsDefaultLabelFieldIsIgnored(t *testing.T) {
	entity := articleEntity()
	// A field literally named "default" must not override the label; that
	// is the host form's value for "no field selected".
	entity.FieldValues["default"] = "Should not appear"
	source := &fakeSource{
		entity:   entity,
		rendered: map[string]string{"default/en": "<article/>"},
	}
	em := config.EntityMap{
		"node": {
			"article": {
				"default": {RenderRole: "anonymous", PersonalizationLabelField: "default"},
			},
		},
	}
	b := newTestBuilder(source, em)

	variations, err := b.Variations(context.Background(), entity.EntityRef, "en")
	require.NoError(t, err)
	require.Len(t, variations, 1)
	assert.Equal(t, "Hello", variations[0].Label)
}

func TestVariationsInaccessibleRenderGetsPlaceholder(t *testing.T) {
	entity := articleEntity()
	source := &fakeSource{entity: entity} // every render returns ""
	b := newTestBuilder(source, articleMap())

	variations, err := b.Variations(context.Background(), entity.EntityRef, "en")
	require.NoError(t, err)
	require.Len(t, variations, 2)

	for _, v := range variations {
		if v.ViewMode != "default" {
			continue
		}
		assert.Equal(t, "Hello (no content)", v.Label)
		assert.Contains(t, v.RenderedData, "cannot be accessed by the render role anonymous")
	}
}

func TestVariationsVanishedEntityYieldsNothing(t *testing.T) {
	source := &fakeSource{loadErr: content.ErrEntityNotFound}
	b := newTestBuilder(source, articleMap())

	variations, err := b.Variations(context.Background(), articleEntity().EntityRef, content.LangAll)
	require.NoError(t, err)
	assert.Empty(t, variations)
}

func TestVariationsNoTrackableViewModes(t *testing.T) {
	entity := articleEntity()
	entity.Bundle = "page" // not in the map
	source := &fakeSource{entity: entity}
	b := newTestBuilder(source, articleMap())

	variations, err := b.Variations(context.Background(), entity.EntityRef, content.LangAll)
	require.NoError(t, err)
	assert.Empty(t, variations)
}

func TestVariationsRenderFailurePropagates(t *testing.T) {
	entity := articleEntity()
	source := &fakeSource{entity: entity, renderErr: fmt.Errorf("theme crashed")}
	b := newTestBuilder(source, articleMap())

	_, err := b.Variations(context.Background(), entity.EntityRef, "en")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "theme crashed")
}

func TestVariationsTaxonomyRelations(t *testing.T) {
	entity := articleEntity()
	term := uuid.MustParse("6a1e51f0-46a6-4ae2-8d1e-25c4f0e0a002")
	source := &fakeSource{
		entity:    entity,
		rendered:  map[string]string{"default/en": "<article/>", "teaser/en": "<p/>"},
		relations: []content.Relation{{Field: "field_tags", Terms: []uuid.UUID{term}}},
	}
	entities := articleMap()
	entities["taxonomy_term"] = map[string]map[string]config.ViewModeSettings{
		"tags": {"default": {RenderRole: "anonymous"}},
	}
	b := newTestBuilder(source, entities)

	variations, err := b.Variations(context.Background(), entity.EntityRef, "en")
	require.NoError(t, err)
	require.Len(t, variations, 2)
	for _, v := range variations {
		require.Len(t, v.Relations, 1)
		assert.Equal(t, "field_tags", v.Relations[0].Field)
		assert.Equal(t, []string{term.String()}, v.Relations[0].Terms)
	}
}
