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

// Package snapshot expands entity references into the rendered variation
// payloads the personalization service consumes. One entity with N
// trackable view modes and M translations produces N*M variations.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cardinalhq/contentpush/config"
	"github.com/cardinalhq/contentpush/internal/content"
	"github.com/cardinalhq/contentpush/internal/perzapi"
)

// updatedFormat is the timestamp layout the remote API expects.
const updatedFormat = "2006-01-02T15:04:05"

// Builder renders entity variations using the host CMS source and the
// configured view-mode map.
type Builder struct {
	ll       *slog.Logger
	source   content.Source
	entities config.EntityMap
	site     config.SiteConfig
	now      func() time.Time
}

// NewBuilder constructs a Builder. now may be nil, in which case
// time.Now is used.
func NewBuilder(ll *slog.Logger, source content.Source, entities config.EntityMap, site config.SiteConfig, now func() time.Time) *Builder {
	if now == nil {
		now = time.Now
	}
	return &Builder{
		ll:       ll,
		source:   source,
		entities: entities,
		site:     site,
		now:      now,
	}
}

// Variations builds all variation payloads for ref. langcode selects one
// translation, or content.LangAll for every translation. An entity that
// no longer exists, or whose bundle has no trackable view modes, yields
// an empty slice without error.
func (b *Builder) Variations(ctx context.Context, ref content.EntityRef, langcode string) ([]perzapi.Variation, error) {
	entity, err := b.source.LoadEntity(ctx, ref.EntityType, ref.EntityID)
	if err != nil {
		if errors.Is(err, content.ErrEntityNotFound) {
			b.ll.Warn("entity vanished before export",
				slog.String("entity_type", ref.EntityType),
				slog.Int64("entity_id", ref.EntityID))
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load %s/%d: %w", ref.EntityType, ref.EntityID, err)
	}

	viewModes := b.entities.TrackableViewModes(ref.EntityType, entity.Bundle)
	if len(viewModes) == 0 {
		return nil, nil
	}

	langcodes := []string{langcode}
	if langcode == content.LangAll {
		langcodes = entity.Langcodes
	}

	relations, err := b.relations(ctx, ref)
	if err != nil {
		return nil, err
	}

	var variations []perzapi.Variation
	for _, viewMode := range viewModes {
		settings, _ := b.entities.ViewModeSettings(ref.EntityType, entity.Bundle, viewMode)
		for _, lc := range langcodes {
			v, err := b.buildOne(ctx, entity, viewMode, lc, settings)
			if err != nil {
				return nil, err
			}
			v.Relations = relations
			variations = append(variations, v)
		}
	}
	return variations, nil
}

func (b *Builder) buildOne(ctx context.Context, entity *content.Entity, viewMode, langcode string, settings config.ViewModeSettings) (perzapi.Variation, error) {
	rendered, err := b.source.RenderView(ctx, entity.EntityRef, viewMode, langcode, settings.RenderRole)
	if err != nil {
		return perzapi.Variation{}, fmt.Errorf("failed to render %s/%d view mode %s: %w",
			entity.EntityType, entity.EntityID, viewMode, err)
	}

	label := entity.Label(langcode)
	if rendered == "" {
		label += " (no content)"
		rendered = fmt.Sprintf("<!-- DEBUG: this content cannot be accessed by the render role %s -->", settings.RenderRole)
	}
	// "default" is the host form's no-selection value, not a field name.
	if field := settings.PersonalizationLabelField; field != "" && field != "default" {
		if override := entity.FieldValues[field]; override != "" {
			label = override
		}
	}

	var previewImage string
	if settings.PreviewImageField != "" {
		previewImage = entity.FieldValues[settings.PreviewImageField]
	}

	return perzapi.Variation{
		ContentUUID:  entity.EntityUUID.String(),
		ContentType:  entity.Bundle,
		ViewMode:     viewMode,
		Language:     langcode,
		Label:        label,
		Updated:      b.now().UTC().Format(updatedFormat),
		RenderedData: rendered,
		BaseURL:      b.site.BaseURL,
		URL:          entity.URL,
		PreviewImage: previewImage,
	}, nil
}

func (b *Builder) relations(ctx context.Context, ref content.EntityRef) ([]perzapi.Relation, error) {
	taxonomyBundles := b.entities.TaxonomyBundles()
	if len(taxonomyBundles) == 0 {
		return nil, nil
	}
	rels, err := b.source.TaxonomyRelations(ctx, ref, taxonomyBundles)
	if err != nil {
		return nil, fmt.Errorf("failed to collect taxonomy relations for %s/%d: %w", ref.EntityType, ref.EntityID, err)
	}
	if len(rels) == 0 {
		return nil, nil
	}
	out := make([]perzapi.Relation, 0, len(rels))
	for _, rel := range rels {
		terms := make([]string, 0, len(rel.Terms))
		for _, t := range rel.Terms {
			terms = append(terms, t.String())
		}
		out = append(out, perzapi.Relation{Field: rel.Field, Terms: terms})
	}
	return out, nil
}
