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

package config

import (
	"fmt"
	"regexp"
	"sort"
)

// PreviewImageViewMode is the reserved pseudo-view-mode that only
// designates a thumbnail field. A bundle whose sole configured view mode
// is this one has nothing exportable.
const PreviewImageViewMode = "preview_image"

// TaxonomyEntityType is the entity type whose configured bundles define
// which taxonomy references are tracked as relations.
const TaxonomyEntityType = "taxonomy_term"

// UserEntityType is the entity type whose ID 0 is the anonymous user,
// which is never exported.
const UserEntityType = "user"

// ViewModeSettings configures how one view mode of a bundle is exported.
type ViewModeSettings struct {
	// RenderRole is the role the rendering runs as. Empty means anonymous.
	RenderRole string `mapstructure:"render_role"`

	// PreviewImageField names the field supplying the preview thumbnail.
	PreviewImageField string `mapstructure:"preview_image"`

	// PersonalizationLabelField names the field that overrides the entity
	// label in the exported variation.
	PersonalizationLabelField string `mapstructure:"personalization_label"`
}

// EntityMap is the typed entity-type -> bundle -> view-mode configuration.
type EntityMap map[string]map[string]map[string]ViewModeSettings

var machineNamePattern = regexp.MustCompile(`^[a-z0-9_]+$`)

// Validate rejects malformed map entries up front.
func (m EntityMap) Validate() error {
	for entityType, bundles := range m {
		if !machineNamePattern.MatchString(entityType) {
			return fmt.Errorf("entities: invalid entity type name %q", entityType)
		}
		for bundle, viewModes := range bundles {
			if !machineNamePattern.MatchString(bundle) {
				return fmt.Errorf("entities.%s: invalid bundle name %q", entityType, bundle)
			}
			if len(viewModes) == 0 {
				return fmt.Errorf("entities.%s.%s: no view modes configured", entityType, bundle)
			}
			for viewMode := range viewModes {
				if !machineNamePattern.MatchString(viewMode) {
					return fmt.Errorf("entities.%s.%s: invalid view mode name %q", entityType, bundle, viewMode)
				}
			}
		}
	}
	return nil
}

// EntityTypes returns the configured entity type names, sorted.
func (m EntityMap) EntityTypes() []string {
	types := make([]string, 0, len(m))
	for t := range m {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// AvailableBundles returns the bundles of entityType that have at least
// one trackable view mode, sorted. A bundle whose only view mode is the
// preview-image pseudo-view-mode is excluded.
func (m EntityMap) AvailableBundles(entityType string) []string {
	var bundles []string
	for bundle, viewModes := range m[entityType] {
		if len(viewModes) == 1 {
			if _, only := viewModes[PreviewImageViewMode]; only {
				continue
			}
		}
		bundles = append(bundles, bundle)
	}
	sort.Strings(bundles)
	return bundles
}

// TrackableViewModes returns the exportable view modes configured for
// (entityType, bundle), sorted, with the preview-image pseudo-view-mode
// filtered out.
func (m EntityMap) TrackableViewModes(entityType, bundle string) []string {
	var modes []string
	for viewMode := range m[entityType][bundle] {
		if viewMode == PreviewImageViewMode {
			continue
		}
		modes = append(modes, viewMode)
	}
	sort.Strings(modes)
	return modes
}

// ViewModeSettings returns the settings for one view mode of a bundle.
func (m EntityMap) ViewModeSettings(entityType, bundle, viewMode string) (ViewModeSettings, bool) {
	s, ok := m[entityType][bundle][viewMode]
	return s, ok
}

// TaxonomyBundles returns the configured taxonomy vocabularies, sorted.
// Only terms in these vocabularies are emitted as relations.
func (m EntityMap) TaxonomyBundles() []string {
	bundles := make([]string, 0, len(m[TaxonomyEntityType]))
	for bundle := range m[TaxonomyEntityType] {
		bundles = append(bundles, bundle)
	}
	sort.Strings(bundles)
	return bundles
}
