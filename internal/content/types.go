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
	"github.com/google/uuid"
)

// Action describes what an export work item should do with its entities.
type Action string

const (
	ActionInsertOrUpdate    Action = "insert_or_update"
	ActionDeleteEntity      Action = "delete_entity"
	ActionDeleteTranslation Action = "delete_translation"
)

// LangAll selects every translation of an entity.
const LangAll = "all"

// EntityRef is an immutable reference to one content unit in the host CMS.
// EntityID is the host-storage identifier; EntityUUID is the stable
// cross-system identity and is the only identifier the remote service sees.
type EntityRef struct {
	EntityType string    `json:"entity_type_id"`
	EntityID   int64     `json:"entity_id"`
	EntityUUID uuid.UUID `json:"entity_uuid"`
}

// Entity is the loaded form of an EntityRef, carrying the metadata the
// snapshot builder needs. Field values are flattened to strings by the
// host adapter.
type Entity struct {
	EntityRef
	Bundle string `json:"bundle"`

	// Langcodes lists the translation languages available for this entity,
	// always including the default language.
	Langcodes []string `json:"langcodes"`

	// Labels maps langcode to the entity label in that translation.
	Labels map[string]string `json:"labels"`

	// FieldValues maps field machine names to raw string values. Used for
	// the personalization-label and preview-image settings.
	FieldValues map[string]string `json:"field_values,omitempty"`

	// URL is the canonical path of the entity, or empty for embedded
	// entity types that are not directly addressable.
	URL string `json:"url,omitempty"`
}

// Label returns the entity label for langcode, falling back to the first
// available translation.
func (e *Entity) Label(langcode string) string {
	if l, ok := e.Labels[langcode]; ok {
		return l
	}
	for _, lc := range e.Langcodes {
		if l, ok := e.Labels[lc]; ok {
			return l
		}
	}
	return ""
}

// Relation links a taxonomy reference field to the term UUIDs it holds.
type Relation struct {
	Field string
	Terms []uuid.UUID
}
