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
	"errors"

	"github.com/google/uuid"
)

// ErrEntityNotFound is returned by Source implementations when the
// referenced entity does not exist in the host CMS.
var ErrEntityNotFound = errors.New("entity not found")

// Source is the host-CMS side of the export pipeline. Implementations
// adapt the CMS entity storage, rendering pipeline, and access control;
// none of that lives in this module.
type Source interface {
	// ListEntityIDs enumerates entity IDs of entityType, restricted to the
	// given bundles. An empty bundle list means the entity type has no
	// bundle key and no restriction applies. Callers filter out
	// system-internal records such as the anonymous user.
	ListEntityIDs(ctx context.Context, entityType string, bundles []string) ([]int64, error)

	// ResolveUUID maps a host-storage ID to the stable entity UUID.
	ResolveUUID(ctx context.Context, entityType string, entityID int64) (uuid.UUID, error)

	// LoadEntity loads the entity and its translation metadata.
	LoadEntity(ctx context.Context, entityType string, entityID int64) (*Entity, error)

	// RenderView renders one view mode of the entity in langcode, as seen
	// by renderRole. Returns empty HTML without error when the role cannot
	// access the entity.
	RenderView(ctx context.Context, ref EntityRef, viewMode, langcode, renderRole string) (string, error)

	// TaxonomyRelations returns the taxonomy reference fields of the entity
	// whose target bundles intersect taxonomyBundles, with term UUIDs
	// filtered to those bundles.
	TaxonomyRelations(ctx context.Context, ref EntityRef, taxonomyBundles []string) ([]Relation, error)
}
