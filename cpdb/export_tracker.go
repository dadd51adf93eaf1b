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

package cpdb

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// TrackerUpsert records the outcome of an export attempt. The
// (entity_type, entity_id) tuple is the natural key: re-exporting the
// same entity updates the existing record and refreshes its modified
// timestamp, it never duplicates it.
func (q *Store) TrackerUpsert(ctx context.Context, params TrackerUpsertParams) error {
	_, err := q.db.Exec(ctx, `
		INSERT INTO export_tracker (entity_type, entity_id, entity_uuid, langcode, status, modified)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (entity_type, entity_id) DO UPDATE
		SET entity_uuid = EXCLUDED.entity_uuid,
		    langcode = EXCLUDED.langcode,
		    status = EXCLUDED.status,
		    modified = now()`,
		params.EntityType, params.EntityID, params.EntityUUID, params.Langcode, string(params.Status))
	return err
}

// TrackerExportTimeout marks an entity as having timed out during export.
func (q *Store) TrackerExportTimeout(ctx context.Context, entityType string, entityID int64, entityUUID uuid.UUID, langcode string) error {
	return q.TrackerUpsert(ctx, TrackerUpsertParams{
		EntityType: entityType,
		EntityID:   entityID,
		EntityUUID: entityUUID,
		Langcode:   langcode,
		Status:     StatusExportTimeout,
	})
}

// TrackerGet looks up the tracking record by entity UUID. Returns
// ErrNotFound when the entity has never been exported.
func (q *Store) TrackerGet(ctx context.Context, entityUUID uuid.UUID) (TrackingRecord, error) {
	var (
		rec    TrackingRecord
		status string
	)
	err := q.db.QueryRow(ctx, `
		SELECT entity_type, entity_id, entity_uuid, langcode, status, modified
		FROM export_tracker
		WHERE entity_uuid = $1`,
		entityUUID).Scan(&rec.EntityType, &rec.EntityID, &rec.EntityUUID, &rec.Langcode, &status, &rec.Modified)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return TrackingRecord{}, ErrNotFound
		}
		return TrackingRecord{}, err
	}
	rec.Status = ExportStatus(status)
	return rec, nil
}

// TrackerClear deletes the tracking rows for an entity across all
// languages. Called when the entity is permanently removed from tracking
// scope.
func (q *Store) TrackerClear(ctx context.Context, entityType string, entityID int64) error {
	_, err := q.db.Exec(ctx, `
		DELETE FROM export_tracker
		WHERE entity_type = $1 AND entity_id = $2`,
		entityType, entityID)
	return err
}
