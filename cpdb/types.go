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
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/cardinalhq/contentpush/internal/content"
)

// ErrNotFound is returned when a queue claim finds no work or a tracker
// lookup matches no record.
var ErrNotFound = errors.New("not found")

// ExportStatus is the tracked outcome of the latest export attempt.
type ExportStatus string

const (
	StatusExported      ExportStatus = "exported"
	StatusExportTimeout ExportStatus = "export_timeout"
	StatusFailed        ExportStatus = "failed"
)

// QueueItem is one row pulled from export_queue. The ID is assigned by
// the queue backend and changes whenever the item is requeued; callers
// must treat a new ID as a new attempt, never the same one.
type QueueItem struct {
	ID        int64
	Action    content.Action
	Entities  []content.EntityRef
	Langcode  string
	CreatedAt time.Time
}

// QueueAddParams describes a work item to append.
type QueueAddParams struct {
	Action   content.Action
	Entities []content.EntityRef
	Langcode string
}

// TrackerUpsertParams describes one tracking upsert.
type TrackerUpsertParams struct {
	EntityType string
	EntityID   int64
	EntityUUID uuid.UUID
	Langcode   string
	Status     ExportStatus
}

// TrackingRecord is the persisted export status for one entity.
type TrackingRecord struct {
	EntityType string
	EntityID   int64
	EntityUUID uuid.UUID
	Langcode   string
	Status     ExportStatus
	Modified   time.Time
}
