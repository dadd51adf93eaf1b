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
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/cardinalhq/contentpush/internal/content"
)

// unclaimed marks a row no worker currently holds.
const unclaimed = -1

// QueueAdd appends one work item and returns its backend-assigned ID.
// Items are never merged; every call creates a new row even when the
// entity lists overlap.
func (q *Store) QueueAdd(ctx context.Context, params QueueAddParams) (int64, error) {
	var id int64
	err := q.execTx(ctx, func(s *Store) error {
		if err := s.queueGlobalLock(ctx); err != nil {
			return err
		}
		var err error
		id, err = s.queueAddDirect(ctx, params)
		return err
	})
	return id, err
}

func (q *Store) queueAddDirect(ctx context.Context, params QueueAddParams) (int64, error) {
	if len(params.Entities) == 0 {
		return 0, errors.New("queue item must contain at least one entity")
	}
	langcode := params.Langcode
	if langcode == "" {
		langcode = content.LangAll
	}
	entities, err := json.Marshal(params.Entities)
	if err != nil {
		return 0, fmt.Errorf("failed to encode entities: %w", err)
	}
	var id int64
	err = q.db.QueryRow(ctx, `
		INSERT INTO export_queue (action, entities, langcode)
		VALUES ($1, $2, $3)
		RETURNING id`,
		string(params.Action), entities, langcode).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// QueueClaim reserves the oldest unclaimed item for workerID. Returns
// ErrNotFound when nothing is claimable. A claimed item stays invisible
// to other workers until it is deleted, released, or requeued.
func (q *Store) QueueClaim(ctx context.Context, workerID int64) (QueueItem, error) {
	var item QueueItem
	err := q.execTx(ctx, func(s *Store) error {
		if err := s.queueGlobalLock(ctx); err != nil {
			return err
		}
		var err error
		item, err = s.queueClaimDirect(ctx, workerID)
		return err
	})
	return item, err
}

func (q *Store) queueClaimDirect(ctx context.Context, workerID int64) (QueueItem, error) {
	var (
		item     QueueItem
		action   string
		entities []byte
	)
	err := q.db.QueryRow(ctx, `
		UPDATE export_queue
		SET claimed_by = $1, claimed_at = now()
		WHERE id = (
			SELECT id FROM export_queue
			WHERE claimed_by = $2
			ORDER BY id
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, action, entities, langcode, created_at`,
		workerID, int64(unclaimed)).Scan(&item.ID, &action, &entities, &item.Langcode, &item.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return QueueItem{}, ErrNotFound
		}
		return QueueItem{}, err
	}
	item.Action = content.Action(action)
	if err := json.Unmarshal(entities, &item.Entities); err != nil {
		return QueueItem{}, fmt.Errorf("failed to decode entities for item %d: %w", item.ID, err)
	}
	return item, nil
}

// QueueDelete removes an item workerID has claimed. Deleting an item a
// different worker holds is an error.
func (q *Store) QueueDelete(ctx context.Context, id, workerID int64) error {
	return q.execTx(ctx, func(s *Store) error {
		if err := s.queueGlobalLock(ctx); err != nil {
			return err
		}
		return s.queueDeleteDirect(ctx, id, workerID)
	})
}

func (q *Store) queueDeleteDirect(ctx context.Context, id, workerID int64) error {
	tag, err := q.db.Exec(ctx, `
		DELETE FROM export_queue
		WHERE id = $1 AND claimed_by = $2`, id, workerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("queue item %d not claimed by worker %d", id, workerID)
	}
	return nil
}

// QueueRelease clears the claim on an item, leaving it in place for a
// future pass. Used for soft failures where nothing was processed.
func (q *Store) QueueRelease(ctx context.Context, id, workerID int64) error {
	return q.execTx(ctx, func(s *Store) error {
		if err := s.queueGlobalLock(ctx); err != nil {
			return err
		}
		tag, err := s.db.Exec(ctx, `
			UPDATE export_queue
			SET claimed_by = $1, claimed_at = NULL
			WHERE id = $2 AND claimed_by = $3`,
			int64(unclaimed), id, workerID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("queue item %d not claimed by worker %d", id, workerID)
		}
		return nil
	})
}

// QueueRequeue atomically deletes a claimed item and appends a copy with
// identical action, entities, and langcode to the back of the queue. The
// returned ID always differs from item.ID; the identity change is the
// observable signal that a retry occurred.
func (q *Store) QueueRequeue(ctx context.Context, item QueueItem, workerID int64) (int64, error) {
	var newID int64
	err := q.execTx(ctx, func(s *Store) error {
		if err := s.queueGlobalLock(ctx); err != nil {
			return err
		}
		if err := s.queueDeleteDirect(ctx, item.ID, workerID); err != nil {
			return err
		}
		var err error
		newID, err = s.queueAddDirect(ctx, QueueAddParams{
			Action:   item.Action,
			Entities: item.Entities,
			Langcode: item.Langcode,
		})
		return err
	})
	return newID, err
}

// QueuePurge deletes the entire queue unconditionally, claimed items
// included.
func (q *Store) QueuePurge(ctx context.Context) error {
	return q.execTx(ctx, func(s *Store) error {
		if err := s.queueGlobalLock(ctx); err != nil {
			return err
		}
		_, err := s.db.Exec(ctx, `DELETE FROM export_queue`)
		return err
	})
}

// QueueDepth returns the current number of items, claimed or not.
func (q *Store) QueueDepth(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, `SELECT COUNT(*) FROM export_queue`).Scan(&n)
	return n, err
}
