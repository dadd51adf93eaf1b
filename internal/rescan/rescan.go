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

// Package rescan walks the configured entity map and refills the export
// queue with insert_or_update items for every exportable entity. A
// rescan is a full rebuild: it purges whatever the queue still holds so
// the new pass starts from a clean slate.
package rescan

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cardinalhq/contentpush/config"
	"github.com/cardinalhq/contentpush/cpdb"
	"github.com/cardinalhq/contentpush/internal/content"
)

// QueueStore is the slice of the queue API the orchestrator needs.
type QueueStore interface {
	QueueAdd(ctx context.Context, params cpdb.QueueAddParams) (int64, error)
	QueueDepth(ctx context.Context) (int64, error)
	QueuePurge(ctx context.Context) error
}

// Stats summarizes one rescan pass.
type Stats struct {
	// Entities is the number of entity refs enqueued.
	Entities int
	// Items is the number of queue items created.
	Items int
	// Skipped is the number of entities dropped because their UUID
	// could not be resolved.
	Skipped int
	// Purged is the number of stale queue items removed before the
	// pass started.
	Purged int64
}

// Orchestrator enumerates exportable entities and enqueues them in
// bulk-sized batches.
type Orchestrator struct {
	ll          *slog.Logger
	store       QueueStore
	source      content.Source
	entities    config.EntityMap
	bulkMaxSize int
}

func New(ll *slog.Logger, store QueueStore, source content.Source, entities config.EntityMap, bulkMaxSize int) *Orchestrator {
	if bulkMaxSize <= 0 {
		bulkMaxSize = config.DefaultBulkMaxSize
	}
	return &Orchestrator{
		ll:          ll,
		store:       store,
		source:      source,
		entities:    entities,
		bulkMaxSize: bulkMaxSize,
	}
}

// Plan is the set of bulk-sized batches a rescan will enqueue. It can be
// consumed synchronously by Run, or batch by batch through EnqueueBatch
// when an external step runner drives the rescan progressively. Both
// routes produce the same queue end state.
type Plan struct {
	// Batches holds discovery-ordered chunks of at most bulkMaxSize refs.
	Batches [][]content.EntityRef
	// Skipped counts entities dropped because their UUID could not be
	// resolved.
	Skipped int
}

// Run executes a full rescan synchronously. Entities whose UUID cannot
// be resolved are logged and skipped; a source listing failure aborts
// the pass with whatever was already enqueued left in place.
func (o *Orchestrator) Run(ctx context.Context) (Stats, error) {
	var stats Stats

	purged, err := o.PurgeStale(ctx)
	if err != nil {
		return stats, err
	}
	stats.Purged = purged

	plan, err := o.Plan(ctx)
	if err != nil {
		return stats, err
	}
	stats.Skipped = plan.Skipped

	for _, batch := range plan.Batches {
		if err := o.EnqueueBatch(ctx, batch); err != nil {
			return stats, err
		}
		stats.Entities += len(batch)
		stats.Items++
	}

	o.ll.Info("rescan complete",
		slog.Int("entities", stats.Entities),
		slog.Int("items", stats.Items),
		slog.Int("skipped", stats.Skipped))
	return stats, nil
}

// PurgeStale empties the queue if it holds anything, returning the
// number of items removed. A rescan always starts from a clean queue.
func (o *Orchestrator) PurgeStale(ctx context.Context) (int64, error) {
	depth, err := o.store.QueueDepth(ctx)
	if err != nil {
		return 0, fmt.Errorf("queue depth: %w", err)
	}
	if depth == 0 {
		return 0, nil
	}
	if err := o.store.QueuePurge(ctx); err != nil {
		return 0, fmt.Errorf("purge queue: %w", err)
	}
	o.ll.Info("purged stale queue items before rescan", slog.Int64("count", depth))
	return depth, nil
}

// Plan enumerates every exportable entity and partitions the refs into
// batches, preserving discovery order. It does not touch the queue.
func (o *Orchestrator) Plan(ctx context.Context) (Plan, error) {
	var plan Plan

	// Batches fill across entity-type boundaries; only the final batch
	// of the whole pass may be short.
	batch := make([]content.EntityRef, 0, o.bulkMaxSize)
	for _, entityType := range o.entities.EntityTypes() {
		bundles := o.entities.AvailableBundles(entityType)
		if len(bundles) == 0 {
			continue
		}

		ids, err := o.source.ListEntityIDs(ctx, entityType, bundles)
		if err != nil {
			return plan, fmt.Errorf("list %s entities: %w", entityType, err)
		}

		for _, id := range ids {
			// The anonymous user is a system record, never content.
			if entityType == config.UserEntityType && id == 0 {
				continue
			}
			entityUUID, err := o.source.ResolveUUID(ctx, entityType, id)
			if err != nil {
				plan.Skipped++
				o.ll.Warn("skipping entity with unresolvable uuid",
					slog.String("entity_type", entityType),
					slog.Int64("entity_id", id),
					slog.Any("error", err))
				continue
			}
			batch = append(batch, content.EntityRef{
				EntityType: entityType,
				EntityID:   id,
				EntityUUID: entityUUID,
			})
			if len(batch) >= o.bulkMaxSize {
				plan.Batches = append(plan.Batches, batch)
				batch = make([]content.EntityRef, 0, o.bulkMaxSize)
			}
		}
	}
	if len(batch) > 0 {
		plan.Batches = append(plan.Batches, batch)
	}
	return plan, nil
}

// EnqueueBatch appends one planned batch as a queue item.
func (o *Orchestrator) EnqueueBatch(ctx context.Context, batch []content.EntityRef) error {
	if len(batch) == 0 {
		return nil
	}
	if _, err := o.store.QueueAdd(ctx, cpdb.QueueAddParams{
		Action:   content.ActionInsertOrUpdate,
		Entities: batch,
		Langcode: content.LangAll,
	}); err != nil {
		return fmt.Errorf("enqueue batch of %d: %w", len(batch), err)
	}
	return nil
}
