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

package exporter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hashicorp/go-multierror"

	"github.com/cardinalhq/contentpush/cpdb"
	"github.com/cardinalhq/contentpush/internal/content"
	"github.com/cardinalhq/contentpush/internal/perzapi"
)

// StepResult reports what a single drain step did with the queue.
type StepResult int

const (
	// StepIdle means the queue had no unclaimed items.
	StepIdle StepResult = iota
	// StepProcessed means an item was pushed and deleted from the queue.
	StepProcessed
	// StepRequeued means an item hit a transport failure and was
	// reinserted under a new identity.
	StepRequeued
	// StepSkipped means an item produced nothing to push and its claim
	// was released.
	StepSkipped
)

func (s StepResult) String() string {
	switch s {
	case StepIdle:
		return "idle"
	case StepProcessed:
		return "processed"
	case StepRequeued:
		return "requeued"
	case StepSkipped:
		return "skipped"
	default:
		return fmt.Sprintf("StepResult(%d)", int(s))
	}
}

// DrainSummary aggregates the outcomes of one DrainQueue pass.
type DrainSummary struct {
	Processed int
	Requeued  int
	Skipped   int
}

// DrainQueue processes queue items until the queue is empty or the pass
// budget is spent. The budget is the queue depth observed at entry, so
// items requeued during the pass are left for the next pass instead of
// being retried in a tight loop. Item-level application errors release
// the claim and are aggregated; they do not stop the pass.
func (e *Exporter) DrainQueue(ctx context.Context) (DrainSummary, error) {
	var summary DrainSummary

	depth, err := e.store.QueueDepth(ctx)
	if err != nil {
		return summary, fmt.Errorf("queue depth: %w", err)
	}

	var errs *multierror.Error
	for i := int64(0); i < depth; i++ {
		if ctx.Err() != nil {
			errs = multierror.Append(errs, ctx.Err())
			break
		}
		result, err := e.drainOne(ctx)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		switch result {
		case StepIdle:
			return summary, errs.ErrorOrNil()
		case StepProcessed:
			summary.Processed++
		case StepRequeued:
			summary.Requeued++
		case StepSkipped:
			summary.Skipped++
		}
	}
	return summary, errs.ErrorOrNil()
}

// Step claims and processes exactly one queue item. External step
// runners (cron ticks, progress UIs) call this repeatedly; DrainQueue is
// the tight-loop equivalent.
func (e *Exporter) Step(ctx context.Context) (StepResult, error) {
	return e.drainOne(ctx)
}

// drainOne claims one queue item and runs it to a terminal outcome:
// delete on success, requeue on transport failure, release on anything
// else. The claim is never left dangling.
func (e *Exporter) drainOne(ctx context.Context) (StepResult, error) {
	item, err := e.store.QueueClaim(ctx, e.workerID)
	if err != nil {
		if errors.Is(err, cpdb.ErrNotFound) {
			return StepIdle, nil
		}
		return StepIdle, fmt.Errorf("claim: %w", err)
	}

	processed, err := e.processItem(ctx, item)
	if perzapi.IsTransport(err) {
		if item.Action == content.ActionInsertOrUpdate {
			for _, ref := range item.Entities {
				if terr := e.store.TrackerUpsert(ctx, cpdb.TrackerUpsertParams{
					EntityType: ref.EntityType,
					EntityID:   ref.EntityID,
					EntityUUID: ref.EntityUUID,
					Langcode:   item.Langcode,
					Status:     cpdb.StatusExportTimeout,
				}); terr != nil {
					e.releaseQuietly(ctx, item)
					return StepSkipped, fmt.Errorf("mark export_timeout for %s %d: %w", ref.EntityType, ref.EntityID, terr)
				}
			}
		}
		newID, qerr := e.store.QueueRequeue(ctx, item, e.workerID)
		if qerr != nil {
			return StepSkipped, fmt.Errorf("requeue item %d: %w", item.ID, qerr)
		}
		e.ll.Warn("transport failure, item requeued",
			slog.Int64("item_id", item.ID),
			slog.Int64("new_item_id", newID),
			slog.String("action", string(item.Action)))
		return StepRequeued, nil
	}
	if err != nil {
		e.releaseQuietly(ctx, item)
		return StepSkipped, fmt.Errorf("process item %d: %w", item.ID, err)
	}
	if processed == 0 {
		if rerr := e.store.QueueRelease(ctx, item.ID, e.workerID); rerr != nil {
			return StepSkipped, fmt.Errorf("release item %d: %w", item.ID, rerr)
		}
		e.ll.Info("queue item produced nothing to push",
			slog.Int64("item_id", item.ID),
			slog.String("action", string(item.Action)))
		return StepSkipped, nil
	}

	if err := e.store.QueueDelete(ctx, item.ID, e.workerID); err != nil {
		return StepSkipped, fmt.Errorf("delete item %d: %w", item.ID, err)
	}
	e.ll.Info("queue item processed",
		slog.Int64("item_id", item.ID),
		slog.String("action", string(item.Action)),
		slog.Int("entities", processed))
	return StepProcessed, nil
}

// processItem pushes or deletes the item's entities remotely and updates
// the tracker for each. Returns the number of entities that reached a
// terminal tracked state. A *perzapi.TransportError passes through
// untouched so the caller can requeue.
func (e *Exporter) processItem(ctx context.Context, item cpdb.QueueItem) (int, error) {
	switch item.Action {
	case content.ActionInsertOrUpdate:
		return e.pushEntities(ctx, item)
	case content.ActionDeleteEntity:
		return e.deleteEntities(ctx, item, true)
	case content.ActionDeleteTranslation:
		return e.deleteEntities(ctx, item, false)
	default:
		return 0, fmt.Errorf("unknown queue action %q", item.Action)
	}
}

func (e *Exporter) pushEntities(ctx context.Context, item cpdb.QueueItem) (int, error) {
	var (
		variations []perzapi.Variation
		exported   []content.EntityRef
	)
	for _, ref := range item.Entities {
		vs, err := e.builder.Variations(ctx, ref, item.Langcode)
		if err != nil {
			return 0, fmt.Errorf("build variations for %s %d: %w", ref.EntityType, ref.EntityID, err)
		}
		if len(vs) == 0 {
			continue
		}
		variations = append(variations, vs...)
		exported = append(exported, ref)
	}
	if len(variations) == 0 {
		return 0, nil
	}

	if err := e.client.PutVariations(ctx, perzapi.PutRequest{
		AccountID:   e.site.AccountID,
		Origin:      e.site.SiteHash,
		Environment: e.site.Environment,
		Variations:  variations,
	}); err != nil {
		return 0, err
	}

	for _, ref := range exported {
		if err := e.store.TrackerUpsert(ctx, cpdb.TrackerUpsertParams{
			EntityType: ref.EntityType,
			EntityID:   ref.EntityID,
			EntityUUID: ref.EntityUUID,
			Langcode:   item.Langcode,
			Status:     cpdb.StatusExported,
		}); err != nil {
			return 0, fmt.Errorf("track export of %s %d: %w", ref.EntityType, ref.EntityID, err)
		}
	}
	return len(exported), nil
}

func (e *Exporter) deleteEntities(ctx context.Context, item cpdb.QueueItem, clearTracking bool) (int, error) {
	n := 0
	// "all" is a queue-internal sentinel, not a remote language; an
	// unscoped delete covers every translation.
	language := item.Langcode
	if language == content.LangAll {
		language = ""
	}
	for _, ref := range item.Entities {
		criteria := perzapi.DeleteCriteria{
			AccountID:   e.site.AccountID,
			Origin:      e.site.SiteHash,
			Environment: e.site.Environment,
			ContentUUID: ref.EntityUUID.String(),
			Language:    language,
		}
		if err := e.client.DeleteEntities(ctx, criteria); err != nil {
			return 0, err
		}
		if clearTracking {
			if err := e.store.TrackerClear(ctx, ref.EntityType, ref.EntityID); err != nil {
				return 0, fmt.Errorf("clear tracking for %s %d: %w", ref.EntityType, ref.EntityID, err)
			}
		}
		n++
	}
	return n, nil
}

func (e *Exporter) releaseQuietly(ctx context.Context, item cpdb.QueueItem) {
	if err := e.store.QueueRelease(ctx, item.ID, e.workerID); err != nil {
		e.ll.Error("failed to release queue item",
			slog.Int64("item_id", item.ID),
			slog.Any("error", err))
	}
}
