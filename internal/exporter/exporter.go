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

// Package exporter drains the export queue into the personalization
// service and records per-entity outcomes in the export tracker.
//
// The retry policy is deliberate: a transport failure marks the item's
// entities export_timeout and requeues the item under a new identity.
// Retries are unbounded with no backoff; a periodic drain (cron, the
// watch command) is the scheduler that keeps re-attempting.
package exporter

import (
	"context"
	"log/slog"

	"github.com/cardinalhq/contentpush/config"
	"github.com/cardinalhq/contentpush/cpdb"
	"github.com/cardinalhq/contentpush/internal/content"
	"github.com/cardinalhq/contentpush/internal/perzapi"
)

// QueueStore defines the export queue operations the exporter needs.
type QueueStore interface {
	QueueAdd(ctx context.Context, params cpdb.QueueAddParams) (int64, error)
	QueueClaim(ctx context.Context, workerID int64) (cpdb.QueueItem, error)
	QueueDelete(ctx context.Context, id, workerID int64) error
	QueueRelease(ctx context.Context, id, workerID int64) error
	QueueRequeue(ctx context.Context, item cpdb.QueueItem, workerID int64) (int64, error)
	QueueDepth(ctx context.Context) (int64, error)
}

// TrackerStore defines the export tracker operations the exporter needs.
type TrackerStore interface {
	TrackerUpsert(ctx context.Context, params cpdb.TrackerUpsertParams) error
	TrackerClear(ctx context.Context, entityType string, entityID int64) error
}

// Store combines the queue and tracker surfaces; *cpdb.Store satisfies it.
type Store interface {
	QueueStore
	TrackerStore
}

// VariationSource expands an entity ref into push payloads. Implemented
// by snapshot.Builder.
type VariationSource interface {
	Variations(ctx context.Context, ref content.EntityRef, langcode string) ([]perzapi.Variation, error)
}

// Exporter orchestrates claim, push, track, and requeue. It holds no
// work item state beyond a single processing step.
type Exporter struct {
	ll       *slog.Logger
	store    Store
	builder  VariationSource
	client   perzapi.PushClient
	site     config.SiteConfig
	workerID int64
}

func New(ll *slog.Logger, store Store, builder VariationSource, client perzapi.PushClient, site config.SiteConfig, workerID int64) *Exporter {
	return &Exporter{
		ll:       ll,
		store:    store,
		builder:  builder,
		client:   client,
		site:     site,
		workerID: workerID,
	}
}

// ExportEntity pushes all variations of one entity inline. On transport
// failure the entity is marked export_timeout and a retry item is
// enqueued; the returned status is then StatusFailed with a nil error.
// Any other failure is terminal and returned to the caller.
func (e *Exporter) ExportEntity(ctx context.Context, ref content.EntityRef, langcode string) (cpdb.ExportStatus, error) {
	if langcode == "" {
		langcode = content.LangAll
	}
	variations, err := e.builder.Variations(ctx, ref, langcode)
	if err != nil {
		return cpdb.StatusFailed, err
	}
	if len(variations) == 0 {
		return cpdb.StatusFailed, nil
	}

	err = e.client.PutVariations(ctx, perzapi.PutRequest{
		AccountID:   e.site.AccountID,
		Origin:      e.site.SiteHash,
		Environment: e.site.Environment,
		Variations:  variations,
	})
	if perzapi.IsTransport(err) {
		if terr := e.store.TrackerUpsert(ctx, cpdb.TrackerUpsertParams{
			EntityType: ref.EntityType,
			EntityID:   ref.EntityID,
			EntityUUID: ref.EntityUUID,
			Langcode:   langcode,
			Status:     cpdb.StatusExportTimeout,
		}); terr != nil {
			return cpdb.StatusFailed, terr
		}
		if _, qerr := e.store.QueueAdd(ctx, cpdb.QueueAddParams{
			Action:   content.ActionInsertOrUpdate,
			Entities: []content.EntityRef{ref},
			Langcode: langcode,
		}); qerr != nil {
			return cpdb.StatusFailed, qerr
		}
		e.ll.Warn("export transport failure, entity queued for retry",
			slog.String("entity_type", ref.EntityType),
			slog.Int64("entity_id", ref.EntityID))
		return cpdb.StatusFailed, nil
	}
	if err != nil {
		return cpdb.StatusFailed, err
	}

	if err := e.store.TrackerUpsert(ctx, cpdb.TrackerUpsertParams{
		EntityType: ref.EntityType,
		EntityID:   ref.EntityID,
		EntityUUID: ref.EntityUUID,
		Langcode:   langcode,
		Status:     cpdb.StatusExported,
	}); err != nil {
		return cpdb.StatusFailed, err
	}
	return cpdb.StatusExported, nil
}

// DeleteEntity removes all remote variations of an entity and clears its
// tracking rows. On transport failure a delete item is enqueued for
// retry.
func (e *Exporter) DeleteEntity(ctx context.Context, ref content.EntityRef, langcode string) (cpdb.ExportStatus, error) {
	language := langcode
	if language == content.LangAll {
		// Queue-internal sentinel; the remote treats no language as all.
		language = ""
	}
	err := e.client.DeleteEntities(ctx, perzapi.DeleteCriteria{
		AccountID:   e.site.AccountID,
		Origin:      e.site.SiteHash,
		Environment: e.site.Environment,
		ContentUUID: ref.EntityUUID.String(),
		Language:    language,
	})
	if perzapi.IsTransport(err) {
		if _, qerr := e.store.QueueAdd(ctx, cpdb.QueueAddParams{
			Action:   content.ActionDeleteEntity,
			Entities: []content.EntityRef{ref},
			Langcode: langcode,
		}); qerr != nil {
			return cpdb.StatusFailed, qerr
		}
		e.ll.Warn("delete transport failure, entity queued for retry",
			slog.String("entity_type", ref.EntityType),
			slog.Int64("entity_id", ref.EntityID))
		return cpdb.StatusFailed, nil
	}
	if err != nil {
		return cpdb.StatusFailed, err
	}

	if err := e.store.TrackerClear(ctx, ref.EntityType, ref.EntityID); err != nil {
		return cpdb.StatusFailed, err
	}
	return cpdb.StatusExported, nil
}

// DeleteTranslation removes one translation's remote variations. The
// entity keeps its tracking rows; only the translation is gone remotely.
func (e *Exporter) DeleteTranslation(ctx context.Context, ref content.EntityRef, langcode string) (cpdb.ExportStatus, error) {
	err := e.client.DeleteEntities(ctx, perzapi.DeleteCriteria{
		AccountID:   e.site.AccountID,
		Origin:      e.site.SiteHash,
		Environment: e.site.Environment,
		ContentUUID: ref.EntityUUID.String(),
		Language:    langcode,
	})
	if perzapi.IsTransport(err) {
		if _, qerr := e.store.QueueAdd(ctx, cpdb.QueueAddParams{
			Action:   content.ActionDeleteTranslation,
			Entities: []content.EntityRef{ref},
			Langcode: langcode,
		}); qerr != nil {
			return cpdb.StatusFailed, qerr
		}
		e.ll.Warn("translation delete transport failure, queued for retry",
			slog.String("entity_type", ref.EntityType),
			slog.Int64("entity_id", ref.EntityID),
			slog.String("langcode", langcode))
		return cpdb.StatusFailed, nil
	}
	if err != nil {
		return cpdb.StatusFailed, err
	}
	return cpdb.StatusExported, nil
}
