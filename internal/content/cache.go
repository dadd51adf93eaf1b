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
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jellydator/ttlcache/v3"
)

const uuidCacheTTL = 5 * time.Minute

// CachingSource wraps a Source and caches UUID resolution. A full rescan
// resolves every tracked entity once; the cache keeps repeated rescans and
// the single-entity paths from hammering the host storage.
type CachingSource struct {
	Source
	uuids *ttlcache.Cache[string, uuid.UUID]
}

func NewCachingSource(src Source) *CachingSource {
	cache := ttlcache.New(
		ttlcache.WithTTL[string, uuid.UUID](uuidCacheTTL),
		ttlcache.WithDisableTouchOnHit[string, uuid.UUID](),
		ttlcache.WithCapacity[string, uuid.UUID](100_000),
	)
	go cache.Start()
	return &CachingSource{Source: src, uuids: cache}
}

func (c *CachingSource) ResolveUUID(ctx context.Context, entityType string, entityID int64) (uuid.UUID, error) {
	key := fmt.Sprintf("%s:%d", entityType, entityID)
	if item := c.uuids.Get(key); item != nil {
		return item.Value(), nil
	}
	id, err := c.Source.ResolveUUID(ctx, entityType, entityID)
	if err != nil {
		return uuid.Nil, err
	}
	c.uuids.Set(key, id, ttlcache.DefaultTTL)
	return id, nil
}

// Stop shuts down the cache janitor.
func (c *CachingSource) Stop() {
	c.uuids.Stop()
}
