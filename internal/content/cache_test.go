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
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSource struct {
	Source
	resolves int
	err      error
}

func (s *countingSource) ResolveUUID(_ context.Context, entityType string, entityID int64) (uuid.UUID, error) {
	s.resolves++
	if s.err != nil {
		return uuid.Nil, s.err
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(entityType)), nil
}

func TestCachingSourceResolvesOnce(t *testing.T) {
	inner := &countingSource{}
	c := NewCachingSource(inner)
	defer c.Stop()

	ctx := context.Background()
	first, err := c.ResolveUUID(ctx, "node", 7)
	require.NoError(t, err)
	second, err := c.ResolveUUID(ctx, "node", 7)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, inner.resolves)
}

func TestCachingSourceDistinctKeys(t *testing.T) {
	inner := &countingSource{}
	c := NewCachingSource(inner)
	defer c.Stop()

	ctx := context.Background()
	_, err := c.ResolveUUID(ctx, "node", 7)
	require.NoError(t, err)
	_, err = c.ResolveUUID(ctx, "node", 8)
	require.NoError(t, err)
	_, err = c.ResolveUUID(ctx, "taxonomy_term", 7)
	require.NoError(t, err)

	assert.Equal(t, 3, inner.resolves)
}

func TestCachingSourceDoesNotCacheFailures(t *testing.T) {
	inner := &countingSource{err: errors.New("storage offline")}
	c := NewCachingSource(inner)
	defer c.Stop()

	ctx := context.Background()
	_, err := c.ResolveUUID(ctx, "node", 7)
	require.Error(t, err)
	_, err = c.ResolveUUID(ctx, "node", 7)
	require.Error(t, err)

	assert.Equal(t, 2, inner.resolves)
}

func TestEntityLabelFallback(t *testing.T) {
	e := &Entity{
		Langcodes: []string{"en", "de"},
		Labels:    map[string]string{"en": "Hello"},
	}
	assert.Equal(t, "Hello", e.Label("en"))
	assert.Equal(t, "Hello", e.Label("de"))
	assert.Equal(t, "Hello", e.Label("fr"))

	empty := &Entity{Langcodes: []string{"en"}}
	assert.Equal(t, "", empty.Label("en"))
}
