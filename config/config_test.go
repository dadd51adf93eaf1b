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

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Site: SiteConfig{
			SiteID:      "site-a",
			AccountID:   "ACME",
			SiteHash:    "abc123",
			Environment: "prod",
			BaseURL:     "https://example.com",
		},
		Queue: QueueConfig{BulkMaxSize: 10},
		Entities: EntityMap{
			"node": {
				"article": {"default": {RenderRole: "anonymous"}},
			},
		},
	}
}

func TestValidateAcceptsGoodConfig(t *testing.T) {
	require.NoError(t, validConfig().Validate())
}

func TestValidateRejectsBadBulkSize(t *testing.T) {
	cfg := validConfig()
	cfg.Queue.BulkMaxSize = 0
	assert.Error(t, cfg.Validate())

	cfg.Queue.BulkMaxSize = -5
	assert.Error(t, cfg.Validate())
}

func TestValidateAccountID(t *testing.T) {
	cfg := validConfig()
	for _, id := range []string{"ACME", "acme_corp", "_internal", "A1"} {
		cfg.Site.AccountID = id
		assert.NoError(t, cfg.Validate(), id)
	}
	for _, id := range []string{"1acme", "acme-corp", "acme corp", "acmé"} {
		cfg.Site.AccountID = id
		assert.Error(t, cfg.Validate(), id)
	}
}

func TestValidateDefaultsEnvironment(t *testing.T) {
	cfg := validConfig()
	cfg.Site.Environment = ""
	require.NoError(t, cfg.Validate())
	assert.Equal(t, DefaultEnvironment, cfg.Site.Environment)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("CONTENTPUSH_SITE_ACCOUNT_ID", "FROMENV")
	t.Setenv("CONTENTPUSH_QUEUE_BULK_MAX_SIZE", "25")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "FROMENV", cfg.Site.AccountID)
	assert.Equal(t, 25, cfg.Queue.BulkMaxSize)
	assert.Equal(t, DefaultEnvironment, cfg.Site.Environment)
}

func TestEntityMapValidate(t *testing.T) {
	good := EntityMap{
		"node": {
			"article": {
				"default":            {RenderRole: "anonymous"},
				PreviewImageViewMode: {PreviewImageField: "field_image"},
			},
		},
	}
	require.NoError(t, good.Validate())

	bad := EntityMap{"Node": {"article": {"default": {}}}}
	assert.Error(t, bad.Validate())

	bad = EntityMap{"node": {"article-1": {"default": {}}}}
	assert.Error(t, bad.Validate())

	bad = EntityMap{"node": {"article": {}}}
	assert.Error(t, bad.Validate())

	bad = EntityMap{"node": {"article": {"Full View": {}}}}
	assert.Error(t, bad.Validate())
}

func TestAvailableBundlesExcludesPreviewImageOnly(t *testing.T) {
	m := EntityMap{
		"node": {
			"article": {"default": {}},
			"gallery": {PreviewImageViewMode: {PreviewImageField: "field_image"}},
			"landing": {
				"default":            {},
				PreviewImageViewMode: {PreviewImageField: "field_hero"},
			},
		},
	}
	assert.Equal(t, []string{"article", "landing"}, m.AvailableBundles("node"))
	assert.Empty(t, m.AvailableBundles("user"))
}

func TestTrackableViewModesFiltersPseudoMode(t *testing.T) {
	m := EntityMap{
		"node": {
			"landing": {
				"teaser":             {},
				"default":            {},
				PreviewImageViewMode: {PreviewImageField: "field_hero"},
			},
		},
	}
	assert.Equal(t, []string{"default", "teaser"}, m.TrackableViewModes("node", "landing"))
	assert.Empty(t, m.TrackableViewModes("node", "missing"))
}

func TestTaxonomyBundles(t *testing.T) {
	m := EntityMap{
		"node": {"article": {"default": {}}},
		TaxonomyEntityType: {
			"tags":   {"default": {}},
			"topics": {"default": {}},
		},
	}
	assert.Equal(t, []string{"tags", "topics"}, m.TaxonomyBundles())
	assert.Empty(t, EntityMap{}.TaxonomyBundles())
}

func TestEntityTypesSorted(t *testing.T) {
	m := EntityMap{
		"user":          {"user": {"default": {}}},
		"node":          {"article": {"default": {}}},
		"taxonomy_term": {"tags": {"default": {}}},
	}
	assert.Equal(t, []string{"node", "taxonomy_term", "user"}, m.EntityTypes())
}
