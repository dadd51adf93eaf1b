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

package perzapi

import "context"

// Variation is one rendered snapshot of an entity for a view mode and
// language combination, the unit the remote push API accepts.
type Variation struct {
	ContentUUID  string     `json:"content_uuid"`
	ContentType  string     `json:"content_type"`
	ViewMode     string     `json:"view_mode"`
	Language     string     `json:"language"`
	NumberView   int        `json:"number_view"`
	Label        string     `json:"label"`
	Updated      string     `json:"updated"`
	RenderedData string     `json:"rendered_data"`
	BaseURL      string     `json:"base_url"`
	URL          string     `json:"url,omitempty"`
	PreviewImage string     `json:"preview_image,omitempty"`
	Relations    []Relation `json:"relations,omitempty"`
}

// Relation links a taxonomy reference field to the term UUIDs it holds.
type Relation struct {
	Field string   `json:"field"`
	Terms []string `json:"terms"`
}

// PutRequest is one bulk variation push.
type PutRequest struct {
	AccountID   string
	Origin      string
	Environment string
	Variations  []Variation
}

// DeleteCriteria scopes a remote delete. An empty ContentUUID deletes
// every variation pushed by Origin; an empty Origin widens that to the
// entire account.
type DeleteCriteria struct {
	AccountID   string
	Origin      string
	Environment string
	ContentUUID string
	Language    string
	ViewMode    string
}

// PushClient is the remote personalization API surface the exporter
// consumes.
type PushClient interface {
	PutVariations(ctx context.Context, req PutRequest) error
	DeleteEntities(ctx context.Context, criteria DeleteCriteria) error
}
