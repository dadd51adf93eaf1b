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

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cardinalhq/contentpush/config"
)

const userAgent = "contentpush"

// Client talks to the personalization service over HTTPS. Request
// signing is handled upstream of this module; the client sends a bearer
// API key.
type Client struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
}

var _ PushClient = (*Client)(nil)

// NewClient builds a Client from the API configuration.
func NewClient(cfg config.APIConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		endpoint:   strings.TrimRight(cfg.Endpoint, "/"),
		apiKey:     cfg.APIKey,
	}
}

type putVariationsBody struct {
	Origin      string      `json:"origin"`
	Environment string      `json:"environment"`
	Variations  []Variation `json:"variations"`
}

// PutVariations pushes a bulk of variations for one origin.
func (c *Client) PutVariations(ctx context.Context, req PutRequest) error {
	body, err := json.Marshal(putVariationsBody{
		Origin:      req.Origin,
		Environment: req.Environment,
		Variations:  req.Variations,
	})
	if err != nil {
		return fmt.Errorf("failed to encode variations: %w", err)
	}

	u := fmt.Sprintf("%s/v3/accounts/%s/variations", c.endpoint, url.PathEscape(req.AccountID))
	return c.do(ctx, http.MethodPut, u, body)
}

// DeleteEntities deletes remote variations matching the criteria.
func (c *Client) DeleteEntities(ctx context.Context, criteria DeleteCriteria) error {
	q := url.Values{}
	q.Set("environment", criteria.Environment)
	if criteria.Origin != "" {
		q.Set("origin", criteria.Origin)
	}
	if criteria.ContentUUID != "" {
		q.Set("content_uuid", criteria.ContentUUID)
	}
	if criteria.Language != "" {
		q.Set("language", criteria.Language)
	}
	if criteria.ViewMode != "" {
		q.Set("view_mode", criteria.ViewMode)
	}

	u := fmt.Sprintf("%s/v3/accounts/%s/variations?%s", c.endpoint, url.PathEscape(criteria.AccountID), q.Encode())
	return c.do(ctx, http.MethodDelete, u, nil)
}

func (c *Client) do(ctx context.Context, method, u string, body []byte) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Context cancellation is the caller's doing, not the network's.
		if errors.Is(err, context.Canceled) {
			return err
		}
		return &TransportError{Err: err}
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	return nil
}
