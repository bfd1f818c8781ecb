package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/kareemschultz/masjidconnect-gy-sub000/internal/types/syncrow"
)

// Client talks to the remote record store over its REST surface:
// GET /api/v1/records for the full row set, PUT /api/v1/records/{date}
// for an idempotent per-date upsert. The bearer token identifies the
// user; the remote resolves it the same way the tracker API does.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func (c *Client) FetchAll(ctx context.Context) ([]syncrow.Row, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/records", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build fetch request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch remote rows: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("remote fetch returned status %d", resp.StatusCode)
	}

	var rows []syncrow.Row
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("failed to decode remote rows: %w", err)
	}
	return rows, nil
}

func (c *Client) Upsert(ctx context.Context, row syncrow.Row) error {
	body, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("failed to serialize row: %w", err)
	}

	url := c.baseURL + "/api/v1/records/" + row.Date
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build upsert request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to push row for %s: %w", row.Date, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("remote upsert for %s returned status %d", row.Date, resp.StatusCode)
	}
	return nil
}
