// Package upstream implements the HTTP client for the two upstream
// operations spec §6 describes: fetching the universe configuration at
// startup and posting batches of set-requests every tick. It is modeled on
// the teacher's internal/mediamtx.Client — a thin net/http wrapper with a
// single timeout-bound client, no retries.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mrd0ll4r/kaleidoscope/internal/universe"
	"github.com/mrd0ll4r/kaleidoscope/internal/values"
)

// Client is an HTTP client for the submarine upstream API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a Client addressing baseURL (the configured
// submarine_http_url).
func NewClient(baseURL string, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		logger:     logger,
	}
}

// FetchUniverseConfig performs GET /api/v1/universe/config (spec §6).
func (c *Client) FetchUniverseConfig(ctx context.Context) (universe.Config, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/universe/config", nil)
	if err != nil {
		return universe.Config{}, fmt.Errorf("build universe config request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return universe.Config{}, fmt.Errorf("fetch universe config: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return universe.Config{}, fmt.Errorf("fetch universe config: status %d", resp.StatusCode)
	}

	var cfg universe.Config
	if err := json.NewDecoder(resp.Body).Decode(&cfg); err != nil {
		return universe.Config{}, fmt.Errorf("decode universe config: %w", err)
	}
	return cfg, nil
}

// PostSetRequests performs POST /api/v1/universe/set with reqs as a single
// batch (spec §4.7 step 5, §6). Failures are the caller's to log and drop;
// this client never retries.
func (c *Client) PostSetRequests(ctx context.Context, reqs []values.SetRequest) error {
	data, err := json.Marshal(reqs)
	if err != nil {
		return fmt.Errorf("marshal set-requests: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/universe/set", bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("build set-requests request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post set-requests: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("post set-requests: status %d", resp.StatusCode)
	}
	return nil
}
