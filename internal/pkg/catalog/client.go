package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/brm-map/BrevetSync/internal/pkg/config"
)

// StatusCancelled is the catalog's sentinel for events withdrawn upstream.
// Cancelled records are excluded from sync and treated like absent records.
const StatusCancelled = "Annule"

// ErrMissingToken is returned when no API token is configured.
var ErrMissingToken = errors.New("catalog API token is not configured")

// Client fetches the brevet catalog from the ACP API.
type Client struct {
	BaseURL string
	Token   string

	HTTPClient *http.Client
}

// NewClient creates a catalog client from the application config.
func NewClient(cfg *config.Config) *Client {
	return &Client{
		BaseURL: strings.TrimRight(cfg.CatalogBaseURL, "/"),
		Token:   cfg.CatalogToken,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Fetch retrieves all catalog records for the given year.
func (c *Client) Fetch(ctx context.Context, year int) ([]Record, error) {
	if strings.TrimSpace(c.Token) == "" {
		return nil, ErrMissingToken
	}

	u, err := url.Parse(c.BaseURL + "/api/brm")
	if err != nil {
		return nil, fmt.Errorf("invalid catalog base URL: %w", err)
	}
	q := u.Query()
	q.Set("year", fmt.Sprintf("%d", year))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("token", c.Token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog request failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("catalog request failed: status=%d body=%s", resp.StatusCode, truncate(string(body), 200))
	}

	var records []Record
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("failed to decode catalog response: %w", err)
	}
	return records, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
