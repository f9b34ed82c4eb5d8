package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/brm-map/BrevetSync/internal/pkg/config"
)

// Coordinates is a resolved latitude/longitude pair.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// nominatimResult is one candidate match; the service encodes coordinates as
// strings.
type nominatimResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Client resolves address tokens against a Nominatim-compatible geocoding
// service. The service enforces one global rate limit shared by all callers,
// so the client waits RateDelay before every request, including the first of
// a run, and never issues requests concurrently.
//
// The client never touches the store. A nil result with a nil error means
// NotFound; the caller decides whether to record the attempt.
type Client struct {
	BaseURL    string
	UserAgent  string
	RateDelay  time.Duration
	MaxRetries int

	HTTPClient *http.Client
}

// NewClient creates a geocode client from the application config.
func NewClient(cfg *config.Config) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(cfg.GeocoderBaseURL, "/"),
		UserAgent:  cfg.GeocoderUserAgent,
		RateDelay:  cfg.GeocodeRateDelay,
		MaxRetries: cfg.GeocodeMaxRetries,
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Resolve issues one geocoding query for the given tokens. On HTTP 429 or a
// transport failure it retries up to MaxRetries times with exponential
// backoff seeded at RateDelay. Zero results, a non-retryable response or
// exhausted retries all yield (nil, nil); only a cancelled context is an
// error.
func (c *Client) Resolve(ctx context.Context, tokens []string) (*Coordinates, error) {
	if len(tokens) == 0 {
		return nil, nil
	}
	query := strings.Join(tokens, ", ")

	for attempt := 1; attempt <= c.MaxRetries; attempt++ {
		// Rate-limit delay before every call; backoff doubles it per retry.
		delay := c.RateDelay << (attempt - 1)
		if err := sleepCtx(ctx, delay); err != nil {
			return nil, err
		}

		coords, retry, err := c.resolveOnce(ctx, query)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.Errorf("[Geocode] Query %q failed (attempt %d/%d): %v", query, attempt, c.MaxRetries, err)
			continue
		}
		if retry {
			log.Warnf("[Geocode] Rate limited on %q (attempt %d/%d)", query, attempt, c.MaxRetries)
			continue
		}
		return coords, nil
	}

	log.Warnf("[Geocode] Giving up on %q after %d attempts", query, c.MaxRetries)
	return nil, nil
}

// resolveOnce performs a single query. retry=true signals a 429.
func (c *Client) resolveOnce(ctx context.Context, query string) (*Coordinates, bool, error) {
	u := fmt.Sprintf("%s/search?q=%s&format=json&limit=1", c.BaseURL, url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("User-Agent", c.UserAgent)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, false, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, true, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("geocoder returned status %d", resp.StatusCode)
	}

	var results []nominatimResult
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, false, fmt.Errorf("failed to decode geocoder response: %w", err)
	}
	if len(results) == 0 {
		log.Infof("[Geocode] No results for %q", query)
		return nil, false, nil
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return nil, false, fmt.Errorf("invalid latitude %q: %w", results[0].Lat, err)
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return nil, false, fmt.Errorf("invalid longitude %q: %w", results[0].Lon, err)
	}
	return &Coordinates{Latitude: lat, Longitude: lon}, false, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
