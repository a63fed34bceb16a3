package bbref

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/XavierBriggs/fortuna/services/stats-explorer/internal/stats"
)

const (
	DefaultBaseURL   = "https://www.basketball-reference.com"
	DefaultUserAgent = "Mozilla/5.0 (compatible; FortunaStatsExplorer/1.0)"
)

// Client handles basketball-reference page requests
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
}

// New creates a new basketball-reference client
func New(baseURL, userAgent string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
	}
}

// SeasonURL returns the per-game stats page for a season
func (c *Client) SeasonURL(season int) string {
	return fmt.Sprintf("%s/leagues/NBA_%d_per_game.html", c.baseURL, season)
}

// FetchSeason downloads the per-game page for a season and extracts its
// first table
func (c *Client) FetchSeason(ctx context.Context, season int) (*stats.RawTable, error) {
	url := c.SeasonURL(season)

	body, err := c.fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	raw, err := stats.ExtractFirstTable(body)
	if err != nil {
		return nil, fmt.Errorf("season %d: %w", season, err)
	}

	return raw, nil
}

// fetch makes an HTTP GET request and returns the response body
func (c *Client) fetch(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: creating request: %v", stats.ErrSourceUnavailable, err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: making request: %v", stats.ErrSourceUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, fmt.Errorf("%w: status=%d, body=%s", stats.ErrSourceUnavailable, resp.StatusCode, string(body))
	}

	return resp.Body, nil
}
