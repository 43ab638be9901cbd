package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultGoogleEndpoint is the Custom Search JSON API.
	DefaultGoogleEndpoint = "https://www.googleapis.com/customsearch/v1"

	defaultResultCount = 5
	defaultHTTPTimeout = 5 * time.Second
)

// Google queries the Google Custom Search JSON API.
type Google struct {
	apiKey   string
	engineID string
	endpoint string
	num      int
	client   *http.Client
	logger   *slog.Logger
}

// GoogleOption configures a Google client.
type GoogleOption func(*Google)

// WithEndpoint overrides the API endpoint.
func WithEndpoint(endpoint string) GoogleOption {
	return func(g *Google) {
		g.endpoint = endpoint
	}
}

// WithResultCount sets how many results to request (1-10).
func WithResultCount(n int) GoogleOption {
	return func(g *Google) {
		if n >= 1 && n <= 10 {
			g.num = n
		}
	}
}

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(client *http.Client) GoogleOption {
	return func(g *Google) {
		if client != nil {
			g.client = client
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) GoogleOption {
	return func(g *Google) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// NewGoogle creates a Custom Search client. apiKey and engineID are the
// "key" and "cx" parameters of the API.
func NewGoogle(apiKey, engineID string, opts ...GoogleOption) (*Google, error) {
	if apiKey == "" || engineID == "" {
		return nil, ErrCredentialsRequired
	}

	g := &Google{
		apiKey:   apiKey,
		engineID: engineID,
		endpoint: DefaultGoogleEndpoint,
		num:      defaultResultCount,
		client:   &http.Client{Timeout: defaultHTTPTimeout},
		logger:   slog.Default().With("component", "google-search"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

type googleResponse struct {
	Items []struct {
		Title   string `json:"title"`
		Snippet string `json:"snippet"`
		Link    string `json:"link"`
	} `json:"items"`
}

// Lookup runs a search for text. An empty result list is not an error.
func (g *Google) Lookup(ctx context.Context, text string) ([]Result, error) {
	params := url.Values{}
	params.Set("key", g.apiKey)
	params.Set("cx", g.engineID)
	params.Set("q", text)
	params.Set("num", strconv.Itoa(g.num))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		g.logger.Warn("web search request failed", "err", err)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	var body googleResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding web search response: %w", err)
	}

	results := make([]Result, 0, len(body.Items))
	for _, item := range body.Items {
		if item.Link == "" {
			continue
		}
		results = append(results, Result{
			Title:   strings.TrimSpace(item.Title),
			Snippet: strings.TrimSpace(item.Snippet),
			Link:    item.Link,
		})
	}

	g.logger.Debug("web search complete", "results", len(results))
	return results, nil
}
