package quote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	commonerrors "github.com/AlibekovAA/shotplot/backend/internal/common/errors"
	"github.com/AlibekovAA/shotplot/backend/internal/observability/metrics"
)

const (
	upstreamName     = "quotable"
	maxUpstreamBytes = 64 * 1024
)

type Quote struct {
	Quote  string `json:"quote"`
	Author string `json:"author"`
}

type upstreamQuote struct {
	Content string `json:"content"`
	Author  string `json:"author"`
}

type Fetcher interface {
	Random(ctx context.Context) (Quote, error)
}

// Client fetches one random quote per call. Every failure is reported as
// ErrUpstreamUnavailable; there is no retry and no cache.
type Client struct {
	url  string
	http *http.Client
}

func NewClient(url string, timeout time.Duration) *Client {
	return &Client{
		url:  url,
		http: &http.Client{Timeout: timeout},
	}
}

func (c *Client) Random(ctx context.Context) (Quote, error) {
	q, err := c.fetch(ctx)
	if err != nil {
		metrics.UpstreamRequestsTotal.WithLabelValues(upstreamName, "error").Inc()
		return Quote{}, commonerrors.ErrUpstreamUnavailable.WithCause(err)
	}
	metrics.UpstreamRequestsTotal.WithLabelValues(upstreamName, "success").Inc()
	return q, nil
}

func (c *Client) fetch(ctx context.Context) (Quote, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return Quote{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Quote{}, fmt.Errorf("request quote: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxUpstreamBytes))
		return Quote{}, fmt.Errorf("unexpected upstream status %d", resp.StatusCode)
	}

	var body upstreamQuote
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxUpstreamBytes)).Decode(&body); err != nil {
		return Quote{}, fmt.Errorf("decode quote: %w", err)
	}

	return Quote{Quote: body.Content, Author: body.Author}, nil
}
