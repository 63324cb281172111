// Package coingecko fetches spot prices from the CoinGecko simple/price API.
package coingecko

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"cropchain/internal/pricing/models"
)

const DefaultBaseURL = "https://api.coingecko.com/api/v3"

const maxBodyBytes = 64 << 10

type Client struct {
	http    *retryablehttp.Client
	baseURL string
}

type Option func(*retryablehttp.Client)

// WithRetries bounds the retry loop for 5xx and connection errors.
func WithRetries(max int, waitMin, waitMax time.Duration) Option {
	return func(c *retryablehttp.Client) {
		c.RetryMax = max
		c.RetryWaitMin = waitMin
		c.RetryWaitMax = waitMax
	}
}

func New(baseURL string, timeout time.Duration, logger *slog.Logger, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	rc := retryablehttp.NewClient()
	rc.HTTPClient.Timeout = timeout
	rc.RetryMax = 2
	rc.RetryWaitMin = 250 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	rc.Logger = logger
	for _, opt := range opts {
		opt(rc)
	}
	return &Client{http: rc, baseURL: strings.TrimRight(baseURL, "/")}
}

// FetchRates asks for INR and USD prices of every tracked coin.
func (c *Client) FetchRates(ctx context.Context) (models.Rates, error) {
	ids := make([]string, 0, len(models.Assets))
	for _, a := range models.Assets {
		ids = append(ids, string(a))
	}
	q := url.Values{}
	q.Set("ids", strings.Join(ids, ","))
	q.Set("vs_currencies", "inr,usd")
	endpoint := c.baseURL + "/simple/price?" + q.Encode()

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build price request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch prices: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch prices: %d", resp.StatusCode)
	}

	var rates models.Rates
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&rates); err != nil {
		return nil, fmt.Errorf("decode prices: %w", err)
	}
	if len(rates) == 0 {
		return nil, errors.New("price response has no coins")
	}
	return rates, nil
}
