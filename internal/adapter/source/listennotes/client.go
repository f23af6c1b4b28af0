package listennotes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/podcasts/internal/domain"
	"golang.org/x/time/rate"
)

const (
	defaultTimeout = 15 * time.Second
	baseRetryDelay = 500 * time.Millisecond
	maxErrorBody   = 512
)

// Config holds what the client needs to reach the API
type Config struct {
	BaseURL           string
	APIKey            string
	Timeout           time.Duration
	RequestsPerSecond float64 // 0 disables client-side rate limiting
	MaxRetries        int     // Retries for 5xx responses
}

// Client implements domain.PodcastSource for the Listen Notes API
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	maxRetries int
	retryDelay time.Duration
	logger     *slog.Logger
}

var _ domain.PodcastSource = (*Client)(nil)

// NewClient creates a new Listen Notes API client
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		maxRetries: maxRetries,
		retryDelay: baseRetryDelay,
		logger:     logger,
	}
	if cfg.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	return c
}

// FetchPage returns one page of the best podcasts listing
func (c *Client) FetchPage(ctx context.Context, page int) (domain.Page, error) {
	if page < 1 {
		return domain.Page{}, fmt.Errorf("%w: invalid page %d", domain.ErrProtocol, page)
	}

	query := url.Values{}
	query.Set("page", strconv.Itoa(page))

	body, err := c.doRequest(ctx, "/best_podcasts", query)
	if err != nil {
		return domain.Page{}, err
	}

	var resp BestPodcastsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		c.logger.Error("failed to decode best_podcasts", "page", page, "error", err)
		return domain.Page{}, fmt.Errorf("%w: decode best_podcasts: %v", domain.ErrProtocol, err)
	}

	result, err := mapPage(page, &resp)
	if err != nil {
		c.logger.Error("invalid best_podcasts page", "page", page, "error", err)
		return domain.Page{}, err
	}

	c.logger.Debug("fetched page", "page", page, "count", len(result.Podcasts), "hasNext", result.HasNext)
	return result, nil
}

// doRequest performs an authenticated GET against the API.
// Includes retry logic with exponential backoff for 5xx server errors
func (c *Client) doRequest(ctx context.Context, path string, query url.Values) ([]byte, error) {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		// Wait before retry (exponential backoff)
		if attempt > 0 {
			delay := c.retryDelay * time.Duration(1<<(attempt-1)) // 500ms, 1s, 2s
			c.logger.Debug("retrying request", "attempt", attempt, "delay", delay, "url", reqURL)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, networkError(ctx.Err())
			}
		}

		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, networkError(err)
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: build request: %v", domain.ErrProtocol, err)
		}
		req.Header.Set("Accept", "application/json")
		if c.apiKey != "" {
			req.Header.Set("X-ListenAPI-Key", c.apiKey)
		}

		c.logger.Debug("listennotes request", "url", reqURL, "attempt", attempt)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.logger.Error("listennotes request failed", "error", err)
			return nil, networkError(err)
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, networkError(err)
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			return body, nil

		case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
			return nil, fmt.Errorf("%w: %w", domain.ErrProtocol, domain.ErrAuthFailed)

		case resp.StatusCode == http.StatusTooManyRequests:
			c.logger.Warn("listennotes rate limit hit", "url", reqURL)
			return nil, fmt.Errorf("%w: rate limited by server", domain.ErrNetwork)

		case resp.StatusCode >= 500:
			lastErr = fmt.Errorf("%w: server error %d: %s", domain.ErrNetwork, resp.StatusCode, errorMessage(body))
			c.logger.Warn("listennotes server error, will retry",
				"status", resp.StatusCode,
				"attempt", attempt,
				"maxRetries", c.maxRetries,
				"url", reqURL,
			)
			continue

		default:
			c.logger.Error("listennotes request error", "status", resp.StatusCode, "body", errorMessage(body))
			return nil, fmt.Errorf("%w: unexpected status %d: %s", domain.ErrProtocol, resp.StatusCode, errorMessage(body))
		}
	}

	c.logger.Error("listennotes request failed after retries", "error", lastErr, "url", reqURL)
	return nil, lastErr
}

func networkError(err error) error {
	if errors.Is(err, domain.ErrNetwork) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrNetwork, err)
}

// errorMessage extracts a readable message from an error body
func errorMessage(body []byte) string {
	var e ErrorResponse
	if err := json.Unmarshal(body, &e); err == nil && e.Message != "" {
		return e.Message
	}
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	return strings.TrimSpace(string(body))
}
