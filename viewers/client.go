package viewers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	stealth "github.com/anatolykoptev/go-stealth"
	"github.com/anatolykoptev/go-stealth/ratelimit"
)

// Fetcher reads the current concurrent viewer count of a live video.
type Fetcher interface {
	ConcurrentViewers(ctx context.Context, videoID string) (int, error)
}

// requester is the subset of *stealth.BrowserClient used by Client.
type requester interface {
	DoWithHeaderOrder(method, url string, headers map[string]string, body io.Reader, order []string) ([]byte, map[string]string, int, error)
}

// Client fetches live streaming details from the YouTube Data API.
type Client struct {
	http      requester
	limiter   *ratelimit.Limiter
	cfg       Config
	userAgent string
	now       func() time.Time
}

// NewClient creates a client with a browser-profiled stealth transport.
func NewClient(cfg Config) (*Client, error) {
	cfg.defaults()

	profile := stealth.BuiltinProfiles[0]
	opts := []stealth.ClientOption{
		stealth.WithHeaderOrder(apiHeaderOrder),
		stealth.WithProfile(profile.TLSProfile),
	}
	if cfg.DefaultProxy != "" {
		opts = append(opts, stealth.WithProxy(cfg.DefaultProxy))
		slog.Info("youtube client using proxy", slog.String("proxy", stealth.MaskProxy(cfg.DefaultProxy)))
	}
	bc, err := stealth.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("stealth client: %w", err)
	}
	return newClient(bc, cfg, profile.UserAgent), nil
}

func newClient(r requester, cfg Config, userAgent string) *Client {
	cfg.defaults()
	return &Client{
		http:      r,
		limiter:   ratelimit.NewLimiter(cfg.RateLimit),
		cfg:       cfg,
		userAgent: userAgent,
		now:       time.Now,
	}
}

// ConcurrentViewers returns the live viewer count of videoID. A video that is
// not live, or whose count is hidden, reports 0.
func (c *Client) ConcurrentViewers(ctx context.Context, videoID string) (int, error) {
	body, err := c.get(ctx, "videos", videoID, videosURL(c.cfg.BaseURL, videoID, c.cfg.APIKey))
	if err != nil {
		return 0, err
	}
	return parseVideosResponse(body)
}

// get performs a Data API GET with retries. op and key name the request in
// errors and select its limiter bucket.
func (c *Client) get(ctx context.Context, op, key, url string) ([]byte, error) {
	bucket := op + ":" + key
	if !c.cfg.SkipJitter {
		if err := stealth.DefaultJitter.Sleep(ctx); err != nil {
			return nil, err
		}
	}

	backoff := stealth.BackoffConfig{
		InitialWait: c.cfg.RetryBackoffInitial,
		MaxWait:     c.cfg.RetryBackoffMax,
		Multiplier:  2.0,
		JitterPct:   0.3,
	}

	var lastErr error
	for attempt := range c.cfg.MaxRetries {
		if attempt > 0 {
			select {
			case <-time.After(backoff.Duration(attempt - 1)):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		if !c.limiter.Allow(bucket) {
			return nil, fmt.Errorf("%s %s: %w until %s", op, key, ErrRateLimited,
				c.limiter.AvailableAt(bucket).Format(time.RFC3339))
		}

		body, respHdrs, status, err := c.http.DoWithHeaderOrder("GET", url, apiHeaders(c.userAgent), nil, apiHeaderOrder)
		if err != nil {
			lastErr = err
			continue
		}

		switch {
		case status == http.StatusOK:
			return body, nil

		case status >= 500:
			slog.Warn(op+" non-200, retrying", slog.String("key", key), slog.Int("status", status))
			lastErr = fmt.Errorf("HTTP %d: %s", status, truncateBytes(body, 200))
			continue
		}

		errClass := classifyError(body)
		switch errClass {
		case errQuotaExceeded, errRateLimited:
			until := parseRetryAfter(respHdrs["retry-after"], c.now())
			c.limiter.MarkRateLimited(bucket, until)
			slog.Warn("youtube limit hit", slog.String("key", key), slog.Time("until", until))
			return nil, fmt.Errorf("%s %s: %w", op, key, errClass.err())

		case errBackend:
			lastErr = fmt.Errorf("HTTP %d: %s", status, truncateBytes(body, 200))
			continue

		case errNone:
			switch status {
			case http.StatusTooManyRequests:
				c.limiter.MarkRateLimited(bucket, parseRetryAfter(respHdrs["retry-after"], c.now()))
				return nil, fmt.Errorf("%s %s: %w", op, key, ErrRateLimited)
			case http.StatusNotFound:
				return nil, fmt.Errorf("%s %s: %w", op, key, notFoundErr(op))
			}
			return nil, fmt.Errorf("%s %s HTTP %d: %s", op, key, status, truncateBytes(body, 200))

		case errNotFound:
			return nil, fmt.Errorf("%s %s: %w", op, key, notFoundErr(op))

		default:
			return nil, fmt.Errorf("%s %s: %w", op, key, errClass.err())
		}
	}
	return nil, fmt.Errorf("%s %s: %d attempts failed: %w", op, key, c.cfg.MaxRetries, lastErr)
}

// notFoundErr maps a missing resource to the sentinel for op.
func notFoundErr(op string) error {
	if op == "videos" {
		return ErrVideoNotFound
	}
	return ErrChannelNotFound
}

// videosResponse is the relevant part of a videos.list response.
type videosResponse struct {
	Items []struct {
		ID                   string `json:"id"`
		LiveStreamingDetails *struct {
			ConcurrentViewers string `json:"concurrentViewers"`
		} `json:"liveStreamingDetails"`
	} `json:"items"`
}

// parseVideosResponse extracts the viewer count of the first item. Missing
// details or count read as 0; no items means the video does not exist.
func parseVideosResponse(body []byte) (int, error) {
	var resp videosResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, fmt.Errorf("decode videos: %w", err)
	}
	if len(resp.Items) == 0 {
		return 0, ErrVideoNotFound
	}
	details := resp.Items[0].LiveStreamingDetails
	if details == nil || details.ConcurrentViewers == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(details.ConcurrentViewers))
	if err != nil {
		return 0, fmt.Errorf("concurrent viewers %q: %w", details.ConcurrentViewers, err)
	}
	return n, nil
}

func truncateBytes(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
