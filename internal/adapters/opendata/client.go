package opendata

import (
	crand "crypto/rand"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"cleanplate/internal/adapters/observability"
	"cleanplate/internal/domain"
)

// Client talks to Socrata-style open-data endpoints. One instance is
// shared across jurisdictions; the per-request endpoint decides where
// the GET goes.
type Client struct {
	hc    *http.Client
	token string
	rl    *rate.Limiter
}

func New(token string, rps int) *Client {
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		hc:    &http.Client{Timeout: 60 * time.Second},
		token: token,
		rl:    rate.NewLimiter(rate.Limit(rps), rps),
	}
}

// Fetch performs a GET with client-side rate limiting, retries, and JSON
// decode. Retries on 429 and transient 5xx, honoring Retry-After when
// provided. 404 maps to domain.ErrNotFound.
func (c *Client) Fetch(ctx context.Context, endpoint string, params url.Values) ([]map[string]any, error) {
	if err := c.rl.Wait(ctx); err != nil {
		return nil, err
	}

	u := endpoint
	if len(params) > 0 {
		u = endpoint + "?" + params.Encode()
	}

	var lastErr error
	for i := 0; i < 4; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		if c.token != "" {
			req.Header.Set("X-App-Token", c.token)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "cleanplate/1.0")

		start := time.Now()
		resp, err := c.hc.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			observability.ObserveExternal("socrata", endpoint, 0, time.Since(start))
			lastErr = err
			if i < 3 && sleepCtx(ctx, backoff(i)) {
				continue
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, lastErr
		}
		observability.ObserveExternal("socrata", endpoint, resp.StatusCode, time.Since(start))

		switch resp.StatusCode {
		case http.StatusOK:
			var out []map[string]any
			err := json.NewDecoder(resp.Body).Decode(&out)
			resp.Body.Close()
			if err != nil {
				return nil, fmt.Errorf("decode %s: %w", endpoint, err)
			}
			return out, nil

		case http.StatusNoContent:
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			return nil, nil

		case http.StatusNotFound:
			resp.Body.Close()
			return nil, fmt.Errorf("%s: %w", endpoint, domain.ErrNotFound)

		case http.StatusTooManyRequests, http.StatusInternalServerError,
			http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			wait := retryAfter(resp)
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(i)
			}
			lastErr = fmt.Errorf("remote %d", resp.StatusCode)
			if i < 3 && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, lastErr

		default:
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return nil, fmt.Errorf("bad status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
		}
	}

	return nil, lastErr
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After (seconds or HTTP-date). 0 if absent/invalid.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff returns an exponential delay (200ms, 400ms, 800ms...) with up
// to +50% jitter to avoid thundering herds.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	j := time.Duration(0.5 * f * float64(base))
	return base + j
}
