// internal/adapters/places/client.go
package places

import (
	"context"
	crand "crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"place_enricher/internal/adapters/observability"
	"place_enricher/internal/domain"
)

const service = "places"

type Client struct {
	base   string
	hc     *http.Client
	key    string
	region string
	rl     *rate.Limiter
}

func New(base, key, region string, rps int) (*Client, error) {
	if key == "" {
		return nil, fmt.Errorf("API key is required")
	}
	// rps <= 0 disables client-side throttling
	limit, burst := rate.Inf, 0
	if rps > 0 {
		limit, burst = rate.Limit(rps), rps
	}
	return &Client{
		base:   strings.TrimRight(base, "/"),
		hc:     &http.Client{Timeout: 20 * time.Second},
		key:    key,
		region: region,
		rl:     rate.NewLimiter(limit, burst),
	}, nil
}

// ---- Public API ----

// FindPlaceIDs resolves free text to candidate place ids, best match first.
// No candidates is not an error.
func (c *Client) FindPlaceIDs(ctx context.Context, query string) ([]string, error) {
	q := url.Values{}
	q.Set("key", c.key)
	q.Set("inputtype", "textquery")
	q.Set("input", query)
	if c.region != "" {
		q.Set("region", c.region)
	}

	var out struct {
		Status     string `json:"status"`
		Error      string `json:"error_message"`
		Candidates []struct {
			PlaceID string `json:"place_id"`
		} `json:"candidates"`
	}
	if err := c.get(ctx, "findplacefromtext", q, &out); err != nil {
		return nil, err
	}
	switch err := statusErr(out.Status, out.Error); {
	case errors.Is(err, domain.ErrNotFound):
		return nil, nil
	case err != nil:
		return nil, err
	}

	ids := make([]string, 0, len(out.Candidates))
	for _, cand := range out.Candidates {
		if cand.PlaceID != "" {
			ids = append(ids, cand.PlaceID)
		}
	}
	return ids, nil
}

// GetDetails returns the raw "result" object for a place id.
func (c *Client) GetDetails(ctx context.Context, placeID string) (map[string]any, error) {
	q := url.Values{}
	q.Set("key", c.key)
	q.Set("place_id", placeID)

	var out struct {
		Status string         `json:"status"`
		Error  string         `json:"error_message"`
		Result map[string]any `json:"result"`
	}
	if err := c.get(ctx, "details", q, &out); err != nil {
		return nil, err
	}
	if err := statusErr(out.Status, out.Error); err != nil {
		return nil, fmt.Errorf("details %s: %w", placeID, err)
	}
	if out.Result == nil {
		return nil, fmt.Errorf("details %s: %w", placeID, domain.ErrNotFound)
	}
	return out.Result, nil
}

// ---- Internals ----

var (
	ErrRequestDenied  = errors.New("places: request denied")
	ErrInvalidRequest = errors.New("places: invalid request")
	ErrQuotaExceeded  = errors.New("places: over query limit")
)

// statusErr maps the API's in-body status to an error.
func statusErr(status, msg string) error {
	switch status {
	case "OK", "":
		return nil
	case "ZERO_RESULTS", "NOT_FOUND":
		return domain.ErrNotFound
	case "REQUEST_DENIED":
		return withMsg(ErrRequestDenied, msg)
	case "INVALID_REQUEST":
		return withMsg(ErrInvalidRequest, msg)
	case "OVER_QUERY_LIMIT":
		return withMsg(ErrQuotaExceeded, msg)
	default:
		return withMsg(fmt.Errorf("places: status %s", status), msg)
	}
}

func withMsg(err error, msg string) error {
	if msg == "" {
		return err
	}
	return fmt.Errorf("%w: %s", err, msg)
}

// get performs a GET with client-side rate limiting, retries, and JSON decode into out.
// Retries on 429 and transient 5xx, honoring Retry-After when provided.
func (c *Client) get(ctx context.Context, endpoint string, q url.Values, out any) error {
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}
	u := fmt.Sprintf("%s/%s/json?%s", c.base, endpoint, q.Encode())

	var lastErr error
	for i := 0; i < 4; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "place-enricher/1.0")

		start := time.Now()
		resp, err := c.hc.Do(req)
		if err != nil {
			observability.ObserveExternal(service, endpoint, 0, time.Since(start))
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
			if i < 3 && sleepCtx(ctx, backoff(i)) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr
		}
		observability.ObserveExternal(service, endpoint, resp.StatusCode, time.Since(start))

		switch resp.StatusCode {
		case http.StatusOK:
			err := json.NewDecoder(resp.Body).Decode(out)
			resp.Body.Close()
			if err != nil {
				return fmt.Errorf("decode %s: %w", endpoint, err)
			}
			return nil

		case http.StatusNotFound:
			resp.Body.Close()
			return domain.ErrNotFound

		case http.StatusUnauthorized, http.StatusForbidden:
			resp.Body.Close()
			return ErrRequestDenied

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
				return ctx.Err()
			}
			return lastErr

		default:
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return fmt.Errorf("bad status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
		}
	}

	return lastErr
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

// retryAfter parses Retry-After header (seconds or HTTP-date). Returns 0 if absent/invalid.
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

// backoff: 200ms doubling per attempt plus up to 50% jitter.
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
