// Package oracle provides USD prices of a network's native asset
package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ErrPriceUnavailable wraps every failure to obtain a price
var ErrPriceUnavailable = errors.New("price unavailable")

// limitedSource rate limits a price fetcher and serves the last good price
// while the limiter has no tokens left.
type limitedSource struct {
	fetch   func(ctx context.Context) (float64, error)
	limiter *rate.Limiter

	mu    sync.Mutex
	last  float64
	valid bool
}

func newLimitedSource(perSecond float64, fetch func(ctx context.Context) (float64, error)) *limitedSource {
	return &limitedSource{
		fetch:   fetch,
		limiter: rate.NewLimiter(rate.Limit(perSecond), 1),
	}
}

func (s *limitedSource) price(ctx context.Context) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.limiter.Allow() {
		if s.valid {
			return s.last, nil
		}
		if err := s.limiter.Wait(ctx); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrPriceUnavailable, err)
		}
	}

	price, err := s.fetch(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrPriceUnavailable, err)
	}
	if price <= 0 {
		return 0, fmt.Errorf("%w: non-positive price %v", ErrPriceUnavailable, price)
	}

	s.last, s.valid = price, true
	return price, nil
}

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: 10 * time.Second}
}

func getJSON(ctx context.Context, client *http.Client, req *http.Request, v interface{}) error {
	resp, err := client.Do(req.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("http %d %s: %s", resp.StatusCode, req.URL.Path, strings.TrimSpace(string(body)))
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
