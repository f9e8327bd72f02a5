// Package rates serves exchange rates for the storefront's currency
// switcher, caching upstream responses to stay inside the rate provider's
// free tier.
package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// SupportedCurrencies are the codes the storefront can display.
var SupportedCurrencies = []string{"USD", "EUR", "GBP", "JPY", "CNY", "SGD", "AED", "VND"}

// fallbackRates are served when the provider is unreachable and no cached
// snapshot exists. Rough values, refreshed manually.
var fallbackRates = map[string]float64{
	"USD": 1.0,
	"EUR": 0.92,
	"GBP": 0.79,
	"JPY": 149.5,
	"CNY": 7.24,
	"SGD": 1.34,
	"AED": 3.67,
	"VND": 25320,
}

// Snapshot is one cached set of rates relative to USD.
type Snapshot struct {
	Rates     map[string]float64
	FetchedAt time.Time
}

// Service fetches and caches exchange rates. The cache lives on the
// service value, not in package state, so tests can run isolated
// instances with their own clocks.
type Service struct {
	url    string
	ttl    time.Duration
	client *http.Client
	now    func() time.Time
	logger *slog.Logger

	mu     sync.Mutex
	cached *Snapshot
}

// NewService builds a rate service against the given provider URL.
func NewService(url string, ttl time.Duration, logger *slog.Logger) *Service {
	return &Service{
		url:    url,
		ttl:    ttl,
		client: &http.Client{Timeout: 10 * time.Second},
		now:    time.Now,
		logger: logger,
	}
}

// providerResponse is the shape of the exchangerate-api.com payload.
type providerResponse struct {
	Result          string             `json:"result"`
	BaseCode        string             `json:"base_code"`
	ConversionRates map[string]float64 `json:"conversion_rates"`
	// The v4 endpoint uses "rates" instead of "conversion_rates".
	Rates map[string]float64 `json:"rates"`
}

// Current returns the rates, whether they came from cache, and when they
// were fetched. A provider failure with no cached snapshot returns the
// fallback table and an error for the caller to report.
func (s *Service) Current(ctx context.Context) (*Snapshot, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cached != nil && s.now().Sub(s.cached.FetchedAt) < s.ttl {
		return s.cached, true, nil
	}

	snap, err := s.fetch(ctx)
	if err != nil {
		s.logger.Error("exchange rate fetch failed", "error", err)
		if s.cached != nil {
			// Stale beats fallback: keep serving the old snapshot.
			return s.cached, true, nil
		}
		return &Snapshot{Rates: fallbackRates, FetchedAt: s.now()}, false, err
	}

	s.cached = snap
	s.logger.Info("exchange rates refreshed", "currencies", len(snap.Rates))
	return snap, false, nil
}

// TTL returns the cache lifetime.
func (s *Service) TTL() time.Duration {
	return s.ttl
}

func (s *Service) fetch(ctx context.Context) (*Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build rates request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch rates: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rate provider returned %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read rates response: %w", err)
	}

	var pr providerResponse
	if err := json.Unmarshal(raw, &pr); err != nil {
		return nil, fmt.Errorf("decode rates response: %w", err)
	}
	source := pr.ConversionRates
	if source == nil {
		source = pr.Rates
	}
	if source == nil {
		return nil, fmt.Errorf("rate provider response has no rates")
	}

	rates := make(map[string]float64, len(SupportedCurrencies))
	for _, code := range SupportedCurrencies {
		if v, ok := source[code]; ok {
			rates[code] = v
		} else {
			rates[code] = 1.0
		}
	}
	return &Snapshot{Rates: rates, FetchedAt: s.now()}, nil
}
