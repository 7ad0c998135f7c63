package competitor

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const defaultFetchLimit = 20

// Source reads published competitor rates from the competitor API and
// degrades to the static catalog on any failure.
type Source struct {
	baseURL string
	limit   int
	client  *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

type SourceOptions struct {
	BaseURL string
	Limit   int
	Timeout time.Duration
	// RequestsPerSec <= 0 disables outbound rate limiting.
	RequestsPerSec float64
	Burst          int
	Logger         *slog.Logger
}

func NewSource(opts SourceOptions) *Source {
	if opts.Limit <= 0 {
		opts.Limit = defaultFetchLimit
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	var limiter *rate.Limiter
	if opts.RequestsPerSec > 0 {
		burst := opts.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSec), burst)
	}
	return &Source{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		limit:   opts.Limit,
		client:  &http.Client{Timeout: opts.Timeout},
		limiter: limiter,
		logger:  opts.Logger,
	}
}

// pricesResponse mirrors GET /competitors.
type pricesResponse struct {
	Prices []rawPrice `json:"prices"`
}

type rawPrice struct {
	Provider    string  `json:"provider"`
	City        string  `json:"city"`
	Category    string  `json:"category"`
	Price       float64 `json:"price"`
	Currency    string  `json:"currency"`
	URL         *string `json:"url"`
	VehicleName *string `json:"vehicle_name"`
	ScrapedAt   string  `json:"scraped_at"`
}

// Fetch returns one rate per provider for (city, category), rescaled into the
// requested class, plus the most recent scrape time. It never fails: transport
// errors, non-2xx answers and empty results fall back to Lookup(category) with
// a provenance marker in place of the timestamp.
func (s *Source) Fetch(ctx context.Context, city, category string) ([]Rate, string) {
	key := NewKey(city, category)

	raw, err := s.fetchRaw(ctx, key)
	if err != nil {
		s.logger.Warn("competitor fetch failed, using fallback rates",
			"city", key.City, "category", key.Category, "error", err)
		return Lookup(string(key.Category)), LastScrapedUnavailable
	}

	rates, lastScraped := normalize(raw, key.Category)
	if len(rates) == 0 {
		s.logger.Warn("competitor API returned no usable prices, using fallback rates",
			"city", key.City, "category", key.Category, "raw_count", len(raw))
		return Lookup(string(key.Category)), LastScrapedFallback
	}
	return rates, lastScraped
}

func (s *Source) fetchRaw(ctx context.Context, key Key) ([]rawPrice, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	params := url.Values{}
	params.Set("city", key.City)
	params.Set("category", string(key.Category))
	params.Set("limit", strconv.Itoa(s.limit))
	reqURL := s.baseURL + "/competitors?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http GET: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("competitor API returned %d: %s", resp.StatusCode, truncate(body, 200))
	}

	var apiResp pricesResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("json unmarshal: %w", err)
	}
	return apiResp.Prices, nil
}

// normalize rescales cross-class prices, drops non-positive prices and keeps
// the first record per provider in arrival order.
func normalize(raw []rawPrice, want Category) ([]Rate, string) {
	seen := make(map[string]struct{}, len(raw))
	rates := make([]Rate, 0, len(raw))
	var latest time.Time

	for _, p := range raw {
		provider := strings.TrimSpace(p.Provider)
		if provider == "" || p.Price <= 0 {
			continue
		}
		dedupKey := strings.ToLower(provider)
		if _, dup := seen[dedupKey]; dup {
			continue
		}
		seen[dedupKey] = struct{}{}

		r := Rate{
			Provider:  provider,
			DailyRate: crossAdjust(p.Price, NormalizeCategory(p.Category), want),
			Category:  want,
		}
		if p.VehicleName != nil {
			r.VehicleName = *p.VehicleName
		}
		if p.URL != nil {
			r.SourceURL = *p.URL
		}
		if ts, ok := parseScrapedAt(p.ScrapedAt); ok {
			r.ScrapedAt = &ts
			if ts.After(latest) {
				latest = ts
			}
		}
		rates = append(rates, r)
	}

	if latest.IsZero() {
		return rates, LastScrapedUnknown
	}
	return rates, latest.UTC().Format(time.RFC3339)
}

// crossAdjust converts a price observed for class from into class to.
// Unknown classes are left unscaled.
func crossAdjust(price float64, from, to Category) float64 {
	if from == to {
		return price
	}
	fm, okFrom := categoryMultipliers[from]
	tm, okTo := categoryMultipliers[to]
	if !okFrom || !okTo {
		return price
	}
	return price * tm / fm
}

func parseScrapedAt(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999", "2006-01-02T15:04:05"} {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
