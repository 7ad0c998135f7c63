package pricing

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"rentprice/internal/modules/competitor"
)

// Friday 2026-10-16 10:00 UTC.
var testNow = time.Date(2026, 10, 16, 10, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return testNow }

type stubCache struct {
	mu    sync.Mutex
	rates []competitor.Rate
	last  string
	calls []string
}

func (c *stubCache) GetOrFetch(ctx context.Context, city, category string) ([]competitor.Rate, string) {
	c.record("fetch:" + city + ":" + category)
	return c.rates, c.last
}

func (c *stubCache) CachedOnly(city, category string) ([]competitor.Rate, string) {
	c.record("cached:" + city + ":" + category)
	return c.rates, c.last
}

func (c *stubCache) record(call string) {
	c.mu.Lock()
	c.calls = append(c.calls, call)
	c.mu.Unlock()
}

func (c *stubCache) Calls() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.calls...)
}

// luxuryRates averages 354 SAR/day.
func luxuryRates() []competitor.Rate {
	return []competitor.Rate{
		{Provider: "Yelo", DailyRate: 340, Category: competitor.CategoryLuxury},
		{Provider: "Key", DailyRate: 368, Category: competitor.CategoryLuxury},
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func daysFromNow(n int) time.Time {
	return testNow.Add(time.Duration(n) * day)
}
