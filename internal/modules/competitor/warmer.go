package competitor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"
)

// Refresher forces a fetch for a key. *Cache implements it.
type Refresher interface {
	Refresh(ctx context.Context, city, category string) ([]Rate, string)
}

// Warmer periodically refreshes a fixed set of (city, category) keys so
// request paths mostly find fresh entries.
type Warmer struct {
	cron   *cron.Cron
	target Refresher
	spec   string
	keys   []Key
	logger *slog.Logger
	wg     sync.WaitGroup
}

// AllCategories lists the seven priced classes in display order.
func AllCategories() []Category {
	return []Category{
		CategoryEconomy, CategoryCompact, CategorySedan, CategorySUV,
		CategoryLuxury, CategoryMinivan, CategoryTruck,
	}
}

// NewWarmer builds a warmer for every city x category pair. Empty categories
// means all seven classes.
func NewWarmer(target Refresher, spec string, cities, categories []string, logger *slog.Logger) *Warmer {
	if logger == nil {
		logger = slog.Default()
	}
	if len(categories) == 0 {
		for _, c := range AllCategories() {
			categories = append(categories, string(c))
		}
	}
	seen := make(map[Key]struct{})
	var keys []Key
	for _, city := range cities {
		for _, cat := range categories {
			k := NewKey(city, cat)
			if k.City == "" {
				continue
			}
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			keys = append(keys, k)
		}
	}
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug))
	return &Warmer{
		cron:   cron.New(cron.WithLogger(cronLogger)),
		target: target,
		spec:   spec,
		keys:   keys,
		logger: logger,
	}
}

// Keys returns the keys refreshed on every tick.
func (w *Warmer) Keys() []Key {
	out := make([]Key, len(w.keys))
	copy(out, w.keys)
	return out
}

// Start registers the job, starts the scheduler and runs one pass immediately
// in the background. With no keys configured it does nothing.
func (w *Warmer) Start(ctx context.Context) error {
	if len(w.keys) == 0 {
		w.logger.Info("competitor warmer disabled, no cities configured")
		return nil
	}
	if _, err := w.cron.AddFunc(w.spec, func() { w.RunOnce(ctx) }); err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}
	w.cron.Start()
	w.logger.Info("competitor warmer started", "spec", w.spec, "keys", len(w.keys))

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.RunOnce(ctx)
	}()
	return nil
}

// Stop halts the scheduler and waits for running passes to finish.
func (w *Warmer) Stop() {
	<-w.cron.Stop().Done()
	w.wg.Wait()
	w.logger.Info("competitor warmer stopped")
}

// RunOnce refreshes every configured key in order.
func (w *Warmer) RunOnce(ctx context.Context) {
	for _, k := range w.keys {
		if ctx.Err() != nil {
			return
		}
		rates, lastScraped := w.target.Refresh(ctx, k.City, string(k.Category))
		w.logger.Debug("competitor key warmed", "key", k.String(), "rates", len(rates), "last_scraped", lastScraped)
	}
}
