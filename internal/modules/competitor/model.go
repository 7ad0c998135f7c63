// README: Competitor rate value objects, vehicle categories and cache entries.
package competitor

import (
	"strings"
	"time"
)

type Category string

const (
	CategoryEconomy Category = "economy"
	CategoryCompact Category = "compact"
	CategorySedan   Category = "sedan"
	CategorySUV     Category = "suv"
	CategoryLuxury  Category = "luxury"
	CategoryMinivan Category = "minivan"
	CategoryTruck   Category = "truck"
)

// categoryMultipliers rescale a rate observed in one class to another class.
var categoryMultipliers = map[Category]float64{
	CategoryEconomy: 0.75,
	CategoryCompact: 0.85,
	CategorySedan:   1.0,
	CategorySUV:     1.5,
	CategoryLuxury:  2.5,
	CategoryMinivan: 1.3,
	CategoryTruck:   1.4,
}

// categoryAliases folds provider vocabulary into the seven known classes.
var categoryAliases = map[string]Category{
	"small":         CategoryEconomy,
	"mini":          CategoryEconomy,
	"standard":      CategorySedan,
	"midsize":       CategorySedan,
	"mid-size":      CategorySedan,
	"medium":        CategorySedan,
	"crossover":     CategorySUV,
	"4x4":           CategorySUV,
	"jeep":          CategorySUV,
	"full-size suv": CategorySUV,
	"premium":       CategoryLuxury,
	"executive":     CategoryLuxury,
	"vip":           CategoryLuxury,
	"sports":        CategoryLuxury,
	"van":           CategoryMinivan,
	"pickup":        CategoryTruck,
}

// NormalizeCategory lower-cases and trims the input and maps known aliases.
// Unknown names are returned as-is (lower-cased).
func NormalizeCategory(s string) Category {
	c := strings.ToLower(strings.TrimSpace(s))
	if alias, ok := categoryAliases[c]; ok {
		return alias
	}
	return Category(c)
}

// Known reports whether c is one of the seven priced classes.
func (c Category) Known() bool {
	_, ok := categoryMultipliers[c]
	return ok
}

// Rate is one observed (or estimated) competitor daily price in SAR.
type Rate struct {
	Provider    string     `json:"provider"`
	DailyRate   float64    `json:"daily_rate"`
	Category    Category   `json:"category"`
	ScrapedAt   *time.Time `json:"scraped_at,omitempty"`
	VehicleName string     `json:"vehicle_name,omitempty"`
	SourceURL   string     `json:"source_url,omitempty"`
	IsEstimate  bool       `json:"is_estimate"`
}

// Provenance markers reported as lastScraped when no live data was used.
const (
	LastScrapedFallback    = "fallback data"
	LastScrapedUnavailable = "API unavailable"
)

// LastScrapedUnknown marks live data whose records carried no scrape time.
const LastScrapedUnknown = "unknown"

// IsFallback reports whether lastScraped is a provenance marker rather than a timestamp.
func IsFallback(lastScraped string) bool {
	return lastScraped == LastScrapedFallback || lastScraped == LastScrapedUnavailable || lastScraped == ""
}

// Key identifies a cache entry. Build it with NewKey.
type Key struct {
	City     string
	Category Category
}

func NewKey(city, category string) Key {
	return Key{
		City:     strings.ToLower(strings.TrimSpace(city)),
		Category: NormalizeCategory(category),
	}
}

func (k Key) String() string {
	return k.City + ":" + string(k.Category)
}

// Entry is a memoized lookup. Entries are replaced whole and never mutated,
// so Data may be shared between readers; copy before modifying rates.
type Entry struct {
	Data        []Rate    `json:"data"`
	FetchedAt   time.Time `json:"fetched_at"`
	LastScraped string    `json:"last_scraped"`
}

// FreshAt reports whether the entry is younger than ttl at now.
func (e Entry) FreshAt(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.FetchedAt) < ttl
}

// CloneRates returns a copy of rates safe for modification.
func CloneRates(rates []Rate) []Rate {
	if rates == nil {
		return nil
	}
	out := make([]Rate, len(rates))
	copy(out, rates)
	return out
}
