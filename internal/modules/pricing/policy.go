// README: Versioned pricing policy holding every multiplier, discount tier and guardrail ratio.
package pricing

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"
)

// Tier grants Discount once a day count reaches MinDays.
type Tier struct {
	MinDays  int     `json:"min_days"`
	Discount float64 `json:"discount"`
}

// Season raises demand to Multiplier during Months. CityMultipliers
// override Multiplier for specific cities.
type Season struct {
	Name            string             `json:"name"`
	Months          []time.Month       `json:"months"`
	Multiplier      float64            `json:"multiplier"`
	CityMultipliers map[string]float64 `json:"city_multipliers,omitempty"`
}

type Policy struct {
	Version string `json:"version"`

	BaseDemand    float64                  `json:"base_demand"`
	WeekdayDemand map[time.Weekday]float64 `json:"weekday_demand"`
	Seasons       []Season                 `json:"seasons"`

	HighSeasonMonths     []time.Month `json:"high_season_months"`
	HighSeasonMultiplier float64      `json:"high_season_multiplier"`
	LowSeasonMultiplier  float64      `json:"low_season_multiplier"`

	WeekendDays       []time.Weekday `json:"weekend_days"`
	WeekendMultiplier float64        `json:"weekend_multiplier"`

	// Tiers are kept sorted by MinDays descending; the first match wins.
	AdvanceTiers  []Tier `json:"advance_tiers"`
	DurationTiers []Tier `json:"duration_tiers"`

	CityMultipliers       map[string]float64 `json:"city_multipliers"`
	DefaultCityMultiplier float64            `json:"default_city_multiplier"`

	IntercityPremiums       map[string]map[string]float64 `json:"intercity_premiums"`
	DefaultIntercityPremium float64                       `json:"default_intercity_premium"`

	// KnownCities are matched as substrings of a location to find its city.
	KnownCities []string `json:"known_cities"`

	OneWayCompetitorMarkup float64 `json:"one_way_competitor_markup"`
	OneWayCeilingMarkup    float64 `json:"one_way_ceiling_markup"`
	FloorRatio             float64 `json:"floor_ratio"`

	// Substitute market figures, as ratios of the base rate, when no
	// competitor rates are available.
	EmptyMarketAvg float64 `json:"empty_market_avg"`
	EmptyMarketMin float64 `json:"empty_market_min"`
	EmptyMarketMax float64 `json:"empty_market_max"`

	InsuranceRate float64 `json:"insurance_rate"`
}

func DefaultPolicy() Policy {
	return Policy{
		Version:    "2026.1",
		BaseDemand: 1.0,
		WeekdayDemand: map[time.Weekday]float64{
			time.Thursday: 1.03,
			time.Friday:   1.05,
			time.Saturday: 1.05,
		},
		Seasons: []Season{
			{Name: "ramadan", Months: []time.Month{time.March, time.April}, Multiplier: 1.08},
			{Name: "hajj", Months: []time.Month{time.July, time.August}, Multiplier: 1.08,
				CityMultipliers: map[string]float64{"jeddah": 1.12}},
			{Name: "summer", Months: []time.Month{time.June, time.July, time.August}, Multiplier: 1.05},
		},
		HighSeasonMonths: []time.Month{
			time.October, time.November, time.December,
			time.January, time.February, time.March, time.April,
		},
		HighSeasonMultiplier: 1.02,
		LowSeasonMultiplier:  0.98,
		WeekendDays:          []time.Weekday{time.Friday, time.Saturday},
		WeekendMultiplier:    1.03,
		AdvanceTiers: []Tier{
			{MinDays: 30, Discount: 0.15},
			{MinDays: 14, Discount: 0.10},
			{MinDays: 7, Discount: 0.05},
		},
		DurationTiers: []Tier{
			{MinDays: 30, Discount: 0.20},
			{MinDays: 14, Discount: 0.15},
			{MinDays: 7, Discount: 0.10},
			{MinDays: 3, Discount: 0.05},
		},
		CityMultipliers: map[string]float64{
			"riyadh": 1.00,
			"jeddah": 1.02,
			"dammam": 0.98,
			"mecca":  1.05,
			"medina": 1.04,
			"taif":   1.02,
		},
		DefaultCityMultiplier: 1.0,
		IntercityPremiums: map[string]map[string]float64{
			"riyadh": {"jeddah": 1.25, "dammam": 1.15, "mecca": 1.30, "medina": 1.30},
			"jeddah": {"riyadh": 1.25, "dammam": 1.35, "mecca": 1.08, "medina": 1.15},
			"dammam": {"riyadh": 1.15, "jeddah": 1.35, "mecca": 1.35, "medina": 1.35},
			"mecca":  {"riyadh": 1.30, "jeddah": 1.08, "dammam": 1.35, "medina": 1.12},
			"medina": {"riyadh": 1.30, "jeddah": 1.15, "dammam": 1.35, "mecca": 1.12},
		},
		DefaultIntercityPremium: 1.20,
		KnownCities: []string{
			"riyadh", "jeddah", "dammam", "mecca", "medina",
			"taif", "khobar", "abha", "tabuk", "jubail",
		},
		OneWayCompetitorMarkup: 1.25,
		OneWayCeilingMarkup:    1.10,
		FloorRatio:             0.80,
		EmptyMarketAvg:         1.0,
		EmptyMarketMin:         0.9,
		EmptyMarketMax:         1.1,
		InsuranceRate:          0.15,
	}
}

// LoadPolicyFile overlays the JSON document at path on DefaultPolicy.
// Maps are merged key by key, intercity premiums per origin and destination;
// lists replace the default list.
func LoadPolicyFile(path string) (Policy, error) {
	p := DefaultPolicy()
	if path == "" {
		return p, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, fmt.Errorf("read policy file: %w", err)
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return Policy{}, fmt.Errorf("parse policy file %s: %w", path, err)
	}
	// encoding/json replaces inner maps wholesale.
	mergeIntercity(p.IntercityPremiums, DefaultPolicy().IntercityPremiums)
	if err := p.normalize(); err != nil {
		return Policy{}, fmt.Errorf("policy %s: %w", path, err)
	}
	return p, nil
}

// mergeIntercity fills destinations missing from dst's origins with the
// defaults for those origins.
func mergeIntercity(dst, defaults map[string]map[string]float64) {
	for from, dests := range dst {
		if dests == nil {
			continue
		}
		for to, v := range defaults[from] {
			if _, ok := dests[to]; !ok {
				dests[to] = v
			}
		}
	}
}

func (p *Policy) normalize() error {
	if p.Version == "" {
		return fmt.Errorf("version is required")
	}
	if p.FloorRatio <= 0 {
		return fmt.Errorf("floor_ratio must be positive, got %v", p.FloorRatio)
	}
	if p.OneWayCompetitorMarkup <= 0 || p.OneWayCeilingMarkup <= 0 {
		return fmt.Errorf("one-way markups must be positive")
	}
	if p.InsuranceRate < 0 {
		return fmt.Errorf("insurance_rate must not be negative, got %v", p.InsuranceRate)
	}
	for _, tiers := range [][]Tier{p.AdvanceTiers, p.DurationTiers} {
		for _, t := range tiers {
			if t.Discount < 0 || t.Discount >= 1 {
				return fmt.Errorf("tier discount %v out of range [0, 1)", t.Discount)
			}
		}
	}
	sortTiers(p.AdvanceTiers)
	sortTiers(p.DurationTiers)
	return nil
}

func sortTiers(tiers []Tier) {
	sort.SliceStable(tiers, func(i, j int) bool { return tiers[i].MinDays > tiers[j].MinDays })
}
