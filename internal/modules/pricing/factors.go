package pricing

import (
	"slices"
	"strings"
	"time"
)

// FactorModel derives every multiplier and discount from a Policy. All
// methods are pure.
type FactorModel struct {
	policy Policy
}

func NewFactorModel(p Policy) FactorModel {
	return FactorModel{policy: p}
}

// DemandMultiplier is the largest of the base demand, the day-of-week demand
// and every season active in date's month. Adjustments never compound.
func (m FactorModel) DemandMultiplier(date time.Time, city string) float64 {
	city = normalizeCity(city)
	demand := m.policy.BaseDemand
	if d, ok := m.policy.WeekdayDemand[date.Weekday()]; ok {
		demand = max(demand, d)
	}
	for _, s := range m.policy.Seasons {
		if !slices.Contains(s.Months, date.Month()) {
			continue
		}
		v := s.Multiplier
		if cv, ok := s.CityMultipliers[city]; ok {
			v = cv
		}
		demand = max(demand, v)
	}
	return demand
}

func (m FactorModel) SeasonalMultiplier(date time.Time) float64 {
	if slices.Contains(m.policy.HighSeasonMonths, date.Month()) {
		return m.policy.HighSeasonMultiplier
	}
	return m.policy.LowSeasonMultiplier
}

func (m FactorModel) WeekendMultiplier(date time.Time) float64 {
	if slices.Contains(m.policy.WeekendDays, date.Weekday()) {
		return m.policy.WeekendMultiplier
	}
	return 1.0
}

// AdvanceBookingDiscount treats negative lead times (past pickups) as zero.
func (m FactorModel) AdvanceBookingDiscount(daysUntilPickup int) float64 {
	return tierDiscount(m.policy.AdvanceTiers, daysUntilPickup)
}

func (m FactorModel) DurationDiscount(days int) float64 {
	return tierDiscount(m.policy.DurationTiers, days)
}

func (m FactorModel) CityMultiplier(city string) float64 {
	if v, ok := m.policy.CityMultipliers[normalizeCity(city)]; ok {
		return v
	}
	return m.policy.DefaultCityMultiplier
}

// IntercityPremium is 1.0 when pickup and dropoff share their first word or
// the dropoff is empty (a return to the pickup). Every other pair uses the
// origin/destination table keyed by extracted city, or the default premium,
// even when both sides extract to the same city.
func (m FactorModel) IntercityPremium(pickup, dropoff string) float64 {
	if strings.TrimSpace(dropoff) == "" || firstWord(pickup) == firstWord(dropoff) {
		return 1.0
	}
	from, to := m.ExtractCity(pickup), m.ExtractCity(dropoff)
	if v, ok := m.policy.IntercityPremiums[from][to]; ok {
		return v
	}
	return m.policy.DefaultIntercityPremium
}

// ExtractCity returns the first known city contained in location, or the
// location's first word when none matches.
func (m FactorModel) ExtractCity(location string) string {
	l := strings.ToLower(location)
	for _, c := range m.policy.KnownCities {
		if strings.Contains(l, c) {
			return c
		}
	}
	return firstWord(location)
}

// IsOneWay reports whether pickup and dropoff resolve to different cities.
// An empty dropoff means a return to the pickup location.
func (m FactorModel) IsOneWay(pickup, dropoff string) bool {
	if strings.TrimSpace(pickup) == "" || strings.TrimSpace(dropoff) == "" {
		return false
	}
	return m.ExtractCity(pickup) != m.ExtractCity(dropoff)
}

func tierDiscount(tiers []Tier, days int) float64 {
	if days < 0 {
		return 0
	}
	for _, t := range tiers {
		if days >= t.MinDays {
			return t.Discount
		}
	}
	return 0
}

func firstWord(s string) string {
	fields := strings.Fields(strings.ToLower(s))
	if len(fields) == 0 {
		return ""
	}
	return strings.Trim(fields[0], ",.")
}

func normalizeCity(city string) string {
	return strings.ToLower(strings.TrimSpace(city))
}
