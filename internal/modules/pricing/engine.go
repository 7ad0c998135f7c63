// README: Local price engine: factors, competitor statistics, guardrail clamp and rounding.
package pricing

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"rentprice/internal/modules/competitor"
	"rentprice/internal/types"
)

const day = 24 * time.Hour

// CompetitorCache is the competitor data the engine prices against.
// *competitor.Cache implements it.
type CompetitorCache interface {
	GetOrFetch(ctx context.Context, city, category string) ([]competitor.Rate, string)
	CachedOnly(city, category string) ([]competitor.Rate, string)
}

type Engine struct {
	policy  Policy
	factors FactorModel
	cache   CompetitorCache
	now     func() time.Time
}

func NewEngine(p Policy, cache CompetitorCache, now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{policy: p, factors: NewFactorModel(p), cache: cache, now: now}
}

func (e *Engine) Policy() Policy { return e.policy }

func (e *Engine) Factors() FactorModel { return e.factors }

// Compute prices req against whatever competitor data is already cached,
// falling back to the static catalog. It performs no I/O.
func (e *Engine) Compute(req Request) (Result, error) {
	if err := validateRequest(req); err != nil {
		return Result{}, err
	}
	rates, lastScraped := e.cache.CachedOnly(e.MarketCity(req), req.Category)
	return e.price(req, rates, lastScraped), nil
}

// ComputeFresh is Compute with competitor data refreshed when the cached
// entry has expired.
func (e *Engine) ComputeFresh(ctx context.Context, req Request) (Result, error) {
	if err := validateRequest(req); err != nil {
		return Result{}, err
	}
	rates, lastScraped := e.cache.GetOrFetch(ctx, e.MarketCity(req), req.Category)
	return e.price(req, rates, lastScraped), nil
}

// MarketCity is the city whose competitor rates and multipliers apply:
// the explicit city, else the city found in the pickup location.
func (e *Engine) MarketCity(req Request) string {
	if c := normalizeCity(req.City); c != "" {
		return c
	}
	return e.factors.ExtractCity(req.PickupLocation)
}

func validateRequest(req Request) error {
	if req.StartDate.IsZero() || req.EndDate.IsZero() {
		return ErrInvalidDates
	}
	if !req.EndDate.After(req.StartDate) {
		return fmt.Errorf("%w: start %s, end %s", ErrEndBeforeStart,
			req.StartDate.Format(time.RFC3339), req.EndDate.Format(time.RFC3339))
	}
	if !(req.BaseRate > 0) || math.IsInf(req.BaseRate, 1) {
		return fmt.Errorf("%w: got %v", ErrInvalidBaseRate, req.BaseRate)
	}
	if strings.TrimSpace(req.Category) == "" {
		return ErrMissingCategory
	}
	return nil
}

// price is the shared arithmetic of Compute and ComputeFresh. rates may be
// shared with the cache and is never modified.
func (e *Engine) price(req Request, rates []competitor.Rate, lastScraped string) Result {
	p := e.policy
	city := e.MarketCity(req)
	base := req.BaseRate
	days := ceilDays(req.EndDate.Sub(req.StartDate))
	untilPickup := ceilDays(req.StartDate.Sub(e.now()))

	isOneWay := e.factors.IsOneWay(req.PickupLocation, req.DropoffLocation)
	display := competitor.CloneRates(rates)
	if isOneWay {
		for i := range display {
			display[i].DailyRate *= p.OneWayCompetitorMarkup
			display[i].IsEstimate = true
		}
	}
	avg, lo, hi := marketStats(display, base, p)

	f := PricingFactors{
		BaseRate:               base,
		CompetitorAvg:          avg,
		CompetitorMin:          lo,
		CompetitorMax:          hi,
		DemandMultiplier:       e.factors.DemandMultiplier(req.StartDate, city),
		SeasonalMultiplier:     e.factors.SeasonalMultiplier(req.StartDate),
		WeekendMultiplier:      e.factors.WeekendMultiplier(req.StartDate),
		CityMultiplier:         e.factors.CityMultiplier(city),
		IntercityPremium:       e.factors.IntercityPremium(req.PickupLocation, req.DropoffLocation),
		AdvanceBookingDiscount: e.factors.AdvanceBookingDiscount(untilPickup),
		DurationDiscount:       e.factors.DurationDiscount(days),
		Days:                   days,
		DaysUntilPickup:        untilPickup,
	}

	// Discounts apply after every premium.
	adjusted := base * f.DemandMultiplier * f.SeasonalMultiplier * f.WeekendMultiplier *
		f.CityMultiplier * f.IntercityPremium *
		(1 - f.AdvanceBookingDiscount) * (1 - f.DurationDiscount)

	floor, ceiling := e.Guardrails(base, avg, isOneWay)
	clamped := math.Max(floor, math.Min(adjusted, ceiling))

	daily := types.RoundSAR(clamped)
	total := daily * int64(days)
	original := types.RoundSAR(base * float64(days))

	return Result{
		DailyPrice:            daily,
		TotalPrice:            total,
		OriginalPrice:         original,
		Savings:               original - total,
		Factors:               f,
		Competitors:           display,
		LastScraped:           lastScraped,
		IsOneWay:              isOneWay,
		CompetitorDataLimited: isOneWay || len(rates) == 0 || competitor.IsFallback(lastScraped),
		Breakdown:             breakdown(f, adjusted, floor, ceiling, isOneWay),
		PolicyVersion:         p.Version,
	}
}

// Guardrails returns the clamp bounds for a daily price. When the ceiling
// falls below the floor the floor wins.
func (e *Engine) Guardrails(base, competitorAvg float64, oneWay bool) (floor, ceiling float64) {
	floor = base * e.policy.FloorRatio
	ceiling = competitorAvg
	if oneWay {
		ceiling = competitorAvg * e.policy.OneWayCeilingMarkup
	}
	return floor, ceiling
}

func marketStats(rates []competitor.Rate, base float64, p Policy) (avg, lo, hi float64) {
	if len(rates) == 0 {
		return base * p.EmptyMarketAvg, base * p.EmptyMarketMin, base * p.EmptyMarketMax
	}
	lo, hi = math.Inf(1), math.Inf(-1)
	var sum float64
	for _, r := range rates {
		sum += r.DailyRate
		lo = math.Min(lo, r.DailyRate)
		hi = math.Max(hi, r.DailyRate)
	}
	return sum / float64(len(rates)), lo, hi
}

func ceilDays(d time.Duration) int {
	return int(math.Ceil(float64(d) / float64(day)))
}

func breakdown(f PricingFactors, adjusted, floor, ceiling float64, oneWay bool) []BreakdownItem {
	items := []BreakdownItem{
		{Label: "Base rate", Value: fmt.Sprintf("%.0f SAR/day", f.BaseRate), Impact: ImpactNeutral},
		multiplierItem("Demand", f.DemandMultiplier),
		multiplierItem("Season", f.SeasonalMultiplier),
		multiplierItem("Weekend", f.WeekendMultiplier),
		multiplierItem("Location", f.CityMultiplier),
	}
	switch {
	case oneWay:
		items = append(items, multiplierItem("One-way premium", f.IntercityPremium))
	case f.IntercityPremium != 1:
		items = append(items, multiplierItem("Intercity premium", f.IntercityPremium))
	}
	if f.AdvanceBookingDiscount > 0 {
		items = append(items, discountItem("Advance booking discount", f.AdvanceBookingDiscount))
	}
	if f.DurationDiscount > 0 {
		items = append(items, discountItem("Duration discount", f.DurationDiscount))
	}
	switch {
	case adjusted < floor:
		items = append(items, BreakdownItem{Label: "Minimum price", Value: "raised to price floor", Impact: ImpactIncrease})
	case adjusted > ceiling && ceiling >= floor:
		items = append(items, BreakdownItem{Label: "Market alignment", Value: "capped at competitor average", Impact: ImpactDecrease})
	case adjusted > ceiling:
		items = append(items, BreakdownItem{Label: "Market alignment", Value: "held at price floor", Impact: ImpactDecrease})
	}
	return items
}

func multiplierItem(label string, m float64) BreakdownItem {
	impact := ImpactNeutral
	switch {
	case m > 1:
		impact = ImpactIncrease
	case m < 1:
		impact = ImpactDecrease
	}
	return BreakdownItem{Label: label, Value: fmt.Sprintf("%+.0f%%", (m-1)*100), Impact: impact}
}

func discountItem(label string, d float64) BreakdownItem {
	return BreakdownItem{Label: label, Value: fmt.Sprintf("-%.0f%%", d*100), Impact: ImpactDecrease}
}
