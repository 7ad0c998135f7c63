// README: Pricing service orchestrates the authoritative and local pricing paths into quotes.
package pricing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"rentprice/internal/modules/authority"
	"rentprice/internal/modules/competitor"
	"rentprice/internal/types"
)

// Authority is the remote unified pricing service. *authority.Client
// implements it.
type Authority interface {
	PriceViaAuthority(ctx context.Context, req authority.Request) (*authority.Price, error)
}

// VehicleLookup resolves a vehicle's base rate and class. *Store implements it.
type VehicleLookup interface {
	GetVehicle(ctx context.Context, id string) (Vehicle, error)
}

type ServiceOptions struct {
	// Authority nil disables the authoritative path.
	Authority Authority
	// Vehicles nil means requests must carry their own base rate.
	Vehicles VehicleLookup
	Logger   *slog.Logger
}

type Service struct {
	engine    *Engine
	cache     CompetitorCache
	authority Authority
	vehicles  VehicleLookup
	logger    *slog.Logger
}

func NewService(engine *Engine, cache CompetitorCache, opts ServiceOptions) *Service {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Service{
		engine:    engine,
		cache:     cache,
		authority: opts.Authority,
		vehicles:  opts.Vehicles,
		logger:    opts.Logger,
	}
}

// Quote prices req. With a vehicle id and a configured authority the
// authoritative price is tried first; any failure there falls back to the
// local engine with fresh competitor data.
func (s *Service) Quote(ctx context.Context, req QuoteRequest) (Quote, error) {
	if err := validateDates(req); err != nil {
		return Quote{}, err
	}
	if req.VehicleID != "" && s.authority != nil {
		q, err := s.quoteViaAuthority(ctx, req)
		if err == nil {
			return q, nil
		}
		s.logger.Warn("authoritative pricing unavailable, using local engine",
			"vehicle_id", req.VehicleID, "reason", err)
	}

	lreq, err := s.localRequest(ctx, req)
	if err != nil {
		return Quote{}, err
	}
	res, err := s.engine.ComputeFresh(ctx, lreq)
	if err != nil {
		return Quote{}, err
	}
	return s.localQuote(req, lreq, res, false), nil
}

// Snapshot is the local price from cached or catalog competitor data only.
// ctx bounds the vehicle lookup when the base rate must be resolved.
func (s *Service) Snapshot(ctx context.Context, req QuoteRequest) (Quote, error) {
	if err := validateDates(req); err != nil {
		return Quote{}, err
	}
	lreq, err := s.localRequest(ctx, req)
	if err != nil {
		return Quote{}, err
	}
	res, err := s.engine.Compute(lreq)
	if err != nil {
		return Quote{}, err
	}
	return s.localQuote(req, lreq, res, true), nil
}

// QuoteProgressive emits the snapshot and then the full quote for req, both
// tagged with a fresh request identity from tracker. Each emission happens
// only while that identity is still current; if a newer request began before
// the full quote was ready, the quote is dropped and ErrSuperseded returned.
func (s *Service) QuoteProgressive(ctx context.Context, req QuoteRequest, tracker *Tracker, emit func(Quote)) (types.ID, error) {
	id := tracker.Begin()

	snap, err := s.Snapshot(ctx, req)
	if err != nil {
		return id, err
	}
	snap.RequestID = id
	tracker.Apply(id, func() { emit(snap) })

	full, err := s.Quote(ctx, req)
	if err != nil {
		return id, err
	}
	full.RequestID = id
	if !tracker.Apply(id, func() { emit(full) }) {
		s.logger.Debug("discarding superseded quote", "request_id", id, "current", tracker.Current())
		return id, ErrSuperseded
	}
	return id, nil
}

func (s *Service) quoteViaAuthority(ctx context.Context, req QuoteRequest) (Quote, error) {
	pickup := req.PickupLocation
	if strings.TrimSpace(pickup) == "" {
		pickup = req.City
	}
	areq := authority.Request{
		VehicleID:        req.VehicleID,
		PickupBranchKey:  pickup,
		PickupDate:       req.StartDate,
		DropoffDate:      req.EndDate,
		IncludeInsurance: req.IncludeInsurance,
	}
	if d := strings.TrimSpace(req.DropoffLocation); d != "" &&
		authority.NormalizeBranchKey(d) != authority.NormalizeBranchKey(pickup) {
		areq.DropoffBranchKey = d
	}

	price, err := s.authority.PriceViaAuthority(ctx, areq)
	if err != nil {
		return Quote{}, err
	}
	if price == nil {
		return Quote{}, fmt.Errorf("%w: empty response", authority.ErrUnavailable)
	}

	// Competitor display data follows the class the authority priced with,
	// not the class the caller asked for.
	class := competitor.NormalizeCategory(price.ClassBucket)
	if class == "" {
		class = competitor.NormalizeCategory(req.Category)
	}
	city := s.engine.MarketCity(Request{City: req.City, PickupLocation: pickup})
	rates, lastScraped := s.cache.GetOrFetch(ctx, city, string(class))
	display := competitor.CloneRates(rates)
	if price.IsOneWay {
		for i := range display {
			display[i].DailyRate *= 1 + price.OneWayPremium
			display[i].IsEstimate = true
		}
	}

	days := price.DurationDays
	if days <= 0 {
		days = ceilDays(req.EndDate.Sub(req.StartDate))
	}
	daily := types.RoundSAR(price.DailyRate)
	total := types.RoundSAR(price.BaseTotal)
	if total <= 0 {
		total = daily * int64(days)
	}
	original := total
	if req.BaseRate > 0 {
		original = types.RoundSAR(req.BaseRate * float64(days))
	}
	final := types.RoundSAR(price.FinalTotal)
	if final <= 0 {
		final = total + types.RoundSAR(price.InsuranceAmount)
	}

	var avg float64
	if price.CompetitorAvg != nil {
		avg = *price.CompetitorAvg
	}

	return Quote{
		Source:                SourceAuthority,
		VehicleID:             req.VehicleID,
		Category:              class,
		Days:                  days,
		DailyPrice:            types.SAR(daily),
		TotalPrice:            types.SAR(total),
		OriginalPrice:         types.SAR(original),
		Savings:               types.SAR(original - total),
		InsuranceAmount:       types.SAR(types.RoundSAR(price.InsuranceAmount)),
		FinalTotal:            types.SAR(final),
		CompetitorAvg:         avg,
		Competitors:           display,
		LastScraped:           lastScraped,
		IsOneWay:              price.IsOneWay,
		OneWayPremium:         price.OneWayPremium,
		MarketDataUsed:        price.MarketDataUsed,
		CompetitorDataLimited: price.IsOneWay || !price.MarketDataUsed,
		Breakdown:             authorityBreakdown(price.Breakdown),
	}, nil
}

// localRequest fills a missing base rate or category from the vehicle store.
func (s *Service) localRequest(ctx context.Context, req QuoteRequest) (Request, error) {
	lreq := Request{
		BaseRate:        req.BaseRate,
		Category:        req.Category,
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		City:            req.City,
		PickupLocation:  req.PickupLocation,
		DropoffLocation: req.DropoffLocation,
	}
	needsVehicle := lreq.BaseRate <= 0 || strings.TrimSpace(lreq.Category) == ""
	if !needsVehicle || req.VehicleID == "" || s.vehicles == nil {
		return lreq, nil
	}
	v, err := s.vehicles.GetVehicle(ctx, req.VehicleID)
	if err != nil {
		return Request{}, fmt.Errorf("resolve vehicle %s: %w", req.VehicleID, err)
	}
	if lreq.BaseRate <= 0 {
		lreq.BaseRate = v.BaseDailyRate
	}
	if strings.TrimSpace(lreq.Category) == "" {
		lreq.Category = v.Category
	}
	return lreq, nil
}

func (s *Service) localQuote(req QuoteRequest, lreq Request, res Result, snapshot bool) Quote {
	var insurance int64
	if req.IncludeInsurance {
		insurance = types.RoundSAR(float64(res.TotalPrice) * s.engine.Policy().InsuranceRate)
	}
	factors := res.Factors
	var oneWayPremium float64
	if res.IsOneWay {
		oneWayPremium = factors.IntercityPremium - 1
	}
	return Quote{
		Source:                SourceLocal,
		Snapshot:              snapshot,
		VehicleID:             req.VehicleID,
		Category:              competitor.NormalizeCategory(lreq.Category),
		Days:                  factors.Days,
		DailyPrice:            types.SAR(res.DailyPrice),
		TotalPrice:            types.SAR(res.TotalPrice),
		OriginalPrice:         types.SAR(res.OriginalPrice),
		Savings:               types.SAR(res.Savings),
		InsuranceAmount:       types.SAR(insurance),
		FinalTotal:            types.SAR(res.TotalPrice + insurance),
		CompetitorAvg:         factors.CompetitorAvg,
		Competitors:           res.Competitors,
		LastScraped:           res.LastScraped,
		IsOneWay:              res.IsOneWay,
		OneWayPremium:         oneWayPremium,
		MarketDataUsed:        !competitor.IsFallback(res.LastScraped) && len(res.Competitors) > 0,
		CompetitorDataLimited: res.CompetitorDataLimited,
		Factors:               &factors,
		Breakdown:             res.Breakdown,
		PolicyVersion:         res.PolicyVersion,
	}
}

func validateDates(req QuoteRequest) error {
	if req.StartDate.IsZero() || req.EndDate.IsZero() {
		return ErrInvalidDates
	}
	if !req.EndDate.After(req.StartDate) {
		return ErrEndBeforeStart
	}
	return nil
}

// authorityBreakdown flattens the authority's free-form breakdown into
// display items ordered by key.
func authorityBreakdown(m map[string]any) []BreakdownItem {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	items := make([]BreakdownItem, 0, len(keys))
	for _, k := range keys {
		items = append(items, BreakdownItem{
			Label:  strings.ReplaceAll(k, "_", " "),
			Value:  fmt.Sprint(m[k]),
			Impact: ImpactNeutral,
		})
	}
	return items
}

// IsValidation reports whether err is a caller input error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidDates) ||
		errors.Is(err, ErrEndBeforeStart) ||
		errors.Is(err, ErrInvalidBaseRate) ||
		errors.Is(err, ErrMissingCategory)
}
