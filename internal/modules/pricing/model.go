// README: Pricing request, factor snapshot, result and quote definitions.
package pricing

import (
	"errors"
	"time"

	"rentprice/internal/modules/competitor"
	"rentprice/internal/types"
)

var (
	ErrInvalidDates    = errors.New("invalid rental dates")
	ErrEndBeforeStart  = errors.New("end date must be after start date")
	ErrInvalidBaseRate = errors.New("base rate must be positive")
	ErrMissingCategory = errors.New("vehicle category is required")
	ErrVehicleNotFound = errors.New("vehicle not found")
	ErrSuperseded      = errors.New("quote superseded by a newer request")
)

// Request is the input to the local engine.
type Request struct {
	BaseRate        float64
	Category        string
	StartDate       time.Time
	EndDate         time.Time
	City            string
	PickupLocation  string
	DropoffLocation string
}

// PricingFactors is the multiplier snapshot behind a Result.
type PricingFactors struct {
	BaseRate               float64 `json:"base_rate"`
	CompetitorAvg          float64 `json:"competitor_avg"`
	CompetitorMin          float64 `json:"competitor_min"`
	CompetitorMax          float64 `json:"competitor_max"`
	DemandMultiplier       float64 `json:"demand_multiplier"`
	SeasonalMultiplier     float64 `json:"seasonal_multiplier"`
	WeekendMultiplier      float64 `json:"weekend_multiplier"`
	CityMultiplier         float64 `json:"city_multiplier"`
	IntercityPremium       float64 `json:"intercity_premium"`
	AdvanceBookingDiscount float64 `json:"advance_booking_discount"`
	DurationDiscount       float64 `json:"duration_discount"`
	Days                   int     `json:"days"`
	DaysUntilPickup        int     `json:"days_until_pickup"`
}

type Impact string

const (
	ImpactIncrease Impact = "increase"
	ImpactDecrease Impact = "decrease"
	ImpactNeutral  Impact = "neutral"
)

// BreakdownItem explains one contribution to the price. Display only.
type BreakdownItem struct {
	Label  string `json:"label"`
	Value  string `json:"value"`
	Impact Impact `json:"impact"`
}

// Result is one local engine computation. Prices are whole SAR.
type Result struct {
	DailyPrice            int64             `json:"daily_price"`
	TotalPrice            int64             `json:"total_price"`
	OriginalPrice         int64             `json:"original_price"`
	Savings               int64             `json:"savings"`
	Factors               PricingFactors    `json:"factors"`
	Competitors           []competitor.Rate `json:"competitors"`
	LastScraped           string            `json:"last_scraped"`
	IsOneWay              bool              `json:"is_one_way"`
	CompetitorDataLimited bool              `json:"competitor_data_limited"`
	Breakdown             []BreakdownItem   `json:"breakdown"`
	PolicyVersion         string            `json:"policy_version"`
}

// QuoteRequest is what callers of the Service send. BaseRate and Category
// may be left empty when VehicleID resolves through the vehicle store.
type QuoteRequest struct {
	VehicleID        string
	Category         string
	BaseRate         float64
	StartDate        time.Time
	EndDate          time.Time
	City             string
	PickupLocation   string
	DropoffLocation  string
	IncludeInsurance bool
}

const (
	SourceAuthority = "authority"
	SourceLocal     = "local"
)

// Quote is the price shown to a customer, from either pricing path.
type Quote struct {
	RequestID             types.ID            `json:"request_id,omitempty"`
	Source                string              `json:"source"`
	Snapshot              bool                `json:"snapshot"`
	VehicleID             string              `json:"vehicle_id,omitempty"`
	Category              competitor.Category `json:"category"`
	Days                  int                 `json:"days"`
	DailyPrice            types.Money         `json:"daily_price"`
	TotalPrice            types.Money         `json:"total_price"`
	OriginalPrice         types.Money         `json:"original_price"`
	Savings               types.Money         `json:"savings"`
	InsuranceAmount       types.Money         `json:"insurance_amount"`
	FinalTotal            types.Money         `json:"final_total"`
	CompetitorAvg         float64             `json:"competitor_avg"`
	Competitors           []competitor.Rate   `json:"competitors"`
	LastScraped           string              `json:"last_scraped,omitempty"`
	IsOneWay              bool                `json:"is_one_way"`
	OneWayPremium         float64             `json:"one_way_premium,omitempty"`
	MarketDataUsed        bool                `json:"market_data_used"`
	CompetitorDataLimited bool                `json:"competitor_data_limited"`
	Factors               *PricingFactors     `json:"factors,omitempty"`
	Breakdown             []BreakdownItem     `json:"breakdown"`
	PolicyVersion         string              `json:"policy_version,omitempty"`
}

// Vehicle is the subset of the fleet record pricing needs.
type Vehicle struct {
	ID            string
	Name          string
	Category      string
	BaseDailyRate float64
}
