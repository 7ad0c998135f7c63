package pricing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"rentprice/internal/modules/competitor"
)

func TestCompute_LuxurySameCityClampedToFloor(t *testing.T) {
	cache := &stubCache{rates: luxuryRates(), last: "2026-10-15T08:00:00Z"}
	e := NewEngine(DefaultPolicy(), cache, fixedNow)

	start := time.Date(2026, 11, 2, 10, 0, 0, 0, time.UTC) // Monday, 17 days out
	res, err := e.Compute(Request{
		BaseRate:        575,
		Category:        "luxury",
		StartDate:       start,
		EndDate:         start.Add(3 * day),
		City:            "Riyadh",
		PickupLocation:  "Riyadh Airport",
		DropoffLocation: "Riyadh Airport",
	})
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	if res.IsOneWay {
		t.Fatal("same-city trip reported as one-way")
	}
	if res.Factors.CompetitorAvg != 354 {
		t.Fatalf("CompetitorAvg = %v, want 354", res.Factors.CompetitorAvg)
	}
	if res.Factors.DurationDiscount != 0.05 {
		t.Errorf("DurationDiscount = %v, want 0.05", res.Factors.DurationDiscount)
	}
	// 575 * 1.02 * 0.90 * 0.95 = 501.46 exceeds the 354 average, but the
	// 460 floor is above the average, so the floor wins.
	if res.DailyPrice != 460 {
		t.Errorf("DailyPrice = %d, want 460", res.DailyPrice)
	}
	if res.TotalPrice != 1380 || res.OriginalPrice != 1725 || res.Savings != 345 {
		t.Errorf("totals = %d/%d/%d, want 1380/1725/345", res.TotalPrice, res.OriginalPrice, res.Savings)
	}
	for _, r := range res.Competitors {
		if r.IsEstimate {
			t.Errorf("same-city rate %s flagged as estimate", r.Provider)
		}
	}
	if res.CompetitorDataLimited {
		t.Error("live same-city data should not be limited")
	}
	if calls := cache.Calls(); len(calls) != 1 || calls[0] != "cached:riyadh:luxury" {
		t.Errorf("cache calls = %v", calls)
	}
}

func TestCompute_OneWayMarksEstimates(t *testing.T) {
	cache := &stubCache{rates: luxuryRates(), last: "2026-10-15T08:00:00Z"}
	e := NewEngine(DefaultPolicy(), cache, fixedNow)

	start := time.Date(2026, 11, 2, 10, 0, 0, 0, time.UTC)
	res, err := e.Compute(Request{
		BaseRate:        300,
		Category:        "luxury",
		StartDate:       start,
		EndDate:         start.Add(3 * day),
		PickupLocation:  "Riyadh Airport",
		DropoffLocation: "Jeddah Airport",
	})
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	if !res.IsOneWay || !res.CompetitorDataLimited {
		t.Fatalf("IsOneWay=%v CompetitorDataLimited=%v, want both true", res.IsOneWay, res.CompetitorDataLimited)
	}
	raw := luxuryRates()
	for i, r := range res.Competitors {
		if !r.IsEstimate {
			t.Errorf("rate %s not flagged as estimate", r.Provider)
		}
		if want := raw[i].DailyRate * 1.25; math.Abs(r.DailyRate-want) > 1e-9 {
			t.Errorf("rate %s = %v, want %v", r.Provider, r.DailyRate, want)
		}
	}
	// The cached slice must be untouched.
	if cache.rates[0].DailyRate != 340 || cache.rates[0].IsEstimate {
		t.Errorf("cached rate mutated: %+v", cache.rates[0])
	}
	if res.Factors.IntercityPremium != 1.25 {
		t.Errorf("IntercityPremium = %v, want 1.25", res.Factors.IntercityPremium)
	}
	// 300 * 1.02 * 1.25 * 0.90 * 0.95 = 327.04, under the 486.75 one-way ceiling.
	if res.DailyPrice != 327 {
		t.Errorf("DailyPrice = %d, want 327", res.DailyPrice)
	}
}

func TestCompute_AdvanceBookingFromDates(t *testing.T) {
	tests := []struct {
		lead int
		want float64
	}{
		{45, 0.15}, {10, 0.05}, {2, 0},
	}
	for _, tt := range tests {
		e := NewEngine(DefaultPolicy(), &stubCache{rates: luxuryRates(), last: "x"}, fixedNow)
		start := daysFromNow(tt.lead)
		res, err := e.Compute(Request{BaseRate: 200, Category: "sedan", StartDate: start, EndDate: start.Add(day), City: "riyadh"})
		if err != nil {
			t.Fatalf("Compute: %v", err)
		}
		if res.Factors.DaysUntilPickup != tt.lead {
			t.Errorf("DaysUntilPickup = %d, want %d", res.Factors.DaysUntilPickup, tt.lead)
		}
		if res.Factors.AdvanceBookingDiscount != tt.want {
			t.Errorf("lead %d: discount = %v, want %v", tt.lead, res.Factors.AdvanceBookingDiscount, tt.want)
		}
	}
}

func TestCompute_EmptyMarketUsesBaseRate(t *testing.T) {
	e := NewEngine(DefaultPolicy(), &stubCache{last: competitor.LastScrapedFallback}, fixedNow)
	start := daysFromNow(3)
	res, err := e.Compute(Request{BaseRate: 200, Category: "sedan", StartDate: start, EndDate: start.Add(day), City: "riyadh"})
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	f := res.Factors
	if f.CompetitorAvg != 200 || math.Abs(f.CompetitorMin-180) > 1e-9 || math.Abs(f.CompetitorMax-220) > 1e-9 {
		t.Errorf("market stats = %v/%v/%v, want 200/180/220", f.CompetitorAvg, f.CompetitorMin, f.CompetitorMax)
	}
	if !res.CompetitorDataLimited {
		t.Error("empty market should be flagged as limited")
	}
}

func TestCompute_PartialDaysRoundUp(t *testing.T) {
	e := NewEngine(DefaultPolicy(), &stubCache{rates: luxuryRates(), last: "x"}, fixedNow)
	start := daysFromNow(5)
	res, err := e.Compute(Request{BaseRate: 300, Category: "luxury", StartDate: start, EndDate: start.Add(49 * time.Hour), City: "riyadh"})
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if res.Factors.Days != 3 {
		t.Errorf("Days = %d, want 3", res.Factors.Days)
	}
	if res.TotalPrice != res.DailyPrice*3 {
		t.Errorf("TotalPrice = %d, want %d", res.TotalPrice, res.DailyPrice*3)
	}
}

func TestCompute_Validation(t *testing.T) {
	e := NewEngine(DefaultPolicy(), &stubCache{}, fixedNow)
	start := daysFromNow(3)
	tests := []struct {
		name string
		req  Request
		want error
	}{
		{"zero start", Request{BaseRate: 100, Category: "sedan", EndDate: start}, ErrInvalidDates},
		{"end before start", Request{BaseRate: 100, Category: "sedan", StartDate: start, EndDate: start.Add(-day)}, ErrEndBeforeStart},
		{"same instant", Request{BaseRate: 100, Category: "sedan", StartDate: start, EndDate: start}, ErrEndBeforeStart},
		{"zero base", Request{BaseRate: 0, Category: "sedan", StartDate: start, EndDate: start.Add(day)}, ErrInvalidBaseRate},
		{"negative base", Request{BaseRate: -5, Category: "sedan", StartDate: start, EndDate: start.Add(day)}, ErrInvalidBaseRate},
		{"nan base", Request{BaseRate: math.NaN(), Category: "sedan", StartDate: start, EndDate: start.Add(day)}, ErrInvalidBaseRate},
		{"missing category", Request{BaseRate: 100, StartDate: start, EndDate: start.Add(day)}, ErrMissingCategory},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := e.Compute(tt.req); !errors.Is(err, tt.want) {
				t.Errorf("Compute err = %v, want %v", err, tt.want)
			}
			if _, err := e.ComputeFresh(context.Background(), tt.req); !errors.Is(err, tt.want) {
				t.Errorf("ComputeFresh err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestCompute_Idempotent(t *testing.T) {
	cache := &stubCache{rates: luxuryRates(), last: "2026-10-15T08:00:00Z"}
	e := NewEngine(DefaultPolicy(), cache, fixedNow)
	start := daysFromNow(9)
	req := Request{BaseRate: 410, Category: "luxury", StartDate: start, EndDate: start.Add(4 * day),
		PickupLocation: "Jeddah Airport", DropoffLocation: "Mecca"}

	a, err := e.ComputeFresh(context.Background(), req)
	if err != nil {
		t.Fatalf("ComputeFresh: %v", err)
	}
	b, err := e.ComputeFresh(context.Background(), req)
	if err != nil {
		t.Fatalf("ComputeFresh: %v", err)
	}
	ja, _ := json.Marshal(a)
	jb, _ := json.Marshal(b)
	if !bytes.Equal(ja, jb) {
		t.Fatalf("results differ:\n%s\n%s", ja, jb)
	}
}

func TestCompute_GuardrailSweep(t *testing.T) {
	cities := []string{"riyadh", "jeddah", "dammam", "mecca", "medina", "taif", "abha"}
	routes := [][2]string{
		{"", ""},
		{"Riyadh Airport", "Jeddah Airport"},
		{"Dammam", "Medina"},
		{"Tabuk", "Abha"},
	}
	bases := []float64{80, 175, 575}
	markets := [][]competitor.Rate{nil, luxuryRates(), {{Provider: "Cheap", DailyRate: 60}}}

	for _, market := range markets {
		e := NewEngine(DefaultPolicy(), &stubCache{rates: market, last: "x"}, fixedNow)
		for _, city := range cities {
			for _, route := range routes {
				for _, base := range bases {
					for lead := -2; lead <= 60; lead += 7 {
						for _, days := range []int{1, 2, 3, 7, 14, 30, 45} {
							start := daysFromNow(lead)
							res, err := e.Compute(Request{
								BaseRate: base, Category: "suv", StartDate: start, EndDate: start.Add(time.Duration(days) * day),
								City: city, PickupLocation: route[0], DropoffLocation: route[1],
							})
							if err != nil {
								t.Fatalf("Compute: %v", err)
							}
							floor, ceiling := e.Guardrails(base, res.Factors.CompetitorAvg, res.IsOneWay)
							daily := float64(res.DailyPrice)
							if daily < floor-0.5 {
								t.Fatalf("daily %v below floor %v (city=%s route=%v base=%v)", daily, floor, city, route, base)
							}
							if ceiling >= floor && daily > ceiling+0.5 {
								t.Fatalf("daily %v above ceiling %v (city=%s route=%v base=%v)", daily, ceiling, city, route, base)
							}
							if ceiling < floor && daily != math.Round(floor) {
								t.Fatalf("daily %v, want floor %v when ceiling %v is lower", daily, floor, ceiling)
							}
							if res.TotalPrice != res.DailyPrice*int64(days) {
								t.Fatalf("total %d != daily %d x %d", res.TotalPrice, res.DailyPrice, days)
							}
							if res.Factors.Days != days {
								t.Fatalf("Days = %d, want %d", res.Factors.Days, days)
							}
						}
					}
				}
			}
		}
	}
}

func TestCompute_Breakdown(t *testing.T) {
	e := NewEngine(DefaultPolicy(), &stubCache{rates: luxuryRates(), last: "x"}, fixedNow)
	start := time.Date(2026, 11, 2, 10, 0, 0, 0, time.UTC)
	res, err := e.Compute(Request{BaseRate: 575, Category: "luxury", StartDate: start, EndDate: start.Add(3 * day), City: "riyadh"})
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	want := map[string]BreakdownItem{
		"Base rate":                {Label: "Base rate", Value: "575 SAR/day", Impact: ImpactNeutral},
		"Season":                   {Label: "Season", Value: "+2%", Impact: ImpactIncrease},
		"Advance booking discount": {Label: "Advance booking discount", Value: "-10%", Impact: ImpactDecrease},
		"Duration discount":        {Label: "Duration discount", Value: "-5%", Impact: ImpactDecrease},
		"Market alignment":         {Label: "Market alignment", Value: "held at price floor", Impact: ImpactDecrease},
	}
	got := make(map[string]BreakdownItem)
	for _, item := range res.Breakdown {
		got[item.Label] = item
	}
	for label, w := range want {
		if got[label] != w {
			t.Errorf("breakdown[%s] = %+v, want %+v", label, got[label], w)
		}
	}
	if _, ok := got["One-way premium"]; ok {
		t.Error("same-city breakdown lists a one-way premium")
	}
}

func TestCompute_SameCityDifferentBranchesListsIntercityPremium(t *testing.T) {
	e := NewEngine(DefaultPolicy(), &stubCache{rates: luxuryRates(), last: "x"}, fixedNow)
	start := time.Date(2026, 11, 2, 10, 0, 0, 0, time.UTC)
	res, err := e.Compute(Request{
		BaseRate: 300, Category: "luxury", StartDate: start, EndDate: start.Add(3 * day), City: "riyadh",
		PickupLocation: "King Khalid Airport, Riyadh", DropoffLocation: "Olaya Riyadh",
	})
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if res.IsOneWay {
		t.Fatal("same extracted city reported as one-way")
	}
	if res.Factors.IntercityPremium != 1.20 {
		t.Fatalf("IntercityPremium = %v, want 1.20", res.Factors.IntercityPremium)
	}
	want := BreakdownItem{Label: "Intercity premium", Value: "+20%", Impact: ImpactIncrease}
	found := false
	for _, item := range res.Breakdown {
		if item.Label == "One-way premium" {
			t.Errorf("breakdown lists a one-way premium: %+v", item)
		}
		if item == want {
			found = true
		}
	}
	if !found {
		t.Errorf("breakdown %+v missing %+v", res.Breakdown, want)
	}
}
