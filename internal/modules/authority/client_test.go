package authority

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNormalizeBranchKey(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Riyadh Airport", "riyadh_airport"},
		{"  King Fahd   Road ", "king_fahd_road"},
		{"jeddah", "jeddah"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeBranchKey(tt.in); got != tt.want {
			t.Errorf("NormalizeBranchKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNewClient_EmptyURLDisables(t *testing.T) {
	if c := NewClient("", time.Second, nil); c != nil {
		t.Fatal("expected nil client for empty base URL")
	}
}

func TestPriceViaAuthority_Success(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v1/pricing/unified-price" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		io.WriteString(w, `{"vehicle_id":"v1","daily_rate":420,"duration_days":3,"base_total":1260,
			"insurance_amount":189,"final_total":1449,"competitor_avg":450,"class_bucket":"luxury",
			"market_data_used":true,"is_one_way":true,"one_way_premium":0.15,"breakdown":{"demand":1.05},
			"source":"unified_pricing_engine"}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/api/v1/", 2*time.Second, quietLogger())
	price, err := c.PriceViaAuthority(context.Background(), Request{
		VehicleID:        "v1",
		PickupBranchKey:  "Riyadh Airport",
		DropoffBranchKey: "Jeddah Airport",
		PickupDate:       time.Date(2026, 11, 1, 10, 0, 0, 0, time.UTC),
		DropoffDate:      time.Date(2026, 11, 4, 10, 0, 0, 0, time.UTC),
		IncludeInsurance: true,
	})
	if err != nil {
		t.Fatalf("PriceViaAuthority: %v", err)
	}
	if got["branch_key"] != "riyadh_airport" || got["dropoff_branch_key"] != "jeddah_airport" {
		t.Errorf("branch keys sent = %v / %v", got["branch_key"], got["dropoff_branch_key"])
	}
	if got["pickup_date"] != "2026-11-01" || got["dropoff_date"] != "2026-11-04" {
		t.Errorf("dates sent = %v / %v", got["pickup_date"], got["dropoff_date"])
	}
	if got["include_insurance"] != true {
		t.Errorf("include_insurance = %v", got["include_insurance"])
	}
	if price.DailyRate != 420 || price.ClassBucket != "luxury" || !price.IsOneWay || price.OneWayPremium != 0.15 {
		t.Errorf("unexpected price %+v", price)
	}
	if price.CompetitorAvg == nil || *price.CompetitorAvg != 450 {
		t.Errorf("CompetitorAvg = %v", price.CompetitorAvg)
	}
}

func TestPriceViaAuthority_OmitsEmptyDropoff(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		io.WriteString(w, `{"daily_rate":200,"duration_days":1,"class_bucket":"sedan","competitor_avg":null}`)
	}))
	defer srv.Close()

	price, err := NewClient(srv.URL, time.Second, quietLogger()).PriceViaAuthority(context.Background(), Request{
		VehicleID: "v2", PickupBranchKey: "dammam",
		PickupDate: time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC), DropoffDate: time.Date(2026, 11, 2, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("PriceViaAuthority: %v", err)
	}
	if _, ok := got["dropoff_branch_key"]; ok {
		t.Error("dropoff_branch_key sent for same-branch request")
	}
	if price.CompetitorAvg != nil {
		t.Errorf("CompetitorAvg = %v, want nil", *price.CompetitorAvg)
	}
}

func TestPriceViaAuthority_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "engine exploded", http.StatusInternalServerError)
		}},
		{"not found", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "vehicle not found", http.StatusNotFound)
		}},
		{"bad json", func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, `{"daily_rate":`)
		}},
		{"zero rate", func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, `{"daily_rate":0}`)
		}},
		{"timeout", func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(300 * time.Millisecond)
			io.WriteString(w, `{"daily_rate":100}`)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			c := NewClient(srv.URL, 100*time.Millisecond, quietLogger())
			price, err := c.PriceViaAuthority(context.Background(), Request{VehicleID: "v1", PickupBranchKey: "riyadh"})
			if !errors.Is(err, ErrUnavailable) {
				t.Fatalf("err = %v, want ErrUnavailable", err)
			}
			if price != nil {
				t.Fatalf("price = %+v, want nil", price)
			}
		})
	}
}
