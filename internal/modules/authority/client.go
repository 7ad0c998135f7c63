// README: Client for the remote unified pricing service that is authoritative when reachable.
package authority

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// ErrUnavailable wraps every failure to obtain an authoritative price.
var ErrUnavailable = errors.New("authority unavailable")

const dateLayout = "2006-01-02"

// NormalizeBranchKey lower-cases key and joins words with underscores,
// e.g. "Riyadh Airport" -> "riyadh_airport".
func NormalizeBranchKey(key string) string {
	return strings.Join(strings.Fields(strings.ToLower(key)), "_")
}

type Request struct {
	VehicleID        string
	PickupBranchKey  string
	DropoffBranchKey string
	PickupDate       time.Time
	DropoffDate      time.Time
	IncludeInsurance bool
}

// Price is the authority's answer. CompetitorAvg is nil when the service had
// no market data.
type Price struct {
	VehicleID           string         `json:"vehicle_id"`
	VehicleName         string         `json:"vehicle_name"`
	DailyRate           float64        `json:"daily_rate"`
	DurationDays        int            `json:"duration_days"`
	BaseTotal           float64        `json:"base_total"`
	InsuranceAmount     float64        `json:"insurance_amount"`
	FinalTotal          float64        `json:"final_total"`
	CompetitorAvg       *float64       `json:"competitor_avg"`
	SavingsVsCompetitor *float64       `json:"savings_vs_competitor"`
	ClassBucket         string         `json:"class_bucket"`
	MarketDataUsed      bool           `json:"market_data_used"`
	IsOneWay            bool           `json:"is_one_way"`
	OneWayPremium       float64        `json:"one_way_premium"`
	Breakdown           map[string]any `json:"breakdown"`
	Source              string         `json:"source"`
}

type unifiedPriceRequest struct {
	VehicleID        string  `json:"vehicle_id"`
	BranchKey        string  `json:"branch_key"`
	PickupDate       string  `json:"pickup_date"`
	DropoffDate      string  `json:"dropoff_date"`
	IncludeInsurance bool    `json:"include_insurance"`
	DropoffBranchKey *string `json:"dropoff_branch_key,omitempty"`
}

type Client struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// NewClient returns nil when baseURL is empty so callers can treat a missing
// authority as "not configured".
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL == "" {
		return nil
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// PriceViaAuthority asks the unified pricing service for a price. Any
// transport, status or decode failure is returned wrapped in ErrUnavailable;
// there is no retry.
func (c *Client) PriceViaAuthority(ctx context.Context, req Request) (*Price, error) {
	body := unifiedPriceRequest{
		VehicleID:        req.VehicleID,
		BranchKey:        NormalizeBranchKey(req.PickupBranchKey),
		PickupDate:       req.PickupDate.Format(dateLayout),
		DropoffDate:      req.DropoffDate.Format(dateLayout),
		IncludeInsurance: req.IncludeInsurance,
	}
	if req.DropoffBranchKey != "" {
		dropoff := NormalizeBranchKey(req.DropoffBranchKey)
		body.DropoffBranchKey = &dropoff
	}

	price, err := c.post(ctx, body)
	if err != nil {
		c.logger.Warn("authority pricing failed",
			"vehicle_id", req.VehicleID, "branch_key", body.BranchKey, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return price, nil
}

func (c *Client) post(ctx context.Context, body unifiedPriceRequest) (*Price, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("json marshal: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/pricing/unified-price", bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("http POST: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, truncate(respBody, 200))
	}

	var price Price
	if err := json.Unmarshal(respBody, &price); err != nil {
		return nil, fmt.Errorf("json unmarshal: %w", err)
	}
	if price.DailyRate <= 0 {
		return nil, fmt.Errorf("non-positive daily_rate %v", price.DailyRate)
	}
	return &price, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
