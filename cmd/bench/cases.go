// README: Bench cases for pricing-api; HTTP contract checks, Redis cache keys, vehicle table and quote throughput.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

const (
	StatusPass = "PASS"
	StatusFail = "FAIL"
	StatusSkip = "SKIP"
)

type Runner struct {
	cfg   Config
	httpc *http.Client
	db    *pgxpool.Pool
	redis *redis.Client
}

type Result struct {
	Name    string
	Status  string
	Latency time.Duration
	Note    string
}

type TestCase struct {
	Name string
	Run  func(ctx context.Context, r *Runner) Result
}

func NewRunner(cfg Config) *Runner {
	return &Runner{
		cfg:   cfg,
		httpc: &http.Client{Timeout: 10 * time.Second},
	}
}

func (r *Runner) RunAll(ctx context.Context) []Result {
	if r.cfg.DSN != "" {
		if db, err := pgxpool.New(ctx, r.cfg.DSN); err == nil {
			r.db = db
		}
	}
	if r.cfg.RedisAddr != "" {
		r.redis = redis.NewClient(&redis.Options{Addr: r.cfg.RedisAddr})
	}

	tests := r.cases()
	results := make([]Result, 0, len(tests))

	for _, tc := range tests {
		res := tc.Run(ctx, r)
		res.Name = tc.Name
		results = append(results, res)
		fmt.Printf("%-5s %s", res.Status, tc.Name)
		if res.Latency > 0 {
			fmt.Printf(" (%s)", res.Latency)
		}
		if res.Note != "" {
			fmt.Printf(" - %s", res.Note)
		}
		fmt.Println()
	}

	if r.db != nil {
		r.db.Close()
	}
	if r.redis != nil {
		_ = r.redis.Close()
	}

	return results
}

// quotePayload books a three-day rental starting two weeks out.
func (r *Runner) quotePayload() map[string]any {
	start := time.Now().UTC().AddDate(0, 0, 14)
	return map[string]any{
		"category":         r.cfg.Category,
		"base_rate":        200,
		"start_date":       start.Format("2006-01-02"),
		"end_date":         start.AddDate(0, 0, 3).Format("2006-01-02"),
		"city":             r.cfg.City,
		"pickup_location":  r.cfg.City + " Airport",
		"dropoff_location": r.cfg.City + " Airport",
	}
}

func (r *Runner) cases() []TestCase {
	base := r.cfg.BaseURL
	return []TestCase{
		{
			Name: "HTTP: health",
			Run: func(ctx context.Context, r *Runner) Result {
				status, _, latency, err := r.do(ctx, http.MethodGet, base+"/health", nil)
				if err != nil {
					return Result{Status: StatusFail, Note: err.Error()}
				}
				if status != http.StatusOK {
					return Result{Status: StatusFail, Latency: latency, Note: fmt.Sprintf("status=%d", status)}
				}
				return Result{Status: StatusPass, Latency: latency}
			},
		},
		{
			Name: "Quote: priced within guardrails",
			Run: func(ctx context.Context, r *Runner) Result {
				return r.checkQuote(ctx, base+"/api/pricing/quote")
			},
		},
		{
			Name: "Quote: snapshot",
			Run: func(ctx context.Context, r *Runner) Result {
				return r.checkQuote(ctx, base+"/api/pricing/quote/snapshot")
			},
		},
		{
			Name: "Quote: end before start rejected",
			Run: func(ctx context.Context, r *Runner) Result {
				p := r.quotePayload()
				p["start_date"], p["end_date"] = p["end_date"], p["start_date"]
				status, _, latency, err := r.do(ctx, http.MethodPost, base+"/api/pricing/quote", p)
				if err != nil {
					return Result{Status: StatusFail, Note: err.Error()}
				}
				if status != http.StatusBadRequest {
					return Result{Status: StatusFail, Latency: latency, Note: fmt.Sprintf("status=%d, want 400", status)}
				}
				return Result{Status: StatusPass, Latency: latency}
			},
		},
		{
			Name: "Quote: malformed date rejected",
			Run: func(ctx context.Context, r *Runner) Result {
				p := r.quotePayload()
				p["start_date"] = "next tuesday"
				status, _, latency, err := r.do(ctx, http.MethodPost, base+"/api/pricing/quote", p)
				if err != nil {
					return Result{Status: StatusFail, Note: err.Error()}
				}
				if status != http.StatusBadRequest {
					return Result{Status: StatusFail, Latency: latency, Note: fmt.Sprintf("status=%d, want 400", status)}
				}
				return Result{Status: StatusPass, Latency: latency}
			},
		},
		{
			Name: "Competitors: list",
			Run: func(ctx context.Context, r *Runner) Result {
				q := url.Values{}
				q.Set("city", r.cfg.City)
				q.Set("category", r.cfg.Category)
				status, body, latency, err := r.do(ctx, http.MethodGet, base+"/api/competitors?"+q.Encode(), nil)
				if err != nil {
					return Result{Status: StatusFail, Note: err.Error()}
				}
				if status != http.StatusOK {
					return Result{Status: StatusFail, Latency: latency, Note: fmt.Sprintf("status=%d", status)}
				}
				var resp struct {
					Competitors []json.RawMessage `json:"competitors"`
					LastScraped string            `json:"last_scraped"`
					IsFallback  bool              `json:"is_fallback"`
				}
				if err := json.Unmarshal(body, &resp); err != nil {
					return Result{Status: StatusFail, Latency: latency, Note: err.Error()}
				}
				if len(resp.Competitors) == 0 {
					return Result{Status: StatusFail, Latency: latency, Note: "no competitor rates"}
				}
				return Result{Status: StatusPass, Latency: latency,
					Note: fmt.Sprintf("rates=%d last_scraped=%s fallback=%t", len(resp.Competitors), resp.LastScraped, resp.IsFallback)}
			},
		},
		{
			Name: "Redis: competitor cache key present",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.redis == nil {
					return Result{Status: StatusSkip, Note: "redis not configured"}
				}
				ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
				defer cancel()
				key := fmt.Sprintf("competitor:cache:%s:%s", strings.ToLower(r.cfg.City), strings.ToLower(r.cfg.Category))
				n, err := r.redis.Exists(ctx, key).Result()
				if err != nil {
					return Result{Status: StatusFail, Note: err.Error()}
				}
				if n == 0 {
					return Result{Status: StatusFail, Note: "missing " + key}
				}
				ttl, _ := r.redis.TTL(ctx, key).Result()
				return Result{Status: StatusPass, Note: fmt.Sprintf("%s ttl=%s", key, ttl)}
			},
		},
		{
			Name: "DB: vehicles table readable",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.db == nil {
					return Result{Status: StatusSkip, Note: "db not configured"}
				}
				ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
				defer cancel()
				var n int64
				if err := r.db.QueryRow(ctx, `SELECT count(*) FROM vehicles`).Scan(&n); err != nil {
					return Result{Status: StatusFail, Note: err.Error()}
				}
				return Result{Status: StatusPass, Note: fmt.Sprintf("vehicles=%d", n)}
			},
		},
		{
			Name: "Quote: concurrent results identical",
			Run: func(ctx context.Context, r *Runner) Result {
				return r.concurrentQuotes(ctx, base+"/api/pricing/quote")
			},
		},
		{
			Name: "Perf: quote throughput",
			Run: func(ctx context.Context, r *Runner) Result {
				return r.perfLoad(ctx, base+"/api/pricing/quote", r.quotePayload())
			},
		},
	}
}

func (r *Runner) do(ctx context.Context, method, target string, body any) (int, []byte, time.Duration, error) {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, nil, 0, err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, rd)
	if err != nil {
		return 0, nil, 0, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	start := time.Now()
	resp, err := r.httpc.Do(req)
	if err != nil {
		return 0, nil, 0, err
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	return resp.StatusCode, b, time.Since(start), err
}

type quoteSummary struct {
	Source     string `json:"source"`
	DailyPrice struct {
		Amount int64 `json:"amount"`
	} `json:"daily_price"`
	TotalPrice struct {
		Amount int64 `json:"amount"`
	} `json:"total_price"`
	Days int `json:"days"`
}

func (r *Runner) checkQuote(ctx context.Context, target string) Result {
	status, body, latency, err := r.do(ctx, http.MethodPost, target, r.quotePayload())
	if err != nil {
		return Result{Status: StatusFail, Note: err.Error()}
	}
	if status != http.StatusOK {
		return Result{Status: StatusFail, Latency: latency, Note: fmt.Sprintf("status=%d", status)}
	}
	var q quoteSummary
	if err := json.Unmarshal(body, &q); err != nil {
		return Result{Status: StatusFail, Latency: latency, Note: err.Error()}
	}
	if q.DailyPrice.Amount <= 0 {
		return Result{Status: StatusFail, Latency: latency, Note: "non-positive daily price"}
	}
	if q.TotalPrice.Amount != q.DailyPrice.Amount*int64(q.Days) {
		return Result{Status: StatusFail, Latency: latency,
			Note: fmt.Sprintf("total=%d daily=%d days=%d", q.TotalPrice.Amount, q.DailyPrice.Amount, q.Days)}
	}
	return Result{Status: StatusPass, Latency: latency,
		Note: fmt.Sprintf("source=%s daily=%d", q.Source, q.DailyPrice.Amount)}
}

// concurrentQuotes fires the same request Concurrency times; every answer
// must carry the same daily price.
func (r *Runner) concurrentQuotes(ctx context.Context, target string) Result {
	payload := r.quotePayload()
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		prices = map[int64]int{}
		failed int
	)
	for i := 0; i < r.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			status, body, _, err := r.do(ctx, http.MethodPost, target, payload)
			var q quoteSummary
			if err == nil && status == http.StatusOK {
				err = json.Unmarshal(body, &q)
			}
			mu.Lock()
			defer mu.Unlock()
			if err != nil || status != http.StatusOK {
				failed++
				return
			}
			prices[q.DailyPrice.Amount]++
		}()
	}
	wg.Wait()

	if failed > 0 {
		return Result{Status: StatusFail, Note: fmt.Sprintf("failed=%d", failed)}
	}
	if len(prices) != 1 {
		return Result{Status: StatusFail, Note: fmt.Sprintf("distinct daily prices=%v", prices)}
	}
	return Result{Status: StatusPass, Note: fmt.Sprintf("requests=%d", r.cfg.Concurrency)}
}

func (r *Runner) perfLoad(ctx context.Context, target string, payload any) Result {
	end := time.Now().Add(r.cfg.Duration)
	var (
		count    int64
		errCount int64
		mu       sync.Mutex
		wg       sync.WaitGroup
	)

	for i := 0; i < r.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for time.Now().Before(end) && ctx.Err() == nil {
				status, _, _, err := r.do(ctx, http.MethodPost, target, payload)
				mu.Lock()
				if err != nil || status != http.StatusOK {
					errCount++
				} else {
					count++
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if count == 0 {
		return Result{Status: StatusFail, Note: "no requests completed"}
	}
	rps := float64(count) / r.cfg.Duration.Seconds()
	return Result{Status: StatusPass, Note: fmt.Sprintf("rps=%.1f errors=%d", rps, errCount)}
}
