// README: Pricing handlers for full quotes, cache-only snapshots and progressive streams.
package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"rentprice/internal/modules/pricing"
)

type PricingHandler struct {
	pricing  *pricing.Service
	trackers *pricing.Trackers
	logger   *slog.Logger
}

func NewPricingHandler(svc *pricing.Service, trackers *pricing.Trackers, logger *slog.Logger) *PricingHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PricingHandler{pricing: svc, trackers: trackers, logger: logger}
}

type quoteReq struct {
	VehicleID        string  `json:"vehicle_id"`
	Category         string  `json:"category"`
	BaseRate         float64 `json:"base_rate"`
	StartDate        string  `json:"start_date" binding:"required"`
	EndDate          string  `json:"end_date" binding:"required"`
	City             string  `json:"city"`
	PickupLocation   string  `json:"pickup_location"`
	DropoffLocation  string  `json:"dropoff_location"`
	IncludeInsurance bool    `json:"include_insurance"`
	// SessionID groups progressive requests from one client; a newer request
	// in the same session supersedes an older one.
	SessionID string `json:"session_id"`
}

func (r quoteReq) toQuoteRequest() (pricing.QuoteRequest, error) {
	start, err := parseDate(r.StartDate)
	if err != nil {
		return pricing.QuoteRequest{}, err
	}
	end, err := parseDate(r.EndDate)
	if err != nil {
		return pricing.QuoteRequest{}, err
	}
	return pricing.QuoteRequest{
		VehicleID:        r.VehicleID,
		Category:         r.Category,
		BaseRate:         r.BaseRate,
		StartDate:        start,
		EndDate:          end,
		City:             r.City,
		PickupLocation:   r.PickupLocation,
		DropoffLocation:  r.DropoffLocation,
		IncludeInsurance: r.IncludeInsurance,
	}, nil
}

func (h *PricingHandler) bind(c *gin.Context) (quoteReq, pricing.QuoteRequest, bool) {
	var body quoteReq
	if err := c.ShouldBindJSON(&body); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json: start_date and end_date are required")
		return quoteReq{}, pricing.QuoteRequest{}, false
	}
	req, err := body.toQuoteRequest()
	if err != nil {
		writePricingError(c, h.logger, err)
		return quoteReq{}, pricing.QuoteRequest{}, false
	}
	return body, req, true
}

func (h *PricingHandler) Quote(c *gin.Context) {
	_, req, ok := h.bind(c)
	if !ok {
		return
	}
	q, err := h.pricing.Quote(c.Request.Context(), req)
	if err != nil {
		writePricingError(c, h.logger, err)
		return
	}
	writeJSON(c, http.StatusOK, q)
}

func (h *PricingHandler) Snapshot(c *gin.Context) {
	_, req, ok := h.bind(c)
	if !ok {
		return
	}
	q, err := h.pricing.Snapshot(c.Request.Context(), req)
	if err != nil {
		writePricingError(c, h.logger, err)
		return
	}
	writeJSON(c, http.StatusOK, q)
}

// Stream answers with server-sent events: a "quote" event for the snapshot,
// a second "quote" event for the full price, or "superseded" when a newer
// request from the same session arrived first.
func (h *PricingHandler) Stream(c *gin.Context) {
	body, req, ok := h.bind(c)
	if !ok {
		return
	}
	session := body.SessionID
	if session == "" {
		session = c.GetString("request_id")
	}
	tracker := h.trackers.For(session)

	emitted := false
	id, err := h.pricing.QuoteProgressive(c.Request.Context(), req, tracker, func(q pricing.Quote) {
		if !emitted {
			c.Header("Cache-Control", "no-cache")
			emitted = true
		}
		c.SSEvent("quote", q)
		c.Writer.Flush()
	})
	defer h.trackers.Release(session, id)

	switch {
	case err == nil:
	case errors.Is(err, pricing.ErrSuperseded):
		c.SSEvent("superseded", gin.H{"request_id": id})
	case !emitted:
		writePricingError(c, h.logger, err)
	default:
		h.logger.Error("progressive quote failed after snapshot", "request_id", id, "error", err)
		c.SSEvent("error", errorResponse{Error: "internal error"})
	}
}
