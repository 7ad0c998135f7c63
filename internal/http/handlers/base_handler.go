// README: Base handler utilities (JSON helpers, error mapping, date parsing).
package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"rentprice/internal/modules/pricing"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

func writePricingError(c *gin.Context, logger *slog.Logger, err error) {
	switch {
	case pricing.IsValidation(err):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, pricing.ErrVehicleNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	default:
		logger.Error("pricing request failed", "path", c.FullPath(), "request_id", c.GetString("request_id"), "error", err)
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}

// parseDate accepts RFC 3339 timestamps or plain YYYY-MM-DD dates (UTC midnight).
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%w: %q is not YYYY-MM-DD or RFC 3339", pricing.ErrInvalidDates, s)
}
