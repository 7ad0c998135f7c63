// README: Competitor rate lookup handler.
package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"rentprice/internal/modules/competitor"
)

// CompetitorReader is satisfied by *competitor.Cache.
type CompetitorReader interface {
	GetOrFetch(ctx context.Context, city, category string) ([]competitor.Rate, string)
}

type CompetitorHandler struct {
	competitors CompetitorReader
}

func NewCompetitorHandler(r CompetitorReader) *CompetitorHandler {
	return &CompetitorHandler{competitors: r}
}

func (h *CompetitorHandler) List(c *gin.Context) {
	city := strings.TrimSpace(c.Query("city"))
	if city == "" {
		writeError(c, http.StatusBadRequest, "missing city")
		return
	}
	category := c.DefaultQuery("category", string(competitor.CategorySedan))
	key := competitor.NewKey(city, category)

	rates, lastScraped := h.competitors.GetOrFetch(c.Request.Context(), key.City, string(key.Category))
	writeJSON(c, http.StatusOK, gin.H{
		"city":         key.City,
		"category":     key.Category,
		"competitors":  rates,
		"last_scraped": lastScraped,
		"is_fallback":  competitor.IsFallback(lastScraped),
	})
}
