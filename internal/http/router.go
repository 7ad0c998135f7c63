// README: HTTP router registration.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"rentprice/internal/http/handlers"
	"rentprice/internal/http/middleware"
	"rentprice/internal/modules/pricing"
)

func NewRouter(
	pricingService *pricing.Service,
	competitors handlers.CompetitorReader,
	trackers *pricing.Trackers,
	logger *slog.Logger,
) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logging(logger), middleware.Recovery(logger))

	pricingHandler := handlers.NewPricingHandler(pricingService, trackers, logger)
	r.POST("/api/pricing/quote", pricingHandler.Quote)
	r.POST("/api/pricing/quote/snapshot", pricingHandler.Snapshot)
	r.POST("/api/pricing/quote/stream", pricingHandler.Stream)

	competitorHandler := handlers.NewCompetitorHandler(competitors)
	r.GET("/api/competitors", competitorHandler.List)

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	return r
}
