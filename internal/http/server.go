// README: API gateway; holds service dependencies and builds the HTTP server.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"rentprice/internal/http/handlers"
	"rentprice/internal/modules/pricing"
)

type ServerDeps struct {
	Pricing     *pricing.Service
	Competitors handlers.CompetitorReader
	Trackers    *pricing.Trackers
	Logger      *slog.Logger
}

type Server struct {
	pricing     *pricing.Service
	competitors handlers.CompetitorReader
	trackers    *pricing.Trackers
	logger      *slog.Logger
}

func NewServer(deps ServerDeps) *Server {
	if deps.Trackers == nil {
		deps.Trackers = pricing.NewTrackers()
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Server{
		pricing:     deps.Pricing,
		competitors: deps.Competitors,
		trackers:    deps.Trackers,
		logger:      deps.Logger,
	}
}

func (s *Server) Routes() http.Handler {
	return NewRouter(s.pricing, s.competitors, s.trackers, s.logger)
}

// HTTPServer wraps Routes in an *http.Server listening on addr. The write
// timeout leaves room for a slow authority call plus a competitor refresh.
func (s *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
