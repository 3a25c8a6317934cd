// RiskWatch - Intrusion Detection Risk Scoring and Live Dashboard
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nurrustem/riskwatch/internal/middleware"
	"github.com/nurrustem/riskwatch/internal/websocket"
)

// Router builds the chi router with the full middleware stack.
//
// The websocket upgrade and /metrics sit outside the instrumented,
// rate-limited group: the metrics wrapper would break connection
// hijacking, and a throttled scrape endpoint starves Prometheus.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.security.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", middleware.RequestIDHeader},
		MaxAge:         300,
	}))

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/ws", func(w http.ResponseWriter, req *http.Request) {
			websocket.ServeWS(s.hub, w, req)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Prometheus)
			if s.security.RateLimitReqs > 0 {
				r.Use(httprate.LimitByIP(s.security.RateLimitReqs, s.security.RateLimitWindow))
			}

			r.Post("/ingest", s.handleIngest)
			r.Get("/alerts/recent", s.handleRecentAlerts)
			r.Get("/risks/leaderboard", s.handleLeaderboard)
			r.Post("/feedback", s.handleFeedback)
			r.Get("/stats/kpi", s.handleKPI)
			r.Post("/simulate/{attack_name}", s.handleSimulate)
		})
	})

	return r
}
