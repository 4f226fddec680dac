package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	r.Get("/metrics", promhttp.Handler().(http.HandlerFunc))
	r.Get("/api/health", s.handleHealthCheck)

	r.Route("/api/phishing", func(r chi.Router) {
		r.Get("/sites", s.handleListSites)
		r.Get("/sites/{siteID}", s.handleGetSite)
		r.Post("/sites/{siteID}", s.handleUpdateSite)
		r.Post("/report/{siteID}", s.handleReportSite)
		r.Post("/scan", s.handleStartScan)
		r.Get("/scan/{scanID}", s.handleScanStatus)
		r.Post("/check", s.handleCheckSite)
		r.Get("/stats", s.handleStats)
	})

	return r
}
