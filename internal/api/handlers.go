package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/fruzzinn/phishwatch/internal/domain"
)

func (s *Server) handleListSites(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.SiteFilter{
		Status:     q.Get("status"),
		TargetPage: q.Get("target_page"),
		Search:     q.Get("search"),
		SortBy:     q.Get("sort_by"),
		SortOrder:  q.Get("sort_order"),
		Page:       intParam(q.Get("page"), 1),
		PageSize:   intParam(q.Get("page_size"), 20),
	}
	if v := q.Get("min_similarity"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			filter.MinSimilarity = f
		}
	}
	filter.Days = intParam(q.Get("days"), 0)

	sites, total, err := s.pgStore.ListSites(r.Context(), filter)
	if err != nil {
		s.logger.Error("failed to list sites", zap.Error(err))
		s.respondWithError(w, http.StatusInternalServerError, "Could not list sites")
		return
	}

	s.respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"sites":     sites,
		"total":     total,
		"page":      filter.Page,
		"page_size": filter.PageSize,
	})
}

func (s *Server) handleGetSite(w http.ResponseWriter, r *http.Request) {
	siteID := chi.URLParam(r, "siteID")
	record, err := s.pgStore.FindByID(r.Context(), siteID)
	if err != nil {
		s.logger.Error("failed to get site", zap.String("site_id", siteID), zap.Error(err))
		s.respondWithError(w, http.StatusInternalServerError, "Could not retrieve site")
		return
	}
	if record == nil {
		s.respondWithError(w, http.StatusNotFound, "Phishing site not found")
		return
	}
	s.respondWithJSON(w, http.StatusOK, record)
}

func (s *Server) handleUpdateSite(w http.ResponseWriter, r *http.Request) {
	siteID := chi.URLParam(r, "siteID")

	var update domain.SiteUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	record, err := s.pgStore.UpdateSite(r.Context(), siteID, update)
	if err != nil {
		s.logger.Error("failed to update site", zap.String("site_id", siteID), zap.Error(err))
		s.respondWithError(w, http.StatusInternalServerError, "Could not update site")
		return
	}
	if record == nil {
		s.respondWithError(w, http.StatusNotFound, "Phishing site not found")
		return
	}
	s.respondWithJSON(w, http.StatusOK, record)
}

func (s *Server) handleReportSite(w http.ResponseWriter, r *http.Request) {
	siteID := chi.URLParam(r, "siteID")

	var req struct {
		ContactInfo   string `json:"contact_info"`
		ReportDetails string `json:"report_details"`
	}
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	record, err := s.pgStore.FindByID(r.Context(), siteID)
	if err != nil {
		s.logger.Error("failed to load site for report", zap.String("site_id", siteID), zap.Error(err))
		s.respondWithError(w, http.StatusInternalServerError, "Could not report site")
		return
	}
	if record == nil {
		s.respondWithError(w, http.StatusNotFound, "Phishing site not found")
		return
	}

	details := map[string]string{
		"reported_at":  time.Now().UTC().Format(time.RFC3339),
		"contact_info": req.ContactInfo,
		"details":      req.ReportDetails,
	}
	if err := s.pgStore.MarkReported(r.Context(), siteID, details); err != nil {
		s.logger.Error("failed to mark site reported", zap.String("site_id", siteID), zap.Error(err))
		s.respondWithError(w, http.StatusInternalServerError, "Could not report site")
		return
	}

	s.respondWithJSON(w, http.StatusOK, map[string]string{
		"message": "Phishing site " + record.URL + " reported successfully",
	})
}

func (s *Server) handleStartScan(w http.ResponseWriter, r *http.Request) {
	var req domain.ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	for _, u := range req.URLs {
		if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
			s.respondWithError(w, http.StatusBadRequest, "URL must start with http:// or https://: "+u)
			return
		}
	}

	// The scan outlives this request; it is tied to the process, not the
	// request context.
	scanID, state := s.orchestrator.Start(context.Background(), req)
	s.logger.Info("scan accepted", zap.String("scan_id", scanID), zap.Int("urls", len(req.URLs)))
	s.respondWithJSON(w, http.StatusAccepted, state)
}

func (s *Server) handleScanStatus(w http.ResponseWriter, r *http.Request) {
	scanID := chi.URLParam(r, "scanID")
	state, ok := s.orchestrator.Poll(scanID)
	if !ok {
		s.respondWithError(w, http.StatusNotFound, "Scan not found")
		return
	}
	s.respondWithJSON(w, http.StatusOK, state)
}

func (s *Server) handleCheckSite(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL        string `json:"url"`
		TargetPage string `json:"target_page"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !strings.HasPrefix(req.URL, "http://") && !strings.HasPrefix(req.URL, "https://") {
		s.respondWithError(w, http.StatusBadRequest, "URL must start with http:// or https://")
		return
	}
	if req.TargetPage == "" {
		req.TargetPage = "main"
	}

	result, err := s.detector.CheckSite(r.Context(), req.URL, req.TargetPage)
	if err != nil {
		s.logger.Error("site check failed", zap.String("url", req.URL), zap.Error(err))
		s.respondWithError(w, http.StatusInternalServerError, "Error checking URL: "+err.Error())
		return
	}
	s.respondWithJSON(w, http.StatusOK, result)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.pgStore.Stats(r.Context())
	if err != nil {
		s.logger.Error("failed to compute stats", zap.Error(err))
		s.respondWithError(w, http.StatusInternalServerError, "Could not compute statistics")
		return
	}
	s.respondWithJSON(w, http.StatusOK, stats)
}

func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	healthStatus := make(map[string]string)

	// Check Postgres
	if err := s.pgStore.Ping(ctx); err != nil {
		healthStatus["postgres"] = "unhealthy"
		s.logger.Error("health check failed for postgres", zap.Error(err))
	} else {
		healthStatus["postgres"] = "healthy"
	}

	// Check Redis
	if err := s.redisStore.Ping(ctx); err != nil {
		healthStatus["redis"] = "unhealthy"
		s.logger.Error("health check failed for redis", zap.Error(err))
	} else {
		healthStatus["redis"] = "healthy"
	}

	isHealthy := healthStatus["postgres"] == "healthy" && healthStatus["redis"] == "healthy"
	if !isHealthy {
		s.respondWithJSON(w, http.StatusServiceUnavailable, healthStatus)
		return
	}

	s.respondWithJSON(w, http.StatusOK, healthStatus)
}

// --- Helper Functions ---

func intParam(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func (s *Server) respondWithError(w http.ResponseWriter, code int, message string) {
	s.respondWithJSON(w, code, map[string]string{"error": message})
}

func (s *Server) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
