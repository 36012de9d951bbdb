package server

import (
	"context"
	"errors"
	"net/http"
	"runtime"
	"time"

	"github.com/bobmcallan/marketpulse/internal/common"
	"github.com/bobmcallan/marketpulse/internal/models"
)

// handleHealth handles GET /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	count, err := s.app.Store.Count(r.Context())
	if err != nil {
		s.logger.Warn().Err(err).Msg("Health check: snapshot count failed")
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"version":   common.GetVersion(),
		"uptime":    time.Since(s.app.StartupTime).String(),
		"snapshots": count,
	})
}

// handleVersion handles GET /api/version.
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"version": common.GetFullVersion(),
		"go":      runtime.Version(),
	})
}

// handleShutdown handles POST /api/shutdown (dev mode only).
func (s *Server) handleShutdown(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	if s.app.Config.IsProduction() {
		WriteError(w, http.StatusForbidden, "Shutdown endpoint disabled in production")
		return
	}

	s.logger.Info().Msg("Shutdown requested via HTTP endpoint")

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Shutting down gracefully...\n"))

	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}

	if s.shutdownChan != nil {
		go func() {
			time.Sleep(100 * time.Millisecond)
			s.shutdownChan <- struct{}{}
		}()
	}
}

// handleStock handles GET /api/stocks/{ticker}.
// ?force=true bypasses the cache.
func (s *Server) handleStock(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	ticker := PathSuffix(r, "/api/stocks/")
	if ticker == "" {
		WriteError(w, http.StatusBadRequest, "Ticker is required")
		return
	}

	force := r.URL.Query().Get("force") == "true"

	snapshot, err := s.app.SnapshotService.GetOrRefresh(r.Context(), ticker, force)
	if err != nil {
		if errors.Is(err, models.ErrInvalidTicker) {
			WriteError(w, http.StatusBadRequest, "Invalid ticker: "+ticker)
			return
		}
		s.logger.Error().Err(err).Str("ticker", ticker).Msg("Snapshot lookup failed")
		WriteError(w, http.StatusInternalServerError, "Failed to load stock data")
		return
	}
	if snapshot == nil {
		WriteError(w, http.StatusNotFound, "No data available for "+ticker)
		return
	}

	WriteJSON(w, http.StatusOK, snapshot)
}

// handleStocks handles GET /api/stocks.
// ?tickers=A,B,C refreshes that list; without it, returns all cached snapshots.
func (s *Server) handleStocks(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	raw := r.URL.Query().Get("tickers")
	if raw == "" {
		snapshots, err := s.app.SnapshotService.ListCached(r.Context())
		if err != nil {
			s.logger.Error().Err(err).Msg("Snapshot list failed")
			WriteError(w, http.StatusInternalServerError, "Failed to list stock data")
			return
		}
		WriteJSON(w, http.StatusOK, map[string]interface{}{
			"count":  len(snapshots),
			"stocks": snapshots,
		})
		return
	}

	tickers := SplitTickers(raw)
	if len(tickers) == 0 {
		WriteError(w, http.StatusBadRequest, "No valid tickers in request")
		return
	}

	force := r.URL.Query().Get("force") == "true"

	result, err := s.app.SnapshotService.RefreshMany(r.Context(), tickers, force, models.RefreshModeBatched)
	if err != nil {
		s.logger.Error().Err(err).Msg("Batch refresh failed")
		WriteError(w, http.StatusInternalServerError, "Failed to load stock data")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"count":   len(result.Snapshots),
		"failed":  result.FailedCount,
		"stocks":  result.Snapshots,
	})
}

// handleSectors handles GET /api/sectors.
// ?tickers=A,B,C overrides the default expanded universe.
func (s *Server) handleSectors(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	var universe []string
	if raw := r.URL.Query().Get("tickers"); raw != "" {
		universe = SplitTickers(raw)
	}

	sectors, err := s.app.AnalyticsService.SectorPerformance(r.Context(), universe)
	if err != nil {
		s.logger.Error().Err(err).Msg("Sector performance failed")
		WriteError(w, http.StatusInternalServerError, "Failed to compute sector performance")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"count":   len(sectors),
		"sectors": sectors,
	})
}

// handleSectorChart handles GET /api/sectors/chart, returning a PNG.
func (s *Server) handleSectorChart(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	var universe []string
	if raw := r.URL.Query().Get("tickers"); raw != "" {
		universe = SplitTickers(raw)
	}

	png, err := s.app.AnalyticsService.SectorChart(r.Context(), universe)
	if err != nil {
		s.logger.Error().Err(err).Msg("Sector chart failed")
		WriteError(w, http.StatusInternalServerError, "Failed to render sector chart")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

// handlePullbacks handles GET /api/pullbacks?timeframe=3mo|6mo|1yr.
func (s *Server) handlePullbacks(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	timeframe, err := models.ParseTimeframe(r.URL.Query().Get("timeframe"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid timeframe (expected 3mo, 6mo, or 1yr)")
		return
	}

	pullbacks, err := s.app.AnalyticsService.DeepPullbacks(r.Context(), timeframe)
	if err != nil {
		s.logger.Error().Err(err).Msg("Pullback screen failed")
		WriteError(w, http.StatusInternalServerError, "Failed to screen pullbacks")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"timeframe": timeframe,
		"count":     len(pullbacks),
		"pullbacks": pullbacks,
	})
}

// handleIPOs handles GET /api/ipos.
func (s *Server) handleIPOs(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	ipos, err := s.app.AnalyticsService.IPOPerformance(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("IPO performance failed")
		WriteError(w, http.StatusInternalServerError, "Failed to rank IPO performance")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"count": len(ipos),
		"ipos":  ipos,
	})
}

// refreshRequest is the POST /api/refresh body. All fields optional:
// empty tickers means the full configured universe, default mode is batched.
type refreshRequest struct {
	Tickers []string `json:"tickers"`
	Force   bool     `json:"force"`
	Mode    string   `json:"mode"`
}

// handleRefresh handles POST /api/refresh (start a job, 202) and
// GET /api/refresh (list jobs).
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		WriteJSON(w, http.StatusOK, map[string]interface{}{
			"jobs": s.app.RefreshTracker.List(),
		})
	case http.MethodPost:
		var req refreshRequest
		if r.ContentLength > 0 && !DecodeJSON(w, r, &req) {
			return
		}

		tickers := req.Tickers
		if len(tickers) == 0 {
			tickers = s.app.Config.Universes.All()
		}

		mode := models.RefreshModeBatched
		if req.Mode == string(models.RefreshModeSequential) {
			mode = models.RefreshModeSequential
		}

		// Background context: the job outlives this request
		job := s.app.RefreshTracker.Start(context.Background(), tickers, req.Force, mode)

		WriteJSON(w, http.StatusAccepted, job)
	default:
		RequireMethod(w, r, http.MethodGet, http.MethodPost)
	}
}

// handleRefreshJob handles GET /api/refresh/{id}.
func (s *Server) handleRefreshJob(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	jobID := PathSuffix(r, "/api/refresh/")
	if jobID == "" {
		WriteError(w, http.StatusBadRequest, "Job ID is required")
		return
	}

	job := s.app.RefreshTracker.Get(jobID)
	if job == nil {
		WriteError(w, http.StatusNotFound, "Unknown refresh job: "+jobID)
		return
	}

	WriteJSON(w, http.StatusOK, job)
}
