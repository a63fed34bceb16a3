package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/XavierBriggs/fortuna/services/stats-explorer/internal/audit"
	"github.com/XavierBriggs/fortuna/services/stats-explorer/internal/export"
	"github.com/XavierBriggs/fortuna/services/stats-explorer/internal/pipeline"
	"github.com/XavierBriggs/fortuna/services/stats-explorer/internal/stats"
	"github.com/XavierBriggs/fortuna/services/stats-explorer/pkg/models"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// StatsService is the pipeline surface the handlers need
type StatsService interface {
	Seasons() []int
	CurrentSeason() int
	View(ctx context.Context, season int, teams, positions stats.Selection) (*pipeline.View, error)
	Export(ctx context.Context, season int, teams, positions stats.Selection, format export.Format) (*pipeline.Download, error)
	Correlation(ctx context.Context, season int, teams, positions stats.Selection) (*stats.CorrelationMatrix, error)
}

// Handler contains dependencies for HTTP handlers
type Handler struct {
	service  StatsService
	recorder audit.Recorder
}

// NewHandler creates a new handler with dependencies
func NewHandler(service StatsService, recorder audit.Recorder) *Handler {
	if recorder == nil {
		recorder = audit.Nop{}
	}
	return &Handler{
		service:  service,
		recorder: recorder,
	}
}

// HealthCheck returns the health status of the service
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"service":   "stats-explorer",
	})
}

// GetSeasons lists selectable seasons, newest first
// GET /api/v1/seasons
func (h *Handler) GetSeasons(w http.ResponseWriter, r *http.Request) {
	seasons := h.service.Seasons()
	respondJSON(w, http.StatusOK, models.SeasonList{Seasons: seasons, Count: len(seasons)})
}

// GetPlayers returns the filtered per-game table
// GET /api/v1/seasons/{season}/players?team=BOS&pos=PG
func (h *Handler) GetPlayers(w http.ResponseWriter, r *http.Request) {
	season, err := seasonParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	view, err := h.service.View(r.Context(), season, selectionParam(r, "team"), selectionParam(r, "pos"))
	if err != nil {
		respondPipelineError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, view)
}

// DownloadPlayers serves the filtered table as a file
// GET /api/v1/seasons/{season}/players.{format}
func (h *Handler) DownloadPlayers(w http.ResponseWriter, r *http.Request) {
	season, err := seasonParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	format, err := export.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	download, err := h.service.Export(r.Context(), season, selectionParam(r, "team"), selectionParam(r, "pos"), format)
	if err != nil {
		respondPipelineError(w, err)
		return
	}

	record := audit.Download{
		Season:    season,
		Format:    string(format),
		Teams:     download.View.SelectedTeams,
		Positions: download.View.SelectedPos,
		Rows:      download.View.Dimension.Rows,
		Bytes:     len(download.Data),
		RequestID: chimiddleware.GetReqID(r.Context()),
	}
	if err := h.recorder.RecordDownload(r.Context(), record); err != nil {
		log.Printf("[handlers] Error recording download: %v", err)
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, format.FileName()))
	w.Header().Set("Content-Length", strconv.Itoa(len(download.Data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(download.Data); err != nil {
		log.Printf("[handlers] Error writing download: %v", err)
	}
}

// GetCorrelation computes the heatmap matrix on demand
// POST /api/v1/seasons/{season}/correlation?team=BOS
func (h *Handler) GetCorrelation(w http.ResponseWriter, r *http.Request) {
	season, err := seasonParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	matrix, err := h.service.Correlation(r.Context(), season, selectionParam(r, "team"), selectionParam(r, "pos"))
	if err != nil {
		respondPipelineError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, matrix)
}

// seasonParam reads the {season} path parameter
func seasonParam(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "season")
	season, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid season: %q", raw)
	}
	return season, nil
}

// selectionParam reads a repeatable query parameter. An absent parameter
// returns nil (select everything); a present one selects only its
// non-empty values, so "team=" selects nothing.
func selectionParam(r *http.Request, name string) stats.Selection {
	values, ok := r.URL.Query()[name]
	if !ok {
		return nil
	}
	sel := stats.NewSelection()
	for _, v := range values {
		if v != "" {
			sel[v] = struct{}{}
		}
	}
	return sel
}

// statusFor maps pipeline errors to HTTP status codes
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, pipeline.ErrInvalidSeason):
		return http.StatusBadRequest, "invalid season"
	case errors.Is(err, stats.ErrSourceUnavailable):
		return http.StatusBadGateway, "stats source unavailable"
	case errors.Is(err, stats.ErrFormatUnexpected):
		return http.StatusBadGateway, "stats source layout changed"
	default:
		return http.StatusInternalServerError, "failed to load stats"
	}
}

func respondPipelineError(w http.ResponseWriter, err error) {
	status, message := statusFor(err)
	respondError(w, status, fmt.Sprintf("%s: %v", message, err), err)
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("[handlers] error encoding response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	errResp := models.ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    status,
	}

	if err != nil {
		log.Printf("[handlers] error: %s - %v", message, err)
	}

	if err := json.NewEncoder(w).Encode(errResp); err != nil {
		log.Printf("[handlers] error encoding error response: %v", err)
	}
}
