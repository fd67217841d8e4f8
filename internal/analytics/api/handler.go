package analytics_api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	feedingdb "ms-canteen/internal/feeding/db"
	"ms-canteen/internal/feeding/feeding_api"
	"ms-canteen/internal/logger"
	"ms-canteen/internal/models"
	"ms-canteen/internal/utils"
)

type ConsumptionAnalyzer interface {
	Analyze(ctx context.Context, records []models.ConsumptionRecord) (*models.AnalysisResult, error)
	AnalyzeLog(ctx context.Context, f feedingdb.Filter) (*models.AnalysisResult, error)
}

// Handler handles analytics HTTP endpoints
type Handler struct {
	Analyzer ConsumptionAnalyzer
	Logger   *logger.Logger
}

// NewHandler creates a new analytics handler
func NewHandler(analyzer ConsumptionAnalyzer, logger *logger.Logger) *Handler {
	return &Handler{
		Analyzer: analyzer,
		Logger:   logger,
	}
}

// RegisterRoutes registers the analytics routes on a chi router
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/analytics", func(r chi.Router) {
		r.Post("/consumption", h.AnalyzeBatch)
		r.Get("/consumption", h.AnalyzeLog)
	})
}

// AnalyzeBatch analyzes a caller supplied batch.
// Expected POST request body: {"events":[{"employee_id":"E-001","timestamp":"..."}]}
func (h *Handler) AnalyzeBatch(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req models.AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body", err.Error()))
		return
	}

	result, err := h.Analyzer.Analyze(r.Context(), req.Events)
	h.respond(w, r, result, err, start)
}

// AnalyzeLog analyzes the stored feeding events matching the query.
func (h *Handler) AnalyzeLog(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	f, err := feeding_api.ParseFilter(r)
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid query", err.Error()))
		return
	}

	result, err := h.Analyzer.AnalyzeLog(r.Context(), f)
	h.respond(w, r, result, err, start)
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, result *models.AnalysisResult, err error, start time.Time) {
	if err != nil {
		status, _, _ := utils.StatusForError(err)
		h.Logger.LogAPI(r.Method, r.URL.Path, http.StatusText(status), time.Since(start).String())
		utils.WriteError(w, err)
		return
	}
	h.Logger.LogAPI(r.Method, r.URL.Path, http.StatusText(http.StatusOK), time.Since(start).String())
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Analysis complete", result))
}
