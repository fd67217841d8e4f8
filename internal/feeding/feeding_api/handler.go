package feeding_api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"ms-canteen/internal/feeding/db"
	"ms-canteen/internal/logger"
	"ms-canteen/internal/models"
	"ms-canteen/internal/utils"
)

const (
	defaultLimit = 100
	maxLimit     = 1000
)

type FeedingLog interface {
	List(ctx context.Context, f db.Filter) ([]models.FeedingEvent, error)
	MealCounts(ctx context.Context, from, to time.Time) ([]models.MealCount, error)
}

type Handler struct {
	Log    FeedingLog
	Logger *logger.Logger
}

func NewHandler(log FeedingLog, l *logger.Logger) *Handler {
	return &Handler{Log: log, Logger: l}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/feeding", func(r chi.Router) {
		r.Get("/events", h.ListEvents)
		r.Get("/counts", h.MealCounts)
	})
}

// ListEvents serves the feeding history, newest first unless order=asc.
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	f, err := ParseFilter(r)
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid query", err.Error()))
		return
	}
	if f.Limit <= 0 {
		f.Limit = defaultLimit
	}
	if f.Limit > maxLimit {
		f.Limit = maxLimit
	}

	events, err := h.Log.List(r.Context(), f)
	if err != nil {
		h.Logger.Error("API", err.Error())
		utils.WriteError(w, err)
		return
	}
	if events == nil {
		events = []models.FeedingEvent{}
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Feeding events retrieved", events))
}

func (h *Handler) MealCounts(w http.ResponseWriter, r *http.Request) {
	from, err := utils.ParseTimeParam(r.URL.Query().Get("from"))
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid query", "from: "+err.Error()))
		return
	}
	to, err := utils.ParseTimeParam(r.URL.Query().Get("to"))
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid query", "to: "+err.Error()))
		return
	}

	counts, err := h.Log.MealCounts(r.Context(), from, to)
	if err != nil {
		h.Logger.Error("API", err.Error())
		utils.WriteError(w, err)
		return
	}
	if counts == nil {
		counts = []models.MealCount{}
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Meal counts retrieved", counts))
}

// ParseFilter reads employee_id, department, from, to, limit and order from
// the query string. Shared with the analytics API.
func ParseFilter(r *http.Request) (db.Filter, error) {
	q := r.URL.Query()
	f := db.Filter{
		EmployeeID: q.Get("employee_id"),
		Department: q.Get("department"),
	}

	var err error
	if f.From, err = utils.ParseTimeParam(q.Get("from")); err != nil {
		return f, fieldError("from", err)
	}
	if f.To, err = utils.ParseUpperTimeParam(q.Get("to")); err != nil {
		return f, fieldError("to", err)
	}
	if v := q.Get("limit"); v != "" {
		if f.Limit, err = strconv.Atoi(v); err != nil || f.Limit < 0 {
			return f, fieldError("limit", strconv.ErrSyntax)
		}
	}
	switch q.Get("order") {
	case "", "desc":
		f.Order = db.NewestFirst
	case "asc":
		f.Order = db.Chronological
	default:
		return f, fieldError("order", strconv.ErrSyntax)
	}
	return f, nil
}

type queryError struct {
	field string
	err   error
}

func (e *queryError) Error() string { return e.field + ": " + e.err.Error() }
func (e *queryError) Unwrap() error { return e.err }

func fieldError(field string, err error) error {
	return &queryError{field: field, err: err}
}
