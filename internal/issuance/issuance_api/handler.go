package issuance_api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"ms-canteen/internal/logger"
	"ms-canteen/internal/models"
	"ms-canteen/internal/scan"
	"ms-canteen/internal/utils"
)

const IdempotencyHeader = "Idempotency-Key"

type Issuer interface {
	IssueOnce(ctx context.Context, requestKey, employeeID string) (*models.Ticket, error)
	IssueFromScan(ctx context.Context, scanner scan.Scanner) (*models.Ticket, error)
}

type Handler struct {
	Issuer    Issuer
	Scanner   scan.Scanner
	Logger    *logger.Logger
	validator *validator.Validate
}

func NewHandler(issuer Issuer, scanner scan.Scanner, log *logger.Logger) *Handler {
	return &Handler{
		Issuer:    issuer,
		Scanner:   scanner,
		Logger:    log,
		validator: validator.New(),
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/issuance", func(r chi.Router) {
		r.Post("/tickets", h.IssueTicket)
		r.Post("/scan", h.ScanAndIssue)
	})
}

// IssueTicket issues a ticket for an already identified employee.
// Expected POST request body: {"employee_id": "E-001"}
func (h *Handler) IssueTicket(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req models.IssueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body", err.Error()))
		return
	}
	if err := h.validator.Struct(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Validation error", err.Error()))
		return
	}

	ticket, err := h.Issuer.IssueOnce(r.Context(), r.Header.Get(IdempotencyHeader), req.EmployeeID)
	h.respond(w, r, ticket, err, start)
}

// ScanAndIssue identifies the employee with the configured scanner first.
func (h *Handler) ScanAndIssue(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if h.Scanner == nil {
		utils.WriteJSON(w, http.StatusServiceUnavailable, utils.ErrorResponse("Scanner unavailable", "no scanner configured"))
		return
	}

	ticket, err := h.Issuer.IssueFromScan(r.Context(), h.Scanner)
	h.respond(w, r, ticket, err, start)
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, ticket *models.Ticket, err error, start time.Time) {
	if err != nil {
		status, _, _ := utils.StatusForError(err)
		h.Logger.LogAPI(r.Method, r.URL.Path, http.StatusText(status), time.Since(start).String())
		utils.WriteError(w, err)
		return
	}
	h.Logger.LogAPI(r.Method, r.URL.Path, http.StatusText(http.StatusCreated), time.Since(start).String())
	utils.WriteJSON(w, http.StatusCreated, utils.SuccessResponse("Ticket issued", ticket))
}
