package employee_api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"ms-canteen/internal/logger"
	"ms-canteen/internal/models"
	"ms-canteen/internal/utils"
)

type Directory interface {
	Register(ctx context.Context, req models.EmployeeRequest) (*models.Employee, error)
	Get(ctx context.Context, id string) (*models.Employee, error)
	List(ctx context.Context) ([]models.Employee, error)
	UpdateProfile(ctx context.Context, id string, req models.EmployeeProfileRequest) (*models.Employee, error)
	Remove(ctx context.Context, id string) error
}

type Ledger interface {
	DecrementOne(ctx context.Context, employeeID string) (int, error)
	CreditOne(ctx context.Context, employeeID string, amount int) (int, error)
	CreditAll(ctx context.Context, amount int) ([]models.CreditResult, error)
}

type Handler struct {
	Directory Directory
	Ledger    Ledger
	Admin     func(http.Handler) http.Handler
	Logger    *logger.Logger
	validator *validator.Validate
}

func NewHandler(directory Directory, ledger Ledger, admin func(http.Handler) http.Handler, log *logger.Logger) *Handler {
	return &Handler{
		Directory: directory,
		Ledger:    ledger,
		Admin:     admin,
		Logger:    log,
		validator: validator.New(),
	}
}

// RegisterRoutes mounts the directory. Reads are open, writes need Admin.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/employees", func(r chi.Router) {
		r.Get("/", h.ListEmployees)
		r.Get("/{employeeId}", h.GetEmployee)

		r.Group(func(r chi.Router) {
			if h.Admin != nil {
				r.Use(h.Admin)
			}
			r.Post("/", h.CreateEmployee)
			r.Post("/credit-all", h.CreditAll)
			r.Put("/{employeeId}", h.UpdateEmployee)
			r.Delete("/{employeeId}", h.DeleteEmployee)
			r.Post("/{employeeId}/credit", h.Credit)
			r.Post("/{employeeId}/debit", h.Debit)
		})
	})
}

func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Directory.List(r.Context())
	if err != nil {
		h.fail(w, "LIST", "*", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Employees retrieved", employees))
}

func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "employeeId")
	employee, err := h.Directory.Get(r.Context(), id)
	if err != nil {
		h.fail(w, "GET", id, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Employee retrieved", employee))
}

func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req models.EmployeeRequest
	if !h.decode(w, r, &req) {
		return
	}
	employee, err := h.Directory.Register(r.Context(), req)
	if err != nil {
		h.fail(w, "CREATE", req.EmployeeID, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, utils.SuccessResponse("Employee created", employee))
}

func (h *Handler) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "employeeId")
	var req models.EmployeeProfileRequest
	if !h.decode(w, r, &req) {
		return
	}
	employee, err := h.Directory.UpdateProfile(r.Context(), id, req)
	if err != nil {
		h.fail(w, "UPDATE", id, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Employee updated", employee))
}

func (h *Handler) DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "employeeId")
	if err := h.Directory.Remove(r.Context(), id); err != nil {
		h.fail(w, "DELETE", id, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Credit adds tickets. Expected POST request body: {"amount": 5}
func (h *Handler) Credit(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "employeeId")
	var req models.CreditRequest
	if !h.decode(w, r, &req) {
		return
	}
	balance, err := h.Ledger.CreditOne(r.Context(), id, req.Amount)
	if err != nil {
		h.fail(w, "CREDIT", id, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Balance credited", balanceBody(id, balance)))
}

// Debit takes one ticket without issuing a meal, for manual corrections.
func (h *Handler) Debit(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "employeeId")
	balance, err := h.Ledger.DecrementOne(r.Context(), id)
	if err != nil {
		h.fail(w, "DEBIT", id, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Balance debited", balanceBody(id, balance)))
}

func (h *Handler) CreditAll(w http.ResponseWriter, r *http.Request) {
	var req models.CreditRequest
	if !h.decode(w, r, &req) {
		return
	}
	results, err := h.Ledger.CreditAll(r.Context(), req.Amount)
	if err != nil {
		h.fail(w, "CREDIT_ALL", "*", err)
		return
	}

	failed := 0
	for _, res := range results {
		if !res.Succeeded() {
			failed++
		}
	}
	message := "All balances credited"
	if failed > 0 {
		message = "Balances credited with failures"
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse(message, results))
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body", err.Error()))
		return false
	}
	if err := h.validator.Struct(dst); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Validation error", err.Error()))
		return false
	}
	return true
}

func (h *Handler) fail(w http.ResponseWriter, action, employeeID string, err error) {
	status, _, _ := utils.StatusForError(err)
	if status >= http.StatusInternalServerError {
		h.Logger.Error("API", action+" "+employeeID+": "+err.Error())
	}
	utils.WriteError(w, err)
}

func balanceBody(employeeID string, balance int) map[string]interface{} {
	return map[string]interface{}{
		"employee_id":    employeeID,
		"ticket_balance": balance,
	}
}
