package employee_api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ms-canteen/internal/auth"
	"ms-canteen/internal/logger"
	"ms-canteen/internal/models"
	"ms-canteen/internal/utils"
)

type MockDirectory struct{ mock.Mock }

func (m *MockDirectory) Register(ctx context.Context, req models.EmployeeRequest) (*models.Employee, error) {
	args := m.Called(req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Employee), args.Error(1)
}

func (m *MockDirectory) Get(ctx context.Context, id string) (*models.Employee, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Employee), args.Error(1)
}

func (m *MockDirectory) List(ctx context.Context) ([]models.Employee, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Employee), args.Error(1)
}

func (m *MockDirectory) UpdateProfile(ctx context.Context, id string, req models.EmployeeProfileRequest) (*models.Employee, error) {
	args := m.Called(id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Employee), args.Error(1)
}

func (m *MockDirectory) Remove(ctx context.Context, id string) error {
	return m.Called(id).Error(0)
}

type MockLedger struct{ mock.Mock }

func (m *MockLedger) DecrementOne(ctx context.Context, employeeID string) (int, error) {
	args := m.Called(employeeID)
	return args.Int(0), args.Error(1)
}

func (m *MockLedger) CreditOne(ctx context.Context, employeeID string, amount int) (int, error) {
	args := m.Called(employeeID, amount)
	return args.Int(0), args.Error(1)
}

func (m *MockLedger) CreditAll(ctx context.Context, amount int) ([]models.CreditResult, error) {
	args := m.Called(amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.CreditResult), args.Error(1)
}

const secret = "test-admin-secret"

func setup(t *testing.T) (http.Handler, *MockDirectory, *MockLedger, string) {
	directory, ledger := new(MockDirectory), new(MockLedger)
	log := logger.NewDiscard()
	r := chi.NewRouter()
	NewHandler(directory, ledger, auth.AdminOnly(secret, log), log).RegisterRoutes(r)

	token, err := auth.IssueAdminToken([]byte(secret), "admin", time.Hour)
	require.NoError(t, err)
	return r, directory, ledger, token
}

func do(t *testing.T, h http.Handler, method, path, body, token string) (*httptest.ResponseRecorder, utils.APIResponse) {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	var resp utils.APIResponse
	if rr.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	}
	return rr, resp
}

func TestGetEmployee(t *testing.T) {
	router, directory, _, _ := setup(t)
	directory.On("Get", "E-001").Return(&models.Employee{EmployeeID: "E-001", TicketBalance: 3}, nil)
	directory.On("Get", "ghost").Return(nil, models.ErrEmployeeNotFound)

	rr, resp := do(t, router, http.MethodGet, "/api/employees/E-001", "", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.EqualValues(t, 3, resp.Data.(map[string]interface{})["ticket_balance"])

	rr, _ = do(t, router, http.MethodGet, "/api/employees/ghost", "", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestWritesRequireAdmin(t *testing.T) {
	router, directory, ledger, _ := setup(t)

	rr, _ := do(t, router, http.MethodPost, "/api/employees/E-001/credit", `{"amount":5}`, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr, _ = do(t, router, http.MethodDelete, "/api/employees/E-001", "", "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	ledger.AssertNotCalled(t, "CreditOne", mock.Anything, mock.Anything)
	directory.AssertNotCalled(t, "Remove", mock.Anything)
}

func TestCreateEmployee(t *testing.T) {
	router, directory, _, token := setup(t)
	req := models.EmployeeRequest{EmployeeID: "E-004", Name: "Lin", Department: "IT", TicketBalance: 10}
	directory.On("Register", req).Return(&models.Employee{EmployeeID: "E-004", Name: "Lin", Department: "IT", TicketBalance: 10}, nil)

	rr, resp := do(t, router, http.MethodPost, "/api/employees", `{"employee_id":"E-004","name":"Lin","department":"IT","ticket_balance":10}`, token)
	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.True(t, resp.Success)

	rr, _ = do(t, router, http.MethodPost, "/api/employees", `{"employee_id":"E-005","name":"","department":"IT"}`, token)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	directory.AssertNumberOfCalls(t, "Register", 1)
}

func TestCreditScenario(t *testing.T) {
	router, _, ledger, token := setup(t)
	ledger.On("CreditOne", "E-002", 5).Return(7, nil)
	ledger.On("CreditOne", "E-002", -1).Return(0, models.ErrInvalidAmount)

	rr, resp := do(t, router, http.MethodPost, "/api/employees/E-002/credit", `{"amount":5}`, token)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.EqualValues(t, 7, resp.Data.(map[string]interface{})["ticket_balance"])

	rr, resp = do(t, router, http.MethodPost, "/api/employees/E-002/credit", `{"amount":-1}`, token)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Invalid amount", resp.Message)
}

func TestDebitWithoutBalance(t *testing.T) {
	router, _, ledger, token := setup(t)
	ledger.On("DecrementOne", "E-009").Return(0, models.ErrInsufficientBalance)

	rr, _ := do(t, router, http.MethodPost, "/api/employees/E-009/debit", "", token)

	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestCreditAllReportsPartialFailure(t *testing.T) {
	router, _, ledger, token := setup(t)
	ledger.On("CreditAll", 2).Return([]models.CreditResult{
		{EmployeeID: "E-001", NewBalance: 2},
		{EmployeeID: "E-002", Error: "employee not found", Err: models.ErrEmployeeNotFound},
	}, nil)

	rr, resp := do(t, router, http.MethodPost, "/api/employees/credit-all", `{"amount":2}`, token)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Balances credited with failures", resp.Message)
	assert.Len(t, resp.Data, 2)
}

func TestDeleteEmployee(t *testing.T) {
	router, directory, _, token := setup(t)
	directory.On("Remove", "E-003").Return(nil)

	rr, _ := do(t, router, http.MethodDelete, "/api/employees/E-003", "", token)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	directory.AssertExpectations(t)
}
