package employees

import (
	"context"
	"fmt"

	"ms-canteen/internal/logger"
	"ms-canteen/internal/models"
)

type DirectoryDBLayer interface {
	CreateEmployee(ctx context.Context, employee *models.Employee) error
	GetEmployeeByID(ctx context.Context, id string) (*models.Employee, error)
	ListEmployees(ctx context.Context) ([]models.Employee, error)
	UpdateEmployeeProfile(ctx context.Context, id, name, department string) error
	DeleteEmployee(ctx context.Context, id string) error
}

// DirectoryService manages employee profiles. Balances are read here but only
// the ledger changes them.
type DirectoryService struct {
	DB     DirectoryDBLayer
	Logger *logger.Logger
}

func NewDirectoryService(db DirectoryDBLayer, log *logger.Logger) *DirectoryService {
	if log == nil {
		log = logger.NewDiscard()
	}
	return &DirectoryService{DB: db, Logger: log}
}

// Register adds an employee with an opening balance.
func (s *DirectoryService) Register(ctx context.Context, req models.EmployeeRequest) (*models.Employee, error) {
	if req.TicketBalance < 0 {
		return nil, fmt.Errorf("%w: opening balance %d", models.ErrInvalidAmount, req.TicketBalance)
	}

	employee := &models.Employee{
		EmployeeID:    req.EmployeeID,
		Name:          req.Name,
		Department:    req.Department,
		TicketBalance: req.TicketBalance,
	}
	if err := s.DB.CreateEmployee(ctx, employee); err != nil {
		return nil, fmt.Errorf("failed to register employee %s: %w", req.EmployeeID, err)
	}

	s.Logger.LogLedger("REGISTER", employee.EmployeeID, fmt.Sprintf("opening balance %d", employee.TicketBalance))
	return employee, nil
}

func (s *DirectoryService) Get(ctx context.Context, id string) (*models.Employee, error) {
	return s.DB.GetEmployeeByID(ctx, id)
}

func (s *DirectoryService) List(ctx context.Context) ([]models.Employee, error) {
	employees, err := s.DB.ListEmployees(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	return employees, nil
}

// UpdateProfile changes name and department and returns the fresh row.
func (s *DirectoryService) UpdateProfile(ctx context.Context, id string, req models.EmployeeProfileRequest) (*models.Employee, error) {
	if err := s.DB.UpdateEmployeeProfile(ctx, id, req.Name, req.Department); err != nil {
		return nil, fmt.Errorf("failed to update employee %s: %w", id, err)
	}
	return s.DB.GetEmployeeByID(ctx, id)
}

// Remove deletes the directory entry. Recorded feeding events are kept.
func (s *DirectoryService) Remove(ctx context.Context, id string) error {
	if err := s.DB.DeleteEmployee(ctx, id); err != nil {
		return fmt.Errorf("failed to remove employee %s: %w", id, err)
	}
	s.Logger.LogLedger("REMOVE", id, "employee removed from directory")
	return nil
}
