package db_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	"ms-canteen/internal/database"
	"ms-canteen/internal/employees/db"
	"ms-canteen/internal/models"
)

func setupTestDB(t *testing.T) *db.DB {
	bunDB, err := database.OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("Failed to connect to in-memory database: %v", err)
	}
	t.Cleanup(func() { bunDB.Close() })

	if err := database.CreateSchema(context.Background(), bunDB); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}
	return &db.DB{Bun: bunDB}
}

func seedEmployee(t *testing.T, d *db.DB, id string, balance int) {
	err := d.CreateEmployee(context.Background(), &models.Employee{
		EmployeeID:    id,
		Name:          "Employee " + id,
		Department:    "Operations",
		TicketBalance: balance,
	})
	require.NoError(t, err)
}

func TestCreateAndGetEmployee(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()

	seedEmployee(t, d, "E-001", 3)

	employee, err := d.GetEmployeeByID(ctx, "E-001")
	require.NoError(t, err)
	assert.Equal(t, "Employee E-001", employee.Name)
	assert.Equal(t, "Operations", employee.Department)
	assert.Equal(t, 3, employee.TicketBalance)
	assert.False(t, employee.CreatedAt.IsZero())

	_, err = d.GetEmployeeByID(ctx, "missing")
	assert.ErrorIs(t, err, models.ErrEmployeeNotFound)
}

func TestCreateDuplicateEmployee(t *testing.T) {
	d := setupTestDB(t)
	seedEmployee(t, d, "E-001", 1)

	err := d.CreateEmployee(context.Background(), &models.Employee{EmployeeID: "E-001", Name: "Other", Department: "IT"})
	assert.ErrorIs(t, err, models.ErrEmployeeExists)
}

func TestListEmployeesAndIDs(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()
	seedEmployee(t, d, "E-002", 0)
	seedEmployee(t, d, "E-001", 4)

	employees, err := d.ListEmployees(ctx)
	require.NoError(t, err)
	require.Len(t, employees, 2)
	assert.Equal(t, "E-001", employees[0].EmployeeID)

	ids, err := d.ListEmployeeIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"E-001", "E-002"}, ids)
}

func TestUpdateProfileKeepsBalance(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()
	seedEmployee(t, d, "E-001", 5)

	require.NoError(t, d.UpdateEmployeeProfile(ctx, "E-001", "Jane Doe", "Finance"))

	employee, err := d.GetEmployeeByID(ctx, "E-001")
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", employee.Name)
	assert.Equal(t, "Finance", employee.Department)
	assert.Equal(t, 5, employee.TicketBalance)

	err = d.UpdateEmployeeProfile(ctx, "missing", "x", "y")
	assert.ErrorIs(t, err, models.ErrEmployeeNotFound)
}

func TestDeleteEmployee(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()
	seedEmployee(t, d, "E-001", 1)

	require.NoError(t, d.DeleteEmployee(ctx, "E-001"))

	_, err := d.GetEmployeeByID(ctx, "E-001")
	assert.ErrorIs(t, err, models.ErrEmployeeNotFound)
	assert.ErrorIs(t, d.DeleteEmployee(ctx, "E-001"), models.ErrEmployeeNotFound)
}

func TestDecrementBalanceStopsAtZero(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()
	seedEmployee(t, d, "E-001", 2)

	balance, err := d.DecrementBalance(ctx, nil, "E-001")
	require.NoError(t, err)
	assert.Equal(t, 1, balance)

	balance, err = d.DecrementBalance(ctx, nil, "E-001")
	require.NoError(t, err)
	assert.Equal(t, 0, balance)

	_, err = d.DecrementBalance(ctx, nil, "E-001")
	assert.ErrorIs(t, err, models.ErrInsufficientBalance)

	balance, err = d.GetBalance(ctx, "E-001")
	require.NoError(t, err)
	assert.Equal(t, 0, balance)
}

func TestDecrementBalanceUnknownEmployee(t *testing.T) {
	d := setupTestDB(t)

	_, err := d.DecrementBalance(context.Background(), nil, "ghost")
	assert.ErrorIs(t, err, models.ErrEmployeeNotFound)
}

func TestCreditBalance(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()
	seedEmployee(t, d, "E-002", 2)

	balance, err := d.CreditBalance(ctx, nil, "E-002", 5)
	require.NoError(t, err)
	assert.Equal(t, 7, balance)

	_, err = d.CreditBalance(ctx, nil, "ghost", 5)
	assert.ErrorIs(t, err, models.ErrEmployeeNotFound)
}

func TestDecrementBalanceRolledBackWithTransaction(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()
	seedEmployee(t, d, "E-001", 1)

	store := database.NewStore(d.Bun)
	err := store.RunInTx(ctx, func(ctx context.Context, tx bun.IDB) error {
		if _, err := d.DecrementBalance(ctx, tx, "E-001"); err != nil {
			return err
		}
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)

	balance, err := d.GetBalance(ctx, "E-001")
	require.NoError(t, err)
	assert.Equal(t, 1, balance)
}

func TestConcurrentDecrementsNeverOversell(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()
	const balance = 10
	const callers = 25
	seedEmployee(t, d, "E-001", balance)

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded, refused := 0, 0
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := d.DecrementBalance(ctx, nil, "E-001")
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
			} else if assert.ErrorIs(t, err, models.ErrInsufficientBalance) {
				refused++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, balance, succeeded)
	assert.Equal(t, callers-balance, refused)

	final, err := d.GetBalance(ctx, "E-001")
	require.NoError(t, err)
	assert.Equal(t, 0, final)
}
