package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"

	"ms-canteen/internal/models"
)

type DB struct {
	Bun *bun.DB
}

// conn picks the open transaction when there is one.
func (d *DB) conn(idb bun.IDB) bun.IDB {
	if idb != nil {
		return idb
	}
	return d.Bun
}

// CreateEmployee inserts a new directory entry.
func (d *DB) CreateEmployee(ctx context.Context, employee *models.Employee) error {
	now := time.Now().UTC()
	if employee.CreatedAt.IsZero() {
		employee.CreatedAt = now
	}
	employee.UpdatedAt = now

	_, err := d.Bun.NewInsert().Model(employee).Exec(ctx)
	if err != nil && isUniqueViolation(err) {
		return fmt.Errorf("%w: %s", models.ErrEmployeeExists, employee.EmployeeID)
	}
	return err
}

// GetEmployeeByID → fetch one employee, models.ErrEmployeeNotFound when absent
func (d *DB) GetEmployeeByID(ctx context.Context, id string) (*models.Employee, error) {
	var employee models.Employee
	err := d.Bun.NewSelect().
		Model(&employee).
		Where("employee_id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", models.ErrEmployeeNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &employee, nil
}

// ListEmployees returns the whole directory ordered by id.
func (d *DB) ListEmployees(ctx context.Context) ([]models.Employee, error) {
	var employees []models.Employee
	err := d.Bun.NewSelect().
		Model(&employees).
		Order("employee_id ASC").
		Scan(ctx)
	return employees, err
}

// ListEmployeeIDs is the bulk enumeration used by credit-all.
func (d *DB) ListEmployeeIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := d.Bun.NewSelect().
		Model((*models.Employee)(nil)).
		Column("employee_id").
		Order("employee_id ASC").
		Scan(ctx, &ids)
	return ids, err
}

// UpdateEmployeeProfile changes name and department only. The balance column
// is owned by the ledger and never written here.
func (d *DB) UpdateEmployeeProfile(ctx context.Context, id, name, department string) error {
	res, err := d.Bun.NewUpdate().
		Model((*models.Employee)(nil)).
		Set("name = ?", name).
		Set("department = ?", department).
		Set("updated_at = ?", time.Now().UTC()).
		Where("employee_id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	return requireRow(res, id)
}

// DeleteEmployee removes the directory entry. Feeding events keep their copy
// of the employee's name and department.
func (d *DB) DeleteEmployee(ctx context.Context, id string) error {
	res, err := d.Bun.NewDelete().
		Model((*models.Employee)(nil)).
		Where("employee_id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	return requireRow(res, id)
}

func requireRow(res sql.Result, id string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", models.ErrEmployeeNotFound, id)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "23505")
}
