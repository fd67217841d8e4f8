package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"ms-canteen/internal/models"
)

// DecrementBalance takes one ticket from the employee in a single conditional
// UPDATE, so two concurrent callers can never both take the last ticket.
// Pass the open transaction as idb, or nil to run on the pool.
func (d *DB) DecrementBalance(ctx context.Context, idb bun.IDB, employeeID string) (int, error) {
	conn := d.conn(idb)

	res, err := conn.NewUpdate().
		Model((*models.Employee)(nil)).
		Set("ticket_balance = ticket_balance - 1").
		Set("updated_at = ?", time.Now().UTC()).
		Where("employee_id = ?", employeeID).
		Where("ticket_balance > 0").
		Exec(ctx)
	if err != nil {
		return 0, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if affected == 0 {
		exists, err := conn.NewSelect().
			Model((*models.Employee)(nil)).
			Where("employee_id = ?", employeeID).
			Exists(ctx)
		if err != nil {
			return 0, err
		}
		if !exists {
			return 0, fmt.Errorf("%w: %s", models.ErrEmployeeNotFound, employeeID)
		}
		return 0, fmt.Errorf("%w: %s", models.ErrInsufficientBalance, employeeID)
	}

	return d.readBalance(ctx, conn, employeeID)
}

// CreditBalance adds amount tickets. amount is validated by the caller.
func (d *DB) CreditBalance(ctx context.Context, idb bun.IDB, employeeID string, amount int) (int, error) {
	conn := d.conn(idb)

	res, err := conn.NewUpdate().
		Model((*models.Employee)(nil)).
		Set("ticket_balance = ticket_balance + ?", amount).
		Set("updated_at = ?", time.Now().UTC()).
		Where("employee_id = ?", employeeID).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	if err := requireRow(res, employeeID); err != nil {
		return 0, err
	}

	return d.readBalance(ctx, conn, employeeID)
}

// GetBalance reads the current balance.
func (d *DB) GetBalance(ctx context.Context, employeeID string) (int, error) {
	return d.readBalance(ctx, d.Bun, employeeID)
}

func (d *DB) readBalance(ctx context.Context, conn bun.IDB, employeeID string) (int, error) {
	var balance int
	err := conn.NewSelect().
		Model((*models.Employee)(nil)).
		Column("ticket_balance").
		Where("employee_id = ?", employeeID).
		Limit(1).
		Scan(ctx, &balance)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: %s", models.ErrEmployeeNotFound, employeeID)
	}
	if err != nil {
		return 0, err
	}
	return balance, nil
}
