package employees

import (
	"context"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"ms-canteen/internal/database"
	"ms-canteen/internal/logger"
	"ms-canteen/internal/models"
)

type BalanceDBLayer interface {
	DecrementBalance(ctx context.Context, idb bun.IDB, employeeID string) (int, error)
	CreditBalance(ctx context.Context, idb bun.IDB, employeeID string, amount int) (int, error)
	ListEmployeeIDs(ctx context.Context) ([]string, error)
}

// TxRunner is satisfied by *database.Store.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx bun.IDB) error) error
}

// LedgerService is the only writer of ticket balances.
type LedgerService struct {
	DB     BalanceDBLayer
	Tx     TxRunner
	Retry  database.RetryPolicy
	Logger *logger.Logger
}

func NewLedgerService(db BalanceDBLayer, tx TxRunner, retry database.RetryPolicy, log *logger.Logger) *LedgerService {
	if log == nil {
		log = logger.NewDiscard()
	}
	return &LedgerService{DB: db, Tx: tx, Retry: retry, Logger: log}
}

// DecrementOne takes one ticket in its own transaction, retrying on conflicts.
func (s *LedgerService) DecrementOne(ctx context.Context, employeeID string) (int, error) {
	var balance int
	err := database.Retry(ctx, s.Retry, func() error {
		return s.Tx.RunInTx(ctx, func(ctx context.Context, tx bun.IDB) error {
			var err error
			balance, err = s.DecrementOneTx(ctx, tx, employeeID)
			return err
		})
	})
	if err != nil {
		if !errors.Is(err, models.ErrInsufficientBalance) {
			s.Logger.Error("LEDGER", fmt.Sprintf("decrement failed for %s: %v", employeeID, err))
		}
		return 0, err
	}

	s.Logger.LogLedger("DEBIT", employeeID, fmt.Sprintf("balance now %d", balance))
	return balance, nil
}

// DecrementOneTx joins a transaction owned by the caller. The caller retries.
func (s *LedgerService) DecrementOneTx(ctx context.Context, tx bun.IDB, employeeID string) (int, error) {
	return s.DB.DecrementBalance(ctx, tx, employeeID)
}

// CreditOne adds amount tickets to one employee.
func (s *LedgerService) CreditOne(ctx context.Context, employeeID string, amount int) (int, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("%w: got %d", models.ErrInvalidAmount, amount)
	}

	balance, err := s.credit(ctx, employeeID, amount)
	if err != nil {
		s.Logger.Error("LEDGER", fmt.Sprintf("credit of %d failed for %s: %v", amount, employeeID, err))
		return 0, err
	}

	s.Logger.LogLedger("CREDIT", employeeID, fmt.Sprintf("+%d, balance now %d", amount, balance))
	return balance, nil
}

// CreditAll credits every employee in the directory, each in its own
// transaction. A failure for one employee is recorded in its result and the
// rest are still credited.
func (s *LedgerService) CreditAll(ctx context.Context, amount int) ([]models.CreditResult, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: got %d", models.ErrInvalidAmount, amount)
	}

	ids, err := s.DB.ListEmployeeIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}

	results := make([]models.CreditResult, 0, len(ids))
	failed := 0
	for _, id := range ids {
		result := models.CreditResult{EmployeeID: id}
		balance, err := s.credit(ctx, id, amount)
		if err != nil {
			failed++
			result.Err = err
			result.Error = err.Error()
			s.Logger.Warn("LEDGER", fmt.Sprintf("bulk credit skipped %s: %v", id, err))
		} else {
			result.NewBalance = balance
		}
		results = append(results, result)
	}

	s.Logger.LogLedger("CREDIT_ALL", "*", fmt.Sprintf("+%d to %d employees, %d failed", amount, len(ids)-failed, failed))
	return results, nil
}

func (s *LedgerService) credit(ctx context.Context, employeeID string, amount int) (int, error) {
	var balance int
	err := database.Retry(ctx, s.Retry, func() error {
		return s.Tx.RunInTx(ctx, func(ctx context.Context, tx bun.IDB) error {
			var err error
			balance, err = s.DB.CreditBalance(ctx, tx, employeeID, amount)
			return err
		})
	})
	return balance, err
}
