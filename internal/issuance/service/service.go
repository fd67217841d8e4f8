package issuance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"ms-canteen/internal/database"
	"ms-canteen/internal/logger"
	"ms-canteen/internal/models"
	"ms-canteen/internal/scan"
	"ms-canteen/internal/utils"
)

type EmployeeLookup interface {
	GetEmployeeByID(ctx context.Context, id string) (*models.Employee, error)
}

type Ledger interface {
	DecrementOneTx(ctx context.Context, tx bun.IDB, employeeID string) (int, error)
}

type EventLog interface {
	AppendTx(ctx context.Context, tx bun.IDB, event *models.FeedingEvent) error
}

type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx bun.IDB) error) error
}

type EventPublisher interface {
	PublishFeedingRecorded(ctx context.Context, event models.FeedingRecordedEventDto) error
}

type QRCodeGenerator interface {
	GenerateEncryptedQR(ticket models.Ticket) ([]byte, error)
}

// RequestGuard deduplicates retried scan requests. *scanguard.Guard
// satisfies it.
type RequestGuard interface {
	Acquire(ctx context.Context, key string) (*models.Ticket, bool, error)
	Complete(ctx context.Context, key string, ticket *models.Ticket) error
	Release(ctx context.Context, key string) error
}

// IssuanceService turns an identified employee into a meal ticket.
// Publisher, QR and Guard are optional.
type IssuanceService struct {
	Directory EmployeeLookup
	Ledger    Ledger
	Events    EventLog
	Tx        TxRunner
	Publisher EventPublisher
	QR        QRCodeGenerator
	Guard     RequestGuard
	GuardKey  func(employeeID, requestKey string) string
	Retry     database.RetryPolicy
	Logger    *logger.Logger
	Now       func() time.Time
}

func NewIssuanceService(directory EmployeeLookup, ledger Ledger, events EventLog, tx TxRunner, retry database.RetryPolicy, log *logger.Logger) *IssuanceService {
	if log == nil {
		log = logger.NewDiscard()
	}
	return &IssuanceService{
		Directory: directory,
		Ledger:    ledger,
		Events:    events,
		Tx:        tx,
		Retry:     retry,
		Logger:    log,
		Now:       time.Now,
	}
}

// Issue debits one ticket and records the feeding event in one transaction.
// A zero balance yields models.ErrNoTicketsAvailable and leaves no trace.
// Once the transaction starts it runs to completion even if ctx is cancelled.
func (s *IssuanceService) Issue(ctx context.Context, employeeID string) (*models.Ticket, error) {
	employee, err := s.Directory.GetEmployeeByID(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	issuedAt := s.Now().UTC()
	ticket := &models.Ticket{
		TicketID:     utils.GenerateTicketID(issuedAt),
		EmployeeID:   employee.EmployeeID,
		EmployeeName: employee.Name,
		Department:   employee.Department,
		Timestamp:    issuedAt,
	}
	event := &models.FeedingEvent{
		EventID:      utils.GenerateEventID(),
		EmployeeID:   employee.EmployeeID,
		EmployeeName: employee.Name,
		Department:   employee.Department,
		TicketID:     ticket.TicketID,
		Timestamp:    issuedAt,
	}

	if s.QR != nil {
		qrBytes, err := s.QR.GenerateEncryptedQR(*ticket)
		if err != nil {
			return nil, fmt.Errorf("failed to generate QR: %w", err)
		}
		ticket.QRCode = qrBytes
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	txCtx := context.WithoutCancel(ctx)

	var remaining int
	err = database.Retry(txCtx, s.Retry, func() error {
		return s.Tx.RunInTx(txCtx, func(ctx context.Context, tx bun.IDB) error {
			balance, err := s.Ledger.DecrementOneTx(ctx, tx, employee.EmployeeID)
			if errors.Is(err, models.ErrInsufficientBalance) {
				return fmt.Errorf("%w: %s", models.ErrNoTicketsAvailable, employee.EmployeeID)
			}
			if err != nil {
				return err
			}
			if err := s.Events.AppendTx(ctx, tx, event); err != nil {
				return fmt.Errorf("failed to record feeding event: %w", err)
			}
			remaining = balance
			return nil
		})
	})
	if err != nil {
		if errors.Is(err, models.ErrNoTicketsAvailable) {
			s.Logger.LogIssuance("REFUSED", employee.EmployeeID, "no tickets left")
		} else {
			s.Logger.Error("ISSUANCE", fmt.Sprintf("issuance failed for %s: %v", employee.EmployeeID, err))
		}
		return nil, err
	}

	ticket.RemainingBalance = remaining
	s.Logger.LogIssuance("ISSUED", employee.EmployeeID, fmt.Sprintf("ticket %s, %d left", ticket.TicketID, remaining))

	s.publish(txCtx, *event)
	return ticket, nil
}

// publish runs after commit. A failure is logged and never undoes the issuance.
func (s *IssuanceService) publish(ctx context.Context, event models.FeedingEvent) {
	if s.Publisher == nil {
		return
	}
	dto, err := models.NewFeedingRecordedEventDto(event)
	if err != nil {
		s.Logger.Warn("KAFKA", fmt.Sprintf("cannot build event for ticket %s: %v", event.TicketID, err))
		return
	}
	if err := s.Publisher.PublishFeedingRecorded(ctx, dto); err != nil {
		s.Logger.Warn("KAFKA", fmt.Sprintf("feeding event for ticket %s not published: %v", event.TicketID, err))
	}
}

// IssueFromScan identifies the employee with scanner and issues a ticket.
// Scanner errors are returned unchanged and nothing is issued.
func (s *IssuanceService) IssueFromScan(ctx context.Context, scanner scan.Scanner) (*models.Ticket, error) {
	employeeID, err := scanner.Identify(ctx)
	if err != nil {
		s.Logger.Warn("ISSUANCE", fmt.Sprintf("scan failed: %v", err))
		return nil, err
	}
	return s.Issue(ctx, employeeID)
}

// IssueOnce is Issue guarded by a request key. A retry with the same key
// gets the ticket already issued; a duplicate still in flight gets
// models.ErrDuplicateScan. An empty key or no guard behaves like Issue.
func (s *IssuanceService) IssueOnce(ctx context.Context, requestKey, employeeID string) (*models.Ticket, error) {
	if requestKey == "" || s.Guard == nil {
		return s.Issue(ctx, employeeID)
	}

	key := requestKey
	if s.GuardKey != nil {
		key = s.GuardKey(employeeID, requestKey)
	}

	replay, acquired, err := s.Guard.Acquire(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("%w: scan guard unavailable: %v", models.ErrTransientFailure, err)
	}
	if replay != nil {
		s.Logger.LogIssuance("REPLAY", employeeID, fmt.Sprintf("ticket %s", replay.TicketID))
		return replay, nil
	}
	if !acquired {
		return nil, models.ErrDuplicateScan
	}

	ticket, err := s.Issue(ctx, employeeID)
	guardCtx := context.WithoutCancel(ctx)
	if err != nil {
		if relErr := s.Guard.Release(guardCtx, key); relErr != nil {
			s.Logger.Warn("ISSUANCE", fmt.Sprintf("failed to release scan key %s: %v", key, relErr))
		}
		return nil, err
	}
	if err := s.Guard.Complete(guardCtx, key, ticket); err != nil {
		s.Logger.Warn("ISSUANCE", fmt.Sprintf("failed to store scan key %s: %v", key, err))
	}
	return ticket, nil
}
