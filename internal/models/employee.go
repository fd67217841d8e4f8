package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Employee is a directory entry together with the employee's remaining meal tickets.
// TicketBalance is only ever changed through the balance ledger.
type Employee struct {
	bun.BaseModel `bun:"table:employees"`

	EmployeeID    string    `bun:"employee_id,pk" json:"employee_id"`
	Name          string    `bun:"name,notnull" json:"name"`
	Department    string    `bun:"department,notnull" json:"department"`
	TicketBalance int       `bun:"ticket_balance,notnull" json:"ticket_balance"`
	CreatedAt     time.Time `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt     time.Time `bun:"updated_at,notnull" json:"updated_at"`
}

type EmployeeRequest struct {
	EmployeeID    string `json:"employee_id" validate:"required,max=64"`
	Name          string `json:"name" validate:"required,max=200"`
	Department    string `json:"department" validate:"required,max=200"`
	TicketBalance int    `json:"ticket_balance" validate:"gte=0"`
}

type EmployeeProfileRequest struct {
	Name       string `json:"name" validate:"required,max=200"`
	Department string `json:"department" validate:"required,max=200"`
}

type CreditRequest struct {
	Amount int `json:"amount"`
}

// CreditResult is the outcome of crediting one employee during a bulk credit.
type CreditResult struct {
	EmployeeID string `json:"employee_id"`
	NewBalance int    `json:"new_balance,omitempty"`
	Error      string `json:"error,omitempty"`

	Err error `json:"-"`
}

func (r CreditResult) Succeeded() bool {
	return r.Err == nil
}
