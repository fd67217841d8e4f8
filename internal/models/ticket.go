package models

import (
	"time"
)

// Ticket is handed back to the caller of an issuance. It is never stored;
// the matching FeedingEvent is the durable record.
type Ticket struct {
	TicketID         string    `json:"ticket_id"`
	EmployeeID       string    `json:"employee_id"`
	EmployeeName     string    `json:"employee_name"`
	Department       string    `json:"department"`
	Timestamp        time.Time `json:"timestamp"`
	RemainingBalance int       `json:"remaining_balance"`
	QRCode           []byte    `json:"qr_code,omitempty"`
}

type IssueRequest struct {
	EmployeeID string `json:"employee_id" validate:"required"`
}
