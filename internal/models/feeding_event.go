package models

import (
	"time"

	"github.com/uptrace/bun"
)

// FeedingEvent records one completed issuance. Name and department are copied
// at write time so history does not change when a profile is edited later.
type FeedingEvent struct {
	bun.BaseModel `bun:"table:feeding_events"`

	EventID      string    `bun:"event_id,pk" json:"event_id"`
	EmployeeID   string    `bun:"employee_id,notnull" json:"employee_id"`
	EmployeeName string    `bun:"employee_name,notnull" json:"employee_name"`
	Department   string    `bun:"department,notnull" json:"department"`
	TicketID     string    `bun:"ticket_id,notnull,unique" json:"ticket_id"`
	Timestamp    time.Time `bun:"fed_at,notnull" json:"timestamp"`
}

// ConsumptionRecord is the minimal shape handed to the trend analyzer.
type ConsumptionRecord struct {
	EmployeeID string    `json:"employee_id"`
	Department string    `json:"department,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

func (e FeedingEvent) ConsumptionRecord() ConsumptionRecord {
	return ConsumptionRecord{
		EmployeeID: e.EmployeeID,
		Department: e.Department,
		Timestamp:  e.Timestamp,
	}
}
