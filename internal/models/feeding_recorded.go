package models

import (
	"time"

	"github.com/google/uuid"
)

// FeedingRecordedEventDto is published to Kafka once an issuance has committed.
type FeedingRecordedEventDto struct {
	EventID      uuid.UUID `json:"event_id"`
	TicketID     string    `json:"ticket_id"`
	EmployeeID   string    `json:"employee_id"`
	EmployeeName string    `json:"employee_name"`
	Department   string    `json:"department"`
	Timestamp    time.Time `json:"timestamp"`
}

// NewFeedingRecordedEventDto builds the DTO from a stored event. The event id
// must be a UUID.
func NewFeedingRecordedEventDto(event FeedingEvent) (FeedingRecordedEventDto, error) {
	eventUUID, err := uuid.Parse(event.EventID)
	if err != nil {
		return FeedingRecordedEventDto{}, err
	}

	return FeedingRecordedEventDto{
		EventID:      eventUUID,
		TicketID:     event.TicketID,
		EmployeeID:   event.EmployeeID,
		EmployeeName: event.EmployeeName,
		Department:   event.Department,
		Timestamp:    event.Timestamp.UTC(),
	}, nil
}
