package feeding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"ms-canteen/internal/feeding/db"
	"ms-canteen/internal/logger"
	"ms-canteen/internal/models"
	"ms-canteen/internal/utils"
)

type FeedingDBLayer interface {
	AppendEvent(ctx context.Context, idb bun.IDB, event *models.FeedingEvent) error
	ListEvents(ctx context.Context, f db.Filter) ([]models.FeedingEvent, error)
	MealCounts(ctx context.Context, fromDay, toDay string) ([]models.MealCount, error)
}

var errIncompleteEvent = errors.New("feeding event is incomplete")

// FeedingLog is the append-only record of completed issuances.
type FeedingLog struct {
	DB     FeedingDBLayer
	Logger *logger.Logger
}

func NewFeedingLog(db FeedingDBLayer, log *logger.Logger) *FeedingLog {
	if log == nil {
		log = logger.NewDiscard()
	}
	return &FeedingLog{DB: db, Logger: log}
}

// Append stores one event outside any caller transaction.
func (s *FeedingLog) Append(ctx context.Context, event *models.FeedingEvent) error {
	return s.AppendTx(ctx, nil, event)
}

// AppendTx stores one event inside tx. A failure here must abort tx.
func (s *FeedingLog) AppendTx(ctx context.Context, tx bun.IDB, event *models.FeedingEvent) error {
	if err := checkEvent(event); err != nil {
		return err
	}
	if err := s.DB.AppendEvent(ctx, tx, event); err != nil {
		s.Logger.Error("FEEDING", fmt.Sprintf("append failed for ticket %s: %v", event.TicketID, err))
		return err
	}
	return nil
}

func checkEvent(event *models.FeedingEvent) error {
	switch {
	case event == nil:
		return errIncompleteEvent
	case event.EventID == "":
		return fmt.Errorf("%w: missing event id", errIncompleteEvent)
	case event.EmployeeID == "":
		return fmt.Errorf("%w: missing employee id", errIncompleteEvent)
	case event.TicketID == "":
		return fmt.Errorf("%w: missing ticket id", errIncompleteEvent)
	case event.Timestamp.IsZero():
		return fmt.Errorf("%w: missing timestamp", errIncompleteEvent)
	}
	return nil
}

func (s *FeedingLog) List(ctx context.Context, f db.Filter) ([]models.FeedingEvent, error) {
	events, err := s.DB.ListEvents(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to read feeding log: %w", err)
	}
	return events, nil
}

// ConsumptionBatch returns the latest f.Limit events (all when zero) oldest
// first, in the shape the analyzer takes.
func (s *FeedingLog) ConsumptionBatch(ctx context.Context, f db.Filter) ([]models.ConsumptionRecord, error) {
	f.Order = db.NewestFirst
	events, err := s.List(ctx, f)
	if err != nil {
		return nil, err
	}

	records := make([]models.ConsumptionRecord, 0, len(events))
	for i := len(events) - 1; i >= 0; i-- {
		records = append(records, events[i].ConsumptionRecord())
	}
	return records, nil
}

// MealCounts returns the per-department daily counters between from and to,
// inclusive by day. Zero times leave that side open.
func (s *FeedingLog) MealCounts(ctx context.Context, from, to time.Time) ([]models.MealCount, error) {
	var fromDay, toDay string
	if !from.IsZero() {
		fromDay = utils.DayKey(from)
	}
	if !to.IsZero() {
		toDay = utils.DayKey(to)
	}
	counts, err := s.DB.MealCounts(ctx, fromDay, toDay)
	if err != nil {
		return nil, fmt.Errorf("failed to read meal counts: %w", err)
	}
	return counts, nil
}
