package db

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"ms-canteen/internal/models"
	"ms-canteen/internal/utils"
)

type Order int

const (
	NewestFirst Order = iota
	Chronological
)

// Filter narrows a read of the feeding log. Zero values mean "no bound".
type Filter struct {
	EmployeeID string
	Department string
	From       time.Time
	To         time.Time
	Limit      int
	Order      Order
}

type DB struct {
	Bun *bun.DB
}

func (d *DB) conn(idb bun.IDB) bun.IDB {
	if idb != nil {
		return idb
	}
	return d.Bun
}

// AppendEvent stores the event and bumps the department's counter for the
// day. Both writes go through idb so they commit or roll back together.
func (d *DB) AppendEvent(ctx context.Context, idb bun.IDB, event *models.FeedingEvent) error {
	conn := d.conn(idb)
	event.Timestamp = event.Timestamp.UTC()

	if _, err := conn.NewInsert().Model(event).Exec(ctx); err != nil {
		return fmt.Errorf("failed to insert feeding event: %w", err)
	}

	if err := d.incrementMealCount(ctx, conn, event.Department, event.Timestamp); err != nil {
		return fmt.Errorf("failed to update meal count: %w", err)
	}
	return nil
}

// incrementMealCount upserts the (department, day) row.
func (d *DB) incrementMealCount(ctx context.Context, conn bun.IDB, department string, at time.Time) error {
	_, err := conn.ExecContext(ctx,
		"INSERT INTO meal_counts (department, day, count) VALUES (?, ?, 1) "+
			"ON CONFLICT (department, day) DO UPDATE SET count = meal_counts.count + 1",
		department, utils.DayKey(at),
	)
	return err
}

// ListEvents returns events matching f. Ties on timestamp are broken by
// event id so paging is stable.
func (d *DB) ListEvents(ctx context.Context, f Filter) ([]models.FeedingEvent, error) {
	var events []models.FeedingEvent
	q := d.Bun.NewSelect().Model(&events)

	if f.EmployeeID != "" {
		q = q.Where("employee_id = ?", f.EmployeeID)
	}
	if f.Department != "" {
		q = q.Where("department = ?", f.Department)
	}
	if !f.From.IsZero() {
		q = q.Where("fed_at >= ?", f.From.UTC())
	}
	if !f.To.IsZero() {
		q = q.Where("fed_at < ?", f.To.UTC())
	}

	if f.Order == Chronological {
		q = q.Order("fed_at ASC", "event_id ASC")
	} else {
		q = q.Order("fed_at DESC", "event_id DESC")
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	return events, nil
}

// CountEvents counts the events for one employee. Used by tests and
// reconciliation against the ledger.
func (d *DB) CountEvents(ctx context.Context, employeeID string) (int, error) {
	return d.Bun.NewSelect().
		Model((*models.FeedingEvent)(nil)).
		Where("employee_id = ?", employeeID).
		Count(ctx)
}

// MealCounts returns the daily counters with fromDay <= day <= toDay. Empty
// bounds are open.
func (d *DB) MealCounts(ctx context.Context, fromDay, toDay string) ([]models.MealCount, error) {
	var counts []models.MealCount
	q := d.Bun.NewSelect().Model(&counts)
	if fromDay != "" {
		q = q.Where("day >= ?", fromDay)
	}
	if toDay != "" {
		q = q.Where("day <= ?", toDay)
	}
	err := q.Order("day ASC", "department ASC").Scan(ctx)
	return counts, err
}
