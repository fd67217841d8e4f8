package db_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	"ms-canteen/internal/database"
	"ms-canteen/internal/feeding/db"
	"ms-canteen/internal/models"
	"ms-canteen/internal/utils"
)

func setupFeedingDB(t *testing.T) *db.DB {
	bunDB, err := database.OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("Failed to connect to in-memory database: %v", err)
	}
	t.Cleanup(func() { bunDB.Close() })
	require.NoError(t, database.CreateSchema(context.Background(), bunDB))
	return &db.DB{Bun: bunDB}
}

func newEvent(employeeID, department string, at time.Time) *models.FeedingEvent {
	return &models.FeedingEvent{
		EventID:      utils.GenerateEventID(),
		EmployeeID:   employeeID,
		EmployeeName: "Name " + employeeID,
		Department:   department,
		TicketID:     utils.GenerateTicketID(at),
		Timestamp:    at,
	}
}

var base = time.Date(2026, 3, 2, 11, 30, 0, 0, time.UTC)

func TestAppendEventIncrementsMealCount(t *testing.T) {
	feedingDB := setupFeedingDB(t)
	ctx := context.Background()

	require.NoError(t, feedingDB.AppendEvent(ctx, nil, newEvent("E-001", "Ops", base)))
	require.NoError(t, feedingDB.AppendEvent(ctx, nil, newEvent("E-002", "Ops", base.Add(time.Hour))))
	require.NoError(t, feedingDB.AppendEvent(ctx, nil, newEvent("E-003", "IT", base.Add(time.Hour))))
	require.NoError(t, feedingDB.AppendEvent(ctx, nil, newEvent("E-001", "Ops", base.Add(24*time.Hour))))

	counts, err := feedingDB.MealCounts(ctx, "", "")
	require.NoError(t, err)
	require.Len(t, counts, 3)
	assert.Equal(t, models.MealCount{ID: counts[0].ID, Department: "IT", Day: "2026-03-02", Count: 1}, counts[0])
	assert.Equal(t, "Ops", counts[1].Department)
	assert.Equal(t, 2, counts[1].Count)
	assert.Equal(t, "2026-03-03", counts[2].Day)

	counts, err = feedingDB.MealCounts(ctx, "2026-03-03", "2026-03-03")
	require.NoError(t, err)
	require.Len(t, counts, 1)
	assert.Equal(t, 1, counts[0].Count)
}

func TestAppendEventRejectsDuplicateTicket(t *testing.T) {
	feedingDB := setupFeedingDB(t)
	ctx := context.Background()

	first := newEvent("E-001", "Ops", base)
	require.NoError(t, feedingDB.AppendEvent(ctx, nil, first))

	dup := newEvent("E-001", "Ops", base)
	dup.TicketID = first.TicketID
	assert.Error(t, feedingDB.AppendEvent(ctx, nil, dup))
}

func TestAppendEventRollsBackWithTransaction(t *testing.T) {
	feedingDB := setupFeedingDB(t)
	ctx := context.Background()

	err := database.NewStore(feedingDB.Bun).RunInTx(ctx, func(ctx context.Context, tx bun.IDB) error {
		if err := feedingDB.AppendEvent(ctx, tx, newEvent("E-001", "Ops", base)); err != nil {
			return err
		}
		return fmt.Errorf("abort")
	})
	require.Error(t, err)

	n, err := feedingDB.CountEvents(ctx, "E-001")
	require.NoError(t, err)
	assert.Zero(t, n)

	counts, err := feedingDB.MealCounts(ctx, "", "")
	require.NoError(t, err)
	assert.Empty(t, counts)
}

func TestListEventsFiltersAndOrders(t *testing.T) {
	feedingDB := setupFeedingDB(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, feedingDB.AppendEvent(ctx, nil, newEvent("E-001", "Ops", base.Add(time.Duration(i)*time.Hour))))
	}
	require.NoError(t, feedingDB.AppendEvent(ctx, nil, newEvent("E-002", "IT", base.Add(30*time.Minute))))

	newest, err := feedingDB.ListEvents(ctx, db.Filter{EmployeeID: "E-001"})
	require.NoError(t, err)
	require.Len(t, newest, 5)
	assert.True(t, newest[0].Timestamp.Equal(base.Add(4*time.Hour)))

	chrono, err := feedingDB.ListEvents(ctx, db.Filter{Order: db.Chronological, Limit: 2})
	require.NoError(t, err)
	require.Len(t, chrono, 2)
	assert.Equal(t, "E-001", chrono[0].EmployeeID)
	assert.Equal(t, "E-002", chrono[1].EmployeeID)

	window, err := feedingDB.ListEvents(ctx, db.Filter{
		From:  base.Add(time.Hour),
		To:    base.Add(3 * time.Hour),
		Order: db.Chronological,
	})
	require.NoError(t, err)
	require.Len(t, window, 2)
	assert.True(t, window[0].Timestamp.Equal(base.Add(time.Hour)))

	it, err := feedingDB.ListEvents(ctx, db.Filter{Department: "IT"})
	require.NoError(t, err)
	require.Len(t, it, 1)
	assert.Equal(t, "Name E-002", it[0].EmployeeName)
}
