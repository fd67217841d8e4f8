//go:build integration

package issuance_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"ms-canteen/internal/database"
	"ms-canteen/internal/database/migrations"
	employeedb "ms-canteen/internal/employees/db"
	employees "ms-canteen/internal/employees/service"
	feedingdb "ms-canteen/internal/feeding/db"
	feeding "ms-canteen/internal/feeding/service"
	issuance "ms-canteen/internal/issuance/service"
	"ms-canteen/internal/logger"
	"ms-canteen/internal/models"
)

func setupPostgresCanteen(t *testing.T) canteen {
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "canteen",
				"POSTGRES_PASSWORD": "canteen",
				"POSTGRES_DB":       "canteen",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(90 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)
	dsn := fmt.Sprintf("postgres://canteen:canteen@%s:%s/canteen?sslmode=disable", host, port.Port())

	runner := migrations.NewRunner(dsn, logger.NewDiscard())
	require.NoError(t, runner.Up())
	require.NoError(t, runner.Close())

	sqldb, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(20)
	bunDB := bun.NewDB(sqldb, pgdialect.New())
	t.Cleanup(func() { bunDB.Close() })

	store := database.NewStore(bunDB)
	employeeDB := &employeedb.DB{Bun: bunDB}
	feedingDB := &feedingdb.DB{Bun: bunDB}
	log := logger.NewDiscard()
	retry := database.RetryPolicy{MaxAttempts: 10, InitialInterval: 5 * time.Millisecond}

	ledger := employees.NewLedgerService(employeeDB, store, retry, log)
	events := feeding.NewFeedingLog(feedingDB, log)
	svc := issuance.NewIssuanceService(employeeDB, ledger, events, store, retry, log)

	return canteen{svc: svc, employees: employeeDB, feeding: feedingDB}
}

func TestPostgresConcurrentIssuesKeepLedgerAndLogInStep(t *testing.T) {
	c := setupPostgresCanteen(t)
	balances := map[string]int{"E-001": 10, "E-002": 6, "E-003": 0}
	for id, b := range balances {
		c.seed(t, id, b)
	}
	const attemptsPerEmployee = 14

	var wg sync.WaitGroup
	var mu sync.Mutex
	issued := map[string]int{}
	for id := range balances {
		for i := 0; i < attemptsPerEmployee; i++ {
			wg.Add(1)
			go func(id string) {
				defer wg.Done()
				_, err := c.svc.Issue(context.Background(), id)
				switch {
				case err == nil:
					mu.Lock()
					issued[id]++
					mu.Unlock()
				case errors.Is(err, models.ErrNoTicketsAvailable):
				default:
					t.Errorf("unexpected error for %s: %v", id, err)
				}
			}(id)
		}
	}
	wg.Wait()

	total := 0
	for id, b := range balances {
		assert.Equal(t, b, issued[id], id)
		assert.Equal(t, 0, c.balance(t, id), id)
		assert.Equal(t, b, c.events(t, id), id)
		total += b
	}

	counts, err := c.feeding.MealCounts(context.Background(), "", "")
	require.NoError(t, err)
	counted := 0
	for _, mc := range counts {
		assert.Equal(t, "Ops", mc.Department)
		counted += mc.Count
	}
	assert.Equal(t, total, counted)
}
