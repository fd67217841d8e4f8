package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/spf13/pflag"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"ms-canteen/internal/config"
	"ms-canteen/internal/database/migrations"
	employee_db "ms-canteen/internal/employees/db"
	"ms-canteen/internal/logger"
	"ms-canteen/internal/models"
)

var sampleEmployees = []models.Employee{
	{EmployeeID: "E-001", Name: "Alice Mensah", Department: "Engineering", TicketBalance: 20},
	{EmployeeID: "E-002", Name: "Bob Okafor", Department: "Engineering", TicketBalance: 2},
	{EmployeeID: "E-003", Name: "Chen Wei", Department: "Finance", TicketBalance: 10},
	{EmployeeID: "E-004", Name: "Dana Silva", Department: "Operations", TicketBalance: 0},
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	dsn := pflag.String("dsn", cfg.Database.DSN, "PostgreSQL connection string")
	down := pflag.Bool("down", false, "roll back every migration")
	version := pflag.Uint("version", 0, "migrate up or down to this version")
	seed := pflag.Bool("seed", false, "insert sample employees after migrating")
	pflag.Parse()

	log := logger.NewWriter(os.Stdout)

	runner := migrations.NewRunner(*dsn, log)
	defer runner.Close()

	var err error
	switch {
	case *down:
		log.Info("MIGRATION", "Rolling back all migrations...")
		err = runner.Down()
	case *version > 0:
		log.Info("MIGRATION", fmt.Sprintf("Migrating to version %d...", *version))
		err = runner.MigrateTo(*version)
	default:
		log.Info("MIGRATION", "Applying pending migrations...")
		err = runner.Up()
	}
	if err != nil {
		log.Fatal("MIGRATION", err.Error())
	}

	if *seed && !*down {
		if err := seedEmployees(context.Background(), *dsn, log); err != nil {
			log.Fatal("SEED", err.Error())
		}
	}

	log.Info("MIGRATION", "✅ Done.")
}

func seedEmployees(ctx context.Context, dsn string, log *logger.Logger) error {
	sqldb, err := sql.Open("postgres", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	if err := sqldb.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	db := &employee_db.DB{Bun: bun.NewDB(sqldb, pgdialect.New())}
	defer db.Bun.Close()

	for _, e := range sampleEmployees {
		employee := e
		err := db.CreateEmployee(ctx, &employee)
		switch {
		case errors.Is(err, models.ErrEmployeeExists):
			log.Info("SEED", fmt.Sprintf("Employee %s already present, skipping", e.EmployeeID))
		case err != nil:
			return fmt.Errorf("failed to seed employee %s: %w", e.EmployeeID, err)
		default:
			log.Info("SEED", fmt.Sprintf("Seeded employee %s (%s) with %d tickets", e.EmployeeID, e.Department, e.TicketBalance))
		}
	}
	return nil
}
