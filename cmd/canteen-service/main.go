package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"ms-canteen/internal/analytics"
	analytics_api "ms-canteen/internal/analytics/api"
	"ms-canteen/internal/auth"
	"ms-canteen/internal/config"
	"ms-canteen/internal/database"
	"ms-canteen/internal/database/migrations"
	employee_db "ms-canteen/internal/employees/db"
	"ms-canteen/internal/employees/employee_api"
	employees "ms-canteen/internal/employees/service"
	feeding_db "ms-canteen/internal/feeding/db"
	"ms-canteen/internal/feeding/feeding_api"
	feeding "ms-canteen/internal/feeding/service"
	"ms-canteen/internal/issuance/issuance_api"
	qr "ms-canteen/internal/issuance/qr_generator"
	"ms-canteen/internal/issuance/scanguard"
	issuance "ms-canteen/internal/issuance/service"
	"ms-canteen/internal/kafka"
	"ms-canteen/internal/logger"
	"ms-canteen/internal/scan"
)

func connectPostgres(cfg config.DatabaseConfig, log *logger.Logger) *bun.DB {
	var sqldb *sql.DB
	var err error
	maxRetries := cfg.ConnRetries
	if maxRetries < 1 {
		maxRetries = 1
	}

	for i := 0; i < maxRetries; i++ {
		log.Info("DATABASE", fmt.Sprintf("Attempting to connect to PostgreSQL (attempt %d/%d)", i+1, maxRetries))
		sqldb, err = sql.Open("postgres", cfg.DSN)
		if err != nil {
			log.Error("DATABASE", fmt.Sprintf("Failed to open PostgreSQL: %v", err))
			time.Sleep(2 * time.Second)
			continue
		}

		err = sqldb.Ping()
		if err == nil {
			break
		}

		log.Error("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL: %v", err))
		sqldb.Close()
		if i < maxRetries-1 {
			time.Sleep(2 * time.Second)
		}
	}

	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL after %d attempts: %v", maxRetries, err))
	}

	sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.MaxLifetime)

	log.Info("DATABASE", "✅ PostgreSQL connection successful")
	return bun.NewDB(sqldb, pgdialect.New())
}

func connectRedis(ctx context.Context, cfg config.RedisConfig, log *logger.Logger) *redis.Client {
	if !cfg.Enabled {
		log.Warn("REDIS", "Redis disabled, scan requests are not deduplicated")
		return nil
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.Addr})
	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatal("REDIS", fmt.Sprintf("Redis connection error: %v", err))
	}
	log.Info("REDIS", fmt.Sprintf("✅ Redis connection successful to %s (DB: %d)", cfg.Addr, client.Options().DB))
	return client
}

func newSummarizer(cfg config.AnalyzerConfig, log *logger.Logger) analytics.Summarizer {
	switch cfg.Provider {
	case "llm":
		if cfg.SummarizerAPIKey == "" {
			log.Fatal("CONFIG", "ANALYZER_PROVIDER=llm requires SUMMARIZER_API_KEY")
		}
		log.Info("ANALYTICS", fmt.Sprintf("Using LLM summarizer (model %s)", cfg.SummarizerModel))
		return analytics.NewLLMSummarizer(cfg.SummarizerURL, cfg.SummarizerAPIKey, cfg.SummarizerModel, cfg.Timeout)
	case "stats", "":
		log.Info("ANALYTICS", "Using statistical summarizer")
		return analytics.StatsSummarizer{}
	default:
		log.Fatal("CONFIG", fmt.Sprintf("Unknown ANALYZER_PROVIDER %q", cfg.Provider))
		return nil
	}
}

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Println(".env file not found, using environment variables")
	}

	cfg := config.Load()

	log := logger.NewLogger(cfg.Log.Dir)
	defer log.Close()

	log.Info("APP", "Starting Canteen Service initialization")

	ctx := context.Background()

	if cfg.Database.AutoMigrate {
		runner := migrations.NewRunner(cfg.Database.DSN, log)
		if err := runner.Up(); err != nil {
			log.Fatal("MIGRATION", fmt.Sprintf("Failed to apply migrations: %v", err))
		}
		runner.Close()
	}

	bunDB := connectPostgres(cfg.Database, log)
	defer bunDB.Close()

	redisClient := connectRedis(ctx, cfg.Redis, log)
	if redisClient != nil {
		defer redisClient.Close()
	}

	var producer *kafka.Producer
	if cfg.Kafka.Enabled {
		log.Info("KAFKA", fmt.Sprintf("Using Kafka brokers: %v", cfg.Kafka.Brokers))
		if err := kafka.EnsureTopicsExist(ctx, cfg.Kafka.Brokers, []string{cfg.Kafka.Topics.FeedingRecorded}, log); err != nil {
			log.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
		}
		producer = kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topics.FeedingRecorded, log)
		defer producer.Close()
		log.Info("KAFKA", "Kafka producer initialized successfully")
	}

	store := database.NewStore(bunDB)
	retry := database.RetryPolicy{
		MaxAttempts:     cfg.Ledger.MaxAttempts,
		InitialInterval: cfg.Ledger.InitialBackoff,
	}

	employeeDB := &employee_db.DB{Bun: bunDB}
	feedingDB := &feeding_db.DB{Bun: bunDB}

	ledger := employees.NewLedgerService(employeeDB, store, retry, log)
	directory := employees.NewDirectoryService(employeeDB, log)
	feedingLog := feeding.NewFeedingLog(feedingDB, log)

	issuer := issuance.NewIssuanceService(employeeDB, ledger, feedingLog, store, retry, log)
	if cfg.QR.SecretKey != "" {
		issuer.QR = qr.NewQRGenerator(cfg.QR.SecretKey, cfg.QR.Size)
	} else {
		log.Warn("CONFIG", "QR_SECRET_KEY not set, tickets are issued without QR codes")
	}
	if producer != nil {
		issuer.Publisher = producer
	}
	if redisClient != nil {
		issuer.Guard = scanguard.NewGuard(redisClient, cfg.Redis.ScanGuardTTL)
		issuer.GuardKey = scanguard.Key
	}

	scanner := scan.NewRandomScanner(employeeDB, cfg.Scanner.NoMatchPercent, cfg.Scanner.DeviceErrorPercent, time.Now().UnixNano())
	analyzer := analytics.NewAnalyzer(newSummarizer(cfg.Analyzer, log), feedingLog, cfg.Analyzer.MaxBatch, log)

	if cfg.Auth.AdminJWTSecret == "" {
		log.Warn("CONFIG", "ADMIN_JWT_SECRET not set, admin routes will reject every request")
	}
	admin := auth.AdminOnly(cfg.Auth.AdminJWTSecret, log)

	log.Info("HTTP", "Setting up router and middleware")
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	employee_api.NewHandler(directory, ledger, admin, log).RegisterRoutes(r)
	log.Info("ROUTER", "Employee routes registered under /api/employees")

	issuance_api.NewHandler(issuer, scanner, log).RegisterRoutes(r)
	log.Info("ROUTER", "Issuance routes registered under /api/issuance")

	feeding_api.NewHandler(feedingLog, log).RegisterRoutes(r)
	log.Info("ROUTER", "Feeding log routes registered under /api/feeding")

	analytics_api.NewHandler(analyzer, log).RegisterRoutes(r)
	log.Info("ROUTER", "Analytics routes registered under /api/analytics")

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP", fmt.Sprintf("🚀 Canteen Service running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	log.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-stop

	log.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	ctxShutdown, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	} else {
		log.Info("HTTP", "✅ Canteen Service shutdown complete")
	}
}
