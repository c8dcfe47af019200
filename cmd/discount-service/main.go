package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"ms-discounts/internal/config"
	"ms-discounts/internal/courtesy"
	courtesydb "ms-discounts/internal/courtesy/db"
	"ms-discounts/internal/database/migrations"
	"ms-discounts/internal/discount"
	"ms-discounts/internal/discount/api"
	rediswrap "ms-discounts/internal/discount/redis"
	"ms-discounts/internal/kafka"
	"ms-discounts/internal/logger"
	"ms-discounts/internal/promocode"
	promodb "ms-discounts/internal/promocode/db"
	ticketsdb "ms-discounts/internal/tickets/db"
)

func main() {
	_ = godotenv.Load() // Loads .env file if present

	ctx := context.Background()
	cfg := config.Load()
	appLogger := logger.NewLogger()

	// --- PostgreSQL Setup ---
	connector := pgdriver.NewConnector(pgdriver.WithDSN(cfg.Database.DSN()))
	sqldb := sql.OpenDB(connector)
	defer sqldb.Close()

	sqldb.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.Database.MaxLifetime)

	if err := sqldb.Ping(); err != nil {
		log.Fatalf("❌ Failed to connect to Postgres: %v", err)
	}
	appLogger.LogDatabase("CONNECT", "postgres", "connection successful")

	bunDB := bun.NewDB(sqldb, pgdialect.New())
	defer bunDB.Close()

	// Run migrations
	runner := migrations.NewRunner(bunDB, migrations.MigrateOptions{
		MigrationsDir: cfg.Database.MigrationsDir,
		SeedData:      os.Getenv("DB_SEED_DATA") == "true",
	})
	if err := runner.RunMigrations(); err != nil {
		log.Fatalf("❌ Migration failed: %v", err)
	}

	// --- Redis Setup ---
	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.Redis.Addr,
	})
	log.Println("🔗 Connecting to Redis...")
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatalf("❌ Failed to connect to Redis: %v", err)
	}

	// --- Kafka Setup ---
	var producer *kafka.Producer
	if cfg.Kafka.Enabled {
		if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, []string{cfg.Kafka.Topics.DiscountRedeemed}); err != nil {
			log.Printf("⚠️ Could not ensure Kafka topics: %v", err)
		}
		producer = kafka.NewProducer(cfg.Kafka.Brokers)
		defer producer.Close()
	}

	// --- Initialize Dependencies ---
	ticketStore := &ticketsdb.DB{Bun: bunDB}
	promoStore := &promodb.DB{Bun: bunDB}
	courtesyStore := &courtesydb.DB{Bun: bunDB}

	promoService := promocode.NewService(promoStore, ticketStore, appLogger)
	courtesyService := courtesy.NewService(courtesyStore, ticketStore, appLogger)
	redeemLock := rediswrap.NewRedis(redisClient, cfg.Redis.RedeemLockTTL)

	log.Println("📦 Initializing Discount Service...")
	var publisher discount.Publisher
	if producer != nil {
		publisher = producer
	}
	service := discount.NewService(promoService, courtesyService, redeemLock, publisher, cfg.Kafka.Topics.DiscountRedeemed, appLogger)
	handler := api.NewHandler(service, appLogger)

	// --- Setup Router ---
	r := chi.NewRouter()

	r.Post("/api/v1/discounts/validate", handler.ValidateCode)
	r.Post("/api/v1/discounts/apply", handler.ApplyCode)
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Printf("🚀 Discount Service running on %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ HTTP server error: %v", err)
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("📦 Shutdown signal received. Cleaning up...")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Fatalf("❌ Server forced to shutdown: %v", err)
	}

	log.Println("✅ Server exited gracefully")
}
