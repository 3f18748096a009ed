package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/citystay/auction_engine/internal/adapter/handler"
	"github.com/citystay/auction_engine/internal/adapter/notifier"
	"github.com/citystay/auction_engine/internal/adapter/repository/postgres"
	"github.com/citystay/auction_engine/internal/core/domain"
	"github.com/citystay/auction_engine/internal/core/ports"
	"github.com/citystay/auction_engine/internal/core/services"
	"github.com/citystay/auction_engine/internal/platform/database"
)

func getenv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using OS environment.")
	}

	dbConfig := database.Config{
		Host:     getenv("DB_HOST", "localhost"),
		Port:     getenv("DB_PORT", "5432"),
		User:     getenv("DB_USER", "postgres"),
		Password: getenv("DB_PASSWORD", ""),
		DBName:   getenv("DB_NAME", "auction_engine"),
	}

	db, err := database.NewPostgresDB(dbConfig)
	if err != nil {
		log.Fatalf("Failed to connect to db after retries: %v", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)
	defer db.Close()

	if err := postgres.InitSchema(context.Background(), db); err != nil {
		log.Fatalf("Failed to init schema: %v", err)
	}

	redisAddr := fmt.Sprintf("%s:%s", getenv("REDIS_HOST", "localhost"), getenv("REDIS_PORT", "6379"))
	log.Printf("Connecting to Redis at %s...", redisAddr)

	redisClient := redis.NewClient(&redis.Options{
		Addr: redisAddr,
		DB:   0,
	})

	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	log.Println("Redis connected successfully!")

	var outbidNotifier ports.Notifier = notifier.Noop{}
	if natsURL := os.Getenv("NATS_URL"); natsURL != "" {
		publisher, err := notifier.NewNATSPublisher(natsURL)
		if err != nil {
			log.Fatalf("Failed to connect to NATS: %v", err)
		}
		defer publisher.Close()
		outbidNotifier = publisher
		log.Printf("NATS connected at %s", natsURL)
	}

	// One canonical timezone for the whole engine; daily epoch boundaries
	// never depend on host locale.
	location, err := time.LoadLocation(getenv("AUCTION_TZ", "UTC"))
	if err != nil {
		log.Fatalf("Invalid AUCTION_TZ: %v", err)
	}

	epoch := domain.EpochRolling
	if getenv("AUCTION_EPOCH", "rolling") == "daily" {
		epoch = domain.EpochDaily
	}

	validityDays := 30
	if v := os.Getenv("AUCTION_VALIDITY_DAYS"); v != "" {
		if _, err := fmt.Sscanf(v, "%d", &validityDays); err != nil {
			log.Fatalf("Invalid AUCTION_VALIDITY_DAYS: %v", err)
		}
	}

	schedule := domain.DefaultStepSchedule()
	auctionCfg := domain.EngineConfig{
		Pool:         "auction",
		Mode:         domain.ModeDisplacing,
		Epoch:        epoch,
		Pricing:      schedule,
		ValidityDays: validityDays,
		MinIncrement: schedule.Step,
		Location:     location,
	}

	top20Cfg := domain.EngineConfig{
		Pool:                "top20",
		Mode:                domain.ModeFirstCome,
		Epoch:               domain.EpochRolling,
		Pricing:             domain.DefaultTop20Table(),
		ValidityDays:        30,
		MinSubscriptionDays: 30,
		Location:            location,
	}

	listingRepo := postgres.NewListingRepository(db)
	bidRepo := postgres.NewBidRepository(db)
	ledgerRepo := postgres.NewLedgerRepository(db)

	auctionService := services.NewAuctionService(auctionCfg, listingRepo, bidRepo, outbidNotifier, redisClient)
	top20Service := services.NewAuctionService(top20Cfg, listingRepo, bidRepo, outbidNotifier, redisClient)
	ledgerService := services.NewLedgerService(ledgerRepo)

	auctionHandler := handler.NewAuctionHandler(auctionService, top20Service, ledgerService)

	sweeperCtx, stopSweeper := context.WithCancel(context.Background())
	defer stopSweeper()

	// The sweeper works off bids.expires_at alone, so one instance serves
	// both engine variants.
	go auctionService.RunBackgroundSweeper(sweeperCtx, 1*time.Minute)

	server := &http.Server{
		Addr:         ":" + getenv("PORT", "8080"),
		Handler:      auctionHandler.Routes(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("Server starting on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server startup failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down server...")
	stopSweeper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting")
}
