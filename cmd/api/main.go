package main

import (
	"log"
	"time"

	"agri-market-api-server/config"
	"agri-market-api-server/internal/api/routes"
	"agri-market-api-server/internal/auth"
	"agri-market-api-server/internal/database"
	"agri-market-api-server/internal/email"
	"agri-market-api-server/internal/jobs"
	"agri-market-api-server/internal/ledger"
	"agri-market-api-server/internal/notify"
	"agri-market-api-server/internal/s3"
	"agri-market-api-server/internal/socket"
	"agri-market-api-server/internal/store"

	"github.com/joho/godotenv"
)

func main() {
	// .env is optional; real deployments set environment variables directly.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.LoadConfig("./config")
	if err != nil {
		log.Fatalf("Could not load config: %v", err)
	}

	tokenLifetime := 24 * time.Hour
	if cfg.JWT.Expiration != "" {
		parsed, err := time.ParseDuration(cfg.JWT.Expiration)
		if err != nil {
			log.Fatalf("Invalid jwt.expiration %q: %v", cfg.JWT.Expiration, err)
		}
		tokenLifetime = parsed
	}
	auth.Configure(cfg.JWT.Secret, tokenLifetime)

	db, err := database.Connect(cfg.Mongo)
	if err != nil {
		log.Fatalf("Could not connect to MongoDB: %v", err)
	}

	if err := database.SeedAdmin(db); err != nil {
		log.Fatalf("Could not seed admin account: %v", err)
	}

	s3Uploader, err := s3.NewUploader(cfg.S3)
	if err != nil {
		log.Fatalf("Could not initialize S3 uploader: %v", err)
	}

	wsHub := socket.NewHub()
	sink := notify.NewSink(db, wsHub, cfg.SMS.SenderNumber)
	mailer := email.NewService(cfg.Email)
	if cfg.Email.SendGridAPIKey == "" {
		log.Println("SendGrid API key not set, password recovery email is disabled")
	}

	marketLedger := ledger.New(store.NewCropStore(db), store.NewRequestStore(db))
	if cfg.Jobs.RequestTTLHours > 0 {
		marketLedger.RequestTTL = time.Duration(cfg.Jobs.RequestTTLHours) * time.Hour
	}

	scheduler, err := jobs.NewScheduler(db, cfg.Jobs.ExpirySchedule)
	if err != nil {
		log.Fatalf("Could not initialize expiry scheduler: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	router := routes.SetupRouter(db, marketLedger, sink, s3Uploader, wsHub, mailer)

	log.Printf("Starting API server on port %s", cfg.Server.Port)
	if err := router.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("Failed to run server: %v", err)
	}
}
