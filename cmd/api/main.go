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

	"github.com/BlixtWallet/noah-sub000/internal/application/auth"
	"github.com/BlixtWallet/noah-sub000/internal/application/heartbeat"
	"github.com/BlixtWallet/noah-sub000/internal/application/invoice"
	"github.com/BlixtWallet/noah-sub000/internal/application/notification"
	"github.com/BlixtWallet/noah-sub000/internal/application/offboarding"
	"github.com/BlixtWallet/noah-sub000/internal/application/user"
	"github.com/BlixtWallet/noah-sub000/internal/config"
	"github.com/BlixtWallet/noah-sub000/internal/infrastructure/dynamo"
	s3infra "github.com/BlixtWallet/noah-sub000/internal/infrastructure/s3"
	"github.com/BlixtWallet/noah-sub000/internal/infrastructure/smtp"
	"github.com/BlixtWallet/noah-sub000/internal/infrastructure/sns"
	"github.com/BlixtWallet/noah-sub000/internal/jobs"
	transporthttp "github.com/BlixtWallet/noah-sub000/internal/transport/http"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient := dynamo.NewClient(cfg)
	dynamo.Bootstrap(context.Background(), dynamoClient, cfg.DynamoTables)

	userRepo := dynamo.NewUserRepo(dynamoClient, cfg.DynamoTables.Users)
	deviceRepo := dynamo.NewDeviceRepo(dynamoClient, cfg.DynamoTables.Devices)
	challengeRepo := dynamo.NewChallengeRepo(dynamoClient, cfg.DynamoTables.Challenges, cfg.K1TTLSeconds)
	trackingRepo := dynamo.NewTrackingRepo(dynamoClient, cfg.DynamoTables.NotificationTracks)
	offboardingRepo := dynamo.NewOffboardingRepo(dynamoClient, cfg.DynamoTables.OffboardingReqs)
	backupRepo := dynamo.NewBackupRepo(dynamoClient, cfg.DynamoTables.Backups)
	verificationRepo := dynamo.NewVerificationRepo(dynamoClient, cfg.DynamoTables.EmailVerifications)
	jobStatusRepo := dynamo.NewJobStatusRepo(dynamoClient, cfg.DynamoTables.JobStatuses)
	appVersionRepo := dynamo.NewAppVersionRepo(dynamoClient, cfg.DynamoTables.AppVersions)
	heartbeatRepo := dynamo.NewHeartbeatRepo(dynamoClient, cfg.DynamoTables.Heartbeats)

	if cfg.MinAppVersion != "" {
		if err := appVersionRepo.SetMinimum(context.Background(), cfg.MinAppVersion); err != nil {
			log.Fatalf("failed to seed minimum app version: %v", err)
		}
	}

	// S3 store for encrypted backups.
	s3Client := s3infra.NewClient(cfg)
	s3Store := s3infra.NewStore(s3Client, cfg.S3BucketName)

	// SMTP mailer.
	mailer := smtp.NewMailer(cfg)

	// SNS push sender.
	pushSender, err := sns.NewSender(cfg)
	if err != nil {
		log.Fatalf("SNS sender not available: %v", err)
	}

	// Shared application singletons: the router and the cron scheduler work
	// on the same instances.
	authSvc := auth.NewService(challengeRepo, time.Duration(cfg.K1TTLSeconds)*time.Second)
	bridge := invoice.NewBridge()
	dispatcher := notification.NewDispatcher(pushSender, deviceRepo, authSvc)
	coordinator := notification.NewCoordinator(notification.CoordinatorDeps{
		Dispatcher:  dispatcher,
		Tracking:    trackingRepo,
		Offboarding: offboardingRepo,
		Users:       userRepo,
		Jobs:        jobStatusRepo,
		MinSpacing:  time.Duration(cfg.NotificationSpacingMinutes) * time.Minute,
	})
	offboardingSvc := offboarding.NewService(offboardingRepo, coordinator)
	userSvc := user.NewService(userRepo, deviceRepo, backupRepo, s3Store, heartbeatRepo, cfg.LnurlDomain)
	heartbeatSvc := heartbeat.NewService(heartbeatRepo, deviceRepo, coordinator, userSvc)

	deps := &transporthttp.Deps{
		UserRepo:         userRepo,
		DeviceRepo:       deviceRepo,
		BackupRepo:       backupRepo,
		VerificationRepo: verificationRepo,
		JobStatusRepo:    jobStatusRepo,
		AppVersionRepo:   appVersionRepo,
		S3Store:          s3Store,
		Mailer:           mailer,
		AuthService:      authSvc,
		Bridge:           bridge,
		Coordinator:      coordinator,
		UserSvc:          userSvc,
		OffboardingSvc:   offboardingSvc,
		HeartbeatSvc:     heartbeatSvc,
	}

	router := transporthttp.NewRouter(cfg, deps)

	scheduler := jobs.NewScheduler(cfg, coordinator, offboardingSvc, heartbeatSvc, userRepo, jobStatusRepo)
	if err := scheduler.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		// LNURL-pay callbacks block on the payee's device for up to the
		// invoice timeout.
		WriteTimeout: time.Duration(cfg.InvoiceTimeoutSeconds+15) * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s (env=%s)", cfg.AppPort, cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	scheduler.Stop()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}
