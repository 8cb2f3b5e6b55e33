package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"

	"github.com/BlixtWallet/noah-sub000/internal/application/backup"
	"github.com/BlixtWallet/noah-sub000/internal/application/device"
	"github.com/BlixtWallet/noah-sub000/internal/application/email"
	"github.com/BlixtWallet/noah-sub000/internal/application/notification"
	"github.com/BlixtWallet/noah-sub000/internal/config"
	"github.com/BlixtWallet/noah-sub000/internal/transport/http/handler"
	appmiddleware "github.com/BlixtWallet/noah-sub000/internal/transport/http/middleware"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "x-auth-k1", "x-auth-sig", "x-auth-key"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authMw := appmiddleware.Auth(deps.AuthService)

	// 5 requests/second, burst of 10, applied to the public LNURL surface.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	userSvc := deps.UserSvc
	deviceSvc := device.NewService(deps.DeviceRepo, deps.AppVersionRepo)
	backupSvc := backup.NewService(deps.BackupRepo, deps.UserRepo, deps.S3Store)
	emailSvc := email.NewService(deps.VerificationRepo, deps.UserRepo, deps.Mailer)
	reportSvc := notification.NewService(deps.JobStatusRepo)

	invoiceTimeout := time.Duration(cfg.InvoiceTimeoutSeconds) * time.Second

	healthH := handler.NewHealthHandler()
	lnurlH := handler.NewLnurlHandler(deps.AuthService, userSvc, deps.Bridge, deps.Coordinator, cfg.LnurlDomain, invoiceTimeout)
	invoiceH := handler.NewInvoiceHandler(deps.Bridge)
	userH := handler.NewUserHandler(userSvc)
	deviceH := handler.NewDeviceHandler(deviceSvc)
	backupH := handler.NewBackupHandler(backupSvc)
	offboardingH := handler.NewOffboardingHandler(deps.OffboardingSvc)
	heartbeatH := handler.NewHeartbeatHandler(deps.HeartbeatSvc)
	reportH := handler.NewReportHandler(reportSvc)
	emailH := handler.NewEmailHandler(emailSvc)

	// ── Public routes (no auth) ──────────────────────────────────────────
	r.Get("/health", healthH.Ping)
	r.With(sensitiveRL.Limit).Get("/.well-known/lnurlp/{username}", lnurlH.Lnurlp)

	r.Route("/v0", func(r chi.Router) {
		r.With(sensitiveRL.Limit).Get("/getk1", lnurlH.GetK1)
		r.With(sensitiveRL.Limit).Post("/check_app_version", deviceH.CheckAppVersion)

		// ── Authenticated routes ─────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Post("/register", userH.Register)
			r.Post("/deregister", userH.Deregister)
			r.Post("/register_push_token", deviceH.RegisterPushToken)
			r.Get("/user/info", userH.Info)
			r.Post("/user/ln_address", userH.UpdateLnAddress)

			r.Post("/lnurlp/submit_invoice", invoiceH.Submit)
			r.Post("/report_job_status", reportH.ReportJobStatus)
			r.Post("/heartbeat_response", heartbeatH.Respond)
			r.Post("/offboarding/register", offboardingH.Register)
			r.Post("/offboarding/complete", offboardingH.Complete)

			r.Post("/backup/upload_url", backupH.GetUploadURL)
			r.Post("/backup/complete", backupH.CompleteUpload)
			r.Get("/backup/list", backupH.List)
			r.Post("/backup/download_url", backupH.GetDownloadURL)
			r.Post("/backup/delete", backupH.Delete)
			r.Post("/backup/settings", backupH.UpdateSettings)

			r.Post("/email/send_verification", emailH.SendVerification)
			r.Post("/email/verify", emailH.Verify)
		})
	})

	return r
}
