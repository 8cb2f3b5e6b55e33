package http

import (
	"github.com/BlixtWallet/noah-sub000/internal/application/auth"
	"github.com/BlixtWallet/noah-sub000/internal/application/heartbeat"
	"github.com/BlixtWallet/noah-sub000/internal/application/invoice"
	"github.com/BlixtWallet/noah-sub000/internal/application/notification"
	"github.com/BlixtWallet/noah-sub000/internal/application/offboarding"
	"github.com/BlixtWallet/noah-sub000/internal/application/user"
	"github.com/BlixtWallet/noah-sub000/internal/infrastructure/dynamo"
	s3infra "github.com/BlixtWallet/noah-sub000/internal/infrastructure/s3"
	"github.com/BlixtWallet/noah-sub000/internal/infrastructure/smtp"
)

// Deps holds the repositories, infrastructure, and shared application
// singletons the router wires handlers onto. The singletons (auth service,
// bridge, coordinator, user/offboarding/heartbeat services) are built in
// cmd/api because the cron scheduler uses the same instances.
type Deps struct {
	UserRepo         *dynamo.UserRepo
	DeviceRepo       *dynamo.DeviceRepo
	BackupRepo       *dynamo.BackupRepo
	VerificationRepo *dynamo.VerificationRepo
	JobStatusRepo    *dynamo.JobStatusRepo
	AppVersionRepo   *dynamo.AppVersionRepo

	S3Store *s3infra.Store
	Mailer  smtp.Mailer

	AuthService    auth.Service
	Bridge         *invoice.Bridge
	Coordinator    *notification.Coordinator
	UserSvc        *user.Service
	OffboardingSvc *offboarding.Service
	HeartbeatSvc   *heartbeat.Service
}
