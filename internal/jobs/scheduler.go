// Package jobs runs the scheduled background work: sync broadcasts, backup
// triggers, heartbeat sweeps, offboarding processing, and job-status pruning.
package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/BlixtWallet/noah-sub000/internal/application/heartbeat"
	"github.com/BlixtWallet/noah-sub000/internal/application/notification"
	"github.com/BlixtWallet/noah-sub000/internal/application/offboarding"
	"github.com/BlixtWallet/noah-sub000/internal/config"
	"github.com/BlixtWallet/noah-sub000/internal/domain"
)

// jobStatusRetention bounds how long finished job-status rows are kept.
const jobStatusRetention = 7 * 24 * time.Hour

// BackupTargetLister lists the users who opted into scheduled backups.
type BackupTargetLister interface {
	ListBackupEnabledPubkeys(ctx context.Context) ([]string, error)
}

// JobStatusPruner deletes stale job-status rows.
type JobStatusPruner interface {
	PruneOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}

// Scheduler owns the cron runner and the jobs registered on it.
type Scheduler struct {
	cron        *cron.Cron
	coordinator *notification.Coordinator
	offboarding *offboarding.Service
	heartbeats  *heartbeat.Service
	users       BackupTargetLister
	jobs        JobStatusPruner
	cfg         *config.Config
}

func NewScheduler(cfg *config.Config, coordinator *notification.Coordinator, offboardingSvc *offboarding.Service, heartbeatSvc *heartbeat.Service, users BackupTargetLister, jobs JobStatusPruner) *Scheduler {
	return &Scheduler{
		cron:        cron.New(),
		coordinator: coordinator,
		offboarding: offboardingSvc,
		heartbeats:  heartbeatSvc,
		users:       users,
		jobs:        jobs,
		cfg:         cfg,
	}
}

// Start registers all jobs and starts the cron runner.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.cfg.BackgroundSyncCron, s.backgroundSync); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc(s.cfg.BackupCron, s.backupTrigger); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc(s.cfg.HeartbeatCron, s.sendHeartbeats); err != nil {
		return err
	}
	// Offboarding requests and stale job rows are checked on fixed schedules
	// independent of the configurable broadcast crons.
	if _, err := s.cron.AddFunc("*/10 * * * *", s.processOffboarding); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc("0 4 * * *", s.pruneJobStatuses); err != nil {
		return err
	}
	s.cron.Start()
	slog.Info("cron scheduler started",
		"background_sync", s.cfg.BackgroundSyncCron,
		"backup", s.cfg.BackupCron,
		"heartbeat", s.cfg.HeartbeatCron)
	return nil
}

// Stop halts the runner and waits for in-flight jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// backgroundSync nudges every wallet to sync. Normal priority: the
// coordinator's spacing window keeps quiet users quiet.
func (s *Scheduler) backgroundSync() {
	ctx, cancel := jobContext()
	defer cancel()
	stats, err := s.coordinator.Broadcast(ctx, notification.Request{
		Priority: domain.PriorityNormal,
		Payload:  domain.NewBackgroundSyncPayload(),
	})
	if err != nil {
		slog.Error("background sync broadcast failed", "error", err)
		return
	}
	slog.Info("background sync broadcast done",
		"sent", stats.Sent, "skipped", stats.Skipped, "failed", stats.Failed)
}

// backupTrigger pushes each backup-enabled wallet to upload a fresh backup.
// Sent per user rather than broadcast so every device gets its own challenge
// and its own pending job row.
func (s *Scheduler) backupTrigger() {
	ctx, cancel := jobContext()
	defer cancel()
	pubkeys, err := s.users.ListBackupEnabledPubkeys(ctx)
	if err != nil {
		slog.Error("failed to list backup targets", "error", err)
		return
	}
	var failed int
	for _, pk := range pubkeys {
		err := s.coordinator.SendToUser(ctx, pk, notification.Request{
			Priority: domain.PriorityNormal,
			Payload:  domain.NewBackupTriggerPayload(),
		})
		if err != nil {
			failed++
			slog.Warn("backup trigger failed", "pubkey", pk, "error", err)
		}
	}
	slog.Info("backup trigger done", "targets", len(pubkeys), "failed", failed)
}

func (s *Scheduler) sendHeartbeats() {
	ctx, cancel := jobContext()
	defer cancel()
	if err := s.heartbeats.SendHeartbeats(ctx); err != nil {
		slog.Error("heartbeat sweep failed", "error", err)
	}
}

func (s *Scheduler) processOffboarding() {
	ctx, cancel := jobContext()
	defer cancel()
	if err := s.offboarding.ProcessPending(ctx); err != nil {
		slog.Error("offboarding processing failed", "error", err)
	}
}

func (s *Scheduler) pruneJobStatuses() {
	ctx, cancel := jobContext()
	defer cancel()
	n, err := s.jobs.PruneOlderThan(ctx, time.Now().Add(-jobStatusRetention))
	if err != nil {
		slog.Error("job status prune failed", "error", err)
		return
	}
	if n > 0 {
		slog.Info("pruned stale job statuses", "count", n)
	}
}

func jobContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 10*time.Minute)
}
