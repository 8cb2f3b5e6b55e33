package notification

import (
	"context"
	"log/slog"
	"time"

	"github.com/BlixtWallet/noah-sub000/internal/domain"
)

// TrackingStore records successful sends and answers spacing queries.
type TrackingStore interface {
	RecordSent(ctx context.Context, pubkey string, kind domain.NotificationKind) error
	LastAnySentAt(ctx context.Context, pubkey string) (*time.Time, error)
}

// OffboardingStore reports whether a user has an offboarding request in
// flight. Read-only from the coordinator's perspective.
type OffboardingStore interface {
	HasActiveRequest(ctx context.Context, pubkey string) (bool, error)
}

// UserStore lists broadcast targets.
type UserStore interface {
	ListAllPubkeys(ctx context.Context) ([]string, error)
}

// JobStatusStore records a pending job report per dispatched maintenance or
// backup push.
type JobStatusStore interface {
	CreatePending(ctx context.Context, pubkey, k1 string, reportType domain.ReportType) error
}

// PushDispatcher is the delivery layer beneath the coordinator.
type PushDispatcher interface {
	Dispatch(ctx context.Context, pubkey *string, payload domain.PushPayload) ([]DispatchReceipt, error)
}

// Request is one coordinated notification.
type Request struct {
	Priority domain.Priority
	Payload  domain.PushPayload
}

// BroadcastStats summarises a fan-out: how many users were sent to, skipped
// by policy, or failed to dispatch.
type BroadcastStats struct {
	Sent    int
	Skipped int
	Failed  int
}

// Coordinator decides whether a notification may go out at all, then hands
// delivery to the dispatcher and records what was sent.
type Coordinator struct {
	dispatcher  PushDispatcher
	tracking    TrackingStore
	offboarding OffboardingStore
	users       UserStore
	jobs        JobStatusStore
	minSpacing  time.Duration
	now         func() time.Time
}

type CoordinatorDeps struct {
	Dispatcher  PushDispatcher
	Tracking    TrackingStore
	Offboarding OffboardingStore
	Users       UserStore
	Jobs        JobStatusStore
	MinSpacing  time.Duration
}

func NewCoordinator(deps CoordinatorDeps) *Coordinator {
	return &Coordinator{
		dispatcher:  deps.Dispatcher,
		tracking:    deps.Tracking,
		offboarding: deps.Offboarding,
		users:       deps.Users,
		jobs:        deps.Jobs,
		minSpacing:  deps.MinSpacing,
		now:         time.Now,
	}
}

// WithClock overrides the coordinator's time source. Test hook.
func (c *Coordinator) WithClock(now func() time.Time) *Coordinator {
	c.now = now
	return c
}

// SendToUser delivers one coordinated notification to a single user. A
// suppressed notification is not an error: the coordinator's contract is
// "at most this", never "exactly this".
func (c *Coordinator) SendToUser(ctx context.Context, pubkey string, req Request) error {
	ok, err := c.shouldSend(ctx, pubkey, req)
	if err != nil {
		return err
	}
	if !ok {
		slog.Debug("notification suppressed", "kind", req.Payload.Kind, "pubkey", pubkey)
		return nil
	}

	receipts, err := c.dispatcher.Dispatch(ctx, &pubkey, req.Payload)
	if err != nil {
		return err
	}
	if len(receipts) == 0 {
		slog.Debug("no push tokens", "kind", req.Payload.Kind, "pubkey", pubkey)
		return nil
	}

	if err := c.recordReceipts(ctx, req.Payload, receipts); err != nil {
		return err
	}

	// Recorded only after the dispatch succeeded; a failed dispatch must not
	// count against future eligibility.
	if err := c.tracking.RecordSent(ctx, pubkey, req.Payload.Kind); err != nil {
		return err
	}

	slog.Info("notification sent", "kind", req.Payload.Kind, "pubkey", pubkey)
	return nil
}

// Broadcast fans req out to every eligible user. High priority targets all
// users (each still subject to the offboarding override); normal priority is
// pre-filtered by the global any-kind spacing window. Per-user failures are
// counted and never abort the batch.
func (c *Coordinator) Broadcast(ctx context.Context, req Request) (BroadcastStats, error) {
	var stats BroadcastStats

	targets, err := c.broadcastTargets(ctx, req)
	if err != nil {
		return stats, err
	}
	if len(targets) == 0 {
		slog.Debug("no eligible users", "kind", req.Payload.Kind)
		return stats, nil
	}

	slog.Info("broadcasting", "kind", req.Payload.Kind, "targets", len(targets))

	for _, pubkey := range targets {
		ok, err := c.shouldSend(ctx, pubkey, req)
		if err != nil {
			slog.Warn("eligibility check failed", "kind", req.Payload.Kind, "pubkey", pubkey, "err", err)
			stats.Failed++
			continue
		}
		if !ok {
			stats.Skipped++
			continue
		}

		receipts, err := c.dispatcher.Dispatch(ctx, &pubkey, req.Payload)
		if err != nil {
			slog.Warn("broadcast dispatch failed", "kind", req.Payload.Kind, "pubkey", pubkey, "err", err)
			stats.Failed++
			continue
		}
		if len(receipts) == 0 {
			stats.Skipped++
			continue
		}

		if err := c.recordReceipts(ctx, req.Payload, receipts); err != nil {
			slog.Warn("record job reports failed", "pubkey", pubkey, "err", err)
		}
		if err := c.tracking.RecordSent(ctx, pubkey, req.Payload.Kind); err != nil {
			slog.Warn("record send failed", "pubkey", pubkey, "err", err)
		}
		stats.Sent++
	}

	slog.Info("broadcast complete", "kind", req.Payload.Kind,
		"sent", stats.Sent, "skipped", stats.Skipped, "failed", stats.Failed)
	return stats, nil
}

// CanSend implements the spacing rule: a user with no prior send is always
// eligible; otherwise the last send of any kind must be at least minSpacing
// ago. The boundary is inclusive: at exactly minSpacing, sending is
// allowed.
func (c *Coordinator) CanSend(ctx context.Context, pubkey string) (bool, error) {
	last, err := c.tracking.LastAnySentAt(ctx, pubkey)
	if err != nil {
		return false, err
	}
	if last == nil {
		return true, nil
	}
	cutoff := c.now().Add(-c.minSpacing)
	return !last.After(cutoff), nil
}

func (c *Coordinator) shouldSend(ctx context.Context, pubkey string, req Request) (bool, error) {
	// Hard override: never wake a user mid-offboarding for maintenance,
	// regardless of priority.
	if req.Payload.Kind == domain.KindMaintenance {
		offboarding, err := c.offboarding.HasActiveRequest(ctx, pubkey)
		if err != nil {
			return false, err
		}
		if offboarding {
			return false, nil
		}
	}

	if req.Priority == domain.PriorityHigh {
		return true, nil
	}
	return c.CanSend(ctx, pubkey)
}

func (c *Coordinator) broadcastTargets(ctx context.Context, req Request) ([]string, error) {
	all, err := c.users.ListAllPubkeys(ctx)
	if err != nil {
		return nil, err
	}
	if req.Priority == domain.PriorityHigh {
		return all, nil
	}

	// Normal priority: pre-filter by the global any-kind cooldown. Spacing
	// throttles total notification pressure on a device, not pressure per
	// kind.
	var eligible []string
	for _, pubkey := range all {
		ok, err := c.CanSend(ctx, pubkey)
		if err != nil {
			slog.Warn("spacing check failed", "pubkey", pubkey, "err", err)
			continue
		}
		if ok {
			eligible = append(eligible, pubkey)
		}
	}
	return eligible, nil
}

// recordReceipts creates a pending job report for every dispatched
// maintenance or backup push, keyed by the per-device k1.
func (c *Coordinator) recordReceipts(ctx context.Context, payload domain.PushPayload, receipts []DispatchReceipt) error {
	reportType, tracked := reportTypeFor(payload.Kind)
	if !tracked {
		return nil
	}
	for _, r := range receipts {
		if r.K1 == "" {
			slog.Warn("dispatch receipt missing k1", "kind", payload.Kind, "pubkey", r.Pubkey)
			continue
		}
		if err := c.jobs.CreatePending(ctx, r.Pubkey, r.K1, reportType); err != nil {
			return err
		}
	}
	return nil
}

func reportTypeFor(kind domain.NotificationKind) (domain.ReportType, bool) {
	switch kind {
	case domain.KindMaintenance:
		return domain.ReportMaintenance, true
	case domain.KindBackupTrigger:
		return domain.ReportBackup, true
	}
	return "", false
}
