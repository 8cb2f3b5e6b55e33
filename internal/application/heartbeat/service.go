// Package heartbeat checks wallets for responsiveness. Each heartbeat is a push
// carrying a notification_id the wallet echoes back through the auth gate;
// wallets that stop answering are eventually deregistered.
package heartbeat

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/BlixtWallet/noah-sub000/internal/application/notification"
	"github.com/BlixtWallet/noah-sub000/internal/domain"
	"github.com/BlixtWallet/noah-sub000/internal/pkg/id"
)

const (
	// keepHistory bounds stored heartbeats per wallet.
	keepHistory = 15
	// missedThreshold is how many consecutive unanswered heartbeats cost a
	// wallet its registration.
	missedThreshold = 10
)

type HeartbeatStore interface {
	Put(ctx context.Context, n *domain.HeartbeatNotification) error
	MarkResponded(ctx context.Context, pubkey, notificationID string) (bool, error)
	ListRecent(ctx context.Context, pubkey string, limit int) ([]domain.HeartbeatNotification, error)
	Delete(ctx context.Context, notificationID string) error
	DeleteByPubkey(ctx context.Context, pubkey string) error
}

// ActiveDeviceLister yields the wallets that can receive a heartbeat at all.
type ActiveDeviceLister interface {
	ListActivePubkeys(ctx context.Context) ([]string, error)
}

// Notifier is the coordinator surface heartbeats go out through.
type Notifier interface {
	SendToUser(ctx context.Context, pubkey string, req notification.Request) error
}

// Deregistrar removes a wallet that stopped answering.
type Deregistrar interface {
	Deregister(ctx context.Context, pubkey string) error
}

type Service struct {
	store       HeartbeatStore
	devices     ActiveDeviceLister
	notifier    Notifier
	deregistrar Deregistrar
	now         func() time.Time
}

func NewService(store HeartbeatStore, devices ActiveDeviceLister, notifier Notifier, deregistrar Deregistrar) *Service {
	return &Service{
		store:       store,
		devices:     devices,
		notifier:    notifier,
		deregistrar: deregistrar,
		now:         time.Now,
	}
}

// SendHeartbeats runs one sweep. A wallet at missedThreshold
// consecutive unanswered heartbeats is deregistered instead of pinged again;
// everyone else gets a fresh heartbeat recorded as pending. High priority: a
// responsiveness check that the spacing window could silently skip would
// count phantom misses.
func (s *Service) SendHeartbeats(ctx context.Context) error {
	pubkeys, err := s.devices.ListActivePubkeys(ctx)
	if err != nil {
		return err
	}
	var sent, dropped int
	for _, pk := range pubkeys {
		missed, err := s.consecutiveMissed(ctx, pk)
		if err != nil {
			slog.Warn("heartbeat history read failed", "pubkey", pk, "error", err)
			continue
		}
		if missed >= missedThreshold {
			if err := s.deregistrar.Deregister(ctx, pk); err != nil {
				slog.Error("failed to deregister unresponsive wallet", "pubkey", pk, "error", err)
				continue
			}
			if err := s.store.DeleteByPubkey(ctx, pk); err != nil {
				slog.Warn("failed to clear heartbeat history", "pubkey", pk, "error", err)
			}
			slog.Info("unresponsive wallet deregistered", "pubkey", pk, "missed", missed)
			dropped++
			continue
		}
		if err := s.sendOne(ctx, pk); err != nil {
			slog.Warn("heartbeat send failed", "pubkey", pk, "error", err)
			continue
		}
		sent++
	}
	slog.Info("heartbeat sweep done", "targets", len(pubkeys), "sent", sent, "deregistered", dropped)
	return nil
}

func (s *Service) sendOne(ctx context.Context, pubkey string) error {
	notificationID := id.New()
	err := s.notifier.SendToUser(ctx, pubkey, notification.Request{
		Priority: domain.PriorityHigh,
		Payload:  domain.NewHeartbeatPayload(notificationID),
	})
	if err != nil {
		return err
	}
	// Recorded only after the push went out; an undelivered heartbeat must not
	// count as missed.
	if err := s.store.Put(ctx, &domain.HeartbeatNotification{
		NotificationID: notificationID,
		Pubkey:         pubkey,
		Status:         domain.HeartbeatPending,
		SentAt:         s.now().UTC(),
	}); err != nil {
		return err
	}
	return s.trimHistory(ctx, pubkey)
}

// RecordResponse closes the heartbeat the wallet answered.
func (s *Service) RecordResponse(ctx context.Context, pubkey, notificationID string) error {
	ok, err := s.store.MarkResponded(ctx, pubkey, notificationID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("heartbeat %s not pending for caller: %w", notificationID, domain.ErrNotFound)
	}
	slog.Debug("heartbeat answered", "pubkey", pubkey, "notification_id", notificationID)
	return nil
}

// consecutiveMissed counts unanswered heartbeats from the most recent backwards,
// stopping at the first answered one.
func (s *Service) consecutiveMissed(ctx context.Context, pubkey string) (int, error) {
	recent, err := s.store.ListRecent(ctx, pubkey, missedThreshold)
	if err != nil {
		return 0, err
	}
	missed := 0
	for _, p := range recent {
		if p.Status != domain.HeartbeatPending {
			break
		}
		missed++
	}
	return missed, nil
}

func (s *Service) trimHistory(ctx context.Context, pubkey string) error {
	all, err := s.store.ListRecent(ctx, pubkey, 0)
	if err != nil {
		return err
	}
	for _, p := range all[min(keepHistory, len(all)):] {
		if err := s.store.Delete(ctx, p.NotificationID); err != nil {
			return err
		}
	}
	return nil
}
