// Package offboarding handles requests to sweep a wallet's funds out to an
// on-chain address. The server only coordinates: it records the request and
// pushes the wallet to perform the sweep itself.
package offboarding

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/BlixtWallet/noah-sub000/internal/application/notification"
	"github.com/BlixtWallet/noah-sub000/internal/domain"
	"github.com/BlixtWallet/noah-sub000/internal/pkg/id"
)

type OffboardingStore interface {
	Put(ctx context.Context, req *domain.OffboardingRequest) error
	Get(ctx context.Context, requestID string) (*domain.OffboardingRequest, error)
	UpdateStatus(ctx context.Context, requestID string, status domain.OffboardingStatus) error
	HasActiveRequest(ctx context.Context, pubkey string) (bool, error)
	FindAllPending(ctx context.Context) ([]domain.OffboardingRequest, error)
}

// Notifier is the coordinator surface the service pushes through.
type Notifier interface {
	SendToUser(ctx context.Context, pubkey string, req notification.Request) error
}

type Service struct {
	requests OffboardingStore
	notifier Notifier
	now      func() time.Time
}

func NewService(requests OffboardingStore, notifier Notifier) *Service {
	return &Service{requests: requests, notifier: notifier, now: time.Now}
}

// Register files a pending offboarding request. One active request per wallet
// at a time: a second registration while one is pending or processing is a
// conflict.
func (s *Service) Register(ctx context.Context, pubkey string, req domain.RegisterOffboardingRequest) (*domain.OffboardingRequest, error) {
	active, err := s.requests.HasActiveRequest(ctx, pubkey)
	if err != nil {
		return nil, err
	}
	if active {
		return nil, fmt.Errorf("offboarding already in flight for %s: %w", pubkey, domain.ErrConflict)
	}

	now := s.now()
	r := &domain.OffboardingRequest{
		RequestID: id.New(),
		Pubkey:    pubkey,
		Address:   req.Address,
		Status:    domain.OffboardingPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.requests.Put(ctx, r); err != nil {
		return nil, err
	}
	slog.Info("offboarding request registered", "pubkey", pubkey, "request_id", r.RequestID)
	return r, nil
}

// ProcessPending walks all pending requests and pushes each wallet to start
// its sweep. A request whose push goes out moves to processing; one whose
// push fails is marked failed so it stops suppressing other notifications.
func (s *Service) ProcessPending(ctx context.Context) error {
	pending, err := s.requests.FindAllPending(ctx)
	if err != nil {
		return err
	}
	for _, r := range pending {
		if err := s.requests.UpdateStatus(ctx, r.RequestID, domain.OffboardingProcessing); err != nil {
			slog.Error("failed to mark offboarding processing", "request_id", r.RequestID, "error", err)
			continue
		}
		err := s.notifier.SendToUser(ctx, r.Pubkey, notification.Request{
			Priority: domain.PriorityHigh,
			Payload:  domain.NewOffboardingPayload(r.RequestID),
		})
		if err != nil {
			slog.Error("offboarding push failed", "request_id", r.RequestID, "pubkey", r.Pubkey, "error", err)
			if uerr := s.requests.UpdateStatus(ctx, r.RequestID, domain.OffboardingFailed); uerr != nil {
				slog.Error("failed to mark offboarding failed", "request_id", r.RequestID, "error", uerr)
			}
		}
	}
	return nil
}

// Complete records the outcome the wallet reported after its sweep. Only the
// wallet the request belongs to may close it.
func (s *Service) Complete(ctx context.Context, pubkey, requestID string, success bool) error {
	r, err := s.requests.Get(ctx, requestID)
	if err != nil {
		return err
	}
	if r.Pubkey != pubkey {
		return fmt.Errorf("offboarding request %s not owned by caller: %w", requestID, domain.ErrUnauthorized)
	}
	status := domain.OffboardingCompleted
	if !success {
		status = domain.OffboardingFailed
	}
	if err := s.requests.UpdateStatus(ctx, requestID, status); err != nil {
		return err
	}
	slog.Info("offboarding request closed", "request_id", requestID, "status", status)
	return nil
}
