// Package user implements wallet registration and account management.
package user

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/BlixtWallet/noah-sub000/internal/domain"
)

// UserStore is the persistence surface the service needs for user rows.
type UserStore interface {
	Put(ctx context.Context, u *domain.User) error
	Get(ctx context.Context, pubkey string) (*domain.User, error)
	GetByLightningAddress(ctx context.Context, address string) (*domain.User, error)
	Update(ctx context.Context, pubkey string, updates map[string]interface{}) error
	Delete(ctx context.Context, pubkey string) error
}

type DeviceStore interface {
	Upsert(ctx context.Context, pubkey string, info domain.DeviceInfo) error
	Delete(ctx context.Context, pubkey string) error
}

type BackupStore interface {
	List(ctx context.Context, pubkey string) ([]domain.Backup, error)
	DeleteAll(ctx context.Context, pubkey string) error
}

type ObjectStore interface {
	Delete(ctx context.Context, key string) error
}

// HeartbeatStore lets deregistration drop a wallet's heartbeat history.
type HeartbeatStore interface {
	DeleteByPubkey(ctx context.Context, pubkey string) error
}

type Service struct {
	users      UserStore
	devices    DeviceStore
	backups    BackupStore
	objects    ObjectStore
	heartbeats HeartbeatStore
	domain     string
	now        func() time.Time
}

func NewService(users UserStore, devices DeviceStore, backups BackupStore, objects ObjectStore, heartbeats HeartbeatStore, lnurlDomain string) *Service {
	return &Service{
		users:      users,
		devices:    devices,
		backups:    backups,
		objects:    objects,
		heartbeats: heartbeats,
		domain:     lnurlDomain,
		now:        time.Now,
	}
}

// Register creates a user row for the authenticated pubkey, or reports the
// existing registration. Re-registering is not an error: the wallet app calls
// this on every fresh install, and an already-known pubkey simply gets its
// device info refreshed.
func (s *Service) Register(ctx context.Context, pubkey string, req domain.RegisterRequest) (*domain.RegisterResponse, error) {
	existing, err := s.users.Get(ctx, pubkey)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		if req.DeviceInfo != nil {
			if err := s.devices.Upsert(ctx, pubkey, *req.DeviceInfo); err != nil {
				slog.Warn("failed to refresh device info", "pubkey", pubkey, "error", err)
			}
		}
		reason := "User already registered"
		return &domain.RegisterResponse{
			Status:           "ok",
			Reason:           &reason,
			LightningAddress: &existing.LightningAddress,
		}, nil
	}

	address, err := s.resolveAddress(ctx, req.LnAddress)
	if err != nil {
		return nil, err
	}

	now := s.now()
	u := &domain.User{
		Pubkey:           pubkey,
		LightningAddress: address,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.users.Put(ctx, u); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	if req.DeviceInfo != nil {
		if err := s.devices.Upsert(ctx, pubkey, *req.DeviceInfo); err != nil {
			slog.Warn("failed to store device info", "pubkey", pubkey, "error", err)
		}
	}
	slog.Info("user registered", "pubkey", pubkey, "lightning_address", address)

	event := domain.AuthEventRegistered
	return &domain.RegisterResponse{
		Status:           "ok",
		Event:            &event,
		LightningAddress: &address,
	}, nil
}

// resolveAddress turns the requested local part into a full lightning address,
// or mints a random one when no preference was given. A chosen address that is
// already taken is a conflict; a random one retries until free.
func (s *Service) resolveAddress(ctx context.Context, requested *string) (string, error) {
	if requested != nil && *requested != "" {
		address := strings.ToLower(*requested) + "@" + s.domain
		if _, err := s.users.GetByLightningAddress(ctx, address); err == nil {
			return "", fmt.Errorf("lightning address %s taken: %w", address, domain.ErrConflict)
		} else if !errors.Is(err, domain.ErrNotFound) {
			return "", err
		}
		return address, nil
	}

	for attempt := 0; attempt < 10; attempt++ {
		address := randomLocalPart() + "@" + s.domain
		_, err := s.users.GetByLightningAddress(ctx, address)
		if errors.Is(err, domain.ErrNotFound) {
			return address, nil
		}
		if err != nil {
			return "", err
		}
	}
	return "", errors.New("could not mint a free lightning address")
}

// Deregister removes the user and everything attached to it: device row,
// backup metadata and the backup objects themselves.
func (s *Service) Deregister(ctx context.Context, pubkey string) error {
	backups, err := s.backups.List(ctx, pubkey)
	if err != nil {
		return err
	}
	for _, b := range backups {
		if err := s.objects.Delete(ctx, b.S3Key); err != nil {
			slog.Warn("failed to delete backup object", "pubkey", pubkey, "key", b.S3Key, "error", err)
		}
	}
	if err := s.backups.DeleteAll(ctx, pubkey); err != nil {
		return err
	}
	if err := s.heartbeats.DeleteByPubkey(ctx, pubkey); err != nil {
		return err
	}
	if err := s.devices.Delete(ctx, pubkey); err != nil {
		return err
	}
	if err := s.users.Delete(ctx, pubkey); err != nil {
		return err
	}
	slog.Info("user deregistered", "pubkey", pubkey)
	return nil
}

func (s *Service) Info(ctx context.Context, pubkey string) (*domain.UserInfoResponse, error) {
	u, err := s.users.Get(ctx, pubkey)
	if err != nil {
		return nil, err
	}
	return &domain.UserInfoResponse{LightningAddress: u.LightningAddress}, nil
}

func (s *Service) UpdateLnAddress(ctx context.Context, pubkey string, req domain.UpdateLnAddressRequest) (string, error) {
	address := strings.ToLower(req.LnAddress) + "@" + s.domain
	existing, err := s.users.GetByLightningAddress(ctx, address)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return "", err
	}
	if existing != nil && existing.Pubkey != pubkey {
		return "", fmt.Errorf("lightning address %s taken: %w", address, domain.ErrConflict)
	}
	if err := s.users.Update(ctx, pubkey, map[string]interface{}{
		"lightning_address": address,
		"updated_at":        s.now(),
	}); err != nil {
		return "", err
	}
	return address, nil
}

// ResolveLightningAddress finds the user owning the given local part.
func (s *Service) ResolveLightningAddress(ctx context.Context, localPart string) (*domain.User, error) {
	address := strings.ToLower(localPart) + "@" + s.domain
	return s.users.GetByLightningAddress(ctx, address)
}

var addressWords = []string{
	"comet", "ember", "falcon", "glacier", "harbor", "lynx",
	"meadow", "nimbus", "orbit", "pylon", "quartz", "raven",
	"sierra", "tundra", "vortex", "willow", "zephyr", "aurora",
}

func randomLocalPart() string {
	word := addressWords[randInt(len(addressWords))]
	return fmt.Sprintf("%s%03d", word, randInt(1000))
}

func randInt(max int) int {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(max)))
	if err != nil {
		// crypto/rand failing means the platform entropy source is broken.
		panic(err)
	}
	return int(n.Int64())
}
