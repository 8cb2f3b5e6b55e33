// Package device manages push tokens and client version checks.
package device

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/BlixtWallet/noah-sub000/internal/domain"
)

type DeviceStore interface {
	SetPushToken(ctx context.Context, pubkey, pushToken string) error
}

type AppVersionStore interface {
	GetMinimum(ctx context.Context) (*domain.AppVersion, error)
}

type Service struct {
	devices  DeviceStore
	versions AppVersionStore
}

func NewService(devices DeviceStore, versions AppVersionStore) *Service {
	return &Service{devices: devices, versions: versions}
}

func (s *Service) RegisterPushToken(ctx context.Context, pubkey string, req domain.RegisterPushTokenRequest) error {
	if err := s.devices.SetPushToken(ctx, pubkey, req.PushToken); err != nil {
		return err
	}
	slog.Debug("push token registered", "pubkey", pubkey)
	return nil
}

// CheckAppVersion compares the reported client version against the configured
// minimum. When no minimum is configured every version passes.
func (s *Service) CheckAppVersion(ctx context.Context, req domain.AppVersionCheckRequest) (*domain.AppVersionInfo, error) {
	minimum, err := s.versions.GetMinimum(ctx)
	if errors.Is(err, domain.ErrNotFound) {
		return &domain.AppVersionInfo{UpdateRequired: false}, nil
	}
	if err != nil {
		return nil, err
	}
	return &domain.AppVersionInfo{
		MinimumRequiredVersion: minimum.Minimum,
		UpdateRequired:         compareVersions(req.ClientVersion, minimum.Minimum) < 0,
	}, nil
}

// compareVersions orders dotted numeric versions: -1 when a < b, 0 when
// equal, 1 when a > b. Non-numeric segments compare as zero.
func compareVersions(a, b string) int {
	as := strings.Split(a, ".")
	bs := strings.Split(b, ".")
	for i := 0; i < len(as) || i < len(bs); i++ {
		av, bv := 0, 0
		if i < len(as) {
			av, _ = strconv.Atoi(as[i])
		}
		if i < len(bs) {
			bv, _ = strconv.Atoi(bs[i])
		}
		if av != bv {
			if av < bv {
				return -1
			}
			return 1
		}
	}
	return 0
}
