// Package backup coordinates encrypted wallet backup storage. The server
// only holds metadata; the backup bytes travel between the client and S3
// through pre-signed URLs.
package backup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/BlixtWallet/noah-sub000/internal/domain"
)

type BackupStore interface {
	Put(ctx context.Context, b *domain.Backup) error
	Get(ctx context.Context, pubkey string, version int) (*domain.Backup, error)
	List(ctx context.Context, pubkey string) ([]domain.Backup, error)
	Latest(ctx context.Context, pubkey string) (*domain.Backup, error)
	Delete(ctx context.Context, pubkey string, version int) error
}

type UserStore interface {
	Update(ctx context.Context, pubkey string, updates map[string]interface{}) error
}

type ObjectStore interface {
	PresignUpload(ctx context.Context, key string) (string, error)
	PresignDownload(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}

type Service struct {
	backups BackupStore
	users   UserStore
	objects ObjectStore
	now     func() time.Time
}

func NewService(backups BackupStore, users UserStore, objects ObjectStore) *Service {
	return &Service{backups: backups, users: users, objects: objects, now: time.Now}
}

func objectKey(pubkey string, version int) string {
	return fmt.Sprintf("backups/%s/v%d.bin", pubkey, version)
}

// GetUploadURL mints a pre-signed PUT URL for the given backup slot. The
// object key is deterministic per pubkey and version, so re-uploading a slot
// overwrites it in place.
func (s *Service) GetUploadURL(ctx context.Context, pubkey string, req domain.GetUploadURLRequest) (*domain.UploadURLResponse, error) {
	key := objectKey(pubkey, req.BackupVersion)
	url, err := s.objects.PresignUpload(ctx, key)
	if err != nil {
		return nil, err
	}
	return &domain.UploadURLResponse{UploadURL: url, S3Key: key}, nil
}

// CompleteUpload records the metadata row after the client finished its PUT.
// The key must be the one minted for this pubkey, so a client cannot claim
// another wallet's object.
func (s *Service) CompleteUpload(ctx context.Context, pubkey string, req domain.CompleteUploadRequest) error {
	if req.S3Key != objectKey(pubkey, req.BackupVersion) {
		return fmt.Errorf("s3 key does not match backup slot: %w", domain.ErrBadRequest)
	}
	b := &domain.Backup{
		Pubkey:    pubkey,
		Version:   req.BackupVersion,
		S3Key:     req.S3Key,
		Size:      req.BackupSize,
		CreatedAt: s.now(),
	}
	if err := s.backups.Put(ctx, b); err != nil {
		return err
	}
	slog.Info("backup upload completed", "pubkey", pubkey, "version", req.BackupVersion, "size", req.BackupSize)
	return nil
}

func (s *Service) List(ctx context.Context, pubkey string) ([]domain.BackupInfo, error) {
	backups, err := s.backups.List(ctx, pubkey)
	if err != nil {
		return nil, err
	}
	infos := make([]domain.BackupInfo, 0, len(backups))
	for _, b := range backups {
		infos = append(infos, domain.BackupInfo{
			BackupVersion: b.Version,
			CreatedAt:     b.CreatedAt.UTC().Format(time.RFC3339),
			BackupSize:    b.Size,
		})
	}
	return infos, nil
}

// GetDownloadURL mints a pre-signed GET URL. A nil version means the most
// recently uploaded slot.
func (s *Service) GetDownloadURL(ctx context.Context, pubkey string, req domain.GetDownloadURLRequest) (*domain.DownloadURLResponse, error) {
	var b *domain.Backup
	var err error
	if req.BackupVersion != nil {
		b, err = s.backups.Get(ctx, pubkey, *req.BackupVersion)
	} else {
		b, err = s.backups.Latest(ctx, pubkey)
	}
	if err != nil {
		return nil, err
	}
	url, err := s.objects.PresignDownload(ctx, b.S3Key)
	if err != nil {
		return nil, err
	}
	return &domain.DownloadURLResponse{DownloadURL: url, BackupSize: b.Size}, nil
}

// Delete removes a backup slot, object first. Deleting a slot that never
// existed is not an error.
func (s *Service) Delete(ctx context.Context, pubkey string, req domain.DeleteBackupRequest) error {
	b, err := s.backups.Get(ctx, pubkey, req.BackupVersion)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := s.objects.Delete(ctx, b.S3Key); err != nil {
		return err
	}
	return s.backups.Delete(ctx, pubkey, req.BackupVersion)
}

func (s *Service) UpdateSettings(ctx context.Context, pubkey string, req domain.BackupSettingsRequest) error {
	return s.users.Update(ctx, pubkey, map[string]interface{}{
		"backup_enabled": req.BackupEnabled,
		"updated_at":     s.now(),
	})
}
