package backup

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/BlixtWallet/noah-sub000/internal/domain"
)

type mockBackupStore struct{ mock.Mock }

func (m *mockBackupStore) Put(ctx context.Context, b *domain.Backup) error {
	return m.Called(ctx, b).Error(0)
}
func (m *mockBackupStore) Get(ctx context.Context, pubkey string, version int) (*domain.Backup, error) {
	args := m.Called(ctx, pubkey, version)
	if b, _ := args.Get(0).(*domain.Backup); b != nil {
		return b, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockBackupStore) List(ctx context.Context, pubkey string) ([]domain.Backup, error) {
	args := m.Called(ctx, pubkey)
	if bs, _ := args.Get(0).([]domain.Backup); bs != nil {
		return bs, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockBackupStore) Latest(ctx context.Context, pubkey string) (*domain.Backup, error) {
	args := m.Called(ctx, pubkey)
	if b, _ := args.Get(0).(*domain.Backup); b != nil {
		return b, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockBackupStore) Delete(ctx context.Context, pubkey string, version int) error {
	return m.Called(ctx, pubkey, version).Error(0)
}

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) Update(ctx context.Context, pubkey string, updates map[string]interface{}) error {
	return m.Called(ctx, pubkey, updates).Error(0)
}

type mockObjectStore struct{ mock.Mock }

func (m *mockObjectStore) PresignUpload(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}
func (m *mockObjectStore) PresignDownload(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}
func (m *mockObjectStore) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func intPtr(v int) *int { return &v }

func TestGetUploadURL_DeterministicKey(t *testing.T) {
	os := &mockObjectStore{}
	os.On("PresignUpload", mock.Anything, "backups/pk/v1.bin").Return("https://s3/put", nil)

	svc := NewService(nil, nil, os)
	resp, err := svc.GetUploadURL(context.Background(), "pk", domain.GetUploadURLRequest{BackupVersion: 1})

	require.NoError(t, err)
	assert.Equal(t, "https://s3/put", resp.UploadURL)
	assert.Equal(t, "backups/pk/v1.bin", resp.S3Key)
}

func TestCompleteUpload_RecordsMetadata(t *testing.T) {
	bs := &mockBackupStore{}
	bs.On("Put", mock.Anything, mock.MatchedBy(func(b *domain.Backup) bool {
		return b.Pubkey == "pk" && b.Version == 2 && b.Size == 4096
	})).Return(nil)

	svc := NewService(bs, nil, nil)
	err := svc.CompleteUpload(context.Background(), "pk", domain.CompleteUploadRequest{
		S3Key:         "backups/pk/v2.bin",
		BackupVersion: 2,
		BackupSize:    4096,
	})
	require.NoError(t, err)
	bs.AssertExpectations(t)
}

func TestCompleteUpload_ForeignKey_Rejected(t *testing.T) {
	bs := &mockBackupStore{}

	svc := NewService(bs, nil, nil)
	err := svc.CompleteUpload(context.Background(), "pk", domain.CompleteUploadRequest{
		S3Key:         "backups/victim/v1.bin",
		BackupVersion: 1,
	})

	assert.True(t, errors.Is(err, domain.ErrBadRequest))
	bs.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestGetDownloadURL_SpecificVersion(t *testing.T) {
	bs := &mockBackupStore{}
	os := &mockObjectStore{}
	bs.On("Get", mock.Anything, "pk", 1).Return(&domain.Backup{
		Pubkey: "pk", Version: 1, S3Key: "backups/pk/v1.bin", Size: 512,
	}, nil)
	os.On("PresignDownload", mock.Anything, "backups/pk/v1.bin").Return("https://s3/get", nil)

	svc := NewService(bs, nil, os)
	resp, err := svc.GetDownloadURL(context.Background(), "pk", domain.GetDownloadURLRequest{BackupVersion: intPtr(1)})

	require.NoError(t, err)
	assert.Equal(t, "https://s3/get", resp.DownloadURL)
	assert.Equal(t, uint64(512), resp.BackupSize)
}

func TestGetDownloadURL_NilVersion_UsesLatest(t *testing.T) {
	bs := &mockBackupStore{}
	os := &mockObjectStore{}
	bs.On("Latest", mock.Anything, "pk").Return(&domain.Backup{
		Pubkey: "pk", Version: 2, S3Key: "backups/pk/v2.bin", Size: 2048,
	}, nil)
	os.On("PresignDownload", mock.Anything, "backups/pk/v2.bin").Return("https://s3/get2", nil)

	svc := NewService(bs, nil, os)
	resp, err := svc.GetDownloadURL(context.Background(), "pk", domain.GetDownloadURLRequest{})

	require.NoError(t, err)
	assert.Equal(t, uint64(2048), resp.BackupSize)
	bs.AssertNotCalled(t, "Get", mock.Anything, mock.Anything, mock.Anything)
}

func TestGetDownloadURL_NoBackup(t *testing.T) {
	bs := &mockBackupStore{}
	bs.On("Latest", mock.Anything, "pk").Return(nil, domain.ErrNotFound)

	svc := NewService(bs, nil, nil)
	_, err := svc.GetDownloadURL(context.Background(), "pk", domain.GetDownloadURLRequest{})
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestDelete_ObjectFirstThenRow(t *testing.T) {
	bs := &mockBackupStore{}
	os := &mockObjectStore{}
	bs.On("Get", mock.Anything, "pk", 1).Return(&domain.Backup{
		Pubkey: "pk", Version: 1, S3Key: "backups/pk/v1.bin",
	}, nil)
	os.On("Delete", mock.Anything, "backups/pk/v1.bin").Return(nil)
	bs.On("Delete", mock.Anything, "pk", 1).Return(nil)

	svc := NewService(bs, nil, os)
	require.NoError(t, svc.Delete(context.Background(), "pk", domain.DeleteBackupRequest{BackupVersion: 1}))
	bs.AssertExpectations(t)
	os.AssertExpectations(t)
}

func TestDelete_MissingSlot_NoError(t *testing.T) {
	bs := &mockBackupStore{}
	bs.On("Get", mock.Anything, "pk", 2).Return(nil, domain.ErrNotFound)

	svc := NewService(bs, nil, nil)
	require.NoError(t, svc.Delete(context.Background(), "pk", domain.DeleteBackupRequest{BackupVersion: 2}))
	bs.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
}

func TestList_FormatsCreatedAt(t *testing.T) {
	bs := &mockBackupStore{}
	created := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	bs.On("List", mock.Anything, "pk").Return([]domain.Backup{
		{Pubkey: "pk", Version: 1, Size: 100, CreatedAt: created},
	}, nil)

	svc := NewService(bs, nil, nil)
	infos, err := svc.List(context.Background(), "pk")

	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "2025-06-01T12:00:00Z", infos[0].CreatedAt)
	assert.Equal(t, uint64(100), infos[0].BackupSize)
}

func TestUpdateSettings(t *testing.T) {
	us := &mockUserStore{}
	us.On("Update", mock.Anything, "pk", mock.MatchedBy(func(u map[string]interface{}) bool {
		return u["backup_enabled"] == true
	})).Return(nil)

	svc := NewService(nil, us, nil)
	require.NoError(t, svc.UpdateSettings(context.Background(), "pk", domain.BackupSettingsRequest{BackupEnabled: true}))
	us.AssertExpectations(t)
}
