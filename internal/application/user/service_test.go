package user

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/BlixtWallet/noah-sub000/internal/domain"
)

// --- mocks ---

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) Put(ctx context.Context, u *domain.User) error {
	return m.Called(ctx, u).Error(0)
}
func (m *mockUserStore) Get(ctx context.Context, pubkey string) (*domain.User, error) {
	args := m.Called(ctx, pubkey)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) GetByLightningAddress(ctx context.Context, address string) (*domain.User, error) {
	args := m.Called(ctx, address)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) Update(ctx context.Context, pubkey string, updates map[string]interface{}) error {
	return m.Called(ctx, pubkey, updates).Error(0)
}
func (m *mockUserStore) Delete(ctx context.Context, pubkey string) error {
	return m.Called(ctx, pubkey).Error(0)
}

type mockDeviceStore struct{ mock.Mock }

func (m *mockDeviceStore) Upsert(ctx context.Context, pubkey string, info domain.DeviceInfo) error {
	return m.Called(ctx, pubkey, info).Error(0)
}
func (m *mockDeviceStore) Delete(ctx context.Context, pubkey string) error {
	return m.Called(ctx, pubkey).Error(0)
}

type mockBackupStore struct{ mock.Mock }

func (m *mockBackupStore) List(ctx context.Context, pubkey string) ([]domain.Backup, error) {
	args := m.Called(ctx, pubkey)
	if bs, _ := args.Get(0).([]domain.Backup); bs != nil {
		return bs, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockBackupStore) DeleteAll(ctx context.Context, pubkey string) error {
	return m.Called(ctx, pubkey).Error(0)
}

type mockObjectStore struct{ mock.Mock }

func (m *mockObjectStore) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

type mockHeartbeatStore struct{ mock.Mock }

func (m *mockHeartbeatStore) DeleteByPubkey(ctx context.Context, pubkey string) error {
	return m.Called(ctx, pubkey).Error(0)
}

func strPtr(s string) *string { return &s }

const testDomain = "wallet.example"

func newTestService(us *mockUserStore, ds *mockDeviceStore, bs *mockBackupStore, os *mockObjectStore) *Service {
	return NewService(us, ds, bs, os, &mockHeartbeatStore{}, testDomain)
}

// --- Register ---

func TestRegister_NewUser_ChosenAddress(t *testing.T) {
	us := &mockUserStore{}
	ds := &mockDeviceStore{}
	us.On("Get", mock.Anything, "pk").Return(nil, domain.ErrNotFound)
	us.On("GetByLightningAddress", mock.Anything, "satoshi@wallet.example").Return(nil, domain.ErrNotFound)
	us.On("Put", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
		return u.Pubkey == "pk" && u.LightningAddress == "satoshi@wallet.example"
	})).Return(nil)
	ds.On("Upsert", mock.Anything, "pk", mock.Anything).Return(nil)

	svc := newTestService(us, ds, nil, nil)
	resp, err := svc.Register(context.Background(), "pk", domain.RegisterRequest{
		LnAddress:  strPtr("satoshi"),
		DeviceInfo: &domain.DeviceInfo{Model: "Pixel 8"},
	})

	require.NoError(t, err)
	require.NotNil(t, resp.Event)
	assert.Equal(t, domain.AuthEventRegistered, *resp.Event)
	assert.Equal(t, "satoshi@wallet.example", *resp.LightningAddress)
	us.AssertExpectations(t)
	ds.AssertExpectations(t)
}

func TestRegister_NewUser_MintsRandomAddress(t *testing.T) {
	us := &mockUserStore{}
	us.On("Get", mock.Anything, "pk").Return(nil, domain.ErrNotFound)
	us.On("GetByLightningAddress", mock.Anything, mock.Anything).Return(nil, domain.ErrNotFound)
	us.On("Put", mock.Anything, mock.Anything).Return(nil)

	svc := newTestService(us, nil, nil, nil)
	resp, err := svc.Register(context.Background(), "pk", domain.RegisterRequest{})

	require.NoError(t, err)
	require.NotNil(t, resp.LightningAddress)
	assert.True(t, strings.HasSuffix(*resp.LightningAddress, "@"+testDomain))
	local := strings.TrimSuffix(*resp.LightningAddress, "@"+testDomain)
	assert.NotEmpty(t, local)
}

func TestRegister_ChosenAddressTaken_Conflict(t *testing.T) {
	us := &mockUserStore{}
	us.On("Get", mock.Anything, "pk").Return(nil, domain.ErrNotFound)
	us.On("GetByLightningAddress", mock.Anything, "satoshi@wallet.example").
		Return(&domain.User{Pubkey: "other"}, nil)

	svc := newTestService(us, nil, nil, nil)
	_, err := svc.Register(context.Background(), "pk", domain.RegisterRequest{
		LnAddress: strPtr("satoshi"),
	})

	assert.True(t, errors.Is(err, domain.ErrConflict))
	us.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestRegister_AlreadyRegistered_Idempotent(t *testing.T) {
	us := &mockUserStore{}
	ds := &mockDeviceStore{}
	us.On("Get", mock.Anything, "pk").Return(&domain.User{
		Pubkey: "pk", LightningAddress: "comet042@wallet.example",
	}, nil)
	ds.On("Upsert", mock.Anything, "pk", mock.Anything).Return(nil)

	svc := newTestService(us, ds, nil, nil)
	resp, err := svc.Register(context.Background(), "pk", domain.RegisterRequest{
		DeviceInfo: &domain.DeviceInfo{Model: "iPhone 15"},
	})

	require.NoError(t, err)
	assert.Nil(t, resp.Event)
	require.NotNil(t, resp.Reason)
	assert.Equal(t, "User already registered", *resp.Reason)
	assert.Equal(t, "comet042@wallet.example", *resp.LightningAddress)
	us.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

// --- Deregister ---

func TestDeregister_RemovesEverything(t *testing.T) {
	us := &mockUserStore{}
	ds := &mockDeviceStore{}
	bs := &mockBackupStore{}
	os := &mockObjectStore{}
	bs.On("List", mock.Anything, "pk").Return([]domain.Backup{
		{Pubkey: "pk", Version: 1, S3Key: "backups/pk/v1.bin"},
		{Pubkey: "pk", Version: 2, S3Key: "backups/pk/v2.bin"},
	}, nil)
	os.On("Delete", mock.Anything, "backups/pk/v1.bin").Return(nil)
	os.On("Delete", mock.Anything, "backups/pk/v2.bin").Return(nil)
	bs.On("DeleteAll", mock.Anything, "pk").Return(nil)
	hb := &mockHeartbeatStore{}
	hb.On("DeleteByPubkey", mock.Anything, "pk").Return(nil)
	ds.On("Delete", mock.Anything, "pk").Return(nil)
	us.On("Delete", mock.Anything, "pk").Return(nil)

	svc := NewService(us, ds, bs, os, hb, testDomain)
	require.NoError(t, svc.Deregister(context.Background(), "pk"))

	us.AssertExpectations(t)
	ds.AssertExpectations(t)
	bs.AssertExpectations(t)
	os.AssertExpectations(t)
	hb.AssertExpectations(t)
}

// --- UpdateLnAddress ---

func TestUpdateLnAddress_TakenByOther_Conflict(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByLightningAddress", mock.Anything, "nakamoto@wallet.example").
		Return(&domain.User{Pubkey: "other"}, nil)

	svc := newTestService(us, nil, nil, nil)
	_, err := svc.UpdateLnAddress(context.Background(), "pk", domain.UpdateLnAddressRequest{
		LnAddress: "nakamoto",
	})
	assert.True(t, errors.Is(err, domain.ErrConflict))
}

func TestUpdateLnAddress_OwnAddress_NoConflict(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByLightningAddress", mock.Anything, "nakamoto@wallet.example").
		Return(&domain.User{Pubkey: "pk"}, nil)
	us.On("Update", mock.Anything, "pk", mock.Anything).Return(nil)

	svc := newTestService(us, nil, nil, nil)
	address, err := svc.UpdateLnAddress(context.Background(), "pk", domain.UpdateLnAddressRequest{
		LnAddress: "Nakamoto",
	})

	require.NoError(t, err)
	assert.Equal(t, "nakamoto@wallet.example", address)
}

func TestUpdateLnAddress_Free_Updates(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByLightningAddress", mock.Anything, "fresh@wallet.example").Return(nil, domain.ErrNotFound)
	us.On("Update", mock.Anything, "pk", mock.MatchedBy(func(u map[string]interface{}) bool {
		return u["lightning_address"] == "fresh@wallet.example"
	})).Return(nil)

	svc := newTestService(us, nil, nil, nil)
	address, err := svc.UpdateLnAddress(context.Background(), "pk", domain.UpdateLnAddressRequest{
		LnAddress: "fresh",
	})

	require.NoError(t, err)
	assert.Equal(t, "fresh@wallet.example", address)
	us.AssertExpectations(t)
}

// --- ResolveLightningAddress ---

func TestResolveLightningAddress_BuildsFullAddress(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByLightningAddress", mock.Anything, "comet042@wallet.example").
		Return(&domain.User{Pubkey: "pk"}, nil)

	svc := newTestService(us, nil, nil, nil)
	u, err := svc.ResolveLightningAddress(context.Background(), "Comet042")
	require.NoError(t, err)
	assert.Equal(t, "pk", u.Pubkey)
}
