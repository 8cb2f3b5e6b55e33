package heartbeat

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/BlixtWallet/noah-sub000/internal/application/notification"
	"github.com/BlixtWallet/noah-sub000/internal/domain"
)

type mockHeartbeatStore struct{ mock.Mock }

func (m *mockHeartbeatStore) Put(ctx context.Context, n *domain.HeartbeatNotification) error {
	return m.Called(ctx, n).Error(0)
}
func (m *mockHeartbeatStore) MarkResponded(ctx context.Context, pubkey, notificationID string) (bool, error) {
	args := m.Called(ctx, pubkey, notificationID)
	return args.Bool(0), args.Error(1)
}
func (m *mockHeartbeatStore) ListRecent(ctx context.Context, pubkey string, limit int) ([]domain.HeartbeatNotification, error) {
	args := m.Called(ctx, pubkey, limit)
	if ns, _ := args.Get(0).([]domain.HeartbeatNotification); ns != nil {
		return ns, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockHeartbeatStore) Delete(ctx context.Context, notificationID string) error {
	return m.Called(ctx, notificationID).Error(0)
}
func (m *mockHeartbeatStore) DeleteByPubkey(ctx context.Context, pubkey string) error {
	return m.Called(ctx, pubkey).Error(0)
}

type mockDeviceLister struct{ mock.Mock }

func (m *mockDeviceLister) ListActivePubkeys(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if pks, _ := args.Get(0).([]string); pks != nil {
		return pks, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockNotifier struct{ mock.Mock }

func (m *mockNotifier) SendToUser(ctx context.Context, pubkey string, req notification.Request) error {
	return m.Called(ctx, pubkey, req).Error(0)
}

type mockDeregistrar struct{ mock.Mock }

func (m *mockDeregistrar) Deregister(ctx context.Context, pubkey string) error {
	return m.Called(ctx, pubkey).Error(0)
}

func pendingHeartbeats(pubkey string, n int) []domain.HeartbeatNotification {
	rows := make([]domain.HeartbeatNotification, n)
	base := time.Now().UTC()
	for i := range rows {
		rows[i] = domain.HeartbeatNotification{
			NotificationID: fmt.Sprintf("n%d", i),
			Pubkey:         pubkey,
			Status:         domain.HeartbeatPending,
			SentAt:         base.Add(-time.Duration(i) * time.Hour),
		}
	}
	return rows
}

func TestSendHeartbeats_SendsAndRecordsPending(t *testing.T) {
	hs := &mockHeartbeatStore{}
	dl := &mockDeviceLister{}
	nt := &mockNotifier{}
	dl.On("ListActivePubkeys", mock.Anything).Return([]string{"pk1"}, nil)
	hs.On("ListRecent", mock.Anything, "pk1", missedThreshold).Return(nil, nil)
	nt.On("SendToUser", mock.Anything, "pk1", mock.MatchedBy(func(req notification.Request) bool {
		return req.Priority == domain.PriorityHigh &&
			req.Payload.Kind == domain.KindHeartbeat &&
			req.Payload.NotificationID != ""
	})).Return(nil)
	hs.On("Put", mock.Anything, mock.MatchedBy(func(n *domain.HeartbeatNotification) bool {
		return n.Pubkey == "pk1" && n.Status == domain.HeartbeatPending && n.NotificationID != ""
	})).Return(nil)
	hs.On("ListRecent", mock.Anything, "pk1", 0).Return(pendingHeartbeats("pk1", 3), nil)

	svc := NewService(hs, dl, nt, &mockDeregistrar{})
	require.NoError(t, svc.SendHeartbeats(context.Background()))
	hs.AssertExpectations(t)
	nt.AssertExpectations(t)
}

func TestSendHeartbeats_PushFails_NothingRecorded(t *testing.T) {
	hs := &mockHeartbeatStore{}
	dl := &mockDeviceLister{}
	nt := &mockNotifier{}
	dl.On("ListActivePubkeys", mock.Anything).Return([]string{"pk1"}, nil)
	hs.On("ListRecent", mock.Anything, "pk1", missedThreshold).Return(nil, nil)
	nt.On("SendToUser", mock.Anything, "pk1", mock.Anything).Return(errors.New("push down"))

	svc := NewService(hs, dl, nt, &mockDeregistrar{})
	require.NoError(t, svc.SendHeartbeats(context.Background()))
	hs.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestSendHeartbeats_UnresponsiveWallet_Deregistered(t *testing.T) {
	hs := &mockHeartbeatStore{}
	dl := &mockDeviceLister{}
	nt := &mockNotifier{}
	dr := &mockDeregistrar{}
	dl.On("ListActivePubkeys", mock.Anything).Return([]string{"pk1"}, nil)
	hs.On("ListRecent", mock.Anything, "pk1", missedThreshold).
		Return(pendingHeartbeats("pk1", missedThreshold), nil)
	dr.On("Deregister", mock.Anything, "pk1").Return(nil)
	hs.On("DeleteByPubkey", mock.Anything, "pk1").Return(nil)

	svc := NewService(hs, dl, nt, dr)
	require.NoError(t, svc.SendHeartbeats(context.Background()))

	dr.AssertExpectations(t)
	nt.AssertNotCalled(t, "SendToUser", mock.Anything, mock.Anything, mock.Anything)
}

func TestSendHeartbeats_AnswerResetsMissedStreak(t *testing.T) {
	hs := &mockHeartbeatStore{}
	dl := &mockDeviceLister{}
	nt := &mockNotifier{}
	dr := &mockDeregistrar{}
	// Newest heartbeat answered: the nine older pending ones no longer count.
	recent := pendingHeartbeats("pk1", missedThreshold)
	recent[0].Status = domain.HeartbeatResponded
	dl.On("ListActivePubkeys", mock.Anything).Return([]string{"pk1"}, nil)
	hs.On("ListRecent", mock.Anything, "pk1", missedThreshold).Return(recent, nil)
	nt.On("SendToUser", mock.Anything, "pk1", mock.Anything).Return(nil)
	hs.On("Put", mock.Anything, mock.Anything).Return(nil)
	hs.On("ListRecent", mock.Anything, "pk1", 0).Return(recent, nil)

	svc := NewService(hs, dl, nt, dr)
	require.NoError(t, svc.SendHeartbeats(context.Background()))

	dr.AssertNotCalled(t, "Deregister", mock.Anything, mock.Anything)
	nt.AssertExpectations(t)
}

func TestSendHeartbeats_TrimsHistoryPastLimit(t *testing.T) {
	hs := &mockHeartbeatStore{}
	dl := &mockDeviceLister{}
	nt := &mockNotifier{}
	dl.On("ListActivePubkeys", mock.Anything).Return([]string{"pk1"}, nil)
	hs.On("ListRecent", mock.Anything, "pk1", missedThreshold).Return(nil, nil)
	nt.On("SendToUser", mock.Anything, "pk1", mock.Anything).Return(nil)
	hs.On("Put", mock.Anything, mock.Anything).Return(nil)
	all := pendingHeartbeats("pk1", keepHistory+2)
	hs.On("ListRecent", mock.Anything, "pk1", 0).Return(all, nil)
	// The two oldest fall off.
	hs.On("Delete", mock.Anything, all[keepHistory].NotificationID).Return(nil)
	hs.On("Delete", mock.Anything, all[keepHistory+1].NotificationID).Return(nil)

	svc := NewService(hs, dl, nt, &mockDeregistrar{})
	require.NoError(t, svc.SendHeartbeats(context.Background()))
	hs.AssertExpectations(t)
}

func TestRecordResponse(t *testing.T) {
	hs := &mockHeartbeatStore{}
	hs.On("MarkResponded", mock.Anything, "pk", "n1").Return(true, nil)

	svc := NewService(hs, nil, nil, nil)
	require.NoError(t, svc.RecordResponse(context.Background(), "pk", "n1"))
	hs.AssertExpectations(t)
}

func TestRecordResponse_UnknownOrForeign_NotFound(t *testing.T) {
	hs := &mockHeartbeatStore{}
	hs.On("MarkResponded", mock.Anything, "pk", "ghost").Return(false, nil)

	svc := NewService(hs, nil, nil, nil)
	err := svc.RecordResponse(context.Background(), "pk", "ghost")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}
