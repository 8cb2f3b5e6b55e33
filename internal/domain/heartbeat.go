package domain

import "time"

type HeartbeatStatus string

const (
	HeartbeatPending   HeartbeatStatus = "pending"
	HeartbeatResponded HeartbeatStatus = "responded"
)

// HeartbeatNotification is one responsiveness check sent to a wallet. The
// wallet answers through the auth gate with the notification_id carried in
// the push payload; a heartbeat still pending counts as missed.
type HeartbeatNotification struct {
	NotificationID string          `json:"notification_id" dynamodbav:"notification_id"`
	Pubkey         string          `json:"pubkey" dynamodbav:"pubkey"`
	Status         HeartbeatStatus `json:"status" dynamodbav:"status"`
	SentAt         time.Time       `json:"sent_at" dynamodbav:"sent_at,unixtime"`
}

type HeartbeatResponseRequest struct {
	NotificationID string `json:"notification_id" validate:"required"`
}
