package domain

import "time"

// NotificationKind identifies the push payload variant. The strings here are
// the single source of truth: they are the JSON `notification_type` tag, the
// tracking-table key, and the value logged for every dispatch.
type NotificationKind string

const (
	KindMaintenance             NotificationKind = "maintenance"
	KindLightningInvoiceRequest NotificationKind = "lightning_invoice_request"
	KindBackupTrigger           NotificationKind = "backup_trigger"
	KindBackgroundSync          NotificationKind = "background_sync"
	KindHeartbeat               NotificationKind = "heartbeat"
	KindOffboarding             NotificationKind = "offboarding"
)

// Priority selects delivery urgency. High bypasses spacing rules.
type Priority string

const (
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
)

// PushPayload is the closed set of fields a push notification may carry. Which
// fields are populated is determined by Kind; construct values through the
// NewXxxPayload helpers so the combinations stay exhaustive.
type PushPayload struct {
	Kind                 NotificationKind `json:"notification_type"`
	K1                   string           `json:"k1,omitempty"`
	TransactionID        string           `json:"transaction_id,omitempty"`
	Amount               *uint64          `json:"amount,omitempty"`
	OffboardingRequestID string           `json:"offboarding_request_id,omitempty"`
	NotificationID       string           `json:"notification_id,omitempty"`
}

func NewMaintenancePayload() PushPayload {
	return PushPayload{Kind: KindMaintenance}
}

func NewInvoiceRequestPayload(k1, transactionID string, amount uint64) PushPayload {
	return PushPayload{
		Kind:          KindLightningInvoiceRequest,
		K1:            k1,
		TransactionID: transactionID,
		Amount:        &amount,
	}
}

func NewBackupTriggerPayload() PushPayload {
	return PushPayload{Kind: KindBackupTrigger}
}

func NewBackgroundSyncPayload() PushPayload {
	return PushPayload{Kind: KindBackgroundSync}
}

func NewHeartbeatPayload(notificationID string) PushPayload {
	return PushPayload{Kind: KindHeartbeat, NotificationID: notificationID}
}

func NewOffboardingPayload(requestID string) PushPayload {
	return PushPayload{Kind: KindOffboarding, OffboardingRequestID: requestID}
}

// NeedsUniqueK1 reports whether each recipient device must receive its own
// freshly issued challenge so it can call back through the auth gate without a
// /getk1 round trip.
func (p PushPayload) NeedsUniqueK1() bool {
	switch p.Kind {
	case KindMaintenance, KindBackupTrigger, KindHeartbeat:
		return true
	}
	return false
}

// SendRecord tracks the last time a notification of a given kind was sent to
// a user. One row per (pubkey, kind), overwritten on every successful send.
type SendRecord struct {
	Pubkey     string           `json:"pubkey" dynamodbav:"pubkey"`
	Kind       NotificationKind `json:"notification_type" dynamodbav:"notification_type"`
	LastSentAt time.Time        `json:"last_sent_at" dynamodbav:"last_sent_at,unixtime"`
}
