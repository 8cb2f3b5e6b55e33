package domain

import "time"

type OffboardingStatus string

const (
	OffboardingPending    OffboardingStatus = "pending"
	OffboardingProcessing OffboardingStatus = "processing"
	OffboardingCompleted  OffboardingStatus = "completed"
	OffboardingFailed     OffboardingStatus = "failed"
)

// Active reports whether the request still suppresses maintenance pushes.
func (s OffboardingStatus) Active() bool {
	return s == OffboardingPending || s == OffboardingProcessing
}

type OffboardingRequest struct {
	RequestID string            `json:"request_id" dynamodbav:"request_id"`
	Pubkey    string            `json:"pubkey" dynamodbav:"pubkey"`
	Address   string            `json:"address" dynamodbav:"address"`
	Status    OffboardingStatus `json:"status" dynamodbav:"status"`
	CreatedAt time.Time         `json:"created" dynamodbav:"created_at"`
	UpdatedAt time.Time         `json:"updated" dynamodbav:"updated_at"`
}

type RegisterOffboardingRequest struct {
	Address string `json:"address" validate:"required"`
}

// CompleteOffboardingRequest is the wallet's report after attempting its
// sweep.
type CompleteOffboardingRequest struct {
	RequestID string `json:"request_id" validate:"required"`
	Success   bool   `json:"success"`
}
