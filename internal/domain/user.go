package domain

import "time"

type User struct {
	Pubkey           string    `json:"pubkey" dynamodbav:"pubkey"`
	LightningAddress string    `json:"lightning_address" dynamodbav:"lightning_address"`
	Email            *string   `json:"email,omitempty" dynamodbav:"email"`
	EmailVerified    bool      `json:"email_verified" dynamodbav:"email_verified"`
	BackupEnabled    bool      `json:"backup_enabled" dynamodbav:"backup_enabled"`
	CreatedAt        time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt        time.Time `json:"updated" dynamodbav:"updated_at"`
}

type RegisterRequest struct {
	// User chosen lightning address; a random one is minted when absent.
	LnAddress  *string     `json:"ln_address" validate:"omitempty,ln_username"`
	DeviceInfo *DeviceInfo `json:"device_info"`
}

type AuthEvent string

const (
	AuthEventRegistered AuthEvent = "registered"
)

type RegisterResponse struct {
	Status           string     `json:"status"`
	Event            *AuthEvent `json:"event,omitempty"`
	Reason           *string    `json:"reason,omitempty"`
	LightningAddress *string    `json:"lightning_address,omitempty"`
}

type UpdateLnAddressRequest struct {
	LnAddress string `json:"ln_address" validate:"required,ln_username"`
}

type UserInfoResponse struct {
	LightningAddress string `json:"lightning_address"`
}
