package domain

import "time"

// DeviceInfo is the self-reported hardware/OS description a wallet sends on
// registration.
type DeviceInfo struct {
	Manufacturer string `json:"device_manufacturer" dynamodbav:"device_manufacturer"`
	Model        string `json:"device_model" dynamodbav:"device_model"`
	OSName       string `json:"os_name" dynamodbav:"os_name"`
	OSVersion    string `json:"os_version" dynamodbav:"os_version"`
	AppVersion   string `json:"app_version" dynamodbav:"app_version"`
}

// Device is one row per pubkey: the registered device plus its push token, if
// the wallet has registered one.
type Device struct {
	Pubkey    string     `json:"pubkey" dynamodbav:"pubkey"`
	PushToken *string    `json:"push_token,omitempty" dynamodbav:"push_token"`
	Info      DeviceInfo `json:"info" dynamodbav:"info"`
	CreatedAt time.Time  `json:"created" dynamodbav:"created_at"`
	UpdatedAt time.Time  `json:"updated" dynamodbav:"updated_at"`
}

type RegisterPushTokenRequest struct {
	PushToken string `json:"push_token" validate:"required"`
}

type AppVersionCheckRequest struct {
	ClientVersion string `json:"client_version" validate:"required"`
}

type AppVersionInfo struct {
	MinimumRequiredVersion string `json:"minimum_required_version"`
	UpdateRequired         bool   `json:"update_required"`
}

// AppVersion is the persisted minimum-version row.
type AppVersion struct {
	VersionID string `json:"id" dynamodbav:"version_id"`
	Minimum   string `json:"minimum" dynamodbav:"minimum"`
}
