package domain

import "time"

// ReportType names the background job a device reports back on.
type ReportType string

const (
	ReportMaintenance ReportType = "maintenance"
	ReportBackup      ReportType = "backup"
)

type ReportStatus string

const (
	ReportPending ReportStatus = "pending"
	ReportSuccess ReportStatus = "success"
	ReportFailure ReportStatus = "failure"
	ReportTimeout ReportStatus = "timeout"
)

// JobStatus is created in pending state when a maintenance or backup push is
// dispatched, keyed by the per-device k1 embedded in that push, and updated
// when the device reports the job outcome.
type JobStatus struct {
	Pubkey       string       `json:"pubkey" dynamodbav:"pubkey"`
	K1           string       `json:"k1" dynamodbav:"k1"`
	Type         ReportType   `json:"report_type" dynamodbav:"report_type"`
	Status       ReportStatus `json:"status" dynamodbav:"status"`
	ErrorMessage *string      `json:"error_message,omitempty" dynamodbav:"error_message"`
	CreatedAt    time.Time    `json:"created" dynamodbav:"created_at"`
	UpdatedAt    time.Time    `json:"updated" dynamodbav:"updated_at"`
}

type ReportJobStatusRequest struct {
	ReportType   ReportType   `json:"report_type" validate:"required,oneof=maintenance backup"`
	Status       ReportStatus `json:"status" validate:"required,oneof=pending success failure timeout"`
	ErrorMessage *string      `json:"error_message"`
}
