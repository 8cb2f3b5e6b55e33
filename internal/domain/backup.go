package domain

import "time"

// Backups roll between two versions so a corrupt upload never destroys the
// last good copy.
const (
	BackupVersionMin = 1
	BackupVersionMax = 2
)

type Backup struct {
	Pubkey    string    `json:"pubkey" dynamodbav:"pubkey"`
	Version   int       `json:"backup_version" dynamodbav:"backup_version"`
	S3Key     string    `json:"s3_key" dynamodbav:"s3_key"`
	Size      uint64    `json:"backup_size" dynamodbav:"backup_size"`
	CreatedAt time.Time `json:"created_at" dynamodbav:"created_at"`
}

type GetUploadURLRequest struct {
	BackupVersion int `json:"backup_version" validate:"required,min=1,max=2"`
}

type UploadURLResponse struct {
	UploadURL string `json:"upload_url"`
	S3Key     string `json:"s3_key"`
}

type CompleteUploadRequest struct {
	S3Key         string `json:"s3_key" validate:"required"`
	BackupVersion int    `json:"backup_version" validate:"required,min=1,max=2"`
	BackupSize    uint64 `json:"backup_size"`
}

type BackupInfo struct {
	BackupVersion int    `json:"backup_version"`
	CreatedAt     string `json:"created_at"`
	BackupSize    uint64 `json:"backup_size"`
}

type GetDownloadURLRequest struct {
	// Nil means latest.
	BackupVersion *int `json:"backup_version" validate:"omitempty,min=1,max=2"`
}

type DownloadURLResponse struct {
	DownloadURL string `json:"download_url"`
	BackupSize  uint64 `json:"backup_size"`
}

type DeleteBackupRequest struct {
	BackupVersion int `json:"backup_version" validate:"required,min=1,max=2"`
}

type BackupSettingsRequest struct {
	BackupEnabled bool `json:"backup_enabled"`
}
