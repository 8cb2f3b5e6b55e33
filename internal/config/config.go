package config

import (
	"os"
	"strconv"
	"strings"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort string
	AppEnv  string

	// LnurlDomain is the domain lightning addresses are minted under and the
	// host used in LNURL-pay callback URLs.
	LnurlDomain string

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string
	DynamoTables   DynamoTables
	S3BucketName   string

	// K1TTLSeconds bounds how long an issued challenge stays valid.
	K1TTLSeconds int
	// InvoiceTimeoutSeconds is how long a priced LNURL-pay request waits for
	// the payee's device to answer.
	InvoiceTimeoutSeconds int
	// NotificationSpacingMinutes is the global any-kind cooldown between
	// pushes to the same user.
	NotificationSpacingMinutes int

	BackgroundSyncCron string
	BackupCron         string
	HeartbeatCron      string

	// MinAppVersion seeds the minimum-required-version row at startup when
	// set. Empty leaves whatever the table already holds.
	MinAppVersion string

	SNSRegion string

	SMTPHost     string
	SMTPPort     string
	SMTPFrom     string
	SMTPUsername string
	SMTPPassword string

	AllowedOrigins []string // CORS allowed origins
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Users              string
	Devices            string
	Challenges         string
	NotificationTracks string
	OffboardingReqs    string
	Backups            string
	EmailVerifications string
	JobStatuses        string
	AppVersions        string
	Heartbeats         string
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort: getEnv("APP_PORT", "3000"),
		AppEnv:  getEnv("APP_ENV", "development"),

		LnurlDomain: getEnv("LNURL_DOMAIN", "localhost"),

		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTables: DynamoTables{
			Users:              getEnv("DYNAMO_TABLE_USERS", "users"),
			Devices:            getEnv("DYNAMO_TABLE_DEVICES", "devices"),
			Challenges:         getEnv("DYNAMO_TABLE_CHALLENGES", "challenges"),
			NotificationTracks: getEnv("DYNAMO_TABLE_NOTIFICATION_TRACKING", "notification_tracking"),
			OffboardingReqs:    getEnv("DYNAMO_TABLE_OFFBOARDING_REQUESTS", "offboarding_requests"),
			Backups:            getEnv("DYNAMO_TABLE_BACKUPS", "backups"),
			EmailVerifications: getEnv("DYNAMO_TABLE_EMAIL_VERIFICATIONS", "email_verifications"),
			JobStatuses:        getEnv("DYNAMO_TABLE_JOB_STATUSES", "job_statuses"),
			AppVersions:        getEnv("DYNAMO_TABLE_APP_VERSIONS", "app_versions"),
			Heartbeats:         getEnv("DYNAMO_TABLE_HEARTBEATS", "heartbeats"),
		},
		S3BucketName: getEnv("S3_BUCKET_NAME", "noah-backups"),

		K1TTLSeconds:               getEnvInt("K1_TTL_SECONDS", 600),
		InvoiceTimeoutSeconds:      getEnvInt("INVOICE_TIMEOUT_SECONDS", 180),
		NotificationSpacingMinutes: getEnvInt("NOTIFICATION_SPACING_MINUTES", 45),

		BackgroundSyncCron: getEnv("BACKGROUND_SYNC_CRON", "0 */2 * * *"),
		BackupCron:         getEnv("BACKUP_CRON", "30 */2 * * *"),
		HeartbeatCron:      getEnv("HEARTBEAT_CRON", "15 */6 * * *"),

		MinAppVersion: getEnv("MIN_APP_VERSION", ""),

		SNSRegion: getEnv("SNS_REGION", "us-east-1"),

		SMTPHost:     getEnv("SMTP_HOST", "localhost"),
		SMTPPort:     getEnv("SMTP_PORT", "1025"),
		SMTPFrom:     getEnv("SMTP_FROM", "noreply@example.com"),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),

		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
