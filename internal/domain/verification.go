package domain

// EmailVerification holds a pending email verification code.
// PK: pubkey. At most one outstanding code per user.
type EmailVerification struct {
	Pubkey    string `json:"pubkey" dynamodbav:"pubkey"`
	Email     string `json:"email" dynamodbav:"email"`
	Code      string `json:"code" dynamodbav:"code"`
	ExpiresAt int64  `json:"expires_at" dynamodbav:"expires_at"`
}

type SendEmailVerificationRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type VerifyEmailRequest struct {
	Code string `json:"code" validate:"required"`
}

type EmailVerificationResponse struct {
	Success bool    `json:"success"`
	Message *string `json:"message,omitempty"`
}
