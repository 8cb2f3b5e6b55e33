// Package email implements the verification-code flow that links an email
// address to a wallet account.
package email

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/BlixtWallet/noah-sub000/internal/domain"
)

const codeTTL = 15 * time.Minute

type VerificationStore interface {
	Put(ctx context.Context, v *domain.EmailVerification) error
	Get(ctx context.Context, pubkey string) (*domain.EmailVerification, error)
	Delete(ctx context.Context, pubkey string) error
}

type UserStore interface {
	Update(ctx context.Context, pubkey string, updates map[string]interface{}) error
}

type Mailer interface {
	SendEmail(to, subject, body string) error
}

type Service struct {
	verifications VerificationStore
	users         UserStore
	mailer        Mailer
	now           func() time.Time
}

func NewService(verifications VerificationStore, users UserStore, mailer Mailer) *Service {
	return &Service{verifications: verifications, users: users, mailer: mailer, now: time.Now}
}

// SendVerification issues a fresh 6-digit code for the address and mails it.
// A new request replaces any outstanding code for the same wallet.
func (s *Service) SendVerification(ctx context.Context, pubkey string, req domain.SendEmailVerificationRequest) error {
	code := randomCode()
	v := &domain.EmailVerification{
		Pubkey:    pubkey,
		Email:     req.Email,
		Code:      code,
		ExpiresAt: s.now().Add(codeTTL).Unix(),
	}
	if err := s.verifications.Put(ctx, v); err != nil {
		return err
	}
	body := fmt.Sprintf("Your verification code is: %s\n\nIt expires in 15 minutes.", code)
	if err := s.mailer.SendEmail(req.Email, "Verify your email", body); err != nil {
		return fmt.Errorf("send verification mail: %w", err)
	}
	slog.Info("verification code sent", "pubkey", pubkey)
	return nil
}

// Verify checks the submitted code and, on match, marks the user's email
// verified and discards the code.
func (s *Service) Verify(ctx context.Context, pubkey string, req domain.VerifyEmailRequest) (*domain.EmailVerificationResponse, error) {
	v, err := s.verifications.Get(ctx, pubkey)
	if errors.Is(err, domain.ErrNotFound) {
		return verificationFailure("no verification in progress"), nil
	}
	if err != nil {
		return nil, err
	}
	if s.now().Unix() > v.ExpiresAt {
		return verificationFailure("verification code expired"), nil
	}
	if req.Code != v.Code {
		return verificationFailure("invalid verification code"), nil
	}

	if err := s.users.Update(ctx, pubkey, map[string]interface{}{
		"email":          v.Email,
		"email_verified": true,
		"updated_at":     s.now(),
	}); err != nil {
		return nil, err
	}
	if err := s.verifications.Delete(ctx, pubkey); err != nil {
		slog.Warn("failed to delete used verification code", "pubkey", pubkey, "error", err)
	}
	slog.Info("email verified", "pubkey", pubkey)
	return &domain.EmailVerificationResponse{Success: true}, nil
}

func verificationFailure(msg string) *domain.EmailVerificationResponse {
	return &domain.EmailVerificationResponse{Success: false, Message: &msg}
}

func randomCode() string {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		panic(err)
	}
	return fmt.Sprintf("%06d", n.Int64())
}
