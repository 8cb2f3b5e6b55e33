package sns

import (
	"context"
	"errors"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"github.com/BlixtWallet/noah-sub000/internal/config"
)

// PushSender delivers a JSON payload to a device identified by its push
// token. Implementations report per-recipient failures; callers decide
// whether a failure aborts anything (it never aborts sibling sends).
type PushSender interface {
	Send(ctx context.Context, token string, payload []byte) error
	SendBatch(ctx context.Context, tokens []string, payload []byte) error
}

type sender struct {
	client *sns.Client
}

// NewSender creates an SNS-backed push sender. Device push tokens are SNS
// platform endpoint ARNs.
func NewSender(cfg *config.Config) (PushSender, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.SNSRegion),
	)
	if err != nil {
		return nil, err
	}
	return &sender{client: sns.NewFromConfig(awsCfg)}, nil
}

func (s *sender) Send(ctx context.Context, token string, payload []byte) error {
	message := string(payload)
	_, err := s.client.Publish(ctx, &sns.PublishInput{
		TargetArn: &token,
		Message:   &message,
	})
	if err != nil {
		return fmt.Errorf("sns publish: %w", err)
	}
	return nil
}

// SendBatch publishes the same payload to each token. Platform endpoints do
// not support a single batched publish, so failures are collected per token
// and the remaining recipients still get the message.
func (s *sender) SendBatch(ctx context.Context, tokens []string, payload []byte) error {
	var errs []error
	for _, token := range tokens {
		if err := s.Send(ctx, token, payload); err != nil {
			errs = append(errs, fmt.Errorf("token %s: %w", token, err))
		}
	}
	return errors.Join(errs...)
}
