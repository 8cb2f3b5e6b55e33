package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/BlixtWallet/noah-sub000/internal/domain"
	"github.com/BlixtWallet/noah-sub000/internal/infrastructure/sns"
)

// batchSize bounds how many recipients share one send call.
const batchSize = 100

// DeviceStore resolves push tokens for dispatch targets.
type DeviceStore interface {
	ListPushTokens(ctx context.Context, pubkey string) ([]string, error)
	ListAllPushTokens(ctx context.Context) ([]string, error)
}

// ChallengeIssuer mints the per-device k1 embedded in payloads that need one.
type ChallengeIssuer interface {
	IssueK1(ctx context.Context) (string, error)
}

// DispatchReceipt records one delivered push: which user, which token, and
// the k1 embedded in it (empty for payloads that carry none).
type DispatchReceipt struct {
	Pubkey string
	Token  string
	K1     string
}

// Dispatcher delivers a payload to one user's devices or to every registered
// device. Per-recipient failures are logged and never abort sibling sends.
type Dispatcher struct {
	sender  sns.PushSender
	devices DeviceStore
	issuer  ChallengeIssuer
}

func NewDispatcher(sender sns.PushSender, devices DeviceStore, issuer ChallengeIssuer) *Dispatcher {
	return &Dispatcher{sender: sender, devices: devices, issuer: issuer}
}

// Dispatch sends payload to pubkey's devices, or to all devices when pubkey
// is nil. Payloads that need a unique k1 are sent one recipient at a time,
// each with its own freshly issued challenge; everything else goes out in
// chunks of batchSize. Returns a receipt per successful send.
func (d *Dispatcher) Dispatch(ctx context.Context, pubkey *string, payload domain.PushPayload) ([]DispatchReceipt, error) {
	tokens, err := d.resolveTokens(ctx, pubkey)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return nil, nil
	}

	target := ""
	if pubkey != nil {
		target = *pubkey
	}

	if payload.NeedsUniqueK1() {
		return d.sendIndividually(ctx, target, tokens, payload)
	}
	return d.sendChunked(ctx, target, tokens, payload)
}

func (d *Dispatcher) resolveTokens(ctx context.Context, pubkey *string) ([]string, error) {
	if pubkey == nil {
		return d.devices.ListAllPushTokens(ctx)
	}
	return d.devices.ListPushTokens(ctx, *pubkey)
}

func (d *Dispatcher) sendIndividually(ctx context.Context, pubkey string, tokens []string, payload domain.PushPayload) ([]DispatchReceipt, error) {
	var receipts []DispatchReceipt
	for _, token := range tokens {
		k1, err := d.issuer.IssueK1(ctx)
		if err != nil {
			return receipts, fmt.Errorf("issue per-device k1: %w", err)
		}
		payload.K1 = k1

		body, err := json.Marshal(payload)
		if err != nil {
			return receipts, fmt.Errorf("marshal payload: %w", err)
		}
		if err := d.sender.Send(ctx, token, body); err != nil {
			slog.Warn("push send failed", "kind", payload.Kind, "pubkey", pubkey, "err", err)
			continue
		}
		receipts = append(receipts, DispatchReceipt{Pubkey: pubkey, Token: token, K1: k1})
	}
	return receipts, nil
}

func (d *Dispatcher) sendChunked(ctx context.Context, pubkey string, tokens []string, payload domain.PushPayload) ([]DispatchReceipt, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	var receipts []DispatchReceipt
	for start := 0; start < len(tokens); start += batchSize {
		end := min(start+batchSize, len(tokens))
		chunk := tokens[start:end]

		if err := d.sender.SendBatch(ctx, chunk, body); err != nil {
			slog.Warn("push chunk failed", "kind", payload.Kind, "chunk_size", len(chunk), "err", err)
			continue
		}
		for _, token := range chunk {
			receipts = append(receipts, DispatchReceipt{Pubkey: pubkey, Token: token})
		}
	}
	return receipts, nil
}
