package dynamo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/BlixtWallet/noah-sub000/internal/domain"
)

// DeviceRepo persists the registered device (and its push token) per user.
// PK: pubkey. One device row per wallet.
type DeviceRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewDeviceRepo(client *dynamodb.Client, tableName string) *DeviceRepo {
	return &DeviceRepo{client: client, tableName: tableName}
}

// Upsert writes the device info for pubkey, preserving an already registered
// push token.
func (r *DeviceRepo) Upsert(ctx context.Context, pubkey string, info domain.DeviceInfo) error {
	now := time.Now().UTC()
	existing, err := r.Get(ctx, pubkey)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	d := &domain.Device{
		Pubkey:    pubkey,
		Info:      info,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if existing != nil {
		d.PushToken = existing.PushToken
		d.CreatedAt = existing.CreatedAt
	}

	item, err := attributevalue.MarshalMap(d)
	if err != nil {
		return fmt.Errorf("marshal device: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *DeviceRepo) Get(ctx context.Context, pubkey string) (*domain.Device, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("pubkey", pubkey),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("device for %s: %w", pubkey, domain.ErrNotFound)
	}
	var d domain.Device
	if err := attributevalue.UnmarshalMap(out.Item, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// SetPushToken upserts the push token for pubkey, creating the device row if
// the wallet registered before sending any device info.
func (r *DeviceRepo) SetPushToken(ctx context.Context, pubkey, pushToken string) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:        aws.String(r.tableName),
		Key:              strKey("pubkey", pubkey),
		UpdateExpression: aws.String("SET push_token = :t, updated_at = :u"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":t": &types.AttributeValueMemberS{Value: pushToken},
			":u": &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339)},
		},
	})
	return err
}

func (r *DeviceRepo) Delete(ctx context.Context, pubkey string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("pubkey", pubkey),
	})
	return err
}

// ListPushTokens returns the push tokens registered for pubkey. A wallet
// without a registered token yields an empty slice, not an error.
func (r *DeviceRepo) ListPushTokens(ctx context.Context, pubkey string) ([]string, error) {
	d, err := r.Get(ctx, pubkey)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if d.PushToken == nil || *d.PushToken == "" {
		return nil, nil
	}
	return []string{*d.PushToken}, nil
}

// ListActivePubkeys scans the pubkeys of every device with a registered push
// token. These are the wallets worth probing for responsiveness.
func (r *DeviceRepo) ListActivePubkeys(ctx context.Context) ([]string, error) {
	var pubkeys []string
	var startKey map[string]types.AttributeValue
	for {
		out, err := r.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:            aws.String(r.tableName),
			ProjectionExpression: aws.String("pubkey"),
			FilterExpression:     aws.String("attribute_exists(push_token)"),
			ExclusiveStartKey:    startKey,
		})
		if err != nil {
			return nil, err
		}
		for _, item := range out.Items {
			if v, ok := item["pubkey"].(*types.AttributeValueMemberS); ok && v.Value != "" {
				pubkeys = append(pubkeys, v.Value)
			}
		}
		if out.LastEvaluatedKey == nil {
			return pubkeys, nil
		}
		startKey = out.LastEvaluatedKey
	}
}

// ListAllPushTokens scans every device row with a registered push token.
func (r *DeviceRepo) ListAllPushTokens(ctx context.Context) ([]string, error) {
	var tokens []string
	var startKey map[string]types.AttributeValue
	for {
		out, err := r.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:            aws.String(r.tableName),
			ProjectionExpression: aws.String("push_token"),
			FilterExpression:     aws.String("attribute_exists(push_token)"),
			ExclusiveStartKey:    startKey,
		})
		if err != nil {
			return nil, err
		}
		for _, item := range out.Items {
			if v, ok := item["push_token"].(*types.AttributeValueMemberS); ok && v.Value != "" {
				tokens = append(tokens, v.Value)
			}
		}
		if out.LastEvaluatedKey == nil {
			return tokens, nil
		}
		startKey = out.LastEvaluatedKey
	}
}
