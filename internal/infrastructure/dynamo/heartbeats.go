package dynamo

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/BlixtWallet/noah-sub000/internal/domain"
)

// HeartbeatRepo persists heartbeat notifications.
// PK: notification_id, GSI: pubkey-index.
type HeartbeatRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewHeartbeatRepo(client *dynamodb.Client, tableName string) *HeartbeatRepo {
	return &HeartbeatRepo{client: client, tableName: tableName}
}

func (r *HeartbeatRepo) Put(ctx context.Context, n *domain.HeartbeatNotification) error {
	item, err := attributevalue.MarshalMap(n)
	if err != nil {
		return fmt.Errorf("marshal heartbeat notification: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

// MarkResponded flips one heartbeat from pending to responded, but only for
// the wallet it was sent to. Returns false when the row is unknown, already
// answered, or owned by someone else.
func (r *HeartbeatRepo) MarkResponded(ctx context.Context, pubkey, notificationID string) (bool, error) {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 strKey("notification_id", notificationID),
		UpdateExpression:    aws.String("SET #s = :responded"),
		ConditionExpression: aws.String("#s = :pending AND pubkey = :p"),
		ExpressionAttributeNames: map[string]string{
			"#s": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":responded": &types.AttributeValueMemberS{Value: string(domain.HeartbeatResponded)},
			":pending":   &types.AttributeValueMemberS{Value: string(domain.HeartbeatPending)},
			":p":         &types.AttributeValueMemberS{Value: pubkey},
		},
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ListRecent returns up to limit heartbeats for pubkey, newest first.
func (r *HeartbeatRepo) ListRecent(ctx context.Context, pubkey string, limit int) ([]domain.HeartbeatNotification, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("pubkey-index"),
		KeyConditionExpression: aws.String("pubkey = :p"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":p": &types.AttributeValueMemberS{Value: pubkey},
		},
	})
	if err != nil {
		return nil, err
	}
	var rows []domain.HeartbeatNotification
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &rows); err != nil {
		return nil, err
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].SentAt.After(rows[j].SentAt)
	})
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

func (r *HeartbeatRepo) Delete(ctx context.Context, notificationID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("notification_id", notificationID),
	})
	return err
}

// DeleteByPubkey removes every heartbeat for one wallet. Called on deregister.
func (r *HeartbeatRepo) DeleteByPubkey(ctx context.Context, pubkey string) error {
	rows, err := r.ListRecent(ctx, pubkey, 0)
	if err != nil {
		return err
	}
	for _, p := range rows {
		if err := r.Delete(ctx, p.NotificationID); err != nil {
			return err
		}
	}
	return nil
}
