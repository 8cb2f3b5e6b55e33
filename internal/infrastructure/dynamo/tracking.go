package dynamo

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/BlixtWallet/noah-sub000/internal/domain"
)

// TrackingRepo records when notifications were sent to users so the
// coordinator can enforce spacing. PK: pubkey, SK: notification_type, one
// row per (user, kind), overwritten on every successful send.
type TrackingRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewTrackingRepo(client *dynamodb.Client, tableName string) *TrackingRepo {
	return &TrackingRepo{client: client, tableName: tableName}
}

// RecordSent upserts the (pubkey, kind) row with the current time. Called
// only after a dispatch succeeded; a failed dispatch must not count against
// future eligibility.
func (r *TrackingRepo) RecordSent(ctx context.Context, pubkey string, kind domain.NotificationKind) error {
	_, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item: map[string]types.AttributeValue{
			"pubkey":            &types.AttributeValueMemberS{Value: pubkey},
			"notification_type": &types.AttributeValueMemberS{Value: string(kind)},
			"last_sent_at":      &types.AttributeValueMemberN{Value: formatInt(time.Now().Unix())},
		},
	})
	return err
}

// LastAnySentAt returns the most recent send of any kind to pubkey, or nil
// when the user has never been notified.
func (r *TrackingRepo) LastAnySentAt(ctx context.Context, pubkey string) (*time.Time, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("pubkey = :p"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":p": &types.AttributeValueMemberS{Value: pubkey},
		},
	})
	if err != nil {
		return nil, err
	}

	var latest *time.Time
	for _, item := range out.Items {
		v, ok := item["last_sent_at"].(*types.AttributeValueMemberN)
		if !ok {
			continue
		}
		ts, err := parseInt(v.Value)
		if err != nil {
			continue
		}
		t := time.Unix(ts, 0).UTC()
		if latest == nil || t.After(*latest) {
			latest = &t
		}
	}
	return latest, nil
}
