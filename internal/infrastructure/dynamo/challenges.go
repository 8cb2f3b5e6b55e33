package dynamo

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// ChallengeRepo stores issued k1 challenges. PK: k1. Each row carries an
// expires_at attribute registered as the table's TTL field, so DynamoDB
// eventually evicts stale challenges on its own. Eviction is lazy; the auth
// gate's embedded-timestamp check remains the authoritative expiry test.
type ChallengeRepo struct {
	client     *dynamodb.Client
	tableName  string
	ttlSeconds int64
}

func NewChallengeRepo(client *dynamodb.Client, tableName string, ttlSeconds int) *ChallengeRepo {
	return &ChallengeRepo{client: client, tableName: tableName, ttlSeconds: int64(ttlSeconds)}
}

// Put stores a freshly issued challenge with its issuance timestamp.
func (r *ChallengeRepo) Put(ctx context.Context, k1 string, issuedAt int64) error {
	_, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item: map[string]types.AttributeValue{
			"k1":         &types.AttributeValueMemberS{Value: k1},
			"issued_at":  &types.AttributeValueMemberN{Value: formatInt(issuedAt)},
			"expires_at": &types.AttributeValueMemberN{Value: formatInt(issuedAt + r.ttlSeconds)},
		},
	})
	return err
}

// Contains reports whether the challenge is present. Existence only; the
// challenge is not consumed.
func (r *ChallengeRepo) Contains(ctx context.Context, k1 string) (bool, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("k1", k1),
	})
	if err != nil {
		return false, err
	}
	return out.Item != nil, nil
}

// Remove deletes the challenge. Deleting an absent key is not an error, so
// consumption is idempotent.
func (r *ChallengeRepo) Remove(ctx context.Context, k1 string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("k1", k1),
	})
	return err
}
