package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/BlixtWallet/noah-sub000/internal/domain"
)

// OffboardingRepo persists offboarding requests.
// PK: request_id, GSI: pubkey-index.
type OffboardingRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewOffboardingRepo(client *dynamodb.Client, tableName string) *OffboardingRepo {
	return &OffboardingRepo{client: client, tableName: tableName}
}

func (r *OffboardingRepo) Put(ctx context.Context, req *domain.OffboardingRequest) error {
	item, err := attributevalue.MarshalMap(req)
	if err != nil {
		return fmt.Errorf("marshal offboarding request: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *OffboardingRepo) Get(ctx context.Context, requestID string) (*domain.OffboardingRequest, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("request_id", requestID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("offboarding request %s: %w", requestID, domain.ErrNotFound)
	}
	var req domain.OffboardingRequest
	if err := attributevalue.UnmarshalMap(out.Item, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *OffboardingRepo) UpdateStatus(ctx context.Context, requestID string, status domain.OffboardingStatus) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:        aws.String(r.tableName),
		Key:              strKey("request_id", requestID),
		UpdateExpression: aws.String("SET #s = :s, updated_at = :u"),
		ExpressionAttributeNames: map[string]string{
			"#s": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":s": &types.AttributeValueMemberS{Value: string(status)},
			":u": &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339)},
		},
	})
	return err
}

// HasActiveRequest reports whether pubkey has any request in pending or
// processing state. The coordinator reads this to suppress maintenance
// pushes mid-offboarding.
func (r *OffboardingRepo) HasActiveRequest(ctx context.Context, pubkey string) (bool, error) {
	reqs, err := r.listByPubkey(ctx, pubkey)
	if err != nil {
		return false, err
	}
	for _, req := range reqs {
		if req.Status.Active() {
			return true, nil
		}
	}
	return false, nil
}

// FindAllPending returns every request still waiting to be processed.
func (r *OffboardingRepo) FindAllPending(ctx context.Context) ([]domain.OffboardingRequest, error) {
	out, err := r.client.Scan(ctx, &dynamodb.ScanInput{
		TableName:        aws.String(r.tableName),
		FilterExpression: aws.String("#s = :s"),
		ExpressionAttributeNames: map[string]string{
			"#s": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":s": &types.AttributeValueMemberS{Value: string(domain.OffboardingPending)},
		},
	})
	if err != nil {
		return nil, err
	}
	var reqs []domain.OffboardingRequest
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &reqs); err != nil {
		return nil, err
	}
	return reqs, nil
}

func (r *OffboardingRepo) listByPubkey(ctx context.Context, pubkey string) ([]domain.OffboardingRequest, error) {
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
	var reqs []domain.OffboardingRequest
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &reqs); err != nil {
		return nil, err
	}
	return reqs, nil
}
