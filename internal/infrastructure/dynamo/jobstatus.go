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

// JobStatusRepo tracks background-job outcomes per dispatched push.
// PK: k1. The per-device challenge embedded in the push uniquely identifies
// the dispatch, and the device reports back authenticated with that same k1.
type JobStatusRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewJobStatusRepo(client *dynamodb.Client, tableName string) *JobStatusRepo {
	return &JobStatusRepo{client: client, tableName: tableName}
}

// CreatePending inserts a pending record for a freshly dispatched
// maintenance or backup push.
func (r *JobStatusRepo) CreatePending(ctx context.Context, pubkey, k1 string, reportType domain.ReportType) error {
	now := time.Now().UTC()
	js := &domain.JobStatus{
		Pubkey:    pubkey,
		K1:        k1,
		Type:      reportType,
		Status:    domain.ReportPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	item, err := attributevalue.MarshalMap(js)
	if err != nil {
		return fmt.Errorf("marshal job status: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *JobStatusRepo) Get(ctx context.Context, k1 string) (*domain.JobStatus, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("k1", k1),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("job status for k1: %w", domain.ErrNotFound)
	}
	var js domain.JobStatus
	if err := attributevalue.UnmarshalMap(out.Item, &js); err != nil {
		return nil, err
	}
	return &js, nil
}

// UpdateStatus records the outcome a device reported for the dispatch
// identified by k1.
func (r *JobStatusRepo) UpdateStatus(ctx context.Context, k1 string, status domain.ReportStatus, errorMessage *string) error {
	updates := map[string]interface{}{
		"status":     string(status),
		"updated_at": time.Now().UTC().Format(time.RFC3339Nano),
	}
	if errorMessage != nil {
		updates["error_message"] = *errorMessage
	}
	expr, names, values, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("k1", k1),
		UpdateExpression:          aws.String(expr),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	})
	return err
}

// PruneOlderThan deletes records created before cutoff. Run from the
// background scheduler so the table stays bounded.
func (r *JobStatusRepo) PruneOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	pruned := 0
	var startKey map[string]types.AttributeValue
	for {
		out, err := r.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:            aws.String(r.tableName),
			ProjectionExpression: aws.String("k1, created_at"),
			FilterExpression:     aws.String("created_at < :c"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":c": &types.AttributeValueMemberS{Value: cutoff.UTC().Format(time.RFC3339)},
			},
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return pruned, err
		}
		for _, item := range out.Items {
			v, ok := item["k1"].(*types.AttributeValueMemberS)
			if !ok {
				continue
			}
			if _, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
				TableName: aws.String(r.tableName),
				Key:       strKey("k1", v.Value),
			}); err != nil {
				return pruned, err
			}
			pruned++
		}
		if out.LastEvaluatedKey == nil {
			return pruned, nil
		}
		startKey = out.LastEvaluatedKey
	}
}
