package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/BlixtWallet/noah-sub000/internal/domain"
)

// UserRepo persists wallet users. PK: pubkey, GSI: lightning_address-index.
type UserRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewUserRepo(client *dynamodb.Client, tableName string) *UserRepo {
	return &UserRepo{client: client, tableName: tableName}
}

func (r *UserRepo) Put(ctx context.Context, u *domain.User) error {
	item, err := attributevalue.MarshalMap(u)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *UserRepo) Get(ctx context.Context, pubkey string) (*domain.User, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("pubkey", pubkey),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("user %s: %w", pubkey, domain.ErrNotFound)
	}
	var u domain.User
	if err := attributevalue.UnmarshalMap(out.Item, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByLightningAddress resolves a user through the lightning_address-index GSI.
func (r *UserRepo) GetByLightningAddress(ctx context.Context, address string) (*domain.User, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("lightning_address-index"),
		KeyConditionExpression: aws.String("lightning_address = :a"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":a": &types.AttributeValueMemberS{Value: address},
		},
		Limit: aws.Int32(1),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("lightning address %s: %w", address, domain.ErrNotFound)
	}
	var u domain.User
	if err := attributevalue.UnmarshalMap(out.Items[0], &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) Update(ctx context.Context, pubkey string, updates map[string]interface{}) error {
	expr, names, values, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("pubkey", pubkey),
		UpdateExpression:          aws.String(expr),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	})
	return err
}

// Delete removes the user row entirely. Deregistration is a hard delete: a
// deregistered wallet leaves no account behind.
func (r *UserRepo) Delete(ctx context.Context, pubkey string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("pubkey", pubkey),
	})
	return err
}

// ListAllPubkeys returns every registered pubkey. Used by high-priority
// broadcasts, which target all users.
func (r *UserRepo) ListAllPubkeys(ctx context.Context) ([]string, error) {
	return r.scanPubkeys(ctx, nil, nil)
}

// ListBackupEnabledPubkeys returns the pubkeys of users who have opted into
// scheduled backups.
func (r *UserRepo) ListBackupEnabledPubkeys(ctx context.Context) ([]string, error) {
	filter := aws.String("backup_enabled = :t")
	values := map[string]types.AttributeValue{
		":t": &types.AttributeValueMemberBOOL{Value: true},
	}
	return r.scanPubkeys(ctx, filter, values)
}

func (r *UserRepo) scanPubkeys(ctx context.Context, filter *string, values map[string]types.AttributeValue) ([]string, error) {
	var pubkeys []string
	var startKey map[string]types.AttributeValue
	for {
		out, err := r.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:                 aws.String(r.tableName),
			ProjectionExpression:      aws.String("pubkey"),
			FilterExpression:          filter,
			ExpressionAttributeValues: values,
			ExclusiveStartKey:         startKey,
		})
		if err != nil {
			return nil, err
		}
		for _, item := range out.Items {
			if v, ok := item["pubkey"].(*types.AttributeValueMemberS); ok {
				pubkeys = append(pubkeys, v.Value)
			}
		}
		if out.LastEvaluatedKey == nil {
			return pubkeys, nil
		}
		startKey = out.LastEvaluatedKey
	}
}
