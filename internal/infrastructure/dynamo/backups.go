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

// BackupRepo tracks backup metadata (the objects themselves live in S3).
// PK: pubkey, SK: backup_version.
type BackupRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewBackupRepo(client *dynamodb.Client, tableName string) *BackupRepo {
	return &BackupRepo{client: client, tableName: tableName}
}

func (r *BackupRepo) Put(ctx context.Context, b *domain.Backup) error {
	item, err := attributevalue.MarshalMap(b)
	if err != nil {
		return fmt.Errorf("marshal backup: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *BackupRepo) Get(ctx context.Context, pubkey string, version int) (*domain.Backup, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       numKey("pubkey", pubkey, "backup_version", version),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("backup v%d for %s: %w", version, pubkey, domain.ErrNotFound)
	}
	var b domain.Backup
	if err := attributevalue.UnmarshalMap(out.Item, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *BackupRepo) List(ctx context.Context, pubkey string) ([]domain.Backup, error) {
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
	var backups []domain.Backup
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &backups); err != nil {
		return nil, err
	}
	return backups, nil
}

// Latest returns the most recently created backup for pubkey.
func (r *BackupRepo) Latest(ctx context.Context, pubkey string) (*domain.Backup, error) {
	backups, err := r.List(ctx, pubkey)
	if err != nil {
		return nil, err
	}
	if len(backups) == 0 {
		return nil, fmt.Errorf("backups for %s: %w", pubkey, domain.ErrNotFound)
	}
	latest := backups[0]
	for _, b := range backups[1:] {
		if b.CreatedAt.After(latest.CreatedAt) {
			latest = b
		}
	}
	return &latest, nil
}

func (r *BackupRepo) Delete(ctx context.Context, pubkey string, version int) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       numKey("pubkey", pubkey, "backup_version", version),
	})
	return err
}

// DeleteAll removes every backup row for pubkey. Called on deregistration.
func (r *BackupRepo) DeleteAll(ctx context.Context, pubkey string) error {
	backups, err := r.List(ctx, pubkey)
	if err != nil {
		return err
	}
	for _, b := range backups {
		if err := r.Delete(ctx, pubkey, b.Version); err != nil {
			return err
		}
	}
	return nil
}
