package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/BlixtWallet/noah-sub000/internal/domain"
)

// minimumVersionID is the fixed key of the single minimum-required-version row.
const minimumVersionID = "minimum"

// AppVersionRepo stores the minimum client version the server accepts.
type AppVersionRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewAppVersionRepo(client *dynamodb.Client, tableName string) *AppVersionRepo {
	return &AppVersionRepo{client: client, tableName: tableName}
}

func (r *AppVersionRepo) GetMinimum(ctx context.Context) (*domain.AppVersion, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("version_id", minimumVersionID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("minimum app version: %w", domain.ErrNotFound)
	}
	var v domain.AppVersion
	if err := attributevalue.UnmarshalMap(out.Item, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *AppVersionRepo) SetMinimum(ctx context.Context, minimum string) error {
	item, err := attributevalue.MarshalMap(&domain.AppVersion{
		VersionID: minimumVersionID,
		Minimum:   minimum,
	})
	if err != nil {
		return fmt.Errorf("marshal app version: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}
