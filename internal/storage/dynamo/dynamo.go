// Package dynamo stores the document as a single DynamoDB item.
package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/AlexTLDR/flok/internal/store"
)

// API is the part of the DynamoDB client the backend uses.
type API interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

type record struct {
	Key       string `dynamodbav:"key"`
	Data      string `dynamodbav:"data"`
	UpdatedAt string `dynamodbav:"updatedAt"`
}

type Backend struct {
	client API
	table  string
}

func New(client API, table string) *Backend {
	return &Backend{client: client, table: table}
}

// NewFromRegion builds a client from the default AWS credential chain.
func NewFromRegion(ctx context.Context, region, table string) (*Backend, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return New(dynamodb.NewFromConfig(cfg), table), nil
}

func (b *Backend) Load(ctx context.Context, key string) ([]byte, error) {
	out, err := b.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(b.table),
		Key:            map[string]types.AttributeValue{"key": &types.AttributeValueMemberS{Value: key}},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get item from table '%s': %w", b.table, err)
	}
	if out.Item == nil {
		return nil, store.ErrNotFound
	}

	var rec record
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal item: %w", err)
	}
	return []byte(rec.Data), nil
}

// Save replaces the item. DynamoDB caps items at 400 KB, which bounds the
// document size on this backend.
func (b *Backend) Save(ctx context.Context, key string, data []byte) error {
	item, err := attributevalue.MarshalMap(record{
		Key:       key,
		Data:      string(data),
		UpdatedAt: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal item: %w", err)
	}
	_, err = b.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(b.table),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("failed to put item in table '%s': %w", b.table, err)
	}
	return nil
}
