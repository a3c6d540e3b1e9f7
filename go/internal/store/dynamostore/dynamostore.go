// Package dynamostore backs the entity store with a single DynamoDB
// table. The table uses PK/SK string keys; every other attribute of an
// item is flattened alongside them, matching the production layout.
package dynamostore

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"

	"github.com/mcdev12/deadpool/go/internal/store"
)

// batchGetLimit is the DynamoDB BatchGetItem per-request cap.
const batchGetLimit = 100

type DynamoStore struct {
	client *dynamodb.Client
	table  string
}

// New builds a store against the named table using the default AWS
// credential chain.
func New(ctx context.Context, table string) (*DynamoStore, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}
	return NewWithClient(dynamodb.NewFromConfig(cfg), table), nil
}

// NewWithClient wraps an existing DynamoDB client, used when the caller
// manages AWS configuration itself.
func NewWithClient(client *dynamodb.Client, table string) *DynamoStore {
	return &DynamoStore{client: client, table: table}
}

func (d *DynamoStore) Get(ctx context.Context, key store.Key) (*store.Item, error) {
	out, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(d.table),
		Key:       keyAttrs(key),
	})
	if err != nil {
		return nil, wrapErr("get item", err)
	}
	if out.Item == nil {
		return nil, fmt.Errorf("get %s/%s: %w", key.PK, key.SK, store.ErrNotFound)
	}
	return itemFromAttrs(out.Item)
}

func (d *DynamoStore) Put(ctx context.Context, item store.Item) error {
	attrs, err := attrsFromItem(item)
	if err != nil {
		return err
	}
	_, err = d.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(d.table),
		Item:      attrs,
	})
	if err != nil {
		return wrapErr("put item", err)
	}
	return nil
}

func (d *DynamoStore) PutIfAbsent(ctx context.Context, item store.Item) error {
	attrs, err := attrsFromItem(item)
	if err != nil {
		return err
	}
	_, err = d.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(d.table),
		Item:                attrs,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		var ccf *ddbtypes.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return fmt.Errorf("put %s/%s: %w", item.PK, item.SK, store.ErrConditionFailed)
		}
		return wrapErr("conditional put", err)
	}
	return nil
}

func (d *DynamoStore) Delete(ctx context.Context, key store.Key) error {
	_, err := d.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(d.table),
		Key:       keyAttrs(key),
	})
	if err != nil {
		return wrapErr("delete item", err)
	}
	return nil
}

func (d *DynamoStore) QueryPrefix(ctx context.Context, pk, skPrefix string) ([]store.Item, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(d.table),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :prefix)"),
		ExpressionAttributeValues: map[string]ddbtypes.AttributeValue{
			":pk":     &ddbtypes.AttributeValueMemberS{Value: pk},
			":prefix": &ddbtypes.AttributeValueMemberS{Value: skPrefix},
		},
	}
	if skPrefix == "" {
		input.KeyConditionExpression = aws.String("PK = :pk")
		delete(input.ExpressionAttributeValues, ":prefix")
	}

	var items []store.Item
	paginator := dynamodb.NewQueryPaginator(d.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, wrapErr("query", err)
		}
		for _, attrs := range page.Items {
			item, err := itemFromAttrs(attrs)
			if err != nil {
				return nil, err
			}
			items = append(items, *item)
		}
	}
	return items, nil
}

func (d *DynamoStore) BatchGet(ctx context.Context, keys []store.Key) ([]store.Item, error) {
	var items []store.Item
	for start := 0; start < len(keys); start += batchGetLimit {
		end := min(start+batchGetLimit, len(keys))

		request := map[string]ddbtypes.KeysAndAttributes{
			d.table: {Keys: batchKeys(keys[start:end])},
		}
		for len(request) > 0 {
			out, err := d.client.BatchGetItem(ctx, &dynamodb.BatchGetItemInput{
				RequestItems: request,
			})
			if err != nil {
				return nil, wrapErr("batch get", err)
			}
			for _, attrs := range out.Responses[d.table] {
				item, err := itemFromAttrs(attrs)
				if err != nil {
					return nil, err
				}
				items = append(items, *item)
			}
			request = out.UnprocessedKeys
		}
	}
	return items, nil
}

func keyAttrs(key store.Key) map[string]ddbtypes.AttributeValue {
	return map[string]ddbtypes.AttributeValue{
		"PK": &ddbtypes.AttributeValueMemberS{Value: key.PK},
		"SK": &ddbtypes.AttributeValueMemberS{Value: key.SK},
	}
}

func batchKeys(keys []store.Key) []map[string]ddbtypes.AttributeValue {
	out := make([]map[string]ddbtypes.AttributeValue, len(keys))
	for i, key := range keys {
		out[i] = keyAttrs(key)
	}
	return out
}

func attrsFromItem(item store.Item) (map[string]ddbtypes.AttributeValue, error) {
	attrs, err := attributevalue.MarshalMap(item.Attributes)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal item attributes: %w", err)
	}
	attrs["PK"] = &ddbtypes.AttributeValueMemberS{Value: item.PK}
	attrs["SK"] = &ddbtypes.AttributeValueMemberS{Value: item.SK}
	return attrs, nil
}

func itemFromAttrs(attrs map[string]ddbtypes.AttributeValue) (*store.Item, error) {
	var raw map[string]any
	if err := attributevalue.UnmarshalMap(attrs, &raw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal item attributes: %w", err)
	}

	item := store.Item{Attributes: raw}
	if pk, ok := raw["PK"].(string); ok {
		item.PK = pk
	}
	if sk, ok := raw["SK"].(string); ok {
		item.SK = sk
	}
	delete(raw, "PK")
	delete(raw, "SK")
	return &item, nil
}

// wrapErr tags throttling and server-side failures as transient so the
// repository's retry loop picks them up.
func wrapErr(op string, err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "ProvisionedThroughputExceededException",
			"ThrottlingException",
			"RequestLimitExceeded",
			"InternalServerError",
			"ServiceUnavailable":
			return fmt.Errorf("%s: %v: %w", op, err, store.ErrTransient)
		}
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}
