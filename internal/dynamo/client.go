// Package dynamo implements the structured key-value store adapters for the
// tour catalog: partition queries, paged scans, secondary-index lookups, and
// the conditional registration write. Both stores talk to DynamoDB through a
// minimal API interface so tests can inject fakes without a live endpoint.
package dynamo

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/tourchat/tourchat-go/internal/pagination"
)

// API is the subset of the DynamoDB client used by this package.
// Defined here for testability.
type API interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, in *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// NewClient constructs a DynamoDB client from the standard AWS credential
// chain (env vars, shared config, instance profile). Region comes from
// AWS_REGION or the shared config.
func NewClient(ctx context.Context) (*dynamodb.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("dynamo: load AWS config: %w", err)
	}
	return dynamodb.NewFromConfig(cfg), nil
}

// startKey rebuilds a DynamoDB ExclusiveStartKey from a decoded store token.
// Returns nil for a nil token (first page).
func startKey(tok *pagination.Token) map[string]types.AttributeValue {
	if tok == nil || len(tok.StoreKey) == 0 {
		return nil
	}
	key := make(map[string]types.AttributeValue, len(tok.StoreKey))
	for name, attr := range tok.StoreKey {
		if attr.Numeric {
			key[name] = &types.AttributeValueMemberN{Value: attr.Value}
		} else {
			key[name] = &types.AttributeValueMemberS{Value: attr.Value}
		}
	}
	return key
}

// nextToken flattens a LastEvaluatedKey into a store token, or nil when the
// backend reports no further pages.
func nextToken(lastKey map[string]types.AttributeValue) (*pagination.Token, error) {
	if len(lastKey) == 0 {
		return nil, nil
	}
	key := make(map[string]pagination.KeyAttr, len(lastKey))
	for name, attr := range lastKey {
		switch v := attr.(type) {
		case *types.AttributeValueMemberS:
			key[name] = pagination.KeyAttr{Value: v.Value}
		case *types.AttributeValueMemberN:
			key[name] = pagination.KeyAttr{Value: v.Value, Numeric: true}
		default:
			return nil, fmt.Errorf("dynamo: unsupported key attribute type for %q", name)
		}
	}
	tok := pagination.NewStoreToken(key)
	return &tok, nil
}
