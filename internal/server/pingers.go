package server

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// dynamoDescribeAPI is the subset of the DynamoDB client used by DynamoPinger.
// Defined here for testability.
type dynamoDescribeAPI interface {
	DescribeTable(ctx context.Context, in *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

// DynamoPinger probes a DynamoDB table by describing it. It satisfies the
// Pinger interface and is used by GET /api/ready. Describe is free of
// read-capacity cost, so it is safe to call on every readiness check.
type DynamoPinger struct {
	// api is the DynamoDB client to probe.
	api dynamoDescribeAPI
	// table is the table name to describe.
	table string
}

// NewDynamoPinger constructs a DynamoPinger for the given client and table.
func NewDynamoPinger(api dynamoDescribeAPI, table string) *DynamoPinger {
	return &DynamoPinger{api: api, table: table}
}

// Name returns the dependency label used in readiness responses.
func (p *DynamoPinger) Name() string { return "dynamodb" }

// Ping describes the configured table.
// Returns nil if DynamoDB is reachable and the table exists.
func (p *DynamoPinger) Ping(ctx context.Context) error {
	_, err := p.api.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: &p.table})
	if err != nil {
		return fmt.Errorf("describe table %q failed: %w", p.table, err)
	}
	return nil
}
