package dynamo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/tourchat/tourchat-go/internal/models"
	"github.com/tourchat/tourchat-go/internal/pagination"
)

// tourIDIndex is the global secondary index on the Tours table keyed by
// tourId, used for point lookups when the partition key is unknown.
const tourIDIndex = "tourId-index"

// TourStore reads tours from the Tours table. Tours are written by an
// external provisioning process; this adapter is read-only.
type TourStore struct {
	api   API
	table string
}

// NewTourStore constructs a TourStore over the given API and table name.
func NewTourStore(api API, table string) (*TourStore, error) {
	if api == nil {
		return nil, errors.New("dynamo: api must not be nil")
	}
	if strings.TrimSpace(table) == "" {
		return nil, errors.New("dynamo: tours table name must not be empty")
	}
	return &TourStore{api: api, table: table}, nil
}

// ByPlace queries the place partition and returns one page of tours.
// The returned token is nil when the store reports no further pages.
// Result order within a page is partition order; callers must not assume
// any global sort.
func (s *TourStore) ByPlace(ctx context.Context, place string, limit int32, tok *pagination.Token) ([]models.Tour, *pagination.Token, error) {
	in := &dynamodb.QueryInput{
		TableName:              aws.String(s.table),
		KeyConditionExpression: aws.String("place = :p"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":p": &types.AttributeValueMemberS{Value: place},
		},
		ExclusiveStartKey: startKey(tok),
	}
	if limit > 0 {
		in.Limit = aws.Int32(limit)
	}

	out, err := s.api.Query(ctx, in)
	if err != nil {
		return nil, nil, fmt.Errorf("dynamo: query tours for %q: %w", place, err)
	}
	return s.page(out.Items, out.LastEvaluatedKey)
}

// All scans the full Tours table and returns one page. Insertion order,
// no global sort guarantee.
func (s *TourStore) All(ctx context.Context, limit int32, tok *pagination.Token) ([]models.Tour, *pagination.Token, error) {
	in := &dynamodb.ScanInput{
		TableName:         aws.String(s.table),
		ExclusiveStartKey: startKey(tok),
	}
	if limit > 0 {
		in.Limit = aws.Int32(limit)
	}

	out, err := s.api.Scan(ctx, in)
	if err != nil {
		return nil, nil, fmt.Errorf("dynamo: scan tours: %w", err)
	}
	return s.page(out.Items, out.LastEvaluatedKey)
}

// ByID looks a tour up through the tourId secondary index.
// The second return value reports whether the tour exists.
func (s *TourStore) ByID(ctx context.Context, tourID string) (models.Tour, bool, error) {
	out, err := s.api.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.table),
		IndexName:              aws.String(tourIDIndex),
		KeyConditionExpression: aws.String("tourId = :id"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":id": &types.AttributeValueMemberS{Value: tourID},
		},
		Limit: aws.Int32(1),
	})
	if err != nil {
		return models.Tour{}, false, fmt.Errorf("dynamo: lookup tour %q: %w", tourID, err)
	}
	if len(out.Items) == 0 {
		return models.Tour{}, false, nil
	}

	tour, err := models.TourFromItem(out.Items[0])
	if err != nil {
		return models.Tour{}, false, fmt.Errorf("dynamo: decode tour %q: %w", tourID, err)
	}
	return tour, true, nil
}

// page maps raw items to Tour entities and flattens the continuation key.
func (s *TourStore) page(items []map[string]types.AttributeValue, lastKey map[string]types.AttributeValue) ([]models.Tour, *pagination.Token, error) {
	tours := make([]models.Tour, 0, len(items))
	for _, item := range items {
		tour, err := models.TourFromItem(item)
		if err != nil {
			return nil, nil, fmt.Errorf("dynamo: decode tour item: %w", err)
		}
		tours = append(tours, tour)
	}

	next, err := nextToken(lastKey)
	if err != nil {
		return nil, nil, err
	}
	return tours, next, nil
}
