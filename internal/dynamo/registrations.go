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
)

// phoneIndex is the global secondary index on the UserTours table keyed by
// phoneNumber with createAt as the sort key.
const phoneIndex = "phoneNumber-createAt-index"

// ErrAlreadyExists is returned by Put when a registration for the same
// (tourId, phoneNumber) pair already exists. Uniqueness is enforced by the
// store's conditional write, so two racing registrations cannot both land.
var ErrAlreadyExists = errors.New("dynamo: registration already exists")

// RegistrationStore reads and writes UserTours registration records.
type RegistrationStore struct {
	api   API
	table string
}

// NewRegistrationStore constructs a RegistrationStore over the given API
// and table name.
func NewRegistrationStore(api API, table string) (*RegistrationStore, error) {
	if api == nil {
		return nil, errors.New("dynamo: api must not be nil")
	}
	if strings.TrimSpace(table) == "" {
		return nil, errors.New("dynamo: registrations table name must not be empty")
	}
	return &RegistrationStore{api: api, table: table}, nil
}

// ByPhone returns all registrations for a phone number, newest first.
// Continuation keys are followed internally so the caller always gets the
// complete set.
func (s *RegistrationStore) ByPhone(ctx context.Context, phoneNumber string) ([]models.Registration, error) {
	var regs []models.Registration
	var startKey map[string]types.AttributeValue

	for {
		out, err := s.api.Query(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(s.table),
			IndexName:              aws.String(phoneIndex),
			KeyConditionExpression: aws.String("phoneNumber = :p"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":p": &types.AttributeValueMemberS{Value: phoneNumber},
			},
			ScanIndexForward:  aws.Bool(false),
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("dynamo: query registrations for %q: %w", phoneNumber, err)
		}

		for _, item := range out.Items {
			reg, err := models.RegistrationFromItem(item)
			if err != nil {
				return nil, fmt.Errorf("dynamo: decode registration item: %w", err)
			}
			regs = append(regs, reg)
		}

		if len(out.LastEvaluatedKey) == 0 {
			return regs, nil
		}
		startKey = out.LastEvaluatedKey
	}
}

// Exists reports whether a registration for the (tourID, phoneNumber) pair
// is present. Used as a pre-check so callers can fail early with a clear
// message; the write itself does not rely on this read.
func (s *RegistrationStore) Exists(ctx context.Context, tourID, phoneNumber string) (bool, error) {
	out, err := s.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			"tourId":      &types.AttributeValueMemberS{Value: tourID},
			"phoneNumber": &types.AttributeValueMemberS{Value: phoneNumber},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return false, fmt.Errorf("dynamo: check registration %s/%s: %w", tourID, phoneNumber, err)
	}
	return len(out.Item) > 0, nil
}

// Put writes a registration with insert-if-absent semantics. The condition
// expression makes the (tourId, phoneNumber) uniqueness invariant hold even
// when two callers race past Exists; the loser gets ErrAlreadyExists.
func (s *RegistrationStore) Put(ctx context.Context, reg models.Registration) error {
	_, err := s.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.table),
		Item:                reg.Item(),
		ConditionExpression: aws.String("attribute_not_exists(tourId) AND attribute_not_exists(phoneNumber)"),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("dynamo: put registration %s/%s: %w", reg.TourID, reg.PhoneNumber, err)
	}
	return nil
}
