package models

import (
	"strconv"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Registration links a phone number to a tour. At most one registration
// exists per (tourId, phoneNumber) pair; records are never mutated or
// deleted by this core.
type Registration struct {
	// TourID is the registered tour's unique identifier.
	TourID string `json:"tourId"`
	// PhoneNumber is the customer's phone number.
	PhoneNumber string `json:"phoneNumber"`
	// CreateAt is the Unix timestamp of the write.
	CreateAt int64 `json:"createAt"`
	// StartDate is the tour's start date, denormalized at registration time
	// so registered-tour listings sort without a join.
	StartDate int64 `json:"startDate"`
}

// RegistrationFromItem parses a DynamoDB item into a Registration.
func RegistrationFromItem(item map[string]types.AttributeValue) (Registration, error) {
	tourID, err := strAttr(item, "tourId")
	if err != nil {
		return Registration{}, err
	}
	phone, err := strAttr(item, "phoneNumber")
	if err != nil {
		return Registration{}, err
	}
	createAt, err := numAttr(item, "createAt")
	if err != nil {
		return Registration{}, err
	}
	startDate, err := numAttr(item, "startDate")
	if err != nil {
		return Registration{}, err
	}

	return Registration{
		TourID:      tourID,
		PhoneNumber: phone,
		CreateAt:    createAt,
		StartDate:   startDate,
	}, nil
}

// Item converts the Registration to a DynamoDB attribute map.
func (r Registration) Item() map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"tourId":      &types.AttributeValueMemberS{Value: r.TourID},
		"phoneNumber": &types.AttributeValueMemberS{Value: r.PhoneNumber},
		"createAt":    &types.AttributeValueMemberN{Value: strconv.FormatInt(r.CreateAt, 10)},
		"startDate":   &types.AttributeValueMemberN{Value: strconv.FormatInt(r.StartDate, 10)},
	}
}
