// Package models defines the catalog entities (tours and registrations) and
// their DynamoDB attribute mappings. Field names on the wire match the
// provisioning pipeline's schema, so JSON tags use its camelCase convention.
package models

import (
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Vector entry type discriminators stored in the "type" metadata field.
const (
	// TypeTourInfo marks a vector entry embedding a whole tour summary.
	TypeTourInfo = "tour_info"
	// TypeHeritageGuide marks a vector entry embedding one heritage-guide chunk.
	TypeHeritageGuide = "heritage_guide"
)

// Tour is a bookable catalog entry. Tours are created by an external
// provisioning process; this core only reads them and tags them with a
// type discriminator when indexed.
type Tour struct {
	// Place is the partition key and primary filter dimension.
	Place string `json:"place"`
	// TourID is the globally unique identifier (secondary index key).
	TourID string `json:"tourId"`
	// Title is the display title of the tour.
	Title string `json:"title"`
	// StartDate is the tour start as a Unix timestamp. StartDate <= EndDate.
	StartDate int64 `json:"startDate"`
	// EndDate is the tour end as a Unix timestamp.
	EndDate int64 `json:"endDate"`
	// Price is the non-negative price in the minor currency unit (VND).
	Price int64 `json:"price"`
	// Status is an optional lifecycle tag (e.g. "open", "full").
	Status string `json:"status,omitempty"`
	// Category is an optional catalog grouping.
	Category string `json:"category,omitempty"`
	// HeritageGuide is the object-storage key of the tour's heritage-guide
	// PDF. Empty when the tour has no guide.
	HeritageGuide string `json:"heritageGuide,omitempty"`
}

// SearchText returns the text embedded for semantic tour search.
func (t Tour) SearchText() string {
	return fmt.Sprintf("Tour in %s: %s. Price: %d VND", t.Place, t.Title, t.Price)
}

// Metadata returns the vector payload for this tour's summary entry,
// including the type discriminator used for filtered search.
func (t Tour) Metadata() map[string]any {
	md := map[string]any{
		"place":     t.Place,
		"tourId":    t.TourID,
		"title":     t.Title,
		"startDate": t.StartDate,
		"endDate":   t.EndDate,
		"price":     t.Price,
		"type":      TypeTourInfo,
	}
	if t.Status != "" {
		md["status"] = t.Status
	}
	if t.Category != "" {
		md["category"] = t.Category
	}
	if t.HeritageGuide != "" {
		md["heritageGuide"] = t.HeritageGuide
	}
	return md
}

// TourFromItem parses a DynamoDB item into a Tour.
func TourFromItem(item map[string]types.AttributeValue) (Tour, error) {
	place, err := strAttr(item, "place")
	if err != nil {
		return Tour{}, err
	}
	tourID, err := strAttr(item, "tourId")
	if err != nil {
		return Tour{}, err
	}
	title, err := strAttr(item, "title")
	if err != nil {
		return Tour{}, err
	}
	startDate, err := numAttr(item, "startDate")
	if err != nil {
		return Tour{}, err
	}
	endDate, err := numAttr(item, "endDate")
	if err != nil {
		return Tour{}, err
	}
	price, err := numAttr(item, "price")
	if err != nil {
		return Tour{}, err
	}

	return Tour{
		Place:         place,
		TourID:        tourID,
		Title:         title,
		StartDate:     startDate,
		EndDate:       endDate,
		Price:         price,
		Status:        optStrAttr(item, "status"),
		Category:      optStrAttr(item, "category"),
		HeritageGuide: optStrAttr(item, "heritageGuide"),
	}, nil
}

// Item converts the Tour to a DynamoDB attribute map. Optional fields are
// omitted when empty so the stored item matches the provisioning schema.
func (t Tour) Item() map[string]types.AttributeValue {
	item := map[string]types.AttributeValue{
		"place":     &types.AttributeValueMemberS{Value: t.Place},
		"tourId":    &types.AttributeValueMemberS{Value: t.TourID},
		"title":     &types.AttributeValueMemberS{Value: t.Title},
		"startDate": &types.AttributeValueMemberN{Value: strconv.FormatInt(t.StartDate, 10)},
		"endDate":   &types.AttributeValueMemberN{Value: strconv.FormatInt(t.EndDate, 10)},
		"price":     &types.AttributeValueMemberN{Value: strconv.FormatInt(t.Price, 10)},
	}
	if t.Status != "" {
		item["status"] = &types.AttributeValueMemberS{Value: t.Status}
	}
	if t.Category != "" {
		item["category"] = &types.AttributeValueMemberS{Value: t.Category}
	}
	if t.HeritageGuide != "" {
		item["heritageGuide"] = &types.AttributeValueMemberS{Value: t.HeritageGuide}
	}
	return item
}

// strAttr extracts a required string attribute from a DynamoDB item.
func strAttr(item map[string]types.AttributeValue, key string) (string, error) {
	v, ok := item[key]
	if !ok {
		return "", fmt.Errorf("models: missing attribute %q", key)
	}
	s, ok := v.(*types.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("models: attribute %q is not a string", key)
	}
	return s.Value, nil
}

// optStrAttr extracts an optional string attribute, returning "" when the
// attribute is absent or not a string.
func optStrAttr(item map[string]types.AttributeValue, key string) string {
	if s, ok := item[key].(*types.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}

// numAttr extracts a required numeric attribute from a DynamoDB item.
func numAttr(item map[string]types.AttributeValue, key string) (int64, error) {
	v, ok := item[key]
	if !ok {
		return 0, fmt.Errorf("models: missing attribute %q", key)
	}
	n, ok := v.(*types.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("models: attribute %q is not a number", key)
	}
	parsed, err := strconv.ParseInt(n.Value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("models: parse attribute %q: %w", key, err)
	}
	return parsed, nil
}
