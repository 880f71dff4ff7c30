package models

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

func Test_TourFromItem_AllFields(t *testing.T) {
	t.Parallel()

	item := map[string]types.AttributeValue{
		"place":         &types.AttributeValueMemberS{Value: "Hue"},
		"tourId":        &types.AttributeValueMemberS{Value: "t-001"},
		"title":         &types.AttributeValueMemberS{Value: "Imperial City walk"},
		"startDate":     &types.AttributeValueMemberN{Value: "1700000000"},
		"endDate":       &types.AttributeValueMemberN{Value: "1700086400"},
		"price":         &types.AttributeValueMemberN{Value: "550000"},
		"status":        &types.AttributeValueMemberS{Value: "open"},
		"category":      &types.AttributeValueMemberS{Value: "culture"},
		"heritageGuide": &types.AttributeValueMemberS{Value: "guides/hue.pdf"},
	}

	tour, err := TourFromItem(item)
	if err != nil {
		t.Fatalf("TourFromItem: %v", err)
	}
	if tour.Place != "Hue" || tour.TourID != "t-001" {
		t.Errorf("keys: got %s/%s", tour.Place, tour.TourID)
	}
	if tour.StartDate != 1700000000 || tour.EndDate != 1700086400 {
		t.Errorf("dates: got %d/%d", tour.StartDate, tour.EndDate)
	}
	if tour.Price != 550000 {
		t.Errorf("price: got %d", tour.Price)
	}
	if tour.HeritageGuide != "guides/hue.pdf" {
		t.Errorf("heritageGuide: got %q", tour.HeritageGuide)
	}
}

func Test_TourFromItem_OptionalFieldsAbsent(t *testing.T) {
	t.Parallel()

	item := map[string]types.AttributeValue{
		"place":     &types.AttributeValueMemberS{Value: "Hoi An"},
		"tourId":    &types.AttributeValueMemberS{Value: "t-002"},
		"title":     &types.AttributeValueMemberS{Value: "Old town lanterns"},
		"startDate": &types.AttributeValueMemberN{Value: "1700000000"},
		"endDate":   &types.AttributeValueMemberN{Value: "1700003600"},
		"price":     &types.AttributeValueMemberN{Value: "300000"},
	}

	tour, err := TourFromItem(item)
	if err != nil {
		t.Fatalf("TourFromItem: %v", err)
	}
	if tour.Status != "" || tour.Category != "" || tour.HeritageGuide != "" {
		t.Errorf("optional fields should be empty, got %q/%q/%q", tour.Status, tour.Category, tour.HeritageGuide)
	}
}

func Test_TourFromItem_MissingRequired(t *testing.T) {
	t.Parallel()

	item := map[string]types.AttributeValue{
		"place": &types.AttributeValueMemberS{Value: "Hue"},
	}
	if _, err := TourFromItem(item); err == nil {
		t.Fatal("expected error for missing tourId")
	}
}

func Test_Tour_ItemRoundTrip(t *testing.T) {
	t.Parallel()

	tour := Tour{
		Place:     "Ha Noi",
		TourID:    "t-010",
		Title:     "Hoan Kiem lake",
		StartDate: 1710000000,
		EndDate:   1710086400,
		Price:     450000,
		Category:  "city",
	}

	got, err := TourFromItem(tour.Item())
	if err != nil {
		t.Fatalf("round trip: %v", err)
	}
	if got != tour {
		t.Errorf("round trip mismatch: got %+v want %+v", got, tour)
	}
	// Empty optional fields must not be materialised as empty attributes.
	if _, ok := tour.Item()["status"]; ok {
		t.Error("empty status should be omitted from item")
	}
}

func Test_Tour_SearchText(t *testing.T) {
	t.Parallel()

	tour := Tour{Place: "Hoi An", Title: "Old town lanterns", Price: 300000}
	want := "Tour in Hoi An: Old town lanterns. Price: 300000 VND"
	if got := tour.SearchText(); got != want {
		t.Errorf("SearchText: got %q want %q", got, want)
	}
}

func Test_Tour_MetadataType(t *testing.T) {
	t.Parallel()

	md := Tour{Place: "Hue", TourID: "t-001", Title: "x"}.Metadata()
	if md["type"] != TypeTourInfo {
		t.Errorf("type: got %v", md["type"])
	}
	if _, ok := md["status"]; ok {
		t.Error("empty status should be omitted from metadata")
	}
}

func Test_RegistrationRoundTrip(t *testing.T) {
	t.Parallel()

	reg := Registration{
		TourID:      "t-001",
		PhoneNumber: "0905123456",
		CreateAt:    1712000000,
		StartDate:   1712345678,
	}
	got, err := RegistrationFromItem(reg.Item())
	if err != nil {
		t.Fatalf("round trip: %v", err)
	}
	if got != reg {
		t.Errorf("round trip mismatch: got %+v want %+v", got, reg)
	}
}
