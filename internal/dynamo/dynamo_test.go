package dynamo

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/tourchat/tourchat-go/internal/models"
	"github.com/tourchat/tourchat-go/internal/pagination"
)

// fakeAPI serves canned tour items in fixed-size pages, keyed off the
// ExclusiveStartKey the caller threads back, mimicking DynamoDB paging.
type fakeAPI struct {
	tours    []models.Tour
	pageSize int

	putItems  []map[string]types.AttributeValue
	putErr    error
	getResult map[string]types.AttributeValue
	queryErr  error
}

func (f *fakeAPI) GetItem(ctx context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	return &dynamodb.GetItemOutput{Item: f.getResult}, nil
}

func (f *fakeAPI) PutItem(ctx context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	f.putItems = append(f.putItems, in.Item)
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeAPI) Query(ctx context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	items, lastKey := f.slice(in.ExclusiveStartKey, in.Limit)
	return &dynamodb.QueryOutput{Items: items, LastEvaluatedKey: lastKey}, nil
}

func (f *fakeAPI) Scan(ctx context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	items, lastKey := f.slice(in.ExclusiveStartKey, in.Limit)
	return &dynamodb.ScanOutput{Items: items, LastEvaluatedKey: lastKey}, nil
}

// slice returns the page after the given start key. The start key's "pos"
// attribute records the index of the last item served.
func (f *fakeAPI) slice(start map[string]types.AttributeValue, limit *int32) ([]map[string]types.AttributeValue, map[string]types.AttributeValue) {
	from := 0
	if pos, ok := start["pos"].(*types.AttributeValueMemberN); ok {
		n, _ := strconv.Atoi(pos.Value)
		from = n + 1
	}

	size := f.pageSize
	if limit != nil && int(*limit) < size {
		size = int(*limit)
	}
	to := from + size
	if to > len(f.tours) {
		to = len(f.tours)
	}

	items := make([]map[string]types.AttributeValue, 0, to-from)
	for _, tour := range f.tours[from:to] {
		items = append(items, tour.Item())
	}

	if to < len(f.tours) {
		return items, map[string]types.AttributeValue{
			"pos": &types.AttributeValueMemberN{Value: strconv.Itoa(to - 1)},
		}
	}
	return items, nil
}

func makeTours(n int) []models.Tour {
	tours := make([]models.Tour, n)
	for i := range tours {
		tours[i] = models.Tour{
			Place:     "Hue",
			TourID:    "t-" + strconv.Itoa(i),
			Title:     "Tour " + strconv.Itoa(i),
			StartDate: 1700000000,
			EndDate:   1700086400,
			Price:     int64(100000 * (i + 1)),
		}
	}
	return tours
}

func Test_TourStore_PaginationContinuity(t *testing.T) {
	t.Parallel()

	all := makeTours(7)
	api := &fakeAPI{tours: all, pageSize: 3}
	store, err := NewTourStore(api, "Tours")
	if err != nil {
		t.Fatal(err)
	}

	seen := map[string]bool{}
	var tok *pagination.Token
	pages := 0
	for {
		tours, next, err := store.ByPlace(context.Background(), "Hue", 3, tok)
		if err != nil {
			t.Fatalf("page %d: %v", pages, err)
		}
		for _, tour := range tours {
			if seen[tour.TourID] {
				t.Fatalf("duplicate tour %s across pages", tour.TourID)
			}
			seen[tour.TourID] = true
		}
		pages++
		if next == nil {
			break
		}
		tok = next
	}

	if len(seen) != len(all) {
		t.Errorf("paged union has %d tours, want %d", len(seen), len(all))
	}
	if pages != 3 {
		t.Errorf("want 3 pages of size 3 for 7 tours, got %d", pages)
	}
}

func Test_TourStore_ScanLastPageHasNoToken(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{tours: makeTours(2), pageSize: 5}
	store, _ := NewTourStore(api, "Tours")

	tours, next, err := store.All(context.Background(), 5, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(tours) != 2 {
		t.Errorf("got %d tours, want 2", len(tours))
	}
	if next != nil {
		t.Error("exhausted scan must not advertise a next page")
	}
}

func Test_TourStore_ByID(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{tours: makeTours(1), pageSize: 5}
	store, _ := NewTourStore(api, "Tours")

	tour, found, err := store.ByID(context.Background(), "t-0")
	if err != nil {
		t.Fatal(err)
	}
	if !found || tour.TourID != "t-0" {
		t.Errorf("lookup: found=%v tour=%+v", found, tour)
	}

	empty := &fakeAPI{pageSize: 5}
	store, _ = NewTourStore(empty, "Tours")
	_, found, err = store.ByID(context.Background(), "nonexistent-id")
	if err != nil {
		t.Fatal(err)
	}
	if found {
		t.Error("missing tour reported as found")
	}
}

func Test_RegistrationStore_PutConditionalConflict(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{putErr: &types.ConditionalCheckFailedException{}}
	store, _ := NewRegistrationStore(api, "UserTours")

	err := store.Put(context.Background(), models.Registration{
		TourID: "t-1", PhoneNumber: "0905123456", CreateAt: 1, StartDate: 2,
	})
	if !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("want ErrAlreadyExists, got %v", err)
	}
}

func Test_RegistrationStore_PutWritesCondition(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{}
	store, _ := NewRegistrationStore(api, "UserTours")

	if err := store.Put(context.Background(), models.Registration{
		TourID: "t-1", PhoneNumber: "0905123456", CreateAt: 1, StartDate: 2,
	}); err != nil {
		t.Fatal(err)
	}
	if len(api.putItems) != 1 {
		t.Fatalf("want 1 put, got %d", len(api.putItems))
	}
}

// regPagingAPI serves canned registration items over two Query pages so the
// internal continuation-key loop in ByPhone is exercised.
type regPagingAPI struct {
	fakeAPI
	regs    []models.Registration
	queries int
}

func (f *regPagingAPI) Query(ctx context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.queries++
	half := len(f.regs) / 2

	from, to := 0, half
	var lastKey map[string]types.AttributeValue
	if len(in.ExclusiveStartKey) == 0 {
		lastKey = map[string]types.AttributeValue{
			"pos": &types.AttributeValueMemberN{Value: strconv.Itoa(half)},
		}
	} else {
		from, to = half, len(f.regs)
	}

	items := make([]map[string]types.AttributeValue, 0, to-from)
	for _, reg := range f.regs[from:to] {
		items = append(items, reg.Item())
	}
	return &dynamodb.QueryOutput{Items: items, LastEvaluatedKey: lastKey}, nil
}

func Test_RegistrationStore_ByPhoneFollowsContinuationKeys(t *testing.T) {
	t.Parallel()

	api := &regPagingAPI{regs: []models.Registration{
		{TourID: "t-3", PhoneNumber: "0905123456", CreateAt: 400, StartDate: 500},
		{TourID: "t-2", PhoneNumber: "0905123456", CreateAt: 300, StartDate: 500},
		{TourID: "t-1", PhoneNumber: "0905123456", CreateAt: 200, StartDate: 500},
		{TourID: "t-0", PhoneNumber: "0905123456", CreateAt: 100, StartDate: 500},
	}}
	store, _ := NewRegistrationStore(api, "UserTours")

	regs, err := store.ByPhone(context.Background(), "0905123456")
	if err != nil {
		t.Fatal(err)
	}
	if len(regs) != 4 {
		t.Fatalf("got %d registrations, want 4 across both pages", len(regs))
	}
	if api.queries != 2 {
		t.Errorf("want 2 queries (one per backend page), got %d", api.queries)
	}
	for i, reg := range regs {
		want := "t-" + strconv.Itoa(3-i)
		if reg.TourID != want {
			t.Errorf("position %d: got %s, want %s (newest first)", i, reg.TourID, want)
		}
	}
}

func Test_RegistrationStore_Exists(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{getResult: models.Registration{
		TourID: "t-1", PhoneNumber: "0905123456", CreateAt: 1, StartDate: 2,
	}.Item()}
	store, _ := NewRegistrationStore(api, "UserTours")

	ok, err := store.Exists(context.Background(), "t-1", "0905123456")
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Error("existing registration reported absent")
	}

	store, _ = NewRegistrationStore(&fakeAPI{}, "UserTours")
	ok, err = store.Exists(context.Background(), "t-1", "0905123456")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("absent registration reported present")
	}
}
