package orders

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/mammadovafidan/fruits-e-commerce-website/internal/aws"
)

// ErrDuplicateOrder is returned when an order with the same id already exists.
var ErrDuplicateOrder = errors.New("order already exists")

// Store encapsulates operations on the orders table.
type Store struct {
	client    aws.DynamoDBAPI
	tableName string
	pageSize  int32
	nowFunc   func() time.Time
}

// NewStore creates a new orders Store.
func NewStore(client aws.DynamoDBAPI, tableName string) *Store {
	return &Store{
		client:    client,
		tableName: tableName,
		pageSize:  100,
		nowFunc:   time.Now,
	}
}

// Create inserts a new order. The write is conditional on order_id so an
// order is never overwritten.
func (s *Store) Create(ctx context.Context, o Order) error {
	if o.OrderID == "" {
		return errors.New("order id is required")
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = s.nowFunc()
	}
	if o.Status == "" {
		o.Status = StatusPending
	}

	item, err := attributevalue.MarshalMap(toRecord(o))
	if err != nil {
		return fmt.Errorf("marshal order: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName:           &s.tableName,
		Item:                item,
		ConditionExpression: awsString("attribute_not_exists(order_id)"),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return ErrDuplicateOrder
		}
		var sc smithy.APIError
		if errors.As(err, &sc) && sc.ErrorCode() == "ConditionalCheckFailedException" {
			return ErrDuplicateOrder
		}
		return fmt.Errorf("put order: %w", err)
	}
	return nil
}

// Get fetches an order by order_id. Returns (nil, nil) if not found.
func (s *Store) Get(ctx context.Context, orderID string) (*Order, error) {
	key := map[string]types.AttributeValue{
		"order_id": &types.AttributeValueMemberS{Value: orderID},
	}
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.tableName,
		Key:       key,
	})
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var rec orderRecord
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal order: %w", err)
	}
	o := rec.toOrder()
	return &o, nil
}

// List returns every order, newest first.
func (s *Store) List(ctx context.Context) ([]Order, error) {
	p := dyn.NewScanPaginator(s.client, &dyn.ScanInput{
		TableName: &s.tableName,
		Limit:     &s.pageSize,
	})

	var out []Order
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("scan orders: %w", err)
		}
		var recs []orderRecord
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &recs); err != nil {
			return nil, fmt.Errorf("unmarshal orders: %w", err)
		}
		for _, r := range recs {
			out = append(out, r.toOrder())
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func awsString(s string) *string { return &s }
