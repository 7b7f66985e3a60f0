package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/alebbueno/pedidos-saas-sub000/internal/aws"
)

const (
	// RecentIndex is the GSI on (restaurant_id, created_at_ms).
	RecentIndex = "restaurant_id-created_at_ms-index"
	// OrderIndex is the order_items GSI on order_id.
	OrderIndex = "order_id-index"

	// batchLimit is the BatchWriteItem request cap.
	batchLimit = 25
)

// ErrExists is returned when an order id is already taken.
var ErrExists = errors.New("order already exists")

// Store encapsulates operations on the orders and order_items tables.
type Store struct {
	client     aws.DynamoDBAPI
	tableName  string
	itemsTable string
	nowFunc    func() time.Time
}

// NewStore creates a new orders Store.
func NewStore(client aws.DynamoDBAPI, tableName, itemsTable string) *Store {
	return &Store{
		client:     client,
		tableName:  tableName,
		itemsTable: itemsTable,
		nowFunc:    time.Now,
	}
}

// Create inserts a new order. order.OrderID must be set by the caller; CreatedAt is
// stamped here when empty.
func (s *Store) Create(ctx context.Context, order Order) (*Order, error) {
	if order.CreatedAt.IsZero() {
		order.CreatedAt = s.nowFunc().UTC()
	}
	order.CreatedAtMs = order.CreatedAt.UnixMilli()
	if order.Status == "" {
		order.Status = StatusNew
	}

	item, err := attributevalue.MarshalMap(order)
	if err != nil {
		return nil, fmt.Errorf("marshal order: %w", err)
	}
	_, err = s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName:           &s.tableName,
		Item:                item,
		ConditionExpression: awsString("attribute_not_exists(order_id)"),
	})
	if err != nil {
		var cf *types.ConditionalCheckFailedException
		if errors.As(err, &cf) {
			return nil, ErrExists
		}
		return nil, fmt.Errorf("put order: %w", err)
	}
	return &order, nil
}

// Get fetches an order by order_id. Returns (nil, nil) if not found.
func (s *Store) Get(ctx context.Context, orderID string) (*Order, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"order_id": &types.AttributeValueMemberS{Value: orderID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var o Order
	if err := attributevalue.UnmarshalMap(out.Item, &o); err != nil {
		return nil, fmt.Errorf("unmarshal order: %w", err)
	}
	return &o, nil
}

// Delete removes an order row. Deleting a missing order is not an error.
func (s *Store) Delete(ctx context.Context, orderID string) error {
	_, err := s.client.DeleteItem(ctx, &dyn.DeleteItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"order_id": &types.AttributeValueMemberS{Value: orderID},
		},
	})
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	return nil
}

// Scope narrows the recent-order lookup to one customer or, when no customer is known,
// to one conversation. At least one field must be set.
type Scope struct {
	CustomerID     string
	ConversationID string
}

// ErrUnscoped is returned by RecentForRestaurant for an empty Scope.
var ErrUnscoped = errors.New("recent orders lookup needs a customer or conversation")

// RecentForRestaurant returns the newest order of the restaurant created at or after since
// that matches scope. Returns (nil, nil) when there is none.
func (s *Store) RecentForRestaurant(ctx context.Context, restaurantID string, scope Scope, since time.Time) (*Order, error) {
	if scope.CustomerID == "" && scope.ConversationID == "" {
		return nil, ErrUnscoped
	}
	input := &dyn.QueryInput{
		TableName:              &s.tableName,
		IndexName:              awsString(RecentIndex),
		KeyConditionExpression: awsString("restaurant_id = :rid AND created_at_ms >= :since"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":rid":   &types.AttributeValueMemberS{Value: restaurantID},
			":since": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", since.UnixMilli())},
		},
		ScanIndexForward: awsBool(false),
	}
	var filters []string
	if scope.CustomerID != "" {
		filters = append(filters, "customer_id = :cid")
		input.ExpressionAttributeValues[":cid"] = &types.AttributeValueMemberS{Value: scope.CustomerID}
	}
	if scope.ConversationID != "" {
		filters = append(filters, "conversation_id = :conv")
		input.ExpressionAttributeValues[":conv"] = &types.AttributeValueMemberS{Value: scope.ConversationID}
	}
	input.FilterExpression = awsString(strings.Join(filters, " AND "))

	for {
		out, err := s.client.Query(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("query recent orders: %w", err)
		}
		if len(out.Items) > 0 {
			var o Order
			if err := attributevalue.UnmarshalMap(out.Items[0], &o); err != nil {
				return nil, fmt.Errorf("unmarshal order: %w", err)
			}
			return &o, nil
		}
		if len(out.LastEvaluatedKey) == 0 {
			return nil, nil
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

// PutItems writes items in batches and returns how many were written. Items the service
// leaves unprocessed are not retried: they count as not written and the caller decides.
func (s *Store) PutItems(ctx context.Context, items []Item) (int, error) {
	written := 0
	for start := 0; start < len(items); start += batchLimit {
		end := start + batchLimit
		if end > len(items) {
			end = len(items)
		}

		requests := make([]types.WriteRequest, 0, end-start)
		for _, it := range items[start:end] {
			av, err := attributevalue.MarshalMap(it)
			if err != nil {
				return written, fmt.Errorf("marshal order item: %w", err)
			}
			requests = append(requests, types.WriteRequest{PutRequest: &types.PutRequest{Item: av}})
		}

		out, err := s.client.BatchWriteItem(ctx, &dyn.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{s.itemsTable: requests},
		})
		if err != nil {
			return written, fmt.Errorf("batch write order items: %w", err)
		}
		written += len(requests) - len(out.UnprocessedItems[s.itemsTable])
	}
	return written, nil
}

// ItemsByOrder lists the item rows of an order.
func (s *Store) ItemsByOrder(ctx context.Context, orderID string) ([]Item, error) {
	input := &dyn.QueryInput{
		TableName:              &s.itemsTable,
		IndexName:              awsString(OrderIndex),
		KeyConditionExpression: awsString("order_id = :oid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":oid": &types.AttributeValueMemberS{Value: orderID},
		},
	}
	var items []Item
	for {
		out, err := s.client.Query(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("query order items: %w", err)
		}
		var page []Item
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, fmt.Errorf("unmarshal order items: %w", err)
		}
		items = append(items, page...)
		if len(out.LastEvaluatedKey) == 0 {
			return items, nil
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

// DeleteItems removes item rows by id. Unprocessed deletes are reported as an error.
func (s *Store) DeleteItems(ctx context.Context, itemIDs []string) error {
	for start := 0; start < len(itemIDs); start += batchLimit {
		end := start + batchLimit
		if end > len(itemIDs) {
			end = len(itemIDs)
		}
		requests := make([]types.WriteRequest, 0, end-start)
		for _, id := range itemIDs[start:end] {
			requests = append(requests, types.WriteRequest{DeleteRequest: &types.DeleteRequest{
				Key: map[string]types.AttributeValue{
					"order_item_id": &types.AttributeValueMemberS{Value: id},
				},
			}})
		}
		out, err := s.client.BatchWriteItem(ctx, &dyn.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{s.itemsTable: requests},
		})
		if err != nil {
			return fmt.Errorf("batch delete order items: %w", err)
		}
		if n := len(out.UnprocessedItems[s.itemsTable]); n > 0 {
			return fmt.Errorf("batch delete order items: %d unprocessed", n)
		}
	}
	return nil
}

func awsString(s string) *string { return &s }

func awsBool(b bool) *bool { return &b }
