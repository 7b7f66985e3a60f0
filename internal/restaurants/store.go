package restaurants

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/alebbueno/pedidos-saas-sub000/internal/aws"
)

// Restaurant is the slice of the restaurants table the ordering core reads.
type Restaurant struct {
	RestaurantID string  `dynamodbav:"restaurant_id"` // PK
	Name         string  `dynamodbav:"name,omitempty"`
	DeliveryFee  float64 `dynamodbav:"delivery_fee"`
}

type Store struct {
	client    aws.DynamoDBAPI
	tableName string
}

func NewStore(client aws.DynamoDBAPI, tableName string) *Store {
	return &Store{client: client, tableName: tableName}
}

// Get fetches a restaurant. Returns (nil, nil) if not found.
func (s *Store) Get(ctx context.Context, restaurantID string) (*Restaurant, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"restaurant_id": &types.AttributeValueMemberS{Value: restaurantID},
		},
		ProjectionExpression: awsString("restaurant_id, #n, delivery_fee"),
		ExpressionAttributeNames: map[string]string{
			"#n": "name",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get restaurant: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var r Restaurant
	if err := attributevalue.UnmarshalMap(out.Item, &r); err != nil {
		return nil, fmt.Errorf("unmarshal restaurant: %w", err)
	}
	return &r, nil
}

// DeliveryFee returns the restaurant's configured fee, or 0 when the restaurant has none.
func (s *Store) DeliveryFee(ctx context.Context, restaurantID string) (float64, error) {
	r, err := s.Get(ctx, restaurantID)
	if err != nil {
		return 0, err
	}
	if r == nil {
		return 0, nil
	}
	return r.DeliveryFee, nil
}

func awsString(s string) *string { return &s }
