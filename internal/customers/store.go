package customers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/alebbueno/pedidos-saas-sub000/internal/aws"
)

// PhoneIndex is the GSI on (restaurant_id, phone).
const PhoneIndex = "restaurant_id-phone-index"

// ErrExists is returned when a customer or address id is already taken.
var ErrExists = errors.New("customer record already exists")

// Store handles the customers and customer_addresses tables.
type Store struct {
	client         aws.DynamoDBAPI
	customersTable string
	addressesTable string
	nowFunc        func() time.Time
}

func NewStore(client aws.DynamoDBAPI, customersTable, addressesTable string) *Store {
	return &Store{
		client:         client,
		customersTable: customersTable,
		addressesTable: addressesTable,
		nowFunc:        time.Now,
	}
}

// FindByPhone returns the restaurant's customer with the given normalized phone, or (nil, nil).
func (s *Store) FindByPhone(ctx context.Context, restaurantID, phone string) (*Customer, error) {
	out, err := s.client.Query(ctx, &dyn.QueryInput{
		TableName:              &s.customersTable,
		IndexName:              awsString(PhoneIndex),
		KeyConditionExpression: awsString("restaurant_id = :rid AND phone = :phone"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":rid":   &types.AttributeValueMemberS{Value: restaurantID},
			":phone": &types.AttributeValueMemberS{Value: phone},
		},
		Limit: awsInt32(1),
	})
	if err != nil {
		return nil, fmt.Errorf("query customer by phone: %w", err)
	}
	if len(out.Items) == 0 {
		return nil, nil
	}
	var c Customer
	if err := attributevalue.UnmarshalMap(out.Items[0], &c); err != nil {
		return nil, fmt.Errorf("unmarshal customer: %w", err)
	}
	return &c, nil
}

// Create inserts c. An empty CustomerID gets a new uuid and an empty Name gets DefaultName.
// The stored customer is returned.
func (s *Store) Create(ctx context.Context, c Customer) (*Customer, error) {
	now := s.nowFunc().UTC()
	if c.CustomerID == "" {
		c.CustomerID = uuid.NewString()
	}
	if c.Name == "" {
		c.Name = DefaultName
	}
	c.CreatedAt = now
	c.UpdatedAt = now

	item, err := attributevalue.MarshalMap(c)
	if err != nil {
		return nil, fmt.Errorf("marshal customer: %w", err)
	}
	_, err = s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName:           &s.customersTable,
		Item:                item,
		ConditionExpression: awsString("attribute_not_exists(customer_id)"),
	})
	if err != nil {
		var cf *types.ConditionalCheckFailedException
		if errors.As(err, &cf) {
			return nil, ErrExists
		}
		return nil, fmt.Errorf("put customer: %w", err)
	}
	return &c, nil
}

// Update overwrites name and email of an existing customer.
func (s *Store) Update(ctx context.Context, c Customer) error {
	values := map[string]types.AttributeValue{
		":name": &types.AttributeValueMemberS{Value: c.Name},
		":ua":   &types.AttributeValueMemberS{Value: s.nowFunc().UTC().Format(time.RFC3339Nano)},
	}
	expr := "SET #n = :name, updated_at = :ua"
	if c.Email != "" {
		expr += ", email = :email"
		values[":email"] = &types.AttributeValueMemberS{Value: c.Email}
	}
	_, err := s.client.UpdateItem(ctx, &dyn.UpdateItemInput{
		TableName: &s.customersTable,
		Key: map[string]types.AttributeValue{
			"customer_id": &types.AttributeValueMemberS{Value: c.CustomerID},
		},
		UpdateExpression:          &expr,
		ConditionExpression:       awsString("attribute_exists(customer_id)"),
		ExpressionAttributeNames:  map[string]string{"#n": "name"},
		ExpressionAttributeValues: values,
	})
	if err != nil {
		return fmt.Errorf("update customer: %w", err)
	}
	return nil
}

// CreateAddress inserts a customer address and returns it with id and timestamp set.
func (s *Store) CreateAddress(ctx context.Context, a Address) (*Address, error) {
	if a.AddressID == "" {
		a.AddressID = uuid.NewString()
	}
	a.CreatedAt = s.nowFunc().UTC()

	item, err := attributevalue.MarshalMap(a)
	if err != nil {
		return nil, fmt.Errorf("marshal address: %w", err)
	}
	_, err = s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName:           &s.addressesTable,
		Item:                item,
		ConditionExpression: awsString("attribute_not_exists(address_id)"),
	})
	if err != nil {
		var cf *types.ConditionalCheckFailedException
		if errors.As(err, &cf) {
			return nil, ErrExists
		}
		return nil, fmt.Errorf("put address: %w", err)
	}
	return &a, nil
}

func awsString(s string) *string { return &s }

func awsInt32(v int32) *int32 { return &v }
