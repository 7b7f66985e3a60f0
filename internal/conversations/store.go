package conversations

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
	"github.com/alebbueno/pedidos-saas-sub000/internal/draft"
)

// PhoneIndex is the GSI on (restaurant_id, phone).
const PhoneIndex = "restaurant_id-phone-index"

// Store encapsulates operations on the conversations table.
type Store struct {
	client    aws.DynamoDBAPI
	tableName string
	nowFunc   func() time.Time
}

func NewStore(client aws.DynamoDBAPI, tableName string) *Store {
	return &Store{
		client:    client,
		tableName: tableName,
		nowFunc:   time.Now,
	}
}

func (s *Store) key(conversationID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"conversation_id": &types.AttributeValueMemberS{Value: conversationID},
	}
}

func (s *Store) now() string {
	return s.nowFunc().UTC().Format(time.RFC3339Nano)
}

// Get fetches a conversation or returns ErrNotFound.
func (s *Store) Get(ctx context.Context, conversationID string) (*Conversation, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName:      &s.tableName,
		Key:            s.key(conversationID),
		ConsistentRead: awsBool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, ErrNotFound
	}
	var c Conversation
	if err := attributevalue.UnmarshalMap(out.Item, &c); err != nil {
		return nil, fmt.Errorf("unmarshal conversation: %w", err)
	}
	return &c, nil
}

// FindOrStart returns the active conversation of phone at the restaurant, starting a new
// one when none exists. created reports whether a conversation was started.
func (s *Store) FindOrStart(ctx context.Context, restaurantID, phone string) (c *Conversation, created bool, err error) {
	input := &dyn.QueryInput{
		TableName:              &s.tableName,
		IndexName:              awsString(PhoneIndex),
		KeyConditionExpression: awsString("restaurant_id = :rid AND phone = :phone"),
		FilterExpression:       awsString("#s = :active"),
		ExpressionAttributeNames: map[string]string{
			"#s": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":rid":    &types.AttributeValueMemberS{Value: restaurantID},
			":phone":  &types.AttributeValueMemberS{Value: phone},
			":active": &types.AttributeValueMemberS{Value: StatusActive},
		},
	}
	for {
		out, err := s.client.Query(ctx, input)
		if err != nil {
			return nil, false, fmt.Errorf("query conversations: %w", err)
		}
		if len(out.Items) > 0 {
			var existing Conversation
			if err := attributevalue.UnmarshalMap(out.Items[0], &existing); err != nil {
				return nil, false, fmt.Errorf("unmarshal conversation: %w", err)
			}
			return &existing, false, nil
		}
		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}

	now := s.nowFunc().UTC()
	conv := Conversation{
		ConversationID: uuid.NewString(),
		RestaurantID:   restaurantID,
		Phone:          phone,
		Status:         StatusActive,
		StartedAt:      now,
		LastActivityAt: now,
	}
	item, err := attributevalue.MarshalMap(conv)
	if err != nil {
		return nil, false, fmt.Errorf("marshal conversation: %w", err)
	}
	_, err = s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName:           &s.tableName,
		Item:                item,
		ConditionExpression: awsString("attribute_not_exists(conversation_id)"),
	})
	if err != nil {
		return nil, false, fmt.Errorf("put conversation: %w", err)
	}
	return &conv, true, nil
}

// ReplaceDraft overwrites the draft of an active conversation and returns what was stored.
// A conversation that is no longer active yields ErrNotActive.
func (s *Store) ReplaceDraft(ctx context.Context, conversationID string, d draft.Draft) (*draft.Draft, error) {
	av, err := attributevalue.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("marshal draft: %w", err)
	}
	out, err := s.update(ctx, conversationID, &dyn.UpdateItemInput{
		UpdateExpression:    awsString("SET current_order_draft = :draft, last_activity_at = :ts"),
		ConditionExpression: awsString("#s = :active"),
		ExpressionAttributeNames: map[string]string{
			"#s": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":draft":  av,
			":ts":     &types.AttributeValueMemberS{Value: s.now()},
			":active": &types.AttributeValueMemberS{Value: StatusActive},
		},
		ReturnValues: types.ReturnValueAllNew,
	})
	if errors.Is(err, ErrNotFound) {
		if _, gerr := s.Get(ctx, conversationID); gerr == nil {
			return nil, ErrNotActive
		}
	}
	if err != nil {
		return nil, err
	}
	var c Conversation
	if err := attributevalue.UnmarshalMap(out.Attributes, &c); err != nil {
		return nil, fmt.Errorf("unmarshal conversation: %w", err)
	}
	return c.CurrentOrderDraft, nil
}

// ReadDraft returns the stored draft, or nil when the conversation has none.
func (s *Store) ReadDraft(ctx context.Context, conversationID string) (*draft.Draft, error) {
	c, err := s.Get(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	return c.CurrentOrderDraft, nil
}

// BindCustomer links the conversation to a customer.
func (s *Store) BindCustomer(ctx context.Context, conversationID, customerID string) error {
	_, err := s.update(ctx, conversationID, &dyn.UpdateItemInput{
		UpdateExpression: awsString("SET customer_id = :cid, last_activity_at = :ts"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":cid": &types.AttributeValueMemberS{Value: customerID},
			":ts":  &types.AttributeValueMemberS{Value: s.now()},
		},
	})
	return err
}

// Complete clears the draft and marks the conversation completed.
func (s *Store) Complete(ctx context.Context, conversationID string) error {
	now := s.now()
	_, err := s.update(ctx, conversationID, &dyn.UpdateItemInput{
		UpdateExpression: awsString("SET #s = :status, completed_at = :ts, last_activity_at = :ts REMOVE current_order_draft"),
		ExpressionAttributeNames: map[string]string{
			"#s": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":status": &types.AttributeValueMemberS{Value: StatusCompleted},
			":ts":     &types.AttributeValueMemberS{Value: now},
		},
	})
	return err
}

// Touch refreshes last_activity_at.
func (s *Store) Touch(ctx context.Context, conversationID string) error {
	_, err := s.update(ctx, conversationID, &dyn.UpdateItemInput{
		UpdateExpression: awsString("SET last_activity_at = :ts"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":ts": &types.AttributeValueMemberS{Value: s.now()},
		},
	})
	return err
}

// update applies input to an existing conversation; a missing one yields ErrNotFound.
// Any condition already on input must hold as well.
func (s *Store) update(ctx context.Context, conversationID string, input *dyn.UpdateItemInput) (*dyn.UpdateItemOutput, error) {
	input.TableName = &s.tableName
	input.Key = s.key(conversationID)
	cond := "attribute_exists(conversation_id)"
	if input.ConditionExpression != nil {
		cond += " AND " + *input.ConditionExpression
	}
	input.ConditionExpression = &cond

	out, err := s.client.UpdateItem(ctx, input)
	if err != nil {
		var cf *types.ConditionalCheckFailedException
		if errors.As(err, &cf) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update conversation: %w", err)
	}
	return out, nil
}

func awsString(s string) *string { return &s }

func awsBool(b bool) *bool { return &b }
