package idempotency

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"

	"github.com/alebbueno/pedidos-saas-sub000/internal/aws"
)

// Store encapsulates idempotency operations against DynamoDB.
type Store struct {
	client     aws.DynamoDBAPI
	tableName  string
	ttlWindow  time.Duration // default TTL window when creating entries
	claimLease time.Duration
	nowFunc    func() time.Time
}

// DefaultClaimLease is used when NewStore is given a non-positive lease.
const DefaultClaimLease = time.Minute

// NewStore returns a configured Store.
// ttlWindow: how long a key is remembered (e.g., 48*time.Hour)
// claimLease: how long an IN_PROGRESS claim blocks other commits; it must outlast the
// longest commit, i.e. the function timeout.
func NewStore(client aws.DynamoDBAPI, tableName string, ttlWindow, claimLease time.Duration) *Store {
	if claimLease <= 0 {
		claimLease = DefaultClaimLease
	}
	return &Store{
		client:     client,
		tableName:  tableName,
		ttlWindow:  ttlWindow,
		claimLease: claimLease,
		nowFunc:    time.Now,
	}
}

// ErrConditionFailed indicates the record is not in the state the write expected.
var ErrConditionFailed = errors.New("conditional check failed")

func isConditionFailed(err error) bool {
	var ae smithy.APIError
	return errors.As(err, &ae) && ae.ErrorCode() == "ConditionalCheckFailedException"
}

func (s *Store) key(k string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"idempotency_key": &types.AttributeValueMemberS{Value: k},
	}
}

// CreateIfNotExists claims key with status IN_PROGRESS. An IN_PROGRESS claim whose lease
// ran out is taken over.
// Returns (true, nil) if the claim was created, (false, nil) if the key is held or DONE
// (caller should Get to inspect) and (false, err) on other errors.
func (s *Store) CreateIfNotExists(ctx context.Context, key, conversationID string) (bool, error) {
	now := s.nowFunc().UTC()
	rec := Record{
		IdempotencyKey: key,
		Status:         StatusInProgress,
		ConversationID: conversationID,
		ClaimedAt:      now.UnixMilli(),
		CreatedAt:      now,
		UpdatedAt:      now,
		ExpiresAt:      now.Add(s.ttlWindow).Unix(),
	}

	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return false, fmt.Errorf("marshal record: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName:           &s.tableName,
		Item:                item,
		ConditionExpression: awsString("attribute_not_exists(idempotency_key) OR (#s = :inprogress AND claimed_at < :stale)"),
		ExpressionAttributeNames: map[string]string{
			"#s": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":inprogress": &types.AttributeValueMemberS{Value: StatusInProgress},
			":stale":      &types.AttributeValueMemberN{Value: strconv.FormatInt(now.Add(-s.claimLease).UnixMilli(), 10)},
		},
	})
	if err != nil {
		if isConditionFailed(err) {
			return false, nil
		}
		return false, fmt.Errorf("put item: %w", err)
	}
	return true, nil
}

// Get retrieves a record by key. If not found, returns (nil, nil).
func (s *Store) Get(ctx context.Context, key string) (*Record, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName:      &s.tableName,
		Key:            s.key(key),
		ConsistentRead: awsBool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var rec Record
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal item: %w", err)
	}
	return &rec, nil
}

// MarkDone records the committed order on a claimed key (IN_PROGRESS -> DONE).
func (s *Store) MarkDone(ctx context.Context, key, orderID, orderNumber string) error {
	now := s.nowFunc().UTC()
	_, err := s.client.UpdateItem(ctx, &dyn.UpdateItemInput{
		TableName:           &s.tableName,
		Key:                 s.key(key),
		UpdateExpression:    awsString("SET #s = :done, order_id = :oid, order_number = :num, updated_at = :ua"),
		ConditionExpression: awsString("#s = :inprogress"),
		ExpressionAttributeNames: map[string]string{
			"#s": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":done":       &types.AttributeValueMemberS{Value: StatusDone},
			":inprogress": &types.AttributeValueMemberS{Value: StatusInProgress},
			":oid":        &types.AttributeValueMemberS{Value: orderID},
			":num":        &types.AttributeValueMemberS{Value: orderNumber},
			":ua":         &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
		},
	})
	if err != nil {
		if isConditionFailed(err) {
			return ErrConditionFailed
		}
		return fmt.Errorf("update item (mark done): %w", err)
	}
	return nil
}

// Release deletes a claim that is still IN_PROGRESS so the key can be retried.
// A DONE record is never released.
func (s *Store) Release(ctx context.Context, key string) error {
	_, err := s.client.DeleteItem(ctx, &dyn.DeleteItemInput{
		TableName:           &s.tableName,
		Key:                 s.key(key),
		ConditionExpression: awsString("#s = :inprogress"),
		ExpressionAttributeNames: map[string]string{
			"#s": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":inprogress": &types.AttributeValueMemberS{Value: StatusInProgress},
		},
	})
	if err != nil {
		if isConditionFailed(err) {
			return ErrConditionFailed
		}
		return fmt.Errorf("delete item (release): %w", err)
	}
	return nil
}

// Helper
func awsString(s string) *string { return &s }

func awsBool(b bool) *bool { return &b }
