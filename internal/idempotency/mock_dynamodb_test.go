package idempotency

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"

	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// simpleMock is a very small in-memory mock for the idempotency table.
// Conditions on status are evaluated against ":inprogress" and claim takeovers against
// ":stale"; other conditions are ignored.
type simpleMock struct {
	mu          sync.Mutex
	table       map[string]map[string]types.AttributeValue
	putCalls    int
	getCalls    int
	updateCalls int
	deleteCalls int
	putErr      error
}

func newSimpleMock() *simpleMock {
	return &simpleMock{
		table: map[string]map[string]types.AttributeValue{},
	}
}

func keyOf(attrs map[string]types.AttributeValue) (string, error) {
	keyAttr := attrs["idempotency_key"]
	if keyAttr == nil {
		return "", errors.New("missing key")
	}
	return keyAttr.(*types.AttributeValueMemberS).Value, nil
}

func (m *simpleMock) statusMatches(item map[string]types.AttributeValue, values map[string]types.AttributeValue) bool {
	want, ok := values[":inprogress"]
	if !ok {
		return true
	}
	got, ok := item["status"].(*types.AttributeValueMemberS)
	return ok && got.Value == want.(*types.AttributeValueMemberS).Value
}

func (m *simpleMock) staleClaim(item map[string]types.AttributeValue, values map[string]types.AttributeValue) bool {
	stale, ok := values[":stale"].(*types.AttributeValueMemberN)
	if !ok || !m.statusMatches(item, values) {
		return false
	}
	claimed, ok := item["claimed_at"].(*types.AttributeValueMemberN)
	if !ok {
		return false
	}
	c, err1 := strconv.ParseInt(claimed.Value, 10, 64)
	s, err2 := strconv.ParseInt(stale.Value, 10, 64)
	return err1 == nil && err2 == nil && c < s
}

func (m *simpleMock) PutItem(ctx context.Context, params *dyn.PutItemInput, optFns ...func(*dyn.Options)) (*dyn.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putCalls++
	if m.putErr != nil {
		return nil, m.putErr
	}
	k, err := keyOf(params.Item)
	if err != nil {
		return nil, err
	}
	if params.ConditionExpression != nil && strings.HasPrefix(*params.ConditionExpression, "attribute_not_exists(idempotency_key)") {
		if existing, ok := m.table[k]; ok && !m.staleClaim(existing, params.ExpressionAttributeValues) {
			return nil, &types.ConditionalCheckFailedException{}
		}
	}
	m.table[k] = params.Item
	return &dyn.PutItemOutput{}, nil
}

func (m *simpleMock) GetItem(ctx context.Context, params *dyn.GetItemInput, optFns ...func(*dyn.Options)) (*dyn.GetItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCalls++
	k, err := keyOf(params.Key)
	if err != nil {
		return nil, err
	}
	item, ok := m.table[k]
	if !ok {
		return &dyn.GetItemOutput{}, nil
	}
	return &dyn.GetItemOutput{Item: item}, nil
}

func (m *simpleMock) UpdateItem(ctx context.Context, params *dyn.UpdateItemInput, optFns ...func(*dyn.Options)) (*dyn.UpdateItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateCalls++
	k, err := keyOf(params.Key)
	if err != nil {
		return nil, err
	}
	item, ok := m.table[k]
	if !ok || !m.statusMatches(item, params.ExpressionAttributeValues) {
		return nil, &types.ConditionalCheckFailedException{}
	}
	vals := params.ExpressionAttributeValues
	if v, ok := vals[":done"]; ok {
		item["status"] = v
	}
	if v, ok := vals[":oid"]; ok {
		item["order_id"] = v
	}
	if v, ok := vals[":num"]; ok {
		item["order_number"] = v
	}
	if v, ok := vals[":ua"]; ok {
		item["updated_at"] = v
	}
	return &dyn.UpdateItemOutput{Attributes: item}, nil
}

func (m *simpleMock) DeleteItem(ctx context.Context, params *dyn.DeleteItemInput, optFns ...func(*dyn.Options)) (*dyn.DeleteItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteCalls++
	k, err := keyOf(params.Key)
	if err != nil {
		return nil, err
	}
	item, ok := m.table[k]
	if !ok || !m.statusMatches(item, params.ExpressionAttributeValues) {
		return nil, &types.ConditionalCheckFailedException{}
	}
	delete(m.table, k)
	return &dyn.DeleteItemOutput{}, nil
}

func (m *simpleMock) Query(ctx context.Context, params *dyn.QueryInput, optFns ...func(*dyn.Options)) (*dyn.QueryOutput, error) {
	return nil, errors.New("not implemented")
}

func (m *simpleMock) BatchWriteItem(ctx context.Context, params *dyn.BatchWriteItemInput, optFns ...func(*dyn.Options)) (*dyn.BatchWriteItemOutput, error) {
	return nil, errors.New("not implemented")
}
