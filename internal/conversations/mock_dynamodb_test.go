package conversations

import (
	"context"
	"errors"
	"strings"
	"sync"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// mockDynamo is an in-memory conversations table. UpdateItem understands the placeholders
// used by Store rather than parsing update expressions.
type mockDynamo struct {
	mu          sync.Mutex
	items       map[string]map[string]types.AttributeValue
	updateCalls int
	queryErr    error
}

func newMockDynamo() *mockDynamo {
	return &mockDynamo{items: map[string]map[string]types.AttributeValue{}}
}

func (m *mockDynamo) PutItem(ctx context.Context, params *dyn.PutItemInput, optFns ...func(*dyn.Options)) (*dyn.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := params.Item["conversation_id"].(*types.AttributeValueMemberS).Value
	if _, exists := m.items[k]; exists && params.ConditionExpression != nil {
		return nil, &types.ConditionalCheckFailedException{}
	}
	m.items[k] = params.Item
	return &dyn.PutItemOutput{}, nil
}

func (m *mockDynamo) GetItem(ctx context.Context, params *dyn.GetItemInput, optFns ...func(*dyn.Options)) (*dyn.GetItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := params.Key["conversation_id"].(*types.AttributeValueMemberS).Value
	return &dyn.GetItemOutput{Item: m.items[k]}, nil
}

func (m *mockDynamo) UpdateItem(ctx context.Context, params *dyn.UpdateItemInput, optFns ...func(*dyn.Options)) (*dyn.UpdateItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateCalls++
	k := params.Key["conversation_id"].(*types.AttributeValueMemberS).Value
	item, ok := m.items[k]
	if !ok {
		return nil, &types.ConditionalCheckFailedException{}
	}
	vals := params.ExpressionAttributeValues
	if strings.Contains(sdkaws.ToString(params.ConditionExpression), "#s = :active") {
		status, _ := item["status"].(*types.AttributeValueMemberS)
		if status == nil || status.Value != vals[":active"].(*types.AttributeValueMemberS).Value {
			return nil, &types.ConditionalCheckFailedException{}
		}
	}
	if v, ok := vals[":draft"]; ok {
		item["current_order_draft"] = v
	}
	if v, ok := vals[":cid"]; ok {
		item["customer_id"] = v
	}
	if v, ok := vals[":status"]; ok {
		item["status"] = v
	}
	if v, ok := vals[":ts"]; ok {
		item["last_activity_at"] = v
		if strings.Contains(*params.UpdateExpression, "completed_at") {
			item["completed_at"] = v
		}
	}
	if strings.Contains(*params.UpdateExpression, "REMOVE current_order_draft") {
		delete(item, "current_order_draft")
	}
	return &dyn.UpdateItemOutput{Attributes: item}, nil
}

func (m *mockDynamo) Query(ctx context.Context, params *dyn.QueryInput, optFns ...func(*dyn.Options)) (*dyn.QueryOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	vals := params.ExpressionAttributeValues
	rid := vals[":rid"].(*types.AttributeValueMemberS).Value
	phone := vals[":phone"].(*types.AttributeValueMemberS).Value
	status := vals[":active"].(*types.AttributeValueMemberS).Value
	var out []map[string]types.AttributeValue
	for _, it := range m.items {
		if it["restaurant_id"].(*types.AttributeValueMemberS).Value == rid &&
			it["phone"].(*types.AttributeValueMemberS).Value == phone &&
			it["status"].(*types.AttributeValueMemberS).Value == status {
			out = append(out, it)
		}
	}
	return &dyn.QueryOutput{Items: out}, nil
}

func (m *mockDynamo) DeleteItem(ctx context.Context, params *dyn.DeleteItemInput, optFns ...func(*dyn.Options)) (*dyn.DeleteItemOutput, error) {
	return nil, errors.New("not implemented")
}

func (m *mockDynamo) BatchWriteItem(ctx context.Context, params *dyn.BatchWriteItemInput, optFns ...func(*dyn.Options)) (*dyn.BatchWriteItemOutput, error) {
	return nil, errors.New("not implemented")
}
