package catalog

import (
	"context"
	"errors"
	"sync"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// productsMock is a small in-memory products table. Query understands only the
// restaurant index with the active filter used by Store.
type productsMock struct {
	mu         sync.Mutex
	items      []map[string]types.AttributeValue
	queryCalls int
	pageSize   int
}

func newProductsMock(products ...Product) *productsMock {
	m := &productsMock{}
	for _, p := range products {
		item, err := attributevalue.MarshalMap(p)
		if err != nil {
			panic(err)
		}
		m.items = append(m.items, item)
	}
	return m
}

func (m *productsMock) GetItem(ctx context.Context, params *dyn.GetItemInput, optFns ...func(*dyn.Options)) (*dyn.GetItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := params.Key["product_id"].(*types.AttributeValueMemberS).Value
	for _, it := range m.items {
		if it["product_id"].(*types.AttributeValueMemberS).Value == k {
			return &dyn.GetItemOutput{Item: it}, nil
		}
	}
	return &dyn.GetItemOutput{}, nil
}

func (m *productsMock) Query(ctx context.Context, params *dyn.QueryInput, optFns ...func(*dyn.Options)) (*dyn.QueryOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queryCalls++
	if params.IndexName == nil || *params.IndexName != RestaurantIndex {
		return nil, errors.New("unexpected index")
	}
	rid := params.ExpressionAttributeValues[":rid"].(*types.AttributeValueMemberS).Value

	var matched []map[string]types.AttributeValue
	for _, it := range m.items {
		if it["restaurant_id"].(*types.AttributeValueMemberS).Value != rid {
			continue
		}
		if active, ok := it["active"].(*types.AttributeValueMemberBOOL); !ok || !active.Value {
			continue
		}
		matched = append(matched, it)
	}

	start := 0
	if params.ExclusiveStartKey != nil {
		last := params.ExclusiveStartKey["product_id"].(*types.AttributeValueMemberS).Value
		for i, it := range matched {
			if it["product_id"].(*types.AttributeValueMemberS).Value == last {
				start = i + 1
			}
		}
	}
	end := len(matched)
	if m.pageSize > 0 && start+m.pageSize < end {
		end = start + m.pageSize
	}
	out := &dyn.QueryOutput{Items: matched[start:end]}
	if end < len(matched) {
		out.LastEvaluatedKey = map[string]types.AttributeValue{"product_id": matched[end-1]["product_id"]}
	}
	return out, nil
}

func (m *productsMock) PutItem(ctx context.Context, params *dyn.PutItemInput, optFns ...func(*dyn.Options)) (*dyn.PutItemOutput, error) {
	return nil, errors.New("not implemented")
}

func (m *productsMock) UpdateItem(ctx context.Context, params *dyn.UpdateItemInput, optFns ...func(*dyn.Options)) (*dyn.UpdateItemOutput, error) {
	return nil, errors.New("not implemented")
}

func (m *productsMock) DeleteItem(ctx context.Context, params *dyn.DeleteItemInput, optFns ...func(*dyn.Options)) (*dyn.DeleteItemOutput, error) {
	return nil, errors.New("not implemented")
}

func (m *productsMock) BatchWriteItem(ctx context.Context, params *dyn.BatchWriteItemInput, optFns ...func(*dyn.Options)) (*dyn.BatchWriteItemOutput, error) {
	return nil, errors.New("not implemented")
}
