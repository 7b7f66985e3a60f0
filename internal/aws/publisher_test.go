package aws

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

type mockSQS struct {
	inputs []*sqs.SendMessageInput
}

func (m *mockSQS) SendMessage(ctx context.Context, in *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	m.inputs = append(m.inputs, in)
	return &sqs.SendMessageOutput{}, nil
}

func TestPublishCleanup(t *testing.T) {
	m := &mockSQS{}
	p := NewPublisher(m, "https://sqs.local/cleanup")

	err := p.PublishCleanup(context.Background(), CleanupMessage{OrderID: "o1", RestaurantID: "r1", Reason: "items_not_persisted"})
	if err != nil {
		t.Fatalf("PublishCleanup error: %v", err)
	}
	if len(m.inputs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(m.inputs))
	}
	var got CleanupMessage
	if err := json.Unmarshal([]byte(*m.inputs[0].MessageBody), &got); err != nil {
		t.Fatalf("unmarshal body: %v", err)
	}
	if got.OrderID != "o1" || got.Reason != "items_not_persisted" {
		t.Fatalf("unexpected body: %+v", got)
	}
	if v := m.inputs[0].MessageAttributes["order_id"].StringValue; v == nil || *v != "o1" {
		t.Fatalf("order_id attribute missing")
	}
}

func TestPublishCleanup_NoQueue(t *testing.T) {
	p := NewPublisher(&mockSQS{}, "")
	if err := p.PublishCleanup(context.Background(), CleanupMessage{OrderID: "o1"}); err == nil {
		t.Fatalf("expected error without queue url")
	}
}
