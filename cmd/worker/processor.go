package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"github.com/alebbueno/pedidos-saas-sub000/internal/aws"
	"github.com/alebbueno/pedidos-saas-sub000/internal/orders"
)

// OrderCleaner is the part of the orders store the sweeper needs.
type OrderCleaner interface {
	ItemsByOrder(ctx context.Context, orderID string) ([]orders.Item, error)
	DeleteItems(ctx context.Context, itemIDs []string) error
	Delete(ctx context.Context, orderID string) error
}

// Processor removes orders a failed commit could not clean up itself.
type Processor struct {
	orders OrderCleaner
	logger *zap.Logger
}

func NewProcessor(store OrderCleaner, logger *zap.Logger) *Processor {
	return &Processor{orders: store, logger: logger.Named("sweeper")}
}

// Handle processes a batch and reports failed messages individually so only those are
// redelivered. Undecodable bodies are dropped.
func (p *Processor) Handle(ctx context.Context, ev events.SQSEvent) (events.SQSEventResponse, error) {
	var resp events.SQSEventResponse
	for _, rec := range ev.Records {
		if err := p.processMessage(ctx, rec); err != nil {
			p.logger.Error("cleanup failed", zap.String("message_id", rec.MessageId), zap.Error(err))
			resp.BatchItemFailures = append(resp.BatchItemFailures, events.SQSBatchItemFailure{ItemIdentifier: rec.MessageId})
		}
	}
	return resp, nil
}

func (p *Processor) processMessage(ctx context.Context, rec events.SQSMessage) error {
	var msg aws.CleanupMessage
	if err := json.Unmarshal([]byte(rec.Body), &msg); err != nil || msg.OrderID == "" {
		p.logger.Warn("dropping malformed cleanup message", zap.String("message_id", rec.MessageId), zap.String("body", rec.Body))
		return nil
	}

	logger := p.logger.With(
		zap.String("order_id", msg.OrderID),
		zap.String("restaurant_id", msg.RestaurantID),
		zap.String("conversation_id", msg.ConversationID),
		zap.String("reason", msg.Reason))

	items, err := p.orders.ItemsByOrder(ctx, msg.OrderID)
	if err != nil {
		return fmt.Errorf("list items of order %s: %w", msg.OrderID, err)
	}
	if len(items) > 0 {
		ids := make([]string, len(items))
		for i, it := range items {
			ids[i] = it.OrderItemID
		}
		if err := p.orders.DeleteItems(ctx, ids); err != nil {
			return fmt.Errorf("delete items of order %s: %w", msg.OrderID, err)
		}
	}

	// Items before the order row.
	if err := p.orders.Delete(ctx, msg.OrderID); err != nil {
		return fmt.Errorf("delete order %s: %w", msg.OrderID, err)
	}

	logger.Info("orphan order removed", zap.Int("items", len(items)))
	return nil
}
