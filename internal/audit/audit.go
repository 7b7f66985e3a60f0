// Package audit records every dispatched tool call.
package audit

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Entry is one tool call outcome.
type Entry struct {
	Tool           string    `bson:"tool"`
	RestaurantID   string    `bson:"restaurant_id"`
	ConversationID string    `bson:"conversation_id"`
	Success        bool      `bson:"success"`
	Code           string    `bson:"code,omitempty"`
	OrderID        string    `bson:"order_id,omitempty"`
	DurationMs     int64     `bson:"duration_ms"`
	CreatedAt      time.Time `bson:"created_at"`
}

// Sink stores audit entries. Implementations never fail the caller.
type Sink interface {
	Record(ctx context.Context, e Entry)
}

type inserter interface {
	InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
}

// Mongo writes entries to a MongoDB collection.
type Mongo struct {
	client     *mongo.Client
	collection inserter
	logger     *zap.Logger
	nowFunc    func() time.Time
}

// NewMongo connects to uri and verifies the connection.
func NewMongo(ctx context.Context, uri, database, collection string, logger *zap.Logger) (*Mongo, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return &Mongo{
		client:     client,
		collection: client.Database(database).Collection(collection),
		logger:     logger.Named("audit"),
		nowFunc:    time.Now,
	}, nil
}

func (m *Mongo) Record(ctx context.Context, e Entry) {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = m.nowFunc().UTC()
	}
	if _, err := m.collection.InsertOne(ctx, e); err != nil {
		m.logger.Warn("audit insert failed",
			zap.String("tool", e.Tool),
			zap.String("conversation_id", e.ConversationID),
			zap.Error(err))
	}
}

func (m *Mongo) Close(ctx context.Context) error {
	if m.client == nil {
		return nil
	}
	return m.client.Disconnect(ctx)
}

// Nop drops entries.
type Nop struct{}

func (Nop) Record(context.Context, Entry) {}
