// Package app wires the stores, the commit engine and the dispatcher from a Config.
package app

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/alebbueno/pedidos-saas-sub000/internal/audit"
	"github.com/alebbueno/pedidos-saas-sub000/internal/aws"
	"github.com/alebbueno/pedidos-saas-sub000/internal/catalog"
	"github.com/alebbueno/pedidos-saas-sub000/internal/commit"
	"github.com/alebbueno/pedidos-saas-sub000/internal/config"
	"github.com/alebbueno/pedidos-saas-sub000/internal/conversations"
	"github.com/alebbueno/pedidos-saas-sub000/internal/customers"
	"github.com/alebbueno/pedidos-saas-sub000/internal/dispatch"
	"github.com/alebbueno/pedidos-saas-sub000/internal/idempotency"
	"github.com/alebbueno/pedidos-saas-sub000/internal/metrics"
	"github.com/alebbueno/pedidos-saas-sub000/internal/orders"
	"github.com/alebbueno/pedidos-saas-sub000/internal/restaurants"
)

type App struct {
	Conversations *conversations.Store
	Orders        *orders.Store
	Catalog       catalog.Reader
	Resolver      *catalog.Resolver
	Engine        *commit.Engine
	Dispatcher    *dispatch.Dispatcher

	closers []func(context.Context) error
}

// New builds the App over already constructed AWS clients. Redis and MongoDB are only
// connected when configured.
func New(ctx context.Context, cfg *config.Config, clients *aws.AWSClients, logger *zap.Logger) (*App, error) {
	a := &App{}

	products := catalog.NewStore(clients.DynamoDB, cfg.Tables.Products)
	a.Catalog = products
	if cfg.Cache.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unreachable, catalog cache disabled", zap.String("addr", cfg.Cache.RedisAddr), zap.Error(err))
			_ = rdb.Close()
		} else {
			a.Catalog = catalog.NewCachedReader(products, rdb, cfg.Cache.CatalogTTL, logger)
			a.closers = append(a.closers, func(context.Context) error { return rdb.Close() })
		}
	}
	a.Resolver = catalog.NewResolver(a.Catalog, logger)

	var sink audit.Sink = audit.Nop{}
	if cfg.Audit.MongoURI != "" {
		m, err := audit.NewMongo(ctx, cfg.Audit.MongoURI, cfg.Audit.Database, cfg.Audit.Collection, logger)
		if err != nil {
			return nil, fmt.Errorf("connect audit store: %w", err)
		}
		sink = m
		a.closers = append(a.closers, m.Close)
	}

	var recorder metrics.Recorder = metrics.Nop{}
	if cfg.Metrics.Enabled {
		recorder = metrics.NewCloudWatch(clients.CloudWatch, cfg.Metrics.Namespace, logger)
	}

	a.Conversations = conversations.NewStore(clients.DynamoDB, cfg.Tables.Conversations)
	a.Orders = orders.NewStore(clients.DynamoDB, cfg.Tables.Orders, cfg.Tables.OrderItems)
	drafts := a.Conversations.Drafts()

	a.Engine = commit.NewEngine(commit.Deps{
		Drafts:        drafts,
		Conversations: a.Conversations,
		Products:      a.Resolver,
		Customers:     customers.NewStore(clients.DynamoDB, cfg.Tables.Customers, cfg.Tables.CustomerAddresses),
		Orders:        a.Orders,
		Fees:          restaurants.NewStore(clients.DynamoDB, cfg.Tables.Restaurants),
		Keys:          idempotency.NewStore(clients.DynamoDB, cfg.Tables.Idempotency, cfg.Commit.IdempotencyTTL, cfg.Commit.ClaimLease),
		Cleanup:       aws.NewPublisher(clients.SQS, cfg.Queues.CleanupURL),
		Metrics:       recorder,
	}, commit.Options{
		DuplicateWindow:   cfg.Commit.DuplicateWindow,
		OrderNumberLength: cfg.Commit.OrderNumberLength,
	}, logger)

	a.Dispatcher = dispatch.New(a.Catalog, a.Resolver, drafts, a.Engine, a.Conversations, sink, logger)
	return a, nil
}

// Close releases the optional Redis and MongoDB connections.
func (a *App) Close(ctx context.Context) error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil && first == nil {
			first = err
		}
	}
	return first
}
