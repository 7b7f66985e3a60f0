package main

import (
	"context"
	"log"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"github.com/alebbueno/pedidos-saas-sub000/internal/aws"
	"github.com/alebbueno/pedidos-saas-sub000/internal/config"
	"github.com/alebbueno/pedidos-saas-sub000/internal/logging"
	"github.com/alebbueno/pedidos-saas-sub000/internal/orders"
)

func main() {
	cfg, err := config.Load(os.Getenv("PEDIDOS_CONFIG"))
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	clients, err := aws.NewAWSClients(context.Background(), cfg.AWS)
	if err != nil {
		logger.Fatal("failed to init aws clients", zap.Error(err))
	}

	p := NewProcessor(orders.NewStore(clients.DynamoDB, cfg.Tables.Orders, cfg.Tables.OrderItems), logger)

	// RUN_LOCAL=true processes a single message taken from LOCAL_SQS_BODY.
	if os.Getenv("RUN_LOCAL") == "true" {
		body := os.Getenv("LOCAL_SQS_BODY")
		if body == "" {
			logger.Fatal("LOCAL_SQS_BODY is required when RUN_LOCAL=true")
		}
		resp, _ := p.Handle(context.Background(), events.SQSEvent{
			Records: []events.SQSMessage{{MessageId: "local-1", Body: body}},
		})
		if len(resp.BatchItemFailures) > 0 {
			logger.Fatal("local cleanup failed")
		}
		return
	}

	lambda.Start(p.Handle)
}
