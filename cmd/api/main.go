package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/alebbueno/pedidos-saas-sub000/internal/app"
	"github.com/alebbueno/pedidos-saas-sub000/internal/aws"
	"github.com/alebbueno/pedidos-saas-sub000/internal/config"
	"github.com/alebbueno/pedidos-saas-sub000/internal/handlers"
	"github.com/alebbueno/pedidos-saas-sub000/internal/logging"
)

func setupRouter(cfg handlers.HandlerConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	// health
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	handlers.RegisterConversationRoutes(r, cfg)

	return r
}

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

	ctx := context.Background()
	clients, err := aws.NewAWSClients(ctx, cfg.AWS)
	if err != nil {
		logger.Fatal("failed to init aws clients", zap.Error(err))
	}

	a, err := app.New(ctx, cfg, clients, logger)
	if err != nil {
		logger.Fatal("failed to wire application", zap.Error(err))
	}
	defer func() { _ = a.Close(context.Background()) }()

	r := setupRouter(handlers.HandlerConfig{
		Conversations: a.Conversations,
		Dispatcher:    a.Dispatcher,
		Logger:        logger,
	})

	// RUN_LOCAL=true serves plain HTTP for development.
	if os.Getenv("RUN_LOCAL") == "true" {
		logger.Info("running local server", zap.String("addr", cfg.Server.Addr))
		if err := r.Run(cfg.Server.Addr); err != nil {
			logger.Fatal("failed to run local server", zap.Error(err))
		}
		return
	}

	adapter := ginadapter.New(r)

	lambda.Start(func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		return adapter.ProxyWithContext(ctx, req)
	})
}
