package aws

import (
	"context"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/alebbueno/pedidos-saas-sub000/internal/config"
)

// dynamoMaxAttempts is the SDK attempt limit per DynamoDB call.
const dynamoMaxAttempts = 3

// AWSClients holds the service clients behind the narrow interfaces the stores accept.
type AWSClients struct {
	Config     sdkaws.Config
	DynamoDB   DynamoDBAPI
	SQS        SQSAPI
	CloudWatch CloudWatchAPI
}

// NewAWSClients loads the SDK config for cfg and builds the DynamoDB, SQS and CloudWatch
// clients.
func NewAWSClients(ctx context.Context, cfg config.AWSConfig) (*AWSClients, error) {
	sdkCfg, err := LoadAWSConfig(ctx, cfg.Region, cfg.EndpointOverride)
	if err != nil {
		return nil, err
	}

	return &AWSClients{
		Config: sdkCfg,
		DynamoDB: dynamodb.NewFromConfig(sdkCfg, func(o *dynamodb.Options) {
			o.RetryMaxAttempts = dynamoMaxAttempts
		}),
		SQS:        sqs.NewFromConfig(sdkCfg),
		CloudWatch: cloudwatch.NewFromConfig(sdkCfg),
	}, nil
}
