// Package metrics publishes commit outcome counters to CloudWatch.
package metrics

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"go.uber.org/zap"

	"github.com/alebbueno/pedidos-saas-sub000/internal/aws"
)

// Metric names
const (
	CommitSucceeded = "CommitSucceeded"
	CommitDuplicate = "CommitDuplicate"
	CommitFailed    = "CommitFailed"
)

// Recorder receives commit outcomes.
type Recorder interface {
	CommitSucceeded(ctx context.Context, restaurantID string)
	CommitDuplicate(ctx context.Context, restaurantID string)
	CommitFailed(ctx context.Context, restaurantID, code string)
}

// CloudWatch emits one Count datum per outcome. Emission errors are logged and dropped.
type CloudWatch struct {
	client    aws.CloudWatchAPI
	namespace string
	logger    *zap.Logger
	nowFunc   func() time.Time
}

func NewCloudWatch(client aws.CloudWatchAPI, namespace string, logger *zap.Logger) *CloudWatch {
	return &CloudWatch{
		client:    client,
		namespace: namespace,
		logger:    logger.Named("metrics"),
		nowFunc:   time.Now,
	}
}

func (c *CloudWatch) CommitSucceeded(ctx context.Context, restaurantID string) {
	c.put(ctx, CommitSucceeded, map[string]string{"RestaurantID": restaurantID})
}

func (c *CloudWatch) CommitDuplicate(ctx context.Context, restaurantID string) {
	c.put(ctx, CommitDuplicate, map[string]string{"RestaurantID": restaurantID})
}

func (c *CloudWatch) CommitFailed(ctx context.Context, restaurantID, code string) {
	c.put(ctx, CommitFailed, map[string]string{"RestaurantID": restaurantID, "Code": code})
}

func (c *CloudWatch) put(ctx context.Context, name string, dims map[string]string) {
	dimensions := make([]cwtypes.Dimension, 0, len(dims))
	for k, v := range dims {
		if v == "" {
			continue
		}
		k, v := k, v
		dimensions = append(dimensions, cwtypes.Dimension{Name: &k, Value: &v})
	}
	now := c.nowFunc()
	one := 1.0
	_, err := c.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace: &c.namespace,
		MetricData: []cwtypes.MetricDatum{{
			MetricName: &name,
			Dimensions: dimensions,
			Timestamp:  &now,
			Unit:       cwtypes.StandardUnitCount,
			Value:      &one,
		}},
	})
	if err != nil {
		c.logger.Warn("put metric data failed", zap.String("metric", name), zap.Error(err))
	}
}

// Nop discards every outcome.
type Nop struct{}

func (Nop) CommitSucceeded(context.Context, string)      {}
func (Nop) CommitDuplicate(context.Context, string)      {}
func (Nop) CommitFailed(context.Context, string, string) {}
