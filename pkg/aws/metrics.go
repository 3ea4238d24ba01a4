package aws

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

const (
	MetricHTTPRequests = "HTTPRequests"
	MetricHTTPErrors   = "HTTPErrors"
	MetricHTTPLatency  = "HTTPLatency"
	MetricHTTP4xx      = "HTTP4xxErrors"
	MetricHTTP5xx      = "HTTP5xxErrors"

	MetricCacheHits   = "CacheHits"
	MetricCacheMisses = "CacheMisses"
)

type cloudWatchAPI interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// Datum is one metric sample.
type Datum struct {
	Name  string
	Value float64
	Unit  types.StandardUnit
}

// Count is a single occurrence of name.
func Count(name string) Datum {
	return Datum{Name: name, Value: 1, Unit: types.StandardUnitCount}
}

// Latency records d in milliseconds.
func Latency(name string, d time.Duration) Datum {
	return Datum{Name: name, Value: float64(d.Milliseconds()), Unit: types.StandardUnitMilliseconds}
}

// MetricsClient publishes to CloudWatch. A nil or disabled client drops every sample.
type MetricsClient struct {
	client    cloudWatchAPI
	namespace string
	enabled   bool
}

// NewMetricsClient reads CLOUDWATCH_NAMESPACE (default "Catalog"). Metrics are
// only sent when CLOUDWATCH_ENABLED=true.
func NewMetricsClient(cfg sdkaws.Config) *MetricsClient {
	namespace := os.Getenv("CLOUDWATCH_NAMESPACE")
	if namespace == "" {
		namespace = "Catalog"
	}
	return &MetricsClient{
		client:    cloudwatch.NewFromConfig(cfg),
		namespace: namespace,
		enabled:   os.Getenv("CLOUDWATCH_ENABLED") == "true",
	}
}

func (m *MetricsClient) IsEnabled() bool {
	return m != nil && m.enabled
}

// Record sends all samples in one PutMetricData call, sharing dimensions.
func (m *MetricsClient) Record(ctx context.Context, dimensions map[string]string, samples ...Datum) error {
	if !m.IsEnabled() || len(samples) == 0 {
		return nil
	}

	dims := toDimensions(dimensions)
	now := time.Now()
	data := make([]types.MetricDatum, 0, len(samples))
	for _, s := range samples {
		data = append(data, types.MetricDatum{
			MetricName: sdkaws.String(s.Name),
			Value:      sdkaws.Float64(s.Value),
			Unit:       s.Unit,
			Timestamp:  sdkaws.Time(now),
			Dimensions: dims,
		})
	}

	if _, err := m.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace:  sdkaws.String(m.namespace),
		MetricData: data,
	}); err != nil {
		return fmt.Errorf("put %d metrics to %s: %w", len(data), m.namespace, err)
	}
	return nil
}

func (m *MetricsClient) RecordCount(ctx context.Context, metricName string, dimensions map[string]string) error {
	return m.Record(ctx, dimensions, Count(metricName))
}

func (m *MetricsClient) RecordLatency(ctx context.Context, metricName string, duration time.Duration, dimensions map[string]string) error {
	return m.Record(ctx, dimensions, Latency(metricName, duration))
}

// toDimensions orders dimensions by name so identical sets produce identical requests.
func toDimensions(dimensions map[string]string) []types.Dimension {
	names := make([]string, 0, len(dimensions))
	for k := range dimensions {
		names = append(names, k)
	}
	sort.Strings(names)

	dims := make([]types.Dimension, 0, len(names))
	for _, k := range names {
		dims = append(dims, types.Dimension{Name: sdkaws.String(k), Value: sdkaws.String(dimensions[k])})
	}
	return dims
}
