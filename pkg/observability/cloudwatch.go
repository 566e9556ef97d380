package observability

import (
	"context"
	"sync"
	"time"

	"taxonomy/application/ports"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"go.uber.org/zap"
)

// CloudWatch accepts at most 1000 datums per PutMetricData call
const maxDatumsPerPut = 1000

// CloudWatchAPI is the part of the CloudWatch client Metrics needs
type CloudWatchAPI interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// Metrics buffers engine metrics and ships them to CloudWatch on Flush.
// Recording never blocks on the network.
type Metrics struct {
	namespace string
	client    CloudWatchAPI
	logger    *zap.Logger
	now       func() time.Time

	mu      sync.Mutex
	pending []types.MetricDatum
}

// NewMetrics creates a new metrics instance
func NewMetrics(namespace string, client CloudWatchAPI, logger *zap.Logger) *Metrics {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Metrics{
		namespace: namespace,
		client:    client,
		logger:    logger,
		now:       time.Now,
	}
}

func dim(name, value string) types.Dimension {
	return types.Dimension{Name: aws.String(name), Value: aws.String(value)}
}

func (m *Metrics) add(data ...types.MetricDatum) {
	if m.client == nil {
		return
	}
	ts := m.now()
	for i := range data {
		data[i].Timestamp = aws.Time(ts)
	}
	m.mu.Lock()
	m.pending = append(m.pending, data...)
	m.mu.Unlock()
}

// RecordMutation implements ports.Metrics
func (m *Metrics) RecordMutation(operation, outcome string, duration time.Duration) {
	dims := []types.Dimension{dim("Operation", operation), dim("Outcome", outcome)}
	m.add(
		types.MetricDatum{
			MetricName: aws.String("MutationLatency"),
			Dimensions: dims,
			Value:      aws.Float64(float64(duration.Milliseconds())),
			Unit:       types.StandardUnitMilliseconds,
		},
		types.MetricDatum{
			MetricName: aws.String("MutationCount"),
			Dimensions: dims,
			Value:      aws.Float64(1),
			Unit:       types.StandardUnitCount,
		},
	)
}

// RecordRemoteCall implements ports.Metrics
func (m *Metrics) RecordRemoteCall(service, operation string, err error, duration time.Duration) {
	dims := []types.Dimension{dim("Service", service), dim("Operation", operation), dim("Status", callStatus(err))}
	m.add(types.MetricDatum{
		MetricName: aws.String("RemoteCallLatency"),
		Dimensions: dims,
		Value:      aws.Float64(float64(duration.Milliseconds())),
		Unit:       types.StandardUnitMilliseconds,
	})
}

// SetActiveSessions implements ports.Metrics
func (m *Metrics) SetActiveSessions(n int) {
	m.add(types.MetricDatum{
		MetricName: aws.String("ActiveSessions"),
		Value:      aws.Float64(float64(n)),
		Unit:       types.StandardUnitCount,
	})
}

// SetInFlight implements ports.Metrics
func (m *Metrics) SetInFlight(n int) {
	m.add(types.MetricDatum{
		MetricName: aws.String("MutationsInFlight"),
		Value:      aws.Float64(float64(n)),
		Unit:       types.StandardUnitCount,
	})
}

// Pending returns the number of buffered datums
func (m *Metrics) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

// Flush sends buffered datums. Datums of a failed request are dropped
// and the error is returned.
func (m *Metrics) Flush(ctx context.Context) error {
	m.mu.Lock()
	batch := m.pending
	m.pending = nil
	m.mu.Unlock()

	for start := 0; start < len(batch); start += maxDatumsPerPut {
		end := start + maxDatumsPerPut
		if end > len(batch) {
			end = len(batch)
		}
		_, err := m.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
			Namespace:  aws.String(m.namespace),
			MetricData: batch[start:end],
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// Run flushes every interval until ctx is done, then flushes once more
func (m *Metrics) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// ctx is already cancelled, the final flush gets its own deadline
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := m.Flush(flushCtx); err != nil {
				m.logger.Warn("Final metrics flush failed", zap.Error(err))
			}
			cancel()
			return
		case <-ticker.C:
			if err := m.Flush(ctx); err != nil {
				m.logger.Warn("Failed to send metrics", zap.Error(err))
			}
		}
	}
}

var _ ports.Metrics = (*Metrics)(nil)
