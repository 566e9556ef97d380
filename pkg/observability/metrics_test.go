package observability

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCollector_EngineMetrics(t *testing.T) {
	// Arrange
	c := NewCollector("taxonomy")

	// Act
	c.RecordMutation("generate", "ok", 20*time.Millisecond)
	c.RecordMutation("generate", "ok", 30*time.Millisecond)
	c.RecordMutation("delete", "error", time.Millisecond)
	c.RecordRemoteCall("classifier", "generate_classes", errors.New("boom"), time.Second)
	c.SetActiveSessions(3)
	c.SetInFlight(1)

	// Assert
	assert.Equal(t, 2.0, testutil.ToFloat64(c.Mutations.WithLabelValues("generate", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Mutations.WithLabelValues("delete", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.RemoteCalls.WithLabelValues("classifier", "generate_classes", "error")))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.ActiveSessions))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.InFlight))
}

func TestCollector_QueryBusMetrics(t *testing.T) {
	c := NewCollector("taxonomy")

	c.ObserveQuery("GetGraphQuery", nil, 2*time.Millisecond)
	c.ObserveQuery("GetGraphQuery", errors.New("session not found"), time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.Queries.WithLabelValues("GetGraphQuery")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.QueryErrors.WithLabelValues("GetGraphQuery")))
	assert.Equal(t, 1, testutil.CollectAndCount(c.QueryDuration))
}

func TestCollector_Handler(t *testing.T) {
	c := NewCollector("taxonomy")
	c.RecordHTTPRequest(http.MethodGet, "/api/v1/sessions/{sessionID}", http.StatusOK, time.Millisecond)
	rec := httptest.NewRecorder()

	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(body), `taxonomy_http_requests_total{method="GET",route="/api/v1/sessions/{sessionID}",status="200"} 1`)
}

func TestCollector_SeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		NewCollector("taxonomy")
		NewCollector("taxonomy")
	})
}

type mockCloudWatch struct {
	mock.Mock
}

func (m *mockCloudWatch) PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, _ ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*cloudwatch.PutMetricDataOutput)
	return out, args.Error(1)
}

func TestMetrics_FlushSendsBufferedData(t *testing.T) {
	// Arrange
	client := &mockCloudWatch{}
	var inputs []*cloudwatch.PutMetricDataInput
	client.On("PutMetricData", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { inputs = append(inputs, args.Get(1).(*cloudwatch.PutMetricDataInput)) }).
		Return(&cloudwatch.PutMetricDataOutput{}, nil)
	m := NewMetrics("Taxonomy", client, zap.NewNop())

	m.RecordMutation("classify", "ok", 10*time.Millisecond)
	m.RecordRemoteCall("persistence", "update_items", nil, time.Millisecond)
	m.SetActiveSessions(2)
	require.Equal(t, 4, m.Pending())

	// Act
	err := m.Flush(context.Background())

	// Assert
	require.NoError(t, err)
	require.Len(t, inputs, 1)
	assert.Equal(t, "Taxonomy", aws.ToString(inputs[0].Namespace))
	assert.Len(t, inputs[0].MetricData, 4)
	assert.Equal(t, "MutationLatency", aws.ToString(inputs[0].MetricData[0].MetricName))
	assert.Equal(t, 0, m.Pending())
}

func TestMetrics_FlushChunks(t *testing.T) {
	client := &mockCloudWatch{}
	var sizes []int
	client.On("PutMetricData", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			sizes = append(sizes, len(args.Get(1).(*cloudwatch.PutMetricDataInput).MetricData))
		}).
		Return(&cloudwatch.PutMetricDataOutput{}, nil)
	m := NewMetrics("Taxonomy", client, nil)
	for i := 0; i < 1500; i++ {
		m.SetInFlight(i)
	}

	require.NoError(t, m.Flush(context.Background()))

	assert.Equal(t, []int{1000, 500}, sizes)
}

func TestMetrics_NilClientRecordsNothing(t *testing.T) {
	m := NewMetrics("Taxonomy", nil, nil)

	m.SetInFlight(1)

	assert.Equal(t, 0, m.Pending())
	assert.NoError(t, m.Flush(context.Background()))
}

func TestFanout(t *testing.T) {
	a := NewCollector("a")
	b := NewCollector("b")

	sink := NewFanout(a, nil, b)
	sink.SetActiveSessions(5)

	assert.Equal(t, 5.0, testutil.ToFloat64(a.ActiveSessions))
	assert.Equal(t, 5.0, testutil.ToFloat64(b.ActiveSessions))
	assert.Nil(t, NewFanout(nil))
	assert.Same(t, a, NewFanout(a))
}
