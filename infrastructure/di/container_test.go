package di

import (
	"context"
	"errors"
	"testing"
	"time"

	"taxonomy/application/commands"
	"taxonomy/application/queries"
	"taxonomy/application/services"
	"taxonomy/infrastructure/cache"
	"taxonomy/infrastructure/config"
	"taxonomy/infrastructure/persistence/cached"
	"taxonomy/infrastructure/persistence/memory"
	"taxonomy/pkg/auth"
	"taxonomy/pkg/observability"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func memoryConfig() *config.Config {
	cfg := config.Defaults()
	cfg.PersistenceBackend = "memory"
	cfg.EnableMetrics = true
	cfg.LogLevel = "error"
	return cfg
}

func TestInitializeContainer_MemoryBackend(t *testing.T) {
	// Arrange
	cfg := memoryConfig()

	// Act
	c, err := InitializeContainer(context.Background(), cfg)

	// Assert
	require.NoError(t, err)
	assert.IsType(t, &memory.SessionStore{}, c.Store)
	assert.IsType(t, &memory.EventJournal{}, c.Journal)
	assert.Nil(t, c.Cache)
	assert.Nil(t, c.Publisher)
	assert.Nil(t, c.CloudMetrics)
	assert.Nil(t, c.Tracer)
	assert.Nil(t, c.AWS.DynamoDB)
	assert.Nil(t, c.Redis)
	require.NotNil(t, c.Collector)

	opts := c.RouterOptions()
	assert.Empty(t, opts.Readiness)
	assert.Same(t, c.Collector, opts.Collector)
	assert.True(t, opts.Debug)
	assert.NotNil(t, opts.RateLimiter)
	assert.Equal(t, time.Second, opts.RetryAfter)
	assert.NoError(t, c.Close(context.Background()))
}

func TestInitializeContainer_BusesAreWired(t *testing.T) {
	c, err := InitializeContainer(context.Background(), memoryConfig())
	require.NoError(t, err)

	result, err := c.CommandBus.Send(context.Background(), commands.CreateSessionCommand{Mode: string(services.ModeMemory)})
	require.NoError(t, err)
	session, ok := result.Data.(*services.Session)
	require.True(t, ok)

	graph, err := c.QueryBus.Ask(context.Background(), queries.GetGraphQuery{SessionID: session.ID()})
	require.NoError(t, err)
	assert.NotNil(t, graph)
	assert.Equal(t, 1, c.Registry.Len())
}

func TestInitializeContainer_InvalidLogLevel(t *testing.T) {
	cfg := memoryConfig()
	cfg.LogLevel = "loud"

	_, err := InitializeContainer(context.Background(), cfg)

	assert.Error(t, err)
}

func TestProvideCache(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *config.Config)
		wantNil bool
		want    interface{}
	}{
		{name: "memory backend", mutate: func(cfg *config.Config) { cfg.PersistenceBackend = "memory" }, wantNil: true},
		{name: "ttl disabled", mutate: func(cfg *config.Config) { cfg.CacheTTL = 0 }, wantNil: true},
		{name: "in process", mutate: func(cfg *config.Config) {}, want: &cache.InMemoryCache{}},
		{name: "redis", mutate: func(cfg *config.Config) { cfg.RedisAddr = "localhost:6379" }, want: &cache.RedisCache{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Defaults()
			tt.mutate(cfg)
			client := ProvideRedisClient(cfg)
			if client != nil {
				t.Cleanup(func() { _ = client.Close() })
			}

			got := ProvideCache(cfg, client)

			if tt.wantNil {
				assert.Nil(t, got)
				return
			}
			assert.IsType(t, tt.want, got)
		})
	}
}

func TestProvideRateLimiter(t *testing.T) {
	cfg := config.Defaults()
	assert.IsType(t, &auth.TokenBucketLimiter{}, ProvideRateLimiter(cfg, nil))

	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	t.Cleanup(func() { _ = client.Close() })
	assert.IsType(t, &auth.DistributedRateLimiter{}, ProvideRateLimiter(cfg, client))

	cfg.RateLimitPerMinute = 0
	assert.Nil(t, ProvideRateLimiter(cfg, client))
}

func TestProvideSessionStore_WrapsRemoteBackendInCache(t *testing.T) {
	cfg := config.Defaults()
	domainCfg, err := ProvideDomainConfig(cfg)
	require.NoError(t, err)

	store, err := ProvideSessionStore(cfg, domainCfg, &AWSClients{}, ProvideHTTPClient(cfg),
		ProvideBreakerConfig(cfg), cache.NewInMemoryCache(), nil, zap.NewNop())

	require.NoError(t, err)
	assert.IsType(t, &cached.SessionStore{}, store)
}

func TestProvideSessionStore_DynamoDBWithoutClients(t *testing.T) {
	cfg := config.Defaults()
	cfg.PersistenceBackend = "dynamodb"
	domainCfg, err := ProvideDomainConfig(cfg)
	require.NoError(t, err)

	_, err = ProvideSessionStore(cfg, domainCfg, &AWSClients{}, ProvideHTTPClient(cfg),
		ProvideBreakerConfig(cfg), nil, nil, zap.NewNop())

	assert.Error(t, err)
}

func TestProvideMetrics_SkipsDisabledSinks(t *testing.T) {
	assert.Nil(t, ProvideMetrics(nil, nil))

	collector := observability.NewCollector("test")
	assert.Same(t, collector, ProvideMetrics(collector, nil))
}

func TestProvideBreakerConfig(t *testing.T) {
	cfg := config.Defaults()
	cfg.BreakerMinRequests = 3
	cfg.BreakerFailureRatio = 0.5
	cfg.BreakerOpenTimeout = 10 * time.Second

	breaker := ProvideBreakerConfig(cfg)

	assert.Equal(t, uint32(3), breaker.MinRequests)
	assert.Equal(t, 0.5, breaker.FailureThreshold)
	assert.Equal(t, 10*time.Second, breaker.Timeout)
}

func TestZapLoggerAdapter(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	adapter := &zapLoggerAdapter{zap.New(core)}

	adapter.Error("Command failed", "type", "DeleteNodeCommand", "error", errors.New("boom"), 42, "odd")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "DeleteNodeCommand", fields["type"])
	assert.Equal(t, "boom", fields["error"])
	assert.Equal(t, "odd", fields["42"])
}
