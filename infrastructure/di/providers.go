package di

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"taxonomy/application/commands/bus"
	cmdhandlers "taxonomy/application/commands/handlers"
	"taxonomy/application/ports"
	querybus "taxonomy/application/queries/bus"
	queryhandlers "taxonomy/application/queries/handlers"
	"taxonomy/application/services"
	domainconfig "taxonomy/domain/config"
	"taxonomy/infrastructure/cache"
	"taxonomy/infrastructure/classifier"
	"taxonomy/infrastructure/config"
	"taxonomy/infrastructure/messaging/eventbridge"
	"taxonomy/infrastructure/persistence/cached"
	"taxonomy/infrastructure/persistence/dynamodb"
	"taxonomy/infrastructure/persistence/httpstore"
	"taxonomy/infrastructure/persistence/memory"
	"taxonomy/infrastructure/remote"
	"taxonomy/pkg/auth"
	"taxonomy/pkg/observability"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscloudwatch "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-xray-sdk-go/instrumentation/awsv2"
	"github.com/aws/aws-xray-sdk-go/xray"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// journalRetention bounds how long journal rows survive in DynamoDB
const journalRetention = 30 * 24 * time.Hour

// AWSClients groups the AWS service clients. All fields are nil when no
// configured component needs AWS.
type AWSClients struct {
	DynamoDB    *awsdynamodb.Client
	EventBridge *awseventbridge.Client
	CloudWatch  *awscloudwatch.Client
}

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	var zcfg zap.Config
	if cfg.IsProduction() {
		zcfg = zap.NewProductionConfig()
	} else {
		zcfg = zap.NewDevelopmentConfig()
	}

	if cfg.LogLevel != "" {
		level, err := zapcore.ParseLevel(cfg.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
		}
		zcfg.Level = zap.NewAtomicLevelAt(level)
	}

	return zcfg.Build(zap.Fields(zap.String("environment", cfg.Environment)))
}

// ProvideDomainConfig selects the engine limits for the environment
func ProvideDomainConfig(cfg *config.Config) (*domainconfig.DomainConfig, error) {
	domainCfg := domainconfig.LoadDomainConfig(cfg.Environment)
	if cfg.SessionTTL > 0 {
		domainCfg.SessionTimeout = cfg.SessionTTL
	}
	if err := domainCfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid domain config: %w", err)
	}
	return domainCfg, nil
}

// ProvideAWSClients loads the AWS configuration once and builds the clients.
// Nothing is loaded when no component talks to AWS.
func ProvideAWSClients(ctx context.Context, cfg *config.Config) (*AWSClients, error) {
	if !cfg.NeedsAWS() {
		return &AWSClients{}, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	if cfg.EnableTracing {
		awsv2.AWSV2Instrumentor(&awsCfg.APIOptions)
	}

	return &AWSClients{
		DynamoDB:    awsdynamodb.NewFromConfig(awsCfg),
		EventBridge: awseventbridge.NewFromConfig(awsCfg),
		CloudWatch:  awscloudwatch.NewFromConfig(awsCfg),
	}, nil
}

// ProvideHTTPClient creates the client shared by the classifier and the
// persistence transport
func ProvideHTTPClient(cfg *config.Config) *http.Client {
	client := &http.Client{Timeout: cfg.HTTPTimeout}
	if cfg.EnableTracing {
		return xray.Client(client)
	}
	return client
}

// ProvideBreakerConfig maps the breaker settings onto the remote client
func ProvideBreakerConfig(cfg *config.Config) remote.BreakerConfig {
	breaker := remote.DefaultBreakerConfig()
	if cfg.BreakerMinRequests > 0 {
		breaker.MinRequests = cfg.BreakerMinRequests
	}
	if cfg.BreakerFailureRatio > 0 {
		breaker.FailureThreshold = cfg.BreakerFailureRatio
	}
	if cfg.BreakerOpenTimeout > 0 {
		breaker.Timeout = cfg.BreakerOpenTimeout
	}
	return breaker
}

// ProvideCollector creates the Prometheus collector, or nil when metrics are off
func ProvideCollector(cfg *config.Config) *observability.Collector {
	if !cfg.EnableMetrics {
		return nil
	}
	return observability.NewCollector("taxonomy")
}

// ProvideCloudWatchMetrics creates the buffered CloudWatch sink, or nil when disabled
func ProvideCloudWatchMetrics(clients *AWSClients, cfg *config.Config, logger *zap.Logger) *observability.Metrics {
	if !cfg.EnableCloudWatch || clients.CloudWatch == nil {
		return nil
	}
	namespace := fmt.Sprintf("%s/%s", cfg.MetricsNamespace, cfg.Environment)
	return observability.NewMetrics(namespace, clients.CloudWatch, logger)
}

// ProvideMetrics combines every enabled sink. The nil checks keep typed nil
// pointers out of the interface.
func ProvideMetrics(collector *observability.Collector, cloud *observability.Metrics) ports.Metrics {
	var sinks []ports.Metrics
	if collector != nil {
		sinks = append(sinks, collector)
	}
	if cloud != nil {
		sinks = append(sinks, cloud)
	}
	return observability.NewFanout(sinks...)
}

// ProvideTracer creates the X-Ray tracer, or nil when tracing is off
func ProvideTracer(cfg *config.Config) *observability.Tracer {
	if !cfg.EnableTracing {
		return nil
	}
	return observability.NewTracer("taxonomy-" + cfg.Environment)
}

// ProvideRedisClient connects to Redis when an address is configured.
// The client is lazy; nothing is dialled until first use.
func ProvideRedisClient(cfg *config.Config) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
}

// ProvideCache picks the snapshot cache for remote backends. The memory
// backend has nothing to cache.
func ProvideCache(cfg *config.Config, client *redis.Client) ports.Cache {
	switch {
	case cfg.PersistenceBackend == "memory" || cfg.CacheTTL <= 0:
		return nil
	case client != nil:
		return cache.NewRedisCache(client)
	default:
		return cache.NewInMemoryCache()
	}
}

// ProvideRateLimiter limits generate and classify per caller. Redis shares
// the budget across instances; without it each process keeps its own.
func ProvideRateLimiter(cfg *config.Config, client *redis.Client) auth.RateLimiter {
	switch {
	case cfg.RateLimitPerMinute <= 0:
		return nil
	case client != nil:
		return auth.NewDistributedRateLimiter(client, cfg.RateLimitPerMinute, time.Minute, "classifier")
	default:
		return auth.NewTokenBucketLimiter(cfg.RateLimitPerMinute, cfg.RateLimitBurst)
	}
}

// ProvideClassifierClient creates the classifier client behind a circuit breaker
func ProvideClassifierClient(
	cfg *config.Config,
	httpClient *http.Client,
	breaker remote.BreakerConfig,
	metrics ports.Metrics,
	logger *zap.Logger,
) ports.ClassifierClient {
	transport := remote.NewJSONClient(remote.Options{
		Service:    "classifier.http",
		BaseURL:    cfg.ClassifierURL,
		HTTPClient: httpClient,
		Breaker:    breaker,
		Metrics:    metrics,
		Logger:     logger.Named("classifier"),
	})
	return classifier.NewClient(transport)
}

// ProvideSessionStore selects the persistence backend and puts the snapshot
// cache in front of it when one is configured
func ProvideSessionStore(
	cfg *config.Config,
	domainCfg *domainconfig.DomainConfig,
	clients *AWSClients,
	httpClient *http.Client,
	breaker remote.BreakerConfig,
	snapshots ports.Cache,
	metrics ports.Metrics,
	logger *zap.Logger,
) (ports.SessionStore, error) {
	var store ports.SessionStore

	switch cfg.PersistenceBackend {
	case "http":
		store = httpstore.NewSessionStore(remote.NewJSONClient(remote.Options{
			Service:    "persistence.http",
			BaseURL:    cfg.PersistenceURL,
			HTTPClient: httpClient,
			Breaker:    breaker,
			Metrics:    metrics,
			Logger:     logger.Named("persistence"),
		}))
	case "dynamodb":
		if clients.DynamoDB == nil {
			return nil, fmt.Errorf("dynamodb backend requires AWS clients")
		}
		store = dynamodb.NewSessionStore(clients.DynamoDB, cfg.DynamoDBTable, domainCfg, logger.Named("dynamodb"))
	case "memory":
		return memory.NewSessionStore(domainCfg), nil
	default:
		return nil, fmt.Errorf("unknown persistence backend %q", cfg.PersistenceBackend)
	}

	if snapshots == nil {
		return store, nil
	}
	return cached.NewSessionStore(store, snapshots, cfg.CacheTTL, logger.Named("cache")), nil
}

// ProvideEventStore creates the event journal. DynamoDB is used when the
// journal is enabled; the memory backend keeps one in process for local runs.
func ProvideEventStore(cfg *config.Config, clients *AWSClients) ports.EventStore {
	switch {
	case cfg.EnableJournal && clients.DynamoDB != nil:
		return dynamodb.NewEventJournal(clients.DynamoDB, cfg.DynamoDBTable, journalRetention)
	case cfg.PersistenceBackend == "memory":
		return memory.NewEventJournal()
	default:
		return nil
	}
}

// ProvideEventPublisher creates the EventBridge publisher, or nil when disabled
func ProvideEventPublisher(cfg *config.Config, clients *AWSClients, logger *zap.Logger) ports.EventPublisher {
	if !cfg.EnableEventBridge || clients.EventBridge == nil {
		return nil
	}
	return eventbridge.NewPublisher(clients.EventBridge, cfg.EventBusName, logger.Named("eventbridge"))
}

// ProvideSessionRegistry creates the registry of live sessions
func ProvideSessionRegistry(cfg *config.Config, metrics ports.Metrics, logger *zap.Logger) *services.SessionRegistry {
	return services.NewSessionRegistry(cfg.SessionTTL, metrics, logger)
}

// ProvideClassificationGateway wraps the classifier client
func ProvideClassificationGateway(client ports.ClassifierClient, metrics ports.Metrics, logger *zap.Logger) *services.ClassificationGateway {
	return services.NewClassificationGateway(client, metrics, logger)
}

// ProvideSynchronizer creates the remote synchronizer
func ProvideSynchronizer(cfg *config.Config, store ports.SessionStore, metrics ports.Metrics, logger *zap.Logger) services.Synchronizer {
	return services.NewRemoteSynchronizer(store, metrics, logger, cfg.SyncConcurrency)
}

// ProvideLoadingTracker creates the in-flight tracker
func ProvideLoadingTracker(metrics ports.Metrics) *services.LoadingTracker {
	return services.NewLoadingTracker(metrics)
}

// ProvideTaxonomyService wires the engine
func ProvideTaxonomyService(
	registry *services.SessionRegistry,
	gateway *services.ClassificationGateway,
	store ports.SessionStore,
	synchronizer services.Synchronizer,
	publisher ports.EventPublisher,
	journal ports.EventStore,
	metrics ports.Metrics,
	tracker *services.LoadingTracker,
	domainCfg *domainconfig.DomainConfig,
	logger *zap.Logger,
) *services.TaxonomyService {
	return services.NewTaxonomyService(registry, gateway, store, synchronizer, publisher, journal, metrics, tracker, domainCfg, logger)
}

// ProvideCommandBus creates a command bus with registered handlers
func ProvideCommandBus(service *services.TaxonomyService, tracer *observability.Tracer, logger *zap.Logger) (*bus.CommandBus, error) {
	middlewares := []bus.Middleware{bus.LoggingMiddleware(&zapLoggerAdapter{logger.Named("commands")})}
	if tracer != nil {
		middlewares = append(middlewares, bus.TracingMiddleware(tracer))
	}

	commandBus := bus.NewCommandBus(middlewares...)
	if err := cmdhandlers.RegisterAll(commandBus, service, logger); err != nil {
		return nil, fmt.Errorf("failed to register command handlers: %w", err)
	}
	return commandBus, nil
}

// ProvideQueryBus creates a query bus with registered handlers
func ProvideQueryBus(
	service *services.TaxonomyService,
	journal ports.EventStore,
	collector *observability.Collector,
	logger *zap.Logger,
) (*querybus.QueryBus, error) {
	queryBus := querybus.NewQueryBus()
	if collector != nil {
		queryBus.Use(querybus.ObserveMiddleware(collector))
	}

	if err := queryhandlers.RegisterAll(queryBus, service, journal, logger); err != nil {
		return nil, fmt.Errorf("failed to register query handlers: %w", err)
	}
	return queryBus, nil
}

// zapLoggerAdapter adapts zap.Logger to the bus.Logger interface
type zapLoggerAdapter struct {
	logger *zap.Logger
}

func (a *zapLoggerAdapter) Info(msg string, keysAndValues ...interface{}) {
	a.logger.Info(msg, fieldsToZap(keysAndValues)...)
}

func (a *zapLoggerAdapter) Error(msg string, keysAndValues ...interface{}) {
	a.logger.Error(msg, fieldsToZap(keysAndValues)...)
}

func fieldsToZap(keysAndValues []interface{}) []zap.Field {
	fields := make([]zap.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", keysAndValues[i])
		}
		if err, isErr := keysAndValues[i+1].(error); isErr {
			fields = append(fields, zap.NamedError(key, err))
			continue
		}
		fields = append(fields, zap.Any(key, keysAndValues[i+1]))
	}
	return fields
}
