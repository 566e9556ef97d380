package di

import (
	"context"
	"time"

	"taxonomy/application/commands/bus"
	"taxonomy/application/ports"
	querybus "taxonomy/application/queries/bus"
	"taxonomy/application/services"
	domainconfig "taxonomy/domain/config"
	"taxonomy/infrastructure/cache"
	"taxonomy/infrastructure/config"
	"taxonomy/interfaces/http/rest"
	"taxonomy/pkg/auth"
	"taxonomy/pkg/observability"

	"github.com/redis/go-redis/v9"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const (
	metricsFlushInterval = time.Minute
	limiterSweepInterval = 10 * time.Minute
)

// Container holds all application dependencies. Optional parts are nil
// when their feature flag is off.
type Container struct {
	Config       *config.Config
	Logger       *zap.Logger
	DomainConfig *domainconfig.DomainConfig
	AWS          *AWSClients
	Collector    *observability.Collector
	CloudMetrics *observability.Metrics
	Tracer       *observability.Tracer
	Redis        *redis.Client
	Cache        ports.Cache
	RateLimiter  auth.RateLimiter
	Store        ports.SessionStore
	Journal      ports.EventStore
	Publisher    ports.EventPublisher
	Registry     *services.SessionRegistry
	Service      *services.TaxonomyService
	CommandBus   *bus.CommandBus
	QueryBus     *querybus.QueryBus
}

// Start launches the background sweepers and the CloudWatch flush. They
// stop when ctx is cancelled.
func (c *Container) Start(ctx context.Context) {
	if c.Config.SessionSweepInterval > 0 {
		go c.Registry.Run(ctx, c.Config.SessionSweepInterval)
	}
	if mem, ok := c.Cache.(*cache.InMemoryCache); ok {
		go mem.Run(ctx, c.Config.CacheTTL)
	}
	if c.CloudMetrics != nil {
		go c.CloudMetrics.Run(ctx, metricsFlushInterval)
	}
	if limiter, ok := c.RateLimiter.(*auth.TokenBucketLimiter); ok {
		go limiter.Run(ctx, limiterSweepInterval)
	}
}

// RouterOptions derives the HTTP router options from the configuration
func (c *Container) RouterOptions() rest.Options {
	readiness := map[string]rest.ReadinessCheck{}
	if c.Redis != nil {
		readiness["redis"] = func(ctx context.Context) error {
			return c.Redis.Ping(ctx).Err()
		}
	}

	return rest.Options{
		EnableCORS:     c.Config.EnableCORS,
		AllowedOrigins: c.Config.AllowedOrigins,
		Debug:          c.Config.IsDevelopment(),
		Collector:      c.Collector,
		Tracer:         c.Tracer,
		Readiness:      readiness,
		RateLimiter:    c.RateLimiter,
		RetryAfter:     time.Minute / time.Duration(max(c.Config.RateLimitPerMinute, 1)),
	}
}

// Close flushes buffered metrics and releases connections
func (c *Container) Close(ctx context.Context) error {
	var err error
	if c.CloudMetrics != nil {
		err = multierr.Append(err, c.CloudMetrics.Flush(ctx))
	}
	if c.Redis != nil {
		err = multierr.Append(err, c.Redis.Close())
	}
	_ = c.Logger.Sync()
	return err
}
