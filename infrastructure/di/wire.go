//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"taxonomy/infrastructure/config"

	"github.com/google/wire"
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideDomainConfig,
	ProvideAWSClients,
	ProvideHTTPClient,
	ProvideBreakerConfig,
	ProvideCollector,
	ProvideCloudWatchMetrics,
	ProvideMetrics,
	ProvideTracer,
	ProvideRedisClient,
	ProvideCache,
	ProvideRateLimiter,
	ProvideClassifierClient,
	ProvideSessionStore,
	ProvideEventStore,
	ProvideEventPublisher,
	ProvideSessionRegistry,
	ProvideClassificationGateway,
	ProvideSynchronizer,
	ProvideLoadingTracker,
	ProvideTaxonomyService,
	ProvideCommandBus,
	ProvideQueryBus,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	wire.Build(SuperSet)
	return nil, nil // Wire will replace this
}
