//go:build wireinject

package bootstrap

import (
	"context"

	httpserver "lessonquote-service/internal/infrastructure/http"

	"github.com/google/wire"
)

var infraSet = wire.NewSet(
	ProvideConfig,
	ProvideLogger,
	ProvideDB,
	ProvideRateRepo,
	ProvideRedisClient,
	ProvideRateCache,
	ProvideRateProvider,
	ProvideFormatter,
	ProvideConverter,
	ProvideMetrics,
)

// API injector: builds *APIApp + Cleanup
func InitAPI(ctx context.Context) (*APIApp, func(), error) {
	wire.Build(
		infraSet,
		ProvideIdempotency,
		ProvidePricing,
		ProvideBookingGateway,
		ProvideQuoteService,
		ProvideSessionJanitor,
		httpserver.NewServer,
		ProvideAPIApp,
	)
	return nil, nil, nil
}

// Worker injector: builds WorkerApp + Cleanup
func InitWorker(ctx context.Context) (WorkerApp, func(), error) {
	wire.Build(
		infraSet,
		ProvideRateRefresher,
		ProvideWorkerApp,
	)
	return nil, nil, nil
}
