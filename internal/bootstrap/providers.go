package bootstrap

import (
	"context"
	"net/http"

	"lessonquote-service/internal/application"
	"lessonquote-service/internal/config"
	"lessonquote-service/internal/infrastructure/calcom"
	infraconfig "lessonquote-service/internal/infrastructure/config"
	"lessonquote-service/internal/infrastructure/httpx"
	"lessonquote-service/internal/infrastructure/logx"
	"lessonquote-service/internal/infrastructure/metrics"
	"lessonquote-service/internal/infrastructure/money"
	"lessonquote-service/internal/infrastructure/pg"
	"lessonquote-service/internal/infrastructure/pricing"
	"lessonquote-service/internal/infrastructure/provider"
	redisstore "lessonquote-service/internal/infrastructure/redis"
	"lessonquote-service/internal/infrastructure/worker"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func ProvideLogger() *zap.Logger { return logx.L() }

func ProvideConfig() config.Config { return config.Load() }

// ProvideDB connects and migrates when STORAGE=pg. Any other value runs
// without a persisted rate snapshot and yields a nil DB.
func ProvideDB(ctx context.Context, log *zap.Logger, cfg config.Config) (*pg.DB, func(), error) {
	if cfg.Storage != "pg" {
		log.Info("storage.disabled", zap.String("storage", cfg.Storage))
		return nil, func() {}, nil
	}
	if cfg.DatabaseURL == "" {
		return nil, func() {}, ErrMissingDBURL
	}
	db, err := pg.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, func() {}, err
	}
	if err := pg.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, func() {}, err
	}
	cleanup := func() {
		log.Info("closing pg")
		db.Close()
	}
	return db, cleanup, nil
}

func ProvideRateRepo(db *pg.DB) application.RateRepo {
	if db == nil {
		return nil
	}
	return pg.NewRateRepo(db)
}

// ProvideRedisClient returns nil when REDIS_ADDR is empty.
func ProvideRedisClient(cfg config.Config) (*redis.Client, func(), error) {
	if cfg.RedisAddr == "" {
		return nil, func() {}, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	return client, func() { _ = client.Close() }, nil
}

func ProvideIdempotency(client *redis.Client, cfg config.Config) application.IdempotencyStore {
	if client == nil || cfg.IdempotencyBackend != "redis" {
		return application.NoopIdempotency{}
	}
	return redisstore.New(client, cfg.RedisTTL)
}

func ProvideRateCache(client *redis.Client, cfg config.Config) application.RateCache {
	if client == nil {
		return nil
	}
	return redisstore.NewRateCache(client, infraconfig.DefaultRatesCacheKey, cfg.RatesTTL)
}

func ProvideRateProvider(cfg config.Config, log *zap.Logger) (application.RateProvider, error) {
	switch cfg.Provider {
	case "exchangeratesapi":
		return &provider.ExchangeRatesAPIProvider{
			BaseURL: cfg.ExchangeAPIBase,
			APIKey:  cfg.ExchangeAPIKey,
			Client: &httpx.Client{
				HTTP: &http.Client{Timeout: infraconfig.DefaultHTTPTimeout},
				Log:  log,
			},
		}, nil
	case "", "fake":
		rates, err := provider.ParseFakeRates(cfg.FakeRates)
		if err != nil {
			return nil, err
		}
		if len(rates) == 1 {
			rates = nil
		}
		return provider.NewFake(rates), nil
	default:
		return nil, ErrUnknownProvider
	}
}

func ProvideFormatter() (*money.Formatter, error) { return money.NewFormatter() }

func ProvideConverter(
	cfg config.Config,
	rp application.RateProvider,
	f *money.Formatter,
	cache application.RateCache,
	repo application.RateRepo,
	log *zap.Logger,
) *application.CurrencyConverter {
	return application.NewCurrencyConverter(rp, f,
		application.WithRateCache(cache),
		application.WithRateRepo(repo),
		application.WithRatesTTL(cfg.RatesTTL),
		application.WithConverterLogger(log),
	)
}

func ProvidePricing(cfg config.Config, log *zap.Logger) (*pricing.Client, error) {
	if cfg.PricingURL == "" {
		return nil, ErrMissingPricingURL
	}
	return pricing.NewClient(cfg.PricingURL, cfg.PricingAPIKey, cfg.PricingTimeout, log), nil
}

// ProvideBookingGateway falls back to an in-process calendar when no
// Cal.com key is configured.
func ProvideBookingGateway(cfg config.Config, log *zap.Logger) application.BookingGateway {
	if cfg.CalcomAPIKey == "" {
		log.Warn("calcom.disabled_using_fake")
		return calcom.NewFake()
	}
	return calcom.NewClient(cfg.CalcomURL, cfg.CalcomAPIKey, cfg.CalcomUsername, cfg.CalcomTimeout, log)
}

func ProvideMetrics(cfg config.Config) *metrics.Metrics {
	if !cfg.MetricsEnabled {
		return nil
	}
	return metrics.New()
}

func ProvideQuoteService(
	cfg config.Config,
	pc *pricing.Client,
	conv *application.CurrencyConverter,
	gw application.BookingGateway,
	idem application.IdempotencyStore,
	m *metrics.Metrics,
	log *zap.Logger,
) *application.QuoteService {
	opts := []application.Option{
		application.WithCreditLedger(pc),
		application.WithBookingGateway(gw),
		application.WithIdempotency(idem),
		application.WithSessionIdleTTL(cfg.SessionIdleTTL),
		application.WithLogger(log),
	}
	if m != nil {
		opts = append(opts, application.WithMetrics(m))
	}
	return application.NewQuoteService(pc, conv, opts...)
}

func ProvideSessionJanitor(svc *application.QuoteService, log *zap.Logger) *worker.SessionJanitor {
	return worker.NewSessionJanitor(svc, 0, log)
}

func ProvideRateRefresher(cfg config.Config, conv *application.CurrencyConverter, m *metrics.Metrics, log *zap.Logger) *worker.RateRefresher {
	r := &worker.RateRefresher{
		Converter: conv,
		PollEvery: cfg.WorkerPoll,
		Log:       log,
	}
	if m != nil {
		r.Observer = m
	}
	return r
}
