package bootstrap

import (
	"errors"
	"net/http"

	"lessonquote-service/internal/application"
	"lessonquote-service/internal/config"
	httpserver "lessonquote-service/internal/infrastructure/http"
	"lessonquote-service/internal/infrastructure/pg"
	"lessonquote-service/internal/infrastructure/worker"

	"go.uber.org/zap"
)

var (
	ErrMissingDBURL      = errors.New("DATABASE_URL is required for STORAGE=pg")
	ErrMissingPricingURL = errors.New("PRICING_URL is required")
	ErrUnknownProvider   = errors.New("unknown PROVIDER; expected fake or exchangeratesapi")
)

// APIApp is everything cmd/api needs to serve traffic.
type APIApp struct {
	Config    config.Config
	Log       *zap.Logger
	Handler   http.Handler
	Converter *application.CurrencyConverter
	Janitor   *worker.SessionJanitor
}

func ProvideAPIApp(
	cfg config.Config,
	log *zap.Logger,
	srv *httpserver.Server,
	db *pg.DB,
	conv *application.CurrencyConverter,
	janitor *worker.SessionJanitor,
) *APIApp {
	if db != nil {
		srv.SetReadyCheck(db.Ping)
	}
	return &APIApp{
		Config:    cfg,
		Log:       log,
		Handler:   httpserver.NewRouter(srv),
		Converter: conv,
		Janitor:   janitor,
	}
}
