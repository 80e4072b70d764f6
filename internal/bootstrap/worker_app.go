package bootstrap

import (
	"context"
	"errors"
	"net/http"

	"lessonquote-service/internal/config"
	infraconfig "lessonquote-service/internal/infrastructure/config"
	"lessonquote-service/internal/infrastructure/metrics"
	"lessonquote-service/internal/infrastructure/worker"

	"go.uber.org/zap"
)

// WorkerApp runs until ctx is canceled.
type WorkerApp func(ctx context.Context) error

// ProvideWorkerApp runs the rate refresher and, when metrics are enabled,
// serves /metrics on WORKER_METRICS_PORT.
func ProvideWorkerApp(cfg config.Config, r *worker.RateRefresher, m *metrics.Metrics, log *zap.Logger) WorkerApp {
	return func(ctx context.Context) error {
		if m == nil {
			r.Start(ctx)
			return nil
		}
		mux := http.NewServeMux()
		mux.Handle("/metrics", m.Handler())
		srv := &http.Server{
			Addr:              ":" + cfg.WorkerMetricsPort,
			Handler:           mux,
			ReadHeaderTimeout: infraconfig.DefaultReadHeaderLimit,
		}
		errc := make(chan error, 1)
		go func() {
			log.Info("worker.metrics_listening", zap.String("addr", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errc <- err
			}
		}()

		r.Start(ctx)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		select {
		case err := <-errc:
			return err
		default:
			return nil
		}
	}
}
