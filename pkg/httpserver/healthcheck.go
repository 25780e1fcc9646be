package httpserver

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/cogniq/billing/pkg/logger"
)

// HealthCheckHandler serves the /health endpoint. With no checks it
// answers 200 "ALIVE", which suits a liveness probe. With checks it
// runs each one and answers 200 "READY" only when all pass; the first
// failure yields 500 "NOT_READY" so the load balancer pulls the
// instance before Postgres or Redis trouble surfaces as request
// errors.
func HealthCheckHandler(ctx context.Context, log *slog.Logger, checks ...func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		if len(checks) == 0 {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ALIVE"))
			return
		}

		for _, check := range checks {
			if err := check(ctx); err != nil {
				log.ErrorContext(ctx, "readiness check failed", logger.Error(err))
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte("NOT_READY"))
				return
			}
		}

		w.WriteHeader(http.StatusOK)
		w.Write([]byte("READY"))
	}
}
