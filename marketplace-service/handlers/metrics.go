package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

// NewMetricsHandler creates a new Prometheus metrics handler
func NewMetricsHandler() http.Handler {
	return promhttp.Handler()
}

// HealthCheck pings one dependency
type HealthCheck func(ctx context.Context) error

// NewHealthHandler answers 200 when every check passes within two seconds, 503 otherwise
func NewHealthHandler(checks map[string]HealthCheck) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		results := make(map[string]string, len(checks))
		errs := make([]error, 0, len(checks))
		names := make([]string, 0, len(checks))
		for name := range checks {
			names = append(names, name)
		}
		outcomes := make([]error, len(names))

		g, gctx := errgroup.WithContext(ctx)
		for i, name := range names {
			g.Go(func() error {
				outcomes[i] = checks[name](gctx)
				return nil
			})
		}
		_ = g.Wait()

		for i, name := range names {
			if outcomes[i] != nil {
				results[name] = outcomes[i].Error()
				errs = append(errs, outcomes[i])
				continue
			}
			results[name] = "ok"
		}

		status := http.StatusOK
		if len(errs) > 0 {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, map[string]interface{}{"status": http.StatusText(status), "checks": results})
	})
}
