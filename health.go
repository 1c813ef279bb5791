package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"gitlab.com/yelinaung/invoiceflow/internal/logger"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type pinger interface {
	Ping(ctx context.Context) error
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// newHealthHandler serves GET /health. The probe is unhealthy while the
// database does not answer.
func newHealthHandler(db pinger, now func() time.Time) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp := healthResponse{Status: "healthy", Timestamp: now().UTC()}
		code := http.StatusOK
		if err := db.Ping(ctx); err != nil {
			logger.Log.Warn().Err(err).Msg("Health check failed")
			resp.Status = "unhealthy"
			code = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(resp)
	})
	return otelhttp.NewHandler(mux, "health")
}
