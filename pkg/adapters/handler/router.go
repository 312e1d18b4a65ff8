package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wadjakorntonsri/go-event-beacon/pkg/config"
	"github.com/wadjakorntonsri/go-event-beacon/pkg/metrics"
	"github.com/wadjakorntonsri/go-event-beacon/pkg/ports"
)

// NewRouter creates and configures the main application router
func NewRouter(cfg *config.Config, service ports.IngestService, log *slog.Logger) http.Handler {
	ingest := NewIngestHandler(service, cfg.MaxBodyBytes, log)
	rows := NewRowsHandler(service)
	mw := NewMiddleware(cfg)
	authHandler := NewAuthHandler(cfg, log)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "ok"})
	})
	mux.Handle("GET /metrics", promhttp.Handler())

	// Event endpoint
	exec := cfg.ExecPath
	mux.Handle("POST "+exec, mw.CORS(metrics.Instrument("ingest", ingest.Ingest)))
	mux.Handle("GET "+exec, mw.CORS(metrics.Instrument("ready", ingest.Ready)))
	mux.Handle("OPTIONS "+exec, mw.CORS(http.NotFoundHandler()))

	mux.HandleFunc("GET /auth/google/login", authHandler.Login)
	mux.HandleFunc("GET /auth/google/callback", authHandler.Callback)
	mux.HandleFunc("GET /auth/logout", authHandler.Logout)

	protectedMux := http.NewServeMux()
	protectedMux.HandleFunc("GET /api/v1/rows", metrics.Instrument("rows", rows.List))

	mux.Handle("/api/v1/", mw.AuthMiddleware(protectedMux))

	return mux
}
