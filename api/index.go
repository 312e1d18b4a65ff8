package handler

import (
	"net/http"

	"github.com/wadjakorntonsri/go-event-beacon/pkg/adapters/handler"
	"github.com/wadjakorntonsri/go-event-beacon/pkg/adapters/publisher"
	"github.com/wadjakorntonsri/go-event-beacon/pkg/adapters/repository/sqlite"
	"github.com/wadjakorntonsri/go-event-beacon/pkg/config"
	"github.com/wadjakorntonsri/go-event-beacon/pkg/core/services"
	"github.com/wadjakorntonsri/go-event-beacon/pkg/logger"
	"github.com/wadjakorntonsri/go-event-beacon/pkg/ports"
)

var mux http.Handler

func init() {
	cfg := config.Load()
	log := logger.New("beacon-endpoint", cfg.AppEnv, cfg.LogLevel)

	// Note: On Vercel, a local sqlite file is ephemeral; use a libsql:// or postgres:// DATABASE_URL
	repo, err := sqlite.NewSheetRepository(cfg.DatabaseURL)
	if err != nil {
		panic(err)
	}

	var pub ports.EventPublisher
	if len(cfg.KafkaBrokers) > 0 {
		pub = publisher.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
	}

	target := services.Target{Workbook: cfg.Workbook(), Sheet: cfg.SheetName}
	service := services.NewIngestService(repo, target, pub, log)
	mux = handler.NewRouter(cfg, service, log)
}

// Handler is the entrypoint for Vercel
func Handler(w http.ResponseWriter, r *http.Request) {
	mux.ServeHTTP(w, r)
}
