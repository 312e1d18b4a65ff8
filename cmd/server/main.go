package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wadjakorntonsri/go-event-beacon/pkg/adapters/handler"
	"github.com/wadjakorntonsri/go-event-beacon/pkg/adapters/publisher"
	"github.com/wadjakorntonsri/go-event-beacon/pkg/adapters/repository/sqlite"
	"github.com/wadjakorntonsri/go-event-beacon/pkg/config"
	"github.com/wadjakorntonsri/go-event-beacon/pkg/core/services"
	"github.com/wadjakorntonsri/go-event-beacon/pkg/logger"
	"github.com/wadjakorntonsri/go-event-beacon/pkg/ports"
)

func main() {
	cfg := config.Load()
	log := logger.New("beacon-endpoint", cfg.AppEnv, cfg.LogLevel)

	// Initialize Repository
	repo, err := sqlite.NewSheetRepository(cfg.DatabaseURL)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer repo.Close()

	var pub ports.EventPublisher
	if len(cfg.KafkaBrokers) > 0 {
		kp := publisher.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer kp.Close()
		pub = kp
		log.Info("mirroring events to kafka", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	// Initialize Service
	target := services.Target{Workbook: cfg.Workbook(), Sheet: cfg.SheetName}
	service := services.NewIngestService(repo, target, pub, log)

	// Initialize Router
	mux := handler.NewRouter(cfg, service, log)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("server starting", "port", cfg.Port, "exec_path", cfg.ExecPath, "workbook", target.Workbook, "sheet", target.Sheet)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error("shutdown failed", "error", err)
	}
}
