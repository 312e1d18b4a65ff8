package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/wadjakorntonsri/go-event-beacon/pkg/adapters/handler"
	"github.com/wadjakorntonsri/go-event-beacon/pkg/adapters/kvstore"
	"github.com/wadjakorntonsri/go-event-beacon/pkg/adapters/repository/sqlite"
	"github.com/wadjakorntonsri/go-event-beacon/pkg/beacon"
	"github.com/wadjakorntonsri/go-event-beacon/pkg/config"
	"github.com/wadjakorntonsri/go-event-beacon/pkg/core/domain"
	"github.com/wadjakorntonsri/go-event-beacon/pkg/core/services"
	"github.com/wadjakorntonsri/go-event-beacon/pkg/logger"
)

func TestIntegration(t *testing.T) {
	// 1. Setup DB
	repo, err := sqlite.NewSheetRepository(filepath.Join(t.TempDir(), "e2e.db"))
	if err != nil {
		t.Fatalf("Failed to init db: %v", err)
	}
	defer repo.Close()

	// 2. Setup Service and Router
	cfg := &config.Config{
		ExecPath:        "/exec",
		MaxBodyBytes:    10 * 1024,
		CORSAllowOrigin: "*",
		JWTSecret:       "e2e",
	}
	service := services.NewIngestService(repo, services.Target{Workbook: "e2e", Sheet: "events"}, nil, logger.Discard())
	server := httptest.NewServer(handler.NewRouter(cfg, service, logger.Discard()))
	defer server.Close()

	// 3. Setup Beacon
	ctx := context.Background()
	store := kvstore.NewMemoryStore()
	b := beacon.New(store, beacon.Options{
		HTTPClient: server.Client(),
		Page:       "/pricing",
		UserAgent:  "e2e-agent",
		Status:     beacon.NewStatus(0, nil),
	})
	if _, err := b.SaveEndpoint(ctx, server.URL+"/exec"); err != nil {
		t.Fatalf("SaveEndpoint: %v", err)
	}

	// TEST 1: Click
	before := time.Now().UTC()
	if err := b.Click(ctx, "B"); err != nil {
		t.Fatalf("Click: %v", err)
	}
	if _, kind := b.Status().Current(); kind != beacon.StatusSuccess {
		t.Errorf("Expected success status, got %v", kind)
	}

	// TEST 2: Heartbeat
	if err := b.Heartbeat(ctx); err != nil {
		t.Fatalf("Heartbeat: %v", err)
	}

	// TEST 3: Verify rows
	rows, total, err := service.ListRows(ctx, 1, 10)
	if err != nil {
		t.Fatalf("ListRows: %v", err)
	}
	if total != 3 {
		t.Fatalf("Expected header plus 2 rows, got %d", total)
	}
	if strings.Join(rows[0].Cells, ",") != strings.Join(domain.Header, ",") {
		t.Errorf("Unexpected header %v", rows[0].Cells)
	}

	userID := b.UserID(ctx)
	click := rows[1].Cells
	if click[1] != beacon.EventClick || click[2] != "B" || click[3] != userID {
		t.Errorf("Unexpected click row %v", click)
	}
	ts, err := time.Parse(domain.ISOLayout, click[0])
	if err != nil {
		t.Fatalf("ts_iso not ISO: %v", err)
	}
	if ts.Before(before.Truncate(time.Millisecond)) {
		t.Errorf("ts_iso %s earlier than send time %s", ts, before)
	}

	// meta is stored as the exact text the beacon sent
	expectedMeta, err := b.MetaJSON(nil)
	if err != nil {
		t.Fatal(err)
	}
	if click[4] != expectedMeta {
		t.Errorf("Expected meta %s, got %s", expectedMeta, click[4])
	}
	var meta map[string]string
	if err := json.Unmarshal([]byte(click[4]), &meta); err != nil || meta["page"] != "/pricing" {
		t.Errorf("Unexpected meta %q: %v", click[4], err)
	}

	heartbeat := rows[2].Cells
	if heartbeat[1] != beacon.EventHeartbeat || heartbeat[2] != "" || heartbeat[3] != userID {
		t.Errorf("Unexpected heartbeat row %v", heartbeat)
	}
}

func TestIntegrationRemoteRejection(t *testing.T) {
	repo, err := sqlite.NewSheetRepository(filepath.Join(t.TempDir(), "e2e.db"))
	if err != nil {
		t.Fatalf("Failed to init db: %v", err)
	}
	defer repo.Close()

	cfg := &config.Config{ExecPath: "/exec", MaxBodyBytes: 10 * 1024, JWTSecret: "e2e"}
	service := services.NewIngestService(repo, services.Target{Workbook: "e2e", Sheet: "events"}, nil, logger.Discard())
	server := httptest.NewServer(handler.NewRouter(cfg, service, logger.Discard()))
	defer server.Close()

	ctx := context.Background()
	b := beacon.New(kvstore.NewMemoryStore(), beacon.Options{HTTPClient: server.Client(), Status: beacon.NewStatus(0, nil)})
	b.SaveEndpoint(ctx, server.URL+"/exec")

	err = b.Send(ctx, beacon.Event{Kind: ""})
	var remote *beacon.RemoteError
	if !errors.As(err, &remote) {
		t.Fatalf("Expected RemoteError, got %v", err)
	}
	if text, kind := b.Status().Current(); kind != beacon.StatusError || !strings.Contains(text, "event") {
		t.Errorf("Unexpected status %q %v", text, kind)
	}
}
