// The fieldtime agent is the on-device daemon: it owns the local
// SQLite store, drains the offline sync queue against the server, and
// exposes a localhost REST/WebSocket control surface for UI clients.
package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fieldtime/fieldtime/cmd/agent/handlers"
	"github.com/fieldtime/fieldtime/internal/db"
	"github.com/fieldtime/fieldtime/internal/logging"
	"github.com/fieldtime/fieldtime/internal/remote"
	syncpkg "github.com/fieldtime/fieldtime/internal/sync"
	"github.com/fieldtime/fieldtime/internal/sync/scheduler"
	"github.com/fieldtime/fieldtime/internal/telemetry"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	logging.Init(os.Stdout, logging.LevelInfo)

	dataDir := envOr("FIELDTIME_DATA_DIR", "./data")
	serverURL := envOr("FIELDTIME_SERVER_URL", "http://localhost:8080")
	token := os.Getenv("FIELDTIME_TOKEN")
	port := envOr("FIELDTIME_PORT", "8097")

	database, err := db.Open(dataDir)
	if err != nil {
		logging.Error("Failed to open database", err, nil)
		os.Exit(1)
	}
	defer database.Close()

	migrator := db.NewMigrator(database.DB, db.Migrations())
	if err := migrator.Initialize(); err != nil {
		logging.Error("Failed to initialize migrations", err, nil)
		os.Exit(1)
	}
	if err := migrator.Up(); err != nil {
		logging.Error("Failed to apply migrations", err, nil)
		os.Exit(1)
	}

	store := db.NewStore(database.DB)
	defer store.Close()

	gateway := remote.NewClient(serverURL, token)
	engine := syncpkg.NewEngine(store, gateway, nil)
	sched := scheduler.NewScheduler(engine, nil)

	hub := NewWSHub()
	engine.SetEventHandler(hub)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sched.Start(ctx)
	defer sched.Stop()

	entries := handlers.NewEntriesHandler(store)
	reports := handlers.NewReportsHandler(store)
	syncCtl := handlers.NewSyncHandler(engine, sched)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /entries", entries.CreateEntry)
	mux.HandleFunc("GET /entries/monthly", entries.MonthlyEntries)
	mux.HandleFunc("GET /entries/search", entries.SearchEntries)
	mux.HandleFunc("PUT /entries/{id}", entries.UpdateEntry)
	mux.HandleFunc("DELETE /entries/{id}", entries.DeleteEntry)
	mux.HandleFunc("/reports/monthly", reports.Monthly)
	mux.HandleFunc("/reports/yearly", reports.Yearly)
	mux.HandleFunc("/sync/status", syncCtl.Status)
	mux.HandleFunc("/sync/trigger", syncCtl.Trigger)
	mux.HandleFunc("/sync/clear", syncCtl.Clear)
	mux.HandleFunc("/sync/download", syncCtl.Download)
	mux.HandleFunc("/sync/online", syncCtl.Online)
	mux.HandleFunc("/sync/conflicts", syncCtl.Conflicts)
	mux.HandleFunc("POST /sync/conflicts/{id}/resolve", syncCtl.Resolve)
	mux.HandleFunc("/ws", HandleWebSocket(hub))
	mux.HandleFunc("/api/health", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","service":"fieldtime-agent"}`))
	})
	mux.HandleFunc("/api/metrics", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(telemetry.Snapshot())
	})

	server := &http.Server{
		Addr:    "localhost:" + port,
		Handler: mux,
	}

	go func() {
		logging.Info("FieldTime agent listening",
			map[string]interface{}{"addr": server.Addr, "server_url": serverURL})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Error("HTTP server failed", err, nil)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.Error("Shutdown failed", err, nil)
	}
	logging.Info("FieldTime agent stopped", nil)
}
