package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/dvloznov/bankbuddy/internal/aggregate"
	"github.com/dvloznov/bankbuddy/internal/api/handlers"
	"github.com/dvloznov/bankbuddy/internal/api/middleware"
	"github.com/dvloznov/bankbuddy/internal/backup"
	"github.com/dvloznov/bankbuddy/internal/config"
	"github.com/dvloznov/bankbuddy/internal/domain"
	"github.com/dvloznov/bankbuddy/internal/extract"
	"github.com/dvloznov/bankbuddy/internal/ledger"
	"github.com/dvloznov/bankbuddy/internal/logger"
	"github.com/dvloznov/bankbuddy/internal/pipeline"
	"github.com/dvloznov/bankbuddy/internal/store/memory"
	"github.com/dvloznov/bankbuddy/internal/store/postgres"
)

func main() {
	cfg := config.Load()

	var (
		port   = flag.String("port", cfg.Port, "HTTP server port")
		bucket = flag.String("backup-bucket", cfg.BackupBucket, "GCS bucket for daily ledger backups (or set BACKUP_BUCKET env)")
	)
	flag.Parse()

	log := logger.New()
	ctx := context.Background()

	// Initialize the store
	var store domain.Store
	if cfg.DatabaseURL != "" {
		pgStore, err := postgres.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer pgStore.Close()
		store = pgStore
	} else {
		log.Warn().Msg("No DATABASE_URL configured - using in-memory store, data will not survive restarts")
		store = memory.NewStore()
	}

	extractor := extract.NewGeminiExtractor(cfg.GeminiModel)
	ingestor := pipeline.NewIngestor(store, extractor, log)
	merger := ledger.NewMerger(store, log)
	engine := aggregate.NewEngine(store)

	// Start the backup scheduler
	if *bucket != "" {
		scheduler := backup.NewScheduler(backup.NewExporter(store, *bucket, log), cfg.BackupHour, log)
		scheduler.Start(ctx)
		defer scheduler.Stop()
	} else {
		log.Warn().Msg("No backup bucket configured - daily backups are disabled")
	}

	// Initialize handlers
	accountsHandler := handlers.NewAccountsHandler(store)
	statementsHandler := handlers.NewStatementsHandler(ingestor, store)
	transactionsHandler := handlers.NewTransactionsHandler(store, merger)
	summaryHandler := handlers.NewSummaryHandler(engine)

	// Create router
	mux := http.NewServeMux()

	mux.HandleFunc("/api/accounts", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			accountsHandler.List(w, r)
		case http.MethodPost:
			accountsHandler.Create(w, r)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/accounts/", func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r.URL.Path, "/api/accounts/")
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid account id")
			return
		}
		switch r.Method {
		case http.MethodPut:
			accountsHandler.Edit(w, r, id)
		case http.MethodDelete:
			accountsHandler.Delete(w, r, id)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/statements", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			statementsHandler.Ingest(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/statements/by-name", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			statementsHandler.IngestByName(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/transactions", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			transactionsHandler.List(w, r)
		case http.MethodPost:
			transactionsHandler.Add(w, r)
		case http.MethodPut:
			transactionsHandler.UpdateField(w, r)
		case http.MethodDelete:
			transactionsHandler.BulkDelete(w, r)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/transactions/duplicates", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			transactionsHandler.RemoveDuplicates(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/summary", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			summaryHandler.Summarize(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/summary/categories", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			summaryHandler.ByCategory(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// Apply middleware
	var handler http.Handler = mux
	handler = middleware.RequestID(log)(handler)
	handler = middleware.Logger(log)(handler)
	handler = middleware.Recovery(log)(handler)
	handler = middleware.CORS(handler)

	server := &http.Server{
		Addr:    ":" + *port,
		Handler: handler,
	}

	// Start server in background
	go func() {
		log.Info().Str("port", *port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}
}

// pathID extracts the trailing numeric id from a path like /api/accounts/42.
func pathID(path, prefix string) (int64, error) {
	raw := strings.TrimPrefix(path, prefix)
	return strconv.ParseInt(strings.Trim(raw, "/"), 10, 64)
}
