package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/coffeeledger/internal/config"
	"github.com/mmynk/coffeeledger/internal/ledger"
	"github.com/mmynk/coffeeledger/internal/metrics"
	"github.com/mmynk/coffeeledger/internal/middleware"
	"github.com/mmynk/coffeeledger/internal/service"
	"github.com/mmynk/coffeeledger/internal/storage"
	"github.com/mmynk/coffeeledger/internal/storage/filestore"
	"github.com/mmynk/coffeeledger/internal/storage/sqlite"
	"github.com/mmynk/coffeeledger/pkg/logging"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Logging is not configured yet.
		logging.Setup()
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	logging.SetupWithOptions(logging.ParseLevel(cfg.LogLevel), cfg.LogFormat)

	if err := run(cfg); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	store, err := openStore(cfg.Storage)
	if err != nil {
		return fmt.Errorf("initialize storage: %w", err)
	}
	defer store.Close()

	roster, err := cfg.Roster()
	if err != nil {
		return err
	}
	if roster == nil {
		roster = storage.DefaultRoster
	}

	m := metrics.New()
	l := ledger.New(store,
		ledger.WithSettlementModel(cfg.Settlement()),
		ledger.WithDefaultTieStrategy(cfg.Tie()),
		ledger.WithDefaultRoster(roster),
		ledger.WithRecorder(m),
	)
	slog.Info("Ledger ready",
		"settlement_model", l.SettlementModel(),
		"tie_strategy", cfg.Tie(),
	)

	staticDir, err := filepath.Abs(cfg.StaticPath)
	if err != nil {
		return fmt.Errorf("resolve static path: %w", err)
	}
	slog.Info("Serving static files", "path", staticDir)

	mux := http.NewServeMux()
	ledgerPath, ledgerHandler := service.NewLedgerServiceHandler(
		service.NewLedgerService(l),
		connect.WithInterceptors(middleware.LoggingInterceptor(m)),
	)
	mux.Handle(ledgerPath, ledgerHandler)
	mux.Handle("/metrics", m.Handler())
	mux.Handle("/", staticHandler(staticDir))

	// Wrap with h2c for HTTP/2 without TLS (required for Connect)
	handler := h2c.NewHandler(middleware.Logging(middleware.CORS(mux)), &http2.Server{})

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Connect server starting", "address", addr, "url", fmt.Sprintf("http://localhost%s", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// openStore opens the configured backend. The file backend also makes sure
// the history file exists with its header.
func openStore(cfg config.StorageConfig) (storage.Store, error) {
	switch cfg.Backend {
	case config.BackendSQLite:
		store, err := sqlite.New(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		slog.Info("Storage initialized", "backend", cfg.Backend, "database", cfg.DBPath)
		return store, nil
	default:
		store, err := filestore.New(cfg.DataDir)
		if err != nil {
			return nil, err
		}
		if err := store.EnsureHistory(context.Background()); err != nil {
			return nil, err
		}
		slog.Info("Storage initialized", "backend", cfg.Backend, "data_dir", store.Dir())
		return store, nil
	}
}

// staticHandler serves the single-page frontend, falling back to index.html
// for unknown paths.
func staticHandler(staticDir string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Unmatched Connect procedures should 404, not get the SPA.
		if strings.HasPrefix(r.URL.Path, "/"+service.LedgerServiceName) {
			http.NotFound(w, r)
			return
		}

		urlPath := r.URL.Path
		if urlPath == "/" {
			urlPath = "/index.html"
		}

		filePath := filepath.Join(staticDir, filepath.Clean("/"+urlPath))
		if info, err := os.Stat(filePath); err != nil || info.IsDir() {
			http.ServeFile(w, r, filepath.Join(staticDir, "index.html"))
			return
		}

		http.ServeFile(w, r, filePath)
	})
}
