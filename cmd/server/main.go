package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/calvinwijaya/klondike-be/internal/api"
	"github.com/calvinwijaya/klondike-be/internal/config"
	"github.com/calvinwijaya/klondike-be/internal/db"
	"github.com/calvinwijaya/klondike-be/internal/store"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(2)
	}

	logger, err := newLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// Validate already resolved the mode once; this cannot fail here.
	mode, _ := cfg.GameMode()

	// Initialize the store
	gameStore := store.NewMemoryStore()
	logger.Info("in-memory game store initialized")

	// Initialize the database
	database := openDatabase(cfg, logger.Named("db"))
	if database != nil {
		defer database.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize WebSocket hub
	hub := api.NewHub(logger.Named("hub"))
	go hub.Run(ctx)
	logger.Info("websocket hub started")

	// Initialize API handlers
	handlers := api.NewHandlers(gameStore, database, hub, logger.Named("api"), api.Defaults{
		Mode:      mode,
		DrawCount: cfg.DrawCount,
	})

	// Set up router
	r := mux.NewRouter()
	handlers.RegisterRoutes(r)

	// Add middleware for logging
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			logger.Debug("request",
				zap.String("method", r.Method),
				zap.String("uri", r.RequestURI),
				zap.Duration("duration", time.Since(start)))
		})
	})

	// Configure CORS
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{cfg.FrontendURL},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	// Create server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      c.Handler(r),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("starting server", zap.String("port", cfg.Port), zap.String("mode", string(mode)))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// Block until we receive a termination signal
	<-ctx.Done()

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown incomplete", zap.Error(err))
	}
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// openDatabase connects the results ledger. The server keeps running without
// one; stats endpoints then report it as unavailable.
func openDatabase(cfg config.Config, logger *zap.Logger) *db.Database {
	if cfg.DBDriver == db.DriverSQLite {
		// Create data directory if it doesn't exist
		if err := os.MkdirAll(filepath.Dir(cfg.DBDSN), 0755); err != nil {
			logger.Warn("failed to create data directory", zap.Error(err))
		}
	}

	database, err := db.NewDatabase(cfg.DBDriver, cfg.DBDSN, logger)
	if err != nil {
		logger.Warn("continuing without results database", zap.Error(err))
		return nil
	}

	logger.Info("database initialized", zap.String("driver", cfg.DBDriver))
	return database
}
