package main

import (
	"database/sql"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"telemed-portal/internal/audit"
	"telemed-portal/internal/config"
	"telemed-portal/internal/consultation"
	"telemed-portal/internal/invoker"
	"telemed-portal/internal/platform/portalapi"
	"telemed-portal/internal/platform/session"
	"telemed-portal/internal/prescription"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	// 1. Audit store. Optional: without a database the portal still works,
	// transitions just are not recorded locally.
	var recorder audit.Recorder = audit.Nop{}
	var history prescription.HistorySource
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err == nil {
			err = db.Ping()
		}
		if err != nil {
			logger.Warn("audit database unavailable, transitions will not be recorded", zap.Error(err))
		} else {
			runMigrations(cfg, logger)
			pg := audit.NewPostgresRecorder(db)
			recorder = pg
			history = pg
			logger.Info("audit database connected")
		}
	}

	// 2. Session and remote client.
	tokens := session.NewStore()
	if cfg.ServiceToken != "" {
		tokens.Set(cfg.ServiceToken)
	}
	apiClient := portalapi.NewClient(cfg.PortalAPIURL, cfg.PortalAPITimeout, tokens, logger)

	// 3. Workflow core.
	gateway := consultation.NewGateway(apiClient, logger)
	runner := invoker.New(logger)
	ctrl := prescription.NewController(gateway, apiClient, runner, recorder, logger)
	handler := prescription.NewHandler(ctrl, gateway, apiClient, history)

	// 4. Router.
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware)

	r.Route("/api", func(r chi.Router) {
		prescription.RegisterRoutes(r, handler)
	})

	logger.Info("server starting",
		zap.String("port", cfg.Port),
		zap.String("portal_api", cfg.PortalAPIURL),
	)
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsDev() {
		return zap.NewDevelopment()
	}
	zapCfg := zap.NewProductionConfig()
	if err := zapCfg.Level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return zapCfg.Build()
}

func runMigrations(cfg *config.Config, logger *zap.Logger) {
	m, err := migrate.New(cfg.MigrationsPath, cfg.DatabaseURL)
	if err != nil {
		logger.Warn("migration init failed", zap.Error(err))
		return
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		logger.Warn("migration up failed", zap.Error(err))
		return
	}
	logger.Info("migrations applied")
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, Authorization, X-Physician-ID")
		if r.Method == http.MethodOptions {
			return
		}
		next.ServeHTTP(w, r)
	})
}
