package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/bryanwahyu/heartnote/internal/application"
	"github.com/bryanwahyu/heartnote/internal/application/analysis"
	apphistory "github.com/bryanwahyu/heartnote/internal/application/history"
	"github.com/bryanwahyu/heartnote/internal/config"
	"github.com/bryanwahyu/heartnote/internal/domain/history"
	"github.com/bryanwahyu/heartnote/internal/infra/ai/prompt"
	"github.com/bryanwahyu/heartnote/internal/infra/ai/transport"
	mysqlp "github.com/bryanwahyu/heartnote/internal/infra/db/mysql"
	pgp "github.com/bryanwahyu/heartnote/internal/infra/db/postgres"
	"github.com/bryanwahyu/heartnote/internal/infra/httpserver"
	"github.com/bryanwahyu/heartnote/internal/infra/storage"
	"github.com/bryanwahyu/heartnote/internal/logging"
	"github.com/bryanwahyu/heartnote/internal/middleware"
)

// kvStore is what every storage driver provides.
type kvStore interface {
	history.Store
	history.Pinger
}

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	// load config
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		logger.Fatal("storage init error", zap.String("driver", cfg.Storage.Driver), zap.Error(err))
	}
	defer closeStore()

	factory := transport.Factory{Client: &http.Client{Timeout: transport.DefaultTimeout}}

	analysisSvc, err := analysis.NewService(cfg.LLM.Transport(), factory, prompt.Build, logger.Named("analysis"))
	if err != nil {
		logger.Fatal("analysis init error", zap.Error(err))
	}
	upstreamSvc, err := analysis.NewService(cfg.Upstream.Transport(), factory, prompt.Build, logger.Named("upstream"))
	if err != nil {
		logger.Fatal("upstream init error", zap.Error(err))
	}

	historySvc := apphistory.NewService(
		apphistory.NewKVRepository(store, logger.Named("history")),
		application.SystemClock{},
		logger.Named("history"),
	)

	live := newRuntimeConfig(cfg, analysisSvc, upstreamSvc, factory)

	limiter := middleware.NewRateLimiter(cfg.RateLimit.Capacity, cfg.RateLimit.RefillPerSecond)

	handler := httpserver.NewRouter(httpserver.Deps{
		Analysis:       analysisSvc,
		Upstream:       upstreamSvc,
		History:        historySvc,
		Store:          store,
		Metrics:        middleware.NewMetrics(),
		Limiter:        limiter,
		Log:            logger.Named("http"),
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		FunctionName:   live.FunctionName,
		LLMEnabled:     live.LLMEnabled,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:        addr,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		// analyses stream for up to the transport timeout
		WriteTimeout: transport.DefaultTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// run server
	go func() {
		logger.Info("server listening", zap.String("addr", addr), zap.String("storage", cfg.Storage.Driver),
			zap.String("mode", string(cfg.LLM.Mode)), zap.Bool("llm", cfg.LLM.IsEnabled()))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	sweep := time.NewTicker(5 * time.Minute)
	defer sweep.Stop()

	// SIGHUP reloads the llm sections; SIGINT/SIGTERM shut down
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	for running := true; running; {
		select {
		case <-sweep.C:
			limiter.Sweep(10 * time.Minute)
		case s := <-sig:
			if s == syscall.SIGHUP {
				live.reload(path, logger)
				continue
			}
			running = false
		}
	}
	logger.Info("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}
}

func openStore(ctx context.Context, cfg *config.Config) (kvStore, func(), error) {
	noop := func() {}
	switch cfg.Storage.Driver {
	case "mysql":
		db, err := mysqlp.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			return nil, noop, err
		}
		s := mysqlp.NewKVStore(db, cfg.Storage.MaxValueBytes)
		return migrated(ctx, s, db)
	case "postgres":
		db, err := pgp.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			return nil, noop, err
		}
		s := pgp.NewKVStore(db, cfg.Storage.MaxValueBytes)
		return migrated(ctx, s, db)
	case "minio":
		s, err := storage.NewMinio(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
			cfg.Storage.MaxValueBytes,
		)
		return s, noop, err
	default:
		return storage.NewMemory(cfg.Storage.MaxValueBytes), noop, nil
	}
}

type migrator interface {
	kvStore
	Migrate(ctx context.Context) error
}

func migrated(ctx context.Context, s migrator, db *sql.DB) (kvStore, func(), error) {
	closeDB := func() { _ = db.Close() }
	if err := s.Migrate(ctx); err != nil {
		closeDB()
		return nil, func() {}, err
	}
	return s, closeDB, nil
}
